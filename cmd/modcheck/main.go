// modcheck evaluates a message from the command line and prints the verdict
// as JSON. It runs the same pipeline as the service but entirely offline:
// no database, no broker, built-in default keywords.
//
//	modcheck "Download the latest movie for free here"
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/copyguard/moderation/internal/config"
	"github.com/copyguard/moderation/internal/engine"
	"github.com/copyguard/moderation/internal/sentiment"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	configPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: modcheck [-config config.yaml] <message text>")
		os.Exit(2)
	}
	text := strings.Join(flag.Args(), " ")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	analyzer := sentiment.Select(cfg.AIEnabled, cfg.SentimentModelDir, cfg.SentimentSeqLen)
	if closer, ok := analyzer.(interface{ Close() }); ok {
		defer closer.Close()
	}

	eng := engine.New(analyzer, cfg.RiskThreshold)
	verdict := eng.Evaluate(text, nil)

	out, err := json.MarshalIndent(verdict, "", "  ")
	if err != nil {
		log.Fatalf("failed to marshal verdict: %v", err)
	}
	fmt.Println(string(out))

	if verdict.ShouldFilter {
		os.Exit(1)
	}
}
