package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/copyguard/moderation/internal/action"
	"github.com/copyguard/moderation/internal/audit"
	"github.com/copyguard/moderation/internal/config"
	"github.com/copyguard/moderation/internal/database"
	"github.com/copyguard/moderation/internal/engine"
	"github.com/copyguard/moderation/internal/keyword"
	"github.com/copyguard/moderation/internal/ledger"
	"github.com/copyguard/moderation/internal/messaging"
	"github.com/copyguard/moderation/internal/metrics"
	"github.com/copyguard/moderation/internal/protocol"
	"github.com/copyguard/moderation/internal/ratelimit"
	"github.com/copyguard/moderation/internal/sentiment"
)

func main() {
	log.Println("Starting copyguard moderation service...")

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[config] .env not loaded: %v", err)
	}

	configPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// PostgreSQL setup (keywords and audit trail). Open applies migrations.
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to PostgreSQL: %v", err)
	}
	keywordStore := keyword.NewStore(db)
	auditStore := audit.NewStore(db)

	// Redis setup (detection counters).
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		cancel()
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	cancel()
	detections := ledger.NewStore(rdb)

	// NATS setup.
	natsConfig := messaging.DefaultNATSConfig()
	natsConfig.URL = cfg.NATSURL
	natsConfig.Name = "copyguard-moderatord"

	natsClient, err := messaging.NewNATSClient(natsConfig)
	if err != nil {
		log.Fatalf("failed to connect to NATS: %v", err)
	}

	// Sentiment analyzer: real model or neutral stub, fixed for the process
	// lifetime.
	analyzer := sentiment.Select(cfg.AIEnabled, cfg.SentimentModelDir, cfg.SentimentSeqLen)
	if analyzer.Available() {
		metrics.SentimentAvailable.Set(1)
	} else {
		metrics.SentimentAvailable.Set(0)
	}

	eng := engine.New(analyzer, cfg.RiskThreshold)
	limiter := ratelimit.NewLimiter(rdb)
	executor := action.NewExecutor(natsClient, limiter, cfg.WarningTTL)

	// Keyword snapshot for the hot path. The first refresh is best effort:
	// an empty snapshot falls back to the built-in default list.
	cache := keyword.NewCache(keywordStore)
	startCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := cache.Refresh(startCtx); err != nil {
		log.Printf("[keywords] initial refresh failed, starting with defaults: %v", err)
	}
	cancel()

	ctx, stop := context.WithCancel(context.Background())
	go cache.Run(ctx, cfg.KeywordRefresh)

	// Moderation check requests.
	err = natsClient.SubscribeModerationCheck(func(data []byte) {
		var req protocol.CheckRequest
		if err := json.Unmarshal(data, &req); err != nil {
			log.Printf("[moderator] failed to unmarshal request: %v", err)
			return
		}
		if err := protocol.ValidateCheckRequest(&req); err != nil {
			log.Printf("[moderator] rejected request: %v", err)
			return
		}
		handleCheck(ctx, eng, cache, executor, natsClient, detections, keywordStore, auditStore, req)
	})
	if err != nil {
		log.Fatalf("failed to subscribe to moderation checks: %v", err)
	}

	// Keyword management commands.
	err = natsClient.SubscribeKeywordCommands(func(data []byte) {
		handleKeywordCommand(ctx, natsClient, keywordStore, cache, data)
	})
	if err != nil {
		log.Fatalf("failed to subscribe to keyword commands: %v", err)
	}

	// Metrics endpoint.
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: metrics.Handler()}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("metrics server: %v", err)
		}
	}()

	log.Printf("copyguard moderation service running")
	log.Printf("  metrics_addr:   %s", cfg.MetricsAddr)
	log.Printf("  redis_addr:     %s", cfg.RedisAddr)
	log.Printf("  nats_url:       %s", cfg.NATSURL)
	log.Printf("  risk_threshold: %.2f", cfg.RiskThreshold)
	log.Printf("  sentiment:      available=%v", analyzer.Available())

	// Graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Printf("received signal %v, shutting down...", sig)

	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	metricsServer.Shutdown(shutdownCtx)
	cancel()

	executor.Close()
	natsClient.Close()
	rdb.Close()
	db.Close()
	if closer, ok := analyzer.(interface{ Close() }); ok {
		closer.Close()
	}
}

// handleCheck evaluates one message and, when filtered, publishes the
// per-chat verdict and enforcement actions, bumps detection counters, and
// records the audit event. Counter and audit failures are logged, never
// allowed to block enforcement.
func handleCheck(
	ctx context.Context,
	eng *engine.Engine,
	cache *keyword.Cache,
	executor *action.Executor,
	natsClient *messaging.NATSClient,
	detections *ledger.Store,
	keywordStore *keyword.Store,
	auditStore *audit.Store,
	req protocol.CheckRequest,
) {
	start := time.Now()
	verdict := eng.Evaluate(req.Text, cache.Snapshot())
	metrics.EvaluationLatency.Observe(time.Since(start).Seconds())
	metrics.RiskScore.Observe(verdict.RiskScore)

	if !verdict.ShouldFilter {
		metrics.EvaluationsTotal.WithLabelValues("passed").Inc()
		publishVerdict(natsClient, req, verdict)
		return
	}

	metrics.EvaluationsTotal.WithLabelValues("filtered").Inc()
	log.Printf("[moderator] FILTERED msg=%d chat=%d user=%d score=%.2f keywords=%v",
		req.MessageID, req.ChatID, req.UserID, verdict.RiskScore, verdict.MatchedKeywords)

	publishVerdict(natsClient, req, verdict)

	if err := executor.Execute(ctx, req, verdict); err != nil {
		log.Printf("[moderator] enforcement actions: %v", err)
	}

	for _, kw := range verdict.MatchedKeywords {
		metrics.KeywordDetections.WithLabelValues(kw).Inc()
		if err := keywordStore.IncrementDetection(ctx, kw); err != nil {
			log.Printf("[moderator] detection counter for %q: %v", kw, err)
		}
	}
	if err := detections.Increment(ctx, verdict.MatchedKeywords); err != nil {
		log.Printf("[moderator] ledger: %v", err)
	}

	err := auditStore.Record(ctx, &audit.Event{
		MessageID:       req.MessageID,
		ChatID:          req.ChatID,
		UserID:          req.UserID,
		MessagePreview:  req.Text,
		MatchedKeywords: verdict.MatchedKeywords,
		RiskScore:       verdict.RiskScore,
		Reasons:         verdict.Reasons,
	})
	if err != nil {
		log.Printf("[moderator] audit: %v", err)
	}
}

func publishVerdict(natsClient *messaging.NATSClient, req protocol.CheckRequest, verdict engine.Verdict) {
	msg := protocol.VerdictMsg{
		MessageID:          req.MessageID,
		ChatID:             req.ChatID,
		ShouldFilter:       verdict.ShouldFilter,
		MatchedKeywords:    verdict.MatchedKeywords,
		RiskScore:          verdict.RiskScore,
		Reasons:            verdict.Reasons,
		SentimentAvailable: verdict.SentimentAvailable,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[moderator] failed to marshal verdict: %v", err)
		return
	}
	if err := natsClient.PublishVerdict(req.ChatID, data); err != nil {
		log.Printf("[moderator] failed to publish verdict: %v", err)
	}
}

// handleKeywordCommand applies one operator command and publishes the reply
// on the per-request subject. The snapshot is refreshed after every
// successful mutation so evaluations see the change immediately.
func handleKeywordCommand(
	ctx context.Context,
	natsClient *messaging.NATSClient,
	store *keyword.Store,
	cache *keyword.Cache,
	data []byte,
) {
	cmd, err := protocol.ParseKeywordCommand(data)
	if err != nil {
		log.Printf("[keywords] bad command: %v", err)
		if cmd.RequestID != "" {
			reply(natsClient, protocol.KeywordReply{RequestID: cmd.RequestID, Error: err.Error()})
		}
		return
	}

	switch cmd.Op {
	case protocol.OpAddKeyword:
		if _, err := store.Add(ctx, cmd.Keyword, cmd.AddedBy); err != nil {
			reply(natsClient, protocol.KeywordReply{RequestID: cmd.RequestID, Error: err.Error()})
			return
		}
	case protocol.OpRemoveKeyword:
		if err := store.Deactivate(ctx, cmd.Keyword); err != nil {
			reply(natsClient, protocol.KeywordReply{RequestID: cmd.RequestID, Error: err.Error()})
			return
		}
	case protocol.OpListKeywords:
		list, err := store.List(ctx, cmd.IncludeInactive)
		if err != nil {
			reply(natsClient, protocol.KeywordReply{RequestID: cmd.RequestID, Error: err.Error()})
			return
		}
		infos := make([]protocol.KeywordInfo, 0, len(list))
		for _, kw := range list {
			infos = append(infos, protocol.KeywordInfo{
				Keyword:        kw.Text,
				Active:         kw.Active,
				DetectionCount: kw.DetectionCount,
			})
		}
		reply(natsClient, protocol.KeywordReply{RequestID: cmd.RequestID, OK: true, Keywords: infos})
		return
	}

	if err := cache.Refresh(ctx); err != nil {
		log.Printf("[keywords] refresh after %s: %v", cmd.Op, err)
	}
	reply(natsClient, protocol.KeywordReply{RequestID: cmd.RequestID, OK: true})
}

func reply(natsClient *messaging.NATSClient, r protocol.KeywordReply) {
	data, err := json.Marshal(r)
	if err != nil {
		log.Printf("[keywords] failed to marshal reply: %v", err)
		return
	}
	if err := natsClient.PublishKeywordReply(r.RequestID, data); err != nil {
		log.Printf("[keywords] failed to publish reply: %v", err)
	}
}
