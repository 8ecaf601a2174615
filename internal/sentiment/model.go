package sentiment

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

const defaultSeqLen = 128

// Model wraps an ONNX sentiment classifier (two logits: negative, positive)
// and its tokenizer. It satisfies Analyzer: polarity is p(positive) minus
// p(negative) after softmax, which lands in [-1, 1] by construction.
//
// Inference errors after a successful load are recovered locally: the model
// logs and returns neutral 0 rather than surfacing a pipeline failure.
type Model struct {
	session   *ort.AdvancedSession
	tokenizer *WordPieceTokenizer
	seqLen    int

	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	output        *ort.Tensor[float32]

	// The session reuses pre-allocated tensors, so calls are serialized.
	mu sync.Mutex
}

// LoadModel initializes the ONNX session and tokenizer from a bundle
// directory containing sentiment.onnx and tokenizer/vocab.txt. Loading is a
// one-time startup cost; callers fall back to Disabled() on error.
func LoadModel(bundleDir string, seqLen int) (*Model, error) {
	if strings.TrimSpace(bundleDir) == "" {
		return nil, errors.New("sentiment: bundle dir is empty")
	}
	if seqLen <= 0 {
		seqLen = defaultSeqLen
	}

	libPath := resolveSharedLibraryPath(bundleDir)
	if libPath == "" {
		return nil, errors.New("sentiment: onnxruntime shared library not found; set ONNXRUNTIME_SHARED_LIBRARY_PATH or install the runtime")
	}
	ort.SetSharedLibraryPath(libPath)
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("sentiment: initialize onnxruntime: %w", err)
		}
	}

	modelPath := filepath.Join(bundleDir, "sentiment.onnx")
	vocabPath := filepath.Join(bundleDir, "tokenizer", "vocab.txt")

	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("sentiment: model file missing at %s: %w", modelPath, err)
	}

	tokenizer, err := LoadWordPieceTokenizer(vocabPath)
	if err != nil {
		return nil, fmt.Errorf("sentiment: load tokenizer: %w", err)
	}

	inputShape := ort.NewShape(1, int64(seqLen))
	inputIDs, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("sentiment: allocate input_ids tensor: %w", err)
	}
	attnMask, err := ort.NewEmptyTensor[int64](inputShape)
	if err != nil {
		return nil, fmt.Errorf("sentiment: allocate attention_mask tensor: %w", err)
	}
	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 2))
	if err != nil {
		return nil, fmt.Errorf("sentiment: allocate output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(
		modelPath,
		[]string{"input_ids", "attention_mask"},
		[]string{"logits"},
		[]ort.Value{inputIDs, attnMask},
		[]ort.Value{output},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("sentiment: create onnx session: %w", err)
	}

	return &Model{
		session:       session,
		tokenizer:     tokenizer,
		seqLen:        seqLen,
		inputIDs:      inputIDs,
		attentionMask: attnMask,
		output:        output,
	}, nil
}

// Polarity runs inference on normalized text and returns a value in [-1, 1].
func (m *Model) Polarity(text string) float64 {
	if text == "" {
		return 0
	}

	ids, attn := m.tokenizer.Encode(text, m.seqLen)

	m.mu.Lock()
	defer m.mu.Unlock()

	copy(m.inputIDs.GetData(), ids)
	copy(m.attentionMask.GetData(), attn)

	if err := m.session.Run(); err != nil {
		log.Printf("[sentiment] onnx run failed, scoring neutral: %v", err)
		return 0
	}

	logits := m.output.GetData()
	if len(logits) < 2 {
		return 0
	}

	// Softmax over (negative, positive); polarity = pPos - pNeg.
	neg := math.Exp(float64(logits[0]))
	pos := math.Exp(float64(logits[1]))
	return (pos - neg) / (pos + neg)
}

// Available reports true: a loaded model is a real estimator.
func (m *Model) Available() bool { return true }

// Close releases the ONNX session and tensors.
func (m *Model) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
	if m.inputIDs != nil {
		m.inputIDs.Destroy()
		m.inputIDs = nil
	}
	if m.attentionMask != nil {
		m.attentionMask.Destroy()
		m.attentionMask = nil
	}
	if m.output != nil {
		m.output.Destroy()
		m.output = nil
	}
}

// resolveSharedLibraryPath locates the platform onnxruntime shared library.
// ONNXRUNTIME_SHARED_LIBRARY_PATH wins; otherwise common names and locations
// are probed, starting with the bundle directory itself.
func resolveSharedLibraryPath(bundleDir string) string {
	if env := strings.TrimSpace(os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")); env != "" {
		return env
	}

	names := []string{
		"libonnxruntime.so",
		"onnxruntime.so",
		"libonnxruntime.dylib",
		"onnxruntime.dylib",
		"onnxruntime.dll",
	}
	dirs := []string{
		bundleDir,
		filepath.Join(bundleDir, "lib"),
		".",
		"/usr/local/lib",
		"/usr/lib",
		"/opt/homebrew/lib",
	}

	for _, dir := range dirs {
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
