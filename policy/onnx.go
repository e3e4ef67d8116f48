package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/brensch/snek/game"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	DefaultBatchSize    = 64
	DefaultBatchTimeout = time.Millisecond
)

// ErrModelClosed is returned by Predict after Close.
var ErrModelClosed = errors.New("onnx model closed")

type OnnxConfig struct {
	ModelPath string
	// SharedLibrary is the onnxruntime library. Empty falls back to
	// ORT_SHARED_LIBRARY_PATH and then to libonnxruntime.so* in the
	// working directory.
	SharedLibrary string
	BatchSize     int
	BatchTimeout  time.Duration
	Logger        *slog.Logger
}

type predictRequest struct {
	input []float32
	resp  chan predictResponse
}

type predictResponse struct {
	scores []float32
	err    error
}

// OnnxModel runs a network with input "input" shaped [batch, 24] and output
// "policy" shaped [batch, 4]. Concurrent Predict calls are gathered into
// batches so many self-play workers can share one session.
type OnnxModel struct {
	session   *ort.DynamicAdvancedSession
	cfg       OnnxConfig
	requests  chan predictRequest
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

func NewOnnxModel(cfg OnnxConfig) (*OnnxModel, error) {
	if cfg.ModelPath == "" {
		return nil, fmt.Errorf("onnx model path is required")
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = DefaultBatchTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if lib := sharedLibraryPath(cfg.SharedLibrary); lib != "" {
		ort.SetSharedLibraryPath(lib)
	}
	ortInitOnce.Do(func() {
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, fmt.Errorf("init onnxruntime: %w", ortInitErr)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer options.Destroy()
	// The network is tiny; one thread per op keeps workers from fighting.
	_ = options.SetIntraOpNumThreads(1)
	_ = options.SetInterOpNumThreads(1)

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, []string{"input"}, []string{"policy"}, options)
	if err != nil {
		return nil, fmt.Errorf("create session for %s: %w", cfg.ModelPath, err)
	}
	cfg.Logger.Info("onnx model loaded", "path", cfg.ModelPath, "batch", cfg.BatchSize)

	m := &OnnxModel{
		session:  session,
		cfg:      cfg,
		requests: make(chan predictRequest, cfg.BatchSize*2),
		done:     make(chan struct{}),
	}
	m.wg.Add(1)
	go m.batchLoop()
	return m, nil
}

func sharedLibraryPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if p := os.Getenv("ORT_SHARED_LIBRARY_PATH"); p != "" {
		return p
	}
	if runtime.GOOS != "linux" {
		return ""
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for _, name := range []string{"libonnxruntime.so", "libonnxruntime.so.1"} {
		abs := filepath.Join(cwd, name)
		if _, err := os.Stat(abs); err == nil {
			return abs
		}
	}
	return ""
}

// Predict queues one feature vector and waits for its scores.
func (m *OnnxModel) Predict(ctx context.Context, features []float32) ([]float32, error) {
	if len(features) != game.FeatureCount {
		return nil, fmt.Errorf("got %d features, want %d", len(features), game.FeatureCount)
	}
	req := predictRequest{input: features, resp: make(chan predictResponse, 1)}
	select {
	case m.requests <- req:
	case <-m.done:
		return nil, ErrModelClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-req.resp:
		return r.scores, r.err
	case <-m.done:
		return nil, ErrModelClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *OnnxModel) batchLoop() {
	defer m.wg.Done()
	input := make([]float32, 0, m.cfg.BatchSize*game.FeatureCount)
	pending := make([]predictRequest, 0, m.cfg.BatchSize)

	ticker := time.NewTicker(m.cfg.BatchTimeout)
	defer ticker.Stop()

	flush := func() {
		if len(pending) == 0 {
			return
		}
		m.runBatch(pending, input)
		pending = pending[:0]
		input = input[:0]
	}

	for {
		select {
		case req := <-m.requests:
			pending = append(pending, req)
			input = append(input, req.input...)
			if len(pending) >= m.cfg.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-m.done:
			failBatch(pending, ErrModelClosed)
			for {
				select {
				case req := <-m.requests:
					req.resp <- predictResponse{err: ErrModelClosed}
				default:
					return
				}
			}
		}
	}
}

func (m *OnnxModel) runBatch(reqs []predictRequest, input []float32) {
	n := int64(len(reqs))
	in, err := ort.NewTensor(ort.NewShape(n, int64(game.FeatureCount)), input)
	if err != nil {
		failBatch(reqs, fmt.Errorf("input tensor: %w", err))
		return
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(n, int64(ActionCount)))
	if err != nil {
		failBatch(reqs, fmt.Errorf("output tensor: %w", err))
		return
	}
	defer out.Destroy()

	if err := m.session.Run([]ort.Value{in}, []ort.Value{out}); err != nil {
		failBatch(reqs, fmt.Errorf("run: %w", err))
		return
	}

	data := out.GetData()
	for i, req := range reqs {
		scores := make([]float32, ActionCount)
		copy(scores, data[i*ActionCount:(i+1)*ActionCount])
		req.resp <- predictResponse{scores: scores}
	}
}

func failBatch(reqs []predictRequest, err error) {
	for _, req := range reqs {
		req.resp <- predictResponse{err: err}
	}
}

// Close stops the batch loop and releases the session.
func (m *OnnxModel) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
		err = m.session.Destroy()
	})
	return err
}

// NewOnnxPolicy loads a model and wraps it as a Policy. Close the returned
// model when done.
func NewOnnxPolicy(cfg OnnxConfig) (*ModelPolicy, *OnnxModel, error) {
	m, err := NewOnnxModel(cfg)
	if err != nil {
		return nil, nil, err
	}
	return NewModelPolicy(NameOnnx, m), m, nil
}
