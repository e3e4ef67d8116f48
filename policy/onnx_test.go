package policy

import (
	"context"
	"testing"
	"time"

	"github.com/brensch/snek/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// idleModel runs the batch loop without a session. Requests never reach
// runBatch because the loop is stopped before the ticker fires.
func idleModel() *OnnxModel {
	m := &OnnxModel{
		cfg:      OnnxConfig{BatchSize: DefaultBatchSize, BatchTimeout: time.Hour},
		requests: make(chan predictRequest, DefaultBatchSize*2),
		done:     make(chan struct{}),
	}
	m.wg.Add(1)
	go m.batchLoop()
	return m
}

func TestPredictAfterStopNeverBlocks(t *testing.T) {
	m := idleModel()
	close(m.done)
	m.wg.Wait()

	features := make([]float32, game.FeatureCount)
	for i := 0; i < 50; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		_, err := m.Predict(ctx, features)
		cancel()
		require.ErrorIs(t, err, ErrModelClosed, "run %d", i)
	}
}

func TestStopFailsQueuedRequests(t *testing.T) {
	m := &OnnxModel{
		cfg:      OnnxConfig{BatchSize: DefaultBatchSize, BatchTimeout: time.Hour},
		requests: make(chan predictRequest, 4),
		done:     make(chan struct{}),
	}
	queued := make([]predictRequest, 3)
	for i := range queued {
		queued[i] = predictRequest{input: make([]float32, game.FeatureCount), resp: make(chan predictResponse, 1)}
		m.requests <- queued[i]
	}
	close(m.done)
	m.wg.Add(1)
	m.batchLoop()

	for i, req := range queued {
		select {
		case r := <-req.resp:
			assert.ErrorIs(t, r.err, ErrModelClosed, "request %d", i)
		default:
			t.Fatalf("request %d was never answered", i)
		}
	}
	assert.Empty(t, m.requests)
}

func TestPredictRejectsWrongWidth(t *testing.T) {
	m := idleModel()
	defer func() {
		close(m.done)
		m.wg.Wait()
	}()
	_, err := m.Predict(context.Background(), make([]float32, game.FeatureCount-1))
	assert.Error(t, err)
}
