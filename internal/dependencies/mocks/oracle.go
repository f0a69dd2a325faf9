package mocks

import (
	"context"
	"sync"

	"github.com/mcoot/drawguess/internal/model"
)

type oracleResult struct {
	predictions []model.Prediction
	err         error
}

// MockOracle is a scripted classifier for testing.
// Queued results are returned in order; once exhausted, Default is returned.
type MockOracle struct {
	mu sync.Mutex

	results []oracleResult
	index   int
	calls   []model.Image

	Default   []model.Prediction
	Available bool
}

// NewMockOracle creates an available MockOracle with no queued results
func NewMockOracle() *MockOracle {
	return &MockOracle{Available: true}
}

// Predict returns the next queued result
func (o *MockOracle) Predict(ctx context.Context, img model.Image) ([]model.Prediction, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, img)
	if o.index >= len(o.results) {
		return o.Default, nil
	}
	result := o.results[o.index]
	o.index++
	return result.predictions, result.err
}

// IsAvailable returns the configured availability
func (o *MockOracle) IsAvailable(ctx context.Context) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.Available
}

// QueuePredictions adds a successful result to the queue
func (o *MockOracle) QueuePredictions(predictions ...model.Prediction) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, oracleResult{predictions: predictions})
}

// QueueError adds a failing result to the queue
func (o *MockOracle) QueueError(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, oracleResult{err: err})
}

// Calls returns how many times Predict was invoked
func (o *MockOracle) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.calls)
}
