package oracle

import (
	"context"
	"time"

	"github.com/mcoot/drawguess/internal/model"
)

// Oracle classifies a normalized drawing into ranked labels
type Oracle interface {
	Predict(ctx context.Context, img model.Image) ([]model.Prediction, error)
	IsAvailable(ctx context.Context) bool
}

// Config holds the remote classifier settings
type Config struct {
	URL     string
	Timeout time.Duration
	TopK    int
}

// DefaultConfig returns the defaults for a locally hosted classifier
func DefaultConfig() Config {
	return Config{
		URL:     "http://localhost:5001/predict",
		Timeout: 15 * time.Second,
		TopK:    5,
	}
}
