package oracle

import (
	"context"

	"github.com/mcoot/drawguess/internal/model"
)

// Unavailable is used when no classifier is configured
type Unavailable struct{}

var _ Oracle = Unavailable{}

func (Unavailable) Predict(ctx context.Context, img model.Image) ([]model.Prediction, error) {
	return nil, model.ErrOracleUnavailable
}

func (Unavailable) IsAvailable(ctx context.Context) bool {
	return false
}
