package scoring

import (
	"strings"

	"github.com/mcoot/drawguess/internal/model"
)

// DefaultThreshold is the minimum confidence for a prediction to count
const DefaultThreshold = 0.60

// Service decides whether classifier output matches the secret word
type Service struct {
	threshold float64
}

// New creates a scoring service. A non-positive threshold uses the default.
func New(threshold float64) *Service {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Service{threshold: threshold}
}

// Threshold returns the configured confidence threshold
func (s *Service) Threshold() float64 {
	return s.threshold
}

// Match returns the first prediction naming the word with enough confidence
func (s *Service) Match(predictions []model.Prediction, word string) (model.Prediction, bool) {
	word = strings.TrimSpace(word)
	for _, p := range predictions {
		if p.Confidence < s.threshold {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(p.Label), word) {
			return p, true
		}
	}
	return model.Prediction{}, false
}

// IsCorrect reports whether any prediction matches the word above threshold
func (s *Service) IsCorrect(predictions []model.Prediction, word string) bool {
	_, ok := s.Match(predictions, word)
	return ok
}

// Evaluate packages predictions with the correctness verdict
func (s *Service) Evaluate(predictions []model.Prediction, word string) model.GuessResult {
	if predictions == nil {
		predictions = []model.Prediction{}
	}
	return model.GuessResult{
		Predictions: predictions,
		IsCorrect:   s.IsCorrect(predictions, word),
	}
}
