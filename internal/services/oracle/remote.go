package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/mcoot/drawguess/internal/model"
)

type predictRequest struct {
	Shape []int     `json:"shape"`
	Data  []float32 `json:"data"`
	TopK  int       `json:"top_k"`
}

type predictResponse struct {
	Predictions []model.Prediction `json:"predictions"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// Remote calls a classifier over HTTP
type Remote struct {
	predictURL string
	healthURL  string
	topK       int
	httpClient *http.Client
}

// NewRemote creates a classifier client. The health endpoint sits next to the
// predict endpoint.
func NewRemote(cfg Config) *Remote {
	predictURL := strings.TrimSuffix(cfg.URL, "/")
	healthURL := strings.TrimSuffix(predictURL, "/predict") + "/health"
	topK := cfg.TopK
	if topK <= 0 {
		topK = DefaultConfig().TopK
	}
	return &Remote{
		predictURL: predictURL,
		healthURL:  healthURL,
		topK:       topK,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

var _ Oracle = (*Remote)(nil)

// Predict posts the image and returns at most topK predictions, best first
func (r *Remote) Predict(ctx context.Context, img model.Image) ([]model.Prediction, error) {
	body, err := json.Marshal(predictRequest{
		Shape: []int{model.ImageSize, model.ImageSize},
		Data:  img[:],
		TopK:  r.topK,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.predictURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrOracleUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d: %s", model.ErrOracleUnavailable, resp.StatusCode, string(respBody))
	}

	var parsed predictResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	predictions := parsed.Predictions
	sort.SliceStable(predictions, func(i, j int) bool {
		return predictions[i].Confidence > predictions[j].Confidence
	})
	if len(predictions) > r.topK {
		predictions = predictions[:r.topK]
	}
	return predictions, nil
}

// IsAvailable reports whether the health endpoint answers ok
func (r *Remote) IsAvailable(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.healthURL, nil)
	if err != nil {
		return false
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return false
	}
	var health healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false
	}
	return health.Status == "ok"
}
