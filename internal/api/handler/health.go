package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/mcoot/drawguess/internal/api/response"
	"github.com/mcoot/drawguess/internal/services/oracle"
	"github.com/mcoot/drawguess/internal/storage"
)

const oracleProbeTimeout = 2 * time.Second

// StatsSource reports live registry counts
type StatsSource interface {
	Stats(ctx context.Context) storage.Stats
}

// HealthHandler reports server and classifier health
type HealthHandler struct {
	stats  StatsSource
	oracle oracle.Oracle
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(stats StatsSource, oracle oracle.Oracle) *HealthHandler {
	return &HealthHandler{stats: stats, oracle: oracle}
}

// Get handles GET /api/v1/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), oracleProbeTimeout)
	defer cancel()
	available := h.oracle.IsAvailable(ctx)

	response.JSON(w, http.StatusOK, response.HealthFromStats(h.stats.Stats(r.Context()), available))
}
