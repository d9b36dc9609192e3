package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/entity"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/metrics"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/infrastructure/cache"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/interfaces/http/response"
)

// CrashProvider fetches the crash-reporting vendor's stability snapshot.
type CrashProvider interface {
	FetchOverview(ctx context.Context) (*entity.CrashOverview, error)
}

// StabilityHandler serves the crash-free-sessions widget in the
// dashboard header.
type StabilityHandler struct {
	provider CrashProvider
	cache    *cache.TTLCache
	logger   *zap.Logger
}

// NewStabilityHandler creates a new stability handler
func NewStabilityHandler(provider CrashProvider, c *cache.TTLCache, logger *zap.Logger) *StabilityHandler {
	return &StabilityHandler{
		provider: provider,
		cache:    c,
		logger:   logger,
	}
}

// keyCrashes shares the metrics prefix so a manual refresh drops it too.
const keyCrashes = "metrics:crashes"

// GetCrashOverview returns the current crash-free-sessions rate.
func (h *StabilityHandler) GetCrashOverview(c *gin.Context) {
	ov, err := cache.GetOrCompute(c.Request.Context(), h.cache, keyCrashes, metrics.TTLOverview,
		func(ctx context.Context) (*entity.CrashOverview, error) {
			return h.provider.FetchOverview(ctx)
		})
	if err != nil {
		h.logger.Error("crash overview failed", zap.Error(err))
		response.BadGateway(c, "Failed to fetch crash overview")
		return
	}
	response.OK(c, ov)
}
