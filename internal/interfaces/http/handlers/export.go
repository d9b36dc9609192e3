package handlers

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/domain/repository"
	"github.com/jeremyplt/shinobi-dashboard-sub000/internal/interfaces/http/response"
)

// ExportHandler streams the persisted snapshot history as CSV.
type ExportHandler struct {
	snapshots repository.SnapshotRepository
	logger    *zap.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(snapshots repository.SnapshotRepository, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		snapshots: snapshots,
		logger:    logger,
	}
}

// ExportSnapshots writes the snapshot rows for the requested window
// (default: trailing year) as a CSV attachment.
func (h *ExportHandler) ExportSnapshots(c *gin.Context) {
	end := time.Now().UTC()
	start := end.AddDate(-1, 0, 0)
	if s := c.Query("start"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			response.BadRequest(c, "start must be YYYY-MM-DD")
			return
		}
		start = t
	}
	if s := c.Query("end"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			response.BadRequest(c, "end must be YYYY-MM-DD")
			return
		}
		end = t
	}

	rows, err := h.snapshots.ListRange(c.Request.Context(), start, end)
	if err != nil {
		h.logger.Error("failed to list snapshots for export", zap.Error(err))
		response.InternalError(c, "Failed to export snapshots")
		return
	}

	// Buffer the document so a write error surfaces as a 500 instead of
	// a silently truncated download. Snapshot history is one row per day;
	// a few years of it fits in memory comfortably.
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	records := [][]string{{
		"date", "mrr", "active_subscriptions", "revenue_28d",
		"new_customers_28d", "active_trials", "event_count",
	}}
	for _, s := range rows {
		records = append(records, []string{
			s.Date.Format("2006-01-02"),
			strconv.FormatInt(s.MRR, 10),
			strconv.FormatInt(s.ActiveSubscriptions, 10),
			strconv.FormatInt(s.Revenue28d, 10),
			strconv.FormatInt(s.NewCustomers28d, 10),
			strconv.FormatInt(s.ActiveTrials, 10),
			strconv.FormatInt(s.EventCount, 10),
		})
	}
	if err := w.WriteAll(records); err != nil {
		h.logger.Error("failed to build snapshot CSV", zap.Error(err))
		response.InternalError(c, "Failed to export snapshots")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="daily_snapshots.csv"`)
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}
