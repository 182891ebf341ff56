package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/libertypay/card-reconciliation/internal/dto"
	"github.com/libertypay/card-reconciliation/internal/middleware"
	"github.com/libertypay/card-reconciliation/internal/service"
)

type MetricsHandler struct {
	svc *service.ReconciliationService
}

func NewMetricsHandler(svc *service.ReconciliationService) *MetricsHandler {
	return &MetricsHandler{svc: svc}
}

// List returns stored snapshots newest first, paginated.
func (h *MetricsHandler) List(c *gin.Context) {
	p := dto.ParsePagination(c)

	snaps, total, err := h.svc.ListSnapshots(c.Request.Context(), p.PageSize, p.Offset)
	if err != nil {
		status, resp := middleware.MapDBError(err)
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusOK, dto.SnapshotListResponse{
		Data:       snaps,
		Pagination: dto.NewPagination(p.Page, p.PageSize, total),
	})
}

// GetByDate returns the snapshot stored for one run date.
func (h *MetricsHandler) GetByDate(c *gin.Context) {
	runDate := c.Param("run_date")
	if _, err := time.Parse("2006-01-02", runDate); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run_date: expected YYYY-MM-DD"})
		return
	}

	snap, err := h.svc.SnapshotByDate(c.Request.Context(), runDate)
	if err != nil {
		status, resp := middleware.MapDBError(err)
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// GetLatest returns the most recently stored snapshot.
func (h *MetricsHandler) GetLatest(c *gin.Context) {
	snap, err := h.svc.LatestSnapshot(c.Request.Context())
	if err != nil {
		status, resp := middleware.MapDBError(err)
		c.JSON(status, resp)
		return
	}

	c.JSON(http.StatusOK, snap)
}
