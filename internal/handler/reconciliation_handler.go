package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/libertypay/card-reconciliation/internal/dto"
	"github.com/libertypay/card-reconciliation/internal/service"
)

type ReconciliationHandler struct {
	svc *service.ReconciliationService
}

func NewReconciliationHandler(svc *service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{svc: svc}
}

// Run triggers a reconciliation run. Accepts either a JSON body
// (dto.RunReconciliationRequest) or a multipart form with a "workbook"
// file plus optional run_date, days_offset and debug fields.
func (h *ReconciliationHandler) Run(c *gin.Context) {
	opts, ok := h.parseOptions(c)
	if !ok {
		return
	}

	outcome, err := h.svc.Run(c.Request.Context(), opts)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "reconciliation failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// Debug serves the diagnostic report of the most recent run without
// reconciling again.
func (h *ReconciliationHandler) Debug(c *gin.Context) {
	report := h.svc.LastDebugReport()
	if report == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no reconciliation run yet"})
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *ReconciliationHandler) parseOptions(c *gin.Context) (service.RunOptions, bool) {
	var opts service.RunOptions

	if form, err := c.MultipartForm(); err == nil && form != nil {
		if files := form.File["workbook"]; len(files) > 0 {
			f, err := files[0].Open()
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "cannot open uploaded workbook: " + err.Error()})
				return opts, false
			}
			// Closed when the request body is released; excelize reads it
			// fully inside the run.
			opts.Workbook = f
		}
		if v := c.PostForm("run_date"); v != "" {
			d, err := time.Parse("2006-01-02", v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run_date: expected YYYY-MM-DD"})
				return opts, false
			}
			opts.RunDate = &d
		}
		if v := c.PostForm("days_offset"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid days_offset"})
				return opts, false
			}
			opts.DaysOffset = &n
		}
		opts.Debug = c.PostForm("debug") == "true"
		return opts, true
	}

	var req dto.RunReconciliationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
			return opts, false
		}
	}
	if req.RunDate != "" {
		d, _ := time.Parse("2006-01-02", req.RunDate)
		opts.RunDate = &d
	}
	opts.DaysOffset = req.DaysOffset
	opts.Debug = req.Debug
	return opts, true
}
