package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"propmate-go/internal/model"
)

// ListPayments returns recorded payments, newest first. Accepts optional
// tenant_id and limit query parameters.
func (h *Handlers) ListPayments(c *gin.Context) {
	var tenantID uint
	if raw := c.Query("tenant_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid_id", Message: "Invalid tenant ID", Code: http.StatusBadRequest})
			return
		}
		tenantID = uint(id)
	}

	limit := 100
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid_limit", Message: "Invalid limit", Code: http.StatusBadRequest})
			return
		}
		limit = n
	}

	payments, err := h.repo.ListPayments(tenantID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch payments",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, payments)
}

// ProcessPayments triggers one synchronous processing cycle and returns the
// per-message outcomes
func (h *Handlers) ProcessPayments(c *gin.Context) {
	outcomes, err := h.scheduler.RunOnce(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, model.ErrorResponse{
			Error:   "processing_error",
			Message: err.Error(),
			Code:    http.StatusBadGateway,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"processed": len(outcomes),
		"outcomes":  outcomes,
	})
}
