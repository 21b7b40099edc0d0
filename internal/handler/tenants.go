package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"propmate-go/internal/model"
)

// ListTenants returns all tenants with their properties
func (h *Handlers) ListTenants(c *gin.Context) {
	tenants, err := h.repo.ListTenants()
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch tenants",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, tenants)
}

// CreateTenant creates a new tenant
func (h *Handlers) CreateTenant(c *gin.Context) {
	var req model.TenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
			Code:    http.StatusBadRequest,
		})
		return
	}

	if _, err := h.repo.GetProperty(req.PropertyID); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "invalid_property",
			Message: "Property does not exist",
			Code:    http.StatusBadRequest,
		})
		return
	}

	tenant := model.Tenant{
		PropertyID:  req.PropertyID,
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		Unit:        req.Unit,
		MonthlyRent: req.MonthlyRent,
		ParkingFee:  req.ParkingFee,
		// Billing starts with the current month due.
		NextDueMonth: time.Now().Format("2006-01"),
	}
	if err := h.repo.CreateTenant(&tenant); err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to create tenant",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusCreated, tenant)
}

// GetTenant returns a single tenant by ID
func (h *Handlers) GetTenant(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid_id", Message: "Invalid tenant ID", Code: http.StatusBadRequest})
		return
	}
	tenant, err := h.repo.GetTenant(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "not_found", Message: "Tenant not found", Code: http.StatusNotFound})
		return
	}
	c.JSON(http.StatusOK, tenant)
}
