package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"propmate-go/internal/model"
)

// ListProperties returns all properties
func (h *Handlers) ListProperties(c *gin.Context) {
	properties, err := h.repo.ListProperties()
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to fetch properties",
			Code:    http.StatusInternalServerError,
		})
		return
	}
	c.JSON(http.StatusOK, properties)
}

// CreateProperty creates a new property
func (h *Handlers) CreateProperty(c *gin.Context) {
	var req model.PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
			Code:    http.StatusBadRequest,
		})
		return
	}

	property := model.Property{
		Name:       req.Name,
		Address:    req.Address,
		City:       req.City,
		Province:   req.Province,
		PostalCode: req.PostalCode,
		Phone:      req.Phone,
	}
	if err := h.repo.CreateProperty(&property); err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: "Failed to create property",
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusCreated, property)
}

// GetProperty returns a single property by ID
func (h *Handlers) GetProperty(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid_id", Message: "Invalid property ID", Code: http.StatusBadRequest})
		return
	}
	property, err := h.repo.GetProperty(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "not_found", Message: "Property not found", Code: http.StatusNotFound})
		return
	}
	c.JSON(http.StatusOK, property)
}

// UpdateProperty updates an existing property
func (h *Handlers) UpdateProperty(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid_id", Message: "Invalid property ID", Code: http.StatusBadRequest})
		return
	}
	property, err := h.repo.GetProperty(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "not_found", Message: "Property not found", Code: http.StatusNotFound})
		return
	}

	var req model.PropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "validation_error", Message: "Invalid request body", Code: http.StatusBadRequest})
		return
	}

	property.Name = req.Name
	property.Address = req.Address
	property.City = req.City
	if req.Province != "" {
		property.Province = req.Province
	}
	property.PostalCode = req.PostalCode
	property.Phone = req.Phone

	if err := h.repo.UpdateProperty(property); err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "database_error", Message: "Failed to update property", Code: http.StatusInternalServerError})
		return
	}
	c.JSON(http.StatusOK, property)
}
