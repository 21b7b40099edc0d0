package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"propmate-go/internal/invoicer"
	"propmate-go/internal/model"
)

// SendReceipt issues a rent receipt by hand for payments that arrived
// outside the mailbox flow (cash, cheque, or a message the pipeline routed
// to manual review)
func (h *Handlers) SendReceipt(c *gin.Context) {
	var req model.ReceiptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid request body",
			Code:    http.StatusBadRequest,
		})
		return
	}

	tenant, err := h.repo.GetTenant(req.TenantID)
	if err != nil {
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "not_found", Message: "Tenant not found", Code: http.StatusNotFound})
		return
	}

	now := time.Now()
	clientID, invoiceID, err := invoicer.IssueReceipt(c.Request.Context(), h.gateway, tenant, req.Amount, req.Period, now)
	if err != nil {
		c.JSON(http.StatusBadGateway, model.ErrorResponse{
			Error:   "invoicing_error",
			Message: err.Error(),
			Code:    http.StatusBadGateway,
		})
		return
	}

	record := &model.PaymentRecord{
		TenantID:    tenant.ID,
		Amount:      req.Amount,
		PaymentDate: now,
		Period:      req.Period,
		Status:      model.PaymentStatusCompleted,
		MessageID:   fmt.Sprintf("manual-%d-%d", tenant.ID, now.UnixNano()),
		InvoiceID:   invoiceID,
		EmailSent:   true,
		Notes:       "Manually issued receipt",
	}

	// Manual receipts keep the billing schedule where it is; only the
	// invoice counter and client link advance.
	updated := *tenant
	updated.LastInvoiceNo = tenant.LastInvoiceNo + 1
	updated.NinjaClientID = clientID

	if err := h.repo.RecordCompletedPayment(record, &updated); err != nil {
		// The receipt went out; surface the bookkeeping failure instead of
		// pretending nothing happened.
		logrus.Errorf("Failed to record manual receipt for tenant %d (invoice %s): %v", tenant.ID, invoiceID, err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Error:   "database_error",
			Message: fmt.Sprintf("Receipt sent (invoice %s) but recording failed", invoiceID),
			Code:    http.StatusInternalServerError,
		})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"invoice_id": invoiceID,
		"payment":    record,
	})
}
