package invoicer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"propmate-go/internal/config"
	"propmate-go/internal/model"
)

// Client talks to the Invoice Ninja v5 API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	maxRetries int
}

// NewClient creates a new Invoice Ninja client
func NewClient(cfg *config.InvoiceNinjaConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxRetries: cfg.MaxRetries,
	}
}

// apiError is a non-2xx response from the gateway
type apiError struct {
	Status int
	Body   string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("invoice ninja returned %d: %s", e.Status, e.Body)
}

// IsTransient reports whether the error leaves the request retryable:
// server-side failures, transport errors (timeouts included) and
// cancelled calls are; 4xx responses and malformed payloads are not.
// Cancellation counts as transient because a stopped call says nothing
// about the gateway; the work is simply unfinished.
func IsTransient(err error) bool {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.Status >= 500
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// request performs one API call with bounded exponential backoff on
// transient failures
func (c *Client) request(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	var lastErr error
	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		err := c.do(ctx, method, endpoint, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !IsTransient(err) {
			return err
		}
		if attempt < c.maxRetries {
			wait := time.Duration(attempt*attempt) * time.Second
			logrus.Warnf("Invoice Ninja call %s %s failed (attempt %d/%d), retrying in %v: %v",
				method, endpoint, attempt, c.maxRetries, wait, err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
	}
	return fmt.Errorf("invoice ninja call failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/v1"+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("X-Api-Token", c.apiKey)
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apiError{Status: resp.StatusCode, Body: strings.TrimSpace(string(respBody))}
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

type clientEnvelope struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

type singleEnvelope struct {
	Data struct {
		ID     string `json:"id"`
		Number string `json:"number"`
	} `json:"data"`
}

// FindOrCreateClient looks the tenant's client up by email and creates it
// if missing, returning the gateway's client id
func (c *Client) FindOrCreateClient(ctx context.Context, tenant *model.Tenant) (string, error) {
	var found clientEnvelope
	err := c.request(ctx, http.MethodGet, "/clients?email="+url.QueryEscape(tenant.Email), nil, &found)
	if err == nil && len(found.Data) > 0 {
		return found.Data[0].ID, nil
	}
	if err != nil && IsTransient(err) {
		return "", fmt.Errorf("failed to look up client: %w", err)
	}

	first, last := splitName(tenant.Name)
	payload := map[string]interface{}{
		"name": tenant.Name,
		"contacts": []map[string]string{
			{
				"first_name": first,
				"last_name":  last,
				"email":      tenant.Email,
				"phone":      tenant.Phone,
			},
		},
	}
	if p := tenant.Property; p != nil {
		payload["address1"] = p.Address
		payload["city"] = p.City
		payload["state"] = p.Province
		payload["postal_code"] = p.PostalCode
	}

	var created singleEnvelope
	if err := c.request(ctx, http.MethodPost, "/clients", payload, &created); err != nil {
		return "", fmt.Errorf("failed to create client: %w", err)
	}
	return created.Data.ID, nil
}

// CreateInvoice creates an invoice for the client with the given line items
func (c *Client) CreateInvoice(ctx context.Context, clientID string, items []LineItem, date time.Time, publicNotes string) (*Invoice, error) {
	payload := map[string]interface{}{
		"client_id":         clientID,
		"date":              date.Format("2006-01-02"),
		"due_date":          date.Format("2006-01-02"),
		"line_items":        items,
		"public_notes":      publicNotes,
		"auto_bill_enabled": false,
	}

	var created singleEnvelope
	if err := c.request(ctx, http.MethodPost, "/invoices", payload, &created); err != nil {
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}
	return &Invoice{ID: created.Data.ID, Number: created.Data.Number}, nil
}

// MarkPaid records a manual payment against the invoice
func (c *Client) MarkPaid(ctx context.Context, invoiceID string, amount decimal.Decimal, date time.Time) error {
	payload := map[string]interface{}{
		"invoices": []map[string]interface{}{
			{"invoice_id": invoiceID, "amount": amount},
		},
		"date": date.Format("2006-01-02"),
		// type_id 1 is a manual payment
		"type_id": "1",
	}
	if err := c.request(ctx, http.MethodPost, "/payments", payload, nil); err != nil {
		return fmt.Errorf("failed to mark invoice paid: %w", err)
	}
	return nil
}

// SendEmail triggers receipt delivery for the invoice
func (c *Client) SendEmail(ctx context.Context, invoiceID string) error {
	if err := c.request(ctx, http.MethodPost, "/invoices/"+invoiceID+"/email", nil, nil); err != nil {
		return fmt.Errorf("failed to send invoice email: %w", err)
	}
	return nil
}

// splitName splits a display name into first and last parts for the
// gateway's contact record
func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
