package invoicer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propmate-go/internal/config"
	"propmate-go/internal/model"
)

func newTestClient(baseURL string, maxRetries int) *Client {
	return NewClient(&config.InvoiceNinjaConfig{
		BaseURL:    baseURL,
		APIKey:     "test-key",
		Timeout:    5 * time.Second,
		MaxRetries: maxRetries,
	})
}

func TestIsTransient(t *testing.T) {
	assert.True(t, IsTransient(&apiError{Status: 500}))
	assert.True(t, IsTransient(&apiError{Status: 503}))
	assert.False(t, IsTransient(&apiError{Status: 400}))
	assert.False(t, IsTransient(&apiError{Status: 422}))
	assert.True(t, IsTransient(&url.Error{Op: "Post", URL: "http://x", Err: errors.New("refused")}))
	assert.True(t, IsTransient(context.DeadlineExceeded))
	assert.True(t, IsTransient(context.Canceled))
	assert.True(t, IsTransient(fmt.Errorf("call failed after 3 attempts: %w", context.Canceled)))
	assert.False(t, IsTransient(errors.New("bad payload")))
}

func TestRequestRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"data":{"id":"inv-9","number":"0009"}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 2)
	invoice, err := c.CreateInvoice(context.Background(), "client-1", nil, time.Now(), "")
	require.NoError(t, err)
	assert.Equal(t, "inv-9", invoice.ID)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestRequestDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"validation failed"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 3)
	err := c.MarkPaid(context.Background(), "inv-1", decimal.RequireFromString("10.00"), time.Now())
	require.Error(t, err)
	assert.False(t, IsTransient(err))
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestRequestExhaustsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 2)
	err := c.SendEmail(context.Background(), "inv-1")
	require.Error(t, err)
	assert.True(t, IsTransient(err))
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestFindOrCreateClientCreatesWhenMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-Api-Token"))
		switch {
		case r.Method == http.MethodGet:
			w.Write([]byte(`{"data":[]}`))
		case r.Method == http.MethodPost:
			w.Write([]byte(`{"data":{"id":"client-42"}}`))
		}
	}))
	defer srv.Close()

	tenant := &model.Tenant{
		Name:  "Jane Doe",
		Email: "jane@example.com",
		Property: &model.Property{
			Address:    "12 Maple St",
			City:       "Calgary",
			Province:   "AB",
			PostalCode: "T2P 0A1",
		},
	}

	c := newTestClient(srv.URL, 1)
	id, err := c.FindOrCreateClient(context.Background(), tenant)
	require.NoError(t, err)
	assert.Equal(t, "client-42", id)
}

func TestFindOrCreateClientReturnsExisting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		w.Write([]byte(`{"data":[{"id":"client-7"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 1)
	id, err := c.FindOrCreateClient(context.Background(), &model.Tenant{Email: "jane@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "client-7", id)
}
