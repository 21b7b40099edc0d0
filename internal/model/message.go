package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EmailMessage represents one raw notification email pulled from the mailbox
type EmailMessage struct {
	ID         string            `json:"id"`
	Subject    string            `json:"subject"`
	From       string            `json:"from"`
	Body       string            `json:"body"`
	HTMLBody   string            `json:"html_body"`
	Headers    map[string]string `json:"headers"`
	ReceivedAt time.Time         `json:"received_at"`
}

// ParsedPayment is the structured result of parsing one transfer
// notification. It is ephemeral: it lives for a single pipeline run and is
// never persisted.
type ParsedPayment struct {
	MessageID   string
	SenderName  string
	Amount      decimal.Decimal
	Currency    string
	PaymentDate time.Time
	MessageLine string
	RawSubject  string
}
