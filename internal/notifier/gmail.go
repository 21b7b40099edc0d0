package notifier

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/sirupsen/logrus"

	"propmate-go/internal/config"
)

// GmailDispatcher sends manual-review alerts to the landlord via the
// Gmail API
type GmailDispatcher struct {
	service       *gmail.Service
	userEmail     string
	landlordEmail string
}

// NewGmailDispatcher creates a new Gmail-backed dispatcher
func NewGmailDispatcher(cfg *config.GmailConfig, landlordEmail string) (*GmailDispatcher, error) {
	ctx := context.Background()

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gmail.GmailSendScope},
		Endpoint:     google.Endpoint,
	}

	token := &oauth2.Token{
		RefreshToken: cfg.RefreshToken,
	}
	tokenSource := oauth2Config.TokenSource(ctx, token)

	service, err := gmail.NewService(ctx, option.WithTokenSource(tokenSource))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &GmailDispatcher{
		service:       service,
		userEmail:     cfg.UserEmail,
		landlordEmail: landlordEmail,
	}, nil
}

// NotifyManualReview emails the operator one self-contained alert for the
// problem message
func (d *GmailDispatcher) NotifyManualReview(ctx context.Context, rc ReviewContext) error {
	raw := d.buildAlert(rc)
	encoded := base64.URLEncoding.EncodeToString([]byte(raw))

	_, err := d.service.Users.Messages.Send(d.userEmail, &gmail.Message{Raw: encoded}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to send manual review alert: %w", err)
	}

	logrus.Infof("Sent manual review alert for message %s (%s)", rc.MessageID, rc.Reason)
	return nil
}

// buildAlert renders the alert email with proper headers
func (d *GmailDispatcher) buildAlert(rc ReviewContext) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("From: %s\r\n", d.userEmail))
	b.WriteString(fmt.Sprintf("To: %s\r\n", d.landlordEmail))
	b.WriteString("Subject: PropMate: rent receipt flow needs review\r\n")
	b.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")

	b.WriteString("A payment email could not be automatically processed.\r\n\r\n")
	b.WriteString(fmt.Sprintf("Sender: %s\r\n", rc.Sender))
	b.WriteString(fmt.Sprintf("Amount: $%s\r\n", rc.Amount.StringFixed(2)))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", rc.Subject))
	b.WriteString(fmt.Sprintf("Message ID: %s\r\n", rc.MessageID))
	b.WriteString(fmt.Sprintf("\r\nIssue (%s): %s\r\n", rc.Reason, rc.Detail))

	if !rc.Expected.IsZero() || !rc.Received.IsZero() {
		b.WriteString(fmt.Sprintf("Expected: $%s, received: $%s\r\n",
			rc.Expected.StringFixed(2), rc.Received.StringFixed(2)))
	}
	if rc.InvoiceID != "" {
		b.WriteString(fmt.Sprintf("An invoice was already issued for this payment: %s\r\n", rc.InvoiceID))
		b.WriteString("Reconcile against it manually; do not issue a second invoice.\r\n")
	}

	b.WriteString("\r\nPlease review and process manually if needed.\r\n")
	return b.String()
}
