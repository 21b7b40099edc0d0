package fetcher

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
	"propmate-go/internal/model"
)

// GmailAPIFetcher implements EmailFetcher using the Gmail API. Processed
// messages are tagged with a dedicated label and excluded from the search
// query, so the mailbox itself remembers what was handled.
type GmailAPIFetcher struct {
	service        *gmail.Service
	userEmail      string
	searchQuery    string
	processedLabel string
	labelID        string
	lookback       time.Duration
}

// NewGmailAPIFetcher creates a new Gmail API fetcher
func NewGmailAPIFetcher(cfg *config.GmailConfig, lookback time.Duration) (*GmailAPIFetcher, error) {
	ctx := context.Background()

	oauth2Config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       []string{gmail.GmailModifyScope},
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

	return &GmailAPIFetcher{
		service:        service,
		userEmail:      cfg.UserEmail,
		searchQuery:    cfg.SearchQuery,
		processedLabel: cfg.ProcessedLabel,
		lookback:       lookback,
	}, nil
}

// FetchNewPayments fetches notification emails in the lookback window that
// have not been labeled as processed yet
func (f *GmailAPIFetcher) FetchNewPayments(ctx context.Context) ([]model.EmailMessage, error) {
	after := time.Now().Add(-f.lookback).Unix()
	query := fmt.Sprintf("%s -label:%s after:%d", f.searchQuery, f.processedLabel, after)

	response, err := f.service.Users.Messages.List(f.userEmail).Q(query).MaxResults(50).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	var emails []model.EmailMessage
	for _, msg := range response.Messages {
		message, err := f.service.Users.Messages.Get(f.userEmail, msg.Id).Format("full").Context(ctx).Do()
		if err != nil {
			logrus.Warnf("Failed to get message %s: %v", msg.Id, err)
			continue
		}

		email, err := f.parseGmailMessage(message)
		if err != nil {
			logrus.Warnf("Failed to parse message %s: %v", msg.Id, err)
			continue
		}
		emails = append(emails, email)
	}

	return emails, nil
}

// parseGmailMessage parses a Gmail API message into EmailMessage
func (f *GmailAPIFetcher) parseGmailMessage(msg *gmail.Message) (model.EmailMessage, error) {
	email := model.EmailMessage{
		ID:         msg.Id,
		Headers:    make(map[string]string),
		ReceivedAt: time.Now(),
	}

	for _, header := range msg.Payload.Headers {
		email.Headers[header.Name] = header.Value

		switch header.Name {
		case "Subject":
			email.Subject = header.Value
		case "From":
			email.From = header.Value
		case "Date":
			if t, err := parseMailDate(header.Value); err == nil {
				email.ReceivedAt = t
			}
		}
	}

	if err := f.parseGmailBody(msg.Payload, &email); err != nil {
		return email, err
	}

	return email, nil
}

// parseGmailBody recursively parses Gmail message body parts
func (f *GmailAPIFetcher) parseGmailBody(part *gmail.MessagePart, email *model.EmailMessage) error {
	if part.Body != nil && part.Body.Data != "" {
		data, err := base64.URLEncoding.DecodeString(part.Body.Data)
		if err != nil {
			return fmt.Errorf("failed to decode body data: %w", err)
		}

		content := string(data)
		switch part.MimeType {
		case "text/plain":
			email.Body = content
		case "text/html":
			email.HTMLBody = content
		}
	}

	if part.Parts != nil {
		for _, subPart := range part.Parts {
			if err := f.parseGmailBody(subPart, email); err != nil {
				return err
			}
		}
	}

	return nil
}

// MarkProcessed adds the processed label to the message. Adding a label a
// second time is a no-op on the Gmail side.
func (f *GmailAPIFetcher) MarkProcessed(ctx context.Context, messageID string) error {
	labelID, err := f.ensureProcessedLabel(ctx)
	if err != nil {
		return err
	}

	_, err = f.service.Users.Messages.Modify(f.userEmail, messageID, &gmail.ModifyMessageRequest{
		AddLabelIds: []string{labelID},
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to label message %s as processed: %w", messageID, err)
	}
	return nil
}

// ensureProcessedLabel resolves the processed label's id, creating the
// label on first use
func (f *GmailAPIFetcher) ensureProcessedLabel(ctx context.Context) (string, error) {
	if f.labelID != "" {
		return f.labelID, nil
	}

	labels, err := f.service.Users.Labels.List(f.userEmail).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to list labels: %w", err)
	}
	for _, label := range labels.Labels {
		if label.Name == f.processedLabel {
			f.labelID = label.Id
			return f.labelID, nil
		}
	}

	created, err := f.service.Users.Labels.Create(f.userEmail, &gmail.Label{
		Name:                  f.processedLabel,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create processed label: %w", err)
	}

	f.labelID = created.Id
	return f.labelID, nil
}

// Close closes the Gmail API fetcher
func (f *GmailAPIFetcher) Close() error {
	// Gmail API service doesn't need explicit closing
	return nil
}

// parseMailDate parses an RFC 2822 Date header, tolerating the trailing
// timezone comment some providers append
func parseMailDate(value string) (time.Time, error) {
	value = strings.TrimSpace(strings.SplitN(value, " (", 2)[0])
	if t, err := time.Parse(time.RFC1123Z, value); err == nil {
		return t, nil
	}
	return time.Parse("Mon, 2 Jan 2006 15:04:05 -0700", value)
}
