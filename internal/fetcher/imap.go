package fetcher

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message"
	"github.com/sirupsen/logrus"

	"propmate-go/internal/config"
	"propmate-go/internal/model"
)

// processedFlag is the IMAP keyword set on handled messages
const processedFlag = "PropMateProcessed"

// IMAPFetcher implements EmailFetcher over IMAP for non-Gmail mailboxes.
// Processed messages carry a custom keyword flag and are excluded from the
// search criteria.
type IMAPFetcher struct {
	client   *client.Client
	lookback time.Duration
}

// NewIMAPFetcher creates a new IMAP fetcher
func NewIMAPFetcher(cfg *config.GmailConfig, lookback time.Duration) (*IMAPFetcher, error) {
	c, err := client.DialTLS(fmt.Sprintf("%s:%d", cfg.IMAPHost, cfg.IMAPPort), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP server: %w", err)
	}

	if err := c.Login(cfg.IMAPUser, cfg.IMAPPassword); err != nil {
		c.Logout()
		return nil, fmt.Errorf("failed to login to IMAP server: %w", err)
	}

	return &IMAPFetcher{
		client:   c,
		lookback: lookback,
	}, nil
}

// FetchNewPayments fetches unprocessed messages from the lookback window
func (f *IMAPFetcher) FetchNewPayments(ctx context.Context) ([]model.EmailMessage, error) {
	_, err := f.client.Select("INBOX", false)
	if err != nil {
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = time.Now().Add(-f.lookback)
	criteria.WithoutFlags = []string{processedFlag}

	uids, err := f.client.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}

	if len(uids) == 0 {
		return []model.EmailMessage{}, nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	messages := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)

	go func() {
		done <- f.client.Fetch(seqset, []imap.FetchItem{imap.FetchEnvelope, imap.FetchBody, imap.FetchUid}, messages)
	}()

	var emails []model.EmailMessage
	for msg := range messages {
		email, err := f.parseIMAPMessage(msg)
		if err != nil {
			logrus.Warnf("Failed to parse IMAP message: %v", err)
			continue
		}
		emails = append(emails, email)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}

	return emails, nil
}

// parseIMAPMessage parses an IMAP message into EmailMessage
func (f *IMAPFetcher) parseIMAPMessage(msg *imap.Message) (model.EmailMessage, error) {
	email := model.EmailMessage{
		Headers:    make(map[string]string),
		ReceivedAt: time.Now(),
	}

	if msg.Envelope != nil {
		email.ID = msg.Envelope.MessageId
		email.Subject = msg.Envelope.Subject
		if !msg.Envelope.Date.IsZero() {
			email.ReceivedAt = msg.Envelope.Date
		}
		if len(msg.Envelope.From) > 0 {
			email.From = msg.Envelope.From[0].Address()
		}
	}

	if email.ID == "" {
		return email, fmt.Errorf("message has no Message-Id header")
	}

	if err := f.parseIMAPBody(msg, &email); err != nil {
		return email, err
	}

	return email, nil
}

// parseIMAPBody parses IMAP message body
func (f *IMAPFetcher) parseIMAPBody(msg *imap.Message, email *model.EmailMessage) error {
	if msg.Body == nil {
		return nil
	}

	section := &imap.BodySectionName{}
	r := msg.GetBody(section)
	if r == nil {
		return fmt.Errorf("failed to get message body")
	}

	entity, err := message.Read(r)
	if err != nil {
		return fmt.Errorf("failed to read message: %w", err)
	}

	if mr := entity.MultipartReader(); mr != nil {
		for {
			p, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				return fmt.Errorf("failed to read part: %w", err)
			}

			content, err := io.ReadAll(p.Body)
			if err != nil {
				return fmt.Errorf("failed to read part body: %w", err)
			}

			contentType := p.Header.Get("Content-Type")
			if strings.Contains(contentType, "text/plain") {
				email.Body = string(content)
			} else if strings.Contains(contentType, "text/html") {
				email.HTMLBody = string(content)
			}
		}
	} else {
		content, err := io.ReadAll(entity.Body)
		if err != nil {
			return fmt.Errorf("failed to read message body: %w", err)
		}

		contentType := entity.Header.Get("Content-Type")
		if strings.Contains(contentType, "text/html") {
			email.HTMLBody = string(content)
		} else {
			email.Body = string(content)
		}
	}

	return nil
}

// MarkProcessed sets the processed keyword on the message identified by its
// Message-Id header. Setting an already-set flag is a no-op.
func (f *IMAPFetcher) MarkProcessed(ctx context.Context, messageID string) error {
	criteria := imap.NewSearchCriteria()
	criteria.Header.Add("Message-Id", messageID)

	uids, err := f.client.Search(criteria)
	if err != nil {
		return fmt.Errorf("failed to locate message %s: %w", messageID, err)
	}
	if len(uids) == 0 {
		// Already expunged or moved; nothing left to mark
		return nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	item := imap.FormatFlagsOp(imap.AddFlags, true)
	flags := []interface{}{processedFlag}
	if err := f.client.Store(seqset, item, flags, nil); err != nil {
		return fmt.Errorf("failed to flag message %s as processed: %w", messageID, err)
	}
	return nil
}

// Close closes the IMAP fetcher
func (f *IMAPFetcher) Close() error {
	return f.client.Logout()
}
