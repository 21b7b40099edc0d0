package fetcher

import (
	"context"

	"propmate-go/internal/model"
)

// EmailFetcher is the pull interface over the mailbox that receives
// payment notifications. MarkProcessed is idempotent: marking the same
// message twice is safe, and marked messages are excluded from future
// fetch windows.
type EmailFetcher interface {
	FetchNewPayments(ctx context.Context) ([]model.EmailMessage, error)
	MarkProcessed(ctx context.Context, messageID string) error
	Close() error
}
