package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"propmate-go/internal/fetcher"
	"propmate-go/internal/invoicer"
	"propmate-go/internal/matcher"
	"propmate-go/internal/model"
	"propmate-go/internal/notifier"
	"propmate-go/internal/parser"
	"propmate-go/internal/repository"
	"propmate-go/internal/validator"
)

// Ledger is the durable-store capability surface the pipeline needs. The
// uniqueness constraint behind RecordCompletedPayment, not any in-memory
// lock, is the source of truth for "already processed".
type Ledger interface {
	ExistsPaymentForMessage(messageID string) (bool, error)
	FindTenantsByNormalizedName(name string) ([]model.Tenant, error)
	RecordCompletedPayment(rec *model.PaymentRecord, tenant *model.Tenant) error
}

// Pipeline drives each notification email through the reconciliation state
// machine: parse, match, validate, invoice, record. Messages are processed
// sequentially; ProcessCycle holds a mutex so an overlapping cron cycle and
// a manual trigger never interleave.
type Pipeline struct {
	fetcher  fetcher.EmailFetcher
	ledger   Ledger
	matcher  *matcher.TenantMatcher
	gateway  invoicer.Gateway
	notifier notifier.Dispatcher
	mu       sync.Mutex
	now      func() time.Time
}

// New creates a new pipeline
func New(f fetcher.EmailFetcher, ledger Ledger, m *matcher.TenantMatcher, gw invoicer.Gateway, n notifier.Dispatcher) *Pipeline {
	return &Pipeline{
		fetcher:  f,
		ledger:   ledger,
		matcher:  m,
		gateway:  gw,
		notifier: n,
		now:      time.Now,
	}
}

// ProcessCycle fetches the current window of notification emails and runs
// each one fully through the state machine before the next begins. The
// stop signal is honored between messages, never mid-transition.
func (p *Pipeline) ProcessCycle(ctx context.Context) ([]Outcome, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	emails, err := p.fetcher.FetchNewPayments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment emails: %w", err)
	}

	logrus.Infof("Fetched %d payment notification(s)", len(emails))

	outcomes := make([]Outcome, 0, len(emails))
	for _, msg := range emails {
		select {
		case <-ctx.Done():
			return outcomes, ctx.Err()
		default:
		}

		outcome := p.processMessage(ctx, msg)
		logrus.Infof("Message %s finished in state %s (reason=%s)", msg.ID, outcome.State, outcome.Reason)
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// processMessage runs one message through the full state machine and
// returns its terminal outcome. It never returns an error: every failure
// is classified into the outcome.
func (p *Pipeline) processMessage(ctx context.Context, msg model.EmailMessage) Outcome {
	// Dedup before anything else: the message id is the dedup key.
	exists, err := p.ledger.ExistsPaymentForMessage(msg.ID)
	if err != nil {
		logrus.Errorf("Ledger lookup failed for message %s: %v", msg.ID, err)
		return Outcome{MessageID: msg.ID, State: StateReceived, Reason: ReasonRemoteTransient, Detail: err.Error()}
	}
	if exists {
		p.markProcessed(ctx, msg.ID)
		return Outcome{MessageID: msg.ID, State: StateCompleted, Reason: ReasonDuplicate}
	}

	// Received -> Parsed
	parsed, err := parser.ParsePayment(msg)
	if err != nil {
		var pe *parser.ParseError
		if errors.As(err, &pe) && pe.Reason == parser.UnrecognizedTemplate {
			// Not a transfer notification at all; skip without review.
			p.markProcessed(ctx, msg.ID)
			return Outcome{MessageID: msg.ID, State: StateSkipped, Reason: ReasonParseFailure, Detail: pe.Detail}
		}
		return p.manualReview(ctx, true, notifier.ReviewContext{
			MessageID: msg.ID,
			Subject:   msg.Subject,
			Reason:    string(ReasonParseFailure),
			Detail:    err.Error(),
		}, Outcome{MessageID: msg.ID, State: StateManualReview, Reason: ReasonParseFailure, Detail: err.Error()})
	}

	// Parsed -> Matched
	tenant, err := p.matcher.Match(parsed.SenderName)
	if err != nil {
		reason := ReasonNoTenantMatch
		switch {
		case errors.Is(err, matcher.ErrAmbiguousMatch):
			reason = ReasonAmbiguousMatch
		case errors.Is(err, matcher.ErrNoTenantMatch):
		default:
			// Ledger lookup failure; leave the message for the next poll.
			logrus.Errorf("Tenant lookup failed for message %s: %v", msg.ID, err)
			return Outcome{MessageID: msg.ID, Sender: parsed.SenderName, State: StateParsed, Reason: ReasonRemoteTransient, Detail: err.Error()}
		}
		return p.manualReview(ctx, true, notifier.ReviewContext{
			MessageID: msg.ID,
			Sender:    parsed.SenderName,
			Subject:   msg.Subject,
			Amount:    parsed.Amount,
			Reason:    string(reason),
			Detail:    err.Error(),
		}, Outcome{MessageID: msg.ID, Sender: parsed.SenderName, State: StateManualReview, Reason: reason, Detail: err.Error()})
	}

	// Matched -> Validated
	if err := validator.ValidateAmount(parsed.Amount, tenant); err != nil {
		rc := notifier.ReviewContext{
			MessageID: msg.ID,
			Sender:    parsed.SenderName,
			Subject:   msg.Subject,
			Amount:    parsed.Amount,
			Reason:    string(ReasonAmountMismatch),
			Detail:    err.Error(),
		}
		var mismatch *validator.AmountMismatchError
		if errors.As(err, &mismatch) {
			rc.Expected = mismatch.Expected
			rc.Received = mismatch.Received
		}
		return p.manualReview(ctx, true, rc,
			Outcome{MessageID: msg.ID, Sender: parsed.SenderName, State: StateManualReview, Reason: ReasonAmountMismatch, Detail: err.Error()})
	}

	period := resolvePeriod(parsed, tenant)

	// Validated -> InvoiceIssued
	clientID, invoiceID, err := invoicer.IssueReceipt(ctx, p.gateway, tenant, parsed.Amount, period, parsed.PaymentDate)
	if err != nil {
		if ctx.Err() != nil {
			// Shutdown interrupted the call. No record exists yet, so the
			// message stays unmarked and unannounced; the next poll picks it
			// up from scratch.
			logrus.Warnf("Invoicing for message %s interrupted by shutdown: %v", msg.ID, err)
			return Outcome{MessageID: msg.ID, Sender: parsed.SenderName, State: StateValidated, Reason: ReasonRemoteTransient, Detail: err.Error()}
		}

		reason := ReasonRemoteFatal
		// Transient exhaustion leaves the message unmarked so the next poll
		// retries it from scratch; no payment record exists yet.
		terminal := true
		if invoicer.IsTransient(err) {
			reason = ReasonRemoteTransient
			terminal = false
		}
		return p.manualReview(ctx, terminal, notifier.ReviewContext{
			MessageID: msg.ID,
			Sender:    parsed.SenderName,
			Subject:   msg.Subject,
			Amount:    parsed.Amount,
			Reason:    string(reason),
			Detail:    err.Error(),
			InvoiceID: invoiceID,
		}, Outcome{MessageID: msg.ID, Sender: parsed.SenderName, State: StateManualReview, Reason: reason, Detail: err.Error()})
	}

	// InvoiceIssued -> Recorded. The record insert and the tenant advance
	// are one transaction, guarded by the tenant version read at match time.
	record := &model.PaymentRecord{
		TenantID:    tenant.ID,
		Amount:      parsed.Amount,
		PaymentDate: parsed.PaymentDate,
		Period:      period,
		Status:      model.PaymentStatusCompleted,
		MessageID:   msg.ID,
		InvoiceID:   invoiceID,
		EmailSent:   true,
		Notes:       buildNotes(parsed),
	}

	updated := *tenant
	updated.NextDueMonth = bumpMonth(tenant.NextDueMonth, p.now())
	updated.LastInvoiceNo = tenant.LastInvoiceNo + 1
	updated.NinjaClientID = clientID

	if err := p.ledger.RecordCompletedPayment(record, &updated); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			// An overlapping run recorded this message first; idempotent no-op.
			p.markProcessed(ctx, msg.ID)
			return Outcome{MessageID: msg.ID, Sender: parsed.SenderName, State: StateCompleted, Reason: ReasonDuplicate}
		}

		reason := ReasonRemoteFatal
		if errors.Is(err, repository.ErrVersionConflict) {
			reason = ReasonVersionConflict
		}
		// The invoice already exists externally. Mark the message processed
		// so no later poll re-invoices it, and hand the invoice id to the
		// operator for manual reconciliation.
		return p.manualReview(ctx, true, notifier.ReviewContext{
			MessageID: msg.ID,
			Sender:    parsed.SenderName,
			Subject:   msg.Subject,
			Amount:    parsed.Amount,
			Reason:    string(reason),
			Detail:    err.Error(),
			InvoiceID: invoiceID,
		}, Outcome{MessageID: msg.ID, Sender: parsed.SenderName, State: StateManualReview, Reason: reason, Detail: err.Error()})
	}

	// Recorded -> Completed
	p.markProcessed(ctx, msg.ID)
	logrus.Infof("Recorded payment of $%s from %s for %s (invoice %s)",
		parsed.Amount.StringFixed(2), tenant.Name, period, invoiceID)
	return Outcome{MessageID: msg.ID, Sender: parsed.SenderName, State: StateCompleted}
}

// manualReview sends exactly one operator notification and returns the
// terminal outcome. When terminal is true the source message is marked
// processed so it never re-enters the pipeline.
func (p *Pipeline) manualReview(ctx context.Context, terminal bool, rc notifier.ReviewContext, outcome Outcome) Outcome {
	if err := p.notifier.NotifyManualReview(ctx, rc); err != nil {
		logrus.Errorf("Failed to send manual review notification for %s: %v", rc.MessageID, err)
	}
	if terminal {
		p.markProcessed(ctx, rc.MessageID)
	}
	return outcome
}

// markProcessed tells the email source to exclude the message from future
// polling windows. Failures are logged only: the payment record's
// uniqueness constraint keeps a refetched message idempotent.
func (p *Pipeline) markProcessed(ctx context.Context, messageID string) {
	if err := p.fetcher.MarkProcessed(ctx, messageID); err != nil {
		logrus.Errorf("Failed to mark message %s as processed: %v", messageID, err)
	}
}

func buildNotes(parsed *model.ParsedPayment) string {
	line := parsed.MessageLine
	if line == "" {
		line = "N/A"
	}
	return fmt.Sprintf("Auto-processed from email. Message: %s", line)
}
