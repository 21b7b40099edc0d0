package pipeline

// State is where a message's state machine ended up
type State string

const (
	StateReceived      State = "received"
	StateParsed        State = "parsed"
	StateMatched       State = "matched"
	StateValidated     State = "validated"
	StateInvoiceIssued State = "invoice_issued"
	StateRecorded      State = "recorded"
	StateCompleted     State = "completed"
	StateManualReview  State = "manual_review"
	StateSkipped       State = "skipped"
)

// Reason classifies why a message left the happy path
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonParseFailure    Reason = "parse_failure"
	ReasonNoTenantMatch   Reason = "no_tenant_match"
	ReasonAmbiguousMatch  Reason = "ambiguous_match"
	ReasonAmountMismatch  Reason = "amount_mismatch"
	ReasonRemoteTransient Reason = "remote_transient_error"
	ReasonRemoteFatal     Reason = "remote_fatal_error"
	ReasonVersionConflict Reason = "version_conflict"
	// ReasonDuplicate marks a message whose payment was already recorded;
	// the pipeline treats it as completed without redoing anything.
	ReasonDuplicate Reason = "duplicate"
)

// Outcome is the per-message result of one pipeline run
type Outcome struct {
	MessageID string `json:"message_id"`
	Sender    string `json:"sender,omitempty"`
	State     State  `json:"state"`
	Reason    Reason `json:"reason,omitempty"`
	Detail    string `json:"detail,omitempty"`
}
