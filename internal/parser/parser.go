package parser

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"propmate-go/internal/model"
)

// Currency of all notification amounts. Interac e-Transfers are CAD only.
const Currency = "CAD"

// FailureReason classifies why a message could not be parsed
type FailureReason string

const (
	// UnrecognizedTemplate means the message is not a transfer notification
	// at all. The orchestrator skips these without review.
	UnrecognizedTemplate FailureReason = "unrecognized_template"
	// NoAmountFound means the notification carried no currency token
	NoAmountFound FailureReason = "no_amount_found"
	// NoSenderFound means the notification carried no "from <name>" clause
	NoSenderFound FailureReason = "no_sender_found"
)

// ParseError reports a reason-coded parse failure
type ParseError struct {
	Reason FailureReason
	Detail string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failure (%s): %s", e.Reason, e.Detail)
}

var (
	templateRe = regexp.MustCompile(`(?i)Interac e-Transfer`)
	amountRe   = regexp.MustCompile(`(?i)You've received \$([0-9,]+\.[0-9]{2})`)
	senderRe   = regexp.MustCompile(`(?i)from\s+(.+)$`)
	messageRe  = regexp.MustCompile(`(?i)Message:\s*(.+?)\s*(?:Date:|Reference|Sent From:|Amount:)`)
	dateRe     = regexp.MustCompile(`(?i)Date:\s*([A-Za-z]{3,}\s*\d{1,2},\s*\d{4})`)
	htmlTagRe  = regexp.MustCompile(`<[^>]+>`)
	spaceRunRe = regexp.MustCompile(`\s+`)
)

// ParsePayment extracts the structured payment facts from one notification
// email. It is pure and deterministic: identical input always yields an
// identical result. Failures carry a FailureReason via *ParseError.
func ParsePayment(msg model.EmailMessage) (*model.ParsedPayment, error) {
	subject := strings.TrimSpace(msg.Subject)

	if !templateRe.MatchString(subject) {
		return nil, &ParseError{
			Reason: UnrecognizedTemplate,
			Detail: fmt.Sprintf("subject %q does not match a transfer notification template", subject),
		}
	}

	amountMatch := amountRe.FindStringSubmatch(subject)
	if amountMatch == nil {
		return nil, &ParseError{
			Reason: NoAmountFound,
			Detail: fmt.Sprintf("no amount token in subject %q", subject),
		}
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(amountMatch[1], ",", ""))
	if err != nil {
		return nil, &ParseError{
			Reason: NoAmountFound,
			Detail: fmt.Sprintf("malformed amount token %q", amountMatch[1]),
		}
	}

	senderMatch := senderRe.FindStringSubmatch(subject)
	if senderMatch == nil {
		return nil, &ParseError{
			Reason: NoSenderFound,
			Detail: fmt.Sprintf("no sender clause in subject %q", subject),
		}
	}
	sender := titleCase(strings.TrimSpace(senderMatch[1]))

	body := cleanBody(msg)

	messageLine := ""
	if m := messageRe.FindStringSubmatch(body); m != nil {
		messageLine = strings.TrimSpace(m[1])
	}

	paymentDate := msg.ReceivedAt
	if m := dateRe.FindStringSubmatch(body); m != nil {
		if d, err := parseBodyDate(m[1]); err == nil {
			paymentDate = d
		}
	}

	return &model.ParsedPayment{
		MessageID:   msg.ID,
		SenderName:  sender,
		Amount:      amount,
		Currency:    Currency,
		PaymentDate: paymentDate,
		MessageLine: messageLine,
		RawSubject:  msg.Subject,
	}, nil
}

// cleanBody prefers the plain-text body, falling back to HTML with tags
// stripped, and collapses whitespace so the token regexes match across
// line breaks.
func cleanBody(msg model.EmailMessage) string {
	body := msg.Body
	if body == "" {
		body = htmlTagRe.ReplaceAllString(msg.HTMLBody, " ")
	}
	return strings.TrimSpace(spaceRunRe.ReplaceAllString(body, " "))
}

// parseBodyDate parses the "Date: January 2, 2006" token the notification
// bodies carry, accepting both long and abbreviated month names.
func parseBodyDate(s string) (time.Time, error) {
	s = spaceRunRe.ReplaceAllString(strings.TrimSpace(s), " ")
	if d, err := time.Parse("January 2, 2006", s); err == nil {
		return d, nil
	}
	return time.Parse("Jan 2, 2006", s)
}

// titleCase capitalizes each word of a sender name the way the notification
// subject renders it ("jane doe" -> "Jane Doe"). The first rune is decoded,
// not sliced by byte, so accented names survive intact.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + strings.ToLower(w[size:])
	}
	return strings.Join(words, " ")
}
