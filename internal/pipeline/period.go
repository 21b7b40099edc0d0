package pipeline

import (
	"strings"
	"time"

	"propmate-go/internal/model"
)

// resolvePeriod determines the rental period label for a payment: the
// transfer's message line when the sender supplied one, else the tenant's
// next due month, else the payment date's month.
func resolvePeriod(parsed *model.ParsedPayment, tenant *model.Tenant) string {
	if line := stripRentPrefix(parsed.MessageLine); line != "" {
		return line
	}

	if t, err := time.Parse("2006-01", tenant.NextDueMonth); err == nil {
		return t.Format("January 2006")
	}

	return parsed.PaymentDate.Format("January 2006")
}

// stripRentPrefix removes a leading or embedded "rent" word senders often
// include in the transfer message ("rent November 2024" -> "November 2024")
func stripRentPrefix(line string) string {
	line = strings.ReplaceAll(line, "rent", "")
	line = strings.ReplaceAll(line, "Rent", "")
	return strings.TrimSpace(line)
}

// bumpMonth advances a YYYY-MM label by one month, defaulting to the month
// after now when the label is missing or malformed
func bumpMonth(yearMonth string, now time.Time) string {
	if t, err := time.Parse("2006-01", yearMonth); err == nil {
		return t.AddDate(0, 1, 0).Format("2006-01")
	}
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1, 0).Format("2006-01")
}
