package matcher

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"propmate-go/internal/model"
)

// Match failure classifications. Both route to manual review: matching
// money to people must never guess, so duplicates are surfaced rather
// than picked from.
var (
	ErrNoTenantMatch  = errors.New("no tenant matches sender name")
	ErrAmbiguousMatch = errors.New("sender name matches more than one tenant")
)

// TenantFinder is the ledger lookup the matcher needs
type TenantFinder interface {
	FindTenantsByNormalizedName(name string) ([]model.Tenant, error)
}

// TenantMatcher resolves a parsed sender name to a tenant record using
// deterministic normalization only: trim, collapse whitespace, case-fold.
// No fuzzy or edit-distance comparison is performed.
type TenantMatcher struct {
	finder TenantFinder
}

// New creates a new tenant matcher
func New(finder TenantFinder) *TenantMatcher {
	return &TenantMatcher{finder: finder}
}

// Match returns the single tenant whose normalized name equals the
// normalized sender name
func (m *TenantMatcher) Match(senderName string) (*model.Tenant, error) {
	tenants, err := m.finder.FindTenantsByNormalizedName(senderName)
	if err != nil {
		return nil, fmt.Errorf("failed to look up tenant for sender: %w", err)
	}

	switch len(tenants) {
	case 0:
		return nil, ErrNoTenantMatch
	case 1:
		logrus.Debugf("Matched sender %q to tenant %d", senderName, tenants[0].ID)
		return &tenants[0], nil
	default:
		return nil, ErrAmbiguousMatch
	}
}
