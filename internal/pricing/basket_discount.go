package pricing

import (
	"context"
	"sync"

	"github.com/fjod/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// MinQualifyingUnits is how many eligible units must be in the basket at
// the same time for the discount to apply.
const MinQualifyingUnits = 2

var hundred = decimal.NewFromInt(100)

// EligibleSet is the catalog's list of discount-flagged products and the
// percentage granted when the basket qualifies.
type EligibleSet struct {
	ids  map[string]struct{}
	Rate decimal.Decimal
}

// NewEligibleSet normalizes ids to strings, so numeric and string catalog
// ids compare equal.
func NewEligibleSet(rate decimal.Decimal, ids ...any) EligibleSet {
	set := EligibleSet{ids: make(map[string]struct{}, len(ids)), Rate: rate}
	for _, id := range ids {
		set.ids[domain.NormalizeID(id)] = struct{}{}
	}
	return set
}

func (e EligibleSet) Contains(id any) bool {
	_, ok := e.ids[domain.NormalizeID(id)]
	return ok
}

func (e EligibleSet) Len() int {
	return len(e.ids)
}

// IDs returns the member ids in no particular order.
func (e EligibleSet) IDs() []string {
	out := make([]string, 0, len(e.ids))
	for id := range e.ids {
		out = append(out, id)
	}
	return out
}

// Evaluate computes basket totals for lines under the current eligible set.
// It is pure and cheap, callers run it on every read.
func Evaluate(lines []domain.CartLine, eligible EligibleSet) domain.BasketTotals {
	totals := domain.BasketTotals{
		Subtotal:           decimal.Zero,
		QualifyingSubtotal: decimal.Zero,
		BasketDiscount:     decimal.Zero,
		Rate:               eligible.Rate,
	}

	for _, l := range lines {
		sub := l.Subtotal()
		totals.Subtotal = totals.Subtotal.Add(sub)
		totals.TotalItems += l.Quantity
		if eligible.Contains(l.ID) {
			totals.QualifyingCount += l.Quantity
			totals.QualifyingSubtotal = totals.QualifyingSubtotal.Add(sub)
		}
	}

	if totals.QualifyingCount >= MinQualifyingUnits && eligible.Rate.IsPositive() {
		totals.BasketDiscount = totals.QualifyingSubtotal.Mul(eligible.Rate).Div(hundred).Round(0)
	}
	totals.AlmostQualified = totals.QualifyingCount == MinQualifyingUnits-1
	totals.Total = totals.Subtotal.Sub(totals.BasketDiscount)
	return totals
}

// EligibleSource supplies the eligible set. It is consulted on every
// evaluation so admin changes show up without touching the cart.
type EligibleSource interface {
	Eligible(ctx context.Context) (EligibleSet, error)
}

// StaticEligible is an in-process EligibleSource whose contents can be
// swapped at runtime.
type StaticEligible struct {
	mu  sync.RWMutex
	set EligibleSet
}

func NewStaticEligible(set EligibleSet) *StaticEligible {
	return &StaticEligible{set: set}
}

func (s *StaticEligible) Eligible(context.Context) (EligibleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set, nil
}

func (s *StaticEligible) Set(set EligibleSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set = set
}
