package ledger

import (
	"context"
	"time"
)

// Balance is the derived snapshot of a creator's money at a point in time.
// No mutable balance column exists anywhere; the three buckets always sum to
// the net of every ledger entry.
type Balance struct {
	AvailableCents int64 `json:"available_cents"`
	PendingCents   int64 `json:"pending_cents"`
	SettledCents   int64 `json:"settled_cents"`
	Currency       string `json:"currency"`
}

// BalanceFor derives the available/pending/settled split for a creator at a
// given instant. An entry is pending while inside the hold window and
// available after, unless it has been consumed by a non-failed payout
// request, in which case it counts as settled. This is a pure function of
// the ledger plus payout history and is safe to call concurrently.
func (s *Service) BalanceFor(ctx context.Context, creatorID uint, asOf time.Time) (Balance, error) {
	_ = ctx

	entries, err := s.repo.ListEntriesByCreator(creatorID)
	if err != nil {
		return Balance{}, err
	}
	payouts, err := s.repo.ListPayoutsByCreator(creatorID)
	if err != nil {
		return Balance{}, err
	}

	balance := Balance{Currency: "usd"}
	var totalNet, matured int64
	for _, entry := range entries {
		totalNet += entry.NetCents
		if asOf.Sub(entry.CreatedAt) >= HoldWindow {
			matured += entry.NetCents
		}
		if entry.Currency != "" {
			balance.Currency = entry.Currency
		}
	}

	var reserved int64
	for i := range payouts {
		if payouts[i].Reserves() {
			reserved += payouts[i].AmountCents
		}
	}

	balance.PendingCents = totalNet - matured
	balance.SettledCents = reserved
	balance.AvailableCents = matured - reserved
	return balance, nil
}
