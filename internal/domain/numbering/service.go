package numbering

import (
	"context"
	"fmt"
	"time"

	"einvoice/internal/core/apperror"
	"einvoice/internal/core/id"
)

// Allocator draws the next invoice number from the tenant's active range.
//
// Allocate must run inside the caller's transaction: the exclusive lock on
// the range row is the serialization point for concurrent issuance, and the
// cursor increment must roll back together with a failed invoice insert so
// no numbers are burned.
type Allocator struct {
	repo Repository
}

// NewAllocator creates a number allocator.
func NewAllocator(repo Repository) *Allocator {
	return &Allocator{repo: repo}
}

// Allocate locks the active range for the tenant's year/term at the given
// reference time, advances the cursor by one and returns the formatted
// number. The caller supplies at so the whole issuance observes one clock.
//
// Fails with RangeExhausted when no in-use range exists or the range is
// consumed, leaving the cursor untouched. A freshly allocated number that
// already exists on an invoice is a fatal integrity violation
// (NumberCollision) and is never retried.
func (a *Allocator) Allocate(ctx context.Context, tenantID id.ID, tenantCode string, at time.Time) (Allocation, error) {
	year := at.Year()
	term := TermOf(at)

	rng, err := a.repo.GetActiveForUpdate(ctx, tenantID, year, term)
	if err != nil {
		if apperror.IsNotFound(err) {
			return Allocation{}, apperror.NewRangeExhausted(tenantCode, year, term)
		}
		return Allocation{}, fmt.Errorf("lock active range: %w", err)
	}
	if rng.Exhausted() {
		return Allocation{}, apperror.NewRangeExhausted(tenantCode, year, term)
	}

	rng.NowNumber++
	rng.UpdatedAt = at.UTC()
	if rng.Exhausted() {
		// Frees the active slot so a successor range can be switched in.
		rng.Status = StatusExhausted
	}
	if err := a.repo.Advance(ctx, rng); err != nil {
		return Allocation{}, fmt.Errorf("advance range cursor: %w", err)
	}

	number := rng.FormatNumber()

	// The range lock already guarantees uniqueness within a range; a hit
	// here means the provisioned ranges overlap existing records.
	used, err := a.repo.NumberInUse(ctx, number)
	if err != nil {
		return Allocation{}, fmt.Errorf("check number in use: %w", err)
	}
	if used {
		return Allocation{}, apperror.NewNumberCollision(number)
	}

	return Allocation{Year: rng.Year, Term: rng.Term, Number: number}, nil
}
