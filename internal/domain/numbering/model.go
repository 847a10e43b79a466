// Package numbering allocates invoice numbers from pre-provisioned,
// tenant/period-scoped ranges.
package numbering

import (
	"fmt"
	"time"

	"einvoice/internal/core/id"
)

// RangeStatus is the lifecycle state of a number range.
type RangeStatus string

const (
	// StatusInUse marks the single range allocations are drawn from.
	StatusInUse RangeStatus = "in_use"
	// StatusPending marks a provisioned range not yet opened.
	StatusPending RangeStatus = "pending"
	// StatusExhausted marks a fully consumed range.
	StatusExhausted RangeStatus = "exhausted"
)

// Range is a contiguous block of invoice numbers for one tenant, year and
// term. NowNumber is the last allocated number; EndNumber bounds the block.
// Ranges are provisioned out-of-band and only the cursor is ever mutated.
type Range struct {
	ID        id.ID       `db:"id"`
	TenantID  id.ID       `db:"tenant_id"`
	Year      int         `db:"year"`
	Term      int         `db:"term"`
	Letter    string      `db:"letter"`
	NowNumber int64       `db:"now_number"`
	EndNumber int64       `db:"end_number"`
	Status    RangeStatus `db:"status"`
	UpdatedAt time.Time   `db:"updated_at"`
}

// Exhausted reports whether no number remains in the range.
func (r *Range) Exhausted() bool {
	return r.NowNumber >= r.EndNumber
}

// FormatNumber renders the invoice number at the current cursor:
// prefix letter(s) plus the number zero-padded to 8 digits,
// e.g. letter "AB", cursor 123 -> "AB00000123".
func (r *Range) FormatNumber() string {
	return fmt.Sprintf("%s%08d", r.Letter, r.NowNumber)
}

// TermOf buckets a point in time into the fixed 2-month terms of the
// calendar year: Jan/Feb -> 1 ... Nov/Dec -> 6.
func TermOf(t time.Time) int {
	return (int(t.Month())-1)/2 + 1
}

// Allocation is the outcome of drawing one number from a range.
type Allocation struct {
	Year   int
	Term   int
	Number string
}
