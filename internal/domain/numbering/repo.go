package numbering

import (
	"context"

	"einvoice/internal/core/id"
)

// Repository defines persistence for number ranges.
// Implementations live in infrastructure/storage/postgres.
type Repository interface {
	// GetActiveForUpdate acquires an exclusive row lock on the in-use range
	// for (tenant, year, term), blocking concurrent allocators for the same
	// period until the surrounding transaction ends. Returns
	// apperror.CodeNotFound when no in-use range exists.
	//
	// Must be called inside a transaction; the lock is released on
	// commit or rollback.
	GetActiveForUpdate(ctx context.Context, tenantID id.ID, year, term int) (*Range, error)

	// Advance persists the range's moved cursor.
	Advance(ctx context.Context, r *Range) error

	// NumberInUse reports whether an invoice record already carries the
	// given number.
	NumberInUse(ctx context.Context, number string) (bool, error)
}
