package carrier

import (
	"context"

	"einvoice/internal/core/id"
)

// Repository defines persistence for carrier serials and bindings.
// Implementations live in infrastructure/storage/postgres.
type Repository interface {
	// FindBinding retrieves the binding for (tenant, user) without locking.
	// Returns apperror.CodeNotFound when the pair is unbound.
	FindBinding(ctx context.Context, tenantID id.ID, userID string) (*Binding, error)

	// GetSerial reads the tenant's serial counter.
	// Returns apperror.CodeNotFound when the counter was never provisioned.
	GetSerial(ctx context.Context, tenantID id.ID) (*Serial, error)

	// UpdateSerial persists an advanced counter with an optimistic version
	// check. Returns apperror.CodeConcurrentModification when another bind
	// committed first.
	UpdateSerial(ctx context.Context, s *Serial) error

	// CreateBinding inserts a new binding. A unique violation on
	// (tenant, user) is reported as apperror.CodeConcurrentModification so
	// the caller re-reads the winner's row on retry.
	CreateBinding(ctx context.Context, b *Binding) error
}
