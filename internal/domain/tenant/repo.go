package tenant

import (
	"context"

	"einvoice/internal/core/id"
)

// Registry is the read-only lookup of tenant configuration.
// Implementations live in infrastructure/storage/postgres.
type Registry interface {
	// GetByCode retrieves a tenant by its short code.
	// Returns apperror.CodeNotFound when the code is not provisioned.
	GetByCode(ctx context.Context, code string) (*Tenant, error)

	// GetByID retrieves a tenant by primary key.
	GetByID(ctx context.Context, tenantID id.ID) (*Tenant, error)
}
