package invoice

import (
	"context"
	"time"

	"einvoice/internal/core/id"
)

// Repository defines persistence for invoice records and their line items.
// Implementations live in infrastructure/storage/postgres.
type Repository interface {
	// FindByOrder retrieves the invoice a tenant already issued for an
	// order reference. Unlocked read; returns apperror.CodeNotFound when
	// no invoice exists yet.
	FindByOrder(ctx context.Context, tenantID id.ID, orderNo string) (*Invoice, error)

	// Create inserts a new invoice record. A unique violation on the
	// invoice number maps to apperror.CodeConcurrentModification
	// (retryable); one on (tenant, order) maps to apperror.CodeDuplicate
	// so the caller can resolve it as an idempotent replay.
	Create(ctx context.Context, inv *Invoice) error

	// SaveLines inserts the line items of a freshly created invoice.
	SaveLines(ctx context.Context, invoiceID id.ID, lines []LineItem) error

	// GetLines retrieves line items ordered by sequence number.
	GetLines(ctx context.Context, invoiceID id.ID) ([]LineItem, error)

	// ListUnsent retrieves up to limit records with send_status=false for
	// the given operation type, oldest first.
	ListUnsent(ctx context.Context, op OperationType, limit int) ([]*Invoice, error)

	// MarkSent flips send_status for exported records.
	MarkSent(ctx context.Context, ids []id.ID, at time.Time) error
}
