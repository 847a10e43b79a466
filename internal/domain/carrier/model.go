// Package carrier assigns each (tenant, end-user) pair a stable carrier
// identifier backed by a tenant-scoped monotonically increasing serial.
package carrier

import (
	"fmt"
	"time"

	"einvoice/internal/core/id"
)

// Serial is the per-tenant counter carrier serials are drawn from.
// It is provisioned out-of-band and advanced under optimistic locking.
type Serial struct {
	TenantID  id.ID     `db:"tenant_id"`
	SerialNo  int64     `db:"serial_no"`
	Version   int       `db:"version"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Binding maps one end-user of a tenant to an assigned serial number.
// A binding is created exactly once and never reassigned.
type Binding struct {
	ID        id.ID     `db:"id"`
	TenantID  id.ID     `db:"tenant_id"`
	UserID    string    `db:"user_id"`
	SerialNo  int64     `db:"serial_no"`
	CreatedAt time.Time `db:"created_at"`
}

// NewBinding creates an unsaved binding for the given serial.
func NewBinding(tenantID id.ID, userID string, serialNo int64) *Binding {
	return &Binding{
		ID:        id.New(),
		TenantID:  tenantID,
		UserID:    userID,
		SerialNo:  serialNo,
		CreatedAt: time.Now().UTC(),
	}
}

// CarrierID derives the carrier identifier for this binding:
// tenant code followed by the serial zero-padded to 9 digits,
// e.g. tenant "QB", serial 123 -> "QB000000123".
func (b *Binding) CarrierID(tenantCode string) string {
	return fmt.Sprintf("%s%09d", tenantCode, b.SerialNo)
}
