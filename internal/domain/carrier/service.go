package carrier

import (
	"context"
	"fmt"

	"einvoice/internal/core/apperror"
	"einvoice/internal/core/tx"
	"einvoice/internal/domain/tenant"
	"einvoice/pkg/logger"
	"einvoice/pkg/retry"
)

// Binder assigns carrier serials on first contact.
//
// Binding runs in its own transaction, independent of invoice issuance.
// Losing an issuance after a successful bind therefore burns one serial, but
// the next attempt re-reads the same binding, so end-users never get a second
// identifier.
type Binder struct {
	repo   Repository
	txm    tx.Manager
	policy retry.Policy
}

// NewBinder creates a carrier binder.
func NewBinder(repo Repository, txm tx.Manager) *Binder {
	return &Binder{
		repo:   repo,
		txm:    txm,
		policy: retry.DefaultPolicy(),
	}
}

// GetOrBind returns the existing binding for (tenant, user), creating one
// with the next serial on first contact.
//
// Creation uses optimistic concurrency: the serial counter is advanced with a
// version check and conflicts are retried with jittered backoff. When the
// retry budget is exhausted the caller receives BindingFailed; any
// non-conflict failure aborts immediately.
func (b *Binder) GetOrBind(ctx context.Context, tn *tenant.Tenant, userID string) (*Binding, error) {
	var bound *Binding

	err := retry.Do(ctx, b.policy, apperror.IsConcurrentModification, func(ctx context.Context) error {
		existing, err := b.repo.FindBinding(ctx, tn.ID, userID)
		if err == nil {
			bound = existing
			return nil
		}
		if !apperror.IsNotFound(err) {
			return fmt.Errorf("find binding: %w", err)
		}

		return b.txm.RunInTransaction(ctx, func(ctx context.Context) error {
			serial, err := b.repo.GetSerial(ctx, tn.ID)
			if err != nil {
				if apperror.IsNotFound(err) {
					return apperror.NewSerialNotInitialized(tn.Code)
				}
				return fmt.Errorf("get serial: %w", err)
			}

			serial.SerialNo++
			if err := b.repo.UpdateSerial(ctx, serial); err != nil {
				return err
			}

			binding := NewBinding(tn.ID, userID, serial.SerialNo)
			if err := b.repo.CreateBinding(ctx, binding); err != nil {
				return err
			}

			bound = binding
			return nil
		})
	})
	if err != nil {
		if apperror.IsConcurrentModification(err) {
			return nil, apperror.NewBindingFailed(tn.Code, userID).WithCause(err)
		}
		return nil, err
	}

	logger.Debug(ctx, "carrier binding resolved",
		"tenant", tn.Code,
		"user_id", userID,
		"serial_no", bound.SerialNo,
	)
	return bound, nil
}
