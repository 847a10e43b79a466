package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"einvoice/internal/core/apperror"
	"einvoice/internal/core/id"
	"einvoice/internal/domain/carrier"
)

// Constraint names the carrier tables are created with; error mapping
// depends on them.
const constraintBindingTenantUser = "carrier_bindings_tenant_user_key"

// CarrierRepo implements carrier.Repository on the carrier_serials and
// carrier_bindings tables.
type CarrierRepo struct {
	txManager *TxManager
}

var _ carrier.Repository = (*CarrierRepo)(nil)

func NewCarrierRepo(txManager *TxManager) *CarrierRepo {
	return &CarrierRepo{txManager: txManager}
}

func (r *CarrierRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *CarrierRepo) FindBinding(ctx context.Context, tenantID id.ID, userID string) (*carrier.Binding, error) {
	sql, args, err := r.builder().
		Select("id", "tenant_id", "user_id", "serial_no", "created_at").
		From("carrier_bindings").
		Where(squirrel.Eq{"tenant_id": tenantID, "user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build binding select: %w", err)
	}

	var b carrier.Binding
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &b, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("carrier binding", userID)
		}
		return nil, fmt.Errorf("get binding: %w", err)
	}
	return &b, nil
}

func (r *CarrierRepo) GetSerial(ctx context.Context, tenantID id.ID) (*carrier.Serial, error) {
	sql, args, err := r.builder().
		Select("tenant_id", "serial_no", "version", "updated_at").
		From("carrier_serials").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build serial select: %w", err)
	}

	var s carrier.Serial
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &s, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("carrier serial", tenantID)
		}
		return nil, fmt.Errorf("get serial: %w", err)
	}
	return &s, nil
}

// UpdateSerial advances the counter with an optimistic version check.
// Zero rows affected means a concurrent bind won the race.
func (r *CarrierRepo) UpdateSerial(ctx context.Context, s *carrier.Serial) error {
	sql, args, err := r.builder().
		Update("carrier_serials").
		Set("serial_no", s.SerialNo).
		Set("version", s.Version+1).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"tenant_id": s.TenantID, "version": s.Version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build serial update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update serial: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("carrier serial", s.TenantID)
	}
	s.Version++
	return nil
}

func (r *CarrierRepo) CreateBinding(ctx context.Context, b *carrier.Binding) error {
	sql, args, err := r.builder().
		Insert("carrier_bindings").
		Columns("id", "tenant_id", "user_id", "serial_no", "created_at").
		Values(b.ID, b.TenantID, b.UserID, b.SerialNo, b.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build binding insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if IsUniqueViolation(err, constraintBindingTenantUser) {
			return apperror.NewConcurrentModification("carrier binding", b.UserID).WithCause(err)
		}
		return fmt.Errorf("insert binding: %w", err)
	}
	return nil
}
