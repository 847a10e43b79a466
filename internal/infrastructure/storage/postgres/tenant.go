package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"einvoice/internal/core/apperror"
	"einvoice/internal/core/id"
	"einvoice/internal/domain/tenant"
)

var tenantColumns = []string{
	"id", "code", "name",
	"seller_identifier", "seller_name", "seller_address", "seller_phone",
	"carrier_type", "tax_rate", "created_at",
}

// TenantRepo implements tenant.Registry on the invoice_tenants table.
type TenantRepo struct {
	txManager *TxManager
}

var _ tenant.Registry = (*TenantRepo)(nil)

func NewTenantRepo(txManager *TxManager) *TenantRepo {
	return &TenantRepo{txManager: txManager}
}

func (r *TenantRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *TenantRepo) GetByCode(ctx context.Context, code string) (*tenant.Tenant, error) {
	return r.getOne(ctx, squirrel.Eq{"code": code}, code)
}

func (r *TenantRepo) GetByID(ctx context.Context, tenantID id.ID) (*tenant.Tenant, error) {
	return r.getOne(ctx, squirrel.Eq{"id": tenantID}, tenantID)
}

func (r *TenantRepo) getOne(ctx context.Context, where squirrel.Eq, key any) (*tenant.Tenant, error) {
	sql, args, err := r.builder().
		Select(tenantColumns...).
		From("invoice_tenants").
		Where(where).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build tenant select: %w", err)
	}

	var tn tenant.Tenant
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &tn, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("tenant", key)
		}
		return nil, fmt.Errorf("get tenant: %w", err)
	}
	return &tn, nil
}
