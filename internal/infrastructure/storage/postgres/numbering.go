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
	"einvoice/internal/domain/numbering"
)

// NumberRangeRepo implements numbering.Repository on the
// invoice_number_ranges table.
type NumberRangeRepo struct {
	txManager *TxManager
}

var _ numbering.Repository = (*NumberRangeRepo)(nil)

func NewNumberRangeRepo(txManager *TxManager) *NumberRangeRepo {
	return &NumberRangeRepo{txManager: txManager}
}

func (r *NumberRangeRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// GetActiveForUpdate locks the in-use range row for the period. Concurrent
// allocators for the same (tenant, year, term) queue on this lock until the
// surrounding transaction commits or rolls back.
func (r *NumberRangeRepo) GetActiveForUpdate(ctx context.Context, tenantID id.ID, year, term int) (*numbering.Range, error) {
	if r.txManager.GetTx(ctx) == nil {
		return nil, fmt.Errorf("range lock requires transaction context")
	}

	sql, args, err := r.builder().
		Select("id", "tenant_id", "year", "term", "letter",
			"now_number", "end_number", "status", "updated_at").
		From("invoice_number_ranges").
		Where(squirrel.Eq{
			"tenant_id": tenantID,
			"year":      year,
			"term":      term,
			"status":    numbering.StatusInUse,
		}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build range select: %w", err)
	}

	var rng numbering.Range
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &rng, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("number range",
				fmt.Sprintf("%d-%d", year, term))
		}
		return nil, fmt.Errorf("lock range: %w", err)
	}
	return &rng, nil
}

func (r *NumberRangeRepo) Advance(ctx context.Context, rng *numbering.Range) error {
	sql, args, err := r.builder().
		Update("invoice_number_ranges").
		Set("now_number", rng.NowNumber).
		Set("status", rng.Status).
		Set("updated_at", time.Now().UTC()).
		Where(squirrel.Eq{"id": rng.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build range update: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("advance range: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("number range", rng.ID)
	}
	return nil
}

func (r *NumberRangeRepo) NumberInUse(ctx context.Context, number string) (bool, error) {
	sql, args, err := r.builder().
		Select("1").
		From("invoice_records").
		Where(squirrel.Eq{"invoice_number": number}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build number select: %w", err)
	}

	var one int
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &one, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check number: %w", err)
	}
	return true, nil
}
