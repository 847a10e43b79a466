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
	"einvoice/internal/domain/invoice"
)

// Constraint names the invoice tables are created with; error mapping
// depends on them.
const (
	constraintInvoiceNumber      = "invoice_records_invoice_number_key"
	constraintInvoiceTenantOrder = "invoice_records_tenant_order_key"
)

var invoiceColumns = []string{
	"id", "invoice_number", "year", "term", "tenant_id", "binding_id",
	"order_no", "carrier_id", "invoice_date", "invoice_time",
	"invoice_type", "donate_mark", "print_mark", "random_number",
	"buyer_identifier",
	"sales_amount", "free_tax_sales_amount", "zero_tax_sales_amount",
	"tax_type", "tax_rate", "tax_amount", "total_amount",
	"operation_type", "send_status", "created_at", "updated_at",
}

// InvoiceRepo implements invoice.Repository on the invoice_records and
// invoice_line_items tables.
type InvoiceRepo struct {
	txManager *TxManager
}

var _ invoice.Repository = (*InvoiceRepo)(nil)

func NewInvoiceRepo(txManager *TxManager) *InvoiceRepo {
	return &InvoiceRepo{txManager: txManager}
}

func (r *InvoiceRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *InvoiceRepo) FindByOrder(ctx context.Context, tenantID id.ID, orderNo string) (*invoice.Invoice, error) {
	sql, args, err := r.builder().
		Select(invoiceColumns...).
		From("invoice_records").
		Where(squirrel.Eq{"tenant_id": tenantID, "order_no": orderNo}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build invoice select: %w", err)
	}

	var inv invoice.Invoice
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &inv, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("invoice", orderNo)
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return &inv, nil
}

func (r *InvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	sql, args, err := r.builder().
		Insert("invoice_records").
		Columns(invoiceColumns...).
		Values(
			inv.ID, inv.InvoiceNumber, inv.Year, inv.Term, inv.TenantID,
			inv.BindingID, inv.OrderNo, inv.CarrierID, inv.InvoiceDate,
			inv.InvoiceTime, inv.InvoiceType, inv.DonateMark, inv.PrintMark,
			inv.RandomNumber, inv.BuyerIdentifier,
			inv.SalesAmount, inv.FreeTaxSalesAmount, inv.ZeroTaxSalesAmount,
			inv.TaxType, inv.TaxRate, inv.TaxAmount, inv.TotalAmount,
			inv.OperationType, inv.SendStatus, inv.CreatedAt, inv.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build invoice insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		switch {
		case IsUniqueViolation(err, constraintInvoiceNumber):
			return apperror.NewConcurrentModification("invoice number", inv.InvoiceNumber).WithCause(err)
		case IsUniqueViolation(err, constraintInvoiceTenantOrder):
			return apperror.NewDuplicate("invoice", "order_no", inv.OrderNo).WithCause(err)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

func (r *InvoiceRepo) SaveLines(ctx context.Context, invoiceID id.ID, lines []invoice.LineItem) error {
	if len(lines) == 0 {
		return nil
	}

	q := r.builder().
		Insert("invoice_line_items").
		Columns("id", "invoice_id", "sequence_number", "description",
			"quantity", "unit", "unit_price", "amount")
	for _, l := range lines {
		q = q.Values(l.ID, invoiceID, l.SequenceNumber, l.Description,
			l.Quantity, l.Unit, l.UnitPrice, l.Amount)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build line insert: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert lines: %w", err)
	}
	return nil
}

func (r *InvoiceRepo) GetLines(ctx context.Context, invoiceID id.ID) ([]invoice.LineItem, error) {
	sql, args, err := r.builder().
		Select("id", "invoice_id", "sequence_number", "description",
			"quantity", "unit", "unit_price", "amount").
		From("invoice_line_items").
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("sequence_number").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build line select: %w", err)
	}

	var lines []invoice.LineItem
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("get lines: %w", err)
	}
	return lines, nil
}

func (r *InvoiceRepo) ListUnsent(ctx context.Context, op invoice.OperationType, limit int) ([]*invoice.Invoice, error) {
	sql, args, err := r.builder().
		Select(invoiceColumns...).
		From("invoice_records").
		Where(squirrel.Eq{"operation_type": op, "send_status": false}).
		OrderBy("created_at").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build unsent select: %w", err)
	}

	var invs []*invoice.Invoice
	querier := r.txManager.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &invs, sql, args...); err != nil {
		return nil, fmt.Errorf("list unsent: %w", err)
	}
	return invs, nil
}

func (r *InvoiceRepo) MarkSent(ctx context.Context, ids []id.ID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	sql, args, err := r.builder().
		Update("invoice_records").
		Set("send_status", true).
		Set("updated_at", at).
		Where(squirrel.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark sent: %w", err)
	}

	querier := r.txManager.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("mark sent: %w", err)
	}
	return nil
}
