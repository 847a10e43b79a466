// Package invoice provides the invoice record, issuance request validation
// and the issuance orchestrator.
package invoice

import (
	"fmt"
	"html"
	"math/rand/v2"
	"strings"
	"time"
	"unicode"

	"einvoice/internal/core/apperror"
	"einvoice/internal/core/id"
	"einvoice/internal/core/types"
	"einvoice/internal/domain/carrier"
	"einvoice/internal/domain/numbering"
	"einvoice/internal/domain/tenant"
)

// OperationType is the government message type an invoice row maps to.
type OperationType string

const (
	// OpIssue is a normal issuance document (C0401).
	OpIssue OperationType = "C0401"
	// OpVoid is a voided-invoice document (C0501).
	OpVoid OperationType = "C0501"
	// OpCancel is a cancelled-invoice document (C0701).
	OpCancel OperationType = "C0701"
)

// Invoice is one issued invoice record. Created exactly once per successful
// issuance together with its line items; this core never updates it
// afterwards (the exporter flips SendStatus).
type Invoice struct {
	ID            id.ID         `db:"id"`
	InvoiceNumber string        `db:"invoice_number"`
	Year          int           `db:"year"`
	Term          int           `db:"term"`
	TenantID      id.ID         `db:"tenant_id"`
	BindingID     id.ID         `db:"binding_id"`
	OrderNo       string        `db:"order_no"`
	CarrierID     string        `db:"carrier_id"`
	InvoiceDate   string        `db:"invoice_date"` // yyyyMMdd
	InvoiceTime   string        `db:"invoice_time"` // HHmmss

	InvoiceType     string `db:"invoice_type"`
	DonateMark      string `db:"donate_mark"`
	PrintMark       string `db:"print_mark"`
	RandomNumber    string `db:"random_number"`
	BuyerIdentifier string `db:"buyer_identifier"`

	SalesAmount        types.Money `db:"sales_amount"`
	FreeTaxSalesAmount types.Money `db:"free_tax_sales_amount"`
	ZeroTaxSalesAmount types.Money `db:"zero_tax_sales_amount"`
	TaxType            string      `db:"tax_type"`
	TaxRate            types.Money `db:"tax_rate"`
	TaxAmount          types.Money `db:"tax_amount"`
	TotalAmount        types.Money `db:"total_amount"`

	OperationType OperationType `db:"operation_type"`
	SendStatus    bool          `db:"send_status"`
	CreatedAt     time.Time     `db:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
}

// LineItem is one product line of an invoice, owned by its parent record.
type LineItem struct {
	ID             id.ID       `db:"id"`
	InvoiceID      id.ID       `db:"invoice_id"`
	SequenceNumber int         `db:"sequence_number"`
	Description    string      `db:"description"`
	Quantity       int64       `db:"quantity"`
	Unit           string      `db:"unit"`
	UnitPrice      types.Money `db:"unit_price"`
	Amount         types.Money `db:"amount"`
}

// FormatSequence renders the line ordinal as a fixed-width 3-digit string,
// e.g. 1 -> "001".
func (l *LineItem) FormatSequence() string {
	return fmt.Sprintf("%03d", l.SequenceNumber)
}

// --- Issuance request ---

// ProductRequest is one requested invoice line.
type ProductRequest struct {
	Description    string      `json:"description"`
	Quantity       int64       `json:"quantity"`
	Unit           string      `json:"unit"`
	UnitPrice      types.Money `json:"unit_price"`
	Amount         types.Money `json:"amount"`
	SequenceNumber int         `json:"sequence_number"`
}

// IssueRequest is the issuance input.
type IssueRequest struct {
	SystemCode  string           `json:"system_code"`
	OrderNo     string           `json:"order_no"`
	UserID      string           `json:"user_id"`
	InvoiceDate string           `json:"invoice_date"` // yyyyMMdd
	InvoiceTime string           `json:"invoice_time"` // HHmmss
	Products    []ProductRequest `json:"invoice_products"`
	TotalAmount types.Money      `json:"total_amount"`
}

// sanitize strips control characters and escapes markup. Defensive cleanup
// of identifier fields, not a security boundary.
func sanitize(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return html.EscapeString(strings.TrimSpace(cleaned))
}

// Validate sanitizes identifier fields in place and checks the request.
// Pure: no storage access, no side effects beyond the sanitization.
func (r *IssueRequest) Validate() error {
	r.SystemCode = sanitize(r.SystemCode)
	r.UserID = sanitize(r.UserID)
	r.OrderNo = sanitize(r.OrderNo)

	if r.SystemCode == "" || r.UserID == "" {
		return apperror.NewValidation("system code and user id must not be empty")
	}
	if r.OrderNo == "" {
		return apperror.NewValidation("order no must not be empty")
	}
	if _, err := time.Parse("20060102", r.InvoiceDate); err != nil {
		return apperror.NewValidation("invoice date must be yyyyMMdd").
			WithDetail("field", "invoice_date")
	}
	if _, err := time.Parse("150405", r.InvoiceTime); err != nil {
		return apperror.NewValidation("invoice time must be HHmmss").
			WithDetail("field", "invoice_time")
	}
	if len(r.Products) == 0 {
		return apperror.NewValidation("at least one product is required")
	}
	for i, p := range r.Products {
		if p.Description == "" || p.Unit == "" ||
			p.Quantity <= 0 || !p.UnitPrice.IsPositive() || !p.Amount.IsPositive() {
			return apperror.NewValidation("invalid product line").
				WithDetail("index", i)
		}
	}
	if !r.TotalAmount.IsPositive() {
		return apperror.NewValidation("total amount must be positive")
	}
	return nil
}

// --- Record construction ---

// IssueDefaults are the fixed business defaults stamped onto every normal
// invoice. Built once at process start and passed to the orchestrator.
type IssueDefaults struct {
	InvoiceType     string
	DonateMark      string
	PrintMark       string
	BuyerIdentifier string
	TaxType         string
	TaxRate         types.Money
}

// DefaultIssueDefaults returns the standard defaults: normal invoice type,
// non-donation, non-print, anonymous buyer, taxable at 5%.
func DefaultIssueDefaults() IssueDefaults {
	return IssueDefaults{
		InvoiceType:     "07",
		DonateMark:      "0",
		PrintMark:       "N",
		BuyerIdentifier: "0000000000",
		TaxType:         "1",
		TaxRate:         types.MustMoney("0.05"),
	}
}

// randomNumber generates the 4-digit random field carried on every invoice.
// Deliberately non-cryptographic; the field has no security role.
func randomNumber() string {
	return fmt.Sprintf("%04d", rand.IntN(10000))
}

// NewInvoice builds an unsaved invoice record and its line items from a
// validated request, the tenant config and the resolved carrier binding.
// The invoice number, year and term stay empty until allocation.
func NewInvoice(req *IssueRequest, tn *tenant.Tenant, b *carrier.Binding, d IssueDefaults, now time.Time) (*Invoice, []LineItem) {
	taxRate := d.TaxRate
	if tn.TaxRate != nil {
		taxRate = *tn.TaxRate
	}

	inv := &Invoice{
		ID:              id.New(),
		TenantID:        tn.ID,
		BindingID:       b.ID,
		OrderNo:         req.OrderNo,
		CarrierID:       b.CarrierID(tn.Code),
		InvoiceDate:     req.InvoiceDate,
		InvoiceTime:     req.InvoiceTime,
		InvoiceType:     d.InvoiceType,
		DonateMark:      d.DonateMark,
		PrintMark:       d.PrintMark,
		RandomNumber:    randomNumber(),
		BuyerIdentifier: d.BuyerIdentifier,

		SalesAmount:        req.TotalAmount,
		FreeTaxSalesAmount: types.Zero(),
		ZeroTaxSalesAmount: types.Zero(),
		TaxType:            d.TaxType,
		TaxRate:            taxRate,
		TaxAmount:          types.Zero(),
		TotalAmount:        req.TotalAmount,

		OperationType: OpIssue,
		SendStatus:    false,
		CreatedAt:     now.UTC(),
		UpdatedAt:     now.UTC(),
	}

	lines := make([]LineItem, 0, len(req.Products))
	for _, p := range req.Products {
		lines = append(lines, LineItem{
			ID:             id.New(),
			InvoiceID:      inv.ID,
			SequenceNumber: p.SequenceNumber,
			Description:    p.Description,
			Quantity:       p.Quantity,
			Unit:           p.Unit,
			UnitPrice:      p.UnitPrice,
			Amount:         p.Amount,
		})
	}

	return inv, lines
}

// ApplyAllocation stamps an allocated number onto the record.
func (inv *Invoice) ApplyAllocation(a numbering.Allocation) {
	inv.InvoiceNumber = a.Number
	inv.Year = a.Year
	inv.Term = a.Term
}
