package export

import (
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"einvoice/internal/core/apperror"
	"einvoice/internal/core/id"
	"einvoice/internal/domain/invoice"
	"einvoice/internal/domain/tenant"
	"einvoice/pkg/logger"
)

// Format selects the output document schema.
type Format string

const (
	FormatC0401 Format = "C0401"
	FormatF0401 Format = "F0401"
)

// Config controls where and how documents are written.
type Config struct {
	// Dir is the drop directory for generated XML files.
	Dir string
	// Env tags generated file names, e.g. "prod" or "stage".
	Env string
	// Format is the document schema to render. Defaults to C0401.
	Format Format
	// BatchSize bounds how many records one Run picks up.
	BatchSize int
}

// Exporter drains unsent invoice records into XML files and marks them sent.
// It sits outside the issuance transaction: records it fails on stay unsent
// and are retried on the next run.
type Exporter struct {
	invoices invoice.Repository
	tenants  tenant.Registry
	cfg      Config
}

func NewExporter(invoices invoice.Repository, tenants tenant.Registry, cfg Config) *Exporter {
	if cfg.Format == "" {
		cfg.Format = FormatC0401
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Exporter{invoices: invoices, tenants: tenants, cfg: cfg}
}

// Run exports one batch. Failures are isolated per record: a bad row is
// logged and skipped, the rest of the batch still goes out. Returns the
// number of records exported.
func (e *Exporter) Run(ctx context.Context) (int, error) {
	batch, err := e.invoices.ListUnsent(ctx, invoice.OpIssue, e.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("list unsent invoices: %w", err)
	}
	if len(batch) == 0 {
		return 0, nil
	}

	if err := os.MkdirAll(e.cfg.Dir, 0o755); err != nil {
		return 0, fmt.Errorf("create export dir: %w", err)
	}

	tenants := make(map[id.ID]*tenant.Tenant)
	sent := make([]id.ID, 0, len(batch))
	for _, inv := range batch {
		tn, ok := tenants[inv.TenantID]
		if !ok {
			tn, err = e.tenants.GetByID(ctx, inv.TenantID)
			if err != nil {
				logger.Error(ctx, "export: tenant lookup failed",
					"invoice_number", inv.InvoiceNumber, "error", err)
				continue
			}
			tenants[inv.TenantID] = tn
		}

		if err := e.exportOne(ctx, inv, tn); err != nil {
			logger.Error(ctx, "export: invoice failed",
				"invoice_number", inv.InvoiceNumber, "error", err)
			continue
		}
		sent = append(sent, inv.ID)
	}

	if len(sent) > 0 {
		if err := e.invoices.MarkSent(ctx, sent, time.Now().UTC()); err != nil {
			// Files are on disk but rows stay unsent; the next run rewrites
			// the same files, which is harmless.
			return len(sent), fmt.Errorf("mark invoices sent: %w", err)
		}
	}
	logger.Info(ctx, "export: batch done", "picked", len(batch), "exported", len(sent))
	return len(sent), nil
}

func (e *Exporter) exportOne(ctx context.Context, inv *invoice.Invoice, tn *tenant.Tenant) error {
	lines, err := e.invoices.GetLines(ctx, inv.ID)
	if err != nil {
		return fmt.Errorf("load line items: %w", err)
	}

	var doc any
	switch e.cfg.Format {
	case FormatF0401:
		doc = NewF0401(inv, lines, tn)
	case FormatC0401:
		doc = NewC0401(inv, lines, tn)
	default:
		return apperror.NewValidation(fmt.Sprintf("unknown export format %q", e.cfg.Format))
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", e.cfg.Format, err)
	}

	name := fmt.Sprintf("%s_%s_%s.xml", inv.InvoiceNumber, inv.CarrierID, e.cfg.Env)
	path := filepath.Join(e.cfg.Dir, name)
	payload := append([]byte(xml.Header), body...)
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
