package export

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"einvoice/internal/core/apperror"
	"einvoice/internal/core/id"
	"einvoice/internal/domain/invoice"
	"einvoice/internal/domain/tenant"
)

type stubInvoiceRepo struct {
	unsent []*invoice.Invoice
	lines  map[string][]invoice.LineItem

	// failLinesFor makes GetLines fail for one invoice number.
	failLinesFor string
	markedSent   []id.ID
}

func (r *stubInvoiceRepo) FindByOrder(ctx context.Context, tenantID id.ID, orderNo string) (*invoice.Invoice, error) {
	return nil, apperror.NewNotFound("invoice", orderNo)
}

func (r *stubInvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error { return nil }

func (r *stubInvoiceRepo) SaveLines(ctx context.Context, invoiceID id.ID, lines []invoice.LineItem) error {
	return nil
}

func (r *stubInvoiceRepo) GetLines(ctx context.Context, invoiceID id.ID) ([]invoice.LineItem, error) {
	for _, inv := range r.unsent {
		if inv.ID == invoiceID && inv.InvoiceNumber == r.failLinesFor {
			return nil, apperror.NewInternal(os.ErrClosed)
		}
	}
	return r.lines[invoiceID.String()], nil
}

func (r *stubInvoiceRepo) ListUnsent(ctx context.Context, op invoice.OperationType, limit int) ([]*invoice.Invoice, error) {
	return r.unsent, nil
}

func (r *stubInvoiceRepo) MarkSent(ctx context.Context, ids []id.ID, at time.Time) error {
	r.markedSent = append(r.markedSent, ids...)
	return nil
}

type stubRegistry struct {
	tn    *tenant.Tenant
	calls int
}

func (r *stubRegistry) GetByCode(ctx context.Context, code string) (*tenant.Tenant, error) {
	return r.tn, nil
}

func (r *stubRegistry) GetByID(ctx context.Context, tenantID id.ID) (*tenant.Tenant, error) {
	r.calls++
	return r.tn, nil
}

func exportStack(t *testing.T) (*stubInvoiceRepo, *stubRegistry, *Exporter, string) {
	t.Helper()
	dir := t.TempDir()

	inv, lines, tn := exportFixture()
	inv.TenantID = tn.ID
	repo := &stubInvoiceRepo{
		unsent: []*invoice.Invoice{inv},
		lines:  map[string][]invoice.LineItem{inv.ID.String(): lines},
	}
	registry := &stubRegistry{tn: tn}
	exporter := NewExporter(repo, registry, Config{Dir: dir, Env: "stage"})
	return repo, registry, exporter, dir
}

func TestRun_WritesFileAndMarksSent(t *testing.T) {
	repo, _, exporter, dir := exportStack(t)

	n, err := exporter.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, repo.markedSent, 1)
	assert.Equal(t, repo.unsent[0].ID, repo.markedSent[0])

	path := filepath.Join(dir, "AB00000123_QB000000123_stage.xml")
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<InvoiceNumber>AB00000123</InvoiceNumber>")
	assert.Contains(t, string(body), `<?xml version="1.0" encoding="UTF-8"?>`)
}

func TestRun_EmptyBatchIsNoop(t *testing.T) {
	repo, _, exporter, dir := exportStack(t)
	repo.unsent = nil

	n, err := exporter.Run(context.Background())

	require.NoError(t, err)
	assert.Zero(t, n)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRun_FailedRecordIsSkippedNotMarked(t *testing.T) {
	repo, _, exporter, _ := exportStack(t)

	broken, lines, tn := exportFixture()
	broken.ID = id.New()
	broken.TenantID = tn.ID
	broken.InvoiceNumber = "AB00000999"
	repo.unsent = append(repo.unsent, broken)
	repo.lines[broken.ID.String()] = lines
	repo.failLinesFor = "AB00000999"

	n, err := exporter.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n, "healthy record still goes out")
	require.Len(t, repo.markedSent, 1)
	assert.NotEqual(t, broken.ID, repo.markedSent[0])
}

func TestRun_CachesTenantLookup(t *testing.T) {
	repo, registry, exporter, _ := exportStack(t)

	second, lines, tn := exportFixture()
	second.ID = id.New()
	second.TenantID = tn.ID
	second.InvoiceNumber = "AB00000124"
	repo.unsent = append(repo.unsent, second)
	repo.lines[second.ID.String()] = lines

	_, err := exporter.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, registry.calls)
}

func TestRun_F0401Format(t *testing.T) {
	repo, registry, _, _ := exportStack(t)
	dir := t.TempDir()
	exporter := NewExporter(repo, registry, Config{Dir: dir, Env: "prod", Format: FormatF0401})

	n, err := exporter.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, n)
	body, err := os.ReadFile(filepath.Join(dir, "AB00000123_QB000000123_prod.xml"))
	require.NoError(t, err)
	assert.Contains(t, string(body), "urn:GEINV:eInvoiceMessage:F0401:4.0")
}
