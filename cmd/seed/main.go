// Package main seeds the database schema and a demo tenant for local
// development.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"einvoice/internal/core/id"
	"einvoice/pkg/logger"
)

// Constraint and index names are load-bearing: the repositories map unique
// violations to domain errors by name.
const schema = `
CREATE TABLE IF NOT EXISTS invoice_tenants (
	id                UUID PRIMARY KEY,
	code              TEXT NOT NULL,
	name              TEXT NOT NULL,
	seller_identifier TEXT NOT NULL,
	seller_name       TEXT NOT NULL,
	seller_address    TEXT NOT NULL DEFAULT '',
	seller_phone      TEXT NOT NULL DEFAULT '',
	carrier_type      TEXT NOT NULL DEFAULT '',
	tax_rate          NUMERIC(6,4),
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT invoice_tenants_code_key UNIQUE (code)
);

CREATE TABLE IF NOT EXISTS carrier_serials (
	tenant_id  UUID PRIMARY KEY REFERENCES invoice_tenants(id),
	serial_no  BIGINT NOT NULL DEFAULT 0,
	version    INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS carrier_bindings (
	id         UUID PRIMARY KEY,
	tenant_id  UUID NOT NULL REFERENCES invoice_tenants(id),
	user_id    TEXT NOT NULL,
	serial_no  BIGINT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT carrier_bindings_tenant_user_key UNIQUE (tenant_id, user_id)
);

CREATE TABLE IF NOT EXISTS invoice_number_ranges (
	id         UUID PRIMARY KEY,
	tenant_id  UUID NOT NULL REFERENCES invoice_tenants(id),
	year       INTEGER NOT NULL,
	term       INTEGER NOT NULL,
	letter     TEXT NOT NULL,
	now_number BIGINT NOT NULL,
	end_number BIGINT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'pending',
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS invoice_number_ranges_active_idx
	ON invoice_number_ranges (tenant_id, year, term)
	WHERE status = 'in_use';

CREATE TABLE IF NOT EXISTS invoice_records (
	id                    UUID PRIMARY KEY,
	invoice_number        TEXT NOT NULL,
	year                  INTEGER NOT NULL,
	term                  INTEGER NOT NULL,
	tenant_id             UUID NOT NULL REFERENCES invoice_tenants(id),
	binding_id            UUID NOT NULL REFERENCES carrier_bindings(id),
	order_no              TEXT NOT NULL,
	carrier_id            TEXT NOT NULL,
	invoice_date          TEXT NOT NULL,
	invoice_time          TEXT NOT NULL,
	invoice_type          TEXT NOT NULL,
	donate_mark           TEXT NOT NULL,
	print_mark            TEXT NOT NULL,
	random_number         TEXT NOT NULL,
	buyer_identifier      TEXT NOT NULL,
	sales_amount          NUMERIC(14,4) NOT NULL,
	free_tax_sales_amount NUMERIC(14,4) NOT NULL,
	zero_tax_sales_amount NUMERIC(14,4) NOT NULL,
	tax_type              TEXT NOT NULL,
	tax_rate              NUMERIC(6,4) NOT NULL,
	tax_amount            NUMERIC(14,4) NOT NULL,
	total_amount          NUMERIC(14,4) NOT NULL,
	operation_type        TEXT NOT NULL,
	send_status           BOOLEAN NOT NULL DEFAULT false,
	created_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at            TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT invoice_records_invoice_number_key UNIQUE (invoice_number),
	CONSTRAINT invoice_records_tenant_order_key UNIQUE (tenant_id, order_no)
);

CREATE INDEX IF NOT EXISTS invoice_records_unsent_idx
	ON invoice_records (operation_type, created_at)
	WHERE send_status = false;

CREATE TABLE IF NOT EXISTS invoice_line_items (
	id              UUID PRIMARY KEY,
	invoice_id      UUID NOT NULL REFERENCES invoice_records(id),
	sequence_number INTEGER NOT NULL,
	description     TEXT NOT NULL,
	quantity        BIGINT NOT NULL,
	unit            TEXT NOT NULL,
	unit_price      NUMERIC(14,4) NOT NULL,
	amount          NUMERIC(14,4) NOT NULL
);

CREATE INDEX IF NOT EXISTS invoice_line_items_invoice_idx
	ON invoice_line_items (invoice_id);

CREATE TABLE IF NOT EXISTS action_logs (
	id                 UUID PRIMARY KEY,
	request_id         TEXT NOT NULL DEFAULT '',
	method             TEXT NOT NULL,
	path               TEXT NOT NULL,
	status_code        INTEGER NOT NULL,
	user_id            TEXT NOT NULL DEFAULT '',
	tenant_code        TEXT NOT NULL DEFAULT '',
	payload            JSONB,
	payload_compressed BYTEA,
	response           JSONB,
	compression_algo   TEXT NOT NULL DEFAULT 'none',
	duration_ms        BIGINT NOT NULL DEFAULT 0,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

func main() {
	log, err := logger.New(logger.Config{Level: "info", Development: true})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalw("failed to connect", "error", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(ctx, schema); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}
	log.Info("schema applied")

	if os.Getenv("SEED_DEMO") != "true" {
		return
	}

	tenantID := id.New()
	_, err = pool.Exec(ctx, `
		INSERT INTO invoice_tenants (id, code, name, seller_identifier, seller_name, seller_address, seller_phone, carrier_type)
		VALUES ($1, 'QB', 'Demo Seller', '53212539', 'Demo Seller Co.', '1F., No.1, Demo Rd.', '0223456789', 'EG0055')
		ON CONFLICT ON CONSTRAINT invoice_tenants_code_key DO NOTHING
	`, tenantID)
	if err != nil {
		log.Fatalw("failed to seed tenant", "error", err)
	}

	// Resolve the id actually stored (the insert may have been a no-op).
	if err := pool.QueryRow(ctx,
		`SELECT id FROM invoice_tenants WHERE code = 'QB'`).Scan(&tenantID); err != nil {
		log.Fatalw("failed to read tenant", "error", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO carrier_serials (tenant_id, serial_no, version)
		VALUES ($1, 0, 0)
		ON CONFLICT (tenant_id) DO NOTHING
	`, tenantID)
	if err != nil {
		log.Fatalw("failed to seed serial", "error", err)
	}

	year := time.Now().Year()
	term := (int(time.Now().Month())-1)/2 + 1
	_, err = pool.Exec(ctx, `
		INSERT INTO invoice_number_ranges (id, tenant_id, year, term, letter, now_number, end_number, status)
		SELECT $1, $2, $3, $4, 'AB', 0, 99999999, 'in_use'
		WHERE NOT EXISTS (
			SELECT 1 FROM invoice_number_ranges
			WHERE tenant_id = $2 AND year = $3 AND term = $4 AND status = 'in_use'
		)
	`, id.New(), tenantID, year, term)
	if err != nil {
		log.Fatalw("failed to seed number range", "error", err)
	}

	log.Infow("demo tenant seeded", "code", "QB", "year", year, "term", term)
}
