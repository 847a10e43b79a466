package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"einvoice/internal/core/id"
)

// CompressionAlgo specifies the compression applied to a stored payload.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// ActionLogEntry is one captured API call: the request that came in and
// the response that went out.
type ActionLogEntry struct {
	ID             id.ID           `db:"id"`
	RequestID      string          `db:"request_id"`
	Method         string          `db:"method"`
	Path           string          `db:"path"`
	StatusCode     int             `db:"status_code"`
	UserID         string          `db:"user_id"`
	TenantCode     string          `db:"tenant_code"`
	Payload        json.RawMessage `db:"payload"`
	PayloadZstd    []byte          `db:"payload_compressed"`
	Response       json.RawMessage `db:"response"`
	Compression    CompressionAlgo `db:"compression_algo"`
	DurationMillis int64           `db:"duration_ms"`
	CreatedAt      time.Time       `db:"created_at"`
}

// ActionLogStore persists API call records, compressing large payloads.
type ActionLogStore struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

func NewActionLogStore(txManager *TxManager) (*ActionLogStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &ActionLogStore{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// Log writes one entry. Runs on the pool, outside any caller transaction,
// so a rolled-back issuance still leaves its trace.
func (s *ActionLogStore) Log(ctx context.Context, entry ActionLogEntry) error {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	entry.Compression = CompressionNone
	if len(entry.Payload) > s.compressThreshold {
		entry.PayloadZstd = s.encoder.EncodeAll(entry.Payload, nil)
		entry.Payload = nil
		entry.Compression = CompressionZstd
	}

	sql := `
		INSERT INTO action_logs (
			id, request_id, method, path, status_code, user_id, tenant_code,
			payload, payload_compressed, response, compression_algo,
			duration_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := s.txManager.pool.Exec(ctx, sql,
		entry.ID, entry.RequestID, entry.Method, entry.Path,
		entry.StatusCode, entry.UserID, entry.TenantCode,
		entry.Payload, entry.PayloadZstd, entry.Response, entry.Compression,
		entry.DurationMillis, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert action log: %w", err)
	}
	return nil
}

// DecodePayload returns the decompressed payload of a fetched entry.
func (s *ActionLogStore) DecodePayload(entry *ActionLogEntry) (json.RawMessage, error) {
	if entry.Compression != CompressionZstd {
		return entry.Payload, nil
	}
	raw, err := s.decoder.DecodeAll(entry.PayloadZstd, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress action log payload: %w", err)
	}
	return raw, nil
}

// Close releases the compressor resources.
func (s *ActionLogStore) Close() {
	if s.encoder != nil {
		_ = s.encoder.Close()
	}
	if s.decoder != nil {
		s.decoder.Close()
	}
}
