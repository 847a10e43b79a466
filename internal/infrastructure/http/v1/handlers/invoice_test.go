package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"einvoice/internal/domain/invoice"
)

type stubIssuer struct {
	result *invoice.IssueResult
	err    error
}

func (s *stubIssuer) Issue(ctx context.Context, req *invoice.IssueRequest) (*invoice.IssueResult, error) {
	return s.result, s.err
}

const issueBody = `{
	"system_code": "QB",
	"order_no": "ORD-2026-001",
	"user_id": "user-1",
	"invoice_date": "20260514",
	"invoice_time": "103000",
	"invoice_products": [
		{
			"description": "Widget",
			"quantity": 2,
			"unit": "pcs",
			"unit_price": 15.75,
			"amount": 31.5,
			"sequence_number": 1
		}
	],
	"total_amount": 31.5
}`

func issueRequest(t *testing.T, issuer Issuer) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	h := NewInvoiceHandler(NewBaseHandler(), issuer)
	r.POST("/api/v1/invoices/issue", h.Issue)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/issue", strings.NewReader(issueBody))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type issueEnvelope struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Data    struct {
		InvoiceNumber string `json:"invoice_number"`
		AlreadyIssued bool   `json:"already_issued"`
	} `json:"data"`
}

func TestIssueHandler_FreshIssuance(t *testing.T) {
	issuer := &stubIssuer{result: &invoice.IssueResult{InvoiceNumber: "AB00000001"}}

	w := issueRequest(t, issuer)

	require.Equal(t, http.StatusOK, w.Code)
	var got issueEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Success)
	assert.Equal(t, "success", got.Msg)
	assert.Equal(t, "AB00000001", got.Data.InvoiceNumber)
	assert.False(t, got.Data.AlreadyIssued)
}

func TestIssueHandler_ReplayAnnouncesExistingInvoice(t *testing.T) {
	issuer := &stubIssuer{result: &invoice.IssueResult{InvoiceNumber: "AB00000001", AlreadyIssued: true}}

	w := issueRequest(t, issuer)

	require.Equal(t, http.StatusOK, w.Code)
	var got issueEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Success)
	assert.Equal(t, "invoice already exists", got.Msg)
	assert.Equal(t, "AB00000001", got.Data.InvoiceNumber)
	assert.True(t, got.Data.AlreadyIssued)
}
