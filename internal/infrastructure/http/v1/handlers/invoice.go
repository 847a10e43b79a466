package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	appctx "einvoice/internal/core/context"
	"einvoice/internal/domain/invoice"
	"einvoice/internal/infrastructure/http/v1/dto"
)

// Issuer is the issuance entrypoint the handler dispatches to.
type Issuer interface {
	Issue(ctx context.Context, req *invoice.IssueRequest) (*invoice.IssueResult, error)
}

// InvoiceHandler exposes invoice issuance.
type InvoiceHandler struct {
	*BaseHandler
	issuer Issuer
}

func NewInvoiceHandler(base *BaseHandler, issuer Issuer) *InvoiceHandler {
	return &InvoiceHandler{BaseHandler: base, issuer: issuer}
}

// msgAlreadyIssued marks idempotent replays so callers can tell a replayed
// number from a freshly issued one.
const msgAlreadyIssued = "invoice already exists"

// Issue handles POST /api/v1/invoices/issue.
// Repeats of the same (system_code, order_no) return the originally issued
// number instead of a new one.
func (h *InvoiceHandler) Issue(c *gin.Context) {
	var req dto.IssueInvoiceRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ctx := appctx.WithTenantCode(c.Request.Context(), req.SystemCode)
	c.Request = c.Request.WithContext(ctx)

	result, err := h.issuer.Issue(ctx, req.ToDomain())
	if err != nil {
		h.Error(c, err)
		return
	}

	data := dto.IssueInvoiceData{
		InvoiceNumber: result.InvoiceNumber,
		AlreadyIssued: result.AlreadyIssued,
	}
	if result.AlreadyIssued {
		c.JSON(http.StatusOK, dto.OKMsg(msgAlreadyIssued, data))
		return
	}
	c.JSON(http.StatusOK, dto.OK(data))
}
