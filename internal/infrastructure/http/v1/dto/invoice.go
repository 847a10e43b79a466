// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"einvoice/internal/core/types"
	"einvoice/internal/domain/invoice"
)

// IssueProduct is one product line of an issuance request.
type IssueProduct struct {
	Description    string      `json:"description" binding:"required"`
	Quantity       int64       `json:"quantity" binding:"required"`
	Unit           string      `json:"unit" binding:"required"`
	UnitPrice      types.Money `json:"unit_price" binding:"required"`
	Amount         types.Money `json:"amount" binding:"required"`
	SequenceNumber int         `json:"sequence_number" binding:"required"`
}

// IssueInvoiceRequest is the POST body for invoice issuance.
type IssueInvoiceRequest struct {
	SystemCode  string         `json:"system_code" binding:"required"`
	OrderNo     string         `json:"order_no" binding:"required"`
	UserID      string         `json:"user_id" binding:"required"`
	InvoiceDate string         `json:"invoice_date" binding:"required"`
	InvoiceTime string         `json:"invoice_time" binding:"required"`
	Products    []IssueProduct `json:"invoice_products" binding:"required"`
	TotalAmount types.Money    `json:"total_amount" binding:"required"`
}

// ToDomain maps the transport request to the issuance input.
func (r *IssueInvoiceRequest) ToDomain() *invoice.IssueRequest {
	req := &invoice.IssueRequest{
		SystemCode:  r.SystemCode,
		OrderNo:     r.OrderNo,
		UserID:      r.UserID,
		InvoiceDate: r.InvoiceDate,
		InvoiceTime: r.InvoiceTime,
		TotalAmount: r.TotalAmount,
	}
	for _, p := range r.Products {
		req.Products = append(req.Products, invoice.ProductRequest{
			Description:    p.Description,
			Quantity:       p.Quantity,
			Unit:           p.Unit,
			UnitPrice:      p.UnitPrice,
			Amount:         p.Amount,
			SequenceNumber: p.SequenceNumber,
		})
	}
	return req
}

// IssueInvoiceData is the success payload of an issuance call.
type IssueInvoiceData struct {
	InvoiceNumber string `json:"invoice_number"`
	AlreadyIssued bool   `json:"already_issued,omitempty"`
}

// Response is the envelope every endpoint answers with.
type Response struct {
	Success bool   `json:"success"`
	Msg     string `json:"msg"`
	Data    any    `json:"data,omitempty"`
}

// OK wraps a payload in a success envelope.
func OK(data any) Response {
	return Response{Success: true, Msg: "success", Data: data}
}

// OKMsg wraps a payload in a success envelope with a specific message.
func OKMsg(msg string, data any) Response {
	return Response{Success: true, Msg: msg, Data: data}
}
