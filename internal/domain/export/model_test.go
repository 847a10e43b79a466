package export

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"einvoice/internal/core/id"
	"einvoice/internal/core/types"
	"einvoice/internal/domain/invoice"
	"einvoice/internal/domain/tenant"
)

func exportFixture() (*invoice.Invoice, []invoice.LineItem, *tenant.Tenant) {
	inv := &invoice.Invoice{
		ID:              id.New(),
		InvoiceNumber:   "AB00000123",
		InvoiceDate:     "20260514",
		InvoiceTime:     "103000",
		CarrierID:       "QB000000123",
		InvoiceType:     "07",
		DonateMark:      "0",
		PrintMark:       "N",
		RandomNumber:    "0424",
		BuyerIdentifier: "0000000000",

		SalesAmount:        types.MustMoney("31.5"),
		FreeTaxSalesAmount: types.Zero(),
		ZeroTaxSalesAmount: types.Zero(),
		TaxType:            "1",
		TaxRate:            types.MustMoney("0.05"),
		TaxAmount:          types.MustMoney("-2.5"),
		TotalAmount:        types.MustMoney("31.5"),
	}
	lines := []invoice.LineItem{
		{
			SequenceNumber: 1,
			Description:    "Widget",
			Quantity:       2,
			Unit:           "pcs",
			UnitPrice:      types.MustMoney("15.75"),
			Amount:         types.MustMoney("31.5"),
		},
	}
	tn := &tenant.Tenant{
		Code:             "QB",
		SellerIdentifier: "53212539",
		SellerName:       "Demo Seller",
		SellerAddress:    "1F., No.1, Demo Rd.",
		SellerPhone:      "0223456789",
		CarrierType:      "EG0055",
	}
	return inv, lines, tn
}

func TestNewC0401_RoundsHalfAwayFromZero(t *testing.T) {
	inv, lines, tn := exportFixture()

	doc := NewC0401(inv, lines, tn)

	// 31.5 rounds away from zero to 32, -2.5 to -3.
	assert.Equal(t, int64(32), doc.Amount.SalesAmount)
	assert.Equal(t, int64(32), doc.Amount.TotalAmount)
	assert.Equal(t, int64(-3), doc.Amount.TaxAmount)

	require.Len(t, doc.Details, 1)
	assert.Equal(t, int64(16), doc.Details[0].UnitPrice)
	assert.Equal(t, int64(32), doc.Details[0].Amount)
}

func TestNewC0401_FieldMapping(t *testing.T) {
	inv, lines, tn := exportFixture()

	doc := NewC0401(inv, lines, tn)

	assert.Equal(t, "urn:GEINV:eInvoiceMessage:C0401:3.2", doc.Xmlns)
	assert.Equal(t, "AB00000123", doc.Main.InvoiceNumber)
	assert.Equal(t, "53212539", doc.Main.Seller.Identifier)
	assert.Equal(t, "QB000000123", doc.Main.CarrierID1)
	assert.Equal(t, "EG0055", doc.Main.CarrierType)
	assert.Equal(t, "0.05", doc.Amount.TaxRate)
	assert.Equal(t, "001", doc.Details[0].SequenceNumber)
}

func TestC0401_MarshalShape(t *testing.T) {
	inv, lines, tn := exportFixture()

	body, err := xml.MarshalIndent(NewC0401(inv, lines, tn), "", "  ")
	require.NoError(t, err)

	s := string(body)
	assert.Contains(t, s, `<Invoice xmlns="urn:GEINV:eInvoiceMessage:C0401:3.2"`)
	assert.Contains(t, s, "<InvoiceNumber>AB00000123</InvoiceNumber>")
	assert.Contains(t, s, "<SequenceNumber>001</SequenceNumber>")
	assert.Contains(t, s, "<SalesAmount>32</SalesAmount>")
	assert.Contains(t, s, "<Details>")
	assert.Contains(t, s, "<ProductItem>")
}

func TestNewF0401_SharesRoundingAndCarriesTaxTypePerLine(t *testing.T) {
	inv, lines, tn := exportFixture()

	doc := NewF0401(inv, lines, tn)

	assert.Equal(t, "urn:GEINV:eInvoiceMessage:F0401:4.0", doc.Xmlns)
	assert.Equal(t, int64(32), doc.Amount.SalesAmount)
	require.Len(t, doc.Details, 1)
	assert.Equal(t, "1", doc.Details[0].TaxType)
	assert.Equal(t, int64(16), doc.Details[0].UnitPrice)
}
