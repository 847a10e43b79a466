// Package export renders unsent invoice records into government-defined tax
// document formats (C0401 and F0401) and marks them as sent.
package export

import (
	"encoding/xml"

	"einvoice/internal/core/types"
	"einvoice/internal/domain/invoice"
	"einvoice/internal/domain/tenant"
)

// Message namespaces and schema bindings.
const (
	c0401Namespace      = "urn:GEINV:eInvoiceMessage:C0401:3.2"
	c0401SchemaLocation = "urn:GEINV:eInvoiceMessage:C0401:3.2 C0401.xsd"
	f0401Namespace      = "urn:GEINV:eInvoiceMessage:F0401:4.0"
	f0401SchemaLocation = "urn:GEINV:eInvoiceMessage:F0401:4.0 F0401.xsd"
	xsiNamespace        = "http://www.w3.org/2001/XMLSchema-instance"
)

// C0401 is the consumer e-invoice issuance message.
type C0401 struct {
	XMLName           xml.Name `xml:"Invoice"`
	Xmlns             string   `xml:"xmlns,attr"`
	XmlnsXsi          string   `xml:"xmlns:xsi,attr"`
	XsiSchemaLocation string   `xml:"xsi:schemaLocation,attr"`

	Main    c0401Main      `xml:"Main"`
	Details []c0401Product `xml:"Details>ProductItem"`
	Amount  c0401Amount    `xml:"Amount"`
}

type c0401Main struct {
	InvoiceNumber string     `xml:"InvoiceNumber"`
	InvoiceDate   string     `xml:"InvoiceDate"`
	InvoiceTime   string     `xml:"InvoiceTime"`
	Seller        xmlSeller  `xml:"Seller"`
	Buyer         xmlBuyer   `xml:"Buyer"`
	InvoiceType   string     `xml:"InvoiceType"`
	DonateMark    string     `xml:"DonateMark"`
	CarrierType   string     `xml:"CarrierType"`
	CarrierID1    string     `xml:"CarrierId1"`
	CarrierID2    string     `xml:"CarrierId2"`
	PrintMark     string     `xml:"PrintMark"`
	RandomNumber  string     `xml:"RandomNumber"`
}

type xmlSeller struct {
	Identifier      string `xml:"Identifier"`
	Name            string `xml:"Name"`
	Address         string `xml:"Address"`
	TelephoneNumber string `xml:"TelephoneNumber"`
}

type xmlBuyer struct {
	Identifier string `xml:"Identifier"`
	Name       string `xml:"Name"`
}

type c0401Product struct {
	Description    string `xml:"Description"`
	Quantity       int64  `xml:"Quantity"`
	Unit           string `xml:"Unit"`
	UnitPrice      int64  `xml:"UnitPrice"`
	Amount         int64  `xml:"Amount"`
	SequenceNumber string `xml:"SequenceNumber"`
}

type c0401Amount struct {
	SalesAmount        int64  `xml:"SalesAmount"`
	FreeTaxSalesAmount int64  `xml:"FreeTaxSalesAmount"`
	ZeroTaxSalesAmount int64  `xml:"ZeroTaxSalesAmount"`
	TaxType            string `xml:"TaxType"`
	TaxRate            string `xml:"TaxRate"`
	TaxAmount          int64  `xml:"TaxAmount"`
	TotalAmount        int64  `xml:"TotalAmount"`
}

// NewC0401 maps a persisted invoice with its line items and tenant config
// into the C0401 document. Amounts and unit prices are rounded
// half-away-from-zero to whole currency units.
func NewC0401(inv *invoice.Invoice, lines []invoice.LineItem, tn *tenant.Tenant) *C0401 {
	doc := &C0401{
		Xmlns:             c0401Namespace,
		XmlnsXsi:          xsiNamespace,
		XsiSchemaLocation: c0401SchemaLocation,
		Main: c0401Main{
			InvoiceNumber: inv.InvoiceNumber,
			InvoiceDate:   inv.InvoiceDate,
			InvoiceTime:   inv.InvoiceTime,
			Seller: xmlSeller{
				Identifier:      tn.SellerIdentifier,
				Name:            tn.SellerName,
				Address:         tn.SellerAddress,
				TelephoneNumber: tn.SellerPhone,
			},
			Buyer: xmlBuyer{
				Identifier: inv.BuyerIdentifier,
				Name:       inv.CarrierID,
			},
			InvoiceType:  inv.InvoiceType,
			DonateMark:   inv.DonateMark,
			CarrierType:  tn.CarrierType,
			CarrierID1:   inv.CarrierID,
			CarrierID2:   inv.CarrierID,
			PrintMark:    inv.PrintMark,
			RandomNumber: inv.RandomNumber,
		},
		Amount: c0401Amount{
			SalesAmount:        types.RoundToUnit(inv.SalesAmount),
			FreeTaxSalesAmount: types.RoundToUnit(inv.FreeTaxSalesAmount),
			ZeroTaxSalesAmount: types.RoundToUnit(inv.ZeroTaxSalesAmount),
			TaxType:            inv.TaxType,
			TaxRate:            inv.TaxRate.StringFixed(2),
			TaxAmount:          types.RoundToUnit(inv.TaxAmount),
			TotalAmount:        types.RoundToUnit(inv.TotalAmount),
		},
	}

	for _, l := range lines {
		doc.Details = append(doc.Details, c0401Product{
			Description:    l.Description,
			Quantity:       l.Quantity,
			Unit:           l.Unit,
			UnitPrice:      types.RoundToUnit(l.UnitPrice),
			Amount:         types.RoundToUnit(l.Amount),
			SequenceNumber: l.FormatSequence(),
		})
	}

	return doc
}

// F0401 is the platform-format issuance message. Structurally a superset of
// C0401 with remark and customs fields the issuer leaves empty.
type F0401 struct {
	XMLName           xml.Name `xml:"Invoice"`
	Xmlns             string   `xml:"xmlns,attr"`
	XmlnsXsi          string   `xml:"xmlns:xsi,attr"`
	XsiSchemaLocation string   `xml:"xsi:schemaLocation,attr"`

	Main    f0401Main      `xml:"Main"`
	Details []f0401Product `xml:"Details>ProductItem"`
	Amount  f0401Amount    `xml:"Amount"`
}

type f0401Main struct {
	InvoiceNumber        string    `xml:"InvoiceNumber"`
	InvoiceDate          string    `xml:"InvoiceDate"`
	InvoiceTime          string    `xml:"InvoiceTime"`
	Seller               xmlSeller `xml:"Seller"`
	Buyer                xmlBuyer  `xml:"Buyer"`
	BuyerRemark          string    `xml:"BuyerRemark"`
	MainRemark           string    `xml:"MainRemark"`
	CustomsClearanceMark string    `xml:"CustomsClearanceMark"`
	Category             string    `xml:"Category"`
	RelateNumber         string    `xml:"RelateNumber"`
	InvoiceType          string    `xml:"InvoiceType"`
	GroupMark            string    `xml:"GroupMark"`
	DonateMark           string    `xml:"DonateMark"`
	CarrierType          string    `xml:"CarrierType"`
	CarrierID1           string    `xml:"CarrierId1"`
	CarrierID2           string    `xml:"CarrierId2"`
	PrintMark            string    `xml:"PrintMark"`
	RandomNumber         string    `xml:"RandomNumber"`
}

type f0401Product struct {
	Description    string `xml:"Description"`
	Quantity       int64  `xml:"Quantity"`
	Unit           string `xml:"Unit"`
	UnitPrice      int64  `xml:"UnitPrice"`
	TaxType        string `xml:"TaxType"`
	Amount         int64  `xml:"Amount"`
	SequenceNumber string `xml:"SequenceNumber"`
	Remark         string `xml:"Remark"`
}

type f0401Amount struct {
	SalesAmount        int64  `xml:"SalesAmount"`
	FreeTaxSalesAmount int64  `xml:"FreeTaxSalesAmount"`
	ZeroTaxSalesAmount int64  `xml:"ZeroTaxSalesAmount"`
	TaxType            string `xml:"TaxType"`
	TaxRate            string `xml:"TaxRate"`
	TaxAmount          int64  `xml:"TaxAmount"`
	TotalAmount        int64  `xml:"TotalAmount"`
}

// NewF0401 maps a persisted invoice into the F0401 document, applying the
// same half-away-from-zero rounding as C0401.
func NewF0401(inv *invoice.Invoice, lines []invoice.LineItem, tn *tenant.Tenant) *F0401 {
	doc := &F0401{
		Xmlns:             f0401Namespace,
		XmlnsXsi:          xsiNamespace,
		XsiSchemaLocation: f0401SchemaLocation,
		Main: f0401Main{
			InvoiceNumber: inv.InvoiceNumber,
			InvoiceDate:   inv.InvoiceDate,
			InvoiceTime:   inv.InvoiceTime,
			Seller: xmlSeller{
				Identifier:      tn.SellerIdentifier,
				Name:            tn.SellerName,
				Address:         tn.SellerAddress,
				TelephoneNumber: tn.SellerPhone,
			},
			Buyer: xmlBuyer{
				Identifier: inv.BuyerIdentifier,
				Name:       inv.CarrierID,
			},
			InvoiceType:  inv.InvoiceType,
			DonateMark:   inv.DonateMark,
			CarrierType:  tn.CarrierType,
			CarrierID1:   inv.CarrierID,
			CarrierID2:   inv.CarrierID,
			PrintMark:    inv.PrintMark,
			RandomNumber: inv.RandomNumber,
		},
		Amount: f0401Amount{
			SalesAmount:        types.RoundToUnit(inv.SalesAmount),
			FreeTaxSalesAmount: types.RoundToUnit(inv.FreeTaxSalesAmount),
			ZeroTaxSalesAmount: types.RoundToUnit(inv.ZeroTaxSalesAmount),
			TaxType:            inv.TaxType,
			TaxRate:            inv.TaxRate.StringFixed(2),
			TaxAmount:          types.RoundToUnit(inv.TaxAmount),
			TotalAmount:        types.RoundToUnit(inv.TotalAmount),
		},
	}

	for _, l := range lines {
		doc.Details = append(doc.Details, f0401Product{
			Description:    l.Description,
			Quantity:       l.Quantity,
			Unit:           l.Unit,
			UnitPrice:      types.RoundToUnit(l.UnitPrice),
			TaxType:        inv.TaxType,
			Amount:         types.RoundToUnit(l.Amount),
			SequenceNumber: l.FormatSequence(),
		})
	}

	return doc
}
