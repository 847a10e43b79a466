// Package tenant provides the registry of client systems ("tenants") the
// issuer acts for. Tenant records are provisioned out-of-band and immutable.
package tenant

import (
	"time"

	"einvoice/internal/core/id"
	"einvoice/internal/core/types"
)

// Tenant is the configuration record of one client system.
// Seller fields identify the legal entity invoices are issued for and are
// copied into every exported tax document.
type Tenant struct {
	ID   id.ID  `db:"id" json:"id"`
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`

	SellerIdentifier string `db:"seller_identifier" json:"sellerIdentifier"`
	SellerName       string `db:"seller_name" json:"sellerName"`
	SellerAddress    string `db:"seller_address" json:"sellerAddress"`
	SellerPhone      string `db:"seller_phone" json:"sellerPhone"`

	// CarrierType is the government code of the carrier kind this tenant
	// issues (e.g. a mobile-barcode-like member carrier).
	CarrierType string `db:"carrier_type" json:"carrierType"`

	// TaxRate overrides the default 5% rate when set.
	TaxRate *types.Money `db:"tax_rate" json:"taxRate,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
