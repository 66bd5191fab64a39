package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CustomerInfo struct {
	Name    string `gorm:"type:varchar(200);not null" json:"name"`
	Email   string `gorm:"type:varchar(320);not null;index" json:"email"`
	Phone   string `gorm:"type:varchar(50)" json:"phone"`
	Message string `gorm:"type:text" json:"message"`
}

type AdditionalCost struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
}

// PricingSnapshot is the price breakdown stored on an RFQ. Values keep
// full precision; rounding to cents happens at presentation.
type PricingSnapshot struct {
	BasePrice            decimal.Decimal                      `gorm:"type:numeric;not null;default:0" json:"base_price"`
	SizeFee              decimal.Decimal                      `gorm:"type:numeric;not null;default:0" json:"size_fee"`
	OptionFees           decimal.Decimal                      `gorm:"type:numeric;not null;default:0" json:"option_fees"`
	UnitPrice            decimal.Decimal                      `gorm:"type:numeric;not null;default:0" json:"unit_price"`
	LineTotal            decimal.Decimal                      `gorm:"type:numeric;not null;default:0" json:"line_total"`
	AdditionalCosts      datatypes.JSONType[[]AdditionalCost] `json:"additional_costs"`
	AdditionalCostsTotal decimal.Decimal                      `gorm:"type:numeric;not null;default:0" json:"additional_costs_total"`
	GrandTotal           decimal.Decimal                      `gorm:"type:numeric;not null;default:0" json:"grand_total"`
}

type RFQ struct {
	ID          uint                          `gorm:"primarykey" json:"id"`
	ProductID   uint                          `gorm:"not null;index" json:"product_id"`
	ProductName string                        `gorm:"not null" json:"product_name"` // snapshot at submission
	Selections  datatypes.JSONType[Selection] `json:"selections"`
	Size        string                        `gorm:"type:varchar(20);not null" json:"size"`
	Quantity    int                           `gorm:"not null" json:"quantity"`
	Customer    CustomerInfo                  `gorm:"embedded;embeddedPrefix:customer_" json:"customer_info"`
	Status      RFQStatus                     `gorm:"type:varchar(20);not null;default:'new';index" json:"status"`
	Pricing     PricingSnapshot               `gorm:"embedded;embeddedPrefix:pricing_" json:"pricing"`
	AccessToken string                        `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	Version     int                           `gorm:"not null;default:1" json:"version"`
	PreviewURL  string                        `json:"preview_url,omitempty"`
	CreatedAt   time.Time                     `json:"created_at"`
	UpdatedAt   time.Time                     `json:"updated_at"`
	DeletedAt   gorm.DeletedAt                `gorm:"index" json:"-"`
}

func (RFQ) TableName() string {
	return "rfqs"
}
