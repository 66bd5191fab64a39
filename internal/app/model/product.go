package model

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	DefaultMinQuantity  = 4
	DefaultLeadTimeDays = 10
)

// DefaultSizeFees is used when a product has no size table of its own.
var DefaultSizeFees = map[string]decimal.Decimal{
	"S":   decimal.Zero,
	"M":   decimal.Zero,
	"L":   decimal.Zero,
	"XL":  decimal.Zero,
	"2XL": decimal.NewFromInt(25),
	"3XL": decimal.NewFromInt(25),
	"4XL": decimal.NewFromInt(25),
}

type Product struct {
	ID           uint                                           `gorm:"primarykey" json:"id"`
	Name         string                                         `gorm:"not null" json:"name"`
	Description  string                                         `gorm:"type:text" json:"description"`
	BaseImageKey string                                         `json:"base_image_key"`
	BasePrice    decimal.Decimal                                `gorm:"type:numeric(12,2);not null;default:0" json:"base_price"`
	SizeFees     datatypes.JSONType[map[string]decimal.Decimal] `json:"size_fees"`
	MinQuantity  int                                            `gorm:"not null;default:4" json:"min_quantity"`
	LeadTimeDays int                                            `gorm:"not null;default:10" json:"lead_time_days"`
	CreatedAt    time.Time                                      `json:"created_at"`
	UpdatedAt    time.Time                                      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt                                 `gorm:"index" json:"-"`

	// Relationships
	Layers []Layer `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"layers,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// SizeTable returns the product's size fees, falling back to DefaultSizeFees.
func (p *Product) SizeTable() map[string]decimal.Decimal {
	if fees := p.SizeFees.Data(); len(fees) > 0 {
		return fees
	}
	return DefaultSizeFees
}

// MinimumQuantity returns the configured minimum or fallback when unset.
func (p *Product) MinimumQuantity(fallback int) int {
	if p.MinQuantity > 0 {
		return p.MinQuantity
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultMinQuantity
}

// OrderedLayers returns the layers sorted by position, ties broken by id.
func (p *Product) OrderedLayers() []Layer {
	layers := make([]Layer, len(p.Layers))
	copy(layers, p.Layers)
	SortLayers(layers)
	return layers
}

// SortLayers orders layers for compositing and display.
func SortLayers(layers []Layer) {
	sort.SliceStable(layers, func(i, j int) bool {
		if layers[i].Position != layers[j].Position {
			return layers[i].Position < layers[j].Position
		}
		return layers[i].ID < layers[j].ID
	})
}
