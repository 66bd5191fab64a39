package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type LayerType string

const (
	LayerTypeColor    LayerType = "color"
	LayerTypePattern  LayerType = "pattern"
	LayerTypeBase     LayerType = "base"
	LayerTypeOptional LayerType = "optional"
)

// Valid reports whether t is one of the known layer types.
func (t LayerType) Valid() bool {
	switch t {
	case LayerTypeColor, LayerTypePattern, LayerTypeBase, LayerTypeOptional:
		return true
	}
	return false
}

// RequiresSelection reports whether a configuration must pick an option
// for layers of this type.
func (t LayerType) RequiresSelection() bool {
	return t == LayerTypeColor || t == LayerTypePattern
}

// Accepts reports whether an option value of kind k is allowed on this layer.
// Optional layers take either kind; base layers take none.
func (t LayerType) Accepts(k OptionValueKind) bool {
	switch t {
	case LayerTypeColor:
		return k == OptionValueColor
	case LayerTypePattern:
		return k == OptionValuePattern
	case LayerTypeOptional:
		return true
	}
	return false
}

// Option is one selectable choice on a layer. Fee is added to the unit
// price when the option is chosen.
type Option struct {
	Name  string           `json:"name"`
	Value string           `json:"value"`
	Fee   *decimal.Decimal `json:"fee,omitempty"`
}

// FeeOrZero returns the option fee, or zero when none is set.
func (o Option) FeeOrZero() decimal.Decimal {
	if o.Fee == nil {
		return decimal.Zero
	}
	return *o.Fee
}

type Layer struct {
	ID        uint                         `gorm:"primarykey" json:"id"`
	ProductID uint                         `gorm:"not null;index" json:"product_id"`
	Name      string                       `gorm:"not null" json:"name"`
	Type      LayerType                    `gorm:"type:varchar(20);not null" json:"type"`
	Position  int                          `gorm:"not null;default:0" json:"position"`
	Options   datatypes.JSONType[[]Option] `json:"options"`
	CreatedAt time.Time                    `json:"created_at"`
	UpdatedAt time.Time                    `json:"updated_at"`
}

func (Layer) TableName() string {
	return "layers"
}

// FindOption returns the option whose name and value both match exactly.
func (l *Layer) FindOption(name, value string) (Option, bool) {
	for _, opt := range l.Options.Data() {
		if opt.Name == name && opt.Value == value {
			return opt, true
		}
	}
	return Option{}, false
}

// MaskKey is the storage key of the layer's alpha mask.
func (l *Layer) MaskKey() string {
	return MaskKeyFor(l.ProductID, l.ID)
}

func MaskKeyFor(productID, layerID uint) string {
	return fmt.Sprintf("product-layers/%d/mask_%d.png", productID, layerID)
}
