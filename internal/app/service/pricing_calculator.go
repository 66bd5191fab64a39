package service

import (
	"errors"
	"fmt"

	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

var ErrInvalidPricing = errors.New("invalid pricing input")

// PricingInput carries everything a price depends on. SizeFee is already
// resolved from the product's size table.
type PricingInput struct {
	BasePrice       decimal.Decimal
	SizeFee         decimal.Decimal
	Selections      model.Selection
	Quantity        int
	AdditionalCosts []model.AdditionalCost
}

// PricingCalculator turns a configuration into a price breakdown. Money is
// accumulated at full precision.
type PricingCalculator struct{}

func NewPricingCalculator() *PricingCalculator {
	return &PricingCalculator{}
}

// InputFor builds a PricingInput from the live product catalog.
func (c *PricingCalculator) InputFor(product *model.Product, selections model.Selection, size string, quantity int, costs []model.AdditionalCost) PricingInput {
	return PricingInput{
		BasePrice:       product.BasePrice,
		SizeFee:         SizeFeeFor(product, size),
		Selections:      selections,
		Quantity:        quantity,
		AdditionalCosts: costs,
	}
}

// Compute returns the pricing snapshot for in.
func (c *PricingCalculator) Compute(in PricingInput) (model.PricingSnapshot, error) {
	if in.Quantity < 0 {
		return model.PricingSnapshot{}, fmt.Errorf("%w: quantity %d", ErrInvalidPricing, in.Quantity)
	}
	if in.BasePrice.IsNegative() || in.SizeFee.IsNegative() {
		return model.PricingSnapshot{}, fmt.Errorf("%w: negative price", ErrInvalidPricing)
	}

	optionFees := decimal.Zero
	for _, sel := range in.Selections {
		if sel.Fee == nil {
			continue
		}
		if sel.Fee.IsNegative() {
			return model.PricingSnapshot{}, fmt.Errorf("%w: negative option fee", ErrInvalidPricing)
		}
		optionFees = optionFees.Add(*sel.Fee)
	}

	additional := decimal.Zero
	costs := make([]model.AdditionalCost, 0, len(in.AdditionalCosts))
	for _, cost := range in.AdditionalCosts {
		if cost.Amount.IsNegative() {
			return model.PricingSnapshot{}, fmt.Errorf("%w: negative amount for %q", ErrInvalidPricing, cost.Description)
		}
		additional = additional.Add(cost.Amount)
		costs = append(costs, cost)
	}

	unit := in.BasePrice.Add(in.SizeFee).Add(optionFees)
	line := unit.Mul(decimal.NewFromInt(int64(in.Quantity)))

	return model.PricingSnapshot{
		BasePrice:            in.BasePrice,
		SizeFee:              in.SizeFee,
		OptionFees:           optionFees,
		UnitPrice:            unit,
		LineTotal:            line,
		AdditionalCosts:      datatypes.NewJSONType(costs),
		AdditionalCostsTotal: additional,
		GrandTotal:           line.Add(additional),
	}, nil
}

// SizeFeeFor looks size up in the product's size table; unknown or empty
// sizes cost nothing.
func SizeFeeFor(product *model.Product, size string) decimal.Decimal {
	if size == "" {
		return decimal.Zero
	}
	if fee, ok := product.SizeTable()[size]; ok {
		return fee
	}
	return decimal.Zero
}
