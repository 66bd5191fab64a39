package service

import (
	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

func intPtr(v int) *int {
	return &v
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// jerseyProduct is the sample catalog with fixed layer ids 1..3.
func jerseyProduct() *model.Product {
	return &model.Product{
		ID:          7,
		Name:        "Jersey",
		BasePrice:   money("20.00"),
		MinQuantity: 4,
		Layers: []model.Layer{
			{ID: 3, ProductID: 7, Name: "Trim", Type: model.LayerTypeColor, Position: 2,
				Options: datatypes.NewJSONType([]model.Option{{Name: "White", Value: "#ffffff"}})},
			{ID: 1, ProductID: 7, Name: "Base", Type: model.LayerTypeBase, Position: 0},
			{ID: 2, ProductID: 7, Name: "Lycra", Type: model.LayerTypeColor, Position: 1,
				Options: datatypes.NewJSONType([]model.Option{
					{Name: "Red", Value: "#ff0000"},
					{Name: "Blue", Value: "#0000ff"},
				})},
		},
	}
}

func jerseyConfiguration(quantity int) model.Configuration {
	return model.Configuration{
		Layers: model.Selection{
			2: {Name: "Red", Value: "#ff0000"},
			3: {Name: "White", Value: "#ffffff"},
		},
		Size:     "M",
		Quantity: intPtr(quantity),
	}
}
