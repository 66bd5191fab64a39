package db

import (
	"errors"

	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const SampleProductName = "Jersey"

var ErrSampleExists = errors.New("sample product already exists")

// SeedSampleProduct inserts the "Jersey" demo product with a base layer,
// a Lycra color layer (Red, Blue) and a Trim color layer (White).
// Returns ErrSampleExists when a product with that name is already present.
func SeedSampleProduct(db *gorm.DB) (*model.Product, error) {
	var count int64
	if err := db.Model(&model.Product{}).Where("name = ?", SampleProductName).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSampleExists
	}

	product := &model.Product{
		Name:         SampleProductName,
		Description:  "Custom sublimated jersey",
		BaseImageKey: "products/jersey/base.png",
		BasePrice:    decimal.RequireFromString("20.00"),
		MinQuantity:  4,
		LeadTimeDays: model.DefaultLeadTimeDays,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(product).Error; err != nil {
			return err
		}

		layers := []model.Layer{
			{
				ProductID: product.ID,
				Name:      "Base",
				Type:      model.LayerTypeBase,
				Position:  0,
				Options:   datatypes.NewJSONType([]model.Option{}),
			},
			{
				ProductID: product.ID,
				Name:      "Lycra",
				Type:      model.LayerTypeColor,
				Position:  1,
				Options: datatypes.NewJSONType([]model.Option{
					{Name: "Red", Value: "#ff0000"},
					{Name: "Blue", Value: "#0000ff"},
				}),
			},
			{
				ProductID: product.ID,
				Name:      "Trim",
				Type:      model.LayerTypeColor,
				Position:  2,
				Options: datatypes.NewJSONType([]model.Option{
					{Name: "White", Value: "#ffffff"},
				}),
			},
		}
		if err := tx.Create(&layers).Error; err != nil {
			return err
		}
		product.Layers = layers
		return nil
	})
	if err != nil {
		logger.Error("Failed to seed sample product", err)
		return nil, err
	}

	logger.Info("Sample product seeded", map[string]interface{}{
		"product_id": product.ID,
		"layers":     len(product.Layers),
	})
	return product, nil
}
