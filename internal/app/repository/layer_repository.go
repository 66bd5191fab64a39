package repository

import (
	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/pkg/logger"
	"gorm.io/gorm"
)

type LayerRepository interface {
	FindByID(id uint) (*model.Layer, error)
	FindByProductID(productID uint) ([]model.Layer, error)
	ReplaceForProduct(productID uint, layers []model.Layer) ([]model.Layer, error)
	UpdatePositions(productID uint, positions map[uint]int) error
}

type layerRepository struct {
	db *gorm.DB
}

func NewLayerRepository(db *gorm.DB) LayerRepository {
	return &layerRepository{db: db}
}

func (r *layerRepository) FindByID(id uint) (*model.Layer, error) {
	logger.Debug("Finding layer by ID in database", map[string]interface{}{
		"layer_id": id,
	})

	var layer model.Layer
	if err := r.db.First(&layer, id).Error; err != nil {
		logger.Error("Failed to find layer by ID in database", err, map[string]interface{}{
			"layer_id": id,
		})
		return nil, err
	}
	return &layer, nil
}

func (r *layerRepository) FindByProductID(productID uint) ([]model.Layer, error) {
	logger.Debug("Finding layers by product in database", map[string]interface{}{
		"product_id": productID,
	})

	var layers []model.Layer
	if err := r.db.Where("product_id = ?", productID).
		Order("position ASC, id ASC").
		Find(&layers).Error; err != nil {
		logger.Error("Failed to find layers by product in database", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}

	logger.Debug("Layers found by product in database", map[string]interface{}{
		"product_id": productID,
		"count":      len(layers),
	})
	return layers, nil
}

// ReplaceForProduct deletes every layer of the product and inserts the given
// set in one transaction. Layer ids are reassigned.
func (r *layerRepository) ReplaceForProduct(productID uint, layers []model.Layer) ([]model.Layer, error) {
	logger.Debug("Replacing product layers in database", map[string]interface{}{
		"product_id":  productID,
		"layer_count": len(layers),
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", productID).Delete(&model.Layer{}).Error; err != nil {
			return err
		}
		if len(layers) == 0 {
			return nil
		}
		for i := range layers {
			layers[i].ID = 0
			layers[i].ProductID = productID
		}
		return tx.Create(&layers).Error
	})
	if err != nil {
		logger.Error("Failed to replace product layers in database", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}

	logger.Debug("Product layers replaced in database", map[string]interface{}{
		"product_id":  productID,
		"layer_count": len(layers),
	})
	return layers, nil
}

// UpdatePositions rewrites layer positions of one product atomically.
func (r *layerRepository) UpdatePositions(productID uint, positions map[uint]int) error {
	logger.Debug("Updating layer positions in database", map[string]interface{}{
		"product_id": productID,
		"count":      len(positions),
	})

	err := r.db.Transaction(func(tx *gorm.DB) error {
		for layerID, position := range positions {
			result := tx.Model(&model.Layer{}).
				Where("id = ? AND product_id = ?", layerID, productID).
				Update("position", position)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return nil
	})
	if err != nil {
		logger.Error("Failed to update layer positions in database", err, map[string]interface{}{
			"product_id": productID,
		})
		return err
	}
	return nil
}
