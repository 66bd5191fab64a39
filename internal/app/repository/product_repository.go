package repository

import (
	"time"

	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/pkg/logger"
	"gorm.io/gorm"
)

type ProductRepository interface {
	Create(product *model.Product) error
	FindAll() ([]model.Product, error)
	FindByID(id uint) (*model.Product, error)
	FindWithLayers(id uint) (*model.Product, error)
	Update(product *model.Product) error
	UpdateBaseImage(id uint, key string) error
	Touch(id uint) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(product *model.Product) error {
	logger.Debug("Creating product in database", map[string]interface{}{
		"name":       product.Name,
		"base_price": product.BasePrice.String(),
	})

	if err := r.db.Create(product).Error; err != nil {
		logger.Error("Failed to create product in database", err, map[string]interface{}{
			"name": product.Name,
		})
		return err
	}

	logger.Debug("Product created in database", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return nil
}

func (r *productRepository) FindAll() ([]model.Product, error) {
	logger.Debug("Finding all products in database")

	var products []model.Product
	if err := r.db.Order("id ASC").Find(&products).Error; err != nil {
		logger.Error("Failed to find products in database", err)
		return nil, err
	}

	logger.Debug("Products found in database", map[string]interface{}{
		"count": len(products),
	})
	return products, nil
}

func (r *productRepository) FindByID(id uint) (*model.Product, error) {
	logger.Debug("Finding product by ID in database", map[string]interface{}{
		"product_id": id,
	})

	var product model.Product
	if err := r.db.First(&product, id).Error; err != nil {
		logger.Error("Failed to find product by ID in database", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	return &product, nil
}

// FindWithLayers loads the product and its layers in compositing order.
func (r *productRepository) FindWithLayers(id uint) (*model.Product, error) {
	logger.Debug("Finding product with layers in database", map[string]interface{}{
		"product_id": id,
	})

	var product model.Product
	err := r.db.Preload("Layers", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC, id ASC")
	}).First(&product, id).Error
	if err != nil {
		logger.Error("Failed to find product with layers in database", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	logger.Debug("Product with layers found in database", map[string]interface{}{
		"product_id":  product.ID,
		"layer_count": len(product.Layers),
	})
	return &product, nil
}

func (r *productRepository) Update(product *model.Product) error {
	logger.Debug("Updating product in database", map[string]interface{}{
		"product_id": product.ID,
	})

	// Omit associations so layer rows are only touched by LayerRepository.
	if err := r.db.Omit("Layers").Save(product).Error; err != nil {
		logger.Error("Failed to update product in database", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return err
	}

	logger.Debug("Product updated in database", map[string]interface{}{
		"product_id": product.ID,
	})
	return nil
}

func (r *productRepository) UpdateBaseImage(id uint, key string) error {
	logger.Debug("Updating product base image in database", map[string]interface{}{
		"product_id": id,
		"key":        key,
	})

	result := r.db.Model(&model.Product{}).Where("id = ?", id).Update("base_image_key", key)
	if result.Error != nil {
		logger.Error("Failed to update product base image in database", result.Error, map[string]interface{}{
			"product_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Touch bumps updated_at so cached previews of the product are invalidated.
func (r *productRepository) Touch(id uint) error {
	result := r.db.Model(&model.Product{}).Where("id = ?", id).Update("updated_at", time.Now())
	if result.Error != nil {
		logger.Error("Failed to touch product in database", result.Error, map[string]interface{}{
			"product_id": id,
		})
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
