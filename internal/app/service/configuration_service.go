package service

import (
	"errors"

	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/internal/app/repository"
	"github.com/ikkim/configurator-backend/pkg/logger"
	"gorm.io/gorm"
)

// ConfigurationQuote is a validated configuration with its estimated price.
// Quantity falls back to the product minimum when the client left it out.
type ConfigurationQuote struct {
	Product    *model.Product
	Selections model.Selection
	Size       string
	Quantity   int
	Pricing    model.PricingSnapshot
}

type ConfigurationService interface {
	Quote(productID uint, cfg model.Configuration) (*ConfigurationQuote, error)
}

type configurationService struct {
	productRepo repository.ProductRepository
	validator   *ConfigurationValidator
	pricing     *PricingCalculator
}

func NewConfigurationService(
	productRepo repository.ProductRepository,
	validator *ConfigurationValidator,
	pricing *PricingCalculator,
) ConfigurationService {
	return &configurationService{
		productRepo: productRepo,
		validator:   validator,
		pricing:     pricing,
	}
}

func (s *configurationService) Quote(productID uint, cfg model.Configuration) (*ConfigurationQuote, error) {
	product, err := s.productRepo.FindWithLayers(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if len(product.Layers) == 0 {
		return nil, ErrProductNotConfigured
	}

	confirmed, err := s.validator.Validate(product, cfg, ValidateSelections)
	if err != nil {
		return nil, err
	}

	quantity := s.validator.MinimumQuantity(product)
	if cfg.Quantity != nil {
		quantity = *cfg.Quantity
	}

	frozen := FreezeSelections(confirmed)
	snapshot, err := s.pricing.Compute(s.pricing.InputFor(product, frozen, cfg.Size, quantity, nil))
	if err != nil {
		return nil, err
	}

	logger.Debug("Configuration quoted", map[string]interface{}{
		"product_id":  productID,
		"quantity":    quantity,
		"grand_total": snapshot.GrandTotal.StringFixed(2),
	})

	return &ConfigurationQuote{
		Product:    product,
		Selections: frozen,
		Size:       cfg.Size,
		Quantity:   quantity,
		Pricing:    snapshot,
	}, nil
}
