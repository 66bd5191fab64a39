package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/internal/app/repository"
	"github.com/ikkim/configurator-backend/internal/compositor"
	"github.com/ikkim/configurator-backend/internal/storage"
	"github.com/ikkim/configurator-backend/pkg/logger"
	"github.com/ikkim/configurator-backend/pkg/util"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrProductNotConfigured = errors.New("product has no configurable layers")
	ErrLayerNotFound        = errors.New("layer not found")
	ErrInvalidCatalog       = errors.New("invalid catalog data")
	ErrInvalidLayerOrder    = errors.New("layer order must list every layer of the product exactly once")
	ErrInvalidImage         = errors.New("invalid image")
)

// ProductConfiguration is everything a client needs to render the
// configurator for one product.
type ProductConfiguration struct {
	Product      *model.Product
	Layers       []model.Layer
	SizeFees     map[string]decimal.Decimal
	MinQuantity  int
	LeadTimeDays int
	BaseImageURL string
	// MaskURLs maps layer id to the public URL of its mask. The object may
	// not exist yet for freshly created layers.
	MaskURLs map[uint]string
}

type ProductInput struct {
	Name         string
	Description  string
	BasePrice    decimal.Decimal
	SizeFees     map[string]decimal.Decimal
	MinQuantity  *int
	LeadTimeDays *int
}

type LayerInput struct {
	Name     string
	Type     model.LayerType
	Position int
	Options  []model.Option
}

type CatalogService interface {
	GetConfiguration(productID uint) (*ProductConfiguration, error)
	ListProducts() ([]model.Product, error)
	CreateProduct(input ProductInput) (*model.Product, error)
	UpdateProduct(id uint, input ProductInput) (*model.Product, error)
	ReplaceLayers(productID uint, layers []LayerInput) ([]model.Layer, error)
	ReorderLayers(productID uint, layerIDs []uint) ([]model.Layer, error)
	UploadLayerMask(ctx context.Context, layerID uint, data []byte) (string, error)
	UploadBaseImage(ctx context.Context, productID uint, data []byte) (string, error)
}

type catalogService struct {
	productRepo repository.ProductRepository
	layerRepo   repository.LayerRepository
	assets      storage.Storage
	defaultMin  int
}

func NewCatalogService(
	productRepo repository.ProductRepository,
	layerRepo repository.LayerRepository,
	assets storage.Storage,
	defaultMinQuantity int,
) CatalogService {
	return &catalogService{
		productRepo: productRepo,
		layerRepo:   layerRepo,
		assets:      assets,
		defaultMin:  defaultMinQuantity,
	}
}

func (s *catalogService) loadProduct(productID uint) (*model.Product, error) {
	product, err := s.productRepo.FindWithLayers(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Product not found", map[string]interface{}{
				"product_id": productID,
			})
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return product, nil
}

func (s *catalogService) GetConfiguration(productID uint) (*ProductConfiguration, error) {
	logger.Debug("Fetching product configuration", map[string]interface{}{
		"product_id": productID,
	})

	product, err := s.loadProduct(productID)
	if err != nil {
		return nil, err
	}
	if len(product.Layers) == 0 {
		return nil, ErrProductNotConfigured
	}

	cfg := &ProductConfiguration{
		Product:      product,
		Layers:       product.OrderedLayers(),
		SizeFees:     product.SizeTable(),
		MinQuantity:  product.MinimumQuantity(s.defaultMin),
		LeadTimeDays: product.LeadTimeDays,
		MaskURLs:     make(map[uint]string, len(product.Layers)),
	}
	for _, layer := range cfg.Layers {
		if layer.Type != model.LayerTypeBase {
			cfg.MaskURLs[layer.ID] = s.assets.URL(layer.MaskKey())
		}
	}
	if product.BaseImageKey != "" {
		cfg.BaseImageURL = s.assets.URL(product.BaseImageKey)
	}
	return cfg, nil
}

func (s *catalogService) ListProducts() ([]model.Product, error) {
	return s.productRepo.FindAll()
}

func validateProductInput(input ProductInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return fmt.Errorf("%w: product name is required", ErrInvalidCatalog)
	}
	if input.BasePrice.IsNegative() {
		return fmt.Errorf("%w: base price cannot be negative", ErrInvalidCatalog)
	}
	for size, fee := range input.SizeFees {
		if strings.TrimSpace(size) == "" {
			return fmt.Errorf("%w: size name is required", ErrInvalidCatalog)
		}
		if fee.IsNegative() {
			return fmt.Errorf("%w: fee for size %s cannot be negative", ErrInvalidCatalog, size)
		}
	}
	if input.MinQuantity != nil && *input.MinQuantity < 1 {
		return fmt.Errorf("%w: minimum quantity must be at least 1", ErrInvalidCatalog)
	}
	if input.LeadTimeDays != nil && *input.LeadTimeDays < 0 {
		return fmt.Errorf("%w: lead time cannot be negative", ErrInvalidCatalog)
	}
	return nil
}

func applyProductInput(product *model.Product, input ProductInput) {
	product.Name = strings.TrimSpace(input.Name)
	product.Description = input.Description
	product.BasePrice = input.BasePrice
	product.SizeFees = datatypes.NewJSONType(input.SizeFees)
	if input.MinQuantity != nil {
		product.MinQuantity = *input.MinQuantity
	}
	if input.LeadTimeDays != nil {
		product.LeadTimeDays = *input.LeadTimeDays
	}
}

func (s *catalogService) CreateProduct(input ProductInput) (*model.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product := &model.Product{}
	applyProductInput(product, input)
	if err := s.productRepo.Create(product); err != nil {
		logger.Error("Failed to create product", err, map[string]interface{}{
			"name": product.Name,
		})
		return nil, err
	}

	logger.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
		"name":       product.Name,
	})
	return product, nil
}

func (s *catalogService) UpdateProduct(id uint, input ProductInput) (*model.Product, error) {
	if err := validateProductInput(input); err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	applyProductInput(product, input)
	if err := s.productRepo.Update(product); err != nil {
		logger.Error("Failed to update product", err, map[string]interface{}{
			"product_id": id,
		})
		return nil, err
	}

	logger.Info("Product updated", map[string]interface{}{
		"product_id": id,
	})
	return product, nil
}

// validateLayers checks a full layer set before it replaces the stored one.
func validateLayers(inputs []LayerInput) error {
	positions := make(map[int]string, len(inputs))
	for i, in := range inputs {
		name := strings.TrimSpace(in.Name)
		if name == "" {
			return fmt.Errorf("%w: layer %d has no name", ErrInvalidCatalog, i+1)
		}
		if !in.Type.Valid() {
			return fmt.Errorf("%w: layer %s has unknown type %q", ErrInvalidCatalog, name, in.Type)
		}
		if in.Position < 0 {
			return fmt.Errorf("%w: layer %s has a negative position", ErrInvalidCatalog, name)
		}
		if other, dup := positions[in.Position]; dup {
			return fmt.Errorf("%w: layers %s and %s share position %d", ErrInvalidCatalog, other, name, in.Position)
		}
		positions[in.Position] = name

		if in.Type == model.LayerTypeBase && len(in.Options) > 0 {
			return fmt.Errorf("%w: base layer %s cannot have options", ErrInvalidCatalog, name)
		}

		seen := make(map[string]bool, len(in.Options))
		for _, opt := range in.Options {
			if strings.TrimSpace(opt.Name) == "" {
				return fmt.Errorf("%w: option on %s has no name", ErrInvalidCatalog, name)
			}
			value, err := model.ParseOptionValue(opt.Value)
			if err != nil {
				return fmt.Errorf("%w: option %s on %s: %v", ErrInvalidCatalog, opt.Name, name, err)
			}
			if !in.Type.Accepts(value.Kind) {
				return fmt.Errorf("%w: option %s is a %s but %s is a %s layer", ErrInvalidCatalog, opt.Name, value.Kind, name, in.Type)
			}
			if opt.Fee != nil && opt.Fee.IsNegative() {
				return fmt.Errorf("%w: option %s on %s has a negative fee", ErrInvalidCatalog, opt.Name, name)
			}
			pair := opt.Name + "\x00" + opt.Value
			if seen[pair] {
				return fmt.Errorf("%w: option %s on %s is listed twice", ErrInvalidCatalog, opt.Name, name)
			}
			seen[pair] = true
		}
	}
	return nil
}

// ReplaceLayers swaps the product's whole layer set atomically. New layers
// get fresh ids, so masks must be uploaded again.
func (s *catalogService) ReplaceLayers(productID uint, inputs []LayerInput) ([]model.Layer, error) {
	if _, err := s.productRepo.FindByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if err := validateLayers(inputs); err != nil {
		logger.Warn("Rejected layer set", map[string]interface{}{
			"product_id": productID,
			"reason":     err.Error(),
		})
		return nil, err
	}

	layers := make([]model.Layer, len(inputs))
	for i, in := range inputs {
		options := in.Options
		if options == nil {
			options = []model.Option{}
		}
		layers[i] = model.Layer{
			Name:     strings.TrimSpace(in.Name),
			Type:     in.Type,
			Position: in.Position,
			Options:  datatypes.NewJSONType(options),
		}
	}

	saved, err := s.layerRepo.ReplaceForProduct(productID, layers)
	if err != nil {
		logger.Error("Failed to replace layers", err, map[string]interface{}{
			"product_id": productID,
		})
		return nil, err
	}
	if err := s.productRepo.Touch(productID); err != nil {
		return nil, err
	}

	model.SortLayers(saved)
	logger.Info("Product layers replaced", map[string]interface{}{
		"product_id":  productID,
		"layer_count": len(saved),
	})
	return saved, nil
}

// ReorderLayers assigns positions 0..n-1 following layerIDs, which must name
// every layer of the product exactly once.
func (s *catalogService) ReorderLayers(productID uint, layerIDs []uint) ([]model.Layer, error) {
	product, err := s.loadProduct(productID)
	if err != nil {
		return nil, err
	}
	if len(layerIDs) != len(product.Layers) {
		return nil, ErrInvalidLayerOrder
	}

	owned := make(map[uint]bool, len(product.Layers))
	for _, l := range product.Layers {
		owned[l.ID] = true
	}
	positions := make(map[uint]int, len(layerIDs))
	for i, id := range layerIDs {
		if !owned[id] {
			return nil, ErrInvalidLayerOrder
		}
		if _, dup := positions[id]; dup {
			return nil, ErrInvalidLayerOrder
		}
		positions[id] = i
	}

	if err := s.layerRepo.UpdatePositions(productID, positions); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidLayerOrder
		}
		return nil, err
	}
	if err := s.productRepo.Touch(productID); err != nil {
		return nil, err
	}

	logger.Info("Product layers reordered", map[string]interface{}{
		"product_id": productID,
		"order":      layerIDs,
	})
	return s.layerRepo.FindByProductID(productID)
}

// UploadLayerMask stores a PNG mask at the layer's fixed key.
func (s *catalogService) UploadLayerMask(ctx context.Context, layerID uint, data []byte) (string, error) {
	layer, err := s.layerRepo.FindByID(layerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrLayerNotFound
		}
		return "", err
	}

	_, format, err := compositor.Decode(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if format != "png" {
		return "", fmt.Errorf("%w: masks must be PNG, got %s", ErrInvalidImage, format)
	}

	key := layer.MaskKey()
	if err := s.assets.Put(ctx, key, data, "image/png"); err != nil {
		logger.Error("Failed to store layer mask", err, map[string]interface{}{
			"layer_id": layerID,
		})
		return "", err
	}
	if err := s.productRepo.Touch(layer.ProductID); err != nil {
		return "", err
	}

	logger.Info("Layer mask uploaded", map[string]interface{}{
		"product_id": layer.ProductID,
		"layer_id":   layerID,
		"size":       len(data),
	})
	return s.assets.URL(key), nil
}

var baseImageContentTypes = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
}

// UploadBaseImage stores the product photo under a fresh key so cached
// copies of the previous image never shadow the new one.
func (s *catalogService) UploadBaseImage(ctx context.Context, productID uint, data []byte) (string, error) {
	if _, err := s.productRepo.FindByID(productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrProductNotFound
		}
		return "", err
	}

	_, format, err := compositor.Decode(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	contentType, ok := baseImageContentTypes[format]
	if !ok {
		return "", fmt.Errorf("%w: unsupported format %s", ErrInvalidImage, format)
	}

	ext := format
	if ext == "jpeg" {
		ext = "jpg"
	}
	key := fmt.Sprintf("products/%d/base_%s.%s", productID, util.ShortID(8), ext)
	if err := s.assets.Put(ctx, key, data, contentType); err != nil {
		logger.Error("Failed to store base image", err, map[string]interface{}{
			"product_id": productID,
		})
		return "", err
	}
	if err := s.productRepo.UpdateBaseImage(productID, key); err != nil {
		return "", err
	}

	logger.Info("Product base image uploaded", map[string]interface{}{
		"product_id": productID,
		"key":        key,
	})
	return s.assets.URL(key), nil
}
