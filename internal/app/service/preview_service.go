package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/internal/app/repository"
	"github.com/ikkim/configurator-backend/internal/compositor"
	"github.com/ikkim/configurator-backend/internal/storage"
	"github.com/ikkim/configurator-backend/pkg/logger"
	"github.com/ikkim/configurator-backend/pkg/redis"
	"github.com/ikkim/configurator-backend/pkg/util"
	"gorm.io/gorm"
)

// ErrPreviewUnavailable hides asset and rendering failures from clients.
var ErrPreviewUnavailable = errors.New("preview unavailable")

// PreviewPrefix is the storage prefix swept by the preview cleanup job.
const PreviewPrefix = "previews/"

// PreviewCache remembers the URL of an already rendered configuration.
type PreviewCache interface {
	Get(ctx context.Context, fingerprint string) (string, bool, error)
	Set(ctx context.Context, fingerprint, url string) error
}

// PatternFetcher loads the image behind a pattern option value.
type PatternFetcher interface {
	Fetch(ctx context.Context, ref string) ([]byte, error)
}

type PreviewResult struct {
	URL    string
	Cached bool
}

type PreviewService interface {
	GeneratePreview(ctx context.Context, productID uint, cfg model.Configuration) (*PreviewResult, error)
	RenderRFQPreview(ctx context.Context, rfq *model.RFQ) (string, error)
}

type previewService struct {
	productRepo repository.ProductRepository
	validator   *ConfigurationValidator
	assets      storage.Storage
	patterns    PatternFetcher
	cache       PreviewCache
	now         func() time.Time
}

// NewPreviewService wires the preview pipeline. cache may be nil.
func NewPreviewService(
	productRepo repository.ProductRepository,
	validator *ConfigurationValidator,
	assets storage.Storage,
	patterns PatternFetcher,
	cache PreviewCache,
) PreviewService {
	return &previewService{
		productRepo: productRepo,
		validator:   validator,
		assets:      assets,
		patterns:    patterns,
		cache:       cache,
		now:         time.Now,
	}
}

func (s *previewService) GeneratePreview(ctx context.Context, productID uint, cfg model.Configuration) (*PreviewResult, error) {
	product, err := s.productRepo.FindWithLayers(productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	confirmed, err := s.validator.Validate(product, cfg, ValidateSelections)
	if err != nil {
		return nil, err
	}

	fingerprint := redis.Fingerprint(product.ID, product.UpdatedAt.UnixNano(), fingerprintSelections(confirmed))
	if s.cache != nil {
		if url, ok, err := s.cache.Get(ctx, fingerprint); err == nil && ok {
			logger.Debug("Preview served from cache", map[string]interface{}{
				"product_id": productID,
			})
			return &PreviewResult{URL: url, Cached: true}, nil
		}
	}

	png, err := s.render(ctx, product, confirmed)
	if err != nil {
		return nil, err
	}

	now := s.now()
	key := fmt.Sprintf("%s%d/preview_%d_%d_%s.png", PreviewPrefix, product.ID, product.ID, now.Unix(), util.ShortID(8))
	url, err := s.store(ctx, key, png)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		// a cache write failure only costs a re-render next time
		_ = s.cache.Set(ctx, fingerprint, url)
	}

	logger.Info("Preview generated", map[string]interface{}{
		"product_id": productID,
		"key":        key,
		"bytes":      len(png),
	})
	return &PreviewResult{URL: url}, nil
}

// RenderRFQPreview renders the frozen selection of rfq and stores it outside
// the swept preview prefix. The RFQ itself is not modified. Selections are
// not checked against the current catalog; the live layers only supply
// position and mask.
func (s *previewService) RenderRFQPreview(ctx context.Context, rfq *model.RFQ) (string, error) {
	product, err := s.productRepo.FindWithLayers(rfq.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrProductNotFound
		}
		return "", err
	}

	png, err := s.render(ctx, product, frozenSelections(product, rfq))
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("rfq-previews/%d/preview_%d_%d.png", rfq.ID, rfq.ID, s.now().Unix())
	url, err := s.store(ctx, key, png)
	if err != nil {
		return "", err
	}

	logger.Info("RFQ preview generated", map[string]interface{}{
		"rfq_id": rfq.ID,
		"key":    key,
	})
	return url, nil
}

// frozenSelections pairs each stored selection with its live layer. Layers
// that no longer exist and values that no longer parse are dropped, the same
// as a layer without a mask.
func frozenSelections(product *model.Product, rfq *model.RFQ) []model.ConfirmedSelection {
	layers := make(map[uint]model.Layer, len(product.Layers))
	for _, l := range product.Layers {
		layers[l.ID] = l
	}

	stored := rfq.Selections.Data()
	confirmed := make([]model.ConfirmedSelection, 0, len(stored))
	for layerID, sel := range stored {
		layer, ok := layers[layerID]
		if !ok {
			logger.Debug("RFQ layer no longer exists, skipping", map[string]interface{}{
				"rfq_id":   rfq.ID,
				"layer_id": layerID,
			})
			continue
		}
		value, err := model.ParseOptionValue(sel.Value)
		if err != nil {
			logger.Warn("RFQ option value is not usable, skipping", map[string]interface{}{
				"rfq_id":   rfq.ID,
				"layer_id": layerID,
				"error":    err.Error(),
			})
			continue
		}
		confirmed = append(confirmed, model.ConfirmedSelection{
			Layer:  layer,
			Option: model.Option{Name: sel.Name, Value: sel.Value, Fee: sel.Fee},
			Value:  value,
		})
	}
	return confirmed
}

func (s *previewService) store(ctx context.Context, key string, png []byte) (string, error) {
	if err := s.assets.Put(ctx, key, png, "image/png"); err != nil {
		logger.Error("Failed to store preview", err, map[string]interface{}{
			"key": key,
		})
		return "", ErrPreviewUnavailable
	}
	return s.assets.URL(key), nil
}

// render loads every asset and composites them. Only a missing or broken
// base image fails the call; unusable masks and patterns drop their layer.
func (s *previewService) render(ctx context.Context, product *model.Product, confirmed []model.ConfirmedSelection) ([]byte, error) {
	if product.BaseImageKey == "" {
		logger.Warn("Preview requested for product without base image", map[string]interface{}{
			"product_id": product.ID,
		})
		return nil, ErrPreviewUnavailable
	}

	base, err := s.assets.Get(ctx, product.BaseImageKey)
	if err != nil {
		logger.Error("Failed to load base image", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return nil, ErrPreviewUnavailable
	}

	layers := make([]compositor.Layer, 0, len(confirmed))
	for _, sel := range confirmed {
		if layer, ok := s.loadLayer(ctx, sel); ok {
			layers = append(layers, layer)
		}
	}

	png, err := compositor.RenderBytes(base, layers)
	if err != nil {
		logger.Error("Failed to composite preview", err, map[string]interface{}{
			"product_id": product.ID,
		})
		return nil, ErrPreviewUnavailable
	}
	return png, nil
}

func (s *previewService) loadLayer(ctx context.Context, sel model.ConfirmedSelection) (compositor.Layer, bool) {
	fields := map[string]interface{}{
		"product_id": sel.Layer.ProductID,
		"layer_id":   sel.Layer.ID,
	}

	maskData, err := s.assets.Get(ctx, sel.Layer.MaskKey())
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			logger.Debug("Layer has no mask, skipping", fields)
		} else {
			logger.Warn("Failed to load layer mask, skipping", mergeFields(fields, "error", err.Error()))
		}
		return compositor.Layer{}, false
	}
	mask, _, err := compositor.Decode(maskData)
	if err != nil {
		logger.Warn("Layer mask is not a usable image, skipping", mergeFields(fields, "error", err.Error()))
		return compositor.Layer{}, false
	}

	layer := compositor.Layer{
		Name:     sel.Layer.Name,
		Position: sel.Layer.Position,
		Mask:     mask,
	}

	switch sel.Value.Kind {
	case model.OptionValueColor:
		fill := sel.Value.Color
		layer.Fill = &fill
	case model.OptionValuePattern:
		if s.patterns == nil {
			return compositor.Layer{}, false
		}
		data, err := s.patterns.Fetch(ctx, sel.Value.PatternRef)
		if err != nil {
			logger.Warn("Failed to fetch pattern, skipping layer", mergeFields(fields, "error", err.Error()))
			return compositor.Layer{}, false
		}
		pattern, _, err := compositor.Decode(data)
		if err != nil {
			logger.Warn("Pattern is not a usable image, skipping layer", mergeFields(fields, "error", err.Error()))
			return compositor.Layer{}, false
		}
		layer.Pattern = pattern
	}
	return layer, true
}

func mergeFields(fields map[string]interface{}, key string, value interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out[key] = value
	return out
}

func fingerprintSelections(confirmed []model.ConfirmedSelection) map[uint][2]string {
	out := make(map[uint][2]string, len(confirmed))
	for _, c := range confirmed {
		out[c.Layer.ID] = [2]string{c.Option.Name, c.Option.Value}
	}
	return out
}

// AssetPatternFetcher resolves absolute URLs over HTTP and anything else as a
// key in the asset store. Keys that escape the store root are refused.
type AssetPatternFetcher struct {
	client   *http.Client
	assets   storage.Storage
	maxBytes int64
}

func NewAssetPatternFetcher(assets storage.Storage, timeout time.Duration, maxBytes int64) *AssetPatternFetcher {
	return &AssetPatternFetcher{
		client:   &http.Client{Timeout: timeout},
		assets:   assets,
		maxBytes: maxBytes,
	}
}

func (f *AssetPatternFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if util.IsRemoteURL(ref) {
		return util.FetchURL(ctx, f.client, ref, f.maxBytes)
	}
	key, err := storage.CleanKey(ref)
	if err != nil {
		return nil, err
	}
	data, err := f.assets.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := storage.ValidateFileSize(int64(len(data)), f.maxBytes); err != nil {
		return nil, err
	}
	return data, nil
}
