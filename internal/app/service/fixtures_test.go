package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/internal/app/repository"
	"github.com/ikkim/configurator-backend/internal/db"
	"github.com/ikkim/configurator-backend/internal/notification"
	"github.com/ikkim/configurator-backend/internal/storage"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	farFuture = time.Now().Add(24 * time.Hour)
	testGray  = color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	testRed   = color.NRGBA{R: 255, A: 255}
	testWhite = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
	err    error
}

func (n *recordingNotifier) Notify(ctx context.Context, event notification.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return n.err
}

func (n *recordingNotifier) Events() []notification.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.Event(nil), n.events...)
}

type memoryPreviewCache struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemoryPreviewCache() *memoryPreviewCache {
	return &memoryPreviewCache{entries: make(map[string]string)}
}

func (c *memoryPreviewCache) Get(ctx context.Context, fingerprint string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	url, ok := c.entries[fingerprint]
	return url, ok, nil
}

func (c *memoryPreviewCache) Set(ctx context.Context, fingerprint, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = url
	return nil
}

type mapPatternFetcher map[string][]byte

func (f mapPatternFetcher) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if data, ok := f[ref]; ok {
		return data, nil
	}
	return nil, errors.New("unreachable")
}

// fillRect paints r on a transparent w x h image.
func fillRect(w, h int, r image.Rectangle, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func decodePNG(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func pixelAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

type serviceFixture struct {
	db          *gorm.DB
	productRepo repository.ProductRepository
	layerRepo   repository.LayerRepository
	rfqRepo     repository.RFQRepository
	assets      *storage.MemoryStorage
	validator   *ConfigurationValidator
	pricing     *PricingCalculator
	notifier    *recordingNotifier
	product     *model.Product
	lycraID     uint
	trimID      uint
}

// setupServiceFixture seeds the Jersey product with a 4x4 gray base image.
// The Lycra mask covers the left half and the Trim mask the top right
// quarter.
func setupServiceFixture(t *testing.T) *serviceFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	product, err := db.SeedSampleProduct(testDB)
	require.NoError(t, err)

	f := &serviceFixture{
		db:          testDB,
		productRepo: repository.NewProductRepository(testDB),
		layerRepo:   repository.NewLayerRepository(testDB),
		rfqRepo:     repository.NewRFQRepository(testDB),
		assets:      storage.NewMemoryStorage("https://cdn.example.com"),
		validator:   NewConfigurationValidator(model.DefaultMinQuantity),
		pricing:     NewPricingCalculator(),
		notifier:    &recordingNotifier{},
		product:     product,
	}
	for _, l := range product.Layers {
		switch l.Name {
		case "Lycra":
			f.lycraID = l.ID
		case "Trim":
			f.trimID = l.ID
		}
	}

	ctx := context.Background()
	opaque := color.NRGBA{A: 255}
	require.NoError(t, f.assets.Put(ctx, product.BaseImageKey,
		pngBytes(t, fillRect(4, 4, image.Rect(0, 0, 4, 4), testGray)), "image/png"))
	require.NoError(t, f.assets.Put(ctx, model.MaskKeyFor(product.ID, f.lycraID),
		pngBytes(t, fillRect(4, 4, image.Rect(0, 0, 2, 4), opaque)), "image/png"))
	require.NoError(t, f.assets.Put(ctx, model.MaskKeyFor(product.ID, f.trimID),
		pngBytes(t, fillRect(4, 4, image.Rect(2, 0, 4, 2), opaque)), "image/png"))

	return f
}

// configuration is the Red Lycra / White Trim pick from the sample scenario.
func (f *serviceFixture) configuration(quantity int) model.Configuration {
	return model.Configuration{
		Layers: model.Selection{
			f.lycraID: {Name: "Red", Value: "#ff0000"},
			f.trimID:  {Name: "White", Value: "#ffffff"},
		},
		Size:     "M",
		Quantity: intPtr(quantity),
	}
}

func (f *serviceFixture) rfqService(strict bool) RFQService {
	return NewRFQService(f.rfqRepo, f.productRepo, f.validator, f.pricing, f.previewService(nil, nil), f.notifier, strict)
}

func (f *serviceFixture) previewService(patterns PatternFetcher, cache PreviewCache) PreviewService {
	return NewPreviewService(f.productRepo, f.validator, f.assets, patterns, cache)
}

func (f *serviceFixture) catalogService() CatalogService {
	return NewCatalogService(f.productRepo, f.layerRepo, f.assets, model.DefaultMinQuantity)
}

func customer() model.CustomerInfo {
	return model.CustomerInfo{Name: "Ada Lovelace", Email: "ada@example.com", Phone: "555-0100"}
}

func rfqFilterAll() repository.RFQFilter {
	return repository.RFQFilter{}
}
