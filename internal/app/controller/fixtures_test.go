package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/internal/app/repository"
	"github.com/ikkim/configurator-backend/internal/app/service"
	"github.com/ikkim/configurator-backend/internal/db"
	"github.com/ikkim/configurator-backend/internal/middleware"
	"github.com/ikkim/configurator-backend/internal/notification"
	"github.com/ikkim/configurator-backend/internal/storage"
	ws "github.com/ikkim/configurator-backend/internal/websocket"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testJWTSecret = "test-jwt-secret-for-controllers"

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (n *recordingNotifier) Notify(ctx context.Context, event notification.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
	return nil
}

func (n *recordingNotifier) Events() []notification.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification.Event(nil), n.events...)
}

type fakePresigner struct{}

func (fakePresigner) PresignUpload(ctx context.Context, key, contentType string) (*storage.PresignedURLResponse, error) {
	return &storage.PresignedURLResponse{
		UploadURL: "https://bucket.example.com/" + key + "?signature=abc",
		FileURL:   "https://cdn.example.com/" + key,
		Key:       key,
	}, nil
}

type controllerFixture struct {
	db         *gorm.DB
	engine     *gin.Engine
	assets     *storage.MemoryStorage
	notifier   *recordingNotifier
	hub        *ws.Hub
	product    *model.Product
	lycraID    uint
	trimID     uint
	staffToken string
	adminToken string
}

func solidPNG(t *testing.T, w, h int, r image.Rectangle, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// setupControllerTest wires the real services over an in-memory database
// and asset store, seeded with the Jersey product and its images.
func setupControllerTest(t *testing.T, presigner Presigner) *controllerFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	product, err := db.SeedSampleProduct(testDB)
	require.NoError(t, err)

	f := &controllerFixture{
		db:       testDB,
		assets:   storage.NewMemoryStorage("https://cdn.example.com"),
		notifier: &recordingNotifier{},
		hub:      ws.NewHub(),
		product:  product,
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
		solidPNG(t, 4, 4, image.Rect(0, 0, 4, 4), color.NRGBA{R: 128, G: 128, B: 128, A: 255}), "image/png"))
	require.NoError(t, f.assets.Put(ctx, model.MaskKeyFor(product.ID, f.lycraID),
		solidPNG(t, 4, 4, image.Rect(0, 0, 2, 4), opaque), "image/png"))
	require.NoError(t, f.assets.Put(ctx, model.MaskKeyFor(product.ID, f.trimID),
		solidPNG(t, 4, 4, image.Rect(2, 0, 4, 2), opaque), "image/png"))

	productRepo := repository.NewProductRepository(testDB)
	layerRepo := repository.NewLayerRepository(testDB)
	rfqRepo := repository.NewRFQRepository(testDB)
	staffRepo := repository.NewStaffUserRepository(testDB)

	validator := service.NewConfigurationValidator(model.DefaultMinQuantity)
	pricing := service.NewPricingCalculator()

	authService := service.NewAuthService(staffRepo, testJWTSecret, time.Hour)
	catalogService := service.NewCatalogService(productRepo, layerRepo, f.assets, model.DefaultMinQuantity)
	configurationService := service.NewConfigurationService(productRepo, validator, pricing)
	previewService := service.NewPreviewService(productRepo, validator, f.assets, nil, nil)
	rfqService := service.NewRFQService(rfqRepo, productRepo, validator, pricing, previewService,
		notification.NewDispatcher(f.notifier, f.hub), true)

	_, err = authService.CreateStaff("staff@example.com", "staff-password", "Sam Staff", model.StaffRoleStaff)
	require.NoError(t, err)
	_, err = authService.CreateStaff("admin@example.com", "admin-password", "Ada Admin", model.StaffRoleAdmin)
	require.NoError(t, err)
	staffLogin, err := authService.Login("staff@example.com", "staff-password")
	require.NoError(t, err)
	adminLogin, err := authService.Login("admin@example.com", "admin-password")
	require.NoError(t, err)
	f.staffToken = staffLogin.AccessToken
	f.adminToken = adminLogin.AccessToken

	authController := NewAuthController(authService)
	configurationController := NewConfigurationController(catalogService, configurationService, previewService)
	catalogController := NewCatalogController(catalogService)
	rfqController := NewRFQController(rfqService)
	adminRFQController := NewAdminRFQController(rfqService)
	uploadController := NewUploadController(presigner)
	dashboardController := NewDashboardController(f.hub, nil)
	auth := middleware.NewAuthMiddleware(testJWTSecret)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.LoggingMiddleware())

	v1 := router.Group("/api/v1")
	v1.POST("/auth/login", authController.Login)
	v1.GET("/auth/me", auth.Authenticate(), authController.GetMe)

	v1.POST("/configurations/preview", configurationController.Preview)
	v1.POST("/configurations/validate", configurationController.Validate)
	v1.GET("/configurations/:product_id", configurationController.GetConfiguration)
	v1.POST("/configurations/:product_id", configurationController.SubmitConfiguration)

	v1.POST("/rfq", rfqController.Submit)
	v1.GET("/rfq/:id", rfqController.Get)
	v1.POST("/rfq/:id/status", auth.OptionalAuthenticate(), rfqController.Transition)

	admin := v1.Group("/admin", auth.Authenticate(), auth.RequireRole(model.StaffRoleStaff, model.StaffRoleAdmin))
	admin.GET("/rfqs", adminRFQController.List)
	admin.GET("/rfqs/export", adminRFQController.Export)
	admin.GET("/rfqs/:id", adminRFQController.Get)
	admin.PUT("/rfqs/:id/pricing", adminRFQController.UpdatePricing)
	admin.POST("/rfqs/:id/preview", adminRFQController.GeneratePreview)
	admin.GET("/products", catalogController.ListProducts)
	admin.POST("/products", catalogController.CreateProduct)
	admin.PUT("/products/:id", catalogController.UpdateProduct)
	admin.PUT("/products/:id/layers", catalogController.ReplaceLayers)
	admin.PUT("/products/:id/layers/order", catalogController.ReorderLayers)
	admin.PUT("/products/:id/base-image", catalogController.UploadBaseImage)
	admin.PUT("/layers/:id/mask", catalogController.UploadLayerMask)
	admin.POST("/patterns/presign", uploadController.PresignPattern)
	admin.GET("/ws", dashboardController.Connect)
	admin.POST("/staff", auth.RequireRole(model.StaffRoleAdmin), authController.CreateStaff)

	f.engine = router
	return f
}

func (f *controllerFixture) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)
	return w
}

// jerseyConfiguration is the Red Lycra / White Trim pick as a JSON payload.
func (f *controllerFixture) jerseyConfiguration(quantity int) map[string]interface{} {
	return map[string]interface{}{
		"layers": map[string]interface{}{
			uintKey(f.lycraID): map[string]string{"name": "Red", "value": "#ff0000"},
			uintKey(f.trimID):  map[string]string{"name": "White", "value": "#ffffff"},
		},
		"size":     "M",
		"quantity": quantity,
	}
}

func (f *controllerFixture) submitRFQ(t *testing.T) RFQView {
	t.Helper()
	w := f.do(t, http.MethodPost, "/api/v1/rfq", map[string]interface{}{
		"product_id":    f.product.ID,
		"configuration": f.jerseyConfiguration(4),
		"customer_info": map[string]string{"name": "Ada Lovelace", "email": "ada@example.com"},
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var view RFQView
	decodeBody(t, w, &view)
	return view
}

func uintKey(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decodeBody(t, w, &body)
	return body.Error
}
