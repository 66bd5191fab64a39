package controller

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/internal/app/service"
	apperrors "github.com/ikkim/configurator-backend/internal/errors"
	"github.com/ikkim/configurator-backend/internal/middleware"
	"github.com/shopspring/decimal"
)

// MaxAssetUploadBytes caps mask and base image uploads.
const MaxAssetUploadBytes = 10 << 20

type CatalogController struct {
	catalogService service.CatalogService
}

func NewCatalogController(catalogService service.CatalogService) *CatalogController {
	return &CatalogController{
		catalogService: catalogService,
	}
}

type ProductRequest struct {
	Name         string                     `json:"name" binding:"required"`
	Description  string                     `json:"description"`
	BasePrice    decimal.Decimal            `json:"base_price"`
	SizeFees     map[string]decimal.Decimal `json:"size_fees"`
	MinQuantity  *int                       `json:"min_quantity"`
	LeadTimeDays *int                       `json:"lead_time_days"`
}

func (r ProductRequest) input() service.ProductInput {
	return service.ProductInput{
		Name:         r.Name,
		Description:  r.Description,
		BasePrice:    r.BasePrice,
		SizeFees:     r.SizeFees,
		MinQuantity:  r.MinQuantity,
		LeadTimeDays: r.LeadTimeDays,
	}
}

type LayerRequest struct {
	Name     string          `json:"name"`
	Type     model.LayerType `json:"type"`
	Position int             `json:"position"`
	Options  []model.Option  `json:"options"`
}

type ReplaceLayersRequest struct {
	Layers []LayerRequest `json:"layers" binding:"required"`
}

type ReorderLayersRequest struct {
	LayerIDs []uint `json:"layer_ids" binding:"required"`
}

// ListProducts lists every product in the catalog
// GET /api/v1/admin/products
func (ctrl *CatalogController) ListProducts(c *gin.Context) {
	products, err := ctrl.catalogService.ListProducts()
	if err != nil {
		respondError(c, err, "list products")
		return
	}

	views := make([]ProductView, 0, len(products))
	for i := range products {
		views = append(views, newProductView(&products[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"products": views,
		"count":    len(views),
	})
}

// CreateProduct creates a product with its pricing settings
// POST /api/v1/admin/products
func (ctrl *CatalogController) CreateProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := ctrl.catalogService.CreateProduct(req.input())
	if err != nil {
		respondError(c, err, "create product")
		return
	}

	log.Info("Product created", map[string]interface{}{
		"product_id": product.ID,
	})

	c.JSON(http.StatusCreated, gin.H{
		"product": newProductView(product),
	})
}

// UpdateProduct replaces a product's settings
// PUT /api/v1/admin/products/:id
func (ctrl *CatalogController) UpdateProduct(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := ctrl.catalogService.UpdateProduct(id, req.input())
	if err != nil {
		respondError(c, err, "update product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": newProductView(product),
	})
}

// ReplaceLayers swaps the whole layer set of a product
// PUT /api/v1/admin/products/:id/layers
func (ctrl *CatalogController) ReplaceLayers(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ReplaceLayersRequest
	if !bindJSON(c, &req) {
		return
	}

	inputs := make([]service.LayerInput, 0, len(req.Layers))
	for _, l := range req.Layers {
		inputs = append(inputs, service.LayerInput{
			Name:     l.Name,
			Type:     l.Type,
			Position: l.Position,
			Options:  l.Options,
		})
	}

	layers, err := ctrl.catalogService.ReplaceLayers(id, inputs)
	if err != nil {
		respondError(c, err, "update layers")
		return
	}

	log.Info("Layers replaced", map[string]interface{}{
		"product_id": id,
		"layers":     len(layers),
	})

	c.JSON(http.StatusOK, gin.H{
		"layers": layerViews(layers, nil),
	})
}

// ReorderLayers rewrites layer positions in the given order
// PUT /api/v1/admin/products/:id/layers/order
func (ctrl *CatalogController) ReorderLayers(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req ReorderLayersRequest
	if !bindJSON(c, &req) {
		return
	}

	layers, err := ctrl.catalogService.ReorderLayers(id, req.LayerIDs)
	if err != nil {
		respondError(c, err, "update layer order")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"layers": layerViews(layers, nil),
	})
}

// UploadLayerMask stores the PNG alpha mask of a layer
// PUT /api/v1/admin/layers/:id/mask
func (ctrl *CatalogController) UploadLayerMask(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	data, ok := readUpload(c)
	if !ok {
		return
	}

	url, err := ctrl.catalogService.UploadLayerMask(c.Request.Context(), id, data)
	if err != nil {
		respondError(c, err, "update layer mask")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"mask_url": url,
	})
}

// UploadBaseImage stores the product's base image
// PUT /api/v1/admin/products/:id/base-image
func (ctrl *CatalogController) UploadBaseImage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	data, ok := readUpload(c)
	if !ok {
		return
	}

	url, err := ctrl.catalogService.UploadBaseImage(c.Request.Context(), id, data)
	if err != nil {
		respondError(c, err, "update base image")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"base_image_url": url,
	})
}

// readUpload reads the multipart "file" field, capped at MaxAssetUploadBytes.
func readUpload(c *gin.Context) ([]byte, bool) {
	log := middleware.GetLoggerFromContext(c)

	header, err := c.FormFile("file")
	if err != nil {
		log.Warn("Missing upload file", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationRequired, "A file field named 'file' is required")
		return nil, false
	}
	if header.Size > MaxAssetUploadBytes {
		apperrors.BadRequest(c, apperrors.UploadFileTooLarge, "File is too large")
		return nil, false
	}

	f, err := header.Open()
	if err != nil {
		log.Error("Failed to open upload", err)
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "Upload failed. Please try again")
		return nil, false
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxAssetUploadBytes+1))
	if err != nil {
		log.Error("Failed to read upload", err)
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "Upload failed. Please try again")
		return nil, false
	}
	if len(data) > MaxAssetUploadBytes {
		apperrors.BadRequest(c, apperrors.UploadFileTooLarge, "File is too large")
		return nil, false
	}
	return data, true
}
