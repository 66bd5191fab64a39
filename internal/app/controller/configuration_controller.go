package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/internal/app/service"
	"github.com/ikkim/configurator-backend/internal/middleware"
)

type ConfigurationController struct {
	catalogService       service.CatalogService
	configurationService service.ConfigurationService
	previewService       service.PreviewService
}

func NewConfigurationController(
	catalogService service.CatalogService,
	configurationService service.ConfigurationService,
	previewService service.PreviewService,
) *ConfigurationController {
	return &ConfigurationController{
		catalogService:       catalogService,
		configurationService: configurationService,
		previewService:       previewService,
	}
}

type ConfigurationRequest struct {
	Configuration model.Configuration `json:"configuration"`
}

type ProductConfigurationRequest struct {
	ProductID     uint                `json:"product_id" binding:"required"`
	Configuration model.Configuration `json:"configuration"`
}

// GetConfiguration returns the layers, options and pricing settings of a product
// GET /api/v1/configurations/:product_id
func (ctrl *ConfigurationController) GetConfiguration(c *gin.Context) {
	productID, ok := parseIDParam(c, "product_id")
	if !ok {
		return
	}

	cfg, err := ctrl.catalogService.GetConfiguration(productID)
	if err != nil {
		respondError(c, err, "get product configuration")
		return
	}

	c.JSON(http.StatusOK, newConfigurationView(cfg))
}

// SubmitConfiguration validates a configuration and echoes it with a price estimate
// POST /api/v1/configurations/:product_id
func (ctrl *ConfigurationController) SubmitConfiguration(c *gin.Context) {
	productID, ok := parseIDParam(c, "product_id")
	if !ok {
		return
	}

	var req ConfigurationRequest
	if !bindJSON(c, &req) {
		return
	}

	quote, err := ctrl.configurationService.Quote(productID, req.Configuration)
	if err != nil {
		respondError(c, err, "quote configuration")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product_id": productID,
		"configuration": gin.H{
			"layers":   selectionViews(quote.Selections),
			"size":     quote.Size,
			"quantity": quote.Quantity,
		},
		"pricing": newPricingView(quote.Pricing, quote.Quantity),
	})
}

// Validate reports whether a configuration is acceptable, with its price
// POST /api/v1/configurations/validate
func (ctrl *ConfigurationController) Validate(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ProductConfigurationRequest
	if !bindJSON(c, &req) {
		return
	}

	quote, err := ctrl.configurationService.Quote(req.ProductID, req.Configuration)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			log.Debug("Configuration invalid", map[string]interface{}{
				"product_id": req.ProductID,
				"kind":       verr.Kind,
			})
			c.JSON(http.StatusOK, gin.H{
				"valid": false,
				"error": gin.H{
					"code":     validationCodes[verr.Kind],
					"field":    verr.Field,
					"layer_id": verr.LayerID,
					"message":  verr.Message,
					"minimum":  verr.Minimum,
				},
			})
			return
		}
		respondError(c, err, "validate configuration")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid":   true,
		"pricing": newPricingView(quote.Pricing, quote.Quantity),
	})
}

// Preview renders the configuration onto the product image
// POST /api/v1/configurations/preview
func (ctrl *ConfigurationController) Preview(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ProductConfigurationRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := ctrl.previewService.GeneratePreview(c.Request.Context(), req.ProductID, req.Configuration)
	if err != nil {
		respondError(c, err, "generate preview")
		return
	}

	log.Info("Preview served", map[string]interface{}{
		"product_id": req.ProductID,
		"cached":     result.Cached,
	})

	c.JSON(http.StatusOK, gin.H{
		"preview_url": result.URL,
	})
}
