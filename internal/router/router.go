package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/configurator-backend/config"
	"github.com/ikkim/configurator-backend/internal/app/controller"
	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/internal/middleware"
)

// UploadsPath serves the local asset store when STORAGE_DRIVER=local.
const UploadsPath = "/uploads"

type Router struct {
	authController          *controller.AuthController
	configurationController *controller.ConfigurationController
	catalogController       *controller.CatalogController
	rfqController           *controller.RFQController
	adminRFQController      *controller.AdminRFQController
	uploadController        *controller.UploadController
	dashboardController     *controller.DashboardController
	authMiddleware          *middleware.AuthMiddleware
	config                  *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	configurationController *controller.ConfigurationController,
	catalogController *controller.CatalogController,
	rfqController *controller.RFQController,
	adminRFQController *controller.AdminRFQController,
	uploadController *controller.UploadController,
	dashboardController *controller.DashboardController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:          authController,
		configurationController: configurationController,
		catalogController:       catalogController,
		rfqController:           rfqController,
		adminRFQController:      adminRFQController,
		uploadController:        uploadController,
		dashboardController:     dashboardController,
		authMiddleware:          authMiddleware,
		config:                  cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Configurator API is running",
		})
	})

	if r.config.Storage.Driver == "local" {
		router.Static(UploadsPath, r.config.Storage.LocalRoot)
	}

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", r.authController.Login)
			auth.GET("/me", r.authMiddleware.Authenticate(), r.authController.GetMe)
		}

		configurations := v1.Group("/configurations")
		{
			// static segments before the :product_id wildcard
			configurations.POST("/preview", r.configurationController.Preview)
			configurations.POST("/validate", r.configurationController.Validate)
			configurations.GET("/:product_id", r.configurationController.GetConfiguration)
			configurations.POST("/:product_id", r.configurationController.SubmitConfiguration)
		}

		rfq := v1.Group("/rfq")
		{
			rfq.POST("", r.rfqController.Submit)
			rfq.GET("/:id", r.rfqController.Get)
			rfq.POST("/:id/status", r.authMiddleware.OptionalAuthenticate(), r.rfqController.Transition)
		}

		admin := v1.Group("/admin")
		admin.Use(
			r.authMiddleware.Authenticate(),
			r.authMiddleware.RequireRole(model.StaffRoleStaff, model.StaffRoleAdmin),
		)
		{
			admin.GET("/rfqs", r.adminRFQController.List)
			admin.GET("/rfqs/export", r.adminRFQController.Export)
			admin.GET("/rfqs/:id", r.adminRFQController.Get)
			admin.PUT("/rfqs/:id/pricing", r.adminRFQController.UpdatePricing)
			admin.POST("/rfqs/:id/preview", r.adminRFQController.GeneratePreview)

			admin.GET("/products", r.catalogController.ListProducts)
			admin.POST("/products", r.catalogController.CreateProduct)
			admin.PUT("/products/:id", r.catalogController.UpdateProduct)
			admin.PUT("/products/:id/layers", r.catalogController.ReplaceLayers)
			admin.PUT("/products/:id/layers/order", r.catalogController.ReorderLayers)
			admin.PUT("/products/:id/base-image", r.catalogController.UploadBaseImage)
			admin.PUT("/layers/:id/mask", r.catalogController.UploadLayerMask)

			admin.POST("/patterns/presign", r.uploadController.PresignPattern)

			admin.GET("/ws", r.dashboardController.Connect)

			admin.POST("/staff",
				r.authMiddleware.RequireRole(model.StaffRoleAdmin),
				r.authController.CreateStaff,
			)
		}
	}

	return router
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
