package controller

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/internal/app/service"
	apperrors "github.com/ikkim/configurator-backend/internal/errors"
	"github.com/ikkim/configurator-backend/internal/middleware"
	"github.com/ikkim/configurator-backend/internal/spreadsheet"
	"github.com/shopspring/decimal"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// exportPageSize is the page size used while collecting RFQs for export.
const exportPageSize = 100

type AdminRFQController struct {
	rfqService service.RFQService
}

func NewAdminRFQController(rfqService service.RFQService) *AdminRFQController {
	return &AdminRFQController{
		rfqService: rfqService,
	}
}

type UpdatePricingRequest struct {
	BasePrice       *decimal.Decimal        `json:"base_price"`
	Size            *string                 `json:"size"`
	Quantity        *int                    `json:"quantity"`
	AdditionalCosts *[]model.AdditionalCost `json:"additional_costs"`
	Version         *int                    `json:"version"`
}

// parseListOptions reads status, email, product_id, page, per_page and order.
func parseListOptions(c *gin.Context) (service.RFQListOptions, bool) {
	opts := service.RFQListOptions{
		CustomerEmail: c.Query("email"),
		SortAscending: c.Query("order") == "asc",
	}

	if s := c.Query("status"); s != "" {
		status := model.RFQStatus(s)
		opts.Status = &status
	}
	if p := c.Query("product_id"); p != "" {
		id, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product_id")
			return opts, false
		}
		productID := uint(id)
		opts.ProductID = &productID
	}
	for name, dst := range map[string]*int{"page": &opts.Page, "per_page": &opts.PerPage} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid "+name)
			return opts, false
		}
		*dst = n
	}
	return opts, true
}

// List returns a filtered page of quote requests
// GET /api/v1/admin/rfqs
func (ctrl *AdminRFQController) List(c *gin.Context) {
	opts, ok := parseListOptions(c)
	if !ok {
		return
	}

	page, err := ctrl.rfqService.List(opts)
	if err != nil {
		respondError(c, err, "list rfqs")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rfqs":     newRFQViews(page.Items),
		"total":    page.Total,
		"page":     page.Page,
		"per_page": page.PerPage,
	})
}

// Get returns one quote request
// GET /api/v1/admin/rfqs/:id
func (ctrl *AdminRFQController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	rfq, err := ctrl.rfqService.Get(id)
	if err != nil {
		respondError(c, err, "get rfq")
		return
	}

	c.JSON(http.StatusOK, newRFQView(rfq, false))
}

// UpdatePricing reprices a quote request
// PUT /api/v1/admin/rfqs/:id/pricing
func (ctrl *AdminRFQController) UpdatePricing(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdatePricingRequest
	if !bindJSON(c, &req) {
		return
	}

	rfq, err := ctrl.rfqService.UpdatePricing(c.Request.Context(), id, service.PricingUpdate{
		BasePrice:       req.BasePrice,
		Size:            req.Size,
		Quantity:        req.Quantity,
		AdditionalCosts: req.AdditionalCosts,
	}, req.Version)
	if err != nil {
		respondError(c, err, "update rfq pricing")
		return
	}

	staffID, _ := middleware.GetStaffID(c)
	log.Info("RFQ repriced", map[string]interface{}{
		"rfq_id":      rfq.ID,
		"staff_id":    staffID,
		"grand_total": money(rfq.Pricing.GrandTotal),
	})

	c.JSON(http.StatusOK, newRFQView(rfq, false))
}

// GeneratePreview renders the frozen selection of a quote request and keeps it
// POST /api/v1/admin/rfqs/:id/preview
func (ctrl *AdminRFQController) GeneratePreview(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	rfq, err := ctrl.rfqService.AttachPreview(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "generate rfq preview")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"preview_url": rfq.PreviewURL,
		"rfq":         newRFQView(rfq, false),
	})
}

// Export downloads the matching quote requests as a spreadsheet
// GET /api/v1/admin/rfqs/export
func (ctrl *AdminRFQController) Export(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	opts, ok := parseListOptions(c)
	if !ok {
		return
	}
	opts.PerPage = exportPageSize

	var rfqs []model.RFQ
	for opts.Page = 1; ; opts.Page++ {
		page, err := ctrl.rfqService.List(opts)
		if err != nil {
			respondError(c, err, "export rfqs")
			return
		}
		rfqs = append(rfqs, page.Items...)
		if len(page.Items) < page.PerPage || int64(len(rfqs)) >= page.Total {
			break
		}
	}

	var buf bytes.Buffer
	if err := spreadsheet.WriteRFQs(&buf, rfqs); err != nil {
		respondError(c, err, "export rfqs")
		return
	}

	log.Info("RFQs exported", map[string]interface{}{
		"count": len(rfqs),
	})

	filename := fmt.Sprintf("rfqs_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
