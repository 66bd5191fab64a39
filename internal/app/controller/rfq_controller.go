package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/configurator-backend/internal/app/model"
	"github.com/ikkim/configurator-backend/internal/app/service"
	apperrors "github.com/ikkim/configurator-backend/internal/errors"
	"github.com/ikkim/configurator-backend/internal/middleware"
)

// RFQController serves the customer side of quote requests. Status changes
// are shared with staff, who are recognised by their bearer token.
type RFQController struct {
	rfqService service.RFQService
}

func NewRFQController(rfqService service.RFQService) *RFQController {
	return &RFQController{
		rfqService: rfqService,
	}
}

type SubmitRFQRequest struct {
	ProductID     uint                `json:"product_id" binding:"required"`
	Configuration model.Configuration `json:"configuration"`
	Customer      model.CustomerInfo  `json:"customer_info"`
}

type TransitionRequest struct {
	Status      model.RFQStatus `json:"status" binding:"required"`
	AccessToken string          `json:"access_token"`
	Version     *int            `json:"version"`
}

// Submit creates a quote request from a configuration
// POST /api/v1/rfq
func (ctrl *RFQController) Submit(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req SubmitRFQRequest
	if !bindJSON(c, &req) {
		return
	}

	rfq, err := ctrl.rfqService.Submit(c.Request.Context(), service.SubmitRequest{
		ProductID:     req.ProductID,
		Configuration: req.Configuration,
		Customer:      req.Customer,
	})
	if err != nil {
		respondError(c, err, "submit rfq")
		return
	}

	log.Info("RFQ submitted", map[string]interface{}{
		"rfq_id":     rfq.ID,
		"product_id": rfq.ProductID,
	})

	c.JSON(http.StatusCreated, newRFQView(rfq, true))
}

// Get returns a quote request to the customer holding its access token
// GET /api/v1/rfq/:id?token=
func (ctrl *RFQController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	rfq, err := ctrl.rfqService.GetForCustomer(id, c.Query("token"))
	if err != nil {
		respondError(c, err, "get rfq")
		return
	}

	c.JSON(http.StatusOK, newRFQView(rfq, false))
}

// Transition moves a quote request to a new status
// POST /api/v1/rfq/:id/status
func (ctrl *RFQController) Transition(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req TransitionRequest
	if !bindJSON(c, &req) {
		return
	}

	var actor service.Actor
	if staffID, isStaff := middleware.GetStaffID(c); isStaff {
		actor = service.StaffActor(staffID)
	} else {
		token := req.AccessToken
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			apperrors.Unauthorized(c, "A staff login or the quote access token is required")
			return
		}
		actor = service.CustomerActor(token)
	}

	rfq, err := ctrl.rfqService.Transition(c.Request.Context(), id, req.Status, actor, req.Version)
	if err != nil {
		respondError(c, err, "update rfq status")
		return
	}

	log.Info("RFQ status changed", map[string]interface{}{
		"rfq_id": rfq.ID,
		"status": rfq.Status,
		"actor":  actor.Kind,
	})

	c.JSON(http.StatusOK, newRFQView(rfq, false))
}
