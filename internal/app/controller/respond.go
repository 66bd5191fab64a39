package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/configurator-backend/internal/app/service"
	apperrors "github.com/ikkim/configurator-backend/internal/errors"
	"github.com/ikkim/configurator-backend/internal/middleware"
)

var validationCodes = map[service.ValidationErrorKind]string{
	service.KindMissingLayerSelection: apperrors.ConfigMissingLayerSelection,
	service.KindInvalidSelection:      apperrors.ConfigInvalidSelection,
	service.KindInvalidSize:           apperrors.ConfigInvalidSize,
	service.KindQuantityTooLow:        apperrors.ConfigQuantityTooLow,
	service.KindMissingSize:           apperrors.ConfigMissingSize,
	service.KindMissingQuantity:       apperrors.ConfigMissingQuantity,
	service.KindInvalidConfiguration:  apperrors.ConfigInvalid,
}

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// serviceErrors is checked in order; the first errors.Is match wins.
var serviceErrors = []errorMapping{
	{service.ErrProductNotFound, http.StatusNotFound, apperrors.CatalogProductNotFound, "Product not found"},
	{service.ErrProductNotConfigured, http.StatusNotFound, apperrors.CatalogNotConfigured, "Product has no configurable layers"},
	{service.ErrLayerNotFound, http.StatusNotFound, apperrors.CatalogLayerNotFound, "Layer not found"},
	{service.ErrInvalidLayerOrder, http.StatusBadRequest, apperrors.CatalogInvalidLayerOrder, ""},
	{service.ErrInvalidCatalog, http.StatusBadRequest, apperrors.CatalogInvalid, ""},
	{service.ErrInvalidImage, http.StatusBadRequest, apperrors.UploadInvalidFileType, ""},
	{service.ErrPreviewUnavailable, http.StatusServiceUnavailable, apperrors.PreviewUnavailable, "Preview unavailable"},
	{service.ErrRFQNotFound, http.StatusNotFound, apperrors.RFQNotFound, "Quote request not found"},
	{service.ErrInvalidStatus, http.StatusBadRequest, apperrors.RFQInvalidStatus, ""},
	{service.ErrInvalidTransition, http.StatusConflict, apperrors.RFQInvalidTransition, ""},
	{service.ErrRFQConflict, http.StatusConflict, apperrors.RFQConflict, "The quote request was changed by someone else. Reload and try again"},
	{service.ErrRFQClosed, http.StatusConflict, apperrors.RFQClosed, ""},
	{service.ErrRFQAccessDenied, http.StatusForbidden, apperrors.AuthzAccessDenied, "You cannot perform this action on the quote request"},
	{service.ErrInvalidCustomer, http.StatusBadRequest, apperrors.RFQInvalidCustomer, ""},
	{service.ErrInvalidPricing, http.StatusBadRequest, apperrors.RFQInvalidPricing, ""},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "Invalid email or password"},
	{service.ErrEmailAlreadyExists, http.StatusConflict, apperrors.AuthEmailAlreadyExists, "This email is already in use"},
	{service.ErrInvalidStaffInput, http.StatusBadRequest, apperrors.ValidationInvalidInput, ""},
	{service.ErrStaffNotFound, http.StatusNotFound, apperrors.ResourceNotFound, "Staff user not found"},
}

// respondError writes the response for an error returned by a service.
// Messages of sentinels without a fixed message come from the error itself;
// those errors are built from user input only. Anything unrecognised is a
// persistence or infrastructure failure and gets a generic message.
func respondError(c *gin.Context, err error, operation string) {
	log := middleware.GetLoggerFromContext(c)

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		log.Warn("Configuration rejected", map[string]interface{}{
			"operation": operation,
			"kind":      verr.Kind,
			"layer_id":  verr.LayerID,
		})
		code, ok := validationCodes[verr.Kind]
		if !ok {
			code = apperrors.ConfigInvalid
		}
		field := verr.Field
		if verr.LayerID != 0 {
			field = "layers." + strconv.FormatUint(uint64(verr.LayerID), 10)
		}
		apperrors.RespondWithFieldError(c, code, field, verr.Message, verr.Minimum)
		return
	}

	for _, m := range serviceErrors {
		if errors.Is(err, m.target) {
			message := m.message
			if message == "" {
				message = err.Error()
			}
			fields := map[string]interface{}{
				"operation": operation,
				"code":      m.code,
			}
			if m.status >= http.StatusInternalServerError {
				log.Error("Request failed", err, fields)
			} else {
				log.Warn("Request rejected", mergeFields(fields, "error", err.Error()))
			}
			apperrors.RespondWithError(c, m.status, m.code, message)
			return
		}
	}

	log.Error("Unexpected failure", err, map[string]interface{}{
		"operation": operation,
	})
	apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, operation)
}

func mergeFields(fields map[string]interface{}, key string, value interface{}) map[string]interface{} {
	fields[key] = value
	return fields
}

// parseIDParam reads a positive numeric path parameter, writing a 400 when
// it is malformed.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		middleware.GetLoggerFromContext(c).Warn("Invalid id parameter", map[string]interface{}{
			"param": name,
			"value": raw,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// bindJSON binds the request body, writing a 400 on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		middleware.GetLoggerFromContext(c).Warn("Invalid request body", map[string]interface{}{
			"path":  c.Request.URL.Path,
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return false
	}
	return true
}
