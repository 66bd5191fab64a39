package controller

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	apperrors "github.com/ikkim/configurator-backend/internal/errors"
	"github.com/ikkim/configurator-backend/internal/middleware"
	"github.com/ikkim/configurator-backend/internal/storage"
	"github.com/ikkim/configurator-backend/pkg/util"
)

// PatternUploadPrefix is where presigned pattern images land.
const PatternUploadPrefix = "patterns/"

// Presigner issues direct-to-bucket upload URLs. Only the S3 store does.
type Presigner interface {
	PresignUpload(ctx context.Context, key, contentType string) (*storage.PresignedURLResponse, error)
}

var patternContentTypes = []string{
	"image/png",
	"image/jpeg",
	"image/gif",
	"image/webp",
	"image/bmp",
}

type UploadController struct {
	presigner Presigner
}

// NewUploadController takes a nil presigner when the asset store cannot
// presign; the endpoint then answers 501.
func NewUploadController(presigner Presigner) *UploadController {
	return &UploadController{
		presigner: presigner,
	}
}

type PresignPatternRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type" binding:"required"`
}

// PresignPattern returns an upload URL for a pattern image
// POST /api/v1/admin/patterns/presign
func (ctrl *UploadController) PresignPattern(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if ctrl.presigner == nil {
		apperrors.RespondWithError(c, http.StatusNotImplemented, apperrors.UploadNotSupported, "Direct uploads need the S3 storage driver")
		return
	}

	var req PresignPatternRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := storage.ValidateContentType(req.ContentType, patternContentTypes); err != nil {
		log.Warn("Invalid content type", map[string]interface{}{
			"content_type": req.ContentType,
		})
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "Only PNG, JPEG, GIF, WebP and BMP images are allowed")
		return
	}

	ext := strings.ToLower(path.Ext(req.Filename))
	key := fmt.Sprintf("%spattern_%s%s", PatternUploadPrefix, util.ShortID(12), ext)

	response, err := ctrl.presigner.PresignUpload(c.Request.Context(), key, req.ContentType)
	if err != nil {
		log.Error("Failed to generate presigned URL", err, map[string]interface{}{
			"key": key,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.UploadFailed, "Could not prepare the upload. Please try again")
		return
	}

	log.Info("Pattern upload presigned", map[string]interface{}{
		"key": response.Key,
	})

	c.JSON(http.StatusOK, response)
}
