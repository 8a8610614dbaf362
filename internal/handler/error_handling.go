package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tale-server/internal/models"
)

func handleServiceError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	var conflictErr *models.ConflictError

	var statusCode int
	var errResp models.ErrorResponse

	switch {
	case errors.As(err, &validationErr):
		statusCode = http.StatusBadRequest
		errResp = models.ErrorResponse{Code: models.ErrCodeValidation, Message: validationErr.Error()}
	case errors.As(err, &conflictErr):
		statusCode = http.StatusConflict
		errResp = models.ErrorResponse{
			Code:            models.ErrCodeConflict,
			Message:         conflictErr.Error(),
			ExpectedVersion: &conflictErr.ExpectedVersion,
			ActualVersion:   &conflictErr.ActualVersion,
		}
	case errors.Is(err, models.ErrStoryNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Story not found"}
	case errors.Is(err, models.ErrSceneNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Scene not found"}
	case errors.Is(err, models.ErrVersionNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Version not found"}
	case errors.Is(err, models.ErrImageNotFound):
		statusCode = http.StatusNotFound
		errResp = models.ErrorResponse{Code: models.ErrCodeNotFound, Message: "Image not found"}
	case errors.Is(err, models.ErrStoryNotOwned):
		statusCode = http.StatusForbidden
		errResp = models.ErrorResponse{Code: models.ErrCodeForbidden, Message: "Story belongs to another user"}
	case errors.Is(err, models.ErrTransformFailed):
		statusCode = http.StatusBadGateway
		errResp = models.ErrorResponse{Code: models.ErrCodeUpstream, Message: "Text transformation failed, story left unchanged"}
	case errors.Is(err, models.ErrGenerationFailed):
		statusCode = http.StatusBadGateway
		errResp = models.ErrorResponse{Code: models.ErrCodeUpstream, Message: "Image generation failed"}
	default:
		zap.L().Error("Unhandled internal error in handleServiceError", zap.Error(err))
		statusCode = http.StatusInternalServerError
		errResp = models.ErrorResponse{Code: models.ErrCodeInternal, Message: "An unexpected internal error occurred"}
	}

	c.AbortWithStatusJSON(statusCode, errResp)
}

func respondBadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{
		Code:    models.ErrCodeBadRequest,
		Message: message,
	})
}
