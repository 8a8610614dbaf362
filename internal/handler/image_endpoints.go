package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tale-server/internal/messaging"
	"tale-server/internal/models"
	"tale-server/internal/service"
)

// @Summary Генерация изображений сцен
// @Description Генерирует изображения для сцен без иллюстрации. Уже проиллюстрированные сцены пропускаются, версия истории не меняется
// @Tags images
// @Accept json
// @Produce json
// @Param id path string true "ID истории"
// @Param request body generateImagesRequest false "Параметры пакета"
// @Success 200 {object} service.ImageBatchReport
// @Success 202 {object} taskQueuedResponse "Задача поставлена в очередь"
// @Router /stories/{id}/images [post]
func (h *StoryHandler) generateImages(c *gin.Context) {
	storyID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req generateImagesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}
	userID := userIDFrom(c)

	if req.Async {
		if h.tasks == nil {
			respondBadRequest(c, "Background image generation is disabled")
			return
		}
		payload := messaging.SceneImageTaskPayload{
			TaskID:     uuid.New().String(),
			StoryID:    storyID,
			UserID:     userID,
			SceneID:    req.SceneID,
			Regenerate: req.Regenerate,
		}
		if err := h.tasks.PublishSceneImageTask(c.Request.Context(), payload); err != nil {
			h.logger.Error("Failed to enqueue scene image task",
				zap.String("story_id", storyID.String()), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
				Code:    models.ErrCodeInternal,
				Message: "Failed to enqueue image generation task",
			})
			return
		}
		c.JSON(http.StatusAccepted, taskQueuedResponse{
			TaskID:  payload.TaskID,
			Message: "image generation queued",
		})
		return
	}

	report, err := h.storyService.GenerateSceneImages(c.Request.Context(), storyID, userID, service.ImageBatchOptions{
		SceneID:    req.SceneID,
		Regenerate: req.Regenerate,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// @Summary Генерация обложки
// @Tags images
// @Produce json
// @Param id path string true "ID истории"
// @Success 200 {object} models.ImageArtifact
// @Failure 502 {object} models.ErrorResponse "Сбой генерации"
// @Router /stories/{id}/cover [post]
func (h *StoryHandler) generateCover(c *gin.Context) {
	storyID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	artifact, err := h.storyService.GenerateCoverImage(c.Request.Context(), storyID, userIDFrom(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	// Бинарные данные не возвращаем в списочном ответе
	artifact.Data = nil
	c.JSON(http.StatusOK, artifact)
}

// @Summary Список изображений истории
// @Tags images
// @Produce json
// @Param id path string true "ID истории"
// @Success 200 {array} models.ImageArtifact
// @Router /stories/{id}/images [get]
func (h *StoryHandler) listImages(c *gin.Context) {
	storyID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	artifacts, err := h.storyService.ListImages(c.Request.Context(), storyID, userIDFrom(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	// Отдаем метаданные, сами байты доступны по /images/{id}
	for i := range artifacts {
		artifacts[i].Data = nil
	}
	c.JSON(http.StatusOK, artifacts)
}

// @Summary Получение изображения
// @Description Возвращает бинарные данные изображения
// @Tags images
// @Produce png
// @Param id path string true "ID изображения"
// @Success 200 {file} binary
// @Failure 404 {object} models.ErrorResponse "Изображение не найдено"
// @Router /images/{id} [get]
func (h *StoryHandler) getImage(c *gin.Context) {
	imageID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	artifact, err := h.storyService.GetImage(c.Request.Context(), imageID, userIDFrom(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", artifact.Data)
}
