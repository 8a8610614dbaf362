package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tale-server/internal/models"
	"tale-server/internal/service"
)

// @Summary Создание истории
// @Description Разбирает скелет повествования на сцены и сохраняет историю версии 1
// @Tags stories
// @Accept json
// @Produce json
// @Param request body createStoryRequest true "Данные истории"
// @Success 201 {object} models.Story
// @Failure 400 {object} models.ErrorResponse "Неверные данные запроса"
// @Router /stories [post]
func (h *StoryHandler) createStory(c *gin.Context) {
	var req createStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	story, err := h.storyService.CreateStory(c.Request.Context(), userIDFrom(c), service.CreateStoryInput{
		Title:       req.Title,
		Description: req.Description,
		Audience:    req.Audience,
		Genre:       req.Genre,
		Skeleton:    req.Skeleton,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	storiesCreatedTotal.Inc()
	c.JSON(http.StatusCreated, story)
}

// @Summary Список историй пользователя
// @Tags stories
// @Produce json
// @Success 200 {array} models.Story
// @Router /stories [get]
func (h *StoryHandler) listStories(c *gin.Context) {
	stories, err := h.storyService.ListStories(c.Request.Context(), userIDFrom(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stories)
}

// @Summary Получение истории по ID
// @Tags stories
// @Produce json
// @Param id path string true "ID истории"
// @Success 200 {object} models.Story
// @Failure 404 {object} models.ErrorResponse "История не найдена"
// @Router /stories/{id} [get]
func (h *StoryHandler) getStory(c *gin.Context) {
	storyID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	story, err := h.storyService.GetStory(c.Request.Context(), storyID, userIDFrom(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

// @Summary Обновление названия и описания
// @Description Правка метаданных не является уточнением: версия не меняется
// @Tags stories
// @Accept json
// @Produce json
// @Param id path string true "ID истории"
// @Param request body updateStoryRequest true "Новые метаданные"
// @Success 200 {object} models.Story
// @Router /stories/{id} [put]
func (h *StoryHandler) updateStory(c *gin.Context) {
	storyID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req updateStoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	story, err := h.storyService.UpdateStoryDetails(c.Request.Context(), storyID, userIDFrom(c), req.Title, req.Description)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

// @Summary Фиксация истории
// @Tags stories
// @Produce json
// @Param id path string true "ID истории"
// @Success 200 {object} models.Story
// @Router /stories/{id}/finalize [post]
func (h *StoryHandler) finalizeStory(c *gin.Context) {
	storyID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	story, err := h.storyService.FinalizeStory(c.Request.Context(), storyID, userIDFrom(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, story)
}

// @Summary Уточнение одной сцены
// @Description Применяет типизированное уточнение к сцене. Сбой трансформации оставляет историю нетронутой
// @Tags refinements
// @Accept json
// @Produce json
// @Param id path string true "ID истории"
// @Param scene_id path string true "ID сцены"
// @Param request body models.RefinementRequest true "Параметры уточнения"
// @Success 200 {object} service.RefineSceneResult
// @Failure 400 {object} models.ErrorResponse "Неверный тип уточнения"
// @Failure 502 {object} models.ErrorResponse "Сбой трансформации"
// @Router /stories/{id}/scenes/{scene_id}/refine [post]
func (h *StoryHandler) refineScene(c *gin.Context) {
	storyID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	sceneID, ok := parseIDParam(c, "scene_id")
	if !ok {
		return
	}
	var req models.RefinementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.storyService.RefineScene(c.Request.Context(), storyID, userIDFrom(c), sceneID, req)
	if err != nil {
		refinementsTotal.WithLabelValues("scene", "error").Inc()
		handleServiceError(c, err)
		return
	}
	refinementsTotal.WithLabelValues("scene", "success").Inc()
	c.JSON(http.StatusOK, result)
}

// @Summary Уточнение всей истории
// @Description Применяет уточнение ко всем сценам. Сбойные сцены сохраняют прежний текст, версия увеличивается на 1
// @Tags refinements
// @Accept json
// @Produce json
// @Param id path string true "ID истории"
// @Param request body models.RefinementRequest true "Параметры уточнения"
// @Success 200 {object} service.RefineStoryResult
// @Router /stories/{id}/refine [post]
func (h *StoryHandler) refineStory(c *gin.Context) {
	storyID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req models.RefinementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.storyService.RefineStory(c.Request.Context(), storyID, userIDFrom(c), req)
	if err != nil {
		refinementsTotal.WithLabelValues("story", "error").Inc()
		handleServiceError(c, err)
		return
	}
	refinementsTotal.WithLabelValues("story", "success").Inc()
	c.JSON(http.StatusOK, result)
}

// @Summary Откат к версии
// @Description Восстанавливает сцены указанной версии как новую версию. История не переписывается
// @Tags refinements
// @Accept json
// @Produce json
// @Param id path string true "ID истории"
// @Param request body revertRequest true "Целевая версия"
// @Success 200 {object} models.Story
// @Failure 404 {object} models.ErrorResponse "Версия не найдена"
// @Router /stories/{id}/revert [post]
func (h *StoryHandler) revertStory(c *gin.Context) {
	storyID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req revertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	story, err := h.storyService.RevertToVersion(c.Request.Context(), storyID, userIDFrom(c), req.Version)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	revertsTotal.Inc()
	c.JSON(http.StatusOK, story)
}

// @Summary История версий
// @Tags refinements
// @Produce json
// @Param id path string true "ID истории"
// @Success 200 {array} models.VersionHistoryEntry
// @Router /stories/{id}/history [get]
func (h *StoryHandler) getHistory(c *gin.Context) {
	storyID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	story, err := h.storyService.GetStory(c.Request.Context(), storyID, userIDFrom(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	history := story.VersionHistory
	if history == nil {
		history = []models.VersionHistoryEntry{}
	}
	c.JSON(http.StatusOK, history)
}

// @Summary Журнал уточнений
// @Tags refinements
// @Produce json
// @Param id path string true "ID истории"
// @Success 200 {array} models.RefinementRecord
// @Router /stories/{id}/refinements [get]
func (h *StoryHandler) listRefinements(c *gin.Context) {
	storyID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	records, err := h.storyService.ListRefinements(c.Request.Context(), storyID, userIDFrom(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if records == nil {
		records = []models.RefinementRecord{}
	}
	c.JSON(http.StatusOK, records)
}

// parseIDParam разбирает UUID из path-параметра и сам отвечает 400 при ошибке.
func parseIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		zap.L().Debug("Invalid UUID in path", zap.String("param", name), zap.String("value", c.Param(name)))
		respondBadRequest(c, "Invalid "+name+" format")
		return uuid.Nil, false
	}
	return id, true
}
