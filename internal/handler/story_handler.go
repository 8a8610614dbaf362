package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"tale-server/internal/messaging"
	"tale-server/internal/service"
)

// StoryHandler обрабатывает HTTP запросы к историям.
type StoryHandler struct {
	storyService *service.StoryService
	tasks        messaging.TaskPublisher // nil, если фоновая генерация отключена
	logger       *zap.Logger
}

func NewStoryHandler(storyService *service.StoryService, tasks messaging.TaskPublisher, logger *zap.Logger) *StoryHandler {
	return &StoryHandler{
		storyService: storyService,
		tasks:        tasks,
		logger:       logger.Named("StoryHandler"),
	}
}

func (h *StoryHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	api.Use(RequireUser())
	{
		api.POST("/stories", h.createStory)
		api.GET("/stories", h.listStories)
		api.GET("/stories/:id", h.getStory)
		api.PUT("/stories/:id", h.updateStory)
		api.POST("/stories/:id/finalize", h.finalizeStory)

		api.POST("/stories/:id/scenes/:scene_id/refine", h.refineScene)
		api.POST("/stories/:id/refine", h.refineStory)
		api.POST("/stories/:id/revert", h.revertStory)
		api.GET("/stories/:id/history", h.getHistory)
		api.GET("/stories/:id/refinements", h.listRefinements)

		api.POST("/stories/:id/images", h.generateImages)
		api.POST("/stories/:id/cover", h.generateCover)
		api.GET("/stories/:id/images", h.listImages)
		api.GET("/images/:id", h.getImage)
	}
}
