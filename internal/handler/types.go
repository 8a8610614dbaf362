package handler

import (
	"github.com/google/uuid"

	"tale-server/internal/models"
	"tale-server/internal/parser"
)

// --- Request/Response Structs ---

type createStoryRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Audience    models.AudienceType  `json:"audience"`
	Genre       models.Genre         `json:"genre"`
	Skeleton    parser.StorySkeleton `json:"skeleton"`
}

type updateStoryRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type revertRequest struct {
	Version int `json:"version"`
}

type generateImagesRequest struct {
	SceneID    *uuid.UUID `json:"scene_id,omitempty"`
	Regenerate bool       `json:"regenerate,omitempty"`
	// Async=true ставит задачу в очередь вместо синхронной генерации
	Async bool `json:"async,omitempty"`
}

type taskQueuedResponse struct {
	TaskID  string `json:"task_id"`
	Message string `json:"message"`
}
