package models

import (
	"time"

	"github.com/google/uuid"
)

// ImageType различает обложку и иллюстрацию сцены.
type ImageType string

const (
	ImageTypeCover ImageType = "cover"
	ImageTypeScene ImageType = "scene"
)

// ImageArtifact is a generated image stored for a story. It references the
// story and scene by id only; the story side keeps a weak reference back
// via Scene.ImageID / Story.CoverImageID.
type ImageArtifact struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	StoryID   uuid.UUID  `json:"story_id" db:"story_id"`
	SceneID   *uuid.UUID `json:"scene_id,omitempty" db:"scene_id"` // nil = cover image
	Type      ImageType  `json:"type" db:"image_type"`
	Data      []byte     `json:"-" db:"data"`
	Prompt    string     `json:"prompt" db:"prompt"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
