package messaging

import "github.com/google/uuid"

// SceneImageTaskQueueName is the default queue for image backfill tasks.
const SceneImageTaskQueueName = "scene_image_tasks_queue"

// SceneImageTaskPayload is one queued image backfill request. SceneID nil
// means "all scenes of the story".
type SceneImageTaskPayload struct {
	TaskID     string     `json:"task_id"`
	StoryID    uuid.UUID  `json:"story_id"`
	UserID     uuid.UUID  `json:"user_id"`
	SceneID    *uuid.UUID `json:"scene_id,omitempty"`
	Regenerate bool       `json:"regenerate,omitempty"`
}
