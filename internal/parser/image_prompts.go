package parser

import (
	"fmt"

	"tale-server/internal/models"
)

// promptStylePrefix is prepended to every generated scene prompt.
const promptStylePrefix = "Storybook illustration, consistent character design"

// promptSeedLimit caps how much scene text seeds the prompt.
const promptSeedLimit = 100

// PromptContext carries the story-level attributes used when building scene
// image prompts.
type PromptContext struct {
	StoryTitle string
	Genre      models.Genre
}

// AssignImagePrompts fills each scene's ImagePrompt from a per-type template
// seeded with the opening of the scene's content. The pass is deterministic
// and idempotent: re-running it produces identical prompts.
func AssignImagePrompts(scenes []models.Scene, pctx PromptContext) {
	for i := range scenes {
		scenes[i].ImagePrompt = buildScenePrompt(&scenes[i], pctx)
	}
}

func buildScenePrompt(scene *models.Scene, pctx PromptContext) string {
	seed := scene.Content
	if len(seed) > promptSeedLimit {
		seed = seed[:promptSeedLimit]
	}

	switch scene.Type {
	case models.SceneIntroduction:
		return fmt.Sprintf("%s, %s. Establishing shot opening the story %q: %s",
			promptStylePrefix, pctx.Genre, pctx.StoryTitle, seed)
	case models.SceneClimax:
		return fmt.Sprintf("%s, %s. Dramatic action at the peak of %q: %s",
			promptStylePrefix, pctx.Genre, pctx.StoryTitle, seed)
	default:
		return fmt.Sprintf("%s, %s. Scene %q from %q: %s",
			promptStylePrefix, pctx.Genre, scene.Title, pctx.StoryTitle, seed)
	}
}
