// Package parser converts a raw narrative skeleton into the ordered scene
// collection owned by a story. Parsing happens once, at content creation;
// the image-prompt pass may be re-run safely at any time.
package parser

import (
	"fmt"

	"github.com/google/uuid"

	"tale-server/internal/models"
)

// Parse walks the skeleton's sections in the fixed narrative order
// [introduction, setting_out, tests..., climax, conclusion] and emits one
// scene per present section. Scene numbers are sequential from 1 with no
// gaps; absent sections are not padded with placeholders.
func Parse(skeleton StorySkeleton) []models.Scene {
	var scenes []models.Scene

	appendScene := func(t models.SceneType, title, text string, characters []string) {
		scene := models.Scene{
			ID:                uuid.New(),
			Number:            len(scenes) + 1,
			Type:              t,
			Title:             title,
			CharactersPresent: append([]string(nil), characters...),
		}
		scene.SetContent(text)
		scenes = append(scenes, scene)
	}

	if s := skeleton.Introduction; s != nil {
		appendScene(models.SceneIntroduction, "Introduction", s.Text, s.Characters)
	}
	if s := skeleton.SettingOut; s != nil {
		appendScene(models.SceneRisingAction, "Setting Out", s.Text, s.Characters)
	}
	for i, test := range skeleton.Tests {
		title := test.Name
		if title == "" {
			title = fmt.Sprintf("Challenge %d", i+1)
		}
		appendScene(models.SceneRisingAction, title, test.Text, test.Characters)
	}
	if s := skeleton.Climax; s != nil {
		appendScene(models.SceneClimax, "Climax", s.Text, s.Characters)
	}
	if s := skeleton.Conclusion; s != nil {
		appendScene(models.SceneConclusion, "Conclusion", s.Text, s.Characters)
	}

	return scenes
}
