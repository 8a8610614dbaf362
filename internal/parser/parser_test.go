package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"tale-server/internal/models"
	"tale-server/internal/parser"
)

func fullSkeleton() parser.StorySkeleton {
	return parser.StorySkeleton{
		Introduction: &parser.Section{Text: "Once upon a time in a quiet village", Characters: []string{"Mila"}},
		SettingOut:   &parser.Section{Text: "Mila left home at dawn", Characters: []string{"Mila"}},
		Tests: []parser.Test{
			{Name: "The River", Text: "The river was wide and cold", Characters: []string{"Mila", "Ferryman"}},
			{Text: "A wolf blocked the path", Characters: []string{"Mila", "Wolf"}},
		},
		Climax:     &parser.Section{Text: "Mila faced the storm alone", Characters: []string{"Mila"}},
		Conclusion: &parser.Section{Text: "She returned home wiser", Characters: []string{"Mila"}},
	}
}

func TestParse(t *testing.T) {
	t.Run("Full skeleton produces sequential scenes in narrative order", func(t *testing.T) {
		scenes := parser.Parse(fullSkeleton())

		assert.Len(t, scenes, 6)
		for i, scene := range scenes {
			assert.Equal(t, i+1, scene.Number)
			assert.NotEqual(t, "", scene.ID.String())
		}
		assert.Equal(t, models.SceneIntroduction, scenes[0].Type)
		assert.Equal(t, "Introduction", scenes[0].Title)
		assert.Equal(t, models.SceneRisingAction, scenes[1].Type)
		assert.Equal(t, "Setting Out", scenes[1].Title)
		assert.Equal(t, "The River", scenes[2].Title)
		assert.Equal(t, models.SceneClimax, scenes[4].Type)
		assert.Equal(t, models.SceneConclusion, scenes[5].Type)
	})

	t.Run("Unnamed test gets fallback title by position", func(t *testing.T) {
		scenes := parser.Parse(fullSkeleton())
		assert.Equal(t, "Challenge 2", scenes[3].Title)
	})

	t.Run("Absent sections leave no gaps in numbering", func(t *testing.T) {
		skeleton := parser.StorySkeleton{
			Introduction: &parser.Section{Text: "A beginning"},
			Conclusion:   &parser.Section{Text: "An end"},
		}
		scenes := parser.Parse(skeleton)

		assert.Len(t, scenes, 2)
		assert.Equal(t, 1, scenes[0].Number)
		assert.Equal(t, 2, scenes[1].Number)
		assert.Equal(t, models.SceneConclusion, scenes[1].Type)
	})

	t.Run("Empty skeleton yields no scenes", func(t *testing.T) {
		scenes := parser.Parse(parser.StorySkeleton{})
		assert.Empty(t, scenes)
	})

	t.Run("Present but empty section yields zero-word scene", func(t *testing.T) {
		scenes := parser.Parse(parser.StorySkeleton{Climax: &parser.Section{Text: ""}})

		assert.Len(t, scenes, 1)
		assert.Equal(t, 0, scenes[0].WordCount)
		assert.Equal(t, 0, scenes[0].ReadingTimeSeconds)
	})

	t.Run("Derived metadata is computed from content", func(t *testing.T) {
		skeleton := parser.StorySkeleton{
			Introduction: &parser.Section{Text: "one two three four five six seven eight nine ten"},
		}
		scenes := parser.Parse(skeleton)

		assert.Equal(t, 10, scenes[0].WordCount)
		// 10 слов при 200 wpm = 3 секунды, дробная часть отбрасывается
		assert.Equal(t, 3, scenes[0].ReadingTimeSeconds)
	})
}

func TestEstimateReadingTimeSeconds(t *testing.T) {
	assert.Equal(t, 0, models.EstimateReadingTimeSeconds(0))
	assert.Equal(t, 0, models.EstimateReadingTimeSeconds(3))
	assert.Equal(t, 3, models.EstimateReadingTimeSeconds(10))
	assert.Equal(t, 60, models.EstimateReadingTimeSeconds(200))
	assert.Equal(t, 74, models.EstimateReadingTimeSeconds(249))
}

func TestAssignImagePrompts(t *testing.T) {
	pctx := parser.PromptContext{StoryTitle: "The Long Road", Genre: models.GenreAdventure}

	t.Run("Every scene receives a prompt", func(t *testing.T) {
		scenes := parser.Parse(fullSkeleton())
		parser.AssignImagePrompts(scenes, pctx)

		for _, scene := range scenes {
			assert.NotEmpty(t, scene.ImagePrompt)
			assert.Contains(t, scene.ImagePrompt, "adventure")
		}
		assert.Contains(t, scenes[0].ImagePrompt, "Establishing shot")
		assert.Contains(t, scenes[4].ImagePrompt, "Dramatic action")
	})

	t.Run("Re-running the pass is idempotent", func(t *testing.T) {
		scenes := parser.Parse(fullSkeleton())
		parser.AssignImagePrompts(scenes, pctx)
		first := make([]string, len(scenes))
		for i, scene := range scenes {
			first[i] = scene.ImagePrompt
		}

		parser.AssignImagePrompts(scenes, pctx)
		for i, scene := range scenes {
			assert.Equal(t, first[i], scene.ImagePrompt)
		}
	})
}
