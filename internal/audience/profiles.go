// Package audience holds the static per-audience content profiles used to
// parameterize prompt construction. The table is immutable configuration:
// profiles are looked up by value and never persisted per story.
package audience

import "tale-server/internal/models"

// Profile describes the content constraints for one target audience.
type Profile struct {
	MaxWordCount          int
	VocabularyLevel       string
	SentenceLength        string
	Themes                []string
	Complexity            string
	IllustrationsPerScene int
	// IllustrationStyle seeds image prompts for stories aimed at this
	// audience.
	IllustrationStyle string
}

var profiles = map[models.AudienceType]Profile{
	models.AudiencePreschool: {
		MaxWordCount:          300,
		VocabularyLevel:       "basic",
		SentenceLength:        "very short",
		Themes:                []string{"friendship", "family", "animals", "colors"},
		Complexity:            "single storyline",
		IllustrationsPerScene: 2,
		IllustrationStyle:     "bright, soft, rounded shapes, picture-book style",
	},
	models.AudienceEarlyReader: {
		MaxWordCount:          800,
		VocabularyLevel:       "simple",
		SentenceLength:        "short",
		Themes:                []string{"friendship", "adventure", "school", "kindness"},
		Complexity:            "single storyline with one twist",
		IllustrationsPerScene: 1,
		IllustrationStyle:     "colorful, cheerful, storybook illustration",
	},
	models.AudienceMiddleGrade: {
		MaxWordCount:          2000,
		VocabularyLevel:       "moderate",
		SentenceLength:        "medium",
		Themes:                []string{"adventure", "courage", "mystery", "friendship"},
		Complexity:            "main plot with a subplot",
		IllustrationsPerScene: 1,
		IllustrationStyle:     "detailed, adventurous, middle-grade novel illustration",
	},
	models.AudienceYoungAdult: {
		MaxWordCount:          4000,
		VocabularyLevel:       "advanced",
		SentenceLength:        "varied",
		Themes:                []string{"identity", "relationships", "conflict", "growth"},
		Complexity:            "layered plot",
		IllustrationsPerScene: 0,
		IllustrationStyle:     "moody, cinematic, young-adult cover art",
	},
	models.AudienceAdult: {
		MaxWordCount:          6000,
		VocabularyLevel:       "rich",
		SentenceLength:        "varied",
		Themes:                []string{"ambition", "morality", "loss", "redemption"},
		Complexity:            "multi-threaded plot",
		IllustrationsPerScene: 0,
		IllustrationStyle:     "realistic, atmospheric, literary cover art",
	},
}

// ProfileFor returns the profile for the given audience type. An unknown
// audience falls back to the middle-grade tier; this is the documented
// default, not an error path.
func ProfileFor(t models.AudienceType) Profile {
	if p, ok := profiles[t]; ok {
		return p
	}
	return profiles[models.AudienceMiddleGrade]
}
