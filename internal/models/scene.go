package models

import (
	"strings"

	"github.com/google/uuid"
)

// SceneType определяет драматургическую роль сцены внутри истории.
type SceneType string

const (
	SceneIntroduction  SceneType = "introduction"
	SceneRisingAction  SceneType = "rising_action"
	SceneClimax        SceneType = "climax"
	SceneFallingAction SceneType = "falling_action"
	SceneConclusion    SceneType = "conclusion"
)

// readingSpeedWPM is the fixed words-per-minute rate used for the derived
// reading-time estimate.
const readingSpeedWPM = 200

// Scene is one addressable narrative unit within a story.
//
// WordCount and ReadingTimeSeconds are derived from Content and are never
// set independently: every content change must go through SetContent.
type Scene struct {
	ID                 uuid.UUID  `json:"id"`
	Number             int        `json:"number"`
	Type               SceneType  `json:"type"`
	Title              string     `json:"title"`
	Content            string     `json:"content"`
	ImagePrompt        string     `json:"image_prompt,omitempty"`
	ImageID            *uuid.UUID `json:"image_id,omitempty"`
	CharactersPresent  []string   `json:"characters_present,omitempty"`
	WordCount          int        `json:"word_count"`
	ReadingTimeSeconds int        `json:"reading_time_seconds"`
}

// SetContent replaces the scene text and recomputes the derived metadata.
func (s *Scene) SetContent(content string) {
	s.Content = content
	s.WordCount = CountWords(content)
	s.ReadingTimeSeconds = EstimateReadingTimeSeconds(s.WordCount)
}

// Clone returns a deep copy of the scene.
func (s Scene) Clone() Scene {
	out := s
	if s.ImageID != nil {
		id := *s.ImageID
		out.ImageID = &id
	}
	if s.CharactersPresent != nil {
		out.CharactersPresent = append([]string(nil), s.CharactersPresent...)
	}
	return out
}

// CountWords counts whitespace-delimited tokens.
func CountWords(content string) int {
	return len(strings.Fields(content))
}

// EstimateReadingTimeSeconds converts a word count to seconds at 200 wpm.
// The result is floored, not rounded; integer division does exactly that.
func EstimateReadingTimeSeconds(wordCount int) int {
	return wordCount * 60 / readingSpeedWPM
}
