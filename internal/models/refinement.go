package models

import (
	"time"

	"github.com/google/uuid"
)

// RefinementType перечисляет поддерживаемые виды уточнений.
type RefinementType string

const (
	RefinementSimplifyLanguage    RefinementType = "simplify_language"
	RefinementAddMoreAction       RefinementType = "add_more_action"
	RefinementIncreaseDialogue    RefinementType = "increase_dialogue"
	RefinementEnhanceDescriptions RefinementType = "enhance_descriptions"
	RefinementStrengthenMoral     RefinementType = "strengthen_moral"
	RefinementAddHumor            RefinementType = "add_humor"
	RefinementIncreaseSuspense    RefinementType = "increase_suspense"
	RefinementCustom              RefinementType = "custom"
)

// Valid reports whether t is one of the enumerated refinement types.
func (t RefinementType) Valid() bool {
	switch t {
	case RefinementSimplifyLanguage, RefinementAddMoreAction,
		RefinementIncreaseDialogue, RefinementEnhanceDescriptions,
		RefinementStrengthenMoral, RefinementAddHumor,
		RefinementIncreaseSuspense, RefinementCustom:
		return true
	}
	return false
}

// LengthPreference controls the length clause of the directive.
type LengthPreference string

const (
	LengthShorter LengthPreference = "shorter"
	LengthSame    LengthPreference = "same"
	LengthLonger  LengthPreference = "longer"
)

// RefinementRequest is the caller's typed description of a transformation.
type RefinementRequest struct {
	Type               RefinementType   `json:"type"`
	CustomInstructions string           `json:"custom_instructions,omitempty"`
	PreserveElements   []string         `json:"preserve_elements,omitempty"`
	Length             LengthPreference `json:"length,omitempty"`
}

// RefinementRecord is an immutable audit entry for one applied refinement.
// Before/After hold full snapshots of the affected scene(s), so the record
// preserves image links and prompts alongside the text.
type RefinementRecord struct {
	ID           uuid.UUID      `json:"id" db:"id"`
	StoryID      uuid.UUID      `json:"story_id" db:"story_id"`
	SceneID      *uuid.UUID     `json:"scene_id,omitempty" db:"scene_id"` // nil = whole-story operation
	Type         RefinementType `json:"type" db:"refinement_type"`
	Instructions string         `json:"instructions" db:"instructions"`
	Before       []Scene        `json:"before" db:"-"`
	After        []Scene        `json:"after" db:"-"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
}
