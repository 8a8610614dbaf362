package models

import (
	"time"

	"github.com/google/uuid"
)

// StoryStatus отражает жизненный цикл истории.
// Совпадает с типом ENUM 'story_status' в БД.
type StoryStatus string

const (
	StoryStatusDraft     StoryStatus = "draft"     // Создана, контент еще не распарсен
	StoryStatusGenerated StoryStatus = "generated" // Сцены распарсены, доступны уточнения
	StoryStatusFinalized StoryStatus = "finalized" // Автор зафиксировал историю
)

// AudienceType определяет целевую аудиторию истории.
type AudienceType string

const (
	AudiencePreschool   AudienceType = "preschool"
	AudienceEarlyReader AudienceType = "early_reader"
	AudienceMiddleGrade AudienceType = "middle_grade"
	AudienceYoungAdult  AudienceType = "young_adult"
	AudienceAdult       AudienceType = "adult"
)

// Genre определяет жанр истории.
type Genre string

const (
	GenreAdventure      Genre = "adventure"
	GenreFantasy        Genre = "fantasy"
	GenreFairyTale      Genre = "fairy_tale"
	GenreMystery        Genre = "mystery"
	GenreScienceFiction Genre = "science_fiction"
)

// ChangeType indicates which operation produced a version transition.
type ChangeType string

const (
	ChangeSceneRefinement ChangeType = "scene_refinement"
	ChangeStoryRefinement ChangeType = "story_refinement"
	ChangeRevert          ChangeType = "revert"
)

// VersionHistoryEntry is an append-only audit record of one version
// transition. It carries a full snapshot of the scene collection as of the
// version it records, so any committed version can be restored later.
type VersionHistoryEntry struct {
	Version        int             `json:"version"`
	Timestamp      time.Time       `json:"timestamp"`
	ChangeType     ChangeType      `json:"change_type"`
	SceneID        *uuid.UUID      `json:"scene_id,omitempty"`
	RefinementType *RefinementType `json:"refinement_type,omitempty"`
	RevertedTo     *int            `json:"reverted_to,omitempty"`
	Scenes         []Scene         `json:"scenes"`
}

// Story is the aggregate root. It exclusively owns its scene list and its
// version history; records and artifacts reference it by id only.
//
// Invariants maintained by the service layer:
//   - Version increments by exactly 1 per committed mutating operation.
//   - RefinementCount equals the number of RefinementRecords for the story.
//   - len(VersionHistory) == Version - 1 (history records transitions).
type Story struct {
	ID              uuid.UUID    `json:"id" db:"id"`
	OwnerID         uuid.UUID    `json:"owner_id" db:"owner_id"`
	Title           string       `json:"title" db:"title"`
	Description     string       `json:"description" db:"description"`
	Audience        AudienceType `json:"audience" db:"audience"`
	Genre           Genre        `json:"genre" db:"genre"`
	Status          StoryStatus  `json:"status" db:"status"`
	CoverImageID    *uuid.UUID   `json:"cover_image_id,omitempty" db:"cover_image_id"`
	Version         int          `json:"version" db:"version"`
	RefinementCount int          `json:"refinement_count" db:"refinement_count"`

	// Scenes is the current, ordered scene collection.
	Scenes []Scene `json:"scenes" db:"-"`
	// InitialScenes is the collection as parsed at creation time; it is the
	// snapshot behind a revert to version 1.
	InitialScenes []Scene `json:"initial_scenes" db:"-"`
	// VersionHistory records every transition since version 1.
	VersionHistory []VersionHistoryEntry `json:"version_history" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// SceneByID returns a pointer into Scenes, or nil if the id is unknown.
func (s *Story) SceneByID(sceneID uuid.UUID) *Scene {
	for i := range s.Scenes {
		if s.Scenes[i].ID == sceneID {
			return &s.Scenes[i]
		}
	}
	return nil
}

// SnapshotScenes returns a deep copy of the current scene collection,
// safe to store in history entries and refinement records.
func (s *Story) SnapshotScenes() []Scene {
	return CloneScenes(s.Scenes)
}

// CloneScenes deep-copies a scene slice, including pointer and slice fields.
func CloneScenes(scenes []Scene) []Scene {
	if scenes == nil {
		return nil
	}
	out := make([]Scene, len(scenes))
	for i, sc := range scenes {
		out[i] = sc.Clone()
	}
	return out
}
