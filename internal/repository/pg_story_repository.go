package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"tale-server/internal/models"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ StoryRepository = (*pgStoryRepository)(nil)

type pgStoryRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgStoryRepository creates a Postgres-backed StoryRepository.
func NewPgStoryRepository(db DBTX, logger *zap.Logger) StoryRepository {
	return &pgStoryRepository{
		db:     db,
		logger: logger.Named("PgStoryRepo"),
	}
}

// storyRow is the flat DB shape; the owned collections live in JSONB columns
// so the aggregate is written and read atomically in one row.
type storyRow struct {
	ID              uuid.UUID  `db:"id"`
	OwnerID         uuid.UUID  `db:"owner_id"`
	Title           string     `db:"title"`
	Description     string     `db:"description"`
	Audience        string     `db:"audience"`
	Genre           string     `db:"genre"`
	Status          string     `db:"status"`
	CoverImageID    *uuid.UUID `db:"cover_image_id"`
	Version         int        `db:"version"`
	RefinementCount int        `db:"refinement_count"`
	Scenes          []byte     `db:"scenes"`
	InitialScenes   []byte     `db:"initial_scenes"`
	VersionHistory  []byte     `db:"version_history"`
	CreatedAt       time.Time  `db:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"`
}

const createStoryQuery = `
INSERT INTO stories (
	id, owner_id, title, description, audience, genre, status,
	cover_image_id, version, refinement_count,
	scenes, initial_scenes, version_history, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

const getStoryByIDQuery = `
SELECT id, owner_id, title, description, audience, genre, status,
	cover_image_id, version, refinement_count,
	scenes, initial_scenes, version_history, created_at, updated_at
FROM stories
WHERE id = $1`

const listStoriesByOwnerQuery = `
SELECT id, owner_id, title, description, audience, genre, status,
	cover_image_id, version, refinement_count,
	scenes, initial_scenes, version_history, created_at, updated_at
FROM stories
WHERE owner_id = $1
ORDER BY created_at DESC`

const updateStoryQuery = `
UPDATE stories SET
	title = $2, description = $3, status = $4, cover_image_id = $5,
	version = $6, refinement_count = $7,
	scenes = $8, version_history = $9, updated_at = $10
WHERE id = $1 AND version = $11`

const getStoryVersionQuery = `SELECT version FROM stories WHERE id = $1`

// Create inserts a new story aggregate.
func (r *pgStoryRepository) Create(ctx context.Context, story *models.Story) error {
	row, err := marshalStory(story)
	if err != nil {
		return err
	}
	_, err = querier(ctx, r.db).Exec(ctx, createStoryQuery,
		row.ID, row.OwnerID, row.Title, row.Description, row.Audience, row.Genre, row.Status,
		row.CoverImageID, row.Version, row.RefinementCount,
		row.Scenes, row.InitialScenes, row.VersionHistory, row.CreatedAt, row.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create story", zap.String("story_id", story.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to insert story: %w", err)
	}
	r.logger.Debug("Story created", zap.String("story_id", story.ID.String()))
	return nil
}

// GetByID loads a story aggregate, including its scenes and history.
func (r *pgStoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	var row storyRow
	err := pgxscan.Get(ctx, querier(ctx, r.db), &row, getStoryByIDQuery, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrStoryNotFound
		}
		r.logger.Error("Failed to get story", zap.String("story_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to query story %s: %w", id, err)
	}
	return unmarshalStory(&row)
}

// ListByOwner returns all stories for the given owner, newest first.
func (r *pgStoryRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Story, error) {
	var rows []storyRow
	if err := pgxscan.Select(ctx, querier(ctx, r.db), &rows, listStoriesByOwnerQuery, ownerID); err != nil {
		r.logger.Error("Failed to list stories", zap.String("owner_id", ownerID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}
	stories := make([]models.Story, 0, len(rows))
	for i := range rows {
		story, err := unmarshalStory(&rows[i])
		if err != nil {
			return nil, err
		}
		stories = append(stories, *story)
	}
	return stories, nil
}

// Update writes the story back only if the stored version still equals
// expectedVersion. A lost check returns *models.ConflictError with the
// actual version so the caller can retry with fresh state.
func (r *pgStoryRepository) Update(ctx context.Context, story *models.Story, expectedVersion int) error {
	row, err := marshalStory(story)
	if err != nil {
		return err
	}
	tag, err := querier(ctx, r.db).Exec(ctx, updateStoryQuery,
		row.ID, row.Title, row.Description, row.Status, row.CoverImageID,
		row.Version, row.RefinementCount,
		row.Scenes, row.VersionHistory, row.UpdatedAt,
		expectedVersion,
	)
	if err != nil {
		r.logger.Error("Failed to update story", zap.String("story_id", story.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to update story: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var actual int
		err := querier(ctx, r.db).QueryRow(ctx, getStoryVersionQuery, story.ID).Scan(&actual)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return models.ErrStoryNotFound
			}
			return fmt.Errorf("failed to read story version after conflict: %w", err)
		}
		r.logger.Warn("Story update lost optimistic version check",
			zap.String("story_id", story.ID.String()),
			zap.Int("expected", expectedVersion),
			zap.Int("actual", actual))
		return &models.ConflictError{ExpectedVersion: expectedVersion, ActualVersion: actual}
	}
	return nil
}

func marshalStory(story *models.Story) (*storyRow, error) {
	scenes, err := json.Marshal(story.Scenes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scenes: %w", err)
	}
	initial, err := json.Marshal(story.InitialScenes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal initial scenes: %w", err)
	}
	history, err := json.Marshal(story.VersionHistory)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal version history: %w", err)
	}
	return &storyRow{
		ID:              story.ID,
		OwnerID:         story.OwnerID,
		Title:           story.Title,
		Description:     story.Description,
		Audience:        string(story.Audience),
		Genre:           string(story.Genre),
		Status:          string(story.Status),
		CoverImageID:    story.CoverImageID,
		Version:         story.Version,
		RefinementCount: story.RefinementCount,
		Scenes:          scenes,
		InitialScenes:   initial,
		VersionHistory:  history,
		CreatedAt:       story.CreatedAt,
		UpdatedAt:       story.UpdatedAt,
	}, nil
}

func unmarshalStory(row *storyRow) (*models.Story, error) {
	story := &models.Story{
		ID:              row.ID,
		OwnerID:         row.OwnerID,
		Title:           row.Title,
		Description:     row.Description,
		Audience:        models.AudienceType(row.Audience),
		Genre:           models.Genre(row.Genre),
		Status:          models.StoryStatus(row.Status),
		CoverImageID:    row.CoverImageID,
		Version:         row.Version,
		RefinementCount: row.RefinementCount,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	if err := json.Unmarshal(row.Scenes, &story.Scenes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scenes: %w", err)
	}
	if err := json.Unmarshal(row.InitialScenes, &story.InitialScenes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal initial scenes: %w", err)
	}
	if err := json.Unmarshal(row.VersionHistory, &story.VersionHistory); err != nil {
		return nil, fmt.Errorf("failed to unmarshal version history: %w", err)
	}
	return story, nil
}
