package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"tale-server/internal/models"
)

var _ ImageArtifactRepository = (*pgImageArtifactRepository)(nil)

type pgImageArtifactRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgImageArtifactRepository creates a Postgres-backed artifact store.
func NewPgImageArtifactRepository(db DBTX, logger *zap.Logger) ImageArtifactRepository {
	return &pgImageArtifactRepository{
		db:     db,
		logger: logger.Named("PgImageArtifactRepo"),
	}
}

const createImageArtifactQuery = `
INSERT INTO image_artifacts (id, story_id, scene_id, image_type, data, prompt, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const getImageArtifactByIDQuery = `
SELECT id, story_id, scene_id, image_type, data, prompt, created_at
FROM image_artifacts
WHERE id = $1`

const listImageArtifactsQuery = `
SELECT id, story_id, scene_id, image_type, data, prompt, created_at
FROM image_artifacts
WHERE story_id = $1
ORDER BY created_at ASC`

// Create stores a generated image.
func (r *pgImageArtifactRepository) Create(ctx context.Context, artifact *models.ImageArtifact) error {
	_, err := querier(ctx, r.db).Exec(ctx, createImageArtifactQuery,
		artifact.ID, artifact.StoryID, artifact.SceneID,
		string(artifact.Type), artifact.Data, artifact.Prompt, artifact.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create image artifact",
			zap.String("story_id", artifact.StoryID.String()), zap.Error(err))
		return fmt.Errorf("failed to insert image artifact: %w", err)
	}
	r.logger.Debug("Image artifact created",
		zap.String("artifact_id", artifact.ID.String()),
		zap.Int("size_bytes", len(artifact.Data)))
	return nil
}

// GetByID fetches one artifact with its payload.
func (r *pgImageArtifactRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ImageArtifact, error) {
	artifact := &models.ImageArtifact{}
	var imageType string
	err := querier(ctx, r.db).QueryRow(ctx, getImageArtifactByIDQuery, id).Scan(
		&artifact.ID, &artifact.StoryID, &artifact.SceneID,
		&imageType, &artifact.Data, &artifact.Prompt, &artifact.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrImageNotFound
		}
		r.logger.Error("Failed to get image artifact", zap.String("artifact_id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to query image artifact %s: %w", id, err)
	}
	artifact.Type = models.ImageType(imageType)
	return artifact, nil
}

// ListByStory returns all artifacts of a story, oldest first.
func (r *pgImageArtifactRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.ImageArtifact, error) {
	var rows []models.ImageArtifact
	if err := pgxscan.Select(ctx, querier(ctx, r.db), &rows, listImageArtifactsQuery, storyID); err != nil {
		r.logger.Error("Failed to list image artifacts",
			zap.String("story_id", storyID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list image artifacts: %w", err)
	}
	return rows, nil
}
