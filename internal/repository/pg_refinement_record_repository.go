package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"tale-server/internal/models"
)

var _ RefinementRecordRepository = (*pgRefinementRecordRepository)(nil)

type pgRefinementRecordRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgRefinementRecordRepository creates a Postgres-backed append-only
// refinement log.
func NewPgRefinementRecordRepository(db DBTX, logger *zap.Logger) RefinementRecordRepository {
	return &pgRefinementRecordRepository{
		db:     db,
		logger: logger.Named("PgRefinementRecordRepo"),
	}
}

type refinementRecordRow struct {
	ID           uuid.UUID  `db:"id"`
	StoryID      uuid.UUID  `db:"story_id"`
	SceneID      *uuid.UUID `db:"scene_id"`
	Type         string     `db:"refinement_type"`
	Instructions string     `db:"instructions"`
	Before       []byte     `db:"before_scenes"`
	After        []byte     `db:"after_scenes"`
	CreatedAt    time.Time  `db:"created_at"`
}

const createRefinementRecordQuery = `
INSERT INTO refinement_records (
	id, story_id, scene_id, refinement_type, instructions,
	before_scenes, after_scenes, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

const listRefinementRecordsQuery = `
SELECT id, story_id, scene_id, refinement_type, instructions,
	before_scenes, after_scenes, created_at
FROM refinement_records
WHERE story_id = $1
ORDER BY created_at ASC`

// Create appends an immutable refinement record.
func (r *pgRefinementRecordRepository) Create(ctx context.Context, record *models.RefinementRecord) error {
	before, err := json.Marshal(record.Before)
	if err != nil {
		return fmt.Errorf("failed to marshal before snapshot: %w", err)
	}
	after, err := json.Marshal(record.After)
	if err != nil {
		return fmt.Errorf("failed to marshal after snapshot: %w", err)
	}

	_, err = querier(ctx, r.db).Exec(ctx, createRefinementRecordQuery,
		record.ID, record.StoryID, record.SceneID, string(record.Type),
		record.Instructions, before, after, record.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create refinement record",
			zap.String("story_id", record.StoryID.String()), zap.Error(err))
		return fmt.Errorf("failed to insert refinement record: %w", err)
	}
	return nil
}

// ListByStory returns a story's refinement log in chronological order.
func (r *pgRefinementRecordRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.RefinementRecord, error) {
	var rows []refinementRecordRow
	if err := pgxscan.Select(ctx, querier(ctx, r.db), &rows, listRefinementRecordsQuery, storyID); err != nil {
		r.logger.Error("Failed to list refinement records",
			zap.String("story_id", storyID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to list refinement records: %w", err)
	}

	records := make([]models.RefinementRecord, 0, len(rows))
	for _, row := range rows {
		record := models.RefinementRecord{
			ID:           row.ID,
			StoryID:      row.StoryID,
			SceneID:      row.SceneID,
			Type:         models.RefinementType(row.Type),
			Instructions: row.Instructions,
			CreatedAt:    row.CreatedAt,
		}
		if err := json.Unmarshal(row.Before, &record.Before); err != nil {
			return nil, fmt.Errorf("failed to unmarshal before snapshot: %w", err)
		}
		if err := json.Unmarshal(row.After, &record.After); err != nil {
			return nil, fmt.Errorf("failed to unmarshal after snapshot: %w", err)
		}
		records = append(records, record)
	}
	return records, nil
}
