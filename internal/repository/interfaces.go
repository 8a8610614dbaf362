package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"tale-server/internal/models"
)

// DBTX абстрагирует pgxpool.Pool и pgx.Tx, чтобы репозитории могли работать
// как с пулом, так и внутри транзакции.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxManager runs a function with every repository call inside a single
// database transaction. Writes that must land together (the optimistic story
// update and its audit record) go through this.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error
}

// StoryRepository stores and retrieves story aggregates. Load and save are
// assumed atomic from the core's perspective.
type StoryRepository interface {
	Create(ctx context.Context, story *models.Story) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Story, error)
	// Update persists the story only if its stored version still equals
	// expectedVersion; otherwise it returns *models.ConflictError with the
	// actual version.
	Update(ctx context.Context, story *models.Story, expectedVersion int) error
}

// RefinementRecordRepository is the append-only audit log of refinements.
// Records are immutable: there is deliberately no update or delete.
type RefinementRecordRepository interface {
	Create(ctx context.Context, record *models.RefinementRecord) error
	ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.RefinementRecord, error)
}

// ImageArtifactRepository stores generated images.
type ImageArtifactRepository interface {
	Create(ctx context.Context, artifact *models.ImageArtifact) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ImageArtifact, error)
	ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.ImageArtifact, error)
}
