package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"tale-server/internal/models"
)

// Mock TxManager. После проверки ожиданий выполняет колбэк на месте, без
// настоящей транзакции, чтобы вложенные вызовы репозиториев были видны
// их собственным мокам.
type TxManager struct {
	mock.Mock
}

func (m *TxManager) WithinTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	args := m.Called(ctx, fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}

// Mock StoryRepository
type StoryRepository struct {
	mock.Mock
}

func (m *StoryRepository) Create(ctx context.Context, story *models.Story) error {
	args := m.Called(ctx, story)
	return args.Error(0)
}
func (m *StoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Story, error) {
	args := m.Called(ctx, id)
	story, _ := args.Get(0).(*models.Story)
	return story, args.Error(1)
}
func (m *StoryRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Story, error) {
	args := m.Called(ctx, ownerID)
	stories, _ := args.Get(0).([]models.Story)
	return stories, args.Error(1)
}
func (m *StoryRepository) Update(ctx context.Context, story *models.Story, expectedVersion int) error {
	args := m.Called(ctx, story, expectedVersion)
	return args.Error(0)
}

// Mock RefinementRecordRepository
type RefinementRecordRepository struct {
	mock.Mock
}

func (m *RefinementRecordRepository) Create(ctx context.Context, record *models.RefinementRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}
func (m *RefinementRecordRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.RefinementRecord, error) {
	args := m.Called(ctx, storyID)
	records, _ := args.Get(0).([]models.RefinementRecord)
	return records, args.Error(1)
}

// Mock ImageArtifactRepository
type ImageArtifactRepository struct {
	mock.Mock
}

func (m *ImageArtifactRepository) Create(ctx context.Context, artifact *models.ImageArtifact) error {
	args := m.Called(ctx, artifact)
	return args.Error(0)
}
func (m *ImageArtifactRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ImageArtifact, error) {
	args := m.Called(ctx, id)
	artifact, _ := args.Get(0).(*models.ImageArtifact)
	return artifact, args.Error(1)
}
func (m *ImageArtifactRepository) ListByStory(ctx context.Context, storyID uuid.UUID) ([]models.ImageArtifact, error) {
	args := m.Called(ctx, storyID)
	artifacts, _ := args.Get(0).([]models.ImageArtifact)
	return artifacts, args.Error(1)
}
