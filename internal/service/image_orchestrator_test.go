package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"tale-server/internal/models"
	"tale-server/internal/service"
)

func TestGenerateSceneImages(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()

	t.Run("Full batch generates one image per scene in order", func(t *testing.T) {
		env := newTestEnv()
		story := testStory(ownerID)

		env.stories.On("GetByID", ctx, story.ID).Return(story, nil).Once()
		env.images.On("Generate", ctx, mock.Anything).Return([]byte("png"), nil).Times(3)
		env.artifacts.On("Create", ctx, mock.Anything).Return(nil).Times(3)
		env.pacer.On("Pause", ctx).Return(nil).Times(2) // между вызовами, не перед первым
		env.stories.On("Update", ctx, story, 1).Return(nil).Once()

		report, err := env.svc.GenerateSceneImages(ctx, story.ID, ownerID, service.ImageBatchOptions{})

		assert.NoError(t, err)
		assert.Len(t, report.Generated, 3)
		assert.Empty(t, report.Skipped)
		assert.Empty(t, report.Failed)
		for i, res := range report.Generated {
			assert.Equal(t, i+1, res.SceneNumber)
			assert.NotEmpty(t, res.Prompt)
		}
		// Привязка изображений не двигает версию
		assert.Equal(t, 1, story.Version)
		assert.Empty(t, story.VersionHistory)
		for i := range story.Scenes {
			assert.NotNil(t, story.Scenes[i].ImageID)
		}
		env.pacer.AssertExpectations(t)
		env.stories.AssertExpectations(t)
	})

	t.Run("Second invocation skips illustrated scenes entirely", func(t *testing.T) {
		env := newTestEnv()
		story := testStory(ownerID)
		for i := range story.Scenes {
			imageID := uuid.New()
			story.Scenes[i].ImageID = &imageID
		}
		env.stories.On("GetByID", ctx, story.ID).Return(story, nil).Once()

		report, err := env.svc.GenerateSceneImages(ctx, story.ID, ownerID, service.ImageBatchOptions{})

		assert.NoError(t, err)
		assert.Empty(t, report.Generated)
		assert.Empty(t, report.Failed)
		assert.Len(t, report.Skipped, 3)
		for i, sceneID := range report.Skipped {
			assert.Equal(t, story.Scenes[i].ID, sceneID)
		}
		env.images.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
		env.pacer.AssertNotCalled(t, "Pause", mock.Anything)
		env.stories.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Regenerate forces generation for illustrated scenes", func(t *testing.T) {
		env := newTestEnv()
		story := testStory(ownerID)
		oldImageID := uuid.New()
		story.Scenes[0].ImageID = &oldImageID

		sceneID := story.Scenes[0].ID
		env.stories.On("GetByID", ctx, story.ID).Return(story, nil).Once()
		env.images.On("Generate", ctx, mock.Anything).Return([]byte("png"), nil).Once()
		env.artifacts.On("Create", ctx, mock.Anything).Return(nil).Once()
		env.stories.On("Update", ctx, story, 1).Return(nil).Once()

		report, err := env.svc.GenerateSceneImages(ctx, story.ID, ownerID, service.ImageBatchOptions{
			SceneID:    &sceneID,
			Regenerate: true,
		})

		assert.NoError(t, err)
		assert.Len(t, report.Generated, 1)
		assert.NotEqual(t, oldImageID, *story.Scenes[0].ImageID)
	})

	t.Run("One failing scene does not stop the batch", func(t *testing.T) {
		env := newTestEnv()
		story := testStory(ownerID)
		// Первая сцена падает, остальные генерируются
		env.stories.On("GetByID", ctx, story.ID).Return(story, nil).Once()
		env.images.On("Generate", ctx, mock.Anything).
			Return(nil, errors.New("render farm busy")).Once()
		env.images.On("Generate", ctx, mock.Anything).Return([]byte("png"), nil).Twice()
		env.artifacts.On("Create", ctx, mock.Anything).Return(nil).Twice()
		env.pacer.On("Pause", ctx).Return(nil).Times(2)
		env.stories.On("Update", ctx, story, 1).Return(nil).Once()

		report, err := env.svc.GenerateSceneImages(ctx, story.ID, ownerID, service.ImageBatchOptions{})

		assert.NoError(t, err)
		assert.Len(t, report.Generated, 2)
		assert.Len(t, report.Failed, 1)
		assert.Equal(t, story.Scenes[0].ID, report.Failed[0].SceneID)
		assert.Contains(t, report.Failed[0].Cause, "render farm busy")
		// Сбойная сцена остается без изображения и доступна следующему батчу
		assert.Nil(t, story.Scenes[0].ImageID)
	})

	t.Run("Single-scene scope with unknown scene", func(t *testing.T) {
		env := newTestEnv()
		story := testStory(ownerID)
		env.stories.On("GetByID", ctx, story.ID).Return(story, nil).Once()

		unknown := uuid.New()
		_, err := env.svc.GenerateSceneImages(ctx, story.ID, ownerID, service.ImageBatchOptions{SceneID: &unknown})
		assert.True(t, errors.Is(err, models.ErrSceneNotFound))
	})

	t.Run("Cancelled pacing persists what was already generated", func(t *testing.T) {
		env := newTestEnv()
		story := testStory(ownerID)
		env.stories.On("GetByID", ctx, story.ID).Return(story, nil).Once()
		env.images.On("Generate", ctx, mock.Anything).Return([]byte("png"), nil).Once()
		env.artifacts.On("Create", ctx, mock.Anything).Return(nil).Once()
		env.pacer.On("Pause", ctx).Return(context.Canceled).Once()
		env.stories.On("Update", ctx, story, 1).Return(nil).Once()

		report, err := env.svc.GenerateSceneImages(ctx, story.ID, ownerID, service.ImageBatchOptions{})

		assert.True(t, errors.Is(err, context.Canceled))
		assert.Len(t, report.Generated, 1)
		env.stories.AssertExpectations(t)
	})
}

func TestGenerateCoverImage(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()

	t.Run("Cover is linked without a version bump", func(t *testing.T) {
		env := newTestEnv()
		story := testStory(ownerID)

		env.stories.On("GetByID", ctx, story.ID).Return(story, nil).Once()
		env.images.On("Generate", ctx, mock.MatchedBy(func(prompt string) bool {
			assert.Contains(t, prompt, story.Title)
			assert.Contains(t, prompt, "Book cover")
			return true
		})).Return([]byte("cover"), nil).Once()
		env.artifacts.On("Create", ctx, mock.MatchedBy(func(a *models.ImageArtifact) bool {
			return a.Type == models.ImageTypeCover && a.SceneID == nil
		})).Return(nil).Once()
		env.stories.On("Update", ctx, story, 1).Return(nil).Once()

		artifact, err := env.svc.GenerateCoverImage(ctx, story.ID, ownerID)

		assert.NoError(t, err)
		assert.NotNil(t, story.CoverImageID)
		assert.Equal(t, artifact.ID, *story.CoverImageID)
		assert.Equal(t, 1, story.Version)
		env.artifacts.AssertExpectations(t)
	})

	t.Run("Generation failure leaves the story without a cover", func(t *testing.T) {
		env := newTestEnv()
		story := testStory(ownerID)
		env.stories.On("GetByID", ctx, story.ID).Return(story, nil).Once()
		env.images.On("Generate", ctx, mock.Anything).Return(nil, errors.New("boom")).Once()

		_, err := env.svc.GenerateCoverImage(ctx, story.ID, ownerID)

		assert.True(t, errors.Is(err, models.ErrGenerationFailed))
		assert.Nil(t, story.CoverImageID)
		env.artifacts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		env.stories.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
	})
}
