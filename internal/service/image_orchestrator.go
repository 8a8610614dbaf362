package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"tale-server/internal/audience"
	"tale-server/internal/models"
)

var (
	imageBatchScenes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tale_server_image_batch_scenes_total",
			Help: "Scenes handled by image batches, by outcome.",
		},
		[]string{"outcome"}, // "generated", "skipped", "failed"
	)
	imageBatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tale_server_image_batch_duration_seconds",
		Help:    "Duration of whole image backfill batches.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
)

// synthesizedPromptSeedLimit caps how much scene content seeds a prompt
// synthesized for a scene that has no stored image prompt.
const synthesizedPromptSeedLimit = 150

// ImageBatchOptions selects the scope of an image backfill.
type ImageBatchOptions struct {
	// SceneID limits the batch to a single scene when set.
	SceneID *uuid.UUID
	// Regenerate forces generation even for scenes that already have an
	// image.
	Regenerate bool
}

// SceneImageResult describes one successfully generated scene image.
type SceneImageResult struct {
	SceneID     uuid.UUID `json:"scene_id"`
	SceneNumber int       `json:"scene_number"`
	ImageID     uuid.UUID `json:"image_id"`
	Prompt      string    `json:"prompt"`
}

// SceneImageFailure names a scene whose generation failed and why. The scene
// keeps no image and stays eligible for the next idempotent batch.
type SceneImageFailure struct {
	SceneID     uuid.UUID `json:"scene_id"`
	SceneNumber int       `json:"scene_number"`
	Cause       string    `json:"cause"`
}

// ImageBatchReport is the outcome of one backfill invocation. Skipped lists
// scenes that already carried an image and were left alone.
type ImageBatchReport struct {
	Generated []SceneImageResult  `json:"generated"`
	Skipped   []uuid.UUID         `json:"skipped,omitempty"`
	Failed    []SceneImageFailure `json:"failed,omitempty"`
}

// GenerateSceneImages backfills images for the requested scope in scene
// order. Scenes that already carry an image are skipped unless Regenerate is
// set, so repeated invocations are safe and make no redundant calls. A
// failure on one scene is recorded and the batch moves on; there is no
// automatic retry within a single invocation.
func (s *StoryService) GenerateSceneImages(ctx context.Context, storyID, userID uuid.UUID, opts ImageBatchOptions) (*ImageBatchReport, error) {
	unlock := s.locks.lock(storyID)
	defer unlock()

	story, err := s.loadOwned(ctx, storyID, userID)
	if err != nil {
		return nil, err
	}

	// Цели батча в порядке номеров сцен.
	targets := make([]int, 0, len(story.Scenes))
	if opts.SceneID != nil {
		found := false
		for i := range story.Scenes {
			if story.Scenes[i].ID == *opts.SceneID {
				targets = append(targets, i)
				found = true
				break
			}
		}
		if !found {
			return nil, models.ErrSceneNotFound
		}
	} else {
		for i := range story.Scenes {
			targets = append(targets, i)
		}
	}

	log := s.logger.With(zap.String("story_id", storyID.String()))
	profile := audience.ProfileFor(story.Audience)
	report := &ImageBatchReport{Generated: []SceneImageResult{}}
	started := time.Now()
	defer func() { imageBatchDuration.Observe(time.Since(started).Seconds()) }()

	changed := false
	calledBefore := false
	for _, i := range targets {
		scene := &story.Scenes[i]
		if scene.ImageID != nil && !opts.Regenerate {
			imageBatchScenes.WithLabelValues("skipped").Inc()
			report.Skipped = append(report.Skipped, scene.ID)
			log.Debug("Scene already has an image, skipping",
				zap.String("scene_id", scene.ID.String()))
			continue
		}

		// Пауза между последовательными вызовами генерации, не перед первым.
		if calledBefore {
			if err := s.pacer.Pause(ctx); err != nil {
				return s.finishImageBatch(ctx, story, report, changed, err)
			}
		}
		calledBefore = true

		prompt := scene.ImagePrompt
		if prompt == "" {
			prompt = synthesizeScenePrompt(profile, scene)
		}

		data, err := s.images.Generate(ctx, prompt)
		if err != nil {
			imageBatchScenes.WithLabelValues("failed").Inc()
			report.Failed = append(report.Failed, SceneImageFailure{
				SceneID:     scene.ID,
				SceneNumber: scene.Number,
				Cause:       fmt.Errorf("%w: %v", models.ErrGenerationFailed, err).Error(),
			})
			log.Warn("Scene image generation failed",
				zap.String("scene_id", scene.ID.String()),
				zap.Error(err))
			continue
		}

		artifact := &models.ImageArtifact{
			ID:        uuid.New(),
			StoryID:   storyID,
			SceneID:   &scene.ID,
			Type:      models.ImageTypeScene,
			Data:      data,
			Prompt:    prompt,
			CreatedAt: time.Now().UTC(),
		}
		if err := s.artifacts.Create(ctx, artifact); err != nil {
			imageBatchScenes.WithLabelValues("failed").Inc()
			report.Failed = append(report.Failed, SceneImageFailure{
				SceneID:     scene.ID,
				SceneNumber: scene.Number,
				Cause:       fmt.Sprintf("failed to store artifact: %v", err),
			})
			log.Error("Failed to store image artifact",
				zap.String("scene_id", scene.ID.String()),
				zap.Error(err))
			continue
		}

		imageID := artifact.ID
		scene.ImageID = &imageID
		changed = true
		imageBatchScenes.WithLabelValues("generated").Inc()
		report.Generated = append(report.Generated, SceneImageResult{
			SceneID:     scene.ID,
			SceneNumber: scene.Number,
			ImageID:     imageID,
			Prompt:      prompt,
		})
	}

	return s.finishImageBatch(ctx, story, report, changed, nil)
}

// finishImageBatch persists the story once per batch. Attaching images is
// not a content mutation: the version is not advanced and no history entry
// is appended, so the optimistic check runs against the unchanged version.
func (s *StoryService) finishImageBatch(ctx context.Context, story *models.Story, report *ImageBatchReport, changed bool, batchErr error) (*ImageBatchReport, error) {
	if changed {
		story.UpdatedAt = time.Now().UTC()
		if err := s.stories.Update(ctx, story, story.Version); err != nil {
			return nil, err
		}
	}
	if batchErr != nil {
		return report, batchErr
	}
	s.logger.Info("Image batch finished",
		zap.String("story_id", story.ID.String()),
		zap.Int("generated", len(report.Generated)),
		zap.Int("failed", len(report.Failed)))
	return report, nil
}

// GenerateCoverImage produces a cover artifact for the story and links it as
// the story's cover.
func (s *StoryService) GenerateCoverImage(ctx context.Context, storyID, userID uuid.UUID) (*models.ImageArtifact, error) {
	unlock := s.locks.lock(storyID)
	defer unlock()

	story, err := s.loadOwned(ctx, storyID, userID)
	if err != nil {
		return nil, err
	}

	profile := audience.ProfileFor(story.Audience)
	seed := story.Description
	if len(seed) > synthesizedPromptSeedLimit {
		seed = seed[:synthesizedPromptSeedLimit]
	}
	prompt := fmt.Sprintf("%s. Book cover for the %s story %q: %s",
		profile.IllustrationStyle, story.Genre, story.Title, seed)

	data, err := s.images.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
	}

	artifact := &models.ImageArtifact{
		ID:        uuid.New(),
		StoryID:   storyID,
		Type:      models.ImageTypeCover,
		Data:      data,
		Prompt:    prompt,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.artifacts.Create(ctx, artifact); err != nil {
		return nil, fmt.Errorf("failed to store cover artifact: %w", err)
	}

	coverID := artifact.ID
	story.CoverImageID = &coverID
	story.UpdatedAt = time.Now().UTC()
	if err := s.stories.Update(ctx, story, story.Version); err != nil {
		return nil, err
	}

	s.logger.Info("Cover image generated",
		zap.String("story_id", storyID.String()),
		zap.String("image_id", coverID.String()))
	return artifact, nil
}

func synthesizeScenePrompt(profile audience.Profile, scene *models.Scene) string {
	seed := scene.Content
	if len(seed) > synthesizedPromptSeedLimit {
		seed = seed[:synthesizedPromptSeedLimit]
	}
	return fmt.Sprintf("%s. %q: %s", profile.IllustrationStyle, scene.Title, seed)
}
