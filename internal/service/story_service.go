package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tale-server/internal/models"
	"tale-server/internal/parser"
	"tale-server/internal/repository"
)

// StoryService реализует движок уточнений и оркестрацию изображений поверх
// агрегата Story. Все мутирующие операции над одной историей сериализуются
// локальным замком, а коммит защищен оптимистической проверкой версии в
// репозитории.
type StoryService struct {
	stories     repository.StoryRepository
	records     repository.RefinementRecordRepository
	artifacts   repository.ImageArtifactRepository
	tx          repository.TxManager
	transformer TextTransformer
	images      ImageGenerator
	pacer       Pacer
	logger      *zap.Logger
	locks       *storyLocks
}

// NewStoryService wires the service with its collaborators.
func NewStoryService(
	stories repository.StoryRepository,
	records repository.RefinementRecordRepository,
	artifacts repository.ImageArtifactRepository,
	tx repository.TxManager,
	transformer TextTransformer,
	images ImageGenerator,
	pacer Pacer,
	logger *zap.Logger,
) *StoryService {
	return &StoryService{
		stories:     stories,
		records:     records,
		artifacts:   artifacts,
		tx:          tx,
		transformer: transformer,
		images:      images,
		pacer:       pacer,
		logger:      logger.Named("StoryService"),
		locks:       newStoryLocks(),
	}
}

// CreateStoryInput is the payload for creating a story from a skeleton.
type CreateStoryInput struct {
	Title       string
	Description string
	Audience    models.AudienceType
	Genre       models.Genre
	Skeleton    parser.StorySkeleton
}

// RefineSceneResult is returned by a successful scene refinement.
type RefineSceneResult struct {
	Scene           models.Scene `json:"scene"`
	Version         int          `json:"version"`
	RefinementCount int          `json:"refinement_count"`
}

// SceneOutcome reports one scene's fate inside a whole-story refinement.
type SceneOutcome struct {
	SceneID     uuid.UUID `json:"scene_id"`
	SceneNumber int       `json:"scene_number"`
	Refined     bool      `json:"refined"`
	Cause       string    `json:"cause,omitempty"`
}

// RefineStoryResult is returned by a whole-story refinement.
type RefineStoryResult struct {
	Version         int            `json:"version"`
	RefinementCount int            `json:"refinement_count"`
	Scenes          []SceneOutcome `json:"scenes"`
}

// CreateStory parses the skeleton into scenes, assigns image prompts and
// persists the new aggregate at version 1.
func (s *StoryService) CreateStory(ctx context.Context, ownerID uuid.UUID, input CreateStoryInput) (*models.Story, error) {
	if input.Title == "" {
		return nil, models.NewValidationError("title", "must not be empty")
	}

	now := time.Now().UTC()
	story := &models.Story{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		Title:       input.Title,
		Description: input.Description,
		Audience:    input.Audience,
		Genre:       input.Genre,
		Status:      models.StoryStatusDraft,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	scenes := parser.Parse(input.Skeleton)
	parser.AssignImagePrompts(scenes, parser.PromptContext{
		StoryTitle: input.Title,
		Genre:      input.Genre,
	})
	if len(scenes) > 0 {
		story.Status = models.StoryStatusGenerated
	}
	story.Scenes = scenes
	story.InitialScenes = models.CloneScenes(scenes)

	if err := s.stories.Create(ctx, story); err != nil {
		return nil, fmt.Errorf("failed to persist new story: %w", err)
	}
	s.logger.Info("Story created",
		zap.String("story_id", story.ID.String()),
		zap.Int("scenes", len(scenes)),
		zap.String("audience", string(story.Audience)))
	return story, nil
}

// GetStory returns a story owned by the caller.
func (s *StoryService) GetStory(ctx context.Context, storyID, userID uuid.UUID) (*models.Story, error) {
	return s.loadOwned(ctx, storyID, userID)
}

// ListStories returns every story owned by the caller.
func (s *StoryService) ListStories(ctx context.Context, ownerID uuid.UUID) ([]models.Story, error) {
	return s.stories.ListByOwner(ctx, ownerID)
}

// UpdateStoryDetails changes title/description. A metadata edit is not a
// refinement: no version bump, no history entry.
func (s *StoryService) UpdateStoryDetails(ctx context.Context, storyID, userID uuid.UUID, title, description string) (*models.Story, error) {
	if title == "" {
		return nil, models.NewValidationError("title", "must not be empty")
	}
	unlock := s.locks.lock(storyID)
	defer unlock()

	story, err := s.loadOwned(ctx, storyID, userID)
	if err != nil {
		return nil, err
	}
	story.Title = title
	story.Description = description
	story.UpdatedAt = time.Now().UTC()
	if err := s.stories.Update(ctx, story, story.Version); err != nil {
		return nil, err
	}
	return story, nil
}

// RefineScene applies one typed refinement to a single scene. The operation
// is all-or-nothing: a transform failure leaves the story untouched.
func (s *StoryService) RefineScene(ctx context.Context, storyID, userID, sceneID uuid.UUID, req models.RefinementRequest) (*RefineSceneResult, error) {
	unlock := s.locks.lock(storyID)
	defer unlock()

	story, err := s.loadOwned(ctx, storyID, userID)
	if err != nil {
		return nil, err
	}
	scene := story.SceneByID(sceneID)
	if scene == nil {
		return nil, models.ErrSceneNotFound
	}
	if verr := validateRefinementRequest(req); verr != nil {
		return nil, verr
	}

	directive := buildDirective(req)
	before := scene.Clone()

	newContent, err := s.transformer.Transform(ctx, scene.Content, directive)
	if err != nil {
		s.logger.Warn("Scene transform failed",
			zap.String("story_id", storyID.String()),
			zap.String("scene_id", sceneID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %v", models.ErrTransformFailed, err)
	}

	scene.SetContent(newContent)
	now := time.Now().UTC()
	expected := story.Version
	story.Version++
	story.RefinementCount++
	story.UpdatedAt = now
	refType := req.Type
	story.VersionHistory = append(story.VersionHistory, models.VersionHistoryEntry{
		Version:        story.Version,
		Timestamp:      now,
		ChangeType:     models.ChangeSceneRefinement,
		SceneID:        &sceneID,
		RefinementType: &refType,
		Scenes:         story.SnapshotScenes(),
	})

	record := &models.RefinementRecord{
		ID:           uuid.New(),
		StoryID:      storyID,
		SceneID:      &sceneID,
		Type:         req.Type,
		Instructions: directive,
		Before:       []models.Scene{before},
		After:        []models.Scene{scene.Clone()},
		CreatedAt:    now,
	}

	// Обновление истории и запись в журнал либо фиксируются вместе, либо
	// откатываются вместе: refinement_count должен совпадать с числом записей.
	if err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.stories.Update(txCtx, story, expected); err != nil {
			return err
		}
		return s.records.Create(txCtx, record)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("Scene refined",
		zap.String("story_id", storyID.String()),
		zap.String("scene_id", sceneID.String()),
		zap.String("type", string(req.Type)),
		zap.Int("version", story.Version))
	return &RefineSceneResult{
		Scene:           scene.Clone(),
		Version:         story.Version,
		RefinementCount: story.RefinementCount,
	}, nil
}

// RefineStory applies one refinement across all scenes, best-effort: a scene
// whose transform fails keeps its previous content and is reported with its
// cause, while the batch commits exactly one version increment.
func (s *StoryService) RefineStory(ctx context.Context, storyID, userID uuid.UUID, req models.RefinementRequest) (*RefineStoryResult, error) {
	unlock := s.locks.lock(storyID)
	defer unlock()

	story, err := s.loadOwned(ctx, storyID, userID)
	if err != nil {
		return nil, err
	}
	if verr := validateRefinementRequest(req); verr != nil {
		return nil, verr
	}

	directive := buildDirective(req)
	before := story.SnapshotScenes()
	outcomes := make([]SceneOutcome, 0, len(story.Scenes))

	for i := range story.Scenes {
		scene := &story.Scenes[i]
		outcome := SceneOutcome{SceneID: scene.ID, SceneNumber: scene.Number}
		newContent, err := s.transformer.Transform(ctx, scene.Content, directive)
		if err != nil {
			// Сцена остается нетронутой, батч продолжается.
			outcome.Cause = err.Error()
			s.logger.Warn("Scene transform failed in story batch",
				zap.String("story_id", storyID.String()),
				zap.String("scene_id", scene.ID.String()),
				zap.Error(err))
		} else {
			scene.SetContent(newContent)
			outcome.Refined = true
		}
		outcomes = append(outcomes, outcome)
	}

	now := time.Now().UTC()
	expected := story.Version
	story.Version++
	story.RefinementCount++
	story.UpdatedAt = now
	refType := req.Type
	story.VersionHistory = append(story.VersionHistory, models.VersionHistoryEntry{
		Version:        story.Version,
		Timestamp:      now,
		ChangeType:     models.ChangeStoryRefinement,
		RefinementType: &refType,
		Scenes:         story.SnapshotScenes(),
	})

	record := &models.RefinementRecord{
		ID:           uuid.New(),
		StoryID:      storyID,
		Type:         req.Type,
		Instructions: directive,
		Before:       before,
		After:        story.SnapshotScenes(),
		CreatedAt:    now,
	}

	if err := s.tx.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.stories.Update(txCtx, story, expected); err != nil {
			return err
		}
		return s.records.Create(txCtx, record)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("Story refined",
		zap.String("story_id", storyID.String()),
		zap.String("type", string(req.Type)),
		zap.Int("version", story.Version),
		zap.Int("scenes", len(outcomes)))
	return &RefineStoryResult{
		Version:         story.Version,
		RefinementCount: story.RefinementCount,
		Scenes:          outcomes,
	}, nil
}

// RevertToVersion restores the scene collection recorded at targetVersion
// and commits it as a new version. History is never rewritten: the revert is
// itself a forward-moving, auditable transition.
func (s *StoryService) RevertToVersion(ctx context.Context, storyID, userID uuid.UUID, targetVersion int) (*models.Story, error) {
	unlock := s.locks.lock(storyID)
	defer unlock()

	story, err := s.loadOwned(ctx, storyID, userID)
	if err != nil {
		return nil, err
	}
	if targetVersion < 1 || targetVersion > story.Version {
		return nil, models.ErrVersionNotFound
	}

	var snapshot []models.Scene
	if targetVersion == 1 {
		snapshot = models.CloneScenes(story.InitialScenes)
	} else {
		found := false
		for _, entry := range story.VersionHistory {
			if entry.Version == targetVersion {
				snapshot = models.CloneScenes(entry.Scenes)
				found = true
				break
			}
		}
		if !found {
			return nil, models.ErrVersionNotFound
		}
	}

	now := time.Now().UTC()
	expected := story.Version
	story.Scenes = snapshot
	story.Version++
	story.UpdatedAt = now
	target := targetVersion
	story.VersionHistory = append(story.VersionHistory, models.VersionHistoryEntry{
		Version:    story.Version,
		Timestamp:  now,
		ChangeType: models.ChangeRevert,
		RevertedTo: &target,
		Scenes:     story.SnapshotScenes(),
	})

	if err := s.stories.Update(ctx, story, expected); err != nil {
		return nil, err
	}

	s.logger.Info("Story reverted",
		zap.String("story_id", storyID.String()),
		zap.Int("target_version", targetVersion),
		zap.Int("new_version", story.Version))
	return story, nil
}

// FinalizeStory marks the story as finalized. The transition is a metadata
// change: no version bump, no history entry.
func (s *StoryService) FinalizeStory(ctx context.Context, storyID, userID uuid.UUID) (*models.Story, error) {
	unlock := s.locks.lock(storyID)
	defer unlock()

	story, err := s.loadOwned(ctx, storyID, userID)
	if err != nil {
		return nil, err
	}
	if story.Status == models.StoryStatusFinalized {
		return story, nil
	}
	story.Status = models.StoryStatusFinalized
	story.UpdatedAt = time.Now().UTC()
	if err := s.stories.Update(ctx, story, story.Version); err != nil {
		return nil, err
	}
	s.logger.Info("Story finalized", zap.String("story_id", storyID.String()))
	return story, nil
}

// ListRefinements returns the audit log for a story owned by the caller.
func (s *StoryService) ListRefinements(ctx context.Context, storyID, userID uuid.UUID) ([]models.RefinementRecord, error) {
	if _, err := s.loadOwned(ctx, storyID, userID); err != nil {
		return nil, err
	}
	return s.records.ListByStory(ctx, storyID)
}

// ListImages returns the image artifacts for a story owned by the caller.
func (s *StoryService) ListImages(ctx context.Context, storyID, userID uuid.UUID) ([]models.ImageArtifact, error) {
	if _, err := s.loadOwned(ctx, storyID, userID); err != nil {
		return nil, err
	}
	return s.artifacts.ListByStory(ctx, storyID)
}

// GetImage fetches a single artifact, checking story ownership.
func (s *StoryService) GetImage(ctx context.Context, imageID, userID uuid.UUID) (*models.ImageArtifact, error) {
	artifact, err := s.artifacts.GetByID(ctx, imageID)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadOwned(ctx, artifact.StoryID, userID); err != nil {
		return nil, err
	}
	return artifact, nil
}

func (s *StoryService) loadOwned(ctx context.Context, storyID, userID uuid.UUID) (*models.Story, error) {
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		if errors.Is(err, models.ErrStoryNotFound) {
			return nil, models.ErrStoryNotFound
		}
		return nil, fmt.Errorf("failed to load story %s: %w", storyID, err)
	}
	if story.OwnerID != userID {
		return nil, models.ErrStoryNotOwned
	}
	return story, nil
}
