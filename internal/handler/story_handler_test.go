package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"tale-server/internal/handler"
	"tale-server/internal/models"
	"tale-server/internal/parser"
	repoMocks "tale-server/internal/repository/mocks"
	"tale-server/internal/service"
	svcMocks "tale-server/internal/service/mocks"
)

type handlerEnv struct {
	stories     *repoMocks.StoryRepository
	records     *repoMocks.RefinementRecordRepository
	artifacts   *repoMocks.ImageArtifactRepository
	transformer *svcMocks.TextTransformer
	router      *gin.Engine
}

func newHandlerEnv() *handlerEnv {
	gin.SetMode(gin.TestMode)
	env := &handlerEnv{
		stories:     new(repoMocks.StoryRepository),
		records:     new(repoMocks.RefinementRecordRepository),
		artifacts:   new(repoMocks.ImageArtifactRepository),
		transformer: new(svcMocks.TextTransformer),
	}
	tx := new(repoMocks.TxManager)
	tx.On("WithinTransaction", mock.Anything, mock.Anything).Return(nil).Maybe()
	svc := service.NewStoryService(
		env.stories, env.records, env.artifacts, tx,
		env.transformer, new(svcMocks.ImageGenerator), new(svcMocks.Pacer),
		zap.NewNop(),
	)
	env.router = gin.New()
	handler.NewStoryHandler(svc, nil, zap.NewNop()).RegisterRoutes(env.router)
	return env
}

func (e *handlerEnv) request(t *testing.T, method, path string, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func handlerStory(ownerID uuid.UUID) *models.Story {
	scenes := parser.Parse(parser.StorySkeleton{
		Introduction: &parser.Section{Text: "The lighthouse keeper lit the lamp"},
	})
	return &models.Story{
		ID:       uuid.New(),
		OwnerID:  ownerID,
		Title:    "The Lighthouse",
		Audience: models.AudienceEarlyReader,
		Genre:    models.GenreMystery,
		Status:   models.StoryStatusGenerated,
		Version:  1,
		Scenes:   scenes,
	}
}

func TestUserHeaderRequired(t *testing.T) {
	env := newHandlerEnv()

	rec := env.request(t, http.MethodGet, "/api/stories", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.request(t, http.MethodGet, "/api/stories", "not-a-uuid", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateStoryEndpoint(t *testing.T) {
	env := newHandlerEnv()
	ownerID := uuid.New()
	env.stories.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	rec := env.request(t, http.MethodPost, "/api/stories", ownerID.String(), map[string]any{
		"title":    "The Lighthouse",
		"audience": "early_reader",
		"genre":    "mystery",
		"skeleton": map[string]any{
			"introduction": map[string]any{"text": "The lighthouse keeper lit the lamp"},
		},
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	var story models.Story
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &story))
	assert.Equal(t, ownerID, story.OwnerID)
	assert.Equal(t, 1, story.Version)
	assert.Len(t, story.Scenes, 1)
}

func TestRefineSceneEndpointErrorMapping(t *testing.T) {
	ownerID := uuid.New()

	t.Run("Unknown refinement type maps to 400", func(t *testing.T) {
		env := newHandlerEnv()
		story := handlerStory(ownerID)
		env.stories.On("GetByID", mock.Anything, story.ID).Return(story, nil).Once()

		rec := env.request(t, http.MethodPost,
			"/api/stories/"+story.ID.String()+"/scenes/"+story.Scenes[0].ID.String()+"/refine",
			ownerID.String(), map[string]any{"type": "polish"})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var errResp models.ErrorResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
		assert.Equal(t, models.ErrCodeValidation, errResp.Code)
	})

	t.Run("Foreign story maps to 403", func(t *testing.T) {
		env := newHandlerEnv()
		story := handlerStory(uuid.New())
		env.stories.On("GetByID", mock.Anything, story.ID).Return(story, nil).Once()

		rec := env.request(t, http.MethodPost,
			"/api/stories/"+story.ID.String()+"/scenes/"+story.Scenes[0].ID.String()+"/refine",
			ownerID.String(), map[string]any{"type": "add_humor"})

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Missing story maps to 404", func(t *testing.T) {
		env := newHandlerEnv()
		storyID := uuid.New()
		env.stories.On("GetByID", mock.Anything, storyID).Return(nil, models.ErrStoryNotFound).Once()

		rec := env.request(t, http.MethodPost,
			"/api/stories/"+storyID.String()+"/scenes/"+uuid.New().String()+"/refine",
			ownerID.String(), map[string]any{"type": "add_humor"})

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Transform failure maps to 502", func(t *testing.T) {
		env := newHandlerEnv()
		story := handlerStory(ownerID)
		env.stories.On("GetByID", mock.Anything, story.ID).Return(story, nil).Once()
		env.transformer.On("Transform", mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("overloaded")).Once()

		rec := env.request(t, http.MethodPost,
			"/api/stories/"+story.ID.String()+"/scenes/"+story.Scenes[0].ID.String()+"/refine",
			ownerID.String(), map[string]any{"type": "add_humor"})

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		var errResp models.ErrorResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
		assert.Equal(t, models.ErrCodeUpstream, errResp.Code)
	})

	t.Run("Version conflict maps to 409 with both versions", func(t *testing.T) {
		env := newHandlerEnv()
		story := handlerStory(ownerID)
		env.stories.On("GetByID", mock.Anything, story.ID).Return(story, nil).Once()
		env.transformer.On("Transform", mock.Anything, mock.Anything, mock.Anything).
			Return("funnier text", nil).Once()
		env.stories.On("Update", mock.Anything, mock.Anything, 1).
			Return(&models.ConflictError{ExpectedVersion: 1, ActualVersion: 2}).Once()

		rec := env.request(t, http.MethodPost,
			"/api/stories/"+story.ID.String()+"/scenes/"+story.Scenes[0].ID.String()+"/refine",
			ownerID.String(), map[string]any{"type": "add_humor"})

		assert.Equal(t, http.StatusConflict, rec.Code)
		var errResp models.ErrorResponse
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
		assert.Equal(t, models.ErrCodeConflict, errResp.Code)
		assert.Equal(t, 1, *errResp.ExpectedVersion)
		assert.Equal(t, 2, *errResp.ActualVersion)
	})

	t.Run("Malformed story id maps to 400", func(t *testing.T) {
		env := newHandlerEnv()
		rec := env.request(t, http.MethodGet, "/api/stories/not-a-uuid", ownerID.String(), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRevertEndpoint(t *testing.T) {
	env := newHandlerEnv()
	ownerID := uuid.New()
	story := handlerStory(ownerID)
	story.InitialScenes = models.CloneScenes(story.Scenes)
	env.stories.On("GetByID", mock.Anything, story.ID).Return(story, nil).Once()

	rec := env.request(t, http.MethodPost, "/api/stories/"+story.ID.String()+"/revert",
		ownerID.String(), map[string]any{"version": 7})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
