package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"tale-server/internal/messaging"
	"tale-server/internal/models"
	"tale-server/internal/service"
	"tale-server/internal/worker"
)

type backfillerMock struct {
	mock.Mock
}

func (m *backfillerMock) GenerateSceneImages(ctx context.Context, storyID, userID uuid.UUID, opts service.ImageBatchOptions) (*service.ImageBatchReport, error) {
	args := m.Called(ctx, storyID, userID, opts)
	report, _ := args.Get(0).(*service.ImageBatchReport)
	return report, args.Error(1)
}

func delivery(t *testing.T, payload messaging.SceneImageTaskPayload) amqp091.Delivery {
	t.Helper()
	body, err := json.Marshal(payload)
	assert.NoError(t, err)
	return amqp091.Delivery{Body: body, CorrelationId: payload.TaskID}
}

func TestHandleDelivery(t *testing.T) {
	ctx := context.Background()
	payload := messaging.SceneImageTaskPayload{
		TaskID:  uuid.New().String(),
		StoryID: uuid.New(),
		UserID:  uuid.New(),
	}

	t.Run("Successful task is acked", func(t *testing.T) {
		backfiller := new(backfillerMock)
		backfiller.On("GenerateSceneImages", ctx, payload.StoryID, payload.UserID, service.ImageBatchOptions{}).
			Return(&service.ImageBatchReport{}, nil).Once()
		h := worker.NewHandler(zap.NewNop(), backfiller)

		ack := h.HandleDelivery(ctx, delivery(t, payload))

		assert.True(t, ack)
		backfiller.AssertExpectations(t)
	})

	t.Run("Scene scope and regenerate flag are passed through", func(t *testing.T) {
		sceneID := uuid.New()
		scoped := payload
		scoped.SceneID = &sceneID
		scoped.Regenerate = true

		backfiller := new(backfillerMock)
		backfiller.On("GenerateSceneImages", ctx, scoped.StoryID, scoped.UserID, service.ImageBatchOptions{
			SceneID:    &sceneID,
			Regenerate: true,
		}).Return(&service.ImageBatchReport{}, nil).Once()
		h := worker.NewHandler(zap.NewNop(), backfiller)

		assert.True(t, h.HandleDelivery(ctx, delivery(t, scoped)))
		backfiller.AssertExpectations(t)
	})

	t.Run("Malformed body is acked without processing", func(t *testing.T) {
		backfiller := new(backfillerMock)
		h := worker.NewHandler(zap.NewNop(), backfiller)

		ack := h.HandleDelivery(ctx, amqp091.Delivery{Body: []byte("not json")})

		assert.True(t, ack)
		backfiller.AssertNotCalled(t, "GenerateSceneImages", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Deleted story is acked, retry would not help", func(t *testing.T) {
		backfiller := new(backfillerMock)
		backfiller.On("GenerateSceneImages", ctx, payload.StoryID, payload.UserID, service.ImageBatchOptions{}).
			Return(nil, models.ErrStoryNotFound).Once()
		h := worker.NewHandler(zap.NewNop(), backfiller)

		assert.True(t, h.HandleDelivery(ctx, delivery(t, payload)))
	})

	t.Run("Transient failure is nacked for requeue", func(t *testing.T) {
		backfiller := new(backfillerMock)
		backfiller.On("GenerateSceneImages", ctx, payload.StoryID, payload.UserID, service.ImageBatchOptions{}).
			Return(nil, errors.New("database unavailable")).Once()
		h := worker.NewHandler(zap.NewNop(), backfiller)

		assert.False(t, h.HandleDelivery(ctx, delivery(t, payload)))
	})
}
