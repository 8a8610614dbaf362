package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"tale-server/internal/messaging"
	"tale-server/internal/models"
	"tale-server/internal/service"
)

// Определяем метрики Prometheus
var (
	tasksProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tale_image_tasks_processed_total",
			Help: "Total number of scene image tasks processed.",
		},
		[]string{"status"}, // "success", "error_generation", "error_rejected", "error_unmarshal"
	)
	taskDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tale_image_task_duration_seconds",
		Help:    "Duration of scene image task processing.",
		Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
	})
)

// ImageBackfiller выполняет пакетную генерацию изображений для истории.
type ImageBackfiller interface {
	GenerateSceneImages(ctx context.Context, storyID, userID uuid.UUID, opts service.ImageBatchOptions) (*service.ImageBatchReport, error)
}

// Handler обрабатывает входящие сообщения очереди задач.
type Handler struct {
	logger     *zap.Logger
	backfiller ImageBackfiller
}

// NewHandler создает новый экземпляр Handler.
func NewHandler(logger *zap.Logger, backfiller ImageBackfiller) *Handler {
	return &Handler{
		logger:     logger.Named("ImageTaskHandler"),
		backfiller: backfiller,
	}
}

// HandleDelivery обрабатывает одно сообщение очереди.
// Возвращает true, если сообщение должно быть подтверждено (ack).
func (h *Handler) HandleDelivery(ctx context.Context, msg amqp091.Delivery) bool {
	var payload messaging.SceneImageTaskPayload
	if err := json.Unmarshal(msg.Body, &payload); err != nil {
		h.logger.Error("Failed to unmarshal scene image task",
			zap.Error(err),
			zap.String("correlation_id", msg.CorrelationId),
			zap.ByteString("body", msg.Body))
		tasksProcessed.WithLabelValues("error_unmarshal").Inc()
		// Невалидное сообщение подтверждаем, повторная доставка бессмысленна
		return true
	}

	log := h.logger.With(
		zap.String("task_id", payload.TaskID),
		zap.String("story_id", payload.StoryID.String()),
		zap.String("user_id", payload.UserID.String()))
	log.Info("Received scene image task")

	startTime := time.Now()
	report, err := h.backfiller.GenerateSceneImages(ctx, payload.StoryID, payload.UserID, service.ImageBatchOptions{
		SceneID:    payload.SceneID,
		Regenerate: payload.Regenerate,
	})
	taskDuration.Observe(time.Since(startTime).Seconds())

	if err != nil {
		if isPermanentTaskError(err) {
			// История удалена, чужая или запрос невалиден - ретрай не поможет
			log.Warn("Scene image task rejected", zap.Error(err))
			tasksProcessed.WithLabelValues("error_rejected").Inc()
			return true
		}
		log.Error("Scene image task failed, requeueing", zap.Error(err))
		tasksProcessed.WithLabelValues("error_generation").Inc()
		return false
	}

	log.Info("Scene image task completed",
		zap.Int("generated", len(report.Generated)),
		zap.Int("skipped", len(report.Skipped)),
		zap.Int("failed", len(report.Failed)))
	tasksProcessed.WithLabelValues("success").Inc()
	return true
}

// isPermanentTaskError определяет ошибки, при которых повторная обработка
// задачи заведомо не даст другого результата.
func isPermanentTaskError(err error) bool {
	if errors.Is(err, models.ErrStoryNotFound) ||
		errors.Is(err, models.ErrSceneNotFound) ||
		errors.Is(err, models.ErrStoryNotOwned) {
		return true
	}
	var validationErr *models.ValidationError
	return errors.As(err, &validationErr)
}
