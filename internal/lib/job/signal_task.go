package job

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/deppfellow/signal-webhook/internal/model"
	"github.com/hibiken/asynq"
)

const (
	// TaskSignalNotify is the job type name stored in Redis.
	TaskSignalNotify = "signal:notify"

	queueDefault = "default"
)

// SignalNotifyPayload is the JSON payload of a TaskSignalNotify task.
type SignalNotifyPayload struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"`
	Action    string    `json:"action"`
	Price     *float64  `json:"price"`
	Quantity  *float64  `json:"quantity"`
	Strategy  string    `json:"strategy,omitempty"`
	Timeframe string    `json:"timeframe,omitempty"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewSignalNotifyPayload builds the task payload for a saved signal.
func NewSignalNotifyPayload(saved model.PersistedSignal, s model.NormalizedSignal) SignalNotifyPayload {
	p := SignalNotifyPayload{
		ID:        saved.ID,
		Symbol:    saved.Symbol,
		Action:    string(saved.Action),
		Price:     s.Price,
		Quantity:  s.Quantity,
		Message:   s.Message,
		CreatedAt: saved.CreatedAt,
	}
	if s.StrategyName != nil {
		p.Strategy = *s.StrategyName
	}
	if s.Timeframe != nil {
		p.Timeframe = *s.Timeframe
	}
	return p
}

// NewSignalNotifyTask constructs the Asynq task for one notification.
//
// Task options:
//   - MaxRetry(0): a failed notification is dropped, never retried
//   - Queue("default")
//   - Timeout(30s)
func NewSignalNotifyTask(p SignalNotifyPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskSignalNotify,
		payload,
		asynq.MaxRetry(0),
		asynq.Queue(queueDefault),
		asynq.Timeout(30*time.Second),
	), nil
}

// NotifySignal enqueues the notification for a saved signal.
func (j *JobService) NotifySignal(ctx context.Context, saved model.PersistedSignal, s model.NormalizedSignal) error {
	task, err := NewSignalNotifyTask(NewSignalNotifyPayload(saved, s))
	if err != nil {
		return fmt.Errorf("failed to build signal notify task: %w", err)
	}

	info, err := j.Client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue signal notify task: %w", err)
	}

	j.logger.Debug().
		Str("task_id", info.ID).
		Int64("signal_id", saved.ID).
		Msg("enqueued signal notification")

	return nil
}
