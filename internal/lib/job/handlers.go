package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deppfellow/signal-webhook/internal/lib/email"
	"github.com/hibiken/asynq"
)

// handleSignalNotifyTask processes the signal notification task.
func (j *JobService) handleSignalNotifyTask(ctx context.Context, t *asynq.Task) error {
	var p SignalNotifyPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal signal notify payload: %w: %w", err, asynq.SkipRetry)
	}

	j.logger.Info().
		Str("type", "signal_notify").
		Int64("signal_id", p.ID).
		Str("to", j.recipient).
		Msg("Processing signal notification task")

	err := j.mailer.SendSignalEmail(j.recipient, email.SignalEmail{
		ID:        p.ID,
		Symbol:    p.Symbol,
		Action:    p.Action,
		Price:     p.Price,
		Quantity:  p.Quantity,
		Strategy:  p.Strategy,
		Timeframe: p.Timeframe,
		Message:   p.Message,
		CreatedAt: p.CreatedAt,
	})
	if err != nil {
		j.logger.Error().
			Str("type", "signal_notify").
			Int64("signal_id", p.ID).
			Err(err).
			Msg("Failed to send signal notification")
		return err
	}

	j.logger.Info().
		Str("type", "signal_notify").
		Int64("signal_id", p.ID).
		Msg("Successfully sent signal notification")

	return nil
}
