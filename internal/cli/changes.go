package cli

import (
	"context"
	"time"

	"sgfcp/internal/amqp"
	applog "sgfcp/internal/log"
)

// changeRetryPause is how long a stopped change consumer waits before it
// subscribes again.
var changeRetryPause = 30 * time.Second

// changeSource delivers data changed notifications until ctx ends.
type changeSource interface {
	ConsumeDataChanged(ctx context.Context, handler func(*amqp.DataChangedMessage) error) error
}

// followChanges keeps src subscribed until ctx ends. Notifications are
// optional for every caller, so a consumer error is logged and retried,
// never returned.
func followChanges(ctx context.Context, src changeSource, handler func(*amqp.DataChangedMessage) error, logger *applog.Logger) {
	for {
		err := src.ConsumeDataChanged(ctx, handler)
		if ctx.Err() != nil {
			return
		}
		logger.Warn("Change notifications interrupted",
			applog.FieldError, err, "retry_in", changeRetryPause.String())
		select {
		case <-ctx.Done():
			return
		case <-time.After(changeRetryPause):
		}
	}
}
