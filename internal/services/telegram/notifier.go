package telegram

import (
	"context"
	"time"

	"github.com/fgeck/panelsync/internal/models"
	"github.com/rs/zerolog"
)

// Notifier sends alerts in the background so a slow Telegram API never
// delays an API response.
type Notifier struct {
	svc     Service
	cfg     models.TelegramConfig
	logger  zerolog.Logger
	timeout time.Duration
}

// NewNotifier binds a Service to one chat.
func NewNotifier(logger zerolog.Logger, svc Service, cfg models.TelegramConfig) *Notifier {
	return &Notifier{svc: svc, cfg: cfg, logger: logger, timeout: 30 * time.Second}
}

// Notify sends the alert and returns immediately. The returned channel is
// closed once delivery finished.
func (n *Notifier) Notify(ctx context.Context, alert models.Alert) <-chan struct{} {
	done := make(chan struct{})
	ctx = context.WithoutCancel(ctx)

	go func() {
		defer close(done)
		sendCtx, cancel := context.WithTimeout(ctx, n.timeout)
		defer cancel()

		result, err := n.svc.SendNotification(sendCtx, n.cfg, alert)
		switch {
		case err != nil:
			n.logger.Warn().Err(err).Msg("failed to send Telegram alert")
		case result.Error != nil:
			n.logger.Warn().Err(result.Error).Msg("Telegram alert not delivered")
		}
	}()

	return done
}
