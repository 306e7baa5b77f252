// Package telegram sends operator alerts to a Telegram chat.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fgeck/panelsync/internal/models"
	"github.com/rs/zerolog"
)

// Service defines the interface for Telegram notification operations.
type Service interface {
	SendNotification(ctx context.Context, cfg models.TelegramConfig, alert models.Alert) (*models.TelegramResult, error)
}

// HTTPClient allows mocking HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Impl implements the Telegram Service interface.
type Impl struct {
	httpClient HTTPClient
	logger     zerolog.Logger
	baseURL    string
}

// New creates a new Telegram service.
func New(logger zerolog.Logger) *Impl {
	return &Impl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:  logger,
		baseURL: "https://api.telegram.org",
	}
}

// NewWithClient creates a new Telegram service with a custom HTTP client (for testing).
func NewWithClient(logger zerolog.Logger, httpClient HTTPClient, baseURL string) *Impl {
	return &Impl{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
	}
}

type sendMessageRequest struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendNotification posts one alert. Delivery problems are reported in the
// result rather than as an error.
func (s *Impl) SendNotification(ctx context.Context, cfg models.TelegramConfig, alert models.Alert) (*models.TelegramResult, error) {
	result := &models.TelegramResult{}

	s.logger.Info().
		Str("chat_id", cfg.ChatID).
		Str("operation", alert.Operation).
		Str("status", string(alert.Outcome.Status)).
		Msg("sending Telegram alert")

	jsonBody, err := json.Marshal(sendMessageRequest{
		ChatID:    cfg.ChatID,
		Text:      formatMessage(alert),
		ParseMode: "HTML",
	})
	if err != nil {
		result.Error = fmt.Errorf("failed to marshal request: %w", err)
		return result, nil
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, cfg.BotToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		result.Error = fmt.Errorf("failed to create request: %w", err)
		return result, nil
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		// The URL carries the bot token, so only the cause is kept.
		result.Error = fmt.Errorf("failed to send request: %w", unwrapURLError(err))
		return result, nil
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		result.Error = fmt.Errorf("telegram API returned status %d", resp.StatusCode)
		return result, nil
	}

	result.MessageSent = true
	s.logger.Info().Msg("Telegram alert sent")

	return result, nil
}

func formatMessage(alert models.Alert) string {
	var b bytes.Buffer
	out := alert.Outcome

	switch out.Status {
	case models.OutcomeFailure:
		b.WriteString("❌ <b>Reconciliation failed</b>\n\n")
	case models.OutcomeAmbiguousReset:
		b.WriteString("❓ <b>Connection reset, state unknown</b>\n\n")
	default:
		b.WriteString("⚠️ <b>Reconciliation needs review</b>\n\n")
	}

	b.WriteString(fmt.Sprintf("🖥 <b>Server:</b> %s\n", escapeHTML(alert.ServerID)))
	b.WriteString(fmt.Sprintf("🔧 <b>Operation:</b> %s\n", escapeHTML(alert.Operation)))
	b.WriteString(fmt.Sprintf("📦 <b>Entity:</b> %s\n", escapeHTML(out.Entity)))
	b.WriteString(fmt.Sprintf("📍 <b>State:</b> %s\n", escapeHTML(string(out.State))))
	if out.Attempts > 1 {
		b.WriteString(fmt.Sprintf("🔁 <b>Attempts:</b> %d\n", out.Attempts))
	}
	b.WriteString(fmt.Sprintf("⏰ <b>Time:</b> %s\n", alert.Time.Format("2006-01-02 15:04:05")))

	if out.Message != "" {
		b.WriteString(fmt.Sprintf("\n<code>%s</code>\n", escapeHTML(out.Message)))
	}
	for _, m := range out.Mismatches {
		b.WriteString(fmt.Sprintf("  • %s: requested %s, panel reports %s\n",
			escapeHTML(m.Field), escapeHTML(m.Requested), escapeHTML(m.Actual)))
	}

	return b.String()
}

func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

// escapeHTML escapes HTML special characters.
func escapeHTML(s string) string {
	var b bytes.Buffer
	for _, r := range s {
		switch r {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '&':
			b.WriteString("&amp;")
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
