package models

import "time"

// TelegramConfig holds Telegram bot settings for operator alerts.
type TelegramConfig struct {
	BotToken string
	ChatID   string
}

// TelegramResult contains the result of sending a Telegram message.
type TelegramResult struct {
	MessageSent bool
	Error       error
}

// Alert describes a reconciliation an operator should look at.
type Alert struct {
	ServerID  string
	Operation string
	Outcome   Outcome
	Time      time.Time
}
