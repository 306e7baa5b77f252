// Package models contains the data structures used throughout panelsync.
package models

import "time"

// AppConfig holds the complete configuration for a panelsync process.
type AppConfig struct {
	ListenAddr  string
	DirectAdmin DirectAdminSettings
	Retry       RetrySettings
	Servers     []ServerCredential
	Store       StoreSettings
	Telemetry   TelemetrySettings
	Telegram    *TelegramConfig // optional
}

// DirectAdminSettings tunes the transport and reconciliation timings.
type DirectAdminSettings struct {
	Timeout            time.Duration // per HTTP call
	ResetWait          time.Duration // wait before re-checking after a connection reset
	InsecureSkipVerify bool          // panels commonly run self-signed certificates
}

// RetrySchedule is one retry policy as configured.
type RetrySchedule struct {
	Attempts int
	Delays   []time.Duration
}

// RetrySettings holds the retry schedules per operation category.
type RetrySettings struct {
	Update RetrySchedule
	Delete RetrySchedule
	Email  RetrySchedule
}

// StoreSettings selects where server records are read from.
type StoreSettings struct {
	PostgresDSN string // empty means servers come from the config file
}

// TelemetrySettings controls tracing.
type TelemetrySettings struct {
	Enabled     bool
	ServiceName string
}
