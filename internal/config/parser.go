// Package config provides configuration file parsing.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fgeck/panelsync/internal/models"
	"github.com/fgeck/panelsync/internal/services/servers"
	"github.com/spf13/viper"
)

// Defaults.
const (
	DefaultListenAddr  = ":8080"
	DefaultTimeout     = 10 * time.Second
	DefaultResetWait   = 3 * time.Second
	DefaultPort        = 2222
	DefaultServiceName = "panelsync"
)

// Parser handles configuration file parsing.
type Parser struct {
	v *viper.Viper
}

// NewParser creates a new configuration parser.
func NewParser() *Parser {
	v := viper.New()
	v.SetConfigType("yaml")
	return &Parser{v: v}
}

// LoadFile loads configuration from a file path.
func (p *Parser) LoadFile(path string) (*models.AppConfig, error) {
	p.v.SetConfigFile(path)

	if err := p.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return p.parse()
}

// LoadReader loads configuration from a reader (useful for testing).
func (p *Parser) LoadReader(content string) (*models.AppConfig, error) {
	if err := p.v.ReadConfig(strings.NewReader(content)); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	return p.parse()
}

type serverEntry struct {
	ID       string `mapstructure:"id"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	UseSSL   *bool  `mapstructure:"use_ssl"`
}

func (p *Parser) parse() (*models.AppConfig, error) {
	cfg := &models.AppConfig{
		ListenAddr: p.v.GetString("listen_addr"),
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}

	cfg.DirectAdmin = models.DirectAdminSettings{
		Timeout:            p.v.GetDuration("directadmin.timeout"),
		ResetWait:          p.v.GetDuration("directadmin.reset_wait"),
		InsecureSkipVerify: p.v.GetBool("directadmin.insecure_skip_verify"),
	}
	if cfg.DirectAdmin.Timeout == 0 {
		cfg.DirectAdmin.Timeout = DefaultTimeout
	}
	if cfg.DirectAdmin.ResetWait == 0 {
		cfg.DirectAdmin.ResetWait = DefaultResetWait
	}

	var err error
	if cfg.Retry.Update, err = p.retrySchedule("update"); err != nil {
		return nil, err
	}
	if cfg.Retry.Delete, err = p.retrySchedule("delete"); err != nil {
		return nil, err
	}
	if cfg.Retry.Email, err = p.retrySchedule("email"); err != nil {
		return nil, err
	}

	if cfg.Servers, err = p.servers(); err != nil {
		return nil, err
	}

	cfg.Store = models.StoreSettings{
		PostgresDSN: p.expandEnv(p.v.GetString("store.postgres_dsn")),
	}

	cfg.Telemetry = models.TelemetrySettings{
		Enabled:     p.v.GetBool("telemetry.enabled"),
		ServiceName: p.v.GetString("telemetry.service_name"),
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = DefaultServiceName
	}

	// Parse optional Telegram config.
	if p.v.IsSet("telegram") {
		cfg.Telegram = &models.TelegramConfig{
			BotToken: p.expandEnv(p.v.GetString("telegram.bot_token")),
			ChatID:   p.expandEnv(p.v.GetString("telegram.chat_id")),
		}

		if cfg.Telegram.BotToken == "" {
			return nil, fmt.Errorf("telegram.bot_token is required when telegram is configured")
		}
		if cfg.Telegram.ChatID == "" {
			return nil, fmt.Errorf("telegram.chat_id is required when telegram is configured")
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// retrySchedule reads retry.<category>. Zero attempts keeps the built-in schedule.
func (p *Parser) retrySchedule(category string) (models.RetrySchedule, error) {
	prefix := "retry." + category
	sched := models.RetrySchedule{Attempts: p.v.GetInt(prefix + ".attempts")}
	if sched.Attempts < 0 {
		return sched, fmt.Errorf("%s.attempts must not be negative", prefix)
	}

	for _, raw := range p.v.GetStringSlice(prefix + ".delays") {
		d, err := time.ParseDuration(strings.TrimSpace(raw))
		if err != nil {
			return sched, fmt.Errorf("%s.delays: %w", prefix, err)
		}
		if d < 0 {
			return sched, fmt.Errorf("%s.delays: %s is negative", prefix, raw)
		}
		sched.Delays = append(sched.Delays, d)
	}
	return sched, nil
}

func (p *Parser) servers() ([]models.ServerCredential, error) {
	var entries []serverEntry
	if err := p.v.UnmarshalKey("servers", &entries); err != nil {
		return nil, fmt.Errorf("parsing servers: %w", err)
	}

	out := make([]models.ServerCredential, 0, len(entries))
	for _, e := range entries {
		c := models.ServerCredential{
			ID:       e.ID,
			Host:     e.Host,
			Port:     e.Port,
			Username: p.expandEnv(e.Username),
			Password: p.expandEnv(e.Password),
			UseSSL:   true,
		}
		if e.UseSSL != nil {
			c.UseSSL = *e.UseSSL
		}
		if c.Port == 0 {
			c.Port = DefaultPort
		}
		out = append(out, c)
	}
	return out, nil
}

// expandEnv expands environment variables in the format ${VAR} or $VAR.
func (p *Parser) expandEnv(s string) string {
	return os.ExpandEnv(s)
}

// Validate performs validation on the loaded configuration.
func Validate(cfg *models.AppConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	if len(cfg.Servers) == 0 && cfg.Store.PostgresDSN == "" {
		return fmt.Errorf("either servers or store.postgres_dsn is required")
	}

	seen := make(map[string]bool, len(cfg.Servers))
	for _, c := range cfg.Servers {
		if err := servers.Validate(c); err != nil {
			return err
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate server id %q", c.ID)
		}
		seen[c.ID] = true
	}

	if cfg.DirectAdmin.Timeout < 0 {
		return fmt.Errorf("directadmin.timeout must not be negative")
	}

	return nil
}
