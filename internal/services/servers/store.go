// Package servers resolves the panel a request targets.
package servers

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/fgeck/panelsync/internal/models"
	"github.com/rs/zerolog"
)

// ErrServerNotFound is returned when no server has the requested id.
var ErrServerNotFound = errors.New("server not found")

// Store looks up panel credentials.
type Store interface {
	List(ctx context.Context) ([]models.ServerCredential, error)
	Get(ctx context.Context, id string) (*models.ServerCredential, error)
}

// ConfigStore serves the servers listed in the configuration file.
type ConfigStore struct {
	servers map[string]models.ServerCredential
}

// NewConfigStore indexes the configured servers by id.
func NewConfigStore(creds []models.ServerCredential) (*ConfigStore, error) {
	servers := make(map[string]models.ServerCredential, len(creds))
	for _, c := range creds {
		if err := Validate(c); err != nil {
			return nil, err
		}
		if _, dup := servers[c.ID]; dup {
			return nil, fmt.Errorf("duplicate server id %q", c.ID)
		}
		servers[c.ID] = c
	}
	return &ConfigStore{servers: servers}, nil
}

// List returns the servers ordered by id.
func (s *ConfigStore) List(_ context.Context) ([]models.ServerCredential, error) {
	out := make([]models.ServerCredential, 0, len(s.servers))
	for _, c := range s.servers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Get returns one server.
func (s *ConfigStore) Get(_ context.Context, id string) (*models.ServerCredential, error) {
	c, ok := s.servers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrServerNotFound, id)
	}
	return &c, nil
}

// Validate checks the fields every credential needs.
func Validate(c models.ServerCredential) error {
	switch {
	case c.ID == "":
		return fmt.Errorf("server id is required")
	case c.Host == "":
		return fmt.Errorf("server %q: host is required", c.ID)
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("server %q: port %d is out of range", c.ID, c.Port)
	case c.Username == "":
		return fmt.Errorf("server %q: username is required", c.ID)
	case c.Password == "":
		return fmt.Errorf("server %q: password is required", c.ID)
	}
	return nil
}

// Open returns the PostgreSQL store when a DSN is configured, otherwise the
// servers from the config file. The returned close function is never nil.
func Open(ctx context.Context, logger zerolog.Logger, cfg models.AppConfig) (Store, func() error, error) {
	if cfg.Store.PostgresDSN == "" {
		store, err := NewConfigStore(cfg.Servers)
		if err != nil {
			return nil, nil, err
		}
		logger.Debug().Int("servers", len(cfg.Servers)).Msg("using servers from config")
		return store, func() error { return nil }, nil
	}

	store, err := NewPostgresStore(ctx, logger, cfg.Store.PostgresDSN)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug().Msg("using servers from postgres")
	return store, store.Close, nil
}
