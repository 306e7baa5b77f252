package servers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fgeck/panelsync/internal/models"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
)

// PostgresStore keeps server records in the panel_servers table.
type PostgresStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewPostgresStore opens the database and creates the table if needed.
func NewPostgresStore(ctx context.Context, logger zerolog.Logger, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}
	db.SetMaxIdleConns(2)
	db.SetMaxOpenConns(5)
	db.SetConnMaxLifetime(time.Hour)

	s := &PostgresStore{db: db, logger: logger}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS panel_servers (
    id TEXT PRIMARY KEY,
    host TEXT NOT NULL,
    port INTEGER NOT NULL,
    username TEXT NOT NULL,
    password TEXT NOT NULL,
    use_ssl BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create panel_servers table: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// List returns every stored server ordered by id.
func (s *PostgresStore) List(ctx context.Context) ([]models.ServerCredential, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, host, port, username, password, use_ssl FROM panel_servers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query servers: %w", err)
	}
	defer rows.Close()

	var out []models.ServerCredential
	for rows.Next() {
		var c models.ServerCredential
		if err := rows.Scan(&c.ID, &c.Host, &c.Port, &c.Username, &c.Password, &c.UseSSL); err != nil {
			s.logger.Warn().Err(err).Msg("skipping unreadable server row")
			continue
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Get returns one server.
func (s *PostgresStore) Get(ctx context.Context, id string) (*models.ServerCredential, error) {
	var c models.ServerCredential
	err := s.db.QueryRowContext(ctx,
		`SELECT id, host, port, username, password, use_ssl FROM panel_servers WHERE id = $1`, id).
		Scan(&c.ID, &c.Host, &c.Port, &c.Username, &c.Password, &c.UseSSL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrServerNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("query server %s: %w", id, err)
	}
	return &c, nil
}

// Save inserts or replaces a server record.
func (s *PostgresStore) Save(ctx context.Context, c models.ServerCredential) error {
	if err := Validate(c); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO panel_servers (id, host, port, username, password, use_ssl)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE SET
    host = EXCLUDED.host,
    port = EXCLUDED.port,
    username = EXCLUDED.username,
    password = EXCLUDED.password,
    use_ssl = EXCLUDED.use_ssl,
    updated_at = NOW()`,
		c.ID, c.Host, c.Port, c.Username, c.Password, c.UseSSL)
	if err != nil {
		return fmt.Errorf("save server %s: %w", c.ID, err)
	}
	return nil
}

// Delete removes a server record.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM panel_servers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete server %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrServerNotFound, id)
	}
	return nil
}
