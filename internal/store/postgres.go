package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/astromitra/horoscope-engine/internal/astro"
)

const sessionsSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id            UUID PRIMARY KEY,
	name          TEXT NOT NULL,
	birth_date    TEXT NOT NULL,
	birth_time    TEXT NOT NULL,
	location_text TEXT NOT NULL,
	ayanamsa      INT  NOT NULL,
	status        TEXT NOT NULL,
	location      JSONB,
	instant       JSONB,
	summary       JSONB,
	raw_payload   JSONB,
	failure_stage TEXT NOT NULL DEFAULT '',
	failure_cause TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore persists sessions in Postgres. Resolved structures are kept
// as JSONB so the raw payload stays queryable without a schema per provider
// field.
type PostgresStore struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

// NewPostgresStore connects, verifies the connection, and bootstraps the
// schema.
func NewPostgresStore(ctx context.Context, dsn string, logger zerolog.Logger) (*PostgresStore, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, sessionsSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure sessions schema: %w", err)
	}

	logger.Info().Msg("postgres session store ready")
	return &PostgresStore{db: db, logger: logger.With().Str("component", "store").Logger()}, nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Ping verifies database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateSession inserts a fresh session and returns its id.
func (s *PostgresStore) CreateSession(ctx context.Context, d astro.BirthDescriptor) (string, error) {
	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, name, birth_date, birth_time, location_text, ayanamsa, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, d.Name, d.Date, d.Time, d.Location, int(d.Ayanamsa), string(astro.StatusCreated), time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert session: %w", err)
	}
	return id, nil
}

// UpdateSession applies the non-nil patch fields.
func (s *PostgresStore) UpdateSession(ctx context.Context, id string, patch astro.SessionPatch) error {
	sets := make([]string, 0, 7)
	args := make([]interface{}, 0, 8)

	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Status != nil {
		add("status", string(*patch.Status))
	}
	if patch.Location != nil {
		raw, err := json.Marshal(patch.Location)
		if err != nil {
			return err
		}
		add("location", raw)
	}
	if patch.Instant != nil {
		raw, err := json.Marshal(patch.Instant)
		if err != nil {
			return err
		}
		add("instant", raw)
	}
	if patch.Summary != nil {
		raw, err := json.Marshal(patch.Summary)
		if err != nil {
			return err
		}
		add("summary", raw)
	}
	if patch.RawPayload != nil {
		raw, err := json.Marshal(patch.RawPayload)
		if err != nil {
			return err
		}
		add("raw_payload", raw)
	}
	if patch.FailureStage != nil {
		add("failure_stage", string(*patch.FailureStage))
	}
	if patch.FailureCause != nil {
		add("failure_cause", *patch.FailureCause)
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE sessions SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// sessionRow is the scan target for the sessions table.
type sessionRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	BirthDate    string    `db:"birth_date"`
	BirthTime    string    `db:"birth_time"`
	LocationText string    `db:"location_text"`
	Ayanamsa     int       `db:"ayanamsa"`
	Status       string    `db:"status"`
	Location     []byte    `db:"location"`
	Instant      []byte    `db:"instant"`
	Summary      []byte    `db:"summary"`
	RawPayload   []byte    `db:"raw_payload"`
	FailureStage string    `db:"failure_stage"`
	FailureCause string    `db:"failure_cause"`
	CreatedAt    time.Time `db:"created_at"`
}

// GetSession loads the session for id.
func (s *PostgresStore) GetSession(ctx context.Context, id string) (astro.Session, error) {
	var row sessionRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM sessions WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return astro.Session{}, ErrNotFound
	}
	if err != nil {
		return astro.Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	session := astro.Session{
		ID: row.ID,
		Descriptor: astro.BirthDescriptor{
			Name:     row.Name,
			Date:     row.BirthDate,
			Time:     row.BirthTime,
			Location: row.LocationText,
			Ayanamsa: astro.Ayanamsa(row.Ayanamsa),
		},
		Status:       astro.Status(row.Status),
		FailureStage: astro.Stage(row.FailureStage),
		FailureCause: row.FailureCause,
		CreatedAt:    row.CreatedAt,
	}

	if err := unmarshalInto(row.Location, &session.Location); err != nil {
		return astro.Session{}, err
	}
	if err := unmarshalInto(row.Instant, &session.Instant); err != nil {
		return astro.Session{}, err
	}
	if err := unmarshalInto(row.Summary, &session.Summary); err != nil {
		return astro.Session{}, err
	}
	if err := unmarshalInto(row.RawPayload, &session.RawPayload); err != nil {
		return astro.Session{}, err
	}
	return session, nil
}

func unmarshalInto(raw []byte, out interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode session column: %w", err)
	}
	return nil
}
