package configstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"montecarlo-mcp/internal/model"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS configurations (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	config_data TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL,
	version     INTEGER NOT NULL DEFAULT 1
);
`

// SQLiteStore keeps one row per configuration; config_data holds the
// configuration as JSON.
type SQLiteStore struct {
	db *sqlx.DB
}

type configRow struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	ConfigData  string `db:"config_data"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
	Version     int    `db:"version"`
}

func (r configRow) summary() (model.Summary, error) {
	s := model.Summary{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Version:     r.Version,
	}
	var err error
	if s.CreatedAt, err = time.Parse(time.RFC3339Nano, r.CreatedAt); err != nil {
		return s, fmt.Errorf("parse created_at of %s: %w", r.ID, err)
	}
	if s.UpdatedAt, err = time.Parse(time.RFC3339Nano, r.UpdatedAt); err != nil {
		return s, fmt.Errorf("parse updated_at of %s: %w", r.ID, err)
	}
	return s, nil
}

func (r configRow) record() (*model.Record, error) {
	s, err := r.summary()
	if err != nil {
		return nil, err
	}
	rec := &model.Record{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		Version:     s.Version,
	}
	if err := json.Unmarshal([]byte(r.ConfigData), &rec.Config); err != nil {
		return nil, fmt.Errorf("decode config_data of %s: %w", r.ID, err)
	}
	return rec, nil
}

// OpenSQLite opens or creates the database file at dbPath.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "configurations.db"
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	log.Debug().Str("path", dbPath).Msg("Opened sqlite configuration store")
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, name, description string, cfg model.Configuration) (*model.Record, error) {
	rec, err := newRecord(name, description, cfg)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(rec.Config)
	if err != nil {
		return nil, fmt.Errorf("encode configuration: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO configurations (id, name, description, config_data, created_at, updated_at, version)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Description, string(data),
		rec.CreatedAt.Format(time.RFC3339Nano), rec.UpdatedAt.Format(time.RFC3339Nano), rec.Version)
	if err != nil {
		return nil, fmt.Errorf("insert configuration: %w", err)
	}
	log.Info().Str("id", rec.ID).Str("name", rec.Name).Msg("Configuration saved")
	return rec, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, cfg model.Configuration) (*model.Record, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var row configRow
	if err := tx.GetContext(ctx, &row, `SELECT * FROM configurations WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	prev, err := row.record()
	if err != nil {
		return nil, err
	}
	next, err := revise(prev, cfg)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(next.Config)
	if err != nil {
		return nil, fmt.Errorf("encode configuration: %w", err)
	}

	// The version guard rejects writes that raced past the read above.
	res, err := tx.ExecContext(ctx,
		`UPDATE configurations SET config_data = ?, updated_at = ?, version = ?
		 WHERE id = ? AND version = ?`,
		string(data), next.UpdatedAt.Format(time.RFC3339Nano), next.Version, id, prev.Version)
	if err != nil {
		return nil, fmt.Errorf("update configuration: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("configuration %s was modified concurrently", id)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	log.Info().Str("id", id).Int("version", next.Version).Msg("Configuration updated")
	return next, nil
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (*model.Record, error) {
	var row configRow
	if err := s.db.GetContext(ctx, &row, `SELECT * FROM configurations WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return row.record()
}

func (s *SQLiteStore) List(ctx context.Context) ([]model.Summary, error) {
	var rows []configRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT id, name, description, '' AS config_data, created_at, updated_at, version FROM configurations`)
	if err != nil {
		return nil, fmt.Errorf("list configurations: %w", err)
	}
	out := make([]model.Summary, 0, len(rows))
	for _, r := range rows {
		sum, err := r.summary()
		if err != nil {
			log.Warn().Err(err).Str("id", r.ID).Msg("Skipping unreadable configuration")
			continue
		}
		out = append(out, sum)
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM configurations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete configuration: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(id)
	}
	log.Info().Str("id", id).Msg("Configuration deleted")
	return nil
}
