// Package configstore persists named simulation configurations.
package configstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"montecarlo-mcp/internal/model"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when no configuration has the requested id.
	ErrNotFound = errors.New("configuration not found")
	// ErrUnknownBackend is returned by Open for unsupported backend names.
	ErrUnknownBackend = errors.New("unknown store backend")
)

// Store is the persistence contract shared by every backend.
type Store interface {
	// Save validates and stores a new configuration at version 1.
	Save(ctx context.Context, name, description string, cfg model.Configuration) (*model.Record, error)
	// Update replaces the configuration of an existing record and bumps its version.
	Update(ctx context.Context, id string, cfg model.Configuration) (*model.Record, error)
	Load(ctx context.Context, id string) (*model.Record, error)
	// List returns summaries, newest first.
	List(ctx context.Context) ([]model.Summary, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

const (
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendMemory = "memory"
)

// Options selects and locates a backend.
type Options struct {
	Backend string
	// Path is a directory for jsonl and badger, and a database file for sqlite.
	Path string
}

// Open returns the backend named by opts.Backend. An empty name selects jsonl.
func Open(opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendJSONL:
		return OpenJSONL(opts.Path)
	case BackendSQLite:
		return OpenSQLite(opts.Path)
	case BackendBadger:
		return OpenBadger(opts.Path)
	case BackendMemory:
		return OpenBadgerInMemory()
	default:
		return nil, fmt.Errorf("%w: %q (use jsonl, sqlite, badger or memory)", ErrUnknownBackend, opts.Backend)
	}
}

// now is replaced in tests to make ordering deterministic.
var now = func() time.Time { return time.Now().UTC() }

func newRecord(name, description string, cfg model.Configuration) (*model.Record, error) {
	ts := now()
	rec := &model.Record{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(name),
		Description: description,
		Config:      cfg,
		CreatedAt:   ts,
		UpdatedAt:   ts,
		Version:     1,
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}

// revise returns a copy of rec carrying cfg at the next version.
func revise(rec *model.Record, cfg model.Configuration) (*model.Record, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	next := *rec
	next.Config = cfg
	next.UpdatedAt = now()
	next.Version++
	return &next, nil
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

func sortNewestFirst(out []model.Summary) {
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
}
