package configstore

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"montecarlo-mcp/internal/model"

	"github.com/rs/zerolog/log"
)

const jsonlFile = "configurations.jsonl"

// JSONLStore keeps every record in memory and rewrites one JSONL file on each
// change.
type JSONLStore struct {
	mu      sync.RWMutex
	path    string
	records map[string]*model.Record
}

// OpenJSONL loads dir/configurations.jsonl, creating dir if needed. A missing
// file is an empty store.
func OpenJSONL(dir string) (*JSONLStore, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	s := &JSONLStore{
		path:    filepath.Join(dir, jsonlFile),
		records: make(map[string]*model.Record),
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *JSONLStore) load() error {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec model.Record
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil || rec.ID == "" {
			log.Warn().Err(err).Str("path", s.path).Msg("Skipping invalid line in configuration store")
			continue
		}
		s.records[rec.ID] = &rec
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading store: %w", err)
	}

	log.Debug().Str("path", s.path).Int("count", len(s.records)).Msg("Loaded configurations")
	return nil
}

// persist writes all records to a temp file and renames it over the store.
// Callers hold the write lock.
func (s *JSONLStore) persist() error {
	tmpPath := s.path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}

	writer := bufio.NewWriter(file)
	encoder := json.NewEncoder(writer)
	for _, summary := range s.summaries() {
		if err := encoder.Encode(s.records[summary.ID]); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
	}

	if err := writer.Flush(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to flush writer: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("failed to rename store file: %w", err)
	}
	return nil
}

func (s *JSONLStore) summaries() []model.Summary {
	out := make([]model.Summary, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Summary())
	}
	sortNewestFirst(out)
	return out
}

func (s *JSONLStore) Save(ctx context.Context, name, description string, cfg model.Configuration) (*model.Record, error) {
	rec, err := newRecord(name, description, cfg)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = rec
	if err := s.persist(); err != nil {
		delete(s.records, rec.ID)
		return nil, err
	}
	log.Info().Str("id", rec.ID).Str("name", rec.Name).Msg("Configuration saved")
	return clone(rec), nil
}

func (s *JSONLStore) Update(ctx context.Context, id string, cfg model.Configuration) (*model.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.records[id]
	if !ok {
		return nil, notFound(id)
	}
	next, err := revise(prev, cfg)
	if err != nil {
		return nil, err
	}
	s.records[id] = next
	if err := s.persist(); err != nil {
		s.records[id] = prev
		return nil, err
	}
	log.Info().Str("id", id).Int("version", next.Version).Msg("Configuration updated")
	return clone(next), nil
}

func (s *JSONLStore) Load(ctx context.Context, id string) (*model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, notFound(id)
	}
	return clone(rec), nil
}

func (s *JSONLStore) List(ctx context.Context) ([]model.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summaries(), nil
}

func (s *JSONLStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.records[id]
	if !ok {
		return notFound(id)
	}
	delete(s.records, id)
	if err := s.persist(); err != nil {
		s.records[id] = prev
		return err
	}
	log.Info().Str("id", id).Msg("Configuration deleted")
	return nil
}

func (s *JSONLStore) Close() error { return nil }

// clone deep-copies rec through JSON so callers cannot mutate stored state.
func clone(rec *model.Record) *model.Record {
	data, err := json.Marshal(rec)
	if err != nil {
		cp := *rec
		return &cp
	}
	var out model.Record
	if err := json.Unmarshal(data, &out); err != nil {
		cp := *rec
		return &cp
	}
	return &out
}
