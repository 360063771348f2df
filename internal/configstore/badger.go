package configstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"montecarlo-mcp/internal/model"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog/log"
)

var configPrefix = []byte("config/")

func configKey(id string) []byte {
	return append(append([]byte(nil), configPrefix...), id...)
}

// BadgerStore keeps each record as JSON under config/<id>.
type BadgerStore struct {
	db *badger.DB
}

// badgerLogger routes badger's own logging to zerolog, demoting info to debug.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	log.Error().Msgf("badger: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	log.Warn().Msgf("badger: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	log.Debug().Msgf("badger: "+format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	log.Trace().Msgf("badger: "+format, args...)
}

// OpenBadger opens a persistent store in dir, creating it if needed.
func OpenBadger(dir string) (*BadgerStore, error) {
	if dir == "" {
		return nil, errors.New("path is required for persistent database")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create database directory %s: %w", dir, err)
	}
	return openBadger(badger.DefaultOptions(dir))
}

// OpenBadgerInMemory opens a store that lives only as long as the process.
func OpenBadgerInMemory() (*BadgerStore, error) {
	return openBadger(badger.DefaultOptions("").WithInMemory(true))
}

func openBadger(opts badger.Options) (*BadgerStore, error) {
	db, err := badger.Open(opts.WithLogger(badgerLogger{}))
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) put(txn *badger.Txn, rec *model.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode configuration: %w", err)
	}
	return txn.Set(configKey(rec.ID), data)
}

func (s *BadgerStore) get(txn *badger.Txn, id string) (*model.Record, error) {
	item, err := txn.Get(configKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, notFound(id)
		}
		return nil, err
	}
	var rec model.Record
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		return nil, fmt.Errorf("decode configuration %s: %w", id, err)
	}
	return &rec, nil
}

func (s *BadgerStore) Save(ctx context.Context, name, description string, cfg model.Configuration) (*model.Record, error) {
	rec, err := newRecord(name, description, cfg)
	if err != nil {
		return nil, err
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return s.put(txn, rec)
	}); err != nil {
		return nil, err
	}
	log.Info().Str("id", rec.ID).Str("name", rec.Name).Msg("Configuration saved")
	return rec, nil
}

func (s *BadgerStore) Update(ctx context.Context, id string, cfg model.Configuration) (*model.Record, error) {
	var next *model.Record
	err := s.db.Update(func(txn *badger.Txn) error {
		prev, err := s.get(txn, id)
		if err != nil {
			return err
		}
		if next, err = revise(prev, cfg); err != nil {
			return err
		}
		return s.put(txn, next)
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("id", id).Int("version", next.Version).Msg("Configuration updated")
	return next, nil
}

func (s *BadgerStore) Load(ctx context.Context, id string) (*model.Record, error) {
	var rec *model.Record
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = s.get(txn, id)
		return err
	})
	return rec, err
}

func (s *BadgerStore) List(ctx context.Context) ([]model.Summary, error) {
	var out []model.Summary
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(configPrefix); it.ValidForPrefix(configPrefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec model.Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				log.Warn().Err(err).Str("key", string(it.Item().Key())).Msg("Skipping unreadable configuration")
				continue
			}
			out = append(out, rec.Summary())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *BadgerStore) Delete(ctx context.Context, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(configKey(id)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return notFound(id)
			}
			return err
		}
		return txn.Delete(configKey(id))
	})
	if err != nil {
		return err
	}
	log.Info().Str("id", id).Msg("Configuration deleted")
	return nil
}
