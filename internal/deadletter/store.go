// Marquee - A/B Testing Recommender with Event Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package deadletter

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/marquee/internal/events"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/metrics"
)

const keyPrefix = "dlq:"

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("dead-letter store closed")

	// ErrNotFound is returned by Delete for an unknown ID.
	ErrNotFound = errors.New("dead-letter entry not found")
)

// Config configures Open.
type Config struct {
	Path       string
	InMemory   bool // tests only
	SyncWrites bool
}

// Entry is one failed event and why it failed.
type Entry struct {
	ID       string       `json:"id"`
	Event    events.Event `json:"event"`
	Cause    string       `json:"cause"`
	FailedAt time.Time    `json:"failed_at"`
}

// Store is a BadgerDB-backed dead-letter queue. It is safe for concurrent
// use.
type Store struct {
	db    *badger.DB
	count atomic.Int64

	mu     sync.RWMutex
	closed bool
}

// Open opens or creates the store described by cfg.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("dead-letter path is required")
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	s := &Store{db: db}
	n, err := s.countKeys()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.count.Store(int64(n))
	metrics.DeadLetterEntries.Set(float64(n))

	logging.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Int("entries", n).
		Msg("dead-letter store opened")
	return s, nil
}

// Put stores e with the error that prevented its append.
func (s *Store) Put(e events.Event, cause error) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate entry id: %w", err)
	}
	entry := Entry{
		ID:       id.String(),
		Event:    e,
		FailedAt: time.Now().UTC(),
	}
	if cause != nil {
		entry.Cause = cause.Error()
	}

	data, err := json.Marshal(&entry)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+entry.ID), data)
	})
	if err != nil {
		return fmt.Errorf("write to BadgerDB: %w", err)
	}

	metrics.DeadLetterEntries.Set(float64(s.count.Add(1)))
	return nil
}

// List returns up to limit entries, oldest first. limit <= 0 returns all.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var entries []Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if limit > 0 && len(entries) >= limit {
				return nil
			}

			item := it.Item()
			var entry Entry
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				logging.Warn().Err(err).Str("key", string(item.Key())).Msg("skipping unreadable dead-letter entry")
				continue
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate dead-letter entries: %w", err)
	}
	return entries, nil
}

// Count returns the number of stored entries.
func (s *Store) Count() int {
	return int(s.count.Load())
}

// Delete removes one entry.
func (s *Store) Delete(id string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	key := []byte(keyPrefix + id)
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrNotFound
			}
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return err
	}

	metrics.DeadLetterEntries.Set(float64(s.count.Add(-1)))
	return nil
}

// Replay calls fn for each entry, oldest first, and deletes the entries fn
// accepted. It stops at the first error from fn and returns how many
// entries were replayed.
func (s *Store) Replay(ctx context.Context, fn func(events.Event) error) (int, error) {
	entries, err := s.List(ctx, 0)
	if err != nil {
		return 0, err
	}

	replayed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return replayed, err
		}
		if err := fn(entry.Event); err != nil {
			return replayed, err
		}
		if err := s.Delete(entry.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return replayed, fmt.Errorf("delete replayed entry %s: %w", entry.ID, err)
		}
		replayed++
	}

	if replayed > 0 {
		logging.Info().Int("replayed", replayed).Int("remaining", s.Count()).Msg("dead-letter entries replayed")
	}
	return replayed, nil
}

// Close closes the underlying database. It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *Store) countKeys() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count dead-letter entries: %w", err)
	}
	return n, nil
}
