// Package memory is an in-process DocumentStore. It keeps the encoded
// document rather than the value so every Load hands out a fresh copy.
package memory

import (
	"context"
	"fmt"
	"os"
	"sync"

	"budget/internal/core"
	"budget/internal/storage"
)

type Store struct {
	mu   sync.Mutex
	body []byte
}

func New() *Store {
	return &Store{}
}

// NewFromFile seeds the store from a JSON ledger file. A missing path
// leaves the store empty; a malformed file is an error.
func NewFromFile(path string) (*Store, error) {
	s := New()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	doc, err := core.DecodeLedger(data)
	if err != nil {
		return nil, fmt.Errorf("seed file %s: %w", path, err)
	}
	if err := s.Save(context.Background(), doc); err != nil {
		return nil, err
	}
	return s, nil
}

// Load implements storage.DocumentStore
func (s *Store) Load(_ context.Context) (core.Ledger, error) {
	s.mu.Lock()
	body := s.body
	s.mu.Unlock()

	if body == nil {
		return core.NewLedger(), nil
	}
	doc, err := core.DecodeLedger(body)
	if err != nil {
		return core.Ledger{}, fmt.Errorf("load ledger: %w: %w", storage.ErrStorageUnavailable, err)
	}
	return doc, nil
}

// Save implements storage.DocumentStore
func (s *Store) Save(_ context.Context, doc core.Ledger) error {
	body, err := core.EncodeLedger(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.body = body
	s.mu.Unlock()
	return nil
}

// Update implements storage.DocumentStore. The lock is held from load to
// save.
func (s *Store) Update(_ context.Context, fn storage.UpdateFunc) (core.Ledger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := core.NewLedger()
	if s.body != nil {
		var err error
		if doc, err = core.DecodeLedger(s.body); err != nil {
			return core.Ledger{}, fmt.Errorf("load ledger: %w: %w", storage.ErrStorageUnavailable, err)
		}
	}
	next, err := fn(doc)
	if err != nil {
		return core.Ledger{}, err
	}
	body, err := core.EncodeLedger(next)
	if err != nil {
		return core.Ledger{}, err
	}
	s.body = body
	return next, nil
}

// Reset implements storage.DocumentStore
func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	s.body = nil
	s.mu.Unlock()
	return nil
}

func (s *Store) Close() error { return nil }

var _ storage.DocumentStore = (*Store)(nil)
