package disk

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/lexhive/juris-cli/internal/domain"
	"github.com/lexhive/juris-cli/internal/ports"
)

func init() {
	// The cache holds entry values as any; gob needs the concrete shapes
	// registered to round-trip them.
	gob.Register(domain.Case{})
	gob.Register(domain.CaseCover{})
	gob.Register([]domain.Document{})
}

// Store persists cache entries in a local leveldb database so a restarted
// process keeps its warm cache. A single process owns the database, so the
// in-process single-flight guarantee stays authoritative; this backend
// only moves where entries live.
type Store struct {
	db *leveldb.DB
}

var _ ports.CacheStore = (*Store)(nil)

func Open(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, key string) (ports.CacheEntry, bool, error) {
	if err := ctx.Err(); err != nil {
		return ports.CacheEntry{}, false, err
	}

	data, err := s.db.Get([]byte(key), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return ports.CacheEntry{}, false, nil
		}
		return ports.CacheEntry{}, false, fmt.Errorf("read cache entry: %w", err)
	}

	var entry ports.CacheEntry
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&entry); err != nil {
		// A corrupt entry is dropped rather than reported; the caller
		// refetches.
		_ = s.db.Delete([]byte(key), nil)
		return ports.CacheEntry{}, false, nil
	}

	return entry, true, nil
}

func (s *Store) Set(ctx context.Context, key string, entry ports.CacheEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	if err := s.db.Put([]byte(key), buf.Bytes(), nil); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}

	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.db.Delete([]byte(key), nil); err != nil {
		return fmt.Errorf("delete cache entry: %w", err)
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
