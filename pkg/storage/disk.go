package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"audio2sign/pkg/models"

	"github.com/dgraph-io/badger/v3"
)

var ErrNotFound = errors.New("translation not found")

const keyPrefix = "translation/"

type DiskStore interface {
	StoreTranslation(t *models.Translation) error
	GetTranslation(id string) (*models.Translation, error)
	RecentTranslations(limit int) ([]*models.Translation, error)
	Close() error
}

type diskStore struct {
	db *badger.DB
}

func NewDiskStore(path string) (DiskStore, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	opts := badger.DefaultOptions(filepath.Join(path, "badger"))
	opts.Logger = nil // Disable badger logging

	return openDiskStore(opts)
}

// NewInMemoryDiskStore runs badger without touching the filesystem.
func NewInMemoryDiskStore() (DiskStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openDiskStore(opts)
}

func openDiskStore(opts badger.Options) (DiskStore, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	return &diskStore{db: db}, nil
}

func key(id string) []byte {
	return []byte(keyPrefix + id)
}

func (s *diskStore) StoreTranslation(t *models.Translation) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to marshal translation: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(t.ID), data)
	})
}

func (s *diskStore) GetTranslation(id string) (*models.Translation, error) {
	var t models.Translation

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(id))
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &t)
		})
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get translation: %w", err)
	}

	return &t, nil
}

// RecentTranslations walks keys backwards. Ids are UUIDv7, so key order is
// creation order.
func (s *diskStore) RecentTranslations(limit int) ([]*models.Translation, error) {
	var out []*models.Translation

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(append([]byte(keyPrefix), 0xff)); it.Valid(); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var t models.Translation
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &t)
			}); err != nil {
				return err
			}
			out = append(out, &t)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list translations: %w", err)
	}
	return out, nil
}

func (s *diskStore) Close() error {
	return s.db.Close()
}
