package internal

import (
	"database/sql"
	"errors"
	"fmt"
)

// KeyValueStore is the local string key/value store sessions are persisted in
type KeyValueStore interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// Storage is a KeyValueStore backed by the chatKV table
type Storage struct {
	db *sql.DB
}

// NewStorage creates a new Storage instance
func NewStorage(db *sql.DB) *Storage {
	return &Storage{db: db}
}

// Get returns the value stored under key. ok is false when the key is absent.
func (s *Storage) Get(key string) (string, bool, error) {
	var value sql.NullString
	err := s.db.QueryRow("SELECT value FROM chatKV WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, &StorageError{Key: key, Op: "get", Err: err}
	}
	if !value.Valid {
		return "", false, nil
	}
	return value.String, true, nil
}

// Set stores value under key, replacing any previous value
func (s *Storage) Set(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO chatKV (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return &StorageError{Key: key, Op: "set", Err: err}
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (s *Storage) Remove(key string) error {
	if _, err := s.db.Exec("DELETE FROM chatKV WHERE key = ?", key); err != nil {
		return &StorageError{Key: key, Op: "remove", Err: err}
	}
	return nil
}

// Keys lists every stored key with the given prefix
func (s *Storage) Keys(prefix string) ([]string, error) {
	pairs, err := QueryChatKV(s.db, prefix+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}

	keys := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		keys = append(keys, pair.Key)
	}
	return keys, nil
}
