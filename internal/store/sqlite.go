// Package store — шлюз долговременного хранения: схема и раскладка
// сериализуются в локальную key-value таблицу на встроенном sqlite
// (чистый Go драйвер, файла достаточно, сервера БД нет).
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"ermapa/internal/graph"
	"ermapa/internal/schema"
)

// Ключи долговременного хранения. Схема и раскладка живут под разными
// ключами: раскладка переживает реимпорт схемы.
const (
	keyTables = "schema.tables"
	keyLayout = "schema.layout"
)

const ddl = `
CREATE TABLE IF NOT EXISTS kv (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);`

type Store struct {
	db *sql.DB
}

// Open открывает (создавая при необходимости) файл хранилища.
// Для тестов годится ":memory:".
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("init store: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) put(key string, value []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO kv(key, value) VALUES(?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, string(value))
	return err
}

func (s *Store) get(key string) ([]byte, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return []byte(value), true, nil
}

// SaveSchema пишет сущности в форме, идентичной формату импорта.
func (s *Store) SaveSchema(entities []*schema.Entity) error {
	b, err := json.Marshal(entities)
	if err != nil {
		return err
	}
	return s.put(keyTables, b)
}

// LoadSchema возвращает (entities, найдено ли что-то, ошибка).
func (s *Store) LoadSchema() ([]*schema.Entity, bool, error) {
	b, ok, err := s.get(keyTables)
	if err != nil || !ok {
		return nil, false, err
	}
	var entities []*schema.Entity
	if err := json.Unmarshal(b, &entities); err != nil {
		return nil, false, err
	}
	return entities, true, nil
}

func (s *Store) SaveLayout(layout graph.Layout) error {
	b, err := json.Marshal(layout)
	if err != nil {
		return err
	}
	return s.put(keyLayout, b)
}

func (s *Store) LoadLayout() (graph.Layout, bool, error) {
	b, ok, err := s.get(keyLayout)
	if err != nil || !ok {
		return nil, false, err
	}
	var layout graph.Layout
	if err := json.Unmarshal(b, &layout); err != nil {
		return nil, false, err
	}
	return layout, true, nil
}
