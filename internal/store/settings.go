package store

import (
	"database/sql"
	"errors"
	"strconv"
)

// Setting keys used by the application.
const (
	SettingGalleryIndex = "gallery.index"
	SettingGalleryDir   = "gallery.dir"
	SettingEnabled      = "pipeline.enabled"
)

// SettingRepository stores application settings as key-value pairs.
type SettingRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingRepository {
	return &SettingRepository{db: s.db}
}

// Get returns the value stored under key, or ErrNotFound.
func (r *SettingRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return value, err
}

// Set stores value under key, replacing any previous value.
func (r *SettingRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// Delete removes key. Deleting a missing key is not an error.
func (r *SettingRepository) Delete(key string) error {
	_, err := r.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	return err
}

// GetInt returns the integer stored under key, or def when the key is
// missing or not a number.
func (r *SettingRepository) GetInt(key string, def int) int {
	v, err := r.Get(key)
	if err != nil {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// SetInt stores an integer under key.
func (r *SettingRepository) SetInt(key string, n int) error {
	return r.Set(key, strconv.Itoa(n))
}

// GetBool returns the boolean stored under key, or def.
func (r *SettingRepository) GetBool(key string, def bool) bool {
	v, err := r.Get(key)
	if err != nil {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// SetBool stores a boolean under key.
func (r *SettingRepository) SetBool(key string, b bool) error {
	return r.Set(key, strconv.FormatBool(b))
}
