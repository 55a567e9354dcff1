package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Binding runs a plugin action whenever Command is recognized.
type Binding struct {
	ID         string          `json:"id"`
	Command    string          `json:"command"`
	PluginName string          `json:"plugin"`
	ActionName string          `json:"action"`
	Config     json.RawMessage `json:"config,omitempty"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  time.Time       `json:"created_at"`
}

// BindingRepository provides CRUD operations for bindings.
type BindingRepository struct {
	db *sql.DB
}

// Bindings returns the binding repository for this store.
func (s *Store) Bindings() *BindingRepository {
	return &BindingRepository{db: s.db}
}

const bindingColumns = `id, command, plugin_name, action_name, config, enabled, created_at`

// Create inserts b, assigning a fresh ID when b has none.
func (r *BindingRepository) Create(b *Binding) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	b.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO bindings (`+bindingColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Command, b.PluginName, b.ActionName, string(configOrEmpty(b.Config)), boolToInt(b.Enabled), b.CreatedAt,
	)
	return err
}

// GetByID retrieves a binding by its ID.
func (r *BindingRepository) GetByID(id string) (*Binding, error) {
	row := r.db.QueryRow(`SELECT `+bindingColumns+` FROM bindings WHERE id = ?`, id)
	b, err := scanBinding(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return b, err
}

// ForCommand returns the enabled bindings for command, oldest first.
// A command without bindings yields an empty slice and no error.
func (r *BindingRepository) ForCommand(command string) ([]*Binding, error) {
	return r.query(
		`SELECT `+bindingColumns+` FROM bindings WHERE command = ? AND enabled = 1 ORDER BY created_at, id`,
		command,
	)
}

// List retrieves all bindings, newest first.
func (r *BindingRepository) List() ([]*Binding, error) {
	return r.query(`SELECT ` + bindingColumns + ` FROM bindings ORDER BY created_at DESC, id`)
}

// Update updates an existing binding.
func (r *BindingRepository) Update(b *Binding) error {
	result, err := r.db.Exec(
		`UPDATE bindings SET command = ?, plugin_name = ?, action_name = ?, config = ?, enabled = ?
		 WHERE id = ?`,
		b.Command, b.PluginName, b.ActionName, string(configOrEmpty(b.Config)), boolToInt(b.Enabled), b.ID,
	)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

// Delete removes a binding by its ID.
func (r *BindingRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM bindings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOneRow(result)
}

func (r *BindingRepository) query(q string, args ...interface{}) ([]*Binding, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bindings := []*Binding{}
	for rows.Next() {
		b, err := scanBinding(rows)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bindings, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanBinding(s scanner) (*Binding, error) {
	b := &Binding{}
	var config string
	var enabled int
	if err := s.Scan(&b.ID, &b.Command, &b.PluginName, &b.ActionName, &config, &enabled, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.Config = json.RawMessage(config)
	b.Enabled = enabled != 0
	return b, nil
}

func configOrEmpty(c json.RawMessage) json.RawMessage {
	if len(c) == 0 {
		return json.RawMessage("{}")
	}
	return c
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func expectOneRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
