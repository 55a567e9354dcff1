package store

import (
	"database/sql"
	"time"
)

// DefaultHistoryLimit bounds the command history table.
const DefaultHistoryLimit = 200

// HistoryEntry is one delivered command.
type HistoryEntry struct {
	ID      int64     `json:"id"`
	Command string    `json:"command"`
	Source  string    `json:"source"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"at"`
}

// HistoryRepository records delivered commands.
type HistoryRepository struct {
	db    *sql.DB
	limit int
}

// History returns the history repository, keeping at most
// DefaultHistoryLimit entries.
func (s *Store) History() *HistoryRepository {
	return &HistoryRepository{db: s.db, limit: DefaultHistoryLimit}
}

// Append records e and drops the oldest entries beyond the limit.
func (r *HistoryRepository) Append(e *HistoryEntry) error {
	result, err := r.db.Exec(
		`INSERT INTO command_history (command, source, detail, at) VALUES (?, ?, ?, ?)`,
		e.Command, e.Source, e.Detail, e.At,
	)
	if err != nil {
		return err
	}
	if id, err := result.LastInsertId(); err == nil {
		e.ID = id
	}

	_, err = r.db.Exec(
		`DELETE FROM command_history WHERE id NOT IN
		 (SELECT id FROM command_history ORDER BY id DESC LIMIT ?)`,
		r.limit,
	)
	return err
}

// Recent returns up to n entries, newest first.
func (r *HistoryRepository) Recent(n int) ([]*HistoryEntry, error) {
	if n <= 0 {
		n = r.limit
	}
	rows, err := r.db.Query(
		`SELECT id, command, source, detail, at FROM command_history ORDER BY id DESC LIMIT ?`, n,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []*HistoryEntry{}
	for rows.Next() {
		e := &HistoryEntry{}
		if err := rows.Scan(&e.ID, &e.Command, &e.Source, &e.Detail, &e.At); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Clear removes every entry.
func (r *HistoryRepository) Clear() error {
	_, err := r.db.Exec(`DELETE FROM command_history`)
	return err
}
