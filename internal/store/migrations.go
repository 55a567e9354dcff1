package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Bindings attach plugin actions to recognized commands
		`CREATE TABLE IF NOT EXISTS bindings (
			id TEXT PRIMARY KEY,
			command TEXT NOT NULL,
			plugin_name TEXT NOT NULL,
			action_name TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		// Recently delivered commands, newest last
		`CREATE TABLE IF NOT EXISTS command_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			command TEXT NOT NULL,
			source TEXT NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_bindings_command ON bindings(command)`,
		`CREATE INDEX IF NOT EXISTS idx_command_history_at ON command_history(at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
