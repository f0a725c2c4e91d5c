package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS member (
        uid TEXT PRIMARY KEY,
        name TEXT NOT NULL,
        latitude REAL NOT NULL,
        longitude REAL NOT NULL,
        selected_date INTEGER -- epoch ms, NULL when the date was invalid
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// Save overwrites any existing row for the user.
func (s *SQLiteStore) Save(ctx context.Context, reg Registration) error {
	stmt, err := s.db.PrepareContext(ctx, `
        INSERT INTO member (uid, name, latitude, longitude, selected_date)
        VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(uid) DO UPDATE SET
            name = excluded.name,
            latitude = excluded.latitude,
            longitude = excluded.longitude,
            selected_date = excluded.selected_date`)
	if err != nil {
		return fmt.Errorf("failed to prepare member upsert: %w", err)
	}
	defer stmt.Close()

	var selected sql.NullInt64
	if ms := reg.SelectedDateMillis(); ms != nil {
		selected = sql.NullInt64{Int64: *ms, Valid: true}
	}

	if _, err := stmt.ExecContext(ctx, reg.UID, reg.Name, reg.Latitude, reg.Longitude, selected); err != nil {
		return fmt.Errorf("failed to execute member upsert: %w", err)
	}
	return nil
}
