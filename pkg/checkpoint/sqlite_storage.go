// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package checkpoint

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure-Go driver, registers as "sqlite"
)

// SQLiteStorage is the durable Storage backend: one row per task id,
// holding the serialized State and an updated_at column ListStale
// filters on.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (creating if absent) a checkpoint database at
// path and ensures its schema exists. Pass ":memory:" for an ephemeral,
// process-local database.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open sqlite storage: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("checkpoint: ping sqlite storage: %w", err)
	}

	s := &SQLiteStorage{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStorage) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS checkpoints (
			task_id    TEXT PRIMARY KEY,
			data       BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_checkpoints_updated_at ON checkpoints(updated_at);
	`)
	if err != nil {
		return fmt.Errorf("checkpoint: init schema: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Save(ctx context.Context, state *State) error {
	if state == nil {
		return fmt.Errorf("checkpoint: cannot save nil state")
	}
	if state.TaskID == "" {
		return fmt.Errorf("checkpoint: task_id is required")
	}

	data, err := state.Serialize()
	if err != nil {
		return err
	}

	updatedAt := state.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (task_id, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`, state.TaskID, data, updatedAt.Unix())
	if err != nil {
		return fmt.Errorf("checkpoint: save %q: %w", state.TaskID, err)
	}
	return nil
}

func (s *SQLiteStorage) Load(ctx context.Context, taskID string) (*State, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM checkpoints WHERE task_id = ?`, taskID).Scan(&data)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("checkpoint: no checkpoint for task %q", taskID)
		}
		return nil, fmt.Errorf("checkpoint: load %q: %w", taskID, err)
	}
	return Deserialize(data)
}

func (s *SQLiteStorage) Delete(ctx context.Context, taskID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE task_id = ?`, taskID)
	if err != nil {
		return fmt.Errorf("checkpoint: delete %q: %w", taskID, err)
	}
	return nil
}

func (s *SQLiteStorage) ListStale(ctx context.Context, maxAge time.Duration) ([]*State, error) {
	if maxAge <= 0 {
		return nil, nil
	}
	cutoff := time.Now().Add(-maxAge).Unix()

	rows, err := s.db.QueryContext(ctx, `SELECT data FROM checkpoints WHERE updated_at <= ?`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: list stale: %w", err)
	}
	defer rows.Close()

	var stale []*State
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("checkpoint: scan stale row: %w", err)
		}
		state, err := Deserialize(data)
		if err != nil {
			return nil, err
		}
		if !state.IsStale(maxAge) {
			continue
		}
		stale = append(stale, state)
	}
	return stale, rows.Err()
}

// Close releases the underlying database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
