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
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Manager is the entry point pkg/agent drives checkpointing through: it
// gates Save, Clear, StartGC and ShouldCheckpointAtIteration on
// Config.IsEnabled (Load reads storage either way) and, once started,
// runs a scheduled retention sweep against stale checkpoints.
type Manager struct {
	config  *Config
	storage Storage
	gc      *cron.Cron
}

// NewManager builds a Manager over storage using cfg, applying
// SetDefaults to it (a nil cfg is replaced by an empty one first).
func NewManager(cfg *Config, storage Storage) *Manager {
	if cfg == nil {
		cfg = &Config{}
	}
	cfg.SetDefaults()
	return &Manager{config: cfg, storage: storage}
}

// IsEnabled reports whether checkpointing is turned on.
func (m *Manager) IsEnabled() bool {
	return m.config.IsEnabled()
}

// Save persists state, a no-op when checkpointing is disabled.
func (m *Manager) Save(ctx context.Context, state *State) error {
	if !m.IsEnabled() {
		return nil
	}
	return m.storage.Save(ctx, state)
}

// Load retrieves the checkpoint for taskID. Unlike Save and Clear it is
// not gated on IsEnabled.
func (m *Manager) Load(ctx context.Context, taskID string) (*State, error) {
	return m.storage.Load(ctx, taskID)
}

// Clear removes the checkpoint for taskID, called once a task completes
// so a finished run is never mistakenly resumed.
func (m *Manager) Clear(ctx context.Context, taskID string) error {
	if !m.IsEnabled() {
		return nil
	}
	return m.storage.Delete(ctx, taskID)
}

// ShouldCheckpointAtIteration reports whether iteration n is a
// checkpoint boundary under the configured Strategy.
func (m *Manager) ShouldCheckpointAtIteration(n int) bool {
	return m.config.ShouldCheckpointAtIteration(n)
}

// StartGC schedules the retention sweep per Config.GCSchedule and
// returns the running *cron.Cron so the caller can Stop it on shutdown.
// A disabled Manager returns nil without scheduling anything.
func (m *Manager) StartGC(ctx context.Context) (*cron.Cron, error) {
	if !m.IsEnabled() {
		return nil, nil
	}

	c := cron.New()
	_, err := c.AddFunc(m.config.GCSchedule, func() {
		m.sweep(ctx)
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	m.gc = c
	return c, nil
}

// StopGC stops the retention sweep, if running.
func (m *Manager) StopGC() {
	if m.gc != nil {
		m.gc.Stop()
	}
}

func (m *Manager) sweep(ctx context.Context) {
	stale, err := m.storage.ListStale(ctx, m.config.Retention)
	if err != nil {
		slog.Warn("checkpoint: retention sweep failed to list stale checkpoints", "error", err)
		return
	}
	for _, s := range stale {
		if err := m.storage.Delete(ctx, s.TaskID); err != nil {
			slog.Warn("checkpoint: retention sweep failed to delete checkpoint", "task_id", s.TaskID, "error", err)
			continue
		}
		slog.Debug("checkpoint: retention sweep removed stale checkpoint", "task_id", s.TaskID, "updated_at", s.UpdatedAt)
	}
}
