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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enabledConfig() *Config {
	enabled := true
	return &Config{Enabled: &enabled}
}

func TestManager_SaveNoopWhenDisabled(t *testing.T) {
	storage := NewMemoryStorage()
	m := NewManager(&Config{}, storage)

	require.NoError(t, m.Save(context.Background(), NewState("task-1", "q")))
	_, err := storage.Load(context.Background(), "task-1")
	assert.Error(t, err, "disabled manager must not persist")
}

func TestManager_SavePersistsWhenEnabled(t *testing.T) {
	storage := NewMemoryStorage()
	m := NewManager(enabledConfig(), storage)

	require.NoError(t, m.Save(context.Background(), NewState("task-1", "q")))
	got, err := m.Load(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, "task-1", got.TaskID)
}

func TestManager_ClearNoopWhenDisabled(t *testing.T) {
	storage := NewMemoryStorage()
	require.NoError(t, storage.Save(context.Background(), NewState("task-1", "q")))

	m := NewManager(&Config{}, storage)
	require.NoError(t, m.Clear(context.Background(), "task-1"))

	_, err := storage.Load(context.Background(), "task-1")
	assert.NoError(t, err, "disabled manager's Clear must not touch storage")
}

func TestManager_ClearRemovesCheckpointWhenEnabled(t *testing.T) {
	storage := NewMemoryStorage()
	m := NewManager(enabledConfig(), storage)
	require.NoError(t, m.Save(context.Background(), NewState("task-1", "q")))
	require.NoError(t, m.Clear(context.Background(), "task-1"))

	_, err := storage.Load(context.Background(), "task-1")
	assert.Error(t, err)
}

func TestManager_StartGC_NoopWhenDisabled(t *testing.T) {
	m := NewManager(&Config{}, NewMemoryStorage())
	c, err := m.StartGC(context.Background())
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestManager_StartGCSweepsStaleCheckpoints(t *testing.T) {
	storage := NewMemoryStorage()
	cfg := enabledConfig()
	cfg.Retention = time.Millisecond
	cfg.GCSchedule = "@every 10ms"
	m := NewManager(cfg, storage)

	stale := NewState("stale", "q")
	stale.UpdatedAt = time.Now().Add(-time.Hour)
	require.NoError(t, storage.Save(context.Background(), stale))

	c, err := m.StartGC(context.Background())
	require.NoError(t, err)
	require.NotNil(t, c)
	defer m.StopGC()

	assert.Eventually(t, func() bool {
		_, err := storage.Load(context.Background(), "stale")
		return err != nil
	}, time.Second, 10*time.Millisecond)
}

func TestManager_ShouldCheckpointAtIteration(t *testing.T) {
	cfg := enabledConfig()
	cfg.Strategy = StrategyInterval
	cfg.Interval = 2
	m := NewManager(cfg, NewMemoryStorage())

	assert.True(t, m.ShouldCheckpointAtIteration(2))
	assert.False(t, m.ShouldCheckpointAtIteration(3))
}
