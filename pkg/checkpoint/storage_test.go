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

func storageImpls(t *testing.T) map[string]Storage {
	sqliteStore, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqliteStore.Close() })

	return map[string]Storage{
		"memory": NewMemoryStorage(),
		"sqlite": sqliteStore,
	}
}

func TestStorage_SaveLoadRoundTrip(t *testing.T) {
	for name, store := range storageImpls(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			state := NewState("task-1", "do the thing").WithIteration(3)
			require.NoError(t, store.Save(ctx, state))

			got, err := store.Load(ctx, "task-1")
			require.NoError(t, err)
			assert.Equal(t, "task-1", got.TaskID)
			assert.Equal(t, 3, got.Iteration)
		})
	}
}

func TestStorage_SaveOverwritesExisting(t *testing.T) {
	for name, store := range storageImpls(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Save(ctx, NewState("task-1", "q").WithIteration(1)))
			require.NoError(t, store.Save(ctx, NewState("task-1", "q").WithIteration(2)))

			got, err := store.Load(ctx, "task-1")
			require.NoError(t, err)
			assert.Equal(t, 2, got.Iteration)
		})
	}
}

func TestStorage_LoadMissingErrors(t *testing.T) {
	for name, store := range storageImpls(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Load(context.Background(), "nonexistent")
			assert.Error(t, err)
		})
	}
}

func TestStorage_Delete(t *testing.T) {
	for name, store := range storageImpls(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, store.Save(ctx, NewState("task-1", "q")))
			require.NoError(t, store.Delete(ctx, "task-1"))

			_, err := store.Load(ctx, "task-1")
			assert.Error(t, err)
		})
	}
}

func TestStorage_SaveNilStateErrors(t *testing.T) {
	for name, store := range storageImpls(t) {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, store.Save(context.Background(), nil))
		})
	}
}

func TestStorage_SaveMissingTaskIDErrors(t *testing.T) {
	for name, store := range storageImpls(t) {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, store.Save(context.Background(), &State{}))
		})
	}
}

func TestStorage_ListStale(t *testing.T) {
	for name, store := range storageImpls(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			fresh := NewState("fresh", "q")
			fresh.WithPhase(PhaseStarted)
			require.NoError(t, store.Save(ctx, fresh))

			stale := NewState("stale", "q")
			stale.UpdatedAt = time.Now().Add(-2 * time.Hour)
			require.NoError(t, store.Save(ctx, stale))

			states, err := store.ListStale(ctx, time.Hour)
			require.NoError(t, err)
			require.Len(t, states, 1)
			assert.Equal(t, "stale", states[0].TaskID)
		})
	}
}

func TestStorage_ListStaleZeroMaxAgeReturnsNone(t *testing.T) {
	for name, store := range storageImpls(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := NewState("task-1", "q")
			s.UpdatedAt = time.Now().Add(-24 * time.Hour)
			require.NoError(t, store.Save(ctx, s))

			states, err := store.ListStale(ctx, 0)
			require.NoError(t, err)
			assert.Empty(t, states)
		})
	}
}
