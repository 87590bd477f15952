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

package skill

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsOnNewManifest(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(project, ".claude/skills"), 0o755))

	l := &Loader{projectRoot: project}
	reg := NewRegistry()
	l.LoadAll(reg)
	require.Equal(t, 0, reg.Len())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w := NewWatcher(l, reg)
	ch, err := w.Start(ctx)
	require.NoError(t, err)

	writeManifest(t, filepath.Join(project, ".claude/skills", "pdf-extract"), sampleManifest)

	select {
	case <-ch:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for skill watcher reload")
	}

	assert.Eventually(t, func() bool {
		_, ok := reg.Get("pdf-extract")
		return ok
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatcher_CloseStopsTheReloadChannel(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(project, ".claude/skills"), 0o755))

	l := &Loader{projectRoot: project}
	reg := NewRegistry()

	w := NewWatcher(l, reg)
	ch, err := w.Start(context.Background())
	require.NoError(t, err)
	require.NoError(t, w.Close())

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher channel did not close")
	}
}

func TestWatcher_StartAfterCloseErrors(t *testing.T) {
	l := &Loader{projectRoot: t.TempDir()}
	w := NewWatcher(l, NewRegistry())
	require.NoError(t, w.Close())

	_, err := w.Start(context.Background())
	assert.Error(t, err)
}
