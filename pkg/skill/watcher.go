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
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watcherDebounce = 200 * time.Millisecond

var errClosed = errors.New("skill: watcher is closed")

// Watcher reloads a Registry whenever a SKILL.md manifest, or a skill
// directory itself, is created, written, or removed under any search path.
type Watcher struct {
	loader   *Loader
	registry *Registry

	mu     sync.Mutex
	fsw    *fsnotify.Watcher
	closed bool
}

func NewWatcher(loader *Loader, registry *Registry) *Watcher {
	return &Watcher{loader: loader, registry: registry}
}

// Start begins watching and returns a channel that receives a value after
// every completed reload. The channel is closed when ctx is done or Close is
// called.
func (w *Watcher) Start(ctx context.Context) (<-chan struct{}, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, errClosed
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.fsw = fsw

	w.addWatches()

	ch := make(chan struct{}, 1)
	go w.loop(ctx, ch)
	return ch, nil
}

// addWatches adds every search-path directory, plus the directory of every
// currently-known skill, to the underlying fsnotify watcher. fsnotify is not
// recursive, so each skill's own directory must be watched individually to
// see edits to its SKILL.md.
func (w *Watcher) addWatches() {
	for _, sp := range w.loader.searchPaths() {
		if err := w.fsw.Add(sp.dir); err != nil {
			slog.Debug("skill: not watching search path", "path", sp.dir, "error", err)
		}
	}
	for _, s := range w.registry.List() {
		if err := w.fsw.Add(s.Path); err != nil {
			slog.Debug("skill: not watching skill directory", "path", s.Path, "error", err)
		}
	}
}

func (w *Watcher) loop(ctx context.Context, ch chan<- struct{}) {
	defer close(ch)
	defer w.fsw.Close()

	var debounce *time.Timer
	reload := func() {
		w.loader.Reload(w.registry)
		w.mu.Lock()
		if !w.closed {
			w.addWatches()
		}
		w.mu.Unlock()
		select {
		case ch <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(watcherDebounce, reload)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Error("skill: watcher error", "error", err)
		}
	}
}

// Close stops the watcher and releases its resources.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closed = true
	if w.fsw != nil {
		return w.fsw.Close()
	}
	return nil
}
