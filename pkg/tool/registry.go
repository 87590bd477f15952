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

package tool

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kadirpekel/tcoagent/pkg/registry"
	"github.com/kadirpekel/tcoagent/pkg/value"
)

// RegistryError reports a registry operation failure (name collisions,
// unknown tool, factory errors).
type RegistryError struct {
	Action  string
	Message string
	Err     error
}

func (e RegistryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("tool registry %s: %s: %v", e.Action, e.Message, e.Err)
	}
	return fmt.Sprintf("tool registry %s: %s", e.Action, e.Message)
}

func (e RegistryError) Unwrap() error { return e.Err }

// Factory lazily builds a Tool. A factory-backed entry is what the spec
// calls a dynamically-loaded tool: its Tool is not instantiated until
// load_tool (or a direct call) forces it.
type Factory func() (Tool, error)

// entry is what the registry actually stores: either a ready instance or a
// factory plus whatever instance has been materialized from it so far.
type entry struct {
	tool    Tool
	factory Factory
	loaded  Tool
}

// Registry holds every tool available to one reasoning loop, indexed by
// name, plus the "loaded" cache that materializes factory-backed entries on
// first use. BaseRegistry supplies the concurrency-safe storage; Registry
// additionally tracks insertion order since the spec's tool listing and
// search want a stable enumeration.
type Registry struct {
	base  *registry.BaseRegistry[entry]
	mu    sync.Mutex // guards materializing factory entries and order
	order []string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{base: registry.NewBaseRegistry[entry]()}
}

// Register adds a ready-to-call tool.
func (r *Registry) Register(t Tool) error {
	if err := r.base.Register(t.Name(), entry{tool: t}); err != nil {
		return RegistryError{Action: "Register", Message: t.Name(), Err: err}
	}
	r.mu.Lock()
	r.order = append(r.order, t.Name())
	r.mu.Unlock()
	return nil
}

// RegisterFactory adds a deferred tool: a name is reserved and visible in
// ListTools, but Tool is not constructed until Resolve (or load_tool) is
// called with that name.
func (r *Registry) RegisterFactory(name string, f Factory) error {
	if err := r.base.Register(name, entry{factory: f}); err != nil {
		return RegistryError{Action: "RegisterFactory", Message: name, Err: err}
	}
	r.mu.Lock()
	r.order = append(r.order, name)
	r.mu.Unlock()
	return nil
}

// Resolve returns the callable Tool for name, materializing it from its
// factory on first call and caching the result for subsequent calls.
func (r *Registry) Resolve(name string) (Tool, error) {
	e, ok := r.base.Get(name)
	if !ok {
		return nil, RegistryError{Action: "Resolve", Message: fmt.Sprintf("tool %q not registered", name)}
	}
	if e.tool != nil {
		return e.tool, nil
	}
	if e.loaded != nil {
		return e.loaded, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// re-check under lock: another goroutine may have materialized it
	// while we were waiting.
	if e, ok = r.base.Get(name); ok && e.loaded != nil {
		return e.loaded, nil
	}
	t, err := e.factory()
	if err != nil {
		return nil, RegistryError{Action: "Resolve", Message: fmt.Sprintf("factory for %q failed", name), Err: err}
	}
	e.loaded = t
	_ = r.base.Remove(name)
	_ = r.base.Register(name, e)
	return t, nil
}

// IsLoaded reports whether name is either a plain registration or a
// factory whose instance has already been materialized.
func (r *Registry) IsLoaded(name string) bool {
	e, ok := r.base.Get(name)
	return ok && (e.tool != nil || e.loaded != nil)
}

// Remove drops a tool from the registry entirely.
func (r *Registry) Remove(name string) error {
	if err := r.base.Remove(name); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, n := range r.order {
		if n == name {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Names returns every registered tool name, loaded or not, in registration
// order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// ExecuteTool resolves name and invokes it with kwargs, dispatching to
// Forward or ForwardAsync depending on which interface the tool
// implements, matching spec §4.A's uniform `tool(**kwargs)` call surface.
func (r *Registry) ExecuteTool(ctx context.Context, name string, kwargs map[string]value.Value) (value.Value, error) {
	t, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	native := KwargsToNative(kwargs)

	var (
		out  interface{}
		ferr error
	)
	switch tt := t.(type) {
	case AsyncTool:
		out, ferr = tt.ForwardAsync(ctx, native)
	case SyncTool:
		out, ferr = tt.Forward(ctx, native)
	default:
		return nil, RegistryError{Action: "ExecuteTool", Message: fmt.Sprintf("tool %q implements neither SyncTool nor AsyncTool", name)}
	}
	if ferr != nil {
		return nil, ferr
	}
	return FromNative(out), nil
}

// Info is a read-only summary of a registered tool, for enumeration in the
// reasoning loop's system message and for tool search.
type Info struct {
	Name        string
	Description string
	Schema      []Param
	Readonly    bool
	Category    string
	Loaded      bool
}

// ListTools enumerates every registered tool without forcing factory
// instantiation (a deferred tool's description/schema must therefore be
// knowable without calling its factory; callers needing the live
// description of an already-loaded tool get it via DescribingTool).
func (r *Registry) ListTools() []Info {
	var out []Info
	for _, name := range r.Names() {
		e, ok := r.base.Get(name)
		if !ok {
			continue
		}
		t := e.tool
		if t == nil {
			t = e.loaded
		}
		if t == nil {
			// factory not yet materialized: still list it by name so
			// load_tool / tool search can find it.
			out = append(out, Info{Name: name, Description: "(not yet loaded)", Loaded: false})
			continue
		}
		out = append(out, Info{
			Name:        t.Name(),
			Description: describe(t),
			Schema:      t.InputSchema(),
			Readonly:    t.Readonly(),
			Category:    t.Category(),
			Loaded:      true,
		})
	}
	return out
}

// SanitizedName converts a dotted or namespaced tool name into the
// underscore form code can reference as a bare identifier, per spec §4.B's
// load_tool result contract ("dots become underscores").
func SanitizedName(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}
