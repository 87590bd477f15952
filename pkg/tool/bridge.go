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

	"github.com/kadirpekel/tcoagent/pkg/value"
)

// Executor performs the actual dispatch for a bound tool call. The zero
// value routes straight to the Registry; pkg/loop installs an Executor
// that runs every call through the hook pipeline first, so code-driven
// tool calls and hook-mediated ones share one call path.
type Executor interface {
	Execute(ctx context.Context, name string, kwargs map[string]value.Value) (value.Value, error)
}

type registryExecutor struct{ reg *Registry }

func (e registryExecutor) Execute(ctx context.Context, name string, kwargs map[string]value.Value) (value.Value, error) {
	return e.reg.ExecuteTool(ctx, name, kwargs)
}

// Namespace adapts a Registry to pkg/interp's ToolNamespace interface, so
// the evaluator can resolve `web_search(...)` as an ordinary Name lookup
// that falls through to the tool registry.
type Namespace struct {
	Registry *Registry
	Ctx      context.Context
	Exec     Executor
}

// NewNamespace wraps a Registry for use as an interp.ToolNamespace. ctx is
// the context threaded through every tool call issued from interpreted
// code (cancellation, deadlines); pass context.Background() if the caller
// manages cancellation at the Run() call instead. Calls dispatch straight
// to the registry; use NewNamespaceWithExecutor to route them through a
// hook pipeline instead.
func NewNamespace(reg *Registry, ctx context.Context) *Namespace {
	return NewNamespaceWithExecutor(reg, ctx, registryExecutor{reg: reg})
}

// NewNamespaceWithExecutor wraps a Registry whose calls are dispatched
// through exec instead of directly, so a hook pipeline (or any other
// call-interception layer) sees every call the evaluator makes.
func NewNamespaceWithExecutor(reg *Registry, ctx context.Context, exec Executor) *Namespace {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Namespace{Registry: reg, Ctx: ctx, Exec: exec}
}

// Lookup resolves name to a value.Callable bound to this namespace's
// registry and context. It also recognizes the sanitized (dots-to-
// underscores) form load_tool produced.
func (n *Namespace) Lookup(name string) (value.Callable, bool) {
	if _, err := n.Registry.Resolve(name); err == nil {
		return &boundTool{ns: n, name: name}, true
	}
	for _, real := range n.Registry.Names() {
		if SanitizedName(real) == name {
			return &boundTool{ns: n, name: real}, true
		}
	}
	return nil, false
}

// boundTool is the value.Callable the evaluator actually invokes: calling
// it threads the namespace's context into Registry.ExecuteTool.
type boundTool struct {
	value.CallableBase
	ns   *Namespace
	name string
}

func (b *boundTool) CallableName() string { return b.name }
func (b *boundTool) String() string       { return "<tool " + b.name + ">" }

func (b *boundTool) Call(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	merged := make(map[string]value.Value, len(kwargs))
	for k, v := range kwargs {
		merged[k] = v
	}
	// Positional args are rare for tool calls (the loop's system prompt
	// instructs keyword-only use per spec §4.E) but are accepted
	// positionally against the tool's declared schema order when given.
	if len(args) > 0 {
		t, err := b.ns.Registry.Resolve(b.name)
		if err == nil {
			schema := t.InputSchema()
			for i, a := range args {
				if i >= len(schema) {
					break
				}
				merged[schema[i].Name] = a
			}
		}
	}
	if t, err := b.ns.Registry.Resolve(b.name); err == nil {
		if _, ok := t.(AsyncTool); ok {
			return value.NewAwaitable(func() (value.Value, error) {
				return b.ns.Exec.Execute(b.ns.Ctx, b.name, merged)
			}), nil
		}
	}
	return b.ns.Exec.Execute(b.ns.Ctx, b.name, merged)
}
