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

package interp

import "github.com/kadirpekel/tcoagent/pkg/value"

// Env is one link in the scope chain: local -> enclosing closures ->
// the user's persistent global namespace -> builtins -> tool namespace.
// Each call frame gets its own Env with parent set to the defining
// closure's Env, not the caller's, giving Python's lexical scoping.
type Env struct {
	vars    map[string]value.Value
	parent  *Env
	globals *Env // the namespace `global` statements write through to
	declaredGlobal  map[string]bool
	declaredNonlocal map[string]bool
}

// NewEnv creates a root environment, typically the user-global scope.
func NewEnv(parent *Env) *Env {
	e := &Env{vars: map[string]value.Value{}, parent: parent}
	if parent != nil {
		e.globals = parent.globals
	} else {
		e.globals = e
	}
	return e
}

// Child creates a new scope whose parent is e, e.g. for a function call.
func (e *Env) Child() *Env {
	return NewEnv(e)
}

// Get resolves a name up the scope chain.
func (e *Env) Get(name string) (value.Value, bool) {
	for env := e; env != nil; env = env.parent {
		if v, ok := env.vars[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// Set assigns name in the appropriate scope: globals if declared via
// `global`, the enclosing function scope if declared via `nonlocal`,
// otherwise the local scope (Python's assignment-creates-local rule).
func (e *Env) Set(name string, v value.Value) {
	if e.declaredGlobal != nil && e.declaredGlobal[name] {
		e.globals.vars[name] = v
		return
	}
	if e.declaredNonlocal != nil && e.declaredNonlocal[name] {
		for env := e.parent; env != nil; env = env.parent {
			if _, ok := env.vars[name]; ok {
				env.vars[name] = v
				return
			}
		}
	}
	e.vars[name] = v
}

// DeclareGlobal marks name as resolving against the global scope for
// the remainder of this Env's lifetime.
func (e *Env) DeclareGlobal(name string) {
	if e.declaredGlobal == nil {
		e.declaredGlobal = map[string]bool{}
	}
	e.declaredGlobal[name] = true
}

// DeclareNonlocal marks name as resolving against the nearest enclosing
// scope that already binds it.
func (e *Env) DeclareNonlocal(name string) {
	if e.declaredNonlocal == nil {
		e.declaredNonlocal = map[string]bool{}
	}
	e.declaredNonlocal[name] = true
}

// Delete removes name from the scope it's found in, if any.
func (e *Env) Delete(name string) {
	for env := e; env != nil; env = env.parent {
		if _, ok := env.vars[name]; ok {
			delete(env.vars, name)
			return
		}
	}
}
