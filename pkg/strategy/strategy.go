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

// Package strategy picks which worker runs a task and, when more than one
// runs, how their answers are reduced to one. A Worker wraps anything that
// can run a task to a Result (a *loop.Loop satisfies Runner as-is); the
// Selector routes a task to one Worker by name via a one-shot LLM call,
// and EnsembleRunner runs several and reduces their answers.
package strategy

import (
	"context"

	"github.com/kadirpekel/tcoagent/pkg/loop"
)

// Runner is anything that can carry a task to completion. *loop.Loop
// satisfies this directly; tests substitute fakes.
type Runner interface {
	Run(ctx context.Context, task string) (*loop.Result, error)
}

// Worker names and describes a Runner so the Selector and ensemble
// reduction strategies have something to route and rank by.
type Worker struct {
	Name           string
	Description    string
	RecommendedLLM string
	// Score is a static, pre-configured weight (e.g. a prior check pass
	// rate) consulted by BestOfN and RankedImprovement; workers with no
	// opinion on their own quality leave this at zero.
	Score  float64
	Runner Runner
}

// run is the internal pairing of a Worker with the Result its Runner
// produced, threaded through the ensemble reduction strategies.
type run struct {
	worker *Worker
	result *loop.Result
	err    error
}

// Registry holds the known Workers, in the order they were registered.
type Registry struct {
	workers []*Worker
	byName  map[string]*Worker
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Worker)}
}

func (r *Registry) Register(w *Worker) {
	r.workers = append(r.workers, w)
	r.byName[w.Name] = w
}

func (r *Registry) Get(name string) (*Worker, bool) {
	w, ok := r.byName[name]
	return w, ok
}

func (r *Registry) List() []*Worker {
	return r.workers
}

// Filter returns the subset of registered Workers keep reports true for,
// preserving registration order. The Selector's prompt is built over this
// filtered set, not the whole registry, so callers can narrow candidates
// by task shape before routing.
func (r *Registry) Filter(keep func(*Worker) bool) []*Worker {
	out := make([]*Worker, 0, len(r.workers))
	for _, w := range r.workers {
		if keep(w) {
			out = append(out, w)
		}
	}
	return out
}
