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

import (
	"context"

	"github.com/kadirpekel/tcoagent/pkg/interp/ast"
	"github.com/kadirpekel/tcoagent/pkg/tcoerrors"
	"github.com/kadirpekel/tcoagent/pkg/value"
)

// generator runs a function body with `yield` on its own goroutine,
// the same goroutine-as-coroutine idiom value.Awaitable uses for async
// functions: cooperative handoff through unbuffered channels rather than
// a hand-written state machine. Every handoff also selects on ctx, the
// Run step's context captured at creation time, so a generator that is
// created but never exhausted gets unblocked and reclaimed the moment
// its step ends instead of leaking for the rest of the process's life.
type generator struct {
	value.CallableBase
	ctx      context.Context
	yieldCh  chan value.Value
	resumeCh chan struct{}
	doneCh   chan struct{}
	err      error
}

type genKeyType struct{}

var genKey = genKeyType{}

func genFromContext(ctx context.Context) (*generator, bool) {
	g, ok := ctx.Value(genKey).(*generator)
	return g, ok
}

func newGenerator(it *Interpreter, env *Env, body []ast.Stmt) *generator {
	runCtx := it.runCtx
	if runCtx == nil {
		runCtx = context.Background()
	}
	g := &generator{
		ctx:      runCtx,
		yieldCh:  make(chan value.Value),
		resumeCh: make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	go func() {
		defer close(g.doneCh)
		select {
		case <-g.resumeCh:
		case <-g.ctx.Done():
			g.err = tcoerrors.CancellationError{Reason: g.ctx.Err().Error()}
			return
		}
		ctx := context.WithValue(g.ctx, genKey, g)
		err := it.evalBlock(ctx, env, body)
		if _, ok := err.(returnSignal); ok {
			err = nil
		}
		g.err = err
	}()
	return g
}

// yield is called from the evaluator goroutine running the generator's
// body; it hands a value to the consumer and blocks until resumed, or
// until g.ctx ends, so an abandoned generator's goroutine exits instead
// of blocking on a handoff nobody will complete.
func (g *generator) yield(v value.Value) (value.Value, error) {
	select {
	case g.yieldCh <- v:
	case <-g.ctx.Done():
		return nil, tcoerrors.CancellationError{Reason: g.ctx.Err().Error()}
	}
	select {
	case <-g.resumeCh:
		return value.Null{}, nil
	case <-g.ctx.Done():
		return nil, tcoerrors.CancellationError{Reason: g.ctx.Err().Error()}
	}
}

// next resumes the generator and waits for its next yield or
// completion. ok is false once the generator has run to exhaustion or
// g.ctx ends before it does.
func (g *generator) next() (value.Value, bool, error) {
	select {
	case g.resumeCh <- struct{}{}:
	case <-g.doneCh:
		return value.Null{}, false, g.err
	case <-g.ctx.Done():
		return value.Null{}, false, tcoerrors.CancellationError{Reason: g.ctx.Err().Error()}
	}
	select {
	case v := <-g.yieldCh:
		return v, true, nil
	case <-g.doneCh:
		return value.Null{}, false, g.err
	case <-g.ctx.Done():
		return value.Null{}, false, tcoerrors.CancellationError{Reason: g.ctx.Err().Error()}
	}
}

// drain collects every remaining value, used when a generator is passed
// to for/list/sum and similar eager consumers.
func (g *generator) drain() ([]value.Value, error) {
	var out []value.Value
	for {
		v, ok, err := g.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

func (g *generator) Kind() value.Kind     { return value.KindHandle }
func (g *generator) Truthy() bool         { return true }
func (g *generator) String() string       { return "<generator>" }
func (g *generator) Equal(o value.Value) bool { return g == o }
func (g *generator) CallableName() string { return "<generator>" }
func (g *generator) Call(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	return nil, raise("TypeError", "generator object is not callable")
}
