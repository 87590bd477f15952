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
	"testing"
	"time"

	"github.com/kadirpekel/tcoagent/pkg/tcoerrors"
	"github.com/kadirpekel/tcoagent/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, src string) *Result {
	t.Helper()
	it := New(nil, DefaultConfig())
	res, err := it.Run(context.Background(), src)
	require.NoError(t, err)
	return res
}

func TestInterpreter_Arithmetic(t *testing.T) {
	t.Run("arbitrary precision integers", func(t *testing.T) {
		res := run(t, "99999999999999999999999999 * 2")
		assert.Equal(t, "199999999999999999999999998", res.Value.String())
	})

	t.Run("float division", func(t *testing.T) {
		res := run(t, "7 / 2")
		assert.Equal(t, "3.5", res.Value.String())
	})

	t.Run("floor division and modulo", func(t *testing.T) {
		res := run(t, "(7 // 2, 7 % 2)")
		assert.Equal(t, "[3, 1]", res.Value.String())
	})
}

func TestInterpreter_ControlFlow(t *testing.T) {
	t.Run("for loop accumulation", func(t *testing.T) {
		res := run(t, "total = 0\nfor i in range(5):\n    total = total + i\ntotal")
		assert.Equal(t, "10", res.Value.String())
	})

	t.Run("while with break", func(t *testing.T) {
		res := run(t, "i = 0\nwhile True:\n    i = i + 1\n    if i == 3:\n        break\ni")
		assert.Equal(t, "3", res.Value.String())
	})

	t.Run("nested function with closure", func(t *testing.T) {
		res := run(t, "def make_adder(n):\n    def add(x):\n        return x + n\n    return add\nadd5 = make_adder(5)\nadd5(10)")
		assert.Equal(t, "15", res.Value.String())
	})
}

func TestInterpreter_Collections(t *testing.T) {
	t.Run("list comprehension", func(t *testing.T) {
		res := run(t, "[x * x for x in range(5) if x % 2 == 0]")
		assert.Equal(t, "[0, 4, 16]", res.Value.String())
	})

	t.Run("dict operations preserve insertion order", func(t *testing.T) {
		res := run(t, "d = {}\nd['b'] = 1\nd['a'] = 2\nlist(d.keys())")
		assert.Equal(t, "['b', 'a']", res.Value.String())
	})

	t.Run("list aliasing matches python reference semantics", func(t *testing.T) {
		res := run(t, "a = [1, 2]\nb = a\nb.append(3)\na")
		assert.Equal(t, "[1, 2, 3]", res.Value.String())
	})
}

func TestInterpreter_Exceptions(t *testing.T) {
	t.Run("try except catches by kind", func(t *testing.T) {
		res := run(t, "result = None\ntry:\n    1 / 0\nexcept ZeroDivisionError:\n    result = 'caught'\nresult")
		assert.Equal(t, "caught", res.Value.String())
	})

	t.Run("uncaught exception surfaces as InterpreterError", func(t *testing.T) {
		it := New(nil, DefaultConfig())
		_, err := it.Run(context.Background(), "1 / 0")
		require.Error(t, err)
		var ie tcoerrors.InterpreterError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, "ZeroDivisionError", ie.Kind)
	})

	t.Run("finally always runs", func(t *testing.T) {
		res := run(t, "log = []\ntry:\n    raise ValueError('boom')\nexcept ValueError:\n    log.append('handled')\nfinally:\n    log.append('cleanup')\nlog")
		assert.Equal(t, "['handled', 'cleanup']", res.Value.String())
	})
}

func TestInterpreter_FinalAnswer(t *testing.T) {
	t.Run("final_answer ends the step with its value", func(t *testing.T) {
		it := New(nil, DefaultConfig())
		res, err := it.Run(context.Background(), "x = 41\nfinal_answer(x + 1)")
		require.NoError(t, err)
		require.True(t, res.FinalAnswer)
		assert.Equal(t, "42", res.Value.String())
	})

	t.Run("code after final_answer never runs", func(t *testing.T) {
		it := New(nil, DefaultConfig())
		res, err := it.Run(context.Background(), "final_answer('done')\nraise ValueError('should not run')")
		require.NoError(t, err)
		assert.Equal(t, "done", res.Value.String())
	})
}

func TestInterpreter_UnauthorizedImport(t *testing.T) {
	it := New(nil, DefaultConfig())
	_, err := it.Run(context.Background(), "import os")
	require.Error(t, err)
	var ie tcoerrors.InterpreterError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "ImportError", ie.Kind)
}

func TestInterpreter_AuthorizedImport(t *testing.T) {
	res := run(t, "import math\nmath.sqrt(16)")
	assert.Equal(t, "4.0", res.Value.String())
}

func TestInterpreter_OperationBudget(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxOperations = 50
	it := New(nil, cfg)
	_, err := it.Run(context.Background(), "i = 0\nwhile True:\n    i = i + 1")
	require.Error(t, err)
	var be tcoerrors.BudgetExhaustedError
	require.ErrorAs(t, err, &be)
}

func TestInterpreter_PrintBufferCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPrintBufferLen = 10
	it := New(nil, cfg)
	res, err := it.Run(context.Background(), "print('this is longer than ten bytes')")
	require.NoError(t, err)
	assert.True(t, res.PrintTrunc)
	assert.LessOrEqual(t, len(res.Printed), 10)
}

func TestInterpreter_Generators(t *testing.T) {
	res := run(t, "def countup(n):\n    i = 0\n    while i < n:\n        yield i\n        i = i + 1\nlist(countup(4))")
	assert.Equal(t, "[0, 1, 2, 3]", res.Value.String())
}

func TestInterpreter_AbandonedGenerator_ExitsWhenStepCtxCancelled(t *testing.T) {
	it := New(nil, DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())

	_, err := it.Run(ctx, "def gen():\n    yield 1\n    yield 2\ng = gen()")
	require.NoError(t, err)

	v, ok := it.Globals.Get("g")
	require.True(t, ok)
	g, ok := v.(*generator)
	require.True(t, ok)

	cancel()

	select {
	case <-g.doneCh:
	case <-time.After(time.Second):
		t.Fatal("generator goroutine did not exit after its step context was cancelled")
	}
}

func TestInterpreter_AsyncAwait(t *testing.T) {
	res := run(t, "async def compute():\n    return 21 * 2\nawait compute()")
	assert.Equal(t, "42", res.Value.String())
}

type stubTool struct {
	value.CallableBase
	name string
	fn   func(args []value.Value, kwargs map[string]value.Value) (value.Value, error)
}

func (s *stubTool) CallableName() string { return s.name }
func (s *stubTool) String() string       { return "<tool " + s.name + ">" }
func (s *stubTool) Call(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	return s.fn(args, kwargs)
}

type stubNamespace struct {
	tools map[string]value.Callable
}

func (n *stubNamespace) Lookup(name string) (value.Callable, bool) {
	c, ok := n.tools[name]
	return c, ok
}

func TestInterpreter_ToolDispatch(t *testing.T) {
	ns := &stubNamespace{tools: map[string]value.Callable{
		"web_search": &stubTool{name: "web_search", fn: func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
			q, _ := args[0].(value.Str)
			return value.Str("results for " + string(q)), nil
		}},
	}}
	it := New(ns, DefaultConfig())
	res, err := it.Run(context.Background(), "web_search('weather in paris')")
	require.NoError(t, err)
	assert.Equal(t, "results for weather in paris", res.Value.String())
}

func TestInterpreter_FStrings(t *testing.T) {
	res := run(t, "name = 'Ada'\nage = 36\nf'{name} is {age} years old'")
	assert.Equal(t, "Ada is 36 years old", res.Value.String())
}
