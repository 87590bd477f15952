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
	"github.com/kadirpekel/tcoagent/pkg/value"
)

// userFunction is a closure over either a `def` body or a lambda
// expression. It implements value.Callable so it can be stored in
// variables, passed around, and invoked uniformly with tool callables.
type userFunction struct {
	value.CallableBase
	def     *ast.FunctionDef // set for `def`
	lambda  *ast.Lambda      // set for lambda
	closure *Env
	interp  *Interpreter
}

func (f *userFunction) CallableName() string {
	if f.def != nil {
		return f.def.Name
	}
	return "<lambda>"
}

func (f *userFunction) String() string {
	return "<function " + f.CallableName() + ">"
}

func (f *userFunction) params() []ast.Param {
	if f.def != nil {
		return f.def.Params
	}
	return f.lambda.Params
}

func (f *userFunction) isAsync() bool {
	return f.def != nil && f.def.IsAsync
}

func (f *userFunction) isGenerator() bool {
	if f.def == nil {
		return false
	}
	return bodyYields(f.def.Body)
}

func bodyYields(body []ast.Stmt) bool {
	found := false
	var walkStmt func(ast.Stmt)
	var walkExpr func(ast.Expr)
	walkExpr = func(e ast.Expr) {
		if found || e == nil {
			return
		}
		switch x := e.(type) {
		case *ast.Yield:
			found = true
			walkExpr(x.Value)
		case *ast.BinOp:
			walkExpr(x.Left)
			walkExpr(x.Right)
		case *ast.UnaryOp:
			walkExpr(x.X)
		case *ast.Call:
			walkExpr(x.Func)
			for _, a := range x.Args {
				walkExpr(a)
			}
		case *ast.IfExp:
			walkExpr(x.Test)
			walkExpr(x.Body)
			walkExpr(x.Orelse)
		}
	}
	walkStmt = func(s ast.Stmt) {
		if found || s == nil {
			return
		}
		switch x := s.(type) {
		case *ast.ExprStmt:
			walkExpr(x.X)
		case *ast.Assign:
			walkExpr(x.Value)
		case *ast.If:
			walkExpr(x.Test)
			for _, b := range x.Body {
				walkStmt(b)
			}
			for _, b := range x.Else {
				walkStmt(b)
			}
		case *ast.For:
			for _, b := range x.Body {
				walkStmt(b)
			}
		case *ast.While:
			for _, b := range x.Body {
				walkStmt(b)
			}
		case *ast.Try:
			for _, b := range x.Body {
				walkStmt(b)
			}
			for _, h := range x.Handlers {
				for _, b := range h.Body {
					walkStmt(b)
				}
			}
		case *ast.Return:
			walkExpr(x.Value)
		}
	}
	for _, s := range body {
		walkStmt(s)
	}
	return found
}

func (f *userFunction) Call(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	callEnv := f.closure.Child()
	if err := f.bindParams(callEnv, args, kwargs); err != nil {
		return nil, err
	}
	if f.lambda != nil {
		return f.interp.evalExpr(context.Background(), callEnv, f.lambda.Body)
	}
	if f.isGenerator() {
		return newGenerator(f.interp, callEnv, f.def.Body), nil
	}
	run := func() (value.Value, error) {
		err := f.interp.evalBlock(context.Background(), callEnv, f.def.Body)
		if err == nil {
			return value.Null{}, nil
		}
		if rs, ok := err.(returnSignal); ok {
			return rs.Value, nil
		}
		return nil, err
	}
	if f.isAsync() {
		return value.NewAwaitable(run), nil
	}
	return run()
}

// bindParams evaluates defaults against the function's closure, not the
// call site, matching Python's defining-scope default lookup (though
// unlike CPython, defaults are evaluated per call rather than once at
// def time, so a mutable default does not alias across calls).
func (f *userFunction) bindParams(env *Env, args []value.Value, kwargs map[string]value.Value) error {
	params := f.params()
	i := 0
	for _, p := range params {
		switch {
		case p.IsArgs:
			rest := append([]value.Value{}, args[i:]...)
			env.Set(p.Name, value.NewList(rest))
			i = len(args)
		case p.IsKwargs:
			m := value.NewMap()
			for k, v := range kwargs {
				_ = m.Set(value.Str(k), v)
			}
			env.Set(p.Name, m)
		default:
			if v, ok := kwargs[p.Name]; ok {
				env.Set(p.Name, v)
				continue
			}
			if i < len(args) {
				env.Set(p.Name, args[i])
				i++
				continue
			}
			if p.Default != nil {
				v, err := f.interp.evalExpr(context.Background(), f.closure, p.Default)
				if err != nil {
					return err
				}
				env.Set(p.Name, v)
				continue
			}
			return raisef("TypeError", "missing required argument: %q", p.Name)
		}
	}
	return nil
}
