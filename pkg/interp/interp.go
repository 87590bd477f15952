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

// Package interp is the tree-walking evaluator for the sandboxed
// Python-like expression language: scope-chain name resolution,
// exceptions-as-values, an operation-count budget and print-buffer cap,
// an authorized-imports whitelist, and the final_answer control-flow
// sentinel a Thought/Code/Observation step ends on.
package interp

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/kadirpekel/tcoagent/pkg/interp/ast"
	"github.com/kadirpekel/tcoagent/pkg/interp/parser"
	"github.com/kadirpekel/tcoagent/pkg/tcoerrors"
	"github.com/kadirpekel/tcoagent/pkg/value"
)

// ToolNamespace resolves a dotted or bare tool name to a callable, the
// sandbox's view of the host's tool registry. Name resolution falls
// through to it only after locals/closures/globals/builtins miss.
type ToolNamespace interface {
	Lookup(name string) (value.Callable, bool)
}

// Config bounds a single evaluation: how many AST-node "operations" it
// may perform, how much output print() may accumulate, and which
// modules import is allowed to bring in.
type Config struct {
	MaxOperations     int
	MaxPrintBufferLen  int
	AuthorizedImports []string
}

// DefaultConfig matches the conservative defaults in the original
// authorized-imports scheme: a handful of safe stdlib-equivalents and a
// one-million operation budget, generous enough for real tool-use loops
// but well short of runaway.
func DefaultConfig() Config {
	return Config{
		MaxOperations:     1_000_000,
		MaxPrintBufferLen: 50_000,
		AuthorizedImports: []string{"math", "json", "re", "itertools", "statistics", "collections", "datetime", "random", "time"},
	}
}

// Interpreter evaluates one Module against a persistent global Env. A
// fresh Interpreter is normally built per agent, its Globals surviving
// across successive code steps the way a Python REPL's globals() does.
type Interpreter struct {
	Globals *Env
	Tools   ToolNamespace
	Config  Config

	opCount     int
	printBuf    strings.Builder
	printCapHit bool

	// runCtx is the context of the Run call currently in flight. A
	// generator created mid-step captures it at creation time so its
	// background goroutine can be unblocked by the same cancellation
	// that ends the step, instead of outliving it.
	runCtx context.Context
}

// New creates an Interpreter with a fresh global scope.
func New(tools ToolNamespace, cfg Config) *Interpreter {
	return &Interpreter{Globals: NewEnv(nil), Tools: tools, Config: cfg}
}

// Result is what a single Run produces: either a final_answer() value,
// or the value of the trailing expression statement (matching a REPL's
// last-expression-is-the-result convention used for Observation
// rendering), plus anything printed.
type Result struct {
	Value       value.Value
	FinalAnswer bool
	Printed     string
	PrintTrunc  bool

	// OriginTool is the tool name the trailing expression statement
	// called (directly, or under a single await), if any — resolved by
	// walking the AST rather than guessing from the value's shape.
	// Empty when the trailing expression was not a tool call, e.g. an
	// arithmetic expression or a call to a user-defined function.
	OriginTool string
}

// Run parses and evaluates src against the interpreter's persistent
// global scope.
func (it *Interpreter) Run(ctx context.Context, src string) (*Result, error) {
	mod, err := parser.Parse(src)
	if err != nil {
		return nil, tcoerrors.ParseError{Msg: err.Error()}
	}
	it.printBuf.Reset()
	it.printCapHit = false
	it.opCount = 0
	it.runCtx = ctx
	defer func() { it.runCtx = nil }()

	var last value.Value = value.Null{}
	var lastOrigin string
	for _, stmt := range mod.Body {
		if err := ctx.Err(); err != nil {
			return nil, tcoerrors.CancellationError{Reason: err.Error()}
		}
		if es, ok := stmt.(*ast.ExprStmt); ok {
			v, err := it.evalExpr(ctx, it.Globals, es.X)
			if err != nil {
				if fa, ok := err.(finalAnswerSignal); ok {
					return &Result{Value: fa.Value, FinalAnswer: true, Printed: it.printBuf.String(), PrintTrunc: it.printCapHit}, nil
				}
				return nil, it.wrapErr(err)
			}
			last = v
			lastOrigin = it.originToolName(es.X)
			continue
		}
		lastOrigin = ""
		if err := it.evalStmt(ctx, it.Globals, stmt); err != nil {
			if fa, ok := err.(finalAnswerSignal); ok {
				return &Result{Value: fa.Value, FinalAnswer: true, Printed: it.printBuf.String(), PrintTrunc: it.printCapHit}, nil
			}
			return nil, it.wrapErr(err)
		}
	}
	if _, ok := last.(*value.Awaitable); ok {
		return nil, tcoerrors.InterpreterError{Kind: "RuntimeError", Msg: "coroutine was never awaited"}
	}
	return &Result{Value: last, Printed: it.printBuf.String(), PrintTrunc: it.printCapHit, OriginTool: lastOrigin}, nil
}

// originToolName reports the tool name a trailing expression called, if
// it (or the value it awaits) is a direct call to a name that resolves
// through it.Tools rather than through env, print, or a builtin —
// mirroring the *ast.Name resolution order in evalExpr so a user
// function of the same name correctly shadows the tool.
func (it *Interpreter) originToolName(e ast.Expr) string {
	if a, ok := e.(*ast.Await); ok {
		e = a.Value
	}
	call, ok := e.(*ast.Call)
	if !ok {
		return ""
	}
	name, ok := call.Func.(*ast.Name)
	if !ok {
		return ""
	}
	if _, shadowed := it.Globals.Get(name.Ident); shadowed {
		return ""
	}
	if name.Ident == "print" {
		return ""
	}
	if _, ok := builtins[name.Ident]; ok {
		return ""
	}
	if it.Tools == nil {
		return ""
	}
	if _, ok := it.Tools.Lookup(name.Ident); !ok {
		return ""
	}
	return name.Ident
}

func (it *Interpreter) wrapErr(err error) error {
	if re, ok := err.(raisedException); ok {
		return tcoerrors.InterpreterError{Kind: re.Exc.ExcKind, Msg: re.Exc.Msg, Err: re}
	}
	return err
}

func (it *Interpreter) tick() error {
	it.opCount++
	if it.opCount > it.Config.MaxOperations {
		return tcoerrors.BudgetExhaustedError{MaxIterations: it.Config.MaxOperations}
	}
	return nil
}

// printCallable builds a fresh print() bound to this interpreter's
// output buffer; it's rebuilt per lookup rather than cached since the
// global builtins table has no interpreter to close over.
func (it *Interpreter) printCallable() value.Callable {
	return nativeFn("print", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		sep := " "
		if s, ok := kwargs["sep"].(value.Str); ok {
			sep = string(s)
		}
		end := "\n"
		if s, ok := kwargs["end"].(value.Str); ok {
			end = string(s)
		}
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = a.String()
		}
		it.print(strings.Join(parts, sep) + end)
		return value.Null{}, nil
	})
}

func (it *Interpreter) print(s string) {
	if it.printCapHit {
		return
	}
	if it.printBuf.Len()+len(s) > it.Config.MaxPrintBufferLen {
		remaining := it.Config.MaxPrintBufferLen - it.printBuf.Len()
		if remaining > 0 {
			it.printBuf.WriteString(s[:remaining])
		}
		it.printCapHit = true
		return
	}
	it.printBuf.WriteString(s)
}

// ---- Statements ----

func (it *Interpreter) evalStmt(ctx context.Context, env *Env, stmt ast.Stmt) error {
	if err := it.tick(); err != nil {
		return err
	}
	switch s := stmt.(type) {
	case *ast.ExprStmt:
		_, err := it.evalExpr(ctx, env, s.X)
		return err
	case *ast.Assign:
		v, err := it.evalExpr(ctx, env, s.Value)
		if err != nil {
			return err
		}
		for _, t := range s.Targets {
			if err := it.assignTo(ctx, env, t, v); err != nil {
				return err
			}
		}
		return nil
	case *ast.AugAssign:
		cur, err := it.evalExpr(ctx, env, s.Target)
		if err != nil {
			return err
		}
		rhs, err := it.evalExpr(ctx, env, s.Value)
		if err != nil {
			return err
		}
		result, err := it.binOp(s.Op, cur, rhs)
		if err != nil {
			return err
		}
		return it.assignTo(ctx, env, s.Target, result)
	case *ast.If:
		test, err := it.evalExpr(ctx, env, s.Test)
		if err != nil {
			return err
		}
		if test.Truthy() {
			return it.evalBlock(ctx, env, s.Body)
		}
		return it.evalBlock(ctx, env, s.Else)
	case *ast.While:
		for {
			if err := it.tick(); err != nil {
				return err
			}
			test, err := it.evalExpr(ctx, env, s.Test)
			if err != nil {
				return err
			}
			if !test.Truthy() {
				return it.evalBlock(ctx, env, s.Else)
			}
			if err := it.evalBlock(ctx, env, s.Body); err != nil {
				if _, ok := err.(breakSignal); ok {
					return nil
				}
				if _, ok := err.(continueSignal); ok {
					continue
				}
				return err
			}
		}
	case *ast.For:
		iterVal, err := it.evalExpr(ctx, env, s.Iter)
		if err != nil {
			return err
		}
		items, err := it.iterate(iterVal)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := it.tick(); err != nil {
				return err
			}
			if err := it.assignTo(ctx, env, s.Target, item); err != nil {
				return err
			}
			if err := it.evalBlock(ctx, env, s.Body); err != nil {
				if _, ok := err.(breakSignal); ok {
					return nil
				}
				if _, ok := err.(continueSignal); ok {
					continue
				}
				return err
			}
		}
		return it.evalBlock(ctx, env, s.Else)
	case *ast.Break:
		return breakSignal{}
	case *ast.Continue:
		return continueSignal{}
	case *ast.Pass:
		return nil
	case *ast.Return:
		if s.Value == nil {
			return returnSignal{Value: value.Null{}}
		}
		v, err := it.evalExpr(ctx, env, s.Value)
		if err != nil {
			return err
		}
		return returnSignal{Value: v}
	case *ast.FunctionDef:
		fn := &userFunction{def: s, closure: env, interp: it}
		env.Set(s.Name, fn)
		return nil
	case *ast.Raise:
		if s.Exc == nil {
			return raise("RuntimeError", "no active exception to re-raise")
		}
		v, err := it.evalExpr(ctx, env, s.Exc)
		if err != nil {
			return err
		}
		return excFromValue(v)
	case *ast.Try:
		return it.evalTry(ctx, env, s)
	case *ast.Import:
		for _, m := range s.Modules {
			if !it.authorized(m.Name) {
				return raisef("ImportError", "import of %q is not authorized", m.Name)
			}
			mod, err := loadModule(m.Name)
			if err != nil {
				return raisef("ImportError", "%s", err.Error())
			}
			name := m.Alias
			if name == "" {
				name = m.Name
			}
			env.Set(name, mod)
		}
		return nil
	case *ast.ImportFrom:
		if !it.authorized(s.Module) {
			return raisef("ImportError", "import of %q is not authorized", s.Module)
		}
		mod, err := loadModule(s.Module)
		if err != nil {
			return raisef("ImportError", "%s", err.Error())
		}
		for _, n := range s.Names {
			v, ok := mod.Get(n.Name)
			if !ok {
				return raisef("ImportError", "cannot import name %q from %q", n.Name, s.Module)
			}
			name := n.Alias
			if name == "" {
				name = n.Name
			}
			env.Set(name, v)
		}
		return nil
	case *ast.With:
		return it.evalWith(ctx, env, s)
	case *ast.Global:
		for _, n := range s.Names {
			env.DeclareGlobal(n)
		}
		return nil
	case *ast.Nonlocal:
		for _, n := range s.Names {
			env.DeclareNonlocal(n)
		}
		return nil
	default:
		return fmt.Errorf("unsupported statement %T", stmt)
	}
}

func (it *Interpreter) evalBlock(ctx context.Context, env *Env, body []ast.Stmt) error {
	for _, s := range body {
		if err := it.evalStmt(ctx, env, s); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interpreter) evalTry(ctx context.Context, env *Env, s *ast.Try) error {
	err := it.evalBlock(ctx, env, s.Body)
	if err == nil {
		if eerr := it.evalBlock(ctx, env, s.Else); eerr != nil {
			err = eerr
		}
	}
	if re, ok := err.(raisedException); ok {
		for _, h := range s.Handlers {
			if !excMatches(h.Type, re.Exc, it, env, ctx) {
				continue
			}
			handlerEnv := env
			if h.Name != "" {
				handlerEnv.Set(h.Name, re.Exc)
			}
			herr := it.evalBlock(ctx, handlerEnv, h.Body)
			if s.Finally != nil {
				if ferr := it.evalBlock(ctx, env, s.Finally); ferr != nil {
					return ferr
				}
			}
			return herr
		}
	}
	if s.Finally != nil {
		if ferr := it.evalBlock(ctx, env, s.Finally); ferr != nil {
			return ferr
		}
	}
	return err
}

// excMatches checks whether an except clause's type expression matches
// a raised exception's kind. A bare `except:` or `except Exception:`
// always matches; otherwise the clause's name (e.g. `ValueError`) must
// equal the exception's ExcKind, or the clause may be a tuple of names.
func excMatches(typeExpr ast.Expr, exc *value.Exception, it *Interpreter, env *Env, ctx context.Context) bool {
	if typeExpr == nil {
		return true
	}
	names := excTypeNames(typeExpr)
	for _, n := range names {
		if n == "Exception" || n == "BaseException" || n == exc.ExcKind {
			return true
		}
	}
	return false
}

func excTypeNames(e ast.Expr) []string {
	switch x := e.(type) {
	case *ast.Name:
		return []string{x.Ident}
	case *ast.TupleExpr:
		var out []string
		for _, el := range x.Elts {
			out = append(out, excTypeNames(el)...)
		}
		return out
	default:
		return nil
	}
}

func excFromValue(v value.Value) error {
	if exc, ok := v.(*value.Exception); ok {
		return raisedException{Exc: exc}
	}
	return raisedException{Exc: &value.Exception{ExcKind: "RuntimeError", Msg: v.String(), Payload: v}}
}

func (it *Interpreter) evalWith(ctx context.Context, env *Env, s *ast.With) error {
	type closer interface{ Exit() error }
	var closers []closer
	for _, item := range s.Items {
		ctxVal, err := it.evalExpr(ctx, env, item.Context)
		if err != nil {
			return err
		}
		if item.Target != nil {
			if err := it.assignTo(ctx, env, item.Target, ctxVal); err != nil {
				return err
			}
		}
		if c, ok := ctxVal.(closer); ok {
			closers = append(closers, c)
		}
	}
	err := it.evalBlock(ctx, env, s.Body)
	for i := len(closers) - 1; i >= 0; i-- {
		_ = closers[i].Exit()
	}
	return err
}

func (it *Interpreter) authorized(module string) bool {
	for _, m := range it.Config.AuthorizedImports {
		if m == module {
			return true
		}
	}
	return false
}

// ---- Assignment targets ----

func (it *Interpreter) assignTo(ctx context.Context, env *Env, target ast.Expr, v value.Value) error {
	switch t := target.(type) {
	case *ast.Name:
		env.Set(t.Ident, v)
		return nil
	case *ast.TupleExpr:
		return it.assignUnpack(ctx, env, t.Elts, v)
	case *ast.ListExpr:
		return it.assignUnpack(ctx, env, t.Elts, v)
	case *ast.Subscript:
		container, err := it.evalExpr(ctx, env, t.Value)
		if err != nil {
			return err
		}
		idx, err := it.evalExpr(ctx, env, t.Index)
		if err != nil {
			return err
		}
		return it.setItem(container, idx, v)
	case *ast.Attribute:
		obj, err := it.evalExpr(ctx, env, t.Value)
		if err != nil {
			return err
		}
		if setter, ok := obj.(attrSetter); ok {
			return setter.SetAttr(t.Attr, v)
		}
		return raisef("AttributeError", "%q object has no settable attribute %q", obj.Kind(), t.Attr)
	default:
		return fmt.Errorf("invalid assignment target %T", target)
	}
}

type attrSetter interface {
	SetAttr(name string, v value.Value) error
}

func (it *Interpreter) assignUnpack(ctx context.Context, env *Env, targets []ast.Expr, v value.Value) error {
	items, err := it.iterate(v)
	if err != nil {
		return err
	}
	starIdx := -1
	for i, t := range targets {
		if _, ok := t.(*ast.Starred); ok {
			starIdx = i
			break
		}
	}
	if starIdx == -1 {
		if len(items) != len(targets) {
			return raisef("ValueError", "expected %d values to unpack, got %d", len(targets), len(items))
		}
		for i, t := range targets {
			if err := it.assignTo(ctx, env, t, items[i]); err != nil {
				return err
			}
		}
		return nil
	}
	before := starIdx
	after := len(targets) - starIdx - 1
	if len(items) < before+after {
		return raisef("ValueError", "not enough values to unpack")
	}
	for i := 0; i < before; i++ {
		if err := it.assignTo(ctx, env, targets[i], items[i]); err != nil {
			return err
		}
	}
	mid := items[before : len(items)-after]
	star := targets[starIdx].(*ast.Starred)
	if err := it.assignTo(ctx, env, star.Value, value.NewList(append([]value.Value{}, mid...))); err != nil {
		return err
	}
	for i := 0; i < after; i++ {
		if err := it.assignTo(ctx, env, targets[starIdx+1+i], items[len(items)-after+i]); err != nil {
			return err
		}
	}
	return nil
}

// ---- Expressions ----

func (it *Interpreter) evalExpr(ctx context.Context, env *Env, expr ast.Expr) (value.Value, error) {
	if err := it.tick(); err != nil {
		return nil, err
	}
	switch e := expr.(type) {
	case *ast.NumberLit:
		if e.IsFloat {
			return value.Float(e.Float), nil
		}
		bi, ok := new(big.Int).SetString(e.IntText, 10)
		if !ok {
			return nil, fmt.Errorf("invalid integer literal %q", e.IntText)
		}
		return value.NewBigInt(bi), nil
	case *ast.StringLit:
		return value.Str(e.Value), nil
	case *ast.BoolLit:
		return value.Bool(e.Value), nil
	case *ast.NoneLit:
		return value.Null{}, nil
	case *ast.FString:
		return it.evalFString(ctx, env, e)
	case *ast.Name:
		if v, ok := env.Get(e.Ident); ok {
			return v, nil
		}
		if e.Ident == "print" {
			return it.printCallable(), nil
		}
		if v, ok := builtins[e.Ident]; ok {
			return v, nil
		}
		if it.Tools != nil {
			if c, ok := it.Tools.Lookup(e.Ident); ok {
				return c, nil
			}
		}
		return nil, raisef("NameError", "name %q is not defined", e.Ident)
	case *ast.Starred:
		return it.evalExpr(ctx, env, e.Value)
	case *ast.UnaryOp:
		x, err := it.evalExpr(ctx, env, e.X)
		if err != nil {
			return nil, err
		}
		return it.unaryOp(e.Op, x)
	case *ast.BinOp:
		l, err := it.evalExpr(ctx, env, e.Left)
		if err != nil {
			return nil, err
		}
		r, err := it.evalExpr(ctx, env, e.Right)
		if err != nil {
			return nil, err
		}
		return it.binOp(e.Op, l, r)
	case *ast.BoolOp:
		var last value.Value = value.Bool(e.Op == "and")
		for _, v := range e.Values {
			val, err := it.evalExpr(ctx, env, v)
			if err != nil {
				return nil, err
			}
			last = val
			if e.Op == "and" && !val.Truthy() {
				return val, nil
			}
			if e.Op == "or" && val.Truthy() {
				return val, nil
			}
		}
		return last, nil
	case *ast.Compare:
		return it.evalCompare(ctx, env, e)
	case *ast.Call:
		return it.evalCall(ctx, env, e)
	case *ast.Attribute:
		obj, err := it.evalExpr(ctx, env, e.Value)
		if err != nil {
			return nil, err
		}
		return it.getAttr(obj, e.Attr)
	case *ast.Subscript:
		obj, err := it.evalExpr(ctx, env, e.Value)
		if err != nil {
			return nil, err
		}
		if sl, ok := e.Index.(*ast.Slice); ok {
			return it.evalSlice(ctx, env, obj, sl)
		}
		idx, err := it.evalExpr(ctx, env, e.Index)
		if err != nil {
			return nil, err
		}
		return it.getItem(obj, idx)
	case *ast.ListExpr:
		items, err := it.evalExprListExpand(ctx, env, e.Elts)
		if err != nil {
			return nil, err
		}
		return value.NewList(items), nil
	case *ast.TupleExpr:
		items, err := it.evalExprListExpand(ctx, env, e.Elts)
		if err != nil {
			return nil, err
		}
		return value.NewList(items), nil // tuples modeled as Lists; immutability not enforced
	case *ast.SetExpr:
		items, err := it.evalExprListExpand(ctx, env, e.Elts)
		if err != nil {
			return nil, err
		}
		s, err := value.NewSet(items)
		if err != nil {
			return nil, raise("TypeError", err.Error())
		}
		return s, nil
	case *ast.DictExpr:
		m := value.NewMap()
		for i, k := range e.Keys {
			val, err := it.evalExpr(ctx, env, e.Values[i])
			if err != nil {
				return nil, err
			}
			if k == nil {
				src, ok := val.(*value.Map)
				if !ok {
					return nil, raise("TypeError", "argument of type is not a mapping")
				}
				for _, kv := range src.Items() {
					if err := m.Set(kv[0], kv[1]); err != nil {
						return nil, raise("TypeError", err.Error())
					}
				}
				continue
			}
			kv, err := it.evalExpr(ctx, env, k)
			if err != nil {
				return nil, err
			}
			if err := m.Set(kv, val); err != nil {
				return nil, raise("TypeError", err.Error())
			}
		}
		return m, nil
	case *ast.Comp:
		return it.evalComp(ctx, env, e)
	case *ast.Lambda:
		return &userFunction{lambda: e, closure: env, interp: it}, nil
	case *ast.IfExp:
		test, err := it.evalExpr(ctx, env, e.Test)
		if err != nil {
			return nil, err
		}
		if test.Truthy() {
			return it.evalExpr(ctx, env, e.Body)
		}
		return it.evalExpr(ctx, env, e.Orelse)
	case *ast.Await:
		v, err := it.evalExpr(ctx, env, e.Value)
		if err != nil {
			return nil, err
		}
		aw, ok := v.(*value.Awaitable)
		if !ok {
			return nil, raise("TypeError", "object is not awaitable")
		}
		res, err := aw.Await()
		if err != nil {
			return nil, err
		}
		return res, nil
	case *ast.Yield:
		gen, ok := genFromContext(ctx)
		if !ok {
			return nil, raise("SyntaxError", "yield outside generator")
		}
		var v value.Value = value.Null{}
		if e.Value != nil {
			vv, err := it.evalExpr(ctx, env, e.Value)
			if err != nil {
				return nil, err
			}
			v = vv
		}
		return gen.yield(v)
	default:
		return nil, fmt.Errorf("unsupported expression %T", expr)
	}
}

func (it *Interpreter) evalExprListExpand(ctx context.Context, env *Env, elts []ast.Expr) ([]value.Value, error) {
	var out []value.Value
	for _, el := range elts {
		if st, ok := el.(*ast.Starred); ok {
			v, err := it.evalExpr(ctx, env, st.Value)
			if err != nil {
				return nil, err
			}
			items, err := it.iterate(v)
			if err != nil {
				return nil, err
			}
			out = append(out, items...)
			continue
		}
		v, err := it.evalExpr(ctx, env, el)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (it *Interpreter) evalFString(ctx context.Context, env *Env, f *ast.FString) (value.Value, error) {
	var sb strings.Builder
	for _, part := range f.Parts {
		if part.Expr == nil {
			sb.WriteString(part.Text)
			continue
		}
		v, err := it.evalExpr(ctx, env, part.Expr)
		if err != nil {
			return nil, err
		}
		sb.WriteString(formatValue(v, part.Spec))
	}
	return value.Str(sb.String()), nil
}

func formatValue(v value.Value, spec string) string {
	if spec == "" {
		return v.String()
	}
	switch spec[len(spec)-1] {
	case 'd':
		if i, ok := v.(value.Int); ok {
			return i.Big().String()
		}
	case 'f':
		prec := 6
		if dot := strings.Index(spec, "."); dot >= 0 {
			if n, err := strconv.Atoi(strings.TrimSuffix(spec[dot+1:], "f")); err == nil {
				prec = n
			}
		}
		var f float64
		switch n := v.(type) {
		case value.Float:
			f = float64(n)
		case value.Int:
			f64, _ := new(big.Float).SetInt(n.Big()).Float64()
			f = f64
		}
		return strconv.FormatFloat(f, 'f', prec, 64)
	}
	return v.String()
}

func (it *Interpreter) evalCompare(ctx context.Context, env *Env, e *ast.Compare) (value.Value, error) {
	left, err := it.evalExpr(ctx, env, e.Left)
	if err != nil {
		return nil, err
	}
	for i, op := range e.Ops {
		right, err := it.evalExpr(ctx, env, e.Comps[i])
		if err != nil {
			return nil, err
		}
		ok, err := it.compareOp(op, left, right)
		if err != nil {
			return nil, err
		}
		if !ok {
			return value.Bool(false), nil
		}
		left = right
	}
	return value.Bool(true), nil
}

func (it *Interpreter) evalComp(ctx context.Context, env *Env, c *ast.Comp) (value.Value, error) {
	var listOut []value.Value
	var setOut []value.Value
	dictOut := value.NewMap()

	var walk func(i int, scope *Env) error
	walk = func(i int, scope *Env) error {
		if i == len(c.Clauses) {
			switch c.Kind {
			case ast.CompList, ast.CompGenerator:
				v, err := it.evalExpr(ctx, scope, c.Elt)
				if err != nil {
					return err
				}
				listOut = append(listOut, v)
			case ast.CompSet:
				v, err := it.evalExpr(ctx, scope, c.Elt)
				if err != nil {
					return err
				}
				setOut = append(setOut, v)
			case ast.CompDict:
				k, err := it.evalExpr(ctx, scope, c.Key)
				if err != nil {
					return err
				}
				v, err := it.evalExpr(ctx, scope, c.Value)
				if err != nil {
					return err
				}
				if err := dictOut.Set(k, v); err != nil {
					return raise("TypeError", err.Error())
				}
			}
			return nil
		}
		clause := c.Clauses[i]
		iterVal, err := it.evalExpr(ctx, scope, clause.Iter)
		if err != nil {
			return err
		}
		items, err := it.iterate(iterVal)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := it.tick(); err != nil {
				return err
			}
			inner := scope.Child()
			if err := it.assignTo(ctx, inner, clause.Target, item); err != nil {
				return err
			}
			pass := true
			for _, cond := range clause.Ifs {
				v, err := it.evalExpr(ctx, inner, cond)
				if err != nil {
					return err
				}
				if !v.Truthy() {
					pass = false
					break
				}
			}
			if !pass {
				continue
			}
			if err := walk(i+1, inner); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(0, env); err != nil {
		return nil, err
	}
	switch c.Kind {
	case ast.CompSet:
		return value.NewSet(setOut)
	case ast.CompDict:
		return dictOut, nil
	default:
		return value.NewList(listOut), nil
	}
}

// ---- Calls ----

func (it *Interpreter) evalCall(ctx context.Context, env *Env, c *ast.Call) (value.Value, error) {
	if name, ok := c.Func.(*ast.Name); ok && name.Ident == "final_answer" {
		if _, shadowed := env.Get(name.Ident); !shadowed {
			args, _, err := it.evalArgs(ctx, env, c)
			if err != nil {
				return nil, err
			}
			var v value.Value = value.Null{}
			if len(args) > 0 {
				v = args[0]
			}
			return nil, finalAnswerSignal{Value: v}
		}
	}

	fnVal, err := it.evalExpr(ctx, env, c.Func)
	if err != nil {
		return nil, err
	}

	args, kwargs, err := it.evalArgs(ctx, env, c)
	if err != nil {
		return nil, err
	}

	callable, ok := fnVal.(value.Callable)
	if !ok {
		return nil, raisef("TypeError", "%q object is not callable", fnVal.Kind())
	}
	res, err := callable.Call(args, kwargs)
	if err != nil {
		if exc, ok := err.(*value.Exception); ok {
			return nil, raisedException{Exc: exc}
		}
		return nil, tcoerrors.ToolError{ToolName: callable.CallableName(), Err: err}
	}
	return res, nil
}

func (it *Interpreter) evalArgs(ctx context.Context, env *Env, c *ast.Call) ([]value.Value, map[string]value.Value, error) {
	args, err := it.evalExprListExpand(ctx, env, c.Args)
	if err != nil {
		return nil, nil, err
	}
	kwargs := map[string]value.Value{}
	for _, kw := range c.Kwargs {
		v, err := it.evalExpr(ctx, env, kw.Value)
		if err != nil {
			return nil, nil, err
		}
		if kw.Name == "" {
			m, ok := v.(*value.Map)
			if !ok {
				return nil, nil, raise("TypeError", "argument after ** must be a mapping")
			}
			for _, kv := range m.Items() {
				kwargs[kv[0].String()] = kv[1]
			}
			continue
		}
		kwargs[kw.Name] = v
	}
	return args, kwargs, nil
}

// ---- Operators ----

func (it *Interpreter) unaryOp(op string, x value.Value) (value.Value, error) {
	switch op {
	case "not":
		return value.Bool(!x.Truthy()), nil
	case "-":
		switch v := x.(type) {
		case value.Int:
			return value.NewBigInt(new(big.Int).Neg(v.Big())), nil
		case value.Float:
			return value.Float(-v), nil
		}
	case "+":
		return x, nil
	case "~":
		if v, ok := x.(value.Int); ok {
			return value.NewBigInt(new(big.Int).Not(v.Big())), nil
		}
	}
	return nil, raisef("TypeError", "bad operand type for unary %s: %q", op, x.Kind())
}

func asFloat(v value.Value) (float64, bool) {
	switch n := v.(type) {
	case value.Int:
		f, _ := new(big.Float).SetInt(n.Big()).Float64()
		return f, true
	case value.Float:
		return float64(n), true
	case value.Bool:
		if n {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

func (it *Interpreter) binOp(op string, l, r value.Value) (value.Value, error) {
	// string/list concatenation and repetition
	if op == "+" {
		if ls, ok := l.(value.Str); ok {
			if rs, ok := r.(value.Str); ok {
				return value.Str(string(ls) + string(rs)), nil
			}
		}
		if ll, ok := l.(*value.List); ok {
			if rl, ok := r.(*value.List); ok {
				out := append([]value.Value{}, *ll.Items...)
				out = append(out, *rl.Items...)
				return value.NewList(out), nil
			}
		}
	}
	if op == "*" {
		if ll, ok := l.(*value.List); ok {
			if n, ok := r.(value.Int); ok {
				return repeatList(ll, int(n.Int64())), nil
			}
		}
		if s, ok := l.(value.Str); ok {
			if n, ok := r.(value.Int); ok {
				return value.Str(strings.Repeat(string(s), int(n.Int64()))), nil
			}
		}
	}
	if op == "%" {
		if s, ok := l.(value.Str); ok {
			return value.Str(pyPercentFormat(string(s), r)), nil
		}
	}

	li, lok := l.(value.Int)
	ri, rok := r.(value.Int)
	if lok && rok && op != "/" {
		return intBinOp(op, li, ri)
	}

	lf, lfok := asFloat(l)
	rf, rfok := asFloat(r)
	if lfok && rfok {
		return floatBinOp(op, lf, rf)
	}

	return nil, raisef("TypeError", "unsupported operand type(s) for %s: %q and %q", op, l.Kind(), r.Kind())
}

func intBinOp(op string, l, r value.Int) (value.Value, error) {
	a, b := l.Big(), r.Big()
	switch op {
	case "+":
		return value.NewBigInt(new(big.Int).Add(a, b)), nil
	case "-":
		return value.NewBigInt(new(big.Int).Sub(a, b)), nil
	case "*":
		return value.NewBigInt(new(big.Int).Mul(a, b)), nil
	case "//":
		if b.Sign() == 0 {
			return nil, raise("ZeroDivisionError", "integer division or modulo by zero")
		}
		q := new(big.Int)
		m := new(big.Int)
		q.DivMod(a, b, m)
		return value.NewBigInt(q), nil
	case "%":
		if b.Sign() == 0 {
			return nil, raise("ZeroDivisionError", "integer division or modulo by zero")
		}
		m := new(big.Int).Mod(a, b)
		return value.NewBigInt(m), nil
	case "**":
		if b.Sign() < 0 {
			f, _ := new(big.Float).SetInt(a).Float64()
			rf, _ := new(big.Float).SetInt(b).Float64()
			return value.Float(math.Pow(f, rf)), nil
		}
		return value.NewBigInt(new(big.Int).Exp(a, b, nil)), nil
	case "&":
		return value.NewBigInt(new(big.Int).And(a, b)), nil
	case "|":
		return value.NewBigInt(new(big.Int).Or(a, b)), nil
	case "^":
		return value.NewBigInt(new(big.Int).Xor(a, b)), nil
	case "<<":
		return value.NewBigInt(new(big.Int).Lsh(a, uint(b.Int64()))), nil
	case ">>":
		return value.NewBigInt(new(big.Int).Rsh(a, uint(b.Int64()))), nil
	}
	return nil, raisef("TypeError", "unsupported int operator %s", op)
}

func floatBinOp(op string, l, r float64) (value.Value, error) {
	switch op {
	case "+":
		return value.Float(l + r), nil
	case "-":
		return value.Float(l - r), nil
	case "*":
		return value.Float(l * r), nil
	case "/":
		if r == 0 {
			return nil, raise("ZeroDivisionError", "float division by zero")
		}
		return value.Float(l / r), nil
	case "//":
		if r == 0 {
			return nil, raise("ZeroDivisionError", "float floor division by zero")
		}
		return value.Float(math.Floor(l / r)), nil
	case "%":
		if r == 0 {
			return nil, raise("ZeroDivisionError", "float modulo")
		}
		return value.Float(math.Mod(l, r)), nil
	case "**":
		return value.Float(math.Pow(l, r)), nil
	}
	return nil, raisef("TypeError", "unsupported float operator %s", op)
}

func (it *Interpreter) compareOp(op string, l, r value.Value) (bool, error) {
	switch op {
	case "==":
		return l.Equal(r), nil
	case "!=":
		return !l.Equal(r), nil
	case "is":
		return l == r || l.Equal(r), nil
	case "is not":
		return !(l == r || l.Equal(r)), nil
	case "in":
		ok, err := it.contains(r, l)
		return ok, err
	case "not in":
		ok, err := it.contains(r, l)
		return !ok, err
	}
	lf, lok := asFloat(l)
	rf, rok := asFloat(r)
	if lok && rok {
		switch op {
		case "<":
			return lf < rf, nil
		case "<=":
			return lf <= rf, nil
		case ">":
			return lf > rf, nil
		case ">=":
			return lf >= rf, nil
		}
	}
	if ls, ok := l.(value.Str); ok {
		if rs, ok := r.(value.Str); ok {
			switch op {
			case "<":
				return ls < rs, nil
			case "<=":
				return ls <= rs, nil
			case ">":
				return ls > rs, nil
			case ">=":
				return ls >= rs, nil
			}
		}
	}
	return false, raisef("TypeError", "unorderable types %q and %q", l.Kind(), r.Kind())
}

func (it *Interpreter) contains(container, item value.Value) (bool, error) {
	switch c := container.(type) {
	case *value.List:
		for _, v := range *c.Items {
			if v.Equal(item) {
				return true, nil
			}
		}
		return false, nil
	case *value.Map:
		_, ok := c.Get(item)
		return ok, nil
	case *value.Set:
		return c.Contains(item), nil
	case value.Str:
		sub, ok := item.(value.Str)
		if !ok {
			return false, raise("TypeError", "'in <string>' requires string as left operand")
		}
		return strings.Contains(string(c), string(sub)), nil
	}
	return false, raisef("TypeError", "argument of type %q is not iterable", container.Kind())
}

// ---- Indexing / slicing ----

func (it *Interpreter) getItem(obj, idx value.Value) (value.Value, error) {
	switch c := obj.(type) {
	case *value.List:
		i, err := normalizeIndex(idx, len(*c.Items))
		if err != nil {
			return nil, err
		}
		return (*c.Items)[i], nil
	case value.Str:
		runes := []rune(string(c))
		i, err := normalizeIndex(idx, len(runes))
		if err != nil {
			return nil, err
		}
		return value.Str(string(runes[i])), nil
	case *value.Map:
		v, ok := c.Get(idx)
		if !ok {
			return nil, raisef("KeyError", "%s", idx.String())
		}
		return v, nil
	}
	return nil, raisef("TypeError", "%q object is not subscriptable", obj.Kind())
}

func (it *Interpreter) setItem(obj, idx, v value.Value) error {
	switch c := obj.(type) {
	case *value.List:
		i, err := normalizeIndex(idx, len(*c.Items))
		if err != nil {
			return err
		}
		(*c.Items)[i] = v
		return nil
	case *value.Map:
		return c.Set(idx, v)
	}
	return raisef("TypeError", "%q object does not support item assignment", obj.Kind())
}

func normalizeIndex(idx value.Value, length int) (int, error) {
	ii, ok := idx.(value.Int)
	if !ok {
		return 0, raisef("TypeError", "indices must be integers, not %q", idx.Kind())
	}
	i := int(ii.Int64())
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, raise("IndexError", "index out of range")
	}
	return i, nil
}

func (it *Interpreter) evalSlice(ctx context.Context, env *Env, obj value.Value, sl *ast.Slice) (value.Value, error) {
	length, err := it.lenOf(obj)
	if err != nil {
		return nil, err
	}
	step := 1
	if sl.Step != nil {
		v, err := it.evalExpr(ctx, env, sl.Step)
		if err != nil {
			return nil, err
		}
		step = int(v.(value.Int).Int64())
		if step == 0 {
			return nil, raise("ValueError", "slice step cannot be zero")
		}
	}
	lower, upper := sliceBounds(length, step)
	if sl.Lower != nil {
		v, err := it.evalExpr(ctx, env, sl.Lower)
		if err != nil {
			return nil, err
		}
		lower = clampSliceIndex(int(v.(value.Int).Int64()), length, step < 0)
	}
	if sl.Upper != nil {
		v, err := it.evalExpr(ctx, env, sl.Upper)
		if err != nil {
			return nil, err
		}
		upper = clampSliceIndex(int(v.(value.Int).Int64()), length, step < 0)
	}
	switch c := obj.(type) {
	case *value.List:
		var out []value.Value
		if step > 0 {
			for i := lower; i < upper; i += step {
				out = append(out, (*c.Items)[i])
			}
		} else {
			for i := lower; i > upper; i += step {
				out = append(out, (*c.Items)[i])
			}
		}
		return value.NewList(out), nil
	case value.Str:
		runes := []rune(string(c))
		var out []rune
		if step > 0 {
			for i := lower; i < upper; i += step {
				out = append(out, runes[i])
			}
		} else {
			for i := lower; i > upper; i += step {
				out = append(out, runes[i])
			}
		}
		return value.Str(string(out)), nil
	}
	return nil, raisef("TypeError", "%q object is not sliceable", obj.Kind())
}

func sliceBounds(length, step int) (int, int) {
	if step > 0 {
		return 0, length
	}
	return length - 1, -1
}

func clampSliceIndex(i, length int, reversed bool) int {
	if i < 0 {
		i += length
	}
	if reversed {
		if i < -1 {
			i = -1
		}
		if i >= length {
			i = length - 1
		}
		return i
	}
	if i < 0 {
		i = 0
	}
	if i > length {
		i = length
	}
	return i
}

func (it *Interpreter) lenOf(v value.Value) (int, error) {
	switch c := v.(type) {
	case *value.List:
		return len(*c.Items), nil
	case value.Str:
		return len([]rune(string(c))), nil
	case *value.Map:
		return c.Len(), nil
	case *value.Set:
		return c.Len(), nil
	}
	return 0, raisef("TypeError", "object of type %q has no len()", v.Kind())
}

// ---- Iteration ----

func (it *Interpreter) iterate(v value.Value) ([]value.Value, error) {
	switch c := v.(type) {
	case *value.List:
		return append([]value.Value{}, *c.Items...), nil
	case *value.Set:
		return c.Values(), nil
	case *value.Map:
		return c.Keys(), nil
	case value.Str:
		runes := []rune(string(c))
		out := make([]value.Value, len(runes))
		for i, r := range runes {
			out[i] = value.Str(string(r))
		}
		return out, nil
	case *generator:
		return c.drain()
	}
	return nil, raisef("TypeError", "%q object is not iterable", v.Kind())
}

// ---- Attribute access ----

type attrGetter interface {
	GetAttr(name string) (value.Value, bool)
}

func (it *Interpreter) getAttr(obj value.Value, name string) (value.Value, error) {
	if g, ok := obj.(attrGetter); ok {
		if v, ok := g.GetAttr(name); ok {
			return v, nil
		}
	}
	if v, ok := methodOf(obj, name); ok {
		return v, nil
	}
	return nil, raisef("AttributeError", "%q object has no attribute %q", obj.Kind(), name)
}

func repeatList(l *value.List, n int) *value.List {
	var out []value.Value
	for i := 0; i < n; i++ {
		out = append(out, *l.Items...)
	}
	return value.NewList(out)
}

func pyPercentFormat(format string, arg value.Value) string {
	args := []value.Value{arg}
	if l, ok := arg.(*value.List); ok {
		args = *l.Items
	}
	idx := 0
	var sb strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] == '%' && i+1 < len(format) {
			i++
			if format[i] == '%' {
				sb.WriteByte('%')
				continue
			}
			var a value.Value = value.Str("")
			if idx < len(args) {
				a = args[idx]
				idx++
			}
			sb.WriteString(formatValue(a, string(format[i])))
			continue
		}
		sb.WriteByte(format[i])
	}
	return sb.String()
}

