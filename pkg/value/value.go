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

// Package value defines Value, the universal runtime datum exchanged
// between interpreted code, tools, and observations.
package value

import (
	"fmt"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

// Kind tags a Value's concrete variant.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindStr
	KindBytes
	KindList
	KindMap
	KindSet
	KindCallable
	KindException
	KindHandle
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NoneType"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindMap:
		return "dict"
	case KindSet:
		return "set"
	case KindCallable:
		return "callable"
	case KindException:
		return "exception"
	case KindHandle:
		return "handle"
	default:
		return "unknown"
	}
}

// Value is implemented by every runtime datum kind supported by the
// evaluator.
type Value interface {
	Kind() Kind
	String() string
	Truthy() bool
	Equal(Value) bool
}

// Hashable is implemented by variants that may be used as dict keys or
// set members. Null, Bool, Int, Float, and Str are hashable; List, Map,
// and Set are not.
type Hashable interface {
	Value
	HashKey() string
}

// Null is the sole null/None value.
type Null struct{}

func (Null) Kind() Kind         { return KindNull }
func (Null) String() string     { return "None" }
func (Null) Truthy() bool       { return false }
func (Null) Equal(o Value) bool { _, ok := o.(Null); return ok }
func (Null) HashKey() string    { return "None" }

// Bool wraps a boolean.
type Bool bool

func (b Bool) Kind() Kind     { return KindBool }
func (b Bool) Truthy() bool   { return bool(b) }
func (b Bool) HashKey() string {
	if b {
		return "True"
	}
	return "False"
}
func (b Bool) String() string {
	if b {
		return "True"
	}
	return "False"
}
func (b Bool) Equal(o Value) bool {
	switch other := o.(type) {
	case Bool:
		return b == other
	case Int:
		return other.Big().Cmp(boolToBig(bool(b))) == 0
	default:
		return false
	}
}

func boolToBig(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

// Int is an arbitrary-precision integer, matching Python's int semantics.
type Int struct{ v *big.Int }

// NewInt builds an Int from an int64.
func NewInt(i int64) Int { return Int{v: big.NewInt(i)} }

// NewBigInt builds an Int from a *big.Int, taking ownership of it.
func NewBigInt(b *big.Int) Int { return Int{v: b} }

// Big returns the underlying big.Int (never mutate the result).
func (i Int) Big() *big.Int {
	if i.v == nil {
		return big.NewInt(0)
	}
	return i.v
}

// Int64 truncates to an int64, for indices and similar bounded uses.
func (i Int) Int64() int64 { return i.Big().Int64() }

func (i Int) Kind() Kind       { return KindInt }
func (i Int) String() string   { return i.Big().String() }
func (i Int) Truthy() bool     { return i.Big().Sign() != 0 }
func (i Int) HashKey() string  { return "i:" + i.Big().String() }
func (i Int) Equal(o Value) bool {
	switch other := o.(type) {
	case Int:
		return i.Big().Cmp(other.Big()) == 0
	case Float:
		f := new(big.Float).SetInt(i.Big())
		return f.Cmp(big.NewFloat(float64(other))) == 0
	case Bool:
		return i.Big().Cmp(boolToBig(bool(other))) == 0
	default:
		return false
	}
}

// Float is a 64-bit floating point value.
type Float float64

func (f Float) Kind() Kind     { return KindFloat }
func (f Float) Truthy() bool   { return f != 0 }
func (f Float) HashKey() string { return "f:" + strconv.FormatFloat(float64(f), 'g', -1, 64) }
func (f Float) String() string {
	s := strconv.FormatFloat(float64(f), 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
func (f Float) Equal(o Value) bool {
	switch other := o.(type) {
	case Float:
		return f == other
	case Int:
		return other.Equal(f)
	default:
		return false
	}
}

// Str is a UTF-8 string.
type Str string

func (s Str) Kind() Kind      { return KindStr }
func (s Str) String() string  { return string(s) }
func (s Str) Truthy() bool    { return len(s) != 0 }
func (s Str) HashKey() string { return "s:" + string(s) }
func (s Str) Equal(o Value) bool {
	other, ok := o.(Str)
	return ok && s == other
}

// Bytes is a byte string.
type Bytes []byte

func (b Bytes) Kind() Kind      { return KindBytes }
func (b Bytes) String() string  { return fmt.Sprintf("b%q", string(b)) }
func (b Bytes) Truthy() bool    { return len(b) != 0 }
func (b Bytes) HashKey() string { return "b:" + string(b) }
func (b Bytes) Equal(o Value) bool {
	other, ok := o.(Bytes)
	return ok && string(b) == string(other)
}

// List is an ordered, mutable sequence of Value. It is a reference type:
// copies of a List share the same backing storage, matching Python list
// aliasing semantics.
type List struct {
	Items *[]Value
}

// NewList builds a List from the given items.
func NewList(items []Value) *List {
	if items == nil {
		items = []Value{}
	}
	return &List{Items: &items}
}

func (l *List) Kind() Kind     { return KindList }
func (l *List) Truthy() bool   { return len(*l.Items) != 0 }
func (l *List) Len() int       { return len(*l.Items) }
func (l *List) Append(v Value) { *l.Items = append(*l.Items, v) }

func (l *List) String() string {
	parts := make([]string, len(*l.Items))
	for i, v := range *l.Items {
		parts[i] = reprOf(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func (l *List) Equal(o Value) bool {
	other, ok := o.(*List)
	if !ok || len(*l.Items) != len(*other.Items) {
		return false
	}
	for i, v := range *l.Items {
		if !v.Equal((*other.Items)[i]) {
			return false
		}
	}
	return true
}

// mapEntry preserves insertion order alongside the value.
type mapEntry struct {
	key   Value
	value Value
}

// Map is an insertion-order-preserving key->Value mapping. Reference type,
// like List.
type Map struct {
	entries *[]mapEntry
	index   *map[string]int
}

// NewMap builds an empty Map.
func NewMap() *Map {
	entries := []mapEntry{}
	index := map[string]int{}
	return &Map{entries: &entries, index: &index}
}

func (m *Map) Kind() Kind   { return KindMap }
func (m *Map) Truthy() bool { return len(*m.entries) != 0 }
func (m *Map) Len() int     { return len(*m.entries) }

// Set inserts or updates key->val, returning an error string if key is
// unhashable.
func (m *Map) Set(key, val Value) error {
	hk, ok := key.(Hashable)
	if !ok {
		return fmt.Errorf("unhashable type: %q", key.Kind())
	}
	k := hk.HashKey()
	if i, exists := (*m.index)[k]; exists {
		(*m.entries)[i].value = val
		return nil
	}
	*m.index = map[string]int{}
	for i, e := range *m.entries {
		hk2 := e.key.(Hashable)
		(*m.index)[hk2.HashKey()] = i
	}
	*m.entries = append(*m.entries, mapEntry{key: key, value: val})
	(*m.index)[k] = len(*m.entries) - 1
	return nil
}

// Get looks up key.
func (m *Map) Get(key Value) (Value, bool) {
	hk, ok := key.(Hashable)
	if !ok {
		return nil, false
	}
	i, exists := (*m.index)[hk.HashKey()]
	if !exists {
		return nil, false
	}
	return (*m.entries)[i].value, true
}

// Delete removes key if present.
func (m *Map) Delete(key Value) bool {
	hk, ok := key.(Hashable)
	if !ok {
		return false
	}
	k := hk.HashKey()
	i, exists := (*m.index)[k]
	if !exists {
		return false
	}
	*m.entries = append((*m.entries)[:i], (*m.entries)[i+1:]...)
	delete(*m.index, k)
	for kk, vi := range *m.index {
		if vi > i {
			(*m.index)[kk] = vi - 1
		}
	}
	return true
}

// Keys returns keys in insertion order.
func (m *Map) Keys() []Value {
	out := make([]Value, len(*m.entries))
	for i, e := range *m.entries {
		out[i] = e.key
	}
	return out
}

// Items returns key/value pairs in insertion order.
func (m *Map) Items() [][2]Value {
	out := make([][2]Value, len(*m.entries))
	for i, e := range *m.entries {
		out[i] = [2]Value{e.key, e.value}
	}
	return out
}

func (m *Map) String() string {
	parts := make([]string, 0, len(*m.entries))
	for _, e := range *m.entries {
		parts = append(parts, fmt.Sprintf("%s: %s", reprOf(e.key), reprOf(e.value)))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (m *Map) Equal(o Value) bool {
	other, ok := o.(*Map)
	if !ok || m.Len() != other.Len() {
		return false
	}
	for _, e := range *m.entries {
		ov, exists := other.Get(e.key)
		if !exists || !e.value.Equal(ov) {
			return false
		}
	}
	return true
}

// Set is an unordered collection of hashable Values, Python set semantics.
type Set struct {
	members *map[string]Value
}

// NewSet builds a Set from the given hashable items.
func NewSet(items []Value) (*Set, error) {
	m := map[string]Value{}
	s := &Set{members: &m}
	for _, it := range items {
		if err := s.Add(it); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Set) Kind() Kind   { return KindSet }
func (s *Set) Truthy() bool { return len(*s.members) != 0 }
func (s *Set) Len() int     { return len(*s.members) }

func (s *Set) Add(v Value) error {
	hv, ok := v.(Hashable)
	if !ok {
		return fmt.Errorf("unhashable type: %q", v.Kind())
	}
	(*s.members)[hv.HashKey()] = v
	return nil
}

func (s *Set) Contains(v Value) bool {
	hv, ok := v.(Hashable)
	if !ok {
		return false
	}
	_, exists := (*s.members)[hv.HashKey()]
	return exists
}

func (s *Set) Remove(v Value) bool {
	hv, ok := v.(Hashable)
	if !ok {
		return false
	}
	k := hv.HashKey()
	if _, exists := (*s.members)[k]; !exists {
		return false
	}
	delete(*s.members, k)
	return true
}

// Values returns set members in an arbitrary but stable-for-this-call
// order (sorted by hash key, since Python set order is unspecified too).
func (s *Set) Values() []Value {
	keys := make([]string, 0, len(*s.members))
	for k := range *s.members {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Value, len(keys))
	for i, k := range keys {
		out[i] = (*s.members)[k]
	}
	return out
}

func (s *Set) String() string {
	parts := make([]string, 0, s.Len())
	for _, v := range s.Values() {
		parts = append(parts, reprOf(v))
	}
	if len(parts) == 0 {
		return "set()"
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (s *Set) Equal(o Value) bool {
	other, ok := o.(*Set)
	if !ok || s.Len() != other.Len() {
		return false
	}
	for _, v := range s.Values() {
		if !other.Contains(v) {
			return false
		}
	}
	return true
}

// Exception is a first-class value: raised errors propagate as values so
// they can be caught by except clauses.
type Exception struct {
	ExcKind string // e.g. "ValueError", "KeyError", "ToolError"
	Msg     string
	Payload Value
}

func (e *Exception) Kind() Kind { return KindException }
func (e *Exception) Truthy() bool { return true }
func (e *Exception) String() string {
	if e.Msg == "" {
		return e.ExcKind
	}
	return fmt.Sprintf("%s: %s", e.ExcKind, e.Msg)
}
func (e *Exception) Equal(o Value) bool {
	other, ok := o.(*Exception)
	return ok && e.ExcKind == other.ExcKind && e.Msg == other.Msg
}
func (e *Exception) Error() string { return e.String() }

// Handle is an opaque resource reference owned by a tool (a file handle,
// a cursor, a browser session). The evaluator never inspects its payload.
type Handle struct {
	Tag     string
	Payload interface{}
}

func (h *Handle) Kind() Kind     { return KindHandle }
func (h *Handle) Truthy() bool   { return true }
func (h *Handle) String() string { return fmt.Sprintf("<%s handle>", h.Tag) }
func (h *Handle) Equal(o Value) bool {
	other, ok := o.(*Handle)
	return ok && h == other
}

// Callable is implemented by anything invocable from interpreted code:
// tools, user-defined functions/lambdas, and bound methods. Call is
// synchronous; async tools instead return an Awaitable wrapping a
// goroutine-backed future that `await` drives to completion.
type Callable interface {
	Value
	CallableName() string
	Call(args []Value, kwargs map[string]Value) (Value, error)
}

// CallableBase gives concrete Callable implementations Kind/Truthy/Equal
// for free; embed it and implement CallableName/Call/String.
type CallableBase struct{}

func (CallableBase) Kind() Kind   { return KindCallable }
func (CallableBase) Truthy() bool { return true }
func (CallableBase) Equal(Value) bool { return false }

// Awaitable wraps a pending asynchronous result. `await` in the evaluator
// blocks the current goroutine on Done until the producing goroutine
// delivers a value or error.
type Awaitable struct {
	Done chan struct{}
	Result Value
	Err    error
}

// NewAwaitable creates an Awaitable and starts producing its result by
// running fn in its own goroutine.
func NewAwaitable(fn func() (Value, error)) *Awaitable {
	a := &Awaitable{Done: make(chan struct{})}
	go func() {
		a.Result, a.Err = fn()
		close(a.Done)
	}()
	return a
}

// Await blocks until the awaitable resolves.
func (a *Awaitable) Await() (Value, error) {
	<-a.Done
	return a.Result, a.Err
}

func (a *Awaitable) Kind() Kind     { return KindHandle }
func (a *Awaitable) Truthy() bool   { return true }
func (a *Awaitable) String() string { return "<coroutine>" }
func (a *Awaitable) Equal(o Value) bool {
	other, ok := o.(*Awaitable)
	return ok && a == other
}

func reprOf(v Value) string {
	if s, ok := v.(Str); ok {
		return fmt.Sprintf("%q", string(s))
	}
	return v.String()
}
