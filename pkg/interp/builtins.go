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
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/kadirpekel/tcoagent/pkg/value"
)

// builtins is the frozen global-namespace table every Env falls back to
// after the scope chain misses: the documented subset of Python's
// built-in functions, deliberately small rather than a full stdlib
// shim.
var builtins = map[string]value.Value{
	"len":        nativeFn("len", biLen),
	"range":      nativeFn("range", biRange),
	"enumerate":  nativeFn("enumerate", biEnumerate),
	"zip":        nativeFn("zip", biZip),
	"sorted":     nativeFn("sorted", biSorted),
	"sum":        nativeFn("sum", biSum),
	"min":        nativeFn("min", biMin),
	"max":        nativeFn("max", biMax),
	"abs":        nativeFn("abs", biAbs),
	"round":      nativeFn("round", biRound),
	"str":        nativeFn("str", biStr),
	"int":        nativeFn("int", biInt),
	"float":      nativeFn("float", biFloat),
	"bool":       nativeFn("bool", biBool),
	"list":       nativeFn("list", biList),
	"dict":       nativeFn("dict", biDict),
	"set":        nativeFn("set", biSet),
	"tuple":      nativeFn("tuple", biList),
	"isinstance": nativeFn("isinstance", biIsInstance),
	"type":       nativeFn("type", biType),
	"repr":       nativeFn("repr", biRepr),
	"any":        nativeFn("any", biAny),
	"all":        nativeFn("all", biAll),
	"reversed":   nativeFn("reversed", biReversed),
}

// exceptionKinds are the built-in exception type names constructible as
// `raise ValueError("msg")` and matchable by name in except clauses.
// This is a fixed set rather than a class hierarchy: the evaluator
// models exceptions as tagged values (value.Exception.ExcKind), not as
// Python's extensible exception class tree.
var exceptionKinds = []string{
	"Exception", "ValueError", "TypeError", "KeyError", "IndexError",
	"ZeroDivisionError", "RuntimeError", "ImportError", "AttributeError",
	"NameError", "StopIteration", "StatisticsError",
}

func init() {
	for _, kind := range exceptionKinds {
		kind := kind
		builtins[kind] = nativeFn(kind, func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			msg := ""
			var payload value.Value
			if len(args) > 0 {
				msg = args[0].String()
				payload = args[0]
			}
			return &value.Exception{ExcKind: kind, Msg: msg, Payload: payload}, nil
		})
	}
}

func arg0(args []value.Value) (value.Value, error) {
	if len(args) != 1 {
		return nil, raise("TypeError", "expected exactly 1 argument")
	}
	return args[0], nil
}

func biLen(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	v, err := arg0(args)
	if err != nil {
		return nil, err
	}
	n, err := (&Interpreter{}).lenOf(v)
	if err != nil {
		return nil, err
	}
	return value.NewInt(int64(n)), nil
}

func biRange(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	var start, stop, step int64 = 0, 0, 1
	switch len(args) {
	case 1:
		stop = toInt64(args[0])
	case 2:
		start, stop = toInt64(args[0]), toInt64(args[1])
	case 3:
		start, stop, step = toInt64(args[0]), toInt64(args[1]), toInt64(args[2])
		if step == 0 {
			return nil, raise("ValueError", "range() arg 3 must not be zero")
		}
	default:
		return nil, raise("TypeError", "range expected 1 to 3 arguments")
	}
	var out []value.Value
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, value.NewInt(i))
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, value.NewInt(i))
		}
	}
	return value.NewList(out), nil
}

func toInt64(v value.Value) int64 {
	if i, ok := v.(value.Int); ok {
		return i.Int64()
	}
	if f, ok := asFloat(v); ok {
		return int64(f)
	}
	return 0
}

func biEnumerate(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	if len(args) < 1 {
		return nil, raise("TypeError", "enumerate() takes at least 1 argument")
	}
	start := int64(0)
	if len(args) > 1 {
		start = toInt64(args[1])
	}
	if sv, ok := kwargs["start"]; ok {
		start = toInt64(sv)
	}
	items, err := (&Interpreter{}).iterate(args[0])
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, len(items))
	for i, it := range items {
		out[i] = value.NewList([]value.Value{value.NewInt(start + int64(i)), it})
	}
	return value.NewList(out), nil
}

func biZip(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	var seqs [][]value.Value
	minLen := -1
	for _, a := range args {
		items, err := (&Interpreter{}).iterate(a)
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, items)
		if minLen == -1 || len(items) < minLen {
			minLen = len(items)
		}
	}
	if minLen < 0 {
		minLen = 0
	}
	out := make([]value.Value, minLen)
	for i := 0; i < minLen; i++ {
		row := make([]value.Value, len(seqs))
		for j, s := range seqs {
			row[j] = s[i]
		}
		out[i] = value.NewList(row)
	}
	return value.NewList(out), nil
}

func biSorted(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	v, err := arg0(args)
	if err != nil {
		return nil, err
	}
	items, err := (&Interpreter{}).iterate(v)
	if err != nil {
		return nil, err
	}
	items = append([]value.Value{}, items...)
	reverse := false
	if rv, ok := kwargs["reverse"]; ok {
		reverse = rv.Truthy()
	}
	key, _ := kwargs["key"].(value.Callable)
	var sortErr error
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if key != nil {
			av, err := key.Call([]value.Value{a}, nil)
			if err != nil {
				sortErr = err
				return false
			}
			bv, err := key.Call([]value.Value{b}, nil)
			if err != nil {
				sortErr = err
				return false
			}
			a, b = av, bv
		}
		less := lessValue(a, b)
		if reverse {
			return !less && !a.Equal(b)
		}
		return less
	})
	return value.NewList(items), sortErr
}

func biSum(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, raise("TypeError", "sum() takes 1 or 2 arguments")
	}
	items, err := (&Interpreter{}).iterate(args[0])
	if err != nil {
		return nil, err
	}
	var acc value.Value = value.NewInt(0)
	if len(args) == 2 {
		acc = args[1]
	}
	it := &Interpreter{}
	for _, item := range items {
		acc, err = it.binOp("+", acc, item)
		if err != nil {
			return nil, err
		}
	}
	return acc, nil
}

func biMin(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	return extremum(args, kwargs, true)
}

func biMax(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	return extremum(args, kwargs, false)
}

func extremum(args []value.Value, kwargs map[string]value.Value, wantMin bool) (value.Value, error) {
	var items []value.Value
	if len(args) == 1 {
		var err error
		items, err = (&Interpreter{}).iterate(args[0])
		if err != nil {
			return nil, err
		}
	} else {
		items = args
	}
	if len(items) == 0 {
		return nil, raise("ValueError", "min()/max() arg is an empty sequence")
	}
	key, _ := kwargs["key"].(value.Callable)
	keyOf := func(v value.Value) (value.Value, error) {
		if key == nil {
			return v, nil
		}
		return key.Call([]value.Value{v}, nil)
	}
	best := items[0]
	bestKey, err := keyOf(best)
	if err != nil {
		return nil, err
	}
	for _, it := range items[1:] {
		k, err := keyOf(it)
		if err != nil {
			return nil, err
		}
		if (wantMin && lessValue(k, bestKey)) || (!wantMin && lessValue(bestKey, k)) {
			best, bestKey = it, k
		}
	}
	return best, nil
}

func biAbs(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	v, err := arg0(args)
	if err != nil {
		return nil, err
	}
	switch n := v.(type) {
	case value.Int:
		return value.NewBigInt(new(big.Int).Abs(n.Big())), nil
	case value.Float:
		if n < 0 {
			return -n, nil
		}
		return n, nil
	}
	return nil, raise("TypeError", "bad operand type for abs()")
}

func biRound(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) == 0 {
		return nil, raise("TypeError", "round() takes at least 1 argument")
	}
	f, ok := asFloat(args[0])
	if !ok {
		return nil, raise("TypeError", "round() argument must be a number")
	}
	ndigits := 0
	if len(args) > 1 {
		ndigits = int(toInt64(args[1]))
	}
	mul := 1.0
	for i := 0; i < ndigits; i++ {
		mul *= 10
	}
	for i := 0; i > ndigits; i-- {
		mul /= 10
	}
	rounded := roundHalfEven(f * mul)
	if ndigits <= 0 {
		return value.NewInt(int64(rounded / mul)), nil
	}
	return value.Float(rounded / mul), nil
}

func roundHalfEven(f float64) float64 {
	floor := float64(int64(f))
	diff := f - floor
	switch {
	case diff < 0.5:
		return floor
	case diff > 0.5:
		return floor + 1
	default:
		if int64(floor)%2 == 0 {
			return floor
		}
		return floor + 1
	}
}

func biStr(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Str(""), nil
	}
	return value.Str(args[0].String()), nil
}

func biRepr(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	v, err := arg0(args)
	if err != nil {
		return nil, err
	}
	if s, ok := v.(value.Str); ok {
		return value.Str(strconv.Quote(string(s))), nil
	}
	return value.Str(v.String()), nil
}

func biInt(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.NewInt(0), nil
	}
	switch v := args[0].(type) {
	case value.Int:
		return v, nil
	case value.Float:
		return value.NewBigInt(big.NewInt(int64(v))), nil
	case value.Bool:
		if v {
			return value.NewInt(1), nil
		}
		return value.NewInt(0), nil
	case value.Str:
		base := 10
		if len(args) > 1 {
			base = int(toInt64(args[1]))
		}
		bi, ok := new(big.Int).SetString(strings.TrimSpace(string(v)), base)
		if !ok {
			return nil, raisef("ValueError", "invalid literal for int(): %q", string(v))
		}
		return value.NewBigInt(bi), nil
	}
	return nil, raise("TypeError", "int() argument must be a string or a number")
}

func biFloat(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Float(0), nil
	}
	switch v := args[0].(type) {
	case value.Float:
		return v, nil
	case value.Int:
		f, _ := asFloat(v)
		return value.Float(f), nil
	case value.Str:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		if err != nil {
			return nil, raisef("ValueError", "could not convert string to float: %q", string(v))
		}
		return value.Float(f), nil
	}
	return nil, raise("TypeError", "float() argument must be a string or a number")
}

func biBool(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.Bool(false), nil
	}
	return value.Bool(args[0].Truthy()), nil
}

func biList(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.NewList(nil), nil
	}
	items, err := (&Interpreter{}).iterate(args[0])
	if err != nil {
		return nil, err
	}
	return value.NewList(items), nil
}

func biDict(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	m := value.NewMap()
	if len(args) == 1 {
		if src, ok := args[0].(*value.Map); ok {
			for _, kv := range src.Items() {
				_ = m.Set(kv[0], kv[1])
			}
		}
	}
	for k, v := range kwargs {
		_ = m.Set(value.Str(k), v)
	}
	return m, nil
}

func biSet(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) == 0 {
		return value.NewSet(nil)
	}
	items, err := (&Interpreter{}).iterate(args[0])
	if err != nil {
		return nil, err
	}
	return value.NewSet(items)
}

func biIsInstance(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	if len(args) != 2 {
		return nil, raise("TypeError", "isinstance() takes 2 arguments")
	}
	name, ok := args[1].(value.Str)
	if !ok {
		return nil, raise("TypeError", "isinstance() arg 2 must be a type name")
	}
	return value.Bool(string(name) == args[0].Kind().String()), nil
}

func biType(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	v, err := arg0(args)
	if err != nil {
		return nil, err
	}
	return value.Str(v.Kind().String()), nil
}

func biAny(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	v, err := arg0(args)
	if err != nil {
		return nil, err
	}
	items, err := (&Interpreter{}).iterate(v)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if it.Truthy() {
			return value.Bool(true), nil
		}
	}
	return value.Bool(false), nil
}

func biAll(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	v, err := arg0(args)
	if err != nil {
		return nil, err
	}
	items, err := (&Interpreter{}).iterate(v)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		if !it.Truthy() {
			return value.Bool(false), nil
		}
	}
	return value.Bool(true), nil
}

func biReversed(args []value.Value, _ map[string]value.Value) (value.Value, error) {
	v, err := arg0(args)
	if err != nil {
		return nil, err
	}
	items, err := (&Interpreter{}).iterate(v)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, len(items))
	for i, it := range items {
		out[len(items)-1-i] = it
	}
	return value.NewList(out), nil
}
