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
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"math/rand"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/kadirpekel/tcoagent/pkg/value"
)

// loadModule builds the sandbox's stand-in for an authorized-imports
// module name: a *value.Map acting as a namespace object, so `math.pi`
// and `json.dumps(...)` resolve through ordinary attribute/subscript
// access without a separate module-value kind.
func loadModule(name string) (*value.Map, error) {
	switch name {
	case "math":
		return mathModule(), nil
	case "json":
		return jsonModule(), nil
	case "re":
		return reModule(), nil
	case "random":
		return randomModule(), nil
	case "time":
		return timeModule(), nil
	case "statistics":
		return statisticsModule(), nil
	case "itertools", "collections", "datetime":
		return value.NewMap(), nil // thin namespaces; most uses route through builtins
	}
	return nil, fmt.Errorf("module %q is not available in this sandbox", name)
}

func nativeFn(name string, fn func(args []value.Value, kwargs map[string]value.Value) (value.Value, error)) *nativeCallable {
	return &nativeCallable{name: name, fn: fn}
}

type nativeCallable struct {
	value.CallableBase
	name string
	fn   func(args []value.Value, kwargs map[string]value.Value) (value.Value, error)
}

func (n *nativeCallable) CallableName() string { return n.name }
func (n *nativeCallable) String() string       { return "<built-in function " + n.name + ">" }
func (n *nativeCallable) Call(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
	return n.fn(args, kwargs)
}

func mathModule() *value.Map {
	m := value.NewMap()
	_ = m.Set(value.Str("pi"), value.Float(math.Pi))
	_ = m.Set(value.Str("e"), value.Float(math.E))
	_ = m.Set(value.Str("inf"), value.Float(math.Inf(1)))
	unary := map[string]func(float64) float64{
		"sqrt": math.Sqrt, "floor": math.Floor, "ceil": math.Ceil,
		"sin": math.Sin, "cos": math.Cos, "tan": math.Tan,
		"log": math.Log, "log2": math.Log2, "log10": math.Log10,
		"exp": math.Exp, "fabs": math.Abs,
	}
	for name, fn := range unary {
		fn := fn
		_ = m.Set(value.Str(name), nativeFn("math."+name, func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			f, ok := asFloat1(args)
			if !ok {
				return nil, raise("TypeError", "expected a number")
			}
			return value.Float(fn(f)), nil
		}))
	}
	_ = m.Set(value.Str("pow"), nativeFn("math.pow", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, raise("TypeError", "pow() takes 2 arguments")
		}
		a, _ := asFloat(args[0])
		b, _ := asFloat(args[1])
		return value.Float(math.Pow(a, b)), nil
	}))
	return m
}

func asFloat1(args []value.Value) (float64, bool) {
	if len(args) != 1 {
		return 0, false
	}
	return asFloat(args[0])
}

func statisticsModule() *value.Map {
	m := value.NewMap()
	_ = m.Set(value.Str("mean"), nativeFn("statistics.mean", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
		nums, err := floatsOf(args)
		if err != nil {
			return nil, err
		}
		if len(nums) == 0 {
			return nil, raise("StatisticsError", "mean requires at least one data point")
		}
		sum := 0.0
		for _, n := range nums {
			sum += n
		}
		return value.Float(sum / float64(len(nums))), nil
	}))
	_ = m.Set(value.Str("median"), nativeFn("statistics.median", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
		nums, err := floatsOf(args)
		if err != nil {
			return nil, err
		}
		sort.Float64s(nums)
		n := len(nums)
		if n == 0 {
			return nil, raise("StatisticsError", "median requires at least one data point")
		}
		if n%2 == 1 {
			return value.Float(nums[n/2]), nil
		}
		return value.Float((nums[n/2-1] + nums[n/2]) / 2), nil
	}))
	return m
}

func floatsOf(args []value.Value) ([]float64, error) {
	var list *value.List
	if len(args) == 1 {
		if l, ok := args[0].(*value.List); ok {
			list = l
		}
	}
	if list == nil {
		return nil, raise("TypeError", "expected an iterable of numbers")
	}
	out := make([]float64, 0, len(*list.Items))
	for _, v := range *list.Items {
		f, ok := asFloat(v)
		if !ok {
			return nil, raise("TypeError", "expected a number")
		}
		out = append(out, f)
	}
	return out, nil
}

func jsonModule() *value.Map {
	m := value.NewMap()
	_ = m.Set(value.Str("dumps"), nativeFn("json.dumps", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, raise("TypeError", "dumps() takes 1 argument")
		}
		native := toNative(args[0])
		indent := 0
		if iv, ok := kwargs["indent"]; ok {
			if i, ok := iv.(value.Int); ok {
				indent = int(i.Int64())
			}
		}
		var b []byte
		var err error
		if indent > 0 {
			b, err = json.MarshalIndent(native, "", strings.Repeat(" ", indent))
		} else {
			b, err = json.Marshal(native)
		}
		if err != nil {
			return nil, raise("ValueError", err.Error())
		}
		return value.Str(string(b)), nil
	}))
	_ = m.Set(value.Str("loads"), nativeFn("json.loads", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, raise("TypeError", "loads() takes 1 argument")
		}
		s, ok := args[0].(value.Str)
		if !ok {
			return nil, raise("TypeError", "loads() expects a string")
		}
		var native interface{}
		if err := json.Unmarshal([]byte(s), &native); err != nil {
			return nil, raise("ValueError", err.Error())
		}
		return fromNative(native), nil
	}))
	return m
}

// toNative converts a Value into plain Go data for encoding/json.
func toNative(v value.Value) interface{} {
	switch c := v.(type) {
	case value.Null:
		return nil
	case value.Bool:
		return bool(c)
	case value.Int:
		if c.Big().IsInt64() {
			return c.Int64()
		}
		return c.String()
	case value.Float:
		return float64(c)
	case value.Str:
		return string(c)
	case *value.List:
		out := make([]interface{}, len(*c.Items))
		for i, it := range *c.Items {
			out[i] = toNative(it)
		}
		return out
	case *value.Map:
		out := map[string]interface{}{}
		for _, kv := range c.Items() {
			out[kv[0].String()] = toNative(kv[1])
		}
		return out
	default:
		return v.String()
	}
}

func fromNative(v interface{}) value.Value {
	switch c := v.(type) {
	case nil:
		return value.Null{}
	case bool:
		return value.Bool(c)
	case float64:
		if c == math.Trunc(c) {
			return value.NewBigInt(big.NewInt(int64(c)))
		}
		return value.Float(c)
	case string:
		return value.Str(c)
	case []interface{}:
		out := make([]value.Value, len(c))
		for i, it := range c {
			out[i] = fromNative(it)
		}
		return value.NewList(out)
	case map[string]interface{}:
		m := value.NewMap()
		keys := make([]string, 0, len(c))
		for k := range c {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			_ = m.Set(value.Str(k), fromNative(c[k]))
		}
		return m
	default:
		return value.Str(fmt.Sprintf("%v", c))
	}
}

func reModule() *value.Map {
	m := value.NewMap()
	_ = m.Set(value.Str("match"), nativeFn("re.match", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
		return reFind(args, true)
	}))
	_ = m.Set(value.Str("search"), nativeFn("re.search", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
		return reFind(args, false)
	}))
	_ = m.Set(value.Str("findall"), nativeFn("re.findall", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, raise("TypeError", "findall() takes 2 arguments")
		}
		pat, s, err := rePatAndStr(args)
		if err != nil {
			return nil, err
		}
		matches := pat.FindAllString(s, -1)
		out := make([]value.Value, len(matches))
		for i, mm := range matches {
			out[i] = value.Str(mm)
		}
		return value.NewList(out), nil
	}))
	_ = m.Set(value.Str("sub"), nativeFn("re.sub", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
		if len(args) != 3 {
			return nil, raise("TypeError", "sub() takes 3 arguments")
		}
		patStr, ok := args[0].(value.Str)
		if !ok {
			return nil, raise("TypeError", "pattern must be a string")
		}
		repl, ok := args[1].(value.Str)
		if !ok {
			return nil, raise("TypeError", "replacement must be a string")
		}
		s, ok := args[2].(value.Str)
		if !ok {
			return nil, raise("TypeError", "expected a string")
		}
		re, err := regexp.Compile(string(patStr))
		if err != nil {
			return nil, raise("ValueError", err.Error())
		}
		return value.Str(re.ReplaceAllString(string(s), string(repl))), nil
	}))
	return m
}

func rePatAndStr(args []value.Value) (*regexp.Regexp, string, error) {
	patStr, ok := args[0].(value.Str)
	if !ok {
		return nil, "", raise("TypeError", "pattern must be a string")
	}
	s, ok := args[1].(value.Str)
	if !ok {
		return nil, "", raise("TypeError", "expected a string")
	}
	re, err := regexp.Compile(string(patStr))
	if err != nil {
		return nil, "", raise("ValueError", err.Error())
	}
	return re, string(s), nil
}

func reFind(args []value.Value, anchored bool) (value.Value, error) {
	if len(args) != 2 {
		return nil, raise("TypeError", "expected 2 arguments")
	}
	re, s, err := rePatAndStr(args)
	if err != nil {
		return nil, err
	}
	pattern := re.String()
	if anchored && !strings.HasPrefix(pattern, "^") {
		re, err = regexp.Compile("^(?:" + pattern + ")")
		if err != nil {
			return nil, raise("ValueError", err.Error())
		}
	}
	loc := re.FindStringIndex(s)
	if loc == nil {
		return value.Null{}, nil
	}
	return value.Str(s[loc[0]:loc[1]]), nil
}

func randomModule() *value.Map {
	m := value.NewMap()
	_ = m.Set(value.Str("random"), nativeFn("random.random", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
		return value.Float(rand.Float64()), nil
	}))
	_ = m.Set(value.Str("randint"), nativeFn("random.randint", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
		if len(args) != 2 {
			return nil, raise("TypeError", "randint() takes 2 arguments")
		}
		lo, _ := args[0].(value.Int)
		hi, _ := args[1].(value.Int)
		span := hi.Int64() - lo.Int64() + 1
		if span <= 0 {
			return nil, raise("ValueError", "empty range for randint()")
		}
		return value.NewInt(lo.Int64() + rand.Int63n(span)), nil
	}))
	_ = m.Set(value.Str("choice"), nativeFn("random.choice", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
		if len(args) != 1 {
			return nil, raise("TypeError", "choice() takes 1 argument")
		}
		l, ok := args[0].(*value.List)
		if !ok || len(*l.Items) == 0 {
			return nil, raise("IndexError", "cannot choose from an empty sequence")
		}
		return (*l.Items)[rand.Intn(len(*l.Items))], nil
	}))
	return m
}

func timeModule() *value.Map {
	m := value.NewMap()
	_ = m.Set(value.Str("time"), nativeFn("time.time", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
		return value.Float(float64(time.Now().UnixNano()) / 1e9), nil
	}))
	return m
}
