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
	"math"
	"math/big"
	"sort"

	"github.com/kadirpekel/tcoagent/pkg/value"
)

// ToNative converts an evaluator Value into the plain Go types
// (nil/bool/int64/float64/string/[]interface{}/map[string]interface{})
// that a tool's Forward/ForwardAsync signature expects.
func ToNative(v value.Value) interface{} {
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
			out[i] = ToNative(it)
		}
		return out
	case *value.Map:
		out := map[string]interface{}{}
		for _, kv := range c.Items() {
			out[kv[0].String()] = ToNative(kv[1])
		}
		return out
	default:
		return v.String()
	}
}

// FromNative converts a tool's plain-Go-typed result back into an
// evaluator Value so it can be bound to a variable or rendered as an
// observation.
func FromNative(v interface{}) value.Value {
	switch c := v.(type) {
	case nil:
		return value.Null{}
	case bool:
		return value.Bool(c)
	case int:
		return value.NewBigInt(big.NewInt(int64(c)))
	case int64:
		return value.NewBigInt(big.NewInt(c))
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
			out[i] = FromNative(it)
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
			_ = m.Set(value.Str(k), FromNative(c[k]))
		}
		return m
	default:
		return value.Str(value.Str(""))
	}
}

// KwargsToNative converts an evaluator kwargs map into the plain-Go-typed
// map every Tool's Forward/ForwardAsync expects.
func KwargsToNative(kwargs map[string]value.Value) map[string]interface{} {
	out := make(map[string]interface{}, len(kwargs))
	for k, v := range kwargs {
		out[k] = ToNative(v)
	}
	return out
}
