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
	"sort"
	"strings"

	"github.com/kadirpekel/tcoagent/pkg/value"
)

// methodOf returns the bound built-in method named `name` on a runtime
// value, the sandbox's stand-in for Python's method-resolution-order
// lookup over a small fixed set of str/list/dict/set methods. A *Map is
// also used as a module namespace (loadModule), so attribute access on
// one first tries its own keys before these built-ins.
func methodOf(obj value.Value, name string) (value.Value, bool) {
	if m, ok := obj.(*value.Map); ok {
		if v, ok := m.Get(value.Str(name)); ok {
			return v, true
		}
	}
	switch v := obj.(type) {
	case value.Str:
		return strMethod(v, name)
	case *value.List:
		return listMethod(v, name)
	case *value.Map:
		return mapMethod(v, name)
	case *value.Set:
		return setMethod(v, name)
	}
	return nil, false
}

func bound(name string, fn func(args []value.Value, kwargs map[string]value.Value) (value.Value, error)) (value.Value, bool) {
	return nativeFn(name, fn), true
}

func strMethod(s value.Str, name string) (value.Value, bool) {
	str := string(s)
	switch name {
	case "split":
		return bound("str.split", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if len(args) == 0 {
				parts := strings.Fields(str)
				return stringsToList(parts), nil
			}
			sep, ok := args[0].(value.Str)
			if !ok {
				return nil, raise("TypeError", "split() argument must be a string")
			}
			return stringsToList(strings.Split(str, string(sep))), nil
		})
	case "join":
		return bound("str.join", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, raise("TypeError", "join() takes 1 argument")
			}
			l, ok := args[0].(*value.List)
			if !ok {
				return nil, raise("TypeError", "join() argument must be iterable")
			}
			parts := make([]string, len(*l.Items))
			for i, item := range *l.Items {
				parts[i] = item.String()
			}
			return value.Str(strings.Join(parts, str)), nil
		})
	case "strip":
		return bound("str.strip", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			return value.Str(strings.TrimSpace(str)), nil
		})
	case "lstrip":
		return bound("str.lstrip", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			return value.Str(strings.TrimLeft(str, " \t\n\r")), nil
		})
	case "rstrip":
		return bound("str.rstrip", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			return value.Str(strings.TrimRight(str, " \t\n\r")), nil
		})
	case "upper":
		return bound("str.upper", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			return value.Str(strings.ToUpper(str)), nil
		})
	case "lower":
		return bound("str.lower", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			return value.Str(strings.ToLower(str)), nil
		})
	case "replace":
		return bound("str.replace", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if len(args) != 2 {
				return nil, raise("TypeError", "replace() takes 2 arguments")
			}
			old, _ := args[0].(value.Str)
			n, _ := args[1].(value.Str)
			return value.Str(strings.ReplaceAll(str, string(old), string(n))), nil
		})
	case "startswith":
		return bound("str.startswith", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, raise("TypeError", "startswith() takes 1 argument")
			}
			p, _ := args[0].(value.Str)
			return value.Bool(strings.HasPrefix(str, string(p))), nil
		})
	case "endswith":
		return bound("str.endswith", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, raise("TypeError", "endswith() takes 1 argument")
			}
			p, _ := args[0].(value.Str)
			return value.Bool(strings.HasSuffix(str, string(p))), nil
		})
	case "find":
		return bound("str.find", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, raise("TypeError", "find() takes 1 argument")
			}
			p, _ := args[0].(value.Str)
			return value.NewInt(int64(strings.Index(str, string(p)))), nil
		})
	case "format":
		return bound("str.format", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
			return value.Str(pyFormat(str, args, kwargs)), nil
		})
	case "title":
		return bound("str.title", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			return value.Str(strings.Title(str)), nil
		})
	case "capitalize":
		return bound("str.capitalize", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if str == "" {
				return value.Str(""), nil
			}
			return value.Str(strings.ToUpper(str[:1]) + strings.ToLower(str[1:])), nil
		})
	case "isdigit":
		return bound("str.isdigit", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if str == "" {
				return value.Bool(false), nil
			}
			for _, r := range str {
				if r < '0' || r > '9' {
					return value.Bool(false), nil
				}
			}
			return value.Bool(true), nil
		})
	case "count":
		return bound("str.count", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, raise("TypeError", "count() takes 1 argument")
			}
			p, _ := args[0].(value.Str)
			return value.NewInt(int64(strings.Count(str, string(p)))), nil
		})
	}
	return nil, false
}

func pyFormat(tmpl string, args []value.Value, kwargs map[string]value.Value) string {
	var sb strings.Builder
	argIdx := 0
	i := 0
	for i < len(tmpl) {
		if tmpl[i] == '{' {
			j := strings.IndexByte(tmpl[i:], '}')
			if j < 0 {
				sb.WriteString(tmpl[i:])
				break
			}
			key := tmpl[i+1 : i+j]
			if key == "" {
				if argIdx < len(args) {
					sb.WriteString(args[argIdx].String())
					argIdx++
				}
			} else if v, ok := kwargs[key]; ok {
				sb.WriteString(v.String())
			}
			i += j + 1
			continue
		}
		sb.WriteByte(tmpl[i])
		i++
	}
	return sb.String()
}

func stringsToList(parts []string) *value.List {
	out := make([]value.Value, len(parts))
	for i, p := range parts {
		out[i] = value.Str(p)
	}
	return value.NewList(out)
}

func listMethod(l *value.List, name string) (value.Value, bool) {
	switch name {
	case "append":
		return bound("list.append", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, raise("TypeError", "append() takes 1 argument")
			}
			l.Append(args[0])
			return value.Null{}, nil
		})
	case "extend":
		return bound("list.extend", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, raise("TypeError", "extend() takes 1 argument")
			}
			other, ok := args[0].(*value.List)
			if !ok {
				return nil, raise("TypeError", "extend() argument must be a list")
			}
			*l.Items = append(*l.Items, *other.Items...)
			return value.Null{}, nil
		})
	case "pop":
		return bound("list.pop", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			idx := len(*l.Items) - 1
			if len(args) == 1 {
				n, ok := args[0].(value.Int)
				if !ok {
					return nil, raise("TypeError", "pop() index must be an integer")
				}
				idx = int(n.Int64())
				if idx < 0 {
					idx += len(*l.Items)
				}
			}
			if idx < 0 || idx >= len(*l.Items) {
				return nil, raise("IndexError", "pop index out of range")
			}
			v := (*l.Items)[idx]
			*l.Items = append((*l.Items)[:idx], (*l.Items)[idx+1:]...)
			return v, nil
		})
	case "insert":
		return bound("list.insert", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if len(args) != 2 {
				return nil, raise("TypeError", "insert() takes 2 arguments")
			}
			n, ok := args[0].(value.Int)
			if !ok {
				return nil, raise("TypeError", "insert() index must be an integer")
			}
			idx := int(n.Int64())
			if idx < 0 {
				idx += len(*l.Items)
			}
			if idx < 0 {
				idx = 0
			}
			if idx > len(*l.Items) {
				idx = len(*l.Items)
			}
			items := *l.Items
			items = append(items, nil)
			copy(items[idx+1:], items[idx:])
			items[idx] = args[1]
			*l.Items = items
			return value.Null{}, nil
		})
	case "remove":
		return bound("list.remove", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, raise("TypeError", "remove() takes 1 argument")
			}
			for i, v := range *l.Items {
				if v.Equal(args[0]) {
					*l.Items = append((*l.Items)[:i], (*l.Items)[i+1:]...)
					return value.Null{}, nil
				}
			}
			return nil, raise("ValueError", "list.remove(x): x not in list")
		})
	case "index":
		return bound("list.index", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, raise("TypeError", "index() takes 1 argument")
			}
			for i, v := range *l.Items {
				if v.Equal(args[0]) {
					return value.NewInt(int64(i)), nil
				}
			}
			return nil, raise("ValueError", "value not in list")
		})
	case "count":
		return bound("list.count", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, raise("TypeError", "count() takes 1 argument")
			}
			n := 0
			for _, v := range *l.Items {
				if v.Equal(args[0]) {
					n++
				}
			}
			return value.NewInt(int64(n)), nil
		})
	case "sort":
		return bound("list.sort", func(args []value.Value, kwargs map[string]value.Value) (value.Value, error) {
			reverse := false
			if rv, ok := kwargs["reverse"]; ok {
				reverse = rv.Truthy()
			}
			key, _ := kwargs["key"].(value.Callable)
			items := *l.Items
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
			return value.Null{}, sortErr
		})
	case "reverse":
		return bound("list.reverse", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			items := *l.Items
			for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
				items[i], items[j] = items[j], items[i]
			}
			return value.Null{}, nil
		})
	case "copy":
		return bound("list.copy", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			return value.NewList(append([]value.Value{}, *l.Items...)), nil
		})
	case "clear":
		return bound("list.clear", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			*l.Items = nil
			return value.Null{}, nil
		})
	}
	return nil, false
}

func lessValue(a, b value.Value) bool {
	if af, ok := asFloat(a); ok {
		if bf, ok := asFloat(b); ok {
			return af < bf
		}
	}
	if as, ok := a.(value.Str); ok {
		if bs, ok := b.(value.Str); ok {
			return as < bs
		}
	}
	return false
}

func mapMethod(m *value.Map, name string) (value.Value, bool) {
	switch name {
	case "get":
		return bound("dict.get", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if len(args) < 1 {
				return nil, raise("TypeError", "get() takes at least 1 argument")
			}
			if v, ok := m.Get(args[0]); ok {
				return v, nil
			}
			if len(args) > 1 {
				return args[1], nil
			}
			return value.Null{}, nil
		})
	case "keys":
		return bound("dict.keys", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			return value.NewList(m.Keys()), nil
		})
	case "values":
		return bound("dict.values", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			items := m.Items()
			out := make([]value.Value, len(items))
			for i, kv := range items {
				out[i] = kv[1]
			}
			return value.NewList(out), nil
		})
	case "items":
		return bound("dict.items", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			items := m.Items()
			out := make([]value.Value, len(items))
			for i, kv := range items {
				out[i] = value.NewList([]value.Value{kv[0], kv[1]})
			}
			return value.NewList(out), nil
		})
	case "pop":
		return bound("dict.pop", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if len(args) < 1 {
				return nil, raise("TypeError", "pop() takes at least 1 argument")
			}
			if v, ok := m.Get(args[0]); ok {
				m.Delete(args[0])
				return v, nil
			}
			if len(args) > 1 {
				return args[1], nil
			}
			return nil, raise("KeyError", args[0].String())
		})
	case "update":
		return bound("dict.update", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, raise("TypeError", "update() takes 1 argument")
			}
			other, ok := args[0].(*value.Map)
			if !ok {
				return nil, raise("TypeError", "update() argument must be a dict")
			}
			for _, kv := range other.Items() {
				if err := m.Set(kv[0], kv[1]); err != nil {
					return nil, raise("TypeError", err.Error())
				}
			}
			return value.Null{}, nil
		})
	case "setdefault":
		return bound("dict.setdefault", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if len(args) < 1 {
				return nil, raise("TypeError", "setdefault() takes at least 1 argument")
			}
			if v, ok := m.Get(args[0]); ok {
				return v, nil
			}
			var def value.Value = value.Null{}
			if len(args) > 1 {
				def = args[1]
			}
			if err := m.Set(args[0], def); err != nil {
				return nil, raise("TypeError", err.Error())
			}
			return def, nil
		})
	}
	return nil, false
}

func setMethod(s *value.Set, name string) (value.Value, bool) {
	switch name {
	case "add":
		return bound("set.add", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, raise("TypeError", "add() takes 1 argument")
			}
			if err := s.Add(args[0]); err != nil {
				return nil, raise("TypeError", err.Error())
			}
			return value.Null{}, nil
		})
	case "remove":
		return bound("set.remove", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, raise("TypeError", "remove() takes 1 argument")
			}
			if !s.Remove(args[0]) {
				return nil, raise("KeyError", args[0].String())
			}
			return value.Null{}, nil
		})
	case "discard":
		return bound("set.discard", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if len(args) == 1 {
				s.Remove(args[0])
			}
			return value.Null{}, nil
		})
	case "union":
		return bound("set.union", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			out := append([]value.Value{}, s.Values()...)
			for _, a := range args {
				other, ok := a.(*value.Set)
				if !ok {
					return nil, raise("TypeError", "union() argument must be a set")
				}
				out = append(out, other.Values()...)
			}
			return value.NewSet(out)
		})
	case "intersection":
		return bound("set.intersection", func(args []value.Value, _ map[string]value.Value) (value.Value, error) {
			if len(args) != 1 {
				return nil, raise("TypeError", "intersection() takes 1 argument")
			}
			other, ok := args[0].(*value.Set)
			if !ok {
				return nil, raise("TypeError", "intersection() argument must be a set")
			}
			var out []value.Value
			for _, v := range s.Values() {
				if other.Contains(v) {
					out = append(out, v)
				}
			}
			return value.NewSet(out)
		})
	}
	return nil, false
}
