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
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// FnTool wraps a plain synchronous Go function as a Tool — the common case
// for small, stateless, in-process capabilities (spec §4.B's "instance"
// registration, as opposed to a remote or factory-backed one).
type FnTool struct {
	name        string
	description string
	schema      []Param
	readonly    bool
	category    string
	fn          func(ctx context.Context, kwargs map[string]interface{}) (interface{}, error)
}

// NewFnTool builds a synchronous function tool.
func NewFnTool(name, description string, schema []Param, fn func(ctx context.Context, kwargs map[string]interface{}) (interface{}, error)) *FnTool {
	return &FnTool{name: name, description: description, schema: schema, fn: fn}
}

func (t *FnTool) Name() string          { return t.name }
func (t *FnTool) Description() string   { return t.description }
func (t *FnTool) InputSchema() []Param  { return t.schema }
func (t *FnTool) OutputType() string    { return "any" }
func (t *FnTool) Readonly() bool        { return t.readonly }
func (t *FnTool) Category() string      { return t.category }
func (t *FnTool) SetReadonly(v bool) *FnTool { t.readonly = v; return t }
func (t *FnTool) SetCategory(c string) *FnTool { t.category = c; return t }

func (t *FnTool) Forward(ctx context.Context, kwargs map[string]interface{}) (interface{}, error) {
	return t.fn(ctx, kwargs)
}

// AsyncFnTool wraps a Go function that performs its own concurrency (a
// network round trip, a subprocess) as a Tool whose dispatch goes through
// ForwardAsync rather than Forward, matching spec §4.B's sync/async split.
type AsyncFnTool struct {
	name        string
	description string
	schema      []Param
	readonly    bool
	category    string
	fn          func(ctx context.Context, kwargs map[string]interface{}) (interface{}, error)
}

// NewAsyncFnTool builds an asynchronous function tool.
func NewAsyncFnTool(name, description string, schema []Param, fn func(ctx context.Context, kwargs map[string]interface{}) (interface{}, error)) *AsyncFnTool {
	return &AsyncFnTool{name: name, description: description, schema: schema, fn: fn}
}

func (t *AsyncFnTool) Name() string         { return t.name }
func (t *AsyncFnTool) Description() string  { return t.description }
func (t *AsyncFnTool) InputSchema() []Param { return t.schema }
func (t *AsyncFnTool) OutputType() string   { return "any" }
func (t *AsyncFnTool) Readonly() bool       { return t.readonly }
func (t *AsyncFnTool) Category() string     { return t.category }
func (t *AsyncFnTool) SetReadonly(v bool) *AsyncFnTool { t.readonly = v; return t }
func (t *AsyncFnTool) SetCategory(c string) *AsyncFnTool { t.category = c; return t }

func (t *AsyncFnTool) ForwardAsync(ctx context.Context, kwargs map[string]interface{}) (interface{}, error) {
	return t.fn(ctx, kwargs)
}

// SchemaFromStruct derives a Param list from a Go struct's JSON schema
// (via invopop/jsonschema), for tools that would rather describe their
// arguments as a typed struct than hand-build a []Param literal. Struct
// tags follow the same `json`/`jsonschema` conventions the reflector
// documents: `jsonschema:"required,description=..."`.
func SchemaFromStruct(v interface{}) []Param {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}
	schema := reflector.Reflect(v)

	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var raw struct {
		Properties map[string]struct {
			Type        string        `json:"type"`
			Description string        `json:"description"`
			Default     interface{}   `json:"default"`
			Enum        []interface{} `json:"enum"`
		} `json:"properties"`
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}

	required := make(map[string]bool, len(raw.Required))
	for _, r := range raw.Required {
		required[r] = true
	}

	out := make([]Param, 0, len(raw.Properties))
	for name, prop := range raw.Properties {
		p := Param{
			Name:        name,
			Type:        prop.Type,
			Description: prop.Description,
			Required:    required[name],
			Default:     prop.Default,
		}
		for _, e := range prop.Enum {
			if s, ok := e.(string); ok {
				p.Enum = append(p.Enum, s)
			}
		}
		out = append(out, p)
	}
	return out
}
