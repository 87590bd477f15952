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
	"fmt"
)

// LoadTool forces instantiation of a factory-backed (deferred) entry and
// reports both success and the sanitized name code should call, per spec
// §4.B's load_tool contract.
type LoadTool struct {
	reg *Registry
}

// NewLoadTool builds the load_tool tool bound to reg, the same registry
// the evaluator's tool namespace resolves against — so a tool loaded this
// way is immediately callable by its sanitized name in the same code
// block.
func NewLoadTool(reg *Registry) *LoadTool {
	return &LoadTool{reg: reg}
}

func (t *LoadTool) Name() string        { return "load_tool" }
func (t *LoadTool) Description() string { return "Force-load a deferred tool by name and return the callable name to use in code." }
func (t *LoadTool) OutputType() string  { return "map" }
func (t *LoadTool) Readonly() bool      { return true }
func (t *LoadTool) Category() string    { return "meta" }

func (t *LoadTool) InputSchema() []Param {
	return []Param{
		{Name: "name", Type: "string", Description: "Registered tool name to load.", Required: true},
	}
}

func (t *LoadTool) Forward(ctx context.Context, kwargs map[string]interface{}) (interface{}, error) {
	name, _ := kwargs["name"].(string)
	if name == "" {
		return nil, fmt.Errorf("load_tool requires a non-empty name")
	}
	if _, err := t.reg.Resolve(name); err != nil {
		return map[string]interface{}{
			"success": false,
			"error":   err.Error(),
		}, nil
	}
	return map[string]interface{}{
		"success":   true,
		"name":      name,
		"call_name": SanitizedName(name),
	}, nil
}
