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

import "context"

// SkillTool exposes a loaded skill (pkg/skill) as an ordinary Tool, so the
// evaluator calls a skill exactly like any other registered capability.
// Invoke is supplied by pkg/skill's loader — this type is the seam, not
// the loader itself, matching the package-layering in spec §6.
type SkillTool struct {
	name        string
	description string
	schema      []Param
	invoke      func(ctx context.Context, kwargs map[string]interface{}) (interface{}, error)
}

// NewSkillTool wraps a skill's entrypoint as a Tool.
func NewSkillTool(name, description string, schema []Param, invoke func(ctx context.Context, kwargs map[string]interface{}) (interface{}, error)) *SkillTool {
	return &SkillTool{name: name, description: description, schema: schema, invoke: invoke}
}

func (t *SkillTool) Name() string         { return t.name }
func (t *SkillTool) Description() string  { return t.description }
func (t *SkillTool) InputSchema() []Param { return t.schema }
func (t *SkillTool) OutputType() string   { return "any" }
func (t *SkillTool) Readonly() bool       { return false }
func (t *SkillTool) Category() string     { return "skill" }

func (t *SkillTool) Forward(ctx context.Context, kwargs map[string]interface{}) (interface{}, error) {
	return t.invoke(ctx, kwargs)
}
