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

// Package tool gives the evaluator a uniform call surface over sync tools,
// async tools, and remote tools (MCP, HTTP), plus the registry, search, and
// lazy-loading machinery that sits between tool definitions and the
// sandboxed interpreter's tool namespace.
package tool

import "context"

// Param describes one entry of a tool's input schema.
type Param struct {
	Name        string
	Type        string // "string", "int", "float", "bool", "list", "map"
	Description string
	Required    bool
	Default     interface{}
	Enum        []string
}

// Tool is the uniform interface every registered capability implements. The
// evaluator always calls `tool(**kwargs)`; Forward/ForwardAsync is where
// sync vs. async and local vs. remote dispatch actually happens.
type Tool interface {
	Name() string
	// Description may be read directly, or the tool may implement
	// DescribingTool for a call-time-computed description.
	Description() string
	InputSchema() []Param
	OutputType() string
	Readonly() bool
	Category() string
}

// DescribingTool is implemented by tools whose description is itself
// computed (e.g. lists currently loaded skills), matching the spec's
// "description (string or callable)" allowance.
type DescribingTool interface {
	Tool
	DescribeNow() string
}

// SyncTool executes synchronously on the calling goroutine.
type SyncTool interface {
	Tool
	Forward(ctx context.Context, kwargs map[string]interface{}) (interface{}, error)
}

// AsyncTool executes on its own goroutine; ForwardAsync performs whatever
// round trip (network, subprocess) the tool requires. Remote tools (MCP,
// HTTP) are always AsyncTool.
type AsyncTool interface {
	Tool
	ForwardAsync(ctx context.Context, kwargs map[string]interface{}) (interface{}, error)
}

// ObservationFormatter is implemented by tools that want to control how
// their return value renders in the Thought/Code/Observation transcript
// (e.g. a file-read tool prefixing line numbers). Spec §4.D invokes this
// when present and falls back to the value's default string conversion
// otherwise.
type ObservationFormatter interface {
	FormatForObservation(result interface{}) string
}

// describe resolves a tool's description, invoking DescribeNow when the
// tool supports it.
func describe(t Tool) string {
	if d, ok := t.(DescribingTool); ok {
		return d.DescribeNow()
	}
	return t.Description()
}
