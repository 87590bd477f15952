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

package config

import (
	"fmt"
	"time"

	"github.com/kadirpekel/tcoagent/pkg/tool"
)

// ToolType identifies which pkg/tool constructor a ToolConfig builds.
type ToolType string

const (
	// ToolTypeBuiltin names a tool already registered by the host
	// program (file/search/todo tools, etc.); the config entry only
	// carries enablement and description overrides.
	ToolTypeBuiltin ToolType = "builtin"

	// ToolTypeMCP builds a tool.MCPSource over stdio.
	ToolTypeMCP ToolType = "mcp"

	// ToolTypeHTTP builds the generic tool.HTTPTool.
	ToolTypeHTTP ToolType = "http"
)

// ToolConfig declares one entry in the tool registry: which kind of tool
// to build, under what name, and (for mcp/http) the wiring it needs.
type ToolConfig struct {
	// Type selects the constructor (builtin, mcp, http).
	Type ToolType `yaml:"type,omitempty"`

	// Enabled controls whether the entry is registered at all.
	Enabled *bool `yaml:"enabled,omitempty"`

	// Description overrides the tool's default description.
	Description string `yaml:"description,omitempty"`

	// MCP fields (type: mcp)
	Command string            `yaml:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty"`

	// HTTP fields (type: http)
	Timeout        time.Duration `yaml:"timeout,omitempty"`
	MaxRetries     int           `yaml:"max_retries,omitempty"`
	MaxRequestSize int64         `yaml:"max_request_size,omitempty"`
	AllowedMethods []string      `yaml:"allowed_methods,omitempty"`
	UserAgent      string        `yaml:"user_agent,omitempty"`

	// RequireApproval routes the tool's calls through a pre-tool-use hook
	// that asks before forwarding, regardless of the global hook policy.
	RequireApproval *bool `yaml:"require_approval,omitempty"`
}

// SetDefaults applies default values, including the HITL default of
// requiring approval for MCP/HTTP tools since their side effects reach
// outside the process.
func (c *ToolConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = ToolTypeBuiltin
	}
	if c.Enabled == nil {
		c.Enabled = boolPtr(true)
	}
	if c.RequireApproval == nil {
		switch c.Type {
		case ToolTypeMCP, ToolTypeHTTP:
			c.RequireApproval = boolPtr(true)
		default:
			c.RequireApproval = boolPtr(false)
		}
	}
	if c.Type == ToolTypeHTTP {
		d := tool.DefaultHTTPConfig()
		if c.Timeout == 0 {
			c.Timeout = d.Timeout
		}
		if c.MaxRetries == 0 {
			c.MaxRetries = d.MaxRetries
		}
		if c.MaxRequestSize == 0 {
			c.MaxRequestSize = d.MaxRequestSize
		}
		if len(c.AllowedMethods) == 0 {
			c.AllowedMethods = d.AllowedMethods
		}
		if c.UserAgent == "" {
			c.UserAgent = d.UserAgent
		}
	}
}

// Validate checks the tool configuration.
func (c *ToolConfig) Validate() error {
	switch c.Type {
	case ToolTypeBuiltin, ToolTypeMCP, ToolTypeHTTP:
	default:
		return fmt.Errorf("invalid tool type %q (valid: builtin, mcp, http)", c.Type)
	}
	if c.Type == ToolTypeMCP && c.Command == "" {
		return fmt.Errorf("mcp tool requires command")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative")
	}
	if c.MaxRequestSize < 0 {
		return fmt.Errorf("max_request_size must be non-negative")
	}
	return nil
}

// IsEnabled reports whether this entry should be registered.
func (c *ToolConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// NeedsApproval reports whether calls to this tool must go through a
// human-approval hook before forwarding.
func (c *ToolConfig) NeedsApproval() bool {
	return c.RequireApproval != nil && *c.RequireApproval
}

// MCPConfig builds the tool.MCPConfig this entry describes.
func (c *ToolConfig) MCPConfig(name string) tool.MCPConfig {
	return tool.MCPConfig{Name: name, Command: c.Command, Args: c.Args, Env: c.Env}
}

// HTTPConfig builds the tool.HTTPConfig this entry describes.
func (c *ToolConfig) HTTPConfig() tool.HTTPConfig {
	return tool.HTTPConfig{
		Timeout:        c.Timeout,
		MaxRetries:     c.MaxRetries,
		MaxRequestSize: c.MaxRequestSize,
		AllowedMethods: c.AllowedMethods,
		UserAgent:      c.UserAgent,
	}
}
