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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolConfig_SetDefaultsBuiltinNeedsNoApproval(t *testing.T) {
	cfg := &ToolConfig{}
	cfg.SetDefaults()

	assert.Equal(t, ToolTypeBuiltin, cfg.Type)
	assert.True(t, cfg.IsEnabled())
	assert.False(t, cfg.NeedsApproval())
}

func TestToolConfig_SetDefaultsMCPRequiresApproval(t *testing.T) {
	cfg := &ToolConfig{Type: ToolTypeMCP, Command: "mcp-server"}
	cfg.SetDefaults()

	assert.True(t, cfg.NeedsApproval())

	mcp := cfg.MCPConfig("shell")
	assert.Equal(t, "shell", mcp.Name)
	assert.Equal(t, "mcp-server", mcp.Command)
}

func TestToolConfig_SetDefaultsHTTPFillsFromDefaultHTTPConfig(t *testing.T) {
	cfg := &ToolConfig{Type: ToolTypeHTTP}
	cfg.SetDefaults()

	assert.True(t, cfg.NeedsApproval())
	assert.NotZero(t, cfg.Timeout)
	assert.NotEmpty(t, cfg.AllowedMethods)

	httpCfg := cfg.HTTPConfig()
	assert.Equal(t, cfg.Timeout, httpCfg.Timeout)
}

func TestToolConfig_ValidateRejectsMCPWithoutCommand(t *testing.T) {
	cfg := &ToolConfig{Type: ToolTypeMCP}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires command")
}

func TestToolConfig_ValidateRejectsUnknownType(t *testing.T) {
	cfg := &ToolConfig{Type: "bogus"}
	err := cfg.Validate()
	require.Error(t, err)
}
