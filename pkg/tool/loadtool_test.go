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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTool_ForcesFactoryAndReportsSanitizedName(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.RegisterFactory("mcp.server.search", func() (Tool, error) {
		return echoTool("mcp.server.search"), nil
	}))
	lt := NewLoadTool(reg)

	out, err := lt.Forward(context.Background(), map[string]interface{}{"name": "mcp.server.search"})
	require.NoError(t, err)
	result := out.(map[string]interface{})
	assert.Equal(t, true, result["success"])
	assert.Equal(t, "mcp.server.search", result["name"])
	assert.Equal(t, "mcp_server_search", result["call_name"])
	assert.True(t, reg.IsLoaded("mcp.server.search"))
}

func TestLoadTool_UnknownNameReportsFailure(t *testing.T) {
	reg := NewRegistry()
	lt := NewLoadTool(reg)

	out, err := lt.Forward(context.Background(), map[string]interface{}{"name": "nope"})
	require.NoError(t, err)
	result := out.(map[string]interface{})
	assert.Equal(t, false, result["success"])
	assert.NotEmpty(t, result["error"])
}

func TestLoadTool_EmptyNameErrors(t *testing.T) {
	reg := NewRegistry()
	lt := NewLoadTool(reg)
	_, err := lt.Forward(context.Background(), map[string]interface{}{"name": ""})
	require.Error(t, err)
}
