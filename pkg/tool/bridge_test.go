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

	"github.com/kadirpekel/tcoagent/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespace_LookupAndCall(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool("web_search")))
	ns := NewNamespace(reg, context.Background())

	callable, ok := ns.Lookup("web_search")
	require.True(t, ok)
	assert.Equal(t, "web_search", callable.CallableName())

	out, err := callable.Call(nil, map[string]value.Value{"text": value.Str("paris")})
	require.NoError(t, err)
	assert.Equal(t, "paris", out.String())
}

func TestNamespace_LookupSanitizedName(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool("fs.read")))
	ns := NewNamespace(reg, context.Background())

	callable, ok := ns.Lookup("fs_read")
	require.True(t, ok)
	assert.Equal(t, "fs.read", callable.CallableName())
}

func TestNamespace_LookupMissing(t *testing.T) {
	reg := NewRegistry()
	ns := NewNamespace(reg, context.Background())
	_, ok := ns.Lookup("nonexistent")
	assert.False(t, ok)
}

func TestBoundTool_PositionalArgsMapToSchema(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register(echoTool("echo")))
	ns := NewNamespace(reg, context.Background())

	callable, _ := ns.Lookup("echo")
	out, err := callable.Call([]value.Value{value.Str("positional")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "positional", out.String())
}
