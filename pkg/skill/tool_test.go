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

package skill

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/tcoagent/pkg/tool"
)

func TestAsTool_ForwardReturnsSkillPrompt(t *testing.T) {
	s := &Skill{Name: "demo", Description: "a demo skill", Path: "/skills/demo", Content: "do the thing"}
	tl := AsTool(s)

	assert.Equal(t, "demo", tl.Name())
	assert.Equal(t, "a demo skill", tl.Description())
	assert.Equal(t, "skill", tl.Category())

	out, err := tl.Forward(context.Background(), nil)
	require.NoError(t, err)
	assert.Contains(t, out.(string), "do the thing")
}

func TestRegisterAll_WiresEverySkillIntoToolRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Skill{Name: "alpha", Description: "first", Content: "a"})
	reg.Register(&Skill{Name: "beta", Description: "second", Content: "b"})

	tools := tool.NewRegistry()
	require.NoError(t, RegisterAll(reg, tools))

	got, err := tools.Resolve("alpha")
	require.NoError(t, err)
	assert.Equal(t, "alpha", got.Name())
}
