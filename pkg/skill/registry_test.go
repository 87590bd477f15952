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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterFirstWins(t *testing.T) {
	r := NewRegistry()
	project := &Skill{Name: "pdf-extract", Location: LocationProject}
	user := &Skill{Name: "pdf-extract", Location: LocationUser}

	assert.True(t, r.Register(project))
	assert.False(t, r.Register(user))

	got, ok := r.Get("pdf-extract")
	require.True(t, ok)
	assert.Equal(t, LocationProject, got.Location)
}

func TestRegistry_ListIsSortedByName(t *testing.T) {
	r := NewRegistry()
	r.Register(&Skill{Name: "zeta"})
	r.Register(&Skill{Name: "alpha"})
	r.Register(&Skill{Name: "mid"})

	names := make([]string, 0, 3)
	for _, s := range r.List() {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestRegistry_Clear(t *testing.T) {
	r := NewRegistry()
	r.Register(&Skill{Name: "demo"})
	require.Equal(t, 1, r.Len())

	r.Clear()
	assert.Equal(t, 0, r.Len())
	_, ok := r.Get("demo")
	assert.False(t, ok)
}

func TestRegistry_GetMissing(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Get("nope")
	assert.False(t, ok)
}
