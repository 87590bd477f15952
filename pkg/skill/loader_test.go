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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_SearchPaths_ProjectBeforeUser(t *testing.T) {
	l := &Loader{projectRoot: "/proj", homeDir: "/home/bob"}
	paths := l.searchPaths()

	require.Len(t, paths, 4)
	assert.Equal(t, filepath.Join("/proj", ".claude/skills"), paths[0].dir)
	assert.Equal(t, LocationProject, paths[0].location)
	assert.Equal(t, filepath.Join("/home/bob", ".claude/skills"), paths[2].dir)
	assert.Equal(t, LocationUser, paths[2].location)
}

func TestLoader_SearchPaths_NoHomeDirOmitsUserPaths(t *testing.T) {
	l := &Loader{projectRoot: "/proj", homeDir: ""}
	paths := l.searchPaths()
	assert.Len(t, paths, 2)
}

func TestLoader_LoadAll_ProjectOverridesUser(t *testing.T) {
	project := t.TempDir()
	home := t.TempDir()

	writeManifest(t, filepath.Join(project, ".claude/skills", "pdf-extract"), sampleManifest)
	writeManifest(t, filepath.Join(home, ".claude/skills", "pdf-extract"),
		"---\nname: pdf-extract\ndescription: user override, should lose\n---\nbody\n")
	writeManifest(t, filepath.Join(home, ".minion/skills", "only-user"),
		"---\nname: only-user\ndescription: only defined at user level\n---\nbody\n")

	l := &Loader{projectRoot: project, homeDir: home}
	reg := NewRegistry()
	l.LoadAll(reg)

	require.Equal(t, 2, reg.Len())
	got, ok := reg.Get("pdf-extract")
	require.True(t, ok)
	assert.Equal(t, "Extract text from PDF files.", got.Description)
	assert.Equal(t, LocationProject, got.Location)

	userOnly, ok := reg.Get("only-user")
	require.True(t, ok)
	assert.Equal(t, LocationUser, userOnly.Location)
}

func TestLoader_LoadAll_NestedSkillGrouping(t *testing.T) {
	project := t.TempDir()
	writeManifest(t, filepath.Join(project, ".claude/skills", "document-skills", "pdf"), sampleManifest)

	l := &Loader{projectRoot: project}
	reg := NewRegistry()
	l.LoadAll(reg)

	_, ok := reg.Get("pdf-extract")
	assert.True(t, ok)
}

func TestLoader_LoadAll_SkipsInvalidManifestsButLoadsRest(t *testing.T) {
	project := t.TempDir()
	writeManifest(t, filepath.Join(project, ".claude/skills", "broken"), "no front matter here")
	writeManifest(t, filepath.Join(project, ".claude/skills", "good"), sampleManifest)

	l := &Loader{projectRoot: project}
	reg := NewRegistry()
	l.LoadAll(reg)

	assert.Equal(t, 1, reg.Len())
	_, ok := reg.Get("pdf-extract")
	assert.True(t, ok)
}

func TestLoader_Reload_ClearsStaleEntries(t *testing.T) {
	project := t.TempDir()
	manifestDir := filepath.Join(project, ".claude/skills", "pdf-extract")
	writeManifest(t, manifestDir, sampleManifest)

	l := &Loader{projectRoot: project}
	reg := NewRegistry()
	l.LoadAll(reg)
	require.Equal(t, 1, reg.Len())

	require.NoError(t, os.RemoveAll(manifestDir))
	l.Reload(reg)
	assert.Equal(t, 0, reg.Len())
}

func TestLoader_DiscoverManifests_MissingDirReturnsNil(t *testing.T) {
	assert.Nil(t, discoverManifests(filepath.Join(t.TempDir(), "does-not-exist")))
}
