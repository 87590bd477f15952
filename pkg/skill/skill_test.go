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

func writeManifest(t *testing.T, dir, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, ManifestFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleManifest = `---
name: pdf-extract
description: Extract text from PDF files.
license: MIT
allowed-tools:
  - read_file
  - write_file
metadata:
  version: "1"
---

# PDF Extract

Use pdftotext to pull text out of a document.
`

func TestLoadManifest_ParsesFrontMatterAndBody(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, filepath.Join(dir, "pdf-extract"), sampleManifest)

	s, err := LoadManifest(path, LocationProject)
	require.NoError(t, err)
	assert.Equal(t, "pdf-extract", s.Name)
	assert.Equal(t, "Extract text from PDF files.", s.Description)
	assert.Equal(t, "MIT", s.License)
	assert.Equal(t, []string{"read_file", "write_file"}, s.AllowedTools)
	assert.Equal(t, "1", s.Metadata["version"])
	assert.Contains(t, s.Content, "Use pdftotext")
	assert.Equal(t, LocationProject, s.Location)
}

func TestLoadManifest_MissingFrontMatterErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "just a markdown file, no front-matter")

	_, err := LoadManifest(path, LocationProject)
	assert.Error(t, err)
}

func TestLoadManifest_MissingNameOrDescriptionErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeManifest(t, dir, "---\nname: incomplete\n---\nbody\n")

	_, err := LoadManifest(path, LocationProject)
	assert.Error(t, err)
}

func TestLoadManifest_NonexistentFileErrors(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "missing", ManifestFile), LocationProject)
	assert.Error(t, err)
}

func TestSkill_PromptIncludesHeaderAndBody(t *testing.T) {
	s := &Skill{Name: "demo", Path: "/skills/demo", Content: "do the thing"}
	prompt := s.Prompt()
	assert.Contains(t, prompt, "Loading: demo")
	assert.Contains(t, prompt, "Base directory: /skills/demo")
	assert.Contains(t, prompt, "do the thing")
}
