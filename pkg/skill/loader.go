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
	"log/slog"
	"os"
	"path/filepath"
)

// skillDirs are searched, project paths before user paths, so that a
// project-level skill always wins a name collision with a user-level one.
var skillDirs = []string{
	".claude/skills",
	".minion/skills",
}

type searchPath struct {
	dir      string
	location Location
}

// Loader discovers and loads skills from the standard project/user search
// paths described in the skill manifest convention.
type Loader struct {
	projectRoot string
	homeDir     string
}

// NewLoader creates a loader rooted at projectRoot. An empty projectRoot
// defaults to the current working directory; the user's home directory is
// resolved via os.UserHomeDir.
func NewLoader(projectRoot string) (*Loader, error) {
	if projectRoot == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		projectRoot = wd
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}

	return &Loader{projectRoot: projectRoot, homeDir: home}, nil
}

func (l *Loader) searchPaths() []searchPath {
	paths := make([]searchPath, 0, len(skillDirs)*2)
	for _, d := range skillDirs {
		paths = append(paths, searchPath{dir: filepath.Join(l.projectRoot, d), location: LocationProject})
	}
	if l.homeDir != "" {
		for _, d := range skillDirs {
			paths = append(paths, searchPath{dir: filepath.Join(l.homeDir, d), location: LocationUser})
		}
	}
	return paths
}

// discoverManifests finds every SKILL.md directly under dir, plus one level
// of nesting (e.g. a "document-skills/pdf/SKILL.md" grouping directory).
func discoverManifests(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var manifests []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		skillDir := filepath.Join(dir, entry.Name())
		manifest := filepath.Join(skillDir, ManifestFile)
		if fileExists(manifest) {
			manifests = append(manifests, manifest)
			continue
		}

		nested, err := os.ReadDir(skillDir)
		if err != nil {
			continue
		}
		for _, n := range nested {
			if !n.IsDir() {
				continue
			}
			nestedManifest := filepath.Join(skillDir, n.Name(), ManifestFile)
			if fileExists(nestedManifest) {
				manifests = append(manifests, nestedManifest)
			}
		}
	}
	return manifests
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// LoadAll discovers every skill across all search paths and registers it
// into reg, in project-before-user priority order.
func (l *Loader) LoadAll(reg *Registry) {
	for _, sp := range l.searchPaths() {
		for _, manifestPath := range discoverManifests(sp.dir) {
			s, err := LoadManifest(manifestPath, sp.location)
			if err != nil {
				slog.Warn("skill: failed to load manifest", "path", manifestPath, "error", err)
				continue
			}
			if reg.Register(s) {
				slog.Info("skill: registered", "name", s.Name, "location", sp.location)
			} else {
				slog.Debug("skill: skipped duplicate", "name", s.Name, "location", sp.location)
			}
		}
	}
}

// Reload clears reg and reloads every skill from scratch.
func (l *Loader) Reload(reg *Registry) {
	reg.Clear()
	l.LoadAll(reg)
}
