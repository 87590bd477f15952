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

// Package skill discovers SKILL.md manifests on disk and exposes each as a
// named prompt bundle. The core never reads the filesystem itself: it sees
// skills only through pkg/tool.SkillTool, which this package constructs.
package skill

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const ManifestFile = "SKILL.md"

// Location records which search path a skill was discovered under, used to
// resolve project-vs-user precedence when two skills share a name.
type Location string

const (
	LocationProject Location = "project"
	LocationUser    Location = "user"
)

// Skill is a loaded SKILL.md: its front-matter metadata plus the prompt body.
type Skill struct {
	Name         string
	Description  string
	License      string
	AllowedTools []string
	Metadata     map[string]interface{}

	Content  string
	Path     string
	Location Location
}

type frontMatter struct {
	Name         string                 `yaml:"name"`
	Description  string                 `yaml:"description"`
	License      string                 `yaml:"license"`
	AllowedTools []string               `yaml:"allowed-tools"`
	Metadata     map[string]interface{} `yaml:"metadata"`
}

var frontMatterPattern = regexp.MustCompile(`(?s)^---\s*\n(.*?)\n---\s*\n(.*)$`)

// LoadManifest parses a SKILL.md file at manifestPath into a Skill.
func LoadManifest(manifestPath string, location Location) (*Skill, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("skill: read manifest %s: %w", manifestPath, err)
	}

	match := frontMatterPattern.FindStringSubmatch(string(data))
	if match == nil {
		return nil, fmt.Errorf("skill: %s has no YAML front-matter", manifestPath)
	}

	var fm frontMatter
	if err := yaml.Unmarshal([]byte(match[1]), &fm); err != nil {
		return nil, fmt.Errorf("skill: parse front-matter of %s: %w", manifestPath, err)
	}

	if fm.Name == "" || fm.Description == "" {
		return nil, fmt.Errorf("skill: %s missing required name/description", manifestPath)
	}

	return &Skill{
		Name:         fm.Name,
		Description:  fm.Description,
		License:      fm.License,
		AllowedTools: fm.AllowedTools,
		Metadata:     fm.Metadata,
		Content:      strings.TrimSpace(match[2]),
		Path:         filepath.Dir(manifestPath),
		Location:     location,
	}, nil
}

// Prompt returns the skill's full prompt text: a base-directory header (for
// resolving relative paths to bundled references/scripts/assets) followed by
// the manifest body.
func (s *Skill) Prompt() string {
	return fmt.Sprintf("Loading: %s\nBase directory: %s\n\n%s", s.Name, s.Path, s.Content)
}
