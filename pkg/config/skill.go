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

// SkillConfig configures where skills are discovered and whether they are
// hot-reloaded, the declarative surface over pkg/skill.Loader/Watcher.
type SkillConfig struct {
	// ProjectRoot overrides the directory .claude/skills and
	// .minion/skills are searched under. Empty uses the working
	// directory, matching pkg/skill.NewLoader's own default.
	ProjectRoot string `yaml:"project_root,omitempty"`

	// Watch enables fsnotify-based hot reload of skill directories.
	Watch *bool `yaml:"watch,omitempty"`
}

// SetDefaults applies default values.
func (c *SkillConfig) SetDefaults() {
	if c.Watch == nil {
		c.Watch = boolPtr(false)
	}
}

// Validate checks the skill configuration. There is nothing to reject: an
// empty ProjectRoot is a valid "use the working directory" request.
func (c *SkillConfig) Validate() error {
	return nil
}

// WatchEnabled reports whether hot reload should run.
func (c *SkillConfig) WatchEnabled() bool {
	return c.Watch != nil && *c.Watch
}
