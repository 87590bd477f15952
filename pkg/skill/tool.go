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

	"github.com/kadirpekel/tcoagent/pkg/tool"
)

// AsTool wraps s as a pkg/tool.SkillTool: invoking it resolves to the
// skill's prompt text, regardless of arguments, matching the "skill tool
// resolves a name to its prompt text on invocation" contract.
func AsTool(s *Skill) *tool.SkillTool {
	return tool.NewSkillTool(s.Name, s.Description, nil, func(ctx context.Context, kwargs map[string]interface{}) (interface{}, error) {
		return s.Prompt(), nil
	})
}

// RegisterAll wraps every skill currently in reg as a tool and registers it
// into tools, skipping names already present.
func RegisterAll(reg *Registry, tools *tool.Registry) error {
	for _, s := range reg.List() {
		if err := tools.Register(AsTool(s)); err != nil {
			return err
		}
	}
	return nil
}
