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

package loop

import (
	"fmt"
	"strings"

	"github.com/kadirpekel/tcoagent/pkg/history"
)

// instructionSet is embedded verbatim in the system message every
// iteration, per spec §4.E step 1.
var instructionSet = []string{
	"Follow the Thought->Code->Observation pattern.",
	"Emit exactly one code block per turn, ending with `<end_code>`.",
	"Use keyword arguments for all tool calls.",
	"You are already in an async context; use `await` directly at the top level without `asyncio.run()`.",
}

// buildMessages reconstructs the full message list for the next LLM call:
// a system message enumerating tools, the persistent conversation
// history, the task itself, and whatever attempts have already been made
// within this same task (error feedback from a prior iteration).
func (l *Loop) buildMessages(task string, turnAttempts []history.Message) []history.Message {
	msgs := make([]history.Message, 0, 2+l.History.Len()+len(turnAttempts))
	msgs = append(msgs, history.TextMessage(history.RoleSystem, l.systemPrompt()))
	msgs = append(msgs, l.History.ToList()...)
	msgs = append(msgs, history.TextMessage(history.RoleUser, task))
	msgs = append(msgs, turnAttempts...)
	return msgs
}

func (l *Loop) systemPrompt() string {
	var b strings.Builder
	b.WriteString("You have access to the following tools:\n\n")
	for _, info := range l.Registry.ListTools() {
		fmt.Fprintf(&b, "- %s: %s\n", info.Name, info.Description)
		if info.Readonly {
			b.WriteString("  readonly: true\n")
		}
		for _, p := range info.Schema {
			req := ""
			if p.Required {
				req = ", required"
			}
			fmt.Fprintf(&b, "  - %s (%s%s): %s\n", p.Name, p.Type, req, p.Description)
		}
	}
	b.WriteString("\n")
	for _, line := range instructionSet {
		b.WriteString("- " + line + "\n")
	}
	return b.String()
}
