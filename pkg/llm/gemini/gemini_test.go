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

package gemini

import (
	"testing"

	"google.golang.org/genai"

	"github.com/stretchr/testify/assert"

	"github.com/kadirpekel/tcoagent/pkg/history"
)

func TestToGenaiContents_SplitsSystemInstructionFromTurns(t *testing.T) {
	messages := []history.Message{
		history.TextMessage(history.RoleSystem, "be terse"),
		history.TextMessage(history.RoleUser, "do the thing"),
		history.TextMessage(history.RoleAssistant, "done"),
	}

	contents, sysInstr := toGenaiContents(messages)
	assert.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "do the thing", contents[0].Parts[0].Text)
	assert.Equal(t, "model", contents[1].Role)
	assert.NotNil(t, sysInstr)
	assert.Equal(t, "be terse", sysInstr.Parts[0].Text)
}

func TestToGenaiContents_SkipsEmptyMessages(t *testing.T) {
	messages := []history.Message{{Role: history.RoleUser}}
	contents, sysInstr := toGenaiContents(messages)
	assert.Empty(t, contents)
	assert.Nil(t, sysInstr)
}

func TestJoinText_ConcatenatesBlocks(t *testing.T) {
	blocks := []history.ContentBlock{{Text: "foo"}, {Text: "bar"}}
	assert.Equal(t, "foobar", joinText(blocks))
}

func TestTextFrom_SkipsThoughtParts(t *testing.T) {
	candidate := &genai.Candidate{
		Content: &genai.Content{
			Parts: []*genai.Part{
				{Text: "thinking...", Thought: true},
				{Text: "the answer"},
			},
		},
	}
	assert.Equal(t, "the answer", textFrom(candidate))
}

func TestTextFrom_NilContent(t *testing.T) {
	assert.Equal(t, "", textFrom(&genai.Candidate{}))
}

func TestUsageFrom_MapsTokenCounts(t *testing.T) {
	u := usageFrom(&genai.GenerateContentResponseUsageMetadata{
		PromptTokenCount:     10,
		CandidatesTokenCount: 5,
	})
	assert.Equal(t, 10, u.InputTokens)
	assert.Equal(t, 5, u.OutputTokens)
}

func TestUsageFrom_NilMetadata(t *testing.T) {
	assert.Equal(t, 0, usageFrom(nil).InputTokens)
}

func TestProvider_Name(t *testing.T) {
	p := &Provider{model: "gemini-2.0-flash"}
	assert.Equal(t, "gemini:gemini-2.0-flash", p.Name())
}
