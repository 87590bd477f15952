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

package openai

import (
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"

	"github.com/kadirpekel/tcoagent/pkg/history"
)

func TestToOpenAIRole(t *testing.T) {
	assert.Equal(t, openai.ChatMessageRoleSystem, toOpenAIRole(history.RoleSystem))
	assert.Equal(t, openai.ChatMessageRoleAssistant, toOpenAIRole(history.RoleAssistant))
	assert.Equal(t, openai.ChatMessageRoleUser, toOpenAIRole(history.RoleUser))
	assert.Equal(t, openai.ChatMessageRoleUser, toOpenAIRole(history.RoleTool))
}

func TestToOpenAIMessages_PreservesOrderAndRoles(t *testing.T) {
	messages := []history.Message{
		history.TextMessage(history.RoleSystem, "be terse"),
		history.TextMessage(history.RoleUser, "do the thing"),
		history.ToolMessage("search", "call-1", "Observation: 3 results"),
	}

	out := toOpenAIMessages(messages)
	assert.Len(t, out, 3)
	assert.Equal(t, openai.ChatMessageRoleSystem, out[0].Role)
	assert.Equal(t, "be terse", out[0].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, out[1].Role)
	assert.Equal(t, "do the thing", out[1].Content)
	assert.Equal(t, openai.ChatMessageRoleUser, out[2].Role)
	assert.Equal(t, "Observation: 3 results", out[2].Content)
}

func TestJoinText_ConcatenatesMultipleBlocks(t *testing.T) {
	blocks := []history.ContentBlock{{Text: "foo"}, {Text: "bar"}}
	assert.Equal(t, "foobar", joinText(blocks))
}

func TestJoinText_SingleBlock(t *testing.T) {
	blocks := []history.ContentBlock{{Text: "solo"}}
	assert.Equal(t, "solo", joinText(blocks))
}

func TestUsageFrom_MapsTokenCounts(t *testing.T) {
	u := usageFrom(openai.Usage{PromptTokens: 10, CompletionTokens: 5})
	assert.Equal(t, 10, u.InputTokens)
	assert.Equal(t, 5, u.OutputTokens)
}

func TestNew_SetsModelAndDefaults(t *testing.T) {
	p := New("sk-test", "gpt-4o")
	assert.Equal(t, "openai:gpt-4o", p.Name())
	assert.Equal(t, 3, p.maxRetries)
}

func TestNew_AppliesOptions(t *testing.T) {
	p := New("sk-test", "gpt-4o", WithBaseURL("https://example.test/v1"), WithMaxRetries(5))
	assert.Equal(t, 5, p.maxRetries)
}
