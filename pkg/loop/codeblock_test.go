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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractCodeBlock_Basic(t *testing.T) {
	text := "Thought: I'll add.\n```python\nx = 1 + 1\n```<end_code>"
	code, ok := extractCodeBlock(text, "<end_code>")
	assert.True(t, ok)
	assert.Equal(t, "x = 1 + 1", code)
}

func TestExtractCodeBlock_MissingStopSequenceIsAppended(t *testing.T) {
	text := "```python\nprint(1)\n```"
	code, ok := extractCodeBlock(text, "<end_code>")
	assert.True(t, ok)
	assert.Equal(t, "print(1)", code)
}

func TestExtractCodeBlock_NoCodeBlock(t *testing.T) {
	_, ok := extractCodeBlock("Just a plain final answer.", "<end_code>")
	assert.False(t, ok)
}

func TestExtractCodeBlock_EmptyBlock(t *testing.T) {
	_, ok := extractCodeBlock("```python\n\n```<end_code>", "<end_code>")
	assert.False(t, ok)
}

func TestLooksLikeFinalAnswer(t *testing.T) {
	assert.True(t, looksLikeFinalAnswer("Final Answer: 42"))
	assert.True(t, looksLikeFinalAnswer("  the answer is: 7"))
	assert.False(t, looksLikeFinalAnswer("42 is the answer"))
	assert.False(t, looksLikeFinalAnswer("just some text"))
}
