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

package observation

import (
	"context"
	"strings"
	"testing"

	"github.com/kadirpekel/tcoagent/pkg/tool"
	"github.com/kadirpekel/tcoagent/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lineNumberingTool struct {
	*tool.FnTool
}

func (t *lineNumberingTool) FormatForObservation(result interface{}) string {
	s, _ := result.(string)
	return FormatFileRead(s)
}

func newReadFileTool() *lineNumberingTool {
	return &lineNumberingTool{FnTool: tool.NewFnTool("read_file", "reads a file", nil,
		func(ctx context.Context, kwargs map[string]interface{}) (interface{}, error) { return nil, nil })}
}

func TestBuilder_UsesToolsObservationFormatter(t *testing.T) {
	b := New(DefaultConfig())
	rf := newReadFileTool()
	out := b.Build(value.Str("alpha\nbeta"), "", rf, nil)
	assert.Equal(t, "Output: 1 | alpha\n2 | beta", out)
}

func TestBuilder_PlainValueNoTool(t *testing.T) {
	b := New(DefaultConfig())
	out := b.Build(value.Str("42"), "", nil, nil)
	assert.Equal(t, "Output: 42", out)
}

func TestBuilder_LogsAndValue(t *testing.T) {
	b := New(DefaultConfig())
	out := b.Build(value.Str("ok"), "line1\nline2", nil, nil)
	assert.Equal(t, "Logs:\nline1\nline2\nOutput: ok", out)
}

func TestBuilder_NullValueOmitsOutput(t *testing.T) {
	b := New(DefaultConfig())
	out := b.Build(value.Null{}, "did a thing", nil, nil)
	assert.Equal(t, "Logs:\ndid a thing", out)
}

func TestBuilder_NilResultAndEmptyLogs(t *testing.T) {
	b := New(DefaultConfig())
	out := b.Build(nil, "", nil, nil)
	assert.Equal(t, "", out)
}

func TestBuilder_AdditionalContextAppended(t *testing.T) {
	b := New(DefaultConfig())
	out := b.Build(value.Str("ok"), "", nil, []string{"extra note"})
	assert.Equal(t, "Output: ok\nextra note", out)
}

func TestBuilder_TruncatesOnByteBudget(t *testing.T) {
	b := New(Config{MaxBytes: 20})
	huge := value.Str(strings.Repeat("x", 100))
	out := b.Build(huge, "", nil, nil)
	assert.LessOrEqual(t, len(out), 20+len("\n"+hint))
	assert.Contains(t, out, hint)
}

func TestFormatFileRead(t *testing.T) {
	out := FormatFileRead("alpha\nbeta\ngamma")
	assert.Equal(t, "1 | alpha\n2 | beta\n3 | gamma", out)
}

func TestFormatFileRead_PadsForDoubleDigitLineCounts(t *testing.T) {
	content := strings.Repeat("x\n", 9) + "last"
	out := FormatFileRead(content)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 10)
	assert.Equal(t, "01 | x", lines[0])
	assert.Equal(t, "10 | last", lines[9])
}

func TestFormatSearchResults(t *testing.T) {
	out := FormatSearchResults([]SearchResult{
		{Title: "Example", URL: "https://example.com", Score: 1.0},
	})
	assert.Contains(t, out, "1. Example")
	assert.Contains(t, out, "URL: https://example.com")
	assert.Contains(t, out, "100%")
	assert.Contains(t, out, "██████████")
}

func TestFormatSearchResults_Empty(t *testing.T) {
	assert.Equal(t, "No results found.", FormatSearchResults(nil))
}

func TestFormatRaw(t *testing.T) {
	assert.Equal(t, "already text", FormatRaw("already text"))
}
