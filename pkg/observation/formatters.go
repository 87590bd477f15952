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
	"fmt"
	"strconv"
	"strings"
)

// FormatFileRead renders file content with a right-aligned, zero-padded
// line number and " | " prepended to each line, so the model can reference
// a specific line number in a later edit. Tools implementing a file-read
// capability call this from their FormatForObservation.
func FormatFileRead(content string) string {
	lines := strings.Split(content, "\n")
	padding := len(strconv.Itoa(len(lines)))

	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%0*d | %s", padding, i+1, line)
	}
	return b.String()
}

// SearchResult is one ranked hit a search-style tool returns.
type SearchResult struct {
	Title string
	URL   string
	Score float64 // 0..1
}

const scoreBarWidth = 10

// FormatSearchResults renders each result as spec §4.D's
// "{rank}. title\n   [score bar] {pct}\n   URL: {url}".
func FormatSearchResults(results []SearchResult) string {
	if len(results) == 0 {
		return "No results found."
	}
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = fmt.Sprintf("%d. %s\n   %s\n   URL: %s", i+1, r.Title, scoreBar(r.Score), r.URL)
	}
	return strings.Join(parts, "\n\n")
}

func scoreBar(score float64) string {
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	filled := int(score*scoreBarWidth + 0.5)
	bar := strings.Repeat("█", filled) + strings.Repeat("░", scoreBarWidth-filled)
	return fmt.Sprintf("[%s] %d%%", bar, int(score*100+0.5))
}

// FormatRaw is the identity formatter, for tools whose output is already
// LLM-legible text (spec §4.D's "Raw output" example).
func FormatRaw(s string) string {
	return s
}
