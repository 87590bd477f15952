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
	"regexp"
	"strings"
)

var codeBlockRe = regexp.MustCompile("(?s)```(?:python|py)?\\s*\\n?(.*?)<end_code>")

// extractCodeBlock finds the first fenced code block terminated by
// stopSeq (default "<end_code>") in text, matching the assistant's
// Thought->Code transcript convention. If text was truncated before the
// stop sequence appeared (the stream cut off early), stopSeq is appended
// before matching so a trailing, unterminated block is still recovered.
func extractCodeBlock(text, stopSeq string) (code string, ok bool) {
	if stopSeq == "" {
		stopSeq = "<end_code>"
	}
	if !strings.Contains(text, stopSeq) {
		text = strings.TrimRight(text, " \t\n") + stopSeq
	}

	re := codeBlockRe
	if stopSeq != "<end_code>" {
		re = regexp.MustCompile("(?s)```(?:python|py)?\\s*\\n?(.*?)" + regexp.QuoteMeta(stopSeq))
	}

	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	cleaned := strings.TrimSpace(m[1])
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return "", false
	}
	return cleaned, true
}

// finalAnswerIndicators are the literal prefixes spec.md names; unlike
// the original's substring search, these must lead the (trimmed,
// lowercased) output, matching spec.md's literal "begins with" wording.
var finalAnswerIndicators = []string{
	"final answer:",
	"the answer is:",
	"result is:",
	"solution is:",
}

// looksLikeFinalAnswer applies the heuristic spec.md step 6 describes for
// treating a non-final_answer() result as terminal anyway.
func looksLikeFinalAnswer(output string) bool {
	lower := strings.ToLower(strings.TrimSpace(output))
	for _, indicator := range finalAnswerIndicators {
		if strings.HasPrefix(lower, indicator) {
			return true
		}
	}
	return false
}
