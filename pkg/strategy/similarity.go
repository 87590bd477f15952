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

package strategy

import "strings"

// similarityRatio scores how alike a and b are, in [0,1], via the
// Ratcliff/Obershelp algorithm: find the longest common substring, then
// recurse on what's left on either side of it and sum the matched
// lengths. This is the same algorithm Python's difflib.SequenceMatcher
// computes a ratio from; no third-party fuzzy-matching library is wired
// anywhere in this module, so a candidate-name corrector needs its own.
func similarityRatio(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	matched := matchingBlockLength(a, b)
	return 2 * float64(matched) / float64(len(a)+len(b))
}

func matchingBlockLength(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	aStart, bStart, length := longestCommonSubstring(a, b)
	if length == 0 {
		return 0
	}
	total := length
	total += matchingBlockLength(a[:aStart], b[:bStart])
	total += matchingBlockLength(a[aStart+length:], b[bStart+length:])
	return total
}

// longestCommonSubstring finds one longest contiguous run shared by a and
// b via dynamic programming, returning its start offsets in each string
// and its length. O(len(a)*len(b)), fine for the short tool/checker/worker
// names this is used to disambiguate.
func longestCommonSubstring(a, b string) (aStart, bStart, length int) {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > length {
					length = curr[j]
					aStart = i - length
					bStart = j - length
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return aStart, bStart, length
}

// mostSimilar returns whichever candidate has the highest similarityRatio
// against name, case-insensitively; empty candidates yields "".
func mostSimilar(name string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	name = strings.ToLower(name)
	best := candidates[0]
	bestScore := similarityRatio(name, strings.ToLower(best))
	for _, c := range candidates[1:] {
		score := similarityRatio(name, strings.ToLower(c))
		if score > bestScore {
			best = c
			bestScore = score
		}
	}
	return best
}
