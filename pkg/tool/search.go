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

package tool

import (
	"context"
	"math"
	"regexp"
	"sort"
	"strings"
)

// Strategy names one of the three ranking strategies spec §4.B requires
// from a tool-search tool over a registry with many tools.
type Strategy string

const (
	StrategyKeyword Strategy = "keyword"
	StrategyRegex   Strategy = "regex"
	StrategyBM25    Strategy = "bm25"
)

// SearchTool ranks registered tools against a free-text query, for
// registries large enough that enumerating every tool in the system
// message would blow the context budget.
type SearchTool struct {
	reg          *Registry
	defaultLimit int
}

// NewSearchTool builds the tool-search tool bound to reg.
func NewSearchTool(reg *Registry) *SearchTool {
	return &SearchTool{reg: reg, defaultLimit: 10}
}

func (t *SearchTool) Name() string        { return "search_tools" }
func (t *SearchTool) Description() string { return "Search the tool registry by keyword, regex, or relevance (BM25)." }
func (t *SearchTool) OutputType() string  { return "list" }
func (t *SearchTool) Readonly() bool      { return true }
func (t *SearchTool) Category() string    { return "meta" }

func (t *SearchTool) InputSchema() []Param {
	return []Param{
		{Name: "query", Type: "string", Required: true},
		{Name: "strategy", Type: "string", Enum: []string{"keyword", "regex", "bm25"}, Default: "keyword"},
		{Name: "limit", Type: "int", Default: t.defaultLimit},
	}
}

func (t *SearchTool) Forward(ctx context.Context, kwargs map[string]interface{}) (interface{}, error) {
	query, _ := kwargs["query"].(string)
	strategy := Strategy(stringOr(kwargs["strategy"], string(StrategyKeyword)))
	limit := intOr(kwargs["limit"], t.defaultLimit)

	infos := t.reg.ListTools()
	var ranked []scored
	switch strategy {
	case StrategyRegex:
		ranked = scoreRegex(infos, query)
	case StrategyBM25:
		if r, ok := scoreBM25(infos, query); ok {
			ranked = r
		} else {
			ranked = scoreKeyword(infos, query)
		}
	default:
		ranked = scoreKeyword(infos, query)
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	out := make([]interface{}, 0, len(ranked))
	for _, r := range ranked {
		out = append(out, map[string]interface{}{
			"name":        r.info.Name,
			"description": r.info.Description,
			"category":    r.info.Category,
			"score":       r.score,
		})
	}
	return out, nil
}

type scored struct {
	info  Info
	score float64
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

// scoreKeyword implements spec §4.B's keyword strategy: 2×(tokens in name)
// + (tokens in description).
func scoreKeyword(infos []Info, query string) []scored {
	qTokens := tokenize(query)
	out := make([]scored, 0, len(infos))
	for _, info := range infos {
		nameTokens := tokenSet(tokenize(info.Name))
		descTokens := tokenSet(tokenize(info.Description))
		var score float64
		for _, qt := range qTokens {
			if nameTokens[qt] {
				score += 2
			}
			if descTokens[qt] {
				score++
			}
		}
		if score > 0 {
			out = append(out, scored{info: info, score: score})
		}
	}
	return out
}

func tokenSet(tokens []string) map[string]bool {
	m := make(map[string]bool, len(tokens))
	for _, tk := range tokens {
		m[tk] = true
	}
	return m
}

// scoreRegex implements spec §4.B's regex strategy: score 2 for a name
// match, 1 for a description match, falling back to a literal substring
// match if the query fails to compile as a pattern.
func scoreRegex(infos []Info, query string) []scored {
	re, err := regexp.Compile(query)
	matches := func(s string) bool {
		if err == nil {
			return re.MatchString(s)
		}
		return strings.Contains(strings.ToLower(s), strings.ToLower(query))
	}

	out := make([]scored, 0, len(infos))
	for _, info := range infos {
		var score float64
		if matches(info.Name) {
			score += 2
		}
		if matches(info.Description) {
			score++
		}
		if score > 0 {
			out = append(out, scored{info: info, score: score})
		}
	}
	return out
}

// scoreBM25 implements Okapi BM25 over name+description as the corpus. ok
// is false when the registry is empty, signaling the caller to fall back
// to keyword scoring (spec §4.B: "if the BM25 implementation is
// available... otherwise fall back to keyword").
func scoreBM25(infos []Info, query string) ([]scored, bool) {
	if len(infos) == 0 {
		return nil, false
	}
	const k1 = 1.2
	const b = 0.75

	docs := make([][]string, len(infos))
	avgLen := 0.0
	df := map[string]int{}
	for i, info := range infos {
		docs[i] = tokenize(info.Name + " " + info.Description)
		avgLen += float64(len(docs[i]))
		for tk := range tokenSet(docs[i]) {
			df[tk]++
		}
	}
	avgLen /= float64(len(infos))

	qTokens := tokenize(query)
	out := make([]scored, 0, len(infos))
	n := float64(len(infos))
	for i, info := range infos {
		tf := map[string]int{}
		for _, tk := range docs[i] {
			tf[tk]++
		}
		dl := float64(len(docs[i]))
		var score float64
		for _, qt := range qTokens {
			f := float64(tf[qt])
			if f == 0 {
				continue
			}
			idf := math.Log(1 + (n-float64(df[qt])+0.5)/(float64(df[qt])+0.5))
			score += idf * (f * (k1 + 1)) / (f + k1*(1-b+b*dl/avgLen))
		}
		if score > 0 {
			out = append(out, scored{info: info, score: score})
		}
	}
	return out, true
}

func stringOr(v interface{}, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return def
}

func intOr(v interface{}, def int) int {
	switch c := v.(type) {
	case int:
		return c
	case int64:
		return int(c)
	case float64:
		return int(c)
	}
	return def
}
