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

package hook

import "testing"

func TestPatterns_Matches(t *testing.T) {
	cases := []struct {
		patterns Patterns
		name     string
		want     bool
	}{
		{Patterns{"*"}, "anything", true},
		{Patterns{"bash"}, "bash", true},
		{Patterns{"bash"}, "file_read", false},
		{Patterns{"file_*"}, "file_read", true},
		{Patterns{"file_*"}, "file_write", true},
		{Patterns{"file_*"}, "bash", false},
		{Patterns{"bash", "file_*"}, "file_write", true},
	}
	for _, c := range cases {
		if got := c.patterns.Matches(c.name); got != c.want {
			t.Errorf("Patterns(%v).Matches(%q) = %v, want %v", c.patterns, c.name, got, c.want)
		}
	}
}

func TestPredicate_Matches(t *testing.T) {
	p := Predicate(func(name string) bool { return name == "special" })
	if !p.Matches("special") {
		t.Error("expected predicate to match")
	}
	if p.Matches("other") {
		t.Error("expected predicate not to match")
	}
}

func TestDenialText(t *testing.T) {
	if got := denialText(PreResult{Message: "nope"}); got != "nope" {
		t.Errorf("got %q", got)
	}
	if got := denialText(PreResult{Reason: "writes disabled"}); got != "permission denied: writes disabled" {
		t.Errorf("got %q", got)
	}
	if got := denialText(PreResult{}); got != "permission denied" {
		t.Errorf("got %q", got)
	}
}
