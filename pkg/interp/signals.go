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

package interp

import (
	"fmt"

	"github.com/kadirpekel/tcoagent/pkg/value"
)

// Control-flow is threaded through the evaluator as error values rather
// than panic/recover, so a statement's caller always has an explicit
// chance to intercept break/continue/return/raise at the right block
// boundary (loop, function body, try statement).

type breakSignal struct{}

func (breakSignal) Error() string { return "break outside loop" }

type continueSignal struct{}

func (continueSignal) Error() string { return "continue outside loop" }

type returnSignal struct{ Value value.Value }

func (returnSignal) Error() string { return "return outside function" }

// finalAnswerSignal unwinds the entire evaluation: final_answer() is the
// one builtin that ends a Thought/Code/Observation step outright rather
// than just producing a value.
type finalAnswerSignal struct{ Value value.Value }

func (finalAnswerSignal) Error() string { return "final_answer outside step" }

// raisedException wraps a *value.Exception as a Go error so it can
// propagate through normal error returns and be matched by except
// clauses by ExcKind.
type raisedException struct{ Exc *value.Exception }

func (r raisedException) Error() string { return r.Exc.Error() }

func raise(kind, msg string) error {
	return raisedException{Exc: &value.Exception{ExcKind: kind, Msg: msg}}
}

func raisef(kind, format string, args ...interface{}) error {
	return raisedException{Exc: &value.Exception{ExcKind: kind, Msg: fmt.Sprintf(format, args...)}}
}
