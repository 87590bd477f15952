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

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChecker always returns a fixed verdict, recording whether it ran.
type fakeChecker struct {
	name    string
	desc    string
	verdict bool
	ran     bool
}

func (c *fakeChecker) Name() string        { return c.name }
func (c *fakeChecker) Description() string { return c.desc }
func (c *fakeChecker) Check(ctx context.Context, task, answer string) (bool, error) {
	c.ran = true
	return c.verdict, nil
}

func TestCheckRouter_SingleCheckerSkipsRouting(t *testing.T) {
	check := &fakeChecker{name: "check", verdict: true}
	r := NewCheckRouter(&fakeLLM{err: errors.New("should not be called")}, check)
	ok, err := r.Execute(context.Background(), "task", "answer")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, check.ran)
}

func TestCheckRouter_RoutesByExactName(t *testing.T) {
	check := &fakeChecker{name: "check", verdict: false}
	test := &fakeChecker{name: "test", verdict: true}
	r := NewCheckRouter(&fakeLLM{content: `{"name": "test", "reason": "it's a unit test answer"}`}, check, test)
	ok, err := r.Execute(context.Background(), "task", "answer")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, test.ran)
	assert.False(t, check.ran)
}

func TestCheckRouter_CorrectsMisspelledName(t *testing.T) {
	check := &fakeChecker{name: "check", verdict: false}
	doctest := &fakeChecker{name: "doctest", verdict: true}
	r := NewCheckRouter(&fakeLLM{content: `{"name": "doctets", "reason": "typo'd by the model"}`}, check, doctest)
	ok, err := r.Execute(context.Background(), "task", "answer")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, doctest.ran)
}

func TestCheckRouter_FallsBackToDefaultOnLLMError(t *testing.T) {
	check := &fakeChecker{name: "check", verdict: true}
	test := &fakeChecker{name: "test", verdict: false}
	r := NewCheckRouter(&fakeLLM{err: errors.New("connection reset")}, check, test)
	ok, err := r.Execute(context.Background(), "task", "answer")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, check.ran)
}

func TestCheckRouter_AsVerifierDelegatesToExecute(t *testing.T) {
	check := &fakeChecker{name: "check", verdict: true}
	r := NewCheckRouter(&fakeLLM{}, check)
	v := r.AsVerifier()
	ok, err := v.Verify(context.Background(), "task", "answer")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckRouter_NoCheckersErrors(t *testing.T) {
	r := NewCheckRouter(&fakeLLM{})
	_, err := r.Execute(context.Background(), "task", "answer")
	assert.Error(t, err)
}
