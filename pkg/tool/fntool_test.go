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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFnTool_ForwardAndFluentSetters(t *testing.T) {
	ft := NewFnTool("greet", "says hello", nil,
		func(ctx context.Context, kwargs map[string]interface{}) (interface{}, error) {
			return "hello " + kwargs["name"].(string), nil
		}).SetReadonly(true).SetCategory("demo")

	assert.True(t, ft.Readonly())
	assert.Equal(t, "demo", ft.Category())

	out, err := ft.Forward(context.Background(), map[string]interface{}{"name": "ada"})
	require.NoError(t, err)
	assert.Equal(t, "hello ada", out)
}

func TestAsyncFnTool_ForwardAsync(t *testing.T) {
	aft := NewAsyncFnTool("double", "doubles a number", nil,
		func(ctx context.Context, kwargs map[string]interface{}) (interface{}, error) {
			n := kwargs["n"].(int64)
			return n * 2, nil
		})

	out, err := aft.ForwardAsync(context.Background(), map[string]interface{}{"n": int64(21)})
	require.NoError(t, err)
	assert.Equal(t, int64(42), out)
}

type weatherArgs struct {
	City string `json:"city" jsonschema:"required,description=City name"`
	Unit string `json:"unit,omitempty" jsonschema:"enum=celsius,enum=fahrenheit"`
}

func TestSchemaFromStruct(t *testing.T) {
	params := SchemaFromStruct(weatherArgs{})
	require.NotEmpty(t, params)

	byName := make(map[string]Param, len(params))
	for _, p := range params {
		byName[p.Name] = p
	}

	city, ok := byName["city"]
	require.True(t, ok)
	assert.True(t, city.Required)
	assert.Equal(t, "City name", city.Description)

	unit, ok := byName["unit"]
	require.True(t, ok)
	assert.False(t, unit.Required)
}
