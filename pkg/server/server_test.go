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

package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_HealthEndpoint(t *testing.T) {
	s := New(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_RunRejectsEmptyTask(t *testing.T) {
	s := New(nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/run", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_MetricsEndpointAbsentWithoutObservability(t *testing.T) {
	s := New(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWriteSSE_FormatsEventAndJSONData(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSSE(rec, "thinking", sseEvent{Type: "thinking", Content: "hi"})

	body := rec.Body.String()
	assert.Contains(t, body, "event: thinking\n")
	assert.Contains(t, body, `"content":"hi"`)
}

func TestWriteSSE_NilPayloadWritesEmptyObject(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSSE(rec, "done", nil)

	assert.Equal(t, "event: done\ndata: {}\n\n", rec.Body.String())
}

func TestRoutePattern_FallsBackToRawPathWithoutChiContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/unmatched/path", nil)
	require.Equal(t, "/unmatched/path", routePattern(req))
}
