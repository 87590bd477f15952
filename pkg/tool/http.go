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
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kadirpekel/tcoagent/pkg/httpclient"
)

// HTTPConfig configures the http_request tool.
type HTTPConfig struct {
	Timeout        time.Duration
	MaxRetries     int
	MaxRequestSize int64
	AllowedMethods []string
	UserAgent      string
}

// DefaultHTTPConfig matches the conservative defaults of spec §4.B's
// remote-tool category: short timeout, bounded retries, GET/POST/PUT/
// DELETE/PATCH only.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Timeout:        30 * time.Second,
		MaxRetries:     3,
		MaxRequestSize: 1 << 20,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH"},
		UserAgent:      "tcoagent/0.1",
	}
}

// HTTPTool is a remote tool whose forward performs a plain HTTP round
// trip, per spec §4.B ("remote tools (MCP, HTTP) subclass the
// abstraction; their forward_async performs the network round-trip").
type HTTPTool struct {
	cfg    HTTPConfig
	client *httpclient.Client
}

// NewHTTPTool builds the generic http_request tool. A nil cfg uses
// DefaultHTTPConfig.
func NewHTTPTool(cfg *HTTPConfig) *HTTPTool {
	c := DefaultHTTPConfig()
	if cfg != nil {
		c = *cfg
	}
	hc := httpclient.New(
		httpclient.WithHTTPClient(&http.Client{Timeout: c.Timeout}),
		httpclient.WithMaxRetries(c.MaxRetries),
	)
	return &HTTPTool{cfg: c, client: hc}
}

func (t *HTTPTool) Name() string        { return "http_request" }
func (t *HTTPTool) Description() string { return "Make an HTTP request to an external URL." }
func (t *HTTPTool) OutputType() string  { return "map" }
func (t *HTTPTool) Readonly() bool      { return false }
func (t *HTTPTool) Category() string    { return "network" }

func (t *HTTPTool) InputSchema() []Param {
	return []Param{
		{Name: "url", Type: "string", Required: true, Description: "Target URL."},
		{Name: "method", Type: "string", Default: "GET", Enum: t.cfg.AllowedMethods},
		{Name: "headers", Type: "map", Description: "Request headers."},
		{Name: "body", Type: "string", Description: "Request body for POST/PUT/PATCH."},
	}
}

func (t *HTTPTool) allowedMethod(m string) bool {
	for _, a := range t.cfg.AllowedMethods {
		if strings.EqualFold(a, m) {
			return true
		}
	}
	return false
}

func (t *HTTPTool) ForwardAsync(ctx context.Context, kwargs map[string]interface{}) (interface{}, error) {
	url, _ := kwargs["url"].(string)
	if url == "" {
		return nil, fmt.Errorf("http_request requires a non-empty url")
	}
	method := strings.ToUpper(stringOr(kwargs["method"], "GET"))
	if !t.allowedMethod(method) {
		return nil, fmt.Errorf("http_request: method %q is not allowed", method)
	}
	body, _ := kwargs["body"].(string)
	if int64(len(body)) > t.cfg.MaxRequestSize {
		return nil, fmt.Errorf("http_request: body too large (%d bytes, max %d)", len(body), t.cfg.MaxRequestSize)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("http_request: %w", err)
	}
	req.Header.Set("User-Agent", t.cfg.UserAgent)
	if headers, ok := kwargs["headers"].(map[string]interface{}); ok {
		for k, v := range headers {
			if s, ok := v.(string); ok {
				req.Header.Set(k, s)
			}
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http_request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("http_request: reading response: %w", err)
	}

	return map[string]interface{}{
		"status_code": resp.StatusCode,
		"headers":     flattenHeader(resp.Header),
		"body":        string(data),
	}, nil
}

func flattenHeader(h http.Header) map[string]interface{} {
	out := make(map[string]interface{}, len(h))
	for k, v := range h {
		out[k] = strings.Join(v, ", ")
	}
	return out
}
