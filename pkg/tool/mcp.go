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
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// MCPConfig configures a connection to an MCP (Model Context Protocol)
// server exposing tools over stdio. Remote tools subclass the uniform Tool
// abstraction per spec §4.B; forward performs the round trip to the
// server process.
type MCPConfig struct {
	Name    string
	Command string
	Args    []string
	Env     map[string]string
}

// MCPSource lazily connects to one MCP server and exposes its tools as
// Registry-ready Factory entries, so the connection (and the subprocess it
// spawns) is only paid for tools actually used.
type MCPSource struct {
	cfg MCPConfig

	mu        sync.Mutex
	client    *client.Client
	connected bool
}

// NewMCPSource builds a source for cfg. Connection happens lazily on the
// first DiscoverTools or Forward call.
func NewMCPSource(cfg MCPConfig) *MCPSource {
	return &MCPSource{cfg: cfg}
}

func (s *MCPSource) connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.connected {
		return nil
	}

	c, err := client.NewStdioMCPClient(s.cfg.Command, s.envPairs(), s.cfg.Args...)
	if err != nil {
		return fmt.Errorf("mcp source %q: create client: %w", s.cfg.Name, err)
	}
	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("mcp source %q: start: %w", s.cfg.Name, err)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{Name: "tcoagent", Version: "0.1.0"}
	initReq.Params.ProtocolVersion = "2024-11-05"
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return fmt.Errorf("mcp source %q: initialize: %w", s.cfg.Name, err)
	}

	s.client = c
	s.connected = true
	return nil
}

func (s *MCPSource) envPairs() []string {
	out := make([]string, 0, len(s.cfg.Env))
	for k, v := range s.cfg.Env {
		out = append(out, k+"="+v)
	}
	return out
}

// DiscoverTools connects (if needed) and lists the server's tools,
// returning one Factory per discovered tool suitable for
// Registry.RegisterFactory — each factory is cheap (it just closes over
// already-established connection state) so discovery does not itself
// force any tool's "loaded" state.
func (s *MCPSource) DiscoverTools(ctx context.Context) (map[string]Factory, error) {
	if err := s.connect(ctx); err != nil {
		return nil, err
	}
	resp, err := s.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("mcp source %q: list tools: %w", s.cfg.Name, err)
	}

	factories := make(map[string]Factory, len(resp.Tools))
	for _, mt := range resp.Tools {
		mt := mt
		name := s.cfg.Name + "." + mt.Name
		factories[name] = func() (Tool, error) {
			return &mcpTool{
				source: s,
				name:   name,
				remote: mt.Name,
				desc:   mt.Description,
				schema: convertMCPSchema(mt.InputSchema),
			}, nil
		}
	}
	return factories, nil
}

// mcpTool is one tool exposed by an MCP server, dispatched over the
// source's shared stdio connection.
type mcpTool struct {
	source *MCPSource
	name   string
	remote string
	desc   string
	schema []Param
}

func (t *mcpTool) Name() string         { return t.name }
func (t *mcpTool) Description() string  { return t.desc }
func (t *mcpTool) InputSchema() []Param { return t.schema }
func (t *mcpTool) OutputType() string   { return "map" }
func (t *mcpTool) Readonly() bool       { return false }
func (t *mcpTool) Category() string     { return "mcp:" + t.source.cfg.Name }

func (t *mcpTool) ForwardAsync(ctx context.Context, kwargs map[string]interface{}) (interface{}, error) {
	if err := t.source.connect(ctx); err != nil {
		return nil, err
	}
	req := mcp.CallToolRequest{}
	req.Params.Name = t.remote
	req.Params.Arguments = kwargs

	resp, err := t.source.client.CallTool(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("mcp tool %q: call failed: %w", t.name, err)
	}
	return parseMCPResult(resp)
}

func parseMCPResult(resp *mcp.CallToolResult) (interface{}, error) {
	var texts []string
	for _, c := range resp.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			texts = append(texts, tc.Text)
		}
	}
	if resp.IsError {
		msg := "unknown error"
		if len(texts) > 0 {
			msg = texts[0]
		}
		return nil, fmt.Errorf("mcp tool error: %s", msg)
	}
	switch len(texts) {
	case 0:
		return map[string]interface{}{}, nil
	case 1:
		return texts[0], nil
	default:
		out := make([]interface{}, len(texts))
		for i, t := range texts {
			out[i] = t
		}
		return out, nil
	}
}

func convertMCPSchema(schema mcp.ToolInputSchema) []Param {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil
	}
	var raw struct {
		Properties map[string]struct {
			Type        string `json:"type"`
			Description string `json:"description"`
		} `json:"properties"`
		Required []string `json:"required"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	required := make(map[string]bool, len(raw.Required))
	for _, r := range raw.Required {
		required[r] = true
	}
	out := make([]Param, 0, len(raw.Properties))
	for name, prop := range raw.Properties {
		out = append(out, Param{
			Name:        name,
			Type:        prop.Type,
			Description: prop.Description,
			Required:    required[name],
		})
	}
	return out
}
