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

package config

import "fmt"

// ServerConfig configures the optional SSE streaming HTTP server that
// exposes the agent's single run loop over the network instead of (or
// alongside) the interactive CLI.
type ServerConfig struct {
	// Enabled turns the server on. Defaults to false: most invocations
	// of the CLI drive the loop directly without an HTTP listener.
	Enabled bool `yaml:"enabled,omitempty"`
	// Host to bind to.
	Host string `yaml:"host,omitempty"`
	// Port to listen on.
	Port int `yaml:"port,omitempty"`
}

// SetDefaults fills in the loopback address and the default port.
func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 8070
	}
}

// Validate rejects a port outside the valid TCP range.
func (c *ServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 0 and 65535, got %d", c.Port)
	}
	return nil
}

// Address returns the host:port pair net.Listen expects.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
