// Copyright 2026 Quillnotes
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


package ai

import (
	"errors"
	"os"
	"strings"
)

// Config holds configuration for the embedding provider.
type Config struct {
	// Host is the base URL for the embedding service API.
	// Example: "https://api.openai.com/v1", or
	// "http://localhost:11434/v1" for a local OpenAI-compatible server.
	Host string

	// Model is the model identifier to use for text embeddings.
	// Example: "text-embedding-3-small", "embeddinggemma"
	Model string

	// APIKey is the credential for the embedding service. Local
	// OpenAI-compatible servers that skip authentication still need a
	// placeholder value here; an empty key means the semantic search path
	// is unavailable.
	APIKey string
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the embedding service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithModel sets the embedding model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) {
		c.Model = model
	}
}

// WithAPIKey sets the embedding service credential.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// DefaultConfig returns a Config with defaults for the OpenAI embeddings
// API. The credential is read from the OPENAI_API_KEY environment variable
// and may be absent; the capability then reports unavailable.
func DefaultConfig() *Config {
	return &Config{
		Host:   "https://api.openai.com/v1",
		Model:  "text-embedding-3-small",
		APIKey: os.Getenv("OPENAI_API_KEY"),
	}
}

// NewConfig creates a Config with the default values and applies the
// provided options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Available reports whether the embedding capability can be attempted at
// all. It is a pure predicate on configuration state and performs no I/O.
func (c *Config) Available() bool {
	return c != nil && c.APIKey != ""
}

// Normalize ensures the configuration is in a canonical form. It adds the
// /v1 suffix to the host if missing, which is required by most
// OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/")
		c.Host = c.Host + "/v1"
	}
}

// Validate checks that the configuration is complete enough to construct a
// provider. It normalizes the configuration first.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	if c.Model == "" {
		return errors.New("ai config: Model is required")
	}
	if c.APIKey == "" {
		return ErrNotConfigured
	}
	return nil
}
