// Package config loads service configuration from an optional YAML file and
// AGORA_-prefixed environment variables, env taking precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/agoralabs/agora/internal/evaluation"
)

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	OpenAI     OpenAIConfig     `koanf:"openai"`
	Storage    StorageConfig    `koanf:"storage"`
	Chat       ChatConfig       `koanf:"chat"`
	Evaluation EvaluationConfig `koanf:"evaluation"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
	// RequestTimeout bounds CRUD requests; duration string like "30s".
	RequestTimeout string `koanf:"request_timeout"`
	// StreamTimeout bounds the streaming chat route; duration string like "5m".
	StreamTimeout string `koanf:"stream_timeout"`
}

type OpenAIConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

type StorageConfig struct {
	Path string `koanf:"path"`
}

type ChatConfig struct {
	DefaultModel string `koanf:"default_model"`
}

type EvaluationConfig struct {
	Model    string                 `koanf:"model"`
	Criteria []evaluation.Criterion `koanf:"criteria"`
}

// RequestTimeoutDuration parses the request timeout, defaulting to 30s.
func (c ServerConfig) RequestTimeoutDuration() time.Duration {
	return parseDuration(c.RequestTimeout, 30*time.Second)
}

// StreamTimeoutDuration parses the stream timeout, defaulting to 5m.
func (c ServerConfig) StreamTimeoutDuration() time.Duration {
	return parseDuration(c.StreamTimeout, 5*time.Minute)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// Load reads configuration from configPath (skipped when missing) and the
// environment.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	// Environment variables override the file. Double underscores separate
	// nesting levels so key names keep their single underscores:
	// AGORA_SERVER__PORT -> server.port, AGORA_OPENAI__API_KEY -> openai.api_key
	if err := k.Load(env.Provider("AGORA_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "AGORA_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("storage.path") {
		k.Set("storage.path", "./data/agora.db")
	}
	if !k.Exists("chat.default_model") {
		k.Set("chat.default_model", "gpt-5.1")
	}
	if !k.Exists("evaluation.model") {
		k.Set("evaluation.model", k.String("chat.default_model"))
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
