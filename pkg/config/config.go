// Package config loads application configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

type VoiceConfig struct {
	Model        string `yaml:"model"`
	VoiceName    string `yaml:"voice_name"`
	Endpoint     string `yaml:"endpoint"`
	SystemPrompt string `yaml:"system_prompt"`
}

type ChatConfig struct {
	Model string `yaml:"model"`
}

type KnowledgeConfig struct {
	StorePath string `yaml:"store_path"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type Config struct {
	APIKey    string          `yaml:"api_key"`
	Voice     VoiceConfig     `yaml:"voice"`
	Chat      ChatConfig      `yaml:"chat"`
	Knowledge KnowledgeConfig `yaml:"knowledge"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Voice: VoiceConfig{
			Model:        "models/gemini-2.5-flash-native-audio-preview-12-2025",
			VoiceName:    "Puck",
			SystemPrompt: "You are a helpful voice assistant. Keep spoken answers short.",
		},
		Chat: ChatConfig{
			Model: "models/gemini-2.5-flash",
		},
		Knowledge: KnowledgeConfig{
			StorePath: "./data/parley.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Pretty: true,
		},
	}
}

// Load reads configuration from path, falling back to defaults when path is
// empty, then applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	overrideString(&cfg.APIKey, "GEMINI_API_KEY")
	overrideString(&cfg.APIKey, "PARLEY_API_KEY")
	overrideString(&cfg.Voice.Model, "PARLEY_VOICE_MODEL")
	overrideString(&cfg.Voice.VoiceName, "PARLEY_VOICE_NAME")
	overrideString(&cfg.Voice.Endpoint, "PARLEY_VOICE_ENDPOINT")
	overrideString(&cfg.Chat.Model, "PARLEY_CHAT_MODEL")
	overrideString(&cfg.Knowledge.StorePath, "PARLEY_STORE_PATH")
	overrideString(&cfg.Logging.Level, "PARLEY_LOG_LEVEL")
}

func overrideString(target *string, envKey string) {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		*target = value
	}
}

func validate(cfg Config) error {
	if cfg.Voice.Model == "" {
		return errors.New("voice.model must not be empty")
	}
	if cfg.Chat.Model == "" {
		return errors.New("chat.model must not be empty")
	}
	if cfg.Knowledge.StorePath == "" {
		return errors.New("knowledge.store_path must not be empty")
	}
	switch cfg.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return errors.New("logging.level must be one of trace|debug|info|warn|error")
	}
	return nil
}
