// Package config loads process settings: defaults, then a .env file, then
// PRINTSSISTANT_* environment variables, then explicit overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"printssistant/internal/core"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "PRINTSSISTANT_"

const dotEnvDepth = 5

// Config is the process configuration.
type Config struct {
	Addr          string       `koanf:"addr" validate:"required"`
	ConfigDir     string       `koanf:"config_dir" validate:"required"`
	MappingPath   string       `koanf:"mapping_path"`
	ChecklistPath string       `koanf:"checklist_path"`
	ModelPath     string       `koanf:"model_path"`
	OutputDir     string       `koanf:"output_dir" validate:"required"`
	Log           LogConfig    `koanf:"log"`
	Router        RouterConfig `koanf:"router"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error disabled"`
	JSON  bool   `koanf:"json"`
}

// RouterConfig mirrors core.RouterConfig thresholds.
type RouterConfig struct {
	FoldMinLongEdgeIn     float64 `koanf:"fold_min_long_edge_in" validate:"gte=0"`
	WideMinLongEdgeIn     float64 `koanf:"wide_min_long_edge_in" validate:"gte=0"`
	WideMachineMinWidthIn float64 `koanf:"wide_machine_min_width_in" validate:"gte=0"`
	StrictMachineGate     bool    `koanf:"strict_machine_gate"`
	MLMinConfidence       float64 `koanf:"ml_min_confidence" validate:"gte=0,lte=1"`
}

// Default returns the built-in configuration.
func Default() *Config {
	rc := core.DefaultRouterConfig()
	return &Config{
		Addr:      ":8080",
		ConfigDir: "config",
		OutputDir: "out",
		Log:       LogConfig{Level: "info"},
		Router: RouterConfig{
			FoldMinLongEdgeIn:     rc.FoldMinLongEdgeIn,
			WideMinLongEdgeIn:     rc.WideMinLongEdgeIn,
			WideMachineMinWidthIn: rc.WideMachineMinWidthIn,
			StrictMachineGate:     rc.StrictMachineGate,
			MLMinConfidence:       rc.MLMinConfidence,
		},
	}
}

// Load builds the configuration. overrides are koanf paths such as
// "log.level" and win over everything else.
func Load(overrides map[string]any) (*Config, error) {
	LoadDotEnv()

	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	envToPath := make(map[string]string)
	for _, key := range k.Keys() {
		envToPath[EnvKey(key)] = key
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			if path, ok := envToPath[key]; ok {
				return path, value
			}
			if path, ok := envToPath[EnvPrefix+key]; ok {
				return path, value
			}
			return "", nil
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	for key, value := range overrides {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("failed to apply override %s: %w", key, err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.MappingPath == "" {
		cfg.MappingPath = filepath.Join(cfg.ConfigDir, "xml_map.yml")
	}
	if cfg.ChecklistPath == "" {
		cfg.ChecklistPath = filepath.Join(cfg.ConfigDir, "checklists.yml")
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// EnvKey returns the environment variable for a koanf path.
func EnvKey(path string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(path, ".", "_"))
}

// RouterConfig converts the thresholds to a core router config.
func (c *Config) RouterConfig() core.RouterConfig {
	return core.RouterConfig{
		FoldMinLongEdgeIn:     c.Router.FoldMinLongEdgeIn,
		WideMinLongEdgeIn:     c.Router.WideMinLongEdgeIn,
		WideMachineMinWidthIn: c.Router.WideMachineMinWidthIn,
		StrictMachineGate:     c.Router.StrictMachineGate,
		MLMinConfidence:       c.Router.MLMinConfidence,
	}
}

// LoadDotEnv loads the nearest .env file from the working directory or up
// to four of its parents. Variables already set are not overwritten.
func LoadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for range dotEnvDepth {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
