package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// ExpandEnv expands environment variables in config content. Supports
// ${VAR:-default} and ${VAR} syntax, used when loading both the daemon
// config and the apps configuration tree.
func ExpandEnv(content string) string {
	pattern := regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

	return pattern.ReplaceAllStringFunc(content, func(match string) string {
		parts := pattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}

		return defaultValue
	})
}

// LoadDaemonConfigWithEnvExpansion reads the daemon config file, expands
// ${VAR} references against the process environment, then parses the
// result. `appsupervisord check-config` and `serve` do not call it: they
// load their config through LoadDaemonConfig, which does no expansion.
func LoadDaemonConfigWithEnvExpansion(path string) (*DaemonConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read daemon config: %w", err)
	}

	expanded := ExpandEnv(string(raw))

	cfg := &DaemonConfig{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse daemon config: %w", err)
	}

	cfg.SetDefaults()
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid daemon configuration: %w", err)
	}

	return cfg, nil
}

// LoadAppsTreeWithEnvExpansion reads the apps configuration document,
// expands ${VAR} references, and parses it into a config.Tree.
func LoadAppsTreeWithEnvExpansion(path string) (*Tree, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read apps config: %w", err)
	}
	expanded := ExpandEnv(string(raw))
	return LoadBytes([]byte(expanded))
}
