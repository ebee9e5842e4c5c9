package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DaemonConfigEnv names the environment variable that overrides the daemon
// config path, distinct from DefaultConfigEnv which names the apps tree.
const DaemonConfigEnv = "APPSUPERVISOR_DAEMON_CONFIG"

// LoadDaemonConfig loads daemon configuration from YAML file and environment
// variables. Priority: environment variables > YAML file > defaults.
func LoadDaemonConfig() (*DaemonConfig, error) {
	configPath := os.Getenv(DaemonConfigEnv)
	if configPath == "" {
		configPath = "/etc/appsupervisor/appsupervisor.yaml"
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "appsupervisor.yaml"
		}
	}

	cfg := &DaemonConfig{}

	if _, err := os.Stat(configPath); err == nil {
		if err := loadDaemonYAML(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to load daemon config: %w", err)
		}
	} else {
		fmt.Fprintf(os.Stderr, "no daemon config file found, using defaults and environment variables\n")
	}

	cfg.SetDefaults()
	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid daemon configuration: %w", err)
	}

	return cfg, nil
}

func loadDaemonYAML(path string, cfg *DaemonConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides applies environment variable overrides. Environment
// variables follow the pattern APPSUPERVISOR_<SECTION>_<KEY>.
func applyEnvOverrides(cfg *DaemonConfig) {
	if v := os.Getenv("APPSUPERVISOR_APPS_CONFIG_PATH"); v != "" {
		cfg.AppsConfigPath = v
	}
	if v := os.Getenv("APPSUPERVISOR_APPS_INSTALL_DIR"); v != "" {
		cfg.AppsInstallDir = v
	}
	if v := os.Getenv("APPSUPERVISOR_REBOOT_FAULT_RECORD_PATH"); v != "" {
		cfg.RebootFaultRecordPath = v
	}
	if v := os.Getenv("APPSUPERVISOR_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("APPSUPERVISOR_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("APPSUPERVISOR_METRICS_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil {
			cfg.Metrics.Port = port
		}
	}
	if v := os.Getenv("APPSUPERVISOR_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = v == "true"
	}
	if v := os.Getenv("APPSUPERVISOR_TRACING_ENABLED"); v != "" {
		cfg.Tracing.Enabled = v == "true"
	}
	if v := os.Getenv("APPSUPERVISOR_TRACING_EXPORTER"); v != "" {
		cfg.Tracing.Exporter = v
	}
	if v := os.Getenv("APPSUPERVISOR_AUDIT_ENABLED"); v != "" {
		cfg.Audit.Enabled = v == "true"
	}
}

// Validate validates the daemon configuration.
func (c *DaemonConfig) Validate() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}
	if c.RebootQuiescenceSeconds <= 0 {
		return fmt.Errorf("reboot_quiescence_seconds must be positive")
	}
	if c.SoftKillTimeoutMillis <= 0 {
		return fmt.Errorf("soft_kill_timeout_millis must be positive")
	}
	if c.Metrics.Enabled && c.Metrics.Port <= 0 {
		return fmt.Errorf("metrics_port must be positive when metrics are enabled")
	}
	return nil
}
