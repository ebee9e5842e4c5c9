package config

// DaemonConfig holds the supervisor daemon's own ambient settings — logging,
// metrics, tracing, audit, and the handful of well-known paths and timing
// constants the supervisor core's collaborators read at startup. It is
// distinct from the per-app configuration Tree (tree.go): this is the
// daemon's own bootstrap configuration, not the hierarchical app/proc store
// the supervisor core consumes as a read transaction.
type DaemonConfig struct {
	Version string `yaml:"version" json:"version"`

	// AppsConfigPath points at the YAML document describing the apps/procs
	// tree loaded into a config.Tree at startup.
	AppsConfigPath string `yaml:"apps_config_path" json:"apps_config_path"`

	// AppsInstallDir is APPS_INSTALL_DIR from the supervisor's external
	// interfaces section; overridable for testing.
	AppsInstallDir string `yaml:"apps_install_dir" json:"apps_install_dir"`

	// RebootFaultRecordPath is the persisted reboot-fault record's path.
	RebootFaultRecordPath string `yaml:"reboot_fault_record_path" json:"reboot_fault_record_path"`

	// RebootQuiescenceSeconds is read and defaulted but not passed to the
	// supervisor; its Bootstrap quiescence timer uses the fixed
	// supervisor.RebootQuiescenceInterval.
	RebootQuiescenceSeconds int `yaml:"reboot_quiescence_seconds" json:"reboot_quiescence_seconds"`

	// SoftKillTimeoutMillis is read and defaulted but not passed to the
	// supervisor; its soft-to-hard kill escalation uses the fixed
	// supervisor.SoftKillTimeout.
	SoftKillTimeoutMillis int `yaml:"soft_kill_timeout_millis" json:"soft_kill_timeout_millis"`

	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
	Audit   AuditConfig   `yaml:"audit" json:"audit"`
}

// MetricsConfig configures the prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool       `yaml:"enabled" json:"enabled"`
	Port    int        `yaml:"port" json:"port"`
	Path    string     `yaml:"path" json:"path"`
	ACL     *ACLConfig `yaml:"acl" json:"acl"`
	TLS     *TLSConfig `yaml:"tls" json:"tls"`
}

// ACLConfig gates access to the metrics endpoint by source IP, the way the
// framework binding model gates IPC connections by app identity.
type ACLConfig struct {
	Enabled    bool     `yaml:"enabled" json:"enabled"`
	Mode       string   `yaml:"mode" json:"mode"` // allow | deny
	AllowList  []string `yaml:"allow_list" json:"allow_list"`
	DenyList   []string `yaml:"deny_list" json:"deny_list"`
	TrustProxy bool     `yaml:"trust_proxy" json:"trust_proxy"`
}

// TLSConfig configures certificate-backed transport security for the
// metrics endpoint, with optional auto-reload of a rotated certificate.
type TLSConfig struct {
	Enabled            bool     `yaml:"enabled" json:"enabled"`
	CertFile           string   `yaml:"cert_file" json:"cert_file"`
	KeyFile            string   `yaml:"key_file" json:"key_file"`
	CAFile             string   `yaml:"ca_file" json:"ca_file"`
	MinVersion         string   `yaml:"min_version" json:"min_version"`
	ClientAuth         string   `yaml:"client_auth" json:"client_auth"`
	CipherSuites       []string `yaml:"cipher_suites" json:"cipher_suites"`
	AutoReload         bool     `yaml:"auto_reload" json:"auto_reload"`
	AutoReloadInterval int      `yaml:"auto_reload_interval" json:"auto_reload_interval"`
}

// TracingConfig configures the OpenTelemetry trace provider.
type TracingConfig struct {
	Enabled    bool    `yaml:"enabled" json:"enabled"`
	Exporter   string  `yaml:"exporter" json:"exporter"` // otlp-grpc | stdout
	Endpoint   string  `yaml:"endpoint" json:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" json:"sample_rate"`
	UseTLS     bool    `yaml:"use_tls" json:"use_tls"`
}

// AuditConfig configures the audit trail sink.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Path    string `yaml:"path" json:"path"`
}

// LoggingConfig configures the daemon's structured log output and the
// per-process log capture pipeline (redaction, multiline, JSON detection).
type LoggingConfig struct {
	Format         string                `yaml:"format" json:"format"` // json | text
	Level          string                `yaml:"level" json:"level"`
	Timestamps     bool                  `yaml:"timestamps" json:"timestamps"`
	MinLevel       string                `yaml:"min_level" json:"min_level"`
	Redaction      *RedactionConfig      `yaml:"redaction" json:"redaction"`
	Multiline      *MultilineConfig      `yaml:"multiline" json:"multiline"`
	JSON           *JSONConfig           `yaml:"json" json:"json"`
	LevelDetection *LevelDetectionConfig `yaml:"level_detection" json:"level_detection"`
	Filters        *FilterConfig         `yaml:"filters" json:"filters"`
}

// RedactionConfig configures sensitive data redaction for compliance.
type RedactionConfig struct {
	Enabled  bool               `yaml:"enabled" json:"enabled"`
	Patterns []RedactionPattern `yaml:"patterns" json:"patterns"`
}

// RedactionPattern defines a regex pattern for redacting sensitive data.
type RedactionPattern struct {
	Name        string `yaml:"name" json:"name"`
	Pattern     string `yaml:"pattern" json:"pattern"`
	Replacement string `yaml:"replacement" json:"replacement"`
}

// MultilineConfig configures multiline log handling (e.g. stack traces).
type MultilineConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Pattern  string `yaml:"pattern" json:"pattern"`
	MaxLines int    `yaml:"max_lines" json:"max_lines"`
	Timeout  int    `yaml:"timeout" json:"timeout"`
}

// JSONConfig configures JSON log parsing.
type JSONConfig struct {
	Enabled        bool `yaml:"enabled" json:"enabled"`
	DetectAuto     bool `yaml:"detect_auto" json:"detect_auto"`
	ExtractLevel   bool `yaml:"extract_level" json:"extract_level"`
	ExtractMessage bool `yaml:"extract_message" json:"extract_message"`
	MergeFields    bool `yaml:"merge_fields" json:"merge_fields"`
}

// LevelDetectionConfig configures log level detection from log content.
type LevelDetectionConfig struct {
	Enabled      bool              `yaml:"enabled" json:"enabled"`
	Patterns     map[string]string `yaml:"patterns" json:"patterns"`
	DefaultLevel string            `yaml:"default_level" json:"default_level"`
}

// FilterConfig configures log filtering.
type FilterConfig struct {
	Exclude []string `yaml:"exclude" json:"exclude"`
	Include []string `yaml:"include" json:"include"`
}

// SetDefaults fills in sensible defaults for anything the loaded document
// left zero-valued.
func (c *DaemonConfig) SetDefaults() {
	if c.Version == "" {
		c.Version = "1.0"
	}
	if c.AppsInstallDir == "" {
		c.AppsInstallDir = "/opt/legato/apps"
	}
	if c.RebootFaultRecordPath == "" {
		c.RebootFaultRecordPath = "/opt/legato/appRebootFault"
	}
	if c.RebootQuiescenceSeconds == 0 {
		c.RebootQuiescenceSeconds = 120
	}
	if c.SoftKillTimeoutMillis == 0 {
		c.SoftKillTimeoutMillis = 300
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	c.Logging.Timestamps = true
	if c.Logging.MinLevel == "" {
		c.Logging.MinLevel = "info"
	}
	if c.Logging.Multiline != nil {
		if c.Logging.Multiline.MaxLines == 0 {
			c.Logging.Multiline.MaxLines = 100
		}
		if c.Logging.Multiline.Timeout == 0 {
			c.Logging.Multiline.Timeout = 1
		}
	}
	if c.Logging.LevelDetection != nil && c.Logging.LevelDetection.DefaultLevel == "" {
		c.Logging.LevelDetection.DefaultLevel = "info"
	}
	c.Metrics.Enabled = true
	if c.Metrics.Port == 0 {
		c.Metrics.Port = 9090
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.Tracing.Exporter == "" {
		c.Tracing.Exporter = "stdout"
	}
	if c.Tracing.SampleRate == 0 {
		c.Tracing.SampleRate = 1.0
	}
	if c.Audit.Path == "" {
		c.Audit.Path = "/var/log/appsupervisor/audit.log"
	}
	if c.Metrics.ACL != nil && c.Metrics.ACL.Mode == "" {
		c.Metrics.ACL.Mode = "allow"
	}
	if c.Metrics.TLS != nil && c.Metrics.TLS.AutoReloadInterval == 0 {
		c.Metrics.TLS.AutoReloadInterval = 300
	}
}
