package config

import (
	"fmt"
	"os"
	"strings"
)

// ValidationSeverity represents the severity level of a validation issue.
type ValidationSeverity string

const (
	SeverityError      ValidationSeverity = "error"
	SeverityWarning    ValidationSeverity = "warning"
	SeveritySuggestion ValidationSeverity = "suggestion"
)

// ValidationIssue represents a single validation problem.
type ValidationIssue struct {
	Severity   ValidationSeverity
	Field      string
	Message    string
	Suggestion string
}

// ValidationResult contains all validation issues found.
type ValidationResult struct {
	Errors      []ValidationIssue
	Warnings    []ValidationIssue
	Suggestions []ValidationIssue
}

// NewValidationResult creates an empty validation result.
func NewValidationResult() *ValidationResult {
	return &ValidationResult{}
}

func (vr *ValidationResult) AddError(field, message, suggestion string) {
	vr.Errors = append(vr.Errors, ValidationIssue{Severity: SeverityError, Field: field, Message: message, Suggestion: suggestion})
}

func (vr *ValidationResult) AddWarning(field, message, suggestion string) {
	vr.Warnings = append(vr.Warnings, ValidationIssue{Severity: SeverityWarning, Field: field, Message: message, Suggestion: suggestion})
}

func (vr *ValidationResult) AddSuggestion(field, message, suggestion string) {
	vr.Suggestions = append(vr.Suggestions, ValidationIssue{Severity: SeveritySuggestion, Field: field, Message: message, Suggestion: suggestion})
}

func (vr *ValidationResult) HasErrors() bool      { return len(vr.Errors) > 0 }
func (vr *ValidationResult) HasWarnings() bool    { return len(vr.Warnings) > 0 }
func (vr *ValidationResult) HasSuggestions() bool { return len(vr.Suggestions) > 0 }
func (vr *ValidationResult) TotalIssues() int {
	return len(vr.Errors) + len(vr.Warnings) + len(vr.Suggestions)
}

// ToError converts validation result to an error, only if errors exist.
func (vr *ValidationResult) ToError() error {
	if !vr.HasErrors() {
		return nil
	}
	var lines []string
	lines = append(lines, fmt.Sprintf("configuration validation failed with %d error(s):", len(vr.Errors)))
	for _, e := range vr.Errors {
		lines = append(lines, fmt.Sprintf("  - [%s] %s", e.Field, e.Message))
		if e.Suggestion != "" {
			lines = append(lines, fmt.Sprintf("    -> %s", e.Suggestion))
		}
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

// ValidateComprehensive performs comprehensive validation with errors,
// warnings, and suggestions, scoped to the daemon's own ambient settings —
// the per-app configuration tree is validated structurally by
// AppLifecycle.Create at the point each app is built, not here.
func (c *DaemonConfig) ValidateComprehensive() (*ValidationResult, error) {
	result := NewValidationResult()

	c.validateTiming(result)
	c.validateLogging(result)
	c.validateObservability(result)
	c.lintConfiguration(result)

	if result.HasErrors() {
		return result, result.ToError()
	}
	return result, nil
}

func (c *DaemonConfig) validateTiming(result *ValidationResult) {
	if c.RebootQuiescenceSeconds <= 0 {
		result.AddError("reboot_quiescence_seconds", "must be positive", "use 120 unless you have a specific reason to change it")
	} else if c.RebootQuiescenceSeconds < 30 {
		result.AddWarning("reboot_quiescence_seconds", fmt.Sprintf("short quiescence window (%ds)", c.RebootQuiescenceSeconds), "a short window may clear the reboot-fault record before a flapping device would truly be considered stable")
	}
	if c.SoftKillTimeoutMillis <= 0 {
		result.AddError("soft_kill_timeout_millis", "must be positive", "use 300 unless processes need longer to handle SIGTERM")
	} else if c.SoftKillTimeoutMillis > 5000 {
		result.AddSuggestion("soft_kill_timeout_millis", fmt.Sprintf("long soft-kill window (%dms)", c.SoftKillTimeoutMillis), "stop operations will take this long whenever a process ignores SIGTERM")
	}
}

func (c *DaemonConfig) validateLogging(result *ValidationResult) {
	validLevels := []string{"debug", "info", "warn", "error"}
	if !contains(validLevels, c.Logging.Level) {
		result.AddError("logging.level", fmt.Sprintf("invalid log level: %s", c.Logging.Level), fmt.Sprintf("must be one of: %s", strings.Join(validLevels, ", ")))
	} else if c.Logging.Level == "debug" {
		result.AddWarning("logging.level", "debug logging in production may impact performance", "use 'info' for production deployments")
	}

	validFormats := []string{"json", "text"}
	if !contains(validFormats, c.Logging.Format) {
		result.AddError("logging.format", fmt.Sprintf("invalid log format: %s", c.Logging.Format), fmt.Sprintf("must be one of: %s", strings.Join(validFormats, ", ")))
	}
}

func (c *DaemonConfig) validateObservability(result *ValidationResult) {
	if c.Metrics.Enabled && c.Metrics.Port < 1024 && os.Getuid() != 0 {
		result.AddError("metrics.port", fmt.Sprintf("privileged port %d requires root", c.Metrics.Port), "use a port >= 1024 or run as root")
	}
	if c.Tracing.Enabled {
		validExporters := []string{"otlp-grpc", "stdout"}
		if !contains(validExporters, c.Tracing.Exporter) {
			result.AddError("tracing.exporter", fmt.Sprintf("invalid exporter: %s", c.Tracing.Exporter), fmt.Sprintf("must be one of: %s", strings.Join(validExporters, ", ")))
		}
		if c.Tracing.Exporter == "otlp-grpc" && c.Tracing.Endpoint == "" {
			result.AddError("tracing.endpoint", "otlp-grpc exporter requires an endpoint", "set tracing.endpoint to the collector address")
		}
	}
}

func (c *DaemonConfig) lintConfiguration(result *ValidationResult) {
	if !c.Metrics.Enabled && !c.Tracing.Enabled {
		result.AddSuggestion("observability", "neither metrics nor tracing enabled", "enable at least one for production visibility into fault-action decisions")
	}
	if !c.Audit.Enabled {
		result.AddSuggestion("audit.enabled", "audit trail disabled", "enable it to retain a record of app starts, stops, and fault actions")
	}
}

func contains(slice []string, val string) bool {
	for _, item := range slice {
		if item == val {
			return true
		}
	}
	return false
}
