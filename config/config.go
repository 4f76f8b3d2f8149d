// Package config provides YAML configuration parsing for the PulseCheck CLI.
//
// A config file is optional: every setting also has a command-line flag.
// It is most useful to keep a fixed target list, or to generate targets
// from grids.
//
// Example configuration:
//
//	workers: 8
//	timeout: 2s
//	retries: 1
//	retry_delay: 300ms
//	output: json
//
//	targets:
//	  - https://api.example.com/health
//	  - ${STATUS_URL:-https://status.example.com}
//
//	grids:
//	  - name: Platform
//	    url_template: "https://{{.env}}.example.com/health"
//	    dimensions:
//	      env: [prod, staging]
//
//	kafka:
//	  brokers: [localhost:9092]
//	  topic: pulsecheck.outcomes
package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jpalmerr/pulsecheck/report"
)

const (
	defaultWorkers    = 16
	defaultTimeout    = 5 * time.Second
	defaultRetryDelay = 300 * time.Millisecond
	defaultOutput     = "table"
)

// Config is the root configuration structure for PulseCheck.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Workers is the number of concurrent workers. Defaults to 16 when
	// omitted; an explicit value must be at least 1.
	Workers *int `yaml:"workers"`

	// Timeout bounds each phase of every attempt. Defaults to 5s.
	Timeout Duration `yaml:"timeout"`

	// Retries is the number of extra attempts after a network failure or a
	// 5xx response. Defaults to 0.
	Retries int `yaml:"retries"`

	// RetryDelay is the pause between attempts. Defaults to 300ms.
	RetryDelay *Duration `yaml:"retry_delay"`

	// Output is the report format: table, json, or yaml. Defaults to table.
	Output string `yaml:"output"`

	// Targets lists targets to check.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	Targets []string `yaml:"targets"`

	// Grids defines target grids that expand via cartesian product.
	Grids []GridConfig `yaml:"grids"`

	// Kafka optionally publishes every report to a Kafka topic.
	Kafka KafkaConfig `yaml:"kafka"`
}

// GridConfig defines a target grid that expands via cartesian product.
//
// For example, with dimensions {env: [prod, staging], svc: [api, web]},
// the grid expands to 4 targets: prod/api, prod/web, staging/api, staging/web.
type GridConfig struct {
	// Name identifies the grid in validation errors.
	Name string `yaml:"name"`

	// URLTemplate is a Go template for generating target URLs.
	// Dimension keys are available as template variables: {{.env}}, {{.svc}}
	// Supports environment variable substitution in the template.
	URLTemplate string `yaml:"url_template"`

	// Dimensions maps dimension names to their possible values.
	Dimensions map[string][]string `yaml:"dimensions"`
}

// KafkaConfig configures publication of reports to Kafka.
// Publishing is enabled when at least one broker is set.
type KafkaConfig struct {
	// Brokers are host:port addresses. Values support env substitution.
	Brokers []string `yaml:"brokers"`

	// Topic receives one message per outcome.
	Topic string `yaml:"topic"`
}

// Enabled reports whether Kafka publishing is configured.
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in targets, grid templates and Kafka brokers are
// expanded. Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Defaults are applied for Workers (16), Timeout (5s), RetryDelay (300ms)
// and Output (table). An empty document is a valid config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Workers == nil {
		w := defaultWorkers
		c.Workers = &w
	}
	if c.Timeout == 0 {
		c.Timeout = Duration(defaultTimeout)
	}
	if c.RetryDelay == nil {
		d := Duration(defaultRetryDelay)
		c.RetryDelay = &d
	}
	if c.Output == "" {
		c.Output = defaultOutput
	}
}

// WorkerCount returns the configured worker count, or the default when
// Workers is unset.
func (c *Config) WorkerCount() int {
	if c.Workers == nil {
		return defaultWorkers
	}
	return *c.Workers
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.WorkerCount() < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.WorkerCount())
	}
	if c.Timeout.Duration() <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout.Duration())
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries cannot be negative, got %d", c.Retries)
	}
	if c.RetryDelay.Duration() < 0 {
		return fmt.Errorf("retry_delay cannot be negative, got %s", c.RetryDelay.Duration())
	}

	format, err := report.ParseFormat(c.Output)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}
	c.Output = string(format)

	for i, target := range c.Targets {
		expanded, err := expandEnvVars(target)
		if err != nil {
			return fmt.Errorf("targets[%d]: %w", i, err)
		}
		expanded = strings.TrimSpace(expanded)
		if expanded == "" {
			return fmt.Errorf("targets[%d]: target cannot be empty", i)
		}
		c.Targets[i] = expanded
	}

	for i := range c.Grids {
		g := &c.Grids[i]

		if g.Name == "" {
			return fmt.Errorf("grids[%d]: name is required", i)
		}

		if g.URLTemplate == "" {
			return fmt.Errorf("grids[%d] (%s): url_template is required", i, g.Name)
		}
		expanded, err := expandEnvVars(g.URLTemplate)
		if err != nil {
			return fmt.Errorf("grids[%d] (%s): url_template: %w", i, g.Name, err)
		}
		g.URLTemplate = expanded

		// fail fast before expansion tries to use an invalid template
		if _, err := template.New("").Parse(g.URLTemplate); err != nil {
			return fmt.Errorf("grids[%d] (%s): invalid url_template: %w", i, g.Name, err)
		}

		if len(g.Dimensions) == 0 {
			return fmt.Errorf("grids[%d] (%s): at least one dimension is required", i, g.Name)
		}
		for dimName, dimValues := range g.Dimensions {
			if len(dimValues) == 0 {
				return fmt.Errorf("grids[%d] (%s): dimension %q has no values", i, g.Name, dimName)
			}
			seen := make(map[string]struct{}, len(dimValues))
			for _, v := range dimValues {
				if _, exists := seen[v]; exists {
					return fmt.Errorf("grids[%d] (%s): dimension %q has duplicate value %q", i, g.Name, dimName, v)
				}
				seen[v] = struct{}{}
			}
		}
	}

	for i, broker := range c.Kafka.Brokers {
		expanded, err := expandEnvVars(broker)
		if err != nil {
			return fmt.Errorf("kafka.brokers[%d]: %w", i, err)
		}
		if _, _, err := net.SplitHostPort(expanded); err != nil {
			return fmt.Errorf("kafka.brokers[%d]: broker must be host:port: %w", i, err)
		}
		c.Kafka.Brokers[i] = expanded
	}
	if c.Kafka.Enabled() && c.Kafka.Topic == "" {
		return fmt.Errorf("kafka: topic is required when brokers are set")
	}

	return nil
}
