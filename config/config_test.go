package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_EmptyConfig(t *testing.T) {
	cfg, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// check defaults applied
	if cfg.WorkerCount() != 16 {
		t.Errorf("Workers = %d, want 16", cfg.WorkerCount())
	}
	if cfg.Timeout.Duration() != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.Timeout.Duration())
	}
	if cfg.Retries != 0 {
		t.Errorf("Retries = %d, want 0", cfg.Retries)
	}
	if cfg.RetryDelay.Duration() != 300*time.Millisecond {
		t.Errorf("RetryDelay = %v, want 300ms", cfg.RetryDelay.Duration())
	}
	if cfg.Output != "table" {
		t.Errorf("Output = %q, want table", cfg.Output)
	}
	if cfg.Kafka.Enabled() {
		t.Error("Kafka.Enabled() = true, want false")
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
workers: 4
timeout: 2s
retries: 2
retry_delay: 50ms
output: JSON

targets:
  - https://a.example/health
  - "  https://b.example  "

grids:
  - name: Platform
    url_template: "https://{{.env}}.example.com"
    dimensions:
      env: [prod, staging]

kafka:
  brokers: [localhost:9092]
  topic: pulsecheck.outcomes
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.WorkerCount() != 4 {
		t.Errorf("Workers = %d, want 4", cfg.WorkerCount())
	}
	if cfg.Timeout.Duration() != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", cfg.Timeout.Duration())
	}
	if cfg.Retries != 2 {
		t.Errorf("Retries = %d, want 2", cfg.Retries)
	}
	if cfg.RetryDelay.Duration() != 50*time.Millisecond {
		t.Errorf("RetryDelay = %v, want 50ms", cfg.RetryDelay.Duration())
	}
	if cfg.Output != "json" {
		t.Errorf("Output = %q, want json (normalised)", cfg.Output)
	}
	if len(cfg.Targets) != 2 || cfg.Targets[1] != "https://b.example" {
		t.Errorf("Targets = %q, want trimmed entries", cfg.Targets)
	}
	if len(cfg.Grids) != 1 || cfg.Grids[0].Name != "Platform" {
		t.Errorf("Grids = %+v", cfg.Grids)
	}
	if !cfg.Kafka.Enabled() || cfg.Kafka.Topic != "pulsecheck.outcomes" {
		t.Errorf("Kafka = %+v", cfg.Kafka)
	}
}

func TestParse_ZeroRetryDelay(t *testing.T) {
	cfg, err := Parse([]byte("retry_delay: 0s\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.RetryDelay.Duration() != 0 {
		t.Errorf("RetryDelay = %v, want explicit 0", cfg.RetryDelay.Duration())
	}
}

func TestParse_EnvVarSubstitution(t *testing.T) {
	t.Setenv("TEST_API_HOST", "api.test.com")
	t.Setenv("TEST_KAFKA_HOST", "kafka.internal")

	yaml := `
targets:
  - https://${TEST_API_HOST}/health
  - ${TEST_UNSET_STATUS:-https://status.example}
kafka:
  brokers: ["${TEST_KAFKA_HOST}:9092"]
  topic: outcomes
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Targets[0] != "https://api.test.com/health" {
		t.Errorf("Targets[0] = %q, want https://api.test.com/health", cfg.Targets[0])
	}
	if cfg.Targets[1] != "https://status.example" {
		t.Errorf("Targets[1] = %q, want default value", cfg.Targets[1])
	}
	if cfg.Kafka.Brokers[0] != "kafka.internal:9092" {
		t.Errorf("Brokers[0] = %q, want kafka.internal:9092", cfg.Kafka.Brokers[0])
	}
}

func TestParse_EnvVarInGridTemplate(t *testing.T) {
	t.Setenv("TEST_DOMAIN", "example.com")

	yaml := `
grids:
  - name: Test
    url_template: "https://{{.env}}.${TEST_DOMAIN}/health"
    dimensions:
      env: [prod]
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Grids[0].URLTemplate != "https://{{.env}}.example.com/health" {
		t.Errorf("URLTemplate = %q, want expanded domain", cfg.Grids[0].URLTemplate)
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		wantErrLike string
	}{
		{
			name:        "zero workers",
			yaml:        `workers: 0`,
			wantErrLike: "workers must be at least 1, got 0",
		},
		{
			name:        "negative workers",
			yaml:        `workers: -1`,
			wantErrLike: "workers must be at least 1",
		},
		{
			name:        "negative timeout",
			yaml:        `timeout: -1s`,
			wantErrLike: "timeout must be positive",
		},
		{
			name:        "negative retries",
			yaml:        `retries: -2`,
			wantErrLike: "retries cannot be negative",
		},
		{
			name:        "negative retry delay",
			yaml:        `retry_delay: -5ms`,
			wantErrLike: "retry_delay cannot be negative",
		},
		{
			name:        "unknown output",
			yaml:        `output: csv`,
			wantErrLike: "unknown output format",
		},
		{
			name: "blank target",
			yaml: `
targets:
  - https://a.example
  - "   "
`,
			wantErrLike: "targets[1]: target cannot be empty",
		},
		{
			name: "missing env var in target",
			yaml: `
targets:
  - https://${TEST_DEFINITELY_MISSING}/health
`,
			wantErrLike: `targets[0]: environment variable "TEST_DEFINITELY_MISSING" is not set`,
		},
		{
			name: "grid missing name",
			yaml: `
grids:
  - url_template: "https://{{.env}}.example.com"
    dimensions:
      env: [prod]
`,
			wantErrLike: "grids[0]: name is required",
		},
		{
			name: "grid missing template",
			yaml: `
grids:
  - name: Test
    dimensions:
      env: [prod]
`,
			wantErrLike: "url_template is required",
		},
		{
			name: "grid invalid template",
			yaml: `
grids:
  - name: Test
    url_template: "https://{{.env"
    dimensions:
      env: [prod]
`,
			wantErrLike: "invalid url_template",
		},
		{
			name: "grid no dimensions",
			yaml: `
grids:
  - name: Test
    url_template: "https://example.com"
`,
			wantErrLike: "at least one dimension is required",
		},
		{
			name: "grid empty dimension",
			yaml: `
grids:
  - name: Test
    url_template: "https://{{.env}}.example.com"
    dimensions:
      env: []
`,
			wantErrLike: `dimension "env" has no values`,
		},
		{
			name: "grid duplicate dimension value",
			yaml: `
grids:
  - name: Test
    url_template: "https://{{.env}}.example.com"
    dimensions:
      env: [prod, prod]
`,
			wantErrLike: `duplicate value "prod"`,
		},
		{
			name: "kafka broker without port",
			yaml: `
kafka:
  brokers: [localhost]
  topic: outcomes
`,
			wantErrLike: "kafka.brokers[0]: broker must be host:port",
		},
		{
			name: "kafka missing topic",
			yaml: `
kafka:
  brokers: [localhost:9092]
`,
			wantErrLike: "topic is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErrLike) {
				t.Errorf("Parse() error = %v, want containing %q", err, tt.wantErrLike)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("targets: [unclosed"))
	if err == nil {
		t.Fatal("Parse() expected error for invalid YAML, got nil")
	}
	if !strings.Contains(err.Error(), "failed to parse YAML") {
		t.Errorf("error = %v, want 'failed to parse YAML'", err)
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"seconds", "10s", 10 * time.Second, false},
		{"milliseconds", "1500ms", 1500 * time.Millisecond, false},
		{"minutes", "2m", 2 * time.Minute, false},
		{"combined", "1m30s", 90 * time.Second, false},
		{"invalid", "not-a-duration", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte("timeout: " + tt.input))
			if tt.wantErr {
				if err == nil {
					t.Fatal("Parse() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if cfg.Timeout.Duration() != tt.want {
				t.Errorf("Timeout = %v, want %v", cfg.Timeout.Duration(), tt.want)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR", "value")
	t.Setenv("EMPTY_VAR", "") // set but empty

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"no vars", "plain text", "plain text", false},
		{"simple var", "${TEST_VAR}", "value", false},
		{"var in text", "prefix ${TEST_VAR} suffix", "prefix value suffix", false},
		{"multiple vars", "${TEST_VAR}-${TEST_VAR}", "value-value", false},
		{"with default (var set)", "${TEST_VAR:-default}", "value", false},
		{"with default (var unset)", "${UNSET:-default}", "default", false},
		{"missing required", "${MISSING}", "", true},
		{"empty default (var unset)", "${UNSET:-}", "", false},
		{"set but empty var", "${EMPTY_VAR}", "", false},
		{"set but empty with default", "${EMPTY_VAR:-fallback}", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// UNSET and MISSING are expected to not exist in environment
			got, err := expandEnvVars(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expandEnvVars() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("expandEnvVars() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("expandEnvVars() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pulsecheck.yaml")
	if err := os.WriteFile(path, []byte("workers: 3\ntargets: [https://a.example]\n"), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WorkerCount() != 3 {
		t.Errorf("Workers = %d, want 3", cfg.WorkerCount())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("error = %v, want 'failed to read config file'", err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.WorkerCount() != 16 || cfg.Timeout.Duration() != 5*time.Second || cfg.Output != "table" {
		t.Errorf("Default() = %+v", cfg)
	}
	if cfg.RetryDelay == nil || cfg.RetryDelay.Duration() != 300*time.Millisecond {
		t.Errorf("Default().RetryDelay = %v, want 300ms", cfg.RetryDelay)
	}
}
