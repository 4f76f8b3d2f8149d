package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCLI executes the CLI with the given args and stdin and returns
// captured stdout, stderr and the exit code.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func newTargetServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type jsonOutcome struct {
	URL        string  `json:"url"`
	StatusCode int     `json:"status_code"`
	Error      *string `json:"error"`
	Attempts   int     `json:"attempts"`
}

func decodeOutcomes(t *testing.T, out string) map[string]jsonOutcome {
	t.Helper()

	var outcomes []jsonOutcome
	if err := json.Unmarshal([]byte(out), &outcomes); err != nil {
		t.Fatalf("stdout is not a JSON array: %v\n%s", err, out)
	}
	byURL := make(map[string]jsonOutcome, len(outcomes))
	for _, o := range outcomes {
		byURL[o.URL] = o
	}
	return byURL
}

func TestVersion(t *testing.T) {
	stdout, _, code := runCLI(t, "", "version")
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d", code, exitOK)
	}
	if !strings.Contains(stdout, "pulsecheck dev") {
		t.Errorf("stdout = %q, want version line", stdout)
	}
}

func TestCheck_ArgsJSON(t *testing.T) {
	srv := newTargetServer(t)

	stdout, stderr, code := runCLI(t, "", "check", "--json", "-w", "2", "-t", "1000", "--",
		srv.URL+"/ok", srv.URL+"/missing")
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d\nstderr: %s", code, exitOK, stderr)
	}

	outcomes := decodeOutcomes(t, stdout)
	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2\n%s", len(outcomes), stdout)
	}
	if got := outcomes[srv.URL+"/ok"]; got.StatusCode != 200 || got.Error != nil || got.Attempts != 1 {
		t.Errorf("/ok outcome = %+v", got)
	}
	if got := outcomes[srv.URL+"/missing"]; got.StatusCode != 404 {
		t.Errorf("/missing outcome = %+v", got)
	}
	if !strings.Contains(stderr, `"msg":"run complete"`) {
		t.Errorf("stderr missing structured run log:\n%s", stderr)
	}
}

func TestCheck_UnreachableTargetStillSucceeds(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	stdout, stderr, code := runCLI(t, "", "check", "-o", "json", "-t", "500", "--retry-delay", "0", "-r", "1", url)
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d\nstderr: %s", code, exitOK, stderr)
	}

	got := decodeOutcomes(t, stdout)[url]
	if got.StatusCode != -1 || got.Error == nil || got.Attempts != 2 {
		t.Errorf("outcome = %+v, want -1 with error after 2 attempts", got)
	}
}

func TestCheck_TargetsFromStdin(t *testing.T) {
	srv := newTargetServer(t)
	stdin := "# fleet\n" + srv.URL + "/ok\n\n" + srv.URL + "/ok\n"

	stdout, stderr, code := runCLI(t, stdin, "check", "-o", "yaml")
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d\nstderr: %s", code, exitOK, stderr)
	}
	if n := strings.Count(stdout, srv.URL+"/ok"); n != 2 {
		t.Errorf("YAML has %d outcomes for /ok, want 2 (duplicates kept)\n%s", n, stdout)
	}
}

func TestCheck_TargetsFromConfigTable(t *testing.T) {
	srv := newTargetServer(t)
	path := writeConfig(t, `
workers: 2
timeout: 1s
grids:
  - name: Local
    url_template: "`+srv.URL+`/{{.path}}"
    dimensions:
      path: [ok, missing]
`)

	stdout, stderr, code := runCLI(t, "", "check", "-c", path)
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d\nstderr: %s", code, exitOK, stderr)
	}

	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("table has %d lines, want 4\n%s", len(lines), stdout)
	}
	if !strings.HasPrefix(lines[0], "URL") || lines[1] != strings.Repeat("-", 95) {
		t.Errorf("unexpected table header:\n%s", stdout)
	}
	if !strings.Contains(stderr, "2 checked in") || !strings.Contains(stderr, "1 ok, 1 client errors") {
		t.Errorf("stderr missing summary:\n%s", stderr)
	}
}

func TestCheck_NoTargets(t *testing.T) {
	stdout, stderr, code := runCLI(t, "\n# nothing here\n", "check")
	if code != exitNoTargets {
		t.Fatalf("exit code = %d, want %d", code, exitNoTargets)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want empty", stdout)
	}
	if !strings.Contains(stderr, "Usage:") || !strings.Contains(stderr, "no targets supplied") {
		t.Errorf("stderr should show usage and error, got:\n%s", stderr)
	}
}

func TestCheck_InvalidSettings(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"zero workers", []string{"check", "-w", "0", "http://x"}, "workers must be positive"},
		{"negative retries", []string{"check", "-r", "-1", "http://x"}, "max retries cannot be negative"},
		{"zero timeout", []string{"check", "-t", "0", "http://x"}, "timeout must be positive"},
		{"unknown format", []string{"check", "-o", "csv", "http://x"}, "unknown output format"},
		{"json and output", []string{"check", "--json", "-o", "yaml", "http://x"}, "none of the others can be"},
		{"kafka without topic", []string{"check", "--kafka-broker", "localhost:9092", "http://x"}, "--kafka-topic is required"},
		{"missing config", []string{"check", "-c", "/nonexistent/config.yaml"}, "failed to load config"},
		{"unknown flag", []string{"check", "--bogus"}, "unknown flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := runCLI(t, "", tt.args...)
			if code != exitError {
				t.Fatalf("exit code = %d, want %d\nstderr: %s", code, exitError, stderr)
			}
			if !strings.Contains(stderr, tt.wantErr) {
				t.Errorf("stderr should mention %q, got:\n%s", tt.wantErr, stderr)
			}
		})
	}
}

func TestCheck_FlagsOverrideConfig(t *testing.T) {
	srv := newTargetServer(t)
	path := writeConfig(t, "output: yaml\ntargets: [\""+srv.URL+"/ok\"]\n")

	stdout, stderr, code := runCLI(t, "", "check", "-c", path, "--json")
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d\nstderr: %s", code, exitOK, stderr)
	}
	if len(decodeOutcomes(t, stdout)) != 1 {
		t.Errorf("expected one JSON outcome, got:\n%s", stdout)
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
workers: 4
timeout: 2s
retries: 1
targets:
  - https://example.com
grids:
  - name: Platform
    url_template: "https://{{.env}}.example.com/health"
    dimensions:
      env: [prod, staging]
kafka:
  brokers: [localhost:9092]
  topic: outcomes
`)

	stdout, stderr, code := runCLI(t, "", "validate", "-c", path)
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d\nstderr: %s", code, exitOK, stderr)
	}

	expectedPhrases := []string{
		"Config is valid!",
		"Workers:     4",
		"Timeout:     2s",
		"Retries:     1 (delay 300ms)",
		"1 direct + 2 from grids = 3 total",
		`topic "outcomes" on 1 broker(s)`,
	}
	for _, phrase := range expectedPhrases {
		if !strings.Contains(stdout, phrase) {
			t.Errorf("output missing %q\nGot: %s", phrase, stdout)
		}
	}
}

func TestValidate_InvalidConfig(t *testing.T) {
	for _, content := range []string{"workers: -3\n", "workers: 0\n"} {
		path := writeConfig(t, content)

		_, stderr, code := runCLI(t, "", "validate", "-c", path)
		if code != exitError {
			t.Fatalf("%q: exit code = %d, want %d", content, code, exitError)
		}
		if !strings.Contains(stderr, "workers must be at least 1") {
			t.Errorf("%q: stderr should mention the invalid field, got: %s", content, stderr)
		}
	}
}

func TestValidate_MissingFlag(t *testing.T) {
	_, stderr, code := runCLI(t, "", "validate")
	if code != exitError {
		t.Fatalf("exit code = %d, want %d", code, exitError)
	}
	if !strings.Contains(stderr, `required flag(s) "config" not set`) {
		t.Errorf("stderr = %s", stderr)
	}
}

func TestWatch_Rounds(t *testing.T) {
	srv := newTargetServer(t)

	stdout, stderr, code := runCLI(t, "", "watch", "--interval", "20ms", "--rounds", "3", "--json", srv.URL+"/ok")
	if code != exitOK {
		t.Fatalf("exit code = %d, want %d\nstderr: %s", code, exitOK, stderr)
	}

	// one pretty-printed array per round
	if n := strings.Count(stdout, `"url": "`+srv.URL+`/ok"`); n != 3 {
		t.Errorf("got %d outcomes across rounds, want 3\n%s", n, stdout)
	}
	if !strings.Contains(stderr, `"msg":"watch stopped","rounds":3`) {
		t.Errorf("stderr missing watch stop log:\n%s", stderr)
	}
}

func TestWatch_InvalidFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"zero interval", []string{"watch", "--interval", "0s", "http://x"}, "--interval must be positive"},
		{"negative rounds", []string{"watch", "--rounds", "-1", "http://x"}, "--rounds cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, stderr, code := runCLI(t, "", tt.args...)
			if code != exitError {
				t.Fatalf("exit code = %d, want %d", code, exitError)
			}
			if !strings.Contains(stderr, tt.wantErr) {
				t.Errorf("stderr should mention %q, got:\n%s", tt.wantErr, stderr)
			}
		})
	}
}

func TestWatch_NoTargets(t *testing.T) {
	_, _, code := runCLI(t, "", "watch", "--rounds", "1")
	if code != exitNoTargets {
		t.Fatalf("exit code = %d, want %d", code, exitNoTargets)
	}
}
