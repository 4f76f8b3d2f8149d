package pulsecheck

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"text/template"
)

// maxTargetLineSize bounds a single line of target input.
const maxTargetLineSize = 64 * 1024

// ParseTargets reads newline-delimited targets from r.
//
// Lines are trimmed. Blank lines and lines starting with '#' are skipped.
// Targets are returned in input order; duplicates are kept.
func ParseTargets(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxTargetLineSize)

	var targets []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		targets = append(targets, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read targets: %w", err)
	}
	return targets, nil
}

// ExpandGrid creates targets from a URL template and dimensions using
// cartesian product expansion.
//
// The URL template uses Go's text/template syntax. Dimension values are
// URL-encoded before interpolation. Missing template keys cause an error
// (fail-fast). Output order is deterministic: keys are sorted, values keep
// their slice order.
//
// Example:
//
//	targets, err := pulsecheck.ExpandGrid(
//	    "https://{{.env}}.example.com/health?region={{.region}}",
//	    map[string][]string{
//	        "env":    {"prod", "staging"},
//	        "region": {"us-east", "eu-west"},
//	    },
//	)
//	// 4 targets
func ExpandGrid(urlTemplate string, dimensions map[string][]string) ([]string, error) {
	if strings.TrimSpace(urlTemplate) == "" {
		return nil, errors.New("URL template required")
	}
	if len(dimensions) == 0 {
		return nil, errors.New("at least one dimension required")
	}
	for name, values := range dimensions {
		if len(values) == 0 {
			return nil, fmt.Errorf("dimension %q has no values", name)
		}
	}

	// parse template with missingkey=error for fail-fast behaviour
	tmpl, err := template.New("url").Option("missingkey=error").Parse(urlTemplate)
	if err != nil {
		return nil, fmt.Errorf("invalid URL template: %w", err)
	}

	combinations := cartesianProduct(dimensions)

	targets := make([]string, 0, len(combinations))
	for _, combo := range combinations {
		target, err := executeTemplate(tmpl, urlEncodeMap(combo))
		if err != nil {
			return nil, fmt.Errorf("template execution failed for %v: %w", combo, err)
		}
		targets = append(targets, target)
	}

	return targets, nil
}

// cartesianProduct generates all combinations of dimension values.
// Keys are sorted alphabetically for deterministic output.
// Values maintain their original slice order.
//
// Example:
//
//	Input:  {"x": ["a","b"], "y": ["1","2"]}
//	Output: [{"x":"a","y":"1"}, {"x":"a","y":"2"}, {"x":"b","y":"1"}, {"x":"b","y":"2"}]
func cartesianProduct(dims map[string][]string) []map[string]string {
	if len(dims) == 0 {
		return nil
	}

	keys := make([]string, 0, len(dims))
	for k := range dims {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	total := 1
	for _, k := range keys {
		if len(dims[k]) == 0 {
			return nil
		}
		total *= len(dims[k])
	}

	result := make([]map[string]string, 0, total)

	indices := make([]int, len(keys))
	for {
		combo := make(map[string]string, len(keys))
		for i, k := range keys {
			combo[k] = dims[k][indices[i]]
		}
		result = append(result, combo)

		// increment indices (rightmost first)
		for i := len(keys) - 1; i >= 0; i-- {
			indices[i]++
			if indices[i] < len(dims[keys[i]]) {
				break
			}
			indices[i] = 0
			if i == 0 {
				return result
			}
		}
	}
}

// urlEncodeMap returns a new map with all values URL-encoded.
func urlEncodeMap(m map[string]string) map[string]string {
	result := make(map[string]string, len(m))
	for k, v := range m {
		result[k] = url.QueryEscape(v)
	}
	return result
}

// executeTemplate renders the template with the given data.
func executeTemplate(tmpl *template.Template, data map[string]string) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
