package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/finecision/finecision/internal/config"
	"github.com/finecision/finecision/internal/logging"
)

// NewLogger configures the application logger from cfg.
// Logs go to Stderr so Stdout stays free for reports and MCP stdio.
func NewLogger(cfg *config.Config) *slog.Logger {
	return logging.New(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format, os.Stderr)
}

// LoadVariables merges the variables of a JSON or YAML file with key=value
// pairs. Pairs win over the file.
func LoadVariables(path string, pairs []string) (map[string]any, error) {
	vars := map[string]any{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read variables: %w", err)
		}
		// YAML is a superset of JSON, one decoder serves both.
		if err := yaml.Unmarshal(data, &vars); err != nil {
			return nil, fmt.Errorf("failed to parse variables %s: %w", path, err)
		}
		if vars == nil {
			vars = map[string]any{}
		}
	}

	parsed, err := ParseVariables(pairs)
	if err != nil {
		return nil, err
	}
	for k, v := range parsed {
		vars[k] = v
	}
	return vars, nil
}

// ParseVariables parses key=value pairs. Numeric values become numbers;
// everything else stays a string.
func ParseVariables(pairs []string) (map[string]any, error) {
	vars := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid variable %q (want key=value)", pair)
		}
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			vars[key] = f
			continue
		}
		vars[key] = value
	}
	return vars, nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, ">>> %s\n", fmt.Sprintf(format, args...))
}
