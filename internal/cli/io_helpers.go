package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"roomcast/internal/config"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func stdinIsTTY() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// readRequestFile loads a JSON or YAML request as raw JSON.
func readRequestFile(path string) (json.RawMessage, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	j, err := config.CoerceToJSON(path, b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return json.RawMessage(j), nil
}

// resolveRelative anchors p to the config file's directory.
func resolveRelative(configPath, p string) string {
	if p == "" || filepath.IsAbs(p) || strings.TrimSpace(configPath) == "" {
		return p
	}
	return filepath.Join(filepath.Dir(configPath), p)
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}
