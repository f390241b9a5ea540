package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Map is a flat key→string view of merged configuration. Keys are dotted
// paths; sequence members are rendered with a bracketed index, e.g.
// "automation_rules[0].when.op".
type Map struct {
	data map[string]string
}

// New returns an empty Map, ready for LoadYAMLFile/LoadKVFile/Set calls.
func New() *Map {
	return &Map{data: make(map[string]string)}
}

// LoadYAMLFile parses path as YAML, flattens it, and merges the result into
// the map with last-write-wins semantics. It never panics; a missing file
// or malformed YAML is reported as an error, not thrown.
func (m *Map) LoadYAMLFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("config: parse yaml %s: %w", path, err)
	}

	flat := make(map[string]string)
	flattenYAML(doc, "", flat)
	m.merge(flat)
	return nil
}

// LoadKVFile parses path as a key=value text file: one assignment per
// line, "#" to end-of-line is a comment, lines without "=" or with an
// empty key are skipped, and whitespace around key and value is trimmed.
func (m *Map) LoadKVFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	flat := make(map[string]string)
	for _, line := range strings.Split(string(raw), "\n") {
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			continue
		}
		key := strings.TrimSpace(line[:eq])
		if key == "" {
			continue
		}
		value := strings.TrimSpace(line[eq+1:])
		flat[key] = value
	}
	m.merge(flat)
	return nil
}

// merge applies src onto the map, last-write-wins.
func (m *Map) merge(src map[string]string) {
	if m.data == nil {
		m.data = make(map[string]string)
	}
	for k, v := range src {
		m.data[k] = v
	}
}

// Set overwrites a single key. Mostly useful in tests and for wiring CLI
// overrides into the map.
func (m *Map) Set(key, value string) {
	if m.data == nil {
		m.data = make(map[string]string)
	}
	m.data[key] = value
}

// GetString returns the raw string value and whether key was present.
func (m *Map) GetString(key string) (string, bool) {
	v, ok := m.data[key]
	return v, ok
}

// GetStringOr returns the value or def if absent.
func (m *Map) GetStringOr(key, def string) string {
	if v, ok := m.GetString(key); ok {
		return v
	}
	return def
}

// GetInt64 parses the value as an optional leading '-' followed by one or
// more ASCII digits, no other characters (no base prefix, no whitespace).
// Returns (0, false) if absent or malformed.
func (m *Map) GetInt64(key string) (int64, bool) {
	v, ok := m.data[key]
	if !ok {
		return 0, false
	}
	n, err := parseInt64(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// GetInt64Or returns the parsed value or def if absent/malformed.
func (m *Map) GetInt64Or(key string, def int64) int64 {
	if n, ok := m.GetInt64(key); ok {
		return n
	}
	return def
}

// GetBool parses case-insensitive "1/true/yes/on" as true and
// "0/false/no/off" as false. Anything else, including absence, reports
// false for ok.
func (m *Map) GetBool(key string) (bool, bool) {
	v, ok := m.data[key]
	if !ok {
		return false, false
	}
	return parseBool(v)
}

// GetBoolOr returns the parsed value or def if absent/unrecognised.
func (m *Map) GetBoolOr(key string, def bool) bool {
	if b, ok := m.GetBool(key); ok {
		return b
	}
	return def
}

// Has reports whether key is present, regardless of value shape.
func (m *Map) Has(key string) bool {
	_, ok := m.data[key]
	return ok
}

// Data returns the underlying map. Callers must not mutate it.
func (m *Map) Data() map[string]string {
	return m.data
}

func parseInt64(s string) (int64, error) {
	if s == "" {
		return 0, fmt.Errorf("empty")
	}
	i := 0
	neg := false
	if s[0] == '-' {
		neg = true
		i = 1
	}
	if i >= len(s) {
		return 0, fmt.Errorf("no digits")
	}
	for _, c := range s[i:] {
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("non-digit %q", c)
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	_ = neg
	return n, nil
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

// flattenYAML recursively projects a parsed YAML document onto dotted keys.
// Only scalar leaves produce entries; maps and sequences are structural.
func flattenYAML(node any, prefix string, out map[string]string) {
	switch v := node.(type) {
	case map[string]any:
		for key, child := range v {
			flattenYAML(child, joinKey(prefix, key), out)
		}
	case map[any]any:
		for key, child := range v {
			flattenYAML(child, joinKey(prefix, fmt.Sprintf("%v", key)), out)
		}
	case []any:
		for i, child := range v {
			flattenYAML(child, fmt.Sprintf("%s[%d]", prefix, i), out)
		}
	case nil:
		if prefix != "" {
			out[prefix] = ""
		}
	default:
		if prefix != "" {
			out[prefix] = scalarString(v)
		}
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", t)
	}
}
