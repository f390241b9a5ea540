package config

import "fmt"

// RequireKeys checks that every key in required is present, returning a
// "missing config key: <k>" string for each one that is not. A nil/empty
// slice means all required keys were found.
func (m *Map) RequireKeys(required ...string) []string {
	var missing []string
	for _, k := range required {
		if !m.Has(k) {
			missing = append(missing, fmt.Sprintf("missing config key: %s", k))
		}
	}
	return missing
}
