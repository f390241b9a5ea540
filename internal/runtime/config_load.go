package runtime

import (
	"sort"
	"strconv"
	"strings"

	"github.com/nerrad567/iotgw/internal/config"
)

// collectIndices returns the sorted, de-duplicated set of array indices
// present under the dotted prefix "arrayKey[i]." in m, e.g. for
// "sensors[0].id" and "sensors[1].protocol" with arrayKey "sensors" it
// returns [0, 1].
func collectIndices(m *config.Map, arrayKey string) []int {
	seen := make(map[int]struct{})
	prefix := arrayKey + "["
	for key := range m.Data() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		rest := key[len(prefix):]
		end := strings.IndexByte(rest, ']')
		if end < 0 {
			continue
		}
		idx, err := strconv.Atoi(rest[:end])
		if err != nil {
			continue
		}
		seen[idx] = struct{}{}
	}

	out := make([]int, 0, len(seen))
	for idx := range seen {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// getFloat64 parses a dotted config key as a float64. Config.Map only
// exposes GetString/GetInt64/GetBool; rule condition thresholds need
// float64, so this parses the raw string form directly.
func getFloat64(m *config.Map, key string) (float64, bool) {
	s, ok := m.GetString(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
