package update

import (
	"fmt"
	"strconv"
	"strings"
)

// SemVer is a parsed semantic version: major.minor.patch[-prerelease][+build].
type SemVer struct {
	Major      int64
	Minor      int64
	Patch      int64
	Prerelease string // without the leading '-'; empty if absent
	Build      string // without the leading '+'; empty if absent
}

// String renders v back to its canonical text form.
func (v SemVer) String() string {
	s := fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Prerelease != "" {
		s += "-" + v.Prerelease
	}
	if v.Build != "" {
		s += "+" + v.Build
	}
	return s
}

// ParseSemVer strictly parses s: major.minor.patch are required, followed
// by an optional "-prerelease" and an optional "+build", and the entire
// string must be consumed.
func ParseSemVer(s string) (SemVer, bool) {
	rest := s

	major, rest, ok := consumeNonNegativeInt(rest)
	if !ok || !consumeByte(&rest, '.') {
		return SemVer{}, false
	}
	minor, rest, ok := consumeNonNegativeInt(rest)
	if !ok || !consumeByte(&rest, '.') {
		return SemVer{}, false
	}
	patch, rest, ok := consumeNonNegativeInt(rest)
	if !ok {
		return SemVer{}, false
	}

	var prerelease, build string
	if strings.HasPrefix(rest, "-") {
		rest = rest[1:]
		end := strings.IndexByte(rest, '+')
		if end < 0 {
			prerelease = rest
			rest = ""
		} else {
			prerelease = rest[:end]
			rest = rest[end:]
		}
		if prerelease == "" {
			return SemVer{}, false
		}
	}
	if strings.HasPrefix(rest, "+") {
		build = rest[1:]
		rest = ""
		if build == "" {
			return SemVer{}, false
		}
	}

	if rest != "" {
		return SemVer{}, false
	}

	return SemVer{Major: major, Minor: minor, Patch: patch, Prerelease: prerelease, Build: build}, true
}

func consumeNonNegativeInt(s string) (int64, string, bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, s, false
	}
	n, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return 0, s, false
	}
	return n, s[i:], true
}

func consumeByte(s *string, b byte) bool {
	if *s == "" || (*s)[0] != b {
		return false
	}
	*s = (*s)[1:]
	return true
}

// CompareSemVer returns -1, 0, or 1 as a<b, a==b, a>b. Build metadata is
// ignored entirely, as SemVer requires. A version with no prerelease
// outranks one with a prerelease, otherwise prerelease identifiers are
// compared dot-segment by dot-segment, numeric identifiers always
// sorting below alphanumeric ones.
func CompareSemVer(a, b SemVer) int {
	if c := compareInt(a.Major, b.Major); c != 0 {
		return c
	}
	if c := compareInt(a.Minor, b.Minor); c != 0 {
		return c
	}
	if c := compareInt(a.Patch, b.Patch); c != 0 {
		return c
	}

	if a.Prerelease == "" && b.Prerelease == "" {
		return 0
	}
	if a.Prerelease == "" {
		return 1
	}
	if b.Prerelease == "" {
		return -1
	}
	return comparePrerelease(a.Prerelease, b.Prerelease)
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func comparePrerelease(a, b string) int {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")

	for i := 0; i < len(as) && i < len(bs); i++ {
		if c := compareIdentifier(as[i], bs[i]); c != 0 {
			return c
		}
	}
	return compareInt(int64(len(as)), int64(len(bs)))
}

// compareIdentifier compares one dot-separated prerelease segment.
// Numeric identifiers are always less than alphanumeric ones; two numeric
// identifiers compare as integers; two alphanumeric identifiers compare
// lexically.
func compareIdentifier(a, b string) int {
	aNum, aIsNum := isNumericIdentifier(a)
	bNum, bIsNum := isNumericIdentifier(b)

	switch {
	case aIsNum && bIsNum:
		return compareInt(aNum, bNum)
	case aIsNum && !bIsNum:
		return -1
	case !aIsNum && bIsNum:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

func isNumericIdentifier(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
