package update

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Staged describes a pending update package, as persisted in staged.kv.
type Staged struct {
	Version        string
	PackagePath    string
	SHA256         string
	StagedAtUnixMs int64
}

// Options configures a Manager. Unset fields take their documented
// defaults in NewManager.
type Options struct {
	// StateDir is the root of persisted update state, e.g. "data/update".
	StateDir string
	// CurrentVersionFileName is the filename under StateDir holding the
	// trimmed current version string. Default "current_version.txt".
	CurrentVersionFileName string
	// DefaultCurrentVersion is returned by GetCurrentVersionOr when no
	// version file exists yet. Default "0.0.0".
	DefaultCurrentVersion string
	// AllowNonSemver permits SetCurrentVersion to accept a version string
	// that doesn't parse as SemVer.
	AllowNonSemver bool
}

// Manager reads and writes the gateway's persisted version/update state.
type Manager struct {
	opts Options
}

// NewManager returns a Manager with defaults applied to any zero-valued
// Options fields.
func NewManager(opts Options) *Manager {
	if opts.CurrentVersionFileName == "" {
		opts.CurrentVersionFileName = "current_version.txt"
	}
	if opts.DefaultCurrentVersion == "" {
		opts.DefaultCurrentVersion = "0.0.0"
	}
	return &Manager{opts: opts}
}

func (m *Manager) currentVersionFile() string {
	return filepath.Join(m.opts.StateDir, m.opts.CurrentVersionFileName)
}

func (m *Manager) stagedMetaFile() string {
	return filepath.Join(m.opts.StateDir, "staged.kv")
}

func (m *Manager) stagingDir() string {
	return filepath.Join(m.opts.StateDir, "staging")
}

func (m *Manager) historyDir() string {
	return filepath.Join(m.opts.StateDir, "history")
}

// GetCurrentVersion reads the current version file, trimmed of
// surrounding whitespace. Reports false if the file is absent or empty.
func (m *Manager) GetCurrentVersion() (string, bool) {
	data, err := os.ReadFile(m.currentVersionFile())
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(string(data))
	if v == "" {
		return "", false
	}
	return v, true
}

// GetCurrentVersionOr returns GetCurrentVersion's result, or
// opts.DefaultCurrentVersion ("0.0.0" unless overridden) if absent.
func (m *Manager) GetCurrentVersionOr() string {
	if v, ok := m.GetCurrentVersion(); ok {
		return v
	}
	return m.opts.DefaultCurrentVersion
}

// SetCurrentVersion atomically writes version to the current version
// file. Unless AllowNonSemver is set, version must parse as SemVer.
func (m *Manager) SetCurrentVersion(version string) error {
	if !m.opts.AllowNonSemver {
		if _, ok := ParseSemVer(version); !ok {
			return fmt.Errorf("%w: %q", ErrInvalidVersion, version)
		}
	}
	return WriteFileAtomic(m.currentVersionFile(), []byte(version+"\n"), 0o640)
}

// IsUpdateAvailable reports whether a staged version compares greater
// than the current version.
func (m *Manager) IsUpdateAvailable() (bool, error) {
	staged, ok := m.GetStaged()
	if !ok {
		return false, nil
	}
	current := m.GetCurrentVersionOr()

	stagedSV, ok1 := ParseSemVer(staged.Version)
	currentSV, ok2 := ParseSemVer(current)
	if !ok1 || !ok2 {
		return false, ErrInvalidVersion
	}
	return CompareSemVer(stagedSV, currentSV) > 0, nil
}

// GetStaged parses staged.kv, if present.
func (m *Manager) GetStaged() (Staged, bool) {
	data, err := os.ReadFile(m.stagedMetaFile())
	if err != nil {
		return Staged{}, false
	}
	kv := parseKV(string(data))

	ms, _ := strconv.ParseInt(kv["staged_at_unix_ms"], 10, 64)
	return Staged{
		Version:        kv["version"],
		PackagePath:    kv["package_path"],
		SHA256:         kv["sha256"],
		StagedAtUnixMs: ms,
	}, true
}

// ClearStaged removes staged.kv, if present.
func (m *Manager) ClearStaged() error {
	err := os.Remove(m.stagedMetaFile())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// StageUpdatePackage copies pkgPath into the staging directory and
// atomically (re)writes staged.kv describing it.
func (m *Manager) StageUpdatePackage(version, pkgPath, sha256Hex string, stagedAtUnixMs int64) error {
	if err := os.MkdirAll(m.stagingDir(), 0o750); err != nil {
		return err
	}

	dst := filepath.Join(m.stagingDir(), filepath.Base(pkgPath))
	if err := CopyFileAtomic(pkgPath, dst); err != nil {
		return err
	}

	kv := formatKV(map[string]string{
		"version":           version,
		"package_path":      dst,
		"sha256":            sha256Hex,
		"staged_at_unix_ms": strconv.FormatInt(stagedAtUnixMs, 10),
	})
	return WriteFileAtomic(m.stagedMetaFile(), []byte(kv), 0o640)
}

// ApplyStagedUpdate promotes the staged version to current, records a
// history entry under history/applied_<staged_at_ms>.kv, and clears the
// staged metadata.
func (m *Manager) ApplyStagedUpdate() error {
	staged, ok := m.GetStaged()
	if !ok {
		return ErrNoStagedUpdate
	}

	if err := m.SetCurrentVersion(staged.Version); err != nil {
		return err
	}

	if err := os.MkdirAll(m.historyDir(), 0o750); err != nil {
		return err
	}
	histPath := filepath.Join(m.historyDir(), fmt.Sprintf("applied_%d.kv", staged.StagedAtUnixMs))
	kv := formatKV(map[string]string{
		"version":           staged.Version,
		"package_path":      staged.PackagePath,
		"sha256":            staged.SHA256,
		"staged_at_unix_ms": strconv.FormatInt(staged.StagedAtUnixMs, 10),
	})
	if err := WriteFileAtomic(histPath, []byte(kv), 0o640); err != nil {
		return err
	}

	return m.ClearStaged()
}

func parseKV(s string) map[string]string {
	out := make(map[string]string)
	for _, line := range strings.Split(s, "\n") {
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
		out[key] = strings.TrimSpace(line[eq+1:])
	}
	return out
}

func formatKV(kv map[string]string) string {
	// Fixed field order for determinism, not map iteration order.
	order := []string{"version", "package_path", "sha256", "staged_at_unix_ms"}
	var b strings.Builder
	for _, k := range order {
		if v, ok := kv[k]; ok {
			b.WriteString(k)
			b.WriteByte('=')
			b.WriteString(v)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
