package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/nerrad567/iotgw/internal/config"
	"github.com/nerrad567/iotgw/internal/logging"
	"github.com/nerrad567/iotgw/internal/runtime"

	"github.com/nerrad567/iotgw/internal/device"
	"github.com/nerrad567/iotgw/internal/rules"
)

// TestRun_PrintVersion verifies --print-version exits 0 and prints the
// default version when no version file exists yet.
func TestRun_PrintVersion(t *testing.T) {
	t.Chdir(t.TempDir())

	stdout := captureStdout(t, func() {
		code := run([]string{"--print-version"})
		if code != 0 {
			t.Fatalf("run() = %d, want 0", code)
		}
	})

	if got := string(bytes.TrimSpace(stdout)); got != "0.0.0" {
		t.Fatalf("stdout = %q, want \"0.0.0\"", got)
	}
}

// TestRun_SetVersionValid verifies --set-version persists a valid SemVer
// string and exits 0.
func TestRun_SetVersionValid(t *testing.T) {
	t.Chdir(t.TempDir())

	if code := run([]string{"--set-version", "1.2.3"}); code != 0 {
		t.Fatalf("run() = %d, want 0", code)
	}

	data, err := os.ReadFile(filepath.Join("data", "update", "current_version.txt"))
	if err != nil {
		t.Fatalf("read version file: %v", err)
	}
	if string(bytes.TrimSpace(data)) != "1.2.3" {
		t.Fatalf("version file = %q, want 1.2.3", data)
	}
}

// TestRun_SetVersionInvalid verifies --set-version rejects a non-SemVer
// string and exits 2.
func TestRun_SetVersionInvalid(t *testing.T) {
	t.Chdir(t.TempDir())

	if code := run([]string{"--set-version", "not-a-version"}); code != 2 {
		t.Fatalf("run() = %d, want 2", code)
	}
}

func TestConnectTelemetry_Disabled(t *testing.T) {
	cfg := config.New()
	log := logging.Default()

	if client := connectTelemetry(cfg, log); client != nil {
		t.Fatalf("connectTelemetry() = %v, want nil when influxdb.enabled is unset", client)
	}
}

func TestOpenAuditStore_Disabled(t *testing.T) {
	cfg := config.New()
	cfg.Set("audit.enabled", "false")
	log := logging.Default()

	if store := openAuditStore(cfg, t.TempDir(), log); store != nil {
		t.Fatalf("openAuditStore() = %v, want nil when audit.enabled is false", store)
	}
}

func TestOpenAuditStore_Enabled(t *testing.T) {
	configRoot := t.TempDir()
	cfg := config.New()
	cfg.Set("audit.enabled", "true")
	cfg.Set("audit.db_path", filepath.Join(configRoot, "audit.db"))
	log := logging.Default()

	store := openAuditStore(cfg, configRoot, log)
	if store == nil {
		t.Fatal("openAuditStore() = nil, want an opened store")
	}
	defer store.Close()
}

func TestConnectMQTT_Disabled(t *testing.T) {
	log := logging.Default()
	engine := runtime.New(runtime.Deps{
		Logger:   log,
		Registry: device.NewRegistry(),
		Rules:    rules.NewEngine(),
	})

	// mqtt.enabled is unset: BuildMQTTOptions reports disabled and
	// connectMQTT must return without attempting a connection.
	connectMQTT(engine, config.New(), log)
}

func TestLoadDevices_MissingFiles(t *testing.T) {
	log := logging.Default()
	engine := runtime.New(runtime.Deps{
		Logger:   log,
		Registry: device.NewRegistry(),
		Rules:    rules.NewEngine(),
	})

	// loadDevices, like in the real startup sequence, runs before
	// Start — the registry has no internal locking and is only safe to
	// touch directly while the owner goroutine isn't running yet.
	// Neither sensors.yaml nor actuators.yaml exist under this empty
	// root; loadDevices must degrade to an empty registry rather than
	// panic.
	loadDevices(engine, t.TempDir())
	engine.Start(context.Background())

	if got := engine.ListDevices(); len(got) != 0 {
		t.Fatalf("ListDevices() after missing config = %v, want empty", got)
	}
}

// captureStdout redirects os.Stdout for the duration of fn and returns
// whatever was written to it.
func captureStdout(t *testing.T, fn func()) []byte {
	t.Helper()

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe: %v", err)
	}
	original := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = original }()

	fn()

	w.Close()
	var buf bytes.Buffer
	buf.ReadFrom(r) //nolint:errcheck // test
	return buf.Bytes()
}
