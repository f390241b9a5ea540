// Command gateway is an edge IoT gateway that mediates between field
// devices speaking MQTT and upstream consumers reached over HTTP and
// WebSocket — ingesting telemetry, maintaining a live device registry,
// evaluating an automation rule base, and issuing actuator commands back
// through MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/nerrad567/iotgw/internal/api"
	"github.com/nerrad567/iotgw/internal/audit"
	"github.com/nerrad567/iotgw/internal/config"
	"github.com/nerrad567/iotgw/internal/infrastructure/influxdb"
	"github.com/nerrad567/iotgw/internal/logging"
	"github.com/nerrad567/iotgw/internal/rules"
	"github.com/nerrad567/iotgw/internal/runtime"
	"github.com/nerrad567/iotgw/internal/update"

	"github.com/nerrad567/iotgw/internal/device"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run parses flags, wires every component per the startup sequence, and
// blocks until a shutdown signal arrives. It returns the process exit
// code rather than calling os.Exit directly, so it stays testable.
func run(args []string) int {
	fs := flag.NewFlagSet("gateway", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {}

	yamlConfig := fs.String("yaml-config", "config/environments/development.yaml", "root YAML config file")
	logFile := fs.String("log-file", "logs/iotgw.log", "log file path")
	logLevel := fs.String("log-level", "info", "log level (trace|debug|info|warn|warning|error|fatal)")
	printVersion := fs.Bool("print-version", false, "print the current version and exit")
	setVersion := fs.String("set-version", "", "write the current version file and exit")

	// Unknown flags are silently ignored, per spec — ParseErrorsWhitelist
	// isn't available on the stdlib FlagSet, so swallow the parse error
	// from any flag it doesn't recognise and continue with what parsed.
	_ = fs.Parse(args) //nolint:errcheck // unknown flags are ignored by design

	cfg := config.New()
	if err := cfg.LoadYAMLFile(*yamlConfig); err != nil {
		fmt.Fprintf(os.Stderr, "gateway: config load: %v\n", err)
	}

	resolvedLogFile := cfg.GetStringOr("paths.log_file", *logFile)
	resolvedLevel := cfg.GetStringOr("logging.level", *logLevel)

	logger, err := logging.Open(logging.Config{Path: resolvedLogFile, Level: logging.ParseLevel(resolvedLevel)})
	if err != nil {
		fmt.Fprintf(os.Stderr, "gateway: open log file: %v\n", err)
		logger = logging.Default()
	}
	defer logger.Close()

	versionMgr := update.NewManager(update.Options{StateDir: "data/update"})

	if *printVersion {
		fmt.Println(versionMgr.GetCurrentVersionOr())
		return 0
	}
	if *setVersion != "" {
		if err := versionMgr.SetCurrentVersion(*setVersion); err != nil {
			fmt.Fprintf(os.Stderr, "gateway: set-version: %v\n", err)
			return 2
		}
		return 0
	}

	currentVersion := versionMgr.GetCurrentVersionOr()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	configRoot := cfg.GetStringOr("paths.config_root", "config")

	telemetry := connectTelemetry(cfg, logger)
	if telemetry != nil {
		defer telemetry.Close()
	}

	auditStore := openAuditStore(cfg, configRoot, logger)
	if auditStore != nil {
		defer auditStore.Close()
	}

	hub := api.NewHub(logger)

	engine := runtime.New(runtime.Deps{
		Logger:      logger,
		Registry:    device.NewRegistry(),
		Rules:       rules.NewEngine(),
		Broadcaster: hub,
		Audit:       auditStore,
		Telemetry:   telemetry,
		TopicPrefix: runtime.TopicPrefix(cfg),
	})

	host := cfg.GetStringOr("network.http_api.host", cfg.GetStringOr("listen.host", "0.0.0.0"))
	port := cfg.GetInt64Or("network.http_api.port", cfg.GetInt64Or("listen.port", 8080))
	wsPath := cfg.GetStringOr("network.websocket.path", cfg.GetStringOr("listen.path", "/ws"))

	apiServer, err := api.New(api.Deps{
		Host:    host,
		Port:    port,
		WSPath:  wsPath,
		Logger:  logger,
		Engine:  engine,
		Audit:   auditStore,
		Version: currentVersion,
		Hub:     hub,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "gateway: api server: %v\n", err)
		return 0
	}

	if err := apiServer.Start(ctx); err != nil {
		logger.Error("http", "api server failed to start: "+err.Error())
	}

	loadDevices(engine, configRoot)
	loadRules(engine, configRoot, logger)
	connectMQTT(engine, cfg, logger)

	engine.Start(ctx)

	logger.Info("gateway", "startup complete")
	<-ctx.Done()

	if err := apiServer.Close(); err != nil {
		logger.Error("http", "api server shutdown error: "+err.Error())
	}

	return 0
}

func loadDevices(engine *runtime.Engine, configRoot string) {
	devicesDir := filepath.Join(configRoot, "devices")

	sensors := config.New()
	if err := sensors.LoadYAMLFile(filepath.Join(devicesDir, "sensors.yaml")); err != nil {
		sensors = nil
	}

	actuators := config.New()
	if err := actuators.LoadYAMLFile(filepath.Join(devicesDir, "actuators.yaml")); err != nil {
		actuators = nil
	}

	engine.LoadDeviceConfigs(sensors, actuators)
}

func loadRules(engine *runtime.Engine, configRoot string, logger *logging.Logger) {
	rulesDir := filepath.Join(configRoot, "rules")
	err := engine.LoadRuleFiles(runtime.RuleFiles{
		AutomationPath: filepath.Join(rulesDir, "automation-rules.yaml"),
		AlarmPath:      filepath.Join(rulesDir, "alarm-rules.yaml"),
	})
	if err != nil {
		logger.Warn("rules", "failed to load rule files: "+err.Error())
	}
}

func connectMQTT(engine *runtime.Engine, cfg *config.Map, logger *logging.Logger) {
	opts, enabled := runtime.BuildMQTTOptions(cfg)
	if !enabled {
		return
	}

	prefix := runtime.TopicPrefix(cfg)
	subTopic, subscribe := runtime.ResolveSubTopic(cfg, prefix)

	if err := engine.ConnectMQTT(opts, subTopic, subscribe); err != nil {
		logger.Error("mqtt", "connect failed: "+err.Error())
	}
}

func connectTelemetry(cfg *config.Map, logger *logging.Logger) *influxdb.Client {
	if !cfg.GetBoolOr("influxdb.enabled", false) {
		return nil
	}

	client, err := influxdb.Connect(context.Background(), influxdb.Config{
		Enabled: true,
		URL:     cfg.GetStringOr("influxdb.url", ""),
		Token:   cfg.GetStringOr("influxdb.token", ""),
		Org:     cfg.GetStringOr("influxdb.org", ""),
		Bucket:  cfg.GetStringOr("influxdb.bucket", ""),
	})
	if err != nil {
		logger.Error("influxdb", "connect failed: "+err.Error())
		return nil
	}

	client.SetOnError(func(err error) {
		logger.Warn("influxdb", "write failed: "+err.Error())
	})

	return client
}

func openAuditStore(cfg *config.Map, configRoot string, logger *logging.Logger) *audit.Store {
	if !cfg.GetBoolOr("audit.enabled", true) {
		return nil
	}

	dbPath := cfg.GetStringOr("audit.db_path", filepath.Join(configRoot, "..", "data", "audit.db"))
	store, err := audit.Open(dbPath)
	if err != nil {
		logger.Warn("audit", "failed to open execution store: "+err.Error())
		return nil
	}
	return store
}
