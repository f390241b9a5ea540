package runtime

import (
	"context"
	"time"

	"github.com/nerrad567/iotgw/internal/audit"
	"github.com/nerrad567/iotgw/internal/device"
	"github.com/nerrad567/iotgw/internal/infrastructure/influxdb"
	"github.com/nerrad567/iotgw/internal/infrastructure/mqtt"
	"github.com/nerrad567/iotgw/internal/logging"
	"github.com/nerrad567/iotgw/internal/rules"
)

const heartbeatInterval = 10 * time.Second

// Deps holds everything the engine needs. MQTT, Audit, and Telemetry are
// optional: a nil MQTT client means commands fail closed everywhere;
// nil Audit/Telemetry mean C8/C9 writes are silently skipped.
type Deps struct {
	Logger      *logging.Logger
	Registry    *device.Registry
	Rules       *rules.Engine
	MQTT        *mqtt.Client
	Broadcaster Broadcaster
	Audit       *audit.Store
	Telemetry   *influxdb.Client
	TopicPrefix string
}

// Engine is the single owner of the registry, rule engine, and MQTT
// client. All access from other goroutines — HTTP handlers, the MQTT
// delivery callback — goes through Submit/Call.
type Engine struct {
	logger      *logging.Logger
	registry    *device.Registry
	rules       *rules.Engine
	mqtt        *mqtt.Client
	broadcaster Broadcaster
	audit       *audit.Store
	telemetry   *influxdb.Client
	topicPrefix string

	ruleFiles [2]string // automation, alarm — remembered for /api/rules/reload

	cmdCh chan func()
	done  chan struct{}
}

// New constructs an Engine. Call Start to begin processing submitted work.
func New(deps Deps) *Engine {
	broadcaster := deps.Broadcaster
	if broadcaster == nil {
		broadcaster = noopBroadcaster{}
	}
	return &Engine{
		logger:      deps.Logger,
		registry:    deps.Registry,
		rules:       deps.Rules,
		mqtt:        deps.MQTT,
		broadcaster: broadcaster,
		audit:       deps.Audit,
		telemetry:   deps.Telemetry,
		topicPrefix: deps.TopicPrefix,
		cmdCh:       make(chan func(), 256),
		done:        make(chan struct{}),
	}
}

// SetMQTT installs the MQTT client after connection (ConnectMQTT installs
// its own client directly; this is exposed for tests that construct an
// Engine before a client exists).
func (e *Engine) SetMQTT(c *mqtt.Client) {
	e.mqtt = c
}

// Submit enqueues fn to run on the owner goroutine without waiting for it
// to finish. Used by the MQTT delivery callback, which must not block the
// paho goroutine.
func (e *Engine) Submit(fn func()) {
	select {
	case e.cmdCh <- fn:
	case <-e.done:
	}
}

// Call runs fn on the owner goroutine and blocks for its result. Used by
// HTTP handlers, which need a synchronous response.
func (e *Engine) Call(fn func() any) any {
	reply := make(chan any, 1)
	e.Submit(func() {
		reply <- fn()
	})
	select {
	case v := <-reply:
		return v
	case <-e.done:
		return nil
	}
}

// Start launches the owner goroutine. It processes submitted closures in
// order and emits a debug heartbeat (flushing the logger) at least once
// every heartbeatInterval, until ctx is cancelled.
func (e *Engine) Start(ctx context.Context) {
	go e.run(ctx)
}

func (e *Engine) run(ctx context.Context) {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	defer close(e.done)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("", "iotgw stopping")
			e.logger.Flush()
			return
		case fn := <-e.cmdCh:
			fn()
		case <-ticker.C:
			e.logger.Debug("", "heartbeat")
			e.logger.Flush()
		}
	}
}
