package runtime

import (
	"strings"
	"testing"

	"github.com/nerrad567/iotgw/internal/device"
	"github.com/nerrad567/iotgw/internal/logging"
	"github.com/nerrad567/iotgw/internal/rules"
)

type fakeBroadcaster struct {
	events []any
}

func (f *fakeBroadcaster) Broadcast(v any) {
	f.events = append(f.events, v)
}

func TestParseSensorValuePlainFloat(t *testing.T) {
	v, ok := parseSensorValue(" 21.5 ")
	if !ok || v != 21.5 {
		t.Fatalf("parseSensorValue() = (%v, %v), want (21.5, true)", v, ok)
	}
}

func TestParseSensorValueJSONField(t *testing.T) {
	v, ok := parseSensorValue(`{"value": 26.1, "unit":"C"}`)
	if !ok || v != 26.1 {
		t.Fatalf("parseSensorValue() = (%v, %v), want (26.1, true)", v, ok)
	}
}

func TestParseSensorValueUnparseable(t *testing.T) {
	if _, ok := parseSensorValue("not-a-number"); ok {
		t.Fatal("parseSensorValue() ok = true for unparseable payload")
	}
}

func TestDispatchDiscoversDeviceAndBroadcasts(t *testing.T) {
	fb := &fakeBroadcaster{}
	e := New(Deps{
		Logger:      logging.New(discardSink{}, logging.LevelInfo),
		Registry:    device.NewRegistry(),
		Rules:       rules.NewEngine(),
		Broadcaster: fb,
	})

	e.dispatchMQTTMessage("sensors/temp01", []byte("21.5"))

	d, ok := e.registry.Get("temp01")
	if !ok {
		t.Fatal("device not discovered")
	}
	if d.Kind != "unknown" || d.Transport != "mqtt" || d.TelemetryTopic != "sensors/temp01" {
		t.Fatalf("device = %+v, unexpected", d)
	}
	if !d.Status.Online || d.Status.LastPayload != "21.5" {
		t.Fatalf("status = %+v, unexpected", d.Status)
	}
	if len(fb.events) != 1 {
		t.Fatalf("broadcast events = %d, want 1", len(fb.events))
	}
}

// lineSink records every log line written to it.
type lineSink struct {
	lines []string
}

func (s *lineSink) Write(line string) error { s.lines = append(s.lines, line); return nil }
func (s *lineSink) Flush() error            { return nil }
func (s *lineSink) Close() error            { return nil }

func TestDispatchFiresActuatorSetAction(t *testing.T) {
	fb := &fakeBroadcaster{}
	reg := device.NewRegistry()
	reg.Register(device.Device{ID: "fan01", Kind: "actuator", CommandTopic: "cmd/fan01"})

	engine := rules.NewEngine()
	engine.AddRules([]rules.Rule{{
		ID:      "r1",
		Enabled: true,
		When:    rules.Condition{SensorID: "temp01", Op: ">", Value: 25.0},
		Then: []rules.Action{
			{Type: rules.ActionActuatorSet, ActuatorID: "fan01", Value: "on"},
			{Type: rules.ActionLog, Level: "info", Message: "r1 fired"},
		},
	}})

	sink := &lineSink{}
	e := New(Deps{
		Logger:      logging.New(sink, logging.LevelInfo),
		Registry:    reg,
		Rules:       engine,
		Broadcaster: fb,
	})

	// temp01 isn't registered yet; the telemetry topic discovers it as
	// "temp01" via the trailing path segment.
	e.dispatchMQTTMessage("sensors/temp01", []byte("30"))

	// MQTT isn't connected in this test, so the actuator_set publish
	// reports false; the rule's log action, which runs after it, shows
	// that the rule matched and its actions were executed.
	d, ok := reg.Get("temp01")
	if !ok || d.Status.LastPayload != "30" {
		t.Fatalf("sensor device = %+v, ok=%v", d, ok)
	}
	fired := false
	for _, line := range sink.lines {
		if strings.Contains(line, "[rule] r1 fired") {
			fired = true
		}
	}
	if !fired {
		t.Fatalf("rule r1 did not fire; log lines = %q", sink.lines)
	}
}

func TestDispatchSkipsRuleEvalWhenPayloadUnparseable(t *testing.T) {
	fb := &fakeBroadcaster{}
	e := New(Deps{
		Logger:      logging.New(discardSink{}, logging.LevelInfo),
		Registry:    device.NewRegistry(),
		Rules:       rules.NewEngine(),
		Broadcaster: fb,
	})

	e.dispatchMQTTMessage("sensors/temp01", []byte("not-a-number"))

	if len(fb.events) != 1 {
		t.Fatalf("broadcast events = %d, want 1 (still broadcasts raw message)", len(fb.events))
	}
}
