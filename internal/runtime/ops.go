package runtime

import (
	"github.com/nerrad567/iotgw/internal/device"
	"github.com/nerrad567/iotgw/internal/rules"
)

// The methods below are the engine's public, thread-safe surface for the
// HTTP API: each marshals its work through Call so the registry and rule
// engine are only ever touched from the owner goroutine.

type deviceLookup struct {
	device device.Device
	found  bool
}

// ListDevices returns all devices, sorted ascending by id.
func (e *Engine) ListDevices() []device.Device {
	return e.Call(func() any { return e.registry.List() }).([]device.Device)
}

// GetDevice looks up a single device by id.
func (e *Engine) GetDevice(id string) (device.Device, bool) {
	v := e.Call(func() any {
		d, ok := e.registry.Get(id)
		return deviceLookup{device: d, found: ok}
	}).(deviceLookup)
	return v.device, v.found
}

// ListRules returns the current rule list in evaluation (insertion) order.
func (e *Engine) ListRules() []rules.Rule {
	return e.Call(func() any { return e.rules.Rules() }).([]rules.Rule)
}

// SetRuleEnabled toggles a rule's enabled flag, reporting whether it was
// found.
func (e *Engine) SetRuleEnabled(id string, enabled bool) bool {
	return e.Call(func() any { return e.rules.SetEnabled(id, enabled) }).(bool)
}

// ReloadRulesOp re-reads the rule files last loaded at startup, for
// POST /api/rules/reload.
func (e *Engine) ReloadRulesOp() error {
	v := e.Call(func() any { return e.ReloadRules() })
	if v == nil {
		return nil
	}
	return v.(error)
}

// SetActuatorValue publishes value to actuatorID's command topic (falling
// back to "<prefix>cmd/{id}"), reporting whether the publish actually
// happened — false means MQTT is not connected (or the publish itself
// failed), which the API layer renders as 503.
func (e *Engine) SetActuatorValue(actuatorID, value string) bool {
	return e.Call(func() any { return e.publishActuatorSet(actuatorID, value) }).(bool)
}

// WSPublishResult is the outcome of a WebSocket-originated publish
// request.
type WSPublishResult struct {
	MQTTConnected bool
	Published     bool
}

// PublishFromWS publishes a WebSocket client's (topic, payload) frame and
// reports whether the broker accepted it, so the caller can ack the
// originating frame.
func (e *Engine) PublishFromWS(topic string, payload []byte) WSPublishResult {
	return e.Call(func() any {
		if e.mqtt == nil || !e.mqtt.IsOpen() {
			return WSPublishResult{MQTTConnected: false}
		}
		err := e.mqtt.Publish(topic, payload, 0, false)
		return WSPublishResult{MQTTConnected: true, Published: err == nil}
	}).(WSPublishResult)
}
