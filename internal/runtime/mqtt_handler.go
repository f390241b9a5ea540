package runtime

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/nerrad567/iotgw/internal/audit"
	"github.com/nerrad567/iotgw/internal/infrastructure/mqtt"
	"github.com/nerrad567/iotgw/internal/logging"
	"github.com/nerrad567/iotgw/internal/rules"
)

// ConnectMQTT connects the MQTT client, installs the engine's message
// handler, and issues the startup subscription.
func (e *Engine) ConnectMQTT(opts mqtt.Options, subTopic string, subscribe bool) error {
	client, err := mqtt.Connect(opts)
	if err != nil {
		return err
	}
	client.SetMessageHandler(e.handleMQTTMessage)
	if subscribe {
		if err := client.Subscribe(subTopic, 0); err != nil {
			return err
		}
	}
	e.mqtt = client
	return nil
}

// handleMQTTMessage is installed as the client's MessageHandler. It is
// called on paho's delivery goroutine, so it only submits work to the
// owner goroutine — it must never block.
func (e *Engine) handleMQTTMessage(topic string, payload []byte) {
	e.Submit(func() {
		e.dispatchMQTTMessage(topic, payload)
	})
}

// dispatchMQTTMessage runs the engine's MQTT message handler policy —
// registry update, rule evaluation, WebSocket broadcast, telemetry write,
// then audit log — on the owner goroutine.
func (e *Engine) dispatchMQTTMessage(topic string, payload []byte) {
	nowMs := time.Now().UnixMilli()
	payloadStr := string(payload)

	deviceID, hasDevice := e.registry.UpsertMqttDeviceFromTopic(topic, payloadStr, nowMs)

	value, hasValue := parseSensorValue(payloadStr)

	var firings []ruleFiring

	if hasValue && hasDevice {
		e.rules.OnSensorValue(deviceID, value, func(rule rules.Rule, action rules.Action) {
			n := len(firings)
			if n == 0 || firings[n-1].ruleID != rule.ID {
				firings = append(firings, ruleFiring{ruleID: rule.ID})
				n++
			}
			firings[n-1].actions = append(firings[n-1].actions, e.execAction(rule.ID, action))
		})
	}

	e.broadcaster.Broadcast(map[string]any{
		"type":    "mqtt_msg",
		"topic":   topic,
		"payload": payloadStr,
	})

	if hasValue && e.telemetry != nil {
		e.telemetry.WriteSensorReading(deviceID, value, nowMs)
	}

	if e.audit != nil {
		e.recordFirings(deviceID, value, nowMs, firings)
	}
}

// ruleFiring groups the actions fired by one matching rule, in order.
type ruleFiring struct {
	ruleID  string
	actions []audit.ActionFiring
}

func (e *Engine) recordFirings(deviceID string, value float64, nowMs int64, firings []ruleFiring) {
	for _, f := range firings {
		if len(f.actions) == 0 {
			continue
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := e.audit.RecordFiring(ctx, f.ruleID, deviceID, value, nowMs, f.actions)
		cancel()
		if err != nil {
			e.logger.Warn("audit", "failed to record rule firing: "+err.Error())
		}
	}
}

// execAction performs one fired action and returns its audit record. ruleID
// identifies the rule that fired it, used for the log action's default
// message.
func (e *Engine) execAction(ruleID string, action rules.Action) audit.ActionFiring {
	switch action.Type {
	case rules.ActionActuatorSet:
		published := e.publishActuatorSet(action.ActuatorID, action.Value)
		return audit.ActionFiring{
			ActionType: string(action.Type),
			Target:     action.ActuatorID,
			Detail:     action.Value,
			Published:  published,
		}
	case rules.ActionLog:
		message := action.Message
		if message == "" {
			message = "rule_fired: " + ruleID
		}
		logAtLevel(e.logger, action.Level, message)
		return audit.ActionFiring{
			ActionType: string(action.Type),
			Detail:     message,
		}
	default:
		return audit.ActionFiring{ActionType: string(action.Type)}
	}
}

// publishActuatorSet resolves the actuator's command topic (falling back
// to "<prefix>cmd/{id}") and publishes value at QoS 0, non-retained. It
// reports whether the publish actually happened.
func (e *Engine) publishActuatorSet(actuatorID, value string) bool {
	if e.mqtt == nil || !e.mqtt.IsOpen() {
		return false
	}
	topic, ok := e.registry.GetCommandTopic(actuatorID)
	if !ok || topic == "" {
		topic = e.topicPrefix + "cmd/" + actuatorID
	}
	return e.mqtt.Publish(topic, []byte(value), 0, false) == nil
}

// logAtLevel maps a rule action's level string (case-insensitive, with
// "warn"/"warning" both meaning Warn) to a logger call.
func logAtLevel(logger *logging.Logger, level, message string) {
	switch strings.ToLower(level) {
	case "trace":
		logger.Trace("rule", message)
	case "debug":
		logger.Debug("rule", message)
	case "warn", "warning":
		logger.Warn("rule", message)
	case "error":
		logger.Error("rule", message)
	default:
		logger.Info("rule", message)
	}
}

// parseSensorValue tries a strict float64 parse of the trimmed payload
// first, then falls back to the JSON field $.value.
func parseSensorValue(payload string) (float64, bool) {
	trimmed := strings.TrimSpace(payload)
	if v, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return v, true
	}

	var obj struct {
		Value *float64 `json:"value"`
	}
	if err := json.Unmarshal([]byte(payload), &obj); err == nil && obj.Value != nil {
		return *obj.Value, true
	}

	return 0, false
}
