// Package mqtt wraps github.com/eclipse/paho.mqtt.golang as the gateway's
// single-session MQTT client: one broker URL, one pending subscription
// slot, one delivery handler.
//
// It favors a simple state machine over an auto-reconnecting,
// multi-subscription-tracking wrapper: Disconnected → Connecting → Open,
// driven entirely by paho's own connect/disconnect callbacks, with no
// queueing — Publish fails closed while the session is not Open.
package mqtt
