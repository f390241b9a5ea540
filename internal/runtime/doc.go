// Package runtime wires the device registry, rule engine, and MQTT client
// into a single event loop, binding C3-C6 the way the gateway's startup
// sequence and MQTT message handler policy require.
//
// Engine is a mailbox actor: one goroutine owns the registry, rule engine,
// and MQTT client, and every other caller (HTTP handlers, the MQTT
// delivery callback) reaches them only by submitting a closure over the
// command channel. This keeps registry and rule-engine access free of
// internal locking while preserving the required per-message ordering:
// registry update, then rule evaluation (and any publishes it triggers),
// then WebSocket broadcast.
package runtime
