package device

import "encoding/json"

// ToJSONOne marshals a single device. Field order matches the struct tag
// order declared on Device/Status: id, kind, transport, telemetry_topic,
// command_topic, status{online, last_seen_ms, last_topic, last_payload}.
func ToJSONOne(d Device) ([]byte, error) {
	return json.Marshal(d)
}

// ToJSONList marshals a slice of devices, preserving caller-supplied order
// (List already sorts ascending by id).
func ToJSONList(devices []Device) ([]byte, error) {
	return json.Marshal(devices)
}
