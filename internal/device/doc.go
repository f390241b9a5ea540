// Package device implements the gateway's in-memory device registry: a
// primary map of devices plus reverse indexes from telemetry and command
// topics back to device id.
//
// All mutation funnels through Register, UpsertMqttDeviceFromTopic, and
// UpdateFromTelemetryTopic, the way the original C++ device_registry.cpp
// confines mutation to a handful of entry points rather than exposing the
// maps directly.
package device
