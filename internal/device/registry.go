package device

import (
	"sort"
	"strings"
)

// Registry is the live, in-memory device map plus its topic reverse
// indexes. It carries no internal locking: per the gateway's concurrency
// model, a Registry is owned by a single goroutine (the runtime engine)
// and is never touched concurrently — see internal/runtime.
type Registry struct {
	byID       map[string]*Device
	teleByTopic map[string]string
	cmdByTopic  map[string]string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:        make(map[string]*Device),
		teleByTopic: make(map[string]string),
		cmdByTopic:  make(map[string]string),
	}
}

// Register inserts or overwrites a device's identity fields, preserving
// any existing Status. Rejects an empty id. For an existing device,
// reverse-index entries are updated to point at the new topics but stale
// entries for the device's previous topics are NOT removed — this
// mirrors the original registry's historical behavior (see the open
// question in the gateway's design notes) and is deliberate, not a bug.
func (r *Registry) Register(d Device) error {
	if d.ID == "" {
		return ErrEmptyID
	}

	existing, ok := r.byID[d.ID]
	if ok {
		existing.Kind = d.Kind
		existing.Transport = d.Transport
		existing.TelemetryTopic = d.TelemetryTopic
		existing.CommandTopic = d.CommandTopic
	} else {
		stored := d
		stored.Status = Status{}
		r.byID[d.ID] = &stored
		existing = &stored
	}

	if existing.TelemetryTopic != "" {
		r.teleByTopic[existing.TelemetryTopic] = d.ID
	}
	if existing.CommandTopic != "" {
		r.cmdByTopic[existing.CommandTopic] = d.ID
	}
	return nil
}

// Get returns a copy of the device and whether it exists.
func (r *Registry) Get(id string) (Device, bool) {
	d, ok := r.byID[id]
	if !ok {
		return Device{}, false
	}
	return *d, true
}

// Has reports whether id exists.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// List returns a copy of all devices sorted ascending by id.
func (r *Registry) List() []Device {
	out := make([]Device, 0, len(r.byID))
	for _, d := range r.byID {
		out = append(out, *d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// UpdateFromTelemetryTopic marks the device owning topic online and
// records the telemetry sample. Returns the device id and true if topic
// is known, else ("", false).
func (r *Registry) UpdateFromTelemetryTopic(topic, payload string, nowMs int64) (string, bool) {
	id, ok := r.teleByTopic[topic]
	if !ok {
		return "", false
	}
	d := r.byID[id]
	d.Status.Online = true
	d.Status.LastSeenMs = nowMs
	d.Status.LastPayload = payload
	d.Status.LastTopic = topic
	return id, true
}

// UpsertMqttDeviceFromTopic resolves or creates a device from an inbound
// MQTT telemetry topic. If topic is already indexed, this behaves exactly
// like UpdateFromTelemetryTopic. Otherwise the device id is derived as the
// substring after the final '/' in topic (failing if topic is empty or
// ends in '/'). An unknown id is registered as a minimal mqtt device;  a
// known id has its STALE telemetry reverse-index entry removed before the
// new topic is recorded — unlike Register, this path cleans up after
// itself, matching the original upsert semantics.
func (r *Registry) UpsertMqttDeviceFromTopic(topic, payload string, nowMs int64) (string, bool) {
	if id, ok := r.UpdateFromTelemetryTopic(topic, payload, nowMs); ok {
		return id, true
	}

	id := lastPathSegment(topic)
	if id == "" {
		return "", false
	}

	d, exists := r.byID[id]
	if !exists {
		stored := Device{
			ID:             id,
			Kind:           "unknown",
			Transport:      "mqtt",
			TelemetryTopic: topic,
		}
		r.byID[id] = &stored
		r.teleByTopic[topic] = id
	} else {
		if d.TelemetryTopic != "" {
			delete(r.teleByTopic, d.TelemetryTopic)
		}
		d.TelemetryTopic = topic
		r.teleByTopic[topic] = id
	}

	return r.UpdateFromTelemetryTopic(topic, payload, nowMs)
}

// lastPathSegment returns the substring after the final '/' in topic, or
// "" if topic is empty or ends with '/'.
func lastPathSegment(topic string) string {
	if topic == "" || strings.HasSuffix(topic, "/") {
		return ""
	}
	idx := strings.LastIndexByte(topic, '/')
	if idx < 0 {
		return topic
	}
	return topic[idx+1:]
}

// GetCommandTopic returns the device's command topic, present only if the
// device exists and the field is non-empty.
func (r *Registry) GetCommandTopic(id string) (string, bool) {
	d, ok := r.byID[id]
	if !ok || d.CommandTopic == "" {
		return "", false
	}
	return d.CommandTopic, true
}

// GetTelemetryTopic returns the device's telemetry topic, present only if
// the device exists and the field is non-empty.
func (r *Registry) GetTelemetryTopic(id string) (string, bool) {
	d, ok := r.byID[id]
	if !ok || d.TelemetryTopic == "" {
		return "", false
	}
	return d.TelemetryTopic, true
}
