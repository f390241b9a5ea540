package runtime

import (
	"fmt"

	"github.com/nerrad567/iotgw/internal/config"
	"github.com/nerrad567/iotgw/internal/infrastructure/mqtt"
)

// BuildMQTTOptions translates the config map's mqtt.* keys (with legacy
// broker.*/client.* fallbacks) into mqtt.Options. ok is false when
// mqtt.enabled is not true.
func BuildMQTTOptions(m *config.Map) (opts mqtt.Options, ok bool) {
	if !m.GetBoolOr("mqtt.enabled", false) {
		return mqtt.Options{}, false
	}

	host := m.GetStringOr("mqtt.broker_host", m.GetStringOr("broker.host", ""))
	port := m.GetInt64Or("mqtt.broker_port", m.GetInt64Or("broker.port", 1883))

	opts.URL = fmt.Sprintf("tcp://%s:%d", host, port)
	opts.ClientID = m.GetStringOr("mqtt.client_id", m.GetStringOr("client.client_id", ""))
	opts.Username = m.GetStringOr("mqtt.username", m.GetStringOr("client.username", ""))
	opts.Password = m.GetStringOr("mqtt.password", m.GetStringOr("client.password", ""))
	opts.KeepAliveSec = int(m.GetInt64Or("mqtt.keepalive_sec", m.GetInt64Or("client.keepalive_sec", 30)))
	opts.CleanSession = m.GetBoolOr("mqtt.clean_session", m.GetBoolOr("client.clean_session", true))
	opts.Version = 4

	return opts, true
}

// TopicPrefix returns mqtt.topic_prefix (or legacy topics.prefix).
func TopicPrefix(m *config.Map) string {
	return m.GetStringOr("mqtt.topic_prefix", m.GetStringOr("topics.prefix", ""))
}

// ResolveSubTopic returns mqtt.sub_topic, or "<prefix>#" if a non-empty
// prefix is configured, or ok=false if neither applies (meaning: do not
// subscribe).
func ResolveSubTopic(m *config.Map, prefix string) (topic string, ok bool) {
	if sub, has := m.GetString("mqtt.sub_topic"); has && sub != "" {
		return sub, true
	}
	if prefix != "" {
		return prefix + "#", true
	}
	return "", false
}
