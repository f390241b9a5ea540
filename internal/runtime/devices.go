package runtime

import (
	"fmt"

	"github.com/nerrad567/iotgw/internal/config"
	"github.com/nerrad567/iotgw/internal/device"
)

// defaultTopic renders "<prefix>name/{id}", or "name/{id}" when prefix is
// empty — the fallback topic construction used for both sensor telemetry
// topics and actuator command/state topics.
func defaultTopic(prefix, name, id string) string {
	return fmt.Sprintf("%s%s/%s", prefix, name, id)
}

// LoadDeviceConfigs registers devices from the merged sensors.yaml and
// actuators.yaml config maps under paths.config_root/devices/. Either map
// may be nil/empty if the corresponding file is absent.
func (e *Engine) LoadDeviceConfigs(sensors, actuators *config.Map) {
	if sensors != nil {
		for _, i := range collectIndices(sensors, "sensors") {
			id, ok := sensors.GetString(fmt.Sprintf("sensors[%d].id", i))
			if !ok || id == "" {
				continue
			}
			protocol := sensors.GetStringOr(fmt.Sprintf("sensors[%d].protocol", i), "")
			e.registry.Register(device.Device{
				ID:             id,
				Kind:           "sensor",
				Transport:      protocol,
				TelemetryTopic: defaultTopic(e.topicPrefix, "telemetry", id),
			})
		}
	}

	if actuators != nil {
		for _, i := range collectIndices(actuators, "actuators") {
			id, ok := actuators.GetString(fmt.Sprintf("actuators[%d].id", i))
			if !ok || id == "" {
				continue
			}
			protocol := actuators.GetStringOr(fmt.Sprintf("actuators[%d].protocol", i), "")
			e.registry.Register(device.Device{
				ID:             id,
				Kind:           "actuator",
				Transport:      protocol,
				CommandTopic:   defaultTopic(e.topicPrefix, "cmd", id),
				TelemetryTopic: defaultTopic(e.topicPrefix, "state", id),
			})
		}
	}
}
