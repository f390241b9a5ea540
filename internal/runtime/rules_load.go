package runtime

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/nerrad567/iotgw/internal/config"
	"github.com/nerrad567/iotgw/internal/rules"
)

// RuleFiles records the paths used by the last LoadRuleFiles call, so
// /api/rules/reload can re-read them without the caller threading the
// paths through again.
type RuleFiles struct {
	AutomationPath string
	AlarmPath      string
}

// LoadRuleFiles parses automation-rules.yaml and alarm-rules.yaml (either
// may be absent), tags each rule with its category, and installs the
// combined list into the rule engine, clearing any rules already loaded.
func (e *Engine) LoadRuleFiles(files RuleFiles) error {
	e.ruleFiles = [2]string{files.AutomationPath, files.AlarmPath}

	var all []rules.Rule

	if files.AutomationPath != "" {
		m := config.New()
		if err := m.LoadYAMLFile(files.AutomationPath); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("loading automation rules: %w", err)
			}
		} else {
			all = append(all, extractRules(m, "automation_rules", rules.CategoryAutomation)...)
		}
	}

	if files.AlarmPath != "" {
		m := config.New()
		if err := m.LoadYAMLFile(files.AlarmPath); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("loading alarm rules: %w", err)
			}
		} else {
			all = append(all, extractRules(m, "alarm_rules", rules.CategoryAlarm)...)
		}
	}

	e.rules.Clear()
	e.rules.AddRules(all)
	return nil
}

// ReloadRules re-reads the rule files most recently passed to
// LoadRuleFiles, for the /api/rules/reload endpoint.
func (e *Engine) ReloadRules() error {
	return e.LoadRuleFiles(RuleFiles{AutomationPath: e.ruleFiles[0], AlarmPath: e.ruleFiles[1]})
}

func extractRules(m *config.Map, arrayKey string, category rules.Category) []rules.Rule {
	var out []rules.Rule
	for _, i := range collectIndices(m, arrayKey) {
		base := fmt.Sprintf("%s[%d].", arrayKey, i)

		id, ok := m.GetString(base + "id")
		if !ok || id == "" {
			continue
		}
		enabled := m.GetBoolOr(base+"enabled", true)

		sensorID := m.GetStringOr(base+"when.sensor_id", "")
		op := m.GetStringOr(base+"when.op", "")
		value, _ := getFloat64(m, base+"when.value")

		rule := rules.Rule{
			ID:       id,
			Category: category,
			Enabled:  enabled,
			When: rules.Condition{
				SensorID: sensorID,
				Op:       op,
				Value:    value,
			},
			Then: extractActions(m, base+"then"),
		}
		out = append(out, rule)
	}
	return out
}

func extractActions(m *config.Map, arrayKey string) []rules.Action {
	var out []rules.Action
	for _, j := range collectIndices(m, arrayKey) {
		base := fmt.Sprintf("%s[%d].", arrayKey, j)

		actionType, ok := m.GetString(base + "type")
		if !ok || actionType == "" {
			continue
		}

		out = append(out, rules.Action{
			Type:       rules.ActionType(actionType),
			ActuatorID: m.GetStringOr(base+"actuator_id", ""),
			Value:      m.GetStringOr(base+"value", ""),
			Level:      m.GetStringOr(base+"level", ""),
			Message:    m.GetStringOr(base+"message", ""),
		})
	}
	return out
}
