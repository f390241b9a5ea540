package runtime

import (
	"testing"

	"github.com/nerrad567/iotgw/internal/config"
	"github.com/nerrad567/iotgw/internal/rules"
)

func TestExtractRulesBuildsConditionAndActions(t *testing.T) {
	m := config.New()
	m.Set("automation_rules[0].id", "r1")
	m.Set("automation_rules[0].enabled", "true")
	m.Set("automation_rules[0].when.sensor_id", "temp01")
	m.Set("automation_rules[0].when.op", ">")
	m.Set("automation_rules[0].when.value", "25.0")
	m.Set("automation_rules[0].then[0].type", "actuator_set")
	m.Set("automation_rules[0].then[0].actuator_id", "fan01")
	m.Set("automation_rules[0].then[0].value", "on")

	got := extractRules(m, "automation_rules", rules.CategoryAutomation)
	if len(got) != 1 {
		t.Fatalf("extractRules() returned %d rules, want 1", len(got))
	}
	r := got[0]
	if r.ID != "r1" || !r.Enabled || r.Category != rules.CategoryAutomation {
		t.Fatalf("rule = %+v, unexpected", r)
	}
	if r.When.SensorID != "temp01" || r.When.Op != ">" || r.When.Value != 25.0 {
		t.Fatalf("condition = %+v, unexpected", r.When)
	}
	if len(r.Then) != 1 || r.Then[0].Type != rules.ActionActuatorSet || r.Then[0].ActuatorID != "fan01" || r.Then[0].Value != "on" {
		t.Fatalf("actions = %+v, unexpected", r.Then)
	}
}

func TestExtractRulesSkipsEntriesMissingID(t *testing.T) {
	m := config.New()
	m.Set("automation_rules[0].when.sensor_id", "temp01")

	got := extractRules(m, "automation_rules", rules.CategoryAutomation)
	if len(got) != 0 {
		t.Fatalf("extractRules() = %v, want empty", got)
	}
}

func TestExtractRulesDefaultsEnabledToTrue(t *testing.T) {
	m := config.New()
	m.Set("automation_rules[0].id", "r1")

	got := extractRules(m, "automation_rules", rules.CategoryAutomation)
	if len(got) != 1 || !got[0].Enabled {
		t.Fatalf("rule = %+v, want Enabled=true by default", got)
	}
}
