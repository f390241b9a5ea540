package rules

import "testing"

func ruleAbove(id, sensor string, threshold float64, actuator string) Rule {
	return Rule{
		ID:       id,
		Category: CategoryAutomation,
		Enabled:  true,
		When:     Condition{SensorID: sensor, Op: ">", Value: threshold},
		Then: []Action{
			{Type: ActionActuatorSet, ActuatorID: actuator, Value: "on"},
		},
	}
}

func TestEvaluationOrderAcrossMultipleRules(t *testing.T) {
	e := NewEngine()
	e.AddRules([]Rule{
		ruleAbove("r1", "temp01", 20, "fan01"),
		ruleAbove("r2", "temp01", 10, "fan02"),
		ruleAbove("r3", "other", 5, "fan03"),
	})

	var fired []string
	e.OnSensorValue("temp01", 30, func(r Rule, a Action) {
		fired = append(fired, r.ID+":"+a.ActuatorID)
	})

	if len(fired) != 2 || fired[0] != "r1:fan01" || fired[1] != "r2:fan02" {
		t.Fatalf("unexpected fire order: %v", fired)
	}
}

func TestDisabledRuleIsInert(t *testing.T) {
	e := NewEngine()
	e.AddRules([]Rule{ruleAbove("r1", "temp01", 20, "fan01")})
	e.SetEnabled("r1", false)

	fired := false
	e.OnSensorValue("temp01", 30, func(r Rule, a Action) { fired = true })
	if fired {
		t.Fatalf("expected disabled rule to not fire")
	}

	e.SetEnabled("r1", true)
	e.OnSensorValue("temp01", 30, func(r Rule, a Action) { fired = true })
	if !fired {
		t.Fatalf("expected re-enabled rule to fire")
	}
}

func TestActionOrderWithinRule(t *testing.T) {
	e := NewEngine()
	e.AddRules([]Rule{{
		ID: "r1", Enabled: true,
		When: Condition{SensorID: "s", Op: ">", Value: 0},
		Then: []Action{
			{Type: ActionLog, Message: "first"},
			{Type: ActionActuatorSet, ActuatorID: "a1", Value: "1"},
			{Type: ActionLog, Message: "last"},
		},
	}})

	var order []string
	e.OnSensorValue("s", 1, func(r Rule, a Action) {
		if a.Type == ActionLog {
			order = append(order, a.Message)
		} else {
			order = append(order, a.ActuatorID)
		}
	})
	if len(order) != 3 || order[0] != "first" || order[1] != "a1" || order[2] != "last" {
		t.Fatalf("unexpected action order: %v", order)
	}
}

func TestOperatorsCaseInsensitiveAndEquality(t *testing.T) {
	cases := []struct {
		op        string
		value     float64
		threshold float64
		want      bool
	}{
		{">=", 5, 5, true},
		{"<=", 4, 5, true},
		{"==", 5, 5, true},
		{"=", 5, 5, true},
		{"!=", 5, 6, true},
		{"EQ", 5, 5, false}, // unrecognised operator never matches
	}
	for _, c := range cases {
		got := evalCondition(c.op, c.value, c.threshold)
		if got != c.want {
			t.Errorf("evalCondition(%q, %v, %v) = %v, want %v", c.op, c.value, c.threshold, got, c.want)
		}
	}
	if !evalCondition("==", 5, 5) {
		t.Fatalf("expected IEEE-754 equality to match for identical doubles")
	}
}

func TestSetEnabledReportsFound(t *testing.T) {
	e := NewEngine()
	e.AddRules([]Rule{{ID: "r1"}})
	if !e.SetEnabled("r1", true) {
		t.Fatalf("expected r1 to be found")
	}
	if e.SetEnabled("missing", true) {
		t.Fatalf("expected missing rule to report false")
	}
}

func TestClearRemovesAllRules(t *testing.T) {
	e := NewEngine()
	e.AddRules([]Rule{{ID: "r1"}, {ID: "r2"}})
	e.Clear()
	if e.HasRule("r1") || len(e.Rules()) != 0 {
		t.Fatalf("expected engine to be empty after Clear")
	}
}
