package rules

// ActionType discriminates the closed set of action variants a rule can
// fire. New variants are deliberately not meant to be added by users —
// open inheritance is avoided in favor of this closed, exhaustive switch.
type ActionType string

const (
	ActionActuatorSet ActionType = "actuator_set"
	ActionLog         ActionType = "log"
)

// Action is a tagged variant: Type selects which of the fields below is
// meaningful. ActuatorID/Value apply to ActionActuatorSet; Level/Message
// apply to ActionLog.
type Action struct {
	Type ActionType `json:"type"`

	// ActuatorSet fields.
	ActuatorID string `json:"actuator_id,omitempty"`
	Value      string `json:"value,omitempty"`

	// Log fields.
	Level   string `json:"level,omitempty"`
	Message string `json:"message,omitempty"`
}

// Condition is the single comparison a rule's "when" clause evaluates
// against an incoming sensor value.
type Condition struct {
	SensorID string  `json:"sensor_id"`
	Op       string  `json:"op"`
	Value    float64 `json:"value"`
}

// Category classifies a rule for display/grouping; it has no effect on
// evaluation.
type Category string

const (
	CategoryAutomation Category = "automation"
	CategoryAlarm       Category = "alarm"
)

// Rule is a single condition with an ordered list of actions to fire when
// it matches.
type Rule struct {
	ID       string   `json:"id"`
	Category Category `json:"category"`
	Enabled  bool     `json:"enabled"`
	When     Condition `json:"when"`
	Then     []Action `json:"then"`
}
