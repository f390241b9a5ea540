// Package rules implements the gateway's reactive condition/action rule
// engine: an ordered list of rules evaluated against incoming sensor
// values, each a single sensor-threshold condition paired with the
// actions to fire when it matches.
//
// Evaluation never performs an action itself; the caller supplies an exec
// closure invoked once per matching action, on the caller's own
// goroutine.
package rules
