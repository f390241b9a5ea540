package mqtt

import "errors"

// Sentinel errors for MQTT operations. Use errors.Is() to check for these
// in calling code.
var (
	// ErrNotOpen is returned by Publish when the session is not Open —
	// there is no in-process publish queue; it fails closed.
	ErrNotOpen = errors.New("mqtt: session not open")

	// ErrConnectionFailed is returned when the initial connect attempt
	// could not even be started.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrInvalidTopic is returned when an empty topic is provided.
	ErrInvalidTopic = errors.New("mqtt: topic cannot be empty")
)
