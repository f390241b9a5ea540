package device

import "errors"

// Sentinel errors returned by Registry operations. Use errors.Is() to
// check for these in calling code.
var (
	// ErrEmptyID is returned by Register when the device id is empty.
	ErrEmptyID = errors.New("device: id must not be empty")

	// ErrNotFound is returned when a lookup id or topic has no match.
	ErrNotFound = errors.New("device: not found")

	// ErrInvalidTopic is returned when a topic cannot yield a device id
	// (empty, or ending in a trailing slash).
	ErrInvalidTopic = errors.New("device: topic does not yield a device id")
)
