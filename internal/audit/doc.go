// Package audit is the gateway's execution store (C9): a durable,
// append-only SQLite log of rule firings and the actions they triggered.
//
// It is a write-only trail for troubleshooting, not a source of runtime
// state — the gateway never reads it back to reconstruct the device
// registry or rule list. Bootstrapped with a single idempotent schema
// rather than a versioned migration runner, since this schema is small
// enough not to need one.
package audit
