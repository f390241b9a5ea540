// Package update manages the gateway's persisted version/update state under
// data/update/: the current version file, staged-update metadata, and an
// append-only history of applied updates. All writes are atomic
// (.tmp-then-rename, with a remove-then-rename fallback for overwrite).
//
// It covers the full SemVer comparison and staged-update bookkeeping a
// self-updating gateway needs, beyond the read-only current-version string
// the CLI surface (--print-version, --set-version) exposes directly.
package update
