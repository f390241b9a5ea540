package update

import "errors"

var (
	// ErrNoStagedUpdate is returned by ApplyStagedUpdate when there is no
	// staged.kv to apply.
	ErrNoStagedUpdate = errors.New("update: no staged update")

	// ErrInvalidVersion is returned when a version string fails to parse
	// as SemVer and AllowNonSemver is false.
	ErrInvalidVersion = errors.New("update: invalid version")
)
