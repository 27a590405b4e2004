package state

import "errors"

var (
	// ErrSnapshotNotFound is returned when a store has no snapshot for the
	// requested key.
	ErrSnapshotNotFound = errors.New("state: snapshot not found")

	// ErrMalformedSnapshot is returned when snapshot bytes are not a valid
	// JSON object or fail envelope validation.
	ErrMalformedSnapshot = errors.New("state: malformed snapshot")

	// ErrTypeMismatch is returned by Unwrap when the snapshot's type
	// discriminator does not match the expected component state type.
	ErrTypeMismatch = errors.New("state: snapshot type mismatch")

	// ErrIncompatibleVersion is returned by Unwrap when the snapshot was
	// written by an incompatible (different major) version of the state
	// schema.
	ErrIncompatibleVersion = errors.New("state: incompatible snapshot version")
)
