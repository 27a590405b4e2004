package state

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// Version is the current snapshot schema version. Snapshots written by the
// same major version are loadable; a differing major is rejected by Unwrap.
const Version = "1.0.0"

// BaseStateType is the type discriminator for the empty default state used
// by components that carry no state of their own.
const BaseStateType = "BaseState"

// Meta is the self-describing envelope embedded in every snapshot payload.
type Meta struct {
	Type    string `json:"type"`
	Version string `json:"version"`
}

// NewMeta returns a Meta for the given component state type at the current
// schema version.
func NewMeta(stateType string) Meta {
	return Meta{Type: stateType, Version: Version}
}

// BaseState is the default snapshot payload for stateless components.
type BaseState struct {
	Meta
}

// NewBaseState returns an empty BaseState at the current schema version.
func NewBaseState() BaseState {
	return BaseState{Meta: NewMeta(BaseStateType)}
}

// Snapshot is an opaque serialized component state. The bytes are a JSON
// object carrying at least the Meta envelope; the remaining payload shape is
// owned by the component that produced it. Snapshots embed verbatim when
// marshaled inside enclosing JSON documents.
type Snapshot []byte

// MarshalJSON emits the snapshot bytes verbatim (or null when empty).
func (s Snapshot) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return s, nil
}

// UnmarshalJSON captures the raw JSON document without interpreting it.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	*s = append((*s)[:0], data...)
	return nil
}

// Meta parses and returns the snapshot envelope.
func (s Snapshot) Meta() (Meta, error) {
	var m Meta
	if err := json.Unmarshal(s, &m); err != nil {
		return Meta{}, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	return m, nil
}

// Clone returns an independent copy of the snapshot bytes.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	c := make(Snapshot, len(s))
	copy(c, s)
	return c
}

// Saver is implemented by components able to export their state.
type Saver interface {
	SaveState(ctx context.Context) (Snapshot, error)
}

// Loader is implemented by components able to restore previously exported state.
type Loader interface {
	LoadState(ctx context.Context, snapshot Snapshot) error
}

// Wrap serializes a component state value into a Snapshot. The value must
// marshal to a JSON object containing a valid envelope (components achieve
// this by embedding Meta, typically via NewMeta).
func Wrap(v any) (Snapshot, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	snap := Snapshot(data)
	if err := Validate(snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// Unwrap validates the snapshot envelope, checks type identity and version
// compatibility against stateType, then unmarshals the payload into v.
func Unwrap(snapshot Snapshot, stateType string, v any) error {
	if err := Validate(snapshot); err != nil {
		return err
	}
	meta, err := snapshot.Meta()
	if err != nil {
		return err
	}
	if meta.Type != stateType {
		return fmt.Errorf("%w: got %q, want %q", ErrTypeMismatch, meta.Type, stateType)
	}
	if !compatibleVersion(meta.Version) {
		return fmt.Errorf("%w: snapshot version %q, runtime version %q", ErrIncompatibleVersion, meta.Version, Version)
	}
	if err := json.Unmarshal(snapshot, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	return nil
}

// compatibleVersion reports whether a snapshot version shares the runtime
// schema's major version.
func compatibleVersion(v string) bool {
	return majorOf(v) == majorOf(Version)
}

func majorOf(v string) string {
	if i := strings.IndexByte(v, '.'); i >= 0 {
		return v[:i]
	}
	return v
}
