package state

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterState struct {
	Meta
	Count int      `json:"count"`
	Seen  []string `json:"seen,omitempty"`
}

func TestWrapUnwrap_RoundTrip(t *testing.T) {
	in := counterState{Meta: NewMeta("CounterState"), Count: 7, Seen: []string{"a", "b"}}

	snap, err := Wrap(in)
	require.NoError(t, err)

	meta, err := snap.Meta()
	require.NoError(t, err)
	assert.Equal(t, "CounterState", meta.Type)
	assert.Equal(t, Version, meta.Version)

	var out counterState
	require.NoError(t, Unwrap(snap, "CounterState", &out))
	assert.Equal(t, in, out)
}

func TestUnwrap_TypeMismatch(t *testing.T) {
	snap, err := Wrap(NewBaseState())
	require.NoError(t, err)

	var out counterState
	err = Unwrap(snap, "CounterState", &out)
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestUnwrap_IncompatibleVersion(t *testing.T) {
	snap := Snapshot(`{"type":"CounterState","version":"2.0.0","count":1}`)

	var out counterState
	err := Unwrap(snap, "CounterState", &out)
	assert.ErrorIs(t, err, ErrIncompatibleVersion)
}

func TestUnwrap_MinorVersionDrift(t *testing.T) {
	// Same major, newer minor: still loadable.
	snap := Snapshot(`{"type":"CounterState","version":"1.9.0","count":3}`)

	var out counterState
	require.NoError(t, Unwrap(snap, "CounterState", &out))
	assert.Equal(t, 3, out.Count)
}

func TestValidate_RejectsMalformedEnvelopes(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
	}{
		{"empty", nil},
		{"not json", Snapshot(`{"type":`)},
		{"not an object", Snapshot(`[1,2,3]`)},
		{"missing version", Snapshot(`{"type":"CounterState"}`)},
		{"missing type", Snapshot(`{"version":"1.0.0"}`)},
		{"empty type", Snapshot(`{"type":"","version":"1.0.0"}`)},
		{"bad version format", Snapshot(`{"type":"CounterState","version":"one"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, Validate(tt.snap), ErrMalformedSnapshot)
		})
	}
}

func TestSnapshot_EmbedsVerbatimInEnclosingJSON(t *testing.T) {
	inner, err := Wrap(NewBaseState())
	require.NoError(t, err)

	type envelope struct {
		States map[string]Snapshot `json:"states"`
	}

	data, err := json.Marshal(envelope{States: map[string]Snapshot{"agent": inner}})
	require.NoError(t, err)

	var out envelope
	require.NoError(t, json.Unmarshal(data, &out))

	meta, err := out.States["agent"].Meta()
	require.NoError(t, err)
	assert.Equal(t, BaseStateType, meta.Type)
}

func TestBaseState_RoundTrip(t *testing.T) {
	snap, err := Wrap(NewBaseState())
	require.NoError(t, err)

	var out BaseState
	require.NoError(t, Unwrap(snap, BaseStateType, &out))
	assert.Equal(t, Version, out.Version)
}
