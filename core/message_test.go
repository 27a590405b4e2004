package core

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalMessage_RoundTrip(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		msg  Message
	}{
		{"text", TextMessage{Source: "user", Content: "hello", CreatedAt: created, Metadata: map[string]string{"k": "v"}}},
		{"stop", StopMessage{Source: "critic", Content: "APPROVE mentioned", CreatedAt: created}},
		{"handoff", HandoffMessage{Source: "planner", Content: "take over", Target: "coder", CreatedAt: created}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := MarshalMessage(tt.msg)
			require.NoError(t, err)

			out, err := UnmarshalMessage(data)
			require.NoError(t, err)
			assert.Equal(t, tt.msg, out)
		})
	}
}

func TestMarshalMessage_EmitsTypeDiscriminator(t *testing.T) {
	data, err := MarshalMessage(NewTextMessage("user", "hi"))
	require.NoError(t, err)

	var envelope map[string]any
	require.NoError(t, json.Unmarshal(data, &envelope))
	assert.Equal(t, TextMessageType, envelope["type"])
	assert.Equal(t, "user", envelope["source"])
}

func TestUnmarshalMessage_UnknownType(t *testing.T) {
	_, err := UnmarshalMessage([]byte(`{"type":"TelepathyMessage","source":"x"}`))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "TelepathyMessage")
}

func TestUnmarshalMessage_InvalidJSON(t *testing.T) {
	_, err := UnmarshalMessage([]byte(`{"type":`))
	assert.Error(t, err)
}

func TestThread_RoundTrip(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	thread := Thread{
		TextMessage{Source: "user", Content: "write a poem", CreatedAt: created},
		TextMessage{Source: "writer", Content: "roses are red", CreatedAt: created},
		StopMessage{Source: "max_messages", Content: "limit reached", CreatedAt: created},
	}

	data, err := json.Marshal(thread)
	require.NoError(t, err)

	var out Thread
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, thread, out)
}

func TestThread_Clone(t *testing.T) {
	thread := Thread{NewTextMessage("user", "one")}
	clone := thread.Clone()

	clone = append(clone, NewTextMessage("user", "two"))
	assert.Len(t, thread, 1)
	assert.Len(t, clone, 2)

	assert.Nil(t, Thread(nil).Clone())
}

func TestSourceOfTextOf(t *testing.T) {
	assert.Equal(t, "writer", SourceOf(NewTextMessage("writer", "hi")))
	assert.Equal(t, "hi", TextOf(NewTextMessage("writer", "hi")))
	assert.Equal(t, "planner", SourceOf(NewHandoffMessage("planner", "coder", "go")))
	assert.Equal(t, "done", TextOf(NewStopMessage("cond", "done")))
}

func TestNewID_Unique(t *testing.T) {
	assert.NotEqual(t, NewID(), NewID())
}
