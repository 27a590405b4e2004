package core

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message type discriminators used in the JSON envelope.
const (
	TextMessageType    = "TextMessage"
	StopMessageType    = "StopMessage"
	HandoffMessageType = "HandoffMessage"
)

// Message is a polymorphic conversational record exchanged between the user,
// agents and teams. Concrete message types implement the unexported
// isMessage marker enabling a closed set. After emission a message should be
// treated as immutable.
type Message interface{ isMessage() }

// TextMessage is a plain text chat message.
type TextMessage struct {
	Source    string            `json:"source"`
	Content   string            `json:"content"`
	CreatedAt time.Time         `json:"created_at"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// isMessage implements the Message interface for TextMessage.
func (TextMessage) isMessage() {}

// StopMessage signals that a conversation should end. Content carries the
// human-readable stop reason.
type StopMessage struct {
	Source    string    `json:"source"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// isMessage implements the Message interface for StopMessage.
func (StopMessage) isMessage() {}

// HandoffMessage requests that a named participant take the next turn.
type HandoffMessage struct {
	Source    string    `json:"source"`
	Content   string    `json:"content"`
	Target    string    `json:"target"`
	CreatedAt time.Time `json:"created_at"`
}

// isMessage implements the Message interface for HandoffMessage.
func (HandoffMessage) isMessage() {}

// NewTextMessage creates a text message from source with a UTC timestamp.
func NewTextMessage(source, content string) TextMessage {
	return TextMessage{Source: source, Content: content, CreatedAt: time.Now().UTC()}
}

// NewStopMessage creates a stop message carrying the given reason.
func NewStopMessage(source, reason string) StopMessage {
	return StopMessage{Source: source, Content: reason, CreatedAt: time.Now().UTC()}
}

// NewHandoffMessage creates a handoff message addressed to target.
func NewHandoffMessage(source, target, content string) HandoffMessage {
	return HandoffMessage{Source: source, Content: content, Target: target, CreatedAt: time.Now().UTC()}
}

// SourceOf returns the producing source of any message in the closed set.
func SourceOf(m Message) string {
	switch msg := m.(type) {
	case TextMessage:
		return msg.Source
	case StopMessage:
		return msg.Source
	case HandoffMessage:
		return msg.Source
	default:
		return ""
	}
}

// TextOf returns the textual content of any message in the closed set.
func TextOf(m Message) string {
	switch msg := m.(type) {
	case TextMessage:
		return msg.Content
	case StopMessage:
		return msg.Content
	case HandoffMessage:
		return msg.Content
	default:
		return ""
	}
}

// MarshalMessage serializes a message into its JSON envelope: the concrete
// fields flattened alongside a "type" discriminator.
func MarshalMessage(m Message) ([]byte, error) {
	switch msg := m.(type) {
	case TextMessage:
		return json.Marshal(struct {
			Type string `json:"type"`
			TextMessage
		}{TextMessageType, msg})
	case StopMessage:
		return json.Marshal(struct {
			Type string `json:"type"`
			StopMessage
		}{StopMessageType, msg})
	case HandoffMessage:
		return json.Marshal(struct {
			Type string `json:"type"`
			HandoffMessage
		}{HandoffMessageType, msg})
	default:
		return nil, fmt.Errorf("marshal message: unknown message type %T", m)
	}
}

// UnmarshalMessage deserializes a message envelope back into its concrete
// type. Unknown discriminators are rejected.
func UnmarshalMessage(data []byte) (Message, error) {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("unmarshal message: %w", err)
	}

	switch probe.Type {
	case TextMessageType:
		var msg TextMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", probe.Type, err)
		}
		return msg, nil
	case StopMessageType:
		var msg StopMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", probe.Type, err)
		}
		return msg, nil
	case HandoffMessageType:
		var msg HandoffMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", probe.Type, err)
		}
		return msg, nil
	default:
		return nil, fmt.Errorf("unmarshal message: unknown message type %q", probe.Type)
	}
}

// Thread is an ordered message sequence that serializes each element through
// the message envelope, allowing heterogeneous threads to round-trip JSON.
type Thread []Message

// MarshalJSON implements json.Marshaler for Thread.
func (t Thread) MarshalJSON() ([]byte, error) {
	raw := make([]json.RawMessage, len(t))
	for i, m := range t {
		data, err := MarshalMessage(m)
		if err != nil {
			return nil, err
		}
		raw[i] = data
	}
	return json.Marshal(raw)
}

// UnmarshalJSON implements json.Unmarshaler for Thread.
func (t *Thread) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	thread := make(Thread, len(raw))
	for i, r := range raw {
		msg, err := UnmarshalMessage(r)
		if err != nil {
			return err
		}
		thread[i] = msg
	}
	*t = thread
	return nil
}

// Clone returns a shallow copy of the thread safe for independent append.
func (t Thread) Clone() Thread {
	if t == nil {
		return nil
	}
	c := make(Thread, len(t))
	copy(c, t)
	return c
}

// NewID generates a new unique identifier for teams, runs and messages.
func NewID() string { return uuid.NewString() }
