package core

import (
	"context"

	"github.com/hupe1980/chatmesh/state"
)

// Agent defines the core interface all conversational agents in ChatMesh
// must implement.
//
// Agents are stateful: callers pass only the messages produced since the
// agent's previous turn, and the agent accumulates whatever context it needs
// internally. That accumulated context is exactly what SaveState exports and
// LoadState restores, so a freshly constructed agent loaded from a snapshot
// continues the conversation as if it had never been torn down.
//
// Implementations must:
//   - Respect context cancellation on OnMessages
//   - Return self-describing snapshots (see package state)
//   - Reset to their initialization state on OnReset
type Agent interface {
	Name() string
	Description() string
	OnMessages(ctx context.Context, messages []Message) (*Response, error)
	OnReset(ctx context.Context) error
	SaveState(ctx context.Context) (state.Snapshot, error)
	LoadState(ctx context.Context, snapshot state.Snapshot) error
}

// Response is the result of a single agent turn. Message is the agent's
// reply delivered to the rest of the team; InnerMessages surface
// intermediate records (e.g. streamed fragments) for observability only and
// are never delivered to other participants.
type Response struct {
	Message       Message
	InnerMessages []Message
}

// TaskResult aggregates the messages produced by a team run together with
// the reason the run stopped.
type TaskResult struct {
	Messages   Thread `json:"messages"`
	StopReason string `json:"stop_reason,omitempty"`
}
