package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/chatmesh/state"
)

// BaseAgent bundles shared identity helpers and default state handling for
// stateless agents. Embed it in concrete agent implementations and supply an
// OnMessages method to satisfy the core.Agent interface; agents that carry
// state additionally override SaveState/LoadState/OnReset.
type BaseAgent struct {
	name        string // Human-readable name, unique within a team
	description string // Detailed description of the agent's purpose
}

// NewBaseAgent constructs a BaseAgent with a generated description
// (customizable via SetDescription).
func NewBaseAgent(name string) BaseAgent {
	return BaseAgent{
		name:        name,
		description: fmt.Sprintf("Agent %s", name),
	}
}

// Name returns the human-readable name for this agent.
func (b *BaseAgent) Name() string { return b.name }

// Description returns a detailed description of this agent's purpose.
func (b *BaseAgent) Description() string { return b.description }

// SetDescription updates the agent's description.
// Teams surface descriptions when selecting the next speaker.
func (b *BaseAgent) SetDescription(desc string) { b.description = desc }

// OnReset is a no-op for stateless agents.
func (b *BaseAgent) OnReset(_ context.Context) error { return nil }

// SaveState exports the empty default state for stateless agents.
func (b *BaseAgent) SaveState(_ context.Context) (state.Snapshot, error) {
	return state.Wrap(state.NewBaseState())
}

// LoadState validates the snapshot envelope; stateless agents restore nothing.
func (b *BaseAgent) LoadState(_ context.Context, snapshot state.Snapshot) error {
	var bs state.BaseState
	return state.Unwrap(snapshot, state.BaseStateType, &bs)
}
