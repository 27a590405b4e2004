package team

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/logging"
	"github.com/hupe1980/chatmesh/state"
	"github.com/hupe1980/chatmesh/termination"
)

// TeamStateType is the snapshot type discriminator shared by all team
// implementations.
const TeamStateType = "TeamState"

// TeamState is the serialized form of a team's conversational state.
type TeamState struct {
	state.Meta
	TeamID         string                    `json:"team_id"`
	NextTurn       int                       `json:"next_turn"`
	MessageThread  core.Thread               `json:"message_thread"`
	MessageBuffers map[string]core.Thread    `json:"message_buffers"`
	AgentStates    map[string]state.Snapshot `json:"agent_states"`
}

// Team coordinates a group of agents over a shared conversation.
//
// Run and RunStream are mutually exclusive with the state methods: state is
// captured or restored only between runs, never mid-run.
type Team interface {
	ID() string
	Name() string
	Run(ctx context.Context, task string) (*core.TaskResult, error)
	RunStream(ctx context.Context, task string) (<-chan core.Message, <-chan error)
	Reset(ctx context.Context) error
	SaveState(ctx context.Context) (state.Snapshot, error)
	LoadState(ctx context.Context, snapshot state.Snapshot) error
}

// Options configures team construction.
//
// Use functional options with NewRoundRobinTeam / NewSelectorTeam to
// override defaults.
type Options struct {
	// MaxTurns bounds the number of agent turns per Run call. Values <= 0
	// disable the bound (a termination condition must then stop the run).
	MaxTurns int
	// Termination is checked after every produced message. Optional when
	// MaxTurns is positive.
	Termination termination.Condition
	// EmitBufferSize sets channel buffering for RunStream.
	EmitBufferSize int
	// Logger receives run lifecycle and turn diagnostics.
	Logger logging.Logger
}

// speakerSelector picks the index of the next speaker. Implementations see
// the full group chat state (thread, rotation bookkeeping, participants).
type speakerSelector interface {
	selectSpeaker(ctx context.Context, g *groupChat) (int, error)
}

// groupChat carries the orchestration machinery shared by all team kinds:
// the thread, per-participant delivery buffers, turn bookkeeping, the run
// loop and the state contract. Concrete teams embed it and plug in a
// speakerSelector.
type groupChat struct {
	id             string
	name           string
	participants   []core.Agent
	byName         map[string]int
	selector       speakerSelector
	condition      termination.Condition
	maxTurns       int
	emitBufferSize int
	logger         logging.Logger

	// mu guards the conversational state below and is held for the whole
	// duration of a run, making Run/SaveState/LoadState/Reset mutually
	// exclusive.
	mu       sync.Mutex
	thread   core.Thread
	buffers  map[string]core.Thread
	nextTurn int
}

func newGroupChat(name string, participants []core.Agent, optFns ...func(o *Options)) (*groupChat, error) {
	opts := Options{
		MaxTurns:       20,
		EmitBufferSize: 100,
		Logger:         logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if len(participants) == 0 {
		return nil, fmt.Errorf("team %s: at least one participant is required", name)
	}
	if opts.MaxTurns <= 0 && opts.Termination == nil {
		return nil, fmt.Errorf("team %s: unbounded team requires a termination condition", name)
	}

	byName := make(map[string]int, len(participants))
	buffers := make(map[string]core.Thread, len(participants))
	for i, p := range participants {
		if p.Name() == "" {
			return nil, fmt.Errorf("team %s: participant %d has no name", name, i)
		}
		if _, exists := byName[p.Name()]; exists {
			return nil, fmt.Errorf("team %s: duplicate participant name %q", name, p.Name())
		}
		byName[p.Name()] = i
		buffers[p.Name()] = nil
	}

	return &groupChat{
		id:             core.NewID(),
		name:           name,
		participants:   participants,
		byName:         byName,
		condition:      opts.Termination,
		maxTurns:       opts.MaxTurns,
		emitBufferSize: opts.EmitBufferSize,
		logger:         opts.Logger,
		buffers:        buffers,
	}, nil
}

// ID returns the team's unique identifier. Loading a snapshot adopts the
// persisted identity.
func (g *groupChat) ID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.id
}

// Name returns the team's human-readable name.
func (g *groupChat) Name() string { return g.name }

// Run executes the task to completion and returns the aggregated result.
func (g *groupChat) Run(ctx context.Context, task string) (*core.TaskResult, error) {
	return g.run(ctx, task, func(core.Message) error { return nil })
}

// RunStream executes the task asynchronously, streaming every produced
// message (inner fragments included). The message channel closes when the
// run ends; a terminal error, if any, arrives on the error channel.
func (g *groupChat) RunStream(ctx context.Context, task string) (<-chan core.Message, <-chan error) {
	out := make(chan core.Message, g.emitBufferSize)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		_, err := g.run(ctx, task, func(m core.Message) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case out <- m:
				return nil
			}
		})
		if err != nil {
			errCh <- err
		}
	}()

	return out, errCh
}

// run drives the turn loop under the state lock.
func (g *groupChat) run(ctx context.Context, task string, emit func(core.Message) error) (*core.TaskResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.logger.Info("team run started", "team", g.name, "team_id", g.id)

	// Each run starts with a fresh condition so a follow-up task on the same
	// team continues the conversation instead of tripping over the previous
	// run's fired condition.
	if g.condition != nil {
		g.condition.Reset()
	}

	result := &core.TaskResult{}

	publish := func(msg core.Message, producer string) error {
		g.thread = append(g.thread, msg)
		for name := range g.buffers {
			if name == producer {
				continue
			}
			g.buffers[name] = append(g.buffers[name], msg)
		}
		result.Messages = append(result.Messages, msg)
		return emit(msg)
	}

	taskMsg := core.NewTextMessage("user", task)
	if err := publish(taskMsg, ""); err != nil {
		return result, err
	}

	if stopped, err := g.checkTermination(result, publish, taskMsg); err != nil || stopped {
		return result, err
	}

	turns := 0
	for {
		if g.maxTurns > 0 && turns >= g.maxTurns {
			result.StopReason = fmt.Sprintf("maximum number of turns (%d) reached", g.maxTurns)
			break
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		idx, err := g.nextSpeaker(ctx)
		if err != nil {
			return result, err
		}
		speaker := g.participants[idx]
		g.nextTurn = idx + 1

		delta := g.buffers[speaker.Name()]
		g.buffers[speaker.Name()] = nil

		g.logger.Debug("team turn", "team", g.name, "speaker", speaker.Name(), "delta", len(delta))

		resp, err := speaker.OnMessages(ctx, delta)
		if err != nil {
			return result, fmt.Errorf("agent %s: %w", speaker.Name(), err)
		}

		for _, inner := range resp.InnerMessages {
			if err := emit(inner); err != nil {
				return result, err
			}
		}

		if err := publish(resp.Message, speaker.Name()); err != nil {
			return result, err
		}
		turns++

		if stop, ok := resp.Message.(core.StopMessage); ok {
			result.StopReason = stop.Content
			break
		}

		if stopped, err := g.checkTermination(result, publish, resp.Message); err != nil {
			return result, err
		} else if stopped {
			break
		}
	}

	g.logger.Info("team run completed", "team", g.name, "messages", len(result.Messages), "stop_reason", result.StopReason)

	return result, nil
}

// checkTermination feeds the latest message to the condition and, when it
// fires, publishes the resulting stop message and records the stop reason.
func (g *groupChat) checkTermination(result *core.TaskResult, publish func(core.Message, string) error, latest core.Message) (bool, error) {
	if g.condition == nil {
		return false, nil
	}

	stop, err := g.condition.Check([]core.Message{latest})
	if err != nil {
		return false, fmt.Errorf("termination check: %w", err)
	}
	if stop == nil {
		return false, nil
	}

	if err := publish(*stop, ""); err != nil {
		return true, err
	}
	result.StopReason = stop.Content
	return true, nil
}

// nextSpeaker resolves the next speaker index: an explicit handoff in the
// latest thread message wins, otherwise the team's selector decides.
func (g *groupChat) nextSpeaker(ctx context.Context) (int, error) {
	if len(g.thread) > 0 {
		if handoff, ok := g.thread[len(g.thread)-1].(core.HandoffMessage); ok {
			idx, found := g.byName[handoff.Target]
			if !found {
				return 0, fmt.Errorf("handoff to unknown participant %q", handoff.Target)
			}
			return idx, nil
		}
	}
	return g.selector.selectSpeaker(ctx, g)
}

// Reset restores the team and every participant to their initialization
// state.
func (g *groupChat) Reset(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, p := range g.participants {
		if err := p.OnReset(ctx); err != nil {
			return fmt.Errorf("reset agent %s: %w", p.Name(), err)
		}
	}
	if g.condition != nil {
		g.condition.Reset()
	}

	g.thread = nil
	for name := range g.buffers {
		g.buffers[name] = nil
	}
	g.nextTurn = 0

	g.logger.Debug("team reset", "team", g.name, "team_id", g.id)

	return nil
}

// SaveState exports the shared thread, delivery buffers, turn bookkeeping
// and every participant's snapshot keyed by name.
func (g *groupChat) SaveState(ctx context.Context) (state.Snapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	agentStates := make(map[string]state.Snapshot, len(g.participants))
	for _, p := range g.participants {
		snap, err := p.SaveState(ctx)
		if err != nil {
			return nil, fmt.Errorf("save agent %s: %w", p.Name(), err)
		}
		agentStates[p.Name()] = snap
	}

	buffers := make(map[string]core.Thread, len(g.buffers))
	for name, buf := range g.buffers {
		buffers[name] = buf.Clone()
	}

	return state.Wrap(TeamState{
		Meta:           state.NewMeta(TeamStateType),
		TeamID:         g.id,
		NextTurn:       g.nextTurn,
		MessageThread:  g.thread.Clone(),
		MessageBuffers: buffers,
		AgentStates:    agentStates,
	})
}

// LoadState restores the team from a snapshot produced by SaveState. The
// snapshot's participant set must exactly match the team's configured
// participants.
func (g *groupChat) LoadState(ctx context.Context, snapshot state.Snapshot) error {
	var s TeamState
	if err := state.Unwrap(snapshot, TeamStateType, &s); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if len(s.AgentStates) != len(g.participants) {
		return fmt.Errorf("snapshot has %d participants, team has %d", len(s.AgentStates), len(g.participants))
	}
	for name := range s.AgentStates {
		if _, ok := g.byName[name]; !ok {
			return fmt.Errorf("snapshot contains unknown participant %q", name)
		}
	}

	for name, snap := range s.AgentStates {
		p := g.participants[g.byName[name]]
		if err := p.LoadState(ctx, snap); err != nil {
			return fmt.Errorf("load agent %s: %w", name, err)
		}
	}

	if s.TeamID != "" {
		g.id = s.TeamID
	}
	g.nextTurn = s.NextTurn
	g.thread = s.MessageThread.Clone()

	buffers := make(map[string]core.Thread, len(g.participants))
	for _, p := range g.participants {
		buffers[p.Name()] = s.MessageBuffers[p.Name()].Clone()
	}
	g.buffers = buffers

	return nil
}
