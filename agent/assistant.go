package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/internal/util"
	"github.com/hupe1980/chatmesh/model"
	"github.com/hupe1980/chatmesh/state"
)

// AssistantAgentStateType is the snapshot type discriminator for AssistantAgent.
const AssistantAgentStateType = "AssistantAgentState"

// AssistantAgentState is the serialized form of an AssistantAgent's
// accumulated model context.
type AssistantAgentState struct {
	state.Meta
	LLMMessages []model.Message `json:"llm_messages"`
}

// AssistantAgentOptions configures an AssistantAgent instance.
//
// Use functional options with NewAssistantAgent to override defaults.
type AssistantAgentOptions struct {
	// Description advertises the agent's capabilities to team selectors.
	Description string
	// SystemMessage is a template rendered with {{.AgentName}} and
	// {{.Description}} and sent as model instructions every turn.
	SystemMessage string
	// MaxContextMessages bounds the model context window (0 = unlimited).
	// Trimming applies to requests only; the full context is still
	// accumulated and snapshotted.
	MaxContextMessages int
	// EnableStreaming requests partial chunks from the model; fragments are
	// surfaced as inner messages on the response.
	EnableStreaming bool
}

// AssistantAgent is a model-backed conversational agent. It accumulates a
// model context across turns: incoming messages are recorded as user turns
// (attributed to their source), the model reply as an assistant turn. That
// context is exactly what SaveState exports as llm_messages, so an
// AssistantAgent restored via LoadState answers follow-up questions as if
// the conversation had never been interrupted.
type AssistantAgent struct {
	BaseAgent
	llm                model.Model
	systemMessage      string
	maxContextMessages int
	enableStreaming    bool

	mu      sync.Mutex
	context []model.Message
}

// NewAssistantAgent creates a model-backed agent with sensible defaults: a
// generic helpful-assistant system message and an unbounded context window.
func NewAssistantAgent(name string, llm model.Model, optFns ...func(o *AssistantAgentOptions)) *AssistantAgent {
	opts := AssistantAgentOptions{
		SystemMessage: "You are {{.AgentName}}, a helpful AI assistant.",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	base := NewBaseAgent(name)
	if opts.Description != "" {
		base.SetDescription(opts.Description)
	}

	return &AssistantAgent{
		BaseAgent:          base,
		llm:                llm,
		systemMessage:      opts.SystemMessage,
		maxContextMessages: opts.MaxContextMessages,
		enableStreaming:    opts.EnableStreaming,
	}
}

// OnMessages records the incoming messages, generates a reply and appends it
// to the agent's model context.
func (a *AssistantAgent) OnMessages(ctx context.Context, messages []core.Message) (*core.Response, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, m := range messages {
		if _, ok := m.(core.StopMessage); ok {
			continue // stop signals are not conversational context
		}
		a.context = append(a.context, model.Message{
			Role:    model.RoleUser,
			Content: core.TextOf(m),
			Source:  core.SourceOf(m),
		})
	}

	instructions, err := util.RenderTemplate(a.systemMessage, map[string]any{
		"AgentName":   a.Name(),
		"Description": a.Description(),
	})
	if err != nil {
		return nil, fmt.Errorf("render system message: %w", err)
	}

	req := model.Request{
		Instructions: instructions,
		Messages:     a.requestContext(),
		Stream:       a.enableStreaming,
	}

	final, inner, err := a.generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", a.Name(), err)
	}

	reply := final.Message
	reply.Source = a.Name()
	a.context = append(a.context, reply)

	return &core.Response{
		Message:       core.NewTextMessage(a.Name(), reply.Content),
		InnerMessages: inner,
	}, nil
}

// generate drains a model generation, returning the final response plus any
// streamed fragments as inner messages.
func (a *AssistantAgent) generate(ctx context.Context, req model.Request) (*model.Response, []core.Message, error) {
	respCh, errCh := a.llm.Generate(ctx, req)

	var final *model.Response
	var inner []core.Message
	var genErr error

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if resp.Partial {
				fragment := core.NewTextMessage(a.Name(), resp.Message.Content)
				fragment.Metadata = map[string]string{"partial": "true"}
				inner = append(inner, fragment)
				continue
			}
			r := resp
			final = &r
		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				genErr = err
			}
		}
	}

	if genErr != nil {
		return nil, nil, genErr
	}
	if final == nil {
		return nil, nil, fmt.Errorf("model %s produced no final response", a.llm.Info().Name)
	}
	return final, inner, nil
}

// requestContext returns the model context to send, trimmed to the
// configured window and with non-user sources attributed inline.
func (a *AssistantAgent) requestContext() []model.Message {
	msgs := a.context
	if a.maxContextMessages > 0 && len(msgs) > a.maxContextMessages {
		msgs = msgs[len(msgs)-a.maxContextMessages:]
	}

	out := make([]model.Message, len(msgs))
	for i, m := range msgs {
		out[i] = m
		if m.Role == model.RoleUser && m.Source != "" && m.Source != "user" {
			out[i].Content = m.Source + ": " + m.Content
		}
	}
	return out
}

// OnReset clears the accumulated model context.
func (a *AssistantAgent) OnReset(_ context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.context = nil
	return nil
}

// SaveState exports the accumulated model context as an
// AssistantAgentState snapshot.
func (a *AssistantAgent) SaveState(_ context.Context) (state.Snapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	msgs := make([]model.Message, len(a.context))
	copy(msgs, a.context)

	return state.Wrap(AssistantAgentState{
		Meta:        state.NewMeta(AssistantAgentStateType),
		LLMMessages: msgs,
	})
}

// LoadState replaces the agent's model context with the snapshot's
// llm_messages.
func (a *AssistantAgent) LoadState(_ context.Context, snapshot state.Snapshot) error {
	var s AssistantAgentState
	if err := state.Unwrap(snapshot, AssistantAgentStateType, &s); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.context = make([]model.Message, len(s.LLMMessages))
	copy(a.context, s.LLMMessages)
	return nil
}
