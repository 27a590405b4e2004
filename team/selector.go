package team

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/model"
)

// selectorInstructions frames the speaker selection request. The model sees
// the roster and the recent conversation and must answer with one name.
const selectorInstructions = "You are moderating a conversation between the participants listed below. " +
	"Read the conversation and pick the participant best suited to speak next. " +
	"Respond with that participant's name and nothing else."

// SelectorTeam lets a model pick the next speaker each turn based on the
// participant roster and the conversation so far. Selections the model gets
// wrong (unknown or ambiguous names) fall back to rotation so a run never
// stalls on a bad selection.
type SelectorTeam struct {
	*groupChat
}

// Interface compliance (compile-time assertion)
var _ Team = (*SelectorTeam)(nil)

// NewSelectorTeam creates a team whose next speaker is chosen by llm.
func NewSelectorTeam(name string, llm model.Model, participants []core.Agent, optFns ...func(o *Options)) (*SelectorTeam, error) {
	g, err := newGroupChat(name, participants, optFns...)
	if err != nil {
		return nil, err
	}
	g.selector = &modelSelector{llm: llm, historyWindow: 20}
	return &SelectorTeam{groupChat: g}, nil
}

// modelSelector asks a model to name the next speaker.
type modelSelector struct {
	llm           model.Model
	historyWindow int // most recent thread messages shown to the model
}

func (s *modelSelector) selectSpeaker(ctx context.Context, g *groupChat) (int, error) {
	prompt := s.buildPrompt(g)

	respCh, errCh := s.llm.Generate(ctx, model.Request{
		Instructions: selectorInstructions,
		Messages:     []model.Message{{Role: model.RoleUser, Content: prompt}},
	})

	var choice string
	var genErr error
	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !resp.Partial {
				choice = resp.Message.Content
			}
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
		return 0, fmt.Errorf("speaker selection: %w", genErr)
	}

	if idx, ok := s.resolve(g, choice); ok {
		g.logger.Debug("selector picked speaker", "team", g.name, "speaker", g.participants[idx].Name())
		return idx, nil
	}

	// Bad selection: fall back to rotation rather than failing the run.
	fallback := g.nextTurn % len(g.participants)
	g.logger.Warn("selector returned unknown participant, falling back to rotation",
		"team", g.name, "selection", choice, "fallback", g.participants[fallback].Name())
	return fallback, nil
}

// buildPrompt renders the roster and the recent conversation.
func (s *modelSelector) buildPrompt(g *groupChat) string {
	var sb strings.Builder

	sb.WriteString("Participants:\n")
	for _, p := range g.participants {
		fmt.Fprintf(&sb, "- %s: %s\n", p.Name(), p.Description())
	}

	thread := g.thread
	if s.historyWindow > 0 && len(thread) > s.historyWindow {
		thread = thread[len(thread)-s.historyWindow:]
	}

	sb.WriteString("\nConversation:\n")
	for _, m := range thread {
		fmt.Fprintf(&sb, "%s: %s\n", core.SourceOf(m), core.TextOf(m))
	}

	sb.WriteString("\nWho should speak next?")
	return sb.String()
}

// resolve maps a model selection onto a participant index: exact name match
// first, then a unique substring match.
func (s *modelSelector) resolve(g *groupChat, choice string) (int, bool) {
	choice = strings.TrimSpace(choice)
	if idx, ok := g.byName[choice]; ok {
		return idx, true
	}

	matched := -1
	for name, idx := range g.byName {
		if strings.Contains(choice, name) {
			if matched >= 0 {
				return 0, false // ambiguous
			}
			matched = idx
		}
	}
	if matched >= 0 {
		return matched, true
	}
	return 0, false
}
