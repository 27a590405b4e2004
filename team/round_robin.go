package team

import (
	"context"

	"github.com/hupe1980/chatmesh/core"
)

// RoundRobinTeam coordinates its participants in a fixed rotation: each turn
// the next participant in declaration order speaks, wrapping around at the
// end. The rotation position survives SaveState/LoadState, so a restored
// team hands the next turn to the participant that was due when the
// conversation was persisted.
type RoundRobinTeam struct {
	*groupChat
}

// Interface compliance (compile-time assertion)
var _ Team = (*RoundRobinTeam)(nil)

// NewRoundRobinTeam creates a team with a fixed speaker rotation.
func NewRoundRobinTeam(name string, participants []core.Agent, optFns ...func(o *Options)) (*RoundRobinTeam, error) {
	g, err := newGroupChat(name, participants, optFns...)
	if err != nil {
		return nil, err
	}
	g.selector = rotation{}
	return &RoundRobinTeam{groupChat: g}, nil
}

// rotation selects speakers in declaration order, wrapping around.
type rotation struct{}

func (rotation) selectSpeaker(_ context.Context, g *groupChat) (int, error) {
	return g.nextTurn % len(g.participants), nil
}
