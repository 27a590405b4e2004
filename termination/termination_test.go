package termination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/chatmesh/core"
)

// Interface compliance (compile-time assertions)
var (
	_ Condition = (*MaxMessages)(nil)
	_ Condition = (*TextMention)(nil)
	_ Condition = (*Or)(nil)
	_ Condition = (*And)(nil)
)

func msgs(contents ...string) []core.Message {
	out := make([]core.Message, len(contents))
	for i, c := range contents {
		out[i] = core.NewTextMessage("agent", c)
	}
	return out
}

func TestMaxMessages(t *testing.T) {
	cond := NewMaxMessages(3)

	stop, err := cond.Check(msgs("one", "two"))
	require.NoError(t, err)
	assert.Nil(t, stop)
	assert.False(t, cond.Terminated())

	stop, err = cond.Check(msgs("three"))
	require.NoError(t, err)
	require.NotNil(t, stop)
	assert.True(t, cond.Terminated())
	assert.Equal(t, "max_messages", stop.Source)

	_, err = cond.Check(msgs("four"))
	assert.ErrorIs(t, err, ErrTerminatedCondition)

	cond.Reset()
	assert.False(t, cond.Terminated())
	stop, err = cond.Check(msgs("one"))
	require.NoError(t, err)
	assert.Nil(t, stop)
}

func TestTextMention(t *testing.T) {
	cond := NewTextMention("APPROVE")

	stop, err := cond.Check(msgs("keep going"))
	require.NoError(t, err)
	assert.Nil(t, stop)

	stop, err = cond.Check(msgs("looks good, APPROVE"))
	require.NoError(t, err)
	require.NotNil(t, stop)
	assert.Contains(t, stop.Content, "APPROVE")

	_, err = cond.Check(msgs("more"))
	assert.ErrorIs(t, err, ErrTerminatedCondition)
}

func TestTextMention_ChecksAllMessageKinds(t *testing.T) {
	cond := NewTextMention("handing off")

	stop, err := cond.Check([]core.Message{core.NewHandoffMessage("a", "b", "handing off now")})
	require.NoError(t, err)
	assert.NotNil(t, stop)
}

func TestOr_FiresOnAny(t *testing.T) {
	cond := NewOr(NewMaxMessages(10), NewTextMention("DONE"))

	stop, err := cond.Check(msgs("working"))
	require.NoError(t, err)
	assert.Nil(t, stop)

	stop, err = cond.Check(msgs("DONE"))
	require.NoError(t, err)
	require.NotNil(t, stop)
	assert.True(t, cond.Terminated())

	cond.Reset()
	assert.False(t, cond.Terminated())
}

func TestAnd_FiresOnlyWhenAllFired(t *testing.T) {
	cond := NewAnd(NewMaxMessages(2), NewTextMention("DONE"))

	// MaxMessages fires here, TextMention does not: no combined stop yet.
	stop, err := cond.Check(msgs("one", "two"))
	require.NoError(t, err)
	assert.Nil(t, stop)
	assert.False(t, cond.Terminated())

	stop, err = cond.Check(msgs("DONE"))
	require.NoError(t, err)
	require.NotNil(t, stop)
	assert.True(t, cond.Terminated())
}

func TestAnd_EmptyNeverFires(t *testing.T) {
	cond := NewAnd()

	stop, err := cond.Check(msgs("anything"))
	require.NoError(t, err)
	assert.Nil(t, stop)
	assert.False(t, cond.Terminated())
}
