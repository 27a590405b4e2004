// Package termination provides composable stop conditions for team runs.
// Conditions are fed the newly produced messages after every turn and decide
// whether the conversation should end. A condition that has fired stays
// terminated until Reset is called; teams reset their condition at the start
// of every run and as part of their own Reset.
package termination

import (
	"errors"
	"strings"
	"sync"

	"github.com/hupe1980/chatmesh/core"
)

// ErrTerminatedCondition is returned when Check is called on a condition
// that has already fired and has not been reset.
var ErrTerminatedCondition = errors.New("termination: condition already terminated")

// Condition decides when a conversation should stop.
//
// Check receives only the messages produced since the previous Check call
// and returns a non-nil StopMessage when the condition fires, nil otherwise.
type Condition interface {
	Check(messages []core.Message) (*core.StopMessage, error)
	Terminated() bool
	Reset()
}

// MaxMessages terminates after a fixed number of messages have been produced.
type MaxMessages struct {
	limit int

	mu         sync.Mutex
	seen       int
	terminated bool
}

// NewMaxMessages constructs a MaxMessages condition firing once limit
// messages (task message included) have passed through Check.
func NewMaxMessages(limit int) *MaxMessages {
	return &MaxMessages{limit: limit}
}

// Check implements Condition.
func (c *MaxMessages) Check(messages []core.Message) (*core.StopMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.terminated {
		return nil, ErrTerminatedCondition
	}

	c.seen += len(messages)
	if c.seen < c.limit {
		return nil, nil
	}

	c.terminated = true
	stop := core.NewStopMessage("max_messages", "maximum number of messages reached")
	return &stop, nil
}

// Terminated implements Condition.
func (c *MaxMessages) Terminated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.terminated
}

// Reset implements Condition.
func (c *MaxMessages) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = 0
	c.terminated = false
}

// TextMention terminates when any message mentions a given text fragment.
type TextMention struct {
	text string

	mu         sync.Mutex
	terminated bool
}

// NewTextMention constructs a TextMention condition firing on the first
// message whose content contains text.
func NewTextMention(text string) *TextMention {
	return &TextMention{text: text}
}

// Check implements Condition.
func (c *TextMention) Check(messages []core.Message) (*core.StopMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.terminated {
		return nil, ErrTerminatedCondition
	}

	for _, m := range messages {
		if strings.Contains(core.TextOf(m), c.text) {
			c.terminated = true
			stop := core.NewStopMessage("text_mention", "text '"+c.text+"' mentioned")
			return &stop, nil
		}
	}
	return nil, nil
}

// Terminated implements Condition.
func (c *TextMention) Terminated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.terminated
}

// Reset implements Condition.
func (c *TextMention) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.terminated = false
}

// Or combines conditions so the conversation stops when ANY of them fires.
type Or struct {
	conditions []Condition
}

// NewOr constructs an Or combinator over the given conditions.
func NewOr(conditions ...Condition) *Or {
	return &Or{conditions: conditions}
}

// Check implements Condition. Already-terminated children are skipped so a
// fired sibling does not poison subsequent checks.
func (c *Or) Check(messages []core.Message) (*core.StopMessage, error) {
	if c.Terminated() {
		return nil, ErrTerminatedCondition
	}
	for _, cond := range c.conditions {
		if cond.Terminated() {
			continue
		}
		stop, err := cond.Check(messages)
		if err != nil {
			return nil, err
		}
		if stop != nil {
			return stop, nil
		}
	}
	return nil, nil
}

// Terminated implements Condition.
func (c *Or) Terminated() bool {
	for _, cond := range c.conditions {
		if cond.Terminated() {
			return true
		}
	}
	return false
}

// Reset implements Condition.
func (c *Or) Reset() {
	for _, cond := range c.conditions {
		cond.Reset()
	}
}

// And combines conditions so the conversation stops only when ALL have fired.
type And struct {
	conditions []Condition
}

// NewAnd constructs an And combinator over the given conditions.
func NewAnd(conditions ...Condition) *And {
	return &And{conditions: conditions}
}

// Check implements Condition. The combined stop message aggregates the
// reasons of the individual conditions.
func (c *And) Check(messages []core.Message) (*core.StopMessage, error) {
	if c.Terminated() {
		return nil, ErrTerminatedCondition
	}
	if len(c.conditions) == 0 {
		return nil, nil
	}

	var reasons []string
	allFired := true
	for _, cond := range c.conditions {
		if cond.Terminated() {
			continue
		}
		stop, err := cond.Check(messages)
		if err != nil {
			return nil, err
		}
		if stop == nil {
			allFired = false
			continue
		}
		reasons = append(reasons, stop.Content)
	}

	if !allFired {
		return nil, nil
	}
	stop := core.NewStopMessage("and", strings.Join(reasons, "; "))
	return &stop, nil
}

// Terminated implements Condition.
func (c *And) Terminated() bool {
	for _, cond := range c.conditions {
		if !cond.Terminated() {
			return false
		}
	}
	return len(c.conditions) > 0
}

// Reset implements Condition.
func (c *And) Reset() {
	for _, cond := range c.conditions {
		cond.Reset()
	}
}
