// Package team provides multi-agent orchestration with durable
// conversational state. A team coordinates a fixed set of participants over
// a shared message thread: each turn one speaker receives the messages it
// has not yet seen, produces a reply, and the reply is delivered to everyone
// else. Termination conditions and turn budgets bound the run.
//
// Teams are durable by contract: SaveState captures the shared thread, the
// per-participant delivery buffers, turn bookkeeping and every participant's
// own snapshot, keyed by participant name. LoadState restores all of it, so
// a freshly constructed team resumes the persisted conversation exactly
// where it stopped.
//
// Two speaker policies ship with the package: RoundRobinTeam (fixed
// rotation) and SelectorTeam (a model picks the next speaker). Both honor
// handoff messages addressed to a named participant.
package team
