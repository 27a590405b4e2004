// Package agent contains first-class chat agent implementations for
// ChatMesh. The package focuses on two concerns:
//
//  1. Identity + default state plumbing (BaseAgent)
//  2. A model-backed conversational agent (AssistantAgent)
//
// Design principles:
//   - Stateful turns: agents receive only new messages per call and keep
//     whatever context they need internally
//   - Durable by contract: everything an agent accumulates is exported by
//     SaveState and restored by LoadState, so an agent rebuilt from a
//     snapshot continues seamlessly
//   - Extensibility: embed BaseAgent, implement OnMessages, and override
//     the state methods when the agent carries state
package agent
