// Package core provides the foundational domain types and interfaces used by
// ChatMesh. It defines the core abstractions for:
//
//   - Messages (immutable conversational records with a closed type set and
//     a stable JSON envelope for persistence)
//   - Agents (stateful conversational units receiving only new messages per
//     turn and exporting/restoring their state as snapshots)
//   - Responses and task results produced by agent and team runs
//
// The package intentionally keeps implementation concerns (model providers,
// team orchestration, persistence backends) out of scope, exposing small
// interfaces to enable custom agents and extensions.
package core
