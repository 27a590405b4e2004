// Package state defines the snapshot contract used to capture, version and
// persist the conversational state of ChatMesh components (agents, teams and
// anything else implementing Saver/Loader). It provides:
//
//   - Self-describing snapshots (every snapshot carries a type discriminator
//     and a semantic version)
//   - Wrap/Unwrap helpers enforcing type identity and version compatibility
//   - Envelope validation via JSON Schema
//   - Pluggable stores (in-memory for tests, file-backed for durability)
//
// The package deliberately treats snapshot payloads as opaque beyond the
// envelope: the owning component defines the payload shape and is the only
// party that interprets it.
package state
