// Package model defines the minimal language model abstraction used by
// ChatMesh agents, plus supporting implementations: a deterministic mock for
// tests and examples, and a retry decorator for transient provider failures.
// Provider adapters live in subpackages (anthropic, openai).
//
// The Message type doubles as the serializable unit of an agent's model
// context: it is exactly what AssistantAgent snapshots export as
// llm_messages, so it must remain stable under JSON round-trips.
package model
