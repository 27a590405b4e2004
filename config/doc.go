// Package config loads declarative team definitions from YAML and builds the
// corresponding agents, models and team orchestrator. It exists so the CLI
// and embedding applications can describe a team in a file instead of wiring
// constructors by hand.
package config
