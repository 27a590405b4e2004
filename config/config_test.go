package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/chatmesh/core"
)

const validYAML = `
team:
  name: support
  kind: round_robin
  max_turns: 2
  termination:
    max_messages: 10
    text_mention: TERMINATE
agents:
  - name: alice
    description: answers questions
    provider: mock
  - name: bob
    provider: mock
    max_context_messages: 4
logging:
  level: warn
  format: text
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, "support", cfg.Team.Name)
	assert.Equal(t, KindRoundRobin, cfg.Team.Kind)
	assert.Equal(t, 2, cfg.Team.MaxTurns)
	require.NotNil(t, cfg.Team.Termination)
	assert.Equal(t, 10, cfg.Team.Termination.MaxMessages)
	assert.Equal(t, "TERMINATE", cfg.Team.Termination.TextMention)

	require.Len(t, cfg.Agents, 2)
	assert.Equal(t, "alice", cfg.Agents[0].Name)
	assert.Equal(t, "answers questions", cfg.Agents[0].Description)
	assert.Equal(t, 4, cfg.Agents[1].MaxContextMessages)

	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestParse_RejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte(`
team:
  name: support
  kind: round_robin
  max_turns: 1
  flavor: vanilla
agents:
  - name: alice
    provider: mock
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "flavor")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Team: TeamConfig{Name: "t", Kind: KindRoundRobin, MaxTurns: 1},
			Agents: []AgentConfig{
				{Name: "alice", Provider: ProviderMock},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing team name",
			mutate:  func(c *Config) { c.Team.Name = "" },
			wantErr: "team.name",
		},
		{
			name:    "missing kind",
			mutate:  func(c *Config) { c.Team.Kind = "" },
			wantErr: "team.kind",
		},
		{
			name:    "unknown kind",
			mutate:  func(c *Config) { c.Team.Kind = "free_for_all" },
			wantErr: "free_for_all",
		},
		{
			name:    "selector without selector section",
			mutate:  func(c *Config) { c.Team.Kind = KindSelector },
			wantErr: "team.selector",
		},
		{
			name: "unbounded run",
			mutate: func(c *Config) {
				c.Team.MaxTurns = 0
				c.Team.Termination = nil
			},
			wantErr: "max_turns",
		},
		{
			name: "termination bounds the run",
			mutate: func(c *Config) {
				c.Team.MaxTurns = 0
				c.Team.Termination = &TerminationConfig{TextMention: "DONE"}
			},
		},
		{
			name:    "no agents",
			mutate:  func(c *Config) { c.Agents = nil },
			wantErr: "at least one agent",
		},
		{
			name:    "missing agent name",
			mutate:  func(c *Config) { c.Agents[0].Name = "" },
			wantErr: "agents[0].name",
		},
		{
			name: "duplicate agent name",
			mutate: func(c *Config) {
				c.Agents = append(c.Agents, AgentConfig{Name: "alice", Provider: ProviderMock})
			},
			wantErr: "duplicate",
		},
		{
			name:    "unknown provider",
			mutate:  func(c *Config) { c.Agents[0].Provider = "acme" },
			wantErr: "acme",
		},
		{
			name: "temperature out of range",
			mutate: func(c *Config) {
				temp := 3.5
				c.Agents[0].Temperature = &temp
			},
			wantErr: "temperature",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "team.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "support", cfg.Team.Name)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestBuild_RoundRobin(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	tm, err := cfg.Build()
	require.NoError(t, err)
	assert.Equal(t, "support", tm.Name())

	result, err := tm.Run(context.Background(), "hello")
	require.NoError(t, err)

	// Task message plus one turn per agent.
	require.Len(t, result.Messages, 3)
	assert.Equal(t, "alice", core.SourceOf(result.Messages[1]))
	assert.Equal(t, "bob", core.SourceOf(result.Messages[2]))
}

func TestBuild_Selector(t *testing.T) {
	cfg, err := Parse([]byte(`
team:
  name: editorial
  kind: selector
  max_turns: 1
  selector:
    provider: mock
agents:
  - name: writer
    provider: mock
`))
	require.NoError(t, err)

	tm, err := cfg.Build()
	require.NoError(t, err)

	// The mock selector won't name a participant, so rotation picks writer.
	result, err := tm.Run(context.Background(), "go")
	require.NoError(t, err)
	require.Len(t, result.Messages, 2)
	assert.Equal(t, "writer", core.SourceOf(result.Messages[1]))
}

func TestLoadEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dev.env")
	require.NoError(t, os.WriteFile(path, []byte("CHATMESH_TEST_KEY=abc\n"), 0o644))

	t.Setenv("CHATMESH_TEST_KEY", "")
	require.NoError(t, os.Unsetenv("CHATMESH_TEST_KEY"))

	require.NoError(t, LoadEnv(path))
	assert.Equal(t, "abc", os.Getenv("CHATMESH_TEST_KEY"))
}
