package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/chatmesh/agent"
	"github.com/hupe1980/chatmesh/core"
	"github.com/hupe1980/chatmesh/logging"
	"github.com/hupe1980/chatmesh/model"
	"github.com/hupe1980/chatmesh/model/anthropic"
	"github.com/hupe1980/chatmesh/model/openai"
	"github.com/hupe1980/chatmesh/team"
	"github.com/hupe1980/chatmesh/termination"
)

// ErrInvalidConfig is returned (wrapped with the offending field) when a
// configuration fails validation.
var ErrInvalidConfig = errors.New("invalid config")

// Team kinds accepted by TeamConfig.Kind.
const (
	KindRoundRobin = "round_robin"
	KindSelector   = "selector"
)

// Model providers accepted by AgentConfig.Provider and SelectorConfig.Provider.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderMock      = "mock"
)

// Config is the root of a team definition file.
type Config struct {
	Team    TeamConfig    `yaml:"team"`
	Agents  []AgentConfig `yaml:"agents"`
	Logging LoggingConfig `yaml:"logging"`
}

// TeamConfig describes the orchestrator.
type TeamConfig struct {
	Name        string             `yaml:"name"`
	Kind        string             `yaml:"kind"`
	MaxTurns    int                `yaml:"max_turns"`
	Selector    *SelectorConfig    `yaml:"selector,omitempty"`
	Termination *TerminationConfig `yaml:"termination,omitempty"`
}

// SelectorConfig names the model used to pick the next speaker when
// Kind is "selector".
type SelectorConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// TerminationConfig describes when a run should stop. Multiple conditions
// combine with OR semantics: the first one that fires ends the run.
type TerminationConfig struct {
	MaxMessages int    `yaml:"max_messages,omitempty"`
	TextMention string `yaml:"text_mention,omitempty"`
}

// AgentConfig describes a single assistant participant.
type AgentConfig struct {
	Name               string   `yaml:"name"`
	Description        string   `yaml:"description,omitempty"`
	SystemMessage      string   `yaml:"system_message,omitempty"`
	Provider           string   `yaml:"provider"`
	Model              string   `yaml:"model,omitempty"`
	Temperature        *float64 `yaml:"temperature,omitempty"`
	MaxContextMessages int      `yaml:"max_context_messages,omitempty"`
	Streaming          bool     `yaml:"streaming,omitempty"`
}

// LoggingConfig selects log verbosity and output format.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`  // debug, info, warn, error
	Format string `yaml:"format,omitempty"` // json, text, pretty
}

// LoadEnv loads environment variables from the given dotenv files. With no
// arguments it tries ".env" and silently ignores its absence, so API keys
// can live next to the config file during development.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load .env: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

// Load reads and validates a YAML team definition.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML team definition.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for structural problems, reporting the
// offending field in the error.
func (c *Config) Validate() error {
	if c.Team.Name == "" {
		return fmt.Errorf("%w: team.name is required", ErrInvalidConfig)
	}

	switch c.Team.Kind {
	case KindRoundRobin:
	case KindSelector:
		if c.Team.Selector == nil {
			return fmt.Errorf("%w: team.selector is required for kind %q", ErrInvalidConfig, KindSelector)
		}
		if err := validProvider(c.Team.Selector.Provider); err != nil {
			return fmt.Errorf("%w: team.selector.provider: %v", ErrInvalidConfig, err)
		}
	case "":
		return fmt.Errorf("%w: team.kind is required (round_robin or selector)", ErrInvalidConfig)
	default:
		return fmt.Errorf("%w: team.kind: unsupported kind %q", ErrInvalidConfig, c.Team.Kind)
	}

	hasTermination := c.Team.Termination != nil &&
		(c.Team.Termination.MaxMessages > 0 || c.Team.Termination.TextMention != "")
	if c.Team.MaxTurns <= 0 && !hasTermination {
		return fmt.Errorf("%w: team.max_turns or team.termination must bound the run", ErrInvalidConfig)
	}

	if len(c.Agents) == 0 {
		return fmt.Errorf("%w: at least one agent is required", ErrInvalidConfig)
	}

	seen := map[string]bool{}
	for i, a := range c.Agents {
		if a.Name == "" {
			return fmt.Errorf("%w: agents[%d].name is required", ErrInvalidConfig, i)
		}
		if seen[a.Name] {
			return fmt.Errorf("%w: agents[%d].name: duplicate name %q", ErrInvalidConfig, i, a.Name)
		}
		seen[a.Name] = true

		if err := validProvider(a.Provider); err != nil {
			return fmt.Errorf("%w: agents[%d].provider: %v", ErrInvalidConfig, i, err)
		}
		if a.Temperature != nil && (*a.Temperature < 0 || *a.Temperature > 2) {
			return fmt.Errorf("%w: agents[%d].temperature must be within [0, 2]", ErrInvalidConfig, i)
		}
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: logging.level: unsupported level %q", ErrInvalidConfig, c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "json", "text", "pretty":
	default:
		return fmt.Errorf("%w: logging.format: unsupported format %q", ErrInvalidConfig, c.Logging.Format)
	}

	return nil
}

func validProvider(p string) error {
	switch p {
	case ProviderAnthropic, ProviderOpenAI, ProviderMock:
		return nil
	case "":
		return errors.New("provider is required")
	default:
		return fmt.Errorf("unsupported provider %q", p)
	}
}

// BuildOptions configures team construction from a Config.
type BuildOptions struct {
	// Logger overrides the logger derived from the logging section.
	Logger logging.Logger
}

// Build constructs the configured team: one assistant agent per agents entry,
// models wrapped with retry, termination assembled from the termination
// section.
func (c *Config) Build(optFns ...func(o *BuildOptions)) (team.Team, error) {
	opts := BuildOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = c.Logging.NewLogger()
	}

	participants := make([]core.Agent, 0, len(c.Agents))
	for _, a := range c.Agents {
		llm, err := buildModel(a.Provider, a.Model, a.Temperature, a.Name)
		if err != nil {
			return nil, fmt.Errorf("agent %s: %w", a.Name, err)
		}

		ac := a
		participants = append(participants, agent.NewAssistantAgent(a.Name, llm, func(o *agent.AssistantAgentOptions) {
			o.Description = ac.Description
			if ac.SystemMessage != "" {
				o.SystemMessage = ac.SystemMessage
			}
			o.MaxContextMessages = ac.MaxContextMessages
			o.EnableStreaming = ac.Streaming
		}))
	}

	teamOpts := func(o *team.Options) {
		o.MaxTurns = c.Team.MaxTurns
		o.Logger = logger
		if cond := c.Team.Termination.build(); cond != nil {
			o.Termination = cond
		}
	}

	switch c.Team.Kind {
	case KindSelector:
		llm, err := buildModel(c.Team.Selector.Provider, c.Team.Selector.Model, nil, "selector")
		if err != nil {
			return nil, fmt.Errorf("selector model: %w", err)
		}
		return team.NewSelectorTeam(c.Team.Name, llm, participants, teamOpts)
	default:
		return team.NewRoundRobinTeam(c.Team.Name, participants, teamOpts)
	}
}

// NewLogger derives a logger from the logging section, defaulting to
// info-level text output.
func (lc LoggingConfig) NewLogger() logging.Logger {
	level := logging.LogLevelInfo
	switch lc.Level {
	case "debug":
		level = logging.LogLevelDebug
	case "warn":
		level = logging.LogLevelWarn
	case "error":
		level = logging.LogLevelError
	}

	format := lc.Format
	if format == "" {
		format = "text"
	}

	return logging.NewLogger(&logging.LoggerConfig{
		Level:  level,
		Format: format,
		Output: os.Stderr,
	})
}

// build assembles the termination condition, OR-combining the configured
// clauses. Returns nil when no clause is configured.
func (tc *TerminationConfig) build() termination.Condition {
	if tc == nil {
		return nil
	}

	var conds []termination.Condition
	if tc.MaxMessages > 0 {
		conds = append(conds, termination.NewMaxMessages(tc.MaxMessages))
	}
	if tc.TextMention != "" {
		conds = append(conds, termination.NewTextMention(tc.TextMention))
	}

	switch len(conds) {
	case 0:
		return nil
	case 1:
		return conds[0]
	default:
		return termination.NewOr(conds...)
	}
}

func buildModel(provider, modelID string, temperature *float64, mockName string) (model.Model, error) {
	var m model.Model
	switch provider {
	case ProviderAnthropic:
		m = anthropic.NewModel(func(o *anthropic.Options) {
			if modelID != "" {
				o.Model = anthropicsdk.Model(modelID)
			}
			if temperature != nil {
				o.Temperature = *temperature
			}
		})
	case ProviderOpenAI:
		m = openai.NewModel(func(o *openai.Options) {
			if modelID != "" {
				o.Model = modelID
			}
			if temperature != nil {
				o.Temperature = *temperature
			}
		})
	case ProviderMock:
		m = model.NewMockModel(mockName)
		return m, nil // deterministic, nothing transient to retry
	default:
		return nil, fmt.Errorf("unsupported provider %q", provider)
	}

	return model.WithRetry(m), nil
}
