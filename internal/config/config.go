package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config carries everything a single action invocation needs. It is built
// once at process start and handed to each component; nothing else reads the
// process environment.
type Config struct {
	GitHub struct {
		Token     string `koanf:"token"`
		Repo      string `koanf:"repo"`       // owner/name
		APIBase   string `koanf:"api_base"`   // override for GHES
		ServerURL string `koanf:"server_url"` // html links, e.g. https://github.com
		RunID     int64  `koanf:"run_id"`     // workflow run for the log link
		EventPath string `koanf:"event_path"` // payload JSON written by the runner
		EventName string `koanf:"event_name"`
	} `koanf:"github"`

	Letta struct {
		BaseURL string `koanf:"base_url"` // Letta server for friendly-name lookups
		APIKey  string `koanf:"api_key"`
		Binary  string `koanf:"binary"` // agent CLI executable
	} `koanf:"letta"`

	Trigger struct {
		Phrase  string `koanf:"phrase"` // e.g. "@letta-agent"
		AgentID string `koanf:"agent_id"`
		Model   string `koanf:"model"`
		CLIArgs string `koanf:"cli_args"` // raw user args forwarded to the agent CLI
	} `koanf:"trigger"`

	Run struct {
		Timeout        time.Duration `koanf:"timeout"`
		ShowFullOutput bool          `koanf:"show_full_output"`
		TranscriptDir  string        `koanf:"transcript_dir"`
		OutputsPath    string        `koanf:"outputs_path"` // GITHUB_OUTPUT file
	} `koanf:"run"`
}

// Load builds the configuration: defaults, then an optional TOML file, then
// LETTA_ACTION_* environment overrides. Later layers win.
func Load(configPath string) (*Config, error) {
	var k = koanf.New(".")

	k.Load(confmap.Provider(map[string]interface{}{
		"github.api_base":    "https://api.github.com",
		"github.server_url":  "https://github.com",
		"letta.base_url":     "https://api.letta.com",
		"letta.binary":       "letta",
		"trigger.phrase":     "@letta-agent",
		"run.timeout":        "30m",
		"run.transcript_dir": "letta-transcripts",
	}, "."), nil)

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./letta-action.toml", "$HOME/.letta-action.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	k.Load(env.Provider("LETTA_ACTION_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "LETTA_ACTION_")), "_", ".", 1)
	}), nil)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the fields the run cannot proceed without.
func Validate(cfg *Config) error {
	if cfg.GitHub.Token == "" {
		return fmt.Errorf("github token is required")
	}
	if cfg.GitHub.Repo == "" || !strings.Contains(cfg.GitHub.Repo, "/") {
		return fmt.Errorf("github repo must be owner/name, got %q", cfg.GitHub.Repo)
	}
	if cfg.GitHub.EventPath == "" {
		return fmt.Errorf("github event path is required")
	}
	if cfg.Trigger.Phrase == "" {
		return fmt.Errorf("trigger phrase is required")
	}
	return nil
}

// Owner and Name split the owner/name repo slug.
func (c *Config) Owner() string {
	owner, _, _ := strings.Cut(c.GitHub.Repo, "/")
	return owner
}

func (c *Config) Name() string {
	_, name, _ := strings.Cut(c.GitHub.Repo, "/")
	return name
}
