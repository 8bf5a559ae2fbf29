package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.github.com", cfg.GitHub.APIBase)
	assert.Equal(t, "https://github.com", cfg.GitHub.ServerURL)
	assert.Equal(t, "https://api.letta.com", cfg.Letta.BaseURL)
	assert.Equal(t, "letta", cfg.Letta.Binary)
	assert.Equal(t, "@letta-agent", cfg.Trigger.Phrase)
	assert.Equal(t, 30*time.Minute, cfg.Run.Timeout)
	assert.Equal(t, "letta-transcripts", cfg.Run.TranscriptDir)
}

func TestLoadTOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "letta-action.toml")
	content := `
[github]
repo = "octo/repo"

[trigger]
phrase = "@bot"
agent_id = "ag-configured"

[run]
timeout = "5m"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "octo/repo", cfg.GitHub.Repo)
	assert.Equal(t, "@bot", cfg.Trigger.Phrase)
	assert.Equal(t, "ag-configured", cfg.Trigger.AgentID)
	assert.Equal(t, 5*time.Minute, cfg.Run.Timeout)
	// Defaults survive where the file is silent.
	assert.Equal(t, "https://api.github.com", cfg.GitHub.APIBase)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "letta-action.toml")
	require.NoError(t, os.WriteFile(path, []byte("[trigger]\nphrase = \"@file\"\n"), 0644))

	t.Setenv("LETTA_ACTION_TRIGGER_PHRASE", "@env")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "@env", cfg.Trigger.Phrase)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load("")
		require.NoError(t, err)
		cfg.GitHub.Token = "tok"
		cfg.GitHub.Repo = "octo/repo"
		cfg.GitHub.EventPath = "/tmp/event.json"
		return cfg
	}

	assert.NoError(t, Validate(valid()))

	cfg := valid()
	cfg.GitHub.Token = ""
	assert.Error(t, Validate(cfg))

	cfg = valid()
	cfg.GitHub.Repo = "no-slash"
	assert.Error(t, Validate(cfg))

	cfg = valid()
	cfg.GitHub.EventPath = ""
	assert.Error(t, Validate(cfg))

	cfg = valid()
	cfg.Trigger.Phrase = ""
	assert.Error(t, Validate(cfg))
}

func TestOwnerName(t *testing.T) {
	var cfg Config
	cfg.GitHub.Repo = "octo/repo"
	assert.Equal(t, "octo", cfg.Owner())
	assert.Equal(t, "repo", cfg.Name())
}
