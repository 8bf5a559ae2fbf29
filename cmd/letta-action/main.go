package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/letta-ai/letta-github-action/internal/action"
	"github.com/letta-ai/letta-github-action/internal/config"
	"github.com/letta-ai/letta-github-action/internal/logging"
)

func main() {
	app := &cli.App{
		Name:  "letta-action",
		Usage: "summon a persistent Letta agent into a GitHub issue or PR conversation",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "path to a TOML config file",
			},
			&cli.StringFlag{
				Name:    "github-token",
				Usage:   "token for GitHub API access",
				EnvVars: []string{"GITHUB_TOKEN"},
			},
			&cli.StringFlag{
				Name:    "repo",
				Usage:   "repository as owner/name",
				EnvVars: []string{"GITHUB_REPOSITORY"},
			},
			&cli.StringFlag{
				Name:    "event-name",
				Usage:   "workflow event name",
				EnvVars: []string{"GITHUB_EVENT_NAME"},
			},
			&cli.StringFlag{
				Name:    "event-path",
				Usage:   "path to the event payload JSON",
				EnvVars: []string{"GITHUB_EVENT_PATH"},
			},
			&cli.Int64Flag{
				Name:    "run-id",
				Usage:   "workflow run id, used for the run log link",
				EnvVars: []string{"GITHUB_RUN_ID"},
			},
			&cli.StringFlag{
				Name:    "outputs-path",
				Usage:   "file to write step outputs into",
				EnvVars: []string{"GITHUB_OUTPUT"},
			},
			&cli.StringFlag{
				Name:    "trigger-phrase",
				Usage:   "phrase that summons the agent, e.g. @letta-agent",
				EnvVars: []string{"INPUT_TRIGGER_PHRASE"},
			},
			&cli.StringFlag{
				Name:    "agent-id",
				Usage:   "pinned agent id; discovered conversations of other agents are ignored",
				EnvVars: []string{"INPUT_AGENT_ID"},
			},
			&cli.StringFlag{
				Name:    "model",
				Usage:   "model handle passed to the agent CLI",
				EnvVars: []string{"INPUT_MODEL"},
			},
			&cli.StringFlag{
				Name:    "cli-args",
				Usage:   "extra arguments forwarded to the agent CLI",
				EnvVars: []string{"INPUT_CLI_ARGS"},
			},
			&cli.StringFlag{
				Name:    "letta-api-key",
				Usage:   "API key for the Letta server",
				EnvVars: []string{"LETTA_API_KEY"},
			},
			&cli.BoolFlag{
				Name:    "show-full-output",
				Usage:   "relay every agent event line to the workflow log",
				EnvVars: []string{"INPUT_SHOW_FULL_OUTPUT"},
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				EnvVars: []string{"RUNNER_DEBUG"},
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return err
	}

	// Runner-provided and workflow-input values override the file/env layers.
	applyFlag := func(dst *string, name string) {
		if v := c.String(name); v != "" {
			*dst = v
		}
	}
	applyFlag(&cfg.GitHub.Token, "github-token")
	applyFlag(&cfg.GitHub.Repo, "repo")
	applyFlag(&cfg.GitHub.EventName, "event-name")
	applyFlag(&cfg.GitHub.EventPath, "event-path")
	applyFlag(&cfg.Run.OutputsPath, "outputs-path")
	applyFlag(&cfg.Trigger.Phrase, "trigger-phrase")
	applyFlag(&cfg.Trigger.AgentID, "agent-id")
	applyFlag(&cfg.Trigger.Model, "model")
	applyFlag(&cfg.Trigger.CLIArgs, "cli-args")
	applyFlag(&cfg.Letta.APIKey, "letta-api-key")
	if v := c.Int64("run-id"); v != 0 {
		cfg.GitHub.RunID = v
	}
	if c.Bool("show-full-output") {
		cfg.Run.ShowFullOutput = true
	}

	if err := config.Validate(cfg); err != nil {
		return err
	}

	logger := logging.New(os.Stderr, c.Bool("debug"))
	return action.Run(context.Background(), cfg, logger)
}
