package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mchmarny/trustchain/pkg/cache"
	"github.com/mchmarny/trustchain/pkg/config"
	"github.com/mchmarny/trustchain/pkg/fetch"
	"github.com/mchmarny/trustchain/pkg/logging"
	"github.com/mchmarny/trustchain/pkg/model"
	"github.com/mchmarny/trustchain/pkg/net"
	"github.com/mchmarny/trustchain/pkg/reputation"
	"github.com/mchmarny/trustchain/pkg/score"
	urfave "github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName      = "trustchain"
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"

	debugFlagName     = "debug"
	configFlagName    = "config"
	formatFlagName    = "format"
	logFormatFlagName = "log-format"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.Init("info", logging.FormatCLI)

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	Config *config.Config
	Model  *model.Model
	Format string
	Cache  *cache.Reputation
}

func getConfig(cmd *urfave.Command) *appConfig {
	return cmd.Root().Metadata[appConfigKey].(*appConfig)
}

func newApp() *urfave.Command {
	return &urfave.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Reputation scores from code-hosting and on-chain activity",
		Metadata:              map[string]any{},
		Flags: []urfave.Flag{
			&urfave.BoolFlag{
				Name:  debugFlagName,
				Usage: "Prints verbose logs (optional, default: false)",
			},
			&urfave.StringFlag{
				Name:    configFlagName,
				Usage:   "Path to the config file (default: ~/.trustchain/config.yaml)",
				Sources: urfave.EnvVars("TRUSTCHAIN_CONFIG"),
			},
			&urfave.StringFlag{
				Name:  formatFlagName,
				Usage: "Output format [json, yaml]",
				Value: formatJSON,
			},
			&urfave.StringFlag{
				Name:  logFormatFlagName,
				Usage: "Log format [cli, text, json]",
				Value: logging.FormatCLI,
			},
		},
		Commands: []*urfave.Command{
			newScoreCmd(),
			newSignalCmd(),
			newModelCmd(),
			newAuthCmd(),
			newServerCmd(),
		},
		Before: func(ctx context.Context, cmd *urfave.Command) (context.Context, error) {
			level := "info"
			if cmd.Bool(debugFlagName) {
				level = "debug"
			}
			logging.Init(level, cmd.String(logFormatFlagName))

			config.LoadDotEnv()

			cfg, err := loadConfig(cmd.String(configFlagName))
			if err != nil {
				return ctx, fmt.Errorf("loading config: %w", err)
			}

			// the embedded model must decode before anything else runs
			m, err := model.Default()
			if err != nil {
				return ctx, fmt.Errorf("loading model: %w", err)
			}
			slog.Debug("model loaded", "features", len(m.Weights()))

			format := formatJSON
			if f := cmd.String(formatFlagName); f == formatYAML || f == "yml" {
				format = formatYAML
			}

			cmd.Metadata[appConfigKey] = &appConfig{
				Config: cfg,
				Model:  m,
				Format: format,
				Cache:  cache.New(),
			}
			return ctx, nil
		},
	}
}

func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if path != "" {
		cfg, err = config.Load(path)
	} else {
		var dir string
		dir, err = config.GetOrCreateHomeDir(appName)
		if err != nil {
			return nil, fmt.Errorf("getting home dir: %w", err)
		}
		cfg, err = config.ReadOrCreate(dir)
	}
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}
	return cfg, nil
}

func budget(cfg *config.Config) net.Budget {
	return net.Budget{
		Timeout:  cfg.Timeout,
		MaxBytes: cfg.MaxBytes,
	}
}

func newGitHubFetcher(ctx context.Context, cfg *config.Config) *fetch.GitHub {
	client := net.NewClient(ctx, cfg.GitHub.Token, budget(cfg))
	return fetch.NewGitHub(client, cfg.GitHub.URL)
}

func newChainFetcher(ctx context.Context, cfg *config.Config) *fetch.Chain {
	client := net.NewClient(ctx, "", budget(cfg))
	return fetch.NewChain(client, cfg.Chain.URL, cfg.Chain.Token, time.Now)
}

func newService(ctx context.Context, ac *appConfig) (*reputation.Service, error) {
	if ac == nil || ac.Config == nil {
		return nil, errors.New("config not initialized")
	}
	cfg := ac.Config

	opts := []reputation.Option{
		reputation.WithCalculator(&score.Calculator{
			GitHubWeight: cfg.Weights.GitHub,
			ChainWeight:  cfg.Weights.Chain,
		}),
	}
	if cfg.StrictIdentity {
		opts = append(opts, reputation.WithStrictIdentity())
	}

	return reputation.NewService(
		newGitHubFetcher(ctx, cfg),
		newChainFetcher(ctx, cfg),
		ac.Cache,
		opts...,
	)
}

func encode(w io.Writer, format string, v any) error {
	if format == formatYAML {
		return yaml.NewEncoder(w).Encode(v)
	}
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	return e.Encode(v)
}

func printResult(cmd *urfave.Command, v any) error {
	if err := encode(cmd.Root().Writer, getConfig(cmd).Format, v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return nil
}
