package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mchmarny/trustchain/pkg/auth"
	"github.com/mchmarny/trustchain/pkg/secrets"
	urfave "github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const (
	githubTokenFlagName = "github-token"
	chainKeyFlagName    = "etherscan-key"
	clearFlagName       = "clear"
	deviceFlagName      = "device"
	clientIDFlagName    = "client-id"
)

func newAuthCmd() *urfave.Command {
	return &urfave.Command{
		Name:            "auth",
		HideHelpCommand: true,
		Usage:           "Store upstream API credentials in the OS keychain",
		Action:          cmdAuth,
		Flags: []urfave.Flag{
			&urfave.StringFlag{
				Name:  githubTokenFlagName,
				Usage: "GitHub API token used for event requests",
			},
			&urfave.StringFlag{
				Name:  chainKeyFlagName,
				Usage: "Chain explorer API key",
			},
			&urfave.BoolFlag{
				Name:  clearFlagName,
				Usage: "Remove stored credentials",
			},
			&urfave.BoolFlag{
				Name:  deviceFlagName,
				Usage: "Obtain the GitHub token through the browser device flow",
			},
			&urfave.StringFlag{
				Name:    clientIDFlagName,
				Usage:   "GitHub OAuth app client ID used by the device flow",
				Sources: urfave.EnvVars("TRUSTCHAIN_GITHUB_CLIENT_ID"),
			},
		},
	}
}

// AuthResult lists the credentials changed by the auth command.
type AuthResult struct {
	Saved   []string `json:"saved,omitempty" yaml:"saved,omitempty"`
	Removed []string `json:"removed,omitempty" yaml:"removed,omitempty"`
}

func cmdAuth(ctx context.Context, cmd *urfave.Command) error {
	res := &AuthResult{}

	if cmd.Bool(clearFlagName) {
		for _, name := range []string{secrets.GitHubToken, secrets.ChainAPIKey} {
			if err := secrets.Delete(name); err != nil {
				return err
			}
			res.Removed = append(res.Removed, name)
		}
		return printResult(cmd, res)
	}

	values := map[string]string{
		secrets.GitHubToken: cmd.String(githubTokenFlagName),
		secrets.ChainAPIKey: cmd.String(chainKeyFlagName),
	}

	if cmd.Bool(deviceFlagName) {
		tok, err := deviceToken(ctx, cmd)
		if err != nil {
			return err
		}
		values[secrets.GitHubToken] = tok
	}

	for _, name := range []string{secrets.GitHubToken, secrets.ChainAPIKey} {
		v := values[name]
		if v == "" {
			continue
		}
		if err := secrets.Set(name, v); err != nil {
			return fmt.Errorf("storing credential: %w", err)
		}
		res.Saved = append(res.Saved, name)
	}

	if len(res.Saved) == 0 {
		return urfave.ShowSubcommandHelp(cmd)
	}

	slog.Debug("credentials saved", "count", len(res.Saved))
	return printResult(cmd, res)
}

func deviceToken(ctx context.Context, cmd *urfave.Command) (string, error) {
	flow, err := auth.NewDeviceFlow(cmd.String(clientIDFlagName))
	if err != nil {
		return "", fmt.Errorf("creating device flow: %w", err)
	}

	w := cmd.Root().ErrWriter
	tok, err := flow.Token(ctx, func(code *oauth2.DeviceAuthResponse) error {
		_, err := fmt.Fprintf(w, "1). Copy this code: %s\n2). Navigate to this URL in your browser to authenticate: %s\n",
			code.UserCode, code.VerificationURI)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("authenticating to GitHub: %w", err)
	}
	return tok, nil
}
