package cli

import (
	"context"
	"fmt"

	urfave "github.com/urfave/cli/v3"
)

const (
	handleFlagName  = "handle"
	addressFlagName = "address"
)

func newHandleFlag() *urfave.StringFlag {
	return &urfave.StringFlag{
		Name:     handleFlagName,
		Usage:    "GitHub handle whose public push activity is scored",
		Required: true,
	}
}

func newAddressFlag() *urfave.StringFlag {
	return &urfave.StringFlag{
		Name:     addressFlagName,
		Usage:    "Account address whose transactions are scored; also the cache identity",
		Required: true,
	}
}

func newScoreCmd() *urfave.Command {
	return &urfave.Command{
		Name:    "score",
		Aliases: []string{"s"},
		Usage:   "Compute the reputation score for a handle and address",
		Action:  cmdScore,
		Flags: []urfave.Flag{
			newHandleFlag(),
			newAddressFlag(),
		},
	}
}

func newSignalCmd() *urfave.Command {
	return &urfave.Command{
		Name:            "signal",
		HideHelpCommand: true,
		Usage:           "Fetch a single raw activity signal",
		Commands: []*urfave.Command{
			{
				Name:   "github",
				Usage:  "Fetch push activity for a GitHub handle",
				Action: cmdSignalGitHub,
				Flags:  []urfave.Flag{newHandleFlag()},
			},
			{
				Name:   "chain",
				Usage:  "Fetch recent transaction activity for an address",
				Action: cmdSignalChain,
				Flags:  []urfave.Flag{newAddressFlag()},
			},
		},
	}
}

func cmdScore(ctx context.Context, cmd *urfave.Command) error {
	svc, err := newService(ctx, getConfig(cmd))
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}

	return printResult(cmd, svc.UpdateReputationScore(ctx, cmd.String(handleFlagName), cmd.String(addressFlagName)))
}

func cmdSignalGitHub(ctx context.Context, cmd *urfave.Command) error {
	f := newGitHubFetcher(ctx, getConfig(cmd).Config)
	return printResult(cmd, f.Fetch(ctx, cmd.String(handleFlagName)))
}

func cmdSignalChain(ctx context.Context, cmd *urfave.Command) error {
	f := newChainFetcher(ctx, getConfig(cmd).Config)
	return printResult(cmd, f.Fetch(ctx, cmd.String(addressFlagName)))
}
