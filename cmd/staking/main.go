// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/tierstake/tierstake/log"
)

var (
	version   string
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "cmd")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fullVersion()
	app.Name = "staking"
	app.Usage = "Tiered time-locked staking ledger"
	app.Flags = []cli.Flag{
		dataDirFlag,
		cacheFlag,
		verbosityFlag,
		jsonLogsFlag,
		nowFlag,
		ntpServerFlag,
	}
	app.Before = func(ctx *cli.Context) error {
		initLogger(ctx)
		return nil
	}

	poolFlags := []cli.Flag{poolFlag, authorityFlag}
	app.Commands = []cli.Command{
		{
			Name:   "init",
			Usage:  "create a pool with its vaults from a tier configuration",
			Flags:  []cli.Flag{poolFlag, authorityFlag, payerFlag, configFlag},
			Action: withInstance(initAction),
		},
		{
			Name:      "fund",
			Usage:     "mint tokens and airdrop lamports to an address",
			ArgsUsage: "<address>",
			Flags:     []cli.Flag{tokensFlag, lamportsFlag},
			Action:    withInstance(fundAction),
		},
		{
			Name:   "create-user",
			Usage:  "create the user record of an authority",
			Flags:  poolFlags,
			Action: withInstance(createUserAction),
		},
		{
			Name:   "stake",
			Usage:  "stake into a tier slot",
			Flags:  []cli.Flag{poolFlag, authorityFlag, fromFlag, tierFlag},
			Action: withInstance(stakeAction),
		},
		{
			Name:   "claim",
			Usage:  "claim vested rewards",
			Flags:  []cli.Flag{poolFlag, authorityFlag, toFlag},
			Action: withInstance(claimAction),
		},
		{
			Name:   "unstake",
			Usage:  "return the stake of an unlocked tier",
			Flags:  []cli.Flag{poolFlag, authorityFlag, toFlag, tierFlag},
			Action: withInstance(unstakeAction),
		},
		{
			Name:   "pause",
			Usage:  "pause the pool",
			Flags:  poolFlags,
			Action: withInstance(lifecycleAction("pause")),
		},
		{
			Name:   "unpause",
			Usage:  "unpause the pool",
			Flags:  poolFlags,
			Action: withInstance(lifecycleAction("unpause")),
		},
		{
			Name:   "close",
			Usage:  "close the pool to new stakes",
			Flags:  poolFlags,
			Action: withInstance(lifecycleAction("close")),
		},
		{
			Name:   "open",
			Usage:  "reopen a closed pool",
			Flags:  poolFlags,
			Action: withInstance(lifecycleAction("open")),
		},
		{
			Name:      "withdraw",
			Usage:     "withdraw vault funds in excess of the pool obligations",
			ArgsUsage: "<address>",
			Flags:     poolFlags,
			Action:    withInstance(withdrawAction),
		},
		{
			Name:      "free",
			Usage:     "delete every user record and the pool, refunding deposits",
			ArgsUsage: "<receiver>",
			Flags:     poolFlags,
			Action:    withInstance(freeAction),
		},
		{
			Name:   "status",
			Usage:  "print a pool, or a user record with --user",
			Flags:  []cli.Flag{poolFlag, userFlag},
			Action: withInstance(statusAction),
		},
		{
			Name:  "serve",
			Usage: "serve the read-only HTTP API",
			Flags: []cli.Flag{
				apiAddrFlag,
				apiCorsFlag,
				apiEventsLimitFlag,
				enableAPILogsFlag,
				apiSlowQueriesThresholdFlag,
				enableMetricsFlag,
			},
			Action: serveAction,
		},
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
