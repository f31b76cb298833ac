// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"

	"github.com/tierstake/tierstake/log"
)

var (
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for ledger and event databases",
	}
	cacheFlag = cli.IntFlag{
		Name:  "cache",
		Value: 128,
		Usage: "megabytes of ram allocated to the ledger database cache",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: log.LvlInfo,
		Usage: "log verbosity (0-5)",
	}
	jsonLogsFlag = cli.BoolFlag{
		Name:  "json-logs",
		Usage: "output logs in JSON format",
	}
	nowFlag = cli.Uint64Flag{
		Name:  "now",
		Usage: "override the clock with a unix timestamp",
	}
	ntpServerFlag = cli.StringFlag{
		Name:  "ntp-server",
		Usage: "correct the local clock against the given NTP server",
	}

	poolFlag = cli.StringFlag{
		Name:  "pool",
		Usage: "pool address",
	}
	authorityFlag = cli.StringFlag{
		Name:  "authority",
		Usage: "signing authority address",
	}
	payerFlag = cli.StringFlag{
		Name:  "payer",
		Usage: "address paying account deposits (defaults to the authority)",
	}
	fromFlag = cli.StringFlag{
		Name:  "from",
		Usage: "token account to stake from (defaults to the authority)",
	}
	toFlag = cli.StringFlag{
		Name:  "to",
		Usage: "token account to pay out to (defaults to the authority)",
	}
	tierFlag = cli.StringFlag{
		Name:  "tier",
		Usage: "reward tier (Tier500|Tier1000|Tier1500)",
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to the YAML tier configuration",
	}
	userFlag = cli.StringFlag{
		Name:  "user",
		Usage: "show the user record of this authority",
	}
	tokensFlag = cli.Uint64Flag{
		Name:  "tokens",
		Usage: "tokens to mint",
	}
	lamportsFlag = cli.Uint64Flag{
		Name:  "lamports",
		Usage: "lamports to airdrop for account deposits",
	}

	apiAddrFlag = cli.StringFlag{
		Name:  "api-addr",
		Value: "localhost:8680",
		Usage: "API service listening address",
	}
	apiCorsFlag = cli.StringFlag{
		Name:  "api-cors",
		Value: "",
		Usage: "comma separated list of domains from which to accept cross origin requests to API",
	}
	apiEventsLimitFlag = cli.Uint64Flag{
		Name:  "api-events-limit",
		Value: 1000,
		Usage: "limit the number of events returned by a single query",
	}
	enableAPILogsFlag = cli.BoolFlag{
		Name:  "enable-api-logs",
		Usage: "enables API requests logging",
	}
	apiSlowQueriesThresholdFlag = cli.Uint64Flag{
		Name:  "api-slow-queries-threshold",
		Usage: "all queries with duration (ms) above the threshold will be logged",
	}
	enableMetricsFlag = cli.BoolFlag{
		Name:  "enable-metrics",
		Usage: "enables metrics collection and the /metrics endpoint",
	}
)
