// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/beevik/ntp"
	"github.com/elastic/gosigar"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/tierstake/tierstake/eventdb"
	"github.com/tierstake/tierstake/ident"
	"github.com/tierstake/tierstake/ledger"
	"github.com/tierstake/tierstake/log"
	"github.com/tierstake/tierstake/lvldb"
	"github.com/tierstake/tierstake/staking"
	"github.com/tierstake/tierstake/staking/tier"
)

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		return filepath.Join(home, ".tierstake")
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

func initLogger(ctx *cli.Context) {
	lvl := &slog.LevelVar{}
	lvl.Set(log.FromLegacyLevel(ctx.GlobalInt(verbosityFlag.Name)))

	var handler slog.Handler
	switch {
	case ctx.GlobalBool(jsonLogsFlag.Name):
		handler = log.JSONHandlerWithLevel(os.Stderr, lvl)
	case isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()):
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, lvl, true)
	default:
		handler = log.LogfmtHandlerWithLevel(os.Stderr, lvl)
	}
	log.SetDefault(log.NewLogger(handler))
}

// normalizeCacheSize caps the database cache at half of the physical memory.
func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 16 {
		sizeMB = 16
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Warn("failed to get total mem", "err", err)
	} else {
		limitMB := int(mem.Total / 1024 / 1024 / 2)
		if sizeMB > limitMB {
			sizeMB = limitMB
			logger.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

// instance bundles the opened databases and the services built on them.
type instance struct {
	mainDB  *lvldb.LevelDB
	eventDB *eventdb.EventDB
	ledger  *ledger.Ledger
	staker  *staking.Staker
}

func openInstance(ctx *cli.Context) (*instance, error) {
	dataDir := ctx.GlobalString(dataDirFlag.Name)
	if dataDir == "" {
		return nil, errors.Errorf("unable to infer default data dir, use --%s to specify one", dataDirFlag.Name)
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, errors.Wrapf(err, "create data dir [%v]", dataDir)
	}

	mainDir := filepath.Join(dataDir, "main.db")
	mainDB, err := lvldb.New(mainDir, lvldb.Options{
		CacheSize:              normalizeCacheSize(ctx.GlobalInt(cacheFlag.Name)),
		OpenFilesCacheCapacity: 64,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open main database [%v]", mainDir)
	}

	eventDir := filepath.Join(dataDir, "events.db")
	eventDB, err := eventdb.New(eventDir)
	if err != nil {
		mainDB.Close()
		return nil, errors.Wrapf(err, "open event database [%v]", eventDir)
	}

	l := ledger.New(mainDB)
	return &instance{
		mainDB:  mainDB,
		eventDB: eventDB,
		ledger:  l,
		staker:  staking.New(mainDB, l, staking.WithEmitter(eventDB)),
	}, nil
}

func (in *instance) Close() {
	logger.Debug("closing event database...")
	in.eventDB.Close()
	logger.Debug("closing main database...")
	in.mainDB.Close()
}

// clock returns the time source selected by the global flags.
// An NTP failure falls back to the local clock.
func clock(ctx *cli.Context) func() uint64 {
	if ctx.GlobalIsSet(nowFlag.Name) {
		now := ctx.GlobalUint64(nowFlag.Name)
		return func() uint64 { return now }
	}

	var offset time.Duration
	if server := ctx.GlobalString(ntpServerFlag.Name); server != "" {
		resp, err := ntp.Query(server)
		if err != nil {
			logger.Warn("failed to access NTP, using local clock", "server", server, "err", err)
		} else {
			offset = resp.ClockOffset
			logger.Debug("clock offset", "server", server, "offset", offset)
		}
	}
	return func() uint64 { return uint64(time.Now().Add(offset).Unix()) }
}

func addressFlag(ctx *cli.Context, flag cli.StringFlag) (ident.Address, error) {
	s := ctx.String(flag.Name)
	if s == "" {
		return ident.Address{}, errors.Errorf("missing --%s", flag.Name)
	}
	addr, err := ident.ParseAddress(s)
	if err != nil {
		return ident.Address{}, errors.WithMessagef(err, "--%s", flag.Name)
	}
	return addr, nil
}

// optionalAddressFlag returns def when the flag is not given.
func optionalAddressFlag(ctx *cli.Context, flag cli.StringFlag, def ident.Address) (ident.Address, error) {
	if ctx.String(flag.Name) == "" {
		return def, nil
	}
	return addressFlag(ctx, flag)
}

func addressArg(ctx *cli.Context, name string) (ident.Address, error) {
	s := ctx.Args().First()
	if s == "" {
		return ident.Address{}, errors.Errorf("missing <%s> argument", name)
	}
	addr, err := ident.ParseAddress(s)
	if err != nil {
		return ident.Address{}, errors.WithMessage(err, name)
	}
	return addr, nil
}

func tierFlagValue(ctx *cli.Context) (tier.ID, error) {
	s := ctx.String(tierFlag.Name)
	if s == "" {
		return 0, errors.Errorf("missing --%s", tierFlag.Name)
	}
	return tier.ParseID(s)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
