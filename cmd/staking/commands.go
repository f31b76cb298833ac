// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"gopkg.in/cheggaaa/pb.v1"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/tierstake/tierstake/ident"
)

type action func(ctx *cli.Context, in *instance) error

// withInstance opens the databases around a command.
func withInstance(fn action) func(*cli.Context) error {
	return func(ctx *cli.Context) error {
		in, err := openInstance(ctx)
		if err != nil {
			return err
		}
		defer in.Close()
		return fn(ctx, in)
	}
}

func poolAndAuthority(ctx *cli.Context) (ident.Address, ident.Address, error) {
	poolAddr, err := addressFlag(ctx, poolFlag)
	if err != nil {
		return ident.Address{}, ident.Address{}, err
	}
	authority, err := addressFlag(ctx, authorityFlag)
	if err != nil {
		return ident.Address{}, ident.Address{}, err
	}
	return poolAddr, authority, nil
}

func initAction(ctx *cli.Context, in *instance) error {
	poolAddr, authority, err := poolAndAuthority(ctx)
	if err != nil {
		return err
	}
	payer, err := optionalAddressFlag(ctx, payerFlag, authority)
	if err != nil {
		return err
	}
	tiers, err := loadPoolConfig(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}
	if err := in.staker.Initialize(poolAddr, authority, payer, tiers); err != nil {
		return err
	}
	p, err := in.staker.Pool(poolAddr)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "pool:         %v\nvault:        %v\nreward vault: %v\n", poolAddr, p.Vault(), p.RewardVault())
	return nil
}

func fundAction(ctx *cli.Context, in *instance) error {
	addr, err := addressArg(ctx, "address")
	if err != nil {
		return err
	}
	tokens, lamports := ctx.Uint64(tokensFlag.Name), ctx.Uint64(lamportsFlag.Name)
	if tokens == 0 && lamports == 0 {
		return errors.Errorf("nothing to fund, set --%s or --%s", tokensFlag.Name, lamportsFlag.Name)
	}
	if tokens > 0 {
		if err := in.ledger.Mint(addr, tokens); err != nil {
			return err
		}
	}
	if lamports > 0 {
		if err := in.ledger.Airdrop(addr, lamports); err != nil {
			return err
		}
	}
	acc, _, err := in.ledger.Account(addr)
	if err != nil {
		return err
	}
	return printJSON(ctx.App.Writer, acc)
}

func createUserAction(ctx *cli.Context, in *instance) error {
	poolAddr, authority, err := poolAndAuthority(ctx)
	if err != nil {
		return err
	}
	addr, err := in.staker.CreateUser(poolAddr, authority)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "user: %v\n", addr)
	return nil
}

func stakeAction(ctx *cli.Context, in *instance) error {
	poolAddr, authority, err := poolAndAuthority(ctx)
	if err != nil {
		return err
	}
	from, err := optionalAddressFlag(ctx, fromFlag, authority)
	if err != nil {
		return err
	}
	id, err := tierFlagValue(ctx)
	if err != nil {
		return err
	}
	return in.staker.Stake(poolAddr, authority, from, id, clock(ctx)())
}

func claimAction(ctx *cli.Context, in *instance) error {
	poolAddr, authority, err := poolAndAuthority(ctx)
	if err != nil {
		return err
	}
	to, err := optionalAddressFlag(ctx, toFlag, authority)
	if err != nil {
		return err
	}
	amount, err := in.staker.Claim(poolAddr, authority, to, clock(ctx)())
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "claimed: %d\n", amount)
	return nil
}

func unstakeAction(ctx *cli.Context, in *instance) error {
	poolAddr, authority, err := poolAndAuthority(ctx)
	if err != nil {
		return err
	}
	to, err := optionalAddressFlag(ctx, toFlag, authority)
	if err != nil {
		return err
	}
	id, err := tierFlagValue(ctx)
	if err != nil {
		return err
	}
	return in.staker.Unstake(poolAddr, authority, to, id, clock(ctx)())
}

func lifecycleAction(op string) action {
	return func(ctx *cli.Context, in *instance) error {
		poolAddr, authority, err := poolAndAuthority(ctx)
		if err != nil {
			return err
		}
		switch op {
		case "pause":
			return in.staker.Pause(poolAddr, authority)
		case "unpause":
			return in.staker.Unpause(poolAddr, authority)
		case "close":
			return in.staker.Close(poolAddr, authority)
		case "open":
			return in.staker.Open(poolAddr, authority)
		}
		return errors.Errorf("unknown lifecycle operation %q", op)
	}
}

func withdrawAction(ctx *cli.Context, in *instance) error {
	poolAddr, authority, err := poolAndAuthority(ctx)
	if err != nil {
		return err
	}
	to, err := addressArg(ctx, "address")
	if err != nil {
		return err
	}
	rewards, vault, err := in.staker.WithdrawExtra(poolAddr, authority, to)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "withdrew rewards: %d\nwithdrew vault:   %d\n", rewards, vault)
	return nil
}

// freeAction frees every user record before the pool itself.
func freeAction(ctx *cli.Context, in *instance) error {
	poolAddr, authority, err := poolAndAuthority(ctx)
	if err != nil {
		return err
	}
	receiver, err := addressArg(ctx, "receiver")
	if err != nil {
		return err
	}

	users, err := in.staker.Users(poolAddr)
	if err != nil {
		return err
	}

	bar := pb.New(len(users)).
		SetMaxWidth(90).
		Prefix("freeing users ")
	bar.Output = ctx.App.Writer
	bar.NotPrint = !isTerminal(ctx.App.Writer)
	bar.Start()
	for _, u := range users {
		if err := in.staker.FreeUser(poolAddr, authority, u.Address, receiver); err != nil {
			bar.NotPrint = true
			return errors.WithMessagef(err, "free user %v", u.Address)
		}
		bar.Increment()
	}
	bar.Finish()

	if err := in.staker.FreePool(poolAddr, authority, receiver); err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "freed %d users and pool %v\n", len(users), poolAddr)
	return nil
}

func isTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

type poolStatus struct {
	Address      ident.Address `json:"address"`
	Pool         any           `json:"pool"`
	VaultBalance uint64        `json:"vaultBalance"`
	RewardFunds  uint64        `json:"rewardVaultBalance"`
	Users        int           `json:"users"`
}

type userStatus struct {
	Address   ident.Address `json:"address"`
	User      any           `json:"user"`
	Claimable uint64        `json:"claimable"`
	Now       uint64        `json:"now"`
}

func statusAction(ctx *cli.Context, in *instance) error {
	poolAddr, err := addressFlag(ctx, poolFlag)
	if err != nil {
		return err
	}

	if ctx.String(userFlag.Name) != "" {
		authority, err := addressFlag(ctx, userFlag)
		if err != nil {
			return err
		}
		addr, u, err := in.staker.User(poolAddr, authority)
		if err != nil {
			return err
		}
		now := clock(ctx)()
		claimable, err := in.staker.Claimable(poolAddr, authority, now)
		if err != nil {
			return err
		}
		return printJSON(ctx.App.Writer, &userStatus{addr, u, claimable, now})
	}

	p, err := in.staker.Pool(poolAddr)
	if err != nil {
		return err
	}
	vault, reward, err := in.staker.Vaults(poolAddr)
	if err != nil {
		return err
	}
	users, err := in.staker.Users(poolAddr)
	if err != nil {
		return err
	}
	return printJSON(ctx.App.Writer, &poolStatus{poolAddr, p, vault, reward, len(users)})
}
