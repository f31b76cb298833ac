// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"github.com/tierstake/tierstake/ident"
	"github.com/tierstake/tierstake/staking/pool"
	"github.com/tierstake/tierstake/staking/user"
)

type Pool struct {
	Address      ident.Address `json:"address"`
	Pool         *pool.Pool    `json:"pool"`
	VaultBalance uint64        `json:"vaultBalance"`
	RewardFunds  uint64        `json:"rewardVaultBalance"`
	Outstanding  uint64        `json:"outstandingRewards"`
	ExtraVault   uint64        `json:"extraVault"`
	ExtraRewards uint64        `json:"extraRewards"`
}

type User struct {
	Address   ident.Address `json:"address"`
	User      *user.User    `json:"user"`
	Claimable *uint64       `json:"claimable,omitempty"`
	Now       uint64        `json:"now,omitempty"`
}
