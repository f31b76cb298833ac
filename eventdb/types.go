// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"github.com/tierstake/tierstake/ident"
	"github.com/tierstake/tierstake/staking/tier"
)

type Order string

const (
	ASC  Order = "asc"
	DESC Order = "desc"
)

// Event is a stored staking event.
type Event struct {
	Seq         uint64        `json:"seq"`
	Name        string        `json:"name"`
	Pool        ident.Address `json:"pool"`
	User        ident.Address `json:"user"`
	Tier        *tier.ID      `json:"tier,omitempty"`
	LockedUntil *uint64       `json:"lockedUntil,omitempty"`
	Amount      uint64        `json:"amount"`
	Time        uint64        `json:"time"`
}

// Filter selects events. Zero values match everything.
type Filter struct {
	Pool   *ident.Address
	User   *ident.Address
	Name   string
	Order  Order // default asc
	Offset uint64
	Limit  uint64 // 0 means no limit
}
