// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/tierstake/tierstake/ident"
	"github.com/tierstake/tierstake/staking/tier"
)

// Event names.
const (
	EventStake   = "Stake"
	EventUnstake = "Unstake"
	EventClaim   = "Claim"
)

// Event is a domain event published after an operation commits.
type Event interface {
	Name() string
	PoolAddress() ident.Address
	UserAddress() ident.Address
}

type StakeEvent struct {
	Pool        ident.Address `json:"pool"`
	User        ident.Address `json:"user"`
	Tier        tier.ID       `json:"tier"`
	LockedUntil uint64        `json:"lockedUntil"`
	Amount      uint64        `json:"amount"`
}

type UnstakeEvent struct {
	Pool   ident.Address `json:"pool"`
	User   ident.Address `json:"user"`
	Tier   tier.ID       `json:"tier"`
	Amount uint64        `json:"amount"`
}

type ClaimEvent struct {
	Pool   ident.Address `json:"pool"`
	User   ident.Address `json:"user"`
	Amount uint64        `json:"amount"`
}

func (e *StakeEvent) Name() string               { return EventStake }
func (e *StakeEvent) PoolAddress() ident.Address { return e.Pool }
func (e *StakeEvent) UserAddress() ident.Address { return e.User }

func (e *UnstakeEvent) Name() string               { return EventUnstake }
func (e *UnstakeEvent) PoolAddress() ident.Address { return e.Pool }
func (e *UnstakeEvent) UserAddress() ident.Address { return e.User }

func (e *ClaimEvent) Name() string               { return EventClaim }
func (e *ClaimEvent) PoolAddress() ident.Address { return e.Pool }
func (e *ClaimEvent) UserAddress() ident.Address { return e.User }

// Emitter receives committed events.
type Emitter interface {
	Emit(ev Event, now uint64) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ev Event, now uint64) error

func (f EmitterFunc) Emit(ev Event, now uint64) error { return f(ev, now) }

var noopEmitter = EmitterFunc(func(Event, uint64) error { return nil })
