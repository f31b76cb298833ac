// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stake

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/tierstake/tierstake/staking/tier"
)

// Kind is the lifecycle position of a user's slot in one tier.
type Kind uint8

const (
	KindNone    = Kind(iota) // never staked
	KindStaking              // locked and vesting
	KindReady                // fully vested, principal can be unstaked
	KindUsed                 // unstaked, the tier can not be used again
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindStaking:
		return "staking"
	case KindReady:
		return "ready"
	case KindUsed:
		return "used"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	for c := KindNone; c <= KindUsed; c++ {
		if c.String() == string(text) {
			*k = c
			return nil
		}
	}
	return fmt.Errorf("invalid stake kind %q", text)
}

// Status is the per tier stake state. The timing fields are only meaningful
// while the kind is KindStaking and are zero otherwise.
type Status struct {
	Kind        Kind   `json:"kind"`
	LockedUntil uint64 `json:"lockedUntil,omitempty"`
	LastClaimed uint64 `json:"lastClaimed,omitempty"`
	RewardPaid  uint64 `json:"rewardPaid,omitempty"`
}

var (
	None  = Status{Kind: KindNone}
	Ready = Status{Kind: KindReady}
	Used  = Status{Kind: KindUsed}
)

// NewStaking starts vesting at now.
func NewStaking(lockedUntil, now uint64) Status {
	return Status{
		Kind:        KindStaking,
		LockedUntil: lockedUntil,
		LastClaimed: now,
	}
}

func (s Status) IsNone() bool    { return s.Kind == KindNone }
func (s Status) IsStaking() bool { return s.Kind == KindStaking }
func (s Status) IsReady() bool   { return s.Kind == KindReady }
func (s Status) IsUsed() bool    { return s.Kind == KindUsed }

// IsFree reports whether the slot holds no principal.
func (s Status) IsFree() bool { return s.IsNone() || s.IsUsed() }

func (s Status) String() string {
	if s.IsStaking() {
		return fmt.Sprintf("staking(lockedUntil=%d lastClaimed=%d rewardPaid=%d)", s.LockedUntil, s.LastClaimed, s.RewardPaid)
	}
	return s.Kind.String()
}

// Accrue computes the reward vested since the last claim and the status the
// slot moves to once it is paid out. Statuses other than staking accrue nothing.
//
// Before the lock expires the payout is Reward*elapsed/Duration rounded down,
// capped by what is still unpaid. At or after expiry the whole remainder is due.
func (s Status) Accrue(t tier.RewardTier, now uint64) (uint64, Status) {
	if !s.IsStaking() {
		return 0, s
	}

	remaining := t.Reward - s.RewardPaid
	if now >= s.LockedUntil {
		return remaining, Ready
	}

	// a clock behind the last claim accrues nothing and keeps the claim point
	var elapsed uint64
	lastClaimed := s.LastClaimed
	if now > lastClaimed {
		elapsed = now - lastClaimed
		lastClaimed = now
	}

	vested := new(uint256.Int).Mul(uint256.NewInt(t.Reward), uint256.NewInt(elapsed))
	vested.Div(vested, uint256.NewInt(t.Duration))

	amount := remaining
	if vested.LtUint64(remaining) {
		amount = vested.Uint64()
	}

	if amount == remaining {
		return amount, Ready
	}
	return amount, Status{
		Kind:        KindStaking,
		LockedUntil: s.LockedUntil,
		LastClaimed: lastClaimed,
		RewardPaid:  s.RewardPaid + amount,
	}
}

// Claimable is the amount a claim at now would pay for this slot.
func (s Status) Claimable(t tier.RewardTier, now uint64) uint64 {
	amount, _ := s.Accrue(t, now)
	return amount
}

// Stakes holds one status per tier.
type Stakes [tier.Count]Status

// AnyStaking reports whether at least one slot is still vesting.
func (ss Stakes) AnyStaking() bool {
	for _, s := range ss {
		if s.IsStaking() {
			return true
		}
	}
	return false
}

// AllFree reports whether every slot is none or used.
func (ss Stakes) AllFree() bool {
	for _, s := range ss {
		if !s.IsFree() {
			return false
		}
	}
	return true
}

// Accrue runs Accrue for every tier and returns the total payout and next statuses.
// ok is false when the total does not fit in uint64.
func (ss Stakes) Accrue(tiers tier.Tiers, now uint64) (total uint64, next Stakes, ok bool) {
	sum := new(uint256.Int)
	for i, s := range ss {
		amount, n := s.Accrue(tiers[i], now)
		sum.AddUint64(sum, amount)
		next[i] = n
	}
	if !sum.IsUint64() {
		return 0, ss, false
	}
	return sum.Uint64(), next, true
}
