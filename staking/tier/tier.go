// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tier

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/pkg/errors"

	"github.com/tierstake/tierstake/staking/reverts"
)

// ID selects one of the fixed reward tiers of a pool.
type ID uint8

const (
	Tier500 = ID(iota)
	Tier1000
	Tier1500
)

// Count is the number of tiers every pool carries.
const Count = 3

var names = [Count]string{"Tier500", "Tier1000", "Tier1500"}

func (id ID) Valid() bool {
	return id < Count
}

func (id ID) String() string {
	if !id.Valid() {
		return "Tier(" + strconv.Itoa(int(id)) + ")"
	}
	return names[id]
}

// Check returns ErrInvalidTier unless id addresses one of the tiers.
func Check(id ID) error {
	if !id.Valid() {
		return errors.WithMessage(reverts.ErrInvalidTier, id.String())
	}
	return nil
}

// ParseID accepts a tier name ("Tier500"), its short form ("500") or its index ("0").
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	for i, name := range names {
		if strings.EqualFold(s, name) || s == strings.TrimPrefix(name, "Tier") {
			return ID(i), nil
		}
	}
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, reverts.ErrInvalidTier
	}
	if err := Check(ID(n)); err != nil {
		return 0, err
	}
	return ID(n), nil
}

// RewardTier holds the settings of a tier together with its slot inventory.
type RewardTier struct {
	Supply    uint16 `json:"supply"`    // total supply of slots
	Slots     uint16 `json:"slots"`     // available slots
	Completed uint16 `json:"completed"` // completed and unstaked slots
	Stake     uint64 `json:"stake"`     // stake size
	Duration  uint64 `json:"duration"`  // lock duration in seconds
	Reward    uint64 `json:"reward"`    // total reward for the duration
}

// New returns a fresh tier with its whole supply available.
func New(supply uint16, stake, duration, reward uint64) RewardTier {
	return RewardTier{
		Supply:   supply,
		Slots:    supply,
		Stake:    stake,
		Duration: duration,
		Reward:   reward,
	}
}

// Validate checks the tier is fit to be installed in a new pool.
func (t RewardTier) Validate() error {
	if t.Supply > 0 &&
		t.Slots == t.Supply &&
		t.Completed == 0 &&
		t.Stake > 0 &&
		t.Duration > 0 &&
		t.Reward > 0 {
		return nil
	}
	return reverts.ErrInvalidRewardTier
}

// CheckInvariant verifies slots and completed never exceed the supply.
func (t RewardTier) CheckInvariant() error {
	if uint32(t.Slots)+uint32(t.Completed) > uint32(t.Supply) {
		return fmt.Errorf("tier inventory exceeds supply: slots %d, completed %d, supply %d", t.Slots, t.Completed, t.Supply)
	}
	return nil
}

// Active is the number of slots currently held by stakers.
func (t RewardTier) Active() uint16 {
	return t.Supply - t.Slots - t.Completed
}

// FullyCompleted reports whether every slot ever taken has been unstaked.
func (t RewardTier) FullyCompleted() bool {
	return t.Supply-t.Slots == t.Completed
}

func (t *RewardTier) UseSlot() error {
	if t.Slots == 0 {
		return reverts.ErrNoAvailableSlotForTier
	}
	t.Slots--
	return nil
}

func (t *RewardTier) Complete() error {
	if t.Active() == 0 {
		return reverts.ErrUserDoesntHaveTier
	}
	t.Completed++
	return nil
}

// LockedUntil returns the unlock time of a stake taken at now.
func (t RewardTier) LockedUntil(now uint64) (uint64, error) {
	until, overflow := math.SafeAdd(now, t.Duration)
	if overflow {
		return 0, reverts.ErrCalcFailure
	}
	return until, nil
}

// Tiers is the fixed tier table of a pool, addressed by ID.
type Tiers [Count]RewardTier

func (ts Tiers) Validate() error {
	for i, t := range ts {
		if err := t.Validate(); err != nil {
			return errors.WithMessage(err, ID(i).String())
		}
	}
	return nil
}

// Get returns a pointer into the table for in-place updates.
func (ts *Tiers) Get(id ID) (*RewardTier, error) {
	if err := Check(id); err != nil {
		return nil, err
	}
	return &ts[id], nil
}
