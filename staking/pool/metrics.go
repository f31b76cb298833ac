// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common/math"

	"github.com/tierstake/tierstake/staking/reverts"
)

// Metrics tracks the reward liability of a pool.
type Metrics struct {
	RewardRequirements uint64 `json:"rewardRequirements"` // rewards promised to every stake ever taken
	RewardPaid         uint64 `json:"rewardPaid"`         // rewards paid out by claims
}

// Stake adds the full reward of a new stake to the requirements.
func (m *Metrics) Stake(reward uint64) error {
	sum, overflow := math.SafeAdd(m.RewardRequirements, reward)
	if overflow {
		return reverts.ErrCalcFailure
	}
	m.RewardRequirements = sum
	return nil
}

// Claim records a payout. Paid never exceeds the requirements.
func (m *Metrics) Claim(amount uint64) error {
	sum, overflow := math.SafeAdd(m.RewardPaid, amount)
	if overflow || sum > m.RewardRequirements {
		return reverts.ErrCalcFailure
	}
	m.RewardPaid = sum
	return nil
}

// Outstanding is the reward still owed to stakers.
func (m Metrics) Outstanding() uint64 {
	if m.RewardPaid >= m.RewardRequirements {
		return 0
	}
	return m.RewardRequirements - m.RewardPaid
}

func (m Metrics) CheckInvariant() error {
	if m.RewardPaid > m.RewardRequirements {
		return fmt.Errorf("reward paid %d exceeds requirements %d", m.RewardPaid, m.RewardRequirements)
	}
	return nil
}
