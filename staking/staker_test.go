// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tierstake/tierstake/ident"
	"github.com/tierstake/tierstake/ledger"
	"github.com/tierstake/tierstake/staking/pool"
	"github.com/tierstake/tierstake/staking/reverts"
	"github.com/tierstake/tierstake/staking/stake"
	"github.com/tierstake/tierstake/staking/tier"
)

func TestInitialize(t *testing.T) {
	f := newPool(t, testTiers(), 0)

	p := f.pool()
	assert.Equal(t, authority, p.Authority())
	assert.Equal(t, f.acc.Vault, p.Vault())
	assert.Equal(t, f.acc.RewardVault, p.RewardVault())
	assert.Equal(t, f.acc.SignerBump, p.Bump())
	assert.False(t, p.Paused())
	assert.False(t, p.Closed())
	assert.Equal(t, testTiers(), p.Tiers())
	assert.Equal(t, pool.Metrics{}, p.Metrics())

	for _, addr := range []ident.Address{f.acc.Vault, f.acc.RewardVault} {
		acc, exists, err := f.ledger.Account(addr)
		require.NoError(t, err)
		assert.True(t, exists)
		assert.Equal(t, f.acc.Signer, acc.Owner)
	}
	acc, exists, err := f.ledger.Account(poolAddr)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, ident.ProgramID, acc.Owner)

	spent := uint64(0)
	for _, space := range []uint64{PoolSpace, VaultSpace, VaultSpace} {
		d, err := ledger.Deposit(space)
		require.NoError(t, err)
		spent += d
	}
	left, err := f.ledger.Lamports(payer)
	require.NoError(t, err)
	assert.Equal(t, uint64(lamports)-spent, left)

	err = f.staker.Initialize(poolAddr, authority, payer, testTiers())
	assert.True(t, errors.Is(err, reverts.ErrPoolAlreadyExists))
}

func TestInitializeInvalidTiers(t *testing.T) {
	f := newStaker(t)

	tiers := testTiers()
	tiers[tier.Tier1500].Duration = 0
	err := f.staker.Initialize(poolAddr, authority, payer, tiers)
	assert.True(t, errors.Is(err, reverts.ErrInvalidRewardTier))
	assert.Equal(t, reverts.KindConfig, reverts.KindOf(err))

	_, err = f.staker.Pool(poolAddr)
	assert.True(t, errors.Is(err, reverts.ErrPoolNotFound))
	_, exists, err := f.ledger.Account(poolAddr)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestInitializeRollsBackAccounts(t *testing.T) {
	f := newStaker(t)
	poor := ident.BytesToAddress([]byte("poor"))
	d, err := ledger.Deposit(PoolSpace)
	require.NoError(t, err)
	require.NoError(t, f.ledger.Airdrop(poor, d))

	err = f.staker.Initialize(poolAddr, authority, poor, testTiers())
	assert.True(t, errors.Is(err, ledger.ErrInsufficientDeposit))
	assert.False(t, reverts.IsRevertErr(err))

	_, exists, err := f.ledger.Account(poolAddr)
	require.NoError(t, err)
	assert.False(t, exists)
	left, err := f.ledger.Lamports(poor)
	require.NoError(t, err)
	assert.Equal(t, d, left)
}

func TestCreateUser(t *testing.T) {
	f := newPool(t, testTiers(), 0)

	addr := f.createUser(alice)
	acc, exists, err := f.ledger.Account(addr)
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, ident.ProgramID, acc.Owner)

	gotAddr, u, err := f.staker.User(poolAddr, alice)
	require.NoError(t, err)
	assert.Equal(t, addr, gotAddr)
	assert.Equal(t, alice, u.Authority())
	assert.Equal(t, poolAddr, u.Pool())
	assert.True(t, u.Stakes().AllFree())

	_, err = f.staker.CreateUser(poolAddr, alice)
	assert.True(t, errors.Is(err, reverts.ErrUserAlreadyExists))

	_, err = f.staker.CreateUser(ident.BytesToAddress([]byte("nopool")), alice)
	assert.True(t, errors.Is(err, reverts.ErrPoolNotFound))

	require.NoError(t, f.staker.Pause(poolAddr, authority))
	_, err = f.staker.CreateUser(poolAddr, bob)
	assert.True(t, errors.Is(err, reverts.ErrPoolPaused))
	require.NoError(t, f.staker.Unpause(poolAddr, authority))

	require.NoError(t, f.staker.Close(poolAddr, authority))
	_, err = f.staker.CreateUser(poolAddr, bob)
	assert.True(t, errors.Is(err, reverts.ErrPoolClosed))
}

func TestStake(t *testing.T) {
	f := newPool(t, testTiers(), 0)
	userAddr := f.createUser(alice)

	require.NoError(t, f.staker.Stake(poolAddr, alice, alice, tier.Tier1000, 10))

	assert.Equal(t, uint64(1000), f.balance(f.acc.Vault))
	assert.Equal(t, uint64(tokens-1000), f.balance(alice))
	assert.Equal(t, stake.NewStaking(1010, 10), f.slot(alice, tier.Tier1000))

	p := f.pool()
	assert.Equal(t, uint16(1), p.Tiers()[tier.Tier1000].Slots)
	assert.Equal(t, pool.Metrics{RewardRequirements: 1000}, p.Metrics())

	require.Len(t, f.events.events, 1)
	assert.Equal(t, &StakeEvent{
		Pool:        poolAddr,
		User:        userAddr,
		Tier:        tier.Tier1000,
		LockedUntil: 1010,
		Amount:      1000,
	}, f.events.events[0])
}

func TestStakeRejections(t *testing.T) {
	f := newPool(t, testTiers(), 0)
	f.createUser(alice)
	f.createUser(bob)

	err := f.staker.Stake(poolAddr, alice, alice, tier.ID(3), 0)
	assert.True(t, errors.Is(err, reverts.ErrInvalidTier))

	require.NoError(t, f.staker.Stake(poolAddr, alice, alice, tier.Tier500, 0))
	err = f.staker.Stake(poolAddr, alice, alice, tier.Tier500, 0)
	assert.True(t, errors.Is(err, reverts.ErrNoAvailableSlotForTier))

	require.NoError(t, f.staker.Stake(poolAddr, alice, alice, tier.Tier1500, 0))
	err = f.staker.Stake(poolAddr, alice, alice, tier.Tier1500, 5)
	assert.True(t, errors.Is(err, reverts.ErrTierAlreadyUsed))

	// bob stakes from alice's tokens without owning them
	err = f.staker.Stake(poolAddr, bob, alice, tier.Tier1000, 0)
	assert.True(t, errors.Is(err, ledger.ErrUnauthorized))
	assert.True(t, f.slot(bob, tier.Tier1000).IsNone())

	carol := ident.BytesToAddress([]byte("carol"))
	err = f.staker.Stake(poolAddr, carol, carol, tier.Tier1000, 0)
	assert.True(t, errors.Is(err, reverts.ErrUserNotFound))

	before := f.pool()
	dave := ident.BytesToAddress([]byte("dave"))
	require.NoError(t, f.ledger.Airdrop(dave, lamports))
	f.createUser(dave)
	err = f.staker.Stake(poolAddr, dave, dave, tier.Tier1000, 0)
	assert.True(t, errors.Is(err, ledger.ErrInsufficientFunds))
	assert.Equal(t, before.Tiers(), f.pool().Tiers())
	assert.Equal(t, before.Metrics(), f.pool().Metrics())
	assert.True(t, f.slot(dave, tier.Tier1000).IsNone())

	require.NoError(t, f.staker.Pause(poolAddr, authority))
	err = f.staker.Stake(poolAddr, bob, bob, tier.Tier1000, 0)
	assert.True(t, errors.Is(err, reverts.ErrPoolPaused))
	require.NoError(t, f.staker.Unpause(poolAddr, authority))

	require.NoError(t, f.staker.Close(poolAddr, authority))
	err = f.staker.Stake(poolAddr, bob, bob, tier.Tier1000, 0)
	assert.True(t, errors.Is(err, reverts.ErrPoolClosed))
}

func TestStakeLockOverflow(t *testing.T) {
	tiers := testTiers()
	tiers[tier.Tier500].Duration = ^uint64(0)
	f := newPool(t, tiers, 0)
	f.createUser(alice)

	err := f.staker.Stake(poolAddr, alice, alice, tier.Tier500, 1)
	assert.True(t, errors.Is(err, reverts.ErrCalcFailure))
	assert.Equal(t, reverts.KindArithmetic, reverts.KindOf(err))
	assert.Zero(t, f.balance(f.acc.Vault))
}

func TestClaimVesting(t *testing.T) {
	f := newPool(t, testTiers(), 10_000)
	userAddr := f.createUser(alice)
	require.NoError(t, f.staker.Stake(poolAddr, alice, alice, tier.Tier1000, 0))

	amount, err := f.staker.Claim(poolAddr, alice, alice, 250)
	require.NoError(t, err)
	assert.Equal(t, uint64(250), amount)
	assert.Equal(t, stake.Status{Kind: stake.KindStaking, LockedUntil: 1000, LastClaimed: 250, RewardPaid: 250}, f.slot(alice, tier.Tier1000))

	claimable, err := f.staker.Claimable(poolAddr, alice, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(750), claimable)

	amount, err = f.staker.Claim(poolAddr, alice, alice, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(750), amount)
	assert.Equal(t, stake.Ready, f.slot(alice, tier.Tier1000))

	assert.Equal(t, uint64(tokens-1000+1000), f.balance(alice))
	assert.Equal(t, uint64(10_000-1000), f.balance(f.acc.RewardVault))
	assert.Equal(t, pool.Metrics{RewardRequirements: 1000, RewardPaid: 1000}, f.pool().Metrics())

	require.Len(t, f.events.events, 3)
	assert.Equal(t, &ClaimEvent{Pool: poolAddr, User: userAddr, Amount: 750}, f.events.events[2])
}

func TestClaimAcrossTiers(t *testing.T) {
	f := newPool(t, testTiers(), 10_000)
	f.createUser(alice)
	require.NoError(t, f.staker.Stake(poolAddr, alice, alice, tier.Tier500, 0))
	require.NoError(t, f.staker.Stake(poolAddr, alice, alice, tier.Tier1500, 0))

	// Tier500: 50*60/100 = 30, Tier1500: 300*60/300 = 60
	amount, err := f.staker.Claim(poolAddr, alice, bob, 60)
	require.NoError(t, err)
	assert.Equal(t, uint64(90), amount)
	assert.Equal(t, uint64(tokens+90), f.balance(bob))
}

func TestClaimRejections(t *testing.T) {
	f := newPool(t, testTiers(), 0)
	f.createUser(alice)

	_, err := f.staker.Claim(poolAddr, alice, alice, 10)
	assert.True(t, errors.Is(err, reverts.ErrUserDoensntHaveStakes))

	require.NoError(t, f.staker.Stake(poolAddr, alice, alice, tier.Tier1000, 100))
	_, err = f.staker.Claim(poolAddr, alice, alice, 100)
	assert.True(t, errors.Is(err, reverts.ErrAmountMustBeGreaterThanZero))

	// reward vault is empty, the transfer fails and nothing is recorded
	_, err = f.staker.Claim(poolAddr, alice, alice, 600)
	assert.True(t, errors.Is(err, ledger.ErrInsufficientFunds))
	assert.False(t, reverts.IsRevertErr(err))
	assert.Equal(t, stake.NewStaking(1100, 100), f.slot(alice, tier.Tier1000))
	assert.Zero(t, f.pool().Metrics().RewardPaid)

	require.NoError(t, f.staker.Pause(poolAddr, authority))
	_, err = f.staker.Claim(poolAddr, alice, alice, 600)
	assert.True(t, errors.Is(err, reverts.ErrPoolPaused))
}

func TestClaimAllowedWhenClosed(t *testing.T) {
	f := newPool(t, testTiers(), 1000)
	f.createUser(alice)
	require.NoError(t, f.staker.Stake(poolAddr, alice, alice, tier.Tier500, 0))
	require.NoError(t, f.staker.Close(poolAddr, authority))

	amount, err := f.staker.Claim(poolAddr, alice, alice, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), amount)
	require.NoError(t, f.staker.Unstake(poolAddr, alice, alice, tier.Tier500, 100))
}

func TestUnstakeLockGating(t *testing.T) {
	f := newPool(t, testTiers(), 10_000)
	userAddr := f.createUser(alice)

	err := f.staker.Unstake(poolAddr, alice, alice, tier.Tier500, 0)
	assert.True(t, errors.Is(err, reverts.ErrUserDoesntHaveTier))

	require.NoError(t, f.staker.Stake(poolAddr, alice, alice, tier.Tier500, 0))

	err = f.staker.Unstake(poolAddr, alice, alice, tier.Tier500, 99)
	assert.True(t, errors.Is(err, reverts.ErrTimeLockHasntYetPassed))
	assert.Equal(t, reverts.KindTiming, reverts.KindOf(err))

	err = f.staker.Unstake(poolAddr, alice, alice, tier.Tier500, 100)
	assert.True(t, errors.Is(err, reverts.ErrPendingReward))
	assert.Equal(t, reverts.KindSettlement, reverts.KindOf(err))

	// a partial claim keeps the slot staking
	_, err = f.staker.Claim(poolAddr, alice, alice, 50)
	require.NoError(t, err)
	err = f.staker.Unstake(poolAddr, alice, alice, tier.Tier500, 50)
	assert.True(t, errors.Is(err, reverts.ErrTimeLockHasntYetPassed))

	_, err = f.staker.Claim(poolAddr, alice, alice, 100)
	require.NoError(t, err)
	require.NoError(t, f.staker.Unstake(poolAddr, alice, bob, tier.Tier500, 100))

	assert.Equal(t, stake.Used, f.slot(alice, tier.Tier500))
	assert.Zero(t, f.balance(f.acc.Vault))
	assert.Equal(t, uint64(tokens+100), f.balance(bob))
	p := f.pool()
	assert.Equal(t, uint16(1), p.Tiers()[tier.Tier500].Completed)
	assert.True(t, p.FullyCompleted())

	last := f.events.events[len(f.events.events)-1]
	assert.Equal(t, &UnstakeEvent{Pool: poolAddr, User: userAddr, Tier: tier.Tier500, Amount: 100}, last)

	err = f.staker.Unstake(poolAddr, alice, alice, tier.Tier500, 200)
	assert.True(t, errors.Is(err, reverts.ErrUserDoesntHaveTier))

	// a used tier can never be staked again
	err = f.staker.Stake(poolAddr, alice, alice, tier.Tier500, 200)
	assert.True(t, errors.Is(err, reverts.ErrNoAvailableSlotForTier))
}

func TestNoDoubleStake(t *testing.T) {
	f := newPool(t, testTiers(), 10_000)
	f.createUser(alice)

	require.NoError(t, f.staker.Stake(poolAddr, alice, alice, tier.Tier1000, 0))
	err := f.staker.Stake(poolAddr, alice, alice, tier.Tier1000, 10)
	assert.True(t, errors.Is(err, reverts.ErrTierAlreadyUsed))

	_, err = f.staker.Claim(poolAddr, alice, alice, 1000)
	require.NoError(t, err)
	err = f.staker.Stake(poolAddr, alice, alice, tier.Tier1000, 1000)
	assert.True(t, errors.Is(err, reverts.ErrTierAlreadyUsed))

	require.NoError(t, f.staker.Unstake(poolAddr, alice, alice, tier.Tier1000, 1000))
	err = f.staker.Stake(poolAddr, alice, alice, tier.Tier1000, 1000)
	assert.True(t, errors.Is(err, reverts.ErrTierAlreadyUsed))
	assert.Equal(t, uint16(1), f.pool().Tiers()[tier.Tier1000].Slots)
}

func TestLifecycleToggles(t *testing.T) {
	f := newPool(t, testTiers(), 0)

	assert.True(t, errors.Is(f.staker.Pause(poolAddr, alice), reverts.ErrUnauthorized))
	assert.True(t, errors.Is(f.staker.Close(poolAddr, alice), reverts.ErrUnauthorized))

	assert.True(t, errors.Is(f.staker.Unpause(poolAddr, authority), reverts.ErrPoolNotPaused))
	assert.True(t, errors.Is(f.staker.Open(poolAddr, authority), reverts.ErrPoolHasToBeClosed))

	require.NoError(t, f.staker.Pause(poolAddr, authority))
	assert.True(t, f.pool().Paused())
	assert.True(t, errors.Is(f.staker.Pause(poolAddr, authority), reverts.ErrPoolPaused))
	assert.True(t, errors.Is(f.staker.Close(poolAddr, authority), reverts.ErrPoolPaused))
	require.NoError(t, f.staker.Unpause(poolAddr, authority))

	require.NoError(t, f.staker.Close(poolAddr, authority))
	assert.True(t, f.pool().Closed())
	assert.True(t, errors.Is(f.staker.Close(poolAddr, authority), reverts.ErrPoolClosed))
	require.NoError(t, f.staker.Open(poolAddr, authority))
	assert.False(t, f.pool().Closed())

	err := f.staker.Pause(ident.BytesToAddress([]byte("nopool")), authority)
	assert.True(t, errors.Is(err, reverts.ErrPoolNotFound))
}

func TestWithdrawExtra(t *testing.T) {
	f := newPool(t, testTiers(), 0)
	f.createUser(alice)
	require.NoError(t, f.staker.Stake(poolAddr, alice, alice, tier.Tier1000, 0))
	require.NoError(t, f.ledger.Mint(f.acc.RewardVault, 1300))
	require.NoError(t, f.ledger.Mint(f.acc.Vault, 70))

	_, _, err := f.staker.WithdrawExtra(poolAddr, authority, receiver)
	assert.True(t, errors.Is(err, reverts.ErrPoolHasToBeClosed))

	require.NoError(t, f.staker.Close(poolAddr, authority))
	_, _, err = f.staker.WithdrawExtra(poolAddr, alice, receiver)
	assert.True(t, errors.Is(err, reverts.ErrUnauthorized))

	rewards, vault, err := f.staker.WithdrawExtra(poolAddr, authority, receiver)
	require.NoError(t, err)
	assert.Equal(t, uint64(300), rewards)
	assert.Equal(t, uint64(70), vault)
	assert.Equal(t, uint64(370), f.balance(receiver))
	assert.Equal(t, uint64(1000), f.balance(f.acc.RewardVault))
	assert.Equal(t, uint64(1000), f.balance(f.acc.Vault))

	_, _, err = f.staker.WithdrawExtra(poolAddr, authority, receiver)
	assert.True(t, errors.Is(err, reverts.ErrOnlyExtraWithdrawAllowed))
	assert.Equal(t, reverts.KindSettlement, reverts.KindOf(err))
	_, _, err = f.staker.WithdrawExtra(poolAddr, authority, receiver)
	assert.True(t, errors.Is(err, reverts.ErrOnlyExtraWithdrawAllowed))

	require.NoError(t, f.staker.Pause(poolAddr, authority))
	_, _, err = f.staker.WithdrawExtra(poolAddr, authority, receiver)
	assert.True(t, errors.Is(err, reverts.ErrPoolPaused))
}

func TestWithdrawExtraShortfall(t *testing.T) {
	f := newPool(t, testTiers(), 0)
	f.createUser(alice)
	require.NoError(t, f.staker.Stake(poolAddr, alice, alice, tier.Tier1000, 0))
	require.NoError(t, f.ledger.Mint(f.acc.RewardVault, 400))
	require.NoError(t, f.ledger.Mint(f.acc.Vault, 5))
	require.NoError(t, f.staker.Close(poolAddr, authority))

	// the reward vault is short of the 1000 owed, only the vault surplus moves
	rewards, vault, err := f.staker.WithdrawExtra(poolAddr, authority, receiver)
	require.NoError(t, err)
	assert.Zero(t, rewards)
	assert.Equal(t, uint64(5), vault)
	assert.Equal(t, uint64(400), f.balance(f.acc.RewardVault))
}

func TestTeardownOrdering(t *testing.T) {
	f := newPool(t, testTiers(), 50)
	userAddr := f.createUser(alice)
	require.NoError(t, f.staker.Stake(poolAddr, alice, alice, tier.Tier500, 0))

	err := f.staker.FreeUser(poolAddr, authority, userAddr, receiver)
	assert.True(t, errors.Is(err, reverts.ErrPoolHasToBeClosed))
	err = f.staker.FreePool(poolAddr, authority, receiver)
	assert.True(t, errors.Is(err, reverts.ErrPoolHasToBeClosed))

	require.NoError(t, f.staker.Close(poolAddr, authority))

	err = f.staker.FreeUser(poolAddr, alice, userAddr, receiver)
	assert.True(t, errors.Is(err, reverts.ErrUnauthorized))
	err = f.staker.FreeUser(poolAddr, authority, userAddr, receiver)
	assert.True(t, errors.Is(err, reverts.ErrUserHasActiveStakes))
	err = f.staker.FreeUser(poolAddr, authority, alice, receiver)
	assert.True(t, errors.Is(err, reverts.ErrUserNotFound))
	err = f.staker.FreePool(poolAddr, authority, receiver)
	assert.True(t, errors.Is(err, reverts.ErrUserHasActiveStakes))

	_, err = f.staker.Claim(poolAddr, alice, alice, 100)
	require.NoError(t, err)

	// ready still holds principal
	err = f.staker.FreeUser(poolAddr, authority, userAddr, receiver)
	assert.True(t, errors.Is(err, reverts.ErrUserHasActiveStakes))

	require.NoError(t, f.staker.Unstake(poolAddr, alice, alice, tier.Tier500, 100))

	require.NoError(t, f.ledger.Mint(f.acc.Vault, 1))
	err = f.staker.FreePool(poolAddr, authority, receiver)
	assert.True(t, errors.Is(err, reverts.ErrAmountMustBeZero))
	_, vault, err := f.staker.WithdrawExtra(poolAddr, authority, receiver)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), vault)

	require.NoError(t, f.staker.FreeUser(poolAddr, authority, userAddr, receiver))
	_, _, err = f.staker.User(poolAddr, alice)
	assert.True(t, errors.Is(err, reverts.ErrUserNotFound))

	require.NoError(t, f.staker.FreePool(poolAddr, authority, receiver))
	_, err = f.staker.Pool(poolAddr)
	assert.True(t, errors.Is(err, reverts.ErrPoolNotFound))

	for _, addr := range []ident.Address{poolAddr, f.acc.Vault, f.acc.RewardVault, userAddr} {
		_, exists, err := f.ledger.Account(addr)
		require.NoError(t, err)
		assert.False(t, exists, addr.String())
	}

	var refunded uint64
	for _, space := range []uint64{PoolSpace, VaultSpace, VaultSpace, UserSpace} {
		d, err := ledger.Deposit(space)
		require.NoError(t, err)
		refunded += d
	}
	got, err := f.ledger.Lamports(receiver)
	require.NoError(t, err)
	assert.Equal(t, refunded, got)
}

func TestEndToEnd(t *testing.T) {
	f := newPool(t, testTiers(), 50)
	userAddr := f.createUser(alice)

	require.NoError(t, f.staker.Stake(poolAddr, alice, alice, tier.Tier500, 0))
	assert.Equal(t, uint64(100), f.balance(f.acc.Vault))
	assert.True(t, f.slot(alice, tier.Tier500).IsStaking())

	amount, err := f.staker.Claim(poolAddr, alice, alice, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(50), amount)
	assert.True(t, f.slot(alice, tier.Tier500).IsReady())

	require.NoError(t, f.staker.Unstake(poolAddr, alice, alice, tier.Tier500, 100))
	assert.Zero(t, f.balance(f.acc.Vault))
	assert.True(t, f.slot(alice, tier.Tier500).IsUsed())

	require.NoError(t, f.staker.Close(poolAddr, authority))
	require.NoError(t, f.staker.FreeUser(poolAddr, authority, userAddr, receiver))

	_, _, err = f.staker.WithdrawExtra(poolAddr, authority, receiver)
	assert.True(t, errors.Is(err, reverts.ErrOnlyExtraWithdrawAllowed))

	require.NoError(t, f.staker.FreePool(poolAddr, authority, receiver))
	assert.Equal(t, uint64(tokens+50), f.balance(alice))

	names := make([]string, 0, len(f.events.events))
	for _, ev := range f.events.events {
		names = append(names, ev.Name())
	}
	assert.Equal(t, []string{EventStake, EventClaim, EventUnstake}, names)
}

func TestFailedWriteLeavesNoEffect(t *testing.T) {
	f := newPool(t, testTiers(), 1000)
	f.createUser(alice)

	f.store.broken = true
	require.Error(t, f.staker.Stake(poolAddr, alice, alice, tier.Tier1000, 0))
	assert.Equal(t, uint64(tokens), f.balance(alice))
	assert.Zero(t, f.balance(f.acc.Vault))
	assert.Equal(t, stake.None, f.slot(alice, tier.Tier1000))
	assert.Equal(t, uint16(2), f.pool().Tiers()[tier.Tier1000].Slots)

	f.store.broken = false
	require.NoError(t, f.staker.Stake(poolAddr, alice, alice, tier.Tier1000, 0))

	// a claim that failed to write pays nothing, so the retry pays the interval once
	f.store.broken = true
	_, err := f.staker.Claim(poolAddr, alice, alice, 250)
	require.Error(t, err)
	assert.Equal(t, uint64(tokens-1000), f.balance(alice))
	assert.Equal(t, uint64(1000), f.balance(f.acc.RewardVault))

	f.store.broken = false
	amount, err := f.staker.Claim(poolAddr, alice, alice, 250)
	require.NoError(t, err)
	assert.Equal(t, uint64(250), amount)
	_, err = f.staker.Claim(poolAddr, alice, alice, 250)
	assert.True(t, errors.Is(err, reverts.ErrAmountMustBeGreaterThanZero))
	assert.Equal(t, uint64(tokens-1000+250), f.balance(alice))

	amount, err = f.staker.Claim(poolAddr, alice, alice, 1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(750), amount)

	f.store.broken = true
	require.Error(t, f.staker.Unstake(poolAddr, alice, alice, tier.Tier1000, 1000))
	assert.Equal(t, uint64(1000), f.balance(f.acc.Vault))
	assert.True(t, f.slot(alice, tier.Tier1000).IsReady())
	assert.Zero(t, f.pool().Tiers()[tier.Tier1000].Completed)

	f.store.broken = false
	require.NoError(t, f.staker.Unstake(poolAddr, alice, alice, tier.Tier1000, 1000))
	assert.Equal(t, uint64(tokens+1000), f.balance(alice))

	require.NoError(t, f.staker.Close(poolAddr, authority))
	require.NoError(t, f.ledger.Mint(f.acc.RewardVault, 20))
	require.NoError(t, f.ledger.Mint(f.acc.Vault, 30))

	// both surpluses move together or not at all
	f.store.broken = true
	_, _, err = f.staker.WithdrawExtra(poolAddr, authority, receiver)
	require.Error(t, err)
	assert.Zero(t, f.balance(receiver))
	assert.Equal(t, uint64(20), f.balance(f.acc.RewardVault))
	assert.Equal(t, uint64(30), f.balance(f.acc.Vault))

	f.store.broken = false
	rewards, vault, err := f.staker.WithdrawExtra(poolAddr, authority, receiver)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), rewards)
	assert.Equal(t, uint64(30), vault)
	assert.Equal(t, uint64(50), f.balance(receiver))

	var names []string
	for _, ev := range f.events.events {
		names = append(names, ev.Name())
	}
	assert.Equal(t, []string{EventStake, EventClaim, EventClaim, EventUnstake}, names)
}

func TestEmitFailureDoesNotFail(t *testing.T) {
	f := newPool(t, testTiers(), 0)
	f.staker.emitter = EmitterFunc(func(Event, uint64) error { return errors.New("sink down") })
	f.createUser(alice)

	require.NoError(t, f.staker.Stake(poolAddr, alice, alice, tier.Tier500, 0))
	assert.True(t, f.slot(alice, tier.Tier500).IsStaking())
}

func TestUsers(t *testing.T) {
	f := newPool(t, testTiers(), 0)
	aliceAddr := f.createUser(alice)
	bobAddr := f.createUser(bob)

	entries, err := f.staker.Users(poolAddr)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	got := map[ident.Address]ident.Address{}
	for _, e := range entries {
		got[e.Address] = e.User.Authority()
	}
	assert.Equal(t, map[ident.Address]ident.Address{aliceAddr: alice, bobAddr: bob}, got)

	_, err = f.staker.Users(ident.BytesToAddress([]byte("nopool")))
	assert.True(t, errors.Is(err, reverts.ErrPoolNotFound))

	vault, reward, err := f.staker.Vaults(poolAddr)
	require.NoError(t, err)
	assert.Zero(t, vault)
	assert.Zero(t, reward)
}
