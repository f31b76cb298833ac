// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/tierstake/tierstake/ident"
	"github.com/tierstake/tierstake/kv"
	"github.com/tierstake/tierstake/ledger"
	"github.com/tierstake/tierstake/log"
	"github.com/tierstake/tierstake/staking/pool"
	"github.com/tierstake/tierstake/staking/reverts"
	"github.com/tierstake/tierstake/staking/stake"
	"github.com/tierstake/tierstake/staking/tier"
	"github.com/tierstake/tierstake/staking/user"
)

var logger = log.WithContext("pkg", "staking")

// Staker runs the staking operations against persisted pool and user records.
// Every check is done before anything is written, and token transfers are
// written together with the records they settle. Operations are applied one
// at a time.
type Staker struct {
	mu      sync.Mutex
	repo    *Repository
	ledger  Ledger
	emitter Emitter
}

type Option func(*Staker)

// WithEmitter publishes committed events to e.
func WithEmitter(e Emitter) Option {
	return func(s *Staker) {
		s.emitter = e
	}
}

// New creates a staker keeping its records in store. l must keep its
// accounts in the same store.
func New(store kv.Store, l Ledger, opts ...Option) *Staker {
	s := &Staker{
		repo:    NewRepository(store),
		ledger:  l,
		emitter: noopEmitter,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Staker) Repository() *Repository {
	return s.repo
}

func (s *Staker) emit(ev Event, now uint64) {
	if err := s.emitter.Emit(ev, now); err != nil {
		logger.Warn("failed to emit event", "event", ev.Name(), "pool", ev.PoolAddress(), "error", err)
	}
}

func (s *Staker) getPool(addr ident.Address) (*pool.Pool, error) {
	p, err := s.repo.GetPool(addr)
	if err != nil {
		return nil, err
	}
	observeCache(s.repo)
	if p == nil {
		return nil, reverts.ErrPoolNotFound
	}
	return p, nil
}

// getUser resolves authority's user record in the pool.
func (s *Staker) getUser(poolAddr, authority ident.Address) (ident.Address, *user.User, error) {
	addr, _, err := user.Address(poolAddr, authority)
	if err != nil {
		return ident.Address{}, nil, err
	}
	u, err := s.repo.GetUser(poolAddr, addr)
	if err != nil {
		return ident.Address{}, nil, err
	}
	if u == nil {
		return ident.Address{}, nil, reverts.ErrUserNotFound
	}
	if err := u.Check(poolAddr, authority); err != nil {
		return ident.Address{}, nil, err
	}
	return addr, u, nil
}

// createAccounts creates the given accounts, closing the ones already created
// when a later one fails.
func (s *Staker) createAccounts(payer ident.Address, accounts ...accountSpec) (func(), error) {
	var created []accountSpec
	rollback := func() {
		for i := len(created) - 1; i >= 0; i-- {
			a := created[i]
			if err := s.ledger.CloseAccount(a.address, a.owner, payer); err != nil {
				logger.Error("failed to roll back account", "account", a.address, "error", err)
			}
		}
	}
	for _, a := range accounts {
		if err := s.ledger.CreateAccount(a.address, a.owner, payer, a.space); err != nil {
			rollback()
			return nil, errors.Wrapf(err, "create account %v", a.address)
		}
		created = append(created, a)
	}
	return rollback, nil
}

// commit writes the staged records and the transfers in one write.
func (s *Staker) commit(batch *Batch, transfers ...ledger.Transfer) error {
	return batch.Commit(func(bulk kv.Bulk) error {
		return s.ledger.Commit(bulk, transfers...)
	})
}

type accountSpec struct {
	address ident.Address
	owner   ident.Address
	space   uint64
}

// Initialize creates a pool at poolAddr together with its vaults. payer funds the storage.
func (s *Staker) Initialize(poolAddr, authority, payer ident.Address, tiers tier.Tiers) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { observe("initialize", err) }()

	logger.Debug("initializing pool", "pool", poolAddr, "authority", authority)

	existing, err := s.repo.GetPool(poolAddr)
	if err != nil {
		return err
	}
	if existing != nil {
		return reverts.ErrPoolAlreadyExists
	}

	acc, err := pool.Derive(poolAddr)
	if err != nil {
		return err
	}
	p, err := pool.New(authority, acc, tiers)
	if err != nil {
		logger.Info("initialize failed", "pool", poolAddr, "error", err)
		return err
	}

	rollback, err := s.createAccounts(payer,
		accountSpec{poolAddr, ident.ProgramID, PoolSpace},
		accountSpec{acc.Vault, acc.Signer, VaultSpace},
		accountSpec{acc.RewardVault, acc.Signer, VaultSpace},
	)
	if err != nil {
		logger.Info("initialize failed", "pool", poolAddr, "error", err)
		return err
	}

	batch := s.repo.NewBatch()
	if err := batch.SetPool(poolAddr, p); err != nil {
		rollback()
		return err
	}
	if err := batch.Write(); err != nil {
		rollback()
		return err
	}

	observePool(poolAddr, p)
	logger.Info("initialized pool", "pool", poolAddr, "vault", acc.Vault, "rewardVault", acc.RewardVault)
	return nil
}

// CreateUser creates authority's user record in the pool, paid by authority.
func (s *Staker) CreateUser(poolAddr, authority ident.Address) (addr ident.Address, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { observe("create_user", err) }()

	logger.Debug("creating user", "pool", poolAddr, "authority", authority)

	p, err := s.getPool(poolAddr)
	if err != nil {
		return ident.Address{}, err
	}
	if err := p.RequireOpen(); err != nil {
		return ident.Address{}, err
	}

	addr, bump, err := user.Address(poolAddr, authority)
	if err != nil {
		return ident.Address{}, err
	}
	existing, err := s.repo.GetUser(poolAddr, addr)
	if err != nil {
		return ident.Address{}, err
	}
	if existing != nil {
		return ident.Address{}, reverts.ErrUserAlreadyExists
	}

	rollback, err := s.createAccounts(authority, accountSpec{addr, ident.ProgramID, UserSpace})
	if err != nil {
		logger.Info("create user failed", "pool", poolAddr, "authority", authority, "error", err)
		return ident.Address{}, err
	}

	batch := s.repo.NewBatch()
	if err := batch.SetUser(poolAddr, addr, user.New(poolAddr, authority, bump)); err != nil {
		rollback()
		return ident.Address{}, err
	}
	if err := batch.Write(); err != nil {
		rollback()
		return ident.Address{}, err
	}

	logger.Info("created user", "pool", poolAddr, "user", addr)
	return addr, nil
}

// Stake takes a slot of the tier, moving the tier's stake from the authority's
// token account into the vault.
func (s *Staker) Stake(poolAddr, authority, from ident.Address, id tier.ID, now uint64) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { observe("stake", err) }()

	logger.Debug("staking", "pool", poolAddr, "authority", authority, "tier", id)

	p, err := s.getPool(poolAddr)
	if err != nil {
		return err
	}
	if err := p.RequireOpen(); err != nil {
		return err
	}
	userAddr, u, err := s.getUser(poolAddr, authority)
	if err != nil {
		return err
	}

	rt, err := p.Tier(id)
	if err != nil {
		return err
	}
	if rt.Slots == 0 {
		return reverts.ErrNoAvailableSlotForTier
	}
	current, err := u.Stake(id)
	if err != nil {
		return err
	}
	if !current.IsNone() {
		return reverts.ErrTierAlreadyUsed
	}
	lockedUntil, err := rt.LockedUntil(now)
	if err != nil {
		return err
	}

	np := p.Copy()
	if err := np.UseSlot(id); err != nil {
		return err
	}
	nu := u.Copy()
	if err := nu.SetStake(id, stake.NewStaking(lockedUntil, now)); err != nil {
		return err
	}

	batch := s.repo.NewBatch()
	if err := batch.SetPool(poolAddr, np); err != nil {
		return err
	}
	if err := batch.SetUser(poolAddr, userAddr, nu); err != nil {
		return err
	}
	if err := s.commit(batch, ledger.Transfer{From: from, To: p.Vault(), Authority: authority, Amount: rt.Stake}); err != nil {
		logger.Info("stake failed", "pool", poolAddr, "authority", authority, "error", err)
		return errors.Wrap(err, "transfer stake")
	}

	metricStaked().AddWithLabel(int64(rt.Stake), tierLabel(id))
	observePool(poolAddr, np)
	s.emit(&StakeEvent{
		Pool:        poolAddr,
		User:        userAddr,
		Tier:        id,
		LockedUntil: lockedUntil,
		Amount:      rt.Stake,
	}, now)

	logger.Info("staked", "pool", poolAddr, "user", userAddr, "tier", id, "lockedUntil", lockedUntil, "amount", rt.Stake)
	return nil
}

// Claim pays out the reward vested across every tier of the user and returns the amount.
func (s *Staker) Claim(poolAddr, authority, to ident.Address, now uint64) (amount uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { observe("claim", err) }()

	logger.Debug("claiming", "pool", poolAddr, "authority", authority)

	p, err := s.getPool(poolAddr)
	if err != nil {
		return 0, err
	}
	if err := p.RequireUnpaused(); err != nil {
		return 0, err
	}
	userAddr, u, err := s.getUser(poolAddr, authority)
	if err != nil {
		return 0, err
	}

	stakes := u.Stakes()
	if !stakes.AnyStaking() {
		return 0, reverts.ErrUserDoensntHaveStakes
	}
	total, next, ok := stakes.Accrue(p.Tiers(), now)
	if !ok {
		return 0, reverts.ErrCalcFailure
	}
	if total == 0 {
		return 0, reverts.ErrAmountMustBeGreaterThanZero
	}

	np := p.Copy()
	if err := np.Claim(total); err != nil {
		return 0, err
	}
	nu := u.Copy()
	nu.SetStakes(next)

	signer, err := p.Signer(poolAddr)
	if err != nil {
		return 0, err
	}
	batch := s.repo.NewBatch()
	if err := batch.SetPool(poolAddr, np); err != nil {
		return 0, err
	}
	if err := batch.SetUser(poolAddr, userAddr, nu); err != nil {
		return 0, err
	}
	if err := s.commit(batch, ledger.Transfer{From: p.RewardVault(), To: to, Authority: signer, Amount: total}); err != nil {
		logger.Info("claim failed", "pool", poolAddr, "user", userAddr, "error", err)
		return 0, errors.Wrap(err, "transfer reward")
	}

	metricClaimed().Add(int64(total))
	observePool(poolAddr, np)
	s.emit(&ClaimEvent{Pool: poolAddr, User: userAddr, Amount: total}, now)

	logger.Info("claimed", "pool", poolAddr, "user", userAddr, "amount", total)
	return total, nil
}

// Unstake returns the principal of a fully vested tier and retires the slot.
func (s *Staker) Unstake(poolAddr, authority, to ident.Address, id tier.ID, now uint64) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { observe("unstake", err) }()

	logger.Debug("unstaking", "pool", poolAddr, "authority", authority, "tier", id)

	p, err := s.getPool(poolAddr)
	if err != nil {
		return err
	}
	if err := p.RequireUnpaused(); err != nil {
		return err
	}
	userAddr, u, err := s.getUser(poolAddr, authority)
	if err != nil {
		return err
	}
	current, err := u.Stake(id)
	if err != nil {
		return err
	}
	switch current.Kind {
	case stake.KindNone, stake.KindUsed:
		return reverts.ErrUserDoesntHaveTier
	case stake.KindStaking:
		if current.LockedUntil > now {
			return reverts.ErrTimeLockHasntYetPassed
		}
		return reverts.ErrPendingReward
	}

	rt, err := p.Tier(id)
	if err != nil {
		return err
	}
	np := p.Copy()
	if err := np.Complete(id); err != nil {
		return err
	}
	nu := u.Copy()
	if err := nu.SetStake(id, stake.Used); err != nil {
		return err
	}

	signer, err := p.Signer(poolAddr)
	if err != nil {
		return err
	}
	batch := s.repo.NewBatch()
	if err := batch.SetPool(poolAddr, np); err != nil {
		return err
	}
	if err := batch.SetUser(poolAddr, userAddr, nu); err != nil {
		return err
	}
	if err := s.commit(batch, ledger.Transfer{From: p.Vault(), To: to, Authority: signer, Amount: rt.Stake}); err != nil {
		logger.Info("unstake failed", "pool", poolAddr, "user", userAddr, "error", err)
		return errors.Wrap(err, "transfer principal")
	}

	metricUnstaked().AddWithLabel(int64(rt.Stake), tierLabel(id))
	observePool(poolAddr, np)
	s.emit(&UnstakeEvent{Pool: poolAddr, User: userAddr, Tier: id, Amount: rt.Stake}, now)

	logger.Info("unstaked", "pool", poolAddr, "user", userAddr, "tier", id, "amount", rt.Stake)
	return nil
}

// updatePool applies an authority-only flag change.
func (s *Staker) updatePool(op string, poolAddr, authority ident.Address, apply func(*pool.Pool) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { observe(op, err) }()

	logger.Debug("updating pool", "op", op, "pool", poolAddr)

	p, err := s.getPool(poolAddr)
	if err != nil {
		return err
	}
	if err := p.CheckAuthority(authority); err != nil {
		return err
	}
	if err := apply(p); err != nil {
		return err
	}

	batch := s.repo.NewBatch()
	if err := batch.SetPool(poolAddr, p); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}

	logger.Info("updated pool", "op", op, "pool", poolAddr, "paused", p.Paused(), "closed", p.Closed())
	return nil
}

// Pause restricts every user action.
func (s *Staker) Pause(poolAddr, authority ident.Address) error {
	return s.updatePool("pause", poolAddr, authority, (*pool.Pool).Pause)
}

func (s *Staker) Unpause(poolAddr, authority ident.Address) error {
	return s.updatePool("unpause", poolAddr, authority, (*pool.Pool).Unpause)
}

// Close stops new stakes and enables the teardown operations.
func (s *Staker) Close(poolAddr, authority ident.Address) error {
	return s.updatePool("close", poolAddr, authority, (*pool.Pool).Close)
}

func (s *Staker) Open(poolAddr, authority ident.Address) error {
	return s.updatePool("open", poolAddr, authority, (*pool.Pool).Open)
}

// WithdrawExtra sends whatever both vaults hold beyond the pool's obligations to to.
func (s *Staker) WithdrawExtra(poolAddr, authority, to ident.Address) (extraRewards, extraVault uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { observe("withdraw_extra", err) }()

	logger.Debug("withdrawing extra", "pool", poolAddr, "to", to)

	p, err := s.getPool(poolAddr)
	if err != nil {
		return 0, 0, err
	}
	if err := p.CheckAuthority(authority); err != nil {
		return 0, 0, err
	}
	if err := p.RequireClosed(); err != nil {
		return 0, 0, err
	}

	vaultBalance, rewardBalance, err := s.balances(p)
	if err != nil {
		return 0, 0, err
	}
	extraVault, extraRewards, err = p.Extra(vaultBalance, rewardBalance)
	if err != nil {
		return 0, 0, err
	}
	if extraVault == 0 && extraRewards == 0 {
		return 0, 0, reverts.ErrOnlyExtraWithdrawAllowed
	}

	signer, err := p.Signer(poolAddr)
	if err != nil {
		return 0, 0, err
	}
	if err := s.commit(s.repo.NewBatch(),
		ledger.Transfer{From: p.RewardVault(), To: to, Authority: signer, Amount: extraRewards},
		ledger.Transfer{From: p.Vault(), To: to, Authority: signer, Amount: extraVault},
	); err != nil {
		logger.Info("withdraw extra failed", "pool", poolAddr, "error", err)
		return 0, 0, errors.Wrap(err, "transfer extra")
	}

	logger.Info("withdrew extra", "pool", poolAddr, "rewards", extraRewards, "vault", extraVault)
	return extraRewards, extraVault, nil
}

func (s *Staker) balances(p *pool.Pool) (vault, reward uint64, err error) {
	if vault, err = s.ledger.Balance(p.Vault()); err != nil {
		return 0, 0, errors.Wrap(err, "vault balance")
	}
	if reward, err = s.ledger.Balance(p.RewardVault()); err != nil {
		return 0, 0, errors.Wrap(err, "reward vault balance")
	}
	return vault, reward, nil
}

// FreeUser deletes a user record without active stakes from a closed pool,
// refunding its storage to receiver.
func (s *Staker) FreeUser(poolAddr, authority, userAddr, receiver ident.Address) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { observe("free_user", err) }()

	logger.Debug("freeing user", "pool", poolAddr, "user", userAddr)

	p, err := s.getPool(poolAddr)
	if err != nil {
		return err
	}
	if err := p.CheckAuthority(authority); err != nil {
		return err
	}
	if err := p.RequireClosed(); err != nil {
		return err
	}
	u, err := s.repo.GetUser(poolAddr, userAddr)
	if err != nil {
		return err
	}
	if u == nil {
		return reverts.ErrUserNotFound
	}
	if u.Pool() != poolAddr {
		return reverts.ErrUserPoolMismatch
	}
	if !u.Stakes().AllFree() {
		return reverts.ErrUserHasActiveStakes
	}

	if err := s.ledger.CloseAccount(userAddr, ident.ProgramID, receiver); err != nil {
		logger.Info("free user failed", "pool", poolAddr, "user", userAddr, "error", err)
		return errors.Wrap(err, "close user account")
	}

	batch := s.repo.NewBatch()
	if err := batch.DeleteUser(poolAddr, userAddr); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}

	logger.Info("freed user", "pool", poolAddr, "user", userAddr, "receiver", receiver)
	return nil
}

// FreePool deletes a closed, fully completed pool with empty vaults. The
// vaults and the pool record are closed and their storage refunded to receiver.
func (s *Staker) FreePool(poolAddr, authority, receiver ident.Address) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() { observe("free_pool", err) }()

	logger.Debug("freeing pool", "pool", poolAddr)

	p, err := s.getPool(poolAddr)
	if err != nil {
		return err
	}
	if err := p.CheckAuthority(authority); err != nil {
		return err
	}
	if err := p.RequireClosed(); err != nil {
		return err
	}
	if !p.FullyCompleted() {
		return reverts.ErrUserHasActiveStakes
	}
	vaultBalance, rewardBalance, err := s.balances(p)
	if err != nil {
		return err
	}
	if vaultBalance != 0 || rewardBalance != 0 {
		return reverts.ErrAmountMustBeZero
	}

	signer, err := p.Signer(poolAddr)
	if err != nil {
		return err
	}
	for _, acc := range []struct{ address, owner ident.Address }{
		{p.Vault(), signer},
		{p.RewardVault(), signer},
		{poolAddr, ident.ProgramID},
	} {
		if err := s.ledger.CloseAccount(acc.address, acc.owner, receiver); err != nil {
			logger.Info("free pool failed", "pool", poolAddr, "account", acc.address, "error", err)
			return errors.Wrapf(err, "close account %v", acc.address)
		}
	}

	batch := s.repo.NewBatch()
	if err := batch.DeletePool(poolAddr); err != nil {
		return err
	}
	if err := batch.Write(); err != nil {
		return err
	}

	logger.Info("freed pool", "pool", poolAddr, "receiver", receiver)
	return nil
}

// Pool returns the pool record at addr.
func (s *Staker) Pool(addr ident.Address) (*pool.Pool, error) {
	return s.getPool(addr)
}

// User returns authority's user record and its address.
func (s *Staker) User(poolAddr, authority ident.Address) (ident.Address, *user.User, error) {
	return s.getUser(poolAddr, authority)
}

// Users lists every user record of the pool.
func (s *Staker) Users(poolAddr ident.Address) ([]UserEntry, error) {
	if _, err := s.getPool(poolAddr); err != nil {
		return nil, err
	}
	return s.repo.Users(poolAddr)
}

// Claimable previews what a claim at now would pay.
func (s *Staker) Claimable(poolAddr, authority ident.Address, now uint64) (uint64, error) {
	p, err := s.getPool(poolAddr)
	if err != nil {
		return 0, err
	}
	_, u, err := s.getUser(poolAddr, authority)
	if err != nil {
		return 0, err
	}
	total, _, ok := u.Stakes().Accrue(p.Tiers(), now)
	if !ok {
		return 0, reverts.ErrCalcFailure
	}
	return total, nil
}

// Vaults returns the token balances of the pool's vault and reward vault.
func (s *Staker) Vaults(poolAddr ident.Address) (vault, reward uint64, err error) {
	p, err := s.getPool(poolAddr)
	if err != nil {
		return 0, 0, err
	}
	return s.balances(p)
}
