// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tierstake/tierstake/ident"
	"github.com/tierstake/tierstake/kv"
	"github.com/tierstake/tierstake/ledger"
	"github.com/tierstake/tierstake/lvldb"
	"github.com/tierstake/tierstake/staking/pool"
	"github.com/tierstake/tierstake/staking/stake"
	"github.com/tierstake/tierstake/staking/tier"
)

var (
	poolAddr  = ident.BytesToAddress([]byte("pool"))
	authority = ident.BytesToAddress([]byte("authority"))
	payer     = ident.BytesToAddress([]byte("payer"))
	alice     = ident.BytesToAddress([]byte("alice"))
	bob       = ident.BytesToAddress([]byte("bob"))
	receiver  = ident.BytesToAddress([]byte("receiver"))
)

const (
	lamports = 1_000_000
	tokens   = 100_000
)

func testTiers() tier.Tiers {
	return tier.Tiers{
		tier.New(1, 100, 100, 50),
		tier.New(2, 1000, 1000, 1000),
		tier.New(3, 1500, 300, 300),
	}
}

type recorder struct {
	events []Event
}

func (r *recorder) Emit(ev Event, _ uint64) error {
	r.events = append(r.events, ev)
	return nil
}

// faultyStore fails every bulk write while broken is set.
type faultyStore struct {
	kv.Store
	broken bool
}

func (s *faultyStore) Bulk() kv.Bulk {
	return &faultyBulk{Bulk: s.Store.Bulk(), store: s}
}

type faultyBulk struct {
	kv.Bulk
	store *faultyStore
}

func (b *faultyBulk) Write() error {
	if b.store.broken {
		return errors.New("disk full")
	}
	return b.Bulk.Write()
}

type fixture struct {
	t      *testing.T
	store  *faultyStore
	staker *Staker
	ledger *ledger.Ledger
	events *recorder
	acc    pool.Accounts
}

func newStaker(t *testing.T) *fixture {
	db, err := lvldb.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := &faultyStore{Store: db}
	l := ledger.New(store)
	for _, addr := range []ident.Address{payer, alice, bob} {
		require.NoError(t, l.Airdrop(addr, lamports))
		require.NoError(t, l.Mint(addr, tokens))
	}

	rec := &recorder{}
	acc, err := pool.Derive(poolAddr)
	require.NoError(t, err)
	return &fixture{
		t:      t,
		store:  store,
		staker: New(store, l, WithEmitter(rec)),
		ledger: l,
		events: rec,
		acc:    acc,
	}
}

// newPool returns a fixture with an initialized pool whose reward vault holds rewards.
func newPool(t *testing.T, tiers tier.Tiers, rewards uint64) *fixture {
	f := newStaker(t)
	require.NoError(t, f.staker.Initialize(poolAddr, authority, payer, tiers))
	if rewards > 0 {
		require.NoError(t, f.ledger.Mint(f.acc.RewardVault, rewards))
	}
	return f
}

func (f *fixture) createUser(who ident.Address) ident.Address {
	addr, err := f.staker.CreateUser(poolAddr, who)
	require.NoError(f.t, err)
	return addr
}

func (f *fixture) balance(addr ident.Address) uint64 {
	b, err := f.ledger.Balance(addr)
	require.NoError(f.t, err)
	return b
}

func (f *fixture) pool() *pool.Pool {
	p, err := f.staker.Pool(poolAddr)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) slot(who ident.Address, id tier.ID) stake.Status {
	_, u, err := f.staker.User(poolAddr, who)
	require.NoError(f.t, err)
	s, err := u.Stake(id)
	require.NoError(f.t, err)
	return s
}
