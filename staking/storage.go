// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"sync"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/tierstake/tierstake/cache"
	"github.com/tierstake/tierstake/ident"
	"github.com/tierstake/tierstake/kv"
	"github.com/tierstake/tierstake/staking/pool"
	"github.com/tierstake/tierstake/staking/user"
)

const (
	poolBucket = kv.Bucket("staking.pool.")
	userBucket = kv.Bucket("staking.user.")

	poolCacheSize = 256
)

// Repository persists pool and user records. Users are keyed by pool address
// followed by user address so the users of a pool can be listed.
type Repository struct {
	mu    sync.RWMutex
	store kv.Store
	pools kv.Store
	users kv.Store
	cache *cache.LRU[ident.Address, *pool.Pool]
}

func NewRepository(store kv.Store) *Repository {
	c, _ := cache.NewLRU[ident.Address, *pool.Pool](poolCacheSize)
	return &Repository{
		store: store,
		pools: poolBucket.NewStore(store),
		users: userBucket.NewStore(store),
		cache: c,
	}
}

func userKey(poolAddr, userAddr ident.Address) []byte {
	return append(poolAddr.Bytes(), userAddr.Bytes()...)
}

// GetPool returns the pool at addr, or nil when there is none.
// The returned record is a private copy.
func (r *Repository) GetPool(addr ident.Address) (*pool.Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok, err := r.cache.GetOrLoad(addr, r.loadPool)
	if err != nil || !ok {
		return nil, err
	}
	return p.Copy(), nil
}

func (r *Repository) loadPool(addr ident.Address) (*pool.Pool, bool, error) {
	data, err := r.pools.Get(addr.Bytes())
	if err != nil {
		if r.pools.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, errors.Wrap(err, "failed to get pool")
	}
	var p pool.Pool
	if err := rlp.DecodeBytes(data, &p); err != nil {
		return nil, false, errors.Wrap(err, "failed to decode pool")
	}
	return &p, true, nil
}

// GetUser returns the user record at userAddr in the pool, or nil when there is none.
func (r *Repository) GetUser(poolAddr, userAddr ident.Address) (*user.User, error) {
	data, err := r.users.Get(userKey(poolAddr, userAddr))
	if err != nil {
		if r.users.IsNotFound(err) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get user")
	}
	var u user.User
	if err := rlp.DecodeBytes(data, &u); err != nil {
		return nil, errors.Wrap(err, "failed to decode user")
	}
	return &u, nil
}

// UserEntry is a user record together with its address.
type UserEntry struct {
	Address ident.Address
	User    *user.User
}

// Users lists every user record of the pool in address order.
func (r *Repository) Users(poolAddr ident.Address) ([]UserEntry, error) {
	iter := r.users.Iterate(kv.PrefixRange(poolAddr.Bytes()))
	defer iter.Release()

	var entries []UserEntry
	for iter.Next() {
		var u user.User
		if err := rlp.DecodeBytes(iter.Value(), &u); err != nil {
			return nil, errors.Wrap(err, "failed to decode user")
		}
		entries = append(entries, UserEntry{
			Address: ident.BytesToAddress(iter.Key()[ident.AddressLength:]),
			User:    &u,
		})
	}
	if err := iter.Error(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate users")
	}
	return entries, nil
}

// Batch stages record changes that are written together.
type Batch struct {
	repo    *Repository
	bulk    kv.Bulk
	pools   kv.Putter
	users   kv.Putter
	touched []ident.Address
}

func (r *Repository) NewBatch() *Batch {
	bulk := r.store.Bulk()
	return &Batch{
		repo:  r,
		bulk:  bulk,
		pools: poolBucket.NewPutter(bulk),
		users: userBucket.NewPutter(bulk),
	}
}

func (b *Batch) SetPool(addr ident.Address, p *pool.Pool) error {
	data, err := rlp.EncodeToBytes(p)
	if err != nil {
		return errors.Wrap(err, "failed to encode pool")
	}
	b.touched = append(b.touched, addr)
	return b.pools.Put(addr.Bytes(), data)
}

func (b *Batch) DeletePool(addr ident.Address) error {
	b.touched = append(b.touched, addr)
	return b.pools.Delete(addr.Bytes())
}

func (b *Batch) SetUser(poolAddr, userAddr ident.Address, u *user.User) error {
	data, err := rlp.EncodeToBytes(u)
	if err != nil {
		return errors.Wrap(err, "failed to encode user")
	}
	return b.users.Put(userKey(poolAddr, userAddr), data)
}

func (b *Batch) DeleteUser(poolAddr, userAddr ident.Address) error {
	return b.users.Delete(userKey(poolAddr, userAddr))
}

// Write applies the staged changes atomically.
func (b *Batch) Write() error {
	return b.Commit(func(bulk kv.Bulk) error {
		if err := bulk.Write(); err != nil {
			return errors.Wrap(err, "failed to write records")
		}
		return nil
	})
}

// Commit hands the staged bulk to write, which may stage more and must write it.
func (b *Batch) Commit(write func(kv.Bulk) error) error {
	b.repo.mu.Lock()
	defer b.repo.mu.Unlock()

	for _, addr := range b.touched {
		b.repo.cache.Remove(addr)
	}
	return write(b.bulk)
}

// CacheStats reports pool cache hits and misses.
func (r *Repository) CacheStats() (hit, miss int64) {
	return r.cache.Stats()
}
