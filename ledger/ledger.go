// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package ledger keeps token balances and storage-funded accounts in a kv store.
package ledger

import (
	"sync"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/tierstake/tierstake/ident"
	"github.com/tierstake/tierstake/kv"
	"github.com/tierstake/tierstake/log"
)

const (
	// AccountOverhead is the storage charged for every account on top of its data.
	AccountOverhead = 128
	// DepositPerByte is the lamports locked per byte of storage.
	DepositPerByte = 10
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountExists       = errors.New("account already exists")
	ErrUnauthorized        = errors.New("authority does not own account")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrInsufficientDeposit = errors.New("insufficient lamports for storage deposit")
	ErrNonZeroBalance      = errors.New("account balance is not zero")
	ErrOverflow            = errors.New("balance overflow")
)

var logger = log.WithContext("pkg", "ledger")

const bucket = kv.Bucket("ledger.")

// Account is the stored state of an address.
type Account struct {
	Owner    ident.Address `json:"owner"`
	Tokens   uint64        `json:"tokens"`
	Lamports uint64        `json:"lamports"`
	Space    uint64        `json:"space"`
}

// Deposit is the lamports required to keep an account of the given data size.
func Deposit(space uint64) (uint64, error) {
	size, overflow := math.SafeAdd(space, AccountOverhead)
	if overflow {
		return 0, ErrOverflow
	}
	deposit, overflow := math.SafeMul(size, DepositPerByte)
	if overflow {
		return 0, ErrOverflow
	}
	return deposit, nil
}

// Ledger is a token ledger backed by a kv store. Addresses without a stored
// account are empty wallets owned by themselves.
type Ledger struct {
	mu    sync.Mutex
	db    kv.Store
	store kv.Store
}

func New(store kv.Store) *Ledger {
	return &Ledger{db: store, store: bucket.NewStore(store)}
}

func (l *Ledger) get(addr ident.Address) (*Account, bool, error) {
	data, err := l.store.Get(addr.Bytes())
	if err != nil {
		if l.store.IsNotFound(err) {
			return &Account{Owner: addr}, false, nil
		}
		return nil, false, errors.Wrap(err, "get account")
	}
	var acc Account
	if err := rlp.DecodeBytes(data, &acc); err != nil {
		return nil, false, errors.Wrap(err, "decode account")
	}
	return &acc, true, nil
}

func put(w kv.Putter, addr ident.Address, acc *Account) error {
	data, err := rlp.EncodeToBytes(acc)
	if err != nil {
		return errors.Wrap(err, "encode account")
	}
	return w.Put(addr.Bytes(), data)
}

// Account returns the account at addr and whether it is stored.
func (l *Ledger) Account(addr ident.Address) (*Account, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.get(addr)
}

func (l *Ledger) Balance(addr ident.Address) (uint64, error) {
	acc, _, err := l.Account(addr)
	if err != nil {
		return 0, err
	}
	return acc.Tokens, nil
}

func (l *Ledger) Lamports(addr ident.Address) (uint64, error) {
	acc, _, err := l.Account(addr)
	if err != nil {
		return 0, err
	}
	return acc.Lamports, nil
}

// Mint credits tokens to addr.
func (l *Ledger) Mint(addr ident.Address, amount uint64) error {
	return l.credit(addr, func(acc *Account) error {
		sum, overflow := math.SafeAdd(acc.Tokens, amount)
		if overflow {
			return ErrOverflow
		}
		acc.Tokens = sum
		return nil
	})
}

// Airdrop credits lamports to addr for paying storage deposits.
func (l *Ledger) Airdrop(addr ident.Address, amount uint64) error {
	return l.credit(addr, func(acc *Account) error {
		sum, overflow := math.SafeAdd(acc.Lamports, amount)
		if overflow {
			return ErrOverflow
		}
		acc.Lamports = sum
		return nil
	})
}

func (l *Ledger) credit(addr ident.Address, fn func(*Account) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, _, err := l.get(addr)
	if err != nil {
		return err
	}
	if err := fn(acc); err != nil {
		return err
	}
	return put(l.store, addr, acc)
}

// Transfer is a token movement applied by Commit. Authority must own From.
type Transfer struct {
	From      ident.Address
	To        ident.Address
	Authority ident.Address
	Amount    uint64
}

// Transfer moves tokens between accounts. authority must own from.
func (l *Ledger) Transfer(from, to, authority ident.Address, amount uint64) error {
	return l.Commit(l.db.Bulk(), Transfer{From: from, To: to, Authority: authority, Amount: amount})
}

// Commit applies the transfers in order, stages the changed accounts into bulk
// and writes it. bulk must come from the store the ledger was created on, so
// anything the caller staged in it lands in the same write. Nothing is written
// when a transfer is rejected.
func (l *Ledger) Commit(bulk kv.Bulk, transfers ...Transfer) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var (
		staged = make(map[ident.Address]*Account)
		dirty  []ident.Address
	)
	load := func(addr ident.Address) (*Account, error) {
		if acc, ok := staged[addr]; ok {
			return acc, nil
		}
		acc, _, err := l.get(addr)
		if err != nil {
			return nil, err
		}
		staged[addr] = acc
		return acc, nil
	}
	touch := func(addr ident.Address) {
		for _, a := range dirty {
			if a == addr {
				return
			}
		}
		dirty = append(dirty, addr)
	}

	for _, tr := range transfers {
		src, err := load(tr.From)
		if err != nil {
			return err
		}
		if src.Owner != tr.Authority {
			return errors.WithMessagef(ErrUnauthorized, "transfer from %v", tr.From)
		}
		if src.Tokens < tr.Amount {
			return errors.WithMessagef(ErrInsufficientFunds, "balance %d, amount %d", src.Tokens, tr.Amount)
		}
		if tr.From == tr.To || tr.Amount == 0 {
			continue
		}
		dst, err := load(tr.To)
		if err != nil {
			return err
		}
		sum, overflow := math.SafeAdd(dst.Tokens, tr.Amount)
		if overflow {
			return ErrOverflow
		}
		src.Tokens -= tr.Amount
		dst.Tokens = sum
		touch(tr.From)
		touch(tr.To)
	}

	w := bucket.NewBulk(bulk)
	for _, addr := range dirty {
		if err := put(w, addr, staged[addr]); err != nil {
			return err
		}
	}
	if err := w.Write(); err != nil {
		return errors.Wrap(err, "write transfer")
	}
	for _, tr := range transfers {
		logger.Debug("transferred", "from", tr.From, "to", tr.To, "amount", tr.Amount)
	}
	return nil
}

// CreateAccount allocates account for owner, with payer funding the storage deposit.
func (l *Ledger) CreateAccount(account, owner, payer ident.Address, space uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists, err := l.get(account); err != nil {
		return err
	} else if exists {
		return errors.WithMessagef(ErrAccountExists, "%v", account)
	}

	deposit, err := Deposit(space)
	if err != nil {
		return err
	}
	funder, _, err := l.get(payer)
	if err != nil {
		return err
	}
	if funder.Lamports < deposit {
		return errors.WithMessagef(ErrInsufficientDeposit, "have %d, need %d", funder.Lamports, deposit)
	}
	funder.Lamports -= deposit

	bulk := l.store.Bulk()
	if err := put(bulk, payer, funder); err != nil {
		return err
	}
	if err := put(bulk, account, &Account{Owner: owner, Lamports: deposit, Space: space}); err != nil {
		return err
	}
	if err := bulk.Write(); err != nil {
		return errors.Wrap(err, "write account")
	}
	logger.Debug("created account", "account", account, "owner", owner, "deposit", deposit)
	return nil
}

// CloseAccount removes account and refunds its lamports. The token balance must be zero.
func (l *Ledger) CloseAccount(account, authority, refundTo ident.Address) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	acc, exists, err := l.get(account)
	if err != nil {
		return err
	}
	if !exists {
		return errors.WithMessagef(ErrAccountNotFound, "%v", account)
	}
	if acc.Owner != authority {
		return errors.WithMessagef(ErrUnauthorized, "close %v", account)
	}
	if acc.Tokens != 0 {
		return errors.WithMessagef(ErrNonZeroBalance, "%v holds %d", account, acc.Tokens)
	}

	bulk := l.store.Bulk()
	if refundTo != account {
		receiver, _, err := l.get(refundTo)
		if err != nil {
			return err
		}
		sum, overflow := math.SafeAdd(receiver.Lamports, acc.Lamports)
		if overflow {
			return ErrOverflow
		}
		receiver.Lamports = sum
		if err := put(bulk, refundTo, receiver); err != nil {
			return err
		}
	}
	if err := bulk.Delete(account.Bytes()); err != nil {
		return err
	}
	if err := bulk.Write(); err != nil {
		return errors.Wrap(err, "write close")
	}
	logger.Debug("closed account", "account", account, "refund", acc.Lamports, "to", refundTo)
	return nil
}
