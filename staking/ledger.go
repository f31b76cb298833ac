// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/tierstake/tierstake/ident"
	"github.com/tierstake/tierstake/kv"
	"github.com/tierstake/tierstake/ledger"
)

// Ledger moves tokens and manages storage-funded accounts on behalf of the staker.
type Ledger interface {
	// Balance returns the token balance of account.
	Balance(account ident.Address) (uint64, error)
	// Commit applies the transfers and writes them in one write with
	// whatever is already staged in bulk. bulk comes from the staker's store.
	Commit(bulk kv.Bulk, transfers ...ledger.Transfer) error
	// CreateAccount allocates account for owner, payer funds the storage deposit.
	CreateAccount(account, owner, payer ident.Address, space uint64) error
	// CloseAccount removes account, refunding its deposit. The token balance must be zero.
	CloseAccount(account, authority, refundTo ident.Address) error
}

// Storage sizes charged for the records kept by the staker.
const (
	PoolSpace  = 256
	UserSpace  = 128
	VaultSpace = 64
)
