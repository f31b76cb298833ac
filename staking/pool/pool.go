// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pool

import (
	"encoding/json"
	"io"

	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/tierstake/tierstake/ident"
	"github.com/tierstake/tierstake/staking/reverts"
	"github.com/tierstake/tierstake/staking/tier"
)

var (
	vaultSeed  = []byte("vault")
	rewardSeed = []byte("reward")
)

// Accounts are the derived addresses serving a pool.
type Accounts struct {
	Signer          ident.Address // owns both vaults
	SignerBump      uint8
	Vault           ident.Address // holds staked principal
	VaultBump       uint8
	RewardVault     ident.Address // funds reward claims
	RewardVaultBump uint8
}

// Derive finds the signer and vault addresses of the pool at addr.
func Derive(addr ident.Address) (Accounts, error) {
	var (
		acc Accounts
		err error
	)
	if acc.Signer, acc.SignerBump, err = ident.FindDerived(addr.Bytes()); err != nil {
		return Accounts{}, errors.WithMessage(reverts.ErrBumpFailure, "pool signer")
	}
	if acc.Vault, acc.VaultBump, err = ident.FindDerived(vaultSeed, addr.Bytes()); err != nil {
		return Accounts{}, errors.WithMessage(reverts.ErrBumpFailure, "vault")
	}
	if acc.RewardVault, acc.RewardVaultBump, err = ident.FindDerived(rewardSeed, addr.Bytes()); err != nil {
		return Accounts{}, errors.WithMessage(reverts.ErrBumpFailure, "reward vault")
	}
	return acc, nil
}

// Pool is the top level record of one staking deployment.
type Pool struct {
	body body
}

type body struct {
	Authority       ident.Address
	Bump            uint8
	Paused          bool
	Closed          bool
	Vault           ident.Address
	VaultBump       uint8
	RewardVault     ident.Address
	RewardVaultBump uint8
	Tiers           tier.Tiers
	Metrics         Metrics
}

// New creates an open, unpaused pool. Every tier must pass validation.
func New(authority ident.Address, acc Accounts, tiers tier.Tiers) (*Pool, error) {
	if err := tiers.Validate(); err != nil {
		return nil, err
	}
	return &Pool{body: body{
		Authority:       authority,
		Bump:            acc.SignerBump,
		Vault:           acc.Vault,
		VaultBump:       acc.VaultBump,
		RewardVault:     acc.RewardVault,
		RewardVaultBump: acc.RewardVaultBump,
		Tiers:           tiers,
	}}, nil
}

func (p *Pool) Authority() ident.Address   { return p.body.Authority }
func (p *Pool) Bump() uint8                { return p.body.Bump }
func (p *Pool) Paused() bool               { return p.body.Paused }
func (p *Pool) Closed() bool               { return p.body.Closed }
func (p *Pool) Vault() ident.Address       { return p.body.Vault }
func (p *Pool) VaultBump() uint8           { return p.body.VaultBump }
func (p *Pool) RewardVault() ident.Address { return p.body.RewardVault }
func (p *Pool) RewardVaultBump() uint8     { return p.body.RewardVaultBump }
func (p *Pool) Tiers() tier.Tiers          { return p.body.Tiers }
func (p *Pool) Metrics() Metrics           { return p.body.Metrics }

func (p *Pool) Tier(id tier.ID) (tier.RewardTier, error) {
	if err := tier.Check(id); err != nil {
		return tier.RewardTier{}, err
	}
	return p.body.Tiers[id], nil
}

// Signer re-derives the pool signer from the stored bump.
func (p *Pool) Signer(addr ident.Address) (ident.Address, error) {
	signer, err := ident.CreateDerived(p.body.Bump, addr.Bytes())
	if err != nil {
		return ident.Address{}, errors.WithMessage(reverts.ErrBumpFailure, "pool signer")
	}
	return signer, nil
}

// Copy returns an independent copy for staged mutation.
func (p *Pool) Copy() *Pool {
	cpy := *p
	return &cpy
}

// CheckAuthority fails unless signer is the pool authority.
func (p *Pool) CheckAuthority(signer ident.Address) error {
	if signer != p.body.Authority {
		return reverts.ErrUnauthorized
	}
	return nil
}

// RequireUnpaused guards every user action.
func (p *Pool) RequireUnpaused() error {
	if p.body.Paused {
		return reverts.ErrPoolPaused
	}
	return nil
}

// RequireOpen guards actions creating new stakes.
func (p *Pool) RequireOpen() error {
	if err := p.RequireUnpaused(); err != nil {
		return err
	}
	if p.body.Closed {
		return reverts.ErrPoolClosed
	}
	return nil
}

// RequireClosed guards administrative teardown.
func (p *Pool) RequireClosed() error {
	if err := p.RequireUnpaused(); err != nil {
		return err
	}
	if !p.body.Closed {
		return reverts.ErrPoolHasToBeClosed
	}
	return nil
}

func (p *Pool) Pause() error {
	if err := p.RequireUnpaused(); err != nil {
		return err
	}
	p.body.Paused = true
	return nil
}

func (p *Pool) Unpause() error {
	if !p.body.Paused {
		return reverts.ErrPoolNotPaused
	}
	p.body.Paused = false
	return nil
}

func (p *Pool) Close() error {
	if err := p.RequireOpen(); err != nil {
		return err
	}
	p.body.Closed = true
	return nil
}

func (p *Pool) Open() error {
	if err := p.RequireClosed(); err != nil {
		return err
	}
	p.body.Closed = false
	return nil
}

// UseSlot takes a slot of the tier and books its reward as a requirement.
func (p *Pool) UseSlot(id tier.ID) error {
	t, err := p.body.Tiers.Get(id)
	if err != nil {
		return err
	}
	if err := t.UseSlot(); err != nil {
		return err
	}
	return p.body.Metrics.Stake(t.Reward)
}

// Complete marks a slot of the tier as unstaked.
func (p *Pool) Complete(id tier.ID) error {
	t, err := p.body.Tiers.Get(id)
	if err != nil {
		return err
	}
	return t.Complete()
}

// Claim records a reward payout.
func (p *Pool) Claim(amount uint64) error {
	return p.body.Metrics.Claim(amount)
}

// ExpectedVault is the principal the vault must hold for all active stakes.
func (p *Pool) ExpectedVault() (uint64, error) {
	var total uint64
	for _, t := range p.body.Tiers {
		amount, overflow := math.SafeMul(uint64(t.Active()), t.Stake)
		if overflow {
			return 0, reverts.ErrCalcFailure
		}
		if total, overflow = math.SafeAdd(total, amount); overflow {
			return 0, reverts.ErrCalcFailure
		}
	}
	return total, nil
}

// Extra computes the surplus of both vaults over the pool's obligations.
// Shortfalls count as zero surplus.
func (p *Pool) Extra(vaultBalance, rewardBalance uint64) (extraVault, extraRewards uint64, err error) {
	expected, err := p.ExpectedVault()
	if err != nil {
		return 0, 0, err
	}
	return saturatingSub(vaultBalance, expected), saturatingSub(rewardBalance, p.body.Metrics.Outstanding()), nil
}

// FullyCompleted reports whether every slot ever taken has been unstaked.
func (p *Pool) FullyCompleted() bool {
	for _, t := range p.body.Tiers {
		if !t.FullyCompleted() {
			return false
		}
	}
	return true
}

// CheckInvariants verifies the slot inventory of each tier and the reward liability.
func (p *Pool) CheckInvariants() error {
	for i, t := range p.body.Tiers {
		if err := t.CheckInvariant(); err != nil {
			return errors.WithMessage(err, tier.ID(i).String())
		}
	}
	return p.body.Metrics.CheckInvariant()
}

// EncodeRLP implements rlp.Encoder.
func (p *Pool) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &p.body)
}

// DecodeRLP implements rlp.Decoder.
func (p *Pool) DecodeRLP(s *rlp.Stream) error {
	var body body
	if err := s.Decode(&body); err != nil {
		return err
	}
	*p = Pool{body: body}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p *Pool) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Authority       ident.Address `json:"authority"`
		Bump            uint8         `json:"bump"`
		Paused          bool          `json:"paused"`
		Closed          bool          `json:"closed"`
		Vault           ident.Address `json:"vault"`
		VaultBump       uint8         `json:"vaultBump"`
		RewardVault     ident.Address `json:"rewardVault"`
		RewardVaultBump uint8         `json:"rewardVaultBump"`
		Tiers           tier.Tiers    `json:"tiers"`
		Metrics         Metrics       `json:"metrics"`
	}{
		p.body.Authority,
		p.body.Bump,
		p.body.Paused,
		p.body.Closed,
		p.body.Vault,
		p.body.VaultBump,
		p.body.RewardVault,
		p.body.RewardVaultBump,
		p.body.Tiers,
		p.body.Metrics,
	})
}

func saturatingSub(a, b uint64) uint64 {
	if a <= b {
		return 0
	}
	return a - b
}
