// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package user

import (
	"encoding/json"
	"io"

	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/tierstake/tierstake/ident"
	"github.com/tierstake/tierstake/staking/reverts"
	"github.com/tierstake/tierstake/staking/stake"
	"github.com/tierstake/tierstake/staking/tier"
)

// Address derives the record address of authority's user in pool.
func Address(pool, authority ident.Address) (ident.Address, uint8, error) {
	addr, bump, err := ident.FindDerived(pool.Bytes(), authority.Bytes())
	if err != nil {
		return ident.Address{}, 0, errors.WithMessage(reverts.ErrBumpFailure, "user")
	}
	return addr, bump, nil
}

// User is one participant's staking record in a pool.
type User struct {
	body body
}

type body struct {
	Pool      ident.Address
	Authority ident.Address
	Stakes    stake.Stakes
	Bump      uint8
}

func New(pool, authority ident.Address, bump uint8) *User {
	return &User{body: body{
		Pool:      pool,
		Authority: authority,
		Bump:      bump,
	}}
}

func (u *User) Pool() ident.Address      { return u.body.Pool }
func (u *User) Authority() ident.Address { return u.body.Authority }
func (u *User) Bump() uint8              { return u.body.Bump }
func (u *User) Stakes() stake.Stakes     { return u.body.Stakes }

// Address re-derives the record address from the stored bump.
func (u *User) Address() (ident.Address, error) {
	addr, err := ident.CreateDerived(u.body.Bump, u.body.Pool.Bytes(), u.body.Authority.Bytes())
	if err != nil {
		return ident.Address{}, errors.WithMessage(reverts.ErrBumpFailure, "user")
	}
	return addr, nil
}

func (u *User) Stake(id tier.ID) (stake.Status, error) {
	if err := tier.Check(id); err != nil {
		return stake.Status{}, err
	}
	return u.body.Stakes[id], nil
}

// Check verifies the record belongs to pool and is owned by signer.
func (u *User) Check(pool, signer ident.Address) error {
	if u.body.Pool != pool {
		return reverts.ErrUserPoolMismatch
	}
	if u.body.Authority != signer {
		return reverts.ErrUnauthorized
	}
	return nil
}

// SetStake replaces the status of one tier.
func (u *User) SetStake(id tier.ID, s stake.Status) error {
	if err := tier.Check(id); err != nil {
		return err
	}
	u.body.Stakes[id] = s
	return nil
}

// SetStakes replaces every status at once, as a claim does.
func (u *User) SetStakes(ss stake.Stakes) {
	u.body.Stakes = ss
}

func (u *User) Copy() *User {
	cpy := *u
	return &cpy
}

// EncodeRLP implements rlp.Encoder.
func (u *User) EncodeRLP(w io.Writer) error {
	return rlp.Encode(w, &u.body)
}

// DecodeRLP implements rlp.Decoder.
func (u *User) DecodeRLP(s *rlp.Stream) error {
	var body body
	if err := s.Decode(&body); err != nil {
		return err
	}
	*u = User{body: body}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (u *User) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Pool      ident.Address `json:"pool"`
		Authority ident.Address `json:"authority"`
		Stakes    stake.Stakes  `json:"stakes"`
		Bump      uint8         `json:"bump"`
	}{
		u.body.Pool,
		u.body.Authority,
		u.body.Stakes,
		u.body.Bump,
	})
}
