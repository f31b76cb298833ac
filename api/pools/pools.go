// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pools

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tierstake/tierstake/api/utils"
	"github.com/tierstake/tierstake/staking"
)

// Pools serves read-only views of pool and user records.
type Pools struct {
	staker *staking.Staker
	clock  func() uint64
}

// New creates the pools api. clock supplies "now" when a request omits it.
func New(staker *staking.Staker, clock func() uint64) *Pools {
	return &Pools{
		staker,
		clock,
	}
}

func (p *Pools) handleGetPool(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.ParseAddress("pool", mux.Vars(req)["pool"])
	if err != nil {
		return err
	}
	pl, err := p.staker.Pool(addr)
	if err != nil {
		return utils.StakingError(err)
	}
	vault, reward, err := p.staker.Vaults(addr)
	if err != nil {
		return utils.StakingError(err)
	}
	extraVault, extraRewards, err := pl.Extra(vault, reward)
	if err != nil {
		return utils.StakingError(err)
	}
	return utils.WriteJSON(w, &Pool{
		Address:      addr,
		Pool:         pl,
		VaultBalance: vault,
		RewardFunds:  reward,
		Outstanding:  pl.Metrics().Outstanding(),
		ExtraVault:   extraVault,
		ExtraRewards: extraRewards,
	})
}

func (p *Pools) handleGetUsers(w http.ResponseWriter, req *http.Request) error {
	addr, err := utils.ParseAddress("pool", mux.Vars(req)["pool"])
	if err != nil {
		return err
	}
	entries, err := p.staker.Users(addr)
	if err != nil {
		return utils.StakingError(err)
	}
	users := make([]*User, 0, len(entries))
	for _, e := range entries {
		users = append(users, &User{Address: e.Address, User: e.User})
	}
	return utils.WriteJSON(w, users)
}

func (p *Pools) handleGetUser(w http.ResponseWriter, req *http.Request) error {
	poolAddr, err := utils.ParseAddress("pool", mux.Vars(req)["pool"])
	if err != nil {
		return err
	}
	authority, err := utils.ParseAddress("authority", mux.Vars(req)["authority"])
	if err != nil {
		return err
	}
	now, err := utils.ParseUint("now", req.URL.Query().Get("now"), p.clock())
	if err != nil {
		return err
	}

	userAddr, u, err := p.staker.User(poolAddr, authority)
	if err != nil {
		return utils.StakingError(err)
	}
	claimable, err := p.staker.Claimable(poolAddr, authority, now)
	if err != nil {
		return utils.StakingError(err)
	}
	return utils.WriteJSON(w, &User{
		Address:   userAddr,
		User:      u,
		Claimable: &claimable,
		Now:       now,
	})
}

func (p *Pools) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{pool}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(p.handleGetPool))
	sub.Path("/{pool}/users").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(p.handleGetUsers))
	sub.Path("/{pool}/users/{authority}").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(p.handleGetUser))
}
