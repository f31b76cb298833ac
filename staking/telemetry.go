// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package staking

import (
	"github.com/tierstake/tierstake/ident"
	"github.com/tierstake/tierstake/metrics"
	"github.com/tierstake/tierstake/staking/pool"
	"github.com/tierstake/tierstake/staking/reverts"
	"github.com/tierstake/tierstake/staking/tier"
)

var (
	metricOperations  = metrics.LazyLoadCounterVec("staking_operations_count", []string{"op", "result"})
	metricStaked      = metrics.LazyLoadCounterVec("staking_staked_amount", []string{"tier"})
	metricUnstaked    = metrics.LazyLoadCounterVec("staking_unstaked_amount", []string{"tier"})
	metricClaimed     = metrics.LazyLoadCounter("staking_claimed_amount")
	metricActiveSlots = metrics.LazyLoadGaugeVec("staking_active_slots", []string{"pool", "tier"})
	metricOutstanding = metrics.LazyLoadGaugeVec("staking_outstanding_reward", []string{"pool"})
	metricPoolCache   = metrics.LazyLoadGaugeVec("staking_pool_cache", []string{"event"})
)

func observe(op string, err error) {
	result := "ok"
	switch {
	case err == nil:
	case reverts.IsRevertErr(err):
		result = "revert"
	default:
		result = "error"
	}
	metricOperations().AddWithLabel(1, map[string]string{"op": op, "result": result})
}

func observePool(addr ident.Address, p *pool.Pool) {
	name := addr.String()
	for i, t := range p.Tiers() {
		metricActiveSlots().SetWithLabel(int64(t.Active()), map[string]string{"pool": name, "tier": tier.ID(i).String()})
	}
	metricOutstanding().SetWithLabel(int64(p.Metrics().Outstanding()), map[string]string{"pool": name})
}

func observeCache(r *Repository) {
	hit, miss := r.CacheStats()
	metricPoolCache().SetWithLabel(hit, map[string]string{"event": "hit"})
	metricPoolCache().SetWithLabel(miss, map[string]string{"event": "miss"})
}

func tierLabel(id tier.ID) map[string]string {
	return map[string]string{"tier": id.String()}
}
