// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/tierstake/tierstake/staking/tier"
)

// tierConfig is one entry of the tier file. Stake, duration and reward are
// required. Supply is the number of slots.
type tierConfig struct {
	Supply   uint16 `yaml:"supply"`
	Stake    uint64 `yaml:"stake"`
	Duration uint64 `yaml:"duration"`
	Reward   uint64 `yaml:"reward"`
}

// poolConfig is the YAML layout read by the init command:
//
//	tiers:
//	  Tier500:  {supply: 10, stake: 500, duration: 2592000, reward: 50}
//	  Tier1000: {supply: 5, stake: 1000, duration: 2592000, reward: 120}
//	  Tier1500: {supply: 2, stake: 1500, duration: 5184000, reward: 400}
type poolConfig struct {
	Tiers map[string]tierConfig `yaml:"tiers"`
}

func (c *poolConfig) tiers() (tier.Tiers, error) {
	var (
		tiers tier.Tiers
		seen  [tier.Count]bool
	)
	for name, tc := range c.Tiers {
		id, err := tier.ParseID(name)
		if err != nil {
			return tier.Tiers{}, err
		}
		if seen[id] {
			return tier.Tiers{}, errors.Errorf("tier %v configured twice", id)
		}
		seen[id] = true
		tiers[id] = tier.New(tc.Supply, tc.Stake, tc.Duration, tc.Reward)
	}
	for id, ok := range seen {
		if !ok {
			return tier.Tiers{}, errors.Errorf("tier %v not configured", tier.ID(id))
		}
	}
	if err := tiers.Validate(); err != nil {
		return tier.Tiers{}, err
	}
	return tiers, nil
}

func parsePoolConfig(data []byte) (tier.Tiers, error) {
	var cfg poolConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return tier.Tiers{}, errors.Wrap(err, "parse tier config")
	}
	return cfg.tiers()
}

func loadPoolConfig(path string) (tier.Tiers, error) {
	if path == "" {
		return tier.Tiers{}, errors.New("missing --config")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return tier.Tiers{}, errors.Wrap(err, "read tier config")
	}
	return parsePoolConfig(data)
}
