// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package cache

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLRU(t *testing.T) {
	_, err := NewLRU[string, int](0)
	assert.Error(t, err)
}

func TestLRUGetOrLoad(t *testing.T) {
	c, err := NewLRU[string, int](2)
	require.NoError(t, err)

	loads := 0
	load := func(k string) (int, bool, error) {
		loads++
		switch k {
		case "missing":
			return 0, false, nil
		case "broken":
			return 0, false, errors.New("broken")
		}
		return len(k), true, nil
	}

	v, ok, err := c.GetOrLoad("abc", load)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, v)

	v, ok, err = c.GetOrLoad("abc", load)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 1, loads)

	_, ok, err = c.GetOrLoad("missing", load)
	require.NoError(t, err)
	assert.False(t, ok)
	_, _, err = c.GetOrLoad("broken", load)
	assert.Error(t, err)
	assert.Equal(t, 1, c.Len())

	c.Remove("abc")
	_, ok = c.Get("abc")
	assert.False(t, ok)

	hit, miss := c.Stats()
	assert.Equal(t, int64(1), hit)
	assert.Equal(t, int64(4), miss)
}

func TestLRUEviction(t *testing.T) {
	c, err := NewLRU[int, string](2)
	require.NoError(t, err)

	c.Add(1, "a")
	c.Add(2, "b")
	c.Add(3, "c")

	_, ok := c.Get(1)
	assert.False(t, ok)
	v, ok := c.Get(3)
	assert.True(t, ok)
	assert.Equal(t, "c", v)
}
