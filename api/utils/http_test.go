// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tierstake/tierstake/staking/reverts"
)

func serve(f HandlerFunc) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	WrapHandlerFunc(f)(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	return rec
}

func TestWrapHandlerFunc(t *testing.T) {
	rec := serve(func(w http.ResponseWriter, _ *http.Request) error {
		return WriteJSON(w, M{"ok": true})
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, JSONContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, "{\"ok\":true}\n", rec.Body.String())

	rec = serve(func(http.ResponseWriter, *http.Request) error {
		return BadRequest(errors.New("bad"))
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad", strings.TrimSpace(rec.Body.String()))

	rec = serve(func(http.ResponseWriter, *http.Request) error {
		return HTTPError(nil, http.StatusTeapot)
	})
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = serve(func(http.ResponseWriter, *http.Request) error {
		return errors.New("boom")
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStakingError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{reverts.ErrPoolNotFound, http.StatusNotFound},
		{errors.WithMessage(reverts.ErrUserNotFound, "alice"), http.StatusNotFound},
		{reverts.ErrPoolPaused, http.StatusBadRequest},
		{errors.New("disk"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		rec := serve(func(http.ResponseWriter, *http.Request) error {
			return StakingError(c.err)
		})
		assert.Equal(t, c.status, rec.Code, c.err.Error())
	}
}

func TestParse(t *testing.T) {
	_, err := ParseAddress("pool", "0xzz")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool")

	v, err := ParseUint("now", "", 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), v)

	v, err = ParseUint("now", "42", 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), v)

	_, err = ParseUint("now", "-1", 0)
	assert.Error(t, err)
}
