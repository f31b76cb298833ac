// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoopMetrics(t *testing.T) {
	metrics = defaultNoopMetrics()

	server := httptest.NewServer(HTTPHandler())
	defer server.Close()

	Counter("count").Add(1)
	CounterVec("countVec", []string{"zeroOrOne"}).AddWithLabel(1, map[string]string{"zeroOrOne": "0"})
	Gauge("gauge").Set(9)
	GaugeVec("gaugeVec", []string{"zeroOrOne"}).SetWithLabel(2, map[string]string{"zeroOrOne": "1"})

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
