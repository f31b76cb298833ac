// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/tierstake/tierstake/api/events"
	"github.com/tierstake/tierstake/api/middleware"
	"github.com/tierstake/tierstake/api/pools"
	"github.com/tierstake/tierstake/eventdb"
	"github.com/tierstake/tierstake/log"
	"github.com/tierstake/tierstake/metrics"
	"github.com/tierstake/tierstake/staking"
)

var logger = log.WithContext("pkg", "api")

type Options struct {
	AllowedOrigins       string
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	EnableMetrics        bool
	EventsLimit          uint64
	Clock                func() uint64
}

// New return api router. eventDB may be nil, in which case event queries are not served.
func New(staker *staking.Staker, eventDB *eventdb.EventDB, opts Options) http.Handler {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}
	clock := opts.Clock
	if clock == nil {
		clock = func() uint64 { return uint64(time.Now().Unix()) }
	}
	reqLogger := opts.EnableReqLogger
	if reqLogger == nil {
		reqLogger = &atomic.Bool{}
	}

	router := mux.NewRouter()

	pools.New(staker, clock).
		Mount(router, "/pools")
	if eventDB != nil {
		events.New(eventDB, opts.EventsLimit).
			Mount(router, "/pools")
	}

	if opts.EnableMetrics {
		router.Handle("/metrics", metrics.HTTPHandler())
		router.Use(metricsMiddleware)
	}
	router.Use(middleware.RequestLoggerMiddleware(logger, reqLogger, opts.SlowQueriesThreshold))

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
	)(handler)
	return handler
}
