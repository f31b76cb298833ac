// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package events

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/tierstake/tierstake/api/utils"
	"github.com/tierstake/tierstake/eventdb"
)

type Events struct {
	db    *eventdb.EventDB
	limit uint64
}

// New creates the events api. limit caps the page size of a single query.
func New(db *eventdb.EventDB, limit uint64) *Events {
	return &Events{
		db,
		limit,
	}
}

func (e *Events) parseFilter(req *http.Request) (*eventdb.Filter, error) {
	query := req.URL.Query()
	pool, err := utils.ParseAddress("pool", mux.Vars(req)["pool"])
	if err != nil {
		return nil, err
	}
	filter := &eventdb.Filter{
		Pool: &pool,
		Name: query.Get("name"),
	}

	if s := query.Get("user"); s != "" {
		user, err := utils.ParseAddress("user", s)
		if err != nil {
			return nil, err
		}
		filter.User = &user
	}

	switch order := eventdb.Order(query.Get("order")); order {
	case "", eventdb.ASC, eventdb.DESC:
		filter.Order = order
	default:
		return nil, utils.BadRequest(errors.New("order: must be asc or desc"))
	}

	if filter.Offset, err = utils.ParseUint("offset", query.Get("offset"), 0); err != nil {
		return nil, err
	}
	if filter.Limit, err = utils.ParseUint("limit", query.Get("limit"), e.limit); err != nil {
		return nil, err
	}
	if e.limit > 0 && (filter.Limit == 0 || filter.Limit > e.limit) {
		return nil, utils.BadRequest(fmt.Errorf("limit: must be between 1 and %d", e.limit))
	}
	return filter, nil
}

func (e *Events) handleFilter(w http.ResponseWriter, req *http.Request) error {
	filter, err := e.parseFilter(req)
	if err != nil {
		return err
	}
	evs, err := e.db.FilterEvents(req.Context(), filter)
	if err != nil {
		return err
	}
	if evs == nil {
		evs = []*eventdb.Event{}
	}
	return utils.WriteJSON(w, evs)
}

func (e *Events) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()

	sub.Path("/{pool}/events").Methods(http.MethodGet).HandlerFunc(utils.WrapHandlerFunc(e.handleFilter))
}
