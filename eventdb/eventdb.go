// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

import (
	"context"
	"database/sql"

	sqlite3 "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/tierstake/tierstake/ident"
	"github.com/tierstake/tierstake/log"
	"github.com/tierstake/tierstake/staking"
	"github.com/tierstake/tierstake/staking/tier"
)

var logger = log.WithContext("pkg", "eventdb")

var _ staking.Emitter = (*EventDB)(nil)

// EventDB records staking events in sqlite.
type EventDB struct {
	path          string
	db            *sql.DB
	driverVersion string
}

// New create or open event db at given path.
func New(path string) (eventDB *EventDB, err error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if eventDB == nil {
			db.Close()
		}
	}()
	if path == ":memory:" {
		// every connection would open its own empty in-memory database
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(eventTableSchema); err != nil {
		return nil, err
	}

	driverVer, _, _ := sqlite3.Version()
	logger.Debug("opened event db", "path", path, "sqlite", driverVer)
	return &EventDB{
		path,
		db,
		driverVer,
	}, nil
}

// NewMem create an event db in ram.
func NewMem() (*EventDB, error) {
	return New(":memory:")
}

// Close close the event db.
func (db *EventDB) Close() error {
	return db.db.Close()
}

func (db *EventDB) Path() string {
	return db.path
}

func (db *EventDB) DriverVersion() string {
	return db.driverVersion
}

// Emit implements staking.Emitter.
func (db *EventDB) Emit(ev staking.Event, now uint64) error {
	var (
		tierID      any
		lockedUntil any
		amount      uint64
	)
	switch e := ev.(type) {
	case *staking.StakeEvent:
		tierID = int64(e.Tier)
		lockedUntil = int64(e.LockedUntil)
		amount = e.Amount
	case *staking.UnstakeEvent:
		tierID = int64(e.Tier)
		amount = e.Amount
	case *staking.ClaimEvent:
		amount = e.Amount
	default:
		return errors.Errorf("unsupported event %s", ev.Name())
	}

	if _, err := db.db.Exec("INSERT INTO event(name, pool, user, tier, lockedUntil, amount, time) VALUES (?, ?, ?, ?, ?, ?, ?)",
		ev.Name(),
		ev.PoolAddress().Bytes(),
		ev.UserAddress().Bytes(),
		tierID,
		lockedUntil,
		int64(amount),
		int64(now),
	); err != nil {
		return errors.Wrap(err, "insert event")
	}
	return nil
}

// FilterEvents returns the events matching filter in insertion order.
func (db *EventDB) FilterEvents(ctx context.Context, filter *Filter) ([]*Event, error) {
	const query = "SELECT seq, name, pool, user, tier, lockedUntil, amount, time FROM event"
	if filter == nil {
		return db.queryEvents(ctx, query+" ORDER BY seq ASC")
	}

	var args []any
	stmt := query + " WHERE 1"
	if filter.Pool != nil {
		args = append(args, filter.Pool.Bytes())
		stmt += " AND pool = ?"
	}
	if filter.User != nil {
		args = append(args, filter.User.Bytes())
		stmt += " AND user = ?"
	}
	if filter.Name != "" {
		args = append(args, filter.Name)
		stmt += " AND name = ?"
	}

	if filter.Order == DESC {
		stmt += " ORDER BY seq DESC"
	} else {
		stmt += " ORDER BY seq ASC"
	}

	if filter.Limit > 0 || filter.Offset > 0 {
		limit := int64(-1)
		if filter.Limit > 0 {
			limit = int64(filter.Limit)
		}
		stmt += " LIMIT ? OFFSET ?"
		args = append(args, limit, int64(filter.Offset))
	}
	return db.queryEvents(ctx, stmt, args...)
}

func (db *EventDB) queryEvents(ctx context.Context, stmt string, args ...any) ([]*Event, error) {
	rows, err := db.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query events")
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var (
			seq         int64
			name        string
			pool        []byte
			user        []byte
			tierID      sql.NullInt64
			lockedUntil sql.NullInt64
			amount      int64
			time        int64
		)
		if err := rows.Scan(&seq, &name, &pool, &user, &tierID, &lockedUntil, &amount, &time); err != nil {
			return nil, errors.Wrap(err, "scan event")
		}
		event := &Event{
			Seq:    uint64(seq),
			Name:   name,
			Pool:   ident.BytesToAddress(pool),
			User:   ident.BytesToAddress(user),
			Amount: uint64(amount),
			Time:   uint64(time),
		}
		if tierID.Valid {
			id := tier.ID(tierID.Int64)
			event.Tier = &id
		}
		if lockedUntil.Valid {
			v := uint64(lockedUntil.Int64)
			event.LockedUntil = &v
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate events")
	}
	return events, nil
}
