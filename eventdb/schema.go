// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package eventdb

// amounts and times are uint64 stored bit-for-bit in signed integer columns
const eventTableSchema = `
create table if not exists event (
	seq integer primary key autoincrement,
	name text not null,
	pool blob(20) not null,
	user blob(20) not null,
	tier integer,
	lockedUntil integer,
	amount integer not null,
	time integer not null
);

CREATE INDEX if not exists poolUserIndex on event(pool, user);
CREATE INDEX if not exists nameIndex on event(name);
`
