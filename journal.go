// Copyright (C) 2022  Shanhu Tech Inc.
//
// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the
// Free Software Foundation, either version 3 of the License, or (at your
// option) any later version.
//
// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License
// for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package ngpack

import (
	"database/sql"
	"time"

	"shanhu.io/misc/errcode"

	_ "modernc.org/sqlite" // sqlite driver
)

// Journal records build runs and their stage results in a sqlite
// database.
type Journal struct {
	db *sql.DB
}

var journalSchema = []string{`
create table if not exists runs (
	id integer primary key autoincrement,
	root text not null,
	started integer not null,
	ok integer not null
)`, `
create table if not exists stages (
	run integer not null,
	seq integer not null,
	name text not null,
	ok integer not null,
	err text not null,
	millis integer not null,
	primary key (run, seq)
)`,
}

// OpenJournal opens or creates the journal database file f.
func OpenJournal(f string) (*Journal, error) {
	if _, err := prepareFile(f); err != nil {
		return nil, errcode.Annotate(err, "prepare journal dir")
	}
	db, err := sql.Open("sqlite", f)
	if err != nil {
		return nil, errcode.Annotate(err, "open journal")
	}
	for _, q := range journalSchema {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, errcode.Annotate(err, "create journal tables")
		}
	}
	return &Journal{db: db}, nil
}

// Close closes the journal database.
func (j *Journal) Close() error { return j.db.Close() }

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Record saves one run and its stage results, returning the run id.
func (j *Journal) Record(
	root string, started time.Time, results []*StageResult,
) (int64, error) {
	ok := true
	for _, r := range results {
		ok = ok && r.OK
	}

	tx, err := j.db.Begin()
	if err != nil {
		return 0, errcode.Annotate(err, "begin")
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`insert into runs (root, started, ok) values (?, ?, ?)`,
		root, started.UnixNano(), boolInt(ok),
	)
	if err != nil {
		return 0, errcode.Annotate(err, "insert run")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errcode.Annotate(err, "get run id")
	}

	for i, r := range results {
		msg := ""
		if r.Err != nil {
			msg = r.Err.Error()
		}
		if _, err := tx.Exec(
			`insert into stages (run, seq, name, ok, err, millis)
			values (?, ?, ?, ?, ?, ?)`,
			id, i, r.Stage, boolInt(r.OK), msg, r.Duration.Milliseconds(),
		); err != nil {
			return 0, errcode.Annotatef(err, "insert stage %s", r.Stage)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, errcode.Annotate(err, "commit")
	}
	return id, nil
}

// StageRecord is a stage result read back from the journal.
type StageRecord struct {
	Name     string
	OK       bool
	Err      string
	Duration time.Duration
}

// RunRecord is a build run read back from the journal.
type RunRecord struct {
	ID      int64
	Root    string
	Started time.Time
	OK      bool
	Stages  []*StageRecord
}

// LastRuns returns the n most recent runs, newest first.
func (j *Journal) LastRuns(n int) ([]*RunRecord, error) {
	rows, err := j.db.Query(
		`select id, root, started, ok from runs
		order by id desc limit ?`, n,
	)
	if err != nil {
		return nil, errcode.Annotate(err, "query runs")
	}
	defer rows.Close()

	var runs []*RunRecord
	for rows.Next() {
		r := new(RunRecord)
		var started int64
		var ok int
		if err := rows.Scan(&r.ID, &r.Root, &started, &ok); err != nil {
			return nil, errcode.Annotate(err, "scan run")
		}
		r.Started = time.Unix(0, started)
		r.OK = ok != 0
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errcode.Annotate(err, "iterate runs")
	}
	rows.Close()

	for _, r := range runs {
		stages, err := j.stages(r.ID)
		if err != nil {
			return nil, errcode.Annotatef(err, "read run %d", r.ID)
		}
		r.Stages = stages
	}
	return runs, nil
}

func (j *Journal) stages(run int64) ([]*StageRecord, error) {
	rows, err := j.db.Query(
		`select name, ok, err, millis from stages
		where run = ? order by seq`, run,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []*StageRecord
	for rows.Next() {
		s := new(StageRecord)
		var ok int
		var millis int64
		if err := rows.Scan(&s.Name, &ok, &s.Err, &millis); err != nil {
			return nil, err
		}
		s.OK = ok != 0
		s.Duration = time.Duration(millis) * time.Millisecond
		stages = append(stages, s)
	}
	return stages, rows.Err()
}
