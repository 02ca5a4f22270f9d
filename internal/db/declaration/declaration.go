// MIT License
//
// Copyright 2018 Canonical Ledgers, LLC
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS
// IN THE SOFTWARE.

// Package declaration provides functions and SQL framents for working with the
// "declaration" table, which journals every declaration attempt and the last
// state it reached.
package declaration

import (
	"fmt"
	"time"

	"crawshaw.io/sqlite"
	"github.com/NethermindEth/juno/core/felt"
	"github.com/kuracoin/sndeclare/starknet"
)

// CreateTable is a SQL string that creates the "declaration" table.
//
// A declaration attempt is identified by its contract name, sender and start
// time. Its row is updated in place on every state transition.
const CreateTable = `CREATE TABLE IF NOT EXISTS "declaration" (
        "id"                    INTEGER PRIMARY KEY,
        "name"                  TEXT NOT NULL,
        "chain"                 TEXT NOT NULL,
        "version"               INTEGER NOT NULL,
        "sender"                TEXT NOT NULL,
        "started"               INTEGER NOT NULL,
        "state"                 TEXT NOT NULL,
        "class_hash"            TEXT,
        "compiled_class_hash"   TEXT,
        "tx_hash"               TEXT,
        "finality_status"       TEXT,
        "execution_status"      TEXT,
        "polls"                 INTEGER NOT NULL DEFAULT 0,
        "error"                 TEXT,
        "updated"               INTEGER NOT NULL,

        UNIQUE("name", "sender", "started")
);
CREATE INDEX IF NOT EXISTS "idx_declaration_name" ON "declaration"("name");
CREATE INDEX IF NOT EXISTS "idx_declaration_tx_hash" ON "declaration"("tx_hash");
`

// Row is a single declaration attempt.
type Row struct {
	ID      int64
	Name    string
	Chain   starknet.ChainID
	Version starknet.TransactionVersion
	Sender  *felt.Felt
	Started time.Time
	State   string

	ClassHash         *felt.Felt
	CompiledClassHash *felt.Felt
	TxHash            *felt.Felt

	FinalityStatus  starknet.FinalityStatus
	ExecutionStatus starknet.ExecutionStatus
	Polls           int

	Error   string
	Updated time.Time
}

// Upsert r, keyed by its Name, Sender and Started time. An existing row has
// every other column overwritten.
func Upsert(conn *sqlite.Conn, r Row) error {
	stmt := conn.Prep(`INSERT INTO "declaration"
                ("name", "chain", "version", "sender", "started", "state",
                 "class_hash", "compiled_class_hash", "tx_hash",
                 "finality_status", "execution_status", "polls",
                 "error", "updated")
                VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
                ON CONFLICT("name", "sender", "started") DO UPDATE SET
                        "chain" = "excluded"."chain",
                        "version" = "excluded"."version",
                        "state" = "excluded"."state",
                        "class_hash" = "excluded"."class_hash",
                        "compiled_class_hash" = "excluded"."compiled_class_hash",
                        "tx_hash" = "excluded"."tx_hash",
                        "finality_status" = "excluded"."finality_status",
                        "execution_status" = "excluded"."execution_status",
                        "polls" = "excluded"."polls",
                        "error" = "excluded"."error",
                        "updated" = "excluded"."updated";`)
	stmt.BindText(1, r.Name)
	stmt.BindText(2, r.Chain.Felt().String())
	stmt.BindInt64(3, int64(r.Version))
	bindFelt(stmt, 4, r.Sender)
	stmt.BindInt64(5, r.Started.UnixNano())
	stmt.BindText(6, r.State)
	bindFelt(stmt, 7, r.ClassHash)
	bindFelt(stmt, 8, r.CompiledClassHash)
	bindFelt(stmt, 9, r.TxHash)
	bindText(stmt, 10, string(r.FinalityStatus))
	bindText(stmt, 11, string(r.ExecutionStatus))
	stmt.BindInt64(12, int64(r.Polls))
	bindText(stmt, 13, r.Error)
	updated := r.Updated
	if updated.IsZero() {
		updated = time.Now()
	}
	stmt.BindInt64(14, updated.Unix())

	_, err := stmt.Step()
	return err
}

// UpdateStatus sets the state and statuses of every row with txHash. The
// number of rows changed is returned.
func UpdateStatus(conn *sqlite.Conn, txHash *felt.Felt, state string,
	finality starknet.FinalityStatus, execution starknet.ExecutionStatus,
	polls int) (int, error) {
	stmt := conn.Prep(`UPDATE "declaration" SET
                "state" = ?, "finality_status" = ?, "execution_status" = ?,
                "polls" = "polls" + ?, "updated" = ?
                WHERE "tx_hash" = ?;`)
	stmt.BindText(1, state)
	bindText(stmt, 2, string(finality))
	bindText(stmt, 3, string(execution))
	stmt.BindInt64(4, int64(polls))
	stmt.BindInt64(5, time.Now().Unix())
	bindFelt(stmt, 6, txHash)
	if _, err := stmt.Step(); err != nil {
		return 0, err
	}
	return conn.Changes(), nil
}

// SelectWhere is a SQL fragment for retrieving rows from the "declaration"
// table with Select().
const SelectWhere = `SELECT "id", "name", "chain", "version", "sender",
        "started", "state", "class_hash", "compiled_class_hash", "tx_hash",
        "finality_status", "execution_status", "polls", "error", "updated"
                FROM "declaration" WHERE `
const (
	colID = iota
	colName
	colChain
	colVersion
	colSender
	colStarted
	colState
	colClassHash
	colCompiledClassHash
	colTxHash
	colFinality
	colExecution
	colPolls
	colError
	colUpdated
)

// Select the next Row from the given prepared Stmt. If there are no more rows,
// (nil, nil) is returned.
//
// The Stmt must be created with a SQL string starting with SelectWhere.
func Select(stmt *sqlite.Stmt) (*Row, error) {
	hasRow, err := stmt.Step()
	if err != nil || !hasRow {
		return nil, err
	}

	r := Row{
		ID:      stmt.ColumnInt64(colID),
		Name:    stmt.ColumnText(colName),
		Version: starknet.TransactionVersion(stmt.ColumnInt64(colVersion)),
		Started: time.Unix(0, stmt.ColumnInt64(colStarted)),
		State:   stmt.ColumnText(colState),

		FinalityStatus: starknet.FinalityStatus(
			stmt.ColumnText(colFinality)),
		ExecutionStatus: starknet.ExecutionStatus(
			stmt.ColumnText(colExecution)),
		Polls: stmt.ColumnInt(colPolls),

		Error:   stmt.ColumnText(colError),
		Updated: time.Unix(stmt.ColumnInt64(colUpdated), 0),
	}
	if r.Chain, err = starknet.ParseChainID(stmt.ColumnText(colChain)); err != nil {
		return nil, fmt.Errorf("row %v: chain: %w", r.ID, err)
	}
	for _, c := range []struct {
		col int
		f   **felt.Felt
	}{
		{colSender, &r.Sender},
		{colClassHash, &r.ClassHash},
		{colCompiledClassHash, &r.CompiledClassHash},
		{colTxHash, &r.TxHash},
	} {
		if *c.f, err = columnFelt(stmt, c.col); err != nil {
			return nil, fmt.Errorf("row %v: %w", r.ID, err)
		}
	}
	return &r, nil
}

// SelectAll returns every row, oldest first.
func SelectAll(conn *sqlite.Conn) ([]Row, error) {
	stmt := conn.Prep(SelectWhere + `true ORDER BY "started", "id";`)
	defer stmt.Reset()
	return selectRows(stmt)
}

// SelectByName returns every attempt to declare name, oldest first.
func SelectByName(conn *sqlite.Conn, name string) ([]Row, error) {
	stmt := conn.Prep(SelectWhere + `"name" = ? ORDER BY "started", "id";`)
	defer stmt.Reset()
	stmt.BindText(1, name)
	return selectRows(stmt)
}

// SelectLatest returns the most recent attempt to declare name, or nil if
// there is none.
func SelectLatest(conn *sqlite.Conn, name string) (*Row, error) {
	stmt := conn.Prep(SelectWhere +
		`"name" = ? ORDER BY "started" DESC, "id" DESC LIMIT 1;`)
	defer stmt.Reset()
	stmt.BindText(1, name)
	return Select(stmt)
}

// SelectByTxHash returns the attempt that submitted txHash, or nil.
func SelectByTxHash(conn *sqlite.Conn, txHash *felt.Felt) (*Row, error) {
	stmt := conn.Prep(SelectWhere + `"tx_hash" = ? LIMIT 1;`)
	defer stmt.Reset()
	bindFelt(stmt, 1, txHash)
	return Select(stmt)
}

func selectRows(stmt *sqlite.Stmt) ([]Row, error) {
	var rows []Row
	for {
		r, err := Select(stmt)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return rows, nil
		}
		rows = append(rows, *r)
	}
}

func bindFelt(stmt *sqlite.Stmt, param int, f *felt.Felt) {
	if f == nil {
		stmt.BindNull(param)
		return
	}
	stmt.BindText(param, f.String())
}

func bindText(stmt *sqlite.Stmt, param int, s string) {
	if s == "" {
		stmt.BindNull(param)
		return
	}
	stmt.BindText(param, s)
}

func columnFelt(stmt *sqlite.Stmt, col int) (*felt.Felt, error) {
	if stmt.ColumnLen(col) == 0 {
		return nil, nil
	}
	return starknet.ParseFelt(stmt.ColumnText(col))
}
