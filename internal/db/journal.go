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

package db

import (
	"context"
	"time"

	"crawshaw.io/sqlite"
	"github.com/NethermindEth/juno/core/felt"

	"github.com/kuracoin/sndeclare/internal/db/declaration"
	"github.com/kuracoin/sndeclare/internal/declare"
)

var _ declare.Journal = (*Journal)(nil)

// Record the current state of a declaration attempt.
func (j *Journal) Record(ctx context.Context, r declare.Result) error {
	row := declaration.Row{
		Name:              r.Name,
		Chain:             r.Chain,
		Version:           r.Version,
		Sender:            r.Sender,
		Started:           r.Started,
		State:             string(r.State),
		ClassHash:         r.ClassHash,
		CompiledClassHash: r.CompiledClassHash,
		TxHash:            r.TxHash,
		Updated:           time.Now(),
	}
	if r.Receipt != nil {
		row.FinalityStatus = r.Receipt.FinalityStatus
		row.ExecutionStatus = r.Receipt.ExecutionStatus
		row.Polls = r.Receipt.Polls
	}
	if r.Err != nil {
		row.Error = r.Err.Error()
	}
	return j.withConn(ctx, func(conn *sqlite.Conn) error {
		return declaration.Upsert(conn, row)
	})
}

// Declarations returns every recorded attempt, oldest first. If name is not
// empty only attempts to declare name are returned.
func (j *Journal) Declarations(ctx context.Context,
	name string) (rows []declaration.Row, err error) {
	err = j.withConn(ctx, func(conn *sqlite.Conn) error {
		if name == "" {
			rows, err = declaration.SelectAll(conn)
		} else {
			rows, err = declaration.SelectByName(conn, name)
		}
		return err
	})
	return
}

// Latest returns the most recent attempt to declare name, or nil.
func (j *Journal) Latest(ctx context.Context,
	name string) (row *declaration.Row, err error) {
	err = j.withConn(ctx, func(conn *sqlite.Conn) error {
		row, err = declaration.SelectLatest(conn, name)
		return err
	})
	return
}

// ByTxHash returns the attempt that submitted txHash, or nil.
func (j *Journal) ByTxHash(ctx context.Context,
	txHash *felt.Felt) (row *declaration.Row, err error) {
	err = j.withConn(ctx, func(conn *sqlite.Conn) error {
		row, err = declaration.SelectByTxHash(conn, txHash)
		return err
	})
	return
}

// RecordReceipt updates the attempt that submitted receipt.TxHash with the
// outcome of a later confirmation. It reports whether such an attempt exists.
func (j *Journal) RecordReceipt(ctx context.Context,
	receipt *declare.Receipt, state declare.State) (found bool, err error) {
	err = j.withConn(ctx, func(conn *sqlite.Conn) error {
		n, err := declaration.UpdateStatus(conn, receipt.TxHash,
			string(state), receipt.FinalityStatus,
			receipt.ExecutionStatus, receipt.Polls)
		found = n > 0
		return err
	})
	return
}
