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

// Package db opens the declaration journal, a single SQLite database that
// records every declaration attempt.
package db

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"crawshaw.io/sqlite"
	"crawshaw.io/sqlite/sqlitex"
	"github.com/nightlyone/lockfile"

	_log "github.com/kuracoin/sndeclare/internal/log"
)

const (
	dbFileName   = "declarations.sqlite3"
	lockFileName = "db.lock"

	// ApplicationID is stored in the database header so that sndeclare
	// never writes to some other SQLite database.
	ApplicationID int32 = 0x534e4443
)

const baseFlags = sqlite.SQLITE_OPEN_WAL |
	sqlite.SQLITE_OPEN_URI |
	sqlite.SQLITE_OPEN_NOMUTEX

// Journal is an open declaration journal. Its methods may be called
// concurrently.
type Journal struct {
	mu       sync.Mutex
	conn     *sqlite.Conn
	lockFile lockfile.Lockfile
}

var log _log.Log

// Open the journal in the directory dbPath, creating it if needed. The
// directory is locked until Close is called, so only one process may use a
// journal at a time.
func Open(ctx context.Context, dbPath string) (_ *Journal, err error) {
	log = _log.New("pkg", "db")
	var j Journal

	dbPath, err = filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("filepath.Abs(): %w", err)
	}
	if err := os.MkdirAll(dbPath, 0755); err != nil {
		return nil, fmt.Errorf("os.MkdirAll(%q): %w", dbPath, err)
	}

	log.Debugf("Locking database directory...")
	lockFilePath := filepath.Join(dbPath, lockFileName)
	if j.lockFile, err = lockfile.New(lockFilePath); err != nil {
		return nil, fmt.Errorf("lockfile.New(%q): %w", lockFilePath, err)
	}
	if err = j.lockFile.TryLock(); err != nil {
		return nil, fmt.Errorf("lockfile.Lockfile.TryLock(): %w", err)
	}
	defer func() {
		if err != nil {
			if err := j.lockFile.Unlock(); err != nil {
				log.Errorf("lockfile.Lockfile.Unlock(): %v", err)
			}
		}
	}()

	dbURI := filepath.Join(dbPath, dbFileName)
	if j.conn, err = OpenConn(ctx, dbURI); err != nil {
		return nil, err
	}
	return &j, nil
}

// OpenConn opens a Conn to the sqlite3 database at dbURI and prepares it for
// use as a journal: the application_id is checked or set and any migrations
// are applied. The Conn has no interrupt set.
//
// The caller is responsible for closing conn if err is nil.
func OpenConn(ctx context.Context, dbURI string) (conn *sqlite.Conn, err error) {
	log = _log.New("pkg", "db")
	flags := baseFlags | sqlite.SQLITE_OPEN_READWRITE | sqlite.SQLITE_OPEN_CREATE
	if conn, err = sqlite.OpenConn(dbURI, flags); err != nil {
		return nil, fmt.Errorf("sqlite.OpenConn(%q, %x): %w",
			dbURI, flags, err)
	}
	defer func() {
		if err != nil {
			conn.Close()
			conn = nil
		}
	}()

	conn.SetInterrupt(ctx.Done())
	defer conn.SetInterrupt(nil)

	if err = checkOrSetApplicationID(conn); err != nil {
		return
	}
	if err = applyMigrations(conn, schema, migrations); err != nil {
		return
	}
	return conn, nil
}

// Close checkpoints the WAL, closes the database and releases the directory
// lock.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err := sqlitex.ExecScript(j.conn, `PRAGMA wal_checkpoint;`); err != nil {
		log.Errorf("PRAGMA wal_checkpoint: %v", err)
	}
	// Close this before unlocking so that the wal and shm files are
	// removed.
	if err := j.conn.Close(); err != nil {
		return fmt.Errorf("sqlite.Conn.Close(): %w", err)
	}
	if err := j.lockFile.Unlock(); err != nil {
		return fmt.Errorf("lockfile.Lockfile.Unlock(): %w", err)
	}
	return nil
}

// withConn runs f with the Conn held and interruptible by ctx.
func (j *Journal) withConn(ctx context.Context,
	f func(*sqlite.Conn) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.conn.SetInterrupt(ctx.Done())
	defer j.conn.SetInterrupt(nil)
	return f(j.conn)
}

func checkOrSetApplicationID(conn *sqlite.Conn) error {
	var appID int32
	if err := sqlitex.ExecTransient(conn, `PRAGMA "application_id";`,
		func(stmt *sqlite.Stmt) error {
			appID = stmt.ColumnInt32(0)
			return nil
		}); err != nil {
		return err
	}
	switch appID {
	case 0: // ApplicationID not set
		return sqlitex.ExecTransient(conn,
			fmt.Sprintf(`PRAGMA "application_id" = %v;`, ApplicationID),
			nil)
	case ApplicationID:
		return nil
	}
	return fmt.Errorf("invalid database: application_id")
}
