// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cache

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/zintix-labs/bucketlab/bucket"
	"github.com/zintix-labs/bucketlab/errs"
	_ "modernc.org/sqlite"
)

// SQLiteStore 以單一資料表保存分類表，適合多個行程共用同一份快取。
type SQLiteStore struct {
	db *sql.DB
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS bucket_cache (
		hash TEXT PRIMARY KEY,
		version INTEGER NOT NULL,
		build_id TEXT NOT NULL,
		payload BLOB NOT NULL,
		created_at DATETIME NOT NULL
	)`,
}

// NewSQLiteStore 開啟（或建立）資料庫並啟用 WAL
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errs.Wrap(err, "cache.sqlite : open failed")
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errs.Wrap(err, "cache.sqlite : enable WAL failed")
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, errs.Wrap(err, "cache.sqlite : busy_timeout failed")
	}
	for _, stmt := range sqliteSchema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errs.Wrap(err, "cache.sqlite : schema failed")
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Close 關閉資料庫
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Load 實作 Store
func (s *SQLiteStore) Load(ctx context.Context, hash string) (*bucket.Table, error) {
	var (
		version int
		payload []byte
	)
	row := s.db.QueryRowContext(ctx, `SELECT version, payload FROM bucket_cache WHERE hash = ?`, hash)
	if err := row.Scan(&version, &payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMiss
		}
		return nil, errs.Wrap(err, "cache.sqlite : query failed")
	}
	if version != Version {
		return nil, errs.CacheCorruptf("cache.sqlite : row version %d != %d", version, Version)
	}
	return Decode(payload)
}

// Save 實作 Store：單一交易內覆寫
func (s *SQLiteStore) Save(ctx context.Context, t *bucket.Table) error {
	data, buildID, err := Encode(t)
	if err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errs.Wrap(err, "cache.sqlite : begin failed")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO bucket_cache (hash, version, build_id, payload, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return errs.Wrap(err, "cache.sqlite : prepare failed")
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, t.Hash, Version, buildID, data, time.Now().UTC()); err != nil {
		return errs.Wrap(err, "cache.sqlite : insert failed")
	}
	if err := tx.Commit(); err != nil {
		return errs.Wrap(err, "cache.sqlite : commit failed")
	}
	return nil
}
