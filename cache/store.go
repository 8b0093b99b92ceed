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
	"strings"
	"sync"

	"github.com/zintix-labs/bucketlab/bucket"
	"github.com/zintix-labs/bucketlab/errs"
)

// Store 分類表的持久層。
//
// Load 找不到時回傳 ErrMiss；資料無法解析時回傳快取毀損錯誤（errs.KindCacheCorrupt）。
// Save 必須是原子的：讀者只會看到完整的舊資料或完整的新資料。
type Store interface {
	Load(ctx context.Context, hash string) (*bucket.Table, error)
	Save(ctx context.Context, t *bucket.Table) error
}

// MemStore 程序內快取，分類表建立後唯讀，可直接共用指標。
type MemStore struct {
	mu     sync.RWMutex
	tables map[string]*bucket.Table
}

// NewMemStore 建立記憶體快取
func NewMemStore() *MemStore {
	return &MemStore{tables: map[string]*bucket.Table{}}
}

// Load 實作 Store
func (m *MemStore) Load(ctx context.Context, hash string) (*bucket.Table, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tables[hash]
	if !ok {
		return nil, ErrMiss
	}
	return t, nil
}

// Save 實作 Store
func (m *MemStore) Save(ctx context.Context, t *bucket.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[t.Hash] = t
	return nil
}

// Open 依名稱建立快取：mem、file（path 為目錄）、sqlite（path 為資料庫檔）。
// 回傳的 close 用於釋放資源，mem/file 為 no-op。
func Open(kind string, path string) (Store, func() error, error) {
	nop := func() error { return nil }
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "mem":
		return NewMemStore(), nop, nil
	case "file":
		s, err := NewFileStore(path)
		if err != nil {
			return nil, nil, err
		}
		return s, nop, nil
	case "sqlite":
		s, err := NewSQLiteStore(path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return nil, nil, errs.NewFatal("unknown cache kind: " + kind)
	}
}
