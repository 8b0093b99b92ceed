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
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zintix-labs/bucketlab/bucket"
	"github.com/zintix-labs/bucketlab/errs"
)

// FileExt 快取檔副檔名
const FileExt = ".buckets.json.zst"

// FileStore 以目錄保存分類表：<dir>/<hash>.buckets.json.zst
type FileStore struct {
	dir string
}

// NewFileStore 建立檔案快取，目錄不存在時自動建立。
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(err, "cache.file : mkdir failed")
	}
	return &FileStore{dir: dir}, nil
}

// Path 回傳雜湊對應的檔案路徑
func (s *FileStore) Path(hash string) string {
	return filepath.Join(s.dir, hash+FileExt)
}

// Load 實作 Store
func (s *FileStore) Load(ctx context.Context, hash string) (*bucket.Table, error) {
	if !validHash(hash) {
		return nil, errs.Fatalf("cache.file : invalid hash %q", hash)
	}
	data, err := os.ReadFile(s.Path(hash))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, errs.Wrap(err, "cache.file : read failed")
	}
	return Decode(data)
}

// Save 寫入同目錄暫存檔、fsync 後 rename，讀者不會看到寫到一半的檔案。
func (s *FileStore) Save(ctx context.Context, t *bucket.Table) error {
	if !validHash(t.Hash) {
		return errs.Fatalf("cache.file : invalid hash %q", t.Hash)
	}
	data, _, err := Encode(t)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(s.dir, "."+t.Hash+".*.tmp")
	if err != nil {
		return errs.Wrap(err, "cache.file : create temp failed")
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}
	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return errs.Wrap(err, "cache.file : write failed")
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return errs.Wrap(err, "cache.file : fsync failed")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errs.Wrap(err, "cache.file : close failed")
	}
	if err := os.Rename(tmpName, s.Path(t.Hash)); err != nil {
		os.Remove(tmpName)
		return errs.Wrap(err, "cache.file : rename failed")
	}
	return nil
}

// validHash 只接受小寫十六進位，避免路徑穿越
func validHash(h string) bool {
	if len(h) == 0 || len(h) > 128 {
		return false
	}
	for i := 0; i < len(h); i++ {
		c := h[i]
		if !(c >= '0' && c <= '9' || c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}
