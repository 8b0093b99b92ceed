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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zintix-labs/bucketlab/bucket"
	"github.com/zintix-labs/bucketlab/errs"
	"github.com/zintix-labs/bucketlab/sdk/core"
	"github.com/zintix-labs/bucketlab/spec"
)

const tinyYAML = `
game_name: tiny
reel_sets:
  - [H1, L1, W1]
  - [H1, L2, C1]
  - [H1, L1, L2]
  - [L2, H1, C1]
  - [L2, L1, H1]
pay_table:
  H1: { 3: 10, 4: 20, 5: 50 }
  L1: { 3: 2, 4: 4, 5: 8 }
  L2: { 3: 1, 4: 3, 5: 5 }
lines:
  1: [[0, 0], [0, 1], [0, 2], [0, 3], [0, 4]]
  2: [[1, 0], [1, 1], [1, 2], [1, 3], [1, 4]]
buckets:
  Loss_Random:   { weight: 60 }
  Loss_NearMiss: { weight: 10 }
  Win_Low:  { weight: 20, min: 0, max: 5 }
  Win_High: { weight: 10, min_win: 5, max_win: 1000 }
`

func buildTiny(t *testing.T) (*spec.GameSetting, *bucket.Table) {
	t.Helper()
	gs, err := spec.GetGameSettingByYAML([]byte(tinyYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	tbl, err := bucket.NewBuilder(gs, bucket.DefaultOptions()).Build(context.Background(), core.NewWithSeed(1))
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return gs, tbl
}

func sameTable(t *testing.T, want, got *bucket.Table) {
	t.Helper()
	if got.Hash != want.Hash || got.Options != want.Options || got.Candidates != want.Candidates {
		t.Fatalf("table header differs")
	}
	for i := range want.Categories {
		w, g := want.Categories[i], got.Categories[i]
		if w.Name != g.Name || w.Len() != g.Len() || w.AvgMult != g.AvgMult || w.MaxMult != g.MaxMult || w.Hits != g.Hits {
			t.Fatalf("category %s differs", w.Name)
		}
		for j := range w.Members {
			if w.Members[j] != g.Members[j] {
				t.Fatalf("member %d of %s differs", j, w.Name)
			}
		}
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	gs, tbl := buildTiny(t)
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	if _, err := s.Load(ctx, tbl.Hash); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
	if err := s.Save(ctx, tbl); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx, tbl.Hash)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sameTable(t, tbl, got)
	if err := got.Check(gs, tbl.Hash, bucket.DefaultOptions()); err != nil {
		t.Fatalf("loaded table must pass check: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), FileExt) {
		t.Fatalf("expected a single cache file, got %v", entries)
	}
}

func TestFileStoreCorruption(t *testing.T) {
	_, tbl := buildTiny(t)
	dir := t.TempDir()
	s, _ := NewFileStore(dir)
	if err := os.WriteFile(filepath.Join(dir, tbl.Hash+FileExt), []byte("not zstd"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := s.Load(context.Background(), tbl.Hash)
	if !errs.IsKind(err, errs.KindCacheCorrupt) {
		t.Fatalf("expected corruption, got %v", err)
	}
	if _, err := s.Load(context.Background(), "../etc"); err == nil {
		t.Fatalf("path-like hash must be rejected")
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	_, tbl := buildTiny(t)
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer s.Close()
	ctx := context.Background()
	if _, err := s.Load(ctx, tbl.Hash); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss, got %v", err)
	}
	if err := s.Save(ctx, tbl); err != nil {
		t.Fatalf("save: %v", err)
	}
	// 覆寫同一雜湊
	if err := s.Save(ctx, tbl); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := s.Load(ctx, tbl.Hash)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sameTable(t, tbl, got)
}

func TestDecodeRejectsForeignEnvelope(t *testing.T) {
	_, tbl := buildTiny(t)
	data, id, err := Encode(tbl)
	if err != nil || id == "" {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(data[:len(data)/2]); !errs.IsKind(err, errs.KindCacheCorrupt) {
		t.Fatalf("truncated payload must be corruption, got %v", err)
	}
}

func TestMemStore(t *testing.T) {
	_, tbl := buildTiny(t)
	s := NewMemStore()
	ctx := context.Background()
	if _, err := s.Load(ctx, tbl.Hash); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected miss")
	}
	_ = s.Save(ctx, tbl)
	if got, err := s.Load(ctx, tbl.Hash); err != nil || got != tbl {
		t.Fatalf("expected same table pointer")
	}
}

func TestOpenByKind(t *testing.T) {
	dir := t.TempDir()
	for _, kind := range []string{"", "mem", "file", "SQLite"} {
		path := filepath.Join(dir, "tables")
		if strings.EqualFold(kind, "sqlite") {
			path = filepath.Join(dir, "cache.db")
		}
		s, closeFn, err := Open(kind, path)
		if err != nil || s == nil {
			t.Fatalf("open %q: %v", kind, err)
		}
		if err := closeFn(); err != nil {
			t.Fatalf("close %q: %v", kind, err)
		}
	}
	if _, _, err := Open("redis", dir); err == nil {
		t.Fatalf("unknown kind should fail")
	}
}
