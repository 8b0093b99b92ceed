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

package bucket

import (
	"github.com/zintix-labs/bucketlab/errs"
	"github.com/zintix-labs/bucketlab/sdk/gen"
	"github.com/zintix-labs/bucketlab/spec"
)

// Category 一個分類與其成員停輪組合。建表後唯讀。
type Category struct {
	Name    string
	Kind    spec.BucketKind
	MinWin  float64
	MaxWin  float64
	Members []spec.Stops
	AvgMult float64 // 抽樣平均倍數
	MaxMult float64 // 保留成員中的最大倍數
	Hits    int64   // 落入此分類的候選總數（含超過上限被丟棄者）
}

// Len 成員數
func (c *Category) Len() int { return len(c.Members) }

// Table 分類表：每個結構設定對應一份，建表或載入快取後唯讀。
type Table struct {
	Hash       string
	Options    Options
	Sampled    bool
	Candidates int64
	Fallbacks  int64 // 落到最低層的正倍數候選數
	Categories []Category
	index      map[string]int
}

// Reindex 建立名稱索引；由快取載入後需呼叫。
func (t *Table) Reindex() {
	t.index = make(map[string]int, len(t.Categories))
	for i := range t.Categories {
		t.index[t.Categories[i].Name] = i
	}
}

// Category 依名稱取得分類
func (t *Table) Category(name string) (*Category, bool) {
	if t.index == nil {
		for i := range t.Categories {
			if t.Categories[i].Name == name {
				return &t.Categories[i], true
			}
		}
		return nil, false
	}
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return &t.Categories[i], true
}

// Members 回傳分類成員數，未知分類為 0
func (t *Table) Members(name string) int {
	c, ok := t.Category(name)
	if !ok {
		return 0
	}
	return c.Len()
}

// Check 確認分類表與設定一致（分類名稱、範圍、停輪位置）。
// 用於快取載入；不一致時回傳快取毀損錯誤。
func (t *Table) Check(gs *spec.GameSetting, hash string, opts Options) error {
	if t.Hash != hash {
		return errs.CacheCorruptf("hash mismatch: want %s got %s", hash, t.Hash)
	}
	if t.Options != opts {
		return errs.CacheCorruptf("build options mismatch: want %+v got %+v", opts, t.Options)
	}
	if len(t.Categories) != len(gs.Buckets) {
		return errs.CacheCorruptf("category count mismatch: want %d got %d", len(gs.Buckets), len(t.Categories))
	}
	g := gen.NewGridGenerator(gs)
	for i := range t.Categories {
		c := &t.Categories[i]
		b := gs.Buckets[i]
		if c.Name != b.Name || c.Kind != b.Kind || c.MinWin != b.MinWin || c.MaxWin != b.MaxWin {
			return errs.CacheCorruptf("category %d mismatch: %s", i, c.Name)
		}
		if len(c.Members) > opts.CategoryCap {
			return errs.CacheCorruptf("category %s exceeds cap: %d", c.Name, len(c.Members))
		}
		for _, s := range c.Members {
			if !g.ValidStops(s) {
				return errs.CacheCorruptf("category %s has invalid stops %v", c.Name, s)
			}
		}
	}
	t.Reindex()
	return nil
}
