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
	"context"
	"math"

	"github.com/zintix-labs/bucketlab/errs"
	"github.com/zintix-labs/bucketlab/sdk/calc"
	"github.com/zintix-labs/bucketlab/sdk/core"
	"github.com/zintix-labs/bucketlab/sdk/gen"
	"github.com/zintix-labs/bucketlab/sdk/sampler"
	"github.com/zintix-labs/bucketlab/spec"
)

// Options 建表參數。快取會記錄建表參數，參數不同的快取視為毀損。
type Options struct {
	// 組合總數超過此值改為隨機抽樣
	SampleThreshold int64 `json:"sample_threshold"`
	// 抽樣模式下的候選數
	SampleCount int `json:"sample_count"`
	// 每個分類最多保留的成員數（先到先得）
	CategoryCap int `json:"category_cap"`
	// 平均倍數的抽樣數
	AvgSampleSize int `json:"avg_sample_size"`
}

// DefaultOptions 預設建表參數
func DefaultOptions() Options {
	return Options{
		SampleThreshold: 2_000_000,
		SampleCount:     100_000,
		CategoryCap:     50_000,
		AvgSampleSize:   1_000,
	}
}

// ctxCheckEvery 每處理這麼多候選檢查一次取消
const ctxCheckEvery = 1 << 16

// Builder 依結構設定建立分類表
type Builder struct {
	gs   *spec.GameSetting
	gen  *gen.GridGenerator
	eval *calc.LineEvaluator
	cls  *Classifier
	opts Options
}

// NewBuilder 以已初始化的設定建立 Builder
func NewBuilder(gs *spec.GameSetting, opts Options) *Builder {
	return &Builder{
		gs:   gs,
		gen:  gen.NewGridGenerator(gs),
		eval: calc.NewLineEvaluator(gs),
		cls:  NewClassifier(gs.Buckets),
		opts: opts,
	}
}

// Combinations 回傳 L^cols；超過 limit 時回傳 limit+1，避免溢位。
func Combinations(reelLen int, limit int64) int64 {
	total := int64(1)
	for range spec.Cols {
		if reelLen > 0 && total > (limit+1)/int64(reelLen) {
			return limit + 1
		}
		total *= int64(reelLen)
	}
	return total
}

// Build 建立分類表。
//
// 組合數不超過門檻時依字典序列舉全部停輪組合（最後一軸變化最快），
// 否則以 c 均勻抽樣。每個分類保留先到的成員直到上限，
// 之後為每個非空分類抽樣至多 AvgSampleSize 個成員計算平均倍數。
func (b *Builder) Build(ctx context.Context, c *core.Core) (*Table, error) {
	if b.opts.CategoryCap <= 0 || b.opts.AvgSampleSize <= 0 || b.opts.SampleCount <= 0 {
		return nil, errs.ConfigErrorf("invalid build options %+v", b.opts)
	}
	hash, err := StructuralHash(b.gs)
	if err != nil {
		return nil, err
	}
	t := &Table{Hash: hash, Options: b.opts}
	for _, bs := range b.gs.Buckets {
		t.Categories = append(t.Categories, Category{
			Name:   bs.Name,
			Kind:   bs.Kind,
			MinWin: bs.MinWin,
			MaxWin: bs.MaxWin,
		})
	}

	var grid spec.Grid
	take := func(stops spec.Stops) {
		b.gen.Fill(stops, &grid)
		mult, nearMiss := b.eval.Score(&grid)
		idx, fallback := b.cls.ClassifyIndex(mult, nearMiss)
		t.Candidates++
		if fallback {
			t.Fallbacks++
		}
		if idx < 0 {
			return
		}
		cat := &t.Categories[idx]
		cat.Hits++
		if len(cat.Members) >= b.opts.CategoryCap {
			return
		}
		cat.Members = append(cat.Members, stops)
		if mult > cat.MaxMult {
			cat.MaxMult = mult
		}
	}

	reelLen := b.gs.ReelsLength
	if Combinations(reelLen, b.opts.SampleThreshold) > b.opts.SampleThreshold {
		t.Sampled = true
		for i := 0; i < b.opts.SampleCount; i++ {
			if i%ctxCheckEvery == 0 {
				if err := ctx.Err(); err != nil {
					return nil, errs.Wrap(err, "bucket build canceled")
				}
			}
			take(b.gen.RandomStops(c))
		}
	} else {
		var stops spec.Stops
		for n := int64(0); ; n++ {
			if n%ctxCheckEvery == 0 {
				if err := ctx.Err(); err != nil {
					return nil, errs.Wrap(err, "bucket build canceled")
				}
			}
			take(stops)
			// 里程表進位
			col := spec.Cols - 1
			for ; col >= 0; col-- {
				stops[col]++
				if stops[col] < reelLen {
					break
				}
				stops[col] = 0
			}
			if col < 0 {
				break
			}
		}
	}

	for i := range t.Categories {
		t.Categories[i].AvgMult = b.sampleAverage(c, &t.Categories[i])
	}
	t.Reindex()
	return t, nil
}

// sampleAverage 抽樣成員重新計分後取平均；空分類為 0
func (b *Builder) sampleAverage(c *core.Core, cat *Category) float64 {
	if len(cat.Members) == 0 {
		return 0
	}
	idx := sampler.SampleIndexes(c, len(cat.Members), b.opts.AvgSampleSize)
	var grid spec.Grid
	sum := 0.0
	for _, i := range idx {
		b.gen.Fill(cat.Members[i], &grid)
		m, _ := b.eval.Score(&grid)
		sum += m
	}
	avg := sum / float64(len(idx))
	if math.IsNaN(avg) {
		return 0
	}
	return avg
}
