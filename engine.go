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

package bucketlab

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/zintix-labs/bucketlab/bucket"
	"github.com/zintix-labs/bucketlab/cache"
	"github.com/zintix-labs/bucketlab/dto"
	"github.com/zintix-labs/bucketlab/errs"
	"github.com/zintix-labs/bucketlab/sdk/calc"
	"github.com/zintix-labs/bucketlab/sdk/core"
	"github.com/zintix-labs/bucketlab/sdk/gen"
	"github.com/zintix-labs/bucketlab/selector"
	"github.com/zintix-labs/bucketlab/spec"
)

// Source 分類表的來源
type Source string

const (
	SourceBuilt Source = "built"
	SourceCache Source = "cache"
)

// Option Configure 的選項
type Option func(*configOptions)

type configOptions struct {
	store  cache.Store
	logger *slog.Logger
	seed   int64
	build  bucket.Options
}

func defaultConfigOptions() configOptions {
	return configOptions{
		logger: slog.New(slog.DiscardHandler),
		build:  bucket.DefaultOptions(),
	}
}

// WithStore 指定分類表快取；未指定時每次 Configure 都重新建表。
func WithStore(s cache.Store) Option {
	return func(o *configOptions) { o.store = s }
}

// WithLogger 指定日誌輸出，nil 表示不輸出
func WithLogger(l *slog.Logger) Option {
	return func(o *configOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSeed 指定建表用的亂數種子（抽樣模式與平均倍數抽樣會用到）；0 表示隨機。
func WithSeed(seed int64) Option {
	return func(o *configOptions) { o.seed = seed }
}

// WithBuildOptions 覆寫建表參數
func WithBuildOptions(b bucket.Options) Option {
	return func(o *configOptions) { o.build = b }
}

// Engine 已設定完成的引擎：設定、分類表與衍生的產生器/計分器。
//
// Engine 建立後不再修改，可被任意數量的 goroutine 共用；
// 每個呼叫端自備 *core.Core 作為亂數來源。
type Engine struct {
	gs     *spec.GameSetting
	table  *bucket.Table
	gen    *gen.GridGenerator
	eval   *calc.LineEvaluator
	cands  []selector.Candidate
	log    *slog.Logger
	source Source
}

// Configure 驗證設定、取得分類表（快取或重建）並回傳可用的引擎。
//
// 快取未命中或毀損時重建並寫回；寫回失敗只記錄警告。
// 任何設定錯誤都直接回傳，不會產生部分可用的引擎。
func Configure(ctx context.Context, gs *spec.GameSetting, opts ...Option) (*Engine, error) {
	o := defaultConfigOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if gs == nil {
		return nil, errs.ConfigErrorf("game setting is nil")
	}
	if err := gs.Init(); err != nil {
		return nil, err
	}
	log := o.logger.With("game", gs.GameName)

	hash, err := bucket.StructuralHash(gs)
	if err != nil {
		return nil, err
	}

	table, src := loadTable(ctx, o, gs, hash, log)
	if table == nil {
		table, err = buildTable(ctx, o, gs, log)
		if err != nil {
			return nil, err
		}
		src = SourceBuilt
		if o.store != nil {
			if err := o.store.Save(ctx, table); err != nil {
				log.Warn("cache.save_failed", "hash", hash, "err", err)
			}
		}
	}

	if table.Members(spec.DefaultLoss) == 0 {
		return nil, errs.ConfigErrorf("bucket %s has no members: no losing grid without a near miss", spec.DefaultLoss)
	}
	if table.Fallbacks > 0 {
		log.Warn("config.tier_gap", "fallbacks", table.Fallbacks, "gap", gs.CoverageGap())
	}
	for _, c := range table.Categories {
		if c.Len() == 0 {
			log.Debug("bucket.empty", "bucket", c.Name)
		}
	}
	return newEngine(gs, table, log, src), nil
}

// loadTable 嘗試從快取讀取；任何失敗都回傳 nil 以重建
func loadTable(ctx context.Context, o configOptions, gs *spec.GameSetting, hash string, log *slog.Logger) (*bucket.Table, Source) {
	if o.store == nil {
		return nil, ""
	}
	t, err := o.store.Load(ctx, hash)
	switch {
	case err == nil:
	case errors.Is(err, cache.ErrMiss):
		log.Info("cache.miss", "hash", hash)
		return nil, ""
	case errs.IsKind(err, errs.KindCacheCorrupt):
		log.Warn("cache.corrupt", "hash", hash, "err", err)
		return nil, ""
	default:
		log.Warn("cache.load_failed", "hash", hash, "err", err)
		return nil, ""
	}
	if err := t.Check(gs, hash, o.build); err != nil {
		log.Warn("cache.corrupt", "hash", hash, "err", err)
		return nil, ""
	}
	log.Info("cache.hit", "hash", hash)
	return t, SourceCache
}

func buildTable(ctx context.Context, o configOptions, gs *spec.GameSetting, log *slog.Logger) (*bucket.Table, error) {
	seed := o.seed
	if seed == 0 {
		seed = core.RandomSeed()
	}
	start := time.Now()
	t, err := bucket.NewBuilder(gs, o.build).Build(ctx, core.NewWithSeed(seed))
	if err != nil {
		return nil, err
	}
	log.Info("bucket.build",
		"hash", t.Hash,
		"duration", time.Since(start),
		"candidates", t.Candidates,
		"sampled", t.Sampled,
	)
	return t, nil
}

func newEngine(gs *spec.GameSetting, t *bucket.Table, log *slog.Logger, src Source) *Engine {
	e := &Engine{
		gs:     gs,
		table:  t,
		gen:    gen.NewGridGenerator(gs),
		eval:   calc.NewLineEvaluator(gs),
		log:    log,
		source: src,
	}
	e.cands = candidates(gs.Buckets, t)
	return e
}

// candidates 依設定順序建立候選分類，附上分類表的實際最大倍數
func candidates(bl spec.BucketList, t *bucket.Table) []selector.Candidate {
	out := make([]selector.Candidate, len(bl))
	for i, b := range bl {
		out[i] = selector.Candidate{
			Name:   b.Name,
			Kind:   b.Kind,
			Weight: b.Weight,
			MaxWin: b.MaxWin,
		}
		if c, ok := t.Category(b.Name); ok {
			out[i].MaxMult = c.MaxMult
		}
	}
	return out
}

// WithSettings 回傳替換可調參數的新引擎；分類表共用，不重建。
func (e *Engine) WithSettings(rs *spec.RuntimeSetting, weights map[string]float64) (*Engine, error) {
	gs, unknown, err := e.gs.CloneWithSettings(rs, weights)
	if err != nil {
		return nil, err
	}
	if len(unknown) > 0 {
		e.log.Debug("settings.unknown_buckets", "names", unknown)
	}
	return newEngine(gs, e.table, e.log, e.source), nil
}

// Setting 回傳目前的遊戲設定（唯讀）
func (e *Engine) Setting() *spec.GameSetting { return e.gs }

// Table 回傳分類表（唯讀）
func (e *Engine) Table() *bucket.Table { return e.table }

// Hash 結構雜湊
func (e *Engine) Hash() string { return e.table.Hash }

// Source 分類表來自快取或重建
func (e *Engine) Source() Source { return e.source }

// Summary 分類表摘要；權重取目前生效的設定。
func (e *Engine) Summary() dto.BucketSummary {
	t := e.table
	out := dto.BucketSummary{
		GameName:   e.gs.GameName,
		Hash:       t.Hash,
		Source:     string(e.source),
		Sampled:    t.Sampled,
		Candidates: t.Candidates,
		Fallbacks:  t.Fallbacks,
		Categories: make([]dto.CategorySummary, 0, len(t.Categories)),
	}
	weights := e.gs.Buckets.Weights()
	for i := range t.Categories {
		c := &t.Categories[i]
		out.Categories = append(out.Categories, dto.CategorySummary{
			Name:    c.Name,
			Kind:    string(c.Kind),
			Weight:  weights[c.Name],
			MinWin:  c.MinWin,
			MaxWin:  c.MaxWin,
			Members: c.Len(),
			Hits:    c.Hits,
			AvgMult: c.AvgMult,
			MaxMult: c.MaxMult,
		})
	}
	return out
}

// WinLine 單條中獎線（金額已乘上押注）
type WinLine struct {
	LineID int
	Symbol string
	Count  int
	Amount float64
}

// Result 一回合的結果
type Result struct {
	Stops      spec.Stops
	Grid       spec.Grid
	Matrix     [][]string
	Lines      []WinLine
	Mult       float64
	Payout     float64
	Win        bool
	Category   string
	NearMiss   bool
	Delta      float64 // payout - bet
	FailStreak int
	Decision   selector.Decision
}

// Spin 執行一回合：選分類 → 取成員 → 產生盤面 → 計分。
//
// Spin 不會失敗：分類為空時退回 Loss_Random，盤面異常只記錄日誌。
// ov 只作用於本次呼叫。
func (e *Engine) Spin(c *core.Core, st selector.State, ov *spec.RuntimeOverride) Result {
	rs := e.gs.Settings
	cands := e.cands
	if ov != nil {
		if ov.Settings != nil {
			rs = ov.Settings.Apply(rs, e.gs.Buckets)
		}
		if ov.Weights != nil {
			cands = e.overrideWeights(ov.Weights)
		}
	}

	d := selector.Select(c, rs, st, cands)
	if d.Outcome.Exhausted() {
		e.log.Debug("select.exhausted", "err", errs.Exhausted(d.Outcome.String()), "rejected", d.Rejected)
	}

	name := d.Category
	cat, ok := e.table.Category(name)
	if !ok || cat.Len() == 0 {
		e.log.Info("spin.bucket_empty", "err", errs.BucketEmpty(name))
		name = spec.DefaultLoss
		cat, _ = e.table.Category(name)
	}

	res := Result{
		Category: name,
		Decision: d,
	}
	res.Stops = cat.Members[c.Pick(cat.Len())]
	if misses := e.gen.Fill(res.Stops, &res.Grid); misses > 0 {
		e.log.Warn("spin.grid_integrity", "bucket", name, "stops", res.Stops, "misses", misses)
	}
	ev := e.eval.Evaluate(&res.Grid)
	res.Matrix = gen.Matrix(&res.Grid)
	res.Mult = ev.Mult
	res.Payout = ev.Mult * st.Bet
	res.Win = res.Payout > 0
	res.NearMiss = ev.NearMiss
	res.Delta = res.Payout - st.Bet
	if len(ev.Lines) > 0 {
		res.Lines = make([]WinLine, len(ev.Lines))
		for i, l := range ev.Lines {
			res.Lines[i] = WinLine{
				LineID: l.LineID,
				Symbol: l.Name,
				Count:  l.Count,
				Amount: l.Mult * st.Bet,
			}
		}
	}
	if res.Win {
		res.FailStreak = 0
	} else {
		res.FailStreak = st.FailStreak + 1
	}
	return res
}

// overrideWeights 以覆寫權重建立本次使用的候選清單
func (e *Engine) overrideWeights(w map[string]float64) []selector.Candidate {
	cands := slices.Clone(e.cands)
	var unknown []string
	for name, v := range w {
		idx := slices.IndexFunc(cands, func(c selector.Candidate) bool { return c.Name == name })
		if idx < 0 {
			unknown = append(unknown, name)
			continue
		}
		cands[idx].Weight = v
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		e.log.Debug("spin.unknown_buckets", "names", unknown)
	}
	return cands
}
