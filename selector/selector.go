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

// Package selector 決定每一回合的結果分類。
//
// 流程：輸贏閘門 → 進度層過濾 → 押注層過濾 → 權重全零的退路 → 餘額上限檢查。
// 選擇本身不修改任何共用狀態；每次上限剔除都產生新的候選池。
package selector

import (
	"math"
	"slices"

	"github.com/zintix-labs/bucketlab/sdk/core"
	"github.com/zintix-labs/bucketlab/sdk/sampler"
	"github.com/zintix-labs/bucketlab/spec"
)

// State 玩家狀態（呼叫端提供，選擇器不保存）
//
// Simulation 只標記來源，上限檢查與線上回合完全相同。
type State struct {
	Bet            float64
	Balance        float64
	InitialBalance float64
	MaxBalance     float64 // 歷史最高餘額，只用於觀測
	FailStreak     int
	SpinCount      int
	HistoricalRTP  float64
	Simulation     bool
}

// Candidate 可選分類
type Candidate struct {
	Name    string
	Kind    spec.BucketKind
	Weight  float64
	MaxWin  float64 // 設定的倍數上限
	MaxMult float64 // 實際成員中的最大倍數
}

// worstCase 以設定上限與實際最大值中較大者估計最壞倍數
func (c Candidate) worstCase() float64 {
	return math.Max(c.MaxWin, c.MaxMult)
}

// Outcome 選擇結束的方式
type Outcome uint8

const (
	// Selected 正常選出
	Selected Outcome = iota
	// NoWeight 過濾後沒有可用權重
	NoWeight
	// CeilingExhausted 候選全部因餘額上限被剔除
	CeilingExhausted
	// AttemptsExhausted 重試次數用盡
	AttemptsExhausted
)

var outcomeName = map[Outcome]string{
	Selected:          "selected",
	NoWeight:          "no_weight",
	CeilingExhausted:  "ceiling_exhausted",
	AttemptsExhausted: "attempts_exhausted",
}

func (o Outcome) String() string { return outcomeName[o] }

// Exhausted 是否走了退路
func (o Outcome) Exhausted() bool { return o != Selected }

// Decision 選擇結果
type Decision struct {
	Category string
	WinGate  bool
	WinProb  float64
	BaseC    float64
	Attempts int
	Rejected []string
	Outcome  Outcome
}

// EffectiveBaseC 依歷史 RTP 調整 PRD 常數；暖身期內不調整。
func EffectiveBaseC(rs spec.RuntimeSetting, st State) float64 {
	base := rs.BaseC
	if st.SpinCount <= rs.WarmupSpins {
		return base
	}
	ratio := 1.0
	if rs.TargetRTP > 0 {
		ratio = st.HistoricalRTP / rs.TargetRTP
	}
	switch {
	case ratio < 0.5:
		base *= 2.5
	case ratio < 0.7:
		base *= 1.8
	case ratio < 0.8:
		base *= 1.2
	case ratio < 0.95:
		base *= 1.1
	case ratio > 2.0:
		base *= 0.3
	case ratio > 1.5:
		base *= 0.5
	case ratio > 1.05:
		base *= 0.6
	}
	return base
}

// WinProbability = clamp(baseC × (streak+1), 0, 1)
func WinProbability(baseC float64, streak int) float64 {
	if streak < 0 {
		streak = 0
	}
	p := baseC * float64(streak+1)
	if p < 0 || math.IsNaN(p) {
		return 0
	}
	return math.Min(p, 1)
}

// allowedByTier 回傳目前進度層的允許清單；nil 代表不限制
func allowedByTier(tiers []spec.ProgressTier, spins int) []string {
	var allowed []string
	for _, t := range tiers {
		if spins >= t.MinSpins {
			allowed = t.AllowedBuckets
		}
	}
	if slices.Contains(allowed, spec.AllBuckets) {
		return nil
	}
	return allowed
}

// Select 選出本回合的分類。rs 會先正規化，非法值不會使選擇失敗。
func Select(c *core.Core, rs spec.RuntimeSetting, st State, cands []Candidate) Decision {
	rs = rs.Normalized()
	d := Decision{BaseC: EffectiveBaseC(rs, st)}
	d.WinProb = WinProbability(d.BaseC, st.FailStreak)
	d.WinGate = c.Chance(d.WinProb)

	weights := make([]float64, len(cands))
	for i, cd := range cands {
		if cd.Weight > 0 {
			weights[i] = cd.Weight
		}
		// 閘門：輸則關閉贏分類，贏則關閉輸分類
		if (cd.Kind == spec.KindWin) != d.WinGate {
			weights[i] = 0
		}
	}

	if allowed := allowedByTier(rs.ProgressTiers, st.SpinCount); allowed != nil {
		for i, cd := range cands {
			if !slices.Contains(allowed, cd.Name) {
				weights[i] = 0
			}
		}
	}

	if st.Bet < rs.HighRollerThreshold {
		for i, cd := range cands {
			if slices.Contains(rs.HighRollerBuckets, cd.Name) {
				weights[i] = 0
			}
		}
	}

	if sampler.Total(weights) <= 0 {
		if !d.WinGate {
			return d.fallback(NoWeight)
		}
		// 贏閘門但沒有可用的贏分類：退回原始的輸分類權重
		for i, cd := range cands {
			weights[i] = 0
			if cd.Kind == spec.KindLoss && cd.Weight > 0 {
				weights[i] = cd.Weight
			}
		}
		if sampler.Total(weights) <= 0 {
			return d.fallback(NoWeight)
		}
	}

	pool := make([]int, 0, len(cands))
	for i := range cands {
		if weights[i] > 0 {
			pool = append(pool, i)
		}
	}
	return d.fold(c, rs, st, cands, weights, pool)
}

// fold 在候選池上重試抽選；違反上限的候選被移出，產生新的池。
func (d Decision) fold(c *core.Core, rs spec.RuntimeSetting, st State, cands []Candidate, weights []float64, pool []int) Decision {
	ceiling := st.InitialBalance * rs.MaxWinRatio
	w := make([]float64, len(pool))
	for d.Attempts < rs.MaxAttempts {
		if len(pool) == 0 {
			return d.fallback(CeilingExhausted)
		}
		w = w[:len(pool)]
		for k, i := range pool {
			w[k] = weights[i]
		}
		k := sampler.PickWeighted(c, w)
		if k < 0 {
			return d.fallback(CeilingExhausted)
		}
		d.Attempts++
		cd := cands[pool[k]]
		if st.Balance+cd.worstCase()*st.Bet <= ceiling {
			d.Category = cd.Name
			d.Outcome = Selected
			return d
		}
		d.Rejected = append(d.Rejected, cd.Name)
		pool = slices.Delete(slices.Clone(pool), k, k+1)
	}
	if len(pool) == 0 {
		return d.fallback(CeilingExhausted)
	}
	return d.fallback(AttemptsExhausted)
}

func (d Decision) fallback(o Outcome) Decision {
	d.Category = spec.DefaultLoss
	d.Outcome = o
	return d
}
