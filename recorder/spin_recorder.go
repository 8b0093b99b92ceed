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

package recorder

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/bucketlab/errs"
	"github.com/zintix-labs/bucketlab/selector"
	"github.com/zintix-labs/bucketlab/spec"
	"github.com/zintix-labs/bucketlab/stats"
)

// Round 單回合需要紀錄的結果
type Round struct {
	Bet       float64
	Payout    float64
	Mult      float64
	Category  string // 實際使用的分類
	Selected  string // 選擇器選出的分類（空分類退回前）
	NearMiss  bool
	Exhausted bool
}

// SpinRecorder 遊戲紀錄員
//
// SpinRecorder 負責紀錄遊戲結果，並透過Done輸出統計報表。
// 金額以 decimal 累加，避免長時間模擬的浮點誤差。
type SpinRecorder struct {
	GameName string
	GameId   spec.GID
	RunID    string
	Bet      decimal.Decimal
	bet      float64
	streak   int
	Basic    *BasicRecord
	Dist     *DistRecord
	Cats     *CategoryRecord
	Player   *PlayerRecord
}

// BasicRecord 基本遊戲資料紀錄
type BasicRecord struct {
	TotalBet       decimal.Decimal
	TotalWin       decimal.Decimal
	TotalWinMult   float64
	TotalWinMultSq float64 // 平方和
	MaxWinMult     float64
	NoWinRounds    int
	NearMisses     int
	BigWins        int
	MegaWins       int
	Rounds         int
}

// DistRecord 贏倍區間落點統計
type DistRecord struct {
	TotalWinCollect []int
}

// CategoryRecord 各分類使用次數
type CategoryRecord struct {
	Names          []string
	Counts         []int
	EmptyFallbacks int
	Exhausted      int
	index          map[string]int
}

// PlayerRecord 玩家統計
type PlayerRecord struct {
	leaveLine   decimal.Decimal
	InitBalance decimal.Decimal
	Balance     decimal.Decimal
	MaxBalance  decimal.Decimal
	MinBalance  decimal.Decimal
	MaxDrawdown decimal.Decimal
	FailStreak  int
	Bust        bool
	Cashout     bool
}

// NewSpinRecorder 建立紀錄員。
//   - categories: 分類名稱（依設定順序）
//   - bet: 每回合押注，必須 > 0
//   - initBalance: 玩家進場金額；0 表示不模擬玩家資金
func NewSpinRecorder(name string, id spec.GID, categories []string, bet float64, initBalance float64) (*SpinRecorder, error) {
	if !(bet > 0) || math.IsInf(bet, 0) {
		return nil, errs.NewFatal(fmt.Sprintf("bet must be > 0, got %v", bet))
	}
	if !(initBalance >= 0) || math.IsInf(initBalance, 0) {
		return nil, errs.NewFatal(fmt.Sprintf("init balance must not be negative, got: %v", initBalance))
	}
	s := &SpinRecorder{
		GameName: name,
		GameId:   id,
		Bet:      decimal.NewFromFloat(bet),
		bet:      bet,
		Basic:    &BasicRecord{},
		Dist:     &DistRecord{TotalWinCollect: make([]int, stats.Buckets.Len())},
		Cats:     newCategoryRecord(categories),
	}
	if initBalance > 0 {
		s.Player = newPlayerRecord(decimal.NewFromFloat(initBalance))
	}
	return s, nil
}

// MergeSpinRecorder 合併多個紀錄員成機台報表；玩家資金不合併。
func MergeSpinRecorder(r []*SpinRecorder) (*SpinRecorder, error) {
	if len(r) == 0 {
		return nil, errs.NewFatal("merge spin record err : empty input")
	}
	r0 := r[0]
	s, err := NewSpinRecorder(r0.GameName, r0.GameId, r0.Cats.Names, r0.bet, 0)
	if err != nil {
		return nil, err
	}
	s.RunID = r0.RunID
	s.Player = nil
	for _, v := range r {
		if v.GameName != r0.GameName {
			return nil, errs.NewFatal("merge spin record err : different game name")
		}
		if !v.Bet.Equal(r0.Bet) {
			return nil, errs.NewFatal("merge spin record err : different bet")
		}
		if len(v.Cats.Names) != len(r0.Cats.Names) {
			return nil, errs.NewFatal("merge spin record err : different categories")
		}
		b := v.Basic
		s.Basic.TotalBet = s.Basic.TotalBet.Add(b.TotalBet)
		s.Basic.TotalWin = s.Basic.TotalWin.Add(b.TotalWin)
		s.Basic.TotalWinMult += b.TotalWinMult
		s.Basic.TotalWinMultSq += b.TotalWinMultSq
		s.Basic.MaxWinMult = max(s.Basic.MaxWinMult, b.MaxWinMult)
		s.Basic.NoWinRounds += b.NoWinRounds
		s.Basic.NearMisses += b.NearMisses
		s.Basic.BigWins += b.BigWins
		s.Basic.MegaWins += b.MegaWins
		s.Basic.Rounds += b.Rounds

		// 整合Dist
		for i := range v.Dist.TotalWinCollect {
			s.Dist.TotalWinCollect[i] += v.Dist.TotalWinCollect[i]
		}
		for i := range v.Cats.Counts {
			s.Cats.Counts[i] += v.Cats.Counts[i]
		}
		s.Cats.EmptyFallbacks += v.Cats.EmptyFallbacks
		s.Cats.Exhausted += v.Cats.Exhausted
	}
	return s, nil
}

// Record 以單回合結果更新基本統計（不含玩家資金）
func (s *SpinRecorder) Record(r Round) {
	s.recordBasic(r)
	s.recordDist(r)
	s.recordCategory(r)
}

// CanSpin 玩家餘額是否足夠下一次押注
func (s *SpinRecorder) CanSpin() bool {
	return s.Player != nil && s.Player.Balance.GreaterThanOrEqual(s.Bet)
}

// RecordWithPlayer 在 Record 的基礎上，進一步更新玩家餘額／離場狀態，並回傳玩家是否停止遊戲。
func (s *SpinRecorder) RecordWithPlayer(r Round) bool {
	if !s.CanSpin() {
		return true
	}
	s.Record(r)
	return s.recordPlayer(r)
}

// State 回傳下一回合交給選擇器的玩家狀態（押注已先扣除）
func (s *SpinRecorder) State() selector.State {
	st := selector.State{
		Bet:        s.bet,
		SpinCount:  s.Basic.Rounds + 1,
		Simulation: true,
	}
	if !s.Basic.TotalBet.IsZero() {
		st.HistoricalRTP = s.Basic.TotalWin.Div(s.Basic.TotalBet).InexactFloat64()
	}
	p := s.Player
	if p == nil {
		// 純機台模擬沒有玩家錢包，也就沒有進場餘額可作上限基準；
		// 以 +Inf 表示上限不作用。帶資金的玩家模擬走下方的一般上限檢查。
		st.InitialBalance = math.Inf(1)
		st.FailStreak = s.streak
		return st
	}
	st.Balance = p.Balance.Sub(s.Bet).InexactFloat64()
	st.InitialBalance = p.InitBalance.InexactFloat64()
	st.MaxBalance = p.MaxBalance.InexactFloat64()
	st.FailStreak = p.FailStreak
	return st
}

func (s *SpinRecorder) Done() *stats.StatReport {
	b := s.Basic
	report := &stats.StatReport{
		Summary: &stats.SummaryReport{
			RunID:       s.RunID,
			GameName:    s.GameName,
			GameId:      s.GameId,
			Bet:         s.Bet,
			TotalBet:    b.TotalBet,
			TotalWin:    b.TotalWin,
			NoWinRounds: b.NoWinRounds,
			NearMisses:  b.NearMisses,
			BigWins:     b.BigWins,
			MegaWins:    b.MegaWins,
			Rounds:      b.Rounds,
		},
		Mult: &stats.MultReport{
			TotalWinMult:      b.TotalWinMult,
			TotalWinMultSqSum: b.TotalWinMultSq,
			MaxWinMult:        b.MaxWinMult,
		},
		Dist: &stats.DistReport{
			WinBucket:       stats.Buckets.WinBucketStr(),
			TotalWinCollect: append([]int(nil), s.Dist.TotalWinCollect...),
		},
		Category: &stats.CategoryReport{
			Names:          s.Cats.Names,
			Counts:         append([]int(nil), s.Cats.Counts...),
			EmptyFallbacks: s.Cats.EmptyFallbacks,
			Exhausted:      s.Cats.Exhausted,
		},
	}
	if p := s.Player; p != nil {
		report.Player = &stats.PlayerReport{
			InitBalance: p.InitBalance,
			Balance:     p.Balance,
			MaxBalance:  p.MaxBalance,
			MinBalance:  p.MinBalance,
			MaxDrawdown: p.MaxDrawdown,
			Bust:        p.Bust,
			Cashout:     p.Cashout,
		}
	}
	return report
}

func (s *SpinRecorder) recordBasic(r Round) {
	b := s.Basic
	b.TotalBet = b.TotalBet.Add(s.Bet)
	b.TotalWin = b.TotalWin.Add(decimal.NewFromFloat(r.Payout))
	b.TotalWinMult += r.Mult
	b.TotalWinMultSq += r.Mult * r.Mult
	if r.Mult > b.MaxWinMult {
		b.MaxWinMult = r.Mult
	}
	if r.Payout <= 0 {
		b.NoWinRounds++
		s.streak++
	} else {
		s.streak = 0
	}
	if r.NearMiss {
		b.NearMisses++
	}
	if r.Mult >= stats.BigWinMult {
		b.BigWins++
	}
	if r.Mult >= stats.MegaWinMult {
		b.MegaWins++
	}
	b.Rounds++
}

func (s *SpinRecorder) recordDist(r Round) {
	s.Dist.TotalWinCollect[stats.Buckets.Index(r.Mult)]++
}

func (s *SpinRecorder) recordCategory(r Round) {
	c := s.Cats
	if i, ok := c.index[r.Category]; ok {
		c.Counts[i]++
	}
	if r.Selected != "" && r.Selected != r.Category {
		c.EmptyFallbacks++
	}
	if r.Exhausted {
		c.Exhausted++
	}
}

func (s *SpinRecorder) recordPlayer(r Round) bool {
	p := s.Player

	// 更新資金
	p.Balance = p.Balance.Sub(s.Bet).Add(decimal.NewFromFloat(r.Payout))
	if r.Payout > 0 {
		p.FailStreak = 0
	} else {
		p.FailStreak++
	}

	// 更新歷史最高/最低資產與最大回落
	if p.Balance.GreaterThan(p.MaxBalance) {
		p.MaxBalance = p.Balance
	}
	if p.Balance.LessThan(p.MinBalance) {
		p.MinBalance = p.Balance
	}
	if dd := p.MaxBalance.Sub(p.Balance); dd.GreaterThan(p.MaxDrawdown) {
		p.MaxDrawdown = dd
	}

	// 更新結局
	leave := false
	if p.Balance.LessThan(s.Bet) {
		p.Bust = true
		leave = true
	}
	if p.Balance.GreaterThanOrEqual(p.leaveLine) {
		p.Cashout = true
		leave = true
	}
	return leave
}

func newCategoryRecord(names []string) *CategoryRecord {
	c := &CategoryRecord{
		Names:  append([]string(nil), names...),
		Counts: make([]int, len(names)),
		index:  make(map[string]int, len(names)),
	}
	for i, n := range names {
		c.index[n] = i
	}
	return c
}

func newPlayerRecord(b decimal.Decimal) *PlayerRecord {
	return &PlayerRecord{
		InitBalance: b,
		Balance:     b,
		MaxBalance:  b,
		MinBalance:  b,
		leaveLine:   b.Mul(decimal.NewFromInt(3)), // 設定離場條件(3倍本金)
	}
}
