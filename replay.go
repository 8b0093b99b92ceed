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
	"math"

	"github.com/zintix-labs/bucketlab/corefmt"
	"github.com/zintix-labs/bucketlab/dto"
	"github.com/zintix-labs/bucketlab/errs"
	"github.com/zintix-labs/bucketlab/recorder"
	"github.com/zintix-labs/bucketlab/selector"
	"github.com/zintix-labs/bucketlab/spec"
	"github.com/zintix-labs/bucketlab/stats"
)

// MaxReplayRounds 單次回放的回合上限
const MaxReplayRounds = 10_000

// Replayer 以單一玩家連續轉動，用於審計與問題重現。
//
// 每回合都經過 Machine.Spin，輸出與線上請求相同的 SpinResult；
// 玩家狀態（餘額、連輸、歷史 RTP）由 SpinRecorder 逐回合推進。
type Replayer struct {
	m *Machine
}

// ReplayPlayer 回放起點的玩家狀態
type ReplayPlayer struct {
	Bet     float64 `json:"bet"`
	Balance float64 `json:"balance"`
}

// ReplayReport 回放結果
type ReplayReport struct {
	GameName          string            `json:"game"`
	GameID            spec.GID          `json:"gid"`
	StartCoreSnapB64U string            `json:"start_b64u"`
	AfterCoreSnapB64U string            `json:"after_b64u"`
	Rounds            int               `json:"rounds"`
	Balance           float64           `json:"balance"`
	Busted            bool              `json:"busted"`
	Cashout           bool              `json:"cashout"`
	Stats             *stats.StatReport `json:"stats"`
	Results           []dto.SpinResult  `json:"results"`
}

// NewReplayer 建立回放器；機台以隨機 seed 出生，回放起點由快照決定。
func (p *Lab) NewReplayer(ctx context.Context, id spec.GID) (*Replayer, error) {
	m, err := p.NewMachine(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Replayer{m: m}, nil
}

// Spins 從 start（base64url Core 快照）開始連續轉 round 回合。
//
// start 為空時沿用機台目前的流水。玩家破產或達到離場線時提前結束。
// 同一個 start 與玩家狀態，回放結果必定一致。
func (rp *Replayer) Spins(start string, pl ReplayPlayer, round int) (*ReplayReport, error) {
	if round <= 0 || round > MaxReplayRounds {
		return nil, errs.Warnf("round must be in 1..%d", MaxReplayRounds)
	}
	if !(pl.Bet > 0) || math.IsInf(pl.Bet, 0) {
		return nil, errs.NewWarn("bet must be > 0")
	}
	if math.IsNaN(pl.Balance) || math.IsInf(pl.Balance, 0) || pl.Balance < pl.Bet {
		return nil, errs.NewWarn("balance must cover one bet")
	}

	m := rp.m
	if start != "" {
		snap, err := corefmt.DecodeBase64URL(start)
		if err != nil {
			return nil, errs.NewWarn("invalid start_b64u " + err.Error())
		}
		if err := m.RestoreCore(snap); err != nil {
			return nil, errs.NewWarn("restore core err " + err.Error())
		}
	}
	startsnap, err := m.SnapshotCore()
	if err != nil {
		return nil, errs.NewFatal("before snapshot error " + err.Error())
	}

	bl := m.handle.Load().Setting().Buckets
	names := make([]string, len(bl))
	for i, b := range bl {
		names[i] = b.Name
	}
	rec, err := recorder.NewSpinRecorder(m.gameName, m.gameId, names, pl.Bet, pl.Balance)
	if err != nil {
		return nil, err
	}

	out := &ReplayReport{
		GameName:          m.gameName,
		GameID:            m.gameId,
		StartCoreSnapB64U: corefmt.EncodeBase64URL(startsnap),
		Results:           make([]dto.SpinResult, 0, round),
	}
	for range round {
		if !rec.CanSpin() {
			break
		}
		st := rec.State()
		res, err := m.Spin(&dto.SpinRequest{
			GameName:       m.gameName,
			GameId:         m.gameId,
			Bet:            st.Bet,
			Balance:        st.Balance,
			InitialBalance: st.InitialBalance,
			FailStreak:     st.FailStreak,
			SpinCount:      st.SpinCount,
			HistoricalRTP:  st.HistoricalRTP,
			MaxBalance:     st.MaxBalance,
			Simulation:     st.Simulation,
		})
		if err != nil {
			return nil, err
		}
		out.Results = append(out.Results, res)
		if rec.RecordWithPlayer(replayRound(res)) {
			break
		}
	}

	aftersnap, err := m.SnapshotCore()
	if err != nil {
		return nil, errs.NewFatal("after snapshot error " + err.Error())
	}
	out.AfterCoreSnapB64U = corefmt.EncodeBase64URL(aftersnap)
	out.Rounds = len(out.Results)
	out.Balance = rec.Player.Balance.InexactFloat64()
	out.Busted = rec.Player.Bust
	out.Cashout = rec.Player.Cashout
	out.Stats = rec.Done()
	return out, nil
}

func replayRound(res dto.SpinResult) recorder.Round {
	return recorder.Round{
		Bet:       res.Bet,
		Payout:    res.TotalPayout,
		Mult:      res.TotalPayout / res.Bet,
		Category:  res.BucketType,
		Selected:  res.BucketType,
		NearMiss:  res.BucketType == spec.NearMissLoss,
		Exhausted: res.Decision.Outcome != selector.Selected.String(),
	}
}
