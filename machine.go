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
	"math"
	"sync"

	"github.com/zintix-labs/bucketlab/corefmt"
	"github.com/zintix-labs/bucketlab/dto"
	"github.com/zintix-labs/bucketlab/errs"
	"github.com/zintix-labs/bucketlab/sdk/core"
	"github.com/zintix-labs/bucketlab/selector"
	"github.com/zintix-labs/bucketlab/spec"
)

// Machine 封裝一台「可對外提供 Spin」的遊戲機台。
//
// 你可以把 Machine 視為 Engine 的「外殼（shell）」：
//   - 對外：提供 Spin 入口（HTTP/模擬器通常只操作 Machine）。
//   - 對內：持有自己的 RNG（Core），每次 Spin 從 Handle 取得目前生效的 Engine。
//
// 並發語意：
//   - Engine 可共用，但 Core 不行；同一台 Machine 以 mu 保護 Core 的狀態一致性。
//   - 若要併發，由更高層建立多台 Machine（MachinePool / Simulator）。
//
// initseed 用於記錄出生時的 seed（追溯/重現的基礎資訊）；完整審計仍以 Core 的 Snapshot/Restore 為準。
type Machine struct {
	gameName string     // 遊戲名稱（來自 GameSetting.GameName，主要用於觀測/日誌）
	gameId   spec.GID   // 遊戲 ID（Catalog 內唯一；用於路由與查表）
	handle   *Handle    // 目前生效的引擎（Retune/Reconfigure 後下一回合即生效）
	core     *core.Core // RNG 核心（PRNG + Snapshot/Restore 合約）
	mu       sync.Mutex // 防併發鎖：保護核心狀態一致性
	initseed int64      // 出生 seed（便於追溯；完整重現請用 Snapshot/Restore）
}

// newMachine 以「隨機 seed」建立 Machine。
//
// seed 只保證了新建的 Machine 起點，如果需要在任意局後將機台"重設"到任意 Core 節點，請利用 Snapshot Restore 來操作
func newMachine(h *Handle, cf core.PRNGFactory) *Machine {
	return newMachineWithSeed(h, cf, core.RandomSeed())
}

// newMachineWithSeed 以指定 seed 建立 Machine。
//
// 同一份設定 + 同一個 seed，應能得到一致的結果序列。
func newMachineWithSeed(h *Handle, cf core.PRNGFactory, seed int64) *Machine {
	if cf == nil {
		cf = core.Default()
	}
	gs := h.Load().Setting()
	return &Machine{
		gameName: gs.GameName,
		gameId:   gs.GameID,
		handle:   h,
		core:     core.New(cf.New(seed)),
		initseed: seed,
	}
}

// Spin 為主要公開入口，會驗證請求，執行一回合並回傳結果。
//
// 請求帶 start_state 時為回放：從快照恢復後執行，結束後恢復原本的 Core 狀態。
func (m *Machine) Spin(r *dto.SpinRequest) (dto.SpinResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// 1. 校驗請求合法性
	if err := m.valid(r); err != nil {
		return dto.SpinResult{}, err
	}

	// 2. get start snapshot
	startsnap, err := m.core.Snapshot()
	if err != nil {
		return dto.SpinResult{}, errs.NewFatal("before snapshot error " + err.Error())
	}
	rem := startsnap
	replay := r.StartState != nil && r.StartState.StartCoreSnapB64U != ""
	if replay {
		snap, err := corefmt.DecodeBase64URL(r.StartState.StartCoreSnapB64U)
		if err != nil {
			return dto.SpinResult{}, errs.NewWarn("invalid start_b64u " + err.Error())
		}
		if err := m.core.Restore(snap); err != nil {
			return dto.SpinResult{}, errs.NewWarn("restore core err " + err.Error())
		}
		startsnap = snap
	}

	// 3. spin
	e := m.handle.Load()
	res := e.Spin(m.core, stateOf(r), r.Override)

	// 4. get after snapshot
	aftersnap, err := m.core.Snapshot()
	if err != nil {
		if rerr := m.core.Restore(rem); rerr != nil {
			return dto.SpinResult{}, errs.NewFatal("fall back err " + rerr.Error())
		}
		return dto.SpinResult{}, errs.NewWarn("after snapshot error " + err.Error())
	}

	// 5. restore if needed
	if replay {
		if err := m.core.Restore(rem); err != nil {
			return dto.SpinResult{}, errs.NewFatal("restore core back err " + err.Error())
		}
	}

	// 6. dto
	out := newSpinResultDTO(m.gameName, m.gameId, r.Bet, res)
	out.State = dto.SpinState{
		StartCoreSnapB64U: corefmt.EncodeBase64URL(startsnap),
		AfterCoreSnapB64U: corefmt.EncodeBase64URL(aftersnap),
	}
	return out, nil
}

// SpinState 直接以內部狀態執行一回合；供模擬器與測試使用，跳過請求檢查。
func (m *Machine) SpinState(st selector.State, ov *spec.RuntimeOverride) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle.Load().Spin(m.core, st, ov)
}

func (m *Machine) valid(req *dto.SpinRequest) error {
	if req == nil {
		return errs.NewWarn("nil spin request")
	}
	if m.gameId != req.GameId {
		return errs.NewWarn("game id is not matched")
	}
	if m.gameName != req.GameName {
		return errs.NewWarn("game name is not matched")
	}
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
	if !finite(req.Bet) || req.Bet <= 0 {
		return errs.NewWarn("bet must be > 0")
	}
	if !finite(req.Balance) || !finite(req.InitialBalance) || !finite(req.HistoricalRTP) || !finite(req.MaxBalance) {
		return errs.NewWarn("invalid player state")
	}
	if req.FailStreak < 0 || req.SpinCount < 0 {
		return errs.NewWarn("fail_streak and spin_count must be >= 0")
	}
	return nil
}

// SnapshotCore 取得 Core 狀態暫存
func (m *Machine) SnapshotCore() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.core.Snapshot()
}

// RestoreCore 恢復 Core 狀態暫存
func (m *Machine) RestoreCore(src []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.core.Restore(src)
}

// InitSeed 出生 seed
func (m *Machine) InitSeed() int64 { return m.initseed }

func stateOf(r *dto.SpinRequest) selector.State {
	return selector.State{
		Bet:            r.Bet,
		Balance:        r.Balance,
		InitialBalance: r.InitialBalance,
		FailStreak:     r.FailStreak,
		SpinCount:      r.SpinCount,
		HistoricalRTP:  r.HistoricalRTP,
		MaxBalance:     r.MaxBalance,
		Simulation:     r.Simulation,
	}
}

func newSpinResultDTO(name string, id spec.GID, bet float64, res Result) dto.SpinResult {
	out := dto.SpinResult{
		GameName:      name,
		GameID:        id,
		Bet:           bet,
		Matrix:        res.Matrix,
		TotalPayout:   res.Payout,
		IsWin:         res.Win,
		BucketType:    res.Category,
		BalanceUpdate: res.Delta,
		FailStreak:    res.FailStreak,
		Decision: dto.DecisionDTO{
			WinGate:  res.Decision.WinGate,
			WinProb:  res.Decision.WinProb,
			BaseC:    res.Decision.BaseC,
			Attempts: res.Decision.Attempts,
			Rejected: res.Decision.Rejected,
			Outcome:  res.Decision.Outcome.String(),
		},
	}
	if len(res.Lines) > 0 {
		out.WinningLines = make([]dto.WinLineDTO, len(res.Lines))
		for i, l := range res.Lines {
			out.WinningLines[i] = dto.WinLineDTO{
				LineID: l.LineID,
				Symbol: l.Symbol,
				Count:  l.Count,
				Amount: l.Amount,
			}
		}
	}
	return out
}
