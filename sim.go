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
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"
	"github.com/zintix-labs/bucketlab/errs"
	"github.com/zintix-labs/bucketlab/recorder"
	"github.com/zintix-labs/bucketlab/sdk/core"
	"github.com/zintix-labs/bucketlab/spec"
	"github.com/zintix-labs/bucketlab/stats"
)

const capPrepare int = 100

// Simulator 用於模擬遊戲行為，可建立多台機台並平行紀錄統計。
//
// 每台機台各自持有亂數核心；同一 seed 與相同參數下，Sim 的結果可重現。
type Simulator struct {
	GameName  string                   // 遊戲名稱
	GameId    spec.GID                 // 遊戲ID
	handle    *Handle                  // 引擎
	cf        core.PRNGFactory         // 亂數生成器
	initSeed  int64                    // 初始下的種子
	seedmaker *seedMaker               // 種子生成器
	mBuf      []*Machine               // 併發執行機台實例
	rBuf      []*recorder.SpinRecorder // 併發遊戲紀錄員
	sBuf      []*stats.StatReport      // 併發統計結果報表(僅Players需要)
}

// NewSimulatorFromHandle 不經目錄、直接以 Handle 建立模擬器（單一設定檔的離線模擬）。
// cf 為 nil 時使用預設 PRNG。
func NewSimulatorFromHandle(h *Handle, cf core.PRNGFactory, seed int64) *Simulator {
	if cf == nil {
		cf = core.Default()
	}
	return newSimulatorWithSeed(h, cf, seed)
}

func newSimulatorWithSeed(h *Handle, cf core.PRNGFactory, seed int64) *Simulator {
	gs := h.Load().Setting()
	s := &Simulator{
		GameName:  gs.GameName,
		GameId:    gs.GameID,
		handle:    h,
		cf:        cf,
		initSeed:  seed,
		seedmaker: newSeedMaker(seed),
		mBuf:      make([]*Machine, 1, capPrepare),
		rBuf:      make([]*recorder.SpinRecorder, 0, capPrepare),
		sBuf:      make([]*stats.StatReport, 0, capPrepare),
	}
	s.mBuf[0] = newMachineWithSeed(h, cf, s.initSeed)
	return s
}

// Handle 回傳模擬器使用的引擎
func (s *Simulator) Handle() *Handle { return s.handle }

// InitSeed 初始種子
func (s *Simulator) InitSeed() int64 { return s.initSeed }

// Sim 單線模擬器：以一台機台連續跑指定 round 並回傳統計結果與用時
func (s *Simulator) Sim(round int, bet float64, showpb bool) (*stats.StatReport, time.Duration, error) {
	defer s.reset()
	if round < 1 {
		return nil, 0, errs.NewWarn("round must > 0")
	}
	runID := uuid.NewString()
	r, err := s.newRecorder(runID, bet, 0)
	if err != nil {
		return nil, 0, err
	}
	s.rBuf = append(s.rBuf, r)
	m := s.mBuf[0]

	bar := pb.StartNew(round)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < round; i++ {
		res := m.SpinState(r.State(), nil)
		r.Record(roundOf(res, bet))
		bar.Increment()
	}
	used := time.Since(bar.StartTime())
	bar.Finish()
	result := r.Done()
	result.Done()

	return result, used, nil
}

// SimMP 平行執行多個機台，總計 rounds*mp 次 spin，合併統計結果後 回傳統計結果與用時
func (s *Simulator) SimMP(rounds int, mp int, bet float64, showpb bool) (*stats.StatReport, time.Duration, error) {
	defer s.reset()
	if mp <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if rounds < 1 {
		return nil, 0, errs.NewWarn("round must > 0")
	}
	s.prepareMachines(mp)

	runID := uuid.NewString()
	for len(s.rBuf) < mp {
		r, err := s.newRecorder(runID, bet, 0)
		if err != nil {
			return nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}

	wg := new(sync.WaitGroup)
	wg.Add(mp)
	bar := pb.StartNew(rounds * mp)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < mp; i++ {
		go func(i int) {
			defer wg.Done()
			g := s.mBuf[i]
			st := s.rBuf[i]
			for r := 0; r < rounds; r++ {
				res := g.SpinState(st.State(), nil)
				st.Record(roundOf(res, bet))
				bar.Increment()
			}
		}(i)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	st, err := recorder.MergeSpinRecorder(s.rBuf)
	if err != nil {
		return nil, 0, err
	}
	result := st.Done()
	result.Done()

	return result, used, nil
}

// SimPlayers 模擬多個玩家各自帶入初始資金的遊戲歷程，並產出機台報表與玩家報表。
//
// 每位玩家最多 spins 回合；餘額不足一次押注即破產離場，餘額達本金三倍即獲利離場。
func (s *Simulator) SimPlayers(mp int, players int, spins int, bet float64, balance float64, showpb bool) (*stats.StatReport, *stats.EstimatorPlayers, time.Duration, error) {
	defer s.reset()
	if players < 1 || spins < 1 || mp < 1 || !(balance > 0) {
		return nil, nil, 0, errs.NewWarn("invalid param")
	}

	// 	準備並行機台
	s.prepareMachines(mp)

	// 準備玩家
	runID := uuid.NewString()
	s.sBuf = make([]*stats.StatReport, players)
	for len(s.rBuf) < players {
		r, err := s.newRecorder(runID, bet, balance)
		if err != nil {
			return nil, nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}
	// 作一個2048大小的緩衝channel 使player依序處理
	jobs := make(chan *recorder.SpinRecorder, 2048)

	wg := new(sync.WaitGroup)
	wg.Add(mp) // 併發機台

	bar := pb.StartNew(players)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	// 併發執行
	for w := 0; w < mp; w++ {
		go sim(wg, s.mBuf[w], jobs, bet, spins, bar)
	}

	// 塞進玩家，開始模擬
	for _, j := range s.rBuf {
		jobs <- j
	}
	close(jobs) // 玩家送完處理完畢關閉通道 通知所有機台不會再有新資料
	wg.Wait()   // 等待機台都執行完任務
	used := time.Since(bar.StartTime())
	bar.Finish()

	// 機台基準報表
	record, err := recorder.MergeSpinRecorder(s.rBuf)
	if err != nil {
		return nil, nil, 0, err
	}
	st := record.Done()
	st.Done()

	// 玩家分析報表
	for i, r := range s.rBuf {
		s.sBuf[i] = r.Done()
		s.sBuf[i].Done()
	}
	est := stats.EstimatorPlayerExp(s.sBuf)
	return st, est, used, nil
}

func sim(wg *sync.WaitGroup, m *Machine, jobs chan *recorder.SpinRecorder, bet float64, spins int, bar *pb.ProgressBar) {
	defer wg.Done()
	for j := range jobs {
		for range spins {
			if !j.CanSpin() {
				break
			}
			res := m.SpinState(j.State(), nil)
			if j.RecordWithPlayer(roundOf(res, bet)) {
				break
			}
		}
		bar.Increment()
	}
}

func (s *Simulator) prepareMachines(mp int) {
	for len(s.mBuf) < mp {
		s.mBuf = append(s.mBuf, newMachineWithSeed(s.handle, s.cf, s.seedmaker.next()))
	}
}

func (s *Simulator) newRecorder(runID string, bet float64, balance float64) (*recorder.SpinRecorder, error) {
	bl := s.handle.Load().Setting().Buckets
	names := make([]string, len(bl))
	for i, b := range bl {
		names[i] = b.Name
	}
	r, err := recorder.NewSpinRecorder(s.GameName, s.GameId, names, bet, balance)
	if err != nil {
		return nil, err
	}
	r.RunID = runID
	return r, nil
}

func roundOf(res Result, bet float64) recorder.Round {
	return recorder.Round{
		Bet:       bet,
		Payout:    res.Payout,
		Mult:      res.Mult,
		Category:  res.Category,
		Selected:  res.Decision.Category,
		NearMiss:  res.NearMiss,
		Exhausted: res.Decision.Outcome.Exhausted(),
	}
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
	s.sBuf = s.sBuf[:0]
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// next 以全週期 LCG 推進 state（不重複），再用可逆 mix63 打散。
// 可能被多個 goroutine 同時呼叫，推進以 CAS 迴圈保證唯一。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next))
		}
	}
}

// mix63：只用可逆的 bit 操作與乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
