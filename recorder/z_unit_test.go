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

package recorder_test

import (
	"math"
	"testing"

	"github.com/zintix-labs/bucketlab/recorder"
)

var cats = []string{"Loss_Random", "Loss_NearMiss", "Win_Small", "Win_Big"}

func TestRecordBasic(t *testing.T) {
	r, err := recorder.NewSpinRecorder("g", 1, cats, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if r.Player != nil {
		t.Fatalf("player should be nil without balance")
	}
	r.Record(recorder.Round{Bet: 2, Payout: 0, Category: "Loss_NearMiss", Selected: "Loss_NearMiss", NearMiss: true})
	r.Record(recorder.Round{Bet: 2, Payout: 20, Mult: 10, Category: "Win_Small", Selected: "Win_Small"})
	r.Record(recorder.Round{Bet: 2, Payout: 0, Category: "Loss_Random", Selected: "Win_Big"})
	r.Record(recorder.Round{Bet: 2, Payout: 200, Mult: 100, Category: "Win_Big", Selected: "Win_Big"})

	rep := r.Done()
	rep.Done()
	if rep.Summary.Rounds != 4 || rep.Summary.NoWinRounds != 2 {
		t.Fatalf("rounds=%d nowin=%d", rep.Summary.Rounds, rep.Summary.NoWinRounds)
	}
	if rep.Summary.TotalBet.String() != "8" {
		t.Fatalf("total bet got %s", rep.Summary.TotalBet)
	}
	if rep.Summary.TotalWin.String() != "220" {
		t.Fatalf("total win got %s", rep.Summary.TotalWin)
	}
	if rep.Summary.NearMisses != 1 || rep.Summary.BigWins != 1 || rep.Summary.MegaWins != 1 {
		t.Fatalf("events near=%d big=%d mega=%d", rep.Summary.NearMisses, rep.Summary.BigWins, rep.Summary.MegaWins)
	}
	if rep.Mult.MaxWinMult != 100 {
		t.Fatalf("max mult got %v", rep.Mult.MaxWinMult)
	}
	if rep.Category.EmptyFallbacks != 1 {
		t.Fatalf("empty fallbacks got %d", rep.Category.EmptyFallbacks)
	}
	want := []int{1, 1, 1, 1}
	for i, c := range rep.Category.Counts {
		if c != want[i] {
			t.Fatalf("category %s count %d", cats[i], c)
		}
	}
	if math.Abs(rep.Summary.RTP-220.0/8.0) > 1e-12 {
		t.Fatalf("rtp got %v", rep.Summary.RTP)
	}
	if rep.Player != nil {
		t.Fatalf("unexpected player report")
	}
}

func TestStateBeforeSpin(t *testing.T) {
	r, err := recorder.NewSpinRecorder("g", 1, cats, 10, 100)
	if err != nil {
		t.Fatal(err)
	}
	st := r.State()
	// 押注先扣除
	if st.Balance != 90 || st.InitialBalance != 100 || st.SpinCount != 1 || st.HistoricalRTP != 0 {
		t.Fatalf("initial state %+v", st)
	}
	if !st.Simulation || st.MaxBalance != 100 {
		t.Fatalf("simulation state %+v", st)
	}
	r.RecordWithPlayer(recorder.Round{Bet: 10, Payout: 0})
	r.RecordWithPlayer(recorder.Round{Bet: 10, Payout: 0})
	st = r.State()
	if st.FailStreak != 2 || st.SpinCount != 3 || st.Balance != 70 {
		t.Fatalf("state after losses %+v", st)
	}
	r.RecordWithPlayer(recorder.Round{Bet: 10, Payout: 15, Mult: 1.5})
	st = r.State()
	if st.FailStreak != 0 {
		t.Fatalf("streak should reset on win, got %d", st.FailStreak)
	}
	if math.Abs(st.HistoricalRTP-0.5) > 1e-12 {
		t.Fatalf("historical rtp got %v", st.HistoricalRTP)
	}
	if st.MaxBalance != 100 {
		t.Fatalf("max balance got %v", st.MaxBalance)
	}

	// 無玩家：沒有錢包，上限不作用
	m, err := recorder.NewSpinRecorder("g", 1, cats, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if st = m.State(); !math.IsInf(st.InitialBalance, 1) || !st.Simulation {
		t.Fatalf("machine state %+v", st)
	}
}

func TestPlayerBustAndDrawdown(t *testing.T) {
	r, _ := recorder.NewSpinRecorder("g", 1, cats, 10, 30)
	if r.RecordWithPlayer(recorder.Round{Bet: 10, Payout: 20, Mult: 2}) {
		t.Fatalf("should not leave at 40")
	}
	if r.RecordWithPlayer(recorder.Round{Bet: 10}) {
		t.Fatalf("should not leave at 30")
	}
	if r.RecordWithPlayer(recorder.Round{Bet: 10}) {
		t.Fatalf("should not leave at 20")
	}
	if r.RecordWithPlayer(recorder.Round{Bet: 10}) {
		t.Fatalf("should not leave at 10")
	}
	if !r.RecordWithPlayer(recorder.Round{Bet: 10, Payout: 5, Mult: 0.5}) {
		t.Fatalf("should bust at 5")
	}
	if r.CanSpin() {
		t.Fatalf("can not spin with 5")
	}
	rep := r.Done()
	rep.Done()
	p := rep.Player
	if !p.Bust || p.Cashout || p.Alive {
		t.Fatalf("player %+v", p)
	}
	if p.MaxBalance.String() != "40" || p.MinBalance.String() != "5" || p.MaxDrawdown.String() != "35" {
		t.Fatalf("max=%s min=%s dd=%s", p.MaxBalance, p.MinBalance, p.MaxDrawdown)
	}
	if rep.Summary.Rounds != 5 {
		t.Fatalf("rounds got %d", rep.Summary.Rounds)
	}
}

func TestPlayerCashout(t *testing.T) {
	r, _ := recorder.NewSpinRecorder("g", 1, cats, 10, 100)
	if !r.RecordWithPlayer(recorder.Round{Bet: 10, Payout: 210, Mult: 21}) {
		t.Fatalf("should cash out at 300")
	}
	rep := r.Done()
	rep.Done()
	if !rep.Player.Cashout || rep.Player.Alive {
		t.Fatalf("player %+v", rep.Player)
	}
}

func TestMergeSpinRecorder(t *testing.T) {
	a, _ := recorder.NewSpinRecorder("g", 1, cats, 1, 50)
	b, _ := recorder.NewSpinRecorder("g", 1, cats, 1, 50)
	a.Record(recorder.Round{Bet: 1, Payout: 3, Mult: 3, Category: "Win_Small", Selected: "Win_Small"})
	b.Record(recorder.Round{Bet: 1, Category: "Loss_Random", Selected: "Loss_Random", Exhausted: true})
	b.Record(recorder.Round{Bet: 1, Category: "Loss_Random", Selected: "Loss_Random"})

	m, err := recorder.MergeSpinRecorder([]*recorder.SpinRecorder{a, b})
	if err != nil {
		t.Fatal(err)
	}
	if m.Player != nil {
		t.Fatalf("merged recorder should not carry player")
	}
	rep := m.Done()
	rep.Done()
	if rep.Summary.Rounds != 3 || rep.Category.Counts[0] != 2 || rep.Category.Counts[2] != 1 || rep.Category.Exhausted != 1 {
		t.Fatalf("merged %+v %+v", rep.Summary, rep.Category)
	}

	c, _ := recorder.NewSpinRecorder("g", 1, cats, 2, 0)
	if _, err := recorder.MergeSpinRecorder([]*recorder.SpinRecorder{a, c}); err == nil {
		t.Fatalf("expected bet mismatch err")
	}
	if _, err := recorder.MergeSpinRecorder(nil); err == nil {
		t.Fatalf("expected empty input err")
	}
}

func TestNewSpinRecorderInvalid(t *testing.T) {
	if _, err := recorder.NewSpinRecorder("g", 1, cats, 0, 0); err == nil {
		t.Fatalf("expected err for zero bet")
	}
	if _, err := recorder.NewSpinRecorder("g", 1, cats, 1, -1); err == nil {
		t.Fatalf("expected err for negative balance")
	}
}
