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

package selector

import (
	"math"
	"testing"

	"github.com/zintix-labs/bucketlab/sdk/core"
	"github.com/zintix-labs/bucketlab/spec"
)

func settings(baseC float64) spec.RuntimeSetting {
	rs := spec.DefaultRuntimeSetting()
	rs.BaseC = baseC
	return rs
}

func baseCandidates() []Candidate {
	return []Candidate{
		{Name: spec.DefaultLoss, Kind: spec.KindLoss, Weight: 70},
		{Name: spec.NearMissLoss, Kind: spec.KindLoss, Weight: 10},
		{Name: "Win_Tier_1", Kind: spec.KindWin, Weight: 10, MaxWin: 2},
		{Name: "Win_Tier_2", Kind: spec.KindWin, Weight: 5, MaxWin: 5},
		{Name: "Win_Tier_5", Kind: spec.KindWin, Weight: 1, MaxWin: 10000},
	}
}

func isWin(cands []Candidate, name string) bool {
	for _, c := range cands {
		if c.Name == name {
			return c.Kind == spec.KindWin
		}
	}
	return false
}

func TestWinProbabilityStreak(t *testing.T) {
	if p := WinProbability(0.05, 4); math.Abs(p-0.25) > 1e-12 {
		t.Fatalf("expected 0.25, got %v", p)
	}
	if p := WinProbability(0.3, 10); p != 1 {
		t.Fatalf("probability must clamp to 1, got %v", p)
	}
	if p := WinProbability(0.05, -3); p != 0.05 {
		t.Fatalf("negative streak treated as 0, got %v", p)
	}
}

func TestEffectiveBaseCBands(t *testing.T) {
	rs := settings(0.05)
	cases := []struct {
		spins int
		rtp   float64
		want  float64
	}{
		{50, 0.1, 0.05},         // 暖身期
		{51, 0.97 * 0.4, 0.125}, // < 0.5
		{51, 0.97 * 0.6, 0.09},  // < 0.7
		{51, 0.97 * 0.75, 0.06}, // < 0.8
		{51, 0.97 * 0.9, 0.055}, // < 0.95
		{51, 0.97, 0.05},        // 正常區間
		{51, 0.97 * 1.2, 0.03},  // > 1.05
		{51, 0.97 * 1.8, 0.025}, // > 1.5
		{51, 0.97 * 2.5, 0.015}, // > 2.0
	}
	for _, tc := range cases {
		got := EffectiveBaseC(rs, State{SpinCount: tc.spins, HistoricalRTP: tc.rtp})
		if math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("spins=%d rtp=%v: got %v want %v", tc.spins, tc.rtp, got, tc.want)
		}
	}
	rs.TargetRTP = 0
	if got := EffectiveBaseC(rs, State{SpinCount: 100, HistoricalRTP: 5}); got != 0.05 {
		t.Fatalf("non-positive target keeps ratio 1, got %v", got)
	}
}

func TestGateSeparatesWinAndLoss(t *testing.T) {
	c := core.NewWithSeed(1)
	cands := baseCandidates()
	st := State{Bet: 100, Balance: 0, InitialBalance: 1e9}
	for i := 0; i < 2000; i++ {
		d := Select(c, settings(0), st, cands)
		if d.WinGate || isWin(cands, d.Category) {
			t.Fatalf("loss gate selected %s", d.Category)
		}
		d = Select(c, settings(1), st, cands)
		if !d.WinGate || !isWin(cands, d.Category) {
			t.Fatalf("win gate selected %s", d.Category)
		}
	}
}

func TestCeilingInvariant(t *testing.T) {
	c := core.NewWithSeed(2)
	cands := []Candidate{
		{Name: spec.DefaultLoss, Kind: spec.KindLoss, Weight: 1},
		{Name: spec.NearMissLoss, Kind: spec.KindLoss, Weight: 1},
		{Name: "Win_Huge", Kind: spec.KindWin, Weight: 1000, MaxWin: 500},
		{Name: "Win_Small", Kind: spec.KindWin, Weight: 1, MaxWin: 2, MaxMult: 1.5},
	}
	rs := settings(1)
	rs.HighRollerThreshold = 0
	st := State{Bet: 1, Balance: 1000, InitialBalance: 1000}
	ceiling := st.InitialBalance * rs.MaxWinRatio
	for i := 0; i < 5000; i++ {
		d := Select(c, rs, st, cands)
		for _, cd := range cands {
			if cd.Name == d.Category && st.Balance+cd.worstCase()*st.Bet > ceiling {
				t.Fatalf("selected %s breaks the ceiling", d.Category)
			}
		}
		if d.Category == "Win_Huge" {
			t.Fatalf("Win_Huge must never be selected")
		}
	}
}

func TestSimulationKeepsCeiling(t *testing.T) {
	cands := []Candidate{
		{Name: spec.DefaultLoss, Kind: spec.KindLoss, Weight: 1},
		{Name: "Win_Huge", Kind: spec.KindWin, Weight: 1000, MaxWin: 500},
		{Name: "Win_Small", Kind: spec.KindWin, Weight: 1, MaxWin: 2},
	}
	rs := settings(1)
	rs.HighRollerThreshold = 0
	live := State{Bet: 1, Balance: 1000, InitialBalance: 1000, MaxBalance: 1100}
	sim := live
	sim.Simulation = true
	a, b := core.NewWithSeed(7), core.NewWithSeed(7)
	for i := 0; i < 2000; i++ {
		da := Select(a, rs, live, cands)
		db := Select(b, rs, sim, cands)
		if da.Category != db.Category || da.Outcome != db.Outcome || da.Attempts != db.Attempts {
			t.Fatalf("round %d: live=%+v sim=%+v", i, da, db)
		}
		if db.Category == "Win_Huge" {
			t.Fatalf("simulation must not bypass the ceiling")
		}
	}
}

func TestObservedMaxRaisesWorstCase(t *testing.T) {
	c := core.NewWithSeed(3)
	cands := []Candidate{
		{Name: spec.DefaultLoss, Kind: spec.KindLoss, Weight: 1},
		{Name: "Win_Top", Kind: spec.KindWin, Weight: 1, MaxWin: 100, MaxMult: 400},
	}
	rs := settings(1)
	rs.HighRollerThreshold = 0
	st := State{Bet: 1, Balance: 900, InitialBalance: 1000}
	d := Select(c, rs, st, cands)
	if d.Category != spec.DefaultLoss || d.Outcome != CeilingExhausted {
		t.Fatalf("observed max above ceiling must reject, got %s/%s", d.Category, d.Outcome)
	}
	if len(d.Rejected) != 1 || d.Rejected[0] != "Win_Top" {
		t.Fatalf("unexpected rejected list %v", d.Rejected)
	}
}

func TestAttemptsExhausted(t *testing.T) {
	c := core.NewWithSeed(4)
	cands := []Candidate{
		{Name: spec.DefaultLoss, Kind: spec.KindLoss, Weight: 1},
		{Name: "A", Kind: spec.KindWin, Weight: 1, MaxWin: 1000},
		{Name: "B", Kind: spec.KindWin, Weight: 1, MaxWin: 1000},
		{Name: "C", Kind: spec.KindWin, Weight: 1, MaxWin: 1000},
		{Name: "D", Kind: spec.KindWin, Weight: 1, MaxWin: 1000},
	}
	rs := settings(1)
	rs.HighRollerThreshold = 0
	before := cands[1].Weight
	d := Select(c, rs, State{Bet: 1, Balance: 0, InitialBalance: 10}, cands)
	if d.Outcome != AttemptsExhausted || d.Attempts != 3 || d.Category != spec.DefaultLoss {
		t.Fatalf("expected attempts exhausted after 3, got %+v", d)
	}
	if cands[1].Weight != before || len(cands) != 5 {
		t.Fatalf("candidates must not be mutated")
	}
}

func TestZeroWeightFallbacks(t *testing.T) {
	c := core.NewWithSeed(5)
	cands := []Candidate{
		{Name: spec.DefaultLoss, Kind: spec.KindLoss, Weight: 0},
		{Name: spec.NearMissLoss, Kind: spec.KindLoss, Weight: 3},
		{Name: "Win", Kind: spec.KindWin, Weight: 0, MaxWin: 2},
	}
	st := State{Bet: 100, Balance: 0, InitialBalance: 1000}
	d := Select(c, settings(1), st, cands)
	if d.Category != spec.NearMissLoss || d.Outcome != Selected {
		t.Fatalf("win gate with no win weight should restore loss weights, got %+v", d)
	}
	cands[1].Weight = 0
	d = Select(c, settings(1), st, cands)
	if d.Category != spec.DefaultLoss || d.Outcome != NoWeight {
		t.Fatalf("all zero weights must yield default loss, got %+v", d)
	}
	d = Select(c, settings(0), st, cands)
	if d.Category != spec.DefaultLoss || d.Outcome != NoWeight {
		t.Fatalf("loss gate with zero weights must yield default loss, got %+v", d)
	}
}

func TestProgressAndStakeTiers(t *testing.T) {
	c := core.NewWithSeed(6)
	cands := baseCandidates()
	rs := settings(1)
	rs.HighRollerBuckets = []string{"Win_Tier_5"}
	rs.ProgressTiers = []spec.ProgressTier{
		{MinSpins: 10, AllowedBuckets: []string{spec.AllBuckets}},
		{MinSpins: 0, AllowedBuckets: []string{"Win_Tier_1"}},
	}
	st := State{Bet: 100, Balance: 0, InitialBalance: 1e9, SpinCount: 3}
	for i := 0; i < 500; i++ {
		if d := Select(c, rs, st, cands); d.Category != "Win_Tier_1" {
			t.Fatalf("early tier allows only Win_Tier_1, got %s", d.Category)
		}
	}
	st.SpinCount = 10
	st.Bet = 10
	seen := map[string]bool{}
	for i := 0; i < 3000; i++ {
		d := Select(c, rs, st, cands)
		if d.Category == "Win_Tier_5" {
			t.Fatalf("small bet must not reach high roller tier")
		}
		seen[d.Category] = true
	}
	if !seen["Win_Tier_2"] {
		t.Fatalf("later tier should open Win_Tier_2")
	}
}
