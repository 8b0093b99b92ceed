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

package spec

import (
	"strings"
	"testing"

	"github.com/zintix-labs/bucketlab/errs"
)

const tinyYAML = `
game_name: tiny
game_id: 7
reel_sets:
  - [H1, L1, WILD]
  - [H1, L2, SCATTER]
  - [H1, L1, L2]
  - [L2, H1, L1]
  - [L2, L1, H1]
pay_table:
  H1: { 3: 10, 4: 20, 5: 50 }
  L1: { 3: 2, 4: 4, 5: 8 }
  L2: { 3: 1, 4: 3, 5: 5 }
lines:
  2: [[1, 0], [1, 1], [1, 2], [1, 3], [1, 4]]
  1: [[0, 0], [0, 1], [0, 2], [0, 3], [0, 4]]
buckets:
  Loss_Random:   { weight: 60 }
  Loss_NearMiss: { weight: 10 }
  Win_Low:  { weight: 20, min: 0, max: 5 }
  Win_High: { weight: 10, min_win: 5, max_win: 1000 }
`

func mustTiny(t *testing.T) *GameSetting {
	t.Helper()
	gs, err := GetGameSettingByYAML([]byte(tinyYAML))
	if err != nil {
		t.Fatalf("load tiny config: %v", err)
	}
	return gs
}

func TestLoadNormalizesAliases(t *testing.T) {
	gs := mustTiny(t)
	if gs.ReelsLength != 3 {
		t.Fatalf("expected derived reels_length 3, got %d", gs.ReelsLength)
	}
	if gs.Reels[0][2] != W1 || gs.Reels[1][2] != C1 {
		t.Fatalf("symbol aliases not resolved: %v %v", gs.Reels[0][2], gs.Reels[1][2])
	}
	low, ok := gs.Buckets.Find("Win_Low")
	if !ok || low.MinWin != 0 || low.MaxWin != 5 || low.Kind != KindWin {
		t.Fatalf("min/max alias not normalized: %+v", low)
	}
	loss, _ := gs.Buckets.Find(DefaultLoss)
	if loss.Kind != KindLoss || loss.MinWin != 0 || loss.MaxWin != 0 {
		t.Fatalf("loss bucket not normalized: %+v", loss)
	}
	names := []string{}
	for _, b := range gs.Buckets {
		names = append(names, b.Name)
	}
	if strings.Join(names, ",") != "Loss_Random,Loss_NearMiss,Win_Low,Win_High" {
		t.Fatalf("bucket order not preserved: %v", names)
	}
}

func TestLoadDerivedTables(t *testing.T) {
	gs := mustTiny(t)
	if len(gs.LineTable) != 2 || gs.LineTable[0].ID != 1 || gs.LineTable[1].ID != 2 {
		t.Fatalf("lines must be sorted by id: %+v", gs.LineTable)
	}
	if gs.LineTable[1].Cells[4] != 1*Cols+4 {
		t.Fatalf("unexpected flat cell index %d", gs.LineTable[1].Cells[4])
	}
	if gs.Pays[H1][3] != 10 || gs.Pays[L2][5] != 5 {
		t.Fatalf("pay table not flattened")
	}
	if gs.WildSub != L2 {
		t.Fatalf("wild should pay as lowest symbol L2, got %v", gs.WildSub)
	}
	if s := gs.Settings; s.BaseC != 0.05 || s.TargetRTP != 0.97 || s.MaxWinRatio != 1.2 || s.MaxAttempts != 3 {
		t.Fatalf("defaults not applied: %+v", s)
	}
	if len(gs.Settings.HighRollerBuckets) != 2 || gs.Settings.HighRollerBuckets[0] != "Win_High" {
		t.Fatalf("high roller default should be top tiers: %v", gs.Settings.HighRollerBuckets)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown field":  strings.Replace(tinyYAML, "game_id: 7", "game_id: 7\nbogus: 1", 1),
		"missing loss":   strings.Replace(tinyYAML, "Loss_NearMiss: { weight: 10 }", "", 1),
		"bad symbol":     strings.Replace(tinyYAML, "[L2, L1, H1]", "[L2, L1, XX]", 1),
		"reel length":    strings.Replace(tinyYAML, "[L2, L1, H1]", "[L2, L1]", 1),
		"line range":     strings.Replace(tinyYAML, "[0, 4]]", "[3, 4]]", 1),
		"tier gap":       strings.Replace(tinyYAML, "min_win: 5, max_win: 1000", "min_win: 6, max_win: 1000", 1),
		"bounded top":    strings.Replace(tinyYAML, "max_win: 1000", "max_win: 900", 1),
		"floor too high": strings.Replace(tinyYAML, "min: 0, max: 5", "min: 2, max: 5", 1),
		"inverted range": strings.Replace(tinyYAML, "min: 0, max: 5", "min: 5, max: 5", 1),
	}
	for name, doc := range cases {
		if _, err := GetGameSettingByYAML([]byte(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		} else if !errs.IsKind(err, errs.KindConfig) {
			t.Fatalf("%s: expected config error, got %v", name, err)
		}
	}
}

func TestAllowTierGaps(t *testing.T) {
	doc := strings.Replace(tinyYAML, "min_win: 5, max_win: 1000", "min_win: 6, max_win: 1000", 1)
	doc += "settings:\n  allow_tier_gaps: true\n"
	gs, err := GetGameSettingByYAML([]byte(doc))
	if err != nil {
		t.Fatalf("gap should be accepted when allowed: %v", err)
	}
	if gs.CoverageGap() == "" {
		t.Fatalf("expected gap description")
	}
}

func TestJSONBucketMappingKeepsOrder(t *testing.T) {
	doc := `{
	  "game_name": "tiny-json",
	  "reel_sets": [["H1","L1","L2"],["H1","L1","L2"],["H1","L1","L2"],["H1","L1","L2"],["H1","L1","L2"]],
	  "pay_table": {"H1": {"3": 5}, "L1": {"3": 1}},
	  "lines": {"1": [[0,0],[0,1],[0,2],[0,3],[0,4]]},
	  "buckets": {
	    "Win_Any": {"weight": 1, "min": 0, "max": 1000},
	    "Loss_NearMiss": {"weight": 1},
	    "Loss_Random": {"weight": 1}
	  },
	  "settings": {"base_c_value": 0.1}
	}`
	gs, err := GetGameSettingByJSON([]byte(doc))
	if err != nil {
		t.Fatalf("load json: %v", err)
	}
	if gs.Buckets[0].Name != "Win_Any" || gs.Buckets[2].Name != DefaultLoss {
		t.Fatalf("json mapping order lost: %+v", gs.Buckets)
	}
	if gs.Settings.BaseC != 0.1 || gs.Settings.TargetRTP != 0.97 {
		t.Fatalf("partial settings should keep defaults: %+v", gs.Settings)
	}
}

func TestStructuralIgnoresTunables(t *testing.T) {
	a := mustTiny(t)
	b, _ := GetGameSettingByYAML([]byte(strings.Replace(tinyYAML, "Loss_Random:   { weight: 60 }", "Loss_Random:   { weight: 1 }", 1)))
	sa, sb := a.Structural(), b.Structural()
	if len(sa.Buckets) != len(sb.Buckets) || sa.Reels[0][2] != "W1" {
		t.Fatalf("unexpected structural view: %+v", sa)
	}
	for i := range sa.Buckets {
		if sa.Buckets[i] != sb.Buckets[i] {
			t.Fatalf("structural bucket differs at %d", i)
		}
	}
}

func TestCloneWithSettings(t *testing.T) {
	gs := mustTiny(t)
	rs := gs.Settings
	rs.BaseC = 0.2
	cp, unknown, err := gs.CloneWithSettings(&rs, map[string]float64{"Win_High": 0, "Nope": 3})
	if err != nil {
		t.Fatalf("clone: %v", err)
	}
	if len(unknown) != 1 || unknown[0] != "Nope" {
		t.Fatalf("unexpected unknown names %v", unknown)
	}
	if hi, _ := cp.Buckets.Find("Win_High"); hi.Weight != 0 {
		t.Fatalf("weight not replaced")
	}
	if hi, _ := gs.Buckets.Find("Win_High"); hi.Weight != 10 {
		t.Fatalf("original mutated")
	}
	if cp.Settings.BaseC != 0.2 || gs.Settings.BaseC != 0.05 {
		t.Fatalf("settings not copied on write")
	}
	bad := rs
	bad.MaxAttempts = 0
	if _, _, err := gs.CloneWithSettings(&bad, nil); err == nil {
		t.Fatalf("expected invalid settings to be rejected")
	}
}

func TestNormalizedSettings(t *testing.T) {
	rs := RuntimeSetting{BaseC: 3, MaxWinRatio: -1, MaxAttempts: 0, ProgressTiers: []ProgressTier{{MinSpins: 9}, {MinSpins: 1}}}
	n := rs.Normalized()
	if n.BaseC != 1 || n.MaxWinRatio != 1.2 || n.MaxAttempts != 3 {
		t.Fatalf("unexpected normalized settings %+v", n)
	}
	if n.ProgressTiers[0].MinSpins != 1 || rs.ProgressTiers[0].MinSpins != 9 {
		t.Fatalf("progress tiers must be sorted on a copy")
	}
}

func TestSymbolHelpers(t *testing.T) {
	if s, ok := ParseSymbol("WILD"); !ok || s != W1 || s.String() != "W1" {
		t.Fatalf("WILD alias failed")
	}
	if _, ok := ParseSymbol("W0"); ok {
		t.Fatalf("W0 should not parse")
	}
	if !IsSymbolPaying(H3) || IsSymbolPaying(C1) {
		t.Fatalf("paying classification wrong")
	}
	b := BucketSetting{MinWin: 100, MaxWin: 10000}
	if !b.Contains(20000) || b.Contains(99.9) {
		t.Fatalf("unbounded tier containment wrong")
	}
}

func TestSettingsPatchOverlaysBase(t *testing.T) {
	gs := mustTiny(t)
	base := gs.Settings
	base.ProgressTiers = []ProgressTier{{MinSpins: 10, AllowedBuckets: []string{"Win_Low"}}}

	ratio := 2.0
	rs := (&SettingsPatch{MaxWinRatio: &ratio}).Apply(base, gs.Buckets)
	if rs.MaxWinRatio != 2 || rs.BaseC != base.BaseC || rs.HighRollerThreshold != base.HighRollerThreshold {
		t.Fatalf("unpatched fields should keep base values: %+v", rs)
	}
	if len(rs.HighRollerBuckets) == 0 || len(rs.HighRollerBuckets) != len(base.HighRollerBuckets) {
		t.Fatalf("high roller buckets lost: %v", rs.HighRollerBuckets)
	}
	rs.HighRollerBuckets[0] = "changed"
	rs.ProgressTiers[0].AllowedBuckets[0] = "changed"
	if base.HighRollerBuckets[0] == "changed" || base.ProgressTiers[0].AllowedBuckets[0] == "changed" {
		t.Fatalf("patched copy must not share slices with base")
	}

	tiers := (&SettingsPatch{ProgressTiers: []ProgressTier{{MinSpins: 5}, {MinSpins: 1, AllowedBuckets: []string{"Win_Low"}}}}).Apply(base, gs.Buckets)
	if tiers.ProgressTiers[0].MinSpins != 1 || tiers.ProgressTiers[1].AllowedBuckets[0] != AllBuckets {
		t.Fatalf("patched tiers should be sorted and defaulted: %+v", tiers.ProgressTiers)
	}

	var nilPatch *SettingsPatch
	if got := nilPatch.Apply(base, gs.Buckets); got.BaseC != base.BaseC || len(got.ProgressTiers) != 1 {
		t.Fatalf("nil patch should copy base: %+v", got)
	}
}
