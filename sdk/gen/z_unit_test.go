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

package gen

import (
	"testing"

	"github.com/zintix-labs/bucketlab/sdk/core"
	"github.com/zintix-labs/bucketlab/spec"
)

func testSetting() *spec.GameSetting {
	gs := &spec.GameSetting{}
	gs.Reels = [spec.Cols][]spec.Symbol{
		{spec.H1, spec.H2, spec.H3, spec.H4},
		{spec.L1, spec.L2, spec.L3, spec.L4},
		{spec.W1, spec.C1, spec.H1, spec.L1},
		{spec.H1, spec.H1, spec.H2, spec.H2},
		{spec.L4, spec.L3, spec.L2, spec.L1},
	}
	return gs
}

func TestFillWrapsAround(t *testing.T) {
	g := NewGridGenerator(testSetting())
	grid, misses := g.Grid(spec.Stops{3, 0, 2, 1, 3})
	if misses != 0 {
		t.Fatalf("unexpected misses %d", misses)
	}
	want := [][]string{
		{"H4", "L1", "H1", "H1", "L1"},
		{"H1", "L2", "L1", "H2", "L4"},
		{"H2", "L3", "W1", "H2", "L3"},
	}
	m := Matrix(&grid)
	for r := range want {
		for c := range want[r] {
			if m[r][c] != want[r][c] {
				t.Fatalf("cell (%d,%d) = %s, want %s", r, c, m[r][c], want[r][c])
			}
		}
	}
}

func TestFillDeterministic(t *testing.T) {
	g := NewGridGenerator(testSetting())
	c := core.NewWithSeed(3)
	for i := 0; i < 100; i++ {
		s := g.RandomStops(c)
		if !g.ValidStops(s) {
			t.Fatalf("random stops out of range: %v", s)
		}
		a, _ := g.Grid(s)
		b, _ := g.Grid(s)
		if a != b {
			t.Fatalf("same stops produced different grids")
		}
	}
}

func TestFillOutOfRangeUsesFiller(t *testing.T) {
	gs := testSetting()
	gs.Reels[4] = nil
	g := NewGridGenerator(gs)
	grid, misses := g.Grid(spec.Stops{-1, 0, 0, 0, 0})
	if misses != 2*spec.Rows {
		t.Fatalf("expected %d misses, got %d", 2*spec.Rows, misses)
	}
	if grid[0] != Filler || grid[4] != Filler {
		t.Fatalf("expected filler symbol in broken cells")
	}
	if g.ValidStops(spec.Stops{0, 0, 0, 0, 4}) {
		t.Fatalf("stop beyond reel must be invalid")
	}
}
