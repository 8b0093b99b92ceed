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

package core

import (
	"slices"
	"testing"
)

func TestCoreDeterminism(t *testing.T) {
	c1 := NewWithSeed(7)
	c2 := New(Default().New(7))
	for i := 0; i < 5; i++ {
		if c1.Uint64() != c2.Uint64() {
			t.Fatalf("Uint64 mismatch at %d", i)
		}
	}
	if c1.IntN(10) != c2.IntN(10) {
		t.Fatalf("IntN mismatch")
	}
	if c1.Float64() != c2.Float64() {
		t.Fatalf("Float64 mismatch")
	}
}

func TestSnapshotRestore(t *testing.T) {
	c := NewWithSeed(3)
	snap, err := c.Snapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	want := []uint64{c.Uint64(), c.Uint64(), c.Uint64()}
	if err := c.Restore(snap); err != nil {
		t.Fatalf("restore: %v", err)
	}
	for i, w := range want {
		if got := c.Uint64(); got != w {
			t.Fatalf("restored stream differs at %d", i)
		}
	}
}

func TestBoundsAndChance(t *testing.T) {
	c := NewWithSeed(9)
	if c.Pick(0) != -1 || c.IntN(0) != -1 || c.UintN(0) != 0 {
		t.Fatalf("sentinel values broken")
	}
	for i := 0; i < 1000; i++ {
		if v := c.IntN(7); v < 0 || v >= 7 {
			t.Fatalf("IntN out of range: %d", v)
		}
		if f := c.Float64(); f < 0 || f >= 1 {
			t.Fatalf("Float64 out of range: %v", f)
		}
		if c.Chance(0) {
			t.Fatalf("Chance(0) must never fire")
		}
		if !c.Chance(1) {
			t.Fatalf("Chance(1) must always fire")
		}
	}
}

func TestPartialShuffle(t *testing.T) {
	c := NewWithSeed(11)
	src := []int{0, 1, 2, 3, 4, 5, 6, 7}
	c.PartialShuffle(src, 3)
	got := slices.Clone(src)
	slices.Sort(got)
	if !slices.Equal(got, []int{0, 1, 2, 3, 4, 5, 6, 7}) {
		t.Fatalf("partial shuffle changed elements: %v", src)
	}
	c.PartialShuffle(src, 100)
	if RandomSeed() <= 0 {
		t.Fatalf("random seed must be positive")
	}
}
