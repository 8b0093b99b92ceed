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

package sampler

import (
	"math"
	"testing"

	"github.com/zintix-labs/bucketlab/sdk/core"
)

func TestPickWeightedDistribution(t *testing.T) {
	c := core.NewWithSeed(42)
	weights := []float64{1, 0, 3, -2}
	counts := make([]int, len(weights))
	n := 200000
	for i := 0; i < n; i++ {
		idx := PickWeighted(c, weights)
		if idx < 0 {
			t.Fatalf("unexpected -1")
		}
		counts[idx]++
	}
	if counts[1] != 0 || counts[3] != 0 {
		t.Fatalf("zero/negative weights must never be picked: %v", counts)
	}
	if p := float64(counts[0]) / float64(n); math.Abs(p-0.25) > 0.01 {
		t.Fatalf("expected ~0.25 for first item, got %.4f", p)
	}
}

func TestPickWeightedEmpty(t *testing.T) {
	c := core.NewWithSeed(1)
	if PickWeighted(c, []int{0, 0}) != -1 {
		t.Fatalf("expected -1 for zero total")
	}
	if PickWeighted[float64](c, nil) != -1 {
		t.Fatalf("expected -1 for nil weights")
	}
	if Total([]int{2, -1, 3}) != 5 {
		t.Fatalf("unexpected total")
	}
}

func TestSampleIndexes(t *testing.T) {
	c := core.NewWithSeed(5)
	got := SampleIndexes(c, 10, 4)
	if len(got) != 4 {
		t.Fatalf("expected 4 indexes, got %d", len(got))
	}
	seen := map[int]bool{}
	for _, v := range got {
		if v < 0 || v >= 10 || seen[v] {
			t.Fatalf("invalid or duplicated index %d in %v", v, got)
		}
		seen[v] = true
	}
	if len(SampleIndexes(c, 3, 10)) != 3 {
		t.Fatalf("k > n should return all indexes")
	}
	if SampleIndexes(c, 0, 3) != nil {
		t.Fatalf("n == 0 should return nil")
	}
}
