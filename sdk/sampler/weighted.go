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

// Package sampler 提供加權抽樣工具。
//
// 選擇器每一回合都會重新過濾權重（閘門、進度層、押注層、上限剔除），
// 因此這裡以線性累積掃描為主，不預先建表。
package sampler

import "github.com/zintix-labs/bucketlab/sdk/core"

// Total 回傳非負權重總和，負值與 NaN 視為 0。
func Total[T Numbers](weights []T) float64 {
	var sum float64
	for _, w := range weights {
		if f := float64(w); f > 0 {
			sum += f
		}
	}
	return sum
}

// PickWeighted 依權重比例抽出一個索引。
// 權重總和 <= 0 時回傳 -1；權重為 0 的項目永不入選。
func PickWeighted[T Numbers](c *core.Core, weights []T) int {
	total := Total(weights)
	if total <= 0 {
		return -1
	}
	r := c.Float64() * total
	last := -1
	for i, w := range weights {
		f := float64(w)
		if !(f > 0) {
			continue
		}
		last = i
		if r < f {
			return i
		}
		r -= f
	}
	// 浮點誤差落在尾端
	return last
}

// SampleIndexes 從 [0,n) 均勻抽出 min(k,n) 個不重複索引（部分 Fisher-Yates）。
func SampleIndexes(c *core.Core, n, k int) []int {
	if n <= 0 || k <= 0 {
		return nil
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	if k >= n {
		return idx
	}
	c.PartialShuffle(idx, k)
	return idx[:k]
}
