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

// PRNG 定義 Core 所需的亂數來源，需同時支援取樣與狀態保存/還原。
type PRNG interface {
	RAND
	Restorable
}

// Restorable 定義可快照與還原的狀態介面。
type Restorable interface {
	// Snapshot 回傳可用於還原的序列化狀態。
	Snapshot() ([]byte, error)
	// Restore 依序列化狀態還原 PRNG 內部狀態。
	Restore([]byte) error
}

// RAND 定義核心亂數取樣能力。
//
// IntN/UintN 交由 PRNG 自己實作，讓每個 PRNG 用最合適的 bounded 策略；
// Float64 的精度（32-bit vs 53-bit）同樣由實作決定。
type RAND interface {
	// Uint64 回傳非負 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數。
	Float64() float64
	// UintN 回傳 [0,max) 的 uint 亂數，若 max == 0 回傳 0。
	UintN(uint) uint
	// IntN 回傳 [0,max) 的 int 亂數，若 max <= 0 回傳 -1。
	IntN(int) int
}

type PRNGFactory interface {
	// New 以指定 seed 建立新的 PRNG。
	//
	// 合約：在同一個實作與同一個版本下，New(seed) 必須是決定性的，
	// 相同的 seed 必須產生相同的初始內部狀態與輸出序列。
	// 建表、機台與模擬玩家皆由 seed 派生，以便重現。
	New(int64) PRNG
}

// DefaultPRNG 實作預設的 PRNGFactory（PCG64）
type DefaultPRNG struct{}

// New 滿足合約
func (d *DefaultPRNG) New(seed int64) PRNG {
	return newPCG64WithSeed(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// Core 封裝 PRNG，並提供常用取樣與工具方法。
// Core 不是併發安全的：每個工作單元（機台、模擬玩家、建表）各自持有一個。
type Core struct {
	PRNG
}

// New 允許使用外部自實現的 PRNG 建立 Core。
func New(rng PRNG) *Core {
	return &Core{rng}
}

// NewWithSeed 以預設 PRNG 建立 Core
func NewWithSeed(seed int64) *Core {
	return &Core{Default().New(seed)}
}

// Chance 以 Float64() < p 判定事件是否發生；p <= 0 永不發生，p >= 1 必定發生。
func (c *Core) Chance(p float64) bool {
	return c.Float64() < p
}

// Pick 從列表中隨機選取一個索引，若長度為 0 回傳 -1
// 熱路徑中只使用哨兵值回傳
func (c *Core) Pick(n int) int {
	if n <= 0 {
		return -1
	}
	return c.IntN(n)
}

// PartialShuffle 對 src 前 k 個位置做 Fisher-Yates，
// 完成後 src[:k] 為從 src 中均勻抽出的 k 個不重複元素。
func (c *Core) PartialShuffle(src []int, k int) {
	n := len(src)
	if k > n {
		k = n
	}
	for i := 0; i < k; i++ {
		j := i + c.IntN(n-i)
		src[i], src[j] = src[j], src[i]
	}
}
