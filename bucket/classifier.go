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

package bucket

import "github.com/zintix-labs/bucketlab/spec"

type tierRange struct {
	idx      int
	min, max float64
}

// Classifier 將 (倍數, 是否差一點) 對應到分類。
// 分類索引即設定中的順序。
type Classifier struct {
	names       []string
	randomIdx   int
	nearMissIdx int
	tiers       []tierRange // 依 min_win 遞增
}

// NewClassifier 以分類設定建立分類器；必備的兩個輸分類缺少時索引為 -1。
func NewClassifier(bl spec.BucketList) *Classifier {
	c := &Classifier{
		names:       make([]string, len(bl)),
		randomIdx:   -1,
		nearMissIdx: -1,
	}
	pos := make(map[string]int, len(bl))
	for i, b := range bl {
		c.names[i] = b.Name
		pos[b.Name] = i
		switch b.Name {
		case spec.DefaultLoss:
			c.randomIdx = i
		case spec.NearMissLoss:
			c.nearMissIdx = i
		}
	}
	for _, t := range bl.WinTiers() {
		c.tiers = append(c.tiers, tierRange{idx: pos[t.Name], min: t.MinWin, max: t.MaxWin})
	}
	return c
}

// ClassifyIndex 回傳分類索引；fallback 表示倍數不在任何贏分層內而落到最低層。
func (c *Classifier) ClassifyIndex(mult float64, nearMiss bool) (idx int, fallback bool) {
	if mult <= 0 {
		if nearMiss {
			return c.nearMissIdx, false
		}
		return c.randomIdx, false
	}
	for _, t := range c.tiers {
		if t.min <= mult && mult < t.max {
			return t.idx, false
		}
		if t.max >= spec.UnboundedMaxWin && mult >= t.min {
			return t.idx, false
		}
	}
	if len(c.tiers) == 0 {
		return c.randomIdx, true
	}
	return c.tiers[0].idx, true
}

// Classify 回傳分類名稱
func (c *Classifier) Classify(mult float64, nearMiss bool) string {
	idx, _ := c.ClassifyIndex(mult, nearMiss)
	if idx < 0 {
		return ""
	}
	return c.names[idx]
}
