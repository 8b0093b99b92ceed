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
	"github.com/zintix-labs/bucketlab/sdk/core"
	"github.com/zintix-labs/bucketlab/spec"
)

// Filler 查表越界時填入的符號
const Filler = spec.L1

// GridGenerator 由停輪位置展開盤面。
// 不持有亂數器也不配置記憶體，可在多個 goroutine 間共用。
type GridGenerator struct {
	reels [spec.Cols][]spec.Symbol
}

// NewGridGenerator 以已初始化的設定建立生成器
func NewGridGenerator(gs *spec.GameSetting) *GridGenerator {
	return &GridGenerator{reels: gs.Reels}
}

// Fill 依停輪位置寫入盤面，回傳越界格數。
//
// cell(row,col) = reel[col][(stop[col]+row) mod len(reel[col])]
// 越界（負的停輪位置或空輪帶）的格子填入 Filler，由呼叫端記錄為設定完整性警告。
func (g *GridGenerator) Fill(stops spec.Stops, dst *spec.Grid) (misses int) {
	const cols = spec.Cols
	for col := range cols {
		reel := g.reels[col]
		length := len(reel)
		stop := stops[col]
		for row := range spec.Rows {
			if length == 0 || stop < 0 {
				dst[row*cols+col] = Filler
				misses++
				continue
			}
			dst[row*cols+col] = reel[(stop+row)%length]
		}
	}
	return misses
}

// Grid 回傳新盤面
func (g *GridGenerator) Grid(stops spec.Stops) (spec.Grid, int) {
	var grid spec.Grid
	misses := g.Fill(stops, &grid)
	return grid, misses
}

// RandomStops 每軸均勻抽一個停輪位置
func (g *GridGenerator) RandomStops(c *core.Core) spec.Stops {
	var s spec.Stops
	for col := range spec.Cols {
		s[col] = c.IntN(len(g.reels[col]))
	}
	return s
}

// ValidStops 停輪位置是否都落在輪帶範圍內
func (g *GridGenerator) ValidStops(s spec.Stops) bool {
	for col := range spec.Cols {
		if s[col] < 0 || s[col] >= len(g.reels[col]) {
			return false
		}
	}
	return true
}

// Matrix 以標準符號代碼輸出 rows x cols 矩陣
func Matrix(grid *spec.Grid) [][]string {
	m := make([][]string, spec.Rows)
	for row := range spec.Rows {
		line := make([]string, spec.Cols)
		for col := range spec.Cols {
			line[col] = grid[row*spec.Cols+col].String()
		}
		m[row] = line
	}
	return m
}
