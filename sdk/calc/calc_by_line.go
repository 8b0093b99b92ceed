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

package calc

import "github.com/zintix-labs/bucketlab/spec"

// SymbolMask 使用 uint64 以支援最多 64 種不同的圖標
// 圖標索引 i 對應遮罩位元 1 << i
type SymbolMask = uint64

// LineWin 單線中獎明細（倍數為押注 1 時的值）
type LineWin struct {
	LineID int
	Symbol spec.Symbol
	Name   string
	Count  int
	Mult   float64
}

// Evaluation 盤面計分結果
type Evaluation struct {
	Mult     float64
	Lines    []LineWin
	Scatters int
	NearMiss bool
}

// LineEvaluator 以線表計算盤面倍數，建立後唯讀，可跨 goroutine 共用。
type LineEvaluator struct {
	gs          *spec.GameSetting
	wildMask    SymbolMask
	scatterMask SymbolMask
	pays        *[spec.NumSymbols][spec.Cols + 1]float64
	lines       []spec.LineSetting
	wildSub     spec.Symbol
}

// NearMissScatters 盤面恰好出現此數量的 scatter 視為差一點
const NearMissScatters = 2

// NewLineEvaluator 以已初始化的設定建立計分器
func NewLineEvaluator(gs *spec.GameSetting) *LineEvaluator {
	le := &LineEvaluator{
		gs:      gs,
		pays:    &gs.Pays,
		lines:   gs.LineTable,
		wildSub: gs.WildSub,
	}
	for s := spec.Symbol(0); int(s) < spec.NumSymbols; s++ {
		if spec.IsSymbolWild(s) {
			le.wildMask |= 1 << uint(s)
		}
		if spec.IsSymbolScatter(s) {
			le.scatterMask |= 1 << uint(s)
		}
	}
	return le
}

// lineRun 回傳單線的目標符號與連線長度。
// 目標為線上第一個非 wild 符號；wild 可代任目標；整線皆為 wild 時以 wildSub 計。
func (le *LineEvaluator) lineRun(grid *spec.Grid, cells []int) (spec.Symbol, int) {
	wildMask := le.wildMask
	target := spec.Symbol(-1)
	run := 0
	for _, idx := range cells {
		s := grid[idx]
		isWild := wildMask&(1<<uint(s)) != 0
		if isWild {
			run++
			continue
		}
		if target < 0 {
			target = s
			run++
			continue
		}
		if s != target {
			break
		}
		run++
	}
	if target < 0 {
		target = le.wildSub
	}
	return target, run
}

// linePay 查表；少於 3 連線或無賠付時為 0
func (le *LineEvaluator) linePay(sym spec.Symbol, count int) float64 {
	if count < 3 || count > spec.Cols {
		return 0
	}
	return le.pays[sym][count]
}

// scatters 計算盤面上 scatter 類符號總數
func (le *LineEvaluator) scatters(grid *spec.Grid) int {
	n := 0
	for _, s := range grid {
		if le.scatterMask&(1<<uint(s)) != 0 {
			n++
		}
	}
	return n
}

// Score 建表熱路徑：只回傳總倍數與是否差一點，不配置記憶體。
func (le *LineEvaluator) Score(grid *spec.Grid) (mult float64, nearMiss bool) {
	for i := range le.lines {
		sym, count := le.lineRun(grid, le.lines[i].Cells)
		mult += le.linePay(sym, count)
	}
	return mult, le.scatters(grid) == NearMissScatters
}

// Evaluate 依 line id 遞增順序計分並回傳中獎明細。
func (le *LineEvaluator) Evaluate(grid *spec.Grid) Evaluation {
	ev := Evaluation{}
	for i := range le.lines {
		line := &le.lines[i]
		sym, count := le.lineRun(grid, line.Cells)
		pay := le.linePay(sym, count)
		if pay <= 0 {
			continue
		}
		ev.Mult += pay
		ev.Lines = append(ev.Lines, LineWin{
			LineID: line.ID,
			Symbol: sym,
			Name:   le.gs.SymbolName(sym),
			Count:  count,
			Mult:   pay,
		})
	}
	ev.Scatters = le.scatters(grid)
	ev.NearMiss = ev.Scatters == NearMissScatters
	return ev
}
