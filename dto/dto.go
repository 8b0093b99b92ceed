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

package dto

import (
	"github.com/zintix-labs/bucketlab/spec"
)

// SpinResult 對外輸出的單回合結果
type SpinResult struct {
	GameName      string       `json:"game"`                    // 遊戲名稱
	GameID        spec.GID     `json:"gameid"`                  // 遊戲編號
	Bet           float64      `json:"bet"`                     // 本次押注
	Matrix        [][]string   `json:"matrix"`                  // 3x5 盤面（列優先）
	WinningLines  []WinLineDTO `json:"winning_lines,omitempty"` // 中獎線
	TotalPayout   float64      `json:"total_payout"`            // 總派彩
	IsWin         bool         `json:"is_win"`                  // 是否有派彩
	BucketType    string       `json:"bucket_type"`             // 實際使用的分類
	BalanceUpdate float64      `json:"balance_update"`          // 派彩 - 押注
	FailStreak    int          `json:"fail_streak"`             // 更新後的連輸次數
	Decision      DecisionDTO  `json:"decision"`                // 選擇過程
	State         SpinState    `json:"spin_state"`              // 亂數狀態
}

// WinLineDTO 單條中獎線
type WinLineDTO struct {
	LineID int     `json:"line_id"`
	Symbol string  `json:"symbol"`
	Count  int     `json:"count"`
	Amount float64 `json:"amount"`
}

// DecisionDTO 選擇器的決策資訊，主要用於除錯與審計
type DecisionDTO struct {
	WinGate  bool     `json:"win_gate"`
	WinProb  float64  `json:"win_prob"`
	BaseC    float64  `json:"base_c"`
	Attempts int      `json:"attempts"`
	Rejected []string `json:"rejected,omitempty"`
	Outcome  string   `json:"outcome"`
}

// SpinState 本回合開始與結束時的 PRNG 快照（base64url）
type SpinState struct {
	StartCoreSnapB64U string `json:"start_b64u"` // 必回
	AfterCoreSnapB64U string `json:"after_b64u"` // 必回
}

// BucketSummary 分類表摘要
type BucketSummary struct {
	GameName   string            `json:"game"`
	Hash       string            `json:"hash"`
	Source     string            `json:"source"`
	Sampled    bool              `json:"sampled"`
	Candidates int64             `json:"candidates"`
	Fallbacks  int64             `json:"fallbacks"`
	Categories []CategorySummary `json:"categories"`
}

// CategorySummary 單一分類摘要
type CategorySummary struct {
	Name    string  `json:"name"`
	Kind    string  `json:"kind"`
	Weight  float64 `json:"weight"`
	MinWin  float64 `json:"min_win"`
	MaxWin  float64 `json:"max_win"`
	Members int     `json:"members"`
	Hits    int64   `json:"hits"`
	AvgMult float64 `json:"avg_mult"`
	MaxMult float64 `json:"max_mult"`
}
