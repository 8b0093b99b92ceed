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
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/zintix-labs/bucketlab/errs"
	"github.com/zintix-labs/bucketlab/spec"
)

// 防止 body 過大（預設 1MiB）
const maxBody = 1 << 20

// SpinRequest 單回合請求，玩家狀態由呼叫端保存並每次帶入。
type SpinRequest struct {
	UID            string                `json:"uid"`                   // 唯一識別碼
	GameName       string                `json:"game"`                  // 要玩的遊戲
	GameId         spec.GID              `json:"gid"`                   // 遊戲機台編號
	Bet            float64               `json:"bet"`                   // 投注額
	Balance        float64               `json:"balance"`               // 目前餘額（不含本次押注）
	InitialBalance float64               `json:"initial_balance"`       // 進場餘額
	FailStreak     int                   `json:"fail_streak"`           // 連續未派彩次數
	SpinCount      int                   `json:"spin_count"`            // 已進行回合數
	HistoricalRTP  float64               `json:"historical_rtp"`        // 目前為止的 RTP
	MaxBalance     float64               `json:"max_historical_balance"` // 歷史最高餘額
	Simulation     bool                  `json:"simulation_mode"`       // 模擬回合；上限檢查不變
	Override       *spec.RuntimeOverride `json:"override,omitempty"`    // 可選：只作用於本回合的參數覆寫
	StartState     *StartState           `json:"start_state,omitempty"` // 可選：回放用的 PRNG 起始快照
}

// StartState 由業務端帶入的 PRNG 起始快照。
//   - 缺省：新局，機台以自己的 PRNG 流水進行。
//   - start_b64u 有值：回放，從快照恢復後進行，結束後機台回到原本的流水。
type StartState struct {
	StartCoreSnapB64U string `json:"start_b64u,omitempty"`
}

// DecodeSpinRequest 會把 HTTP 請求解碼成 SpinRequest。
//
// 支援：
//   - GET：從 query string 讀取參數（uid/game/gid/bet/balance/initial_balance/fail_streak/spin_count/historical_rtp）。
//     覆寫與回放需要巢狀結構，請使用 POST。
//   - POST：從 JSON body 反序列化，開啟 DisallowUnknownFields()。
//
// 這裡只負責解碼，合法性由 Machine 檢查。
func DecodeSpinRequest(r *http.Request) (*SpinRequest, error) {
	if r == nil {
		return nil, errs.NewWarn("nil request")
	}

	req := new(SpinRequest)

	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.UID = q.Get("uid")
		req.GameName = q.Get("game")

		if s := q.Get("gid"); s != "" {
			u, err := strconv.ParseUint(s, 10, 0)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid gid: %v", err))
			}
			req.GameId = spec.GID(u)
		}

		floats := []struct {
			key string
			dst *float64
		}{
			{"bet", &req.Bet},
			{"balance", &req.Balance},
			{"initial_balance", &req.InitialBalance},
			{"historical_rtp", &req.HistoricalRTP},
			{"max_historical_balance", &req.MaxBalance},
		}
		for _, f := range floats {
			if s := q.Get(f.key); s != "" {
				v, err := strconv.ParseFloat(s, 64)
				if err != nil {
					return nil, errs.NewWarn(fmt.Sprintf("invalid %s: %v", f.key, err))
				}
				*f.dst = v
			}
		}

		ints := []struct {
			key string
			dst *int
		}{
			{"fail_streak", &req.FailStreak},
			{"spin_count", &req.SpinCount},
		}
		for _, f := range ints {
			if s := q.Get(f.key); s != "" {
				v, err := strconv.Atoi(s)
				if err != nil {
					return nil, errs.NewWarn(fmt.Sprintf("invalid %s: %v", f.key, err))
				}
				*f.dst = v
			}
		}
		if s := q.Get("simulation_mode"); s != "" {
			v, err := strconv.ParseBool(s)
			if err != nil {
				return nil, errs.NewWarn(fmt.Sprintf("invalid simulation_mode: %v", err))
			}
			req.Simulation = v
		}
		return req, nil

	case http.MethodPost:
		if err := decodeJSON(r.Body, req); err != nil {
			return nil, err
		}
		return req, nil

	default:
		return nil, errs.NewWarn("method not allowed")
	}
}

// SimRequest 玩家模擬請求
type SimRequest struct {
	GameName string   `json:"game"`
	GameId   spec.GID `json:"gid"`
	Players  int      `json:"players"`
	Spins    int      `json:"spins"`
	Bet      float64  `json:"bet"`
	Balance  float64  `json:"balance"`
	Workers  int      `json:"workers"`
	Seed     int64    `json:"seed,omitempty"`
}

// SettingsRequest 可調參數的替換請求；settings 只需帶要改的欄位，其餘沿用目前設定。
type SettingsRequest struct {
	Settings *spec.SettingsPatch `json:"settings,omitempty"`
	Weights  map[string]float64  `json:"weights,omitempty"`
}

// DecodeJSON 以嚴格模式解碼 POST/PUT body
func DecodeJSON(r *http.Request, dst any) error {
	if r == nil {
		return errs.NewWarn("nil request")
	}
	return decodeJSON(r.Body, dst)
}

func decodeJSON(body io.Reader, dst any) error {
	dec := json.NewDecoder(io.LimitReader(body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errs.NewWarn("invalid json: " + err.Error())
	}
	return nil
}
