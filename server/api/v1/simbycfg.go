package v1

import (
	"encoding/json"
	"net/http"
	"runtime"

	"github.com/zintix-labs/bucketlab/errs"
	"github.com/zintix-labs/bucketlab/sdk/core"
	"github.com/zintix-labs/bucketlab/server/httperr"
	"github.com/zintix-labs/bucketlab/stats"
)

// SimByCfg 以請求帶入的 JSON 設定建立臨時引擎做機台模擬，不影響正在服務的引擎。
// 設定的 game / gid 必須是目錄中已註冊的遊戲。
func (sh *SimHandler) SimByCfg(w http.ResponseWriter, r *http.Request) {
	type SimRequestByJson struct {
		Rounds      int             `json:"round"`
		Bet         float64         `json:"bet"`
		Workers     int             `json:"workers"`
		GameSetting json.RawMessage `json:"cfg"`
		Seed        *int64          `json:"seed,omitempty"`
	}
	type SimResponse struct {
		Seed     int64             `json:"seed"`
		Stats    *stats.StatReport `json:"stats"`
		UsedTime int64             `json:"used_ms"`
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// 1. decode request
	req := new(SimRequestByJson)
	r.Body = http.MaxBytesReader(w, r.Body, 5<<20) // 5MB
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		httperr.Errs(w, errs.NewWarn("json decode failed: "+err.Error()))
		return
	}

	// 2. valid
	workers := max(1, req.Workers)
	if req.Workers == 0 {
		workers = runtime.NumCPU()
	}
	if req.Rounds < 1 || req.Rounds*workers > maxSimSpins {
		httperr.Errs(w, errs.NewWarn("round*workers out of range"))
		return
	}
	if !(req.Bet > 0) {
		httperr.Errs(w, errs.NewWarn("bet must be > 0"))
		return
	}
	if len(req.GameSetting) == 0 {
		httperr.Errs(w, errs.NewWarn("cfg is required"))
		return
	}
	seed := core.RandomSeed()
	if req.Seed != nil {
		seed = *req.Seed
	}

	// 3. 臨時引擎（分類表可能來自快取）
	sim, err := sh.Lab.NewSimulatorByJSON(r.Context(), req.GameSetting, seed)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	st, used, err := sim.SimMP(req.Rounds, workers, req.Bet, false)
	if err != nil {
		httperr.Log(sh.Log, "simulate by cfg err", err)
		httperr.Errs(w, err)
		return
	}
	httperr.JSON(w, http.StatusOK, SimResponse{Seed: seed, Stats: st, UsedTime: used.Milliseconds()})
}
