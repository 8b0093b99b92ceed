package v1

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"runtime"
	"strconv"

	"github.com/zintix-labs/bucketlab"
	"github.com/zintix-labs/bucketlab/dto"
	"github.com/zintix-labs/bucketlab/errs"
	"github.com/zintix-labs/bucketlab/sdk/core"
	"github.com/zintix-labs/bucketlab/server/httperr"
	"github.com/zintix-labs/bucketlab/spec"
	"github.com/zintix-labs/bucketlab/stats"
)

// 單次請求的模擬總轉數上限
const maxSimSpins = 5_000_000

type SimHandler struct {
	Lab *bucketlab.Lab
	Log *slog.Logger
}

func NewSimHandler(lab *bucketlab.Lab, log *slog.Logger) *SimHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SimHandler{Lab: lab, Log: log}
}

// Sim 玩家模擬：players 位玩家各自帶 balance 進場，最多 spins 轉。
// GET 由 query 帶參數，POST 為 dto.SimRequest。
func (sh *SimHandler) Sim(w http.ResponseWriter, q *http.Request) {
	// 內部結構 不影響外部 也不被外部使用
	type SimResponse struct {
		Seed     int64                   `json:"seed"`
		Stats    *stats.StatReport       `json:"stats"`
		Players  *stats.EstimatorPlayers `json:"players"`
		UsedTime int64                   `json:"used_ms"`
	}

	req, err := decodeSimRequest(q)
	if err != nil {
		httperr.Errs(w, err)
		return
	}

	// 業務檢驗
	gid, err := sh.resolve(req.GameName, req.GameId)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if req.Players < 1 || req.Spins < 1 || req.Players*req.Spins > maxSimSpins {
		httperr.Errs(w, errs.NewWarn(fmt.Sprintf("players*spins must be between 1 to %d", maxSimSpins)))
		return
	}
	if !(req.Bet > 0) || math.IsInf(req.Bet, 0) {
		httperr.Errs(w, errs.NewWarn("bet must be > 0"))
		return
	}
	if !(req.Balance >= req.Bet) || math.IsInf(req.Balance, 0) {
		httperr.Errs(w, errs.NewWarn("balance must cover at least one bet"))
		return
	}
	workers := req.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	seed := req.Seed
	if seed == 0 {
		seed = core.RandomSeed()
	}

	sim, err := sh.Lab.NewSimulatorWithSeed(q.Context(), gid, seed)
	if err != nil {
		// 尊重錯誤分級
		httperr.Errs(w, errs.Wrap(err, fmt.Sprintf("build simulator err: %d", gid)))
		return
	}
	st, est, used, err := sim.SimPlayers(workers, req.Players, req.Spins, req.Bet, req.Balance, false)
	if err != nil {
		httperr.Log(sh.Log, "simulate err", err)
		httperr.Errs(w, errs.Wrap(err, "simulate err"))
		return
	}
	httperr.JSON(w, http.StatusOK, SimResponse{
		Seed:     seed,
		Stats:    st,
		Players:  est,
		UsedTime: used.Milliseconds(),
	})
}

// resolve 以名稱或 ID 找到目錄中的遊戲；兩者都帶時必須一致。
func (sh *SimHandler) resolve(name string, gid spec.GID) (spec.GID, error) {
	return resolveGame(sh.Lab, name, gid)
}

func resolveGame(lab *bucketlab.Lab, name string, gid spec.GID) (spec.GID, error) {
	switch {
	case gid != 0:
		ent, ok := lab.EntryById(gid)
		if !ok {
			return 0, errs.NewWarn("gid not found")
		}
		if name != "" {
			if byName, ok := lab.EntryByName(name); !ok || byName.GID != ent.GID {
				return 0, errs.NewWarn("game id is not matched game name")
			}
		}
		return ent.GID, nil
	case name != "":
		ent, ok := lab.EntryByName(name)
		if !ok {
			return 0, errs.NewWarn("game not found")
		}
		return ent.GID, nil
	default:
		return 0, errs.NewWarn("game or gid is required")
	}
}

func decodeSimRequest(q *http.Request) (*dto.SimRequest, error) {
	req := new(dto.SimRequest)
	switch q.Method {
	case http.MethodPost:
		if err := dto.DecodeJSON(q, req); err != nil {
			return nil, err
		}
		return req, nil
	case http.MethodGet:
	default:
		return nil, errs.NewWarn("method not allowed")
	}

	v := q.URL.Query()
	req.GameName = v.Get("game")
	if s := v.Get("gid"); s != "" {
		u, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, errs.NewWarn("gid must be non-negative integer")
		}
		req.GameId = spec.GID(u)
	}
	ints := []struct {
		key string
		dst *int
	}{
		{"players", &req.Players},
		{"spins", &req.Spins},
		{"workers", &req.Workers},
	}
	for _, f := range ints {
		if s := v.Get(f.key); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return nil, errs.NewWarn(f.key + " must be integer")
			}
			*f.dst = n
		}
	}
	floats := []struct {
		key string
		dst *float64
	}{
		{"bet", &req.Bet},
		{"balance", &req.Balance},
	}
	for _, f := range floats {
		if s := v.Get(f.key); s != "" {
			x, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, errs.NewWarn(f.key + " must be number")
			}
			*f.dst = x
		}
	}
	if s := v.Get("seed"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errs.NewWarn("seed must be int64")
		}
		req.Seed = n
	}
	return req, nil
}
