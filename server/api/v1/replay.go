package v1

import (
	"net/http"

	"github.com/zintix-labs/bucketlab"
	"github.com/zintix-labs/bucketlab/dto"
	"github.com/zintix-labs/bucketlab/errs"
	"github.com/zintix-labs/bucketlab/server/httperr"
	"github.com/zintix-labs/bucketlab/spec"
)

// ReplayRequest 回放請求；start_b64u 通常取自某次 spin 回應的 spin_state。
type ReplayRequest struct {
	GameName string   `json:"game"`
	GameId   spec.GID `json:"gid"`
	Bet      float64  `json:"bet"`
	Balance  float64  `json:"balance"`
	Round    int      `json:"round"`
	Start    string   `json:"start_b64u"`
}

// Replay 從快照連續轉動多回合，回傳逐回合結果與玩家結局
func (sh *SimHandler) Replay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req := new(ReplayRequest)
	if err := dto.DecodeJSON(r, req); err != nil {
		httperr.Errs(w, err)
		return
	}
	if req.Start == "" {
		httperr.Errs(w, errs.NewWarn("start_b64u is required"))
		return
	}
	id, err := resolveGame(sh.Lab, req.GameName, req.GameId)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	rp, err := sh.Lab.NewReplayer(r.Context(), id)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	out, err := rp.Spins(req.Start, bucketlab.ReplayPlayer{Bet: req.Bet, Balance: req.Balance}, req.Round)
	if err != nil {
		httperr.Log(sh.Log, "replay err", err)
		httperr.Errs(w, err)
		return
	}
	httperr.JSON(w, http.StatusOK, out)
}
