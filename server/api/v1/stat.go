package v1

import (
	"math"
	"net/http"

	"github.com/zintix-labs/bucketlab/dto"
	"github.com/zintix-labs/bucketlab/errs"
	"github.com/zintix-labs/bucketlab/recorder"
	"github.com/zintix-labs/bucketlab/server/httperr"
	"github.com/zintix-labs/bucketlab/spec"
)

// DistStat 外部回合紀錄：逐回合派彩與（可選）分類名稱。
// balance > 0 時會以玩家資金重播，破產或獲利離場後的回合不計入。
type DistStat struct {
	GameName   string    `json:"game"`
	GameId     spec.GID  `json:"gid"`
	Bet        float64   `json:"bet"`
	Balance    float64   `json:"balance"`
	Payouts    []float64 `json:"payouts"`
	Categories []string  `json:"categories,omitempty"`
}

// Stat 以外部回合紀錄產出與模擬器相同格式的統計報表
func Stat(w http.ResponseWriter, r *http.Request) {
	// Post方法限定
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	dst := new(DistStat)
	if err := dto.DecodeJSON(r, dst); err != nil {
		httperr.Errs(w, err)
		return
	}
	if len(dst.Payouts) < 1 {
		httperr.Errs(w, errs.NewWarn("round must > 0"))
		return
	}
	if len(dst.Categories) > 0 && len(dst.Categories) != len(dst.Payouts) {
		httperr.Errs(w, errs.NewWarn("categories must align with payouts"))
		return
	}
	if !(dst.Bet > 0) || math.IsInf(dst.Bet, 0) {
		httperr.Errs(w, errs.NewWarn("bet must be > 0"))
		return
	}
	if !(dst.Balance >= 0) || math.IsInf(dst.Balance, 0) {
		httperr.Errs(w, errs.NewWarn("balance must be >= 0"))
		return
	}

	rec, err := recorder.NewSpinRecorder(dst.GameName, dst.GameId, uniqueNames(dst.Categories), dst.Bet, dst.Balance)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if rec.Player != nil && !rec.CanSpin() {
		httperr.Errs(w, errs.NewWarn("balance must cover at least one bet"))
		return
	}
	for i, p := range dst.Payouts {
		if !(p >= 0) || math.IsInf(p, 0) {
			httperr.Errs(w, errs.Warnf("payout #%d is invalid: %v", i, p))
			return
		}
		rd := recorder.Round{Bet: dst.Bet, Payout: p, Mult: p / dst.Bet}
		if len(dst.Categories) > 0 {
			rd.Category = dst.Categories[i]
			rd.NearMiss = dst.Categories[i] == spec.NearMissLoss
		}
		if rec.Player == nil {
			rec.Record(rd)
			continue
		}
		if rec.RecordWithPlayer(rd) {
			break
		}
	}
	st := rec.Done()
	st.Done()
	httperr.JSON(w, http.StatusOK, st)
}

// uniqueNames 依首次出現順序去重
func uniqueNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, 8)
	for _, n := range names {
		if _, ok := seen[n]; ok || n == "" {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
