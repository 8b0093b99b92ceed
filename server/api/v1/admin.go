package v1

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/zintix-labs/bucketlab"
	"github.com/zintix-labs/bucketlab/dto"
	"github.com/zintix-labs/bucketlab/errs"
	"github.com/zintix-labs/bucketlab/server/httperr"
	"github.com/zintix-labs/bucketlab/spec"
)

// AdminHandler 引擎觀測與熱更新：分類表摘要、可調參數、結構重設、機台池指標。
type AdminHandler struct {
	lab *bucketlab.Lab
	rt  *bucketlab.SlotRuntime
	log *slog.Logger
}

func NewAdminHandler(lab *bucketlab.Lab, rt *bucketlab.SlotRuntime, log *slog.Logger) *AdminHandler {
	if log == nil {
		log = slog.Default()
	}
	return &AdminHandler{lab: lab, rt: rt, log: log}
}

// EngineResponse 引擎目前生效的設定與分類表摘要
type EngineResponse struct {
	Settings spec.RuntimeSetting `json:"settings"`
	Table    dto.BucketSummary   `json:"table"`
}

func engineResponse(e *bucketlab.Engine) EngineResponse {
	return EngineResponse{Settings: e.Setting().Settings, Table: e.Summary()}
}

// Buckets GET /v1/buckets?game=|gid=
func (ah *AdminHandler) Buckets(w http.ResponseWriter, r *http.Request) {
	mp, err := ah.pool(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	httperr.JSON(w, http.StatusOK, engineResponse(mp.Handle().Load()))
}

// Settings PUT /v1/settings?game=|gid=
// 替換權重與可調參數；分類表沿用，下一回合生效。
func (ah *AdminHandler) Settings(w http.ResponseWriter, r *http.Request) {
	mp, err := ah.pool(r)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	req := new(dto.SettingsRequest)
	if err := dto.DecodeJSON(r, req); err != nil {
		httperr.Errs(w, err)
		return
	}
	cur := mp.Handle().Load().Setting()
	gid := cur.GameID
	var rs *spec.RuntimeSetting
	if req.Settings != nil {
		next := req.Settings.Apply(cur.Settings, cur.Buckets)
		rs = &next
	}
	e, err := ah.rt.Retune(gid, rs, req.Weights)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	ah.log.Info("engine.retuned", slog.Uint64("gid", uint64(gid)), slog.String("hash", e.Hash()))
	httperr.JSON(w, http.StatusOK, engineResponse(e))
}

// Configure POST /v1/configure
// body 為完整的 JSON GameSetting；失敗時舊引擎維持生效。
func (ah *AdminHandler) Configure(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 5<<20))
	if err != nil {
		httperr.Errs(w, errs.NewWarn("read body failed: "+err.Error()))
		return
	}
	gs, err := spec.GetGameSettingByJSON(raw)
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	if _, err := resolveGame(ah.lab, gs.GameName, gs.GameID); err != nil {
		httperr.Errs(w, err)
		return
	}
	e, err := ah.rt.Reconfigure(r.Context(), gs)
	if err != nil {
		httperr.Log(ah.log, "reconfigure failed", err)
		httperr.Errs(w, err)
		return
	}
	ah.log.Info("engine.reconfigured",
		slog.Uint64("gid", uint64(gs.GameID)),
		slog.String("hash", e.Hash()),
		slog.String("source", string(e.Source())),
	)
	httperr.JSON(w, http.StatusOK, engineResponse(e))
}

// Metrics GET /v1/metrics
func (ah *AdminHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	httperr.JSON(w, http.StatusOK, ah.rt.Metrics())
}

// Games GET / 目錄摘要
func (ah *AdminHandler) Games(w http.ResponseWriter, r *http.Request) {
	sum, err := ah.lab.Summary()
	if err != nil {
		httperr.Errs(w, err)
		return
	}
	httperr.JSON(w, http.StatusOK, sum)
}

func (ah *AdminHandler) pool(r *http.Request) (*bucketlab.MachinePool, error) {
	q := r.URL.Query()
	var gid spec.GID
	if s := q.Get("gid"); s != "" {
		u, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, errs.NewWarn("gid must be non-negative integer")
		}
		gid = spec.GID(u)
	}
	id, err := resolveGame(ah.lab, q.Get("game"), gid)
	if err != nil {
		return nil, err
	}
	mp, ok := ah.rt.Pool(id)
	if !ok {
		return nil, errs.NewWarn("game id not found")
	}
	return mp, nil
}
