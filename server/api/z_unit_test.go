package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/bucketlab"
	"github.com/zintix-labs/bucketlab/cache"
	"github.com/zintix-labs/bucketlab/dto"
	"github.com/zintix-labs/bucketlab/sdk/core"
	"github.com/zintix-labs/bucketlab/server/httperr"
	"github.com/zintix-labs/bucketlab/server/logger"
	"github.com/zintix-labs/bucketlab/server/netsvr"
	"github.com/zintix-labs/bucketlab/server/netsvr/middleware"
	"github.com/zintix-labs/bucketlab/server/svrcfg"
)

const tinyYAML = `
game_name: tiny
game_id: 7
reel_sets:
  - [H1, L1, WILD]
  - [H1, L2, SCATTER]
  - [H1, L1, L2]
  - [L2, H1, L1]
  - [L2, L1, H1]
pay_table:
  H1: { 3: 10, 4: 20, 5: 50 }
  L1: { 3: 2, 4: 4, 5: 8 }
  L2: { 3: 1, 4: 3, 5: 5 }
lines:
  1: [[0, 0], [0, 1], [0, 2], [0, 3], [0, 4]]
  2: [[1, 0], [1, 1], [1, 2], [1, 3], [1, 4]]
buckets:
  Loss_Random:   { weight: 60 }
  Loss_NearMiss: { weight: 10 }
  Win_Low:  { weight: 20, min: 0, max: 5 }
  Win_High: { weight: 10, min_win: 5, max_win: 200 }
  Win_Huge: { weight: 1, min_win: 200, max_win: 1000 }
`

func newTestServer(t *testing.T) (http.Handler, *svrcfg.SvrCfg) {
	t.Helper()
	cfgs := fstest.MapFS{"tiny.yaml": &fstest.MapFile{Data: []byte(tinyYAML)}}
	lab, err := bucketlab.NewAuto(core.Default(), bucketlab.Configs(cfgs),
		bucketlab.WithSeed(1), bucketlab.WithStore(cache.NewMemStore()))
	if err != nil {
		t.Fatalf("new lab: %v", err)
	}
	sCfg := &svrcfg.SvrCfg{
		Log:         logger.NewDefaultLogger(logger.ModeSilence),
		SlotBufSize: 2,
		Lab:         lab,
	}
	if err := sCfg.Vaild(); err != nil {
		t.Fatalf("valid: %v", err)
	}
	svr := netsvr.NewChiServer("")
	if err := RegisterRoutes(svr, sCfg); err != nil {
		t.Fatalf("register: %v", err)
	}
	t.Cleanup(sCfg.Runtime.Close)
	return svr.Handler(), sCfg
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestIndexListsGames(t *testing.T) {
	h, _ := newTestServer(t)
	rec := do(h, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var out []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || out[0]["gid"] != float64(7) {
		t.Fatalf("games %v", out)
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Fatalf("request id header missing")
	}
}

func TestSpinPostAndGet(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(h, http.MethodPost, "/v1/spin",
		`{"gid":7,"game":"tiny","bet":1,"balance":100,"initial_balance":100}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("post status %d: %s", rec.Code, rec.Body.String())
	}
	var res dto.SpinResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.GameID != 7 || res.State.StartCoreSnapB64U == "" || res.State.AfterCoreSnapB64U == "" {
		t.Fatalf("unexpected result %+v", res)
	}
	if len(res.Matrix) != 3 || len(res.Matrix[0]) != 5 {
		t.Fatalf("matrix shape %v", res.Matrix)
	}

	// 只帶名稱也可以路由
	rec = do(h, http.MethodGet, "/v1/spin?game=TINY&bet=2&balance=100&initial_balance=100", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status %d: %s", rec.Code, rec.Body.String())
	}
}

func TestSpinRejectsBadRequest(t *testing.T) {
	h, _ := newTestServer(t)
	rec := do(h, http.MethodPost, "/v1/spin", `{"gid":7,"game":"tiny","bet":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d", rec.Code)
	}
	var body httperr.Body
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Error == "" {
		t.Fatalf("error body %q", rec.Body.String())
	}
	rec = do(h, http.MethodPost, "/v1/spin", `{"gid":7,"unknown":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown field status %d", rec.Code)
	}
	rec = do(h, http.MethodPost, "/v1/spin", `{"gid":99,"bet":1}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown game status %d", rec.Code)
	}
}

func TestBucketsAndSettings(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(h, http.MethodGet, "/v1/buckets?game=tiny", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("buckets status %d: %s", rec.Code, rec.Body.String())
	}
	var before struct {
		Table dto.BucketSummary `json:"table"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &before); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if before.Table.Hash == "" || len(before.Table.Categories) != 5 {
		t.Fatalf("summary %+v", before.Table)
	}

	rec = do(h, http.MethodPut, "/v1/settings?gid=7", `{"weights":{"Win_Low":1}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("settings status %d: %s", rec.Code, rec.Body.String())
	}
	var after struct {
		Table dto.BucketSummary `json:"table"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &after); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if after.Table.Hash != before.Table.Hash {
		t.Fatalf("retune must keep the table")
	}
	for _, c := range after.Table.Categories {
		if c.Name == "Win_Low" && c.Weight != 1 {
			t.Fatalf("weight not applied: %+v", c)
		}
	}

	if rec := do(h, http.MethodGet, "/v1/buckets", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing game status %d", rec.Code)
	}
}

func TestConfigureRejectsInvalidSetting(t *testing.T) {
	h, sCfg := newTestServer(t)
	pool, _ := sCfg.Runtime.Pool(7)
	hash := pool.Handle().Load().Hash()

	rec := do(h, http.MethodPost, "/v1/configure", `{"game_name":"tiny","game_id":7}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var body httperr.Body
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Kind != "config" {
		t.Fatalf("error body %q", rec.Body.String())
	}
	if pool.Handle().Load().Hash() != hash {
		t.Fatalf("failed configure must keep the old engine")
	}
}

func TestSimStatAndMetrics(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(h, http.MethodPost, "/v1/sim",
		`{"gid":7,"players":4,"spins":20,"bet":1,"balance":50,"workers":2,"seed":3}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("sim status %d: %s", rec.Code, rec.Body.String())
	}
	var sim struct {
		Seed  int64           `json:"seed"`
		Stats json.RawMessage `json:"stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &sim); err != nil || sim.Seed != 3 || len(sim.Stats) == 0 {
		t.Fatalf("sim body %q", rec.Body.String())
	}
	if rec := do(h, http.MethodPost, "/v1/sim", `{"gid":7,"players":0,"spins":20,"bet":1,"balance":50}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid sim status %d", rec.Code)
	}

	rec = do(h, http.MethodPost, "/v1/stat", `{"game":"tiny","bet":1,"payouts":[0,2,0,5]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("stat status %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(h, http.MethodPost, "/v1/stat", `{"bet":1,"payouts":[]}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty stat status %d", rec.Code)
	}

	rec = do(h, http.MethodGet, "/v1/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status %d", rec.Code)
	}
	var ms []bucketlab.MachinePoolMetrics
	if err := json.Unmarshal(rec.Body.Bytes(), &ms); err != nil || len(ms) != 1 || ms[0].PoolSize != 2 {
		t.Fatalf("metrics %q", rec.Body.String())
	}
}

func TestCORSAndCompression(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/spin", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") == "" {
		t.Fatalf("preflight should be answered, headers %v", rec.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/metrics", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("response should be gzip encoded")
	}
}

func TestReplayFromSpinSnapshot(t *testing.T) {
	h, _ := newTestServer(t)
	rec := do(h, http.MethodPost, "/v1/spin",
		`{"gid":7,"game":"tiny","bet":1,"balance":100,"initial_balance":100}`)
	var res dto.SpinResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode spin: %v", err)
	}

	body := `{"gid":7,"bet":1,"balance":50,"round":5,"start_b64u":"` + res.State.StartCoreSnapB64U + `"}`
	rec = do(h, http.MethodPost, "/v1/replay", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("replay status %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Rounds            int    `json:"rounds"`
		StartCoreSnapB64U string `json:"start_b64u"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode replay: %v", err)
	}
	if out.Rounds == 0 || out.StartCoreSnapB64U != res.State.StartCoreSnapB64U {
		t.Fatalf("replay report %+v", out)
	}

	if rec := do(h, http.MethodPost, "/v1/replay", `{"gid":7,"bet":1,"balance":50,"round":5}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing snapshot status %d", rec.Code)
	}
}
