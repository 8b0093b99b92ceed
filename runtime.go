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

package bucketlab

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/bucketlab/dto"
	"github.com/zintix-labs/bucketlab/errs"
	"github.com/zintix-labs/bucketlab/spec"
)

// SlotRuntime 對外服務用的執行期：每款遊戲一個 MachinePool。
type SlotRuntime struct {
	// build-time 來源（只讀引用）
	lab *Lab // 方便取 catalog 與共用一些 helper

	// data-plane：關鍵主池（每個遊戲一個 pool）
	pools  map[spec.GID]*MachinePool
	byName map[string]spec.GID // 小寫名稱 → GID
	ids    []spec.GID          // 固定順序，用於觀測/列舉（來自 cat.IDs()）

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string

	poolSize int // 每個遊戲的池大小
}

// Spin 依請求中的遊戲 ID 轉給對應的機台池
func (rt *SlotRuntime) Spin(ctx context.Context, req *dto.SpinRequest) (dto.SpinResult, error) {
	select {
	case <-ctx.Done():
		// 如果通知取消
		return dto.SpinResult{}, errs.Wrap(ctx.Err(), "spin canceled/timeout")
	case <-rt.done:
		// done is the source of truth; keep a fast boolean for cheap reads/telemetry.
		rt.closed.Store(true)
		return dto.SpinResult{}, errs.NewFatal("slot runtime closed: " + rt.ClosedReason())
	default:
	}

	mp, ok := rt.pools[req.GameId]
	if !ok && req.GameId == 0 && req.GameName != "" {
		mp, ok = rt.PoolByName(req.GameName)
	}
	if !ok {
		return dto.SpinResult{}, errs.NewWarn("game id not found")
	}
	// 只帶其中一個識別時補齊
	gs := mp.Handle().Load().Setting()
	if req.GameId == 0 {
		req.GameId = gs.GameID
	}
	if req.GameName == "" || strings.EqualFold(strings.TrimSpace(req.GameName), gs.GameName) {
		req.GameName = gs.GameName
	}

	// pool 自己會處理 done / close / rebuild / metrics
	return mp.Spin(ctx, req)
}

// Pool 依遊戲 ID 取得機台池
func (rt *SlotRuntime) Pool(id spec.GID) (*MachinePool, bool) {
	mp, ok := rt.pools[id]
	return mp, ok
}

// PoolByName 依遊戲名稱（不分大小寫）取得機台池
func (rt *SlotRuntime) PoolByName(name string) (*MachinePool, bool) {
	id, ok := rt.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return rt.Pool(id)
}

// IDs 回傳固定順序的遊戲 ID
func (rt *SlotRuntime) IDs() []spec.GID {
	return append([]spec.GID(nil), rt.ids...)
}

// Retune 替換某款遊戲的可調參數；機台下一回合即使用新設定。
func (rt *SlotRuntime) Retune(id spec.GID, rs *spec.RuntimeSetting, weights map[string]float64) (*Engine, error) {
	mp, ok := rt.pools[id]
	if !ok {
		return nil, errs.NewWarn("game id not found")
	}
	return mp.Handle().Retune(rs, weights)
}

// Reconfigure 以新的結構設定替換某款遊戲的引擎；失敗時舊引擎維持生效。
func (rt *SlotRuntime) Reconfigure(ctx context.Context, gs *spec.GameSetting) (*Engine, error) {
	if gs == nil {
		return nil, errs.ConfigErrorf("game setting is nil")
	}
	mp, ok := rt.pools[gs.GameID]
	if !ok {
		return nil, errs.NewWarn("game id not found")
	}
	return mp.Handle().Reconfigure(ctx, gs)
}

// Metrics 回傳所有機台池的觀測快照（依 ID 排序）
func (rt *SlotRuntime) Metrics() []MachinePoolMetrics {
	out := make([]MachinePoolMetrics, 0, len(rt.ids))
	for _, id := range rt.ids {
		out = append(out, rt.pools[id].Metrics())
	}
	return out
}

// Close transitions the runtime into a closed state. It is safe to call multiple times.
func (rt *SlotRuntime) Close() {
	rt.closeWithReason("closed")
}

// closeWithReason closes the runtime and records the reason (written once).
func (rt *SlotRuntime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)
		for _, mp := range rt.pools {
			mp.closeWithReason("runtime_" + reason)
		}
	})
}

// Closed reports whether the runtime has been closed.
func (rt *SlotRuntime) Closed() bool {
	return rt.closed.Load()
}

func (rt *SlotRuntime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
