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
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/bucketlab/errs"
	"github.com/zintix-labs/bucketlab/spec"
)

// Handle 持有目前生效的 Engine，變更時整個替換。
//
// 讀取端（Spin）只做一次原子載入，不會看到半新半舊的設定；
// 寫入端以 mu 串行化，失敗時舊引擎維持生效。
type Handle struct {
	cur  atomic.Pointer[Engine]
	mu   sync.Mutex
	opts []Option
}

// NewHandle 以 Configure 建立第一個引擎；opts 會沿用到之後的 Reconfigure。
func NewHandle(ctx context.Context, gs *spec.GameSetting, opts ...Option) (*Handle, error) {
	e, err := Configure(ctx, gs, opts...)
	if err != nil {
		return nil, err
	}
	h := &Handle{opts: opts}
	h.cur.Store(e)
	return h, nil
}

// Load 取得目前的引擎
func (h *Handle) Load() *Engine {
	return h.cur.Load()
}

// Reconfigure 以新的結構設定重新 Configure，成功後替換。
// 遊戲名稱與編號必須相同。
func (h *Handle) Reconfigure(ctx context.Context, gs *spec.GameSetting) (*Engine, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	old := h.cur.Load()
	if gs != nil && (gs.GameName != old.gs.GameName || gs.GameID != old.gs.GameID) {
		return nil, errs.ConfigErrorf("reconfigure must keep game %s(%d), got %s(%d)",
			old.gs.GameName, old.gs.GameID, gs.GameName, gs.GameID)
	}
	e, err := Configure(ctx, gs, h.opts...)
	if err != nil {
		return nil, err
	}
	h.cur.Store(e)
	return e, nil
}

// Retune 替換可調參數（權重與選擇器設定），不重建分類表。
// rs 為 nil 時沿用目前設定。
func (h *Handle) Retune(rs *spec.RuntimeSetting, weights map[string]float64) (*Engine, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, err := h.cur.Load().WithSettings(rs, weights)
	if err != nil {
		return nil, err
	}
	h.cur.Store(e)
	return e, nil
}
