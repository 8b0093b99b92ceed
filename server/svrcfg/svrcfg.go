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

package svrcfg

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/zintix-labs/bucketlab"
	"github.com/zintix-labs/bucketlab/errs"
	"github.com/zintix-labs/bucketlab/server/logger"
)

type SvrCfg struct {
	Log         *slog.Logger
	SlotBufSize int
	Addr        string        // 監聽位址，空字串使用預設 :5808
	SpinTimeout time.Duration // 單回合請求逾時
	Lab         *bucketlab.Lab

	// 可選：已建好的 runtime；nil 時由路由註冊時建立
	Runtime *bucketlab.SlotRuntime
}

func (sc *SvrCfg) Vaild() error {
	if sc.Log != nil {
		if ah, ok := sc.Log.Handler().(*logger.AsyncHandler); ok && !ah.Ready() {
			return errs.NewFatal("nil default log handler: async handler is nil")
		}
	} else {
		// 保持安靜、合法
		sc.Log, _ = logger.NewAsync(1024, logger.ModeDev)
	}

	// 1 <= sc.SlotBuffer <= 10
	// for 資源管理
	sc.SlotBufSize = max(1, sc.SlotBufSize)
	sc.SlotBufSize = min(10, sc.SlotBufSize)
	if sc.SpinTimeout <= 0 {
		sc.SpinTimeout = 5 * time.Second
	}
	if sc.Lab == nil {
		return errs.NewFatal("lab is required")
	}
	return nil
}

// BuildRuntime 取得（必要時建立）機台池
func (sc *SvrCfg) BuildRuntime(ctx context.Context) (*bucketlab.SlotRuntime, error) {
	if sc.Runtime != nil {
		return sc.Runtime, nil
	}
	rt, err := sc.Lab.BuildRuntime(ctx, sc.SlotBufSize)
	if err != nil {
		return nil, err
	}
	sc.Runtime = rt
	return rt, nil
}

// Env 服務啟動參數的環境變數來源，旗標未指定時生效。
type Env struct {
	Addr      string `env:"BUCKETLAB_ADDR"       envDefault:":5808"`
	LogMode   string `env:"BUCKETLAB_LOG_MODE"   envDefault:"ModeDev"`
	Buf       int    `env:"BUCKETLAB_BUF"        envDefault:"3"`
	Cache     string `env:"BUCKETLAB_CACHE"      envDefault:"mem"`
	CachePath string `env:"BUCKETLAB_CACHE_PATH" envDefault:".bucketlab"`
	Config    string `env:"BUCKETLAB_CONFIG"`
}

// ParseEnv 讀取環境變數
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, errs.Wrap(fmt.Errorf("parse env: %w", err), "invalid server env")
	}
	return e, nil
}
