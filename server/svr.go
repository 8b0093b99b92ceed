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

package server

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/zintix-labs/bucketlab/errs"
	"github.com/zintix-labs/bucketlab/server/api"
	"github.com/zintix-labs/bucketlab/server/app"
	"github.com/zintix-labs/bucketlab/server/netsvr"
	"github.com/zintix-labs/bucketlab/server/svrcfg"
)

// Run 驗證 SvrCfg、建立 chi server、註冊路由後阻塞運行，直到收到終止信號。
//
// 依賴（logger、Lab、快取）都經由 SvrCfg 注入；
// 需要自訂 server 時改用 RunWithSvr，或直接呼叫 api.RegisterRoutes 自行組裝。
func Run(sCfg *svrcfg.SvrCfg) {
	if err := sCfg.Vaild(); err != nil {
		// 防止外層傳入的logger不可用
		fmt.Fprintln(os.Stderr, err)
		return
	}
	svr := netsvr.NewChiServer(sCfg.Addr)
	run(sCfg, svr, "[bucketlab] listening on http://localhost"+svr.Address())
}

// RunWithSvr 與 Run 相同，但由呼叫端注入 NetSvr（自訂 listener / timeout / 既有路由）。
//
// svr 必須非 nil；若是 ChiAdapter 會要求 Ready() 為 true。
func RunWithSvr(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr) {
	if err := sCfg.Vaild(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return
	}
	if svr == nil {
		sCfg.Log.Error(errs.NewFatal("svr is required").Error())
		return
	}
	if s, ok := svr.(*netsvr.ChiAdapter); ok && !s.Ready() {
		sCfg.Log.Error(errs.NewFatal("default server is not ready").Error())
		return
	}
	run(sCfg, svr, "[bucketlab] listening")
}

func run(sCfg *svrcfg.SvrCfg, svr netsvr.NetSvr, banner string) {
	// 註冊 Api（會建好所有遊戲的機台池）
	if err := api.RegisterRoutes(svr, sCfg); err != nil {
		sCfg.Log.Error("register routes failed", slog.Any("err", err))
		return
	}

	// 運行；關閉時一併關閉機台池
	a := app.NewWith(svr)
	a.OnShutdown(sCfg.Runtime.Close)
	a.WithLogger(sCfg.Log)
	sCfg.Log.Info(banner)
	if err := a.Run(); err != nil {
		sCfg.Log.Error("app stopped:", slog.Any("err", err))
	}
}
