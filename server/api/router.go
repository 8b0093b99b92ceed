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

package api

import (
	"context"
	"log/slog"

	v1 "github.com/zintix-labs/bucketlab/server/api/v1"
	"github.com/zintix-labs/bucketlab/server/netsvr"
	"github.com/zintix-labs/bucketlab/server/netsvr/middleware"
	"github.com/zintix-labs/bucketlab/server/svrcfg"
)

// RegisterRoutes 註冊 middleware 與全部路由；會先建好所有遊戲的機台池（fail-fast）。
func RegisterRoutes(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg) error {
	rt, err := sCfg.BuildRuntime(context.Background())
	if err != nil {
		return err
	}
	admin := v1.NewAdminHandler(sCfg.Lab, rt, sCfg.Log)

	registerMiddleware(svr, sCfg.Log) // 1. 註冊 middleware
	svr.Get("/", admin.Games)         // 2. 主頁：遊戲目錄
	registerV1API(svr, sCfg, admin)   // 3. 註冊 v1 api
	return nil
}

// 註冊 middleware
func registerMiddleware(svr netsvr.NetSvr, log *slog.Logger) {
	svr.Use(middleware.RequestID)
	svr.Use(middleware.AccessLog(log))
	svr.Use(middleware.Recover(log))
	svr.Use(middleware.CORS())
	svr.Use(middleware.Compression)
}

// 註冊 v1 api
func registerV1API(svr netsvr.NetSvr, sCfg *svrcfg.SvrCfg, admin *v1.AdminHandler) {
	r := v1.NewSpinHandler(sCfg.Runtime, sCfg.SpinTimeout)
	s := v1.NewSimHandler(sCfg.Lab, sCfg.Log)
	svr.Group("/v1", func(vOne netsvr.NetRouter) {
		vOne.Get("/spin", r.Spin)
		vOne.Post("/spin", r.Spin)

		vOne.Get("/sim", s.Sim)
		vOne.Post("/sim", s.Sim)
		vOne.Post("/simbycfg", s.SimByCfg)
		vOne.Post("/replay", s.Replay)
		vOne.Post("/stat", v1.Stat)

		vOne.Get("/buckets", admin.Buckets)
		vOne.Put("/settings", admin.Settings)
		vOne.Post("/configure", admin.Configure)
		vOne.Get("/metrics", admin.Metrics)
	})
}
