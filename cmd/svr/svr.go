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

package main

import (
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/zintix-labs/bucketlab"
	"github.com/zintix-labs/bucketlab/cache"
	"github.com/zintix-labs/bucketlab/demo"
	"github.com/zintix-labs/bucketlab/sdk/core"
	"github.com/zintix-labs/bucketlab/server"
	"github.com/zintix-labs/bucketlab/server/logger"
	"github.com/zintix-labs/bucketlab/server/svrcfg"
)

// lab server 入口：旗標優先，未指定時讀 BUCKETLAB_* 環境變數。
// -config 指向設定檔目錄；未指定時使用內建的示範遊戲。
func main() {
	sCfg, closeFn, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer closeFn()
	server.Run(sCfg)
	if ah, ok := sCfg.Log.Handler().(*logger.AsyncHandler); ok {
		ah.Close()
	}
}

func loadConfig() (*svrcfg.SvrCfg, func() error, error) {
	env, err := svrcfg.ParseEnv()
	if err != nil {
		return nil, nil, err
	}

	flag.StringVar(&env.LogMode, "log-mode", env.LogMode, "log mode: ModeDev|ModeProd|ModeSilence")
	flag.IntVar(&env.Buf, "buf", env.Buf, "number of machine instances per game")
	flag.StringVar(&env.Addr, "addr", env.Addr, "listen address")
	flag.StringVar(&env.Cache, "cache", env.Cache, "bucket table cache: mem|file|sqlite")
	flag.StringVar(&env.CachePath, "cache-path", env.CachePath, "cache directory (file) or database path (sqlite)")
	flag.StringVar(&env.Config, "config", env.Config, "directory of game settings (default: built-in demo)")
	flag.Parse()

	log, _ := logger.NewAsync(4096, logger.ParseMode(env.LogMode))

	store, closeStore, err := cache.Open(env.Cache, env.CachePath)
	if err != nil {
		return nil, nil, err
	}

	var cfgs fs.FS = demo.Configs()
	if env.Config != "" {
		cfgs = os.DirFS(env.Config)
	}
	lab, err := bucketlab.NewAuto(
		core.Default(),
		bucketlab.Configs(cfgs),
		bucketlab.WithStore(store),
		bucketlab.WithLogger(log),
	)
	if err != nil {
		_ = closeStore()
		return nil, nil, err
	}
	return &svrcfg.SvrCfg{
		Log:         log,
		SlotBufSize: env.Buf,
		Addr:        env.Addr,
		Lab:         lab,
	}, closeStore, nil
}
