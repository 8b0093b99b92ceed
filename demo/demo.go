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

// Package demo 內建的示範遊戲（classic_5x3）與組裝捷徑，供 cmd 與外部快速試用。
package demo

import (
	"io/fs"

	"github.com/zintix-labs/bucketlab"
	"github.com/zintix-labs/bucketlab/catalog"
	"github.com/zintix-labs/bucketlab/demo/demo_configs"
	"github.com/zintix-labs/bucketlab/errs"
	"github.com/zintix-labs/bucketlab/sdk/core"
	"github.com/zintix-labs/bucketlab/server/logger"
	"github.com/zintix-labs/bucketlab/server/svrcfg"
	"github.com/zintix-labs/bucketlab/spec"
)

// DefaultGID classic_5x3 的遊戲編號
const DefaultGID spec.GID = 1001

// Configs 內建設定檔
func Configs() fs.FS {
	return demo_configs.FS
}

func New() (*catalog.Catalog, error) {
	return catalog.New(demo_configs.FS)
}

// NewLab 以內建設定建立已凍結的 Lab
func NewLab(opts ...bucketlab.Option) (*bucketlab.Lab, error) {
	lab, err := bucketlab.NewAuto(core.Default(), bucketlab.Configs(demo_configs.FS), opts...)
	if err != nil {
		return nil, errs.Wrap(err, "new bucketlab failed")
	}
	return lab, nil
}

// NewServerConfig 以內建設定組出可直接交給 server.Run 的設定
func NewServerConfig(opts ...bucketlab.Option) (*svrcfg.SvrCfg, error) {
	lab, err := NewLab(opts...)
	if err != nil {
		return nil, err
	}
	return &svrcfg.SvrCfg{
		Log:         logger.NewDefaultAsyncLogger(logger.ModeDev),
		SlotBufSize: 1,
		Lab:         lab,
	}, nil
}
