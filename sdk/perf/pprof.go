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

package perf

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"

	"github.com/zintix-labs/bucketlab/errs"
)

// DefaultDir pprof 檔案寫入路徑
const DefaultDir = "build/profiling"

// RunPProf 依 mode 包裝 exe 的 profiling：""（不開）、cpu、heap、allocs。
// 可作性能分析，也可以拿 cpu.pprof 做 PGO。
//
//	go run ./cmd/run -p cpu
func RunPProf(exe func() error, mode string, dir string) error {
	if dir == "" {
		dir = DefaultDir
	}
	switch mode {
	case "cpu":
		return pprofCPU(exe, dir)
	case "heap":
		return afterRun(exe, dir, "heap.pprof", func(f *os.File) error {
			// 盡量讓快照貼近最新狀態
			runtime.GC()
			return pprof.WriteHeapProfile(f)
		})
	case "allocs":
		// 累積配置，需搭配 -alloc_space / -alloc_objects 查看
		return afterRun(exe, dir, "allocs.pprof", func(f *os.File) error {
			prof := pprof.Lookup("allocs")
			if prof == nil {
				return nil
			}
			return prof.WriteTo(f, 0)
		})
	default:
		return exe()
	}
}

func pprofCPU(exe func() error, dir string) error {
	f, err := create(dir, "cpu.pprof")
	if err != nil {
		return err
	}
	defer f.Close()
	if err := pprof.StartCPUProfile(f); err != nil {
		return errs.Wrap(err, "failed to start pprof")
	}
	defer pprof.StopCPUProfile()
	return exe()
}

// afterRun 先執行目標邏輯，再寫出一次快照
func afterRun(exe func() error, dir, name string, write func(*os.File) error) error {
	if err := exe(); err != nil {
		return err
	}
	f, err := create(dir, name)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := write(f); err != nil {
		return errs.Wrap(err, "failed to write "+name)
	}
	return nil
}

func create(dir, name string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errs.Wrap(err, "failed to create profiling dir")
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, errs.Wrap(err, "failed to create "+name)
	}
	return f, nil
}
