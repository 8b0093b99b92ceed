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

// Package cache 保存與載入分類表。
//
// 分類表以結構雜湊為鍵，序列化為帶版本的 JSON 信封並以 zstd 壓縮。
// 任何無法解析或與當前設定不符的資料都視為毀損，呼叫端應重建並覆寫。
package cache

import (
	"bytes"
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/zintix-labs/bucketlab/bucket"
	"github.com/zintix-labs/bucketlab/errs"
	"github.com/zintix-labs/bucketlab/spec"
)

// 信封格式與版本；格式變更時遞增 Version。
const (
	Format  = "bucketlab.buckets"
	Version = 1
)

// ErrMiss 快取中沒有此雜湊
var ErrMiss = errs.NewLog("cache miss")

type envelope struct {
	Format     string         `json:"format"`
	Version    int            `json:"version"`
	BuildID    string         `json:"build_id"`
	Hash       string         `json:"hash"`
	Options    bucket.Options `json:"options"`
	Sampled    bool           `json:"sampled"`
	Candidates int64          `json:"candidates"`
	Fallbacks  int64          `json:"fallbacks"`
	CreatedAt  time.Time      `json:"created_at"`
	Categories []envCategory  `json:"categories"`
}

type envCategory struct {
	Name    string          `json:"name"`
	Kind    spec.BucketKind `json:"kind"`
	Min     float64         `json:"min"`
	Max     float64         `json:"max"`
	AvgMult float64         `json:"avg_mult"`
	MaxMult float64         `json:"max_mult"`
	Hits    int64           `json:"hits"`
	Members []spec.Stops    `json:"members"`
}

// Encode 將分類表序列化為壓縮信封，回傳內容與此次寫入的 build id。
func Encode(t *bucket.Table) ([]byte, string, error) {
	env := envelope{
		Format:     Format,
		Version:    Version,
		BuildID:    uuid.New().String(),
		Hash:       t.Hash,
		Options:    t.Options,
		Sampled:    t.Sampled,
		Candidates: t.Candidates,
		Fallbacks:  t.Fallbacks,
		CreatedAt:  time.Now().UTC(),
		Categories: make([]envCategory, len(t.Categories)),
	}
	for i, c := range t.Categories {
		env.Categories[i] = envCategory{
			Name:    c.Name,
			Kind:    c.Kind,
			Min:     c.MinWin,
			Max:     c.MaxWin,
			AvgMult: c.AvgMult,
			MaxMult: c.MaxMult,
			Hits:    c.Hits,
			Members: c.Members,
		}
	}

	var buf bytes.Buffer
	zw, err := zstd.NewWriter(&buf)
	if err != nil {
		return nil, "", errs.Wrap(err, "cache.encode : zstd writer init failed")
	}
	if err := json.NewEncoder(zw).Encode(&env); err != nil {
		zw.Close()
		return nil, "", errs.Wrap(err, "cache.encode : json encode failed")
	}
	if err := zw.Close(); err != nil {
		return nil, "", errs.Wrap(err, "cache.encode : zstd flush failed")
	}
	return buf.Bytes(), env.BuildID, nil
}

// Decode 解壓並解析信封；任何失敗都回傳快取毀損錯誤。
func Decode(data []byte) (*bucket.Table, error) {
	zr, err := zstd.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errs.WrapCacheCorrupt(err, "cache.decode : zstd reader init failed")
	}
	defer zr.Close()

	raw, err := io.ReadAll(zr)
	if err != nil {
		return nil, errs.WrapCacheCorrupt(err, "cache.decode : zstd decode failed")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errs.WrapCacheCorrupt(err, "cache.decode : json decode failed")
	}
	if env.Format != Format || env.Version != Version {
		return nil, errs.CacheCorruptf("cache.decode : unsupported envelope %s/v%d", env.Format, env.Version)
	}

	t := &bucket.Table{
		Hash:       env.Hash,
		Options:    env.Options,
		Sampled:    env.Sampled,
		Candidates: env.Candidates,
		Fallbacks:  env.Fallbacks,
		Categories: make([]bucket.Category, len(env.Categories)),
	}
	for i, c := range env.Categories {
		t.Categories[i] = bucket.Category{
			Name:    c.Name,
			Kind:    c.Kind,
			MinWin:  c.Min,
			MaxWin:  c.Max,
			Members: c.Members,
			AvgMult: c.AvgMult,
			MaxMult: c.MaxMult,
			Hits:    c.Hits,
		}
	}
	t.Reindex()
	return t, nil
}
