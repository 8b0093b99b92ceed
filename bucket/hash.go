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

package bucket

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/zintix-labs/bucketlab/errs"
	"github.com/zintix-labs/bucketlab/spec"
)

// HashVersion 雜湊格式版本；分類語意改變時必須遞增，使舊快取失效。
const HashVersion = "bucketlab/v1"

type hashInput struct {
	Version    string                 `json:"version"`
	Structural spec.StructuralSetting `json:"structural"`
}

// StructuralHash 以結構設定的正規 JSON（map 鍵排序）計算 SHA-256。
// 權重與 settings 不參與計算。
func StructuralHash(gs *spec.GameSetting) (string, error) {
	bs, err := json.Marshal(hashInput{Version: HashVersion, Structural: gs.Structural()})
	if err != nil {
		return "", errs.WrapConfig(err, "structural hash: marshal failed")
	}
	sum := sha256.Sum256(bs)
	return hex.EncodeToString(sum[:]), nil
}
