package spec

import (
	"encoding/json"
	"slices"

	"github.com/zintix-labs/bucketlab/errs"
)

// GetGameSettingByYAML
// 會以嚴格模式讀取 YAML 設定、初始化衍生表並執行檢查後回傳。
// 任一檢查失敗皆回傳設定錯誤，不會回傳部分初始化的結果。
func GetGameSettingByYAML(data []byte) (*GameSetting, error) {
	gs := &GameSetting{Settings: DefaultRuntimeSetting()}
	if err := decodeStrictYAML(data, gs); err != nil {
		return nil, errs.WrapConfig(err, "failed to unmarshall yaml")
	}

	// 設定檔初始化
	if err := gs.init(); err != nil {
		return nil, errs.WrapConfig(err, "game setting initialized err")
	}

	return gs, nil
}

// GetGameSettingByJSON
// 會讀取 Json 設定、初始化衍生表並執行檢查後回傳
func GetGameSettingByJSON(data []byte) (*GameSetting, error) {
	gs := &GameSetting{Settings: DefaultRuntimeSetting()}
	if err := json.Unmarshal(data, gs); err != nil {
		return nil, errs.WrapConfig(err, "can not unmarshall json byte")
	}

	// 設定檔初始化
	if err := gs.init(); err != nil {
		return nil, errs.WrapConfig(err, "game setting initialized err")
	}

	return gs, nil
}

// CloneWithSettings 回傳共用結構欄位、替換可調參數的副本。
// weights 中不存在的分類名稱會被忽略，回傳被忽略的名稱。
func (gs *GameSetting) CloneWithSettings(rs *RuntimeSetting, weights map[string]float64) (*GameSetting, []string, error) {
	cp := *gs
	cp.Buckets = append(BucketList(nil), gs.Buckets...)
	var unknown []string
	for name, w := range weights {
		idx := -1
		for i := range cp.Buckets {
			if cp.Buckets[i].Name == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			unknown = append(unknown, name)
			continue
		}
		cp.Buckets[idx].Weight = w
	}
	slices.Sort(unknown)
	if rs != nil {
		cp.Settings = *rs
		cp.Settings.HighRollerBuckets = slices.Clone(rs.HighRollerBuckets)
		cp.Settings.ProgressTiers = slices.Clone(rs.ProgressTiers)
	}
	cp.Settings.fill(cp.Buckets)
	cp.initFlag = false
	if err := cp.Buckets.init(); err != nil {
		return nil, unknown, err
	}
	if err := cp.valid(); err != nil {
		return nil, unknown, err
	}
	cp.initFlag = true
	return &cp, unknown, nil
}
