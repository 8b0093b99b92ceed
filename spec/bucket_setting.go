package spec

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/zintix-labs/bucketlab/errs"
	"gopkg.in/yaml.v3"
)

// BucketKind 分類屬性
type BucketKind string

const (
	KindLoss BucketKind = "loss"
	KindWin  BucketKind = "win"
)

// BucketSetting 單一分類設定。
//
// 反序列化時會正規化別名：min → min_win、max → max_win，缺值為 0；
// kind 未指定時，名稱以 "Loss_" 開頭者為 loss，其餘為 win。
type BucketSetting struct {
	Name   string     `yaml:"name"     json:"name"`
	Kind   BucketKind `yaml:"kind"     json:"kind"`
	Weight float64    `yaml:"weight"   json:"weight"`
	MinWin float64    `yaml:"min_win"  json:"min_win"`
	MaxWin float64    `yaml:"max_win"  json:"max_win"`
}

// IsLoss 是否為輸分類
func (b BucketSetting) IsLoss() bool { return b.Kind == KindLoss }

// Contains 倍數是否落在 [min_win, max_win)；無上限層只比較下界。
func (b BucketSetting) Contains(m float64) bool {
	if b.MinWin <= m && m < b.MaxWin {
		return true
	}
	return b.MaxWin >= UnboundedMaxWin && m >= b.MinWin
}

// bucketRaw 接受新舊兩種欄位名稱
type bucketRaw struct {
	Name   string     `yaml:"name"     json:"name"`
	Kind   BucketKind `yaml:"kind"     json:"kind"`
	Weight float64    `yaml:"weight"   json:"weight"`
	MinWin *float64   `yaml:"min_win"  json:"min_win"`
	MaxWin *float64   `yaml:"max_win"  json:"max_win"`
	Min    *float64   `yaml:"min"      json:"min"`
	Max    *float64   `yaml:"max"      json:"max"`
}

func (r bucketRaw) normalize() BucketSetting {
	pick := func(primary, alias *float64) float64 {
		if primary != nil {
			return *primary
		}
		if alias != nil {
			return *alias
		}
		return 0
	}
	return BucketSetting{
		Name:   r.Name,
		Kind:   r.Kind,
		Weight: r.Weight,
		MinWin: pick(r.MinWin, r.Min),
		MaxWin: pick(r.MaxWin, r.Max),
	}
}

// UnmarshalYAML 實作 yaml.Unmarshaler
func (b *BucketSetting) UnmarshalYAML(value *yaml.Node) error {
	var raw bucketRaw
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*b = raw.normalize()
	return nil
}

// UnmarshalJSON 實作 json.Unmarshaler
func (b *BucketSetting) UnmarshalJSON(data []byte) error {
	var raw bucketRaw
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*b = raw.normalize()
	return nil
}

// BucketList 依設定順序排列的分類。
// 可寫成序列，也可寫成 name → 設定 的映射（保留書寫順序）。
type BucketList []BucketSetting

// UnmarshalYAML 實作 yaml.Unmarshaler
func (bl *BucketList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var list []BucketSetting
		if err := value.Decode(&list); err != nil {
			return err
		}
		*bl = list
	case yaml.MappingNode:
		list := make([]BucketSetting, 0, len(value.Content)/2)
		for i := 0; i+1 < len(value.Content); i += 2 {
			var b BucketSetting
			if err := value.Content[i+1].Decode(&b); err != nil {
				return err
			}
			if b.Name == "" {
				b.Name = value.Content[i].Value
			}
			list = append(list, b)
		}
		*bl = list
	default:
		if value.Tag == "!!null" {
			*bl = nil
			return nil
		}
		return errs.ConfigErrorf("buckets must be a sequence or a mapping (line %d)", value.Line)
	}
	return nil
}

// UnmarshalJSON 實作 json.Unmarshaler，物件形式以 token 串流保留鍵的順序。
func (bl *BucketList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*bl = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var list []BucketSetting
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*bl = list
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}
	list := BucketList{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var b BucketSetting
		if err := dec.Decode(&b); err != nil {
			return err
		}
		if b.Name == "" {
			b.Name = name
		}
		list = append(list, b)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*bl = list
	return nil
}

// init 推斷 kind 並檢查名稱與範圍
func (bl BucketList) init() error {
	if len(bl) == 0 {
		return errs.ConfigErrorf("empty buckets")
	}
	seen := map[string]struct{}{}
	for i := range bl {
		b := &bl[i]
		if b.Name == "" {
			return errs.ConfigErrorf("bucket #%d has no name", i)
		}
		if _, dup := seen[b.Name]; dup {
			return errs.ConfigErrorf("duplicated bucket %q", b.Name)
		}
		seen[b.Name] = struct{}{}
		if b.Kind == "" {
			b.Kind = KindWin
			if strings.HasPrefix(b.Name, "Loss_") {
				b.Kind = KindLoss
			}
		}
		if b.Kind != KindLoss && b.Kind != KindWin {
			return errs.ConfigErrorf("bucket %q has unknown kind %q", b.Name, b.Kind)
		}
		if b.Weight < 0 || math.IsNaN(b.Weight) || math.IsInf(b.Weight, 0) {
			return errs.ConfigErrorf("bucket %q has invalid weight %v", b.Name, b.Weight)
		}
		if b.Kind == KindWin && !(b.MinWin < b.MaxWin) {
			return errs.ConfigErrorf("bucket %q needs min_win < max_win, got [%v,%v)", b.Name, b.MinWin, b.MaxWin)
		}
	}
	for _, name := range []string{DefaultLoss, NearMissLoss} {
		if b, ok := bl.Find(name); ok && b.Kind != KindLoss {
			return errs.ConfigErrorf("bucket %q must be a loss bucket", name)
		}
	}
	return nil
}

// Find 依名稱查找分類
func (bl BucketList) Find(name string) (BucketSetting, bool) {
	for _, b := range bl {
		if b.Name == name {
			return b, true
		}
	}
	return BucketSetting{}, false
}

// WinTiers 回傳依 min_win 遞增排序的贏分層（穩定排序，同下界保留設定順序）。
func (bl BucketList) WinTiers() []BucketSetting {
	tiers := make([]BucketSetting, 0, len(bl))
	for _, b := range bl {
		if b.Kind == KindWin {
			tiers = append(tiers, b)
		}
	}
	sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].MinWin < tiers[j].MinWin })
	return tiers
}

// Weights 回傳 name → weight
func (bl BucketList) Weights() map[string]float64 {
	w := make(map[string]float64, len(bl))
	for _, b := range bl {
		w[b.Name] = b.Weight
	}
	return w
}
