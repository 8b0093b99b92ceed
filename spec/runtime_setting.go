package spec

import (
	"math"
	"slices"
	"sort"

	"github.com/zintix-labs/bucketlab/errs"
)

// AllBuckets 進度層允許清單中代表「不限制」
const AllBuckets = "ALL"

// RuntimeSetting 選擇器的可調參數，不影響分類表。
type RuntimeSetting struct {
	BaseC               float64        `yaml:"base_c_value"           json:"base_c_value"`
	TargetRTP           float64        `yaml:"target_rtp"             json:"target_rtp"`
	WarmupSpins         int            `yaml:"warmup_spins"           json:"warmup_spins"`
	HighRollerThreshold float64        `yaml:"high_roller_threshold"  json:"high_roller_threshold"`
	HighRollerBuckets   []string       `yaml:"high_roller_buckets"    json:"high_roller_buckets"`
	MaxWinRatio         float64        `yaml:"max_win_ratio"          json:"max_win_ratio"`
	MaxAttempts         int            `yaml:"max_attempts"           json:"max_attempts"`
	ProgressTiers       []ProgressTier `yaml:"progress_tiers"         json:"progress_tiers"`
	AllowTierGaps       bool           `yaml:"allow_tier_gaps"        json:"allow_tier_gaps"`
}

// ProgressTier 依累計轉數開放的分類
type ProgressTier struct {
	MinSpins       int      `yaml:"min_spins"        json:"min_spins"`
	AllowedBuckets []string `yaml:"allowed_buckets"  json:"allowed_buckets"`
}

// DefaultRuntimeSetting 回傳預設值；反序列化前先填入，缺少的欄位即保留預設。
func DefaultRuntimeSetting() RuntimeSetting {
	return RuntimeSetting{
		BaseC:               0.05,
		TargetRTP:           0.97,
		WarmupSpins:         50,
		HighRollerThreshold: 50,
		MaxWinRatio:         1.2,
		MaxAttempts:         3,
	}
}

// fill 補上依分類表推導的預設值
func (rs *RuntimeSetting) fill(bl BucketList) {
	if rs.HighRollerBuckets == nil {
		tiers := bl.WinTiers()
		for i := len(tiers) - 1; i >= 0 && i >= len(tiers)-2; i-- {
			rs.HighRollerBuckets = append(rs.HighRollerBuckets, tiers[i].Name)
		}
	}
	for i := range rs.ProgressTiers {
		if len(rs.ProgressTiers[i].AllowedBuckets) == 0 {
			rs.ProgressTiers[i].AllowedBuckets = []string{AllBuckets}
		}
	}
	sort.SliceStable(rs.ProgressTiers, func(i, j int) bool {
		return rs.ProgressTiers[i].MinSpins < rs.ProgressTiers[j].MinSpins
	})
}

// Check 檢查參數合法性
func (rs RuntimeSetting) Check() error {
	bad := func(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }
	switch {
	case bad(rs.BaseC) || rs.BaseC < 0 || rs.BaseC > 1:
		return errs.ConfigErrorf("base_c_value must be in [0,1], got %v", rs.BaseC)
	case bad(rs.TargetRTP):
		return errs.ConfigErrorf("invalid target_rtp %v", rs.TargetRTP)
	case rs.WarmupSpins < 0:
		return errs.ConfigErrorf("warmup_spins must be >= 0, got %d", rs.WarmupSpins)
	case bad(rs.HighRollerThreshold) || rs.HighRollerThreshold < 0:
		return errs.ConfigErrorf("invalid high_roller_threshold %v", rs.HighRollerThreshold)
	case bad(rs.MaxWinRatio) || rs.MaxWinRatio <= 0:
		return errs.ConfigErrorf("max_win_ratio must be > 0, got %v", rs.MaxWinRatio)
	case rs.MaxAttempts < 1:
		return errs.ConfigErrorf("max_attempts must be >= 1, got %d", rs.MaxAttempts)
	}
	for _, pt := range rs.ProgressTiers {
		if pt.MinSpins < 0 {
			return errs.ConfigErrorf("progress tier min_spins must be >= 0, got %d", pt.MinSpins)
		}
	}
	return nil
}

// Normalized 回傳可直接給選擇器使用的副本：非法值以預設值取代。
// 單次覆寫的參數未經載入檢查，回合處理不能因此失敗。
func (rs RuntimeSetting) Normalized() RuntimeSetting {
	def := DefaultRuntimeSetting()
	if math.IsNaN(rs.BaseC) || rs.BaseC < 0 {
		rs.BaseC = 0
	}
	if rs.BaseC > 1 {
		rs.BaseC = 1
	}
	if math.IsNaN(rs.TargetRTP) || math.IsInf(rs.TargetRTP, 0) {
		rs.TargetRTP = def.TargetRTP
	}
	if rs.WarmupSpins < 0 {
		rs.WarmupSpins = 0
	}
	if math.IsNaN(rs.MaxWinRatio) || rs.MaxWinRatio <= 0 {
		rs.MaxWinRatio = def.MaxWinRatio
	}
	if rs.MaxAttempts < 1 {
		rs.MaxAttempts = def.MaxAttempts
	}
	if !sort.SliceIsSorted(rs.ProgressTiers, func(i, j int) bool {
		return rs.ProgressTiers[i].MinSpins < rs.ProgressTiers[j].MinSpins
	}) {
		tiers := append([]ProgressTier(nil), rs.ProgressTiers...)
		sort.SliceStable(tiers, func(i, j int) bool { return tiers[i].MinSpins < tiers[j].MinSpins })
		rs.ProgressTiers = tiers
	}
	return rs
}

// SettingsPatch 部分覆寫的可調參數；nil 欄位沿用基準設定。
type SettingsPatch struct {
	BaseC               *float64       `json:"base_c_value,omitempty"`
	TargetRTP           *float64       `json:"target_rtp,omitempty"`
	WarmupSpins         *int           `json:"warmup_spins,omitempty"`
	HighRollerThreshold *float64       `json:"high_roller_threshold,omitempty"`
	HighRollerBuckets   []string       `json:"high_roller_buckets,omitempty"`
	MaxWinRatio         *float64       `json:"max_win_ratio,omitempty"`
	MaxAttempts         *int           `json:"max_attempts,omitempty"`
	ProgressTiers       []ProgressTier `json:"progress_tiers,omitempty"`
}

// Apply 以 base 為底套上 patch，並補上與載入時相同的推導預設值。
// 回傳的副本不與 base 共用切片。
func (p *SettingsPatch) Apply(base RuntimeSetting, bl BucketList) RuntimeSetting {
	rs := base
	rs.HighRollerBuckets = slices.Clone(base.HighRollerBuckets)
	rs.ProgressTiers = cloneTiers(base.ProgressTiers)
	if p == nil {
		return rs
	}
	if p.BaseC != nil {
		rs.BaseC = *p.BaseC
	}
	if p.TargetRTP != nil {
		rs.TargetRTP = *p.TargetRTP
	}
	if p.WarmupSpins != nil {
		rs.WarmupSpins = *p.WarmupSpins
	}
	if p.HighRollerThreshold != nil {
		rs.HighRollerThreshold = *p.HighRollerThreshold
	}
	if p.HighRollerBuckets != nil {
		rs.HighRollerBuckets = slices.Clone(p.HighRollerBuckets)
	}
	if p.MaxWinRatio != nil {
		rs.MaxWinRatio = *p.MaxWinRatio
	}
	if p.MaxAttempts != nil {
		rs.MaxAttempts = *p.MaxAttempts
	}
	if p.ProgressTiers != nil {
		rs.ProgressTiers = cloneTiers(p.ProgressTiers)
	}
	rs.fill(bl)
	return rs
}

func cloneTiers(src []ProgressTier) []ProgressTier {
	if src == nil {
		return nil
	}
	out := make([]ProgressTier, len(src))
	for i, t := range src {
		out[i] = ProgressTier{MinSpins: t.MinSpins, AllowedBuckets: slices.Clone(t.AllowedBuckets)}
	}
	return out
}

// RuntimeOverride 單次回合的參數覆寫；nil 欄位沿用引擎設定。
type RuntimeOverride struct {
	Settings *SettingsPatch     `json:"settings,omitempty"`
	Weights  map[string]float64 `json:"weights,omitempty"`
}
