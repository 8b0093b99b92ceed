package spec

import (
	"fmt"
	"math"
	"slices"
	"sort"

	"github.com/zintix-labs/bucketlab/errs"
)

// 盤面固定為 3 列 x 5 軸，扁平索引為 row*Cols+col。
const (
	Rows     = 3
	Cols     = 5
	GridSize = Rows * Cols
)

// 兩個必備的輸分類
const (
	DefaultLoss  = "Loss_Random"
	NearMissLoss = "Loss_NearMiss"
)

// UnboundedMaxWin max_win 達此值的贏分層視為無上限
const UnboundedMaxWin = 1000.0

// GID 遊戲編號
type GID uint

// Grid 一個盤面
type Grid [GridSize]Symbol

// Stops 五軸停輪位置
type Stops [Cols]int

// Coord 盤面座標 (row, col)
type Coord [2]int

// SymbolInfo 符號顯示資訊
type SymbolInfo struct {
	Name string `yaml:"name" json:"name"`
}

// LineSetting 初始化後依 line id 排序的線表
type LineSetting struct {
	ID    int
	Cells []int // 扁平盤面索引
}

// GameSetting 包含建立一個引擎所需的所有設定。
//
// 結構性欄位（reel_sets / pay_table / lines / wild_pays_as / buckets 的範圍）決定分類表，
// weight 與 settings 屬於可調參數，變更不需重建分類表。
type GameSetting struct {
	GameName    string                     `yaml:"game_name"     json:"game_name"`
	GameID      GID                        `yaml:"game_id"       json:"game_id"`
	ReelsLength int                        `yaml:"reels_length"  json:"reels_length,omitempty"`
	ReelSets    [][]string                 `yaml:"reel_sets"     json:"reel_sets"`
	Symbols     map[string]SymbolInfo      `yaml:"symbols"       json:"symbols,omitempty"`
	WildPaysAs  string                     `yaml:"wild_pays_as"  json:"wild_pays_as,omitempty"`
	PayTable    map[string]map[int]float64 `yaml:"pay_table"     json:"pay_table"`
	Lines       map[int][]Coord            `yaml:"lines"         json:"lines"`
	Buckets     BucketList                 `yaml:"buckets"       json:"buckets"`
	Settings    RuntimeSetting             `yaml:"settings"      json:"settings"`

	Reels     [Cols][]Symbol                `yaml:"-" json:"-"`
	Pays      [NumSymbols][Cols + 1]float64 `yaml:"-" json:"-"`
	LineTable []LineSetting                 `yaml:"-" json:"-"`
	WildSub   Symbol                        `yaml:"-" json:"-"`
	initFlag  bool
}

// init 解析符號、建立衍生表並驗證
func (gs *GameSetting) init() error {
	if gs.initFlag {
		return nil
	}
	if err := gs.parseReels(); err != nil {
		return err
	}
	if err := gs.parsePayTable(); err != nil {
		return err
	}
	if err := gs.parseLines(); err != nil {
		return err
	}
	if err := gs.parseWild(); err != nil {
		return err
	}
	if err := gs.Buckets.init(); err != nil {
		return err
	}
	gs.Settings.fill(gs.Buckets)
	if err := gs.valid(); err != nil {
		return err
	}
	gs.initFlag = true
	return nil
}

// Init 提供給以程式碼直接組裝 GameSetting 的呼叫端。
func (gs *GameSetting) Init() error { return gs.init() }

func (gs *GameSetting) parseReels() error {
	if len(gs.ReelSets) != Cols {
		return errs.ConfigErrorf("game_name: %s err:reel_sets needs %d reels, got %d", gs.GameName, Cols, len(gs.ReelSets))
	}
	if gs.ReelsLength == 0 {
		gs.ReelsLength = len(gs.ReelSets[0])
	}
	if gs.ReelsLength <= 0 {
		return errs.ConfigErrorf("game_name: %s err:empty reel", gs.GameName)
	}
	for col, strip := range gs.ReelSets {
		if len(strip) != gs.ReelsLength {
			return errs.ConfigErrorf("game_name: %s err:reel %d length %d != reels_length %d", gs.GameName, col, len(strip), gs.ReelsLength)
		}
		reel := make([]Symbol, len(strip))
		for i, code := range strip {
			sym, ok := ParseSymbol(code)
			if !ok {
				return errs.ConfigErrorf("game_name: %s err:reel %d has unknown symbol %q", gs.GameName, col, code)
			}
			reel[i] = sym
		}
		gs.Reels[col] = reel
	}
	return nil
}

func (gs *GameSetting) parsePayTable() error {
	if len(gs.PayTable) == 0 {
		return errs.ConfigErrorf("game_name: %s err:empty pay_table", gs.GameName)
	}
	for code, row := range gs.PayTable {
		sym, ok := ParseSymbol(code)
		if !ok {
			return errs.ConfigErrorf("game_name: %s err:pay_table has unknown symbol %q", gs.GameName, code)
		}
		for count, mult := range row {
			if count < 1 || count > Cols {
				return errs.ConfigErrorf("game_name: %s err:pay_table %s count %d out of [1,%d]", gs.GameName, code, count, Cols)
			}
			if mult < 0 || math.IsNaN(mult) || math.IsInf(mult, 0) {
				return errs.ConfigErrorf("game_name: %s err:pay_table %s[%d] invalid multiplier %v", gs.GameName, code, count, mult)
			}
			gs.Pays[sym][count] = mult
		}
	}
	return nil
}

func (gs *GameSetting) parseLines() error {
	if len(gs.Lines) == 0 {
		return errs.ConfigErrorf("game_name: %s err:empty lines", gs.GameName)
	}
	ids := make([]int, 0, len(gs.Lines))
	for id := range gs.Lines {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	gs.LineTable = make([]LineSetting, 0, len(ids))
	for _, id := range ids {
		coords := gs.Lines[id]
		if len(coords) == 0 || len(coords) > Cols {
			return errs.ConfigErrorf("game_name: %s err:line %d has %d cells", gs.GameName, id, len(coords))
		}
		cells := make([]int, len(coords))
		for i, c := range coords {
			r, col := c[0], c[1]
			if r < 0 || r >= Rows || col < 0 || col >= Cols {
				return errs.ConfigErrorf("game_name: %s err:line %d coordinate (%d,%d) out of grid", gs.GameName, id, r, col)
			}
			cells[i] = r*Cols + col
		}
		gs.LineTable = append(gs.LineTable, LineSetting{ID: id, Cells: cells})
	}
	return nil
}

// parseWild 決定全 wild 線的計分符號：指定值或最低賠付的一般符號。
func (gs *GameSetting) parseWild() error {
	if gs.WildPaysAs != "" {
		sym, ok := ParseSymbol(gs.WildPaysAs)
		if !ok || !IsSymbolPaying(sym) {
			return errs.ConfigErrorf("game_name: %s err:wild_pays_as %q is not a paying symbol", gs.GameName, gs.WildPaysAs)
		}
		gs.WildSub = sym
		return nil
	}
	found := false
	for s := H1; s <= L9; s++ {
		if !IsSymbolPaying(s) || !gs.paysAny(s) {
			continue
		}
		if !found || gs.lowerPay(s, gs.WildSub) {
			gs.WildSub = s
			found = true
		}
	}
	if !found {
		return errs.ConfigErrorf("game_name: %s err:pay_table has no high/low symbol", gs.GameName)
	}
	return nil
}

func (gs *GameSetting) paysAny(s Symbol) bool {
	for _, v := range gs.Pays[s] {
		if v > 0 {
			return true
		}
	}
	return false
}

// lowerPay 以 (5連, 4連, 3連) 字典序比較賠付
func (gs *GameSetting) lowerPay(a, b Symbol) bool {
	for c := Cols; c >= 1; c-- {
		if gs.Pays[a][c] != gs.Pays[b][c] {
			return gs.Pays[a][c] < gs.Pays[b][c]
		}
	}
	return false
}

// minPositivePay 最小的正賠付，也是可達到的最小正倍數下界
func (gs *GameSetting) minPositivePay() float64 {
	m := math.Inf(1)
	for s := range gs.Pays {
		for c := 3; c <= Cols; c++ {
			if v := gs.Pays[s][c]; v > 0 && v < m {
				m = v
			}
		}
	}
	return m
}

// valid 檢查分類設定與覆蓋範圍
func (gs *GameSetting) valid() error {
	if gs.GameName == "" {
		return errs.ConfigErrorf("empty game_name")
	}
	if _, ok := gs.Buckets.Find(DefaultLoss); !ok {
		return errs.ConfigErrorf("game_name: %s err:missing bucket %s", gs.GameName, DefaultLoss)
	}
	if _, ok := gs.Buckets.Find(NearMissLoss); !ok {
		return errs.ConfigErrorf("game_name: %s err:missing bucket %s", gs.GameName, NearMissLoss)
	}
	tiers := gs.Buckets.WinTiers()
	if len(tiers) == 0 {
		return errs.ConfigErrorf("game_name: %s err:no win tier", gs.GameName)
	}
	if err := gs.Settings.Check(); err != nil {
		return errs.Wrap(err, fmt.Sprintf("game_name: %s err:invalid settings", gs.GameName))
	}
	for _, name := range gs.Settings.HighRollerBuckets {
		if _, ok := gs.Buckets.Find(name); !ok {
			return errs.ConfigErrorf("game_name: %s err:high_roller_buckets names unknown bucket %q", gs.GameName, name)
		}
	}
	for _, pt := range gs.Settings.ProgressTiers {
		for _, name := range pt.AllowedBuckets {
			if name == AllBuckets {
				continue
			}
			if _, ok := gs.Buckets.Find(name); !ok {
				return errs.ConfigErrorf("game_name: %s err:progress tier names unknown bucket %q", gs.GameName, name)
			}
		}
	}
	if gap := gs.CoverageGap(); gap != "" && !gs.Settings.AllowTierGaps {
		return errs.ConfigErrorf("game_name: %s err:win tiers do not cover every positive multiplier: %s", gs.GameName, gap)
	}
	return nil
}

// CoverageGap 回傳贏分層覆蓋缺口的描述，完整覆蓋時回傳空字串。
func (gs *GameSetting) CoverageGap() string {
	tiers := gs.Buckets.WinTiers()
	if len(tiers) == 0 {
		return "no win tier"
	}
	if floor := gs.minPositivePay(); !math.IsInf(floor, 1) && tiers[0].MinWin > floor {
		return fmt.Sprintf("(%v,%v) below %s", floor, tiers[0].MinWin, tiers[0].Name)
	}
	for i := 0; i+1 < len(tiers); i++ {
		if tiers[i].MaxWin < tiers[i+1].MinWin {
			return fmt.Sprintf("[%v,%v) between %s and %s", tiers[i].MaxWin, tiers[i+1].MinWin, tiers[i].Name, tiers[i+1].Name)
		}
	}
	last := tiers[len(tiers)-1]
	if last.MaxWin < UnboundedMaxWin {
		return fmt.Sprintf("[%v,+inf) above %s", last.MaxWin, last.Name)
	}
	return ""
}

// Structural 只取出決定分類表的欄位，符號一律正規化為標準代碼。
func (gs *GameSetting) Structural() StructuralSetting {
	st := StructuralSetting{
		Rows:       Rows,
		Cols:       Cols,
		Reels:      make([][]string, Cols),
		PayTable:   map[string]map[int]float64{},
		Lines:      map[int][]Coord{},
		WildPaysAs: gs.WildSub.String(),
	}
	for col, reel := range gs.Reels {
		codes := make([]string, len(reel))
		for i, s := range reel {
			codes[i] = s.String()
		}
		st.Reels[col] = codes
	}
	for s := range gs.Pays {
		for c := 1; c <= Cols; c++ {
			if v := gs.Pays[s][c]; v != 0 {
				code := Symbol(s).String()
				if st.PayTable[code] == nil {
					st.PayTable[code] = map[int]float64{}
				}
				st.PayTable[code][c] = v
			}
		}
	}
	for id, coords := range gs.Lines {
		st.Lines[id] = slices.Clone(coords)
	}
	for _, b := range gs.Buckets {
		st.Buckets = append(st.Buckets, BucketRange{Name: b.Name, Kind: b.Kind, MinWin: b.MinWin, MaxWin: b.MaxWin})
	}
	return st
}

// StructuralSetting 是分類表的決定因素；其正規 JSON 即快取鍵的輸入。
type StructuralSetting struct {
	Rows       int                        `json:"rows"`
	Cols       int                        `json:"cols"`
	Reels      [][]string                 `json:"reels"`
	PayTable   map[string]map[int]float64 `json:"pay_table"`
	Lines      map[int][]Coord            `json:"lines"`
	WildPaysAs string                     `json:"wild_pays_as"`
	Buckets    []BucketRange              `json:"buckets"`
}

// BucketRange 分類的結構部分（不含權重）
type BucketRange struct {
	Name   string     `json:"name"`
	Kind   BucketKind `json:"kind"`
	MinWin float64    `json:"min_win"`
	MaxWin float64    `json:"max_win"`
}

// SymbolName 回傳符號的顯示名稱，未設定時為標準代碼。
func (gs *GameSetting) SymbolName(s Symbol) string {
	code := s.String()
	if info, ok := gs.Symbols[code]; ok && info.Name != "" {
		return info.Name
	}
	for alias, sym := range symbolAlias {
		if sym == s {
			if info, ok := gs.Symbols[alias]; ok && info.Name != "" {
				return info.Name
			}
		}
	}
	return code
}
