// Package bucketlab 提供分類式結果引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// 引擎把每一種可能的停輪結果預先分類（輸、近失、各贏分層），
// 每回合先依玩家狀態選出分類，再從分類中取出一組停輪位置產生盤面並計分。
//
// Lab 負責把下列地基組裝在一起，並提供建立 Machine / Simulator / SlotRuntime 的入口：
//  1. Catalog：遊戲目錄，定義有哪些遊戲、各自對應的設定檔名稱（ConfigName）。
//  2. PRNGFactory：亂數核心工廠，保證可重現與可審計。
//  3. Configure 選項：分類表快取（cache.Store）、日誌、建表參數。
//
// 同一款遊戲在同一個 Lab 內只 Configure 一次，所有機台共用同一個 Handle。
package bucketlab

import (
	"context"
	"io/fs"
	"strings"
	"sync"

	"github.com/zintix-labs/bucketlab/catalog"
	"github.com/zintix-labs/bucketlab/errs"
	"github.com/zintix-labs/bucketlab/sdk/core"
	"github.com/zintix-labs/bucketlab/spec"
)

// Configs 用來把一或多個設定檔來源（fs.FS）打包成 New() 需要的參數。
//
// 可以用 go:embed 把 configs 直接編進 binary，也可以用 os.DirFS 在本機開發時讀取目錄。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Lab 是「組裝器（assembler）」與「運行入口（runtime entry）」。
//
// 使用流程通常分成兩階段：
//   - 註冊/組裝階段：建立 catalog、註冊遊戲、Freeze。
//   - 執行階段：依遊戲 ID 取得 Handle，建立 Machine / Simulator / SlotRuntime。
//
//	lab, _ := bucketlab.NewAuto(core.Default(), bucketlab.Configs(cfgFS), bucketlab.WithStore(store))
//	m, _ := lab.NewMachine(ctx, 1001)
//	// m.Spin(...)
type Lab struct {
	cat  *catalog.Catalog
	cf   core.PRNGFactory
	opts []Option

	mu      sync.Mutex
	handles map[spec.GID]*Handle
	sum     []catalog.Summary
}

// New 建立一個 Lab instance。
//
// 參數要求：
//   - cf 不能為 nil：沒有 RNG 工廠就無法建立可重現/可審計的核心。
//   - cfgs 至少一個：沒有設定檔來源，Catalog 無法解析 GameSetting。
func New(cf core.PRNGFactory, cfgs []fs.FS, opts ...Option) (*Lab, error) {
	if cf == nil {
		return nil, errs.NewFatal("core factory required")
	}
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	return &Lab{
		cat:     cata,
		cf:      cf,
		opts:    opts,
		handles: map[spec.GID]*Handle{},
	}, nil
}

// NewAuto 建立一個直接進入執行階段的 Lab instance（RegisterAll + Freeze）。
func NewAuto(cf core.PRNGFactory, cfgs []fs.FS, opts ...Option) (*Lab, error) {
	lab, err := New(cf, cfgs, opts...)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

func (p *Lab) Register(ents ...catalog.Entry) error {
	return p.cat.Register(ents...)
}

// RegisterAll 掃描所有設定檔來源並一次性註冊。
// 只有當全部檔案都成功解析並通過檢查時才寫入 catalog。
func (p *Lab) RegisterAll() error {
	entries, err := p.cat.Scan()
	if err != nil {
		return err
	}
	return p.cat.Register(entries...)
}

func (p *Lab) Freeze() {
	p.cat.Freeze()
}

func (p *Lab) EntryById(id spec.GID) (catalog.Entry, bool) {
	return p.cat.GetByID(id)
}

func (p *Lab) EntryByName(name string) (catalog.Entry, bool) {
	return p.cat.GetByName(name)
}

func (p *Lab) IDs() []spec.GID {
	return p.cat.IDs()
}

func (p *Lab) All() []catalog.Entry {
	return p.cat.All()
}

func (p *Lab) Summary() ([]catalog.Summary, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sum != nil {
		return p.sum, nil
	}
	ids := p.cat.IDs()
	cs := make([]catalog.Summary, 0, len(ids))
	for _, id := range ids {
		gs, err := p.cat.GameSettingById(id)
		if err != nil {
			return nil, err
		}
		cs = append(cs, catalog.NewSummary(gs))
	}
	p.sum = cs
	return p.sum, nil
}

// Handle 取得遊戲的引擎 Handle；第一次呼叫時 Configure（可能需要建表）。
func (p *Lab) Handle(ctx context.Context, id spec.GID) (*Handle, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if h, ok := p.handles[id]; ok {
		return h, nil
	}
	gs, err := p.cat.GameSettingById(id)
	if err != nil {
		return nil, err
	}
	h, err := NewHandle(ctx, gs, p.opts...)
	if err != nil {
		return nil, err
	}
	p.handles[id] = h
	return h, nil
}

// NewMachine 依據 Catalog 內的遊戲 ID 建立一台 Machine（seed 由 crypto/rand 產生）。
func (p *Lab) NewMachine(ctx context.Context, id spec.GID) (*Machine, error) {
	h, err := p.Handle(ctx, id)
	if err != nil {
		return nil, err
	}
	return newMachine(h, p.cf), nil
}

// NewMachineWithSeed 與 NewMachine 相同，但由呼叫端指定初始 seed。
//
// 同一份設定 + 同一個 seed + 同樣的請求序列，會得到一致的結果。
func (p *Lab) NewMachineWithSeed(ctx context.Context, id spec.GID, seed int64) (*Machine, error) {
	h, err := p.Handle(ctx, id)
	if err != nil {
		return nil, err
	}
	return newMachineWithSeed(h, p.cf, seed), nil
}

func (p *Lab) NewSimulator(ctx context.Context, id spec.GID) (*Simulator, error) {
	return p.NewSimulatorWithSeed(ctx, id, core.RandomSeed())
}

func (p *Lab) NewSimulatorWithSeed(ctx context.Context, id spec.GID, seed int64) (*Simulator, error) {
	h, err := p.Handle(ctx, id)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(h, p.cf, seed), nil
}

// NewSimulatorByJSON 以外部設定建立模擬器；設定必須對應目錄中已註冊的遊戲。
// 引擎不會取代目錄中的 Handle。
func (p *Lab) NewSimulatorByJSON(ctx context.Context, raw []byte, seed int64) (*Simulator, error) {
	cfg, err := spec.GetGameSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	return p.newSimulatorByCfg(ctx, cfg, seed)
}

func (p *Lab) NewSimulatorByYAML(ctx context.Context, raw []byte, seed int64) (*Simulator, error) {
	cfg, err := spec.GetGameSettingByYAML(raw)
	if err != nil {
		return nil, err
	}
	return p.newSimulatorByCfg(ctx, cfg, seed)
}

func (p *Lab) newSimulatorByCfg(ctx context.Context, cfg *spec.GameSetting, seed int64) (*Simulator, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if err := p.validCfg(cfg); err != nil {
		return nil, err
	}
	h, err := NewHandle(ctx, cfg, p.opts...)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(h, p.cf, seed), nil
}

func (p *Lab) validCfg(cfg *spec.GameSetting) error {
	ent, ok := p.cat.GetByID(cfg.GameID)
	if !ok {
		return errs.NewWarn("gid not exist")
	}
	ent2, ok := p.cat.GetByName(cfg.GameName)
	if !ok {
		return errs.NewWarn("game name not exist")
	}
	if ent.GID != ent2.GID {
		return errs.NewWarn("game id is not matched game name")
	}
	return nil
}

// BuildRuntime 為每款遊戲建立機台池，進入對外服務狀態。
func (p *Lab) BuildRuntime(ctx context.Context, poolSize int) (*SlotRuntime, error) {
	// 1. 進入 runtime 前，catalog 必須 Freeze
	p.Freeze()

	ids := p.cat.IDs()
	if len(ids) == 0 {
		return nil, errs.NewFatal("no games registered")
	}

	rt := &SlotRuntime{
		lab:      p,
		pools:    make(map[spec.GID]*MachinePool, len(ids)),
		byName:   make(map[string]spec.GID, len(ids)),
		ids:      ids,
		done:     make(chan struct{}),
		poolSize: max(1, poolSize),
	}
	rt.reason.Store("")

	// 2. 先全建好（fail-fast）
	for _, id := range ids {
		h, err := p.Handle(ctx, id)
		if err != nil {
			return nil, err
		}
		ent, _ := p.cat.GetByID(id)
		rt.pools[id] = newMachinePool(rt.poolSize, h, p.cf, core.RandomSeed())
		rt.byName[strings.ToLower(ent.Name)] = id
	}
	return rt, nil
}
