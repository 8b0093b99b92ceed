package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/zintix-labs/bucketlab"
	"github.com/zintix-labs/bucketlab/cache"
	"github.com/zintix-labs/bucketlab/demo"
	"github.com/zintix-labs/bucketlab/errs"
	"github.com/zintix-labs/bucketlab/sdk/core"
	"github.com/zintix-labs/bucketlab/server/logger"
	"github.com/zintix-labs/bucketlab/spec"
	"github.com/zintix-labs/bucketlab/stats"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var cfg *config = new(config)

type config struct {
	config    string
	id        spec.GID
	worker    int
	player    int
	spins     int
	bet       float64
	balance   float64
	seed      int64
	out       string
	cache     string
	cachePath string
	pprofmode string
}

type gidFlag struct{ p *spec.GID }

func (f gidFlag) String() string {
	if f.p == nil {
		return "0"
	}
	return fmt.Sprint(uint(*f.p))
}
func (f gidFlag) Set(s string) error {
	u, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return err
	}
	*f.p = spec.GID(uint(u))
	return nil
}

func bindVar() {
	cfg.id = demo.DefaultGID
	flag.StringVar(&cfg.config, "config", "", "simulate a single YAML game setting instead of the demo catalog")
	flag.Var(gidFlag{&cfg.id}, "game", "target game id in the demo catalog")
	flag.IntVar(&cfg.worker, "worker", 1, "number of workers")
	flag.IntVar(&cfg.player, "players", 1, "number of players (1 = machine simulation)")
	flag.IntVar(&cfg.spins, "spins", 1000000, "spins per worker, or per player")
	flag.Float64Var(&cfg.bet, "bet", 1, "bet per spin")
	flag.Float64Var(&cfg.balance, "balance", 200, "initial balance per player")
	flag.Int64Var(&cfg.seed, "seed", 0, "int64 seed for random number generator (0 = random)")
	flag.StringVar(&cfg.out, "out", "table", "report format: table|json|yaml")
	flag.StringVar(&cfg.cache, "cache", "file", "bucket table cache: mem|file|sqlite")
	flag.StringVar(&cfg.cachePath, "cache-path", ".bucketlab", "cache directory (file) or database path (sqlite)")
	flag.StringVar(&cfg.pprofmode, "p", "", "pprof: '', cpu, heap, allocs")

	flag.Parse()

	if cfg.seed == 0 {
		cfg.seed = core.RandomSeed()
	}
}

// 這裡解析並分支要執行的模擬器
func executeSimulator() error {
	if err := cfg.valid(); err != nil {
		return err
	}
	store, closeStore, err := cache.Open(cfg.cache, cfg.cachePath)
	if err != nil {
		return err
	}
	defer closeStore()

	s, err := cfg.simulator(store)
	if err != nil {
		return err
	}

	// 至此確保可執行
	green := "\033[1;32m"
	reset := "\033[0m"
	p := message.NewPrinter(language.English)
	table := cfg.out == "table"
	e := s.Handle().Load()
	if table {
		p.Printf("%s[GAME:%s] [HASH:%.12s] [TABLE:%s] [SEED:%d]%s\n", green, s.GameName, e.Hash(), e.Source(), cfg.seed, reset)
	}

	if cfg.player == 1 { // 純機台模擬
		if table {
			p.Printf("%s[WORKERS:%d] [SPINS:%d] [BET:%v]%s\n", green, cfg.worker, cfg.worker*cfg.spins, cfg.bet, reset)
		}
		var (
			st   *stats.StatReport
			used time.Duration
		)
		if cfg.worker == 1 {
			st, used, err = s.Sim(cfg.spins, cfg.bet, table)
		} else {
			st, used, err = s.SimMP(cfg.spins, cfg.worker, cfg.bet, table) // 併發
		}
		if err != nil {
			return err
		}
		return report(st, nil, used)
	}

	// 模擬多玩家體驗
	if table {
		p.Printf("%s[WORKERS:%d] [PLAYERS:%d BALANCE:%v BET:%v SPINS:%d]%s\n", green, cfg.worker, cfg.player, cfg.balance, cfg.bet, cfg.spins, reset)
	}
	st, est, used, err := s.SimPlayers(cfg.worker, cfg.player, cfg.spins, cfg.bet, cfg.balance, table)
	if err != nil {
		return err
	}
	return report(st, est, used)
}

func (cfg *config) simulator(store cache.Store) (*bucketlab.Simulator, error) {
	ctx := context.Background()
	opts := []bucketlab.Option{
		bucketlab.WithStore(store),
		bucketlab.WithLogger(logger.NewDefaultLogger(logger.ModeDev)),
	}
	if cfg.config != "" {
		raw, err := os.ReadFile(cfg.config)
		if err != nil {
			return nil, errs.Wrap(err, "read config failed")
		}
		gs, err := spec.GetGameSettingByYAML(raw)
		if err != nil {
			return nil, err
		}
		h, err := bucketlab.NewHandle(ctx, gs, opts...)
		if err != nil {
			return nil, err
		}
		return bucketlab.NewSimulatorFromHandle(h, core.Default(), cfg.seed), nil
	}
	lab, err := bucketlab.NewAuto(core.Default(), bucketlab.Configs(demo.Configs()), opts...)
	if err != nil {
		return nil, err
	}
	return lab.NewSimulatorWithSeed(ctx, cfg.id, cfg.seed)
}

func report(st *stats.StatReport, est *stats.EstimatorPlayers, used time.Duration) error {
	switch cfg.out {
	case "table":
		st.StdOut(used)
		if est != nil {
			est.Out()
		}
		return nil
	case "json":
		if err := (&stats.JsonStatReportRender{}).Write(os.Stdout, st); err != nil {
			return err
		}
		if est != nil {
			return (&stats.JsonEstimatorRender{}).Write(os.Stdout, est)
		}
		return nil
	default:
		if err := (&stats.YAMLStatReportRender{}).Write(os.Stdout, st); err != nil {
			return err
		}
		if est != nil {
			fmt.Println("---")
			return (&stats.YAMLEstimatorRender{}).Write(os.Stdout, est)
		}
		return nil
	}
}

func (cfg *config) valid() error {
	p := message.NewPrinter(language.English)

	// 工作協程檢查(併發數)
	if cfg.worker < 1 {
		return errs.NewWarn("value err : workers must > 0")
	}
	// 玩家數量 > 0
	if cfg.player < 1 {
		return errs.NewWarn("value err : players must > 0")
	}
	// 玩家數量太多 resize
	if cfg.player > 100000 {
		p.Printf("too much players: %d resized to 100k players\n", cfg.player)
		cfg.player = 100000
	}
	if !(cfg.bet > 0) {
		return errs.NewWarn("value err : bet must > 0")
	}
	// 模擬玩家行為的時候，玩家帶入資金不能少於一次押注
	if cfg.player > 1 && !(cfg.balance >= cfg.bet) {
		return errs.NewWarn("value err : balance must cover one bet")
	}
	if cfg.spins < 1 {
		return errs.NewWarn("value err : spins must > 0")
	}
	// 每位玩家最多 15000 轉（約 10 小時），更長的歷程直接模擬機台即可
	if cfg.player > 1 && cfg.spins > 15000 {
		p.Printf("too much spins for each players : %d resized to 15k spins for each player\n", cfg.spins)
		cfg.spins = 15000
	}
	switch cfg.out {
	case "":
		cfg.out = "table"
	case "yml":
		cfg.out = "yaml"
	}
	if _, ok := stats.NewStatReportRender(cfg.out); !ok {
		return errs.NewWarn("value err : out must be table|json|yaml")
	}
	return nil
}
