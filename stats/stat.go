package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/shopspring/decimal"
	"github.com/zintix-labs/bucketlab/spec"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

const (
	// BigWinMult 大獎門檻（倍）
	BigWinMult = 50.0
	// MegaWinMult 超級大獎門檻（倍）
	MegaWinMult = 100.0
)

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo" yaml:"Lo"`
	Hi float64 `json:"Hi" yaml:"Hi"`
}

// StatReport 遊戲統計報告
type StatReport struct {
	Summary  *SummaryReport  `json:"Summary"            yaml:"Summary"`
	Mult     *MultReport     `json:"Mult"               yaml:"Mult"`
	Dist     *DistReport     `json:"Dist"               yaml:"Dist"`
	Category *CategoryReport `json:"Category"           yaml:"Category"`
	Player   *PlayerReport   `json:"Player,omitzero"    yaml:"Player,omitempty"`
	isDone   bool
}

type SummaryReport struct {
	RunID       string          `json:"RunID,omitempty"  yaml:"RunID,omitempty"`
	GameName    string          `json:"GameName"         yaml:"GameName"`
	GameId      spec.GID        `json:"GameId"           yaml:"GameId"`
	Bet         decimal.Decimal `json:"Bet"              yaml:"Bet"`
	TotalBet    decimal.Decimal `json:"TotalBet"         yaml:"TotalBet"`
	TotalWin    decimal.Decimal `json:"TotalWin"         yaml:"TotalWin"`
	RTP         float64         `json:"RTP"              yaml:"RTP"`
	RtpCI       CI              `json:"RtpCI"            yaml:"RtpCI"`
	Std         float64         `json:"Std"              yaml:"Std"`
	Cv          float64         `json:"Cv"               yaml:"Cv"`
	NoWinRounds int             `json:"NoWinRounds"      yaml:"NoWinRounds"`
	HitRate     float64         `json:"HitRate"          yaml:"HitRate"`
	NearMisses  int             `json:"NearMisses"       yaml:"NearMisses"`
	BigWins     int             `json:"BigWins"          yaml:"BigWins"`
	MegaWins    int             `json:"MegaWins"         yaml:"MegaWins"`
	AvgWinMult  float64         `json:"AvgWinMult"       yaml:"AvgWinMult"`
	Rounds      int             `json:"Rounds"           yaml:"Rounds"`
}

// MultReport 贏倍統計
type MultReport struct {
	TotalWinMult      float64 `json:"TotalWinMult"       yaml:"TotalWinMult"`
	TotalWinMultSqSum float64 `json:"TotalWinMultSqSum"  yaml:"TotalWinMultSqSum"` // 平方和
	MaxWinMult        float64 `json:"MaxWinMult"         yaml:"MaxWinMult"`
}

// DistReport 分數區間落點統計
type DistReport struct {
	WinBucket       []string  `json:"WinBucket"        yaml:"WinBucket"`
	TotalWinCollect []int     `json:"TotalWinCollect"  yaml:"TotalWinCollect"`
	TotalWinDist    []float64 `json:"TotalWinDist"     yaml:"TotalWinDist"`
}

// CategoryReport 各分類被使用的次數
//
// EmptyFallbacks：選到空分類而改用 Loss_Random 的次數；Exhausted：選擇器走到退路的次數。
type CategoryReport struct {
	Names          []string  `json:"Names"           yaml:"Names"`
	Counts         []int     `json:"Counts"          yaml:"Counts"`
	Rates          []float64 `json:"Rates"           yaml:"Rates"`
	EmptyFallbacks int       `json:"EmptyFallbacks"  yaml:"EmptyFallbacks"`
	Exhausted      int       `json:"Exhausted"       yaml:"Exhausted"`
}

// PlayerReport 玩家統計
//
// 需使用 RecordWithPlayer 才會統計
type PlayerReport struct {
	InitBalance decimal.Decimal `json:"InitBalance"  yaml:"InitBalance"`
	Balance     decimal.Decimal `json:"Balance"      yaml:"Balance"`
	MaxBalance  decimal.Decimal `json:"MaxBalance"   yaml:"MaxBalance"`
	MinBalance  decimal.Decimal `json:"MinBalance"   yaml:"MinBalance"`
	MaxDrawdown decimal.Decimal `json:"MaxDrawdown"  yaml:"MaxDrawdown"` // 高點回落的最大金額
	Bust        bool            `json:"Bust"         yaml:"Bust"`
	Cashout     bool            `json:"Cashout"      yaml:"Cashout"`
	Alive       bool            `json:"Alive"        yaml:"Alive"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 將累積計數轉換為最終統計結果並鎖定 isDone 標記。
func (s *StatReport) Done() {
	if s.isDone {
		return
	}
	// Summary
	s.Summary.RTP = s.Rtp()
	s.Summary.RtpCI = s.Ci()
	s.Summary.Std = s.Std()
	s.Summary.Cv = s.Cv()
	if s.Summary.Rounds > 0 {
		s.Summary.HitRate = 1.0 - float64(s.Summary.NoWinRounds)/float64(s.Summary.Rounds)
	}
	if wins := s.Summary.Rounds - s.Summary.NoWinRounds; wins > 0 {
		s.Summary.AvgWinMult = s.Mult.TotalWinMult / float64(wins)
	}

	// Dist / Category
	rf := float64(max(s.Summary.Rounds, 1))
	s.Dist.TotalWinDist = make([]float64, len(s.Dist.TotalWinCollect))
	for i, c := range s.Dist.TotalWinCollect {
		s.Dist.TotalWinDist[i] = float64(c) / rf
	}
	if s.Category != nil {
		s.Category.Rates = make([]float64, len(s.Category.Counts))
		for i, c := range s.Category.Counts {
			s.Category.Rates[i] = float64(c) / rf
		}
	}

	// Player
	if s.Player != nil {
		s.Player.Alive = !(s.Player.Bust || s.Player.Cashout)
	}

	s.isDone = true
}

// Rtp 回傳整體 RTP（總贏分 / 總押注）
func (s *StatReport) Rtp() float64 {
	if s.Summary.Rounds == 0 || s.Summary.TotalBet.IsZero() {
		return 0
	}
	return s.Summary.TotalWin.Div(s.Summary.TotalBet).InexactFloat64()
}

// Std 回傳單局贏倍的標準差（樣本標準差）
func (s *StatReport) Std() float64 {
	if s.Summary.Rounds < 2 {
		return 0
	}
	rounds := float64(s.Summary.Rounds)

	winMultPow := s.Mult.TotalWinMult * s.Mult.TotalWinMult
	variance := (s.Mult.TotalWinMultSqSum - winMultPow/rounds) / (rounds - 1)

	if variance < 0 {
		variance = 0
	}

	return math.Sqrt(variance)
}

// Cv 回傳單局贏分的變異係數
func (s *StatReport) Cv() float64 {
	rtp := s.Rtp()
	std := s.Std()
	if rtp <= 0 {
		return 0
	}
	return (std / rtp)
}

// Ci 回傳(95% Rtp)信賴區間
func (s *StatReport) Ci() CI {
	rtp := s.Rtp()
	std := s.Std()
	rtpSe := float64(0)
	if s.Summary.Rounds > 1 {
		rtpSe = std / math.Sqrt(float64(s.Summary.Rounds))
	}
	ci := CI{
		Lo: max(rtp-1.96*rtpSe, 0.0),
		Hi: rtp + 1.96*rtpSe,
	}
	return ci
}

func (s *StatReport) WriteWith(w io.Writer, rep StatReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

// StdOut 輸出用時與摘要表格
func (s *StatReport) StdOut(ut time.Duration) {
	s.Done()
	fmt.Print(formatDuration(ut, s.Summary.Rounds))
	sk, sm := s.fmtBasic()
	fmt.Println(fmtTable(s.Summary.GameName, sk, sm))
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, spins int) string {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	sps := int(float64(spins) / sec)
	if sec < 60.0 {
		return p.Sprintf("used: %.2f seconds\nsps : %d spins/sec\n", sec, sps)
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		return p.Sprintf("used: %dm %ds\nsps : %d spins/sec\n", m, s, sps)
	}
	return p.Sprintf("used: %dh:%dm:%ds\nsps : %d spins/sec\n", h, m, s, sps)
}

func (s *StatReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	basic := map[string]string{
		"Game Name":    p.Sprintf("%s", s.Summary.GameName),
		"Game ID":      fmt.Sprintf("%d", s.Summary.GameId),
		"Total Rounds": p.Sprintf("%d", s.Summary.Rounds),
		"Total RTP":    p.Sprintf("%.2f %%", 100.0*s.Summary.RTP),
		"RTP 95% CI":   p.Sprintf("[%.2f%%,%.2f%%]", 100.0*s.Summary.RtpCI.Lo, 100.0*s.Summary.RtpCI.Hi),
		"Total Bet":    s.Summary.TotalBet.StringFixed(2),
		"Total Win":    s.Summary.TotalWin.StringFixed(2),
		"Hit Rate":     p.Sprintf("%.2f %%", 100.0*s.Summary.HitRate),
		"NoWin Rounds": p.Sprintf("%d", s.Summary.NoWinRounds),
		"Near Misses":  p.Sprintf("%d", s.Summary.NearMisses),
		"Big Wins":     p.Sprintf("%d", s.Summary.BigWins),
		"Mega Wins":    p.Sprintf("%d", s.Summary.MegaWins),
		"Max Win Mult": p.Sprintf("%.2f", s.Mult.MaxWinMult),
		"Avg Win Mult": p.Sprintf("%.2f", s.Summary.AvgWinMult),
		"STD":          p.Sprintf("%.3f", s.Summary.Std),
		"CV":           p.Sprintf("%.3f", s.Summary.Cv),
	}
	keys := []string{"Game Name", "Game ID", "Total Rounds", "Total RTP", "RTP 95% CI", "Total Bet", "Total Win", "Hit Rate", "NoWin Rounds", "Near Misses", "Big Wins", "Mega Wins", "Max Win Mult", "Avg Win Mult", "STD", "CV"}
	if s.Category != nil {
		for i, name := range s.Category.Names {
			k := "  " + name
			basic[k] = p.Sprintf("%d", s.Category.Counts[i])
			keys = append(keys, k)
		}
	}
	return keys, basic
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := max((totalInner-titleW)/2, 0)
	right := max(totalInner-titleW-left, 0)

	var sb strings.Builder
	sb.WriteString(top)
	sb.WriteString(p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right)))
	sb.WriteString(divider)
	for _, k := range keys {
		sb.WriteString(p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k]))))
	}
	sb.WriteString(divider)

	return sb.String()
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
