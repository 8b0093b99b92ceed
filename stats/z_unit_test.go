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

package stats_test

import (
	"bytes"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/zintix-labs/bucketlab/spec"
	"github.com/zintix-labs/bucketlab/stats"
)

// buildStatReport 以每局贏倍建立報表，押注固定為 bet。
func buildStatReport(bet float64, mults []float64) *stats.StatReport {
	L := stats.Buckets.Len()
	twc := make([]int, L)

	var totalMult, totalMultSq, maxMult float64
	noWin := 0
	totalWin := decimal.Zero
	for _, m := range mults {
		twc[stats.Buckets.Index(m)]++
		totalMult += m
		totalMultSq += m * m
		maxMult = max(maxMult, m)
		if m == 0 {
			noWin++
		}
		totalWin = totalWin.Add(decimal.NewFromFloat(m * bet))
	}

	d := decimal.NewFromFloat(bet)
	report := &stats.StatReport{
		Summary: &stats.SummaryReport{
			GameName:    "TestGame",
			GameId:      spec.GID(0),
			Bet:         d,
			TotalBet:    d.Mul(decimal.NewFromInt(int64(len(mults)))),
			TotalWin:    totalWin,
			NoWinRounds: noWin,
			Rounds:      len(mults),
		},
		Mult: &stats.MultReport{
			TotalWinMult:      totalMult,
			TotalWinMultSqSum: totalMultSq,
			MaxWinMult:        maxMult,
		},
		Dist: &stats.DistReport{
			WinBucket:       stats.Buckets.WinBucketStr(),
			TotalWinCollect: twc,
		},
		Player: &stats.PlayerReport{},
	}
	report.Done()
	return report
}

func TestStatReportCoreMetrics(t *testing.T) {
	rep := buildStatReport(1, []float64{1, 2})

	wantRTP := 1.5
	if got := rep.Rtp(); math.Abs(got-wantRTP) > 1e-12 {
		t.Fatalf("RTP got %.12f want %.12f", got, wantRTP)
	}

	variance := ((1.0 + 4.0) - 9.0/2) / (2 - 1)
	wantStd := math.Sqrt(variance)
	if got := rep.Std(); math.Abs(got-wantStd) > 1e-12 {
		t.Fatalf("Std got %.12f want %.12f", got, wantStd)
	}

	wantCV := wantStd / wantRTP
	if got := rep.Cv(); math.Abs(got-wantCV) > 1e-12 {
		t.Fatalf("CV got %.12f want %.12f", got, wantCV)
	}

	if len(rep.Dist.TotalWinCollect) != len(rep.Dist.WinBucket) {
		t.Fatalf("win buckets length mismatch")
	}
	totalRounds := 0
	for _, c := range rep.Dist.TotalWinCollect {
		totalRounds += c
	}
	if totalRounds != rep.Summary.Rounds {
		t.Fatalf("distribution total %d != rounds %d", totalRounds, rep.Summary.Rounds)
	}

	rep.Done() // idempotent
	if rep.Rtp() != wantRTP {
		t.Fatalf("RTP changed after second Done")
	}
}

func TestHitRateAndAvgWin(t *testing.T) {
	rep := buildStatReport(2, []float64{0, 0, 0, 10})
	if rep.Summary.HitRate != 0.25 {
		t.Fatalf("hit rate got %v want 0.25", rep.Summary.HitRate)
	}
	if rep.Summary.AvgWinMult != 10 {
		t.Fatalf("avg win mult got %v want 10", rep.Summary.AvgWinMult)
	}
	if rep.Mult.MaxWinMult != 10 {
		t.Fatalf("max win mult got %v", rep.Mult.MaxWinMult)
	}
	if rep.Summary.RTP != 2.5 {
		t.Fatalf("rtp got %v want 2.5", rep.Summary.RTP)
	}
}

func TestWinBucketIndex(t *testing.T) {
	cases := []struct {
		mult float64
		want string
	}{
		{0, "[0,0]"},
		{-1, "[0,0]"},
		{0.5, "(0,1)"},
		{1, "[1,2)"},
		{10, "[10,20)"},
		{49.99, "[20,50)"},
		{50, "[50,100)"},
		{10000, "[10000,+inf)"},
		{1e9, "[10000,+inf)"},
	}
	labels := stats.Buckets.WinBucketStr()
	for _, c := range cases {
		if got := labels[stats.Buckets.Index(c.mult)]; got != c.want {
			t.Fatalf("mult %v got %s want %s", c.mult, got, c.want)
		}
	}
}

func TestEstimatorRtpAndSession(t *testing.T) {
	// RTP 0.00 ~ 0.99
	reports := make([]*stats.StatReport, 0, 100)
	for i := 0; i < 100; i++ {
		reports = append(reports, buildStatReport(100, []float64{float64(i) / 100}))
	}

	est := stats.EstimatorPlayerExp(reports)
	if math.Abs(est.RtpStat.ExpMedian.Hat-0.5) > 0.05 {
		t.Fatalf("median RTP expected ~0.5, got %.3f", est.RtpStat.ExpMedian.Hat)
	}
	if math.Abs(est.RtpStat.ExpPerc.ExpP90.Hat-0.9) > 0.05 {
		t.Fatalf("P90 RTP expected ~0.9, got %.3f", est.RtpStat.ExpPerc.ExpP90.Hat)
	}

	// 3 bust, 2 cashout, 5 alive
	sessionSamples := make([]*stats.StatReport, 10)
	for i := 0; i < 10; i++ {
		r := buildStatReport(100, []float64{0})
		switch {
		case i < 3:
			r.Player.Bust = true
			r.Player.Alive = false
		case i < 5:
			r.Player.Cashout = true
			r.Player.Alive = false
		default:
			r.Player.Alive = true
		}
		sessionSamples[i] = r
	}
	est2 := stats.EstimatorPlayerExp(sessionSamples)
	if est2.SessionStat.Bust.Hat != 0.3 {
		t.Fatalf("Bust rate got %.2f want 0.30", est2.SessionStat.Bust.Hat)
	}
	if est2.SessionStat.Cashout.Hat != 0.2 {
		t.Fatalf("Cashout rate got %.2f want 0.20", est2.SessionStat.Cashout.Hat)
	}
	if est2.SessionStat.Alive.Hat != 0.5 {
		t.Fatalf("Alive rate got %.2f want 0.50", est2.SessionStat.Alive.Hat)
	}
}

func TestRenderers(t *testing.T) {
	rep := buildStatReport(1, []float64{0, 3})
	for _, name := range []string{"table", "json", "yaml"} {
		r, ok := stats.NewStatReportRender(name)
		if !ok {
			t.Fatalf("render %s not found", name)
		}
		var buf bytes.Buffer
		if err := rep.WriteWith(&buf, r); err != nil {
			t.Fatalf("%s write err: %v", name, err)
		}
		if !strings.Contains(buf.String(), "TestGame") {
			t.Fatalf("%s output missing game name", name)
		}
	}
	if _, ok := stats.NewStatReportRender("xml"); ok {
		t.Fatalf("unexpected xml render")
	}

	var out struct {
		Summary struct {
			RTP float64
		}
	}
	var buf bytes.Buffer
	r, _ := stats.NewStatReportRender("json")
	if err := rep.WriteWith(&buf, r); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Summary.RTP != 1.5 {
		t.Fatalf("json rtp got %v", out.Summary.RTP)
	}
}
