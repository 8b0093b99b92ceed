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

package dto

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDecodeSpinRequestGET(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/spin?uid=u1&game=demo&gid=7&bet=10&balance=90&initial_balance=100&fail_streak=3&spin_count=12&historical_rtp=0.8", nil)
	req, err := DecodeSpinRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.UID != "u1" || req.GameName != "demo" || req.GameId != 7 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Bet != 10 || req.Balance != 90 || req.InitialBalance != 100 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.FailStreak != 3 || req.SpinCount != 12 || req.HistoricalRTP != 0.8 {
		t.Fatalf("unexpected player state: %+v", req)
	}
	if req.Override != nil || req.StartState != nil {
		t.Fatalf("GET should not carry nested fields")
	}
}

func TestDecodeSpinRequestGETInvalidNumber(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/spin?gid=1&bet=abc", nil)
	if _, err := DecodeSpinRequest(r); err == nil || !strings.Contains(err.Error(), "bet") {
		t.Fatalf("expected bet parse error, got %v", err)
	}
}

func TestDecodeSpinRequestPOST(t *testing.T) {
	payload := map[string]any{
		"uid":         "u2",
		"game":        "demo",
		"gid":         9,
		"bet":         5,
		"balance":     95,
		"fail_streak": 1,
		"override": map[string]any{
			"weights": map[string]float64{"Win_Big": 0},
		},
		"start_state": map[string]any{"start_b64u": "AAAA"},
	}
	data, _ := json.Marshal(payload)
	r := httptest.NewRequest(http.MethodPost, "/spin", bytes.NewReader(data))
	req, err := DecodeSpinRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.GameId != 9 || req.Bet != 5 || req.Balance != 95 || req.FailStreak != 1 {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Override == nil || req.Override.Weights["Win_Big"] != 0 || req.Override.Settings != nil {
		t.Fatalf("unexpected override: %+v", req.Override)
	}
	if req.StartState == nil || req.StartState.StartCoreSnapB64U != "AAAA" {
		t.Fatalf("unexpected start state: %+v", req.StartState)
	}
}

func TestDecodeSpinRequestPlayerHistory(t *testing.T) {
	data := []byte(`{"gid":1,"game":"demo","bet":1,"max_historical_balance":120.5,"simulation_mode":true}`)
	r := httptest.NewRequest(http.MethodPost, "/spin", bytes.NewReader(data))
	req, err := DecodeSpinRequest(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.MaxBalance != 120.5 || !req.Simulation {
		t.Fatalf("unexpected request: %+v", req)
	}

	r = httptest.NewRequest(http.MethodGet, "/spin?gid=1&bet=1&max_historical_balance=80&simulation_mode=true", nil)
	if req, err = DecodeSpinRequest(r); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.MaxBalance != 80 || !req.Simulation {
		t.Fatalf("unexpected request: %+v", req)
	}

	r = httptest.NewRequest(http.MethodGet, "/spin?gid=1&bet=1&simulation_mode=maybe", nil)
	if _, err = DecodeSpinRequest(r); err == nil {
		t.Fatalf("expected error for invalid simulation_mode")
	}
}

func TestDecodeSpinRequestRejectsUnknownFields(t *testing.T) {
	data := []byte(`{"gid":1,"game":"demo","bet":1,"mode":0}`)
	r := httptest.NewRequest(http.MethodPost, "/spin", bytes.NewReader(data))
	if _, err := DecodeSpinRequest(r); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestDecodeSpinRequestMethod(t *testing.T) {
	r := httptest.NewRequest(http.MethodDelete, "/spin", nil)
	if _, err := DecodeSpinRequest(r); err == nil {
		t.Fatalf("expected method error")
	}
}

func TestDecodeJSONSettings(t *testing.T) {
	data := []byte(`{"settings":{"base_c_value":0.1,"max_attempts":5},"weights":{"Win_Small":3}}`)
	r := httptest.NewRequest(http.MethodPut, "/settings", bytes.NewReader(data))
	var req SettingsRequest
	if err := DecodeJSON(r, &req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Settings == nil || req.Settings.BaseC == nil || req.Settings.MaxAttempts == nil || *req.Settings.BaseC != 0.1 || *req.Settings.MaxAttempts != 5 || req.Settings.HighRollerThreshold != nil {
		t.Fatalf("unexpected settings: %+v", req.Settings)
	}
	if req.Weights["Win_Small"] != 3 {
		t.Fatalf("unexpected weights: %+v", req.Weights)
	}
}

func TestSpinResultJSONKeys(t *testing.T) {
	out := SpinResult{
		GameName:    "demo",
		Bet:         1,
		TotalPayout: 10,
		IsWin:       true,
		BucketType:  "Win_Medium",
		State:       SpinState{StartCoreSnapB64U: "a", AfterCoreSnapB64U: "b"},
	}
	data, err := json.Marshal(out)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"matrix", "total_payout", "is_win", "bucket_type", "balance_update", "fail_streak", "spin_state"} {
		if _, ok := m[k]; !ok {
			t.Fatalf("missing key %q in %s", k, data)
		}
	}
	if _, ok := m["winning_lines"]; ok {
		t.Fatalf("winning_lines should be omitted when empty")
	}
}
