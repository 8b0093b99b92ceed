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

package errs

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestWrapInheritsLevelAndKind(t *testing.T) {
	inner := CacheCorruptf("bad envelope %s", "v0")
	outer := Wrap(inner, "load cache")
	if outer.ErrLv != Warn {
		t.Fatalf("expected warn level, got %s", ErrLv(outer.ErrLv))
	}
	if outer.Kind != KindCacheCorrupt {
		t.Fatalf("expected cache_corrupt kind, got %s", outer.Kind)
	}
	if !errors.Is(outer, inner) {
		t.Fatalf("expected chain to contain inner error")
	}
}

func TestWrapForeignErrorIsFatal(t *testing.T) {
	e := Wrap(io.ErrUnexpectedEOF, "read")
	if e.ErrLv != Fatal || e.Kind != KindNone {
		t.Fatalf("unexpected level/kind: %s/%s", ErrLv(e.ErrLv), e.Kind)
	}
}

func TestIsKindWalksChain(t *testing.T) {
	base := ConfigErrorf("missing bucket %q", "Loss_Random")
	wrapped := fmt.Errorf("configure: %w", Wrap(base, "validate"))
	if !IsKind(wrapped, KindConfig) {
		t.Fatalf("expected config kind in chain")
	}
	if IsKind(wrapped, KindExhausted) {
		t.Fatalf("unexpected exhausted kind")
	}
	if IsKind(io.EOF, KindConfig) {
		t.Fatalf("foreign error must not match")
	}
}

func TestErrorString(t *testing.T) {
	e := BucketEmpty("Win_Tier_3")
	s := e.Error()
	if !strings.Contains(s, "kind=bucket_empty") || !strings.Contains(s, "Win_Tier_3") {
		t.Fatalf("unexpected message: %s", s)
	}
	if got := NewLog("plain").Error(); got != "errlv=log plain" {
		t.Fatalf("unexpected plain message: %s", got)
	}
}
