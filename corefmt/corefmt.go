// Package corefmt 處理 PRNG 快照在文字傳輸（JSON/HTTP）上的編碼。
package corefmt

import (
	"encoding/base64"

	"github.com/zintix-labs/bucketlab/errs"
)

// EncodeBase64URL 以無填充的 URL-safe base64 編碼快照；空快照回傳空字串。
func EncodeBase64URL(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeBase64URL 解碼 EncodeBase64URL 的輸出；空字串回傳 nil。
func DecodeBase64URL(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, errs.Wrap(err, "decode base64url failed")
	}
	return b, nil
}
