package demo_configs

import (
	"embed"
)

// FS 內建的示範遊戲設定
//
//go:embed *.yaml
var FS embed.FS
