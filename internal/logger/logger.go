// Package logger はアプリケーション共通のJSON構造化ロガーを提供する。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// level は全ロガーで共有するログレベル。
// ロガーは設定読み込み前に作るため、後からSetLevelで変える。
var level = new(slog.LevelVar)

// redactedKeys は値をログに出さない属性キー。
var redactedKeys = map[string]struct{}{
	"access_token":       {},
	"refresh_token":      {},
	"id_token":           {},
	"authorization_code": {},
	"client_secret":      {},
	"api_key":            {},
	"session_secret":     {},
}

const redactedValue = "[REDACTED]"

func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if _, ok := redactedKeys[strings.ToLower(a.Key)]; ok {
		return slog.String(a.Key, redactedValue)
	}
	return a
}

// Setup はwへJSONを書き出すslog.Loggerを返す。
// 認可コードやトークンなどの既知の秘密キーは値を伏せる。
func Setup(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceAttr,
	}))
}

// SetupDefault はSetupのロガーをslogのデフォルトにする。wがnilならos.Stdout。
func SetupDefault(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	slog.SetDefault(Setup(w))
}

// SetLevel はログレベルを名前（debug, info, warn, error）で変更する。
// 未知の名前はinfoとして扱い、falseを返す。
func SetLevel(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		level.Set(slog.LevelDebug)
	case "info", "":
		level.Set(slog.LevelInfo)
	case "warn", "warning":
		level.Set(slog.LevelWarn)
	case "error":
		level.Set(slog.LevelError)
	default:
		level.Set(slog.LevelInfo)
		return false
	}
	return true
}
