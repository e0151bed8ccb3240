package app

import "strings"

// Command はバイナリのサブコマンド。
type Command string

const (
	CommandServe   Command = "serve"
	CommandWorker  Command = "worker"
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はdistrolessイメージのHEALTHCHECKから呼ばれる。
	CommandHealthcheck Command = "healthcheck"
)

var knownCommands = map[string]Command{
	"serve":       CommandServe,
	"worker":      CommandWorker,
	"migrate":     CommandMigrate,
	"healthcheck": CommandHealthcheck,
}

// LookupCommand は名前に対応するサブコマンドを返す。大文字小文字と前後の空白は無視する。
func LookupCommand(name string) (Command, bool) {
	cmd, ok := knownCommands[strings.ToLower(strings.TrimSpace(name))]
	return cmd, ok
}

// ParseCommand は先頭の引数からサブコマンドを決める。
// 引数なし、または不明な名前はserveとして扱う。2番目以降の引数は無視する。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := LookupCommand(args[0]); ok {
		return cmd
	}
	return CommandServe
}

// NeedsConfig はConfigの読み込みが必要かを返す。
// healthcheckは必須の環境変数がないコンテナ内でも動く必要がある。
func (c Command) NeedsConfig() bool {
	return c != CommandHealthcheck
}
