// Command resumedigest は履歴書要約サービスを起動する。
//
// サブコマンド: serve（既定）、worker、migrate、healthcheck
package main

import (
	"log/slog"
	"os"

	"github.com/hitoshi/resumedigest/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("application exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
