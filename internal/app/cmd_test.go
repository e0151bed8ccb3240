package app

import "testing"

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Command
	}{
		{name: "引数なし", args: nil, want: CommandServe},
		{name: "serve", args: []string{"serve"}, want: CommandServe},
		{name: "worker", args: []string{"worker"}, want: CommandWorker},
		{name: "migrate", args: []string{"migrate"}, want: CommandMigrate},
		{name: "healthcheck", args: []string{"healthcheck"}, want: CommandHealthcheck},
		{name: "大文字", args: []string{" Worker "}, want: CommandWorker},
		{name: "不明", args: []string{"unknown"}, want: CommandServe},
		{name: "余分な引数", args: []string{"worker", "--flag", "value"}, want: CommandWorker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCommand(tt.args); got != tt.want {
				t.Errorf("ParseCommand(%q) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestLookupCommand_Unknown(t *testing.T) {
	if _, ok := LookupCommand("deploy"); ok {
		t.Error("LookupCommand(deploy) should not be found")
	}
}

func TestCommand_NeedsConfig(t *testing.T) {
	for _, cmd := range []Command{CommandServe, CommandWorker, CommandMigrate} {
		if !cmd.NeedsConfig() {
			t.Errorf("%s should need config", cmd)
		}
	}
	if CommandHealthcheck.NeedsConfig() {
		t.Error("healthcheck should run without config")
	}
}
