package main

import "testing"

func TestIsCLIMode(t *testing.T) {
	noDisplay := func(string) string { return "" }
	withDisplay := func(k string) string {
		if k == "DISPLAY" {
			return ":0"
		}
		return ""
	}

	tests := []struct {
		name   string
		args   []string
		goos   string
		getenv func(string) string
		want   bool
	}{
		{"no args with display", nil, "linux", withDisplay, false},
		{"no args headless", nil, "linux", noDisplay, true},
		{"no args on macOS", nil, "darwin", noDisplay, false},
		{"subcommand", []string{"files"}, "linux", withDisplay, true},
		{"force gui", []string{"--gui", "-c", "x.ini"}, "linux", noDisplay, false},
		{"force cli", []string{"--cli"}, "darwin", withDisplay, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isCLIMode(tt.args, tt.goos, tt.getenv); got != tt.want {
				t.Errorf("isCLIMode(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestConfigArg(t *testing.T) {
	if got := configArg([]string{"--gui", "--config", "a.ini"}); got != "a.ini" {
		t.Errorf("configArg = %q, want a.ini", got)
	}
	if got := configArg([]string{"-c"}); got != "" {
		t.Errorf("configArg with missing value = %q, want empty", got)
	}
}
