package main

import (
	"errors"
	"testing"

	"github.com/urfave/cli/v2"
)

func TestExitErrHandler_NilError(_ *testing.T) {
	// Should not panic or exit on nil error
	exitErrHandler(nil, nil)
}

func TestExitCodes_PassThrough(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"complete", cli.Exit("", 0), 0},
		{"service error", cli.Exit("", 1), 1},
		{"transport failure", cli.Exit("connection refused", 2), 2},
		{"rejected input", cli.Exit("chat input is empty", 3), 3},
		{"busy", cli.Exit("session in progress", 4), 4},
		{"wrapped", errors.Join(errors.New("context"), cli.Exit("inner", 42)), 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var exitCoder cli.ExitCoder
			if !errors.As(tt.err, &exitCoder) {
				t.Fatalf("error should be cli.ExitCoder")
			}
			if exitCoder.ExitCode() != tt.code {
				t.Errorf("exit code = %d, want %d", exitCoder.ExitCode(), tt.code)
			}
		})
	}
}

func TestExitErrHandler_RegularError(t *testing.T) {
	var exitCoder cli.ExitCoder
	if errors.As(errors.New("regular error"), &exitCoder) {
		t.Fatal("regular error should not be cli.ExitCoder")
	}
}

func TestNewApp_Commands(t *testing.T) {
	app := newApp()
	want := []string{"chat", "upload", "replay", "sessions", "version"}
	if len(app.Commands) != len(want) {
		t.Fatalf("got %d commands, want %d", len(app.Commands), len(want))
	}
	for i, name := range want {
		if app.Commands[i].Name != name {
			t.Errorf("command %d = %q, want %q", i, app.Commands[i].Name, name)
		}
	}
}
