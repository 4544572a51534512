package app

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestNewRootCommand_RegistersSubcommands(t *testing.T) {
	root := NewRootCommand(&bytes.Buffer{})

	for _, name := range []Command{CommandServe, CommandWorker, CommandMigrate, CommandHealthcheck} {
		cmd, _, err := root.Find([]string{string(name)})
		if err != nil {
			t.Errorf("Find(%q) error = %v", name, err)
			continue
		}
		if cmd.Name() != string(name) {
			t.Errorf("Find(%q) = %q", name, cmd.Name())
		}
	}
}

func TestRunContext_UnknownCommand_ReturnsError(t *testing.T) {
	var buf bytes.Buffer
	err := RunContext(context.Background(), &buf, []string{"fetch"})
	if err == nil {
		t.Fatal("expected error for unknown command")
	}
	if !strings.Contains(err.Error(), "fetch") {
		t.Errorf("error %q does not mention the unknown command", err.Error())
	}
}

func TestRunContext_ExtraArgs_ReturnsError(t *testing.T) {
	var buf bytes.Buffer
	err := RunContext(context.Background(), &buf, []string{"migrate", "extra"})
	if err == nil {
		t.Fatal("expected error for unexpected positional args")
	}
}

func TestHealthcheckCommand_PortFlagDefaultsToServerPort(t *testing.T) {
	t.Setenv("SERVER_PORT", "9191")

	cmd := newHealthcheckCommand()
	flag := cmd.Flags().Lookup("port")
	if flag == nil {
		t.Fatal("expected --port flag")
	}
	if flag.DefValue != "9191" {
		t.Errorf("--port default = %q, want %q", flag.DefValue, "9191")
	}
}

func TestHealthcheckCommand_PortFlagDefaultsTo8080(t *testing.T) {
	t.Setenv("SERVER_PORT", "")

	flag := newHealthcheckCommand().Flags().Lookup("port")
	if flag.DefValue != "8080" {
		t.Errorf("--port default = %q, want %q", flag.DefValue, "8080")
	}
}

func TestCommandString(t *testing.T) {
	tests := []struct {
		cmd  Command
		want string
	}{
		{CommandServe, "serve"},
		{CommandWorker, "worker"},
		{CommandMigrate, "migrate"},
		{CommandHealthcheck, "healthcheck"},
	}

	for _, tt := range tests {
		if got := string(tt.cmd); got != tt.want {
			t.Errorf("Command(%q) string = %q, want %q", tt.cmd, got, tt.want)
		}
	}
}
