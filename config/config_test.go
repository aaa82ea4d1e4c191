package config

import (
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

func loadWith(t *testing.T, args []string) (Config, error) {
	t.Helper()

	cmd := &cobra.Command{Use: "test"}
	if err := RegisterFlags(cmd); err != nil {
		t.Fatalf("RegisterFlags() error = %v", err)
	}
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	return LoadConfig(cmd, cmd.Flags().Args())
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadWith(t, []string{filepath.Join("export", "messages")})
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.DownloadBots || cfg.DownloadVoice {
		t.Errorf("download toggles default to %v/%v, want false/false", cfg.DownloadBots, cfg.DownloadVoice)
	}
	if want := filepath.Join("export", "attachments"); cfg.OutputDir != want {
		t.Errorf("OutputDir = %q, want sibling %q", cfg.OutputDir, want)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadConfig_Flags(t *testing.T) {
	cfg, err := loadWith(t, []string{
		"--download-bots", "--download-voice",
		"--output", "custom/out",
		"--log-level", "WARNING",
		"messages",
	})
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if !cfg.DownloadBots || !cfg.DownloadVoice {
		t.Error("expected both download toggles enabled")
	}
	if want := filepath.Clean("custom/out"); cfg.OutputDir != want {
		t.Errorf("OutputDir = %q, want %q", cfg.OutputDir, want)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q, want warn (warning alias)", cfg.LogLevel)
	}
}

func TestLoadConfig_MissingArgument(t *testing.T) {
	if _, err := loadWith(t, nil); err == nil {
		t.Error("LoadConfig() expected error without archive path")
	}
}

func TestLoadConfig_InvalidLogLevel(t *testing.T) {
	if _, err := loadWith(t, []string{"--log-level", "verbose", "messages"}); err == nil {
		t.Error("LoadConfig() expected error for invalid log level")
	}
}
