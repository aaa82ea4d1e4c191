package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

// Config captures all command-line options required to run the extractor.
type Config struct {
	ArchivePath   string
	OutputDir     string
	DownloadBots  bool
	DownloadVoice bool
	DryRun        bool
	LogLevel      string
	LogDir        string
}

// RegisterFlags attaches all CLI flags to the provided command.
func RegisterFlags(cmd *cobra.Command) error {
	flags := cmd.Flags()
	flags.Bool("download-bots", false, "Extract attachments from bot conversations")
	flags.Bool("download-voice", false, "Extract voice messages (.ogg)")
	flags.String("output", "", "Output directory (default: <archive parent>/attachments)")
	flags.Bool("dry-run", false, "Walk the archive and report what would be extracted without writing files")
	flags.String("log-level", "info", "Logging level: debug, info, warn, error")
	flags.String("log-dir", "", "Directory for log files (logs go to stdout only when empty)")

	return nil
}

// LoadConfig converts the parsed Cobra flags and the positional archive
// path into a Config struct with validation.
func LoadConfig(cmd *cobra.Command, args []string) (Config, error) {
	if len(args) != 1 {
		return Config{}, fmt.Errorf("exactly one archive path argument is required")
	}

	flags := cmd.Flags()

	downloadBots, err := flags.GetBool("download-bots")
	if err != nil {
		return Config{}, err
	}
	downloadVoice, err := flags.GetBool("download-voice")
	if err != nil {
		return Config{}, err
	}
	outputDir, err := flags.GetString("output")
	if err != nil {
		return Config{}, err
	}
	dryRun, err := flags.GetBool("dry-run")
	if err != nil {
		return Config{}, err
	}
	logLevel, err := flags.GetString("log-level")
	if err != nil {
		return Config{}, err
	}
	logDir, err := flags.GetString("log-dir")
	if err != nil {
		return Config{}, err
	}

	archivePath := filepath.Clean(args[0])

	if outputDir == "" {
		outputDir = filepath.Join(filepath.Dir(archivePath), "attachments")
	}

	logLevel = strings.ToLower(logLevel)
	if logLevel == "warning" {
		logLevel = "warn"
	}

	cfg := Config{
		ArchivePath:   archivePath,
		OutputDir:     filepath.Clean(outputDir),
		DownloadBots:  downloadBots,
		DownloadVoice: downloadVoice,
		DryRun:        dryRun,
		LogLevel:      logLevel,
		LogDir:        logDir,
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func validateConfig(cfg Config) error {
	if cfg.ArchivePath == "" {
		return fmt.Errorf("archive path is required")
	}

	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid --log-level: %s", cfg.LogLevel)
	}

	return nil
}
