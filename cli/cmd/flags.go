// Package cmd provides CLI commands for the corpus binary.
package cmd

import (
	"os"

	"github.com/urfave/cli/v2"
)

// Exit codes shared by the session commands.
const (
	exitComplete       = 0
	exitServiceError   = 1
	exitTransportError = 2
	exitValidation     = 3
	exitBusy           = 4
)

// Output flags shared by every command that renders.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables the live Bubble Tea view (chat, upload only).
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Show a live terminal view while the session streams (chat, upload only)",
	}

	// MarkdownFlag renders the final state as styled markdown.
	MarkdownFlag = &cli.BoolFlag{
		Name:    "markdown",
		Aliases: []string{"md"},
		Usage:   "Render the transcript, chapters and characters as markdown",
	}
)

// Configuration flags shared by every command that talks to the service
// or the archive.
var (
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to corpus.yaml or corpus.toml (default: discovered in the working directory)",
	}

	EnvFileFlag = &cli.StringFlag{
		Name:  "env-file",
		Usage: "Path to a .env file loaded before config expansion",
		Value: ".env",
	}

	LogLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level: debug, info, warn, error",
		Value: "warn",
	}
)

// OutputFlags returns the shared output flags. Includes --tui so that
// unsupported commands can provide explicit error messages instead of
// generic "flag not defined" errors.
func OutputFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
		MarkdownFlag,
	}
}

// ConfigFlags returns the config-file and logging flags.
func ConfigFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		EnvFileFlag,
		LogLevelFlag,
	}
}

// ArchiveFlags returns the archive backend flags.
func ArchiveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "archive-backend",
			Usage: "Archive backend: fs or s3 (empty disables archiving)",
		},
		&cli.StringFlag{
			Name:  "archive-path",
			Usage: "Archive path (fs: directory, s3: bucket/prefix)",
		},
		&cli.StringFlag{
			Name:  "archive-region",
			Usage: "AWS region for the s3 backend (optional, uses default chain)",
		},
		&cli.StringFlag{
			Name:  "archive-endpoint",
			Usage: "Custom endpoint for S3-compatible providers",
		},
		&cli.BoolFlag{
			Name:  "archive-s3-path-style",
			Usage: "Force path-style S3 addressing",
		},
	}
}

// SessionFlags returns the flags of the session commands (chat, upload).
func SessionFlags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "base-url",
			Aliases: []string{"u"},
			Usage:   "Service base URL",
			EnvVars: []string{"CORPUS_BASE_URL"},
			Value:   "http://localhost:8000",
		},
		&cli.StringFlag{
			Name:  "framing",
			Usage: "Frame splitting: line (frames may span chunks) or chunk",
			Value: "line",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Time to wait for response headers",
		},
		&cli.StringSliceFlag{
			Name:    "header",
			Aliases: []string{"H"},
			Usage:   "Extra request header as Key=Value (repeatable)",
		},
		&cli.StringFlag{
			Name:  "record",
			Usage: "Append the raw frames of each session to this recording file",
		},
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Suppress state output",
		},
		&cli.BoolFlag{
			Name:  "metrics",
			Usage: "Print session metrics to stderr when done",
		},
		// Adapter flags
		&cli.StringFlag{
			Name:  "adapter",
			Usage: "Completion notifier: webhook or redis (empty disables)",
		},
		&cli.StringFlag{
			Name:  "adapter-url",
			Usage: "Webhook URL or Redis URL",
		},
		&cli.StringFlag{
			Name:  "adapter-channel",
			Usage: "Redis pub/sub channel",
		},
		&cli.DurationFlag{
			Name:  "adapter-timeout",
			Usage: "Per-publish timeout",
		},
		&cli.IntFlag{
			Name:  "adapter-retries",
			Usage: "Publish retry attempts",
		},
	}
	flags = append(flags, ArchiveFlags()...)
	flags = append(flags, ConfigFlags()...)
	return append(flags, OutputFlags()...)
}

// isStderrTTY returns true if stderr is connected to a terminal.
func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
