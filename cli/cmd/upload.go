package cmd

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/corpus/cli/config"
	"github.com/pithecene-io/corpus/transport"
)

// UploadCommand returns the upload command.
func UploadCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "endpoint",
			Usage: "Upload endpoint path, relative to the base URL",
			Value: transport.DefaultUploadEndpoint,
		},
		&cli.Int64Flag{
			Name:  "max-bytes",
			Usage: "Reject documents larger than this many bytes",
			Value: transport.DefaultMaxUploadBytes,
		},
	}
	return &cli.Command{
		Name:      "upload",
		Usage:     "Upload a book and stream the analysis",
		ArgsUsage: "FILE",
		Description: fmt.Sprintf("Accepted types: %s (up to %s by default).\n"+
			"Exit codes: 0 complete, 1 service error, 2 transport failure, 3 rejected file, 4 busy.",
			transport.AcceptedExtensions, humanize.Bytes(uint64(transport.DefaultMaxUploadBytes))),
		Flags:  append(flags, SessionFlags()...),
		Action: uploadAction,
	}
}

func uploadAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("upload requires exactly one FILE argument", exitValidation)
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	s, err := resolveSettings(c, cfg, "endpoint", configVal(cfg, func(c *config.Config) string { return c.UploadEndpoint }))
	if err != nil {
		return cli.Exit(err.Error(), exitValidation)
	}

	ctx, stop := signalContext(c.Context)
	defer stop()

	runner, err := newSessionRunner(ctx, s)
	if err != nil {
		return err
	}
	defer runner.Close()

	// Validation runs inside Submit so the rejection reaches the state
	// store as a local error.
	req := transport.Request{
		Kind:     transport.KindUpload,
		Endpoint: s.endpoint,
		Path:     c.Args().First(),
	}

	var follow io.Writer
	if !c.Bool("quiet") && isStderrTTY() {
		follow = c.App.ErrWriter
	}
	res, err := runner.submit(ctx, req, c.Bool("tui"), follow)
	if err != nil {
		return exitFor(res, err)
	}
	if err := printResult(c, runner, res.State); err != nil {
		return err
	}
	return exitFor(res, nil)
}
