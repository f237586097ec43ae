package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/corpus/cli/config"
	"github.com/pithecene-io/corpus/transport"
)

// ChatCommand returns the chat command.
func ChatCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "endpoint",
			Usage: "Chat endpoint path, relative to the base URL",
			Value: transport.DefaultChatEndpoint,
		},
		&cli.BoolFlag{
			Name:    "interactive",
			Aliases: []string{"i"},
			Usage:   "Read one message per line from stdin; the transcript carries over between messages",
		},
	}
	return &cli.Command{
		Name:      "chat",
		Usage:     "Send a message and stream the reply",
		ArgsUsage: "[MESSAGE...]",
		Description: "The message is taken from the arguments, or from stdin when none are given.\n" +
			"Exit codes: 0 complete, 1 service error, 2 transport failure, 3 rejected input, 4 busy.",
		Flags:  append(flags, SessionFlags()...),
		Action: chatAction,
	}
}

func chatAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	s, err := resolveSettings(c, cfg, "endpoint", configVal(cfg, func(c *config.Config) string { return c.ChatEndpoint }))
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

	if c.Bool("interactive") {
		if c.Bool("tui") {
			return cli.Exit("--tui is not supported with --interactive", exitValidation)
		}
		return chatLoop(ctx, c, runner, s.endpoint, os.Stdin)
	}

	text, err := chatText(c, os.Stdin)
	if err != nil {
		return err
	}

	var follow io.Writer
	if !c.Bool("quiet") && isStderrTTY() {
		follow = c.App.ErrWriter
	}
	res, err := runner.submit(ctx, transport.NewChatRequest(s.endpoint, text), c.Bool("tui"), follow)
	if err != nil {
		return exitFor(res, err)
	}
	if err := printResult(c, runner, res.State); err != nil {
		return err
	}
	return exitFor(res, nil)
}

// chatText joins the arguments, or reads stdin when there are none and
// stdin is not a terminal.
func chatText(c *cli.Context, stdin *os.File) (string, error) {
	if c.Args().Present() {
		return strings.Join(c.Args().Slice(), " "), nil
	}
	if info, err := stdin.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
		return "", nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read message from stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// chatLoop submits one chat session per input line and prints the lines
// each session appended. Returns the exit status of the last session.
func chatLoop(ctx context.Context, c *cli.Context, runner *sessionRunner, endpoint string, in io.Reader) error {
	out := c.App.Writer
	sugar := runner.logger.Sugar()
	var last error
	sent := 0

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		sent++
		sugar.Debugf("submitting message %d (%d bytes)", sent, len(line))
		res, err := runner.guard.Submit(ctx, transport.NewChatRequest(endpoint, line))
		if err != nil {
			fmt.Fprintln(c.App.ErrWriter, err)
			last = exitFor(nil, err)
			continue
		}
		for _, entry := range res.Entries {
			fmt.Fprintln(out, entry)
		}
		last = exitFor(res, nil)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}

	if c.Bool("metrics") {
		if err := printMetrics(c, runner); err != nil {
			return err
		}
	}
	return last
}
