package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/corpus/cli/render"
	"github.com/pithecene-io/corpus/iox"
	"github.com/pithecene-io/corpus/record"
	"github.com/pithecene-io/corpus/types"
)

// ReplayCommand returns the replay command.
func ReplayCommand() *cli.Command {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:  "session",
			Usage: "Replay only the session with this ID",
		},
	}
	return &cli.Command{
		Name:      "replay",
		Usage:     "Rebuild the UI state from a session recording",
		ArgsUsage: "FILE",
		Description: "Feeds the recorded frames through classification and reduction in order,\n" +
			"producing the same state the live sessions produced.",
		Flags:  append(flags, OutputFlags()...),
		Action: replayAction,
	}
}

func replayAction(c *cli.Context) error {
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for replay", exitValidation)
	}
	if c.NArg() != 1 {
		return cli.Exit("replay requires exactly one FILE argument", exitValidation)
	}

	f, err := os.Open(c.Args().First())
	if err != nil {
		return fmt.Errorf("cannot open recording: %w", err)
	}
	defer iox.DiscardClose(f)

	sessions, readErr := record.ReadSessions(f)
	if readErr != nil {
		if len(sessions) == 0 || !record.IsPartial(readErr) {
			return fmt.Errorf("invalid recording: %w", readErr)
		}
		fmt.Fprintf(c.App.ErrWriter, "Warning: %v (replaying %d sessions)\n", readErr, len(sessions))
	}

	st, matched := replaySessions(sessions, c.String("session"))
	if matched == 0 && c.String("session") != "" {
		return cli.Exit(fmt.Sprintf("session %s not found in recording", c.String("session")), 1)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if c.Bool("markdown") {
		return r.RenderMarkdown(st)
	}
	return r.RenderState(st)
}

// replaySessions folds the sessions (or only the one with id, when set)
// into a fresh state. Returns the number of sessions replayed.
func replaySessions(sessions []record.Session, id string) (types.UIState, int) {
	st := types.NewUIState()
	n := 0
	for _, sess := range sessions {
		if id != "" && sess.Header.Session.ID != id {
			continue
		}
		st = record.Replay(st, sess)
		n++
	}
	return st, n
}
