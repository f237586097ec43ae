package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/corpus/archive"
	"github.com/pithecene-io/corpus/cli/render"
	"github.com/pithecene-io/corpus/types"
)

// SessionRow is one line of `sessions list`.
type SessionRow struct {
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
	Started   string `json:"started"`
	Duration  string `json:"duration"`
	Outcome   string `json:"outcome"`
	Status    string `json:"status"`
	Frames    int64  `json:"frames"`
	Size      string `json:"size"`
}

// SessionDetail is the output of `sessions show`.
type SessionDetail struct {
	Summary    archive.SessionSummaryRecord `json:"summary"`
	Transcript []string                     `json:"transcript"`
}

// SessionsCommand returns the sessions command.
func SessionsCommand() *cli.Command {
	flags := append(ArchiveFlags(), ConfigFlags()...)
	flags = append(flags, OutputFlags()...)

	return &cli.Command{
		Name:  "sessions",
		Usage: "Inspect archived sessions",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List archived sessions, newest first",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "day",
						Usage: "Only sessions started on this day (YYYY-MM-DD)",
					},
				}, flags...),
				Action: sessionsListAction,
			},
			{
				Name:      "show",
				Usage:     "Show one archived session",
				ArgsUsage: "SESSION_ID",
				Flags:     flags,
				Action:    sessionsShowAction,
			},
		},
	}
}

func openArchiveFromFlags(c *cli.Context) (*archive.Archive, error) {
	if c.Bool("tui") {
		return nil, cli.Exit("--tui is not supported for sessions", exitValidation)
	}
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	ac, err := resolveArchive(c, cfg)
	if err != nil {
		return nil, err
	}
	if ac.Backend == "" {
		return nil, cli.Exit("--archive-backend is required (or archive.backend in the config file)", exitValidation)
	}
	return archive.Open(c.Context, ac)
}

func sessionsListAction(c *cli.Context) error {
	day := c.String("day")
	if day != "" {
		if _, err := time.Parse(time.DateOnly, day); err != nil {
			return cli.Exit(fmt.Sprintf("invalid --day %q (expected YYYY-MM-DD)", day), exitValidation)
		}
	}

	a, err := openArchiveFromFlags(c)
	if err != nil {
		return err
	}
	records, err := a.ListSessions(c.Context, day)
	if err != nil {
		return err
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}
	if r.Format() != render.FormatTable {
		return r.Render(records)
	}
	return r.Render(sessionRows(records))
}

func sessionRows(records []archive.SessionSummaryRecord) []SessionRow {
	rows := make([]SessionRow, 0, len(records))
	for _, rec := range records {
		started := rec.StartedAt
		if t, err := time.Parse(time.RFC3339Nano, rec.StartedAt); err == nil {
			started = t.Local().Format(time.DateTime)
		}
		rows = append(rows, SessionRow{
			SessionID: rec.SessionID,
			Kind:      rec.Kind,
			Started:   started,
			Duration:  (time.Duration(rec.DurationMs) * time.Millisecond).String(),
			Outcome:   rec.Outcome,
			Status:    rec.Status,
			Frames:    rec.Frames,
			Size:      humanize.Bytes(uint64(max(rec.Bytes, 0))),
		})
	}
	return rows
}

func sessionsShowAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("sessions show requires exactly one SESSION_ID argument", exitValidation)
	}
	a, err := openArchiveFromFlags(c)
	if err != nil {
		return err
	}

	summary, entries, err := a.Session(c.Context, c.Args().First())
	if errors.Is(err, archive.ErrSessionNotFound) {
		return cli.Exit(err.Error(), 1)
	}
	if err != nil {
		return err
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	transcript := make([]string, 0, len(entries))
	for _, e := range entries {
		transcript = append(transcript, e.Text)
	}

	if c.Bool("markdown") || r.Format() == render.FormatTable {
		st := types.UIState{
			Transcript: transcript,
			Chapters:   summary.Chapters,
			Characters: summary.Characters,
			Progress:   summary.Progress,
			Status:     types.Status(summary.Status),
			SessionID:  summary.SessionID,
		}
		if c.Bool("markdown") {
			return r.RenderMarkdown(st)
		}
		return r.RenderState(st)
	}
	return r.Render(SessionDetail{Summary: *summary, Transcript: transcript})
}
