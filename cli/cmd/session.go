package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/corpus/archive"
	"github.com/pithecene-io/corpus/cli/render"
	"github.com/pithecene-io/corpus/cli/tui"
	"github.com/pithecene-io/corpus/iox"
	"github.com/pithecene-io/corpus/log"
	"github.com/pithecene-io/corpus/metrics"
	"github.com/pithecene-io/corpus/record"
	"github.com/pithecene-io/corpus/session"
	"github.com/pithecene-io/corpus/state"
	"github.com/pithecene-io/corpus/transport"
	"github.com/pithecene-io/corpus/types"
)

// sessionRunner owns everything a session command builds once: the
// guard and the optional recorder, archive, and notifier behind it.
type sessionRunner struct {
	guard     *session.Guard
	logger    *log.Logger
	collector *metrics.Collector
	closers   iox.Stack
}

func newSessionRunner(ctx context.Context, s settings) (*sessionRunner, error) {
	r := &sessionRunner{
		logger:    log.NewLogger(s.logLevel),
		collector: metrics.NewCollector(string(s.framing), s.archive.Backend, s.adapter.kind),
	}

	client, err := transport.New(transport.Config{
		BaseURL: s.baseURL,
		Headers: s.headers,
		Timeout: s.timeout,
	})
	if err != nil {
		return nil, err
	}
	r.closers.Push(client)

	cfg := session.Config{
		Client:         client,
		Store:          state.NewStore(),
		Framing:        s.framing,
		MaxUploadBytes: s.maxUpload,
		Logger:         r.logger,
		Collector:      r.collector,
	}

	if s.record != "" {
		f, err := os.OpenFile(s.record, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("cannot open recording file: %w", err)
		}
		r.closers.Push(f)
		cfg.Recorder = record.NewWriter(f)
	}

	arch, err := openArchive(ctx, s.archive)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	if arch != nil {
		cfg.Archiver = arch
	}

	notifier, err := buildNotifier(s.adapter)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to create adapter: %w", err)
	}
	if notifier != nil {
		r.closers.Push(notifier)
		cfg.Notifier = notifier
	}

	r.guard, err = session.NewGuard(cfg)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.logger.Debug("session runner ready", map[string]any{
		"base_url": s.baseURL,
		"framing":  string(s.framing),
		"archive":  archiveLabel(arch),
		"adapter":  s.adapter.kind,
		"record":   s.record,
	})
	return r, nil
}

func archiveLabel(a *archive.Archive) string {
	if a == nil {
		return ""
	}
	return a.Backend()
}

// Close releases the runner's resources in reverse order.
func (r *sessionRunner) Close() {
	if err := r.closers.Close(); err != nil {
		r.logger.Warn("cleanup failed", map[string]any{"error": err.Error()})
	}
	iox.DiscardErr(r.logger.Sync)
}

// submit runs one request, showing the live view when withTUI is set or
// following the transcript on follow when it is non-nil.
func (r *sessionRunner) submit(ctx context.Context, req transport.Request, withTUI bool, follow io.Writer) (*session.Result, error) {
	if withTUI {
		return r.submitWithTUI(ctx, req)
	}
	if follow != nil {
		stop := followTranscript(r.guard.Store(), follow)
		defer stop()
	}
	return r.guard.Submit(ctx, req)
}

type submitOutcome struct {
	res *session.Result
	err error
}

func (r *sessionRunner) submitWithTUI(ctx context.Context, req transport.Request) (*session.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan submitOutcome, 1)
	go func() {
		res, err := r.guard.Submit(ctx, req)
		done <- submitOutcome{res: res, err: err}
	}()

	if err := tui.Run(r.guard.Store(), cancel); err != nil {
		cancel()
		<-done
		return nil, fmt.Errorf("tui: %w", err)
	}
	o := <-done
	return o.res, o.err
}

// followTranscript prints transcript lines to w as they are appended,
// until the returned stop function is called.
func followTranscript(store *state.Store, w io.Writer) (stop func()) {
	updates, cancel := store.Subscribe(16)
	printed := len(store.Snapshot().Transcript)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for s := range updates {
			if len(s.Transcript) < printed {
				printed = len(s.Transcript)
			}
			for _, line := range s.Transcript[printed:] {
				fmt.Fprintln(w, line)
			}
			printed = len(s.Transcript)
		}
	}()

	return func() {
		cancel()
		wg.Wait()
	}
}

// signalContext returns a context canceled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// printResult renders the final state unless --quiet, then the metrics
// snapshot when --metrics is set.
func printResult(c *cli.Context, r *sessionRunner, st types.UIState) error {
	if !c.Bool("quiet") {
		rend, err := render.NewRenderer(c)
		if err != nil {
			return err
		}
		if c.Bool("markdown") {
			err = rend.RenderMarkdown(st)
		} else {
			err = rend.RenderState(st)
		}
		if err != nil {
			return err
		}
	}

	if c.Bool("metrics") {
		return printMetrics(c, r)
	}
	return nil
}

// printMetrics writes the collector snapshot to stderr as JSON.
func printMetrics(c *cli.Context, r *sessionRunner) error {
	enc := json.NewEncoder(c.App.ErrWriter)
	enc.SetIndent("", "  ")
	return enc.Encode(r.collector.Snapshot())
}

// exitFor maps a Submit result onto the command's exit status.
func exitFor(res *session.Result, err error) error {
	switch {
	case errors.Is(err, session.ErrBusy):
		return cli.Exit(err.Error(), exitBusy)
	case transport.IsValidationError(err):
		return cli.Exit(err.Error(), exitValidation)
	case err != nil:
		return err
	}
	return cli.Exit(outcomeMessage(res), outcomeToExitCode(res.Outcome))
}

func outcomeMessage(res *session.Result) string {
	if res.Outcome == types.OutcomeTransportError && res.Err != nil {
		return res.Err.Error()
	}
	return ""
}

// outcomeToExitCode maps a session outcome to an exit code.
func outcomeToExitCode(o types.Outcome) int {
	switch o {
	case types.OutcomeComplete:
		return exitComplete
	case types.OutcomeServiceError:
		return exitServiceError
	case types.OutcomeTransportError:
		return exitTransportError
	default:
		return exitTransportError
	}
}
