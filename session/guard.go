// Package session runs submissions against the ingestion service.
//
// A Guard admits at most one live session at a time. The live session
// pulls the response body through frame decoding, classification and
// reduction, publishing every intermediate state through its Store:
//
//	transport.Client.Open -> frame.Reader.Next -> classify.Classify -> state.Store.Apply
//
// Transport failures end the session with exactly one synthesized
// error entry in the transcript and never leave the guard live.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/pithecene-io/corpus/classify"
	"github.com/pithecene-io/corpus/frame"
	"github.com/pithecene-io/corpus/iox"
	"github.com/pithecene-io/corpus/log"
	"github.com/pithecene-io/corpus/metrics"
	"github.com/pithecene-io/corpus/state"
	"github.com/pithecene-io/corpus/transport"
	"github.com/pithecene-io/corpus/types"
)

// Opener opens a streaming submission. Implemented by *transport.Client.
type Opener interface {
	Open(ctx context.Context, req transport.Request) (io.ReadCloser, error)
}

// Recorder captures the raw frames of each session in arrival order.
type Recorder interface {
	Begin(info types.SessionInfo) error
	Frame(frame string) error
	End(outcome types.Outcome, cause error) error
}

// Archiver stores a finished session for downstream consumers.
type Archiver interface {
	ArchiveSession(ctx context.Context, summary *types.SessionSummary) error
}

// Notifier announces a finished session.
type Notifier interface {
	NotifySession(ctx context.Context, summary *types.SessionSummary) error
}

// Config configures a Guard.
type Config struct {
	// Client opens requests (required).
	Client Opener
	// Store receives state updates. A new store is created when nil.
	Store *state.Store
	// Framing selects frame splitting (default line).
	Framing frame.Framing
	// MaxUploadBytes bounds upload documents (default transport.DefaultMaxUploadBytes).
	MaxUploadBytes int64
	// Logger defaults to log.Nop().
	Logger *log.Logger
	// Collector is optional; nil disables metrics.
	Collector *metrics.Collector
	// Recorder, Archiver and Notifier are optional.
	Recorder Recorder
	Archiver Archiver
	Notifier Notifier
}

// Result describes one session that ran.
type Result struct {
	Session types.SessionInfo
	Outcome types.Outcome
	// Err is the *IngestionError that ended the session early, or nil.
	Err error
	// Frames is the number of frames classified.
	Frames int64
	// Bytes is the number of body bytes read.
	Bytes int64
	// Duration is the wall time from accept to end of body.
	Duration time.Duration
	// State is the UI state when the session ended.
	State types.UIState
	// Entries are the transcript lines this session appended.
	Entries []string
}

// Summary converts the result into the record handed downstream.
func (r *Result) Summary() *types.SessionSummary {
	s := &types.SessionSummary{
		Info:    r.Session,
		Outcome: r.Outcome,
		EndedAt: r.Session.StartedAt.Add(r.Duration),
		Elapsed: r.Duration,
		Frames:  r.Frames,
		Bytes:   r.Bytes,
		Entries: r.Entries,
		State:   r.State,
	}
	if r.Err != nil {
		s.Error = r.Err.Error()
	}
	return s
}

// Guard is the single-flight session runner for one client.
type Guard struct {
	client    Opener
	store     *state.Store
	framing   frame.Framing
	maxUpload int64
	logger    *log.Logger
	collector *metrics.Collector
	recorder  Recorder
	archiver  Archiver
	notifier  Notifier

	live atomic.Bool
	now  func() time.Time
}

// NewGuard creates a guard. Returns an error if no client is set.
func NewGuard(cfg Config) (*Guard, error) {
	if cfg.Client == nil {
		return nil, errors.New("session guard requires a client")
	}
	if cfg.Store == nil {
		cfg.Store = state.NewStore()
	}
	if cfg.Framing == "" {
		cfg.Framing = frame.FramingLine
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Nop()
	}
	return &Guard{
		client:    cfg.Client,
		store:     cfg.Store,
		framing:   cfg.Framing,
		maxUpload: cfg.MaxUploadBytes,
		logger:    cfg.Logger,
		collector: cfg.Collector,
		recorder:  cfg.Recorder,
		archiver:  cfg.Archiver,
		notifier:  cfg.Notifier,
		now:       time.Now,
	}, nil
}

// Store returns the state container the guard writes to.
func (g *Guard) Store() *state.Store {
	return g.store
}

// Live reports whether a session is in flight.
func (g *Guard) Live() bool {
	return g.live.Load()
}

// Submit runs req to completion in the calling goroutine.
//
// Returns:
//   - ErrBusy: another session is live; nothing changed
//   - *transport.ValidationError: req was rejected locally; LocalError is set
//   - a Result otherwise, with Result.Err set when the stream failed
func (g *Guard) Submit(ctx context.Context, req transport.Request) (*Result, error) {
	if g.live.Load() {
		return nil, g.reject()
	}

	req, err := transport.Validate(req, g.maxUpload)
	if err != nil {
		g.collector.IncValidationFailure()
		g.store.SetLocalError(err.Error())
		g.logger.Warn("submission rejected", map[string]any{
			"kind":  string(req.Kind),
			"error": err.Error(),
		})
		return nil, err
	}

	if !g.live.CompareAndSwap(false, true) {
		return nil, g.reject()
	}

	info := types.SessionInfo{
		ID:        uuid.NewString(),
		Kind:      string(req.Kind),
		Endpoint:  req.Endpoint,
		Framing:   string(g.framing),
		StartedAt: g.now().UTC(),
	}
	if req.Kind == transport.KindUpload {
		info.Document = filepath.Base(req.Path)
	}
	logger := g.logger.WithSession(log.SessionMeta{
		SessionID: info.ID,
		Endpoint:  info.Endpoint,
		Kind:      info.Kind,
	})

	before := g.store.Begin(info.ID)
	if info.Document != "" {
		g.store.Apply(types.PlainText{Text: types.FileSelectedPrefix + info.Document})
	}
	g.collector.IncSessionStarted()
	logger.Info("session started", nil)

	res := &Result{Session: info}
	func() {
		defer func() {
			g.store.End()
			g.live.Store(false)
		}()
		g.run(ctx, req, res, logger)
	}()

	res.Duration = g.now().Sub(info.StartedAt)
	res.State = g.store.Snapshot()
	res.Entries = appendedEntries(before.Transcript, res.State.Transcript)

	g.finish(ctx, res, logger)
	return res, nil
}

func (g *Guard) reject() error {
	g.collector.IncSessionRejected()
	g.logger.Debug("submission rejected: session in progress", nil)
	return ErrBusy
}

// run drives the body until EOF or failure and fills in res.
func (g *Guard) run(ctx context.Context, req transport.Request, res *Result, logger *log.Logger) {
	recorder := g.beginRecording(res.Session, logger)

	body, err := g.client.Open(ctx, req)
	if err != nil {
		g.fail(ctx, res, classifyError(ctx, err), recorder, logger)
		return
	}
	defer iox.DiscardClose(body)

	reader := frame.NewReader(body, g.framing)
	defer func() {
		res.Bytes = reader.BytesRead()
		g.collector.AddBytesReceived(res.Bytes)
	}()

	for {
		f, err := reader.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			g.fail(ctx, res, classifyError(ctx, err), recorder, logger)
			return
		}

		msg := classify.Classify(f)
		g.store.Apply(msg)
		res.Frames++
		g.collector.IncFrame(string(msg.Kind()))
		logger.Debug("frame", map[string]any{"message_kind": string(msg.Kind())})

		if recorder != nil {
			if err := recorder.Frame(f); err != nil {
				logger.Warn("recording stopped", map[string]any{"error": err.Error()})
				recorder = nil
			}
		}
	}

	st := g.store.Snapshot()
	if req.Kind == transport.KindUpload {
		st = g.store.Finalize()
	}

	res.Outcome = types.OutcomeComplete
	if st.Status == types.StatusError {
		res.Outcome = types.OutcomeServiceError
	}
	g.collector.IncSessionCompleted()
	g.endRecording(recorder, res.Outcome, nil, logger)
}

// fail records a transport failure as one synthesized error message.
func (g *Guard) fail(ctx context.Context, res *Result, err *IngestionError, recorder Recorder, logger *log.Logger) {
	g.store.Apply(types.Error{Text: err.Error()})
	res.Err = err
	res.Outcome = types.OutcomeTransportError
	g.collector.IncSessionFailed()
	logger.Error("session failed", map[string]any{
		"error":    err.Error(),
		"canceled": err.Kind == IngestionErrorCanceled,
	})
	g.endRecording(recorder, res.Outcome, err, logger)
}

func classifyError(ctx context.Context, err error) *IngestionError {
	if ctx.Err() != nil {
		return &IngestionError{Kind: IngestionErrorCanceled, Err: fmt.Errorf("session canceled: %w", ctx.Err())}
	}
	if frame.IsTooLarge(err) {
		return &IngestionError{Kind: IngestionErrorFrame, Err: err}
	}
	return &IngestionError{Kind: IngestionErrorTransport, Err: err}
}

func (g *Guard) beginRecording(info types.SessionInfo, logger *log.Logger) Recorder {
	if g.recorder == nil {
		return nil
	}
	if err := g.recorder.Begin(info); err != nil {
		logger.Warn("recording disabled", map[string]any{"error": err.Error()})
		return nil
	}
	return g.recorder
}

func (g *Guard) endRecording(recorder Recorder, outcome types.Outcome, cause error, logger *log.Logger) {
	if recorder == nil {
		return
	}
	if err := recorder.End(outcome, cause); err != nil {
		logger.Warn("recording end failed", map[string]any{"error": err.Error()})
	}
}

// finish hands the finished session to the archiver and notifier.
// Cancellation of ctx does not skip them.
func (g *Guard) finish(ctx context.Context, res *Result, logger *log.Logger) {
	fields := map[string]any{
		"outcome":  string(res.Outcome),
		"frames":   res.Frames,
		"bytes":    res.Bytes,
		"duration": res.Duration.String(),
	}
	logger.Info("session ended", fields)

	if g.archiver == nil && g.notifier == nil {
		return
	}

	ctx = context.WithoutCancel(ctx)
	summary := res.Summary()

	if g.archiver != nil {
		if err := g.archiver.ArchiveSession(ctx, summary); err != nil {
			g.collector.IncArchiveWriteFailure()
			logger.Error("archive write failed", map[string]any{"error": err.Error()})
		} else {
			g.collector.IncArchiveWriteSuccess()
		}
	}

	if g.notifier != nil {
		if err := g.notifier.NotifySession(ctx, summary); err != nil {
			g.collector.IncAdapterPublishFailure()
			logger.Error("completion notification failed", map[string]any{"error": err.Error()})
		} else {
			g.collector.IncAdapterPublishSuccess()
		}
	}
}

// appendedEntries returns the transcript suffix added after before.
func appendedEntries(before, after []string) []string {
	if len(after) <= len(before) {
		return []string{}
	}
	return append([]string(nil), after[len(before):]...)
}
