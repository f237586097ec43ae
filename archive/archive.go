// Package archive exports finished sessions to a Lode dataset.
//
// Each session becomes one snapshot in Hive layout
// day=/session_id=/record_kind=, holding one transcript_entry record per
// transcript line the session appended and one session_summary record.
// The archive is write-mostly: it feeds downstream consumers and the
// sessions listing, never the live UI state.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/justapithecus/lode/lode"
	lodes3 "github.com/justapithecus/lode/lode/s3"

	"github.com/pithecene-io/corpus/types"
)

// DefaultDataset is the dataset ID used when none is configured.
const DefaultDataset = "corpus"

// Storage backends.
const (
	BackendFS     = "fs"
	BackendS3     = "s3"
	BackendMemory = "memory"
)

// ErrSessionNotFound is returned when no archived session has the ID.
var ErrSessionNotFound = errors.New("session not found in archive")

// Config selects and configures a storage backend.
type Config struct {
	// Dataset is the Lode dataset ID (default "corpus").
	Dataset string
	// Backend is fs or s3.
	Backend string
	// Path is the root directory (fs) or "bucket/prefix" (s3).
	Path string
	// Region is the AWS region (s3, optional).
	Region string
	// Endpoint is a custom S3 endpoint for S3-compatible providers.
	Endpoint string
	// UsePathStyle forces path-style S3 addressing.
	UsePathStyle bool
}

// Validate checks that the backend is known and has a path.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendFS, BackendS3:
	case "":
		return errors.New("archive backend is required (fs or s3)")
	default:
		return fmt.Errorf("invalid archive backend: %q (must be fs or s3)", c.Backend)
	}
	if c.Path == "" {
		return fmt.Errorf("archive path is required for %s backend", c.Backend)
	}
	if c.Backend == BackendS3 {
		if bucket, _ := ParseS3Path(c.Path); bucket == "" {
			return errors.New("S3 bucket is required")
		}
	}
	return nil
}

// ParseS3Path parses a path in format "bucket/prefix" or "bucket".
func ParseS3Path(path string) (bucket, prefix string) {
	bucket, prefix, _ = strings.Cut(path, "/")
	return bucket, prefix
}

// Archive writes and lists archived sessions.
type Archive struct {
	dataset lode.Dataset
	backend string
	root    string
}

// Open creates an archive for the configured backend.
// S3 uses the AWS SDK default credential chain.
func Open(ctx context.Context, cfg Config) (*Archive, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var factory lode.StoreFactory
	switch cfg.Backend {
	case BackendFS:
		if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
			return nil, wrapError("open", cfg.Path, err)
		}
		factory = lode.NewFSFactory(cfg.Path)
	case BackendS3:
		f, err := s3Factory(ctx, cfg)
		if err != nil {
			return nil, err
		}
		factory = f
	}

	a, err := NewWithFactory(cfg.Dataset, cfg.Backend, factory)
	if err != nil {
		return nil, err
	}
	a.root = cfg.Path
	return a, nil
}

// NewWithFactory creates an archive over a custom store factory.
// Use a shared lode.NewMemory() store for tests.
func NewWithFactory(dataset, backend string, factory lode.StoreFactory) (*Archive, error) {
	if dataset == "" {
		dataset = DefaultDataset
	}
	ds, err := lode.NewDataset(
		lode.DatasetID(dataset),
		factory,
		lode.WithHiveLayout("day", "session_id", "record_kind"),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
	if err != nil {
		return nil, wrapError("init", dataset, err)
	}
	return &Archive{dataset: ds, backend: backend}, nil
}

func s3Factory(ctx context.Context, cfg Config) (lode.StoreFactory, error) {
	bucket, prefix := ParseS3Path(cfg.Path)

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, wrapError("init", cfg.Path, fmt.Errorf("failed to load AWS config: %w", err))
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		endpoint := cfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = &endpoint
		})
	}
	if cfg.UsePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	client := s3.NewFromConfig(awsConfig, s3Opts...)

	return func() (lode.Store, error) {
		return lodes3.New(client, lodes3.Config{Bucket: bucket, Prefix: prefix})
	}, nil
}

// Backend returns the backend name, for metrics dimensions.
func (a *Archive) Backend() string {
	return a.backend
}

// ArchiveSession writes one snapshot for the session.
func (a *Archive) ArchiveSession(ctx context.Context, summary *types.SessionSummary) error {
	if summary == nil || summary.Info.ID == "" {
		return errors.New("archive: session summary without ID")
	}
	path := fmt.Sprintf("day=%s/session_id=%s", sessionDay(summary.Info), summary.Info.ID)
	if _, err := a.dataset.Write(ctx, toRecordMaps(summary), lode.Metadata{}); err != nil {
		return wrapError("write", path, err)
	}
	return nil
}

// ListSessions returns the summaries of all archived sessions, newest
// first. A non-empty day restricts the listing to that day (YYYY-MM-DD).
func (a *Archive) ListSessions(ctx context.Context, day string) ([]SessionSummaryRecord, error) {
	snapshots, err := a.dataset.Snapshots(ctx)
	if err != nil {
		return nil, wrapError("list", a.root, err)
	}

	var out []SessionSummaryRecord
	for _, snap := range snapshots {
		if !snapshotHasPartition(snap, "record_kind", RecordKindSessionSummary) {
			continue
		}
		if day != "" && !snapshotHasPartition(snap, "day", day) {
			continue
		}

		records, err := a.readKind(ctx, snap, RecordKindSessionSummary)
		if err != nil {
			return nil, err
		}
		for _, raw := range records {
			var rec SessionSummaryRecord
			if err := decodeRecord(raw, &rec); err != nil {
				return nil, wrapError("read", snapshotPath(snap), err)
			}
			out = append(out, rec)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt > out[j].StartedAt
	})
	return out, nil
}

// Session returns the summary and transcript entries of one session.
func (a *Archive) Session(ctx context.Context, sessionID string) (*SessionSummaryRecord, []TranscriptEntryRecord, error) {
	snapshots, err := a.dataset.Snapshots(ctx)
	if err != nil {
		return nil, nil, wrapError("list", a.root, err)
	}

	for _, snap := range snapshots {
		if !snapshotHasPartition(snap, "session_id", sessionID) {
			continue
		}

		data, err := a.dataset.Read(ctx, snap.ID)
		if err != nil {
			return nil, nil, wrapError("read", snapshotPath(snap), err)
		}

		var summary *SessionSummaryRecord
		var entries []TranscriptEntryRecord
		for _, item := range data {
			raw, ok := item.(map[string]any)
			if !ok || raw["session_id"] != sessionID {
				continue
			}
			switch raw["record_kind"] {
			case RecordKindSessionSummary:
				summary = &SessionSummaryRecord{}
				if err := decodeRecord(raw, summary); err != nil {
					return nil, nil, wrapError("read", snapshotPath(snap), err)
				}
			case RecordKindTranscriptEntry:
				var e TranscriptEntryRecord
				if err := decodeRecord(raw, &e); err != nil {
					return nil, nil, wrapError("read", snapshotPath(snap), err)
				}
				entries = append(entries, e)
			}
		}
		if summary == nil {
			continue
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })
		return summary, entries, nil
	}

	return nil, nil, ErrSessionNotFound
}

// readKind reads a snapshot and keeps records of one kind.
func (a *Archive) readKind(ctx context.Context, snap *lode.DatasetSnapshot, kind string) ([]map[string]any, error) {
	data, err := a.dataset.Read(ctx, snap.ID)
	if err != nil {
		return nil, wrapError("read", snapshotPath(snap), err)
	}
	var out []map[string]any
	for _, item := range data {
		raw, ok := item.(map[string]any)
		if !ok || raw["record_kind"] != kind {
			continue
		}
		out = append(out, raw)
	}
	return out, nil
}

func snapshotPath(snap *lode.DatasetSnapshot) string {
	return fmt.Sprintf("snapshot/%s", snap.ID)
}

// snapshotHasPartition checks whether any file of the snapshot lies in
// the exact key=value partition. Segments are matched whole so that
// session_id=a never matches session_id=ab.
func snapshotHasPartition(snap *lode.DatasetSnapshot, key, value string) bool {
	segment := key + "=" + value
	for _, f := range snap.Manifest.Files {
		for _, part := range strings.Split(f.Path, "/") {
			if part == segment {
				return true
			}
		}
	}
	return false
}
