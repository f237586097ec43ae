package cmd

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/corpus/adapter"
	"github.com/pithecene-io/corpus/adapter/redis"
	"github.com/pithecene-io/corpus/adapter/webhook"
	"github.com/pithecene-io/corpus/archive"
	"github.com/pithecene-io/corpus/cli/config"
	"github.com/pithecene-io/corpus/frame"
	"github.com/pithecene-io/corpus/log"
	"github.com/pithecene-io/corpus/transport"
)

// settings is the merged view of flags and config file for one command.
type settings struct {
	baseURL   string
	framing   frame.Framing
	timeout   time.Duration
	headers   map[string]string
	logLevel  log.Level
	record    string
	endpoint  string
	maxUpload int64
	archive   archive.Config
	adapter   adapterChoice
}

// adapterChoice holds the resolved notifier configuration.
type adapterChoice struct {
	kind    string
	url     string
	channel string
	headers map[string]string
	timeout time.Duration
	retries *int
}

// loadConfig loads the env file and the config file. It returns nil
// without error when no --config is given and none is discovered.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if err := config.LoadEnvFile(c.String("env-file")); err != nil {
		return nil, err
	}

	path := c.String("config")
	if path == "" {
		path = config.Discover(".")
	}
	if path == "" {
		return nil, nil
	}
	return config.Load(path)
}

// configVal returns fn(cfg), or the zero value when cfg is nil.
func configVal[T any](cfg *config.Config, fn func(*config.Config) T) T {
	var zero T
	if cfg == nil {
		return zero
	}
	return fn(cfg)
}

// resolveString returns the CLI value when set, else the config value
// when non-empty, else the flag default.
func resolveString(c *cli.Context, name, cfgVal string) string {
	if c.IsSet(name) {
		return c.String(name)
	}
	if cfgVal != "" {
		return cfgVal
	}
	return c.String(name)
}

func resolveInt64(c *cli.Context, name string, cfgVal int64) int64 {
	if c.IsSet(name) {
		return c.Int64(name)
	}
	if cfgVal != 0 {
		return cfgVal
	}
	return c.Int64(name)
}

func resolveBool(c *cli.Context, name string, cfgVal bool) bool {
	if c.IsSet(name) {
		return c.Bool(name)
	}
	return cfgVal || c.Bool(name)
}

func resolveDuration(c *cli.Context, name string, cfgVal time.Duration) time.Duration {
	if c.IsSet(name) {
		return c.Duration(name)
	}
	if cfgVal != 0 {
		return cfgVal
	}
	return c.Duration(name)
}

// parseHeaders parses Key=Value pairs.
func parseHeaders(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid header %q (expected Key=Value)", p)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

// resolveLogLevel resolves --log-level against the config file.
func resolveLogLevel(c *cli.Context, cfg *config.Config) (log.Level, error) {
	level := resolveString(c, "log-level", configVal(cfg, func(c *config.Config) string { return c.LogLevel }))
	return log.ParseLevel(level)
}

// resolveArchive resolves the archive flags against the config file.
// An empty backend disables archiving.
func resolveArchive(c *cli.Context, cfg *config.Config) (archive.Config, error) {
	a := configVal(cfg, func(c *config.Config) config.ArchiveConfig { return c.Archive })
	ac := archive.Config{
		Dataset:      a.Dataset,
		Backend:      resolveString(c, "archive-backend", a.Backend),
		Path:         resolveString(c, "archive-path", a.Path),
		Region:       resolveString(c, "archive-region", a.Region),
		Endpoint:     resolveString(c, "archive-endpoint", a.Endpoint),
		UsePathStyle: resolveBool(c, "archive-s3-path-style", a.S3PathStyle),
	}
	if ac.Backend == "" {
		return ac, nil
	}
	if err := ac.Validate(); err != nil {
		return ac, fmt.Errorf("invalid archive config: %w", err)
	}
	return ac, nil
}

// resolveSettings merges the session flags with the config file.
// endpointFlag names the command's endpoint flag; cfgEndpoint is the
// matching config value.
func resolveSettings(c *cli.Context, cfg *config.Config, endpointFlag, cfgEndpoint string) (settings, error) {
	var s settings
	var err error

	s.baseURL = resolveString(c, "base-url", configVal(cfg, func(c *config.Config) string { return c.BaseURL }))
	s.endpoint = resolveString(c, endpointFlag, cfgEndpoint)
	s.record = resolveString(c, "record", configVal(cfg, func(c *config.Config) string { return c.Record }))
	s.timeout = resolveDuration(c, "timeout", configVal(cfg, func(c *config.Config) time.Duration { return c.Timeout.Duration }))

	s.framing, err = frame.ParseFraming(resolveString(c, "framing", configVal(cfg, func(c *config.Config) string { return c.Framing })))
	if err != nil {
		return s, err
	}

	s.logLevel, err = resolveLogLevel(c, cfg)
	if err != nil {
		return s, err
	}

	s.maxUpload = configVal(cfg, func(c *config.Config) int64 { return c.MaxUploadBytes })
	if hasFlag(c, "max-bytes") {
		s.maxUpload = resolveInt64(c, "max-bytes", s.maxUpload)
	}
	if s.maxUpload == 0 {
		s.maxUpload = transport.DefaultMaxUploadBytes
	}
	if s.maxUpload < 0 {
		return s, fmt.Errorf("max upload bytes must be > 0, got %d", s.maxUpload)
	}

	flagHeaders, err := parseHeaders(c.StringSlice("header"))
	if err != nil {
		return s, err
	}
	s.headers = make(map[string]string)
	maps.Copy(s.headers, configVal(cfg, func(c *config.Config) map[string]string { return c.Headers }))
	maps.Copy(s.headers, flagHeaders)

	s.archive, err = resolveArchive(c, cfg)
	if err != nil {
		return s, err
	}

	ad := configVal(cfg, func(c *config.Config) config.AdapterConfig { return c.Adapter })
	s.adapter = adapterChoice{
		kind:    resolveString(c, "adapter", ad.Type),
		url:     resolveString(c, "adapter-url", ad.URL),
		channel: resolveString(c, "adapter-channel", ad.Channel),
		headers: ad.Headers,
		timeout: resolveDuration(c, "adapter-timeout", ad.Timeout.Duration),
		retries: ad.Retries,
	}
	if c.IsSet("adapter-retries") {
		n := c.Int("adapter-retries")
		s.adapter.retries = &n
	}
	if err := validateAdapterChoice(s.adapter); err != nil {
		return s, err
	}

	return s, nil
}

func hasFlag(c *cli.Context, name string) bool {
	if c.Command == nil {
		return false
	}
	for _, f := range c.Command.Flags {
		for _, n := range f.Names() {
			if n == name {
				return true
			}
		}
	}
	return false
}

func validateAdapterChoice(a adapterChoice) error {
	switch a.kind {
	case "":
		if a.url != "" {
			return fmt.Errorf("--adapter-url set without --adapter (webhook or redis)")
		}
		return nil
	case "webhook", "redis":
		if a.url == "" {
			return fmt.Errorf("--adapter-url is required for %s adapter", a.kind)
		}
	default:
		return fmt.Errorf("invalid adapter: %q (must be webhook or redis)", a.kind)
	}
	if a.retries != nil && *a.retries < 0 {
		return fmt.Errorf("adapter retries must be >= 0, got %d", *a.retries)
	}
	return nil
}

// buildNotifier creates the notifier for the adapter choice, or nil when
// no adapter is configured.
func buildNotifier(a adapterChoice) (*adapter.Notifier, error) {
	switch a.kind {
	case "":
		return nil, nil
	case "webhook":
		retries := webhook.DefaultRetries
		if a.retries != nil {
			retries = *a.retries
		}
		ad, err := webhook.New(webhook.Config{
			URL:     a.url,
			Headers: a.headers,
			Timeout: a.timeout,
			Retries: retries,
		})
		if err != nil {
			return nil, err
		}
		return adapter.NewNotifier(ad), nil
	case "redis":
		retries := redis.DefaultRetries
		if a.retries != nil {
			retries = *a.retries
		}
		ad, err := redis.New(redis.Config{
			URL:     a.url,
			Channel: a.channel,
			Timeout: a.timeout,
			Retries: retries,
		})
		if err != nil {
			return nil, err
		}
		return adapter.NewNotifier(ad), nil
	default:
		return nil, fmt.Errorf("invalid adapter: %q", a.kind)
	}
}

// openArchive opens the configured archive, or returns nil when
// archiving is disabled.
func openArchive(ctx context.Context, cfg archive.Config) (*archive.Archive, error) {
	if cfg.Backend == "" {
		return nil, nil
	}
	return archive.Open(ctx, cfg)
}
