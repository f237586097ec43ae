package config

import (
	"fmt"
	"time"
)

// Config is the on-disk client configuration (corpus.yaml or corpus.toml).
// Every field is optional; CLI flags override what is set here.
type Config struct {
	BaseURL        string            `yaml:"base_url" toml:"base_url"`
	ChatEndpoint   string            `yaml:"chat_endpoint" toml:"chat_endpoint"`
	UploadEndpoint string            `yaml:"upload_endpoint" toml:"upload_endpoint"`
	Framing        string            `yaml:"framing" toml:"framing"`
	Timeout        Duration          `yaml:"timeout" toml:"timeout"`
	MaxUploadBytes int64             `yaml:"max_upload_bytes" toml:"max_upload_bytes"`
	Headers        map[string]string `yaml:"headers" toml:"headers"`
	LogLevel       string            `yaml:"log_level" toml:"log_level"`
	Record         string            `yaml:"record" toml:"record"`
	Archive        ArchiveConfig     `yaml:"archive" toml:"archive"`
	Adapter        AdapterConfig     `yaml:"adapter" toml:"adapter"`
}

// ArchiveConfig selects where finished sessions are archived.
type ArchiveConfig struct {
	Dataset     string `yaml:"dataset" toml:"dataset"`
	Backend     string `yaml:"backend" toml:"backend"`
	Path        string `yaml:"path" toml:"path"`
	Region      string `yaml:"region" toml:"region"`
	Endpoint    string `yaml:"endpoint" toml:"endpoint"`
	S3PathStyle bool   `yaml:"s3_path_style" toml:"s3_path_style"`
}

// Enabled reports whether an archive backend was configured.
func (a ArchiveConfig) Enabled() bool {
	return a.Backend != ""
}

// AdapterConfig configures the session-completed notifier.
type AdapterConfig struct {
	Type    string            `yaml:"type" toml:"type"`
	URL     string            `yaml:"url" toml:"url"`
	Channel string            `yaml:"channel,omitempty" toml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty" toml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty" toml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty" toml:"retries,omitempty"`
}

// Enabled reports whether an adapter was configured.
func (a AdapterConfig) Enabled() bool {
	return a.Type != ""
}

// Duration wraps time.Duration for string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements the yaml.v3 obsolete Unmarshaler interface.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	return d.parse(s)
}

// UnmarshalText lets go-toml decode durations from strings.
func (d *Duration) UnmarshalText(text []byte) error {
	return d.parse(string(text))
}

func (d *Duration) parse(s string) error {
	if s == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}
