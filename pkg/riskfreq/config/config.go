package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/cognicore/riskfreq/pkg/riskfreq/internalerr"
	"github.com/cognicore/riskfreq/pkg/riskfreq/normalize"
)

// Config is the full run configuration. Files may be YAML or TOML; the
// extension decides.
type Config struct {
	Section   SectionConfig   `yaml:"section" toml:"section"`
	Filter    FilterConfig    `yaml:"filter" toml:"filter"`
	Normalize NormalizeConfig `yaml:"normalize" toml:"normalize"`
	Source    SourceConfig    `yaml:"source" toml:"source"`
	Store     StoreConfig     `yaml:"store" toml:"store"`
	Report    ReportConfig    `yaml:"report" toml:"report"`
	Log       LogConfig       `yaml:"log" toml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics" toml:"metrics"`

	// FirstYear is assigned to the first filing without an explicit year;
	// each later filing gets the next year.
	FirstYear   int            `yaml:"first_year" toml:"first_year"`
	FilingsFile string         `yaml:"filings_file,omitempty" toml:"filings_file,omitempty"`
	Filings     []FilingConfig `yaml:"filings,omitempty" toml:"filings,omitempty"`
}

// SectionConfig names the markers delimiting the section.
type SectionConfig struct {
	Heading   string `yaml:"heading" toml:"heading"`
	EndMarker string `yaml:"end_marker" toml:"end_marker"`
}

// FilterConfig controls which words are counted.
type FilterConfig struct {
	MinLength int `yaml:"min_length" toml:"min_length"`

	// Stoplist is a YAML file with a terms list. Stoplist and Stopwords
	// together replace the built-in list when either is set.
	Stoplist       string   `yaml:"stoplist,omitempty" toml:"stoplist,omitempty"`
	Stopwords      []string `yaml:"stopwords,omitempty" toml:"stopwords,omitempty"`
	ExtraStopwords []string `yaml:"extra_stopwords,omitempty" toml:"extra_stopwords,omitempty"`

	Lexicon  string `yaml:"lexicon,omitempty" toml:"lexicon,omitempty"`
	Stemming bool   `yaml:"stemming" toml:"stemming"`
}

// NormalizeConfig controls line normalization.
type NormalizeConfig struct {
	ASCII bool `yaml:"ascii" toml:"ascii"`
}

// SourceConfig controls document fetching.
type SourceConfig struct {
	Timeout     Duration `yaml:"timeout" toml:"timeout"`
	Retries     int      `yaml:"retries" toml:"retries"`
	UserAgent   string   `yaml:"user_agent" toml:"user_agent"`
	Concurrency int      `yaml:"concurrency" toml:"concurrency"`
	CacheDir    string   `yaml:"cache_dir,omitempty" toml:"cache_dir,omitempty"`
	RedisAddr   string   `yaml:"redis_addr,omitempty" toml:"redis_addr,omitempty"`
	RedisTTL    Duration `yaml:"redis_ttl" toml:"redis_ttl"`
}

// StoreConfig selects where rankings are persisted.
type StoreConfig struct {
	Driver  string `yaml:"driver" toml:"driver"`
	Path    string `yaml:"path,omitempty" toml:"path,omitempty"`
	DSN     string `yaml:"dsn,omitempty" toml:"dsn,omitempty"`
	CSVDir  string `yaml:"csv_dir,omitempty" toml:"csv_dir,omitempty"`
	CSVFile string `yaml:"csv_file,omitempty" toml:"csv_file,omitempty"`
}

// ReportConfig controls the preview table.
type ReportConfig struct {
	TopN int `yaml:"top_n" toml:"top_n"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// MetricsConfig controls run metrics output.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty" toml:"textfile,omitempty"`
}

// FilingConfig is one filing in the run list. Exactly one of URL and Path is set.
type FilingConfig struct {
	Year int    `yaml:"year,omitempty" toml:"year,omitempty"`
	URL  string `yaml:"url,omitempty" toml:"url,omitempty"`
	Path string `yaml:"path,omitempty" toml:"path,omitempty"`
}

// Location returns the URL or path of the filing.
func (f FilingConfig) Location() string {
	if f.URL != "" {
		return f.URL
	}
	return f.Path
}

// Duration is a time.Duration written as a string like "30s" in config files.
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Section: SectionConfig{
			Heading:   "Risk Factors",
			EndMarker: "Item 1B",
		},
		Filter: FilterConfig{MinLength: 3},
		Source: SourceConfig{
			Timeout:     Duration(30 * time.Second),
			Retries:     3,
			UserAgent:   "riskfreq/1.0",
			Concurrency: 4,
			RedisTTL:    Duration(24 * time.Hour),
		},
		Store:     StoreConfig{Driver: "sqlite", Path: "riskfreq.db"},
		Report:    ReportConfig{TopN: 10},
		Log:       LogConfig{Level: "info", Format: "auto"},
		FirstYear: 2007,
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", internalerr.ErrInvalidConfig, path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", internalerr.ErrInvalidConfig, path, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported config extension %q", internalerr.ErrInvalidConfig, ext)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the run cannot work with.
func (c *Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", internalerr.ErrInvalidConfig, fmt.Sprintf(format, args...))
	}

	n := normalize.New(normalize.Options{ASCII: c.Normalize.ASCII})
	if h, _ := n.Line(c.Section.Heading); h == "" {
		return invalid("section.heading %q is empty after normalization", c.Section.Heading)
	}
	if e, _ := n.Line(c.Section.EndMarker); e == "" {
		return invalid("section.end_marker %q is empty after normalization", c.Section.EndMarker)
	}
	if c.Filter.MinLength < 1 {
		return invalid("filter.min_length must be at least 1, got %d", c.Filter.MinLength)
	}
	if c.FirstYear <= 0 {
		return invalid("first_year must be positive, got %d", c.FirstYear)
	}
	if c.Report.TopN < 0 {
		return invalid("report.top_n must not be negative")
	}
	if c.Source.Retries < 0 {
		return invalid("source.retries must not be negative")
	}
	if c.Source.Concurrency < 1 {
		return invalid("source.concurrency must be at least 1")
	}

	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			return invalid("store.path is required for sqlite")
		}
	case "postgres":
		if c.Store.DSN == "" {
			return invalid("store.dsn is required for postgres")
		}
	case "none":
	default:
		return invalid("unknown store.driver %q", c.Store.Driver)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return invalid("unknown log.level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "auto", "text", "json":
	default:
		return invalid("unknown log.format %q", c.Log.Format)
	}

	for i, f := range c.Filings {
		if (f.URL == "") == (f.Path == "") {
			return invalid("filings[%d]: exactly one of url and path must be set", i)
		}
		if f.Year < 0 {
			return invalid("filings[%d]: negative year", i)
		}
	}
	return nil
}

// YAML renders the configuration as YAML.
func (c *Config) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Stoplist is a stopword list file.
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file.
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}
