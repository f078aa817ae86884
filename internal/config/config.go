package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"gopkg.in/yaml.v3"
)

// TimestampConfig controls the optional per-line timestamp extraction.
type TimestampConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Regex      string `yaml:"regex"`
	Layout     string `yaml:"layout"`
	AssumeZone string `yaml:"assumeZone"`
}

// OutputConfig selects the record sink. Host/Port/Mode are only read by
// the gelf sink.
type OutputConfig struct {
	Format string `yaml:"format"`
	Path   string `yaml:"path"`
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Mode   string `yaml:"mode"`
}

// SystemConfig holds system-wide configuration
type SystemConfig struct {
	LogLevel string `yaml:"logLevel"`
	LogFile  string `yaml:"logFile"`
}

// Config represents the complete configuration
type Config struct {
	System        SystemConfig    `yaml:"system"`
	Include       []string        `yaml:"include"`
	Exclude       []string        `yaml:"exclude"`
	Encoding      string          `yaml:"encoding"`
	IgnoreCase    bool            `yaml:"ignoreCase"`
	Keywords      []string        `yaml:"keywords"`
	Regexes       []string        `yaml:"regexes"`
	MatchMode     string          `yaml:"matchMode"`
	Timestamp     TimestampConfig `yaml:"timestamp"`
	FieldPatterns []string        `yaml:"fieldPatterns"`
	Output        OutputConfig    `yaml:"output"`
	Follow        bool            `yaml:"follow"`
}

// Overrides carries the CLI flag surface that is merged on top of a loaded
// config file. List values append, scalar values replace when set.
type Overrides struct {
	Include    []string
	Exclude    []string
	Keywords   []string
	Regexes    []string
	MatchMode  string
	Format     string
	Output     string
	Encoding   string
	IgnoreCase bool
	Follow     bool
}

// Load reads a YAML config file, expanding environment variables in the
// raw document first. An empty path yields a default config.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		expandedData := os.ExpandEnv(string(data))

		if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if cfg.Encoding == "" {
		cfg.Encoding = "utf-8"
	}
	if cfg.MatchMode == "" {
		cfg.MatchMode = "any"
	}
	cfg.MatchMode = strings.ToLower(cfg.MatchMode)

	return cfg, nil
}

// Apply merges CLI overrides into the config.
func (c *Config) Apply(o Overrides) {
	c.Include = append(c.Include, o.Include...)
	c.Exclude = append(c.Exclude, o.Exclude...)
	c.Keywords = append(c.Keywords, o.Keywords...)
	c.Regexes = append(c.Regexes, o.Regexes...)
	if o.MatchMode != "" {
		c.MatchMode = strings.ToLower(o.MatchMode)
	}
	if o.Format != "" {
		c.Output.Format = o.Format
	}
	if o.Output != "" {
		c.Output.Path = o.Output
	}
	if o.Encoding != "" {
		c.Encoding = o.Encoding
	}
	if o.IgnoreCase {
		c.IgnoreCase = true
	}
	if o.Follow {
		c.Follow = true
	}
}

func (c *SystemConfig) GetLogLevel() logrus.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "TRACE":
		return logrus.TraceLevel
	case "DEBUG":
		return logrus.DebugLevel
	case "WARNING":
		return logrus.WarnLevel
	case "ERROR":
		return logrus.ErrorLevel
	default:
		// Default LogLevel Info
		return logrus.InfoLevel
	}
}

// SetupLogging configures the process-wide logrus logger: JSON formatter,
// stderr plus an optional log file. Diagnostics never share a stream with
// record output.
func (c *Config) SetupLogging() error {
	writers := []io.Writer{os.Stderr}

	if c.System.LogFile != "" {
		file, err := os.OpenFile(c.System.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		writers = append(writers, file)
	}

	logrus.SetLevel(c.System.GetLogLevel())
	logrus.SetOutput(io.MultiWriter(writers...))
	logrus.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})

	return nil
}

var windowLayouts = []string{"2006-01-02", "2006-01-02 15:04", "2006-01-02 15:04:05"}

// ParseTime parses a --since/--until value in one of the accepted layouts,
// interpreted in the local zone.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range windowLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("could not parse datetime: %q", s)
}
