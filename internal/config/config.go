// Package config provides configuration types and parsing for tdquery.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tdquery/tdquery-go/internal/exporter"
	"github.com/tdquery/tdquery-go/internal/query"
	"github.com/tdquery/tdquery-go/internal/td"
)

// Environment variables read when the matching flag is not set.
const (
	EnvAPIKey    = "TD_API_KEY"
	EnvAPIServer = "TD_API_SERVER"
)

// Config holds all configuration for one invocation.
// It is built once by Load and passed down explicitly.
type Config struct {
	APIKey   string
	Endpoint string

	Database string
	Request  query.Request

	OutputFile   string
	SQLitePath   string // Archive fetched rows into this SQLite file
	PollInterval time.Duration
	Timeout      time.Duration // Zero waits forever
	LogLevel     string
	NoColor      bool
}

// RegisterFlags adds every configuration flag to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP("column", "c", "*", "List of columns to be returned, comma-separated")
	fs.StringP("format", "f", string(query.FormatTSV), "Output format for query result: 'csv' or 'tsv' (default follows --output extension)")
	fs.StringP("min", "m", query.Unbounded, "Minimum timestamp in UNIX timestamp format")
	fs.StringP("max", "M", query.Unbounded, "Maximum timestamp in UNIX timestamp format")
	fs.StringP("engine", "e", string(query.EnginePresto), "Query engine to be used: 'hive' or 'presto'")
	fs.IntP("limit", "l", 0, "Limit the number of rows to be returned")
	fs.StringP("key", "k", "", "Treasure Data API key (default: $"+EnvAPIKey+")")
	fs.String("endpoint", td.DefaultEndpoint, "Treasure Data API endpoint (default: $"+EnvAPIServer+")")
	fs.StringP("output", "o", "", "Write rows to this file instead of stdout (.gz compresses)")
	fs.String("sqlite", "", "Also load the fetched rows into this SQLite database")
	fs.Duration("poll-interval", td.DefaultPollInterval, "Interval between job status checks")
	fs.Duration("timeout", 0, "Give up waiting for the job after this long (0 waits forever)")
	fs.String("config", "", "Config file (yaml, toml or json) using the flag names as keys")
	fs.String("log-level", "warn", "Diagnostic log level: debug, info, warn, error")
	fs.Bool("no-color", false, "Disable colored output")
}

// Load resolves configuration from flags, environment and an optional config file,
// in that order of precedence. args are the positional database and table names.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("expected database and table names, got %d argument(s)", len(args))
	}

	v := viper.New()
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}
	_ = v.BindEnv("key", EnvAPIKey)
	_ = v.BindEnv("endpoint", EnvAPIServer)

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	cfg := &Config{
		APIKey:       strings.TrimSpace(v.GetString("key")),
		Endpoint:     v.GetString("endpoint"),
		Database:     args[0],
		OutputFile:   v.GetString("output"),
		SQLitePath:   v.GetString("sqlite"),
		PollInterval: v.GetDuration("poll-interval"),
		Timeout:      v.GetDuration("timeout"),
		LogLevel:     v.GetString("log-level"),
		NoColor:      v.GetBool("no-color"),
	}

	req, err := parseRequest(v, args[1])
	if err != nil {
		return nil, err
	}
	cfg.Request = *req

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseRequest(v *viper.Viper, table string) (*query.Request, error) {
	engine, err := query.ParseEngine(v.GetString("engine"))
	if err != nil {
		return nil, err
	}
	format, err := query.ParseFormat(v.GetString("format"))
	if err != nil {
		return nil, err
	}
	if !v.IsSet("format") {
		if detected, ok := exporter.DetectOutputFormat(v.GetString("output")); ok {
			format = detected
		}
	}
	minTime, err := query.ParseTimeBound("min", v.GetString("min"))
	if err != nil {
		return nil, err
	}
	maxTime, err := query.ParseTimeBound("max", v.GetString("max"))
	if err != nil {
		return nil, err
	}

	req := &query.Request{
		Table:   table,
		Columns: strings.TrimSpace(v.GetString("column")),
		MinTime: minTime,
		MaxTime: maxTime,
		Engine:  engine,
		Format:  format,
	}
	if v.IsSet("limit") {
		limit := v.GetInt("limit")
		req.Limit = &limit
	}
	return req, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database) == "" {
		return errors.New("database name must not be empty")
	}
	if strings.TrimSpace(c.Request.Table) == "" {
		return errors.New("table name must not be empty")
	}
	if c.Request.Columns == "" {
		return &query.ParamError{Param: "column", Message: "must not be empty"}
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.PollInterval)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	return c.Request.Validate()
}
