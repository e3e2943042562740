package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tdquery/tdquery-go/internal/query"
	"github.com/tdquery/tdquery-go/internal/td"
)

func load(t *testing.T, argv ...string) (*Config, error) {
	t.Helper()
	fs := pflag.NewFlagSet("tdquery", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(argv))
	return Load(fs, fs.Args())
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvAPIServer, "")

	cfg, err := load(t, "sample_datasets", "www_access")
	require.NoError(t, err)

	assert.Equal(t, "sample_datasets", cfg.Database)
	assert.Equal(t, "www_access", cfg.Request.Table)
	assert.Equal(t, "*", cfg.Request.Columns)
	assert.Equal(t, query.FormatTSV, cfg.Request.Format)
	assert.Equal(t, query.EnginePresto, cfg.Request.Engine)
	assert.Nil(t, cfg.Request.MinTime)
	assert.Nil(t, cfg.Request.MaxTime)
	assert.Nil(t, cfg.Request.Limit)
	assert.Equal(t, td.DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, td.DefaultPollInterval, cfg.PollInterval)
	assert.Zero(t, cfg.Timeout)
}

func TestLoadFlags(t *testing.T) {
	cfg, err := load(t,
		"-c", "a,b", "-f", "csv", "-m", "1000", "-M", "2000",
		"-e", "hive", "-l", "10", "-k", "1/abc",
		"--endpoint", "api.treasuredata.co.jp",
		"--poll-interval", "1s", "--timeout", "10m",
		"db", "tbl")
	require.NoError(t, err)

	assert.Equal(t, "a,b", cfg.Request.Columns)
	assert.Equal(t, query.FormatCSV, cfg.Request.Format)
	assert.Equal(t, query.EngineHive, cfg.Request.Engine)
	require.NotNil(t, cfg.Request.MinTime)
	assert.Equal(t, int64(1000), *cfg.Request.MinTime)
	require.NotNil(t, cfg.Request.MaxTime)
	assert.Equal(t, int64(2000), *cfg.Request.MaxTime)
	require.NotNil(t, cfg.Request.Limit)
	assert.Equal(t, 10, *cfg.Request.Limit)
	assert.Equal(t, "1/abc", cfg.APIKey)
	assert.Equal(t, "api.treasuredata.co.jp", cfg.Endpoint)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 10*time.Minute, cfg.Timeout)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv(EnvAPIKey, "1/from-env")
	t.Setenv(EnvAPIServer, "https://api.example.test")

	cfg, err := load(t, "db", "tbl")
	require.NoError(t, err)
	assert.Equal(t, "1/from-env", cfg.APIKey)
	assert.Equal(t, "https://api.example.test", cfg.Endpoint)

	cfg, err = load(t, "-k", "1/from-flag", "db", "tbl")
	require.NoError(t, err)
	assert.Equal(t, "1/from-flag", cfg.APIKey, "flag must win over environment")
}

func TestLoadConfigFile(t *testing.T) {
	t.Setenv(EnvAPIKey, "")
	t.Setenv(EnvAPIServer, "https://api.from-env.test")

	path := filepath.Join(t.TempDir(), "tdquery.yaml")
	content := "key: 1/from-file\nendpoint: https://api.from-file.test\nengine: hive\nlimit: 5\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := load(t, "--config", path, "db", "tbl")
	require.NoError(t, err)
	assert.Equal(t, "1/from-file", cfg.APIKey)
	assert.Equal(t, "https://api.from-env.test", cfg.Endpoint, "environment must win over config file")
	assert.Equal(t, query.EngineHive, cfg.Request.Engine)
	require.NotNil(t, cfg.Request.Limit)
	assert.Equal(t, 5, *cfg.Request.Limit)
}

func TestLoadFormatFollowsOutput(t *testing.T) {
	cfg, err := load(t, "-o", "rows.csv.gz", "db", "tbl")
	require.NoError(t, err)
	assert.Equal(t, query.FormatCSV, cfg.Request.Format)

	cfg, err = load(t, "-o", "rows.csv", "-f", "tsv", "db", "tbl")
	require.NoError(t, err)
	assert.Equal(t, query.FormatTSV, cfg.Request.Format, "explicit format must win")

	cfg, err = load(t, "-o", "rows.txt", "db", "tbl")
	require.NoError(t, err)
	assert.Equal(t, query.FormatTSV, cfg.Request.Format)
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		argv []string
	}{
		{"missing table", []string{"db"}},
		{"bad format", []string{"-f", "json", "db", "tbl"}},
		{"bad engine", []string{"-e", "spark", "db", "tbl"}},
		{"bad min", []string{"-m", "yesterday", "db", "tbl"}},
		{"min after max", []string{"-m", "2000", "-M", "1000", "db", "tbl"}},
		{"negative limit", []string{"-l", "-5", "db", "tbl"}},
		{"zero limit", []string{"-l", "0", "db", "tbl"}},
		{"bad columns", []string{"-c", "a:b", "db", "tbl"}},
		{"zero poll interval", []string{"--poll-interval", "0s", "db", "tbl"}},
		{"missing config file", []string{"--config", "/nonexistent/tdquery.yaml", "db", "tbl"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.argv...)
			assert.Error(t, err)
		})
	}
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		Database:     "db",
		Request:      query.Request{Table: "tbl", Columns: "*"},
		PollInterval: time.Second,
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty database", func(c *Config) { c.Database = "" }, true},
		{"empty table", func(c *Config) { c.Request.Table = " " }, true},
		{"empty columns", func(c *Config) { c.Request.Columns = "" }, true},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
