// Package cli provides the command-line interface for tdquery.
package cli

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tdquery/tdquery-go/internal/config"
	"github.com/tdquery/tdquery-go/internal/database"
	"github.com/tdquery/tdquery-go/internal/exporter"
	"github.com/tdquery/tdquery-go/internal/importer"
	"github.com/tdquery/tdquery-go/internal/logging"
	"github.com/tdquery/tdquery-go/internal/td"
)

// newRootCmd builds the root command. loaded, if set, receives the resolved
// configuration before the run starts.
func newRootCmd(version string, loaded func(*config.Config)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tdquery [flags] <db_name> <table_name>",
		Short: "Query a Treasure Data table over a time range",
		Long: `tdquery - time-ranged queries against Treasure Data

Checks that the database and table exist, builds a query of the form

  select <columns> from <table> where td_time_range(time, <min>, <max>) [limit <n>] ;

runs it on Hive or Presto, waits for the job and streams the formatted rows
to stdout. The API key and endpoint default to $TD_API_KEY and $TD_API_SERVER.`,
		Example: `  # Everything from a table, tab separated
  tdquery sample_datasets www_access

  # Two columns within a time range as CSV, at most 100 rows, on Hive
  tdquery -c host,path -m 1412320845 -M 1412321000 -f csv -l 100 -e hive sample_datasets www_access

  # Compress the result and keep a local SQLite copy
  tdquery -o access.tsv.gz --sqlite archive.db sample_datasets www_access`,
		Version:       version,
		Args:          exactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Flags(), args)
		if err != nil {
			return err
		}
		if loaded != nil {
			loaded(cfg)
		}
		return run(cmd.Context(), cfg, cmd.Root().Version, cmd.OutOrStdout(), cmd.ErrOrStderr())
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})
	config.RegisterFlags(cmd.Flags())
	return cmd
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context, version string) int {
	var cfg *config.Config
	cmd := newRootCmd(version, func(c *config.Config) { cfg = c })
	err := cmd.ExecuteContext(ctx)
	return Report(cmd.ErrOrStderr(), err, noColor(cmd, cfg))
}

// noColor prefers the resolved configuration, which includes the config
// file, and falls back to the flag when loading never finished.
func noColor(cmd *cobra.Command, cfg *config.Config) bool {
	if cfg != nil {
		return cfg.NoColor
	}
	v, _ := cmd.Flags().GetBool("no-color")
	return v
}

func run(ctx context.Context, cfg *config.Config, version string, stdout, stderr io.Writer) error {
	styler := NewStyler(stderr, cfg.NoColor)
	logger := logging.New(logging.Config{
		Level:   cfg.LogLevel,
		Pretty:  true,
		NoColor: !styler.Enabled(),
		Output:  stderr,
	})

	q, err := cfg.Request.Build()
	if err != nil {
		return err
	}

	client, err := td.NewClient(cfg.APIKey, cfg.Endpoint,
		td.WithLogger(logger),
		td.WithUserAgent("tdquery/"+version))
	if err != nil {
		return err
	}
	logger.Debug().Str("endpoint", client.Endpoint()).Msg("using endpoint")

	if err := checkDatabaseExists(ctx, client, cfg.Database); err != nil {
		return err
	}
	if err := checkTableExists(ctx, client, cfg.Database, cfg.Request.Table); err != nil {
		return err
	}

	job, err := client.Query(ctx, cfg.Database, q, cfg.Request.Engine)
	if err != nil {
		return fmt.Errorf("failed to issue query: %w", err)
	}
	styler.Printf(StyleBold, "Running query: %s", job.Query)
	logger.Info().Str("job_id", job.ID).Str("engine", string(job.Type)).Msg("job issued")

	if err := waitForJob(ctx, cfg, job, stderr, styler); err != nil {
		return err
	}

	result, err := fetchResults(ctx, cfg, client, job, stdout, styler, logger)
	if err != nil {
		return err
	}
	styler.Printf(StyleSuccess, "✓ Fetched %s rows", fmtNum(int64(result.RowCount)))
	return nil
}

func checkDatabaseExists(ctx context.Context, client *td.Client, name string) error {
	databases, err := client.ListDatabases(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(databases, name) {
		return &missingResourceError{kind: "DB", name: name}
	}
	return nil
}

func checkTableExists(ctx context.Context, client *td.Client, database, name string) error {
	tables, err := client.ListTables(ctx, database)
	if err != nil {
		return err
	}
	if !slices.Contains(tables, name) {
		return &missingResourceError{kind: "Table", name: name}
	}
	return nil
}

// waitForJob blocks until job finishes, the timeout expires or ctx is cancelled.
// A finished job that did not succeed is returned as *td.JobFailedError.
func waitForJob(ctx context.Context, cfg *config.Config, job *td.Job, stderr io.Writer, styler *Styler) error {
	waitCtx := ctx
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	indicator := newWaitIndicator(stderr, styler)
	if err := job.Wait(waitCtx, cfg.PollInterval, indicator.Poll); err != nil {
		indicator.Abort()
		return err
	}
	indicator.Done(job)

	if !job.Succeeded() {
		return job.Failure(ctx)
	}
	return nil
}

func fetchResults(ctx context.Context, cfg *config.Config, client *td.Client, job *td.Job, stdout io.Writer, styler *Styler, logger zerolog.Logger) (*exporter.Result, error) {
	// The output file is created only once the archive is ready.
	var archive *importer.Archive
	if cfg.SQLitePath != "" {
		db, err := database.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		defer db.Close()

		columns := resultColumns(ctx, client, job, logger)
		archive, err = importer.NewArchive(db.DB, cfg.Request.Table, columns, cfg.Request.Format.Delimiter())
		if err != nil {
			return nil, err
		}
	}

	out := io.WriteCloser(nopCloser{stdout})
	if cfg.OutputFile != "" {
		f, err := exporter.OpenOutputFile(cfg.OutputFile)
		if err != nil {
			return nil, err
		}
		out = f
	}
	defer out.Close()

	rows, err := client.ResultFormatEach(ctx, job.ID, cfg.Request.Format)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch results of job %s: %w", job.ID, err)
	}
	defer rows.Close()

	var sink exporter.RowSink
	if archive != nil {
		sink = archive
	}
	result, err := exporter.Stream(rows, out, sink)
	if err != nil {
		return nil, err
	}
	if err := out.Close(); err != nil {
		return nil, fmt.Errorf("failed to close output: %w", err)
	}
	if cfg.OutputFile != "" {
		styler.Printf(StyleInfo, "Rows written to %s", cfg.OutputFile)
	}

	if archive != nil {
		archived, err := archive.Close()
		if err != nil {
			return nil, err
		}
		styler.Printf(StyleInfo, "Archived %s rows into '%s' in %s",
			fmtNum(int64(archived.RowCount)), archived.TableName, cfg.SQLitePath)
	}

	return result, nil
}

// resultColumns looks up the result schema; the archive falls back to generated names without it.
func resultColumns(ctx context.Context, client *td.Client, job *td.Job, logger zerolog.Logger) []string {
	info, err := client.ShowJob(ctx, job.ID)
	if err != nil {
		logger.Warn().Err(err).Str("job_id", job.ID).Msg("could not read result schema")
		return nil
	}
	columns, err := info.ResultColumns()
	if err != nil {
		logger.Warn().Err(err).Str("job_id", job.ID).Msg("could not parse result schema")
		return nil
	}
	return columns
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
