// tdquery - time-ranged queries against Treasure Data
//
// A small Go CLI that checks a database and table exist, runs a
// td_time_range query on Hive or Presto, and streams the rows as CSV/TSV.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tdquery/tdquery-go/internal/cli"
)

// Version information (set via ldflags at build time)
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx, version)
	stop()
	os.Exit(code)
}
