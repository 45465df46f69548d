package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"connlat-bench/bench"
	"connlat-bench/lite"
	"connlat-bench/my"
	"connlat-bench/ora"
	"connlat-bench/pg"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("connlat-bench", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	driver := cmd.String("driver", "oracle", "Database client: oracle, postgres, pq, mysql, sqlite")
	iterations := cmd.Int("iterations", 5, "Iterations per phase")
	query := cmd.String("sql", "", "Query to run each iteration (default depends on -driver)")
	tune := cmd.Bool("tune", true, "Insert "+bench.DescriptorTuning+" after "+bench.DescriptorToken+" in the connect string")
	printRows := cmd.Bool("print-rows", false, "Print fetched rows")
	poolMin := cmd.Int("pool-min", bench.DefaultPoolSizing.Min, "Pool minimum sessions")
	poolMax := cmd.Int("pool-max", bench.DefaultPoolSizing.Max, "Pool maximum sessions")
	poolIncr := cmd.Int("pool-incr", bench.DefaultPoolSizing.Increment, "Pool growth increment")
	summary := cmd.Bool("summary", true, "Print per-step statistics at the end")
	verbose := cmd.Bool("v", false, "Debug logging")

	cmd.Usage = func() {
		fmt.Fprintln(stderr, "Usage: connlat-bench [flags] <username> <password> <connect_string>")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "Flags:")
		cmd.PrintDefaults()
	}

	if err := cmd.Parse(args); err != nil {
		return 1
	}
	if cmd.NArg() != 3 {
		cmd.Usage()
		return 1
	}
	if *iterations < 0 {
		fmt.Fprintf(stderr, "Error: -iterations must be >= 0, got %d\n", *iterations)
		return 1
	}

	logger := log.New()
	logger.SetOutput(stderr)
	logger.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
	if *verbose {
		logger.SetLevel(log.DebugLevel)
	}
	entry := logger.WithFields(log.Fields{"run": uuid.NewString(), "driver": *driver})

	sizing := bench.PoolSizing{Min: *poolMin, Max: *poolMax, Increment: *poolIncr}
	if err := sizing.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	env, defaultQuery, err := openEnvironment(*driver, entry)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if *query == "" {
		*query = defaultQuery
	}

	h := &bench.Harness{
		Out:        stdout,
		Log:        entry,
		SQL:        *query,
		Iterations: *iterations,
		Sizing:     sizing,
		Tune:       *tune,
		PrintRows:  *printRows,
		Summary:    *summary,
	}

	creds := bench.Credentials{User: cmd.Arg(0), Password: cmd.Arg(1)}
	if _, err := h.Run(context.Background(), env, creds, cmd.Arg(2)); err != nil {
		var fatal *bench.FatalError
		if errors.As(err, &fatal) {
			entry.WithField("step", fatal.Step).Error("benchmark aborted")
		} else {
			entry.Errorf("benchmark aborted: %v", err)
		}
		return 1
	}
	return 0
}

func openEnvironment(driver string, logger log.FieldLogger) (bench.Environment, string, error) {
	switch driver {
	case "oracle":
		return ora.NewEnvironment(logger), ora.DefaultQuery, nil
	case "postgres":
		return pg.NewEnvironment(logger), pg.DefaultQuery, nil
	case "pq":
		return pg.NewPQEnvironment(logger), pg.DefaultQuery, nil
	case "mysql":
		return my.NewEnvironment(logger), my.DefaultQuery, nil
	case "sqlite":
		return lite.NewEnvironment(logger), lite.DefaultQuery, nil
	default:
		return nil, "", fmt.Errorf("database type '%s' not implemented", driver)
	}
}
