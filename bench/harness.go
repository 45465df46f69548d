package bench

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// Harness times the lifecycle of database connections, first opening a new
// connection per iteration and then borrowing one from a pool.
type Harness struct {
	Out        io.Writer
	Log        log.FieldLogger
	SQL        string
	Iterations int
	Sizing     PoolSizing

	// Tune rewrites the descriptor with TuneDescriptor before connecting.
	Tune bool
	// PrintRows writes every fetched row to Out while executing SQL.
	PrintRows bool
	// Summary prints per-step statistics once both phases are done.
	Summary bool
}

// Run executes Iterations unpooled iterations followed by Iterations pooled
// ones. env is closed before Run returns, whatever happened. The returned
// error is always a *FatalError.
func (h *Harness) Run(ctx context.Context, env Environment, creds Credentials, descriptor string) (report Report, err error) {
	defer func() {
		env.Close()
		fmt.Fprintln(h.Out, "Environment terminated.")
	}()

	if h.Tune {
		descriptor = TuneDescriptor(descriptor)
	}

	fmt.Fprintln(h.Out, "═══════════════════════════════════════════")
	fmt.Fprintln(h.Out, "  Connection Lifecycle Latency Benchmark")
	fmt.Fprintln(h.Out, "═══════════════════════════════════════════")

	fmt.Fprintf(h.Out, "\n--- Running Non-Pooled Connection Test (%d iterations) ---\n\n", h.Iterations)
	for i := 1; i <= h.Iterations; i++ {
		fmt.Fprintf(h.Out, "Iteration %d\n", i)
		samples, err := h.RunUnpooledIteration(ctx, env, creds, descriptor, i)
		report.Unpooled = append(report.Unpooled, samples...)
		if err != nil {
			return report, err
		}
		fmt.Fprintln(h.Out)
	}

	fmt.Fprintf(h.Out, "\n--- Running Pooled Connection Test (%d iterations) ---\n\n", h.Iterations)
	pool, err := env.CreatePool(ctx, creds, descriptor, h.Sizing)
	if err != nil {
		h.Log.WithFields(log.Fields{"phase": PhasePooled, "step": "create pool"}).Errorf("Error creating connection pool: %v", err)
		return report, &FatalError{Step: "create pool", Err: err}
	}
	fmt.Fprintln(h.Out, "Connection pool created.")

	for i := 1; i <= h.Iterations; i++ {
		fmt.Fprintf(h.Out, "Iteration %d\n", i)
		report.Pooled = append(report.Pooled, h.RunPooledIteration(ctx, pool, i)...)
		fmt.Fprintln(h.Out)
	}

	fmt.Fprintln(h.Out, "--- Test Complete. Cleaning up. ---")
	fmt.Fprintln(h.Out)
	if err := pool.Close(); err != nil {
		h.Log.WithFields(log.Fields{"phase": PhasePooled, "step": "destroy pool"}).Errorf("Error terminating pool: %v", err)
	} else {
		fmt.Fprintln(h.Out, "Connection pool terminated.")
	}

	if h.Summary {
		unpooled, pooled := Summarize(report.Unpooled), Summarize(report.Pooled)
		PrintStats(h.Out, "Non-pooled connections", unpooled)
		PrintStats(h.Out, "Pooled connections", pooled)
		PrintComparison(h.Out, unpooled, pooled)
	}
	return report, nil
}

// RunUnpooledIteration connects, runs SQL and terminates the connection.
// Only a failed connect is fatal.
func (h *Harness) RunUnpooledIteration(ctx context.Context, env Environment, creds Credentials, descriptor string, iter int) ([]Sample, error) {
	var conn Conn
	s := h.measure(iter, StepCreateConnection, func() error {
		var err error
		conn, err = env.Connect(ctx, creds, descriptor)
		return err
	})
	samples := []Sample{s}
	if s.Err != nil {
		h.logError(PhaseUnpooled, iter, s, "Error connecting")
		return samples, &FatalError{Step: StepCreateConnection, Err: s.Err}
	}
	if conn == nil {
		return samples, nil
	}

	samples = append(samples, h.execute(ctx, conn, PhaseUnpooled, iter))

	s = h.measure(iter, StepTerminateConn, func() error {
		return env.Terminate(ctx, conn)
	})
	if s.Err != nil {
		h.logError(PhaseUnpooled, iter, s, "Error terminating connection")
	}
	return append(samples, s), nil
}

// RunPooledIteration borrows a connection, runs SQL and gives it back. A
// failed acquire skips the rest of the iteration.
func (h *Harness) RunPooledIteration(ctx context.Context, pool Pool, iter int) []Sample {
	var conn Conn
	s := h.measure(iter, StepAcquireConnection, func() error {
		var err error
		conn, err = pool.Acquire(ctx)
		return err
	})
	samples := []Sample{s}
	if s.Err != nil {
		h.logError(PhasePooled, iter, s, "Error getting connection from pool")
		return samples
	}
	if conn == nil {
		return samples
	}

	samples = append(samples, h.execute(ctx, conn, PhasePooled, iter))

	s = h.measure(iter, StepReleaseConnection, func() error {
		return pool.Release(ctx, conn)
	})
	if s.Err != nil {
		h.logError(PhasePooled, iter, s, "Error releasing connection")
	}
	return append(samples, s)
}

func (h *Harness) execute(ctx context.Context, conn Conn, phase string, iter int) Sample {
	s := h.measure(iter, StepExecuteSQL, func() error {
		return h.fetchAll(ctx, conn)
	})
	if s.Err != nil {
		h.logError(phase, iter, s, "Error during query execution")
	}
	return s
}

// fetchAll walks every row of SQL without keeping any of them.
func (h *Harness) fetchAll(ctx context.Context, conn Conn) (err error) {
	rows, err := conn.Query(ctx, h.SQL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rows.Close(); err == nil {
			err = cerr
		}
	}()

	for rows.Next() {
		if !h.PrintRows {
			continue
		}
		vals, err := rows.Values()
		if err != nil {
			return err
		}
		fmt.Fprintln(h.Out, formatRow(vals))
	}
	return rows.Err()
}

func (h *Harness) measure(iter int, step string, op func() error) Sample {
	at := time.Now()
	d, err := Measure(h.Out, step, op)
	return Sample{Iteration: iter, Step: step, At: at, Duration: d, Err: err}
}

func (h *Harness) logError(phase string, iter int, s Sample, msg string) {
	h.Log.WithFields(log.Fields{
		"phase":     phase,
		"step":      s.Step,
		"iteration": iter,
	}).Errorf("%s: %v", msg, s.Err)
}

func formatRow(vals []any) string {
	cols := make([]string, len(vals))
	for i, v := range vals {
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		cols[i] = fmt.Sprint(v)
	}
	return "  " + strings.Join(cols, " | ")
}
