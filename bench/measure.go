package bench

import (
	"fmt"
	"io"
	"time"
)

// Measure runs op and writes its wall-clock duration to w. The error op
// returns is passed back untouched; deciding what it means is up to the
// caller.
func Measure(w io.Writer, step string, op func() error) (time.Duration, error) {
	start := time.Now()
	err := op()
	elapsed := time.Since(start)
	fmt.Fprintf(w, "Latency for %s: %s ms\n", step, FmtMillis(elapsed))
	return elapsed, err
}

func FmtMillis(d time.Duration) string {
	return fmt.Sprintf("%.3f", float64(d)/float64(time.Millisecond))
}
