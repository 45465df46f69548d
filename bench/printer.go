package bench

import (
	"fmt"
	"io"
	"time"
)

func PrintStats(w io.Writer, title string, stats []StepStats) {
	fmt.Fprintf(w, "\n┌────────────────────────────────────────────────────────────────────────────────┐\n")
	fmt.Fprintf(w, "│  %-78s│\n", title)
	fmt.Fprintf(w, "├────────────────────────────┬─────┬─────┬─────────┬─────────┬─────────┬─────────┤\n")
	fmt.Fprintf(w, "│  Step                      │  N  │ Err │   avg   │   p50   │   p99   │   max   │\n")
	fmt.Fprintf(w, "├────────────────────────────┼─────┼─────┼─────────┼─────────┼─────────┼─────────┤\n")
	for _, s := range stats {
		fmt.Fprintf(w, "│  %-26s│ %3d │ %3d │ %7s │ %7s │ %7s │ %7s │\n",
			s.Label, s.Total, s.Errors,
			FmtDur(s.LatencyAvg), FmtDur(s.LatencyP50), FmtDur(s.LatencyP99), FmtDur(s.LatencyMax))
	}
	fmt.Fprintf(w, "└────────────────────────────┴─────┴─────┴─────────┴─────────┴─────────┴─────────┘\n")
}

// PrintComparison lines up each pooled step against its unpooled
// counterpart by average latency.
func PrintComparison(w io.Writer, unpooled, pooled []StepStats) {
	pairs := []struct {
		label    string
		unpooled string
		pooled   string
	}{
		{"Acquire", StepCreateConnection, StepAcquireConnection},
		{"Execute SQL", StepExecuteSQL, StepExecuteSQL},
		{"Give back", StepTerminateConn, StepReleaseConnection},
	}

	fmt.Fprintf(w, "\n╔═════════════════════════════════════════════════════════════╗\n")
	fmt.Fprintf(w, "║  UNPOOLED vs POOLED (avg latency)                           ║\n")
	fmt.Fprintf(w, "╠═══════════════════╦════════════════╦════════════════════════╣\n")
	fmt.Fprintf(w, "║  Step             ║  Unpooled      ║  Pooled                ║\n")
	fmt.Fprintf(w, "╠═══════════════════╬════════════════╬════════════════════════╣\n")

	var totalUnpooled, totalPooled time.Duration
	for _, p := range pairs {
		u, uok := findStats(unpooled, p.unpooled)
		q, qok := findStats(pooled, p.pooled)
		if !uok || !qok {
			continue
		}
		totalUnpooled += u.LatencyAvg
		totalPooled += q.LatencyAvg
		fmt.Fprintf(w, "║  %-16s ║  %-13s ║  %-21s ║\n", p.label, FmtDur(u.LatencyAvg), FmtDur(q.LatencyAvg))
	}

	fmt.Fprintf(w, "╠═══════════════════╩════════════════╩════════════════════════╣\n")
	fmt.Fprintf(w, "║  Per iteration:   %-41s ║\n",
		fmt.Sprintf("%s unpooled, %s pooled", FmtDur(totalUnpooled), FmtDur(totalPooled)))
	if totalPooled > 0 {
		fmt.Fprintf(w, "║  Pooling speedup: %-41s ║\n",
			fmt.Sprintf("%.1fx", float64(totalUnpooled)/float64(totalPooled)))
	}
	fmt.Fprintf(w, "╚═════════════════════════════════════════════════════════════╝\n")
}

func FmtDur(d time.Duration) string {
	us := float64(d.Microseconds())
	if us < 1000 {
		return fmt.Sprintf("%.0fµs", us)
	}
	return fmt.Sprintf("%.2fms", us/1000)
}
