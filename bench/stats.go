package bench

import (
	"math"
	"sort"
	"time"
)

func ComputeStats(label string, samples []Sample) StepStats {
	stats := StepStats{Label: label, Total: len(samples)}

	var durations []time.Duration
	for _, s := range samples {
		if s.Err != nil {
			stats.Errors++
			continue
		}
		durations = append(durations, s.Duration)
	}

	if len(durations) == 0 {
		return stats
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	stats.LatencyAvg = sum / time.Duration(len(durations))
	stats.LatencyMin = durations[0]
	stats.LatencyMax = durations[len(durations)-1]
	stats.LatencyP50 = pct(durations, 50)
	stats.LatencyP90 = pct(durations, 90)
	stats.LatencyP99 = pct(durations, 99)

	return stats
}

// Summarize groups samples by step, keeping the order in which steps first
// appear, and computes stats for each group.
func Summarize(samples []Sample) []StepStats {
	var order []string
	byStep := map[string][]Sample{}
	for _, s := range samples {
		if _, ok := byStep[s.Step]; !ok {
			order = append(order, s.Step)
		}
		byStep[s.Step] = append(byStep[s.Step], s)
	}

	out := make([]StepStats, 0, len(order))
	for _, step := range order {
		out = append(out, ComputeStats(step, byStep[step]))
	}
	return out
}

func findStats(stats []StepStats, label string) (StepStats, bool) {
	for _, s := range stats {
		if s.Label == label {
			return s, true
		}
	}
	return StepStats{}, false
}

func pct(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(math.Ceil(p/100*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
