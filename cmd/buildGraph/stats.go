package main

import (
	"fmt"
	"sort"
	"time"
)

// BenchmarkResult mirrors the fields of cmd/bench's report that the graphs use.
type BenchmarkResult struct {
	Implementation string  `json:"implementation"`
	NumProducers   int     `json:"num_producers"`
	NumConsumers   int     `json:"num_consumers"`
	Produced       int64   `json:"produced"`
	Consumed       int64   `json:"consumed"`
	Dropped        int64   `json:"dropped"`
	ActualElapsed  string  `json:"actual_elapsed"`
	Throughput     float64 `json:"throughput_items_sec"`
}

// SystemInfo holds the CPU fields used for grouping.
type SystemInfo struct {
	NumCPU            int `json:"num_cpu"`
	SimulatedCPUCount int `json:"simulated_cpu_count,omitempty"`
}

// FullReport is one bench session.
type FullReport struct {
	SessionTime string            `json:"session_time"`
	SystemInfo  SystemInfo        `json:"system_info"`
	Benchmarks  []BenchmarkResult `json:"benchmarks"`
}

// samples holds, per CPU count, per implementation, per producers+consumers,
// the observed ns per consumed item and drop ratio.
type samples map[int]map[string]map[float64][]sample

type sample struct {
	nsPerItem float64
	dropRatio float64
}

func collectSamples(sessions []FullReport) samples {
	out := make(samples)
	for _, session := range sessions {
		cpus := session.SystemInfo.SimulatedCPUCount
		if cpus == 0 {
			cpus = session.SystemInfo.NumCPU
		}
		if out[cpus] == nil {
			out[cpus] = make(map[string]map[float64][]sample)
		}
		for _, b := range session.Benchmarks {
			dur, err := time.ParseDuration(b.ActualElapsed)
			if err != nil || b.Consumed == 0 {
				continue
			}
			impls := out[cpus]
			if impls[b.Implementation] == nil {
				impls[b.Implementation] = make(map[float64][]sample)
			}
			s := sample{nsPerItem: float64(dur.Nanoseconds()) / float64(b.Consumed)}
			if b.Produced > 0 {
				s.dropRatio = float64(b.Dropped) / float64(b.Produced)
			}
			x := float64(b.NumProducers + b.NumConsumers)
			impls[b.Implementation][x] = append(impls[b.Implementation][x], s)
		}
	}
	return out
}

// spread is the median of a set of values with the averages of its bottom and
// top 5% as error bounds.
type spread struct {
	x      float64
	low    float64
	median float64
	high   float64
}

func buildSpreads(byX map[float64][]sample, value func(sample) float64) []spread {
	out := make([]spread, 0, len(byX))
	for x, ss := range byX {
		if len(ss) == 0 {
			continue
		}
		vals := make([]float64, len(ss))
		for i, s := range ss {
			vals[i] = value(s)
		}
		sort.Float64s(vals)
		out = append(out, spread{
			x:      x,
			low:    averageOfRange(vals, 0.0, 0.05),
			median: median(vals),
			high:   averageOfRange(vals, 0.95, 1.0),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].x < out[j].x })
	return out
}

// averageOfRange averages sorted[startFrac*n : endFrac*n], falling back to
// the median when that window is empty.
func averageOfRange(sorted []float64, startFrac, endFrac float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	start := max(int(float64(n)*startFrac), 0)
	end := min(int(float64(n)*endFrac), n)
	if start >= end {
		return median(sorted)
	}
	sum := 0.0
	for _, v := range sorted[start:end] {
		sum += v
	}
	return sum / float64(end-start)
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	mid := n / 2
	if n%2 == 1 {
		return sorted[mid]
	}
	return 0.5 * (sorted[mid-1] + sorted[mid])
}

// formatNs formats a nanosecond value in ns, µs, ms or s.
func formatNs(ns float64) string {
	switch {
	case ns < 1e3:
		return fmt.Sprintf("%.0fns", ns)
	case ns < 1e6:
		return fmt.Sprintf("%.1fµs", ns/1e3)
	case ns < 1e9:
		return fmt.Sprintf("%.1fms", ns/1e6)
	default:
		return fmt.Sprintf("%.2fs", ns/1e9)
	}
}
