package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/i5heu/GoMoreCollections/internal/testbench"
	"github.com/i5heu/GoMoreCollections/pkg/circularqueue"
	"github.com/i5heu/GoMoreCollections/pkg/config"
	"github.com/i5heu/GoMoreCollections/pkg/dropoutstack"
)

// BenchmarkResult holds results for one test run.
type BenchmarkResult struct {
	Implementation string  `json:"implementation"`
	NumProducers   int     `json:"num_producers"`
	NumConsumers   int     `json:"num_consumers"`
	Produced       int64   `json:"produced"`
	Consumed       int64   `json:"consumed"`
	Dropped        int64   `json:"dropped"` // evicted by bounded containers
	TestDuration   string  `json:"test_duration"`
	ActualElapsed  string  `json:"actual_elapsed"`
	Throughput     float64 `json:"throughput_items_sec"` // based on consumed count
	Timestamp      int64   `json:"timestamp"`
	GoVersion      string  `json:"go_version"`
}

// SystemInfo holds system information.
type SystemInfo struct {
	NumCPU            int     `json:"num_cpu"`
	TrueCPU           int     `json:"true_cpu,omitempty"`
	SimulatedCPUCount int     `json:"simulated_cpu_count,omitempty"`
	CPUModel          string  `json:"cpu_model,omitempty"`
	CPUSpeedMHz       float64 `json:"cpu_speed_mhz,omitempty"`
	GOARCH            string  `json:"go_arch"`
	TotalMemory       uint64  `json:"total_memory_bytes,omitempty"`
}

// FullReport represents a complete test session.
type FullReport struct {
	SessionTime string            `json:"session_time"`
	SystemInfo  SystemInfo        `json:"system_info"`
	Benchmarks  []BenchmarkResult `json:"benchmarks"`
}

type benchTarget = testbench.Target[*int]

// Implementation is one container setup the bench drives.
type Implementation struct {
	name        string
	pkgName     string
	description string
	features    []string
	newTarget   func() benchTarget
}

func getImplementations() []Implementation {
	return []Implementation{
		{
			name:        "CircularQueue",
			pkgName:     "circularqueue",
			description: "Arena-backed cyclic queue used as a plain FIFO.",
			features:    []string{"FIFO", "Unbounded"},
			newTarget: func() benchTarget {
				return testbench.QueueTarget[*int]{Queue: circularqueue.New[*int]()}
			},
		},
		{
			name:        "CircularQueueRotating",
			pkgName:     "circularqueue",
			description: "Cyclic queue where every dequeue first advances the cursor.",
			features:    []string{"Rotation", "Unbounded"},
			newTarget: func() benchTarget {
				return testbench.RotatingQueueTarget[*int]{Queue: circularqueue.New[*int]()}
			},
		},
		{
			name:        "DropoutStack1024",
			pkgName:     "dropoutstack",
			description: "Dropout stack with capacity 1024; overflow evicts the oldest element.",
			features:    []string{"LIFO", "Bounded", "Evicting"},
			newTarget: func() benchTarget {
				s, _ := dropoutstack.New[*int](1024)
				return testbench.StackTarget[*int]{Stack: s}
			},
		},
		{
			name:        "DropoutStack64",
			pkgName:     "dropoutstack",
			description: "Dropout stack with capacity 64; small enough that eviction shifts stay cheap.",
			features:    []string{"LIFO", "Bounded", "Evicting"},
			newTarget: func() benchTarget {
				s, _ := dropoutstack.New[*int](64)
				return testbench.StackTarget[*int]{Stack: s}
			},
		},
	}
}

// outputMarkdownTable loads the JSON file and prints the last session as a
// Markdown table, averaged per implementation.
func outputMarkdownTable(jsonFile string) error {
	sessions, err := loadReports(jsonFile)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		return fmt.Errorf("no sessions found in %s", jsonFile)
	}
	last := sessions[len(sessions)-1]

	meta := make(map[string]Implementation)
	for _, impl := range getImplementations() {
		meta[impl.name] = impl
	}

	type tableRow struct {
		implementation string
		pkgName        string
		features       string
		throughput     float64
		dropRate       float64
		runs           int
	}
	rows := make(map[string]*tableRow)
	for _, b := range last.Benchmarks {
		r, ok := rows[b.Implementation]
		if !ok {
			m := meta[b.Implementation]
			r = &tableRow{
				implementation: b.Implementation,
				pkgName:        m.pkgName,
				features:       strings.Join(m.features, ", "),
			}
			rows[b.Implementation] = r
		}
		r.throughput += b.Throughput
		if b.Produced > 0 {
			r.dropRate += float64(b.Dropped) / float64(b.Produced)
		}
		r.runs++
	}

	sorted := make([]*tableRow, 0, len(rows))
	for _, r := range rows {
		r.throughput /= float64(r.runs)
		r.dropRate /= float64(r.runs)
		sorted = append(sorted, r)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].throughput > sorted[j].throughput
	})

	fmt.Println("## Last Session Benchmark Summary")
	fmt.Println()
	fmt.Println("| Implementation           | Package         | Features                    | Throughput (items/sec) | Dropped |")
	fmt.Println("|--------------------------|-----------------|-----------------------------|------------------------|---------|")
	for _, r := range sorted {
		fmt.Printf("| %-24s | %-15s | %-27s | %22.0f | %6.1f%% |\n",
			r.implementation, r.pkgName, r.features, r.throughput, r.dropRate*100)
	}
	return nil
}

func loadReports(filename string) ([]FullReport, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", filename, err)
	}
	var sessions []FullReport
	if len(data) == 0 {
		return sessions, nil
	}
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("unmarshalling %s: %w", filename, err)
	}
	return sessions, nil
}

// appendReports adds sessions to filename, creating it if needed.
func appendReports(filename string, sessions []FullReport) error {
	previous, err := loadReports(filename)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	data, err := json.MarshalIndent(append(previous, sessions...), "", "  ")
	if err != nil {
		return fmt.Errorf("marshalling results: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", filename, err)
	}
	return nil
}

// cpuSettings picks the GOMAXPROCS values to test.
func cpuSettings(cpuMax, trueCPUCount int) []int {
	if cpuMax > 0 {
		return []int{min(cpuMax, trueCPUCount)}
	}
	commonCPUs := []int{1, 2, 4, 8, 16, 32, 64, 128}
	var out []int
	for _, v := range commonCPUs {
		if v <= trueCPUCount {
			out = append(out, v)
		}
	}
	return out
}

func main() {
	testIterations := flag.Int("iter", 3, "Number of test iterations per concurrency setting")
	cpuMaxFlag := flag.Int("cpu", 0, "If non-zero, test only that GOMAXPROCS value; if 0, test powers of two up to runtime.NumCPU()")
	testDuration := flag.Duration("duration", 2*time.Second, "Duration of each timed run")
	jsonExport := flag.Bool("json", false, "Append results as JSON to -jsonfile")
	highConcurrency := flag.Bool("high-concurrency", false, "Include high concurrency configurations")
	markdownTable := flag.Bool("markdown-table", false, "Output markdown table from -jsonfile and exit")
	jsonFile := flag.String("jsonfile", "test-results.json", "Path to the JSON results file")
	progressFlag := flag.Bool("progress", false, "Display a progress bar with ETA")
	listFlag := flag.Bool("list", false, "List the benchmarked implementations and exit")
	flag.Parse()

	if *listFlag {
		for _, impl := range getImplementations() {
			fmt.Printf("%-24s %-15s %s\n", impl.name, impl.pkgName, impl.description)
		}
		return
	}

	if *markdownTable {
		if err := outputMarkdownTable(*jsonFile); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	trueCPUCount := runtime.NumCPU()
	cpus := cpuSettings(*cpuMaxFlag, trueCPUCount)

	concurrencyConfigs := config.DefaultConfigs()
	if *highConcurrency {
		concurrencyConfigs = append(concurrencyConfigs, config.HighConcurrencyConfigs()...)
	}

	impls := getImplementations()
	totalTests := len(cpus) * len(concurrencyConfigs) * (*testIterations) * len(impls)

	var bar *progressbar.ProgressBar
	if *progressFlag {
		bar = progressbar.NewOptions(totalTests,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Benchmarking"),
			progressbar.OptionSetWidth(20),
			progressbar.OptionShowCount(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionClearOnFinish(),
		)
	}

	var allSessions []FullReport
	for _, n := range cpus {
		runtime.GOMAXPROCS(n)
		sysInfo := gatherSystemInfo()
		sysInfo.NumCPU = n
		sysInfo.TrueCPU = trueCPUCount
		sysInfo.SimulatedCPUCount = n

		fmt.Printf("\n=============================\n")
		fmt.Printf("GOMAXPROCS = %d\n", n)
		fmt.Printf("=============================\n")

		var results []BenchmarkResult
		for _, cfg := range concurrencyConfigs {
			fmt.Printf("  [Concurrency: producers=%d, consumers=%d]\n", cfg.NumProducers, cfg.NumConsumers)
			for iteration := 1; iteration <= *testIterations; iteration++ {
				fmt.Printf("    iteration %d/%d\n", iteration, *testIterations)
				for _, impl := range impls {
					runtime.GC()

					res, err := testbench.RunTimedTest(ctx, impl.newTarget(), cfg, *testDuration, func(i int) *int {
						v := i
						return &v
					})
					if err != nil {
						fmt.Fprintf(os.Stderr, "%s failed: %v\n", impl.name, err)
						os.Exit(1)
					}
					throughput := float64(res.Consumed) / res.Elapsed.Seconds()

					fmt.Printf("    %s => produced=%d, consumed=%d, dropped=%d, throughput=%.0f items/s, took=%v\n",
						impl.name, res.Produced, res.Consumed, res.Dropped(), throughput, res.Elapsed)
					if bar != nil {
						_ = bar.Add(1)
					}

					results = append(results, BenchmarkResult{
						Implementation: impl.name,
						NumProducers:   cfg.NumProducers,
						NumConsumers:   cfg.NumConsumers,
						Produced:       res.Produced,
						Consumed:       res.Consumed,
						Dropped:        res.Dropped(),
						TestDuration:   testDuration.String(),
						ActualElapsed:  res.Elapsed.String(),
						Throughput:     throughput,
						Timestamp:      time.Now().Unix(),
						GoVersion:      runtime.Version(),
					})
				}
			}
		}

		allSessions = append(allSessions, FullReport{
			SessionTime: time.Now().Format(time.RFC3339),
			SystemInfo:  sysInfo,
			Benchmarks:  results,
		})
	}

	if bar != nil {
		_ = bar.Finish()
	}

	if *jsonExport {
		if err := appendReports(*jsonFile, allSessions); err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			os.Exit(1)
		}
		fmt.Printf("\nWrote results to %s\n", *jsonFile)
	}
}

// gatherSystemInfo collects basic CPU and memory details.
func gatherSystemInfo() SystemInfo {
	info := SystemInfo{
		NumCPU: runtime.NumCPU(),
		GOARCH: runtime.GOARCH,
	}
	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		info.CPUModel = infos[0].ModelName
		info.CPUSpeedMHz = infos[0].Mhz
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		info.TotalMemory = vm.Total
	}
	return info
}
