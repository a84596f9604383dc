// Command golink-benchcheck compares two `go test -bench` outputs and fails
// when a tracked store benchmark regresses past a threshold.
//
//	go test -run '^$' -bench . -count 5 ./ > new.txt
//	go run ./cmd/golink-benchcheck --baseline old.txt --candidate new.txt
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

const defaultThreshold = 0.30

var trackedMetrics = map[string][]string{
	"BenchmarkStoreSave/unified":   {"ns/op", "allocs/op"},
	"BenchmarkStoreSave/separated": {"ns/op", "allocs/op"},
	"BenchmarkMetricsInc":          {"ns/op"},
}

// samples maps benchmark name to unit to observed values.
type samples map[string]map[string][]float64

type comparison struct {
	benchmark string
	unit      string
	baseline  float64
	candidate float64
	delta     float64
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		baselinePath  string
		candidatePath string
		threshold     float64
	)

	root := &cobra.Command{
		Use:           "golink-benchcheck",
		Short:         "Fail on store benchmark regressions",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if threshold < 0 {
				return fmt.Errorf("--threshold must be >= 0")
			}
			baseline, err := parseFile(baselinePath)
			if err != nil {
				return fmt.Errorf("parse baseline: %w", err)
			}
			candidate, err := parseFile(candidatePath)
			if err != nil {
				return fmt.Errorf("parse candidate: %w", err)
			}

			rows, failures := compare(baseline, candidate, threshold)
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "benchmark unit baseline candidate delta")
			for _, r := range rows {
				fmt.Fprintf(out, "%s %s %.3f %.3f %+0.2f%%\n", r.benchmark, r.unit, r.baseline, r.candidate, r.delta*100)
			}
			if len(failures) > 0 {
				return fmt.Errorf("performance regression threshold exceeded:\n  - %s", strings.Join(failures, "\n  - "))
			}
			return nil
		},
	}

	f := root.Flags()
	f.StringVar(&baselinePath, "baseline", "", "path to baseline benchmark output")
	f.StringVar(&candidatePath, "candidate", "", "path to candidate benchmark output")
	f.Float64Var(&threshold, "threshold", defaultThreshold, "maximum allowed regression ratio (0.30 = +30%)")
	_ = root.MarkFlagRequired("baseline")
	_ = root.MarkFlagRequired("candidate")
	return root
}

// compare returns one row per tracked metric, in name order, and a failure
// message for each missing or regressed metric.
func compare(baseline, candidate samples, threshold float64) ([]comparison, []string) {
	names := make([]string, 0, len(trackedMetrics))
	for name := range trackedMetrics {
		names = append(names, name)
	}
	slices.Sort(names)

	var (
		rows     []comparison
		failures []string
	)
	for _, name := range names {
		for _, unit := range trackedMetrics[name] {
			base, cand := baseline[name][unit], candidate[name][unit]
			if len(base) == 0 || len(cand) == 0 {
				failures = append(failures, fmt.Sprintf("missing samples for %s %s", name, unit))
				continue
			}

			b, c := median(base), median(cand)
			if b <= 0 {
				// Zero-alloc baselines only regress if the candidate allocates.
				if c > 0 {
					failures = append(failures, fmt.Sprintf("%s %s rose from 0 to %.3f", name, unit, c))
				}
				rows = append(rows, comparison{benchmark: name, unit: unit, baseline: b, candidate: c})
				continue
			}

			delta := (c - b) / b
			rows = append(rows, comparison{benchmark: name, unit: unit, baseline: b, candidate: c, delta: delta})
			if delta > threshold {
				failures = append(failures, fmt.Sprintf("%s %s regressed by %+0.2f%% (limit %+0.2f%%)", name, unit, delta*100, threshold*100))
			}
		}
	}
	return rows, failures
}

func parseFile(path string) (samples, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return parse(file)
}

func parse(r io.Reader) (samples, error) {
	out := samples{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 || !strings.HasPrefix(fields[0], "Benchmark") {
			continue
		}

		name := trimProcs(fields[0])
		if _, ok := trackedMetrics[name]; !ok {
			continue
		}
		if out[name] == nil {
			out[name] = map[string][]float64{}
		}

		// fields: name iterations value unit [value unit]...
		for i := 2; i+1 < len(fields); i += 2 {
			value, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				continue
			}
			out[name][fields[i+1]] = append(out[name][fields[i+1]], value)
		}
	}
	return out, scanner.Err()
}

// trimProcs strips the -GOMAXPROCS suffix go test appends to names.
func trimProcs(raw string) string {
	if idx := strings.LastIndexByte(raw, '-'); idx > 0 {
		if _, err := strconv.Atoi(raw[idx+1:]); err == nil {
			return raw[:idx]
		}
	}
	return raw
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
