package utils

import (
	"fmt"
	"io"
	"os"
	"time"

	"gonet/m"
)

// Verbose controls whether timing statistics are printed.
// Set to false to suppress output.
var Verbose = true

// Output is the writer where timing statistics are printed.
// Defaults to os.Stdout.
var Output io.Writer = os.Stdout

// TimingStats holds timing information for different operations
type TimingStats struct {
	TotalTime       time.Duration
	DataLoadingTime time.Duration
	ModelInitTime   time.Duration
	TrainingTime    time.Duration
	EvaluationTime  time.Duration
	EpochTimes      []time.Duration
	BestAccuracy    float64
	Evaluated       bool
}

// Record adds one epoch's result.
func (s *TimingStats) Record(res m.EpochResult) {
	s.EpochTimes = append(s.EpochTimes, res.Duration)
	s.TrainingTime += res.Duration
	s.EvaluationTime += res.EvalDuration
	if res.Evaluated && (!s.Evaluated || res.Accuracy > s.BestAccuracy) {
		s.BestAccuracy = res.Accuracy
		s.Evaluated = true
	}
}

// Epochs is the number of recorded epochs.
func (s *TimingStats) Epochs() int {
	return len(s.EpochTimes)
}

func share(part, whole time.Duration) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole) * 100
}

// PrintTimingStats prints detailed timing statistics.
// Respects the Verbose flag - does nothing if Verbose is false.
func PrintTimingStats(stats *TimingStats) {
	if !Verbose {
		return
	}
	epochs := stats.Epochs()
	fmt.Fprintln(Output, "\n=== TIMING STATISTICS ===")
	fmt.Fprintf(Output, "Total time: %v\n", stats.TotalTime)
	fmt.Fprintf(Output, "Epochs completed: %d\n", epochs)
	fmt.Fprintln(Output, "\nBreakdown by operation:")
	fmt.Fprintf(Output, "  Data loading: %v (%.1f%%)\n", stats.DataLoadingTime, share(stats.DataLoadingTime, stats.TotalTime))
	fmt.Fprintf(Output, "  Model initialization: %v (%.1f%%)\n", stats.ModelInitTime, share(stats.ModelInitTime, stats.TotalTime))
	fmt.Fprintf(Output, "  Training: %v (%.1f%%)\n", stats.TrainingTime, share(stats.TrainingTime, stats.TotalTime))
	fmt.Fprintf(Output, "  Evaluation: %v (%.1f%%)\n", stats.EvaluationTime, share(stats.EvaluationTime, stats.TotalTime))
	if epochs == 0 {
		return
	}
	fmt.Fprintln(Output, "\nPerformance metrics:")
	fmt.Fprintf(Output, "  Average epoch time: %v\n", stats.TrainingTime/time.Duration(epochs))
	fmt.Fprintf(Output, "  Average epoch time (µs): %.1f\n", DurationUS(stats.TrainingTime)/float64(epochs))
	if stats.Evaluated {
		fmt.Fprintf(Output, "  Best accuracy: %.2f%%\n", stats.BestAccuracy)
	}
}

// DurationUS converts any time.Duration to micro-seconds as float64
func DurationUS(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1_000.0
}
