package utils

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gonet/m"
)

func TestDurationUS(t *testing.T) {
	d := 1234*time.Microsecond + 567*time.Nanosecond
	got := DurationUS(d)
	if math.Abs(got-1234.567) > 0.001 {
		t.Fatalf("want 1234.567µs, got %.3f", got)
	}
}

func TestTimingStatsRecord(t *testing.T) {
	var stats TimingStats
	stats.Record(m.EpochResult{Epoch: 0, Duration: time.Second})
	assert.False(t, stats.Evaluated)

	stats.Record(m.EpochResult{Epoch: 1, Duration: 2 * time.Second, Accuracy: 40, Evaluated: true})
	stats.Record(m.EpochResult{Epoch: 2, Duration: time.Second, Accuracy: 30, Evaluated: true})
	assert.Equal(t, 3, stats.Epochs())
	assert.Equal(t, 4*time.Second, stats.TrainingTime)
	assert.Zero(t, stats.EvaluationTime)
	assert.True(t, stats.Evaluated)
	assert.Equal(t, 40.0, stats.BestAccuracy)
}

func TestTimingStatsSeparatesEvaluation(t *testing.T) {
	var stats TimingStats
	stats.Record(m.EpochResult{Duration: 3 * time.Second, EvalDuration: time.Second, Accuracy: 50, Evaluated: true})
	stats.Record(m.EpochResult{Duration: 3 * time.Second, EvalDuration: time.Second, Accuracy: 60, Evaluated: true})
	assert.Equal(t, 6*time.Second, stats.TrainingTime)
	assert.Equal(t, 2*time.Second, stats.EvaluationTime)
	assert.Equal(t, []time.Duration{3 * time.Second, 3 * time.Second}, stats.EpochTimes)
}

func TestPrintTimingStats(t *testing.T) {
	var buf bytes.Buffer
	oldOut, oldVerbose := Output, Verbose
	t.Cleanup(func() { Output, Verbose = oldOut, oldVerbose })
	Output = &buf

	stats := &TimingStats{TotalTime: 4 * time.Second}
	PrintTimingStats(stats)
	assert.Contains(t, buf.String(), "Epochs completed: 0")
	assert.NotContains(t, buf.String(), "Average epoch time")

	buf.Reset()
	stats.Record(m.EpochResult{Duration: 2 * time.Second, Accuracy: 87.5, Evaluated: true})
	PrintTimingStats(stats)
	assert.Contains(t, buf.String(), "Training: 2s (50.0%)")
	assert.Contains(t, buf.String(), "Best accuracy: 87.50%")

	buf.Reset()
	Verbose = false
	PrintTimingStats(stats)
	assert.Empty(t, buf.String())
}
