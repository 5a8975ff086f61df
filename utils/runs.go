package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var ErrNoRuns = errors.New("no recorded runs")

var runHeaders = []string{
	"Name", "Activator", "Architecture", "Epochs", "Batch", "LR", "Seed",
	"End Time", "SecondsToTrain", "Accuracy", "Weights",
}

// Run is one row of the training history.
type Run struct {
	Name           string
	Activation     string
	Architecture   []int
	Epochs         int
	BatchSize      int
	LearningRate   float64
	Seed           uint64
	EndTime        int64
	SecondsToTrain int64
	// Accuracy is negative when the run had no test data.
	Accuracy    float64
	WeightsPath string
}

func (r Run) record() []string {
	arch := make([]string, len(r.Architecture))
	for i, n := range r.Architecture {
		arch[i] = strconv.Itoa(n)
	}
	return []string{
		r.Name,
		r.Activation,
		strings.Join(arch, " "),
		strconv.Itoa(r.Epochs),
		strconv.Itoa(r.BatchSize),
		strconv.FormatFloat(r.LearningRate, 'f', 4, 64),
		strconv.FormatUint(r.Seed, 10),
		strconv.FormatInt(r.EndTime, 10),
		strconv.FormatInt(r.SecondsToTrain, 10),
		strconv.FormatFloat(r.Accuracy, 'f', 5, 64),
		r.WeightsPath,
	}
}

func parseRun(record []string) (Run, error) {
	var (
		r   Run
		err error
	)
	r.Name = record[0]
	r.Activation = record[1]
	if r.Architecture, err = ParseArchitecture(record[2]); err != nil {
		return Run{}, err
	}
	if r.Epochs, err = strconv.Atoi(record[3]); err != nil {
		return Run{}, fmt.Errorf("epochs: %w", err)
	}
	if r.BatchSize, err = strconv.Atoi(record[4]); err != nil {
		return Run{}, fmt.Errorf("batch size: %w", err)
	}
	if r.LearningRate, err = strconv.ParseFloat(record[5], 64); err != nil {
		return Run{}, fmt.Errorf("learning rate: %w", err)
	}
	if r.Seed, err = strconv.ParseUint(record[6], 10, 64); err != nil {
		return Run{}, fmt.Errorf("seed: %w", err)
	}
	if r.EndTime, err = strconv.ParseInt(record[7], 10, 64); err != nil {
		return Run{}, fmt.Errorf("end time: %w", err)
	}
	if r.SecondsToTrain, err = strconv.ParseInt(record[8], 10, 64); err != nil {
		return Run{}, fmt.Errorf("seconds to train: %w", err)
	}
	if r.Accuracy, err = strconv.ParseFloat(record[9], 64); err != nil {
		return Run{}, fmt.Errorf("accuracy: %w", err)
	}
	r.WeightsPath = record[10]
	return r, nil
}

// AppendRun adds run to the history CSV at path, writing headers when the
// file is new.
func AppendRun(path string, run Run) error {
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return fmt.Errorf("creating run directory: %w", err)
	}
	var needsHeaders bool
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeaders = true
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}

	w := csv.NewWriter(file)
	if needsHeaders {
		if err := w.Write(runHeaders); err != nil {
			file.Close()
			return fmt.Errorf("writing csv headers: %w", err)
		}
	}
	if err := w.Write(run.record()); err != nil {
		file.Close()
		return fmt.Errorf("writing run: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		file.Close()
		return fmt.Errorf("flushing runs: %w", err)
	}
	return file.Close()
}

// BestRun returns the most accurate run recorded under name. Untested runs
// are only chosen when no tested run exists; ties go to the later run.
func BestRun(path, name string) (Run, error) {
	file, err := os.Open(path)
	if err != nil {
		return Run{}, fmt.Errorf("opening runs csv file: %w", err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	var (
		best  Run
		found bool
	)
	for i := 0; ; i++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Run{}, fmt.Errorf("reading record: %w", err)
		}
		if len(record) != len(runHeaders) {
			if i == 0 {
				return Run{}, fmt.Errorf("there are %d runs csv headers, expected %d", len(record), len(runHeaders))
			}
			return Run{}, fmt.Errorf("there are %d runs csv values in record %d, expected %d", len(record), i, len(runHeaders))
		}
		if i == 0 || record[0] != name {
			continue
		}
		run, err := parseRun(record)
		if err != nil {
			return Run{}, fmt.Errorf("record %d: %w", i, err)
		}
		if !found || run.Accuracy >= best.Accuracy {
			best = run
			found = true
		}
	}
	if !found {
		return Run{}, fmt.Errorf("%w for %q", ErrNoRuns, name)
	}
	return best, nil
}
