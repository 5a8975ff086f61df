package m

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Line is one training or test sample.
type Line struct {
	Inputs  []float64
	Targets []float64
}
type Lines []Line

// GetLinesMNIST reads MNIST-style CSV records from r: the first value is the
// class label, the rest are pixel densities in [0, 255]. Pixels are scaled
// into [0.01, 1] and the label is one-hot encoded over outputNum classes.
func GetLinesMNIST(r io.Reader, inputNum, outputNum int) (Lines, error) {
	var lines Lines
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = inputNum + 1
	for lineNum := 1; ; lineNum++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record %d: %w", lineNum, err)
		}

		inputs := make([]float64, inputNum)
		for i := range inputs {
			x, err := strconv.ParseFloat(strings.TrimSpace(record[i+1]), 64)
			if err != nil {
				return nil, fmt.Errorf("record %d: parsing pixel %d: %w", lineNum, i, err)
			}
			inputs[i] = (x / 255.0 * 0.99) + 0.01
		}

		label, err := strconv.Atoi(strings.TrimSpace(record[0]))
		if err != nil {
			return nil, fmt.Errorf("record %d: parsing label: %w", lineNum, err)
		}
		if label < 0 || label >= outputNum {
			return nil, fmt.Errorf("record %d: label %d outside [0, %d)", lineNum, label, outputNum)
		}
		targets := make([]float64, outputNum)
		targets[label] = 1

		lines = append(lines, Line{
			Inputs:  inputs,
			Targets: targets,
		})
	}

	return lines, nil
}

// NormalizeLines standardises every input column with the given mean and
// standard deviation. Columns with zero deviation are only centred.
func NormalizeLines(lines Lines, std []float64, mean []float64) Lines {
	normalizedLines := make(Lines, len(lines))
	for i, line := range lines {
		normalizedInputs := make([]float64, len(line.Inputs))
		for j, x := range line.Inputs {
			normalizedInputs[j] = x - mean[j]
			if std[j] != 0 {
				normalizedInputs[j] /= std[j]
			}
		}

		normalizedLines[i] = Line{
			Inputs:  normalizedInputs,
			Targets: line.Targets,
		}
	}
	return normalizedLines
}

func CalculateMean(lines Lines) []float64 {
	if len(lines) == 0 {
		return nil
	}

	mean := make([]float64, len(lines[0].Inputs))
	for _, line := range lines {
		floats.Add(mean, line.Inputs)
	}
	floats.Scale(1/float64(len(lines)), mean)

	return mean
}

// CalculateStdDev returns the population standard deviation of every input
// column.
func CalculateStdDev(lines Lines) []float64 {
	if len(lines) == 0 {
		return nil
	}

	mean := CalculateMean(lines)

	stdDev := make([]float64, len(mean))
	for _, line := range lines {
		for i, x := range line.Inputs {
			diff := x - mean[i]
			stdDev[i] += diff * diff
		}
	}

	for i := range stdDev {
		stdDev[i] = math.Sqrt(stdDev[i] / float64(len(lines)))
	}

	return stdDev
}

// GetLines reads comma-separated lines of inputNum inputs followed by
// outputNum targets.
func GetLines(reader io.Reader, inputNum, outputNum int) (Lines, error) {
	scanner := bufio.NewScanner(reader)
	var lines Lines
	var lineNum int
	for scanner.Scan() {
		lineNum++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		splits := strings.Split(text, ",")
		if len(splits) != inputNum+outputNum {
			return lines, errInvalidLine{
				lineNum:  lineNum,
				splits:   len(splits),
				expected: inputNum + outputNum,
			}
		}
		inputs := make([]float64, inputNum)
		targets := make([]float64, outputNum)

		for i, split := range splits {
			num, err := strconv.ParseFloat(strings.TrimSpace(split), 64)
			if err != nil {
				if i < inputNum {
					return lines, fmt.Errorf("line %d: parsing input: %w", lineNum, err)
				}
				return lines, fmt.Errorf("line %d: parsing target: %w", lineNum, err)
			}
			if i < inputNum {
				inputs[i] = num
			} else {
				targets[i-inputNum] = num
			}
		}
		lines = append(lines, Line{
			Inputs:  inputs,
			Targets: targets,
		})
	}
	if err := scanner.Err(); err != nil {
		return lines, fmt.Errorf("scanning lines: %w", err)
	}
	return lines, nil
}

// ErrInvalidLine matches, via errors.Is, any line with the wrong field count.
var ErrInvalidLine = errors.New("invalid line")

type errInvalidLine struct {
	lineNum  int
	splits   int
	expected int
}

func (e errInvalidLine) Error() string {
	return fmt.Sprintf("at line %d, expected %d values, got %d",
		e.lineNum, e.expected, e.splits)
}

func (e errInvalidLine) Is(target error) bool {
	return target == ErrInvalidLine
}
