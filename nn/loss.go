package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"gonet/m"
)

// Softmax turns logits into a probability distribution.
func Softmax(logits mat.Vector) *mat.VecDense {
	n := logits.Len()
	data := make([]float64, n)
	for i := range data {
		data[i] = logits.AtVec(i)
	}
	lse := floats.LogSumExp(data)
	for i, v := range data {
		data[i] = math.Exp(v - lse)
	}
	return mat.NewVecDense(n, data)
}

// CrossEntropy is -Σ target·log(probs), with probabilities clamped away
// from zero.
func CrossEntropy(probs, target mat.Vector) (float64, error) {
	if probs.Len() != target.Len() {
		return 0, fmt.Errorf("%w: %d probabilities for %d targets", m.ErrShapeMismatch, probs.Len(), target.Len())
	}
	loss := 0.0
	for i := 0; i < probs.Len(); i++ {
		loss -= target.AtVec(i) * math.Log(math.Max(probs.AtVec(i), 1e-12))
	}
	return loss, nil
}

// SquaredError is ½‖output − target‖², the cost the trainer minimises.
func SquaredError(output, target mat.Vector) (float64, error) {
	if output.Len() != target.Len() {
		return 0, fmt.Errorf("%w: %d outputs for %d targets", m.ErrShapeMismatch, output.Len(), target.Len())
	}
	var diff mat.VecDense
	diff.SubVec(output, target)
	return 0.5 * mat.Dot(&diff, &diff), nil
}

// MeanSquaredError averages SquaredError of net over lines.
func MeanSquaredError(net *m.Network, lines m.Lines) (float64, error) {
	if len(lines) == 0 {
		return 0, m.ErrEmptyDataset
	}
	total := 0.0
	for i, line := range lines {
		out, _, err := net.FeedForward(line.Inputs)
		if err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
		if len(line.Targets) != out.Len() {
			return 0, fmt.Errorf("sample %d: %w: %d targets for %d outputs", i, m.ErrShapeMismatch, len(line.Targets), out.Len())
		}
		cost, err := SquaredError(out, mat.NewVecDense(len(line.Targets), line.Targets))
		if err != nil {
			return 0, fmt.Errorf("sample %d: %w", i, err)
		}
		total += cost
	}
	return total / float64(len(lines)), nil
}
