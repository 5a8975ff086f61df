package layers

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var ErrUnknownStrategy = errors.New("unknown pooling strategy")

// PoolStrategy selects how a window collapses to one value.
type PoolStrategy int

const (
	Max PoolStrategy = iota
	Average
)

func (p PoolStrategy) String() string {
	switch p {
	case Max:
		return "max"
	case Average:
		return "average"
	default:
		return fmt.Sprintf("PoolStrategy(%d)", int(p))
	}
}

// ParsePoolStrategy accepts "max", "average" or "avg".
func ParsePoolStrategy(name string) (PoolStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "max":
		return Max, nil
	case "average", "avg":
		return Average, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
}

func (p PoolStrategy) reduce(window []float64) (float64, error) {
	switch p {
	case Max:
		return floats.Max(window), nil
	case Average:
		return floats.Sum(window) / float64(len(window)), nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownStrategy, int(p))
	}
}

// Pooling downsamples every channel independently.
type Pooling struct {
	Kernel   int
	Stride   int
	Strategy PoolStrategy
}

func NewPooling(kernel, stride int, strategy PoolStrategy) (*Pooling, error) {
	if kernel <= 0 || stride <= 0 {
		return nil, fmt.Errorf("%w: kernel %d, stride %d", ErrInvalidGeometry, kernel, stride)
	}
	if strategy != Max && strategy != Average {
		return nil, fmt.Errorf("%w: %d", ErrUnknownStrategy, int(strategy))
	}
	return &Pooling{Kernel: kernel, Stride: stride, Strategy: strategy}, nil
}

func (p *Pooling) Kind() Kind { return KindPooling }
func (p *Pooling) Tag() string {
	return fmt.Sprintf("Pool(%s, k=%d, s=%d)", p.Strategy, p.Kernel, p.Stride)
}
func (p *Pooling) sealed() {}

func (p *Pooling) OutputShape(channels, side int) (int, int, error) {
	outSide, err := OutputSide(side, p.Kernel, p.Stride)
	if err != nil {
		return 0, 0, err
	}
	return channels, outSide, nil
}

// Forward reduces each masking-map column of each row to a single value.
func (p *Pooling) Forward(x *mat.Dense) (*mat.Dense, error) {
	rows, _ := x.Dims()
	var out *mat.Dense
	window := make([]float64, p.Kernel*p.Kernel)
	for r := 0; r < rows; r++ {
		mask, err := MaskingMap(mat.Row(nil, r, x), p.Kernel, p.Stride)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", r, err)
		}
		_, positions := mask.Dims()
		if out == nil {
			out = mat.NewDense(rows, positions, nil)
		}
		for j := 0; j < positions; j++ {
			v, err := p.Strategy.reduce(mat.Col(window, j, mask))
			if err != nil {
				return nil, err
			}
			out.Set(r, j, v)
		}
	}
	if out == nil {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidGeometry)
	}
	return out, nil
}
