package layers

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"gonet/m"
)

// Convolution slides Filters learned kernels over every input channel and
// sums the per-channel responses into one output channel per filter.
type Convolution struct {
	InChannels int
	Filters    int
	Kernel     int
	Stride     int

	// filters[f] is InChannels × Kernel², one flattened kernel per row.
	filters []*mat.Dense
}

// NewConvolution allocates filterCount N(0, 1) filters.
func NewConvolution(inChannels, filterCount, kernel, stride int, rng rand.Source) (*Convolution, error) {
	if inChannels <= 0 || filterCount <= 0 {
		return nil, fmt.Errorf("%w: %d input channels, %d filters", ErrInvalidGeometry, inChannels, filterCount)
	}
	if kernel <= 0 || stride <= 0 {
		return nil, fmt.Errorf("%w: kernel %d, stride %d", ErrInvalidGeometry, kernel, stride)
	}
	c := &Convolution{
		InChannels: inChannels,
		Filters:    filterCount,
		Kernel:     kernel,
		Stride:     stride,
		filters:    make([]*mat.Dense, filterCount),
	}
	for f := range c.filters {
		c.filters[f] = m.RandomNormal(inChannels, kernel*kernel, rng)
	}
	return c, nil
}

func (c *Convolution) Kind() Kind { return KindConvolution }
func (c *Convolution) Tag() string {
	return fmt.Sprintf("Conv(%d->%d, k=%d, s=%d)", c.InChannels, c.Filters, c.Kernel, c.Stride)
}
func (c *Convolution) sealed() {}

// Filter returns a copy of filter f.
func (c *Convolution) Filter(f int) *mat.Dense {
	return mat.DenseCopyOf(c.filters[f])
}

// SetFilter overwrites filter f.
func (c *Convolution) SetFilter(f int, w mat.Matrix) error {
	if f < 0 || f >= c.Filters {
		return fmt.Errorf("filter %d out of range [0, %d)", f, c.Filters)
	}
	r, cols := w.Dims()
	if r != c.InChannels || cols != c.Kernel*c.Kernel {
		return fmt.Errorf("%w: filter is %dx%d, want %dx%d",
			m.ErrShapeMismatch, r, cols, c.InChannels, c.Kernel*c.Kernel)
	}
	c.filters[f].Copy(w)
	return nil
}

func (c *Convolution) OutputShape(channels, side int) (int, int, error) {
	if channels != c.InChannels {
		return 0, 0, fmt.Errorf("%w: convolution expects %d channels, got %d",
			m.ErrShapeMismatch, c.InChannels, channels)
	}
	outSide, err := OutputSide(side, c.Kernel, c.Stride)
	if err != nil {
		return 0, 0, err
	}
	return c.Filters, outSide, nil
}

// Forward convolves x, one image per row, into a Filters × outSide² matrix.
func (c *Convolution) Forward(x *mat.Dense) (*mat.Dense, error) {
	channels, _ := x.Dims()
	if channels != c.InChannels {
		return nil, fmt.Errorf("%w: convolution expects %d channels, got %d",
			m.ErrShapeMismatch, c.InChannels, channels)
	}

	masks := make([]*mat.Dense, channels)
	for ch := range masks {
		mask, err := MaskingMap(mat.Row(nil, ch, x), c.Kernel, c.Stride)
		if err != nil {
			return nil, fmt.Errorf("channel %d: %w", ch, err)
		}
		masks[ch] = mask
	}
	_, positions := masks[0].Dims()

	out := mat.NewDense(c.Filters, positions, nil)
	response := mat.NewVecDense(positions, nil)
	for f, filter := range c.filters {
		row := out.RowView(f).(*mat.VecDense)
		for ch, mask := range masks {
			response.MulVec(mask.T(), filter.RowView(ch))
			row.AddVec(row, response)
		}
	}
	return out, nil
}
