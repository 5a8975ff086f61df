package tensor

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var ErrShape = errors.New("tensor shape mismatch")

// Tensor is a simple n-D array backed by a flat []float64.
type Tensor struct {
	Data  []float64
	Shape []int
}

// New allocates a Tensor of given shape (product of dims = len(Data)).
func New(shape ...int) *Tensor {
	return &Tensor{
		Data:  make([]float64, size(shape)),
		Shape: append([]int(nil), shape...),
	}
}

// NewWithData creates a 1-D tensor from existing data slice.
func NewWithData(data []float64) *Tensor {
	return &Tensor{
		Data:  append([]float64(nil), data...),
		Shape: []int{len(data)},
	}
}

// Reshape returns a copy of t with a new shape holding the same number of
// elements.
func (t *Tensor) Reshape(shape ...int) (*Tensor, error) {
	if size(shape) != len(t.Data) {
		return nil, fmt.Errorf("%w: cannot reshape %v into %v", ErrShape, t.Shape, shape)
	}
	return &Tensor{
		Data:  append([]float64(nil), t.Data...),
		Shape: append([]int(nil), shape...),
	}, nil
}

// Validate reports whether Data holds exactly the elements Shape describes.
func (t *Tensor) Validate() error {
	for _, d := range t.Shape {
		if d < 0 {
			return fmt.Errorf("%w: negative dimension in %v", ErrShape, t.Shape)
		}
	}
	if want := size(t.Shape); want != len(t.Data) {
		return fmt.Errorf("%w: shape %v needs %d values, have %d", ErrShape, t.Shape, want, len(t.Data))
	}
	return nil
}

// Add returns a+b (same shape), or error if shapes differ.
func Add(a, b *Tensor) (*Tensor, error) {
	if !sameShape(a.Shape, b.Shape) {
		return nil, fmt.Errorf("%w: %v vs %v", ErrShape, a.Shape, b.Shape)
	}
	out := New(a.Shape...)
	for i := range a.Data {
		out.Data[i] = a.Data[i] + b.Data[i]
	}
	return out, nil
}

// FromMatrix copies m into a 2-D tensor of shape [rows, cols].
func FromMatrix(m mat.Matrix) *Tensor {
	r, c := m.Dims()
	t := New(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			t.Data[i*c+j] = m.At(i, j)
		}
	}
	return t
}

// Matrix returns a 2-D tensor as a dense matrix. A 1-D tensor becomes a
// single column.
func (t *Tensor) Matrix() (*mat.Dense, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	switch len(t.Shape) {
	case 1:
		if t.Shape[0] == 0 {
			return nil, fmt.Errorf("%w: empty tensor", ErrShape)
		}
		return mat.NewDense(t.Shape[0], 1, append([]float64(nil), t.Data...)), nil
	case 2:
		if t.Shape[0] == 0 || t.Shape[1] == 0 {
			return nil, fmt.Errorf("%w: empty dimension in %v", ErrShape, t.Shape)
		}
		return mat.NewDense(t.Shape[0], t.Shape[1], append([]float64(nil), t.Data...)), nil
	default:
		return nil, fmt.Errorf("%w: Matrix requires a 1-D or 2-D tensor, got %v", ErrShape, t.Shape)
	}
}

// FromRows packs equally long rows into a 2-D tensor.
func FromRows(rows [][]float64) (*Tensor, error) {
	if len(rows) == 0 {
		return New(0, 0), nil
	}
	cols := len(rows[0])
	t := New(len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d values, want %d", ErrShape, i, len(row), cols)
		}
		copy(t.Data[i*cols:], row)
	}
	return t, nil
}

// Rows unpacks a 2-D tensor into freshly allocated rows.
func (t *Tensor) Rows() ([][]float64, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if len(t.Shape) != 2 {
		return nil, fmt.Errorf("%w: Rows requires a 2-D tensor, got %v", ErrShape, t.Shape)
	}
	r, c := t.Shape[0], t.Shape[1]
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = append([]float64(nil), t.Data[i*c:(i+1)*c]...)
	}
	return rows, nil
}

// Image returns a [C,H,W] tensor as a C×(H*W) matrix, one channel per row.
func (t *Tensor) Image() (*mat.Dense, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if len(t.Shape) != 3 || t.Shape[1] != t.Shape[2] {
		return nil, fmt.Errorf("%w: Image requires a square [C,H,W] tensor, got %v", ErrShape, t.Shape)
	}
	c, hw := t.Shape[0], t.Shape[1]*t.Shape[2]
	if c == 0 || hw == 0 {
		return nil, fmt.Errorf("%w: empty image %v", ErrShape, t.Shape)
	}
	return mat.NewDense(c, hw, append([]float64(nil), t.Data...)), nil
}

// At returns the element at the given indices.
// For a 4D tensor [a, b, c, d], At(i, j, k, l) returns the element at position [i][j][k][l].
func (t *Tensor) At(indices ...int) float64 {
	return t.Data[t.offset("At", indices)]
}

// Set sets the element at the given indices to the given value.
func (t *Tensor) Set(value float64, indices ...int) {
	t.Data[t.offset("Set", indices)] = value
}

func (t *Tensor) offset(op string, indices []int) int {
	if len(indices) != len(t.Shape) {
		panic(fmt.Sprintf("%s: expected %d indices, got %d", op, len(t.Shape), len(indices)))
	}
	idx := 0
	stride := 1
	for i := len(indices) - 1; i >= 0; i-- {
		if indices[i] < 0 || indices[i] >= t.Shape[i] {
			panic(fmt.Sprintf("%s: index %d out of bounds for dimension %d (shape: %v)", op, indices[i], i, t.Shape))
		}
		idx += indices[i] * stride
		stride *= t.Shape[i]
	}
	return idx
}

func size(shape []int) int {
	total := 1
	for _, d := range shape {
		total *= d
	}
	return total
}

func sameShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
