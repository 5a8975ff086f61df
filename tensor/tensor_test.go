package tensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewShape(t *testing.T) {
	t1 := New(2, 3)
	assert.Len(t, t1.Data, 6)
	assert.Equal(t, []int{2, 3}, t1.Shape)
	require.NoError(t, t1.Validate())
}

func TestAdd(t *testing.T) {
	a := &Tensor{Data: []float64{1, 2, 3}, Shape: []int{3}}
	b := &Tensor{Data: []float64{4, 5, 6}, Shape: []int{3}}
	c, err := Add(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 7, 9}, c.Data)

	_, err = Add(a, New(1, 3))
	require.ErrorIs(t, err, ErrShape)
}

func TestAtSet(t *testing.T) {
	x := New(2, 3, 4)
	x.Set(7, 1, 2, 3)
	assert.Equal(t, 7.0, x.At(1, 2, 3))
	assert.Equal(t, 7.0, x.Data[len(x.Data)-1])
	assert.Panics(t, func() { x.At(2, 0, 0) })
	assert.Panics(t, func() { x.Set(1, 0, 0) })
}

func TestMatrixRoundTrip(t *testing.T) {
	m := mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6})
	x := FromMatrix(m)
	assert.Equal(t, []int{2, 3}, x.Shape)

	back, err := x.Matrix()
	require.NoError(t, err)
	assert.True(t, mat.Equal(m, back))

	col, err := NewWithData([]float64{1, 2}).Matrix()
	require.NoError(t, err)
	r, c := col.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 1, c)

	_, err = New(2, 2, 2).Matrix()
	require.ErrorIs(t, err, ErrShape)
}

func TestRows(t *testing.T) {
	x, err := FromRows([][]float64{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, x.Shape)
	assert.Equal(t, 4.0, x.At(1, 1))

	rows, err := x.Rows()
	require.NoError(t, err)
	rows[0][0] = 100
	assert.Equal(t, 1.0, x.Data[0])

	_, err = FromRows([][]float64{{1, 2}, {3}})
	require.ErrorIs(t, err, ErrShape)
}

func TestImageAndReshape(t *testing.T) {
	x := New(2, 2, 2)
	for i := range x.Data {
		x.Data[i] = float64(i)
	}
	img, err := x.Image()
	require.NoError(t, err)
	assert.Equal(t, []float64{4, 5, 6, 7}, mat.Row(nil, 1, img))

	_, err = New(1, 2, 3).Image()
	require.ErrorIs(t, err, ErrShape)

	flat, err := x.Reshape(8)
	require.NoError(t, err)
	assert.Equal(t, x.Data, flat.Data)
	_, err = x.Reshape(3, 3)
	require.ErrorIs(t, err, ErrShape)

	broken := &Tensor{Data: []float64{1}, Shape: []int{2}}
	require.ErrorIs(t, broken.Validate(), ErrShape)
}
