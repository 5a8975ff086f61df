package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"gonet/m"
	"gonet/nn/layers"
)

func TestSequentialPlain(t *testing.T) {
	act, err := layers.NewNonLinear(m.ReLU)
	require.NoError(t, err)
	pool, err := layers.NewPooling(2, 2, layers.Max)
	require.NoError(t, err)
	seq := &Sequential{Stages: []layers.Stage{act, pool}}

	in := mat.NewDense(1, 4, []float64{-5, -1, -3, -2})
	out, err := seq.Forward(in)
	require.NoError(t, err)
	assert.Equal(t, []float64{0}, out.RawMatrix().Data)

	channels, side, err := seq.OutputShape(1, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, channels)
	assert.Equal(t, 1, side)
	assert.Equal(t, []string{"NonLinear(relu)", "Pool(max, k=2, s=2)"}, seq.Tags())
}

func TestSequentialEmptyIsIdentity(t *testing.T) {
	in := mat.NewDense(1, 1, []float64{3})
	out, err := (&Sequential{}).Forward(in)
	require.NoError(t, err)
	assert.Equal(t, 3.0, out.At(0, 0))
}

func TestSequentialReportsFailingStage(t *testing.T) {
	act, err := layers.NewNonLinear(m.Tanh)
	require.NoError(t, err)
	pool, err := layers.NewPooling(3, 1, layers.Average)
	require.NoError(t, err)
	seq := &Sequential{Stages: []layers.Stage{act, pool}}

	_, err = seq.Forward(mat.NewDense(1, 4, nil))
	require.ErrorIs(t, err, layers.ErrInvalidGeometry)
	assert.Contains(t, err.Error(), "stage 1")

	_, _, err = seq.OutputShape(1, 2)
	require.ErrorIs(t, err, layers.ErrInvalidGeometry)
}
