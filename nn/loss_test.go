package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"gonet/m"
)

func TestSoftmax(t *testing.T) {
	probs := Softmax(mat.NewVecDense(3, []float64{1, 2, 3}))
	data := probs.RawVector().Data
	assert.InDelta(t, 1.0, floats.Sum(data), 1e-12)
	assert.Equal(t, 2, floats.MaxIdx(data))

	e := []float64{math.Exp(1), math.Exp(2), math.Exp(3)}
	sum := floats.Sum(e)
	for i := range e {
		assert.InDelta(t, e[i]/sum, data[i], 1e-12)
	}

	// large logits must not overflow
	big := Softmax(mat.NewVecDense(2, []float64{1000, 1000}))
	assert.InDelta(t, 0.5, big.AtVec(0), 1e-12)
}

func TestCrossEntropy(t *testing.T) {
	loss, err := CrossEntropy(
		mat.NewVecDense(2, []float64{0.25, 0.75}),
		mat.NewVecDense(2, []float64{0, 1}),
	)
	require.NoError(t, err)
	assert.InDelta(t, -math.Log(0.75), loss, 1e-12)

	loss, err = CrossEntropy(mat.NewVecDense(1, []float64{0}), mat.NewVecDense(1, []float64{1}))
	require.NoError(t, err)
	assert.False(t, math.IsInf(loss, 0))

	_, err = CrossEntropy(mat.NewVecDense(1, nil), mat.NewVecDense(2, nil))
	require.ErrorIs(t, err, m.ErrShapeMismatch)
}

func TestSquaredError(t *testing.T) {
	cost, err := SquaredError(mat.NewVecDense(2, []float64{1, 3}), mat.NewVecDense(2, []float64{0, 1}))
	require.NoError(t, err)
	assert.Equal(t, 2.5, cost)

	_, err = SquaredError(mat.NewVecDense(1, nil), mat.NewVecDense(2, nil))
	require.ErrorIs(t, err, m.ErrShapeMismatch)
}

func TestMeanSquaredError(t *testing.T) {
	net, err := m.NewNetworkFromSizes([]int{1, 1}, []m.Activation{m.ReLU}, m.NewRand(1))
	require.NoError(t, err)
	require.NoError(t, net.SetParameters([][][]float64{{{2}}}, [][]float64{{0}}))

	lines := m.Lines{
		{Inputs: []float64{1}, Targets: []float64{2}},
		{Inputs: []float64{2}, Targets: []float64{2}},
	}
	cost, err := MeanSquaredError(net, lines)
	require.NoError(t, err)
	assert.Equal(t, 1.0, cost)

	_, err = MeanSquaredError(net, nil)
	require.ErrorIs(t, err, m.ErrEmptyDataset)
	_, err = MeanSquaredError(net, m.Lines{{Inputs: []float64{1}, Targets: []float64{1, 2}}})
	require.ErrorIs(t, err, m.ErrShapeMismatch)
}
