package m

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddLayerFirstCallAllocatesNothing(t *testing.T) {
	net := NewEmptyNetwork(NewRand(3))
	require.NoError(t, net.AddLayer(4, Sigmoid))
	assert.Equal(t, 0, net.LayerCount())
	assert.Equal(t, []int{4}, net.NodesPerLayer())

	require.NoError(t, net.AddLayer(3, ReLU))
	require.NoError(t, net.AddLayer(2, Tanh))
	assert.Equal(t, 2, net.LayerCount())
	assert.Equal(t, []int{4, 3, 2}, net.NodesPerLayer())
	assert.Equal(t, []Activation{ReLU, Tanh}, net.Activations())

	weights, biases := net.Weights(), net.Biases()
	require.Len(t, weights, 2)
	require.Len(t, biases, 2)
	for i := range weights {
		assert.Len(t, weights[i], net.NodesPerLayer()[i+1])
		assert.Len(t, weights[i][0], net.NodesPerLayer()[i])
		assert.Len(t, biases[i], net.NodesPerLayer()[i+1])
	}
}

func TestAddLayerRejectsBadConfiguration(t *testing.T) {
	net := NewEmptyNetwork(nil)
	require.ErrorIs(t, net.AddLayer(0, Sigmoid), ErrInvalidLayer)
	require.ErrorIs(t, net.AddLayer(3, Activation(-1)), ErrUnknownActivation)
	assert.Empty(t, net.NodesPerLayer())
}

func TestNewNetworkFromSizes(t *testing.T) {
	net, err := NewNetworkFromSizes([]int{5, 4, 3}, []Activation{ReLU, Sigmoid}, NewRand(1))
	require.NoError(t, err)
	assert.Equal(t, 2, net.LayerCount())
	assert.Equal(t, 5, net.InputSize())
	assert.Equal(t, 3, net.OutputSize())

	_, err = NewNetworkFromSizes([]int{5}, nil, nil)
	require.ErrorIs(t, err, ErrInvalidLayer)
	_, err = NewNetworkFromSizes([]int{5, 4}, []Activation{ReLU, ReLU}, nil)
	require.ErrorIs(t, err, ErrInvalidLayer)
}

func TestSameSeedSameParameters(t *testing.T) {
	a, err := NewNetworkFromSizes([]int{3, 4, 2}, []Activation{Tanh, Sigmoid}, NewRand(99))
	require.NoError(t, err)
	b, err := NewNetworkFromSizes([]int{3, 4, 2}, []Activation{Tanh, Sigmoid}, NewRand(99))
	require.NoError(t, err)
	assert.Equal(t, a.Weights(), b.Weights())
	assert.Equal(t, a.Biases(), b.Biases())
}

func TestFeedForwardKnownValues(t *testing.T) {
	net, err := NewNetworkFromSizes([]int{2, 2}, []Activation{ReLU}, NewRand(1))
	require.NoError(t, err)
	require.NoError(t, net.SetParameters(
		[][][]float64{{{1, 2}, {-1, -1}}},
		[][]float64{{0.5, 0.25}},
	))

	out, class, err := net.FeedForward([]float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, []float64{3.5, 0}, out.RawVector().Data)
	assert.Equal(t, 0, class)
}

func TestFeedForwardOutputLengthAndDeterminism(t *testing.T) {
	for _, sizes := range [][]int{{3, 1}, {3, 5, 2}, {6, 4, 4, 7}} {
		acts := make([]Activation, len(sizes)-1)
		for i := range acts {
			acts[i] = Activation(i % 4)
		}
		net, err := NewNetworkFromSizes(sizes, acts, NewRand(5))
		require.NoError(t, err)

		input := make([]float64, sizes[0])
		for i := range input {
			input[i] = float64(i) - 1.5
		}
		first, class, err := net.FeedForward(input)
		require.NoError(t, err)
		assert.Equal(t, sizes[len(sizes)-1], first.Len())
		assert.GreaterOrEqual(t, class, 0)

		second, _, err := net.FeedForward(input)
		require.NoError(t, err)
		assert.Equal(t, first.RawVector().Data, second.RawVector().Data)
	}
}

func TestFeedForwardErrors(t *testing.T) {
	net, err := NewNetwork(3, NewRand(1))
	require.NoError(t, err)
	_, _, err = net.FeedForward([]float64{1, 2, 3})
	require.ErrorIs(t, err, ErrNoLayers)

	require.NoError(t, net.AddLayer(2, Sigmoid))
	_, _, err = net.FeedForward([]float64{1, 2})
	require.ErrorIs(t, err, ErrShapeMismatch)
}

func TestSnapshotsAreCopies(t *testing.T) {
	net, err := NewNetworkFromSizes([]int{2, 2}, []Activation{Sigmoid}, NewRand(2))
	require.NoError(t, err)

	weights := net.Weights()
	biases := net.Biases()
	orig := weights[0][0][0]
	weights[0][0][0] = 1e6
	biases[0][0] = 1e6

	assert.Equal(t, orig, net.Weights()[0][0][0])
	assert.NotEqual(t, 1e6, net.Biases()[0][0])
}

func TestSetParametersRejectsWrongShapes(t *testing.T) {
	net, err := NewNetworkFromSizes([]int{2, 3}, []Activation{Sigmoid}, NewRand(2))
	require.NoError(t, err)
	before := net.Weights()

	err = net.SetParameters([][][]float64{{{1, 2}, {3, 4}, {5}}}, [][]float64{{0, 0, 0}})
	require.ErrorIs(t, err, ErrShapeMismatch)
	err = net.SetParameters(nil, nil)
	require.ErrorIs(t, err, ErrShapeMismatch)
	assert.Equal(t, before, net.Weights())
}
