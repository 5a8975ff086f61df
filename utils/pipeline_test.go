package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gonet/m"
	"gonet/nn"
	"gonet/nn/layers"
)

func TestParseFrontEnd(t *testing.T) {
	specs, err := ParseFrontEnd("conv 4 3 1, act relu, pool 2 2 average,")
	require.NoError(t, err)
	require.Len(t, specs, 3)
	assert.Equal(t, StageSpec{Kind: layers.KindConvolution, Ints: []int{4, 3, 1}}, specs[0])
	assert.Equal(t, StageSpec{Kind: layers.KindNonLinear, Name: "relu"}, specs[1])
	assert.Equal(t, StageSpec{Kind: layers.KindPooling, Ints: []int{2, 2}, Name: "average"}, specs[2])

	specs, err = ParseFrontEnd("")
	require.NoError(t, err)
	assert.Empty(t, specs)

	for _, bad := range []string{"conv 4 3", "pool x 2", "act", "dropout 0.5"} {
		_, err := ParseFrontEnd(bad)
		assert.ErrorIs(t, err, ErrInvalidConfig, bad)
	}
}

func TestBuildConvNet(t *testing.T) {
	specs, err := ParseFrontEnd("conv 2 3 1, act tanh, pool 2 2")
	require.NoError(t, err)

	net, err := BuildConvNet(1, 6, specs, []int{5, 3}, m.Sigmoid, m.NewRand(1))
	require.NoError(t, err)
	channels, side := net.OutputShape()
	assert.Equal(t, 2, channels)
	assert.Equal(t, 2, side)
	assert.Equal(t, []int{8, 5, 3}, net.Tail().NodesPerLayer())
	require.ErrorIs(t, net.AddNonLinearLayer(m.ReLU), nn.ErrPipelineClosed)

	specs, err = ParseFrontEnd("pool 2 2 median")
	require.NoError(t, err)
	_, err = BuildConvNet(1, 6, specs, []int{3}, m.Sigmoid, nil)
	require.ErrorIs(t, err, layers.ErrUnknownStrategy)

	hand := []StageSpec{{Kind: layers.KindConvolution}}
	_, err = BuildConvNet(1, 6, hand, []int{3}, m.Sigmoid, nil)
	require.ErrorIs(t, err, ErrInvalidConfig)
	hand = []StageSpec{{Kind: layers.KindPooling, Ints: []int{2}, Name: "max"}}
	_, err = BuildConvNet(1, 6, hand, []int{3}, m.Sigmoid, nil)
	require.ErrorIs(t, err, ErrInvalidConfig)

	specs, err = ParseFrontEnd("conv 2 7 1")
	require.NoError(t, err)
	_, err = BuildConvNet(1, 6, specs, []int{3}, m.Sigmoid, nil)
	require.ErrorIs(t, err, layers.ErrInvalidGeometry)
}
