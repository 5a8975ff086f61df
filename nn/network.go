package nn

import (
	"errors"
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"

	"gonet/m"
	"gonet/nn/layers"
)

var (
	// ErrPipelineClosed is returned when a front-end layer is added after
	// the fully-connected tail has been started.
	ErrPipelineClosed = errors.New("pipeline closed by fully-connected layer")
	// ErrNoTail is returned when a network without fully-connected layers
	// is asked for a classification.
	ErrNoTail = errors.New("network has no fully-connected layers")
)

// ConvNet is a convolutional front-end feeding a fully-connected tail.
// Layers are accepted in the order (Convolution|Pooling|NonLinear)* then
// FullyConnected+.
type ConvNet struct {
	channels int
	side     int

	// shape of the feature maps produced by the last front-end stage
	outChannels int
	outSide     int

	descriptors []layers.Descriptor
	front       Sequential
	tail        *m.Network
	rng         *rand.Rand
}

// NewConvNet returns an empty pipeline for inputs of the given channel count
// and square image side.
func NewConvNet(channels, side int, rng *rand.Rand) (*ConvNet, error) {
	if channels <= 0 || side <= 0 {
		return nil, fmt.Errorf("%w: %d channels of side %d", layers.ErrInvalidGeometry, channels, side)
	}
	if rng == nil {
		rng = m.NewRand(m.DefaultSeed)
	}
	return &ConvNet{
		channels:    channels,
		side:        side,
		outChannels: channels,
		outSide:     side,
		rng:         rng,
	}, nil
}

func (c *ConvNet) closed() bool {
	return c.tail != nil
}

func (c *ConvNet) addStage(stage layers.Stage) error {
	if c.closed() {
		return fmt.Errorf("%w: cannot add %s", ErrPipelineClosed, stage.Tag())
	}
	channels, side, err := stage.OutputShape(c.outChannels, c.outSide)
	if err != nil {
		return fmt.Errorf("adding %s: %w", stage.Tag(), err)
	}
	c.descriptors = append(c.descriptors, stage)
	c.front.Stages = append(c.front.Stages, stage)
	c.outChannels, c.outSide = channels, side
	return nil
}

// AddConvolutionalLayer appends a convolution whose input channel count is
// the filter count of the previous convolution, or the declared input
// channels for the first one. Pooling and non-linear stages keep the
// channel count unchanged.
func (c *ConvNet) AddConvolutionalLayer(filterCount, kernelSize, stride int) error {
	if c.closed() {
		return fmt.Errorf("%w: cannot add a convolution", ErrPipelineClosed)
	}
	conv, err := layers.NewConvolution(c.outChannels, filterCount, kernelSize, stride, c.rng)
	if err != nil {
		return err
	}
	return c.addStage(conv)
}

func (c *ConvNet) AddPoolingLayer(kernelSize, stride int, strategy layers.PoolStrategy) error {
	if c.closed() {
		return fmt.Errorf("%w: cannot add a pooling layer", ErrPipelineClosed)
	}
	pool, err := layers.NewPooling(kernelSize, stride, strategy)
	if err != nil {
		return err
	}
	return c.addStage(pool)
}

func (c *ConvNet) AddNonLinearLayer(act m.Activation) error {
	if c.closed() {
		return fmt.Errorf("%w: cannot add a non-linear layer", ErrPipelineClosed)
	}
	nl, err := layers.NewNonLinear(act)
	if err != nil {
		return err
	}
	return c.addStage(nl)
}

// AddFullyConnectedLayer appends a layer to the tail network. The first
// call creates the tail with one input per flattened front-end feature and
// closes the front-end.
func (c *ConvNet) AddFullyConnectedLayer(nodeCount int, act m.Activation) error {
	fc, err := layers.NewFullyConnected(nodeCount, act)
	if err != nil {
		return err
	}
	if c.tail == nil {
		tail, err := m.NewNetwork(c.FeatureSize(), c.rng)
		if err != nil {
			return err
		}
		c.tail = tail
	}
	if err := c.tail.AddLayer(nodeCount, act); err != nil {
		return err
	}
	c.descriptors = append(c.descriptors, fc)
	return nil
}

// Descriptors returns the layers in the order they were added.
func (c *ConvNet) Descriptors() []layers.Descriptor {
	return append([]layers.Descriptor(nil), c.descriptors...)
}

// InputShape is the declared (channels, side) of an input image.
func (c *ConvNet) InputShape() (int, int) {
	return c.channels, c.side
}

// OutputShape is the (channels, side) of the front-end's feature maps.
func (c *ConvNet) OutputShape() (int, int) {
	return c.outChannels, c.outSide
}

// FeatureSize is the length of the flattened front-end output.
func (c *ConvNet) FeatureSize() int {
	return c.outChannels * c.outSide * c.outSide
}

// Tail returns the fully-connected network, or nil before the first
// AddFullyConnectedLayer call. Train it on FeatureLines output.
func (c *ConvNet) Tail() *m.Network {
	return c.tail
}

// Features runs the front-end on input, a channels × side² matrix with one
// image per row, and flattens the result row by row.
func (c *ConvNet) Features(input mat.Matrix) ([]float64, error) {
	r, cols := input.Dims()
	if r != c.channels || cols != c.side*c.side {
		return nil, fmt.Errorf("%w: input is %dx%d, want %dx%d",
			m.ErrShapeMismatch, r, cols, c.channels, c.side*c.side)
	}
	out, err := c.front.Forward(mat.DenseCopyOf(input))
	if err != nil {
		return nil, err
	}
	return m.MatrixToVector(out), nil
}

// FeedForward classifies input through the front-end and the tail.
func (c *ConvNet) FeedForward(input mat.Matrix) (*mat.VecDense, int, error) {
	if c.tail == nil {
		return nil, -1, ErrNoTail
	}
	features, err := c.Features(input)
	if err != nil {
		return nil, -1, err
	}
	return c.tail.FeedForward(features)
}

// FeatureLines maps every line's flattened image through the front-end so
// the tail can be trained on the result. Targets are shared, not copied.
func (c *ConvNet) FeatureLines(lines m.Lines) (m.Lines, error) {
	out := make(m.Lines, len(lines))
	for i, line := range lines {
		if len(line.Inputs) != c.channels*c.side*c.side {
			return nil, fmt.Errorf("line %d: %w: %d inputs, want %d",
				i, m.ErrShapeMismatch, len(line.Inputs), c.channels*c.side*c.side)
		}
		img := mat.NewDense(c.channels, c.side*c.side, line.Inputs)
		features, err := c.Features(img)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", i, err)
		}
		out[i] = m.Line{Inputs: features, Targets: line.Targets}
	}
	return out, nil
}
