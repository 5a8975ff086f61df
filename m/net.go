package m

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrShapeMismatch = errors.New("shape mismatch")
	ErrNoLayers      = errors.New("network has no layers")
	ErrInvalidLayer  = errors.New("invalid layer")
)

// DefaultSeed seeds the generator of networks built without one.
const DefaultSeed = 1

// NewRand returns the seeded generator networks and trainers share.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Network is a fully-connected feed-forward network. Layer i maps the
// activations of descriptor i to descriptor i+1 through weights[i] and
// biases[i], so there is always one fewer parameter layer than descriptors.
type Network struct {
	nodesPerLayer []int
	activations   []Activation
	weights       []*mat.Dense
	biases        []*mat.VecDense
	rng           *rand.Rand

	// held for the duration of a training schedule
	training sync.Mutex
}

// NewEmptyNetwork returns a network without descriptors. The first AddLayer
// call defines the input size and allocates no parameters.
func NewEmptyNetwork(rng *rand.Rand) *Network {
	if rng == nil {
		rng = NewRand(DefaultSeed)
	}
	return &Network{rng: rng}
}

// NewNetwork returns a network whose input size is known but which has no
// parameter layers yet.
func NewNetwork(inputSize int, rng *rand.Rand) (*Network, error) {
	net := NewEmptyNetwork(rng)
	if err := net.AddLayer(inputSize, Sigmoid); err != nil {
		return nil, err
	}
	return net, nil
}

// NewNetworkFromSizes builds a network with sizes[0] inputs and one
// parameter layer per remaining entry, activated by the matching acts entry.
func NewNetworkFromSizes(sizes []int, acts []Activation, rng *rand.Rand) (*Network, error) {
	if len(sizes) < 2 {
		return nil, fmt.Errorf("%w: need at least an input and an output size, got %v", ErrInvalidLayer, sizes)
	}
	if len(acts) != len(sizes)-1 {
		return nil, fmt.Errorf("%w: %d activations for %d layers", ErrInvalidLayer, len(acts), len(sizes)-1)
	}
	net, err := NewNetwork(sizes[0], rng)
	if err != nil {
		return nil, err
	}
	for i, n := range sizes[1:] {
		if err := net.AddLayer(n, acts[i]); err != nil {
			return nil, fmt.Errorf("adding layer %d: %w", i+1, err)
		}
	}
	return net, nil
}

// AddLayer appends a layer of nodeCount nodes. Unless it is the first
// descriptor, it also allocates an N(0, 1) bias of length nodeCount and a
// nodeCount×previous weight matrix.
func (net *Network) AddLayer(nodeCount int, act Activation) error {
	if nodeCount <= 0 {
		return fmt.Errorf("%w: node count %d", ErrInvalidLayer, nodeCount)
	}
	if !act.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownActivation, int(act))
	}
	if len(net.nodesPerLayer) > 0 {
		prev := net.nodesPerLayer[len(net.nodesPerLayer)-1]
		net.biases = append(net.biases, mat.NewVecDense(nodeCount, randomArray(nodeCount, net.rng)))
		net.weights = append(net.weights, RandomNormal(nodeCount, prev, net.rng))
	}
	net.nodesPerLayer = append(net.nodesPerLayer, nodeCount)
	net.activations = append(net.activations, act)
	return nil
}

// LayerCount is the number of parameter layers.
func (net *Network) LayerCount() int {
	return len(net.weights)
}

// NodesPerLayer returns a copy of the per-descriptor node counts.
func (net *Network) NodesPerLayer() []int {
	return append([]int(nil), net.nodesPerLayer...)
}

// Activations returns the activation of every parameter layer.
func (net *Network) Activations() []Activation {
	if len(net.activations) < 2 {
		return nil
	}
	return append([]Activation(nil), net.activations[1:]...)
}

// InputSize is the node count of the first descriptor, or 0 if none.
func (net *Network) InputSize() int {
	if len(net.nodesPerLayer) == 0 {
		return 0
	}
	return net.nodesPerLayer[0]
}

// OutputSize is the node count of the last descriptor, or 0 if none.
func (net *Network) OutputSize() int {
	if len(net.nodesPerLayer) == 0 {
		return 0
	}
	return net.nodesPerLayer[len(net.nodesPerLayer)-1]
}

func (net *Network) layerActivation(i int) Activation {
	return net.activations[i+1]
}

// forward runs the network on input and keeps every pre-activation zs[i]
// and activation as[i+1]; as[0] is the input itself.
func (net *Network) forward(input []float64) (zs, as []*mat.VecDense, err error) {
	if net.LayerCount() == 0 {
		return nil, nil, ErrNoLayers
	}
	if len(input) != net.InputSize() {
		return nil, nil, fmt.Errorf("%w: input has %d values, network expects %d",
			ErrShapeMismatch, len(input), net.InputSize())
	}

	zs = make([]*mat.VecDense, net.LayerCount())
	as = make([]*mat.VecDense, net.LayerCount()+1)
	as[0] = mat.NewVecDense(len(input), append([]float64(nil), input...))
	for i := range net.weights {
		zs[i], err = weightedSum(net.weights[i], as[i], net.biases[i])
		if err != nil {
			return nil, nil, fmt.Errorf("layer %d: %w", i, err)
		}
		as[i+1], err = net.layerActivation(i).applyVec(zs[i], false)
		if err != nil {
			return nil, nil, fmt.Errorf("layer %d: %w", i, err)
		}
	}
	return zs, as, nil
}

// FeedForward returns the output activation for input along with the index
// of its largest element, the predicted class.
func (net *Network) FeedForward(input []float64) (*mat.VecDense, int, error) {
	_, as, err := net.forward(input)
	if err != nil {
		return nil, -1, err
	}
	out := as[len(as)-1]
	return out, argMaxVec(out), nil
}

// Predict returns only the predicted class for input.
func (net *Network) Predict(input []float64) (int, error) {
	_, class, err := net.FeedForward(input)
	return class, err
}

// RunActivation applies act, or its derivative, to v.
func RunActivation(v mat.Matrix, act Activation, derivative bool) (*mat.Dense, error) {
	return act.Apply(v, derivative)
}

// Weights returns a copy of every weight matrix as nested rows.
func (net *Network) Weights() [][][]float64 {
	out := make([][][]float64, len(net.weights))
	for i, w := range net.weights {
		out[i] = toRows(w)
	}
	return out
}

// Biases returns a copy of every bias vector.
func (net *Network) Biases() [][]float64 {
	out := make([][]float64, len(net.biases))
	for i, b := range net.biases {
		out[i] = append([]float64(nil), b.RawVector().Data...)
	}
	return out
}

// SetParameters overwrites weights and biases in place. Shapes must match
// the network exactly; nothing is modified when they do not.
func (net *Network) SetParameters(weights [][][]float64, biases [][]float64) error {
	if len(weights) != net.LayerCount() || len(biases) != net.LayerCount() {
		return fmt.Errorf("%w: got %d weight and %d bias layers, network has %d",
			ErrShapeMismatch, len(weights), len(biases), net.LayerCount())
	}
	for i := range net.weights {
		r, c := net.weights[i].Dims()
		if len(weights[i]) != r || len(biases[i]) != r {
			return fmt.Errorf("%w: layer %d expects %d rows", ErrShapeMismatch, i, r)
		}
		for _, row := range weights[i] {
			if len(row) != c {
				return fmt.Errorf("%w: layer %d expects %d columns, got %d", ErrShapeMismatch, i, c, len(row))
			}
		}
	}
	for i := range net.weights {
		for j, row := range weights[i] {
			net.weights[i].SetRow(j, row)
		}
		copy(net.biases[i].RawVector().Data, biases[i])
	}
	return nil
}
