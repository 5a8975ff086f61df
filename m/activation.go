package m

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ErrUnknownActivation is returned for an Activation outside the defined set.
var ErrUnknownActivation = errors.New("unknown activation")

// Activation selects one of the elementwise non-linearities a layer applies.
type Activation int

const (
	Sigmoid Activation = iota
	Tanh
	ReLU
	LeakyReLU
)

// leakyFloor is what LeakyReLU returns for non-positive inputs.
const leakyFloor = 0.01

var ActivatorLookup = map[string]Activation{
	"sigmoid":   Sigmoid,
	"tanh":      Tanh,
	"relu":      ReLU,
	"leakyrelu": LeakyReLU,
}

// ParseActivation resolves a name from ActivatorLookup, case-insensitively.
func ParseActivation(name string) (Activation, error) {
	a, ok := ActivatorLookup[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownActivation, name)
	}
	return a, nil
}

func (a Activation) String() string {
	switch a {
	case Sigmoid:
		return "sigmoid"
	case Tanh:
		return "tanh"
	case ReLU:
		return "relu"
	case LeakyReLU:
		return "leakyrelu"
	}
	return fmt.Sprintf("Activation(%d)", int(a))
}

// Valid reports whether a is one of the defined activations.
func (a Activation) Valid() bool {
	_, err := a.Func(false)
	return err == nil
}

// Func returns the scalar form of the activation, or of its derivative.
func (a Activation) Func(derivative bool) (func(float64) float64, error) {
	switch a {
	case Sigmoid:
		if derivative {
			return sigmoidPrime, nil
		}
		return sigmoid, nil
	case Tanh:
		if derivative {
			return tanhPrime, nil
		}
		return math.Tanh, nil
	case ReLU:
		if derivative {
			return step, nil
		}
		return relu, nil
	case LeakyReLU:
		if derivative {
			return step, nil
		}
		return leakyRelu, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownActivation, int(a))
}

// Apply evaluates the activation (or its derivative) elementwise over x.
// Vectors and matrices are treated identically; the result has x's shape.
func (a Activation) Apply(x mat.Matrix, derivative bool) (*mat.Dense, error) {
	fn, err := a.Func(derivative)
	if err != nil {
		return nil, err
	}
	r, c := x.Dims()
	o := mat.NewDense(r, c, nil)
	o.Apply(func(_, _ int, v float64) float64 { return fn(v) }, x)
	return o, nil
}

// applyVec is Apply for column vectors, keeping the VecDense type.
func (a Activation) applyVec(x mat.Vector, derivative bool) (*mat.VecDense, error) {
	fn, err := a.Func(derivative)
	if err != nil {
		return nil, err
	}
	n := x.Len()
	o := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		o.SetVec(i, fn(x.AtVec(i)))
	}
	return o, nil
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-x))
}

func sigmoidPrime(x float64) float64 {
	s := sigmoid(x)
	return s * (1 - s)
}

func tanhPrime(x float64) float64 {
	t := math.Tanh(x)
	return 1 - t*t
}

func relu(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

func leakyRelu(x float64) float64 {
	if x > 0 {
		return x
	}
	return leakyFloor
}

func step(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}
