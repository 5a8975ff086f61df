package layers

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"gonet/m"
)

// NonLinear applies an activation to every feature.
type NonLinear struct {
	Activation m.Activation
}

func NewNonLinear(act m.Activation) (*NonLinear, error) {
	if !act.Valid() {
		return nil, fmt.Errorf("%w: %d", m.ErrUnknownActivation, int(act))
	}
	return &NonLinear{Activation: act}, nil
}

func (n *NonLinear) Kind() Kind  { return KindNonLinear }
func (n *NonLinear) Tag() string { return fmt.Sprintf("NonLinear(%s)", n.Activation) }
func (n *NonLinear) sealed()     {}

func (n *NonLinear) OutputShape(channels, side int) (int, int, error) {
	return channels, side, nil
}

func (n *NonLinear) Forward(x *mat.Dense) (*mat.Dense, error) {
	return m.RunActivation(x, n.Activation, false)
}
