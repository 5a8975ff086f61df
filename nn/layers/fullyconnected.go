package layers

import (
	"fmt"

	"gonet/m"
)

// FullyConnected records a layer of the dense tail network. It carries no
// parameters of its own; those live in the tail.
type FullyConnected struct {
	Nodes      int
	Activation m.Activation
}

func NewFullyConnected(nodes int, act m.Activation) (*FullyConnected, error) {
	if nodes <= 0 {
		return nil, fmt.Errorf("%w: node count %d", m.ErrInvalidLayer, nodes)
	}
	if !act.Valid() {
		return nil, fmt.Errorf("%w: %d", m.ErrUnknownActivation, int(act))
	}
	return &FullyConnected{Nodes: nodes, Activation: act}, nil
}

func (f *FullyConnected) Kind() Kind { return KindFullyConnected }
func (f *FullyConnected) Tag() string {
	return fmt.Sprintf("FullyConnected(%d, %s)", f.Nodes, f.Activation)
}
func (f *FullyConnected) sealed() {}
