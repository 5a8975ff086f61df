package layers

import "gonum.org/v1/gonum/mat"

// Kind identifies a descriptor variant.
type Kind int

const (
	KindConvolution Kind = iota
	KindPooling
	KindNonLinear
	KindFullyConnected
)

func (k Kind) String() string {
	switch k {
	case KindConvolution:
		return "Convolution"
	case KindPooling:
		return "Pooling"
	case KindNonLinear:
		return "NonLinear"
	case KindFullyConnected:
		return "FullyConnected"
	default:
		return "Unknown"
	}
}

// Descriptor is a layer of a convolutional pipeline. The set of
// implementations is closed: *Convolution, *Pooling, *NonLinear and
// *FullyConnected.
type Descriptor interface {
	Kind() Kind
	Tag() string
	sealed()
}

// Stage is a descriptor that transforms feature maps: one row per channel,
// side² columns per row.
type Stage interface {
	Descriptor
	// OutputShape returns the (channels, side) produced from an input of
	// the given shape, or an error if the stage cannot accept it.
	OutputShape(channels, side int) (int, int, error)
	Forward(x *mat.Dense) (*mat.Dense, error)
}

var (
	_ Stage      = (*Convolution)(nil)
	_ Stage      = (*Pooling)(nil)
	_ Stage      = (*NonLinear)(nil)
	_ Descriptor = (*FullyConnected)(nil)
)
