package utils

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/rand"

	"gonet/m"
	"gonet/nn"
	"gonet/nn/layers"
)

// StageSpec is one parsed front-end stage, e.g. "conv 8 3 1".
type StageSpec struct {
	Kind layers.Kind
	Ints []int
	Name string
}

// ParseFrontEnd parses a comma-separated list of front-end stages:
//
//	conv <filters> <kernel> <stride>
//	pool <kernel> <stride> [max|average]
//	act <activation>
func ParseFrontEnd(s string) ([]StageSpec, error) {
	var specs []StageSpec
	for i, part := range strings.Split(s, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		spec, err := parseStage(fields)
		if err != nil {
			return nil, fmt.Errorf("%w: stage %d %q: %w", ErrInvalidConfig, i, strings.TrimSpace(part), err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func parseStage(fields []string) (StageSpec, error) {
	ints := func(args []string) ([]int, error) {
		out := make([]int, len(args))
		for i, a := range args {
			n, err := strconv.Atoi(a)
			if err != nil {
				return nil, err
			}
			out[i] = n
		}
		return out, nil
	}

	switch strings.ToLower(fields[0]) {
	case "conv":
		if len(fields) != 4 {
			return StageSpec{}, fmt.Errorf("want conv <filters> <kernel> <stride>")
		}
		n, err := ints(fields[1:])
		return StageSpec{Kind: layers.KindConvolution, Ints: n}, err
	case "pool":
		if len(fields) != 3 && len(fields) != 4 {
			return StageSpec{}, fmt.Errorf("want pool <kernel> <stride> [strategy]")
		}
		n, err := ints(fields[1:3])
		spec := StageSpec{Kind: layers.KindPooling, Ints: n, Name: "max"}
		if len(fields) == 4 {
			spec.Name = fields[3]
		}
		return spec, err
	case "act":
		if len(fields) != 2 {
			return StageSpec{}, fmt.Errorf("want act <activation>")
		}
		return StageSpec{Kind: layers.KindNonLinear, Name: fields[1]}, nil
	}
	return StageSpec{}, fmt.Errorf("unknown stage %q", fields[0])
}

// stageArgs is the number of integer arguments each front-end stage takes.
var stageArgs = map[layers.Kind]int{
	layers.KindConvolution: 3,
	layers.KindPooling:     2,
	layers.KindNonLinear:   0,
}

// BuildConvNet assembles a ConvNet for channels×side×side images from
// front-end stages followed by one fully-connected layer per entry of tail,
// all activated by act.
func BuildConvNet(channels, side int, specs []StageSpec, tail []int, act m.Activation, rng *rand.Rand) (*nn.ConvNet, error) {
	net, err := nn.NewConvNet(channels, side, rng)
	if err != nil {
		return nil, err
	}
	for i, spec := range specs {
		if want := stageArgs[spec.Kind]; len(spec.Ints) != want {
			return nil, fmt.Errorf("%w: stage %d (%s) has %d integer arguments, want %d",
				ErrInvalidConfig, i, spec.Kind, len(spec.Ints), want)
		}
		switch spec.Kind {
		case layers.KindConvolution:
			err = net.AddConvolutionalLayer(spec.Ints[0], spec.Ints[1], spec.Ints[2])
		case layers.KindPooling:
			var strategy layers.PoolStrategy
			strategy, err = layers.ParsePoolStrategy(spec.Name)
			if err == nil {
				err = net.AddPoolingLayer(spec.Ints[0], spec.Ints[1], strategy)
			}
		case layers.KindNonLinear:
			var a m.Activation
			a, err = m.ParseActivation(spec.Name)
			if err == nil {
				err = net.AddNonLinearLayer(a)
			}
		default:
			err = fmt.Errorf("unsupported stage kind %s", spec.Kind)
		}
		if err != nil {
			return nil, fmt.Errorf("stage %d: %w", i, err)
		}
	}
	for i, n := range tail {
		if err := net.AddFullyConnectedLayer(n, act); err != nil {
			return nil, fmt.Errorf("fully-connected layer %d: %w", i, err)
		}
	}
	return net, nil
}
