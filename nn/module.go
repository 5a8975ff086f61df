package nn

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"gonet/nn/layers"
)

// Sequential chains feature-map stages in order.
type Sequential struct {
	Stages []layers.Stage
}

// Forward applies each stage in sequence.
func (s *Sequential) Forward(x *mat.Dense) (*mat.Dense, error) {
	out := x
	for i, stage := range s.Stages {
		next, err := stage.Forward(out)
		if err != nil {
			return nil, fmt.Errorf("stage %d (%s): %w", i, stage.Tag(), err)
		}
		out = next
	}
	return out, nil
}

// OutputShape folds every stage's shape rule over the input shape.
func (s *Sequential) OutputShape(channels, side int) (int, int, error) {
	var err error
	for i, stage := range s.Stages {
		channels, side, err = stage.OutputShape(channels, side)
		if err != nil {
			return 0, 0, fmt.Errorf("stage %d (%s): %w", i, stage.Tag(), err)
		}
	}
	return channels, side, nil
}

// Tags lists the stages in order.
func (s *Sequential) Tags() []string {
	tags := make([]string, len(s.Stages))
	for i, stage := range s.Stages {
		tags[i] = stage.Tag()
	}
	return tags
}
