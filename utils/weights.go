package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"golang.org/x/exp/rand"

	"gonet/m"
	"gonet/tensor"
)

// FormatVersion is written into every weights file.
const FormatVersion = "1.0"

var ErrWeightsFormat = errors.New("malformed weights file")

// WeightData represents serializable weight data for a layer
type WeightData struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// ModelWeights represents all weights in a model
type ModelWeights struct {
	Version      string        `json:"version"`
	Architecture []int         `json:"architecture"`
	Activations  []string      `json:"activations"`
	Layers       []LayerWeight `json:"layers"`
}

// LayerWeight contains weights and bias for a layer
type LayerWeight struct {
	Weight *WeightData `json:"weight,omitempty"`
	Bias   *WeightData `json:"bias,omitempty"`
}

// SaveWeights saves model weights to a JSON file
func SaveWeights(filepath string, weights *ModelWeights) error {
	data, err := json.MarshalIndent(weights, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal weights: %w", err)
	}
	return os.WriteFile(filepath, data, 0644)
}

// LoadWeights loads model weights from a JSON file
func LoadWeights(filepath string) (*ModelWeights, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read weights file: %w", err)
	}
	var weights ModelWeights
	if err := json.Unmarshal(data, &weights); err != nil {
		return nil, fmt.Errorf("failed to unmarshal weights: %w", err)
	}
	return &weights, nil
}

// TensorToWeightData converts a tensor to serializable weight data
func TensorToWeightData(name string, t *tensor.Tensor) *WeightData {
	return &WeightData{
		Name:  name,
		Shape: append([]int(nil), t.Shape...),
		Data:  append([]float64(nil), t.Data...),
	}
}

// WeightDataToTensor converts weight data back to a tensor
func WeightDataToTensor(wd *WeightData) (*tensor.Tensor, error) {
	t := &tensor.Tensor{
		Data:  append([]float64(nil), wd.Data...),
		Shape: append([]int(nil), wd.Shape...),
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", wd.Name, err)
	}
	return t, nil
}

// FromNetwork snapshots the shape, activations and parameters of net.
func FromNetwork(net *m.Network) (*ModelWeights, error) {
	weights, biases := net.Weights(), net.Biases()
	mw := &ModelWeights{
		Version:      FormatVersion,
		Architecture: net.NodesPerLayer(),
		Layers:       make([]LayerWeight, len(weights)),
	}
	for _, act := range net.Activations() {
		mw.Activations = append(mw.Activations, act.String())
	}
	for i := range weights {
		w, err := tensor.FromRows(weights[i])
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		mw.Layers[i] = LayerWeight{
			Weight: TensorToWeightData(fmt.Sprintf("layer%d_weight", i), w),
			Bias:   TensorToWeightData(fmt.Sprintf("layer%d_bias", i), tensor.NewWithData(biases[i])),
		}
	}
	return mw, nil
}

// ToNetwork rebuilds a network from a snapshot taken by FromNetwork.
func ToNetwork(mw *ModelWeights, rng *rand.Rand) (*m.Network, error) {
	if len(mw.Activations) != len(mw.Architecture)-1 || len(mw.Layers) != len(mw.Activations) {
		return nil, fmt.Errorf("%w: %d sizes, %d activations, %d layers",
			ErrWeightsFormat, len(mw.Architecture), len(mw.Activations), len(mw.Layers))
	}
	acts := make([]m.Activation, len(mw.Activations))
	for i, name := range mw.Activations {
		act, err := m.ParseActivation(name)
		if err != nil {
			return nil, fmt.Errorf("%w: layer %d: %w", ErrWeightsFormat, i, err)
		}
		acts[i] = act
	}
	net, err := m.NewNetworkFromSizes(mw.Architecture, acts, rng)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWeightsFormat, err)
	}

	weights := make([][][]float64, len(mw.Layers))
	biases := make([][]float64, len(mw.Layers))
	for i, layer := range mw.Layers {
		if layer.Weight == nil || layer.Bias == nil {
			return nil, fmt.Errorf("%w: layer %d is missing parameters", ErrWeightsFormat, i)
		}
		w, err := WeightDataToTensor(layer.Weight)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrWeightsFormat, err)
		}
		if weights[i], err = w.Rows(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrWeightsFormat, err)
		}
		b, err := WeightDataToTensor(layer.Bias)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrWeightsFormat, err)
		}
		biases[i] = b.Data
	}
	if err := net.SetParameters(weights, biases); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWeightsFormat, err)
	}
	return net, nil
}
