package utils

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"gonet/m"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds training configuration
type Config struct {
	Name         string
	Architecture []int
	Activation   string
	Epochs       int
	BatchSize    int
	LearningRate float64
	Seed         uint64
	Workers      int
	DataRoot     string
}

// ParseArchitecture parses architecture string into slice of integers
func ParseArchitecture(archStr string) ([]int, error) {
	archParts := strings.Fields(archStr)
	arch := make([]int, len(archParts))
	for i, s := range archParts {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("%w: layer %d: %w", ErrInvalidConfig, i, err)
		}
		arch[i] = n
	}
	return arch, nil
}

// ParseFloats parses a comma-separated list of numbers.
func ParseFloats(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	out := make([]float64, 0, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		f, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

// Activations repeats the configured activation once per parameter layer.
func (c *Config) Activations() ([]m.Activation, error) {
	act, err := m.ParseActivation(c.Activation)
	if err != nil {
		return nil, err
	}
	acts := make([]m.Activation, len(c.Architecture)-1)
	for i := range acts {
		acts[i] = act
	}
	return acts, nil
}

// ValidateConfig validates training configuration
func ValidateConfig(config *Config) error {
	if len(config.Architecture) < 2 {
		return fmt.Errorf("%w: architecture must have at least 2 layers (input and output)", ErrInvalidConfig)
	}
	for i, n := range config.Architecture {
		if n <= 0 {
			return fmt.Errorf("%w: layer %d has %d nodes", ErrInvalidConfig, i, n)
		}
	}

	if _, err := m.ParseActivation(config.Activation); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if config.Epochs < 0 {
		return fmt.Errorf("%w: epochs must not be negative", ErrInvalidConfig)
	}

	if config.BatchSize <= 0 {
		return fmt.Errorf("%w: batch size must be positive", ErrInvalidConfig)
	}

	if config.LearningRate <= 0 {
		return fmt.Errorf("%w: learning rate must be positive", ErrInvalidConfig)
	}

	if config.Workers < 0 {
		return fmt.Errorf("%w: workers must not be negative", ErrInvalidConfig)
	}

	return nil
}
