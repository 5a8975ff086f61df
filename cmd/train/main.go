// gonet-train: mini-batch SGD trainer for fully-connected and convolutional
// networks.
//
// Usage:
//
//	gonet-train -arch "784 30 10" -train mnist_train.csv -test mnist_test.csv -mnist -epochs 30 -batch 10 -lr 3
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/exp/rand"

	"gonet/m"
	"gonet/nn"
	"gonet/nn/layers"
	"gonet/utils"
)

var (
	name         = flag.String("name", "", "Run name recorded in the runs file")
	arch         = flag.String("arch", "4 8 3", "Space-separated layer sizes, input first")
	activation   = flag.String("activation", "sigmoid", "Activation: sigmoid, tanh, relu, leakyrelu")
	epochs       = flag.Int("epochs", 30, "Number of training epochs")
	batchSize    = flag.Int("batch", 10, "Mini-batch size; must divide the training set")
	learningRate = flag.Float64("lr", 3.0, "Learning rate")
	seed         = flag.Uint64("seed", m.DefaultSeed, "Random seed")
	workers      = flag.Int("workers", 0, "Concurrent backprop workers (0 = all CPUs)")
	dataRoot     = flag.String("data", ".", "Directory the -train and -test paths are relative to")
	trainFile    = flag.String("train", "", "Training CSV (synthetic data when empty)")
	testFile     = flag.String("test", "", "Test CSV")
	mnist        = flag.Bool("mnist", false, "CSV files use the MNIST label,pixels layout")
	samples      = flag.Int("samples", 200, "Number of synthetic samples")
	normalize    = flag.Bool("normalize", false, "Standardise inputs with training-set statistics")
	frontEnd     = flag.String("conv", "", `Convolutional front-end, e.g. "conv 4 3 1, act relu, pool 2 2 max"`)
	channels     = flag.Int("channels", 1, "Image channels when -conv is set")
	outputFile   = flag.String("output", "", "Output weights file (JSON)")
	runsFile     = flag.String("runs", "", "Runs history CSV to append to")
	verbose      = flag.Bool("verbose", true, "Verbose output")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	architecture, err := utils.ParseArchitecture(*arch)
	if err != nil {
		fatal("parsing architecture", err)
	}
	config := &utils.Config{
		Name:         *name,
		Architecture: architecture,
		Activation:   *activation,
		Epochs:       *epochs,
		BatchSize:    *batchSize,
		LearningRate: *learningRate,
		Seed:         *seed,
		Workers:      *workers,
		DataRoot:     *dataRoot,
	}
	if err := utils.ValidateConfig(config); err != nil {
		fatal("validating configuration", err)
	}
	if *frontEnd != "" && *outputFile != "" {
		fatal("saving weights", fmt.Errorf("weights files hold fully-connected networks only; drop -output or -conv"))
	}

	fmt.Printf("\nConfiguration:\n")
	fmt.Printf("  Architecture:  %v\n", config.Architecture)
	fmt.Printf("  Activation:    %s\n", config.Activation)
	fmt.Printf("  Epochs:        %d\n", config.Epochs)
	fmt.Printf("  Batch size:    %d\n", config.BatchSize)
	fmt.Printf("  Learning Rate: %.4f\n", config.LearningRate)
	fmt.Printf("  Seed:          %d\n", config.Seed)
	fmt.Println()

	stats := &utils.TimingStats{}
	totalStart := time.Now()
	rng := m.NewRand(config.Seed)
	inputs, outputs := config.Architecture[0], config.Architecture[len(config.Architecture)-1]

	start := time.Now()
	training, test, err := loadData(config, rng, inputs, outputs)
	if err != nil {
		fatal("loading data", err)
	}
	stats.DataLoadingTime = time.Since(start)
	fmt.Printf("Loaded %d training and %d test samples\n", len(training), len(test))

	start = time.Now()
	net, training, test, err := buildNetwork(config, rng, training, test)
	if err != nil {
		fatal("building network", err)
	}
	stats.ModelInitTime = time.Since(start)
	fmt.Printf("Network: %v\n", net.NodesPerLayer())

	var opts []m.TrainerOption
	if config.Workers > 0 {
		opts = append(opts, m.WithWorkers(config.Workers))
	}
	if utils.Verbose {
		opts = append(opts, m.WithOutput(utils.Output))
	}
	trainer := m.NewTrainer(net, rng, opts...)

	schedule, err := trainer.StochasticGradientDescent(training, config.Epochs, config.BatchSize, config.LearningRate, test)
	if err != nil {
		fatal("configuring training", err)
	}
	fmt.Println("\nStarting training...")
	trainingStart := time.Now()
	for res, err := range schedule {
		if err != nil {
			fatal("training", err)
		}
		stats.Record(res)
	}
	trainingEnd := time.Now()

	start = time.Now()
	cost, err := nn.MeanSquaredError(net, training)
	if err != nil {
		fatal("evaluating cost", err)
	}
	accuracy := -1.0
	if len(test) > 0 {
		correct, total, err := trainer.Evaluate(test)
		if err != nil {
			fatal("evaluating accuracy", err)
		}
		accuracy = float64(correct) / float64(total) * 100
		fmt.Printf("Accuracy %.2f%% (%d/%d)\n", accuracy, correct, total)
	}
	stats.EvaluationTime += time.Since(start)
	stats.TotalTime = time.Since(totalStart)
	fmt.Printf("Training cost %.6f\n", cost)
	fmt.Printf("Training took %d seconds\n", int64(trainingEnd.Sub(trainingStart).Seconds()))
	utils.PrintTimingStats(stats)

	if *outputFile != "" {
		fmt.Printf("\nSaving weights to %s...\n", *outputFile)
		weights, err := utils.FromNetwork(net)
		if err != nil {
			fatal("snapshotting weights", err)
		}
		if err := utils.SaveWeights(*outputFile, weights); err != nil {
			fatal("saving weights", err)
		}
	}

	if *runsFile != "" && config.Name != "" {
		run := utils.Run{
			Name:           config.Name,
			Activation:     config.Activation,
			Architecture:   config.Architecture,
			Epochs:         config.Epochs,
			BatchSize:      config.BatchSize,
			LearningRate:   config.LearningRate,
			Seed:           config.Seed,
			EndTime:        trainingEnd.Unix(),
			SecondsToTrain: int64(trainingEnd.Sub(trainingStart).Seconds()),
			Accuracy:       accuracy,
			WeightsPath:    *outputFile,
		}
		if err := utils.AppendRun(*runsFile, run); err != nil {
			fatal("recording run", err)
		}
	}
}

func fatal(doing string, err error) {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", doing, err)
	os.Exit(1)
}

func loadData(config *utils.Config, rng *rand.Rand, inputs, outputs int) (m.Lines, m.Lines, error) {
	if *trainFile == "" {
		fmt.Printf("Generating %d synthetic samples...\n", *samples)
		all := generateData(rng, inputs, outputs, *samples)
		split := len(all) * 4 / 5
		return all[:split], all[split:], nil
	}

	training, err := readLines(dataPath(config.DataRoot, *trainFile), inputs, outputs)
	if err != nil {
		return nil, nil, err
	}
	var test m.Lines
	if *testFile != "" {
		if test, err = readLines(dataPath(config.DataRoot, *testFile), inputs, outputs); err != nil {
			return nil, nil, err
		}
	}
	if *normalize {
		mean, std := m.CalculateMean(training), m.CalculateStdDev(training)
		training = m.NormalizeLines(training, std, mean)
		test = m.NormalizeLines(test, std, mean)
	}
	return training, test, nil
}

// dataPath resolves relative data files against root.
func dataPath(root, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}

func readLines(path string, inputs, outputs int) (m.Lines, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if *mnist {
		return m.GetLinesMNIST(f, inputs, outputs)
	}
	return m.GetLines(f, inputs, outputs)
}

// generateData draws N(0, 1) inputs labelled by the largest of their first
// outputs values, so the classes are learnable.
func generateData(rng *rand.Rand, inputs, outputs, n int) m.Lines {
	lines := make(m.Lines, n)
	for i := range lines {
		in := make([]float64, inputs)
		for j := range in {
			in[j] = rng.NormFloat64()
		}
		label := i % outputs
		if inputs >= outputs {
			label = m.ArgMax(in[:outputs])
		}
		target := make([]float64, outputs)
		target[label] = 1
		lines[i] = m.Line{Inputs: in, Targets: target}
	}
	return lines
}

// buildNetwork returns the network to train. With a convolutional
// front-end, the returned network is its tail and the data sets are mapped
// to front-end features.
func buildNetwork(config *utils.Config, rng *rand.Rand, training, test m.Lines) (*m.Network, m.Lines, m.Lines, error) {
	acts, err := config.Activations()
	if err != nil {
		return nil, nil, nil, err
	}
	if *frontEnd == "" {
		net, err := m.NewNetworkFromSizes(config.Architecture, acts, rng)
		return net, training, test, err
	}

	specs, err := utils.ParseFrontEnd(*frontEnd)
	if err != nil {
		return nil, nil, nil, err
	}
	if *channels <= 0 || config.Architecture[0]%*channels != 0 {
		return nil, nil, nil, fmt.Errorf("%d inputs do not split into %d channels", config.Architecture[0], *channels)
	}
	side, err := layers.ImageSide(config.Architecture[0] / *channels)
	if err != nil {
		return nil, nil, nil, err
	}
	conv, err := utils.BuildConvNet(*channels, side, specs, config.Architecture[1:], acts[0], rng)
	if err != nil {
		return nil, nil, nil, err
	}
	fmt.Printf("Front-end: %d stages, %d features\n", len(conv.Descriptors())-len(config.Architecture)+1, conv.FeatureSize())
	if training, err = conv.FeatureLines(training); err != nil {
		return nil, nil, nil, err
	}
	if test, err = conv.FeatureLines(test); err != nil {
		return nil, nil, nil, err
	}
	return conv.Tail(), training, test, nil
}
