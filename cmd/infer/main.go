// gonet-infer: classify one input with saved weights
//
// Usage:
//
//	gonet-infer -weights iris.json -query "5.1,3.5,1.4,0.2"
//	gonet-infer -name iris -runs runs/analysis.csv -query "5.1,3.5,1.4,0.2"
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"gonet/nn"
	"gonet/utils"
)

var (
	weightsFile = flag.String("weights", "", "Weights JSON file")
	name        = flag.String("name", "", "Use the weights of the most accurate run with this name")
	runsFile    = flag.String("runs", "runs/analysis.csv", "Runs history CSV searched by -name")
	query       = flag.String("query", "", "Comma-separated input values")
	verbose     = flag.Bool("verbose", true, "Verbose output")
	topK        = flag.Int("topk", 3, "Top predictions to show")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	path := *weightsFile
	if path == "" {
		if *name == "" {
			fatal("choosing weights", fmt.Errorf("set -weights or -name"))
		}
		run, err := utils.BestRun(*runsFile, *name)
		if err != nil {
			fatal("finding best run", err)
		}
		if run.WeightsPath == "" {
			fatal("finding best run", fmt.Errorf("best %q run saved no weights", *name))
		}
		if utils.Verbose {
			fmt.Printf("Best %q run: %s, %v, accuracy %.2f%%\n", run.Name, run.Activation, run.Architecture, run.Accuracy)
		}
		path = run.WeightsPath
	}

	weights, err := utils.LoadWeights(path)
	if err != nil {
		fatal("loading weights", err)
	}
	net, err := utils.ToNetwork(weights, nil)
	if err != nil {
		fatal("building network", err)
	}
	if utils.Verbose {
		fmt.Printf("Loaded %d layers %v\n", net.LayerCount(), net.NodesPerLayer())
	}

	input, err := utils.ParseFloats(*query)
	if err != nil {
		fatal("parsing query", err)
	}

	start := time.Now()
	output, class, err := net.FeedForward(input)
	if err != nil {
		fatal("running inference", err)
	}
	if utils.Verbose {
		fmt.Printf("Inference time: %.4fs\n", time.Since(start).Seconds())
	}
	fmt.Printf("Class %d\n", class)
	showResults(output, *topK)
}

func fatal(doing string, err error) {
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", doing, err)
	os.Exit(1)
}

func showResults(output *mat.VecDense, k int) {
	if !utils.Verbose {
		return
	}
	probs := nn.Softmax(output)
	indices := topKIndices(output.RawVector().Data, k)

	fmt.Printf("\nTop %d predictions:\n", len(indices))
	for i, idx := range indices {
		fmt.Printf("  %d. Class %d: output %.4f, softmax %.4f\n", i+1, idx, output.AtVec(idx), probs.AtVec(idx))
	}
}

func topKIndices(vals []float64, k int) []int {
	k = min(max(k, 0), len(vals))
	sorted := append([]float64(nil), vals...)
	indices := make([]int, len(vals))
	floats.Argsort(sorted, indices)
	top := make([]int, k)
	for i := range top {
		top[i] = indices[len(indices)-1-i]
	}
	return top
}
