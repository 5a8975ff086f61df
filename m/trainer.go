package m

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"runtime"
	"sync"
	"time"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrEmptyDataset = errors.New("empty dataset")
	ErrBatchSize    = errors.New("invalid mini-batch size")
	ErrNetworkBusy  = errors.New("network is already being trained")
)

// EpochResult reports one completed epoch. Accuracy is only meaningful when
// Evaluated is set, i.e. when test data was supplied.
type EpochResult struct {
	Epoch     int
	Accuracy  float64
	Evaluated bool
	// Duration covers the training batches only; EvalDuration is the
	// accuracy pass over the test lines.
	Duration     time.Duration
	EvalDuration time.Duration
}

// Trainer runs mini-batch stochastic gradient descent over a Network.
type Trainer struct {
	net     *Network
	rng     *rand.Rand
	workers int
	out     io.Writer

	// guards the per-batch gradient accumulators
	mu sync.Mutex
}

type TrainerOption func(*Trainer)

// WithWorkers bounds the number of samples backpropagated concurrently.
func WithWorkers(n int) TrainerOption {
	return func(t *Trainer) {
		if n > 0 {
			t.workers = n
		}
	}
}

// WithOutput makes the trainer print a line per completed epoch to w.
func WithOutput(w io.Writer) TrainerOption {
	return func(t *Trainer) {
		t.out = w
	}
}

// NewTrainer returns a trainer for net. rng drives the per-epoch shuffles;
// it defaults to the network's own generator.
func NewTrainer(net *Network, rng *rand.Rand, opts ...TrainerOption) *Trainer {
	if rng == nil {
		rng = net.rng
	}
	t := &Trainer{
		net:     net,
		rng:     rng,
		workers: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// StochasticGradientDescent validates its arguments and returns the training
// schedule as a lazy sequence: each epoch runs when the consumer asks for it,
// so breaking out of the range loop stops training at an epoch boundary.
// Every range over the sequence runs all epochs again from the network's
// current parameters.
func (t *Trainer) StochasticGradientDescent(training Lines, epochs, miniBatchSize int, learningRate float64, test Lines) (iter.Seq2[EpochResult, error], error) {
	if err := t.validate(training, epochs, miniBatchSize, learningRate, test); err != nil {
		return nil, err
	}

	return func(yield func(EpochResult, error) bool) {
		if !t.net.training.TryLock() {
			yield(EpochResult{}, ErrNetworkBusy)
			return
		}
		defer t.net.training.Unlock()

		lines := append(Lines(nil), training...)
		for epoch := 0; epoch < epochs; epoch++ {
			res, err := t.runEpoch(epoch, lines, miniBatchSize, learningRate, test)
			if err != nil {
				yield(res, err)
				return
			}
			if t.out != nil {
				if res.Evaluated {
					fmt.Fprintf(t.out, "Epoch %d of %d complete, accuracy %.2f%%\n", epoch+1, epochs, res.Accuracy)
				} else {
					fmt.Fprintf(t.out, "Epoch %d of %d complete\n", epoch+1, epochs)
				}
			}
			if !yield(res, nil) {
				return
			}
		}
	}, nil
}

func (t *Trainer) validate(training Lines, epochs, miniBatchSize int, learningRate float64, test Lines) error {
	if t.net.LayerCount() == 0 {
		return ErrNoLayers
	}
	if len(training) == 0 {
		return fmt.Errorf("training set: %w", ErrEmptyDataset)
	}
	if epochs < 0 {
		return fmt.Errorf("epochs must not be negative, got %d", epochs)
	}
	if miniBatchSize <= 0 {
		return fmt.Errorf("%w: %d", ErrBatchSize, miniBatchSize)
	}
	if len(training)%miniBatchSize != 0 {
		return fmt.Errorf("%w: %d samples do not divide into batches of %d", ErrBatchSize, len(training), miniBatchSize)
	}
	if learningRate <= 0 {
		return fmt.Errorf("learning rate must be positive, got %g", learningRate)
	}
	if err := t.checkShapes("training set", training); err != nil {
		return err
	}
	return t.checkShapes("test set", test)
}

func (t *Trainer) checkShapes(name string, lines Lines) error {
	in, out := t.net.InputSize(), t.net.OutputSize()
	for i, line := range lines {
		if len(line.Inputs) != in {
			return fmt.Errorf("%s line %d: %w: %d inputs, network expects %d", name, i, ErrShapeMismatch, len(line.Inputs), in)
		}
		if len(line.Targets) != out {
			return fmt.Errorf("%s line %d: %w: %d targets, network outputs %d", name, i, ErrShapeMismatch, len(line.Targets), out)
		}
	}
	return nil
}

func (t *Trainer) runEpoch(epoch int, lines Lines, miniBatchSize int, learningRate float64, test Lines) (EpochResult, error) {
	start := time.Now()
	res := EpochResult{Epoch: epoch}

	t.rng.Shuffle(len(lines), func(i, j int) {
		lines[i], lines[j] = lines[j], lines[i]
	})

	for _, batch := range createBatches(lines, miniBatchSize) {
		if err := t.trainBatchSGD(batch, learningRate); err != nil {
			return res, fmt.Errorf("epoch %d: %w", epoch, err)
		}
	}
	res.Duration = time.Since(start)

	if len(test) > 0 {
		evalStart := time.Now()
		correct, total, err := t.Evaluate(test)
		if err != nil {
			return res, fmt.Errorf("epoch %d: evaluating: %w", epoch, err)
		}
		res.Accuracy = 100 * float64(correct) / float64(total)
		res.Evaluated = true
		res.EvalDuration = time.Since(evalStart)
	}
	return res, nil
}

// createBatches slices lines into contiguous batches; len(lines) is a
// multiple of batchSize.
func createBatches(lines Lines, batchSize int) []Lines {
	batches := make([]Lines, 0, len(lines)/batchSize)
	for start := 0; start < len(lines); start += batchSize {
		batches = append(batches, lines[start:start+batchSize])
	}
	return batches
}

func (t *Trainer) trainBatchSGD(batch Lines, learningRate float64) error {
	nablaB, nablaW, err := t.accumulate(batch)
	if err != nil {
		return err
	}
	rate := learningRate / float64(len(batch))
	for i := range t.net.weights {
		nablaW[i].Scale(-rate, nablaW[i])
		t.net.weights[i].Add(t.net.weights[i], nablaW[i])
		t.net.biases[i].AddScaledVec(t.net.biases[i], -rate, nablaB[i])
	}
	return nil
}

// accumulate backpropagates every sample of batch on the worker pool and
// returns the summed bias and weight gradients.
func (t *Trainer) accumulate(batch Lines) ([]*mat.VecDense, []*mat.Dense, error) {
	nablaB := make([]*mat.VecDense, t.net.LayerCount())
	nablaW := make([]*mat.Dense, t.net.LayerCount())
	for i, w := range t.net.weights {
		r, c := w.Dims()
		nablaB[i] = mat.NewVecDense(r, nil)
		nablaW[i] = mat.NewDense(r, c, nil)
	}

	var g errgroup.Group
	g.SetLimit(t.workers)
	for _, line := range batch {
		g.Go(func() error {
			deltaB, deltaW, err := t.net.backprop(line.Inputs, line.Targets)
			if err != nil {
				return err
			}
			t.mu.Lock()
			defer t.mu.Unlock()
			for i := range nablaB {
				nablaB[i].AddVec(nablaB[i], deltaB[i])
				nablaW[i].Add(nablaW[i], deltaW[i])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return nablaB, nablaW, nil
}

// Evaluate counts the lines whose predicted class matches the arg-max of
// their targets.
func (t *Trainer) Evaluate(lines Lines) (correct, total int, err error) {
	if len(lines) == 0 {
		return 0, 0, ErrEmptyDataset
	}
	for i, line := range lines {
		prediction, err := t.net.Predict(line.Inputs)
		if err != nil {
			return 0, 0, fmt.Errorf("line %d: %w", i, err)
		}
		if prediction == ArgMax(line.Targets) {
			correct++
		}
	}
	return correct, len(lines), nil
}

// backprop returns the gradient of the squared-error cost for one sample,
// per layer, as bias and weight deltas.
func (net *Network) backprop(x, y []float64) ([]*mat.VecDense, []*mat.Dense, error) {
	zs, as, err := net.forward(x)
	if err != nil {
		return nil, nil, err
	}
	if len(y) != net.OutputSize() {
		return nil, nil, fmt.Errorf("%w: %d targets, network outputs %d", ErrShapeMismatch, len(y), net.OutputSize())
	}

	L := net.LayerCount() - 1
	nablaB := make([]*mat.VecDense, L+1)
	nablaW := make([]*mat.Dense, L+1)

	prime, err := net.layerActivation(L).applyVec(zs[L], true)
	if err != nil {
		return nil, nil, err
	}
	delta := multiply(subtract(as[L+1], mat.NewVecDense(len(y), y)), prime)
	nablaB[L] = delta
	nablaW[L] = outer(delta, as[L])

	for i := L - 1; i >= 0; i-- {
		prime, err := net.layerActivation(i).applyVec(zs[i], true)
		if err != nil {
			return nil, nil, err
		}
		delta = multiply(transposeDot(net.weights[i+1], delta), prime)
		nablaB[i] = delta
		nablaW[i] = outer(delta, as[i])
	}
	return nablaB, nablaW, nil
}
