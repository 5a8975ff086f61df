package m

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// weightedSum computes w·a + b.
func weightedSum(w mat.Matrix, a, b mat.Vector) (*mat.VecDense, error) {
	r, c := w.Dims()
	if c != a.Len() || r != b.Len() {
		return nil, fmt.Errorf("%w: weights %dx%d, activation %d, bias %d",
			ErrShapeMismatch, r, c, a.Len(), b.Len())
	}
	o := mat.NewVecDense(r, nil)
	o.MulVec(w, a)
	o.AddVec(o, b)
	return o, nil
}

func multiply(a, b mat.Vector) *mat.VecDense {
	o := mat.NewVecDense(a.Len(), nil)
	o.MulElemVec(a, b)
	return o
}

func subtract(a, b mat.Vector) *mat.VecDense {
	o := mat.NewVecDense(a.Len(), nil)
	o.SubVec(a, b)
	return o
}

// transposeDot computes wᵀ·d.
func transposeDot(w mat.Matrix, d mat.Vector) *mat.VecDense {
	_, c := w.Dims()
	o := mat.NewVecDense(c, nil)
	o.MulVec(w.T(), d)
	return o
}

// outer computes the outer product a ⊗ b.
func outer(a, b mat.Vector) *mat.Dense {
	o := mat.NewDense(a.Len(), b.Len(), nil)
	o.Outer(1, a, b)
	return o
}

// randomArray draws size samples from N(0, 1) using src.
func randomArray(size int, src rand.Source) []float64 {
	dist := distuv.Normal{
		Mu:    0,
		Sigma: 1,
		Src:   src,
	}

	data := make([]float64, size)
	for i := 0; i < size; i++ {
		data[i] = dist.Rand()
	}
	return data
}

// RandomNormal returns an r×c matrix with N(0, 1) entries drawn from src.
func RandomNormal(r, c int, src rand.Source) *mat.Dense {
	return mat.NewDense(r, c, randomArray(r*c, src))
}

// ArgMax returns the index of the largest value, or -1 for an empty slice.
func ArgMax(v []float64) int {
	if len(v) == 0 {
		return -1
	}
	return floats.MaxIdx(v)
}

func argMaxVec(v *mat.VecDense) int {
	return ArgMax(v.RawVector().Data)
}

// MatrixToVector flattens a matrix row-major.
func MatrixToVector(matrix mat.Matrix) []float64 {
	r, c := matrix.Dims()
	vector := make([]float64, r*c)

	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			vector[i*c+j] = matrix.At(i, j)
		}
	}

	return vector
}

// VectorToMatrix reshapes a row-major slice into an m×n matrix.
func VectorToMatrix(v []float64, m, n int) (*mat.Dense, error) {
	if len(v) != m*n {
		return nil, fmt.Errorf("%w: %d values for a %dx%d matrix", ErrShapeMismatch, len(v), m, n)
	}
	return mat.NewDense(m, n, append([]float64(nil), v...)), nil
}

// toRows copies a matrix into nested slices.
func toRows(matrix mat.Matrix) [][]float64 {
	r, c := matrix.Dims()
	rows := make([][]float64, r)
	for i := range rows {
		rows[i] = make([]float64, c)
		mat.Row(rows[i], i, matrix)
	}
	return rows
}
