package layers

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// ErrInvalidGeometry reports a kernel, stride or image size that cannot
// produce at least one output position.
var ErrInvalidGeometry = errors.New("invalid layer geometry")

// OutputSide is the side of the square produced by sliding a k×k window with
// stride s over a side×side image. Positions that would run past the border
// are dropped.
func OutputSide(side, k, s int) (int, error) {
	if k <= 0 || s <= 0 {
		return 0, fmt.Errorf("%w: kernel %d, stride %d", ErrInvalidGeometry, k, s)
	}
	if side <= 0 || k > side {
		return 0, fmt.Errorf("%w: kernel %d does not fit a %dx%d image", ErrInvalidGeometry, k, side, side)
	}
	return (side-k)/s + 1, nil
}

// ImageSide returns the side of a square image flattened to n values.
func ImageSide(n int) (int, error) {
	side := int(math.Sqrt(float64(n)))
	for side*side > n {
		side--
	}
	for (side+1)*(side+1) <= n {
		side++
	}
	if n <= 0 || side*side != n {
		return 0, fmt.Errorf("%w: %d values is not a square image", ErrInvalidGeometry, n)
	}
	return side, nil
}

// MaskingMap lays every k×k patch of a square image out as one column.
// Column j holds the patch at the j-th stride position, counting output
// positions row by row, and each patch is flattened row-major, so the result
// is k² × outSide².
func MaskingMap(image []float64, k, s int) (*mat.Dense, error) {
	side, err := ImageSide(len(image))
	if err != nil {
		return nil, err
	}
	outSide, err := OutputSide(side, k, s)
	if err != nil {
		return nil, err
	}

	mask := mat.NewDense(k*k, outSide*outSide, nil)
	for oy := 0; oy < outSide; oy++ {
		for ox := 0; ox < outSide; ox++ {
			col := oy*outSide + ox
			for ky := 0; ky < k; ky++ {
				for kx := 0; kx < k; kx++ {
					pixel := (oy*s+ky)*side + ox*s + kx
					mask.Set(ky*k+kx, col, image[pixel])
				}
			}
		}
	}
	return mask, nil
}
