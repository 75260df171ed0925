// Package tensor holds a minimal dense row-major float64 array with the few
// operations a sweep reduction needs: indexing, squeezing size-1 axes and
// reducing over the trailing axis.
package tensor

import (
	"errors"
	"fmt"
	"slices"

	"github.com/ja7ad/simcampaign/pkg/stats"
)

// ErrShape indicates an index or shape incompatible with the tensor.
var ErrShape = errors.New("tensor: shape mismatch")

// Tensor is a dense float64 array stored in row-major order.
type Tensor struct {
	shape []int
	data  []float64
}

// New allocates a zero tensor.
func New(shape ...int) (*Tensor, error) {
	n, err := size(shape)
	if err != nil {
		return nil, err
	}
	return &Tensor{shape: slices.Clone(shape), data: make([]float64, n)}, nil
}

// FromSlice wraps data (not copied) with the given shape.
func FromSlice(data []float64, shape ...int) (*Tensor, error) {
	n, err := size(shape)
	if err != nil {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("%w: %d values for shape %v", ErrShape, len(data), shape)
	}
	return &Tensor{shape: slices.Clone(shape), data: data}, nil
}

func size(shape []int) (int, error) {
	n := 1
	for _, d := range shape {
		if d <= 0 {
			return 0, fmt.Errorf("%w: non-positive dimension in %v", ErrShape, shape)
		}
		n *= d
	}
	return n, nil
}

// Shape returns a copy of the axis sizes.
func (t *Tensor) Shape() []int { return slices.Clone(t.shape) }

// NDim is the number of axes.
func (t *Tensor) NDim() int { return len(t.shape) }

// Len is the total number of elements.
func (t *Tensor) Len() int { return len(t.data) }

// Data exposes the flat row-major backing slice.
func (t *Tensor) Data() []float64 { return t.data }

func (t *Tensor) offset(idx []int) (int, error) {
	if len(idx) != len(t.shape) {
		return 0, fmt.Errorf("%w: %d indices for %d axes", ErrShape, len(idx), len(t.shape))
	}
	off := 0
	for i, x := range idx {
		if x < 0 || x >= t.shape[i] {
			return 0, fmt.Errorf("%w: index %d out of range on axis %d (size %d)", ErrShape, x, i, t.shape[i])
		}
		off = off*t.shape[i] + x
	}
	return off, nil
}

// At returns the element at idx, one index per axis.
func (t *Tensor) At(idx ...int) (float64, error) {
	off, err := t.offset(idx)
	if err != nil {
		return 0, err
	}
	return t.data[off], nil
}

// Set stores v at idx. Indices follow At.
func (t *Tensor) Set(v float64, idx ...int) error {
	off, err := t.offset(idx)
	if err != nil {
		return err
	}
	t.data[off] = v
	return nil
}

// Row returns a copy of row i of a 2-D tensor.
func (t *Tensor) Row(i int) ([]float64, error) {
	if len(t.shape) != 2 {
		return nil, fmt.Errorf("%w: Row on %d-D tensor", ErrShape, len(t.shape))
	}
	if i < 0 || i >= t.shape[0] {
		return nil, fmt.Errorf("%w: row %d of %d", ErrShape, i, t.shape[0])
	}
	cols := t.shape[1]
	return slices.Clone(t.data[i*cols : (i+1)*cols]), nil
}

// Squeeze returns a view without size-1 axes. Axes listed in keep survive
// even when their size is 1; negative entries count from the end.
func (t *Tensor) Squeeze(keep ...int) *Tensor {
	kept := make(map[int]bool, len(keep))
	for _, k := range keep {
		if k < 0 {
			k += len(t.shape)
		}
		kept[k] = true
	}
	shape := make([]int, 0, len(t.shape))
	for i, d := range t.shape {
		if d != 1 || kept[i] {
			shape = append(shape, d)
		}
	}
	return &Tensor{shape: shape, data: t.data}
}

// ReduceLast collapses the trailing axis with fn.
func (t *Tensor) ReduceLast(fn func([]float64) float64) (*Tensor, error) {
	if len(t.shape) == 0 {
		return nil, fmt.Errorf("%w: reduce on 0-D tensor", ErrShape)
	}
	last := t.shape[len(t.shape)-1]
	outShape := slices.Clone(t.shape[:len(t.shape)-1])
	out := make([]float64, len(t.data)/last)
	for i := range out {
		out[i] = fn(t.data[i*last : (i+1)*last])
	}
	return &Tensor{shape: outShape, data: out}, nil
}

// MeanLast is the arithmetic mean over the trailing axis.
func (t *Tensor) MeanLast() (*Tensor, error) { return t.ReduceLast(stats.Mean) }

// StdLast is the sample standard deviation over the trailing axis.
func (t *Tensor) StdLast() (*Tensor, error) { return t.ReduceLast(stats.StdDev) }
