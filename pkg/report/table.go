// Package report writes averaged sweep results as data files: the plain
// text matrix consumed by plotting scripts plus optional CSV, JSON and HTML
// renditions.
package report

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ja7ad/simcampaign/pkg/tensor"
)

// DefaultFormat renders floats in their shortest round-trip form.
const DefaultFormat = "%g"

// Table is a len(X) by columns matrix of averaged results. Row i belongs to
// X[i]. CI, when set, holds the confidence half-widths with Y's shape.
type Table struct {
	XName   string
	X       []float64
	Columns []string
	Y       *tensor.Tensor
	CI      *tensor.Tensor
}

// NewTable pairs the x-axis values with the averaged results. y must be 2-D
// with len(x) rows.
func NewTable(x []float64, y *tensor.Tensor) (*Table, error) {
	if err := checkShape(x, y); err != nil {
		return nil, err
	}
	return &Table{X: x, Y: y}, nil
}

func checkShape(x []float64, y *tensor.Tensor) error {
	if y == nil {
		return fmt.Errorf("%w: no values", ErrShapeMismatch)
	}
	shape := y.Shape()
	if len(shape) != 2 || shape[0] != len(x) {
		return fmt.Errorf("%w: values of shape %v for %d x values", ErrShapeMismatch, shape, len(x))
	}
	return nil
}

// Rows is the number of x values.
func (t *Table) Rows() int { return len(t.X) }

// Cols is the number of value columns.
func (t *Table) Cols() int { return t.Y.Shape()[1] }

// SetCI attaches confidence half-widths shaped like Y.
func (t *Table) SetCI(ci *tensor.Tensor) error {
	if err := checkShape(t.X, ci); err != nil {
		return err
	}
	if ci.Shape()[1] != t.Cols() {
		return fmt.Errorf("%w: ci shape %v, values %v", ErrShapeMismatch, ci.Shape(), t.Y.Shape())
	}
	t.CI = ci
	return nil
}

// CITable returns the confidence half-widths as a table of their own, or
// nil when none are attached.
func (t *Table) CITable() *Table {
	if t.CI == nil {
		return nil
	}
	return &Table{XName: t.XName, X: t.X, Columns: t.Columns, Y: t.CI}
}

// column returns the header of value column j.
func (t *Table) column(j int) string {
	if j < len(t.Columns) && t.Columns[j] != "" {
		return t.Columns[j]
	}
	return fmt.Sprintf("y%d", j)
}

func (t *Table) xName() string {
	if t.XName == "" {
		return "x"
	}
	return t.XName
}

// row returns a copy of the values in row i of m.
func row(m *tensor.Tensor, i int) []float64 {
	r, err := m.Row(i)
	if err != nil {
		// shapes are checked on construction
		panic(err)
	}
	return r
}

// CheckFormat verifies that format renders one float.
func CheckFormat(format string) error {
	if strings.Count(format, "%") != 1 {
		return fmt.Errorf("%w: %q", ErrBadFormat, format)
	}
	if s := fmt.Sprintf(format, 1.5); strings.Contains(s, "%!") {
		return fmt.Errorf("%w: %q", ErrBadFormat, format)
	}
	return nil
}

// CIPath derives the confidence interval file name: report/x.txt becomes
// report/x_ci.txt.
func CIPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_ci" + ext
}
