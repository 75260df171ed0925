// Package sweep describes parameter grids: ordered parameter lists whose
// Cartesian product defines every simulation configuration of a campaign.
package sweep

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ja7ad/simcampaign/pkg/types"
)

// Param is one swept dimension. The order of Values is the order of the
// corresponding tensor axis.
type Param struct {
	Name   string
	Values []types.Value
}

// Grid is an ordered list of parameters. Axis i of every result tensor
// corresponds to Grid[i].
type Grid []Param

// Assignment binds one parameter to one value.
type Assignment struct {
	Name  string
	Value types.Value
}

// Combination is one point of the grid, in grid order.
type Combination []Assignment

// Validate checks that the grid is non-empty, names are unique and every value
// list is non-empty and free of repeats.
func (g Grid) Validate() error {
	if len(g) == 0 {
		return ErrEmptyGrid
	}
	seen := make(map[string]struct{}, len(g))
	for _, p := range g {
		if p.Name == "" {
			return ErrUnnamedParam
		}
		if _, dup := seen[p.Name]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateParam, p.Name)
		}
		seen[p.Name] = struct{}{}
		if len(p.Values) == 0 {
			return fmt.Errorf("%w: %s", ErrEmptyParam, p.Name)
		}
		vals := make(map[types.Value]struct{}, len(p.Values))
		for _, v := range p.Values {
			if _, dup := vals[v]; dup {
				return fmt.Errorf("%w: %s=%s", ErrDuplicateValue, p.Name, v)
			}
			vals[v] = struct{}{}
		}
	}
	return nil
}

// Shape returns the number of values per parameter, in grid order.
func (g Grid) Shape() []int {
	shape := make([]int, len(g))
	for i, p := range g {
		shape[i] = len(p.Values)
	}
	return shape
}

// Size is the number of combinations.
func (g Grid) Size() int {
	if len(g) == 0 {
		return 0
	}
	n := 1
	for _, p := range g {
		n *= len(p.Values)
	}
	return n
}

// Param looks a parameter up by name and returns its axis index.
func (g Grid) Param(name string) (Param, int, bool) {
	for i, p := range g {
		if p.Name == name {
			return p, i, true
		}
	}
	return Param{}, -1, false
}

// Combinations returns the Cartesian product in row-major order: the last
// parameter varies fastest, matching the flat layout of a result tensor.
func (g Grid) Combinations() []Combination {
	total := g.Size()
	if total == 0 {
		return nil
	}

	combos := make([]Combination, total)
	for i := range combos {
		combos[i] = make(Combination, len(g))
	}

	repeat := 1
	for dim := len(g) - 1; dim >= 0; dim-- {
		vals := g[dim].Values
		cycle := len(vals)
		for i := 0; i < total; i++ {
			combos[i][dim] = Assignment{Name: g[dim].Name, Value: vals[(i/repeat)%cycle]}
		}
		repeat *= cycle
	}
	return combos
}

// Key is the canonical, order-independent identity of the combination.
func (c Combination) Key() string {
	parts := make([]string, len(c))
	for i, a := range c {
		parts[i] = a.Name + "=" + a.Value.Tagged()
	}
	sort.Strings(parts)
	return strings.Join(parts, "&")
}

// Map returns the combination as a name->value map.
func (c Combination) Map() map[string]types.Value {
	m := make(map[string]types.Value, len(c))
	for _, a := range c {
		m[a.Name] = a.Value
	}
	return m
}

// Args renders command-line arguments "--name=value" in grid order. When
// seedParam is non-empty the seed is appended as "--<seedParam>=<seed>".
func (c Combination) Args(seedParam string, seed int) []string {
	args := make([]string, 0, len(c)+1)
	for _, a := range c {
		args = append(args, fmt.Sprintf("--%s=%s", a.Name, a.Value))
	}
	if seedParam != "" {
		args = append(args, fmt.Sprintf("--%s=%d", seedParam, seed))
	}
	return args
}

func (c Combination) String() string {
	parts := make([]string, len(c))
	for i, a := range c {
		parts[i] = a.Name + "=" + a.Value.String()
	}
	return strings.Join(parts, " ")
}

// Floats returns the numeric view of every value of the parameter.
func (p Param) Floats() ([]float64, error) {
	out := make([]float64, len(p.Values))
	for i, v := range p.Values {
		f, ok := v.Float()
		if !ok {
			return nil, fmt.Errorf("%w: %s=%s", ErrNotNumeric, p.Name, v)
		}
		out[i] = f
	}
	return out, nil
}

// Range mirrors an integer range with an exclusive stop.
func Range(start, stop, step int) ([]types.Value, error) {
	if step == 0 {
		return nil, ErrBadRange
	}
	var out []types.Value
	if step > 0 {
		for v := start; v < stop; v += step {
			out = append(out, types.Int(int64(v)))
		}
	} else {
		for v := start; v > stop; v += step {
			out = append(out, types.Int(int64(v)))
		}
	}
	return out, nil
}

// Values is a convenience to build a value list from Go scalars.
func Values(vs ...any) []types.Value {
	out := make([]types.Value, 0, len(vs))
	for _, v := range vs {
		tv, err := types.Parse(v)
		if err != nil {
			panic(err)
		}
		out = append(out, tv)
	}
	return out
}
