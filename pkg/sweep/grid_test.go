package sweep

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ja7ad/simcampaign/pkg/types"
)

func testGrid() Grid {
	return Grid{
		{Name: "channelWidth", Values: Values(20)},
		{Name: "distance", Values: Values(0, 5)},
		{Name: "mcs", Values: Values(0, 2, 4)},
	}
}

func TestGrid_ShapeAndSize(t *testing.T) {
	g := testGrid()
	assert.Equal(t, []int{1, 2, 3}, g.Shape())
	assert.Equal(t, 6, g.Size())
	assert.Equal(t, 0, Grid{}.Size())
}

func TestGrid_Validate(t *testing.T) {
	require.NoError(t, testGrid().Validate())

	assert.ErrorIs(t, Grid{}.Validate(), ErrEmptyGrid)
	assert.ErrorIs(t, Grid{{Name: "a"}}.Validate(), ErrEmptyParam)
	assert.ErrorIs(t, Grid{{Name: "a", Values: Values(1)}, {Name: "a", Values: Values(2)}}.Validate(), ErrDuplicateParam)
	assert.ErrorIs(t, Grid{{Values: Values(1)}}.Validate(), ErrUnnamedParam)
	assert.ErrorIs(t, Grid{{Name: "distance", Values: Values(0, 5, 0)}}.Validate(), ErrDuplicateValue)
	assert.NoError(t, Grid{{Name: "x", Values: Values(1, 1.0, "1", true)}}.Validate(), "kinds differ")
}

func TestGrid_CombinationsRowMajor(t *testing.T) {
	combos := testGrid().Combinations()
	require.Len(t, combos, 6)

	var got []string
	for _, c := range combos {
		got = append(got, c.String())
	}
	want := []string{
		"channelWidth=20 distance=0 mcs=0",
		"channelWidth=20 distance=0 mcs=2",
		"channelWidth=20 distance=0 mcs=4",
		"channelWidth=20 distance=5 mcs=0",
		"channelWidth=20 distance=5 mcs=2",
		"channelWidth=20 distance=5 mcs=4",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("combinations mismatch (-want +got):\n%s", diff)
	}
}

func TestCombination_KeyIsOrderIndependent(t *testing.T) {
	a := Combination{{Name: "mcs", Value: types.Int(2)}, {Name: "distance", Value: types.Int(5)}}
	b := Combination{{Name: "distance", Value: types.Int(5)}, {Name: "mcs", Value: types.Int(2)}}
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "distance=int:5&mcs=int:2", a.Key())

	c := Combination{{Name: "distance", Value: types.Float(5)}, {Name: "mcs", Value: types.Int(2)}}
	assert.NotEqual(t, a.Key(), c.Key())
}

func TestCombination_Args(t *testing.T) {
	c := Combination{
		{Name: "distance", Value: types.Int(5)},
		{Name: "useRts", Value: types.Bool(false)},
	}
	assert.Equal(t, []string{"--distance=5", "--useRts=false", "--RngRun=3"}, c.Args("RngRun", 3))
	assert.Equal(t, []string{"--distance=5", "--useRts=false"}, c.Args("", 3))
}

func TestGrid_Param(t *testing.T) {
	p, idx, ok := testGrid().Param("mcs")
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Len(t, p.Values, 3)

	_, _, ok = testGrid().Param("nope")
	assert.False(t, ok)
}

func TestParam_Floats(t *testing.T) {
	f, err := Param{Name: "d", Values: Values(0, 2.5, true)}.Floats()
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 2.5, 1}, f)

	_, err = Param{Name: "m", Values: Values("HtMcs0")}.Floats()
	assert.ErrorIs(t, err, ErrNotNumeric)
}

func TestRange(t *testing.T) {
	vals, err := Range(0, 60, 5)
	require.NoError(t, err)
	require.Len(t, vals, 12)
	assert.Equal(t, types.Int(55), vals[11])

	vals, err = Range(0, 7, 2)
	require.NoError(t, err)
	assert.Equal(t, Values(0, 2, 4, 6), vals)

	vals, err = Range(3, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, Values(3, 2, 1), vals)

	_, err = Range(0, 1, 0)
	assert.ErrorIs(t, err, ErrBadRange)
}

func TestGrid_UnmarshalYAMLKeepsOrder(t *testing.T) {
	src := `
useRts: [false]
distance: {start: 0, stop: 15, step: 5}
mcs: [0, 2]
width: 20.0
`
	var g Grid
	require.NoError(t, yaml.Unmarshal([]byte(src), &g))

	want := Grid{
		{Name: "useRts", Values: Values(false)},
		{Name: "distance", Values: Values(0, 5, 10)},
		{Name: "mcs", Values: Values(0, 2)},
		{Name: "width", Values: Values(20.0)},
	}
	assert.Equal(t, want, g)
}

func TestGrid_YAMLRoundTrip(t *testing.T) {
	g := testGrid()
	b, err := yaml.Marshal(g)
	require.NoError(t, err)

	var back Grid
	require.NoError(t, yaml.Unmarshal(b, &back))
	assert.Equal(t, g, back)
}

func TestGrid_UnmarshalYAMLRejectsSequence(t *testing.T) {
	var g Grid
	err := yaml.Unmarshal([]byte("- a\n- b\n"), &g)
	assert.Error(t, err)
}
