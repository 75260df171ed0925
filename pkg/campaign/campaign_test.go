package campaign

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/simcampaign/pkg/notify"
	"github.com/ja7ad/simcampaign/pkg/runner"
	"github.com/ja7ad/simcampaign/pkg/sweep"
	"github.com/ja7ad/simcampaign/pkg/types"
)

func TestOpen_CreatesFolderAndStore(t *testing.T) {
	folder := filepath.Join(t.TempDir(), "results")
	c := openFake(t, folder, &fakeRunner{}, 1)

	assert.DirExists(t, filepath.Join(folder, "data"))
	assert.FileExists(t, filepath.Join(folder, DatabaseName))
	assert.Equal(t, folder, c.Folder())

	program, script, ok, err := c.Store().Meta(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "wifi-multi-tos", script)
	assert.True(t, filepath.IsAbs(program))
}

func TestOpen_RequiresFolder(t *testing.T) {
	_, err := Open(context.Background(), Options{Runner: &fakeRunner{}})
	assert.ErrorIs(t, err, ErrNoFolder)
}

func TestOpen_ProgramNotFound(t *testing.T) {
	_, err := Open(context.Background(), Options{
		Spec:   runner.Spec{Program: filepath.Join(t.TempDir(), "ns-3"), Script: "wifi"},
		Folder: t.TempDir(),
	})
	assert.ErrorIs(t, err, runner.ErrProgramNotFound)
}

func TestOpen_MismatchAndOverwrite(t *testing.T) {
	ctx := context.Background()
	folder := t.TempDir()
	fr := &fakeRunner{table: exampleTable()}

	c, err := Open(ctx, Options{Spec: runner.Spec{Program: "ns-3", Script: "wifi-multi-tos"}, Folder: folder, Runner: fr})
	require.NoError(t, err)
	_, err = c.RunMissing(ctx, exampleGrid(), 1)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	other := runner.Spec{Program: "ns-3", Script: "wifi-spectrum"}
	_, err = Open(ctx, Options{Spec: other, Folder: folder, Runner: fr})
	require.ErrorIs(t, err, ErrCampaignMismatch)

	c, err = Open(ctx, Options{Spec: other, Folder: folder, Runner: fr, Overwrite: true})
	require.NoError(t, err)
	defer c.Close()

	n, err := c.Store().Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, script, _, err := c.Store().Meta(ctx)
	require.NoError(t, err)
	assert.Equal(t, "wifi-spectrum", script)

	entries, err := os.ReadDir(filepath.Join(folder, "data"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunMissing_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	fr := &fakeRunner{table: exampleTable()}
	c := openFake(t, t.TempDir(), fr, 1)

	st, err := c.RunMissing(ctx, exampleGrid(), 2)
	require.NoError(t, err)
	assert.Equal(t, RunStats{Required: 8, Skipped: 0, Executed: 8, Elapsed: st.Elapsed}, st)
	assert.EqualValues(t, 8, fr.calls.Load())

	st, err = c.RunMissing(ctx, exampleGrid(), 2)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Executed)
	assert.Equal(t, 8, st.Skipped)
	assert.EqualValues(t, 8, fr.calls.Load(), "second call must not run anything")
}

func TestRunMissing_OnlyNewRepetitions(t *testing.T) {
	ctx := context.Background()
	fr := &fakeRunner{table: exampleTable()}
	c := openFake(t, t.TempDir(), fr, 1)

	_, err := c.RunMissing(ctx, exampleGrid(), 1)
	require.NoError(t, err)

	jobs, err := c.Missing(ctx, exampleGrid(), 2)
	require.NoError(t, err)
	require.Len(t, jobs, 4)
	for _, j := range jobs {
		assert.Equal(t, 1, j.Repetition)
		assert.Equal(t, 1, j.Seed)
	}

	st, err := c.RunMissing(ctx, exampleGrid(), 2)
	require.NoError(t, err)
	assert.Equal(t, 4, st.Executed)
	assert.EqualValues(t, 8, fr.calls.Load())
}

func TestRunMissing_RejectsBadInput(t *testing.T) {
	c := openFake(t, t.TempDir(), &fakeRunner{}, 1)

	_, err := c.RunMissing(context.Background(), exampleGrid(), 0)
	assert.ErrorIs(t, err, ErrBadRuns)

	_, err = c.RunMissing(context.Background(), sweep.Grid{}, 1)
	assert.ErrorIs(t, err, sweep.ErrEmptyGrid)
}

func TestRunMissing_FailureStopsAndStoresNothingForFailedRun(t *testing.T) {
	ctx := context.Background()
	fr := &fakeRunner{
		table: exampleTable(),
		fail: func(j runner.Job) bool {
			d := j.Combination.Map()["distance"]
			return d == types.Int(5)
		},
	}
	folder := t.TempDir()
	c := openFake(t, folder, fr, 1)

	_, err := c.RunMissing(ctx, exampleGrid(), 2)
	require.Error(t, err)
	assert.ErrorIs(t, err, runner.ErrRunFailed)

	n, err := c.Store().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n, "distance=0 runs precede the first failure")

	entries, err := os.ReadDir(filepath.Join(folder, "data"))
	require.NoError(t, err)
	assert.Len(t, entries, 4, "failed run directories are removed")
}

func TestRunMissing_RepeatedValueRejected(t *testing.T) {
	fr := &fakeRunner{}
	c := openFake(t, t.TempDir(), fr, 1)

	grid := sweep.Grid{
		{Name: "distance", Values: sweep.Values(0, 0)},
		{Name: "mcs", Values: sweep.Values(0, 2)},
	}
	_, err := c.RunMissing(context.Background(), grid, 2)
	assert.ErrorIs(t, err, sweep.ErrDuplicateValue)
	assert.Zero(t, fr.calls.Load())
}

func TestRunMissing_StoreFailureRemovesRunDir(t *testing.T) {
	ctx := context.Background()
	folder := t.TempDir()
	fr := &fakeRunner{}
	c := openFake(t, folder, fr, 1)

	// Another writer stores the same result while the run is in flight.
	fr.before = func(j runner.Job) {
		_ = c.Store().Insert(ctx, Record{
			ID: "concurrent", Key: j.Combination.Key(), Repetition: j.Repetition, CreatedAt: time.Now(),
		})
	}
	_, err := c.RunMissing(ctx, exampleGrid(), 1)
	require.Error(t, err)

	entries, err := os.ReadDir(filepath.Join(folder, "data"))
	require.NoError(t, err)
	assert.Empty(t, entries)

	n, err := c.Store().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRunMissing_BoundedWorkers(t *testing.T) {
	fr := &fakeRunner{table: exampleTable(), delay: 20 * time.Millisecond}
	c := openFake(t, t.TempDir(), fr, 2)

	st, err := c.RunMissing(context.Background(), exampleGrid(), 2)
	require.NoError(t, err)
	assert.Equal(t, 8, st.Executed)
	assert.LessOrEqual(t, fr.peak, 2)
	assert.GreaterOrEqual(t, fr.peak, 1)
}

func TestRunMissing_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fr := &fakeRunner{}
	c := openFake(t, t.TempDir(), fr, 1)

	_, err := c.RunMissing(ctx, exampleGrid(), 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, fr.calls.Load())
}

type recordingNotifier struct {
	events []notify.Event
	closed bool
}

func (r *recordingNotifier) Notify(ev notify.Event) { r.events = append(r.events, ev) }
func (r *recordingNotifier) Close() error           { r.closed = true; return nil }

func TestRunMissing_NotifiesProgress(t *testing.T) {
	rn := &recordingNotifier{}
	c, err := Open(context.Background(), Options{
		Spec:     runner.Spec{Program: "ns-3", Script: "wifi-multi-tos"},
		Folder:   t.TempDir(),
		Runner:   &fakeRunner{table: exampleTable()},
		Notifier: rn,
	})
	require.NoError(t, err)

	_, err = c.RunMissing(context.Background(), exampleGrid(), 1)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	require.Len(t, rn.events, 8)
	assert.Equal(t, notify.KindStarted, rn.events[0].Kind)
	last := rn.events[len(rn.events)-1]
	assert.Equal(t, notify.KindFinished, last.Kind)
	assert.Equal(t, 4, last.Done)
	assert.Equal(t, 4, last.Total)
	assert.True(t, rn.closed)
}

func TestResultsArray_ShapeAndValues(t *testing.T) {
	ctx := context.Background()
	c := openFake(t, t.TempDir(), &fakeRunner{table: exampleTable()}, 1)
	grid := exampleGrid()

	_, err := c.RunMissing(ctx, grid, 2)
	require.NoError(t, err)

	arr, err := c.ResultsArray(ctx, grid, secondToLast, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 2, 1, 2}, arr.Shape())
	assert.Equal(t, []float64{10, 12, 8, 9, 6, 7, 4, 5}, arr.Data())

	sq := arr.Squeeze(-1)
	assert.Equal(t, []int{2, 2, 2}, sq.Shape(), "K non-singleton params + repetition axis")
}

func TestResultsArray_MissingResult(t *testing.T) {
	c := openFake(t, t.TempDir(), &fakeRunner{}, 1)

	_, err := c.ResultsArray(context.Background(), exampleGrid(), secondToLast, 1)
	assert.ErrorIs(t, err, ErrMissingResult)
}

func TestResultsArray_ExtractorErrorPropagates(t *testing.T) {
	ctx := context.Background()
	c := openFake(t, t.TempDir(), &fakeRunner{}, 1)
	_, err := c.RunMissing(ctx, exampleGrid(), 1)
	require.NoError(t, err)

	sentinel := assert.AnError
	_, err = c.ResultsArray(ctx, exampleGrid(), func(Record) (float64, error) { return 0, sentinel }, 1)
	assert.ErrorIs(t, err, sentinel)
}

func TestResult_TypedRecord(t *testing.T) {
	ctx := context.Background()
	c := openFake(t, t.TempDir(), &fakeRunner{table: exampleTable()}, 1)
	grid := exampleGrid()
	_, err := c.RunMissing(ctx, grid, 2)
	require.NoError(t, err)

	combo := grid.Combinations()[3] // distance=5 mcs=2
	rec, err := c.Result(ctx, combo, 1)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.Repetition)
	assert.Equal(t, 1, rec.Seed)
	assert.Equal(t, "Aggregated throughput: 5 Mbit/s\n", rec.Stdout)
	d, ok := rec.Param("distance")
	require.True(t, ok)
	assert.Equal(t, types.Int(5), d)
	w, _ := rec.Param("useRts")
	assert.Equal(t, types.Bool(false), w)
	assert.DirExists(t, filepath.Join(c.Folder(), "data", rec.ID))

	_, err = c.Result(ctx, combo, 7)
	assert.ErrorIs(t, err, ErrMissingResult)
}

func TestSummarize(t *testing.T) {
	ctx := context.Background()
	c := openFake(t, t.TempDir(), &fakeRunner{table: exampleTable()}, 1)
	grid := exampleGrid()
	_, err := c.RunMissing(ctx, grid, 1)
	require.NoError(t, err)

	s, err := c.Summarize(ctx, grid, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, s.Records)
	assert.Equal(t, 4, s.Configurations)
	assert.Equal(t, 8, s.Missing)
	assert.Equal(t, "wifi-multi-tos", s.Script)
	assert.Equal(t, 4, s.RunTime.Count())
	assert.Greater(t, s.StdoutBytes.ToUint64(), uint64(0))

	s, err = c.Summarize(ctx, nil, 0)
	require.NoError(t, err)
	assert.Zero(t, s.Missing)
}
