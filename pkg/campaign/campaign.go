// Package campaign keeps a persistent set of simulation runs for one program
// and script, executes the runs a parameter grid is still missing, and reads
// results back as a tensor indexed by [param1, ..., paramN, repetition].
package campaign

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ja7ad/simcampaign/pkg/notify"
	"github.com/ja7ad/simcampaign/pkg/runner"
	"github.com/ja7ad/simcampaign/pkg/sweep"
	"github.com/ja7ad/simcampaign/pkg/tensor"
)

// Options configures Open.
type Options struct {
	// Spec locates the simulation program and script.
	Spec runner.Spec
	// Folder holds the store and one directory per run under data/.
	Folder string
	// Workers bounds concurrently executing runs; < 1 means 1.
	Workers int
	// Overwrite wipes a store that belongs to another program or script
	// instead of failing with ErrCampaignMismatch.
	Overwrite bool

	Logger   *zap.Logger
	Notifier notify.Notifier
	// Runner replaces the process runner (the program is then not checked).
	Runner runner.Runner
}

// Campaign is an open campaign handle. It is safe for sequential use; a
// single RunMissing call runs jobs concurrently internally.
type Campaign struct {
	store    *Store
	spec     runner.Spec
	folder   string
	runner   runner.Runner
	workers  int
	log      *zap.Logger
	notifier notify.Notifier
}

// RunStats summarises one RunMissing call.
type RunStats struct {
	Required int
	Skipped  int
	Executed int
	Elapsed  time.Duration
}

// Open creates or attaches to the campaign stored in opts.Folder.
func Open(ctx context.Context, opts Options) (*Campaign, error) {
	if opts.Folder == "" {
		return nil, ErrNoFolder
	}
	folder, err := filepath.Abs(opts.Folder)
	if err != nil {
		return nil, fmt.Errorf("campaign: resolve folder: %w", err)
	}

	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	n := opts.Notifier
	if n == nil {
		n = notify.Nop{}
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	exec := opts.Runner
	if exec == nil {
		if err := opts.Spec.Check(); err != nil {
			return nil, err
		}
		p, err := runner.NewProcess(opts.Spec)
		if err != nil {
			return nil, err
		}
		exec = p
	}

	if err := os.MkdirAll(filepath.Join(folder, "data"), 0o755); err != nil {
		return nil, fmt.Errorf("campaign: create results folder: %w", err)
	}

	store, err := OpenStore(ctx, filepath.Join(folder, DatabaseName))
	if err != nil {
		return nil, err
	}

	c := &Campaign{
		store:    store,
		spec:     opts.Spec,
		folder:   folder,
		runner:   exec,
		workers:  workers,
		log:      log.With(zap.String("script", opts.Spec.Script)),
		notifier: n,
	}
	if err := c.bind(ctx, opts.Overwrite); err != nil {
		_ = store.Close()
		return nil, err
	}
	return c, nil
}

// bind checks (or records) which program and script the store belongs to.
func (c *Campaign) bind(ctx context.Context, overwrite bool) error {
	program, script, ok, err := c.store.Meta(ctx)
	if err != nil {
		return fmt.Errorf("campaign: read metadata: %w", err)
	}
	want, err := filepath.Abs(c.spec.Program)
	if err != nil {
		return fmt.Errorf("campaign: resolve program: %w", err)
	}
	if ok && (program != want || script != c.spec.Script) {
		if !overwrite {
			return fmt.Errorf("%w: folder %s has %s/%s, want %s/%s",
				ErrCampaignMismatch, c.folder, program, script, want, c.spec.Script)
		}
		c.log.Warn("overwriting campaign",
			zap.String("old_program", program), zap.String("old_script", script))
		if err := c.store.Reset(ctx); err != nil {
			return fmt.Errorf("campaign: reset: %w", err)
		}
		if err := os.RemoveAll(filepath.Join(c.folder, "data")); err != nil {
			return fmt.Errorf("campaign: reset data: %w", err)
		}
		if err := os.MkdirAll(filepath.Join(c.folder, "data"), 0o755); err != nil {
			return fmt.Errorf("campaign: reset data: %w", err)
		}
		ok = false
	}
	if !ok {
		c.log.Info("new campaign", zap.String("folder", c.folder), zap.String("program", want))
		return c.store.SetMeta(ctx, want, c.spec.Script)
	}
	c.log.Debug("attached to campaign", zap.String("folder", c.folder))
	return nil
}

// Folder is the absolute results folder.
func (c *Campaign) Folder() string { return c.folder }

// Store exposes the underlying result store.
func (c *Campaign) Store() *Store { return c.store }

// Close releases the store and the notifier.
func (c *Campaign) Close() error {
	return errors.Join(c.notifier.Close(), c.store.Close())
}

func checkSweep(grid sweep.Grid, runs int) error {
	if err := grid.Validate(); err != nil {
		return err
	}
	if runs <= 0 {
		return ErrBadRuns
	}
	return nil
}

// Missing lists the (configuration, repetition) pairs without a stored
// result, in grid order. Job.Dir is left empty.
func (c *Campaign) Missing(ctx context.Context, grid sweep.Grid, runs int) ([]runner.Job, error) {
	if err := checkSweep(grid, runs); err != nil {
		return nil, err
	}
	have, err := c.store.existing(ctx)
	if err != nil {
		return nil, fmt.Errorf("campaign: list results: %w", err)
	}

	var jobs []runner.Job
	for _, combo := range grid.Combinations() {
		key := combo.Key()
		for rep := 0; rep < runs; rep++ {
			if _, ok := have[resultKey{key: key, rep: rep}]; ok {
				continue
			}
			jobs = append(jobs, runner.Job{Combination: combo, Repetition: rep, Seed: rep})
		}
	}
	return jobs, nil
}

// RunMissing makes sure every configuration of grid has runs repetitions
// stored, executing only the missing ones. The seed of a run is its
// repetition index. It blocks until all runs finished; the first failure
// cancels the remaining runs and is returned.
func (c *Campaign) RunMissing(ctx context.Context, grid sweep.Grid, runs int) (RunStats, error) {
	start := time.Now()
	jobs, err := c.Missing(ctx, grid, runs)
	if err != nil {
		return RunStats{}, err
	}

	st := RunStats{Required: grid.Size() * runs}
	st.Skipped = st.Required - len(jobs)
	if len(jobs) == 0 {
		c.log.Info("no missing runs", zap.Int("required", st.Required))
		return st, nil
	}
	c.log.Info("running missing simulations",
		zap.Int("missing", len(jobs)), zap.Int("required", st.Required), zap.Int("workers", c.workers))

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return c.runOne(gctx, job, &done, len(jobs))
		})
	}
	err = g.Wait()

	st.Executed = int(done.Load())
	st.Elapsed = time.Since(start)
	if err != nil {
		return st, err
	}
	c.log.Info("simulations complete", zap.Int("executed", st.Executed), zap.Duration("elapsed", st.Elapsed))
	return st, nil
}

func (c *Campaign) runOne(ctx context.Context, job runner.Job, done *atomic.Int64, total int) error {
	id := uuid.NewString()
	job.Dir = filepath.Join(c.folder, "data", id)
	if err := os.MkdirAll(job.Dir, 0o755); err != nil {
		return fmt.Errorf("campaign: create run dir: %w", err)
	}

	params := job.Combination.Map()
	c.notifier.Notify(notify.Event{
		Kind: notify.KindStarted, Script: c.spec.Script, RunID: id,
		Params: params, Repetition: job.Repetition,
		Done: int(done.Load()), Total: total, At: time.Now(),
	})

	out, err := c.runner.Run(ctx, job)
	if err != nil {
		_ = os.RemoveAll(job.Dir)
		c.notifier.Notify(notify.Event{
			Kind: notify.KindFailed, Script: c.spec.Script, RunID: id,
			Params: params, Repetition: job.Repetition, ExitStatus: out.ExitStatus,
			Error: err.Error(), Done: int(done.Load()), Total: total, At: time.Now(),
		})
		return fmt.Errorf("campaign: run %s: %w", job, err)
	}

	rec := Record{
		ID:         id,
		Key:        job.Combination.Key(),
		Params:     params,
		Repetition: job.Repetition,
		Seed:       job.Seed,
		Stdout:     out.Stdout,
		Stderr:     out.Stderr,
		ExitStatus: out.ExitStatus,
		Elapsed:    out.Elapsed,
		UserTime:   out.UserTime,
		SystemTime: out.SystemTime,
		MaxRSS:     out.MaxRSS,
		CreatedAt:  time.Now(),
	}
	if err := c.store.Insert(ctx, rec); err != nil {
		_ = os.RemoveAll(job.Dir)
		return err
	}

	n := int(done.Add(1))
	c.log.Debug("run finished",
		zap.String("id", id),
		zap.Stringer("params", job.Combination),
		zap.Int("repetition", job.Repetition),
		zap.Duration("elapsed", out.Elapsed),
		zap.Float64("max_rss_mb", out.MaxRSS.MB()),
		zap.Int("done", n), zap.Int("total", total))
	c.notifier.Notify(notify.Event{
		Kind: notify.KindFinished, Script: c.spec.Script, RunID: id,
		Params: params, Repetition: job.Repetition, Elapsed: out.Elapsed,
		Done: n, Total: total, At: rec.CreatedAt,
	})
	return nil
}

// Result returns the stored record of one (configuration, repetition) pair.
func (c *Campaign) Result(ctx context.Context, combo sweep.Combination, rep int) (Record, error) {
	r, err := c.store.Get(ctx, combo.Key(), rep)
	if errors.Is(err, ErrMissingResult) {
		return Record{}, fmt.Errorf("%w: %s rep=%d", ErrMissingResult, combo, rep)
	}
	return r, err
}

// ResultsArray extracts one scalar per (configuration, repetition) pair and
// returns them as a tensor of shape grid.Shape() + [runs], axes in grid
// order. A missing result or an extractor error aborts the collection.
func (c *Campaign) ResultsArray(ctx context.Context, grid sweep.Grid, extract Extractor, runs int) (*tensor.Tensor, error) {
	if err := checkSweep(grid, runs); err != nil {
		return nil, err
	}
	t, err := tensor.New(append(grid.Shape(), runs)...)
	if err != nil {
		return nil, err
	}

	data := t.Data()
	for i, combo := range grid.Combinations() {
		for rep := 0; rep < runs; rep++ {
			rec, err := c.Result(ctx, combo, rep)
			if err != nil {
				return nil, err
			}
			v, err := extract(rec)
			if err != nil {
				return nil, fmt.Errorf("campaign: extract %s rep=%d (run %s): %w", combo, rep, rec.ID, err)
			}
			data[i*runs+rep] = v
		}
	}
	return t, nil
}
