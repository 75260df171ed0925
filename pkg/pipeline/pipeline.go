// Package pipeline runs a campaign end to end: execute the missing runs,
// extract one throughput per run, average over repetitions and write the
// report files.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ja7ad/simcampaign/pkg/campaign"
	"github.com/ja7ad/simcampaign/pkg/config"
	"github.com/ja7ad/simcampaign/pkg/extract"
	"github.com/ja7ad/simcampaign/pkg/notify"
	"github.com/ja7ad/simcampaign/pkg/report"
	"github.com/ja7ad/simcampaign/pkg/runner"
	"github.com/ja7ad/simcampaign/pkg/stats"
	"github.com/ja7ad/simcampaign/pkg/sweep"
	"github.com/ja7ad/simcampaign/pkg/tensor"
)

type options struct {
	log       *zap.Logger
	runner    runner.Runner
	notifier  notify.Notifier
	extractor campaign.Extractor
	simulate  bool
}

// Option customises Simulate and Status.
type Option func(*options)

// WithLogger replaces the no-op logger.
func WithLogger(l *zap.Logger) Option { return func(o *options) { o.log = l } }

// WithRunner replaces the simulation process.
func WithRunner(r runner.Runner) Option { return func(o *options) { o.runner = r } }

// WithNotifier replaces the notifier built from the MQTT configuration. It
// is closed when Run returns.
func WithNotifier(n notify.Notifier) Option { return func(o *options) { o.notifier = n } }

// WithExtractor replaces extract.Throughput.
func WithExtractor(e campaign.Extractor) Option { return func(o *options) { o.extractor = e } }

// WithoutSimulation only reads stored results; a missing run is an error
// and the simulator need not be installed.
func WithoutSimulation() Option { return func(o *options) { o.simulate = false } }

// Result describes a finished pipeline run.
type Result struct {
	Stats campaign.RunStats
	Table *report.Table
	// Files lists every written file, the main output first.
	Files []string
}

func apply(opts []Option) options {
	o := options{extractor: extract.Throughput, simulate: true}
	for _, fn := range opts {
		fn(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if !o.simulate && o.runner == nil {
		o.runner = runner.Disabled
	}
	return o
}

// open validates cfg and opens its campaign. Closing the campaign closes
// the notifier. Without simulation the campaign is never overwritten and no
// broker is contacted.
func open(ctx context.Context, cfg config.Config, o options) (*campaign.Campaign, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if !o.simulate {
		cfg.Overwrite = false
	}
	n, err := newNotifier(cfg, o)
	if err != nil {
		return nil, err
	}
	c, err := campaign.Open(ctx, campaign.Options{
		Spec:      cfg.Spec(),
		Folder:    cfg.Results,
		Workers:   cfg.Workers,
		Overwrite: cfg.Overwrite,
		Logger:    o.log,
		Notifier:  n,
		Runner:    o.runner,
	})
	if err != nil {
		_ = n.Close()
		return nil, err
	}
	return c, nil
}

func closeCampaign(c *campaign.Campaign, log *zap.Logger) {
	if err := c.Close(); err != nil {
		log.Warn("close campaign", zap.Error(err))
	}
}

// Simulate executes the runs cfg's grid is missing without touching the
// report.
func Simulate(ctx context.Context, cfg config.Config, opts ...Option) (campaign.RunStats, error) {
	o := apply(opts)
	c, err := open(ctx, cfg, o)
	if err != nil {
		return campaign.RunStats{}, err
	}
	defer closeCampaign(c, o.log)
	return c.RunMissing(ctx, cfg.Grid, cfg.Runs)
}

// Status summarises the stored campaign and counts the runs cfg's grid is
// still missing. It never runs a simulation.
func Status(ctx context.Context, cfg config.Config, opts ...Option) (campaign.Summary, error) {
	if _, err := os.Stat(filepath.Join(cfg.Results, campaign.DatabaseName)); err != nil {
		return campaign.Summary{}, fmt.Errorf("%w: %s", ErrNoCampaign, cfg.Results)
	}
	o := apply(append(opts, WithoutSimulation()))
	c, err := open(ctx, cfg, o)
	if err != nil {
		return campaign.Summary{}, err
	}
	defer closeCampaign(c, o.log)
	return c.Summarize(ctx, cfg.Grid, cfg.Runs)
}

// Run executes the campaign described by cfg and writes its report.
func Run(ctx context.Context, cfg config.Config, opts ...Option) (Result, error) {
	o := apply(opts)
	c, err := open(ctx, cfg, o)
	if err != nil {
		return Result{}, err
	}
	defer closeCampaign(c, o.log)

	var res Result
	if o.simulate {
		if res.Stats, err = c.RunMissing(ctx, cfg.Grid, cfg.Runs); err != nil {
			return res, err
		}
	}

	arr, err := c.ResultsArray(ctx, cfg.Grid, o.extractor, cfg.Runs)
	if err != nil {
		return res, err
	}
	// Singleton parameters drop out; the repetition axis stays even for a
	// single run so the mean always reduces over it.
	runs := arr.Squeeze(-1)
	avg, err := runs.MeanLast()
	if err != nil {
		return res, err
	}

	if res.Table, err = newTable(cfg, avg); err != nil {
		return res, err
	}
	if level := cfg.Report.Confidence; level > 0 {
		ci, err := runs.ReduceLast(func(xs []float64) float64 {
			return stats.ConfidenceHalfWidth(xs, level)
		})
		if err != nil {
			return res, err
		}
		if err := res.Table.SetCI(ci); err != nil {
			return res, err
		}
	}

	records, err := c.Store().Count(ctx)
	if err != nil {
		return res, err
	}
	res.Files, err = writeReport(cfg, res.Table, report.Meta{
		Script:    cfg.Program.Script,
		Runs:      cfg.Runs,
		Records:   records,
		Generated: time.Now(),
	})
	if err != nil {
		return res, err
	}
	o.log.Info("report written", zap.Strings("files", res.Files))
	return res, nil
}

func newNotifier(cfg config.Config, o options) (notify.Notifier, error) {
	if o.notifier != nil {
		return o.notifier, nil
	}
	m := cfg.Notify.MQTT
	if m.Broker == "" || !o.simulate {
		return notify.Nop{}, nil
	}
	return notify.NewMQTT(notify.MQTTOptions{
		Broker:      m.Broker,
		ClientID:    m.ClientID,
		TopicPrefix: m.TopicPrefix,
		Script:      cfg.Program.Script,
		Timeout:     m.Timeout,
		Logger:      o.log,
	})
}

// newTable labels the averaged matrix. The x parameter must be the first
// parameter with more than one value; the columns come from the second.
func newTable(cfg config.Config, avg *tensor.Tensor) (*report.Table, error) {
	var swept []sweep.Param
	for _, p := range cfg.Grid {
		if len(p.Values) > 1 {
			swept = append(swept, p)
		}
	}
	xp, _, _ := cfg.Grid.Param(cfg.Report.X)
	if len(swept) > 0 && swept[0].Name != xp.Name {
		return nil, fmt.Errorf("%w: %s must be the first swept parameter, got %s",
			report.ErrShapeMismatch, xp.Name, swept[0].Name)
	}

	x, err := xp.Floats()
	if err != nil {
		return nil, err
	}
	t, err := report.NewTable(x, avg)
	if err != nil {
		return nil, err
	}
	t.XName = xp.Name
	if len(swept) == 2 {
		for _, v := range swept[1].Values {
			t.Columns = append(t.Columns, swept[1].Name+"="+v.String())
		}
	}
	return t, nil
}

func writeReport(cfg config.Config, t *report.Table, meta report.Meta) ([]string, error) {
	r := cfg.Report
	files := []string{r.Output}
	if err := report.WriteFile(r.Output, t, r.Format); err != nil {
		return nil, err
	}
	if ci := t.CITable(); ci != nil {
		path := report.CIPath(r.Output)
		if err := report.WriteFile(path, ci, r.Format); err != nil {
			return files, err
		}
		files = append(files, path)
	}

	extra := []struct {
		path  string
		write func(io.Writer) error
	}{
		{r.CSV, func(w io.Writer) error { return report.WriteCSV(w, t) }},
		{r.JSON, func(w io.Writer) error { return report.WriteJSON(w, t) }},
		{r.HTML, func(w io.Writer) error { return report.WriteHTML(w, t, meta) }},
	}
	for _, e := range extra {
		if e.path == "" {
			continue
		}
		if err := report.Save(e.path, e.write); err != nil {
			return files, err
		}
		files = append(files, e.path)
	}
	return files, nil
}
