//go:build linux

package runner

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/simcampaign/pkg/sweep"
	"github.com/ja7ad/simcampaign/pkg/types"
)

func TestProcess_CancelKillsRun(t *testing.T) {
	prog := t.TempDir()
	writeScript(t, prog, "wifi", fakeSim)

	p, err := NewProcess(Spec{Program: prog, Script: "wifi"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	c := sweep.Combination{{Name: "sleep", Value: types.Int(30)}}
	start := time.Now()
	_, err = p.Run(ctx, Job{Combination: c, Dir: t.TempDir()})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestProcess_RecordsPeakRSS(t *testing.T) {
	prog := t.TempDir()
	writeScript(t, prog, "wifi", fakeSim)

	p, err := NewProcess(Spec{Program: prog, Script: "wifi"})
	require.NoError(t, err)

	out, err := p.Run(context.Background(), Job{Combination: sweep.Combination{}, Dir: t.TempDir()})
	require.NoError(t, err)
	assert.Greater(t, out.MaxRSS.ToUint64(), uint64(0))
}
