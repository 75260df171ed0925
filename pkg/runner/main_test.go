package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeSim is a stand-in simulation: it echoes its working directory and
// arguments, prints a throughput line derived from --distance, --mcs and
// --RngRun, and fails with status 3 when --fail=true is passed.
const fakeSim = `#!/bin/sh
dist=0; mcs=0; seed=0
for a in "$@"; do
  case "$a" in
    --distance=*) dist="${a#*=}" ;;
    --mcs=*) mcs="${a#*=}" ;;
    --RngRun=*) seed="${a#*=}" ;;
    --fail=true) echo "assert failed in wifi-multi-tos" >&2; exit 3 ;;
    --sleep=*) sleep "${a#*=}" ;;
  esac
done
echo "cwd: $(pwd)"
echo "args: $*"
echo "Aggregated throughput: $((100 - dist - mcs + seed)) Mbit/s"
`

// writeScript writes an executable shell script into dir.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
	return path
}
