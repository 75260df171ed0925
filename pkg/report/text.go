package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// WriteText writes one line per x value: the x value followed by that row's
// values, separated by single spaces, without a header. An empty format
// means DefaultFormat.
func WriteText(w io.Writer, t *Table, format string) error {
	if format == "" {
		format = DefaultFormat
	}
	if err := CheckFormat(format); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	for i, x := range t.X {
		fmt.Fprintf(bw, format, x)
		for _, v := range row(t.Y, i) {
			bw.WriteByte(' ')
			fmt.Fprintf(bw, format, v)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteFile writes the text matrix to path, creating parent directories.
func WriteFile(path string, t *Table, format string) error {
	return Save(path, func(w io.Writer) error { return WriteText(w, t, format) })
}

// Save writes path atomically: the content goes to a temporary file in the
// same directory which is renamed over path once write succeeded. A failed
// write leaves any previous file untouched.
func Save(path string, write func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("report: create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("report: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()

	if err = write(f); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	if err = f.Chmod(0o644); err != nil {
		return fmt.Errorf("report: chmod %s: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("report: close %s: %w", path, err)
	}
	if err = os.Rename(f.Name(), path); err != nil {
		return fmt.Errorf("report: rename %s: %w", path, err)
	}
	return nil
}
