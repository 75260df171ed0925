package report

import (
	"encoding/csv"
	"io"
	"strconv"
)

func fmtFloat(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// WriteCSV writes a header row (x name, column names, then ci_<column> when
// confidence intervals are attached) followed by one row per x value.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)

	header := []string{t.xName()}
	for j := 0; j < t.Cols(); j++ {
		header = append(header, t.column(j))
	}
	if t.CI != nil {
		for j := 0; j < t.Cols(); j++ {
			header = append(header, "ci_"+t.column(j))
		}
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, x := range t.X {
		rec := []string{fmtFloat(x)}
		for _, v := range row(t.Y, i) {
			rec = append(rec, fmtFloat(v))
		}
		if t.CI != nil {
			for _, v := range row(t.CI, i) {
				rec = append(rec, fmtFloat(v))
			}
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
