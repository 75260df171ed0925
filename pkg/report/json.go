package report

import (
	"encoding/json"
	"io"
)

type jsonReport struct {
	X       string    `json:"x"`
	Columns []string  `json:"columns"`
	Rows    []jsonRow `json:"rows"`
}

type jsonRow struct {
	X    float64   `json:"x"`
	Mean []float64 `json:"mean"`
	CI   []float64 `json:"ci,omitempty"`
}

// WriteJSON writes the table as an indented JSON document.
func WriteJSON(w io.Writer, t *Table) error {
	rep := jsonReport{X: t.xName(), Rows: make([]jsonRow, 0, t.Rows())}
	for j := 0; j < t.Cols(); j++ {
		rep.Columns = append(rep.Columns, t.column(j))
	}
	for i, x := range t.X {
		r := jsonRow{X: x, Mean: row(t.Y, i)}
		if t.CI != nil {
			r.CI = row(t.CI, i)
		}
		rep.Rows = append(rep.Rows, r)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
