package report

import (
	"html/template"
	"io"
	"time"
)

// Meta describes the campaign a table was computed from.
type Meta struct {
	Script    string
	Runs      int
	Records   int
	Generated time.Time
}

type htmlCell struct {
	Mean float64
	CI   float64
}

type htmlRow struct {
	X     float64
	Cells []htmlCell
}

type htmlView struct {
	Meta    Meta
	XName   string
	Columns []string
	HasCI   bool
	Rows    []htmlRow
}

// WriteHTML renders the table as a standalone HTML page.
func WriteHTML(w io.Writer, t *Table, meta Meta) error {
	if meta.Generated.IsZero() {
		meta.Generated = time.Now()
	}
	v := htmlView{Meta: meta, XName: t.xName(), HasCI: t.CI != nil}
	for j := 0; j < t.Cols(); j++ {
		v.Columns = append(v.Columns, t.column(j))
	}
	for i, x := range t.X {
		r := htmlRow{X: x}
		var ci []float64
		if t.CI != nil {
			ci = row(t.CI, i)
		}
		for j, m := range row(t.Y, i) {
			c := htmlCell{Mean: m}
			if ci != nil {
				c.CI = ci[j]
			}
			r.Cells = append(r.Cells, c)
		}
		v.Rows = append(v.Rows, r)
	}
	return tpl.Execute(w, v)
}

var tpl = template.Must(template.New("report").Parse(`<!doctype html>
<html lang="en"><meta charset="utf-8">
<title>{{.Meta.Script}} report</title>
<style>
body{font-family:system-ui,Segoe UI,Roboto,Helvetica,Arial,sans-serif;margin:20px}
h1,h2{margin:0 0 8px}
table{border-collapse:collapse;width:100%;font-size:14px}
th,td{border:1px solid #ddd;padding:6px 8px;text-align:right}
th:first-child,td:first-child{text-align:left}
.small{color:#555}
.ci{color:#777;font-size:12px}
</style>

<h1>{{.Meta.Script}}</h1>

<p class="small">
Runs per configuration: {{.Meta.Runs}} &nbsp;|&nbsp;
Stored runs: {{.Meta.Records}} &nbsp;|&nbsp;
Generated: {{.Meta.Generated.Format "2006-01-02 15:04:05"}}
</p>

<h2>Mean over repetitions</h2>
<table>
<thead>
<tr>
<th>{{.XName}}</th>{{range .Columns}}<th>{{.}}</th>{{end}}
</tr>
</thead>
<tbody>
{{- $ci := .HasCI}}
{{range .Rows}}
<tr>
<td>{{printf "%g" .X}}</td>
{{- range .Cells}}
<td>{{printf "%.4f" .Mean}}{{if $ci}} <span class="ci">&plusmn; {{printf "%.4f" .CI}}</span>{{end}}</td>
{{- end}}
</tr>
{{end}}
</tbody>
</table>
</html>`))
