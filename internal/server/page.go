package server

import (
	"html/template"
	"net/http"

	"github.com/and161185/linstor-dashboard/model"
)

var pageTemplate = template.Must(template.New("page").Funcs(template.FuncMap{
	"chart": func(title string, data model.ChartData) chartSection {
		return chartSection{Title: title, Data: data}
	},
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>LINSTOR dashboard</title></head>
<body>
<h1>LINSTOR dashboard</h1>
{{if not .Status.Connected}}{{if .Status.LastError}}<p class="error">Unable to connect: {{.Status.LastError}}</p>{{end}}{{end}}
{{if eq .State "awaiting_data"}}<p>Waiting for metrics&hellip;</p>{{else}}<p>Updated {{.Snapshot.FetchedAt.Format "2006-01-02 15:04:05 MST"}}</p>{{end}}
<ul class="summary">
<li>Nodes: {{.Snapshot.Summary.Node}}</li>
<li>Resources: {{.Snapshot.Summary.Resource}}</li>
<li>Volumes: {{.Snapshot.Summary.Volume}}</li>
<li>Error reports: {{.Snapshot.Summary.ErrorReport}}</li>
</ul>
{{with .Snapshot.Capacity}}<p>Storage pools: {{.Free}} free of {{.Total}} ({{.UsedPct}}% used)</p>{{end}}
{{template "chart" chart "Nodes" .Snapshot.Nodes}}
{{template "chart" chart "Resources" .Snapshot.Resources}}
{{template "chart" chart "Volumes" .Snapshot.Volumes}}
</body>
</html>
{{define "chart"}}<h2>{{.Title}}</h2>
{{with .Data.Legend}}<p class="legend">{{range $i, $l := .}}{{if $i}} &middot; {{end}}{{$l}}{{end}}</p>{{end}}
<table>{{range .Data.Data}}<tr><td>{{.X}}</td><td>{{.Y}}</td></tr>{{else}}<tr><td colspan="2">no data</td></tr>{{end}}</table>
{{end}}`))

type chartSection struct {
	Title string
	Data  model.ChartData
}

// PageHandler renders the dashboard as a minimal HTML page.
func (srv *Server) PageHandler(w http.ResponseWriter, r *http.Request) {
	view, err := srv.view(r)
	if err != nil {
		srv.logger().Errorw("failed to load latest snapshot", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, view); err != nil {
		srv.logger().Errorw("failed to render dashboard page", "error", err)
	}
}
