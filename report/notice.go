package report

import (
	"bytes"
	"html/template"
)

// NoticeRow is one charge line on a call notice.
type NoticeRow struct {
	Label  string
	Annual string
	Call   string
}

// NoticeData fills the call-notice template for one unit.
type NoticeData struct {
	Year          int
	Quarter       string
	Index         int
	N             int
	Lot           string
	Owner         string
	Floor         string
	Usage         string
	Rows          []NoticeRow
	ReserveAnnual string
	Reserve       string
	Due           string
}

var noticeTemplate = template.Must(template.New("notice").Parse(`<!DOCTYPE html>
<html lang="fr">
<head>
<meta charset="utf-8">
<title>Appel de fonds {{.Quarter}} {{.Year}}</title>
<style>
body { font-family: Helvetica, Arial, sans-serif; margin: 40px; color: #1a1a1a; }
h1 { font-size: 20px; border-bottom: 2px solid #1a1a1a; padding-bottom: 8px; }
table { width: 100%; border-collapse: collapse; margin-top: 24px; }
th, td { border: 1px solid #999; padding: 6px 10px; font-size: 13px; }
th { background: #f0f0f0; text-align: left; }
td.amount { text-align: right; }
tr.total td { font-weight: bold; background: #fafafa; }
p.meta { font-size: 13px; }
</style>
</head>
<body>
<h1>Appel de fonds {{.Quarter}} {{.Year}}</h1>
<p class="meta">Lot {{.Lot}} — {{.Owner}}{{if .Floor}} — Étage {{.Floor}}{{end}}{{if .Usage}} — {{.Usage}}{{end}}</p>
<table>
<tr><th>Poste</th><th>Quote-part annuelle</th><th>Appel {{.Quarter}}</th></tr>
{{range .Rows}}<tr><td>{{.Label}}</td><td class="amount">{{.Annual}}</td><td class="amount">{{.Call}}</td></tr>
{{end}}<tr><td>Fonds travaux (loi Alur)</td><td class="amount">{{.ReserveAnnual}}</td><td class="amount">{{.Reserve}}</td></tr>
<tr class="total"><td>Total à régler</td><td></td><td class="amount">{{.Due}}</td></tr>
</table>
<p class="meta">Appel provisionnel {{.Index}} sur {{.N}} de l'exercice {{.Year}}. Montant à régler à réception.</p>
</body>
</html>`))

// RenderCallNotice produces the HTML of one call notice.
func RenderCallNotice(data NoticeData) (string, error) {
	var buf bytes.Buffer
	if err := noticeTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
