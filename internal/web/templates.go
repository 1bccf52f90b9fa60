package web

import (
	"bytes"
	"fmt"
	"html/template"
)

var templates = template.Must(template.New("tally").Parse(
	rowTemplate + interfaceTemplate + baseTemplate + reviewTemplate))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// RenderPage renders the full page for GET /.
func RenderPage(v PageView) (string, error) { return render("base", v) }

// RenderSection renders the section-body fragment for GET /switch.
func RenderSection(v SectionView) (string, error) { return render("interface", v) }

// RenderRow renders the single-row fragment returned by POST /save.
func RenderRow(v Row) (string, error) { return render("row", v) }

// RenderReview renders the standalone review page.
func RenderReview(v ReviewView) (string, error) { return render("review", v) }

const rowTemplate = `{{define "row"}}<form hx-post="/save" hx-swap="outerHTML" hx-trigger="change" class="indicator-form">
  <div class="indicator-row{{if .Saved}} saved-flash{{end}}">
    <label class="indicator-name" for="{{.Indicator.ID}}">{{.Indicator.Name}}</label>
    <input type="hidden" name="community" value="{{.Community}}">
    <input type="hidden" name="year" value="{{.Year}}">
    <input type="hidden" name="period" value="{{.Period}}">
    <input type="hidden" name="section_id" value="{{.SectionID}}">
    <input type="hidden" name="indicator_id" value="{{.Indicator.ID}}">
    <input type="hidden" name="unit" value="{{.Indicator.Unit}}">
    <div class="indicator-input">
      <input id="{{.Indicator.ID}}" type="{{.InputType}}" step="any" name="value" value="{{.Value}}"
        {{if .SumPrefix}}oninput="autoSum('{{.SumPrefix}}')" {{end}}placeholder="-"
        class="field{{if .Disabled}} locked{{end}}{{if .Indicator.Derived}} derived{{end}}"{{if .Disabled}} disabled{{end}}>
      <span class="unit">{{.Indicator.Unit}}</span>
      {{if .Saved}}<span class="saved-badge">Saved</span>{{end}}
    </div>
  </div>
</form>
{{end}}`

const interfaceTemplate = `{{define "interface"}}<div id="main-container">
  <div class="section-nav">
    {{$v := .}}{{range .Sections}}<button hx-get="/switch" hx-target="#main-container"
      hx-vals='{"community":"{{$v.Community}}","year":"{{$v.Year}}","period":"{{$v.Period}}","section_id":"{{.ID}}"}'
      class="tab{{if eq .ID $v.Section.ID}} tab-active{{end}}">{{.Name}}</button>
    {{end}}
  </div>
  <div class="panel">
    <div class="panel-head">
      <h2>{{.Section.Name}}</h2>
      {{if .Section.Description}}<p>{{.Section.Description}}</p>{{end}}
    </div>
    <div class="panel-body">
      {{range .Rows}}{{template "row" .}}{{end}}
    </div>
  </div>
  <script>
    function autoSum(prefix) {
      var m = parseFloat(document.getElementById(prefix + '_male').value) || 0;
      var f = parseFloat(document.getElementById(prefix + '_female').value) || 0;
      var nb = parseFloat(document.getElementById(prefix + '_nb').value) || 0;
      var total = document.getElementById(prefix + '_total');
      if (total) { total.value = m + f + nb; }
    }
  </script>
</div>
{{end}}`

const baseTemplate = `{{define "base"}}<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>{{.Title}}</title>
  <script src="https://unpkg.com/htmx.org@1.9.10"></script>
  <style>
    :root { --navy: #00497b; --cyan: #00a0cc; --green: #0aa066; }
    body { margin: 0; background: #ebf1f2; color: #334155; font-family: sans-serif; }
    nav { background: var(--navy); color: #fff; padding: 1rem; display: flex; justify-content: space-between; align-items: center; flex-wrap: wrap; gap: 1rem; }
    nav h1 { font-size: 1.1rem; margin: 0; }
    nav select, nav button { padding: 0.25rem 0.5rem; border-radius: 4px; border: none; }
    nav button { background: var(--cyan); color: #fff; font-weight: bold; cursor: pointer; }
    main { max-width: 960px; margin: 0 auto; padding: 1.5rem; }
    .welcome { background: #fff; border-radius: 12px; text-align: center; padding: 5rem 1rem; margin-top: 2rem; }
    .context { background: #fff; border-radius: 8px; padding: 1rem; margin-bottom: 2rem; display: flex; justify-content: space-between; align-items: center; border-left: 4px solid {{if .Editable}}var(--green){{else}}#94a3b8{{end}}; }
    .badge { padding: 0.2rem 0.7rem; border-radius: 999px; font-size: 0.7rem; font-weight: bold; }
    .badge-active { background: #dcfce7; color: #166534; }
    .badge-locked { background: #e2e8f0; color: #64748b; }
    .review-link { background: var(--navy); color: #fff; padding: 0.5rem 1rem; border-radius: 4px; font-size: 0.75rem; font-weight: bold; text-decoration: none; margin-left: 0.5rem; }
    .section-nav { display: flex; flex-wrap: wrap; gap: 0.5rem; margin-bottom: 1.5rem; border-bottom: 1px solid #cbd5e1; padding-bottom: 1rem; }
    .tab { padding: 0.4rem 1rem; border-radius: 999px; border: 1px solid #cbd5e1; background: #fff; font-size: 0.75rem; font-weight: bold; cursor: pointer; }
    .tab-active { background: var(--navy); color: #fff; border-color: var(--navy); }
    .panel { background: #fff; border: 1px solid #e2e8f0; border-radius: 12px; overflow: hidden; }
    .panel-head { background: #ebf1f2; padding: 1.2rem; border-bottom: 1px solid #e2e8f0; }
    .panel-head h2 { margin: 0; color: var(--navy); }
    .panel-head p { margin: 0.3rem 0 0; color: #64748b; font-size: 0.85rem; }
    .panel-body { padding: 1.2rem; }
    .indicator-row { display: flex; align-items: center; gap: 1rem; padding: 0.6rem; border-radius: 8px; border: 1px solid transparent; }
    .indicator-row:hover { border-color: #d3e2df; background: #f9fafb; }
    .indicator-name { flex: 1; font-weight: bold; color: var(--navy); font-size: 0.85rem; }
    .indicator-input { position: relative; width: 16rem; }
    .field { width: 100%; padding: 0.45rem 3rem 0.45rem 0.8rem; border: 1px solid #cbd5e1; border-radius: 6px; font-family: monospace; font-size: 0.85rem; box-sizing: border-box; }
    .field:focus { outline: none; border-color: var(--cyan); }
    .unit { position: absolute; right: 0.8rem; top: 0.55rem; color: #94a3b8; font-size: 0.7rem; pointer-events: none; }
    .locked { background: #f1f5f9; color: #94a3b8; cursor: not-allowed; }
    .derived { background: #fefce8; color: var(--navy); font-weight: bold; }
    .saved-badge { position: absolute; right: 0.2rem; top: -0.6rem; font-size: 0.6rem; color: var(--green); font-weight: bold; background: #fff; border: 1px solid var(--green); border-radius: 3px; padding: 0 0.2rem; }
    .saved-flash { animation: flashGreen 1.5s; }
    @keyframes flashGreen { 0% { background: #f0fdf4; border-color: var(--green); } 100% { background: #fff; border-color: transparent; } }
  </style>
</head>
<body>
  <nav>
    <h1>{{.Title}}</h1>
    <form action="/" method="get">
      <select name="community">{{range .Communities}}<option{{if eq . $.Community}} selected{{end}}>{{.}}</option>{{end}}</select>
      <select name="year">{{range .Years}}<option{{if eq . $.Year}} selected{{end}}>{{.}}</option>{{end}}</select>
      <select name="period">{{range .Periods}}<option{{if eq . $.Period}} selected{{end}}>{{.}}</option>{{end}}</select>
      <button type="submit">LOAD</button>
    </form>
  </nav>
  <main>
    {{if .Landing}}
    <div class="welcome">
      <h2>Welcome</h2>
      <p>Select a community to begin reporting.</p>
    </div>
    {{else}}
    <div class="context">
      <div>
        <h2>{{.Community}}</h2>
        <p>{{.Year}} &bull; {{.Period}}</p>
      </div>
      <div>
        {{if .Editable}}<span class="badge badge-active">&#9679; ACTIVE</span><a class="review-link" target="_blank" href="/review?community={{.Community}}&amp;year={{.Year}}&amp;period={{.Period}}">REVIEW &amp; SUBMIT</a>
        {{else}}<span class="badge badge-locked">&#128274; READ-ONLY</span>{{end}}
      </div>
    </div>
    {{template "interface" .Section}}
    {{end}}
  </main>
</body>
</html>
{{end}}`

const reviewTemplate = `{{define "review"}}<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Report Summary</title>
  <style>
    body { margin: 0; background: #f1f5f9; font-family: sans-serif; color: #334155; padding: 2rem; }
    .card { max-width: 800px; margin: 0 auto; background: #fff; border-radius: 12px; overflow: hidden; box-shadow: 0 10px 25px rgba(0,0,0,0.08); }
    .card-head { background: #00497b; color: #fff; padding: 2rem; display: flex; justify-content: space-between; }
    .card-head h1 { margin: 0; }
    .card-body { padding: 2rem; }
    .notice { background: #f0fdf4; border: 1px solid #bbf7d0; color: #166534; padding: 1rem; border-radius: 8px; margin-bottom: 1.5rem; }
    table { width: 100%; border-collapse: collapse; font-size: 0.9rem; }
    th { text-align: left; text-transform: uppercase; font-size: 0.7rem; color: #64748b; background: #f8fafc; padding: 0.8rem; }
    th.value, td.value { text-align: right; }
    td { padding: 0.8rem; border-top: 1px solid #f1f5f9; }
    td.value { font-family: monospace; font-weight: bold; color: #00497b; }
    td.value .unit { font-size: 0.7rem; color: #94a3b8; font-weight: normal; margin-left: 0.3rem; }
    .empty { text-align: center; padding: 4rem 1rem; color: #94a3b8; border: 2px dashed #e2e8f0; border-radius: 10px; }
    .downloads { margin-top: 2rem; padding-top: 1.5rem; border-top: 1px solid #f1f5f9; text-align: right; }
    .downloads a { background: #00a0cc; color: #fff; padding: 0.7rem 1.2rem; border-radius: 8px; font-weight: bold; text-decoration: none; margin-left: 0.5rem; }
  </style>
</head>
<body>
  <div class="card">
    <div class="card-head">
      <div>
        <h1>{{.Community}}</h1>
        <p>Report: {{.Year}} - {{.Period}}</p>
      </div>
      <div>
        <p>Generated</p>
        <p><strong>{{.Generated}}</strong></p>
      </div>
    </div>
    <div class="card-body">
      <div class="notice">
        <strong>Report submitted successfully.</strong>
        Your data has been recorded. You can download a copy below.
      </div>
      {{if .Rows}}
      <table>
        <thead><tr><th>Indicator</th><th class="value">Value</th></tr></thead>
        <tbody>
          {{range .Rows}}<tr>
            <td>{{.Name}}</td>
            <td class="value">{{.Value}}<span class="unit">{{.Unit}}</span></td>
          </tr>
          {{end}}
        </tbody>
      </table>
      <div class="downloads">
        <a href="/download_report?community={{.Community}}&amp;year={{.Year}}&amp;period={{.Period}}">Download Copy (CSV)</a>
        <a href="/download_report?community={{.Community}}&amp;year={{.Year}}&amp;period={{.Period}}&amp;format=pdf">Download PDF</a>
      </div>
      {{else}}
      <div class="empty">No data entered for this period.</div>
      {{end}}
    </div>
  </div>
</body>
</html>
{{end}}`
