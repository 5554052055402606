// Package viz renders the outcome of an analysis run as a standalone
// HTML page with inline SVG charts: one chart per training signal with
// its chosen ideal signal, and one chart with the classified test
// observations.
package viz

import (
	"fmt"
	"html/template"
	"math"
	"os"
	"strconv"

	"fitmatch/internal/result/model"
	"fitmatch/internal/selector"
	"fitmatch/internal/signal"
)

type Config struct {
	OutputFile string `envconfig:"FITMATCH_VIZ_OUTPUT" default:"analysis.html"`
}

const (
	chartWidth  = 640
	chartHeight = 400
	chartPad    = 40
)

type Series struct {
	Label string
	Color string
	// SVG path data in chart coordinates
	Path string
}

type Marker struct {
	CX      float64
	CY      float64
	Matched bool
	Label   string
}

type Chart struct {
	Title   string
	Width   int
	Height  int
	Series  []Series
	Markers []Marker
}

type Page struct {
	Title  string
	RunID  string
	Charts []Chart
}

// scale maps data coordinates onto the chart viewport, the y axis is
// flipped because SVG grows downwards.
type scale struct {
	minX, maxX float64
	minY, maxY float64
}

func (s scale) x(v float64) float64 {
	if s.maxX == s.minX {
		return chartWidth / 2
	}
	return chartPad + (v-s.minX)/(s.maxX-s.minX)*(chartWidth-2*chartPad)
}

func (s scale) y(v float64) float64 {
	if s.maxY == s.minY {
		return chartHeight / 2
	}
	return chartHeight - chartPad - (v-s.minY)/(s.maxY-s.minY)*(chartHeight-2*chartPad)
}

func (s *scale) extend(x, y float64) {
	s.minX = math.Min(s.minX, x)
	s.maxX = math.Max(s.maxX, x)
	s.minY = math.Min(s.minY, y)
	s.maxY = math.Max(s.maxY, y)
}

func newScale() scale {
	return scale{
		minX: math.Inf(1), maxX: math.Inf(-1),
		minY: math.Inf(1), maxY: math.Inf(-1),
	}
}

func fmtCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func pathFor(axis []float64, values []float64, sc scale) string {
	var buf []byte
	for i := range axis {
		if i == 0 {
			buf = append(buf, 'M')
		} else {
			buf = append(buf, ' ', 'L')
		}
		buf = append(buf, fmtCoord(sc.x(axis[i]))...)
		buf = append(buf, ',')
		buf = append(buf, fmtCoord(sc.y(values[i]))...)
	}
	return string(buf)
}

// Compose builds the charts for one analysis run.
func Compose(
	runID string,
	trainings, pool *signal.Table,
	selection *selector.Result,
	matches []model.Match,
) (Page, error) {
	page := Page{Title: "fitmatch analysis", RunID: runID}

	for _, choice := range selection.Choices {
		training, ok := trainings.Signal(choice.TrainingID)
		if !ok {
			return Page{}, fmt.Errorf("unknown training signal %d", choice.TrainingID)
		}
		candidate, ok := pool.Signal(choice.CandidateID)
		if !ok {
			return Page{}, fmt.Errorf("unknown candidate signal %d", choice.CandidateID)
		}

		sc := newScale()
		for i := range trainings.Axis {
			sc.extend(trainings.Axis[i], training.Values[i])
			sc.extend(trainings.Axis[i], candidate.Values[i])
		}

		page.Charts = append(page.Charts, Chart{
			Title:  fmt.Sprintf("training %d vs ideal %d (sse %.4f)", choice.TrainingID, choice.CandidateID, choice.SSE),
			Width:  chartWidth,
			Height: chartHeight,
			Series: []Series{
				{Label: fmt.Sprintf("training %d", choice.TrainingID), Color: "#1f77b4", Path: pathFor(trainings.Axis, training.Values, sc)},
				{Label: fmt.Sprintf("ideal %d", choice.CandidateID), Color: "#d62728", Path: pathFor(trainings.Axis, candidate.Values, sc)},
			},
		})
	}

	if len(matches) > 0 {
		sc := newScale()
		for i := range matches {
			sc.extend(matches[i].X, matches[i].Y)
		}
		chart := Chart{
			Title:  "classified observations",
			Width:  chartWidth,
			Height: chartHeight,
		}
		// chosen ideal curves behind the observation markers
		for _, choice := range selection.Choices {
			candidate, ok := pool.Signal(choice.CandidateID)
			if !ok {
				continue
			}
			for i := range pool.Axis {
				sc.extend(pool.Axis[i], candidate.Values[i])
			}
			chart.Series = append(chart.Series, Series{
				Label: fmt.Sprintf("ideal %d", choice.CandidateID),
				Color: "#bbbbbb",
				Path:  pathFor(pool.Axis, candidate.Values, sc),
			})
		}
		for i := range matches {
			label := "unmatched"
			if matches[i].Matched {
				label = fmt.Sprintf("ideal %d, deviation %.4f", matches[i].CandidateID, matches[i].Deviation)
			}
			chart.Markers = append(chart.Markers, Marker{
				CX:      sc.x(matches[i].X),
				CY:      sc.y(matches[i].Y),
				Matched: matches[i].Matched,
				Label:   label,
			})
		}
		page.Charts = append(page.Charts, chart)
	}

	return page, nil
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
figure { margin: 0 0 2em 0; }
figcaption { font-size: 0.9em; color: #333; margin-bottom: 0.5em; }
svg { border: 1px solid #ddd; background: #fff; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>run {{.RunID}}</p>
{{range .Charts}}
<figure>
<figcaption>{{.Title}}</figcaption>
<svg width="{{.Width}}" height="{{.Height}}" xmlns="http://www.w3.org/2000/svg">
{{range .Series}}<path d="{{.Path}}" fill="none" stroke="{{.Color}}" stroke-width="1.5"><title>{{.Label}}</title></path>
{{end}}{{range .Markers}}<circle cx="{{.CX}}" cy="{{.CY}}" r="3" fill="{{if .Matched}}#2ca02c{{else}}#d62728{{end}}"><title>{{.Label}}</title></circle>
{{end}}</svg>
</figure>
{{end}}
</body>
</html>
`))

func NewRenderer(cfg *Config) *Renderer {
	return &Renderer{outputFile: cfg.OutputFile}
}

type Renderer struct {
	outputFile string
}

// Render writes the page to the configured output file.
func (r *Renderer) Render(page Page) error {
	f, err := os.Create(r.outputFile)
	if err != nil {
		return fmt.Errorf("unable create output file: %w", err)
	}
	defer f.Close()

	if err := pageTmpl.Execute(f, page); err != nil {
		return fmt.Errorf("unable render page: %w", err)
	}
	return nil
}
