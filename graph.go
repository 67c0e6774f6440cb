// Copyright 2019 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package altotxt

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const maxticks = 40

// ErrNotEnoughPages is returned by Graph if there are too few pages
// for a line to be drawn.
var ErrNotEnoughPages = errors.New("Not enough pages to graph")

// PageCount is the number of words found on a single page
type PageCount struct {
	Name  string
	Words int
}

type graphPage struct {
	Pgnum, Words float64
}

var pgnumPattern = regexp.MustCompile(`[0-9]+`)

// pageNumber finds the last run of digits in the base name of a
// page, which is where page numbers usually are (e.g. book_0012.xml)
func pageNumber(name string) (float64, bool) {
	base := filepath.Base(name)
	nums := pgnumPattern.FindAllString(base, -1)
	if len(nums) == 0 {
		return 0, false
	}
	n, err := strconv.ParseFloat(nums[len(nums)-1], 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// createLine creates a horizontal line with a particular y value for
// a graph
func createLine(xvalues []float64, y float64, c drawing.Color) chart.ContinuousSeries {
	var yvalues []float64
	for range xvalues {
		yvalues = append(yvalues, y)
	}
	return chart.ContinuousSeries{
		XValues: xvalues,
		YValues: yvalues,
		Style: chart.Style{
			StrokeColor:     c,
			StrokeDashArray: []float64{5.0, 5.0},
		},
	}
}

// Graph creates a graph of the number of words on each page, which is
// handy for spotting pages where the OCR found little or nothing.
func Graph(pages []PageCount, title string, w io.Writer) error {
	if len(pages) < 2 {
		return ErrNotEnoughPages
	}

	var graphpages []graphPage
	numbered := true
	for _, p := range pages {
		n, ok := pageNumber(p.Name)
		if !ok {
			numbered = false
			break
		}
		graphpages = append(graphpages, graphPage{Pgnum: n, Words: float64(p.Words)})
	}

	// If any page lacks a number, just number them in order
	if !numbered {
		graphpages = graphpages[:0]
		for i, p := range pages {
			graphpages = append(graphpages, graphPage{Pgnum: float64(i + 1), Words: float64(p.Words)})
		}
	}

	sort.SliceStable(graphpages, func(i, j int) bool { return graphpages[i].Pgnum < graphpages[j].Pgnum })

	var xvalues, yvalues []float64
	var ticks []chart.Tick
	tickevery := len(graphpages) / maxticks
	if tickevery < 1 {
		tickevery = 1
	}
	var total, most float64
	for i, p := range graphpages {
		xvalues = append(xvalues, p.Pgnum)
		yvalues = append(yvalues, p.Words)
		total += p.Words
		if p.Words > most {
			most = p.Words
		}
		if i%tickevery == 0 {
			ticks = append(ticks, chart.Tick{Value: p.Pgnum, Label: fmt.Sprintf("%.0f", p.Pgnum)})
		}
	}
	// Make last tick the final page
	final := graphpages[len(graphpages)-1]
	ticks[len(ticks)-1] = chart.Tick{Value: final.Pgnum, Label: fmt.Sprintf("%.0f", final.Pgnum)}
	mean := total / float64(len(graphpages))
	ymax := most * 1.1
	if ymax < 1 {
		ymax = 1
	}

	mainSeries := chart.ContinuousSeries{
		Style: chart.Style{
			StrokeColor: chart.ColorBlue,
			FillColor:   chart.ColorAlternateBlue,
		},
		XValues: xvalues,
		YValues: yvalues,
	}

	// Annotate pages with fewer than half the mean number of words
	var annotations []chart.Value2
	for _, p := range graphpages {
		if p.Words < mean/2 {
			annotations = append(annotations, chart.Value2{Label: fmt.Sprintf("%.0f", p.Pgnum), XValue: p.Pgnum, YValue: p.Words})
		}
	}
	annotations = append(annotations, chart.Value2{Label: fmt.Sprintf("mean %.0f", mean), XValue: xvalues[len(xvalues)-1], YValue: mean})

	graph := chart.Chart{
		Title:  title,
		Width:  3840,
		Height: 2160,
		XAxis: chart.XAxis{
			Name: "Page number",
			Range: &chart.ContinuousRange{
				Min: 0.0,
			},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name: "Words",
			Range: &chart.ContinuousRange{
				Min: 0.0,
				Max: ymax,
			},
		},
		Series: []chart.Series{
			mainSeries,
			createLine(xvalues, mean, chart.ColorAlternateGreen),
			chart.AnnotationSeries{
				Annotations: annotations,
			},
		},
	}
	return graph.Render(chart.PNG, w)
}
