package view

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/git-pkgs/compare/store"
)

const (
	chartWidth   = 800
	chartHeight  = 300
	chartPadding = 40
)

var palette = []string{
	"#4f46e5", "#059669", "#d97706", "#dc2626", "#7c3aed",
	"#0891b2", "#db2777", "#65a30d", "#9333ea", "#ea580c",
}

// Chart is a daily downloads time series per package on a shared day axis.
type Chart struct {
	Days   []string `json:"days"`
	Series []Series `json:"series"`
	Max    int64    `json:"max"`
	Width  int      `json:"width"`
	Height int      `json:"height"`
}

// Series is one package's line. Values align with Chart.Days; a day the
// package has no sample for counts as zero.
type Series struct {
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Values []int64 `json:"values"`
	// Points is the SVG polyline geometry for Values.
	Points string `json:"-"`
}

// ChartOf builds the download chart from the store.
func ChartOf(s store.Store) Chart {
	recs := s.Records()

	daySet := make(map[string]struct{})
	for _, rec := range recs {
		for _, d := range rec.Downloads {
			daySet[d.Day] = struct{}{}
		}
	}
	days := make([]string, 0, len(daySet))
	for d := range daySet {
		days = append(days, d)
	}
	sort.Strings(days)

	index := make(map[string]int, len(days))
	for i, d := range days {
		index[d] = i
	}

	c := Chart{Days: days, Width: chartWidth, Height: chartHeight}
	for i, rec := range recs {
		values := make([]int64, len(days))
		for _, d := range rec.Downloads {
			values[index[d.Day]] += d.Downloads
		}
		for _, v := range values {
			if v > c.Max {
				c.Max = v
			}
		}
		c.Series = append(c.Series, Series{
			Name:   rec.Name,
			Color:  palette[i%len(palette)],
			Values: values,
		})
	}

	for i := range c.Series {
		c.Series[i].Points = c.points(c.Series[i].Values)
	}
	return c
}

// X returns the horizontal position of day i.
func (c Chart) X(i int) float64 {
	n := len(c.Days)
	if n <= 1 {
		return float64(c.Width) / 2
	}
	span := float64(c.Width - 2*chartPadding)
	return chartPadding + span*float64(i)/float64(n-1)
}

// Y returns the vertical position of value v.
func (c Chart) Y(v int64) float64 {
	bottom := float64(c.Height - chartPadding)
	if c.Max == 0 {
		return bottom
	}
	span := float64(c.Height - 2*chartPadding)
	return bottom - span*float64(v)/float64(c.Max)
}

func (c Chart) points(values []int64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.1f,%.1f", c.X(i), c.Y(v))
	}
	return strings.Join(parts, " ")
}

// Empty reports whether there is nothing to plot.
func (c Chart) Empty() bool {
	return len(c.Days) == 0
}

// FirstDay and LastDay label the ends of the time axis.
func (c Chart) FirstDay() string {
	if c.Empty() {
		return ""
	}
	return c.Days[0]
}

func (c Chart) LastDay() string {
	if c.Empty() {
		return ""
	}
	return c.Days[len(c.Days)-1]
}

// MaxLabel is the y-axis top label.
func (c Chart) MaxLabel() string {
	return humanize.Comma(c.Max)
}

// Geometry used by the HTML template for axes.
func (c Chart) Left() int   { return chartPadding }
func (c Chart) Right() int  { return c.Width - chartPadding }
func (c Chart) Top() int    { return chartPadding }
func (c Chart) Bottom() int { return c.Height - chartPadding }

var sparkLevels = []rune("▁▂▃▄▅▆▇█")

// Sparkline renders values as a one-line bar chart scaled to top.
func Sparkline(values []int64, top int64) string {
	var b strings.Builder
	for _, v := range values {
		level := 0
		if top > 0 {
			level = int(v * int64(len(sparkLevels)-1) / top)
		}
		b.WriteRune(sparkLevels[level])
	}
	return b.String()
}
