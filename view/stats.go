package view

import (
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/git-pkgs/compare/store"
)

// Metric names, in display order.
const (
	MetricDownloads   = "Monthly Downloads"
	MetricMaintainers = "Maintainers"
	MetricModified    = "Last Updated"
)

// Table has one row per metric and one column per package.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
	// Totals holds each package's summed downloads for the period.
	Totals map[string]int64 `json:"totals"`
}

// Row is one metric across all packages; Values align with Table.Columns.
type Row struct {
	Metric string   `json:"metric"`
	Values []string `json:"values"`
}

// Stats builds the statistics table. Columns are sorted by package name.
func Stats(s store.Store) Table {
	recs := s.Records()

	t := Table{
		Columns: make([]string, len(recs)),
		Totals:  make(map[string]int64, len(recs)),
	}
	downloads := Row{Metric: MetricDownloads, Values: make([]string, len(recs))}
	maintainers := Row{Metric: MetricMaintainers, Values: make([]string, len(recs))}
	modified := Row{Metric: MetricModified, Values: make([]string, len(recs))}

	for i, rec := range recs {
		total := rec.TotalDownloads()
		t.Columns[i] = rec.Name
		t.Totals[rec.Name] = total
		downloads.Values[i] = humanize.Comma(total)
		maintainers.Values[i] = strconv.Itoa(rec.Maintainers)
		modified.Values[i] = formatDate(rec.Modified)
	}

	t.Rows = []Row{downloads, maintainers, modified}
	return t
}

// Value returns the cell for metric and package name.
func (t Table) Value(metric, name string) (string, bool) {
	col := -1
	for i, c := range t.Columns {
		if c == name {
			col = i
			break
		}
	}
	if col < 0 {
		return "", false
	}
	for _, r := range t.Rows {
		if r.Metric == metric {
			return r.Values[col], true
		}
	}
	return "", false
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return noValue
	}
	return t.UTC().Format(DateLayout)
}
