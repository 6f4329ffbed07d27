package view

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// RenderText writes the comparison for a terminal: the cards, the
// statistics table and one sparkline per package.
func RenderText(w io.Writer, p Page) error {
	if p.Banner != "" {
		if _, err := fmt.Fprintf(w, "error: %s\n\n", p.Banner); err != nil {
			return err
		}
	}
	if !p.ShowComparison() {
		if !p.ShowPlaceholder() {
			return nil
		}
		_, err := fmt.Fprintln(w, "Compare npm Packages\nSearch and add packages to compare their statistics")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range p.Cards {
		fmt.Fprintf(tw, "%s\tv%s\n", c.Name, c.Version)
		if c.Description != "" {
			fmt.Fprintf(tw, "  Description\t%s\n", c.Description)
		}
		fmt.Fprintf(tw, "  Author\t%s\n", c.Author)
		fmt.Fprintf(tw, "  License\t%s\n", c.License)
		fmt.Fprintf(tw, "  Created\t%s\n", c.Created)
		fmt.Fprintf(tw, "  Modified\t%s\n", c.Modified)
		if c.Homepage != "" {
			fmt.Fprintf(tw, "  Homepage\t%s\n", c.Homepage)
		}
		if c.GitHub != "" {
			fmt.Fprintf(tw, "  Repository\t%s\n", c.GitHub)
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Metric\t%s\n", strings.Join(p.Stats.Columns, "\t"))
	for _, r := range p.Stats.Rows {
		fmt.Fprintf(tw, "%s\t%s\n", r.Metric, strings.Join(r.Values, "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if p.Chart.Empty() {
		return nil
	}
	if _, err := fmt.Fprintf(w, "\nDaily downloads %s .. %s (max %s)\n", p.Chart.FirstDay(), p.Chart.LastDay(), p.Chart.MaxLabel()); err != nil {
		return err
	}
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, s := range p.Chart.Series {
		fmt.Fprintf(tw, "%s\t%s\n", s.Name, Sparkline(s.Values, p.Chart.Max))
	}
	return tw.Flush()
}
