package view

import (
	"github.com/git-pkgs/compare/internal/core"
	"github.com/git-pkgs/compare/search"
)

// Mode selects between the placeholder and the comparison layout.
type Mode string

const (
	ModeEmpty      Mode = "empty"
	ModeComparison Mode = "comparison"
)

// Page is everything one render of the UI needs.
type Page struct {
	Mode    Mode   `json:"mode"`
	Status  string `json:"status"`
	Banner  string `json:"banner,omitempty"`
	Pending string `json:"pending,omitempty"`
	Count   int    `json:"count"`
	Cards   []Card `json:"cards"`
	Stats   Table  `json:"stats"`
	Chart   Chart  `json:"chart"`
}

// NewPage projects a search state into a page. urls may be nil.
func NewPage(st search.State, urls core.URLBuilder) Page {
	p := Page{
		Mode:    ModeEmpty,
		Status:  st.Status.String(),
		Pending: st.Pending,
		Count:   st.Store.Count(),
		Cards:   Cards(st.Store, urls),
		Stats:   Stats(st.Store),
		Chart:   ChartOf(st.Store),
	}
	if st.Status == search.Failed {
		p.Banner = st.Message
	}
	if p.Count > 0 {
		p.Mode = ModeComparison
	}
	return p
}

// Loading reports whether a search is in flight; the input is disabled.
func (p Page) Loading() bool {
	return p.Status == search.Loading.String()
}

// ShowPlaceholder reports whether the neutral "search to compare" prompt is
// shown: nothing compared and no error.
func (p Page) ShowPlaceholder() bool {
	return p.Mode == ModeEmpty && p.Banner == ""
}

// ShowComparison reports whether cards, table and chart are shown.
func (p Page) ShowComparison() bool {
	return p.Mode == ModeComparison
}
