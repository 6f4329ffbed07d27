// Package view projects a comparison store into what the UI shows: one card
// per package, a statistics table and a download chart. Every function here
// is a pure function of its inputs.
package view

import (
	"html"

	"github.com/git-pkgs/spdx"
	"github.com/microcosm-cc/bluemonday"

	"github.com/git-pkgs/compare/internal/core"
	"github.com/git-pkgs/compare/store"
)

// DateLayout is how dates appear in cards and the table.
const DateLayout = "Jan 2, 2006"

// noValue stands in for an absent optional field.
const noValue = "—"

var stripTags = bluemonday.StrictPolicy()

// Card is the summary of one package.
type Card struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Author      string `json:"author"`
	License     string `json:"license"`
	// SPDX is the canonical identifier for License, empty if it has none.
	SPDX        string `json:"spdx,omitempty"`
	Homepage    string `json:"homepage,omitempty"`
	GitHub      string `json:"github,omitempty"`
	Maintainers int    `json:"maintainers"`
	Created     string `json:"created"`
	Modified    string `json:"modified"`
	PURL        string `json:"purl,omitempty"`
	RegistryURL string `json:"registry_url,omitempty"`
}

// Cards returns one card per package, sorted by name. urls may be nil.
func Cards(s store.Store, urls core.URLBuilder) []Card {
	recs := s.Records()
	cards := make([]Card, len(recs))
	for i, rec := range recs {
		cards[i] = cardOf(rec, urls)
	}
	return cards
}

func cardOf(rec core.PackageRecord, urls core.URLBuilder) Card {
	license, spdxID := licenseLabel(rec.License)
	c := Card{
		Name:        rec.Name,
		Version:     rec.Version,
		Description: plainText(rec.Description),
		Author:      rec.Author,
		License:     license,
		SPDX:        spdxID,
		Homepage:    core.StringOr(rec.Homepage, ""),
		GitHub:      core.StringOr(rec.GitHub, ""),
		Maintainers: rec.Maintainers,
		Created:     formatDate(rec.Created),
		Modified:    formatDate(rec.Modified),
	}
	if urls != nil {
		c.PURL = urls.PURL(rec.Name, rec.Version)
		c.RegistryURL = urls.Registry(rec.Name, "")
	}
	return c
}

// licenseLabel returns the license as published and, when it maps to one,
// its SPDX identifier.
func licenseLabel(license *string) (label, spdxID string) {
	if license == nil {
		return noValue, ""
	}
	id, err := spdx.Normalize(*license)
	if err != nil || id == *license {
		return *license, ""
	}
	return *license, id
}

// plainText strips markup from a description. The result is unescaped text;
// escaping is left to the renderer.
func plainText(s string) string {
	return html.UnescapeString(stripTags.Sanitize(s))
}
