package view

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/git-pkgs/compare/internal/core"
	"github.com/git-pkgs/compare/search"
	"github.com/git-pkgs/compare/store"
)

func ptr(s string) *string { return &s }

func record(name string, samples ...int64) core.PackageRecord {
	rec := core.PackageRecord{
		Name:        name,
		Version:     "1.0.0",
		Description: name + " package",
		Author:      core.UnknownAuthor,
		Maintainers: 2,
		Created:     time.Date(2013, 5, 24, 16, 15, 54, 0, time.UTC),
		Modified:    time.Date(2024, 4, 25, 18, 10, 30, 0, time.UTC),
	}
	for i, n := range samples {
		rec.Downloads = append(rec.Downloads, core.DownloadSample{
			Day:       time.Date(2024, 4, 1+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
			Downloads: n,
		})
	}
	return rec
}

func storeOf(t *testing.T, recs ...core.PackageRecord) store.Store {
	t.Helper()
	s := store.New()
	for _, rec := range recs {
		var err error
		s, err = s.With(rec)
		require.NoError(t, err)
	}
	return s
}

func TestStatsDownloadsEqualSum(t *testing.T) {
	s := storeOf(t, record("react", 100, 200, 300), record("vue", 1500000))

	table := Stats(s)
	assert.Equal(t, []string{"react", "vue"}, table.Columns)
	assert.Equal(t, int64(600), table.Totals["react"])
	assert.Equal(t, int64(1500000), table.Totals["vue"])

	v, ok := table.Value(MetricDownloads, "vue")
	require.True(t, ok)
	assert.Equal(t, "1,500,000", v)

	v, ok = table.Value(MetricMaintainers, "react")
	require.True(t, ok)
	assert.Equal(t, "2", v)

	v, ok = table.Value(MetricModified, "react")
	require.True(t, ok)
	assert.Equal(t, "Apr 25, 2024", v)

	_, ok = table.Value(MetricDownloads, "angular")
	assert.False(t, ok)
}

func TestStatsIndependentOfSampleOrder(t *testing.T) {
	a := record("a", 5, 10, 15)
	b := record("a", 5, 10, 15)
	b.Downloads[0], b.Downloads[2] = b.Downloads[2], b.Downloads[0]

	assert.Equal(t, Stats(storeOf(t, a)).Totals, Stats(storeOf(t, b)).Totals)
}

func TestStatsEmptyDownloads(t *testing.T) {
	table := Stats(storeOf(t, record("quiet")))
	v, _ := table.Value(MetricDownloads, "quiet")
	assert.Equal(t, "0", v)
}

func TestCards(t *testing.T) {
	rec := record("react")
	rec.Description = "<b>Fast</b> & small<script>alert(1)</script>"
	rec.License = ptr("MIT")
	rec.GitHub = ptr("https://github.com/facebook/react")

	cards := Cards(storeOf(t, rec, record("left-pad")), nil)
	require.Len(t, cards, 2)
	assert.Equal(t, "left-pad", cards[0].Name)

	c := cards[1]
	assert.Equal(t, "Fast & small", c.Description)
	assert.Equal(t, "MIT", c.License)
	assert.Equal(t, "https://github.com/facebook/react", c.GitHub)
	assert.Equal(t, "May 24, 2013", c.Created)
	assert.Equal(t, "Apr 25, 2024", c.Modified)
	assert.Empty(t, c.PURL)

	assert.Equal(t, noValue, cards[0].License)
	assert.Empty(t, cards[0].GitHub)
}

func TestCardsWithURLs(t *testing.T) {
	urls := &core.BaseURLs{
		RegistryFn: func(name, _ string) string { return "https://www.npmjs.com/package/" + name },
		PURLFn:     func(name, version string) string { return "pkg:npm/" + name + "@" + version },
	}
	cards := Cards(storeOf(t, record("react")), urls)
	require.Len(t, cards, 1)
	assert.Equal(t, "https://www.npmjs.com/package/react", cards[0].RegistryURL)
	assert.Equal(t, "pkg:npm/react@1.0.0", cards[0].PURL)
}

func TestChartSharedDayAxis(t *testing.T) {
	short := record("short", 7)
	long := record("long", 1, 2, 3)

	c := ChartOf(storeOf(t, short, long))
	assert.Equal(t, []string{"2024-04-01", "2024-04-02", "2024-04-03"}, c.Days)
	require.Len(t, c.Series, 2)

	assert.Equal(t, "long", c.Series[0].Name)
	assert.Equal(t, []int64{1, 2, 3}, c.Series[0].Values)
	assert.Equal(t, "short", c.Series[1].Name)
	assert.Equal(t, []int64{7, 0, 0}, c.Series[1].Values)
	assert.Equal(t, int64(7), c.Max)
	assert.NotEqual(t, c.Series[0].Color, c.Series[1].Color)

	assert.Equal(t, "2024-04-01", c.FirstDay())
	assert.Equal(t, "2024-04-03", c.LastDay())
	assert.Equal(t, "7", c.MaxLabel())
}

func TestChartGeometry(t *testing.T) {
	c := ChartOf(storeOf(t, record("a", 0, 10)))
	assert.Equal(t, float64(c.Left()), c.X(0))
	assert.Equal(t, float64(c.Right()), c.X(1))
	assert.Equal(t, float64(c.Bottom()), c.Y(0))
	assert.Equal(t, float64(c.Top()), c.Y(10))
	assert.Equal(t, "40.0,260.0 760.0,40.0", c.Series[0].Points)
}

func TestChartEmpty(t *testing.T) {
	c := ChartOf(store.New())
	assert.True(t, c.Empty())
	assert.Empty(t, c.FirstDay())
	assert.Empty(t, c.Series)
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, "▁▄█", Sparkline([]int64{0, 50, 100}, 100))
	assert.Equal(t, "▁▁", Sparkline([]int64{0, 0}, 0))
	assert.Empty(t, Sparkline(nil, 10))
}

func TestPageModes(t *testing.T) {
	s := store.New()
	p := NewPage(search.State{Status: search.Idle, Store: s}, nil)
	assert.Equal(t, ModeEmpty, p.Mode)
	assert.True(t, p.ShowPlaceholder())

	s = storeOf(t, record("react"))
	p = NewPage(search.State{Status: search.Idle, Store: s}, nil)
	assert.Equal(t, ModeComparison, p.Mode)
	assert.False(t, p.ShowPlaceholder())
	assert.Equal(t, 1, p.Count)

	s = s.Without("react")
	p = NewPage(search.State{Status: search.Idle, Store: s}, nil)
	assert.Equal(t, ModeEmpty, p.Mode)
	assert.True(t, p.ShowPlaceholder())
}

func TestPageBannerHidesPlaceholder(t *testing.T) {
	p := NewPage(search.State{Status: search.Failed, Message: search.MsgFetchFailed, Store: store.New()}, nil)
	assert.Equal(t, search.MsgFetchFailed, p.Banner)
	assert.False(t, p.ShowPlaceholder())
	assert.False(t, p.ShowComparison())
}

func TestPageLoading(t *testing.T) {
	p := NewPage(search.State{Status: search.Loading, Pending: "react", Store: store.New()}, nil)
	assert.True(t, p.Loading())
	assert.Empty(t, p.Banner)
	assert.Equal(t, "loading", p.Status)
}

func TestRenderHTMLPlaceholder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, NewPage(search.State{Store: store.New()}, nil)))

	out := buf.String()
	assert.Contains(t, out, "Compare npm Packages")
	assert.Contains(t, out, "Search and add packages to compare their statistics")
	assert.NotContains(t, out, `role="alert"`)
	assert.NotContains(t, out, "<table>")
}

func TestRenderHTMLComparison(t *testing.T) {
	rec := record("react", 10, 20)
	rec.Description = `<img src=x onerror="alert(1)">UI library`
	s := storeOf(t, rec, record("vue", 5))

	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, NewPage(search.State{Store: s}, nil)))

	out := buf.String()
	assert.Contains(t, out, "UI library")
	assert.NotContains(t, out, "onerror")
	assert.Contains(t, out, "<th>react</th>")
	assert.Contains(t, out, "<th>vue</th>")
	assert.Contains(t, out, MetricDownloads)
	assert.Equal(t, 2, strings.Count(out, "<polyline"))
	assert.Equal(t, 2, strings.Count(out, `action="/packages/remove"`))
	assert.NotContains(t, out, "Search and add packages")
}

func TestRenderHTMLBannerAndLoading(t *testing.T) {
	var buf bytes.Buffer
	st := search.State{Status: search.Failed, Message: search.MsgDuplicate, Store: storeOf(t, record("react"))}
	require.NoError(t, RenderHTML(&buf, NewPage(st, nil)))
	assert.Contains(t, buf.String(), "Package already added to comparison")
	assert.Contains(t, buf.String(), `action="/dismiss"`)

	buf.Reset()
	st = search.State{Status: search.Loading, Pending: "vue", Store: store.New()}
	require.NoError(t, RenderHTML(&buf, NewPage(st, nil)))
	assert.Contains(t, buf.String(), "disabled")
	assert.Contains(t, buf.String(), "Loading vue")
}

func TestRenderText(t *testing.T) {
	var buf bytes.Buffer
	s := storeOf(t, record("react", 1000, 2000))
	require.NoError(t, RenderText(&buf, NewPage(search.State{Store: s}, nil)))

	out := buf.String()
	assert.Contains(t, out, "react")
	assert.Contains(t, out, "v1.0.0")
	assert.Contains(t, out, "3,000")
	assert.Contains(t, out, "Last Updated")
	assert.Contains(t, out, "2024-04-01 .. 2024-04-02")
}

func TestRenderTextBanner(t *testing.T) {
	var buf bytes.Buffer
	st := search.State{Status: search.Failed, Message: search.MsgFetchFailed, Store: store.New()}
	require.NoError(t, RenderText(&buf, NewPage(st, nil)))
	assert.Equal(t, "error: "+search.MsgFetchFailed+"\n\n", buf.String())
}

func BenchmarkNewPage(b *testing.B) {
	s := store.New()
	for _, name := range []string{"react", "vue", "angular", "svelte", "solid-js"} {
		samples := make([]int64, 30)
		for i := range samples {
			samples[i] = int64(i * 1000)
		}
		s, _ = s.With(record(name, samples...))
	}
	st := search.State{Store: s}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = NewPage(st, nil)
	}
}
