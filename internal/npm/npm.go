// Package npm provides a registry client for npmjs.com.
package npm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	errbuilder "github.com/ZanzyTHEbar/errbuilder-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/git-pkgs/compare/internal/core"
)

const (
	DefaultURL          = "https://registry.npmjs.org"
	DefaultDownloadsURL = "https://api.npmjs.org"
	ecosystem           = "npm"

	// downloadPeriod is the downloads API range covering the last 30 days.
	downloadPeriod = "last-month"
)

var tracer = otel.Tracer("github.com/git-pkgs/compare/internal/npm")

func init() {
	core.Register(ecosystem, core.Endpoints{Registry: DefaultURL, Downloads: DefaultDownloadsURL},
		func(ep core.Endpoints, client *core.Client) core.Registry {
			return New(ep, client)
		})
}

type Registry struct {
	baseURL      string
	downloadsURL string
	client       *core.Client
	urls         *URLs
}

// New creates an npm registry client. Empty endpoints fall back to the
// public registry and downloads API.
func New(ep core.Endpoints, client *core.Client) *Registry {
	if ep.Registry == "" {
		ep.Registry = DefaultURL
	}
	if ep.Downloads == "" {
		ep.Downloads = DefaultDownloadsURL
	}
	if client == nil {
		client = core.DefaultClient()
	}
	r := &Registry{
		baseURL:      strings.TrimSuffix(ep.Registry, "/"),
		downloadsURL: strings.TrimSuffix(ep.Downloads, "/"),
		client:       client,
	}
	r.urls = &URLs{baseURL: r.baseURL, downloadsURL: r.downloadsURL}
	return r
}

func (r *Registry) Ecosystem() string {
	return ecosystem
}

func (r *Registry) URLs() core.URLBuilder {
	return r.urls
}

type packageResponse struct {
	Name        string            `json:"name"`
	Description interface{}       `json:"description"`
	DistTags    map[string]string `json:"dist-tags"`
	Author      interface{}       `json:"author"`
	License     interface{}       `json:"license"`
	Repository  interface{}       `json:"repository"`
	Homepage    interface{}       `json:"homepage"`
	Maintainers []interface{}     `json:"maintainers"`
	Time        map[string]any    `json:"time"`
}

type downloadsResponse struct {
	Start     string         `json:"start"`
	End       string         `json:"end"`
	Package   string         `json:"package"`
	Downloads []downloadInfo `json:"downloads"`
}

type downloadInfo struct {
	Day       string `json:"day"`
	Downloads int64  `json:"downloads"`
}

// FetchRecord issues the metadata and download-range requests concurrently
// and merges them. If either leg fails the other is cancelled and no record
// is returned.
func (r *Registry) FetchRecord(ctx context.Context, name string) (core.PackageRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.PackageRecord{}, core.ErrInvalidName
	}

	ctx, span := tracer.Start(ctx, "npm.FetchRecord",
		trace.WithAttributes(attribute.String("package.name", name)))
	defer span.End()

	var (
		meta      packageResponse
		downloads downloadsResponse
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := r.client.GetJSON(gctx, r.urls.Metadata(name), &meta); err != nil {
			return legError("metadata", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := r.client.GetJSON(gctx, r.urls.Downloads(name), &downloads); err != nil {
			return legError("downloads", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return core.PackageRecord{}, &core.FetchError{Ecosystem: ecosystem, Name: name, Err: err}
	}

	rec, err := buildRecord(name, &meta, &downloads)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed response")
		return core.PackageRecord{}, &core.FetchError{Ecosystem: ecosystem, Name: name, Err: err}
	}
	return rec, nil
}

// buildRecord applies the field mapping. A response missing a field the
// record cannot be built without is treated as malformed. The record takes
// the requested name, not the document's, so the store key always matches
// what was searched for.
func buildRecord(name string, meta *packageResponse, dl *downloadsResponse) (core.PackageRecord, error) {
	version := meta.DistTags["latest"]
	if version == "" {
		return core.PackageRecord{}, malformed("metadata has no dist-tags.latest")
	}

	created, err := parseTime(meta.Time, "created")
	if err != nil {
		return core.PackageRecord{}, err
	}
	modified, err := parseTime(meta.Time, "modified")
	if err != nil {
		return core.PackageRecord{}, err
	}

	if dl.Downloads == nil {
		return core.PackageRecord{}, malformed("download range has no downloads list")
	}
	samples := make([]core.DownloadSample, len(dl.Downloads))
	for i, d := range dl.Downloads {
		if d.Downloads < 0 {
			return core.PackageRecord{}, malformed(fmt.Sprintf("negative download count on %s", d.Day))
		}
		samples[i] = core.DownloadSample{Day: d.Day, Downloads: d.Downloads}
	}

	return core.PackageRecord{
		Name:        name,
		Version:     version,
		Description: extractString(meta.Description),
		Author:      core.AuthorOrUnknown(extractAuthorName(meta.Author)),
		License:     core.OptionalString(extractLicense(meta.License)),
		Downloads:   samples,
		GitHub:      core.GitHubURL(extractRepoURL(meta.Repository)),
		Homepage:    core.OptionalString(extractString(meta.Homepage)),
		Maintainers: core.MaintainerCount(meta.Maintainers),
		Created:     created,
		Modified:    modified,
	}, nil
}

func parseTime(times map[string]any, key string) (time.Time, error) {
	raw, ok := times[key].(string)
	if !ok || raw == "" {
		return time.Time{}, malformed("metadata has no time." + key)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("unparseable time." + key).
			WithCause(err)
	}
	return t, nil
}

func malformed(msg string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(msg)
}

// legError records which request failed and whether the payload or the
// transport was at fault. Callers only ever see ErrFetchFailed.
func legError(leg string, err error) error {
	code := errbuilder.CodeUnavailable
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, core.ErrNotFound):
		code = errbuilder.CodeNotFound
	case errors.As(err, &syntaxErr) || errors.As(err, &typeErr):
		code = errbuilder.CodeInternal
	}
	return errbuilder.New().
		WithCode(code).
		WithMsg(leg + " request failed").
		WithCause(err)
}

func extractString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if arr, ok := v.([]interface{}); ok && len(arr) > 0 {
		if s, ok := arr[0].(string); ok {
			return s
		}
	}
	return ""
}

// extractAuthorName returns author.name. A bare author string is not read:
// only the object form carries a name field.
func extractAuthorName(v interface{}) string {
	if m, ok := v.(map[string]interface{}); ok {
		if name, ok := m["name"].(string); ok {
			return name
		}
	}
	return ""
}

func extractRepoURL(repo interface{}) string {
	switch r := repo.(type) {
	case string:
		return r
	case map[string]interface{}:
		if u, ok := r["url"].(string); ok {
			return u
		}
	}
	return ""
}

func extractLicense(v interface{}) string {
	switch l := v.(type) {
	case string:
		return l
	case map[string]interface{}:
		if t, ok := l["type"].(string); ok {
			return t
		}
	case []interface{}:
		var licenses []string
		for _, item := range l {
			switch li := item.(type) {
			case string:
				licenses = append(licenses, li)
			case map[string]interface{}:
				if t, ok := li["type"].(string); ok {
					licenses = append(licenses, t)
				}
			}
		}
		return strings.Join(licenses, ",")
	}
	return ""
}

type URLs struct {
	baseURL      string
	downloadsURL string
}

func (u *URLs) Metadata(name string) string {
	return fmt.Sprintf("%s/%s", u.baseURL, url.PathEscape(name))
}

// Downloads keeps the scope separator of "@scope/name" as a path slash,
// which is what the downloads API expects.
func (u *URLs) Downloads(name string) string {
	parts := strings.SplitN(name, "/", 2)
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return fmt.Sprintf("%s/downloads/range/%s/%s", u.downloadsURL, downloadPeriod, strings.Join(parts, "/"))
}

func (u *URLs) Registry(name, version string) string {
	if version != "" {
		return fmt.Sprintf("https://www.npmjs.com/package/%s/v/%s", name, version)
	}
	return fmt.Sprintf("https://www.npmjs.com/package/%s", name)
}

func (u *URLs) PURL(name, version string) string {
	namespace := ""
	pkgName := name
	if strings.HasPrefix(name, "@") && strings.Contains(name, "/") {
		parts := strings.SplitN(name, "/", 2)
		namespace = parts[0]
		pkgName = parts[1]
	}

	if namespace != "" {
		if version != "" {
			return fmt.Sprintf("pkg:npm/%s/%s@%s", namespace, pkgName, version)
		}
		return fmt.Sprintf("pkg:npm/%s/%s", namespace, pkgName)
	}

	if version != "" {
		return fmt.Sprintf("pkg:npm/%s@%s", pkgName, version)
	}
	return fmt.Sprintf("pkg:npm/%s", pkgName)
}
