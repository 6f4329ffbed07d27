// Package core provides the shared data model, error taxonomy and the
// registry system.
package core

import "time"

// DownloadSample is one calendar day's download count.
type DownloadSample struct {
	Day       string `json:"day"`
	Downloads int64  `json:"downloads"`
}

// PackageRecord is the normalized view of one package, built from one
// metadata response and one download-range response.
type PackageRecord struct {
	Name        string           `json:"name"`
	Version     string           `json:"version"`
	Description string           `json:"description"`
	Author      string           `json:"author"`
	License     *string          `json:"license"`
	Downloads   []DownloadSample `json:"downloads"`
	GitHub      *string          `json:"github"`
	Homepage    *string          `json:"homepage"`
	Maintainers int              `json:"maintainers"`
	Created     time.Time        `json:"created"`
	Modified    time.Time        `json:"modified"`
}

// TotalDownloads sums the download counts of every sample.
func (r PackageRecord) TotalDownloads() int64 {
	var total int64
	for _, d := range r.Downloads {
		total += d.Downloads
	}
	return total
}

// Clone returns a copy that shares no slices or pointers with r.
func (r PackageRecord) Clone() PackageRecord {
	c := r
	c.Downloads = append([]DownloadSample(nil), r.Downloads...)
	c.License = cloneString(r.License)
	c.GitHub = cloneString(r.GitHub)
	c.Homepage = cloneString(r.Homepage)
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
