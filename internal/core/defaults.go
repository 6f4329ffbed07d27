package core

import "strings"

// UnknownAuthor is shown when the registry document names no author.
const UnknownAuthor = "Unknown"

// AuthorOrUnknown returns name, or UnknownAuthor when name is empty.
func AuthorOrUnknown(name string) string {
	if name == "" {
		return UnknownAuthor
	}
	return name
}

// GitHubURL turns a repository URL into a browsable link by stripping a
// leading "git+" and a trailing ".git". An empty URL yields nil.
func GitHubURL(repoURL string) *string {
	if repoURL == "" {
		return nil
	}
	u := strings.TrimPrefix(repoURL, "git+")
	u = strings.TrimSuffix(u, ".git")
	return &u
}

// MaintainerCount is the length of the maintainers list; an absent list
// counts as zero.
func MaintainerCount[T any](maintainers []T) int {
	return len(maintainers)
}

// OptionalString maps the empty string to nil.
func OptionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringOr dereferences s, falling back to def when s is nil.
func StringOr(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}
