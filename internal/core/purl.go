package core

import (
	"fmt"
	"strings"

	"github.com/git-pkgs/purl"
)

// IsPURL reports whether s looks like a Package URL rather than a bare name.
func IsPURL(s string) bool {
	return strings.HasPrefix(s, "pkg:")
}

// NameFromPURL parses a Package URL and returns its ecosystem and the
// package name in the form the registry expects ("@babel/core" for npm).
// Any version in the PURL is ignored.
func NameFromPURL(s string) (ecosystem, name string, err error) {
	p, err := purl.Parse(s)
	if err != nil {
		return "", "", fmt.Errorf("parsing purl %q: %w", s, err)
	}
	return p.Type, p.FullName(), nil
}
