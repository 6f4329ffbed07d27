// Package all imports all supported registry implementations.
//
// Import this package for its side effects to register all ecosystems:
//
//	import (
//		"github.com/git-pkgs/compare"
//		_ "github.com/git-pkgs/compare/all"
//	)
//
//	// Now all ecosystems are available
//	ecosystems := compare.SupportedEcosystems()
//	// ["npm"]
package all

import (
	_ "github.com/git-pkgs/compare/internal/npm"
)
