package reflex

import _ "embed"

// Version is the library and CLI release, read from the VERSION file.
//
//go:embed VERSION
var Version string
