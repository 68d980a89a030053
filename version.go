package arbor

import _ "embed"

// Version is the release of the arbor module, read from the VERSION file.
//
//go:embed VERSION
var Version string
