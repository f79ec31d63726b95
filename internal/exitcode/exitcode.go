// Package exitcode enumerates the distinct fatal exit codes so CI can
// interpret failures without scraping logs.
package exitcode

const (
	OK              = 0
	StageFailure    = 1
	Config          = 2
	UncleanTree     = 3
	MissingArtifact = 4
	Contract        = 5
	ReproMismatch   = 6
	SymlinkFound    = 7
)
