// Package buildinfo exposes build metadata stamped via -ldflags:
//
//	-X 'github.com/m3rciful/dealerbot/core/buildinfo.Version=v1.0.0'
//	-X 'github.com/m3rciful/dealerbot/core/buildinfo.Commit=abcdef0'
//	-X 'github.com/m3rciful/dealerbot/core/buildinfo.Date=2026-01-01T00:00:00Z'
package buildinfo

var (
	// Version reports the release tag of the build.
	Version = "dev"
	// Commit reports the source control commit used for the build.
	Commit = "local"
	// Date reports the build timestamp in RFC3339 format.
	Date = ""
)
