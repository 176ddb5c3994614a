// Package version carries build-time metadata, overridable via ldflags.
package version

import "github.com/doeshing/deepchat/internal/domain"

var (
	Version     = "1.1.0"
	Author      = "doeshing"
	ReleaseDate = "2025-01-31"
	License     = "MIT"

	// Commit and BuildDate are injected by the release build.
	Commit    = ""
	BuildDate = ""
)

// About assembles the descriptive metadata for the view, substituting a
// visible placeholder for anything missing.
func About() domain.AboutInfo {
	return domain.AboutInfo{
		Version:     Version,
		Author:      Author,
		ReleaseDate: ReleaseDate,
		License:     License,
	}.OrUnknown()
}
