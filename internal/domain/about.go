package domain

// AboutInfo is the static descriptive metadata shown by the version view.
// Missing fields render as a visible "unknown" placeholder, never an error.
type AboutInfo struct {
	Version     string
	Author      string
	ReleaseDate string
	License     string
}

// OrUnknown substitutes the placeholder for empty fields.
func (a AboutInfo) OrUnknown() AboutInfo {
	fill := func(s string) string {
		if s == "" {
			return "unknown"
		}
		return s
	}
	return AboutInfo{
		Version:     fill(a.Version),
		Author:      fill(a.Author),
		ReleaseDate: fill(a.ReleaseDate),
		License:     fill(a.License),
	}
}
