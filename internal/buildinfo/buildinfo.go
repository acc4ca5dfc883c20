// Package buildinfo exposes version data injected at link time with
// -ldflags "-X github.com/and161185/linstor-dashboard/internal/buildinfo.BuildVersion=...".
package buildinfo

import "fmt"

var (
	BuildVersion string
	BuildDate    string
	BuildCommit  string
)

// Info is the build description served by /version.
type Info struct {
	Version string `json:"version"`
	Date    string `json:"date"`
	Commit  string `json:"commit"`
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// Get returns the build info with unset values replaced by "N/A".
func Get() Info {
	return Info{
		Version: orNA(BuildVersion),
		Date:    orNA(BuildDate),
		Commit:  orNA(BuildCommit),
	}
}

func (i Info) String() string {
	return fmt.Sprintf("Build version: %s\nBuild date: %s\nBuild commit: %s", i.Version, i.Date, i.Commit)
}
