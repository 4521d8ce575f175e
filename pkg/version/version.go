// Package version reports the scpsigma release and the quality report
// format version.
package version

import (
	"fmt"
	"runtime/debug"
)

// Release is the scpsigma release. Overridden at build time with
// -ldflags "-X github.com/scpsigma/scpsigma-go/pkg/version.Release=...".
var Release = "0.4.0"

// ReportFormat is the version of the quality report layout, stamped into
// the format_version field of every report.
const ReportFormat = "1.1"

// Generator returns the "scpsigma/<release>" tag stamped into reports.
func Generator() string {
	return "scpsigma/" + Release
}

// Info returns a one-line description of the build.
func Info() string {
	s := fmt.Sprintf("scpsigma %s (report format %s)", Release, ReportFormat)
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return s
	}
	s += " " + bi.GoVersion
	for _, setting := range bi.Settings {
		if setting.Key == "vcs.revision" && len(setting.Value) >= 12 {
			s += " " + setting.Value[:12]
		}
	}
	return s
}
