package cmd

import (
	"io"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// newLogger returns a logfmt logger on w. Only warnings and errors pass
// unless verbose is set.
func newLogger(w io.Writer, verbose bool) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	allow := level.AllowWarn()
	if verbose {
		allow = level.AllowDebug()
	}
	return level.NewFilter(logger, allow)
}
