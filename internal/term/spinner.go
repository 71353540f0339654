package term

import (
	"time"

	"github.com/briandowns/spinner"
)

// Progress starts a console spinner with the given suffix text and returns
// a stop function. When enabled is false (non-TTY, tests) both start and
// stop are no-ops.
func Progress(enabled bool, suffix string) func() {
	if !enabled {
		return func() {}
	}
	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond)
	s.Suffix = " " + suffix
	s.Start()
	return s.Stop
}
