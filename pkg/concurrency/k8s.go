package concurrency

import (
	"fmt"
	"runtime"

	"go.uber.org/automaxprocs/maxprocs"

	"github.com/flowforge/flowrun/pkg/logging"
)

// InitializeForKubernetes aligns GOMAXPROCS with the container's cgroup CPU
// quota before anything sizes the admission limiter off runtime.GOMAXPROCS
// (see LoadConfig and GetOptimalConcurrency). Call it once at process
// startup, before the limiter is built, so ConcurrencyGlobalLimit sees the
// container's real CPU share rather than the host's. Returns an undo
// function that restores the original GOMAXPROCS value.
func InitializeForKubernetes(logger logging.Logger) func() {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		logger.Debug(fmt.Sprintf(format, args...))
	}))
	if err != nil {
		logger.Warn("failed to set GOMAXPROCS from cgroup quota", logging.F("error", err.Error()))
		return func() {}
	}

	logger.Info("admission concurrency baseline set", logging.F("gomaxprocs", runtime.GOMAXPROCS(0)))
	return undo
}
