package utils

import (
	. "github.com/ripplehq/ripple/utils/flag"
	Logger "github.com/ripplehq/ripple/utils/log"
	"gopkg.in/DataDog/dd-trace-go.v1/profiler"
)

// StartProfiler boots the Datadog continuous profiler. Call once from main,
// pair with CloseProfiler on shutdown.
func StartProfiler() {
	env := "development"
	if !*IsDevelopment {
		env = "production"
	}

	if err := profiler.Start(
		profiler.WithService(*ServiceName),
		profiler.WithEnv(env),
		profiler.WithProfileTypes(
			profiler.CPUProfile,
			profiler.HeapProfile,
			// The profiles below are disabled by
			// default to keep overhead low, but
			// can be enabled as needed.
			// profiler.BlockProfile,
			// profiler.MutexProfile,
			// profiler.GoroutineProfile,
		),
	); err != nil {
		Logger.Log.Fatal(err)
	}
}

// Stop profiler, OK to be closed multiple times
func CloseProfiler() {
	profiler.Stop()
}
