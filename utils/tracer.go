package utils

import (
	. "github.com/ripplehq/ripple/utils/flag"
	Logger "github.com/ripplehq/ripple/utils/log"
	"github.com/sirupsen/logrus"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"
)

// StartTracer boots the Datadog tracer for the current service. Call once
// from main, pair with CloseTracer on shutdown.
func StartTracer() {
	env := "development"
	if !*IsDevelopment {
		env = "production"
	}

	tracer.Start(
		tracer.WithService(*ServiceName),
		tracer.WithEnv(env),
	)

	Logger.Log.WithFields(
		logrus.Fields{"service": *ServiceName, "is_development": *IsDevelopment},
	).Info("tracer initialized")
}

// Stop tracer, OK to be closed multiple times
func CloseTracer() {
	tracer.Stop()
}
