package log

import (
	"os"
	"time"

	ddhook "github.com/bin3377/logrus-datadog-hook"
	"github.com/ripplehq/ripple/utils/dotenv"
	"github.com/ripplehq/ripple/utils/flag"
	"github.com/sirupsen/logrus"
)

const (
	datadogUSHost    = "http-intake.logs.datadoghq.com"
	syncFrequencySec = 30
	syncRetry        = 3
)

// global accessible logger
var (
	logger *logrus.Logger
	Log    *logrus.Entry
)

// This init function is only for testing cases, where the entry point is not
// main function. Unit test will fail with nil pointer dereference if we don't
// init here.
func init() {
	InitLogger()
}

func InitLogger() {
	logger = logrus.New()

	hook := ddhook.NewHook(
		datadogUSHost,
		os.Getenv("DD_API_KEY"),
		syncFrequencySec*time.Second,
		syncRetry,
		logrus.InfoLevel,
		&logrus.JSONFormatter{},
		ddhook.Options{},
	)
	if os.Getenv("RIPPLE_ENV") == dotenv.ProdEnv {
		logger.Hooks.Add(hook)
	}

	// Also send log to stderr, without json formatter for better readability
	logger.SetOutput(os.Stderr)

	Log = logger.WithFields(
		logrus.Fields{"service": *flag.ServiceName, "is_development": os.Getenv("RIPPLE_ENV") != dotenv.ProdEnv},
	)
}
