/*
flag Package set up cli flags shared across services

Usage:

	Flags listed in this package are shared across boundaries and service-agnostic
	For service dependent flags please define in their respective package
*/

package flag

import (
	"flag"
)

const (
	APIServer            = "api_server"
	InteractionIngester  = "interaction_ingester"
	MaintenanceJobRunner = "job_runner"
)

var (
	IsDevelopment *bool
	ServiceName   *string
)

func init() {
	IsDevelopment = flag.Bool("dev", true, "set to true if the current run is for development. default value is true")
	ServiceName = flag.String("service", APIServer, "'api_server', 'interaction_ingester' or 'job_runner'")
}

// Parse must be called from main after all packages registered their flags.
func Parse() {
	flag.Parse()
}
