package cmd

import (
	"net"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/wbxdata/replipipe/actions"
	"github.com/wbxdata/replipipe/constants"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start a web service that launches replication jobs described in JSON",
	Long: `Start a web service that launches replication jobs described in JSON:

- POST /replicate with a job definition (see the --output flag of replicate) returns a run id
- GET /runs lists runs and GET /runs/<run id> shows the progress or result of one run
- GET /health and /stop; stopping waits for in-flight runs to finish`,
	RunE: func(cmd *cobra.Command, args []string) error {
		serveConfig.Env = actions.NewEnvironment(getConnectionLoader())
		serveConfig.StackDumpOnPanic = stackDumpOnPanic
		return actions.RunWebServer(&serveConfig)
	},
}

var serveConfig = actions.WebServerConfig{
	LogLevel:                  "info",
	Scheme:                    "http",
	Addr:                      net.IP{0, 0, 0, 0},
	Port:                      8080,
	StatsDumpFrequencySeconds: constants.StatsCaptureFrequencySeconds,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().SortFlags = false
	serveCmd.Flags().IPVarP(&serveConfig.Addr, "address", "a", net.IP{0, 0, 0, 0}, "Address to listen on")
	switches.addFlag(serveCmd, &serveConfig.Port, "port", "8080", false, "")
	switches.addFlag(serveCmd, &serveConfig.LogLevel, "log-level", "info", false, "")
	switches.addFlag(serveCmd, &serveConfig.StatsDumpFrequencySeconds, "stats", strconv.Itoa(constants.StatsCaptureFrequencySeconds), false, "")
}
