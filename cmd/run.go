package cmd

import (
	"strconv"

	"github.com/spf13/cobra"
	"github.com/wbxdata/replipipe/actions"
	"github.com/wbxdata/replipipe/constants"
)

var jobCfg = actions.JobConfig{}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a replication job described in a YAML or JSON file",
	Long: `Run a replication job described in a YAML or JSON file.

Generate a job file using the --output flag of the replicate command.
Connections named in the file without details are loaded from the connections config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runJob()
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().SortFlags = false
	switches.addFlag(runCmd, &jobCfg.JobFile, "file", "", true, "")
	switches.addFlag(runCmd, &jobCfg.DryRun, "dry-run", "", false, "")
	switches.addFlag(runCmd, &jobCfg.OutputFormat, "plan-output", "yaml", false, " when --dry-run is set")
	switches.addFlag(runCmd, &jobCfg.LogLevel, "log-level", "info", false, "")
	switches.addFlag(runCmd, &jobCfg.StatsDumpFrequencySeconds, "stats", strconv.Itoa(constants.StatsCaptureFrequencySeconds), false, "")
}

func runJob() error {
	jobCfg.StackDumpOnPanic = stackDumpOnPanic
	ctx, stop := signalContext()
	defer stop()
	return actions.RunJobFromFile(ctx, &jobCfg, actions.NewEnvironment(getConnectionLoader()))
}
