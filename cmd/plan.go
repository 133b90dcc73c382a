package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wbxdata/replipipe/actions"
)

var planCfg = actions.ReplicateConfig{}
var planSrc, planTgt actions.ConnectionObject

var planCmd = &cobra.Command{
	Use:   "plan " + argsDefinitionTxt,
	Short: "Print the chunks a replication would extract without touching S3 or the target",
	Long: fmt.Sprintf(`Probe the target table and print the plan for the next replication:

- The mode is bootstrap when the target is missing or empty, else incremental
- Bootstrap plans list every id range and the S3 object it would be written to
- Supported <source-connection>-<target-connection> combinations are:

%v
`, actions.GetSupportedReplicateConnectionTypes()),
	Args: getConnectionsArgsFunc(&planSrc, &planTgt, ""),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return launchAction(&planCfg, planSrc, planTgt, actions.GetPlanAction)
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().SortFlags = false
	addFlagsReplicate(planCmd, &planCfg)
	switches.addFlag(planCmd, &planCfg.ExportConfigType, "plan-output", "yaml", false, "")
}
