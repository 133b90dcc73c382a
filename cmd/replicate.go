package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/wbxdata/replipipe/actions"
	"github.com/wbxdata/replipipe/constants"
)

var replicateCfg = actions.ReplicateConfig{}
var replicateSrc, replicateTgt actions.ConnectionObject

var replicateCmd = &cobra.Command{
	Use:   "replicate " + argsDefinitionTxt,
	Short: "Bootstrap or incrementally update a target table from a source table (optionally loop)",
	Long: fmt.Sprintf(`Replicate source-connection.schema.table into target-connection.schema.table:

- When the target table is missing or empty, every id range is extracted in parallel chunks
  and the target is dropped, recreated and loaded in one transaction
- Otherwise only rows with an id above the target's highest id are extracted and appended
- The target name defaults to the source table name when only a connection is given
- Supported <source-connection>-<target-connection> combinations are:

%v
`, actions.GetSupportedReplicateConnectionTypes()),
	Args: getConnectionsArgsFunc(&replicateSrc, &replicateTgt, ""),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runReplicate()
	},
}

func init() {
	rootCmd.AddCommand(replicateCmd)
	replicateCmd.Flags().SortFlags = false
	addFlagsReplicate(replicateCmd, &replicateCfg)
	switches.addFlag(replicateCmd, &replicateCfg.TimeoutSeconds, "timeout", "0", false, "")
	switches.addFlag(replicateCmd, &replicateCfg.RepeatInterval, "repeat", "0", false, "")
	switches.addFlag(replicateCmd, &replicateCfg.ExportConfigType, "output", "", false, "")
	switches.addFlag(replicateCmd, &replicateCfg.ExportIncludeConnections, "include-connections", "", false, "")
}

// addFlagsReplicate registers the flags shared by replicate and plan.
func addFlagsReplicate(c *cobra.Command, cfg *actions.ReplicateConfig) {
	switches.addFlag(c, &cfg.Columns.FK, "fk-column", "", true, "")
	switches.addFlag(c, &cfg.Columns.Text, "text-column", "", true, "")
	switches.addFlag(c, &cfg.Columns.Created, "created-column", "", true, "")
	switches.addFlag(c, &cfg.Columns.ID, "id-column", "id", false, "")
	switches.addFlag(c, &cfg.Columns.Flag, "flag-column", "", false, "")
	switches.addFlag(c, &cfg.Marker, "marker", constants.DefaultMarker, false, "")
	switches.addFlag(c, &cfg.BucketName, "s3-bucket", "", true, "")
	switches.addFlag(c, &cfg.BucketPrefix, "s3-prefix", constants.DefaultStagingPrefix, false, "")
	switches.addFlag(c, &cfg.BucketRegion, "s3-region", "", false, "")
	switches.addFlag(c, &cfg.IamRole, "iam-role", "", false, " (required for Redshift targets)")
	switches.addFlag(c, &cfg.StorageIntegration, "storage-integration", "", false, " (required for Snowflake targets)")
	switches.addFlag(c, &cfg.Grantee, "grantee", constants.DefaultGrantee, false, "")
	switches.addFlag(c, &cfg.ChunkSize, "chunk-size", strconv.Itoa(constants.DefaultChunkSize), false, "")
	switches.addFlag(c, &cfg.Parallelism, "parallelism", strconv.Itoa(constants.DefaultParallelism), false, "")
	switches.addFlag(c, &cfg.ExportMode, "export-mode", constants.ExportModeStream, false, "")
	switches.addFlag(c, &cfg.WebhookURL, "webhook-url", "", false, "")
	switches.addFlag(c, &cfg.WebhookSecret, "webhook-secret", "", false, "")
	switches.addFlag(c, &cfg.LogLevel, "log-level", "info", false, "")
	switches.addFlag(c, &cfg.StatsDumpFrequencySeconds, "stats", strconv.Itoa(constants.StatsCaptureFrequencySeconds), false, "")
}

func runReplicate() error {
	return launchAction(&replicateCfg, replicateSrc, replicateTgt, actions.GetReplicateAction)
}

func launchAction(
	cfg *actions.ReplicateConfig,
	src actions.ConnectionObject,
	tgt actions.ConnectionObject,
	fnActionGetter func(sourceType string, targetType string) (actions.Action, error)) error {
	ctx, stop := signalContext()
	defer stop()
	return launchActionWithContext(ctx, cfg, src, tgt, fnActionGetter)
}

// launchActionWithContext copies the source and target arguments into cfg, looks up the connection types
// and runs the action registered for them.
func launchActionWithContext(
	ctx context.Context,
	cfg *actions.ReplicateConfig,
	src actions.ConnectionObject,
	tgt actions.ConnectionObject,
	fnActionGetter func(sourceType string, targetType string) (actions.Action, error)) error {
	connections := getConnectionHandler()
	cfg.SourceConnection = src.GetConnectionName()
	cfg.SourceTable = src.GetObject()
	cfg.TargetConnection = tgt.GetConnectionName()
	if tgt.GetObject() != "" {
		cfg.TargetTable = tgt.GetObject()
	}
	cfg.StackDumpOnPanic = stackDumpOnPanic
	sourceType, err := connections.GetConnectionType(cfg.SourceConnection)
	if err != nil {
		return err
	}
	targetType, err := connections.GetConnectionType(cfg.TargetConnection)
	if err != nil {
		return err
	}
	return actions.ActionLauncher(ctx, cfg, actions.NewEnvironment(getConnectionLoader()), fnActionGetter, sourceType, targetType)
}
