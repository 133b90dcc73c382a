package actions

import (
	"context"
	"fmt"

	"github.com/wbxdata/replipipe/constants"
)

type Action struct {
	FnAction func(ctx context.Context, cfg *ReplicateConfig, env *Environment) error
}

// ActionLauncher fetches the Action registered for sourceType and targetType and runs it with cfg.
func ActionLauncher(
	ctx context.Context,
	cfg *ReplicateConfig,
	env *Environment,
	fnActionGetter func(sourceType string, targetType string) (Action, error),
	sourceType string,
	targetType string) error {
	if cfg == nil {
		return fmt.Errorf("expected pointer to config in variable cfg to be supplied to ActionLauncher")
	}
	a, err := fnActionGetter(sourceType, targetType)
	if err != nil {
		return err
	}
	return a.FnAction(ctx, cfg, env)
}

// ActionFuncs is a register of all supported actions keyed by command and then <source type>-<target type>.
// The keys are also used to validate connection types before they are saved. See RunConnectionAdd().
// It is populated in init() to break the initialization cycle via RunReplicate -> GetReplicateAction.
var ActionFuncs map[string]map[string]Action

func init() {
	ActionFuncs = map[string]map[string]Action{
		constants.ActionFuncsCommandReplicate: {
			"mysql-redshift":      Action{FnAction: RunReplicate},
			"mysql-snowflake":     Action{FnAction: RunReplicate},
			"sqlserver-redshift":  Action{FnAction: RunReplicate},
			"sqlserver-snowflake": Action{FnAction: RunReplicate},
			"netezza-redshift":    Action{FnAction: RunReplicate},
			"netezza-snowflake":   Action{FnAction: RunReplicate},
			"mock-mock":           Action{FnAction: RunReplicate},
		},
		constants.ActionFuncsCommandPlan: {
			"mysql-redshift":      Action{FnAction: RunPlan},
			"mysql-snowflake":     Action{FnAction: RunPlan},
			"sqlserver-redshift":  Action{FnAction: RunPlan},
			"sqlserver-snowflake": Action{FnAction: RunPlan},
			"netezza-redshift":    Action{FnAction: RunPlan},
			"netezza-snowflake":   Action{FnAction: RunPlan},
			"mock-mock":           Action{FnAction: RunPlan},
		},
	}
}

// GetReplicateAction returns the "replicate" Action based on sourceType and targetType supplied.
func GetReplicateAction(sourceType string, targetType string) (Action, error) {
	return getAction(constants.ActionFuncsCommandReplicate, sourceType, targetType)
}

// GetPlanAction returns the "plan" Action based on sourceType and targetType supplied.
func GetPlanAction(sourceType string, targetType string) (Action, error) {
	return getAction(constants.ActionFuncsCommandPlan, sourceType, targetType)
}

func getAction(command string, sourceType string, targetType string) (Action, error) {
	retval, ok := ActionFuncs[command][sourceType+"-"+targetType]
	if !ok {
		return Action{}, fmt.Errorf("unsupported %v action for source type %q and target type %q", command, sourceType, targetType)
	}
	return retval, nil
}
