package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/wbxdata/replipipe/actions"
	"github.com/wbxdata/replipipe/config"
	c "github.com/wbxdata/replipipe/constants"
	"github.com/wbxdata/replipipe/helper"
	"github.com/wbxdata/replipipe/logger"
	"github.com/wbxdata/replipipe/rdbms"
	"github.com/wbxdata/replipipe/rdbms/shared"
	"github.com/xo/dburl"
)

// init will be called first due to the lexical order in which these functions are executed.
// This ensures the value of twelveFactorMode is set before other init() functions configure
// Cobra flags, which read environment variables instead of config in this mode.
func init() {
	setupTwelveFactorMode()
}

// setupTwelveFactorMode will enable or disable 12 factor mode based on environment variable.
func setupTwelveFactorMode() {
	mode := os.Getenv(envVarTwelveFactorMode)
	if mode != "" { // if variable for 12factor mode is set and we should read env vars to determine actions...
		twelveFactorMode = true
		lambdaMode = strings.ToLower(mode) == "lambda"
	} else {
		twelveFactorMode = false // explicitly turn off this mode since tests may have turned it on while others require it off.
		lambdaMode = false
	}
}

const (
	envVarTwelveFactorMode      = c.EnvVarPrefix + "_" + "12FACTOR_MODE"
	envVarCommand               = c.EnvVarPrefix + "_" + "COMMAND"
	envVarSourceObject          = c.EnvVarPrefix + "_" + "SOURCE_OBJECT" // [<schema>.]<table>
	envVarTargetObject          = c.EnvVarPrefix + "_" + "TARGET_OBJECT" // [<schema>.]<table>
	envVarSourceType            = c.EnvVarPrefix + "_" + "SOURCE_TYPE"   // mysql|sqlserver|netezza
	envVarTargetType            = c.EnvVarPrefix + "_" + "TARGET_TYPE"   // redshift|snowflake
	envVarLogLevel              = c.EnvVarPrefix + "_" + "LOG_LEVEL"
	envVarStackDump             = c.EnvVarPrefix + "_" + "STACK_DUMP"
	defaultConnectionNameSource = "SOURCE"
	defaultConnectionNameTarget = "TARGET"
)

var (
	twelveFactorMode bool // true if os env var envVarTwelveFactorMode is set
	lambdaMode       bool // true if envVarTwelveFactorMode is "lambda"
	twelveFactorVars = map[string]string{
		envVarCommand: "",
		// Source
		envVarSourceType:   "",
		envVarSourceObject: "",
		helper.GetDsnEnvVarName(defaultConnectionNameSource):    "",
		helper.GetSecretEnvVarName(defaultConnectionNameSource): "",
		// Target
		envVarTargetType:   "",
		envVarTargetObject: "",
		helper.GetDsnEnvVarName(defaultConnectionNameTarget):    "",
		helper.GetSecretEnvVarName(defaultConnectionNameTarget): "",
		// Misc
		envVarLogLevel:  "",
		envVarStackDump: "",
	}
	twelveFactorVarsSensitive = map[string]string{ // used to flag some of the above variables as being sensitive.
		helper.GetDsnEnvVarName(defaultConnectionNameSource): "",
		helper.GetDsnEnvVarName(defaultConnectionNameTarget): "",
	}
)

type twelveFactorAction struct {
	setupFunc  func(src string, tgt string)
	runnerFunc func(ctx context.Context) error
}

var twelveFactorActions = map[string]twelveFactorAction{
	c.ActionFuncsCommandReplicate: {
		setupFunc: func(src string, tgt string) {
			replicateSrc = actions.ConnectionObject{ConnectionObject: src}
			replicateTgt = actions.ConnectionObject{ConnectionObject: tgt}
		},
		runnerFunc: func(ctx context.Context) error {
			return launchActionWithContext(ctx, &replicateCfg, replicateSrc, replicateTgt, actions.GetReplicateAction)
		},
	},
	c.ActionFuncsCommandPlan: {
		setupFunc: func(src string, tgt string) {
			planSrc = actions.ConnectionObject{ConnectionObject: src}
			planTgt = actions.ConnectionObject{ConnectionObject: tgt}
		},
		runnerFunc: func(ctx context.Context) error {
			return launchActionWithContext(ctx, &planCfg, planSrc, planTgt, actions.GetPlanAction)
		},
	},
	"run": {
		setupFunc: func(src string, tgt string) {},
		runnerFunc: func(ctx context.Context) error {
			jobCfg.StackDumpOnPanic = stackDumpOnPanic
			return actions.RunJobFromFile(ctx, &jobCfg, actions.NewEnvironment(getConnectionLoader()))
		},
	},
}

func getConnectionHandler() actions.ConnectionHandler {
	if twelveFactorMode {
		return &TwelveFactorConnections{}
	}
	return config.Connections
}

func getConnectionLoader() actions.ConnectionLoader {
	if twelveFactorMode {
		return &TwelveFactorConnections{}
	}
	return config.Connections
}

func getConnectionGetterSetter() actions.ConnectionGetterSetter {
	if twelveFactorMode {
		fmt.Printf("Error: connections cannot be configured when %v is set (supply them using %v and %v instead)\n",
			envVarTwelveFactorMode,
			helper.GetDsnEnvVarName(defaultConnectionNameSource),
			helper.GetDsnEnvVarName(defaultConnectionNameTarget))
		os.Exit(1)
	}
	return config.Connections
}

func execute12FactorMode(ctx context.Context, acts map[string]twelveFactorAction) (err error) {
	logLevel := helper.ReadValueFromEnvWithDefault(envVarLogLevel, "warn")
	stackDumpOnPanic = os.Getenv(envVarStackDump) != ""
	log := logger.NewLogger("replipipe", logLevel, stackDumpOnPanic)
	log.Info("replipipe is running in 12 Factor mode...")
	for k := range twelveFactorVars { // for each env variable that we need...
		twelveFactorVars[k] = os.Getenv(k)
		if _, sensitive := twelveFactorVarsSensitive[k]; sensitive {
			log.Debug(k, "=", "<obfuscated>")
		} else {
			log.Debug(k, "=", twelveFactorVars[k])
		}
	}
	a, ok := acts[twelveFactorVars[envVarCommand]]
	if !ok {
		err = fmt.Errorf("invalid command %q supplied in %v", twelveFactorVars[envVarCommand], envVarCommand)
		log.Error(err.Error())
		return
	}
	// Setup the connection source and target strings to include the object, as Cobra would have with CLI args.
	a.setupFunc(
		fmt.Sprintf("%v.%v", defaultConnectionNameSource, twelveFactorVars[envVarSourceObject]), // e.g. SOURCE.wbx_data.pp_forms_log
		fmt.Sprintf("%v.%v", defaultConnectionNameTarget, twelveFactorVars[envVarTargetObject]), // e.g. TARGET.wbx_data.pp_forms_log
	)
	if err = a.runnerFunc(ctx); err != nil {
		log.Error("Error: ", err)
	}
	return err
}

// TwelveFactorConnections reads the SOURCE and TARGET connections from the environment.
type TwelveFactorConnections struct{}

// GetConnectionType returns the value of envVarSourceType or envVarTargetType for connectionName,
// which is expected to be either defaultConnectionNameSource or defaultConnectionNameTarget.
func (t *TwelveFactorConnections) GetConnectionType(connectionName string) (connectionType string, err error) {
	var k string
	switch connectionName {
	case defaultConnectionNameSource:
		k = envVarSourceType
	case defaultConnectionNameTarget:
		k = envVarTargetType
	default:
		return "", fmt.Errorf("unexpected connection name %v while running in twelveFactorMode", connectionName)
	}
	connectionType = strings.ToLower(strings.TrimSpace(os.Getenv(k)))
	if connectionType == "" {
		return "", fmt.Errorf("missing value for %v", k)
	}
	return connectionType, nil
}

// GetConnectionDetails builds the connection from RP_<NAME>_DSN, or RP_<NAME>_SECRET when no DSN is set.
// DSNs are validated with the parser used for the connection type.
func (t *TwelveFactorConnections) GetConnectionDetails(connectionName string) (*shared.ConnectionDetails, error) {
	connType, err := t.GetConnectionType(connectionName)
	if err != nil {
		return nil, err
	}
	d := &shared.ConnectionDetails{
		Type:        connType,
		LogicalName: connectionName,
		Data:        make(map[string]string),
	}
	var dsn, secretId string
	if err = helper.ReadValueFromEnv(helper.GetDsnEnvVarName(connectionName), &dsn); err != nil {
		if err2 := helper.ReadValueFromEnv(helper.GetSecretEnvVarName(connectionName), &secretId); err2 != nil {
			return nil, fmt.Errorf("unable to find %v or %v in the environment",
				helper.GetDsnEnvVarName(connectionName), helper.GetSecretEnvVarName(connectionName))
		}
		d.Data[shared.DefaultDsnConnectionKeyNames.Secret] = secretId
		return d, nil
	}
	switch connType {
	case c.ConnectionTypeSnowflake:
		if _, err = rdbms.SnowflakeParseDSN(dsn); err != nil {
			return nil, err
		}
	case c.ConnectionTypeNetezza:
		if err = (shared.NetezzaConnectionDetails{Dsn: dsn}).Parse(); err != nil {
			return nil, err
		}
	default:
		if !actions.IsSupportedConnectionType(connType) {
			return nil, fmt.Errorf("unsupported connection type %q", connType)
		}
		if _, err = dburl.Parse(dsn); err != nil {
			return nil, fmt.Errorf("unable to parse %v: %v", helper.GetDsnEnvVarName(connectionName), shared.RedactDsn(connType, dsn))
		}
	}
	d.Data[shared.DefaultDsnConnectionKeyNames.Dsn] = dsn
	return d, nil
}

// LoadConnection satisfies actions.ConnectionLoader for job files run in twelveFactorMode.
func (t *TwelveFactorConnections) LoadConnection(connectionName string) (shared.ConnectionDetails, error) {
	d, err := t.GetConnectionDetails(connectionName)
	if err != nil {
		return shared.ConnectionDetails{}, err
	}
	return *d, nil
}
