package cmd

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/wbxdata/replipipe/actions"
	"github.com/wbxdata/replipipe/config"
	"github.com/wbxdata/replipipe/constants"
	"github.com/wbxdata/replipipe/helper"
)

const (
	argsDefinitionTxt = "<source-connection>.[<schema>.]<table> <target-connection>.[<schema>.]<table>"
)

type cliFlag struct {
	name      string // name of flag
	val       string // default value
	shortHand string // single character name for the flag
	desc      string // description of the flag; the long text
}

type cliFlags map[string]cliFlag

var switches = cliFlags{
	"mock": cliFlag{name: "mock", shortHand: "m", desc: "mock switch for testing"},
	// Chunking.
	"chunk-size": cliFlag{name: "chunk-size", shortHand: "n",
		desc: "Number of ids covered by each bootstrap chunk"},
	"parallelism": cliFlag{name: "parallelism", shortHand: "p",
		desc: "Number of chunks extracted concurrently"},
	"export-mode": cliFlag{name: "export-mode", shortHand: "e",
		desc: fmt.Sprintf("How chunks reach S3: %q streams rows through this process, %q asks\n"+
			"Aurora MySQL to write them with SELECT INTO OUTFILE S3", constants.ExportModeStream, constants.ExportModeOutfile)},
	// Columns.
	"id-column": cliFlag{name: "id-column", shortHand: "",
		desc: "Monotonic integer id column in the source and target tables"},
	"fk-column": cliFlag{name: "fk-column", shortHand: "k",
		desc: "Foreign key column copied to the target"},
	"text-column": cliFlag{name: "text-column", shortHand: "t",
		desc: "Source text column searched for the marker"},
	"created-column": cliFlag{name: "created-column", shortHand: "c",
		desc: "Creation timestamp column copied to the target"},
	"flag-column": cliFlag{name: "flag-column", shortHand: "",
		desc: "Target column holding 1 when the text column contains the marker \n" +
			"(default: the marker in lower case)"},
	"marker": cliFlag{name: "marker", shortHand: "M",
		desc: "Case-sensitive substring searched for in the text column"},
	// Staging.
	"s3-bucket": cliFlag{name: "s3-bucket", shortHand: "b",
		desc: "AWS S3 bucket name in which to stage CSV files (set AWS environment variables for access)"},
	"s3-prefix": cliFlag{name: "s3-prefix", shortHand: "P",
		desc: "AWS S3 bucket prefix under which <table>/ objects are written"},
	"s3-region": cliFlag{name: "s3-region", shortHand: "R",
		desc: "AWS region of the bucket, also used for Secrets Manager"},
	// Warehouse.
	"iam-role": cliFlag{name: "iam-role", shortHand: "I",
		desc: "IAM role ARN used by Redshift COPY to read the bucket"},
	"storage-integration": cliFlag{name: "storage-integration", shortHand: "S",
		desc: "Snowflake storage integration used by COPY INTO to read the bucket"},
	"grantee": cliFlag{name: "grantee", shortHand: "g",
		desc: "Group (Redshift) or role (Snowflake) granted access to the rebuilt table"},
	// Notifications.
	"webhook-url": cliFlag{name: "webhook-url", shortHand: "w",
		desc: "Slack incoming webhook URL for start and finish notifications"},
	"webhook-secret": cliFlag{name: "webhook-secret", shortHand: "W",
		desc: "AWS Secrets Manager secret holding the Slack webhook URL"},
	// Scheduling.
	"timeout": cliFlag{name: "timeout", shortHand: "T",
		desc: "Abandon a run after this many seconds (use 0 to disable)"},
	"repeat": cliFlag{name: "repeat", shortHand: "i",
		desc: "Optional: the interval in seconds to sleep between runs. \n" +
			"Use 0 to disable repeating. Use this to keep data up-to-date in near real-time"},
	// Output.
	"output": cliFlag{name: "output", shortHand: "o",
		desc: "Specify \"yaml\" or \"json\" to print the job definition instead of running it. \n" +
			"Optionally redirect this output to a file for use with the \"run\" command"},
	"plan-output": cliFlag{name: "output", shortHand: "o",
		desc: "Specify \"yaml\" or \"json\" for the plan"},
	"include-connections": cliFlag{name: "include-connections", shortHand: "C",
		desc: "Optionally set this flag to include connections details when using the 'output' flag"},
	"log-level": cliFlag{name: "log-level", shortHand: "l",
		desc: "Log level: \"error | warn | info | debug\""},
	"stats": cliFlag{name: "stats", shortHand: "L",
		desc: "Number of seconds between dumping chunk statistics (use 0 to disable)"},
	// Jobs.
	"file": cliFlag{name: "file", shortHand: "f",
		desc: "File containing the job definition (.yaml or .json)"},
	"dry-run": cliFlag{name: "dry-run", shortHand: "d",
		desc: "Print the plan without extracting or loading anything"},
	"port": cliFlag{name: "port", shortHand: "p",
		desc: "Port to listen on"},
	// Connections.
	"connection-name": cliFlag{name: "connection-name", shortHand: "c",
		desc: "Connection name referred to by replicate and plan commands"},
	"connection-type": cliFlag{name: "type", shortHand: "t",
		desc: "Connection type; required for snowflake, netezza and secret-based connections"},
	"dsn": cliFlag{name: "dsn", shortHand: "d",
		desc: "Connect string, e.g. mysql://<user>:<pass>@<host>:3306/<dbname>"},
	"secret": cliFlag{name: "secret", shortHand: "s",
		desc: "AWS Secrets Manager secret holding username, password, host, port and dbname"},
	"force-connection": cliFlag{name: "force", shortHand: "f",
		desc: "Allow overwrite of existing connections"},
}

// addFlag adds a flag to cobra.Command c, based on the type of targetVar (which must be a pointer).
// The name of the flag is looked up in map cliFlags.
// In twelveFactorMode the targetVar is populated from the environment variable for name, or defaultValue.
// Otherwise the default value is fetched from config if it exists, else defaultValue applies.
// Supply desc2 to append to the description found in map cliFlags.
func (f *cliFlags) addFlag(c *cobra.Command, targetVar interface{}, name string, defaultValue string, required bool, desc2 string) {
	v := reflect.ValueOf(targetVar)
	if v.Kind() != reflect.Ptr {
		fmt.Println("error adding flag: targetVar must be a pointer")
		os.Exit(1)
	}
	sw := f.getCliFlag(name, defaultValue, config.Main.Get)
	desc := sw.desc + desc2
	switch p := targetVar.(type) {
	case *string:
		if twelveFactorMode {
			*p = sw.val
		} else {
			c.Flags().StringVarP(p, sw.name, sw.shortHand, sw.val, desc)
			if sw.val != "" { // if there is a value via config or default...
				mustSetFlag(c.Flags(), sw.name, sw.val)
			}
		}
	case *bool:
		if twelveFactorMode {
			*p = sw.val == "1" || helper.GetTrueFalseStringAsBool(sw.val)
		} else {
			defaultBool := helper.GetTrueFalseStringAsBool(sw.val)
			c.Flags().BoolVarP(p, sw.name, sw.shortHand, defaultBool, desc)
			mustSetFlag(c.Flags(), sw.name, strconv.FormatBool(defaultBool))
		}
	case *int:
		defaultInt, err := strconv.Atoi(sw.val)
		if err != nil {
			fmt.Printf("the value for flag %q must be an integer: %v\n", sw.name, err)
			os.Exit(1)
		}
		if twelveFactorMode {
			*p = defaultInt
		} else {
			c.Flags().IntVarP(p, sw.name, sw.shortHand, defaultInt, desc)
		}
	case *int64:
		defaultInt, err := strconv.ParseInt(sw.val, 10, 64)
		if err != nil {
			fmt.Printf("the value for flag %q must be an integer: %v\n", sw.name, err)
			os.Exit(1)
		}
		if twelveFactorMode {
			*p = defaultInt
		} else {
			c.Flags().Int64VarP(p, sw.name, sw.shortHand, defaultInt, desc)
		}
	default:
		panic("Error: unhandled CLI flag target value type")
	}
	if required && !twelveFactorMode { // if the flag is required...
		_ = c.MarkFlagRequired(sw.name)
	}
}

// getCliFlag fetches the value of name from the environment when running in twelveFactorMode,
// else from the Main config file.
// If a value cannot be found then the supplied defaultValue is used in its place.
func (f *cliFlags) getCliFlag(name string, defaultValue string, fnGetConfig func(key string, out interface{}) error) cliFlag {
	s, ok := (*f)[name]
	if !ok {
		panic(fmt.Sprintf("unregistered CLI flag, %q", name))
	}
	if twelveFactorMode { // if we should read env vars...
		if err := helper.ReadValueFromEnv(flagNameToEnvVar(s.name), &s.val); err != nil {
			s.val = defaultValue
		}
	} else {
		err := fnGetConfig(s.name, &s.val)
		if errors.As(err, &config.KeyNotFoundError{}) || s.val == "" { // if there was no key found...
			s.val = defaultValue
		}
	}
	return s
}

// flagNameToEnvVar will form a sanitised environment variable name using constants.EnvVarPrefix.
func flagNameToEnvVar(name string) string {
	return constants.EnvVarPrefix + "_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

func mustSetFlag(f *pflag.FlagSet, name string, val string) {
	if err := f.Set(name, val); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// getConnectionsArgsFunc returns a func that cobra uses to validate that we have 2 args.
// It saves arg[0] as the src connection and arg[1] as the tgt connection.
func getConnectionsArgsFunc(src *actions.ConnectionObject, tgt *actions.ConnectionObject, customErrMsg string) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			if customErrMsg != "" {
				return errors.New(customErrMsg)
			}
			return errors.New("requires source and target <connection>.[<schema>.]<table>")
		}
		*src = actions.ConnectionObject{ConnectionObject: args[0]}
		*tgt = actions.ConnectionObject{ConnectionObject: args[1]}
		if src.GetObject() == "" {
			return errors.New("the source must name a table: <connection>.[<schema>.]<table>")
		}
		return nil
	}
}
