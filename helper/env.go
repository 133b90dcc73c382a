package helper

import (
	"fmt"
	"os"
	"strings"

	"github.com/wbxdata/replipipe/constants"
)

// ReadValueFromEnv reads env var name into val.
// If the env var is not set then val is untouched and an error is returned.
func ReadValueFromEnv(name string, val *string) error {
	v := os.Getenv(name)
	if v != "" { // if the environment variable was set...
		*val = v // update the callers value
		return nil
	}
	return fmt.Errorf("value for environment variable %v not found", name)
}

// ReadValueFromEnvWithDefault will read the value of name from the environment into v.
// If it's not set then it will apply the supplied defaultValue and return v.
func ReadValueFromEnvWithDefault(name string, defaultValue string) (v string) {
	_ = ReadValueFromEnv(name, &v)
	if v == "" && defaultValue != "" { // if the environment variable is not set and we have been given a default value...
		v = defaultValue
	}
	return
}

// GetDsnEnvVarName returns RP_<CONNECTION>_DSN.
func GetDsnEnvVarName(connectionName string) string {
	n := strings.TrimSpace(strings.ToUpper(connectionName))
	return fmt.Sprintf("%v_%v_DSN", constants.EnvVarPrefix, n)
}

// GetSecretEnvVarName returns RP_<CONNECTION>_SECRET, the name of an AWS Secrets Manager secret that
// holds the connection credentials.
func GetSecretEnvVarName(connectionName string) string {
	n := strings.TrimSpace(strings.ToUpper(connectionName))
	return fmt.Sprintf("%v_%v_SECRET", constants.EnvVarPrefix, n)
}
