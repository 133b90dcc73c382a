package actions

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ghodss/yaml"
	"github.com/wbxdata/replipipe/logger"
	"github.com/wbxdata/replipipe/rdbms/shared"
)

// stdout receives job definitions and plans.
var stdout io.Writer = os.Stdout

func outputJobDefinition(log logger.Logger, cfg *ReplicateConfig, yamlOrJson string, includeConnections bool) error {
	j := *cfg
	if !includeConnections {
		j.Connections = redactConnections(j.Connections)
	}
	log.Debug("writing job definition as ", yamlOrJson)
	return writeDefinition(stdout, &j, yamlOrJson)
}

// redactConnections keeps only the type and logical name of each connection so they are reloaded at run time.
func redactConnections(c shared.DBConnections) shared.DBConnections {
	if c == nil {
		return nil
	}
	retval := make(shared.DBConnections, len(c))
	for k, v := range c {
		retval[k] = shared.ConnectionDetails{Type: v.Type, LogicalName: v.LogicalName}
	}
	return retval
}

// writeDefinition marshals i to w as yaml or json.
func writeDefinition(w io.Writer, i interface{}, yamlOrJson string) error {
	var data []byte
	var err error
	switch yamlOrJson {
	case "yaml":
		data, err = yaml.Marshal(i)
	case "json":
		data, err = json.MarshalIndent(i, "", "  ")
		data = append(data, '\n')
	default:
		return fmt.Errorf("unsupported output format %q", yamlOrJson)
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
