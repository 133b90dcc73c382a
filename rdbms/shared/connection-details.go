package shared

import (
	"fmt"
	"sort"
	"strings"

	"github.com/wbxdata/replipipe/constants"
	"github.com/xo/dburl"
)

// ConnectionDetails is intended to hold credentials for a logical database connection.
type ConnectionDetails struct {
	Type        string            `json:"type" errorTxt:"database type" mandatory:"yes" yaml:"type"`
	LogicalName string            `json:"logicalName" errorTxt:"database logical name" mandatory:"yes" yaml:"logicalName"`
	Data        map[string]string `json:"data" yaml:"data"`
}

// String redacts passwords and pretty-prints the contents of ConnectionDetails.
func (c ConnectionDetails) String() string {
	x := make([]string, 0, len(c.Data)+1)
	x = append(x, fmt.Sprintf("  type = %v", c.Type))
	if v, ok := c.Data[DefaultDsnConnectionKeyNames.Dsn]; ok { // if there's a DSN...
		x = append(x, fmt.Sprintf("  dsn = %v", RedactDsn(c.Type, v)))
		return strings.Join(x, "\n")
	}
	// Else there's no DSN (could be S3 or a secret reference).
	keys := make([]string, 0, len(c.Data))
	for k := range c.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := c.Data[k]
		if k == "password" {
			v = "xxxxx"
		}
		x = append(x, fmt.Sprintf("  %v = %v", k, v))
	}
	return strings.Join(x, "\n")
}

// RedactDsn hides the password held in dsn.
// Netezza DSNs aren't compatible with dburl so they're handled explicitly.
// Unparsable DSNs are hidden entirely.
func RedactDsn(connectionType string, dsn string) string {
	switch connectionType {
	case constants.ConnectionTypeNetezza:
		n := NetezzaConnectionDetails{Dsn: dsn, OriginalScheme: constants.ConnectionTypeNetezza}
		return n.String()
	default:
		u, err := dburl.Parse(dsn)
		if err != nil {
			return "<unparsable dsn>"
		}
		return u.Redacted()
	}
}

// DBConnections holds the connections named by a job.
type DBConnections map[string]ConnectionDetails

// LoadConnection will load the supplied *c[connectionName], which is expected to be in c, using the interface
// to do the actual loading.
func (c *DBConnections) LoadConnection(i ConnectionGetter, connectionName string) error {
	conn := (*c)[connectionName]
	d, err := i.LoadConnection(conn.LogicalName) // fetch new ConnectionDetails from config using the logicalName, not the connectionName!
	if err != nil {
		return err
	}
	(*c)[connectionName] = d // replace the connection with the loaded version
	return nil
}
