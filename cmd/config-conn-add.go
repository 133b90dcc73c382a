package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wbxdata/replipipe/actions"
	"github.com/wbxdata/replipipe/config"
)

var connAddCfg = actions.ConnectionConfig{}
var connAddDsn, connAddSecret string

var configConnAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a connection",
	Long: fmt.Sprintf(`Add a database connection to the config store %q
by providing a DSN, or the name of an AWS Secrets Manager secret, for example:

mysql://<user>:<pass>@<host>:3306/<dbname>
sqlserver://<user>:<pass>@<host>/<instance>?database=<dbname>
redshift://<user>:<pass>@<host>:5439/<dbname>
<user>:<pass>@<account>/<dbname>/<schema>?warehouse=<wh>   (use --type snowflake)
<user>/<pass>@//<host>:5480/<dbname>                        (use --type netezza)

Secrets must hold JSON with keys username, password, host, port and dbname.
The connection type is taken from the DSN scheme unless --type is given.`,
		config.Connections.FullPath),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		connAddCfg.ConfigFile = getConnectionGetterSetter()
		connAddCfg.ConnDetails = actions.NewConnectionValidator(connAddCfg.Type, connAddDsn, connAddSecret)
		return actions.RunConnectionAdd(&connAddCfg)
	},
}

func initConnAdd() {
	configConnCmd.AddCommand(configConnAddCmd)
	configConnAddCmd.Flags().SortFlags = false
	switches.addFlag(configConnAddCmd, &connAddCfg.LogicalName, "connection-name", "", true, "")
	switches.addFlag(configConnAddCmd, &connAddCfg.Type, "connection-type", "", false, "")
	switches.addFlag(configConnAddCmd, &connAddDsn, "dsn", "", false, "")
	switches.addFlag(configConnAddCmd, &connAddSecret, "secret", "", false, "")
	switches.addFlag(configConnAddCmd, &connAddCfg.Force, "force-connection", "", false, "")
}
