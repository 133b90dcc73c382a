package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wbxdata/replipipe/actions"
	"github.com/wbxdata/replipipe/config"
)

var configConnListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all connections",
	Long: fmt.Sprintf(`List connections stored in config store %q
by printing them all to STDOUT with passwords redacted`,
		config.Connections.FullPath),
	RunE: func(cmd *cobra.Command, args []string) error {
		return actions.RunConnectionList(getConnectionGetterSetter())
	},
}

func initConnList() {
	configConnCmd.AddCommand(configConnListCmd)
}
