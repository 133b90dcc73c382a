package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wbxdata/replipipe/actions"
	"github.com/wbxdata/replipipe/config"
)

var configDefaultListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print all default flag values",
	Long: fmt.Sprintf(`List default flag values stored in config file %q
by printing them all to STDOUT`,
		config.Main.FullPath),
	RunE: func(cmd *cobra.Command, args []string) error {
		return actions.RunDefaultList(config.Main)
	},
}

func init() {
	defaultCmd.AddCommand(configDefaultListCmd)
}
