package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/wbxdata/replipipe/config"
)

var configConnCmd = &cobra.Command{
	Use:     "connections",
	Aliases: []string{"conn"},
	Short:   "Configure connection details",
	Long: fmt.Sprintf(`Configure connections for use by the replicate, plan and run commands where:

- Connections are stored in file %q`, config.Connections.FullPath),
}

func init() {
	configCmd.AddCommand(configConnCmd)
	initConnAdd()
	initConnList()
	initConnRemove()
}
