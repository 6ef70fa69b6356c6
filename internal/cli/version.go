package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/esyr/pkg/esyr"
)

const modulePath = "github.com/mesh-intelligence/esyr"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the esyr version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "esyr v%s\nmodule: %s\n", esyr.Version, modulePath)
			return nil
		},
	}
}
