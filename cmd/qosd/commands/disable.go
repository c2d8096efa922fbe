package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// DisableCmd is the operator stand-down tool: it forces every server back
// to FIFO (spec §4.7's operator-intervention path for a failure that
// needs manual recovery). It runs Controller.ForceFIFO on a freshly built
// Controller, whose registry records no rules, so rules installed by
// another qosd process are not stopped; only the scheduler mode changes.
var DisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Force every server's scheduler back to FIFO",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cfg, err := buildController(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		if err := c.ForceFIFO(context.Background()); err != nil {
			return err
		}
		fmt.Printf("qosd disabled for %s\n", cfg.Filesystem)
		return nil
	},
}

func init() {
	addControllerFlags(DisableCmd)
}
