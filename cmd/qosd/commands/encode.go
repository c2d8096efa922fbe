package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// EncodeCmd implements the admin encode(include_status, include_structure)
// surface from spec §4.7 as a CLI command for scripting/inspection.
var EncodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Print the admin-surface option values and/or structure as TOML",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := buildController(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		includeStatus, _ := cmd.Flags().GetBool("status")
		includeStructure, _ := cmd.Flags().GetBool("structure")
		if !includeStatus && !includeStructure {
			includeStatus = true
		}

		encoded, err := c.Encode(includeStatus, includeStructure)
		if err != nil {
			return err
		}

		if len(encoded.Structure) > 0 {
			fmt.Println("# recognised options")
			for _, name := range encoded.Structure {
				fmt.Printf("#   %s\n", name)
			}
		}
		if encoded.Values != "" {
			fmt.Print(encoded.Values)
		}
		return nil
	},
}

func init() {
	addControllerFlags(EncodeCmd)
	EncodeCmd.Flags().Bool("status", false, "include current option values")
	EncodeCmd.Flags().Bool("structure", false, "include the recognised option-name schema")
}
