// Command qosd is the decay QoS controller daemon: it watches per-UID
// throughput and metadata-op rates against an external metrics store and
// installs/removes NRS TBF throttle rules on a filesystem's data and
// metadata servers to keep heavy users within their configured budget.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DDNStorage/qosd/cmd/qosd/commands"
	"github.com/DDNStorage/qosd/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "qosd",
	Short: "Decay QoS controller for Lustre/EXAScaler filesystems",
	Long: `qosd is a quality-of-service controller for a distributed parallel
filesystem. It samples job-level throughput and metadata-operation rates
from a time-series metrics store on a rolling window, totals them per
UID, and reconciles NRS TBF throttle rules on the filesystem's OSS/MDS
servers to keep any one user's usage within its configured budget.

Examples:
  qosd run --filesystem scratch --data-server oss1 --data-server oss2 --metadata-server mds1
  qosd status --filesystem scratch
  qosd encode --filesystem scratch --status --structure`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")
		return logging.Initialize(jsonLogs, verbosity)
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "increase log verbosity (-v, -vv)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "emit structured JSON logs instead of the console format")

	rootCmd.AddCommand(commands.EnableCmd)
	rootCmd.AddCommand(commands.DisableCmd)
	rootCmd.AddCommand(commands.StatusCmd)
	rootCmd.AddCommand(commands.EncodeCmd)
	rootCmd.AddCommand(commands.RunCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
