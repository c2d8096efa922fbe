package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DDNStorage/qosd/internal/logging"
)

// RunCmd runs the controller in the foreground: enable, block until
// SIGINT/SIGTERM, disable. Grounded on the teacher's PulseStartCmd.
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the QoS controller in the foreground",
	Long: `Run transitions the controller to Enabled and blocks until interrupted.

The worker loop only exists for the lifetime of this process: the
controller has no persisted state, so stopping this process (or the
"enable" alias) also stops reconciliation for the filesystem until it is
started again.`,
	RunE: runForeground,
}

// EnableCmd is a synonym for run: "enable" is the lifecycle operation
// spec §4.7 names, and since nothing in this daemon persists across
// process exit, enabling for real means running in the foreground.
var EnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable the QoS controller (alias for run)",
	Long: `Enable transitions the controller Disabled -> Enabled and runs its worker
loop in the foreground until interrupted, identical to "qosd run".`,
	RunE: runForeground,
}

func init() {
	addControllerFlags(RunCmd)
	addControllerFlags(EnableCmd)
}

func runForeground(cmd *cobra.Command, _ []string) error {
	c, cfg, err := buildController(cmd)
	if err != nil {
		return err
	}
	defer c.Close()

	log := logging.Named("cli")
	ctx := context.Background()

	if err := c.Enable(ctx); err != nil {
		return err
	}
	fmt.Printf("qosd enabled for %s (window %ds, metrics %s)\n",
		cfg.Filesystem, cfg.Options.IntervalSeconds, cfg.Options.MetricsServer)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nshutting down...")
	log.Infow("received shutdown signal", "filesystem", cfg.Filesystem)

	if err := c.Disable(ctx); err != nil {
		return err
	}
	fmt.Println("qosd disabled")
	return nil
}
