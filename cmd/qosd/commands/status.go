package commands

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/DDNStorage/qosd/controller"
)

// StatusCmd reports the controller's current lifecycle state, window
// index, and per-scope throttled UIDs (spec §4.7's status() surface),
// rendered with pterm the way the teacher's ix/code commands print
// results (ats/ix/common.go, domains/code/commands.go).
var StatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the QoS controller's current status",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, cfg, err := buildController(cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		st := c.Status()
		printStatus(cfg.Filesystem, st)
		return nil
	},
}

func init() {
	addControllerFlags(StatusCmd)
}

func printStatus(filesystem string, st controller.Status) {
	pterm.DefaultSection.Println(fmt.Sprintf("qosd status — %s", filesystem))

	pterm.Printf("%s %s\n", pterm.Gray("state:"), stateColor(st.State))

	window := "none yet"
	if st.WindowIndex != nil {
		window = fmt.Sprintf("%d", *st.WindowIndex)
	}
	pterm.Printf("%s %s\n", pterm.Gray("window index:"), window)
	pterm.Printf("%s %d\n", pterm.Gray("dropped samples:"), st.DroppedSamples)

	rows := pterm.TableData{{"scope", "throttled uids"}}
	rows = append(rows, []string{"data", joinOrDash(st.ThrottledData)})
	rows = append(rows, []string{"metadata", joinOrDash(st.ThrottledMetadata)})
	_ = pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
}

func stateColor(s controller.State) string {
	switch s {
	case controller.Enabled:
		return pterm.Green(s.String())
	case controller.Disabled:
		return pterm.Gray(s.String())
	default:
		return pterm.Yellow(s.String())
	}
}

func joinOrDash(uids []string) string {
	if len(uids) == 0 {
		return "-"
	}
	out := uids[0]
	for _, u := range uids[1:] {
		out += ", " + u
	}
	return out
}
