// Command hidmon enumerates and monitors USB HID devices: it prints a
// device's parsed report descriptor, or watches its interrupt IN
// endpoint and decodes each report as it arrives.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := newRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var jsonLogs bool

	cmd := &cobra.Command{
		Use:   "hidmon",
		Short: "Inspect and monitor USB HID devices",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(jsonLogs)
		},
	}
	cmd.PersistentFlags().BoolVar(&jsonLogs, "json", false, "emit structured logs as JSON")

	cmd.AddCommand(newDescriptorCommand())
	cmd.AddCommand(newWatchCommand())
	return cmd
}
