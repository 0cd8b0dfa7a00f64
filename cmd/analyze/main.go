// Command analyze correlates traffic accidents with weather events and
// reports the results.
//
// Usage:
//
//	analyze events --year 2020 --month 1 --type Rain --max-distance-km 500
//	analyze conditions --start 2020-01-01 --end 2020-03-31 --format console,png
//	analyze monthly --year 2021 --severity Heavy --max-distance-km 500
//	analyze serve --max-distance-km 500
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "analyze",
		Short:         "Correlate traffic accidents with weather events",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Float64Var(&flags.maxDistanceKM, "max-distance-km", 0, "maximum accident to event distance in km (overrides MAX_DISTANCE_KM)")
	root.PersistentFlags().StringVar(&flags.formats, "format", "", "comma-separated report formats: console,png,html,csv,kafka (overrides REPORT_FORMATS)")
	root.PersistentFlags().StringVar(&flags.outputDir, "output-dir", "", "directory for file reports (overrides REPORT_OUTPUT_DIR)")
	root.PersistentFlags().IntVar(&flags.workers, "workers", 0, "concurrent join workers (overrides JOIN_WORKERS)")

	root.AddCommand(
		newEventsCmd(&flags),
		newConditionsCmd(&flags),
		newMonthlyCmd(&flags),
		newServeCmd(&flags),
	)
	return root
}
