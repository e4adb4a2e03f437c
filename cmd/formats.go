// Package cmd holds the cobra subcommands added to the playoutd CLI.
package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/castkit/playoutd/internal/core/format"
)

// CreateFormatsCmd creates the formats command.
func CreateFormatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported video formats",
		Long:  `Prints every registered video format with its geometry, field mode, frame rate and audio cadence.`,
		Run: func(_ *cobra.Command, _ []string) {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tRASTER\tMODE\tFPS\tCADENCE")
			for _, d := range format.All() {
				fmt.Fprintf(w, "%s\t%dx%d\t%s\t%.3f\t%v\n",
					d.Name, d.Width, d.Height, d.FieldMode, d.FPS(), d.AudioCadence)
			}
			w.Flush()
		},
	}
}
