package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomsboren/aivc/internal/version"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the version history",
	Run:   runExport,
}

var exportFormat string

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", version.FormatStructured, "Output format (structured, tabular)")
}

func runExport(cmd *cobra.Command, args []string) {
	c := initContext()
	defer c.Close()

	out, err := c.Versions.Export(exportFormat)
	if err != nil {
		exitError("%v", err)
	}
	fmt.Println(out)
}
