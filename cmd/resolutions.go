package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nvr-ai/go-silhouette/images"
)

var resolutionsCmd = &cobra.Command{
	Use:   "resolutions",
	Short: "List the capture resolutions --resolution accepts",
	Long: `Lists the named capture modes from smallest to largest together with the
short aliases run --resolution understands. Explicit sizes such as 1024x768
are accepted as well.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printResolutions(cmd.OutOrStdout())
	},
}

func printResolutions(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSIZE\tASPECT\tMP\tALIASES")
	for _, res := range images.GetSupportedResolutions() {
		fmt.Fprintf(tw, "%s\t%dx%d\t%s\t%.2f\t%s\n",
			res.Name, res.Pixels.Width, res.Pixels.Height, res.AspectRatio,
			res.GetMegaPixels(), strings.Join(images.AliasesOf(res.Name), ", "))
	}
	return tw.Flush()
}

func init() {
	rootCmd.AddCommand(resolutionsCmd)
}
