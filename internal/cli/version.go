package cli

import (
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			p := printer{cmd.OutOrStdout()}
			p.line(StyleTitle.Render("collage-maker"))
			p.keyValue("version", version)
			if commit != "" {
				p.keyValue("commit", commit)
			}
			if date != "" {
				p.keyValue("built", date)
			}
			p.keyValue("go", runtime.Version())
		},
	}
}
