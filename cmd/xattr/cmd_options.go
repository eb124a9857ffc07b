package main

import (
	"github.com/spf13/cobra"

	"github.com/restic/xattrbridge/internal/options"
)

func newOptionsCommand(gopts *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "options",
		Short: "Print list of extended options",
		Long: `
The "options" command prints a list of extended options, which can be set with
"-o key=value" or in $XATTR_OPTIONS as a comma separated list.

EXIT STATUS
===========

Exit status is 0 if the command was successful.
Exit status is 1 if there was any error.
`,
		GroupID:           cmdGroupAdvanced,
		DisableAutoGenTag: true,
		Run: func(_ *cobra.Command, _ []string) {
			Printf(gopts, "All Extended Options:\n")
			var maxLen int
			for _, opt := range options.List() {
				if l := len(opt.Namespace + "." + opt.Name); l > maxLen {
					maxLen = l
				}
			}
			for _, opt := range options.List() {
				Printf(gopts, "  %*s  %s\n", -maxLen, opt.Namespace+"."+opt.Name, opt.Text)
			}
		},
	}
	return cmd
}
