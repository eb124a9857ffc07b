package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/restic/xattrbridge"
	"github.com/restic/xattrbridge/internal/errors"
)

func newRemoveCommand(gopts *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm [flags] path name...",
		Aliases: []string{"remove"},
		Short:   "Remove extended attributes",
		Long: `
The "rm" command removes the given attributes of path. It stops at the first
attribute that cannot be removed.

EXIT STATUS
===========

Exit status is 0 if the command was successful.
Exit status is 1 if there was any error.
`,
		GroupID:           cmdGroupDefault,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd.Context(), gopts, args)
		},
	}
	return cmd
}

func runRemove(ctx context.Context, gopts *GlobalOptions, args []string) error {
	if len(args) < 2 {
		return errors.Fatal("rm expects a path and at least one attribute name")
	}
	path := args[0]

	s, err := openSession(ctx, gopts)
	if err != nil {
		return err
	}

	for _, name := range args[1:] {
		_, err := s.run(ctx, operation{
			sync: func(a *xattrbridge.Attributes) (outcome, error) {
				return outcome{}, a.RemoveAttributeSync(path, name)
			},
			async: func(a *xattrbridge.Attributes) *xattrbridge.Pending {
				return a.RemoveAttribute(path, name)
			},
		})
		if err != nil {
			return errors.Join(err, s.Close())
		}
		Printf(gopts, "removed %v\n", name)
	}
	return s.Close()
}
