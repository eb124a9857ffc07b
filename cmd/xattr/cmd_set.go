package main

import (
	"context"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/restic/xattrbridge"
	"github.com/restic/xattrbridge/internal/errors"
)

type SetOptions struct {
	FromFile string
}

func newSetCommand(gopts *GlobalOptions) *cobra.Command {
	var opts SetOptions

	cmd := &cobra.Command{
		Use:   "set [flags] path name [value]",
		Short: "Set the value of an extended attribute",
		Long: `
The "set" command stores value as the attribute name of path. The value is
stored as UTF-8 text. With --from-file the raw bytes of a file are stored
instead, use "-" to read them from stdin.

EXIT STATUS
===========

Exit status is 0 if the command was successful.
Exit status is 1 if there was any error.
`,
		GroupID:           cmdGroupDefault,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSet(cmd.Context(), opts, gopts, os.Stdin, args)
		},
	}

	cmd.Flags().StringVar(&opts.FromFile, "from-file", "", "read the value from `file`")
	return cmd
}

func readValue(opts SetOptions, stdin io.Reader, args []string) (xattrbridge.Value, error) {
	switch {
	case opts.FromFile != "" && len(args) == 3:
		return xattrbridge.Value{}, errors.Fatal("value and --from-file cannot be specified at the same time")
	case opts.FromFile == "-":
		buf, err := io.ReadAll(stdin)
		if err != nil {
			return xattrbridge.Value{}, errors.Wrap(err, "ReadAll")
		}
		return xattrbridge.Bytes(buf), nil
	case opts.FromFile != "":
		buf, err := os.ReadFile(opts.FromFile)
		if err != nil {
			return xattrbridge.Value{}, errors.Fatalf("unable to read value: %v", err)
		}
		return xattrbridge.Bytes(buf), nil
	case len(args) == 3:
		return xattrbridge.Text(args[2]), nil
	default:
		return xattrbridge.Value{}, errors.Fatal("set expects a value or --from-file")
	}
}

func runSet(ctx context.Context, opts SetOptions, gopts *GlobalOptions, stdin io.Reader, args []string) error {
	if len(args) < 2 || len(args) > 3 {
		return errors.Fatal("set expects a path, an attribute name and a value")
	}
	path, name := args[0], args[1]

	value, err := readValue(opts, stdin, args)
	if err != nil {
		return err
	}

	_, err = runOperation(ctx, gopts, operation{
		sync: func(a *xattrbridge.Attributes) (outcome, error) {
			return outcome{}, a.SetAttributeSync(path, name, value)
		},
		async: func(a *xattrbridge.Attributes) *xattrbridge.Pending {
			return a.SetAttribute(path, name, value)
		},
	})
	return err
}
