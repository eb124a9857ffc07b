package main

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/restic/xattrbridge"
	"github.com/restic/xattrbridge/internal/errors"
)

func newGetCommand(gopts *GlobalOptions) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "get [flags] path name",
		Short: "Print the value of an extended attribute",
		Long: `
The "get" command prints the value of the attribute name of path. Values that are
not printable are escaped when stdout is a terminal, unless --raw is given.

EXIT STATUS
===========

Exit status is 0 if the command was successful.
Exit status is 1 if there was any error.
Exit status is 2 if the attribute is not set.
`,
		GroupID:           cmdGroupDefault,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGet(cmd.Context(), gopts, raw, isTerminal(gopts), args)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the value unmodified")
	return cmd
}

func isTerminal(gopts *GlobalOptions) bool {
	f, ok := gopts.stdout.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

type getJSON struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Present bool   `json:"present"`
	Value   []byte `json:"value,omitempty"`
}

func runGet(ctx context.Context, gopts *GlobalOptions, raw, terminal bool, args []string) error {
	if len(args) != 2 {
		return errors.Fatal("get expects a path and an attribute name")
	}
	path, name := args[0], args[1]

	out, err := runOperation(ctx, gopts, operation{
		sync: func(a *xattrbridge.Attributes) (outcome, error) {
			value, ok, err := a.GetAttributeSync(path, name)
			return outcome{Value: value, Present: ok}, err
		},
		async: func(a *xattrbridge.Attributes) *xattrbridge.Pending {
			return a.GetAttribute(path, name)
		},
	})
	if err != nil {
		return err
	}

	if gopts.JSON {
		return json.NewEncoder(gopts.stdout).Encode(getJSON{
			Path:    path,
			Name:    name,
			Present: out.Present,
			Value:   out.Value,
		})
	}

	if !out.Present {
		return errors.Wrapf(ErrAbsent, "%v %v", path, name)
	}

	if !raw && terminal {
		Printf(gopts, "%s\n", escapeValue(out.Value))
		return nil
	}
	Printf(gopts, "%s", out.Value)
	return nil
}

// escapeValue returns v unchanged if it is printable UTF-8 text, otherwise
// as a quoted Go string.
func escapeValue(v []byte) string {
	s := string(v)
	if utf8.ValidString(s) && strconv.CanBackquote(s) {
		return s
	}
	return strconv.Quote(s)
}
