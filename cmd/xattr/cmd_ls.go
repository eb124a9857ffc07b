package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/restic/xattrbridge"
	"github.com/restic/xattrbridge/internal/errors"
)

type ListOptions struct {
	Values bool
}

func newListCommand(gopts *GlobalOptions) *cobra.Command {
	var opts ListOptions

	cmd := &cobra.Command{
		Use:   "ls [flags] path",
		Short: "List the extended attributes of a file",
		Long: `
The "ls" command prints the names of all extended attributes of path, in the
order reported by the file system. With --values, the value of each attribute
is printed as well.

EXIT STATUS
===========

Exit status is 0 if the command was successful.
Exit status is 1 if there was any error.
`,
		GroupID:           cmdGroupDefault,
		DisableAutoGenTag: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.Context(), opts, gopts, args)
		},
	}

	cmd.Flags().BoolVarP(&opts.Values, "values", "l", false, "print attribute values")
	return cmd
}

type attributeJSON struct {
	Name  string `json:"name"`
	Value []byte `json:"value,omitempty"`
}

func runList(ctx context.Context, opts ListOptions, gopts *GlobalOptions, args []string) error {
	if len(args) != 1 {
		return errors.Fatal("ls expects exactly one path")
	}
	path := args[0]

	s, err := openSession(ctx, gopts)
	if err != nil {
		return err
	}

	attrs, err := listAttributes(ctx, s, path, opts.Values)
	if err := errors.Join(err, s.Close()); err != nil {
		return err
	}

	if gopts.JSON {
		return json.NewEncoder(gopts.stdout).Encode(attrs)
	}

	for _, item := range attrs {
		if opts.Values {
			Printf(gopts, "%v=%v\n", item.Name, escapeValue(item.Value))
			continue
		}
		Printf(gopts, "%v\n", item.Name)
	}
	return nil
}

func listAttributes(ctx context.Context, s *session, path string, values bool) ([]attributeJSON, error) {
	out, err := s.run(ctx, operation{
		sync: func(a *xattrbridge.Attributes) (outcome, error) {
			names, err := a.ListAttributesSync(path)
			return outcome{Names: names}, err
		},
		async: func(a *xattrbridge.Attributes) *xattrbridge.Pending {
			return a.ListAttributes(path)
		},
	})
	if err != nil {
		return nil, err
	}

	attrs := make([]attributeJSON, 0, len(out.Names))
	for _, name := range out.Names {
		item := attributeJSON{Name: name}
		if values {
			value, err := getValue(ctx, s, path, name)
			if err != nil {
				return nil, err
			}
			item.Value = value
		}
		attrs = append(attrs, item)
	}
	return attrs, nil
}

// getValue returns the value of an attribute, or nil if it was removed since
// it was listed.
func getValue(ctx context.Context, s *session, path, name string) ([]byte, error) {
	out, err := s.run(ctx, operation{
		sync: func(a *xattrbridge.Attributes) (outcome, error) {
			value, ok, err := a.GetAttributeSync(path, name)
			return outcome{Value: value, Present: ok}, err
		},
		async: func(a *xattrbridge.Attributes) *xattrbridge.Pending {
			return a.GetAttribute(path, name)
		},
	})
	return out.Value, err
}
