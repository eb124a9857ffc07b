package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/restic/xattrbridge"
	"github.com/restic/xattrbridge/internal/debug"
	"github.com/restic/xattrbridge/internal/errors"
	"github.com/restic/xattrbridge/internal/feature"
)

func init() {
	// don't import `go.uber.org/automaxprocs` to disable the log output
	_, _ = maxprocs.Set()
}

var version = "0.1.0-dev"

// ErrAbsent is returned by get if the attribute is not set.
var ErrAbsent = errors.New("attribute not set")

var cmdGroupDefault = "default"
var cmdGroupAdvanced = "advanced"

func newRootCommand(gopts *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xattr",
		Short: "Read and modify extended file attributes",
		Long: `
xattr reads, writes, removes and lists extended attributes of files. By default
every operation runs synchronously, with --async it is submitted to a pool of
worker goroutines and the result is delivered on the host loop.
`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		DisableAutoGenTag: true,

		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return gopts.PreRun()
		},
	}

	cmd.AddGroup(
		&cobra.Group{
			ID:    cmdGroupDefault,
			Title: "Available Commands:",
		},
		&cobra.Group{
			ID:    cmdGroupAdvanced,
			Title: "Advanced Options:",
		},
	)

	gopts.AddFlags(cmd.PersistentFlags())

	cmd.CompletionOptions.DisableDefaultCmd = true

	cmd.AddCommand(
		newGetCommand(gopts),
		newSetCommand(gopts),
		newRemoveCommand(gopts),
		newListCommand(gopts),
		newFeaturesCommand(gopts),
		newOptionsCommand(gopts),
		newVersionCommand(gopts),
	)

	registerProfiling(cmd)

	return cmd
}

func printExitError(gopts *GlobalOptions, code int, message string) {
	if gopts.JSON {
		type jsonExitError struct {
			MessageType string `json:"message_type"` // exit_error
			Code        int    `json:"code"`
			Message     string `json:"message"`
		}

		jsonS := jsonExitError{
			MessageType: "exit_error",
			Code:        code,
			Message:     message,
		}

		err := json.NewEncoder(gopts.stderr).Encode(jsonS)
		if err != nil {
			Warnf(gopts, "JSON encode failed: %v\n", err)
			return
		}
	} else {
		_, _ = fmt.Fprintf(gopts.stderr, "%v\n", message)
	}
}

// exitCode maps the error returned by a command to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrAbsent):
		return 2
	case errors.Is(err, context.Canceled):
		return 130
	default:
		return 1
	}
}

func exitMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.IsFatal(err), errors.Is(err, ErrAbsent):
		return err.Error()
	default:
		var attrErr *xattrbridge.Error
		if errors.As(err, &attrErr) {
			return err.Error()
		}
		return fmt.Sprintf("%+v", err)
	}
}

func main() {
	err := feature.Flag.Apply(os.Getenv("XATTR_FEATURES"), func(s string) {
		_, _ = fmt.Fprintln(os.Stderr, s)
	})
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		Exit(1)
	}

	debug.Log("main %#v", os.Args)
	debug.Log("xattr %s compiled with %v on %v/%v",
		version, runtime.Version(), runtime.GOOS, runtime.GOARCH)

	gopts := newGlobalOptions()
	ctx := createGlobalContext()
	err = newRootCommand(gopts).ExecuteContext(ctx)
	if err == nil {
		err = ctx.Err()
	}

	code := exitCode(err)
	if code != 0 {
		printExitError(gopts, code, exitMessage(err))
	}
	Exit(code)
}
