package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/restic/xattrbridge"
	"github.com/restic/xattrbridge/internal/debug"
	"github.com/restic/xattrbridge/internal/errors"
	"github.com/restic/xattrbridge/internal/options"
)

// GlobalOptions hold all global options for xattr.
type GlobalOptions struct {
	JSON  bool
	Quiet bool
	Async bool

	Options []string

	stdout io.Writer
	stderr io.Writer

	// storeTestHook replaces the local file system in tests.
	storeTestHook xattrbridge.Store

	extended options.Options
	bridge   xattrbridge.Options
}

func newGlobalOptions() *GlobalOptions {
	return &GlobalOptions{
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

func (opts *GlobalOptions) AddFlags(f *pflag.FlagSet) {
	f.BoolVarP(&opts.Quiet, "quiet", "q", false, "do not print anything except errors")
	f.BoolVarP(&opts.JSON, "json", "", false, "set output mode to JSON for commands that support it")
	f.BoolVar(&opts.Async, "async", false, "run the operation on a worker goroutine and deliver the result on the host loop")
	f.StringSliceVarP(&opts.Options, "option", "o", []string{}, "set extended option (`key=value`, can be specified multiple times)")

	if env := os.Getenv("XATTR_OPTIONS"); env != "" {
		opts.Options = append(opts.Options, strings.Split(env, ",")...)
	}
}

func (opts *GlobalOptions) PreRun() error {
	extendedOpts, err := options.Parse(opts.Options)
	if err != nil {
		return err
	}
	opts.extended = extendedOpts

	bridgeOpts := extendedOpts.Extract("bridge")
	if len(bridgeOpts) != len(extendedOpts) {
		for key := range extendedOpts {
			if !strings.HasPrefix(key, "bridge.") {
				return errors.Fatalf("option %v is not known", key)
			}
		}
	}

	opts.bridge = xattrbridge.Options{}
	if err := bridgeOpts.Apply("bridge", &opts.bridge); err != nil {
		return err
	}
	opts.bridge.Store = opts.storeTestHook

	debug.Log("bridge options %+v", opts.bridge)
	return nil
}

// Printf writes the message to stdout unless --quiet is set.
func Printf(gopts *GlobalOptions, format string, args ...interface{}) {
	if gopts.Quiet {
		return
	}
	_, _ = fmt.Fprintf(gopts.stdout, format, args...)
}

// Warnf writes the message to stderr.
func Warnf(gopts *GlobalOptions, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(gopts.stderr, format, args...)
}

// outcome is the common shape of the results of all operations.
type outcome struct {
	Value   []byte
	Present bool
	Names   []string
}

func outcomeOf(res xattrbridge.Result) outcome {
	value, ok := res.Value()
	return outcome{Value: value, Present: ok, Names: res.Names()}
}

// operation is one attribute operation in both forms.
type operation struct {
	sync  func(a *xattrbridge.Attributes) (outcome, error)
	async func(a *xattrbridge.Attributes) *xattrbridge.Pending
}

// session holds the Attributes shared by all operations of one command.
type session struct {
	gopts *GlobalOptions
	loop  *xattrbridge.Loop
	attrs *xattrbridge.Attributes
}

func openSession(ctx context.Context, gopts *GlobalOptions) (*session, error) {
	loop := xattrbridge.NewLoop()
	attrs, err := xattrbridge.New(ctx, loop, gopts.bridge)
	if err != nil {
		return nil, err
	}
	return &session{gopts: gopts, loop: loop, attrs: attrs}, nil
}

// run runs op with the form selected by --async. In async mode the operation
// is submitted from the host loop, which runs on the calling goroutine until
// the result has been delivered.
func (s *session) run(ctx context.Context, op operation) (outcome, error) {
	if !s.gopts.Async {
		return op.sync(s.attrs)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		out       outcome
		opErr     error
		delivered bool
	)
	ok := s.loop.Post(func() {
		op.async(s.attrs).Then(func(res xattrbridge.Result, err error) {
			out, opErr, delivered = outcomeOf(res), err, true
			cancel()
		})
	})
	if !ok {
		return outcome{}, errors.New("host loop is stopped")
	}

	err := s.loop.Run(runCtx)
	if !delivered {
		if err == nil {
			err = errors.New("host loop stopped before the result was delivered")
		}
		return outcome{}, err
	}
	return out, opErr
}

// Close waits for the workers and stops the loop.
func (s *session) Close() error {
	err := s.attrs.Close()
	s.loop.Stop()
	return err
}

// runOperation runs a single operation in a new session.
func runOperation(ctx context.Context, gopts *GlobalOptions, op operation) (outcome, error) {
	s, err := openSession(ctx, gopts)
	if err != nil {
		return outcome{}, err
	}

	out, err := s.run(ctx, op)
	return out, errors.Join(err, s.Close())
}
