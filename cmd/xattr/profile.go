package main

import (
	"github.com/pkg/profile"
	"github.com/spf13/cobra"

	"github.com/restic/xattrbridge/internal/debug"
	"github.com/restic/xattrbridge/internal/errors"
)

type ProfileOptions struct {
	memPath string
	cpuPath string
}

func (opts *ProfileOptions) start() (interface{ Stop() }, error) {
	if opts.memPath != "" && opts.cpuPath != "" {
		return nil, errors.Fatal("only one profile (memory or CPU) may be activated at the same time")
	}

	switch {
	case opts.memPath != "":
		debug.Log("writing memory profile to %v", opts.memPath)
		return profile.Start(profile.Quiet, profile.NoShutdownHook, profile.MemProfile, profile.ProfilePath(opts.memPath)), nil
	case opts.cpuPath != "":
		debug.Log("writing cpu profile to %v", opts.cpuPath)
		return profile.Start(profile.Quiet, profile.NoShutdownHook, profile.CPUProfile, profile.ProfilePath(opts.cpuPath)), nil
	}
	return nil, nil
}

// registerProfiling adds the hidden profiling flags to cmd. The profile is
// written when the command returns.
func registerProfiling(cmd *cobra.Command) {
	var opts ProfileOptions

	f := cmd.PersistentFlags()
	f.StringVar(&opts.memPath, "mem-profile", "", "write memory profile to `dir`")
	f.StringVar(&opts.cpuPath, "cpu-profile", "", "write cpu profile to `dir`")
	_ = f.MarkHidden("mem-profile")
	_ = f.MarkHidden("cpu-profile")

	var prof interface{ Stop() }

	preRun := cmd.PersistentPreRunE
	cmd.PersistentPreRunE = func(c *cobra.Command, args []string) error {
		if err := preRun(c, args); err != nil {
			return err
		}

		var err error
		prof, err = opts.start()
		return err
	}

	cmd.PersistentPostRun = func(_ *cobra.Command, _ []string) {
		if prof != nil {
			prof.Stop()
			prof = nil
		}
	}
}
