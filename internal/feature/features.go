// Package feature implements feature flags that switch between alternative
// behaviours of xattrbridge. Flags are selected through $XATTR_FEATURES.
package feature

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

type state string

// FlagName is the kebab-case name of a feature flag.
type FlagName string

const (
	// Alpha features are disabled by default and may change in arbitrary ways.
	Alpha state = "alpha"
	// Beta features are enabled by default.
	Beta state = "beta"
	// Stable features are always enabled.
	Stable state = "stable"
	// Deprecated features are always disabled.
	Deprecated state = "deprecated"
)

type FlagDesc struct {
	Type        state
	Description string
}

// FlagSet holds the known flags and their current values. It is safe for
// concurrent use, flags are read from worker goroutines.
type FlagSet struct {
	m       sync.RWMutex
	flags   map[FlagName]*FlagDesc
	enabled map[FlagName]bool
}

func New() *FlagSet {
	return &FlagSet{}
}

func getDefault(phase state) bool {
	switch phase {
	case Alpha, Deprecated:
		return false
	case Beta, Stable:
		return true
	default:
		panic("unknown feature phase")
	}
}

func (f *FlagSet) SetFlags(flags map[FlagName]FlagDesc) {
	f.m.Lock()
	defer f.m.Unlock()

	f.flags = map[FlagName]*FlagDesc{}
	f.enabled = map[FlagName]bool{}

	for name, flag := range flags {
		fcopy := flag
		f.flags[name] = &fcopy
		f.enabled[name] = getDefault(fcopy.Type)
	}
}

// Apply parses a comma separated list of `name` or `name=bool` entries and
// updates the flags. Unknown flags are an error, attempts to change stable or
// deprecated flags are reported via logWarning.
func (f *FlagSet) Apply(flags string, logWarning func(string)) error {
	if flags == "" {
		return nil
	}

	selection := make(map[FlagName]bool)

	for _, flag := range strings.Split(flags, ",") {
		name, value, found := strings.Cut(strings.TrimSpace(flag), "=")
		if !found {
			value = "true"
		}

		isEnabled, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("failed to parse value %q for feature flag %v: %w", value, name, err)
		}

		selection[FlagName(name)] = isEnabled
	}

	f.m.Lock()
	defer f.m.Unlock()

	for name, value := range selection {
		flag := f.flags[name]
		if flag == nil {
			return fmt.Errorf("unknown feature flag %q", name)
		}

		switch flag.Type {
		case Alpha, Beta:
			f.enabled[name] = value
		case Stable:
			logWarning(fmt.Sprintf("feature flag %q is always enabled and will be removed in a future release", name))
		case Deprecated:
			logWarning(fmt.Sprintf("feature flag %q is always disabled and will be removed in a future release", name))
		default:
			panic("unknown feature phase")
		}
	}

	return nil
}

func (f *FlagSet) Enabled(name FlagName) bool {
	f.m.RLock()
	defer f.m.RUnlock()

	isEnabled, ok := f.enabled[name]
	if !ok {
		panic(fmt.Sprintf("unknown feature flag %v", name))
	}

	return isEnabled
}

// Help contains information about a feature.
type Help struct {
	Name        string
	Type        string
	Default     bool
	Description string
}

func (f *FlagSet) List() []Help {
	f.m.RLock()
	defer f.m.RUnlock()

	help := make([]Help, 0, len(f.flags))
	for name, flag := range f.flags {
		help = append(help, Help{
			Name:        string(name),
			Type:        string(flag.Type),
			Default:     getDefault(flag.Type),
			Description: flag.Description,
		})
	}

	sort.Slice(help, func(i, j int) bool {
		return help[i].Name < help[j].Name
	})

	return help
}
