// Package options implements the extended `-o key=value` options. A component
// declares its options as struct fields tagged with `option` and `help`, and
// registers the struct under a namespace so that they can be listed.
package options

import (
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/restic/xattrbridge/internal/errors"
)

// Options holds options in the form key=value.
type Options map[string]string

var registry struct {
	m    sync.Mutex
	opts []Help
}

// Register allows registering options so that they can be listed with List.
func Register(ns string, cfg interface{}) {
	registry.m.Lock()
	defer registry.m.Unlock()

	for _, opt := range listOptions(cfg) {
		opt.Namespace = ns
		registry.opts = append(registry.opts, opt)
	}

	sort.Slice(registry.opts, func(i, j int) bool {
		a, b := registry.opts[i], registry.opts[j]
		if a.Namespace == b.Namespace {
			return a.Name < b.Name
		}
		return a.Namespace < b.Namespace
	})
}

// List returns a list of all registered options (using Register()).
func List() []Help {
	registry.m.Lock()
	defer registry.m.Unlock()

	list := make([]Help, len(registry.opts))
	copy(list, registry.opts)
	return list
}

// listOptions returns the tagged fields of cfg.
func listOptions(cfg interface{}) (opts []Help) {
	v := reflect.Indirect(reflect.ValueOf(cfg))

	for i := 0; i < v.NumField(); i++ {
		f := v.Type().Field(i)

		h := Help{
			Name: f.Tag.Get("option"),
			Text: f.Tag.Get("help"),
		}

		if h.Name == "" {
			continue
		}

		opts = append(opts, h)
	}

	return opts
}

// Help contains information about an option.
type Help struct {
	Namespace string
	Name      string
	Text      string
}

// Parse takes a slice of key=value pairs and returns an Options type.
// The key may include namespaces, separated by dots. Example: "bridge.workers=4".
// Keys are converted to lower-case.
func Parse(in []string) (Options, error) {
	opts := make(Options, len(in))

	for _, opt := range in {
		key, value, _ := strings.Cut(opt, "=")
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		if key == "" {
			return Options{}, errors.Fatalf("empty key is not a valid option")
		}

		if v, ok := opts[key]; ok && v != value {
			return Options{}, errors.Fatalf("key %q present more than once", key)
		}

		opts[key] = value
	}

	return opts, nil
}

// Extract returns an Options type with all keys in namespace ns, which is
// also stripped from the keys.
func (o Options) Extract(ns string) Options {
	if !strings.HasSuffix(ns, ".") {
		ns += "."
	}

	opts := make(Options)

	for k, v := range o {
		if rest, ok := strings.CutPrefix(k, ns); ok {
			opts[rest] = v
		}
	}

	return opts
}

// Apply sets the options on dst via reflection, using the struct tag `option`.
// The namespace argument (ns) is only used for error messages.
func (o Options) Apply(ns string, dst interface{}) error {
	v := reflect.ValueOf(dst).Elem()

	fields := make(map[string]int)

	for i := 0; i < v.NumField(); i++ {
		tag := v.Type().Field(i).Tag.Get("option")
		if tag == "" {
			continue
		}

		if _, ok := fields[tag]; ok {
			panic("option tag " + tag + " is not unique in " + v.Type().Name())
		}

		fields[tag] = i
	}

	for key, value := range o {
		i, ok := fields[key]
		if !ok {
			if ns != "" {
				key = ns + "." + key
			}
			return errors.Fatalf("option %v is not known", key)
		}

		if err := setField(v.Field(i), value); err != nil {
			return errors.Fatalf("invalid value %q for option %v.%v: %v", value, ns, key, err)
		}
	}

	return nil
}

func setField(f reflect.Value, value string) error {
	if f.Type() == reflect.TypeOf(time.Duration(0)) {
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		f.SetInt(int64(d))
		return nil
	}

	switch f.Kind() {
	case reflect.String:
		f.SetString(value)

	case reflect.Int:
		vi, err := strconv.ParseInt(value, 0, 32)
		if err != nil {
			return err
		}
		f.SetInt(vi)

	case reflect.Uint:
		vi, err := strconv.ParseUint(value, 0, 32)
		if err != nil {
			return err
		}
		f.SetUint(vi)

	case reflect.Bool:
		vi, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		f.SetBool(vi)

	default:
		panic("type " + f.Type().Name() + " not handled")
	}

	return nil
}
