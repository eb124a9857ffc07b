package options

import (
	"fmt"
	"testing"
	"time"

	rtest "github.com/restic/xattrbridge/internal/test"
)

var optsTests = []struct {
	input  []string
	output Options
}{
	{
		[]string{"foo=bar", "bar=baz ", "k="},
		Options{
			"foo": "bar",
			"bar": "baz",
			"k":   "",
		},
	},
	{
		[]string{"Foo=23", "baR", "k=thing with spaces"},
		Options{
			"foo": "23",
			"bar": "",
			"k":   "thing with spaces",
		},
	},
	{
		[]string{"k=thing with spaces", "k2=more spaces = not evil"},
		Options{
			"k":  "thing with spaces",
			"k2": "more spaces = not evil",
		},
	},
	{
		[]string{"x=1", "foo=bar", "x=1"},
		Options{
			"x":   "1",
			"foo": "bar",
		},
	},
}

func TestParseOptions(t *testing.T) {
	for i, test := range optsTests {
		t.Run(fmt.Sprintf("test-%v", i), func(t *testing.T) {
			opts, err := Parse(test.input)
			rtest.OK(t, err)
			rtest.Equals(t, test.output, opts)
		})
	}
}

func TestParseInvalidOptions(t *testing.T) {
	for _, input := range [][]string{
		{"=bar", "bar=baz", "k="},
		{"x=1", "foo=bar", "x=2"},
	} {
		_, err := Parse(input)
		rtest.Assert(t, err != nil, "expected error for %v not found", input)
	}
}

func TestExtract(t *testing.T) {
	opts := Options{
		"bridge.workers":         "4",
		"bridge.follow-symlinks": "true",
		"other.foo":              "bar",
	}

	rtest.Equals(t, Options{"workers": "4", "follow-symlinks": "true"}, opts.Extract("bridge"))
	rtest.Equals(t, Options{"foo": "bar"}, opts.Extract("other."))
	rtest.Equals(t, Options{}, opts.Extract("missing"))
}

type target struct {
	Name    string        `option:"name" help:"set the name"`
	ID      int           `option:"id"`
	Workers uint          `option:"workers"`
	Follow  bool          `option:"follow"`
	Timeout time.Duration `option:"timeout"`
	Other   string
}

func TestApply(t *testing.T) {
	var dst target
	opts := Options{
		"name":    "foobar",
		"id":      "-23",
		"workers": "0x10",
		"follow":  "true",
		"timeout": "10m3s",
	}

	rtest.OK(t, opts.Apply("ns", &dst))
	rtest.Equals(t, target{
		Name:    "foobar",
		ID:      -23,
		Workers: 16,
		Follow:  true,
		Timeout: 10*time.Minute + 3*time.Second,
	}, dst)
}

func TestApplyInvalid(t *testing.T) {
	for _, opts := range []Options{
		{"unknown": "x"},
		{"workers": "-1"},
		{"follow": "maybe"},
		{"timeout": "ten minutes"},
	} {
		var dst target
		err := opts.Apply("ns", &dst)
		rtest.Assert(t, err != nil, "expected error for %v", opts)
	}
}

func TestListOptions(t *testing.T) {
	rtest.Equals(t, []Help{
		{Name: "name", Text: "set the name"},
		{Name: "id"},
		{Name: "workers"},
		{Name: "follow"},
		{Name: "timeout"},
	}, listOptions(target{}))
}
