// Package debug implements the debug log used throughout xattrbridge. It is
// silent unless one of DEBUG_LOG, DEBUG_FUNCS or DEBUG_FILES is set.
package debug

import (
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
)

var opts struct {
	isEnabled bool
	logger    *log.Logger
	funcs     map[string]bool
	files     map[string]bool
}

// all initialization must have happened before the init() functions of
// other packages run and start logging
var _ = initDebug()

func initDebug() bool {
	initDebugLogger()
	opts.funcs = parseFilter("DEBUG_FUNCS", func(s string) string { return s })
	opts.files = parseFilter("DEBUG_FILES", padFile)

	opts.isEnabled = opts.logger != nil || len(opts.funcs) > 0 || len(opts.files) > 0
	if opts.isEnabled {
		fmt.Fprintf(os.Stderr, "debug enabled\n")
	}
	return opts.isEnabled
}

func initDebugLogger() {
	debugfile := os.Getenv("DEBUG_LOG")
	if debugfile == "" {
		return
	}

	fmt.Fprintf(os.Stderr, "debug log file %v\n", debugfile)

	f, err := os.OpenFile(debugfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to open debug log file: %v\n", err)
		os.Exit(2)
	}

	opts.logger = log.New(f, "", log.LstdFlags)
}

// parseFilter reads a comma separated list of glob patterns from envname. A
// pattern prefixed with "-" disables matching entries.
func parseFilter(envname string, pad func(string) string) map[string]bool {
	filter := make(map[string]bool)

	env := os.Getenv(envname)
	if env == "" {
		return filter
	}

	for _, fn := range strings.Split(env, ",") {
		t := pad(strings.TrimSpace(fn))
		if t == "" {
			continue
		}

		val := true
		switch t[0] {
		case '-':
			val = false
			t = t[1:]
		case '+':
			t = t[1:]
		}

		if _, err := path.Match(t, ""); err != nil {
			fmt.Fprintf(os.Stderr, "error: invalid pattern %q: %v\n", t, err)
			os.Exit(5)
		}

		filter[t] = val
	}

	return filter
}

func padFile(s string) string {
	if s == "all" || s == "" {
		return s
	}

	if !strings.Contains(s, "/") {
		s = "*/" + s
	}

	if !strings.Contains(s, ":") {
		s = s + ":*"
	}

	return s
}

// GoroutineID returns the number of the calling goroutine as printed in
// stack traces.
func GoroutineID() int {
	b := make([]byte, 32)
	b = b[:runtime.Stack(b, false)]

	var num int
	_, _ = fmt.Sscanf(string(b), "goroutine %d ", &num)
	return num
}

func getPosition() (fn, dir, file string, line int) {
	pc, file, line, ok := runtime.Caller(2)
	if !ok {
		return "", "", "", 0
	}

	dirname, filename := filepath.Base(filepath.Dir(file)), filepath.Base(file)

	return path.Base(runtime.FuncForPC(pc).Name()), dirname, filename, line
}

func checkFilter(filter map[string]bool, key string) bool {
	if v, ok := filter[key]; ok {
		return v
	}

	for k, v := range filter {
		if m, _ := path.Match(k, key); m {
			return v
		}
	}

	return filter["all"]
}

// Log prints a message to the debug log (if debug is enabled).
func Log(f string, args ...interface{}) {
	if !opts.isEnabled {
		return
	}

	fn, dir, file, line := getPosition()

	if len(f) == 0 || f[len(f)-1] != '\n' {
		f += "\n"
	}

	pos := fmt.Sprintf("%s/%s:%d", dir, file, line)
	formatString := fmt.Sprintf("%s\t%s\t%d\t%s", pos, fn, GoroutineID(), f)

	if opts.logger != nil {
		opts.logger.Printf(formatString, args...)
	}

	if checkFilter(opts.files, pos) || checkFilter(opts.funcs, fn) {
		fmt.Fprintf(os.Stderr, formatString, args...)
	}
}
