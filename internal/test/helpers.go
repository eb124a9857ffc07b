package test

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/xattr"

	mrand "math/rand"
)

// Assert fails the test if the condition is false.
func Assert(tb testing.TB, condition bool, msg string, v ...interface{}) {
	tb.Helper()
	if !condition {
		_, file, line, _ := runtime.Caller(1)
		fmt.Printf("\033[31m%s:%d: "+msg+"\033[39m\n\n", append([]interface{}{filepath.Base(file), line}, v...)...)
		tb.FailNow()
	}
}

// OK fails the test if an err is not nil.
func OK(tb testing.TB, err error) {
	tb.Helper()
	if err != nil {
		_, file, line, _ := runtime.Caller(1)
		fmt.Printf("\033[31m%s:%d: unexpected error: %+v\033[39m\n\n", filepath.Base(file), line, err)
		tb.FailNow()
	}
}

// Equals fails the test if exp is not equal to act. The difference is
// printed as a diff.
func Equals(tb testing.TB, exp, act interface{}, msgs ...string) {
	tb.Helper()
	if !reflect.DeepEqual(exp, act) {
		_, file, line, _ := runtime.Caller(1)
		var msg string
		if len(msgs) > 0 {
			msg = msgs[0] + "\n"
		}
		diff := cmp.Diff(exp, act, cmp.Exporter(func(reflect.Type) bool { return true }))
		fmt.Printf("\033[31m%s:%d: %s\n\n\texp: %#v\n\n\tgot: %#v\n\n\tdiff (-exp +got):\n%s\033[39m\n\n",
			filepath.Base(file), line, msg, exp, act, diff)
		tb.FailNow()
	}
}

// Random returns count bytes of pseudo-random data derived from the seed.
func Random(seed, count int) []byte {
	p := make([]byte, count)
	rnd := mrand.New(mrand.NewSource(int64(seed)))
	_, _ = rnd.Read(p)
	return p
}

// TempDir returns a temporary directory that is removed by t.Cleanup,
// except if TestCleanupTempDirs is set to false.
func TempDir(t testing.TB) string {
	tempdir, err := os.MkdirTemp(TestTempDir, "xattrbridge-test-")
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if !TestCleanupTempDirs {
			t.Logf("leaving temporary directory %v used for test", tempdir)
			return
		}

		OK(t, os.RemoveAll(tempdir))
	})
	return tempdir
}

// TempFile creates an empty file in a fresh temporary directory and returns
// its path.
func TempFile(t testing.TB) string {
	t.Helper()
	file := filepath.Join(TempDir(t), "file")
	OK(t, os.WriteFile(file, nil, 0o600))
	return file
}

// SkipIfNoXattr skips the test if the file system holding path does not
// support setting attributes in the user namespace.
func SkipIfNoXattr(t testing.TB, path string) {
	t.Helper()
	const probe = "user.xattrbridge.probe"

	if err := xattr.LSet(path, probe, []byte("1")); err != nil {
		SkipDisallowed(t, t.Name())
		t.Skipf("extended attributes are not supported for %v: %v", path, err)
	}
	OK(t, xattr.LRemove(path, probe))
}
