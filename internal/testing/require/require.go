// Package require is a small, dependency-free stand-in for testify's
// require package, scoped to what this module's tests need. wazero takes
// the same approach in its own internal/testing/require rather than taking
// a testify dependency inside internal/ packages.
package require

import (
	"bytes"
	"fmt"
	"reflect"
)

// TestingT is the subset of *testing.T used here, so these helpers also work
// from table-driven subtests and mocks.
type TestingT interface {
	Fatalf(format string, args ...interface{})
	Helper()
}

// CapturePanic runs fn and returns the recovered panic value as an error, or
// nil if fn did not panic.
func CapturePanic(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("%v", r)
			}
		}
	}()
	fn()
	return
}

// NoError fails the test if err is non-nil.
func NoError(t TestingT, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("expected no error, but had: %v", err)
	}
}

// Error fails the test if err is nil.
func Error(t TestingT, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected an error, but had none")
	}
}

// EqualError fails the test unless err.Error() == msg.
func EqualError(t TestingT, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, but had none", msg)
		return
	}
	if err.Error() != msg {
		t.Fatalf("expected error %q, but had %q", msg, err.Error())
	}
}

// True fails the test unless v is true.
func True(t TestingT, v bool, msgAndArgs ...interface{}) {
	t.Helper()
	if !v {
		t.Fatalf("expected true%s", suffix(msgAndArgs))
	}
}

// False fails the test unless v is false.
func False(t TestingT, v bool, msgAndArgs ...interface{}) {
	t.Helper()
	if v {
		t.Fatalf("expected false%s", suffix(msgAndArgs))
	}
}

// Equal fails the test unless expected and actual are deeply equal.
func Equal(t TestingT, expected, actual interface{}, msgAndArgs ...interface{}) {
	t.Helper()
	if eb, ok := expected.([]byte); ok {
		if ab, ok := actual.([]byte); ok {
			if !bytes.Equal(eb, ab) {
				t.Fatalf("expected %#v, but was %#v%s", eb, ab, suffix(msgAndArgs))
			}
			return
		}
	}
	if !reflect.DeepEqual(expected, actual) {
		t.Fatalf("expected %#v, but was %#v%s", expected, actual, suffix(msgAndArgs))
	}
}

func suffix(msgAndArgs []interface{}) string {
	if len(msgAndArgs) == 0 {
		return ""
	}
	format, ok := msgAndArgs[0].(string)
	if !ok {
		return fmt.Sprintf(": %v", msgAndArgs[0])
	}
	return ": " + fmt.Sprintf(format, msgAndArgs[1:]...)
}
