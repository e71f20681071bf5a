// Package require includes test assertions that fail the test immediately. This is like
// testify, but without a dependency.
package require

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// TestingT is an interface wrapper of functions used in TestingT.
type TestingT interface {
	Fatal(args ...interface{})
}

// EqualTo lets a type opt into custom equality, bypassing reflect.DeepEqual.
type EqualTo interface {
	EqualTo(that interface{}) bool
}

// Contains fails if `s` does not contain `substr`.
func Contains(t TestingT, s, substr string, formatWithArgs ...interface{}) {
	if !strings.Contains(s, substr) {
		fail(t, fmt.Sprintf("expected %q to contain %q", s, substr), formatWithArgs...)
	}
}

// Equal fails if the actual value is not equal to the expected.
func Equal(t TestingT, expected, actual interface{}, formatWithArgs ...interface{}) {
	if expected == nil {
		Nil(t, actual, formatWithArgs...)
		return
	}
	if equal(expected, actual) {
		return
	}
	if eq, ok := actual.(EqualTo); ok && eq.EqualTo(expected) {
		return
	}
	fail(t, fmt.Sprintf("expected %#v, but was %#v", expected, actual), formatWithArgs...)
}

// equal speculatively tries to cast the inputs as byte slices and falls back to reflection.
func equal(expected, actual interface{}) bool {
	if b1, ok := expected.([]byte); ok {
		b2, ok := actual.([]byte)
		return ok && bytes.Equal(b1, b2)
	}
	return reflect.DeepEqual(expected, actual)
}

// EqualError fails if the error is nil or its Error() value differs from expected.
func EqualError(t TestingT, err error, expected string, formatWithArgs ...interface{}) {
	if err == nil {
		fail(t, "expected an error, but was nil", formatWithArgs...)
		return
	}
	if actual := err.Error(); actual != expected {
		fail(t, fmt.Sprintf("expected error %q, but was %q", expected, actual), formatWithArgs...)
	}
}

// Error fails if err is nil.
func Error(t TestingT, err error, formatWithArgs ...interface{}) {
	if err == nil {
		fail(t, "expected an error, but was nil", formatWithArgs...)
	}
}

// ErrorIs fails if err is nil or errors.Is(err, target) fails.
func ErrorIs(t TestingT, err, target error, formatWithArgs ...interface{}) {
	if err == nil {
		fail(t, "expected an error, but was nil", formatWithArgs...)
		return
	}
	if !errors.Is(err, target) {
		fail(t, fmt.Sprintf("expected errors.Is(%v, %v), but it wasn't", err, target), formatWithArgs...)
	}
}

// False fails if actual was true.
func False(t TestingT, actual bool, formatWithArgs ...interface{}) {
	if actual {
		fail(t, "expected false, but was true", formatWithArgs...)
	}
}

// Nil fails if object is not nil.
func Nil(t TestingT, object interface{}, formatWithArgs ...interface{}) {
	if !isNil(object) {
		fail(t, fmt.Sprintf("expected nil, but was %v", object), formatWithArgs...)
	}
}

// NoError fails if err is not nil.
func NoError(t TestingT, err error, formatWithArgs ...interface{}) {
	if err != nil {
		fail(t, fmt.Sprintf("expected no error, but was %v", err), formatWithArgs...)
	}
}

// NotEqual fails if the actual value is equal to the expected.
func NotEqual(t TestingT, expected, actual interface{}, formatWithArgs ...interface{}) {
	if equal(expected, actual) {
		fail(t, fmt.Sprintf("expected to not equal %#v", actual), formatWithArgs...)
	}
}

// NotNil fails if object is nil.
func NotNil(t TestingT, object interface{}, formatWithArgs ...interface{}) {
	if isNil(object) {
		fail(t, "expected to not be nil", formatWithArgs...)
	}
}

func isNil(object interface{}) (isNil bool) {
	if object == nil {
		return true
	}
	v := reflect.ValueOf(object)
	defer func() {
		if recover() != nil {
			isNil = false
		}
	}()
	return v.IsNil()
}

// True fails if actual wasn't true.
func True(t TestingT, actual bool, formatWithArgs ...interface{}) {
	if !actual {
		fail(t, "expected true, but was false", formatWithArgs...)
	}
}

// Zero fails unless i is the zero value for its type.
func Zero(t TestingT, i interface{}, formatWithArgs ...interface{}) {
	if i == nil {
		fail(t, "expected zero, but was nil", formatWithArgs...)
		return
	}
	if zero := reflect.Zero(reflect.TypeOf(i)); i != zero.Interface() {
		fail(t, fmt.Sprintf("expected zero, but was %v", i), formatWithArgs...)
	}
}

// CapturePanic returns an error recovered from a panic, converting a non-error panic
// value to one.
func CapturePanic(panics func()) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			if e, ok := recovered.(error); ok {
				err = e
			} else {
				err = fmt.Errorf("%v", recovered)
			}
		}
	}()
	panics()
	return
}

// fail treats the first formatWithArgs entry as an fmt.Sprintf format string if it looks
// like one, otherwise joins the args with spaces.
func fail(t TestingT, msg string, formatWithArgs ...interface{}) {
	var failure string
	if len(formatWithArgs) > 0 {
		if s, ok := formatWithArgs[0].(string); ok && strings.Contains(s, "%") {
			failure = fmt.Sprintf(msg+": "+s, formatWithArgs[1:]...)
		} else {
			var b strings.Builder
			b.WriteString(msg)
			for _, v := range formatWithArgs {
				b.WriteByte(' ')
				fmt.Fprintf(&b, "%v", v)
			}
			failure = b.String()
		}
	} else {
		failure = msg
	}
	t.Fatal(failure)
}
