package ntpsync

import (
	"errors"
	"os"
)

// ClockApplier commits a corrected time, in seconds since 1970, to a clock.
// Failures are *Error values of kind KindPermissionDenied or
// KindPlatformError.
type ClockApplier interface {
	Apply(t float64) error
}

// ClockApplierFunc adapts a function to ClockApplier.
type ClockApplierFunc func(t float64) error

func (f ClockApplierFunc) Apply(t float64) error {
	return f(t)
}

// SystemClock steps the system real time clock. It needs root or
// CAP_SYS_TIME on linux.
type SystemClock struct{}

func (SystemClock) Apply(t float64) error {
	return clockError(setSystemClock(t))
}

// DryRunClock only logs the time it would have set.
type DryRunClock struct {
	Logger Logger
}

func (c DryRunClock) Apply(t float64) error {
	loggerOrDefault(c.Logger).Infof("dry run, not setting clock to %s", fromUnixSeconds(t))
	return nil
}

// clockError maps a clock call failure onto the two apply kinds.
func clockError(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	if errors.Is(err, os.ErrPermission) {
		return newError(KindPermissionDenied, "", err)
	}
	return newError(KindPlatformError, "", err)
}
