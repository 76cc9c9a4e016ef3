//go:build !linux && !darwin && !dragonfly && !freebsd && !netbsd && !openbsd

package ntpsync

import (
	"fmt"
	"runtime"
)

func setSystemClock(t float64) error {
	return newError(KindPlatformError, "",
		fmt.Errorf("setting the clock is not supported on %s", runtime.GOOS))
}
