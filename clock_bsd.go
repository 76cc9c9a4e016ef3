//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package ntpsync

import (
	"golang.org/x/sys/unix"
)

func setSystemClock(t float64) error {
	tv := unix.NsecToTimeval(fromUnixSeconds(t).UnixNano())
	return unix.Settimeofday(&tv)
}
