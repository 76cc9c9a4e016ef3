package ntpsync

import (
	"golang.org/x/sys/unix"
)

func setSystemClock(t float64) error {
	ts := unix.NsecToTimespec(fromUnixSeconds(t).UnixNano())
	return unix.ClockSettime(unix.CLOCK_REALTIME, &ts)
}
