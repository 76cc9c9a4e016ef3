package ntpsync

import (
	"math"
	"time"
)

const (
	nanoSecPerSec = int64(time.Second)
)

func absDuration(a time.Duration) time.Duration {
	if a < 0 {
		return -a
	}
	return a
}

func secondToDuration(a float64) time.Duration {
	return time.Duration(a * float64(time.Second))
}

// unixSeconds returns t as seconds since 1970.
func unixSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(nanoSecPerSec)
}

// fromUnixSeconds is the inverse of unixSeconds, rounded to the nanosecond.
func fromUnixSeconds(sec float64) time.Time {
	whole := math.Floor(sec)
	nsec := math.Round((sec - whole) * float64(nanoSecPerSec))
	return time.Unix(int64(whole), int64(nsec))
}
