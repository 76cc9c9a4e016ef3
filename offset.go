package ntpsync

// Estimate computes the round trip delay and the corrected time from the
// four timestamps of an exchange, all in seconds since 1970:
//
//	t1 local send, t2 server receive, t3 server transmit, t4 local receive
//
// Both legs of the path are assumed to take the same time, so the best
// estimate of "now" is the server transmit time plus half the delay.
// Negative or very large delays are returned as is.
func Estimate(t1, t2, t3, t4 float64) (corrected, delay float64) {
	delay = (t4 - t1) - (t3 - t2)
	corrected = t3 + delay/2
	return
}
