package ntpsync

import (
	"fmt"
)

const (
	minValidStratum = 1
	maxValidStratum = 15

	// some servers round the echoed origin seconds
	maxOriginSkew = 1
)

// Validate checks a decoded response against the transmit timestamp that
// was sent. It does not modify p.
func Validate(p *Packet, sent Timestamp) error {
	switch p.Mode {
	case ModeServer, ModeBroadcast:
	default:
		return newError(KindInvalidMode, "",
			fmt.Errorf("mode=%d, want %d or %d", p.Mode, ModeServer, ModeBroadcast))
	}

	if p.Stratum < minValidStratum || p.Stratum > maxValidStratum {
		return newError(KindInvalidStratum, "",
			fmt.Errorf("stratum=%d", p.Stratum))
	}

	diff := int64(p.Origin.Seconds) - int64(sent.Seconds)
	if diff > maxOriginSkew || diff < -maxOriginSkew {
		return newError(KindOriginMismatch, "",
			fmt.Errorf("sent=%d echoed=%d", sent.Seconds, p.Origin.Seconds))
	}

	if p.Transmit.Seconds == 0 {
		return newError(KindZeroTransmitTimestamp, "", nil)
	}
	return nil
}
