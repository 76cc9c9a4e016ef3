package ntpsync

import (
	"encoding/binary"
	"math"
)

const (
	// PacketSize is the size of an NTP header without extension fields.
	PacketSize = 48

	// ntp epoch (1900) -> unix epoch (1970)
	unixEpochDelta = 2208988800

	fracPerSec = 1 << 32

	// LI=0, VN=3, Mode=3
	clientRequest = 0x1b
)

const (
	ModeReserved uint8 = iota
	ModeSymmetricActive
	ModeSymmetricPassive
	ModeClient
	ModeServer
	ModeBroadcast
	ModeControlMessage
	ModeReservedPrivate
)

const (
	LiVnModePos = iota
	StratumPos
	PollPos
	ClockPrecisionPos
)

const (
	RootDelayPos = iota*4 + 4
	RootDispersionPos
	ReferIDPos
)

const (
	ReferenceTimeStamp = iota*8 + 16
	OriginTimeStamp
	ReceiveTimeStamp
	TransmitTimeStamp
)

// Timestamp is the 64 bit NTP fixed point timestamp, seconds since 1900
// plus a 2^-32 fraction.
type Timestamp struct {
	Seconds  uint32
	Fraction uint32
}

// TimestampFromUnix converts seconds since 1970 into wire form.
func TimestampFromUnix(sec float64) Timestamp {
	whole, frac := math.Modf(sec)
	f := math.Floor(frac * fracPerSec)
	if f >= fracPerSec {
		f = fracPerSec - 1
	}
	return Timestamp{
		Seconds:  uint32(int64(whole) + unixEpochDelta),
		Fraction: uint32(f),
	}
}

// Unix returns the timestamp as seconds since 1970.
func (t Timestamp) Unix() float64 {
	return float64(int64(t.Seconds)-unixEpochDelta) + float64(t.Fraction)/fracPerSec
}

func (t Timestamp) uint64() uint64 {
	return uint64(t.Seconds)<<32 | uint64(t.Fraction)
}

func getTimestamp(m []byte, index int) Timestamp {
	return Timestamp{
		Seconds:  binary.BigEndian.Uint32(m[index:]),
		Fraction: binary.BigEndian.Uint32(m[index+4:]),
	}
}

// Packet is a decoded NTP header.
type Packet struct {
	Leap      uint8
	Version   uint8
	Mode      uint8
	Stratum   uint8
	Poll      int8
	Precision int8

	RootDelay      uint32
	RootDispersion uint32
	ReferenceID    uint32

	Reference Timestamp
	Origin    Timestamp
	Receive   Timestamp
	Transmit  Timestamp
}

func SetLi(m []byte, li uint8) {
	m[0] = (m[0] & 0x3f) | li<<6
}

func SetMode(m []byte, mode uint8) {
	m[0] = (m[0] & 0xf8) | mode
}

func GetMode(m []byte) uint8 {
	return m[0] &^ 0xf8
}

func SetVersion(m []byte, v uint8) {
	m[0] = (m[0] & 0xc7) | v<<3
}

func SetUint64(m []byte, index int, value uint64) {
	binary.BigEndian.PutUint64(m[index:], value)
}

func SetUint8(m []byte, index int, value uint8) {
	m[index] = value
}

func SetUint32(m []byte, index int, value uint32) {
	binary.BigEndian.PutUint32(m[index:], value)
}

// EncodeRequest builds a client request carrying send as its transmit
// timestamp. All other fields are zero.
func EncodeRequest(send Timestamp) []byte {
	m := make([]byte, PacketSize)
	SetUint8(m, LiVnModePos, clientRequest)
	SetUint64(m, TransmitTimeStamp, send.uint64())
	return m
}

// DecodeResponse parses the first 48 bytes of b.
func DecodeResponse(b []byte) (*Packet, error) {
	if len(b) < PacketSize {
		return nil, newError(KindTruncated, "", errShortPacket(len(b)))
	}
	// BCE
	_ = b[PacketSize-1]

	return &Packet{
		Leap:           b[LiVnModePos] >> 6,
		Version:        (b[LiVnModePos] >> 3) & 0x07,
		Mode:           GetMode(b),
		Stratum:        b[StratumPos],
		Poll:           int8(b[PollPos]),
		Precision:      int8(b[ClockPrecisionPos]),
		RootDelay:      binary.BigEndian.Uint32(b[RootDelayPos:]),
		RootDispersion: binary.BigEndian.Uint32(b[RootDispersionPos:]),
		ReferenceID:    binary.BigEndian.Uint32(b[ReferIDPos:]),
		Reference:      getTimestamp(b, ReferenceTimeStamp),
		Origin:         getTimestamp(b, OriginTimeStamp),
		Receive:        getTimestamp(b, ReceiveTimeStamp),
		Transmit:       getTimestamp(b, TransmitTimeStamp),
	}, nil
}
