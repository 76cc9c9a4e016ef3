package ntpsync

import (
	"encoding/binary"
	"math"
	"testing"
)

func TestEncodeRequest(t *testing.T) {
	send := Timestamp{Seconds: 0xe1234567, Fraction: 0x89abcdef}
	m := EncodeRequest(send)
	if len(m) != PacketSize {
		t.Fatal(len(m))
	}
	if m[0] != 0x1b {
		t.Fatalf("li/vn/mode=%#x", m[0])
	}
	if GetMode(m) != ModeClient {
		t.Fatal(GetMode(m))
	}
	for i := 1; i < TransmitTimeStamp; i++ {
		if m[i] != 0 {
			t.Fatalf("byte %d = %#x, want 0", i, m[i])
		}
	}
	if got := binary.BigEndian.Uint32(m[TransmitTimeStamp:]); got != send.Seconds {
		t.Errorf("xmt sec=%#x", got)
	}
	if got := binary.BigEndian.Uint32(m[TransmitTimeStamp+4:]); got != send.Fraction {
		t.Errorf("xmt frac=%#x", got)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, sec := range []float64{0, 1000.25, 1700000000.5, 1700000000.123456} {
		send := TimestampFromUnix(sec)
		p, err := DecodeResponse(EncodeRequest(send))
		if err != nil {
			t.Fatal(err)
		}
		if p.Transmit != send {
			t.Errorf("sec=%f sent=%+v decoded=%+v", sec, send, p.Transmit)
		}
		if p.Mode != ModeClient || p.Version != 3 || p.Leap != 0 {
			t.Errorf("header %+v", p)
		}
	}
}

func TestTimestampUnix(t *testing.T) {
	ts := TimestampFromUnix(1000.5)
	if ts.Seconds != 1000+unixEpochDelta {
		t.Fatal(ts.Seconds)
	}
	if ts.Fraction != 1<<31 {
		t.Fatal(ts.Fraction)
	}
	if ts.Unix() != 1000.5 {
		t.Fatal(ts.Unix())
	}

	got := TimestampFromUnix(1000.6).Unix()
	if math.Abs(got-1000.6) > 1.0/fracPerSec+1e-9 {
		t.Fatalf("got %.12f", got)
	}
}

func TestDecodeResponseTruncated(t *testing.T) {
	for _, n := range []int{0, 1, 47} {
		_, err := DecodeResponse(make([]byte, n))
		if KindOf(err) != KindTruncated {
			t.Errorf("len=%d err=%v", n, err)
		}
	}
}

func TestDecodeResponseFields(t *testing.T) {
	m := make([]byte, 60)
	SetLi(m, 3)
	SetVersion(m, 4)
	SetMode(m, ModeServer)
	SetUint8(m, StratumPos, 2)
	SetUint8(m, PollPos, 6)
	SetUint8(m, ClockPrecisionPos, 0xe9) // -23
	SetUint32(m, RootDelayPos, 0x00010000)
	SetUint32(m, RootDispersionPos, 0x00008000)
	SetUint32(m, ReferIDPos, 0x47505300)
	SetUint64(m, ReferenceTimeStamp, 1<<32|1)
	SetUint64(m, OriginTimeStamp, 2<<32|2)
	SetUint64(m, ReceiveTimeStamp, 3<<32|3)
	SetUint64(m, TransmitTimeStamp, 4<<32|4)

	p, err := DecodeResponse(m)
	if err != nil {
		t.Fatal(err)
	}
	if p.Leap != 3 || p.Version != 4 || p.Mode != ModeServer {
		t.Errorf("li/vn/mode %d/%d/%d", p.Leap, p.Version, p.Mode)
	}
	if p.Stratum != 2 || p.Poll != 6 || p.Precision != -23 {
		t.Errorf("stratum/poll/precision %d/%d/%d", p.Stratum, p.Poll, p.Precision)
	}
	if p.RootDelay != 0x00010000 || p.RootDispersion != 0x00008000 || p.ReferenceID != 0x47505300 {
		t.Errorf("root %+v", p)
	}
	for i, ts := range []Timestamp{p.Reference, p.Origin, p.Receive, p.Transmit} {
		want := uint32(i + 1)
		if ts.Seconds != want || ts.Fraction != want {
			t.Errorf("timestamp %d = %+v", i, ts)
		}
	}
}
