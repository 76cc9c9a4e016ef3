package ntpsync

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/miekg/dns"
)

func TestValidHostname(t *testing.T) {
	tt := []struct {
		host string
		ok   bool
	}{
		{"pool.ntp.org", true},
		{"time-a.example.COM", true},
		{"127.0.0.1", true},
		{"xn--bcher-kva.test", true},
		{strings.Repeat("a", 255), true},
		{"", false},
		{strings.Repeat("a", 256), false},
		{"bad host!", false},
		{"under_score.test", false},
		{"::1", false},
		{"host.test\n", false},
	}
	for _, g := range tt {
		err := ValidHostname(g.host)
		if (err == nil) != g.ok {
			t.Errorf("%q: %v", g.host, err)
			continue
		}
		if err != nil && KindOf(err) != KindInvalidHostnameSyntax {
			t.Errorf("%q: kind=%s", g.host, KindOf(err))
		}
	}
}

func TestLiteralIPv4(t *testing.T) {
	ip := net.IPv4(192, 0, 2, 1)
	for _, r := range []resolver{
		systemResolver{r: net.DefaultResolver},
		newNameserverResolver("192.0.2.53", time.Second),
	} {
		got, err := r.lookup(context.Background(), "192.0.2.1")
		if err != nil || !got.Equal(ip) {
			t.Errorf("%T: %v %v", r, got, err)
		}
	}
}

func TestNewNameserverResolver(t *testing.T) {
	if r := newNameserverResolver("1.1.1.1", time.Second); r.server != "1.1.1.1:53" {
		t.Error(r.server)
	}
	if r := newNameserverResolver("127.0.0.1:5353", time.Second); r.server != "127.0.0.1:5353" {
		t.Error(r.server)
	}
}

func newDNSServer(t *testing.T, handler dns.HandlerFunc) string {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	started := make(chan struct{})
	srv := &dns.Server{
		PacketConn:        pc,
		Handler:           handler,
		NotifyStartedFunc: func() { close(started) },
	}
	go srv.ActivateAndServe()
	<-started
	t.Cleanup(func() { srv.Shutdown() })
	return pc.LocalAddr().String()
}

func TestNameserverResolver(t *testing.T) {
	addr := newDNSServer(t, func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		switch r.Question[0].Name {
		case "a.test.":
			rr, _ := dns.NewRR("a.test. 60 IN A 192.0.2.7")
			m.Answer = append(m.Answer, rr)
		case "empty.test.":
		default:
			m.Rcode = dns.RcodeNameError
		}
		w.WriteMsg(m)
	})
	r := newNameserverResolver(addr, time.Second)
	ctx := context.Background()

	ip, err := r.lookup(ctx, "a.test")
	if err != nil {
		t.Fatal(err)
	}
	if !ip.Equal(net.IPv4(192, 0, 2, 7)) {
		t.Error(ip)
	}

	if _, err = r.lookup(ctx, "missing.test"); err == nil || !strings.Contains(err.Error(), "NXDOMAIN") {
		t.Error(err)
	}
	if _, err = r.lookup(ctx, "empty.test"); err != errNoAddress {
		t.Error(err)
	}
}

func TestSampleThroughNameserver(t *testing.T) {
	ntp := newFakeServer(t, serverReply(ModeServer, 2))
	addr := newDNSServer(t, func(w dns.ResponseWriter, r *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(r)
		rr, _ := dns.NewRR(r.Question[0].Name + " 60 IN A 127.0.0.1")
		m.Answer = append(m.Answer, rr)
		w.WriteMsg(m)
	})

	cfg := NewConfig()
	cfg.Port = ntp.port()
	cfg.Timeout = time.Second
	s := newSampler(cfg, newNameserverResolver(addr, time.Second), nil, nil)
	r := s.Sample(context.Background(), "ntp.test", 2)
	if !r.OK() || r.SuccessCount != 2 {
		t.Fatal(r.Err())
	}
}
