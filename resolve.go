package ntpsync

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/miekg/dns"
)

const maxHostnameLen = 255

var (
	errNoAddress    = errors.New("no ipv4 address")
	errEmptyHost    = errors.New("empty hostname")
	errHostTooLong  = fmt.Errorf("hostname longer than %d", maxHostnameLen)
	errHostBadChars = errors.New("hostname may only contain letters, digits, '.' and '-'")
)

// ValidHostname reports whether host is worth a DNS lookup: non empty, at
// most 255 bytes, ASCII letters, digits, dots and hyphens only.
func ValidHostname(host string) error {
	var err error
	switch {
	case host == "":
		err = errEmptyHost
	case len(host) > maxHostnameLen:
		err = errHostTooLong
	default:
		for i := 0; i < len(host); i++ {
			c := host[i]
			if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
				c >= '0' && c <= '9' || c == '.' || c == '-') {
				err = errHostBadChars
				break
			}
		}
	}
	if err != nil {
		return newError(KindInvalidHostnameSyntax, host, err)
	}
	return nil
}

type resolver interface {
	lookup(ctx context.Context, host string) (net.IP, error)
}

// systemResolver asks the operating system for an A record.
type systemResolver struct {
	r *net.Resolver
}

func (s systemResolver) lookup(ctx context.Context, host string) (net.IP, error) {
	if ip := literalIPv4(host); ip != nil {
		return ip, nil
	}
	ips, err := s.r.LookupIP(ctx, "ip4", host)
	if err != nil {
		return nil, err
	}
	for _, ip := range ips {
		if ip4 := ip.To4(); ip4 != nil {
			return ip4, nil
		}
	}
	return nil, errNoAddress
}

// nameserverResolver sends the A query straight to a configured server.
type nameserverResolver struct {
	server  string
	timeout time.Duration
}

func newNameserverResolver(server string, timeout time.Duration) nameserverResolver {
	if _, _, err := net.SplitHostPort(server); err != nil {
		server = net.JoinHostPort(server, "53")
	}
	return nameserverResolver{server: server, timeout: timeout}
}

func (n nameserverResolver) lookup(ctx context.Context, host string) (net.IP, error) {
	if ip := literalIPv4(host); ip != nil {
		return ip, nil
	}
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), dns.TypeA)
	m.RecursionDesired = true

	c := &dns.Client{Net: "udp", Timeout: n.timeout}
	in, _, err := c.ExchangeContext(ctx, m, n.server)
	if err != nil {
		return nil, err
	}
	if in.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("%s: %s", n.server, dns.RcodeToString[in.Rcode])
	}
	for _, rr := range in.Answer {
		if a, ok := rr.(*dns.A); ok {
			return a.A.To4(), nil
		}
	}
	return nil, errNoAddress
}

func literalIPv4(host string) net.IP {
	ip := net.ParseIP(host)
	if ip == nil {
		return nil
	}
	return ip.To4()
}
