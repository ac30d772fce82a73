package sip

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Endpoint is an immutable (protocol, ip, port) socket address. Port is
// defaulted from protocol when zero. This replaces the teacher's
// internally-inconsistent Addr type (one definition lacked Hostname
// while a caller constructed it with that field).
type Endpoint struct {
	Protocol string
	IP       net.IP
	Port     int
}

// NewEndpoint builds an Endpoint, defaulting Port from protocol if zero.
func NewEndpoint(protocol string, ip net.IP, port int) Endpoint {
	if port == 0 {
		port = DefaultPort(protocol)
	}
	return Endpoint{Protocol: ASCIIToUpper(protocol), IP: ip, Port: port}
}

// ParseEndpoint parses "proto:ip:port" or "ip:port" (protocol defaults to
// UDP) into an Endpoint.
func ParseEndpoint(s string) (Endpoint, error) {
	parts := strings.Split(s, ":")
	switch len(parts) {
	case 2:
		ip := net.ParseIP(parts[0])
		if ip == nil {
			return Endpoint{}, fmt.Errorf("sip: invalid endpoint ip %q", parts[0])
		}
		port, err := strconv.Atoi(parts[1])
		if err != nil {
			return Endpoint{}, fmt.Errorf("sip: invalid endpoint port %q", parts[1])
		}
		return NewEndpoint(DefaultTransport, ip, port), nil
	case 3:
		ip := net.ParseIP(parts[1])
		if ip == nil {
			return Endpoint{}, fmt.Errorf("sip: invalid endpoint ip %q", parts[1])
		}
		port, err := strconv.Atoi(parts[2])
		if err != nil {
			return Endpoint{}, fmt.Errorf("sip: invalid endpoint port %q", parts[2])
		}
		return NewEndpoint(parts[0], ip, port), nil
	default:
		return Endpoint{}, fmt.Errorf("sip: malformed endpoint %q", s)
	}
}

// EndpointFromURI builds an Endpoint from a URI whose host is a literal
// IP (hostnames are rejected: this core does not resolve DNS).
func EndpointFromURI(u Uri) (Endpoint, error) {
	host := u.Host
	if strings.HasPrefix(host, "[") && strings.HasSuffix(host, "]") {
		host = host[1 : len(host)-1]
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return Endpoint{}, fmt.Errorf("sip: uri host %q is not a literal IP", u.Host)
	}
	return NewEndpoint(u.Protocol(), ip, u.Port), nil
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%s:%d", ASCIIToLower(e.Protocol), e.IP.String(), e.Port)
}

// HostPort renders "ip:port" without the protocol prefix, as used by
// SentBy / received-from comparisons.
func (e Endpoint) HostPort() string {
	return fmt.Sprintf("%s:%d", e.IP.String(), e.Port)
}

// IsPrivateIPv4 reports whether e's address is an RFC 1918 private IPv4.
func (e Endpoint) IsPrivateIPv4() bool {
	ip4 := e.IP.To4()
	if ip4 == nil {
		return false
	}
	switch {
	case ip4[0] == 10:
		return true
	case ip4[0] == 172 && ip4[1] >= 16 && ip4[1] <= 31:
		return true
	case ip4[0] == 192 && ip4[1] == 168:
		return true
	default:
		return false
	}
}
