package sip

import (
	"io"
	"strconv"
	"strings"
)

// Uri is a value-typed sip/sips URI. All "modify" operations return a
// new copy rather than mutating in place (spec's CopyOf semantics); the
// zero value is not useful, construct via ParseUri or NewUri.
type Uri struct {
	Scheme   string // "sip" or "sips"
	Wildcard bool   // the special '*' URI (REGISTER remove-all)

	User     string
	Password string

	Host string // DNS name, IPv4 literal, or "[IPv6]"
	Port int    // 0 means "not specified"

	UriParams HeaderParams
	Headers   HeaderParams
}

// NewUri builds a sip/sips URI with the given host.
func NewUri(scheme, user, host string, port int) Uri {
	return Uri{
		Scheme: scheme,
		User:   user,
		Host:   host,
		Port:   port,
	}
}

func (u Uri) IsEncrypted() bool {
	return strings.EqualFold(u.Scheme, "sips")
}

// Protocol derives the transport: tls for sips, else the ;transport=
// param if present and recognised, else udp.
func (u Uri) Protocol() string {
	if u.IsEncrypted() {
		return TransportTLS
	}
	if v, ok := u.UriParams.Get("transport"); ok && v != "" {
		switch tp := ASCIIToUpper(v); tp {
		case TransportUDP, TransportTCP, TransportTLS, TransportWS, TransportWSS:
			return tp
		}
	}
	return DefaultTransport
}

// isDefaultPorted reports whether u.Port is absent or equals the
// protocol default port.
func (u Uri) isDefaultPorted() bool {
	return u.Port == 0 || u.Port == DefaultPort(u.Protocol())
}

// CanonicalAddress is scheme:user@host:port with the port elided when it
// is the protocol default; used for equality and as a map/set key.
func (u Uri) CanonicalAddress() string {
	var b strings.Builder
	b.WriteString(ASCIIToLower(u.Scheme))
	b.WriteByte(':')
	if u.User != "" {
		b.WriteString(u.User)
		b.WriteByte('@')
	}
	b.WriteString(normalizeHost(u.Host))
	if !u.isDefaultPorted() {
		b.WriteByte(':')
		b.WriteString(strconv.Itoa(u.Port))
	}
	return b.String()
}

// Equals implements the "source" (teacher) equality rule documented as
// an Open Question decision in SPEC_FULL.md: CanonicalAddress equality
// plus parameter-map equality plus header-map equality. This is simpler
// than (and a superset of the strictness of) RFC 3261 §19.1.4's
// per-known-parameter comparison.
func (u Uri) Equals(other Uri) bool {
	if u.Wildcard || other.Wildcard {
		return u.Wildcard == other.Wildcard
	}
	return u.CanonicalAddress() == other.CanonicalAddress() &&
		u.UriParams.Equals(other.UriParams) &&
		u.Headers.Equals(other.Headers)
}

// Clone returns an independent copy; param/header maps are deep-copied.
func (u Uri) Clone() Uri {
	c := u
	c.UriParams = u.UriParams.Clone()
	c.Headers = u.Headers.Clone()
	return c
}

// WithTransport returns a copy with the transport parameter set.
func (u Uri) WithTransport(transport string) Uri {
	c := u.Clone()
	if c.UriParams == nil {
		c.UriParams = NewParams()
	}
	c.UriParams.Add("transport", ASCIIToLower(transport))
	return c
}

// WithHost returns a copy with a different host/port, as used by NAT
// mangling; never mutates the receiver.
func (u Uri) WithHost(host string, port int) Uri {
	c := u.Clone()
	c.Host = host
	c.Port = port
	return c
}

// MangleNAT rewrites a private-IPv4 host to the address the message
// actually arrived from. Returns the unmodified URI and false when no
// mangling applies (IPv6/hostnames are never mangled, and a host that
// already matches received is left alone).
func (u Uri) MangleNAT(receivedFrom Endpoint) (Uri, bool) {
	ep, err := EndpointFromURI(u)
	if err != nil || !ep.IsPrivateIPv4() {
		return u, false
	}
	if ep.HostPort() == receivedFrom.HostPort() {
		return u, false
	}
	return u.WithHost(receivedFrom.IP.String(), receivedFrom.Port), true
}

func (u Uri) String() string {
	var b strings.Builder
	u.StringWrite(&b)
	return b.String()
}

func (u Uri) StringWrite(buffer io.StringWriter) {
	if u.Wildcard {
		buffer.WriteString("*")
		return
	}

	buffer.WriteString(ASCIIToLower(u.Scheme))
	buffer.WriteString(":")

	if u.User != "" {
		buffer.WriteString(EscapeParamValue(u.User))
		if u.Password != "" {
			buffer.WriteString(":")
			buffer.WriteString(u.Password)
		}
		buffer.WriteString("@")
	}

	buffer.WriteString(normalizeHost(u.Host))

	if u.Port > 0 {
		buffer.WriteString(":")
		buffer.WriteString(strconv.Itoa(u.Port))
	}

	u.writeParams(buffer)

	if u.Headers.Length() > 0 {
		buffer.WriteString("?")
		u.Headers.ToStringWrite('&', buffer)
	}
}

// writeParams emits ;params, adding an explicit ;transport= when the
// effective protocol is neither the scheme default nor already encoded
// by a transport parameter.
func (u Uri) writeParams(buffer io.StringWriter) {
	params := u.UriParams
	needsTransport := !u.IsEncrypted() && !params.Has("transport") && u.Protocol() != DefaultTransport
	if params.Length() == 0 && !needsTransport {
		return
	}
	buffer.WriteString(";")
	params.ToStringWrite(';', buffer)
	if needsTransport {
		if params.Length() > 0 {
			buffer.WriteString(";")
		}
		buffer.WriteString("transport=")
		buffer.WriteString(ASCIIToLower(u.Protocol()))
	}
}

// ToParameterlessString renders scheme:[user@]host[:port] plus, when
// needed to disambiguate the protocol, ;transport=<proto> — and nothing
// else. Idempotent: re-parsing and re-rendering yields the same string.
func (u Uri) ToParameterlessString() string {
	c := Uri{Scheme: u.Scheme, User: u.User, Host: u.Host, Port: u.Port, Wildcard: u.Wildcard}
	if v, ok := u.UriParams.Get("transport"); ok && !u.IsEncrypted() && u.Protocol() != DefaultTransport {
		c.UriParams = NewParams()
		c.UriParams.Add("transport", v)
	}
	return c.String()
}

// normalizeHost applies the RFC 5118 §4.10 robustness rule: a run of
// ":::" collapses to "::". Only IPv6-looking hosts (containing ':') are
// touched.
func normalizeHost(host string) string {
	if !strings.Contains(host, ":") {
		return host
	}
	for strings.Contains(host, ":::") {
		host = strings.ReplaceAll(host, ":::", "::")
	}
	return host
}
