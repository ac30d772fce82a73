package sip

// Config bundles the small set of wire-format choices a parser or framer
// needs from its caller: the scheme assumed when relaxed URI parsing has
// to guess, the transport assumed when a message carries none, the
// maximum size a single message may frame to, and any additional compact
// header forms beyond the built-in ones. It is a plain value, passed by
// value to NewParser (via WithParserConfig), FrameWithConfig and
// ParseUriRelaxedWithConfig rather than mutated after construction.
type Config struct {
	// DefaultScheme is used by ParseUriRelaxed-driven callers when no
	// scheme can be inferred. Defaults to "sip" when empty.
	DefaultScheme string
	// DefaultTransport is assumed for a message that names none.
	// Defaults to TransportUDP when empty.
	DefaultTransport string
	// MaxMessageBytes caps a single framed message. Zero selects
	// DefaultMaxReceiveLength.
	MaxMessageBytes int
	// Encodings maps additional compact header forms ("x" -> "X-Custom")
	// on top of the RFC 3261 §7.3.3 built-in set.
	Encodings map[string]string
}

// DefaultConfig returns the zero-value Config resolved against its
// documented defaults.
func DefaultConfig() Config {
	return Config{
		DefaultScheme:    "sip",
		DefaultTransport: TransportUDP,
		MaxMessageBytes:  DefaultMaxReceiveLength,
	}
}

func (c Config) maxMessageBytes() int {
	if c.MaxMessageBytes <= 0 {
		return DefaultMaxReceiveLength
	}
	return c.MaxMessageBytes
}

func (c Config) defaultTransport() string {
	return c.ResolvedTransport()
}

// ResolvedTransport returns DefaultTransport, falling back to
// TransportUDP when unset.
func (c Config) ResolvedTransport() string {
	if c.DefaultTransport == "" {
		return TransportUDP
	}
	return c.DefaultTransport
}
