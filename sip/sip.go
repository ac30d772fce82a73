// Package sip implements a SIP (RFC 3261) message codec: parameter
// grammar, SIP-URI parsing/serialization, and request/response framing
// and parsing. The dialog layer that binds these into call state lives
// in the module root package.
package sip

import (
	"io"
	"strings"
)

// RFC3261BranchMagicCookie prefixes every Via branch parameter produced
// by this codec, identifying it as RFC 3261 compliant (vs. RFC 2543).
const RFC3261BranchMagicCookie = "z9hG4bK"

// CRLF terminates every SIP line on the wire.
const CRLF = "\r\n"

const sipVersion = "SIP/2.0"

// RequestMethod is a SIP method token. Unknown methods round-trip as-is.
type RequestMethod string

func (m RequestMethod) String() string { return string(m) }

const (
	INVITE    RequestMethod = "INVITE"
	ACK       RequestMethod = "ACK"
	CANCEL    RequestMethod = "CANCEL"
	BYE       RequestMethod = "BYE"
	REGISTER  RequestMethod = "REGISTER"
	OPTIONS   RequestMethod = "OPTIONS"
	SUBSCRIBE RequestMethod = "SUBSCRIBE"
	NOTIFY    RequestMethod = "NOTIFY"
	REFER     RequestMethod = "REFER"
	INFO      RequestMethod = "INFO"
	MESSAGE   RequestMethod = "MESSAGE"
	PRACK     RequestMethod = "PRACK"
	UPDATE    RequestMethod = "UPDATE"
	PUBLISH   RequestMethod = "PUBLISH"
)

// StatusCode is a SIP response status code, 1xx-6xx.
type StatusCode int

const (
	StatusTrying               StatusCode = 100
	StatusRinging              StatusCode = 180
	StatusOK                   StatusCode = 200
	StatusMovedTemporarily     StatusCode = 302
	StatusBadRequest           StatusCode = 400
	StatusUnauthorized         StatusCode = 401
	StatusForbidden            StatusCode = 403
	StatusNotFound             StatusCode = 404
	StatusRequestTimeout       StatusCode = 408
	StatusUnsupportedURIScheme StatusCode = 416
	StatusMethodNotAllowed     StatusCode = 405
	StatusNotImplemented       StatusCode = 501
	StatusServerInternalError  StatusCode = 500
	StatusBusyHere             StatusCode = 486
	StatusRequestTerminated    StatusCode = 487
)

// Transport protocol tokens as they appear on the wire (Via, uri
// ;transport= param). Case is normalized to upper-case internally.
const (
	TransportUDP = "UDP"
	TransportTCP = "TCP"
	TransportTLS = "TLS"
	TransportWS  = "WS"
	TransportWSS = "WSS"
)

// DefaultPort returns the RFC 3261 §19.1.2 / RFC 7118 default port for a
// transport token. Unknown transports default to the UDP/TCP port.
func DefaultPort(transport string) int {
	switch ASCIIToUpper(transport) {
	case TransportTLS:
		return 5061
	case TransportWS:
		return 80
	case TransportWSS:
		return 443
	default:
		return 5060
	}
}

// DefaultTransport is used when a URI carries no ;transport= parameter
// and the scheme is not sips.
const DefaultTransport = TransportUDP

// TxSeperator joins dialog identity components (call-id, tags) into a
// single opaque string key.
const TxSeperator = "__"

// GenericHeader carries any header this codec does not model as a typed
// struct; it round-trips verbatim.
type GenericHeader struct {
	HeaderName string
	Contents   string
}

func NewHeader(name, value string) *GenericHeader {
	return &GenericHeader{HeaderName: name, Contents: value}
}

func (h *GenericHeader) Name() string  { return h.HeaderName }
func (h *GenericHeader) Value() string { return h.Contents }

func (h *GenericHeader) String() string {
	var b strings.Builder
	h.StringWrite(&b)
	return b.String()
}

func (h *GenericHeader) StringWrite(w io.StringWriter) {
	w.WriteString(h.HeaderName)
	w.WriteString(": ")
	w.WriteString(h.Contents)
}

func (h *GenericHeader) headerClone() Header {
	if h == nil {
		return (*GenericHeader)(nil)
	}
	c := *h
	return &c
}
