package sip

import (
	"io"

	"github.com/google/uuid"
)

// MessageHandler receives a parsed message; used by callers that wire a
// Parser output into a transport-level dispatch loop.
type MessageHandler func(msg Message)

// MessageID is an opaque generation-time identifier, not part of the SIP
// wire format; used internally for logging/correlation.
type MessageID string

// NextMessageID returns a fresh random MessageID.
func NextMessageID() MessageID {
	return MessageID(uuid.NewString())
}

// Message is the common surface of Request and Response: header access
// plus body and transport-routing metadata.
type Message interface {
	StartLine() string
	StartLineWrite(io.StringWriter)
	String() string
	StringWrite(io.StringWriter)
	Short() string

	Headers() []Header
	GetHeaders(name string) []Header
	GetHeader(name string) Header
	PrependHeader(header ...Header)
	AppendHeader(header Header)
	AppendHeaderAfter(header Header, name string)
	RemoveHeader(name string)
	ReplaceHeader(header Header)

	CallID() (*CallIDHeader, bool)
	Via() (*ViaHeader, bool)
	From() (*FromHeader, bool)
	To() (*ToHeader, bool)
	CSeq() (*CSeqHeader, bool)
	Contact() (*ContactHeader, bool)
	ContentLength() (*ContentLengthHeader, bool)
	ContentType() (*ContentTypeHeader, bool)
	MaxForwards() (*MaxForwardsHeader, bool)
	Route() (*RouteHeader, bool)
	RecordRoute() (*RecordRouteHeader, bool)

	Body() []byte
	SetBody(body []byte)

	Transport() string
	SetTransport(tp string)
	Source() string
	SetSource(src string)
	Destination() string
	SetDestination(dest string)
}

// MessageData is the shared state Request and Response embed.
type MessageData struct {
	HeaderSet
	SipVersion string
	body       []byte
	tp         string

	src  string
	dest string
}

func (msg *MessageData) Body() []byte { return msg.body }

// SetBody replaces the body and keeps the Content-Length header in sync.
func (msg *MessageData) SetBody(body []byte) {
	msg.body = body
	length := ContentLengthHeader(len(body))

	if hdr, exists := msg.ContentLength(); exists {
		if *hdr == length {
			return
		}
		msg.ReplaceHeader(&length)
		return
	}
	msg.AppendHeader(&length)
}

func (msg *MessageData) Transport() string    { return msg.tp }
func (msg *MessageData) SetTransport(tp string) { msg.tp = tp }
func (msg *MessageData) Source() string       { return msg.src }
func (msg *MessageData) SetSource(src string) { msg.src = src }
func (msg *MessageData) Destination() string  { return msg.dest }
func (msg *MessageData) SetDestination(dest string) { msg.dest = dest }
