package sip

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
)

// Response is a SIP response (RFC 3261 §7.2).
type Response struct {
	MessageData

	Reason     string
	StatusCode int

	raddr Endpoint
}

// NewResponse builds the status line; no headers are added.
func NewResponse(statusCode int, reason string) *Response {
	res := &Response{}
	res.SipVersion = sipVersion
	res.HeaderSet = HeaderSet{headerOrder: make([]Header, 0, 10)}
	res.StatusCode = statusCode
	res.Reason = reason
	return res
}

func (res *Response) Short() string {
	if res == nil {
		return "<nil>"
	}
	return fmt.Sprintf("response status=%d reason=%s transport=%s source=%s",
		res.StatusCode, res.Reason, res.Transport(), res.Source())
}

// StartLine returns the Status-Line (RFC 3261 §7.2).
func (res *Response) StartLine() string {
	var b strings.Builder
	res.StartLineWrite(&b)
	return b.String()
}

func (res *Response) StartLineWrite(buffer io.StringWriter) {
	buffer.WriteString(res.SipVersion)
	buffer.WriteString(" ")
	buffer.WriteString(strconv.Itoa(res.StatusCode))
	buffer.WriteString(" ")
	buffer.WriteString(res.Reason)
}

func (res *Response) String() string {
	var b strings.Builder
	res.StringWrite(&b)
	return b.String()
}

func (res *Response) StringWrite(buffer io.StringWriter) {
	res.StartLineWrite(buffer)
	buffer.WriteString(CRLF)
	res.HeaderSet.StringWrite(buffer)
	buffer.WriteString(CRLF)
	buffer.WriteString(CRLF)
	if res.body != nil {
		buffer.WriteString(string(res.body))
	}
}

func (res *Response) Clone() *Response { return cloneResponse(res) }

func (res *Response) IsProvisional() bool { return res.StatusCode < 200 }
func (res *Response) IsSuccess() bool     { return res.StatusCode >= 200 && res.StatusCode < 300 }
func (res *Response) IsRedirection() bool { return res.StatusCode >= 300 && res.StatusCode < 400 }
func (res *Response) IsClientError() bool { return res.StatusCode >= 400 && res.StatusCode < 500 }
func (res *Response) IsServerError() bool { return res.StatusCode >= 500 && res.StatusCode < 600 }
func (res *Response) IsGlobalError() bool { return res.StatusCode >= 600 }

func (res *Response) IsAck() bool {
	cseq, ok := res.CSeq()
	return ok && cseq.MethodName == ACK
}

func (res *Response) IsCancel() bool {
	cseq, ok := res.CSeq()
	return ok && cseq.MethodName == CANCEL
}

func (res *Response) Transport() string {
	if tp := res.MessageData.Transport(); tp != "" {
		return tp
	}
	if via, ok := res.Via(); ok && via.Transport != "" {
		return via.Transport
	}
	return DefaultTransport
}

// Destination returns the host:port the response should be sent to: an
// explicit SetDestination override, else derived from the top Via
// (honouring RFC 3581 received/rport so symmetric NATs are traversed).
func (res *Response) Destination() string {
	if dest := res.MessageData.Destination(); dest != "" {
		return dest
	}

	via, ok := res.Via()
	if !ok {
		return ""
	}

	host := via.Host
	port := via.Port
	if port == 0 {
		port = DefaultPort(res.Transport())
	}
	if received, ok := via.Params.Get("received"); ok && received != "" {
		host = received
	}
	if rport, ok := via.Params.Get("rport"); ok && rport != "" {
		if p, err := strconv.Atoi(rport); err == nil {
			port = p
		}
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// NewResponseFromRequest builds a response to req per RFC 3261 §8.2.6:
// copies Record-Route, Via, From, To, Call-ID and CSeq; stamps a local
// tag onto To for any status but 100; fills in the RFC 3581 rport
// received/rport pair on the copied top Via when the request asked for
// it with an empty rport value.
func NewResponseFromRequest(req *Request, statusCode int, reason string, body []byte) *Response {
	res := NewResponse(statusCode, reason)
	res.SipVersion = req.SipVersion

	CopyHeaders("Record-Route", req, res)
	CopyHeaders("Via", req, res)
	if h, ok := req.From(); ok {
		res.AppendHeader(h.headerClone())
	}
	if h, ok := req.To(); ok {
		res.AppendHeader(h.headerClone())
	}
	if h, ok := req.CallID(); ok {
		res.AppendHeader(h.headerClone())
	}
	if h, ok := req.CSeq(); ok {
		res.AppendHeader(h.headerClone())
	}

	if via, ok := res.Via(); ok {
		if val, exists := via.Params.GetRaw("rport"); exists && val == "" {
			host, port, err := net.SplitHostPort(req.Source())
			if err == nil {
				via.Params.Add("rport", port)
				via.Params.Add("received", host)
			}
		}
	}

	if statusCode == int(StatusTrying) {
		// no tag requirement on 100 Trying (RFC 3261 §8.2.6.2)
	} else if h, ok := res.To(); ok {
		if !h.Params.Has("tag") {
			h.Params.Add("tag", GenerateTag())
		}
	}

	res.SetBody(body)
	res.SetTransport(req.Transport())

	if req.raddr.IP != nil {
		res.SetDestination(req.raddr.HostPort())
	} else {
		res.SetDestination(req.Source())
	}

	return res
}

func (r *Response) remoteAddress() Endpoint {
	ep, err := ParseEndpoint(r.dest)
	if err != nil {
		return Endpoint{}
	}
	return ep
}

// NewSDPResponseFromRequest wraps a 200 OK carrying an SDP body; the
// body itself is opaque to this codec.
func NewSDPResponseFromRequest(req *Request, body []byte) *Response {
	res := NewResponseFromRequest(req, int(StatusOK), "OK", body)
	contentType := ContentTypeHeader("application/sdp")
	res.AppendHeader(&contentType)
	res.SetBody(body)
	return res
}

func cloneResponse(res *Response) *Response {
	newRes := NewResponse(res.StatusCode, res.Reason)
	newRes.SipVersion = res.SipVersion

	for _, h := range res.CloneHeaders() {
		newRes.AppendHeader(h)
	}
	newRes.SetBody(res.Body())
	newRes.SetTransport(res.MessageData.Transport())
	newRes.SetSource(res.MessageData.Source())
	newRes.SetDestination(res.MessageData.Destination())
	newRes.raddr = res.raddr
	return newRes
}

// CopyResponse returns a deep clone of res.
func CopyResponse(res *Response) *Response { return cloneResponse(res) }
