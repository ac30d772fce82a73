package sip

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// Request is a SIP request (RFC 3261 §7.1): a method, a Request-URI, and
// a header/body set.
type Request struct {
	MessageData
	Method    RequestMethod
	Recipient Uri

	// Laddr is the local socket the request was (or will be) sent from.
	Laddr Endpoint
	// raddr is the remote socket, once resolved from the top Via/Route.
	raddr Endpoint
}

// NewRequest builds the request line; no headers are added. Call
// AppendHeader for headers and SetBody to set the body and its
// Content-Length.
func NewRequest(method RequestMethod, recipient Uri) *Request {
	req := &Request{}
	req.SipVersion = sipVersion
	req.HeaderSet = HeaderSet{headerOrder: make([]Header, 0, 10)}
	req.Method = method
	req.Recipient = recipient.Clone()
	return req
}

func (req *Request) Short() string {
	if req == nil {
		return "<nil>"
	}
	return fmt.Sprintf("request method=%s recipient=%s transport=%s source=%s",
		req.Method, req.Recipient.String(), req.Transport(), req.Source())
}

// StartLine returns the Request-Line (RFC 3261 §7.1).
func (req *Request) StartLine() string {
	var b strings.Builder
	req.StartLineWrite(&b)
	return b.String()
}

func (req *Request) StartLineWrite(buffer io.StringWriter) {
	buffer.WriteString(string(req.Method))
	buffer.WriteString(" ")
	buffer.WriteString(req.Recipient.String())
	buffer.WriteString(" ")
	buffer.WriteString(req.SipVersion)
}

func (req *Request) String() string {
	var b strings.Builder
	req.StringWrite(&b)
	return b.String()
}

func (req *Request) StringWrite(buffer io.StringWriter) {
	req.StartLineWrite(buffer)
	buffer.WriteString(CRLF)
	req.HeaderSet.StringWrite(buffer)
	buffer.WriteString(CRLF)
	buffer.WriteString(CRLF)
	if req.body != nil {
		buffer.WriteString(string(req.body))
	}
}

// Clone performs a deep clone of the request, including the body.
func (req *Request) Clone() *Request { return cloneRequest(req) }

func (req *Request) IsInvite() bool { return req.Method == INVITE }
func (req *Request) IsAck() bool    { return req.Method == ACK }
func (req *Request) IsCancel() bool { return req.Method == CANCEL }

// Transport resolves the wire transport: explicit override, else the
// ;transport= param of the top Route (or Recipient) URI, else the top
// Via's transport, else UDP; a sips URI upgrades TCP to TLS and WS to WSS.
func (req *Request) Transport() string {
	if tp := req.MessageData.Transport(); tp != "" {
		return tp
	}

	tp := DefaultTransport
	if via, ok := req.Via(); ok && via.Transport != "" {
		tp = via.Transport
	}

	uri := req.Recipient
	if route, ok := req.Route(); ok {
		uri = route.Address
	}
	if val, ok := uri.UriParams.Get("transport"); ok && val != "" {
		tp = ASCIIToUpper(val)
	}

	if uri.IsEncrypted() {
		switch tp {
		case TransportTCP:
			tp = TransportTLS
		case TransportWS:
			tp = TransportWSS
		}
	}
	return tp
}

// Source returns the host:port the request should be considered to have
// arrived from: an explicit SetSource override, else derived from the
// top Via (honouring RFC 3581 received/rport).
func (req *Request) Source() string {
	if src := req.MessageData.Source(); src != "" {
		return src
	}
	return req.sourceVia()
}

func (req *Request) sourceVia() string {
	host, port := req.sourceViaHostPort()
	if host == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", host, port)
}

func (req *Request) sourceViaHostPort() (string, int) {
	via, ok := req.Via()
	if !ok {
		return "", 0
	}

	host := via.Host
	port := via.Port
	if port == 0 {
		port = DefaultPort(req.Transport())
	}

	if received, ok := via.Params.Get("received"); ok && received != "" {
		host = received
	}
	if rport, ok := via.Params.Get("rport"); ok && rport != "" {
		if p, err := strconv.Atoi(rport); err == nil {
			port = p
		}
	}
	return host, port
}

// Destination returns the host:port the request should be sent to: an
// explicit SetDestination override, else the top Route entry, else the
// Request-URI.
func (req *Request) Destination() string {
	if dest := req.MessageData.Destination(); dest != "" {
		return dest
	}

	uri := req.Recipient
	if route, ok := req.Route(); ok {
		uri = route.Address
	}

	port := uri.Port
	if port == 0 {
		port = DefaultPort(req.Transport())
	}
	return fmt.Sprintf("%s:%d", uri.Host, port)
}

func (req *Request) remoteAddress() Endpoint { return req.raddr }

// IsLoop implements the RFC 3261 §16.3 step 4 loop check: true if some Via
// already on the request carries the given sent-by host and port together
// with the given branch. Unlike HasLooped (which recomputes a deterministic
// branch and compares it), this walks the Via chain as received and compares
// against values a proxy already has in hand for itself.
func (req *Request) IsLoop(host string, port int, branch string) bool {
	via, ok := req.Via()
	if !ok {
		return false
	}
	for v := via; v != nil; v = v.Next {
		if v.Host != host || v.Port != port {
			continue
		}
		if b, hasBranch := v.Branch(); hasBranch && b == branch {
			return true
		}
	}
	return false
}

// NewAckForNon2xx builds the ACK for a non-2xx final response to an INVITE
// (RFC 3261 §17.1.1.3). This is the transaction-layer ACK, sent by whatever
// client transaction owns the original INVITE; it is not the dialog-level
// ACK to a 2xx (there is no such helper here since a 2xx ACK is itself a
// dialog request, covered by Dialog.BuildRequest in the root package).
func NewAckForNon2xx(inviteRequest *Request, inviteResponse *Response, body []byte) *Request {
	ackRequest := NewRequest(ACK, inviteRequest.Recipient.Clone())
	ackRequest.SipVersion = inviteRequest.SipVersion

	// The ACK MUST carry the same top Via as the original request.
	CopyHeaders("Via", inviteRequest, ackRequest)

	if len(inviteRequest.GetHeaders("Route")) > 0 {
		CopyHeaders("Route", inviteRequest, ackRequest)
	} else if route := reverseRecordRouteToRoute(inviteResponse.GetHeaders("Record-Route")); route != nil {
		ackRequest.AppendHeader(route)
	}

	maxForwards := MaxForwardsHeader(70)
	ackRequest.AppendHeader(&maxForwards)

	if h, ok := inviteRequest.From(); ok {
		ackRequest.AppendHeader(h.headerClone())
	}
	if h, ok := inviteResponse.To(); ok {
		ackRequest.AppendHeader(h.headerClone())
	}
	if h, ok := inviteRequest.CallID(); ok {
		ackRequest.AppendHeader(h.headerClone())
	}
	if h, ok := inviteRequest.CSeq(); ok {
		clone := h.headerClone().(*CSeqHeader)
		clone.MethodName = ACK
		ackRequest.AppendHeader(clone)
	}
	if h, ok := inviteRequest.Contact(); ok {
		ackRequest.AppendHeader(h.headerClone())
	}

	ackRequest.SetBody(body)
	ackRequest.SetTransport(inviteRequest.Transport())
	ackRequest.SetSource(inviteRequest.Source())
	ackRequest.Laddr = inviteRequest.Laddr
	return ackRequest
}

// reverseRecordRouteToRoute turns a response's Record-Route entries,
// outer-list order reversed, into a single Route chain for an ACK whose
// request carries no Route set of its own.
func reverseRecordRouteToRoute(recordRoutes []Header) *RouteHeader {
	var head, tail *RouteHeader
	for i := len(recordRoutes) - 1; i >= 0; i-- {
		rr, ok := recordRoutes[i].(*RecordRouteHeader)
		if !ok {
			continue
		}
		for _, addr := range rr.Entries() {
			entry := &RouteHeader{Address: addr.Clone()}
			if head == nil {
				head = entry
			} else {
				tail.Next = entry
			}
			tail = entry
		}
	}
	return head
}

// NewCancel builds a CANCEL for a pending, not-yet-finalized request
// (RFC 3261 §9.1): same Request-URI, same top Via/branch, same
// dialog-identifying headers, CSeq method swapped to CANCEL.
func NewCancel(requestForCancel *Request) *Request {
	cancelReq := NewRequest(CANCEL, requestForCancel.Recipient.Clone())
	cancelReq.SipVersion = requestForCancel.SipVersion

	if via, ok := requestForCancel.Via(); ok {
		cancelReq.AppendHeader(via.Clone())
	}
	CopyHeaders("Route", requestForCancel, cancelReq)

	maxForwards := MaxForwardsHeader(70)
	cancelReq.AppendHeader(&maxForwards)

	if h, ok := requestForCancel.From(); ok {
		cancelReq.AppendHeader(h.headerClone())
	}
	if h, ok := requestForCancel.To(); ok {
		cancelReq.AppendHeader(h.headerClone())
	}
	if h, ok := requestForCancel.CallID(); ok {
		cancelReq.AppendHeader(h.headerClone())
	}
	if h, ok := requestForCancel.CSeq(); ok {
		clone := h.headerClone().(*CSeqHeader)
		clone.MethodName = CANCEL
		cancelReq.AppendHeader(clone)
	}

	cancelReq.SetTransport(requestForCancel.Transport())
	cancelReq.SetSource(requestForCancel.Source())
	cancelReq.SetDestination(requestForCancel.Destination())
	return cancelReq
}

func cloneRequest(req *Request) *Request {
	newReq := NewRequest(req.Method, req.Recipient.Clone())
	newReq.SipVersion = req.SipVersion

	for _, h := range req.CloneHeaders() {
		newReq.AppendHeader(h)
	}
	newReq.SetBody(slices.Clone(req.Body()))
	newReq.SetTransport(req.MessageData.Transport())
	newReq.SetSource(req.MessageData.Source())
	newReq.SetDestination(req.MessageData.Destination())
	newReq.raddr = req.raddr
	newReq.Laddr = req.Laddr
	return newReq
}
