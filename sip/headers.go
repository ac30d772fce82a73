package sip

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Header is a single SIP header. Multi-value headers (Via, Contact,
// Route, Record-Route) implement Header on their first entry and chain
// further values through a Next pointer.
type Header interface {
	Name() string
	Value() string
	String() string
	StringWrite(w io.StringWriter)
	headerClone() Header
}

// HeaderClone returns an independent copy of h.
func HeaderClone(h Header) Header { return h.headerClone() }

// HeaderSet holds a message's headers both as an ordered list (for
// serialization) and as typed fast-access fields (for the common-case
// headers every SIP message touches).
type HeaderSet struct {
	headerOrder []Header

	via           *ViaHeader
	from          *FromHeader
	to            *ToHeader
	callID        *CallIDHeader
	contact       *ContactHeader
	cseq          *CSeqHeader
	contentLength *ContentLengthHeader
	contentType   *ContentTypeHeader
	maxForwards   *MaxForwardsHeader
	route         *RouteHeader
	recordRoute   *RecordRouteHeader
}

func (hs *HeaderSet) String() string {
	var b strings.Builder
	hs.StringWrite(&b)
	return b.String()
}

// headerOrderForWire returns headers in the stable emission order spec
// §4.6 calls for: Via -> Route -> From -> To -> Call-ID -> CSeq ->
// Max-Forwards -> Contact -> Content-Length -> Content-Type -> others.
func (hs *HeaderSet) headerOrderForWire() []Header {
	priority := map[string]int{
		"via": 0, "route": 1, "from": 2, "to": 3, "call-id": 4,
		"cseq": 5, "max-forwards": 6, "contact": 7,
		"content-length": 8, "content-type": 9,
	}
	ordered := make([]Header, len(hs.headerOrder))
	copy(ordered, hs.headerOrder)

	const maxPriority = 1 << 30
	rank := func(h Header) int {
		if p, ok := priority[HeaderToLower(h.Name())]; ok {
			return p
		}
		return maxPriority
	}
	// Stable insertion sort: small header counts, preserves relative
	// order within a priority class and among "others".
	for i := 1; i < len(ordered); i++ {
		j := i
		for j > 0 && rank(ordered[j-1]) > rank(ordered[j]) {
			ordered[j-1], ordered[j] = ordered[j], ordered[j-1]
			j--
		}
	}
	return ordered
}

func (hs *HeaderSet) StringWrite(buffer io.StringWriter) {
	ordered := hs.headerOrderForWire()
	for i, header := range ordered {
		if i > 0 {
			buffer.WriteString(CRLF)
		}
		header.StringWrite(buffer)
	}
}

// AppendHeader adds header to the end of the order and wires the typed
// fast-access field when header is a recognised type.
func (hs *HeaderSet) AppendHeader(header Header) {
	hs.headerOrder = append(hs.headerOrder, header)
	hs.bindTyped(header)
}

func (hs *HeaderSet) bindTyped(header Header) {
	switch h := header.(type) {
	case *ViaHeader:
		hs.via = h
	case *FromHeader:
		hs.from = h
	case *ToHeader:
		hs.to = h
	case *CallIDHeader:
		hs.callID = h
	case *CSeqHeader:
		hs.cseq = h
	case *ContactHeader:
		hs.contact = h
	case *ContentLengthHeader:
		hs.contentLength = h
	case *ContentTypeHeader:
		hs.contentType = h
	case *MaxForwardsHeader:
		hs.maxForwards = h
	case *RouteHeader:
		hs.route = h
	case *RecordRouteHeader:
		hs.recordRoute = h
	}
}

// PrependHeader adds headers to the front of the order.
func (hs *HeaderSet) PrependHeader(headers ...Header) {
	newOrder := make([]Header, 0, len(hs.headerOrder)+len(headers))
	newOrder = append(newOrder, headers...)
	newOrder = append(newOrder, hs.headerOrder...)
	hs.headerOrder = newOrder
	for _, h := range headers {
		hs.bindTyped(h)
	}
}

// AppendHeaderAfter inserts header immediately after the last header
// named name, or appends to the end if name is not present.
func (hs *HeaderSet) AppendHeaderAfter(header Header, name string) {
	nameLower := HeaderToLower(name)
	ind := -1
	for i, h := range hs.headerOrder {
		if HeaderToLower(h.Name()) == nameLower {
			ind = i
		}
	}
	if ind < 0 {
		hs.AppendHeader(header)
		return
	}
	newOrder := make([]Header, 0, len(hs.headerOrder)+1)
	newOrder = append(newOrder, hs.headerOrder[:ind+1]...)
	newOrder = append(newOrder, header)
	newOrder = append(newOrder, hs.headerOrder[ind+1:]...)
	hs.headerOrder = newOrder
	hs.bindTyped(header)
}

// ReplaceHeader replaces the first header with the same name as header,
// or appends it if no such header exists. (The teacher's version
// assigned the pre-existing loop variable back into the slice, a no-op;
// this replaces with the argument.)
func (hs *HeaderSet) ReplaceHeader(header Header) {
	nameLower := HeaderToLower(header.Name())
	for i, h := range hs.headerOrder {
		if HeaderToLower(h.Name()) == nameLower {
			hs.headerOrder[i] = header
			hs.bindTyped(header)
			return
		}
	}
	hs.AppendHeader(header)
}

func (hs *HeaderSet) Headers() []Header { return hs.headerOrder }

func (hs *HeaderSet) GetHeaders(name string) []Header {
	var out []Header
	nameLower := HeaderToLower(name)
	for _, h := range hs.headerOrder {
		if HeaderToLower(h.Name()) == nameLower {
			out = append(out, h)
		}
	}
	return out
}

func (hs *HeaderSet) GetHeader(name string) Header {
	nameLower := HeaderToLower(name)
	for _, h := range hs.headerOrder {
		if HeaderToLower(h.Name()) == nameLower {
			return h
		}
	}
	return nil
}

// RemoveHeader removes the first header named name, then rebinds the typed
// fast-access fields from the headers that remain (the last header of each
// typed kind wins).
func (hs *HeaderSet) RemoveHeader(name string) {
	nameLower := HeaderToLower(name)
	for i, h := range hs.headerOrder {
		if HeaderToLower(h.Name()) == nameLower {
			order := append(hs.headerOrder[:i], hs.headerOrder[i+1:]...)
			*hs = HeaderSet{headerOrder: order}
			for _, rest := range order {
				hs.bindTyped(rest)
			}
			return
		}
	}
}

func (hs *HeaderSet) CloneHeaders() []Header {
	out := make([]Header, 0, len(hs.headerOrder))
	for _, h := range hs.headerOrder {
		out = append(out, h.headerClone())
	}
	return out
}

func (hs *HeaderSet) CallID() (*CallIDHeader, bool)   { return hs.callID, hs.callID != nil }
func (hs *HeaderSet) Via() (*ViaHeader, bool)         { return hs.via, hs.via != nil }
func (hs *HeaderSet) From() (*FromHeader, bool)       { return hs.from, hs.from != nil }
func (hs *HeaderSet) To() (*ToHeader, bool)           { return hs.to, hs.to != nil }
func (hs *HeaderSet) CSeq() (*CSeqHeader, bool)       { return hs.cseq, hs.cseq != nil }
func (hs *HeaderSet) Contact() (*ContactHeader, bool) { return hs.contact, hs.contact != nil }
func (hs *HeaderSet) ContentLength() (*ContentLengthHeader, bool) {
	return hs.contentLength, hs.contentLength != nil
}
func (hs *HeaderSet) ContentType() (*ContentTypeHeader, bool) {
	return hs.contentType, hs.contentType != nil
}
func (hs *HeaderSet) MaxForwards() (*MaxForwardsHeader, bool) {
	return hs.maxForwards, hs.maxForwards != nil
}
func (hs *HeaderSet) Route() (*RouteHeader, bool)             { return hs.route, hs.route != nil }
func (hs *HeaderSet) RecordRoute() (*RecordRouteHeader, bool) { return hs.recordRoute, hs.recordRoute != nil }

// CopyHeaders clones every header named name from 'from' and appends the
// clones to 'to'.
func CopyHeaders(name string, from, to Message) {
	for _, h := range from.GetHeaders(name) {
		to.AppendHeader(h.headerClone())
	}
}

// --- typed headers ---

// FromHeader is the From header: a UserField carrying the local tag.
type FromHeader struct{ UserField }

func (h *FromHeader) Name() string  { return "From" }
func (h *FromHeader) Value() string { return h.UserField.String() }
func (h *FromHeader) String() string {
	return h.Name() + ": " + h.Value()
}
func (h *FromHeader) StringWrite(w io.StringWriter) {
	w.WriteString("From: ")
	h.UserField.StringWrite(w)
}
func (h *FromHeader) headerClone() Header {
	if h == nil {
		return (*FromHeader)(nil)
	}
	return &FromHeader{UserField: h.UserField.Clone()}
}

// ToHeader is the To header: a UserField carrying the remote tag.
type ToHeader struct{ UserField }

func (h *ToHeader) Name() string  { return "To" }
func (h *ToHeader) Value() string { return h.UserField.String() }
func (h *ToHeader) String() string {
	return h.Name() + ": " + h.Value()
}
func (h *ToHeader) StringWrite(w io.StringWriter) {
	w.WriteString("To: ")
	h.UserField.StringWrite(w)
}
func (h *ToHeader) headerClone() Header {
	if h == nil {
		return (*ToHeader)(nil)
	}
	return &ToHeader{UserField: h.UserField.Clone()}
}

// ContactHeader is a Contact entry; multiple comma-separated values chain
// through Next. The wildcard Contact ('*', used by REGISTER) renders
// without angle brackets.
type ContactHeader struct {
	UserField
	Next *ContactHeader
}

func (h *ContactHeader) Name() string { return "Contact" }
func (h *ContactHeader) Value() string {
	var b strings.Builder
	h.ValueStringWrite(&b)
	return b.String()
}
func (h *ContactHeader) String() string { return h.Name() + ": " + h.Value() }
func (h *ContactHeader) StringWrite(w io.StringWriter) {
	w.WriteString("Contact: ")
	h.ValueStringWrite(w)
}
func (h *ContactHeader) ValueStringWrite(buffer io.StringWriter) {
	for hop := h; hop != nil; hop = hop.Next {
		if hop.Address.Wildcard {
			buffer.WriteString("*")
		} else {
			hop.UserField.StringWrite(buffer)
		}
		if hop.Next != nil {
			buffer.WriteString(", ")
		}
	}
}
func (h *ContactHeader) headerClone() Header { return h.Clone() }
func (h *ContactHeader) Clone() *ContactHeader {
	if h == nil {
		return nil
	}
	head := &ContactHeader{UserField: h.UserField.Clone()}
	tail := head
	for hop := h.Next; hop != nil; hop = hop.Next {
		tail.Next = &ContactHeader{UserField: hop.UserField.Clone()}
		tail = tail.Next
	}
	return head
}

// CallIDHeader is the Call-ID header.
type CallIDHeader string

func (h *CallIDHeader) Name() string         { return "Call-ID" }
func (h *CallIDHeader) Value() string        { return string(*h) }
func (h *CallIDHeader) String() string       { return h.Name() + ": " + h.Value() }
func (h *CallIDHeader) StringWrite(w io.StringWriter) { w.WriteString(h.String()) }
func (h *CallIDHeader) headerClone() Header {
	c := *h
	return &c
}

// CSeqHeader is the CSeq header: a sequence number plus the request
// method it was sent with.
type CSeqHeader struct {
	SeqNo      uint32
	MethodName RequestMethod
}

func (h *CSeqHeader) Name() string  { return "CSeq" }
func (h *CSeqHeader) Value() string { return fmt.Sprintf("%d %s", h.SeqNo, h.MethodName) }
func (h *CSeqHeader) String() string { return h.Name() + ": " + h.Value() }
func (h *CSeqHeader) StringWrite(w io.StringWriter) {
	w.WriteString("CSeq: ")
	w.WriteString(strconv.FormatUint(uint64(h.SeqNo), 10))
	w.WriteString(" ")
	w.WriteString(string(h.MethodName))
}
func (h *CSeqHeader) headerClone() Header {
	if h == nil {
		return (*CSeqHeader)(nil)
	}
	c := *h
	return &c
}

// MaxForwardsHeader is the Max-Forwards header.
type MaxForwardsHeader uint32

func (h *MaxForwardsHeader) Name() string  { return "Max-Forwards" }
func (h *MaxForwardsHeader) Value() string { return strconv.Itoa(int(*h)) }
func (h *MaxForwardsHeader) String() string { return h.Name() + ": " + h.Value() }
func (h *MaxForwardsHeader) StringWrite(w io.StringWriter) { w.WriteString(h.String()) }
func (h *MaxForwardsHeader) headerClone() Header {
	c := *h
	return &c
}

// ContentLengthHeader is the Content-Length header.
type ContentLengthHeader uint32

func (h *ContentLengthHeader) Name() string  { return "Content-Length" }
func (h *ContentLengthHeader) Value() string { return strconv.Itoa(int(*h)) }
func (h *ContentLengthHeader) String() string { return h.Name() + ": " + h.Value() }
func (h *ContentLengthHeader) StringWrite(w io.StringWriter) { w.WriteString(h.String()) }
func (h *ContentLengthHeader) headerClone() Header {
	c := *h
	return &c
}

// ContentTypeHeader is the Content-Type header. The body it describes
// (e.g. SDP) is always treated as an opaque string by this core.
type ContentTypeHeader string

func (h *ContentTypeHeader) Name() string  { return "Content-Type" }
func (h *ContentTypeHeader) Value() string { return string(*h) }
func (h *ContentTypeHeader) String() string { return h.Name() + ": " + h.Value() }
func (h *ContentTypeHeader) StringWrite(w io.StringWriter) { w.WriteString(h.String()) }
func (h *ContentTypeHeader) headerClone() Header {
	c := *h
	return &c
}

// ViaHeader is a Via entry; RFC 3261 requires treating a comma-separated
// Via line as multiple values on one logical header, chained via Next.
type ViaHeader struct {
	ProtocolName    string // "SIP"
	ProtocolVersion string // "2.0"
	Transport       string
	Host            string
	Port            int
	Params          HeaderParams
	Next            *ViaHeader
}

// SentBy renders host[:port] as used for loop-detection comparisons.
func (h *ViaHeader) SentBy() string {
	if h.Port > 0 {
		return fmt.Sprintf("%s:%d", h.Host, h.Port)
	}
	return h.Host
}

func (h *ViaHeader) Branch() (string, bool) { return h.Params.Get("branch") }

func (h *ViaHeader) Name() string { return "Via" }
func (h *ViaHeader) Value() string {
	var b strings.Builder
	h.ValueStringWrite(&b)
	return b.String()
}
func (h *ViaHeader) String() string { return h.Name() + ": " + h.Value() }
func (h *ViaHeader) StringWrite(w io.StringWriter) {
	w.WriteString("Via: ")
	h.ValueStringWrite(w)
}
func (h *ViaHeader) ValueStringWrite(buffer io.StringWriter) {
	for hop := h; hop != nil; hop = hop.Next {
		buffer.WriteString(hop.ProtocolName)
		buffer.WriteString("/")
		buffer.WriteString(hop.ProtocolVersion)
		buffer.WriteString("/")
		buffer.WriteString(hop.Transport)
		buffer.WriteString(" ")
		buffer.WriteString(hop.Host)
		if hop.Port > 0 {
			buffer.WriteString(":")
			buffer.WriteString(strconv.Itoa(hop.Port))
		}
		if hop.Params.Length() > 0 {
			buffer.WriteString(";")
			hop.Params.ToStringWrite(';', buffer)
		}
		if hop.Next != nil {
			buffer.WriteString(", ")
		}
	}
}
func (h *ViaHeader) headerClone() Header { return h.Clone() }
func (h *ViaHeader) Clone() *ViaHeader {
	if h == nil {
		return nil
	}
	head := h.cloneFirst()
	tail := head
	for hop := h.Next; hop != nil; hop = hop.Next {
		tail.Next = hop.cloneFirst()
		tail = tail.Next
	}
	return head
}
func (h *ViaHeader) cloneFirst() *ViaHeader {
	c := &ViaHeader{
		ProtocolName:    h.ProtocolName,
		ProtocolVersion: h.ProtocolVersion,
		Transport:       h.Transport,
		Host:            h.Host,
		Port:            h.Port,
		Params:          h.Params.Clone(),
	}
	return c
}

// RouteHeader is a Route entry, chained via Next for a comma-separated
// Route line.
type RouteHeader struct {
	Address Uri
	Next    *RouteHeader
}

func (h *RouteHeader) Name() string { return "Route" }
func (h *RouteHeader) Value() string {
	var b strings.Builder
	h.ValueStringWrite(&b)
	return b.String()
}
func (h *RouteHeader) String() string { return h.Name() + ": " + h.Value() }
func (h *RouteHeader) StringWrite(w io.StringWriter) {
	w.WriteString("Route: ")
	h.ValueStringWrite(w)
}
func (h *RouteHeader) ValueStringWrite(buffer io.StringWriter) {
	for hop := h; hop != nil; hop = hop.Next {
		buffer.WriteString("<")
		hop.Address.StringWrite(buffer)
		buffer.WriteString(">")
		if hop.Next != nil {
			buffer.WriteString(", ")
		}
	}
}
func (h *RouteHeader) headerClone() Header { return h.Clone() }
func (h *RouteHeader) Clone() *RouteHeader {
	if h == nil {
		return nil
	}
	head := &RouteHeader{Address: h.Address.Clone()}
	tail := head
	for hop := h.Next; hop != nil; hop = hop.Next {
		tail.Next = &RouteHeader{Address: hop.Address.Clone()}
		tail = tail.Next
	}
	return head
}

// Entries returns the Route set as a plain slice, in wire order.
func (h *RouteHeader) Entries() []Uri {
	if h == nil {
		return nil
	}
	out := make([]Uri, 0, 2)
	for hop := h; hop != nil; hop = hop.Next {
		out = append(out, hop.Address)
	}
	return out
}

// RecordRouteHeader is a Record-Route entry, chained via Next.
type RecordRouteHeader struct {
	Address Uri
	Next    *RecordRouteHeader
}

func (h *RecordRouteHeader) Name() string { return "Record-Route" }
func (h *RecordRouteHeader) Value() string {
	var b strings.Builder
	h.ValueStringWrite(&b)
	return b.String()
}
func (h *RecordRouteHeader) String() string { return h.Name() + ": " + h.Value() }
func (h *RecordRouteHeader) StringWrite(w io.StringWriter) {
	w.WriteString("Record-Route: ")
	h.ValueStringWrite(w)
}
func (h *RecordRouteHeader) ValueStringWrite(buffer io.StringWriter) {
	for hop := h; hop != nil; hop = hop.Next {
		buffer.WriteString("<")
		hop.Address.StringWrite(buffer)
		buffer.WriteString(">")
		if hop.Next != nil {
			buffer.WriteString(", ")
		}
	}
}
func (h *RecordRouteHeader) headerClone() Header { return h.Clone() }
func (h *RecordRouteHeader) Clone() *RecordRouteHeader {
	if h == nil {
		return nil
	}
	head := &RecordRouteHeader{Address: h.Address.Clone()}
	tail := head
	for hop := h.Next; hop != nil; hop = hop.Next {
		tail.Next = &RecordRouteHeader{Address: hop.Address.Clone()}
		tail = tail.Next
	}
	return head
}

// Entries returns the Record-Route set as a plain slice, in wire order.
func (h *RecordRouteHeader) Entries() []Uri {
	if h == nil {
		return nil
	}
	out := make([]Uri, 0, 2)
	for hop := h; hop != nil; hop = hop.Next {
		out = append(out, hop.Address)
	}
	return out
}

// ProxyReceivedFromHeader is the non-standard ancillary header (spec
// §6.5) an upstream proxy uses to tell the downstream agent the actual
// source address of a message, driving NAT mangling.
type ProxyReceivedFromHeader struct{ Endpoint Endpoint }

func (h *ProxyReceivedFromHeader) Name() string  { return "Proxy-Received-From" }
func (h *ProxyReceivedFromHeader) Value() string { return h.Endpoint.String() }
func (h *ProxyReceivedFromHeader) String() string { return h.Name() + ": " + h.Value() }
func (h *ProxyReceivedFromHeader) StringWrite(w io.StringWriter) { w.WriteString(h.String()) }
func (h *ProxyReceivedFromHeader) headerClone() Header {
	c := *h
	return &c
}

// ProxyReceivedOnHeader is the non-standard ancillary header (spec §6.5)
// an upstream proxy uses to tell the downstream agent which local socket
// it received the call on, propagated onward as proxy_send_from.
type ProxyReceivedOnHeader struct{ Endpoint Endpoint }

func (h *ProxyReceivedOnHeader) Name() string  { return "Proxy-Received-On" }
func (h *ProxyReceivedOnHeader) Value() string { return h.Endpoint.String() }
func (h *ProxyReceivedOnHeader) String() string { return h.Name() + ": " + h.Value() }
func (h *ProxyReceivedOnHeader) StringWrite(w io.StringWriter) { w.WriteString(h.String()) }
func (h *ProxyReceivedOnHeader) headerClone() Header {
	c := *h
	return &c
}

// ProxySendFromHeader carries a dialog's proxy_send_from forward onto an
// in-dialog request (spec §4.7 step 8), so a reply follows the same
// proxy socket the establishing call arrived on.
type ProxySendFromHeader struct{ Endpoint Endpoint }

func (h *ProxySendFromHeader) Name() string  { return "Proxy-Send-From" }
func (h *ProxySendFromHeader) Value() string { return h.Endpoint.String() }
func (h *ProxySendFromHeader) String() string { return h.Name() + ": " + h.Value() }
func (h *ProxySendFromHeader) StringWrite(w io.StringWriter) { w.WriteString(h.String()) }
func (h *ProxySendFromHeader) headerClone() Header {
	c := *h
	return &c
}
