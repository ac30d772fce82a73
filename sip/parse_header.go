package sip

import (
	"strconv"
	"strings"
)

// HeaderParser turns one raw header line's value into a Header. Headers
// that may appear as a comma-separated list on one line (Via, Contact,
// Route, Record-Route) consume the whole value and return a chain linked
// through Next, rather than being called once per list entry.
type HeaderParser func(headerText string) (Header, error)

// HeadersParser dispatches by lower-cased header name, long form or
// RFC 3261 §7.3.3 compact form.
type HeadersParser map[string]HeaderParser

// Compact forms this core recognises:
//
//	c  Content-Type
//	f  From
//	i  Call-ID
//	l  Content-Length
//	m  Contact
//	t  To
//	v  Via
var headersParsers = HeadersParser{
	"content-type":   headerParserContentType,
	"c":              headerParserContentType,
	"from":           headerParserFrom,
	"f":              headerParserFrom,
	"to":             headerParserTo,
	"t":              headerParserTo,
	"contact":        headerParserContact,
	"m":              headerParserContact,
	"call-id":        headerParserCallID,
	"i":              headerParserCallID,
	"cseq":           headerParserCSeq,
	"via":            headerParserVia,
	"v":              headerParserVia,
	"max-forwards":   headerParserMaxForwards,
	"content-length": headerParserContentLength,
	"l":              headerParserContentLength,
	"route":          headerParserRoute,
	"record-route":   headerParserRecordRoute,
	"proxy-received-from": headerParserProxyReceivedFrom,
	"proxy-received-on":   headerParserProxyReceivedOn,
	"proxy-send-from":     headerParserProxySendFrom,
}

// DefaultHeadersParser returns the built-in dispatch table. Callers may
// copy and extend it via functional options on Parser.
func DefaultHeadersParser() HeadersParser {
	out := make(HeadersParser, len(headersParsers))
	for k, v := range headersParsers {
		out[k] = v
	}
	return out
}

// ParseHeaderLine splits one unfolded header line into name/value and
// parses it, returning a GenericHeader for any name with no registered
// parser.
func (hp HeadersParser) ParseHeaderLine(line string) (Header, error) {
	colonIdx := strings.IndexByte(line, ':')
	if colonIdx == -1 {
		return nil, newValidationError("Header", StatusBadRequest, "field name with no value: %q", line)
	}

	fieldName := strings.TrimSpace(line[:colonIdx])
	fieldValue := strings.TrimSpace(line[colonIdx+1:])

	parser, ok := hp[HeaderToLower(fieldName)]
	if !ok {
		return NewHeader(fieldName, fieldValue), nil
	}
	return parser(fieldValue)
}

func headerParserCallID(headerText string) (Header, error) {
	headerText = strings.TrimSpace(headerText)
	if headerText == "" {
		return nil, newValidationError("Call-ID", StatusBadRequest, "empty Call-ID")
	}
	h := CallIDHeader(headerText)
	return &h, nil
}

func headerParserMaxForwards(headerText string) (Header, error) {
	val, err := strconv.ParseUint(strings.TrimSpace(headerText), 10, 32)
	if err != nil {
		return nil, newValidationError("Max-Forwards", StatusBadRequest, "invalid Max-Forwards %q", headerText)
	}
	h := MaxForwardsHeader(val)
	return &h, nil
}

const maxCseq = 2147483647 // 2**31 - 1, RFC 3261 §8.1.1.5

func headerParserCSeq(headerText string) (Header, error) {
	ind := strings.IndexAny(headerText, abnf)
	if ind < 1 || len(headerText)-ind < 2 {
		return nil, newValidationError("CSeq", StatusBadRequest, "malformed CSeq %q", headerText)
	}
	seqno, err := strconv.ParseUint(headerText[:ind], 10, 32)
	if err != nil {
		return nil, newValidationError("CSeq", StatusBadRequest, "invalid CSeq number in %q", headerText)
	}
	if seqno > maxCseq {
		return nil, newValidationError("CSeq", StatusBadRequest, "CSeq %d exceeds 2**31-1", seqno)
	}
	h := CSeqHeader{SeqNo: uint32(seqno), MethodName: RequestMethod(strings.TrimSpace(headerText[ind+1:]))}
	return &h, nil
}

func headerParserContentLength(headerText string) (Header, error) {
	val, err := strconv.ParseUint(strings.TrimSpace(headerText), 10, 32)
	if err != nil {
		return nil, newValidationError("Content-Length", StatusBadRequest, "invalid Content-Length %q", headerText)
	}
	h := ContentLengthHeader(val)
	return &h, nil
}

func headerParserContentType(headerText string) (Header, error) {
	headerText = strings.TrimSpace(headerText)
	if headerText == "" {
		return nil, newValidationError("Content-Type", StatusBadRequest, "empty Content-Type")
	}
	h := ContentTypeHeader(headerText)
	return &h, nil
}

func headerParserFrom(headerText string) (Header, error) {
	uf, err := ParseUserField(headerText)
	if err != nil {
		return nil, err
	}
	if uf.Address.Wildcard {
		return nil, newValidationError("From", StatusBadRequest, "wildcard URI not permitted in From")
	}
	return &FromHeader{UserField: uf}, nil
}

func headerParserTo(headerText string) (Header, error) {
	uf, err := ParseUserField(headerText)
	if err != nil {
		return nil, err
	}
	if uf.Address.Wildcard {
		return nil, newValidationError("To", StatusBadRequest, "wildcard URI not permitted in To")
	}
	return &ToHeader{UserField: uf}, nil
}

func headerParserContact(headerText string) (Header, error) {
	var head, tail *ContactHeader
	for _, part := range splitAddressList(headerText) {
		part = strings.TrimSpace(part)
		uf, err := ParseUserField(part)
		if err != nil {
			return nil, err
		}
		hop := &ContactHeader{UserField: uf}
		if head == nil {
			head = hop
		} else {
			tail.Next = hop
		}
		tail = hop
	}
	if head == nil {
		return nil, newValidationError("Contact", StatusBadRequest, "empty Contact header")
	}
	return head, nil
}

func headerParserVia(headerText string) (Header, error) {
	return ParseViaValue(headerText)
}

func headerParserRoute(headerText string) (Header, error) {
	var head, tail *RouteHeader
	for _, part := range splitAddressList(headerText) {
		uf, err := ParseUserField(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		hop := &RouteHeader{Address: uf.Address}
		if head == nil {
			head = hop
		} else {
			tail.Next = hop
		}
		tail = hop
	}
	if head == nil {
		return nil, newValidationError("Route", StatusBadRequest, "empty Route header")
	}
	return head, nil
}

func headerParserRecordRoute(headerText string) (Header, error) {
	var head, tail *RecordRouteHeader
	for _, part := range splitAddressList(headerText) {
		uf, err := ParseUserField(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		hop := &RecordRouteHeader{Address: uf.Address}
		if head == nil {
			head = hop
		} else {
			tail.Next = hop
		}
		tail = hop
	}
	if head == nil {
		return nil, newValidationError("Record-Route", StatusBadRequest, "empty Record-Route header")
	}
	return head, nil
}

func headerParserProxyReceivedFrom(headerText string) (Header, error) {
	ep, err := ParseEndpoint(strings.TrimSpace(headerText))
	if err != nil {
		return nil, newValidationError("Proxy-Received-From", StatusBadRequest, "%s", err)
	}
	return &ProxyReceivedFromHeader{Endpoint: ep}, nil
}

func headerParserProxyReceivedOn(headerText string) (Header, error) {
	ep, err := ParseEndpoint(strings.TrimSpace(headerText))
	if err != nil {
		return nil, newValidationError("Proxy-Received-On", StatusBadRequest, "%s", err)
	}
	return &ProxyReceivedOnHeader{Endpoint: ep}, nil
}

func headerParserProxySendFrom(headerText string) (Header, error) {
	ep, err := ParseEndpoint(strings.TrimSpace(headerText))
	if err != nil {
		return nil, newValidationError("Proxy-Send-From", StatusBadRequest, "%s", err)
	}
	return &ProxySendFromHeader{Endpoint: ep}, nil
}

// splitAddressList splits a comma-separated list of name-addr/addr-spec
// entries, ignoring commas inside quoted strings or angle brackets.
func splitAddressList(s string) []string {
	var out []string
	depth := 0
	inQuotes := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuotes = !inQuotes
		case '<':
			if !inQuotes {
				depth++
			}
		case '>':
			if !inQuotes && depth > 0 {
				depth--
			}
		case ',':
			if !inQuotes && depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}
