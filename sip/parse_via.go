package sip

import "strings"

// ParseViaValue parses a (possibly comma-separated) Via header value into
// a chain of ViaHeader entries, e.g.
// "SIP/2.0/UDP host:5060;branch=z9hG4bK-1, SIP/2.0/UDP host2:5060".
func ParseViaValue(text string) (*ViaHeader, error) {
	var head, tail *ViaHeader
	for _, part := range SplitQuoted(text, ',') {
		hop, err := parseViaHop(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		if head == nil {
			head = hop
		} else {
			tail.Next = hop
		}
		tail = hop
	}
	if head == nil {
		return nil, newValidationError("Via", StatusBadRequest, "empty Via header")
	}
	return head, nil
}

func parseViaHop(s string) (*ViaHeader, error) {
	spaceIdx := strings.IndexByte(s, ' ')
	if spaceIdx < 0 {
		return nil, newValidationError("Via", StatusBadRequest, "malformed Via %q", s)
	}
	sentProtocol := s[:spaceIdx]
	rest := strings.TrimSpace(s[spaceIdx+1:])

	protoParts := strings.Split(sentProtocol, "/")
	if len(protoParts) != 3 {
		return nil, newValidationError("Via", StatusBadRequest, "malformed sent-protocol %q", sentProtocol)
	}

	v := &ViaHeader{
		ProtocolName:    protoParts[0],
		ProtocolVersion: protoParts[1],
		Transport:       ASCIIToUpper(protoParts[2]),
		Params:          NewParams(),
	}

	hostPort := rest
	var paramTail string
	if semi := findUnescapedByte(rest, ';'); semi >= 0 {
		hostPort = rest[:semi]
		paramTail = rest[semi+1:]
	}
	hostPort = strings.TrimSpace(hostPort)

	host, port, _, err := splitHostPortTail(hostPort)
	if err != nil {
		return nil, err
	}
	v.Host = host
	v.Port = port

	if paramTail != "" {
		if _, err := UnmarshalHeaderParams(paramTail, ';', 0, &v.Params); err != nil {
			return nil, err
		}
	}

	return v, nil
}
