package sip

import (
	"strconv"
	"strings"
)

// ParseUri converts a wire-form URI into a Uri value, following RFC 3261
// §19.1.1: sip:user:password@host:port;uri-parameters?headers. The
// literal "*" is accepted as the REGISTER remove-all wildcard URI. If
// the input carries no recognised scheme, ParseUriRelaxed should be used
// instead (it retries with a default "sip:" prefix).
func ParseUri(uriStr string) (Uri, error) {
	if len(uriStr) == 0 {
		return Uri{}, newValidationError("URI", StatusBadRequest, "empty URI")
	}

	if uriStr == "*" {
		return Uri{Wildcard: true}, nil
	}

	// RFC 5118 §4.10 robustness: collapse a run of ":::" before any
	// further parsing. This is deliberately applied to the raw wire text,
	// not just to a recognised IPv6 literal, matching the permissive
	// normalization the spec calls for.
	uriStr = squeezeColons(uriStr)

	colInd := strings.Index(uriStr, ":")
	if colInd == -1 {
		return Uri{}, newValidationError("URI", StatusUnsupportedURIScheme, "missing protocol scheme in %q", uriStr)
	}

	scheme := ASCIIToLower(uriStr[:colInd])
	if scheme != "sip" && scheme != "sips" {
		return Uri{}, newValidationError("URI", StatusUnsupportedURIScheme, "unsupported scheme %q", scheme)
	}

	u := Uri{Scheme: scheme}
	rest := uriStr[colInd+1:]

	userPart, hostPart := splitUserHost(rest)
	if userPart != "" {
		if i := strings.IndexByte(userPart, ':'); i >= 0 {
			u.User = UnescapeParamValue(userPart[:i])
			u.Password = userPart[i+1:]
		} else {
			u.User = UnescapeParamValue(userPart)
		}
	}

	host, port, paramsAndHeaders, err := splitHostPortTail(hostPart)
	if err != nil {
		return Uri{}, err
	}
	u.Host = host
	u.Port = port
	if host == "*" && u.User == "" && port == 0 {
		u.Wildcard = true
	}

	u.UriParams = NewParams()
	u.Headers = NewParams()
	if paramsAndHeaders != "" {
		n, err := UnmarshalHeaderParams(paramsAndHeaders, ';', '?', &u.UriParams)
		if err != nil {
			return Uri{}, err
		}
		if n < len(paramsAndHeaders) && paramsAndHeaders[n] == '?' {
			if _, err := UnmarshalHeaderParams(paramsAndHeaders[n+1:], '&', 0, &u.Headers); err != nil {
				return Uri{}, err
			}
		}
	}

	return u, nil
}

// ParseUriRelaxed parses uriStr as-is; if that fails because uriStr carries
// no scheme (see lacksScheme), it retries with a "sip:" prefix prepended.
// Input with some other scheme, such as "tel:", is not retried.
func ParseUriRelaxed(uriStr string) (Uri, error) {
	u, err := ParseUri(uriStr)
	if err == nil {
		return u, nil
	}
	if ve, ok := err.(*ValidationError); ok && ve.SuggestedCode == StatusUnsupportedURIScheme && lacksScheme(uriStr) {
		return ParseUri("sip:" + uriStr)
	}
	return Uri{}, err
}

// ParseUriRelaxedWithConfig is ParseUriRelaxed, prefixing cfg.DefaultScheme
// (falling back to "sip") instead of a hardcoded "sip:" when uriStr carries
// no scheme at all.
func ParseUriRelaxedWithConfig(uriStr string, cfg Config) (Uri, error) {
	u, err := ParseUri(uriStr)
	if err == nil {
		return u, nil
	}
	ve, ok := err.(*ValidationError)
	if !ok || ve.SuggestedCode != StatusUnsupportedURIScheme || !lacksScheme(uriStr) {
		return Uri{}, err
	}
	scheme := cfg.DefaultScheme
	if scheme == "" {
		scheme = "sip"
	}
	return ParseUri(scheme + ":" + uriStr)
}

// lacksScheme reports whether uriStr has no scheme prefix: it contains no
// ':' at all, or its first ':' follows a user part or a dotted host (as in
// "alice@host:5060" or "host.example.com:5060") rather than a scheme name.
func lacksScheme(uriStr string) bool {
	colInd := strings.IndexByte(uriStr, ':')
	return colInd < 0 || strings.ContainsAny(uriStr[:colInd], "@.")
}

func squeezeColons(s string) string {
	for strings.Contains(s, ":::") {
		s = strings.ReplaceAll(s, ":::", "::")
	}
	return s
}

// splitUserHost splits "user[:password]@host..." on the first '@'; with no
// '@' the whole string is the host part.
func splitUserHost(s string) (user, hostTail string) {
	if i := strings.IndexByte(s, '@'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return "", s
}

// rejectHostChars enforces the host-validation rule that ',' and '"' can
// never appear in a SIP-URI host, bracketed or not.
func rejectHostChars(host string) error {
	if strings.ContainsAny(host, ",\"") {
		return newValidationError("URI", StatusBadRequest, "invalid character in host %q", host)
	}
	return nil
}

// splitHostPortTail parses "host[:port][;params][?headers]" where host
// may be a bracketed IPv6 literal.
func splitHostPortTail(s string) (host string, port int, tail string, err error) {
	if strings.HasPrefix(s, "[") {
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return "", 0, "", newValidationError("URI", StatusBadRequest, "unterminated IPv6 literal in %q", s)
		}
		host = s[:end+1]
		if err := rejectHostChars(host); err != nil {
			return "", 0, "", err
		}
		rest := s[end+1:]
		if rest == "" {
			return host, 0, "", nil
		}
		if rest[0] != ':' && rest[0] != ';' && rest[0] != '?' {
			return "", 0, "", newValidationError("URI", StatusBadRequest, "malformed URI after IPv6 literal %q", s)
		}
		if rest[0] == ':' {
			rest = rest[1:]
			end2 := strings.IndexAny(rest, ";?")
			portStr := rest
			if end2 >= 0 {
				portStr = rest[:end2]
				tail = rest[end2:]
			}
			p, perr := strconv.Atoi(portStr)
			if perr != nil {
				return "", 0, "", newValidationError("URI", StatusBadRequest, "invalid port %q", portStr)
			}
			return host, p, tail, nil
		}
		return host, 0, rest, nil
	}

	// Unbracketed: a host containing more than one ':' must have been
	// bracketed. We reject that case rather than silently guessing where
	// the port starts.
	end := strings.IndexAny(s, ";?")
	head := s
	if end >= 0 {
		head = s[:end]
		tail = s[end:]
	}
	if strings.Count(head, ":") > 1 {
		return "", 0, "", newValidationError("URI", StatusBadRequest, "unbracketed IPv6 host %q", head)
	}
	if i := strings.IndexByte(head, ':'); i >= 0 {
		host = head[:i]
		if err := rejectHostChars(host); err != nil {
			return "", 0, "", err
		}
		p, perr := strconv.Atoi(head[i+1:])
		if perr != nil {
			return "", 0, "", newValidationError("URI", StatusBadRequest, "invalid port %q", head[i+1:])
		}
		return host, p, tail, nil
	}
	if err := rejectHostChars(head); err != nil {
		return "", 0, "", err
	}
	return head, 0, tail, nil
}
