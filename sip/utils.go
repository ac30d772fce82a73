package sip

import (
	"crypto/rand"
	"strings"

	"github.com/google/uuid"
)

// abnf is the whitespace set used throughout header-value scanning,
// matching RFC 3261 Appendix A's LWS definition closely enough for the
// permissive parsing this codec does.
const abnf = " \t\r\n"

const (
	letterBytes = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// RandString returns n random alphanumeric characters. GenerateBranch uses
// it for the random branch suffix; DeterministicBranch in branch.go
// derives branch IDs from a keyed hash instead.
func RandString(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand read failure means the system RNG is broken; there
		// is no sane fallback, so surface a panic rather than return a
		// predictable ID.
		panic(err)
	}
	out := make([]byte, n)
	l := len(letterBytes)
	for i, b := range buf {
		out[i] = letterBytes[int(b)%l]
	}
	return string(out)
}

// GenerateTag returns a fresh opaque From/To tag.
func GenerateTag() string {
	return uuid.NewString()
}

// ASCIIToLower lower-cases ASCII letters only, avoiding an allocation
// when the input is already lower-case.
func ASCIIToLower(s string) string {
	nonLowInd := -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'a' <= c && c <= 'z' {
			continue
		}
		nonLowInd = i
		break
	}
	if nonLowInd < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	b.WriteString(s[:nonLowInd])
	for i := nonLowInd; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}

// ASCIIToUpper is the upper-case counterpart of ASCIIToLower.
func ASCIIToUpper(s string) string {
	nonUpInd := -1
	for i := 0; i < len(s); i++ {
		c := s[i]
		if 'A' <= c && c <= 'Z' {
			continue
		}
		nonUpInd = i
		break
	}
	if nonUpInd < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	b.WriteString(s[:nonUpInd])
	for i := nonUpInd; i < len(s); i++ {
		c := s[i]
		if 'a' <= c && c <= 'z' {
			c -= 'a' - 'A'
		}
		b.WriteByte(c)
	}
	return b.String()
}

// HeaderToLower lower-cases common header names without allocating.
func HeaderToLower(s string) string {
	switch s {
	case "Via", "via":
		return "via"
	case "From", "from":
		return "from"
	case "To", "to":
		return "to"
	case "Call-ID", "call-id", "Call-Id":
		return "call-id"
	case "Contact", "contact":
		return "contact"
	case "CSeq", "CSEQ", "cseq":
		return "cseq"
	case "Content-Type", "content-type":
		return "content-type"
	case "Content-Length", "content-length":
		return "content-length"
	case "Route", "route":
		return "route"
	case "Record-Route", "record-route":
		return "record-route"
	case "Max-Forwards", "max-forwards":
		return "max-forwards"
	case "Proxy-Received-From", "proxy-received-from":
		return "proxy-received-from"
	case "Proxy-Received-On", "proxy-received-on":
		return "proxy-received-on"
	case "Proxy-Send-From", "proxy-send-from":
		return "proxy-send-from"
	}
	return ASCIIToLower(s)
}

// UriIsSIP reports whether s (case-insensitive) is the "sip" scheme.
func UriIsSIP(s string) bool {
	return strings.EqualFold(s, "sip")
}

// UriIsSIPS reports whether s (case-insensitive) is the "sips" scheme.
func UriIsSIPS(s string) bool {
	return strings.EqualFold(s, "sips")
}
