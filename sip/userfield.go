package sip

import (
	"io"
	"strings"

	"braces.dev/errtrace"
)

// UserField is the "[display-name] <uri>; params" construct used by
// From, To and Contact. Params are header parameters (they belong to the
// header, not the URI) per RFC 3261 §20.10/§20.39.
type UserField struct {
	DisplayName string
	Address     Uri
	Params      HeaderParams
}

func (u UserField) Clone() UserField {
	return UserField{
		DisplayName: u.DisplayName,
		Address:     u.Address.Clone(),
		Params:      u.Params.Clone(),
	}
}

func (u UserField) Tag() (string, bool) {
	return u.Params.Get("tag")
}

func (u UserField) String() string {
	var b strings.Builder
	u.StringWrite(&b)
	return b.String()
}

func (u UserField) StringWrite(buffer io.StringWriter) {
	if u.DisplayName != "" {
		buffer.WriteString("\"")
		buffer.WriteString(u.DisplayName)
		buffer.WriteString("\" ")
	}
	buffer.WriteString("<")
	u.Address.StringWrite(buffer)
	buffer.WriteString(">")
	if u.Params.Length() > 0 {
		buffer.WriteString(";")
		u.Params.ToStringWrite(';', buffer)
	}
}

// ParseUserField parses a From/To/Contact header value. When the value
// contains no angle brackets, any ';'-delimited tail belongs to the
// header's params, not the URI's — this is the critical distinction
// spec §4.3 calls out for From/To correctness.
func ParseUserField(text string) (UserField, error) {
	uf := UserField{Params: NewParams()}

	text = strings.TrimSpace(text)
	if text == "*" {
		uf.Address = Uri{Wildcard: true}
		return uf, nil
	}

	if lt := strings.IndexByte(text, '<'); lt >= 0 {
		gt := findMatchingAngle(text, lt)
		if gt < 0 {
			return UserField{}, newValidationError("UserField", StatusBadRequest, "unterminated '<' in %q", text)
		}
		uf.DisplayName = unquoteDisplayName(strings.TrimSpace(text[:lt]))
		addr, err := ParseUri(text[lt+1 : gt])
		if err != nil {
			return UserField{}, errtrace.Wrap(err)
		}
		uf.Address = addr

		tail := strings.TrimSpace(text[gt+1:])
		tail = strings.TrimPrefix(tail, ";")
		if tail != "" {
			if _, err := UnmarshalHeaderParams(tail, ';', 0, &uf.Params); err != nil {
				return UserField{}, errtrace.Wrap(err)
			}
		}
		return uf, nil
	}

	// No angle brackets: split off the first unquoted ';' — everything
	// from there on is header params, not URI params.
	uriText := text
	if semi := findUnescapedByte(text, ';'); semi >= 0 {
		uriText = text[:semi]
		if _, err := UnmarshalHeaderParams(text[semi+1:], ';', 0, &uf.Params); err != nil {
			return UserField{}, errtrace.Wrap(err)
		}
	}
	addr, err := ParseUri(strings.TrimSpace(uriText))
	if err != nil {
		return UserField{}, errtrace.Wrap(err)
	}
	uf.Address = addr
	return uf, nil
}

func findMatchingAngle(s string, ltIdx int) int {
	inQuotes := false
	for i := ltIdx + 1; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuotes = !inQuotes
		case '>':
			if !inQuotes {
				return i
			}
		}
	}
	return -1
}

func unquoteDisplayName(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}
