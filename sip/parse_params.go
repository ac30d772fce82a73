package sip

import "strings"

// SplitQuoted splits s on sep, treating double-quoted runs (where a
// backslash-escaped quote does not end the run) as opaque. Leading and
// doubled separators yield empty segments, which callers drop.
//
//	SplitQuoted(`a=1;b="x;y";c`, ';') == []string{"a=1", `b="x;y"`, "c"}
func SplitQuoted(s string, sep byte) []string {
	var out []string
	start := 0
	inQuotes := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			if inQuotes && i > 0 && s[i-1] == '\\' {
				continue
			}
			inQuotes = !inQuotes
		case c == sep && !inQuotes:
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}

// UnmarshalHeaderParams parses s as a run of "key" or "key=value" segments
// delimited by separator, honouring quoted-string values, stopping at the
// first unquoted occurrence of ending (or end of string if ending == 0).
// It returns the index in s at which parsing stopped. Duplicate keys:
// first occurrence wins. Leading/doubled separators are tolerated and
// produce no entry.
func UnmarshalHeaderParams(s string, separator byte, ending byte, p *HeaderParams) (n int, err error) {
	stop := len(s)
	if ending != 0 {
		if idx := findUnescapedByte(s, ending); idx >= 0 {
			stop = idx
		}
	}
	body := s[:stop]

	for _, segment := range SplitQuoted(body, separator) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		key, val, hasVal := cutUnquoted(segment, '=')
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if hasVal {
			val = unquote(strings.TrimSpace(val))
		}
		if !p.Has(key) {
			p.Add(key, val)
		}
	}

	return stop, nil
}

// findUnescapedByte returns the index of the first occurrence of target
// that is not inside a double-quoted run, or -1.
func findUnescapedByte(s string, target byte) int {
	inQuotes := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' && !(i > 0 && s[i-1] == '\\') {
			inQuotes = !inQuotes
			continue
		}
		if c == target && !inQuotes {
			return i
		}
	}
	return -1
}

// cutUnquoted splits segment on the first unquoted occurrence of sep.
func cutUnquoted(segment string, sep byte) (before, after string, found bool) {
	idx := findUnescapedByte(segment, sep)
	if idx < 0 {
		return segment, "", false
	}
	return segment[:idx], segment[idx+1:], true
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return strings.ReplaceAll(s[1:len(s)-1], `\"`, `"`)
	}
	return s
}
