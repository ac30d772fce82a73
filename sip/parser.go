package sip

import (
	"bytes"
	"strconv"
	"strings"
	"sync"

	"braces.dev/errtrace"
	"github.com/rs/zerolog"
)

// maxStartLineFields guards against unbounded splitting of a pathological
// start line.
const maxStartLineFields = 4

var bufPool = sync.Pool{
	New: func() interface{} { return new(bytes.Buffer) },
}

// Parser turns a complete, already-framed SIP message (see Frame) into a
// Message. It holds no per-message state and is safe for concurrent use.
type Parser struct {
	log            zerolog.Logger
	headersParsers HeadersParser
	metrics        *Metrics
	config         Config
}

// ParserOption configures a Parser at construction time.
type ParserOption func(p *Parser)

// NewParser builds a Parser with the default header dispatch table and a
// disabled logger; pass WithParserLogger to observe skipped headers.
func NewParser(options ...ParserOption) *Parser {
	p := &Parser{
		log:            zerolog.Nop(),
		headersParsers: DefaultHeadersParser(),
		config:         DefaultConfig(),
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// WithParserLogger sets the logger used to report recoverable per-header
// parse failures (the header is kept as a GenericHeader and parsing
// continues).
func WithParserLogger(logger zerolog.Logger) ParserOption {
	return func(p *Parser) { p.log = logger }
}

// WithHeadersParsers overrides the header dispatch table, e.g. to add a
// custom header or to shrink the table to only what a caller expects
// (fewer entries parse marginally faster).
func WithHeadersParsers(hp HeadersParser) ParserOption {
	return func(p *Parser) { p.headersParsers = hp }
}

// WithParserMetrics wires a Metrics instance so parse errors and
// per-header fallbacks are counted.
func WithParserMetrics(m *Metrics) ParserOption {
	return func(p *Parser) { p.metrics = m }
}

// WithParserConfig applies cfg's Encodings on top of the current header
// dispatch table, registering a compact-form alias that resolves to a
// GenericHeader carrying the full header name. Other Config fields are
// consumed by Frame/FrameWithConfig at framing time, not by the parser.
func WithParserConfig(cfg Config) ParserOption {
	return func(p *Parser) {
		p.config = cfg
		if len(cfg.Encodings) == 0 {
			return
		}
		extended := make(HeadersParser, len(p.headersParsers)+len(cfg.Encodings))
		for k, v := range p.headersParsers {
			extended[k] = v
		}
		for compact, full := range cfg.Encodings {
			fullName := full
			extended[HeaderToLower(compact)] = func(headerText string) (Header, error) {
				return NewHeader(fullName, headerText), nil
			}
		}
		p.headersParsers = extended
	}
}

// ParseMessage parses a single complete message using a default Parser.
// Callers handling many messages should build one Parser and reuse it.
func ParseMessage(data []byte) (Message, error) {
	return NewParser().ParseSIP(data)
}

// ParseSIP parses one complete SIP message. data must already be framed
// (see Frame) — ParseSIP does not itself look for message boundaries.
func (p *Parser) ParseSIP(data []byte) (Message, error) {
	buf := bufPool.Get().(*bytes.Buffer)
	defer func() {
		buf.Reset()
		bufPool.Put(buf)
	}()
	buf.Write(data)

	startLine, err := nextLine(buf)
	if err != nil {
		p.countParseError()
		return nil, err
	}

	msg, err := ParseStartLine(startLine)
	if err != nil {
		p.countParseError()
		return nil, err
	}

	for {
		line, err := nextLine(buf)
		if err != nil {
			p.countParseError()
			return nil, newValidationError("Message", StatusBadRequest, "truncated header section: %s", err)
		}
		if line == "" {
			break
		}

		header, err := p.headersParsers.ParseHeaderLine(line)
		if err != nil {
			p.log.Info().Err(err).Str("line", line).Msg("skipping unparsable header")
			if p.metrics != nil {
				p.metrics.HeaderSkips.Inc()
			}
			continue
		}
		msg.AppendHeader(header)
	}

	contentLength, _ := scanContentLength(headerBlockOf(data))
	if contentLength <= 0 {
		return msg, nil
	}

	body := make([]byte, contentLength)
	n, err := buf.Read(body)
	if err != nil && n != contentLength {
		p.countParseError()
		return nil, newValidationError("Message", StatusBadRequest, "read body failed: %s", err)
	}
	if n != contentLength {
		p.countParseError()
		return nil, newValidationError("Message", StatusBadRequest, "incomplete body: read %d of %d bytes", n, contentLength)
	}
	msg.SetBody(body)
	return msg, nil
}

func (p *Parser) countParseError() {
	if p.metrics != nil {
		p.metrics.ParseErrors.Inc()
	}
}

// headerBlockOf returns the raw header bytes (between the start line and
// the blank line) of a framed message, for the Content-Length rescan
// ParseSIP does independent of typed header parsing (a header that fails
// typed parsing must not hide a Content-Length on the same line block).
func headerBlockOf(data []byte) []byte {
	idx := bytes.Index(data, []byte(CRLF+CRLF))
	if idx < 0 {
		idx = len(data)
	}
	firstCRLF := bytes.Index(data, []byte(CRLF))
	if firstCRLF < 0 || firstCRLF > idx {
		return nil
	}
	return data[firstCRLF+2 : idx]
}

// nextLine reads one CRLF-terminated line (without the CRLF) from buf.
func nextLine(buf *bytes.Buffer) (string, error) {
	line, err := buf.ReadString('\n')
	if err != nil {
		return "", err
	}
	if len(line) < 2 || line[len(line)-2] != '\r' {
		return "", newValidationError("Message", StatusBadRequest, "line missing CRLF terminator: %q", line)
	}
	return line[:len(line)-2], nil
}

// ParseStartLine builds an empty Request or Response from a request-line
// or status-line, with no headers or body populated yet.
func ParseStartLine(startLine string) (Message, error) {
	if looksLikeRequestLine(startLine) {
		parts := strings.SplitN(startLine, " ", maxStartLineFields)
		if len(parts) != 3 {
			return nil, newValidationError("Message", StatusBadRequest, "malformed request line %q", startLine)
		}
		recipient, err := ParseUri(parts[1])
		if err != nil {
			return nil, errtrace.Wrap(err)
		}
		if recipient.Wildcard {
			return nil, newValidationError("Message", StatusBadRequest, "wildcard URI not permitted in request line")
		}
		req := NewRequest(RequestMethod(ASCIIToUpper(parts[0])), recipient)
		req.SipVersion = parts[2]
		return req, nil
	}

	if looksLikeStatusLine(startLine) {
		parts := strings.SplitN(startLine, " ", maxStartLineFields-1)
		if len(parts) < 3 {
			return nil, newValidationError("Message", StatusBadRequest, "malformed status line %q", startLine)
		}
		code, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, newValidationError("Message", StatusBadRequest, "invalid status code %q", parts[1])
		}
		res := NewResponse(code, parts[2])
		res.SipVersion = parts[0]
		return res, nil
	}

	return nil, newValidationError("Message", StatusBadRequest, "not a SIP start line: %q", startLine)
}

// looksLikeRequestLine checks "METHOD sip:... SIP/2.0" shape: at least two
// spaces, with the second field (the Request-URI) starting with a sip/sips
// scheme.
func looksLikeRequestLine(startLine string) bool {
	firstSpace := strings.IndexByte(startLine, ' ')
	if firstSpace <= 0 {
		return false
	}
	rest := startLine[firstSpace+1:]
	secondSpace := strings.IndexByte(rest, ' ')
	if secondSpace <= 0 {
		return false
	}
	uriPart := rest[:secondSpace]
	return UriIsSIP(safePrefix(uriPart, 3)) || UriIsSIPS(safePrefix(uriPart, 4))
}

// looksLikeStatusLine checks "SIP/2.0 CODE Reason" shape: a version token
// beginning with "SIP/" followed by at least one more space-separated
// field.
func looksLikeStatusLine(startLine string) bool {
	if !strings.HasPrefix(ASCIIToUpper(startLine), "SIP/") {
		return false
	}
	return strings.IndexByte(startLine, ' ') > 0
}

func safePrefix(s string, n int) string {
	if len(s) < n {
		return s
	}
	return s[:n]
}
