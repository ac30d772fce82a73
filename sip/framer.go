package sip

import (
	"bytes"
	"errors"
	"strconv"
)

// DefaultMaxReceiveLength bounds a single framed SIP message (headers +
// body). A message that would exceed it is a framing error, not a parse
// error: the caller should drop the connection/datagram rather than keep
// buffering.
const DefaultMaxReceiveLength = 20 * 1024

var (
	// ErrFrameIncomplete means buf does not yet hold a full message;
	// the caller should read more data and retry with the same start.
	ErrFrameIncomplete = errors.New("sip: incomplete message in buffer")
	// ErrFrameTooLarge means the message (or the as-yet-unterminated
	// header block) exceeds the configured maximum length.
	ErrFrameTooLarge = errors.New("sip: framed message exceeds maximum length")
)

// pingSequences are tried in order; CRLFCRLF is listed before CRLF so the
// longer probe is recognised before its CRLF prefix.
var pingSequences = [][]byte{
	[]byte("\r\n\r\n"),
	[]byte("\r\n"),
	[]byte("jaK\x00"),
	[]byte("png"),
	{0, 0, 0, 0},
}

// DetectPing reports whether buf begins with one of the keep-alive
// probes a SIP stack must tolerate on its listening socket without
// treating them as malformed messages. It returns the number of bytes
// the probe occupies.
func DetectPing(buf []byte) (pingLen int, ok bool) {
	for _, seq := range pingSequences {
		if bytes.HasPrefix(buf, seq) {
			return len(seq), true
		}
	}
	return 0, false
}

// FrameResult describes one framing decision over a caller-owned buffer.
type FrameResult struct {
	// ConsumedLength is how many bytes of buf make up the framed unit
	// (leading junk, if any, plus the message or ping probe). Zero when
	// framing could not complete.
	ConsumedLength int
	IsPing         bool
	// JunkSkipped is how many leading bytes below ASCII 'A' were
	// discarded before the framed unit, typically stray keep-alive
	// noise that isn't one of the recognised ping shapes.
	JunkSkipped int
}

// leadingJunkLength returns how many bytes at the front of buf are below
// ASCII 'A' and so cannot start a request/status line. It stops at the
// first recognised ping probe, so junk followed by a probe leaves the
// probe itself for DetectPing.
func leadingJunkLength(buf []byte) int {
	i := 0
	for i < len(buf) && buf[i] < 'A' {
		if _, ok := DetectPing(buf[i:]); ok {
			break
		}
		i++
	}
	return i
}

// Frame looks for one complete SIP message (or keep-alive probe) at the
// front of buf. It never allocates or copies: the caller owns buf and is
// expected to pass buf[start:] (or an equivalent slice) on each call as
// more bytes arrive, and to advance its own cursor by
// FrameResult.ConsumedLength once Frame succeeds. maxLen caps the total
// framed length; zero selects DefaultMaxReceiveLength.
func Frame(buf []byte, maxLen int) (FrameResult, error) {
	if maxLen <= 0 {
		maxLen = DefaultMaxReceiveLength
	}

	if pingLen, ok := DetectPing(buf); ok {
		return FrameResult{ConsumedLength: pingLen, IsPing: true}, nil
	}

	junk := leadingJunkLength(buf)
	rest := buf[junk:]
	if pingLen, ok := DetectPing(rest); ok {
		return FrameResult{ConsumedLength: junk + pingLen, IsPing: true, JunkSkipped: junk}, nil
	}

	idx := bytes.Index(rest, []byte(CRLF+CRLF))
	if idx < 0 {
		if len(buf) > maxLen {
			return FrameResult{}, ErrFrameTooLarge
		}
		return FrameResult{}, ErrFrameIncomplete
	}

	headerEnd := idx + 4
	contentLength, _ := scanContentLength(rest[:idx])
	total := junk + headerEnd + contentLength

	if total > maxLen {
		return FrameResult{}, ErrFrameTooLarge
	}
	if len(buf) < total {
		return FrameResult{}, ErrFrameIncomplete
	}
	return FrameResult{ConsumedLength: total, JunkSkipped: junk}, nil
}

// FrameWithConfig is Frame with the maximum length taken from cfg instead
// of passed directly, matching the NewParser(cfg) call shape elsewhere in
// this package.
func FrameWithConfig(buf []byte, cfg Config) (FrameResult, error) {
	return Frame(buf, cfg.maxMessageBytes())
}

// FrameWithMetrics is Frame with rejects counted on m, labeled by reason
// ("incomplete" / "too_large"). Pass a nil m to skip counting.
func FrameWithMetrics(buf []byte, maxLen int, m *Metrics) (FrameResult, error) {
	res, err := Frame(buf, maxLen)
	if err != nil && m != nil {
		reason := "incomplete"
		if err == ErrFrameTooLarge {
			reason = "too_large"
		}
		m.FramerRejects.WithLabelValues(reason).Inc()
	}
	return res, err
}

// scanContentLength scans a raw (unparsed) header block for a
// Content-Length header, tolerating its compact form ("l"),
// case-insensitive names, and whitespace/tabs before the colon. The
// first occurrence wins, matching header-parameter semantics elsewhere
// in this codec.
func scanContentLength(headerBlock []byte) (int, bool) {
	for _, line := range bytes.Split(headerBlock, []byte(CRLF)) {
		colon := bytes.IndexByte(line, ':')
		if colon < 0 {
			continue
		}
		name := bytes.TrimRight(line[:colon], " \t")
		switch {
		case bytes.EqualFold(name, []byte("content-length")):
		case bytes.EqualFold(name, []byte("l")):
		default:
			continue
		}
		value := bytes.TrimSpace(line[colon+1:])
		n, err := strconv.Atoi(string(value))
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
