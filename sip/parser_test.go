package sip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRequest = "INVITE sip:bob@biloxi.com SIP/2.0\r\n" +
	"Via: SIP/2.0/UDP pc33.atlanta.com;branch=z9hG4bK776asdhds\r\n" +
	"From: \"Alice\" <sip:alice@atlanta.com>;tag=1928301774\r\n" +
	"To: Bob <sip:bob@biloxi.com>\r\n" +
	"Call-ID: a84b4c76e66710@pc33.atlanta.com\r\n" +
	"CSeq: 314159 INVITE\r\n" +
	"Max-Forwards: 70\r\n" +
	"Content-Length: 4\r\n" +
	"\r\n" +
	"BODY"

const sampleResponse = "SIP/2.0 200 OK\r\n" +
	"Via: SIP/2.0/UDP pc33.atlanta.com;branch=z9hG4bK776asdhds\r\n" +
	"From: \"Alice\" <sip:alice@atlanta.com>;tag=1928301774\r\n" +
	"To: Bob <sip:bob@biloxi.com>;tag=a6c85cf\r\n" +
	"Call-ID: a84b4c76e66710@pc33.atlanta.com\r\n" +
	"CSeq: 314159 INVITE\r\n" +
	"Content-Length: 0\r\n" +
	"\r\n"

func TestParseMessageRequest(t *testing.T) {
	msg, err := ParseMessage([]byte(sampleRequest))
	require.NoError(t, err)

	req, ok := msg.(*Request)
	require.True(t, ok)
	assert.Equal(t, INVITE, req.Method)
	assert.Equal(t, "bob", req.Recipient.User)

	from, ok := req.From()
	require.True(t, ok)
	tag, ok := from.Tag()
	require.True(t, ok)
	assert.Equal(t, "1928301774", tag)

	cseq, ok := req.CSeq()
	require.True(t, ok)
	assert.Equal(t, uint32(314159), cseq.SeqNo)
	assert.Equal(t, []byte("BODY"), req.Body())
}

func TestParseMessageResponse(t *testing.T) {
	msg, err := ParseMessage([]byte(sampleResponse))
	require.NoError(t, err)

	res, ok := msg.(*Response)
	require.True(t, ok)
	assert.Equal(t, 200, res.StatusCode)
	assert.Equal(t, "OK", res.Reason)

	to, ok := res.To()
	require.True(t, ok)
	tag, ok := to.Tag()
	require.True(t, ok)
	assert.Equal(t, "a6c85cf", tag)
}

func TestParseMessageSkipsUnparsableHeaderButKeepsGoing(t *testing.T) {
	raw := "INVITE sip:bob@biloxi.com SIP/2.0\r\n" +
		"Via: garbage-with-no-sent-by\r\n" +
		"Call-ID: abc\r\n" +
		"\r\n"
	msg, err := ParseMessage([]byte(raw))
	require.NoError(t, err)

	callID, ok := msg.CallID()
	require.True(t, ok)
	assert.Equal(t, "abc", string(*callID))
}

func TestParseMessageTruncatedRejected(t *testing.T) {
	_, err := ParseMessage([]byte("INVITE sip:bob@biloxi.com SIP/2.0\r\nVia: x"))
	require.Error(t, err)
}

func TestParseStartLine(t *testing.T) {
	t.Run("request line", func(t *testing.T) {
		msg, err := ParseStartLine("INVITE sip:bob@biloxi.com SIP/2.0")
		require.NoError(t, err)
		req, ok := msg.(*Request)
		require.True(t, ok)
		assert.Equal(t, INVITE, req.Method)
	})

	t.Run("status line", func(t *testing.T) {
		msg, err := ParseStartLine("SIP/2.0 404 Not Found")
		require.NoError(t, err)
		res, ok := msg.(*Response)
		require.True(t, ok)
		assert.Equal(t, 404, res.StatusCode)
		assert.Equal(t, "Not Found", res.Reason)
	})

	t.Run("wildcard request uri rejected", func(t *testing.T) {
		_, err := ParseStartLine("REGISTER * SIP/2.0")
		require.Error(t, err)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		_, err := ParseStartLine("not a sip line")
		require.Error(t, err)
	})
}
