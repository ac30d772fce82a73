package sip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectPing(t *testing.T) {
	cases := []struct {
		name string
		buf  []byte
		want int
	}{
		{"double crlf", []byte("\r\n\r\nINVITE"), 4},
		{"single crlf", []byte("\r\nINVITE"), 2},
		{"jak probe", []byte("jaK\x00rest")},
		{"png probe", []byte("pngrest")},
		{"zero probe", []byte{0, 0, 0, 0, 1}},
		{"not a ping", []byte("INVITE sip:bob@biloxi.com SIP/2.0\r\n")},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, ok := DetectPing(c.buf)
			if c.name == "not a ping" {
				assert.False(t, ok)
				return
			}
			assert.True(t, ok)
		})
	}

	t.Run("longest match wins", func(t *testing.T) {
		n, ok := DetectPing([]byte("\r\n\r\nrest"))
		require.True(t, ok)
		assert.Equal(t, 4, n)
	})
}

const sampleInvite = "INVITE sip:bob@biloxi.com SIP/2.0\r\n" +
	"Via: SIP/2.0/UDP pc33.atlanta.com;branch=z9hG4bK776asdhds\r\n" +
	"Content-Length: 4\r\n" +
	"\r\n" +
	"BODY"

func TestFrame(t *testing.T) {
	t.Run("complete message", func(t *testing.T) {
		res, err := Frame([]byte(sampleInvite), 0)
		require.NoError(t, err)
		assert.Equal(t, len(sampleInvite), res.ConsumedLength)
		assert.False(t, res.IsPing)
	})

	t.Run("incomplete headers", func(t *testing.T) {
		_, err := Frame([]byte("INVITE sip:bob@biloxi.com SIP/2.0\r\nVia: x"), 0)
		assert.ErrorIs(t, err, ErrFrameIncomplete)
	})

	t.Run("incomplete body", func(t *testing.T) {
		partial := sampleInvite[:len(sampleInvite)-2]
		_, err := Frame([]byte(partial), 0)
		assert.ErrorIs(t, err, ErrFrameIncomplete)
	})

	t.Run("too large", func(t *testing.T) {
		_, err := Frame([]byte("INVITE sip:bob@biloxi.com SIP/2.0\r\nVia: x"), 10)
		assert.ErrorIs(t, err, ErrFrameTooLarge)
	})

	t.Run("ping takes priority over framing", func(t *testing.T) {
		res, err := Frame([]byte("\r\n\r\n"), 0)
		require.NoError(t, err)
		assert.True(t, res.IsPing)
		assert.Equal(t, 4, res.ConsumedLength)
	})

	t.Run("trailing bytes beyond one message are not consumed", func(t *testing.T) {
		res, err := Frame([]byte(sampleInvite+"extra garbage"), 0)
		require.NoError(t, err)
		assert.Equal(t, len(sampleInvite), res.ConsumedLength)
	})

	t.Run("leading junk byte below A is skipped", func(t *testing.T) {
		junky := string([]byte{0x20}) + sampleInvite
		res, err := Frame([]byte(junky), 0)
		require.NoError(t, err)
		assert.Equal(t, 1, res.JunkSkipped)
		assert.Equal(t, len(junky), res.ConsumedLength)
		assert.False(t, res.IsPing)
	})

	t.Run("leading junk then a ping probe is still recognised as a ping", func(t *testing.T) {
		junky := string([]byte{0x01}) + "\r\n\r\n"
		res, err := Frame([]byte(junky), 0)
		require.NoError(t, err)
		assert.True(t, res.IsPing)
		assert.Equal(t, 1, res.JunkSkipped)
		assert.Equal(t, len(junky), res.ConsumedLength)
	})

	t.Run("recognised ping probes are not treated as junk", func(t *testing.T) {
		res, err := Frame([]byte{0, 0, 0, 0, 1}, 0)
		require.NoError(t, err)
		assert.True(t, res.IsPing)
		assert.Equal(t, 0, res.JunkSkipped)
		assert.Equal(t, 4, res.ConsumedLength)
	})
}

func TestScanContentLength(t *testing.T) {
	t.Run("standard name", func(t *testing.T) {
		n, ok := scanContentLength([]byte("Via: x\r\nContent-Length: 42\r\n"))
		require.True(t, ok)
		assert.Equal(t, 42, n)
	})

	t.Run("compact form", func(t *testing.T) {
		n, ok := scanContentLength([]byte("Via: x\r\nl: 7\r\n"))
		require.True(t, ok)
		assert.Equal(t, 7, n)
	})

	t.Run("case insensitive and whitespace before colon", func(t *testing.T) {
		n, ok := scanContentLength([]byte("content-length \t: 3\r\n"))
		require.True(t, ok)
		assert.Equal(t, 3, n)
	})

	t.Run("absent", func(t *testing.T) {
		_, ok := scanContentLength([]byte("Via: x\r\n"))
		assert.False(t, ok)
	})

	t.Run("first occurrence wins", func(t *testing.T) {
		n, ok := scanContentLength([]byte("Content-Length: 1\r\nContent-Length: 2\r\n"))
		require.True(t, ok)
		assert.Equal(t, 1, n)
	})
}
