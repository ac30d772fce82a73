package sip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "sip", cfg.DefaultScheme)
	assert.Equal(t, TransportUDP, cfg.DefaultTransport)
	assert.Equal(t, DefaultMaxReceiveLength, cfg.MaxMessageBytes)
}

func TestConfigResolvedTransport(t *testing.T) {
	assert.Equal(t, TransportUDP, Config{}.ResolvedTransport())
	assert.Equal(t, TransportTCP, Config{DefaultTransport: TransportTCP}.ResolvedTransport())
}

func TestFrameWithConfig(t *testing.T) {
	cfg := Config{MaxMessageBytes: 16}
	_, err := FrameWithConfig([]byte(sampleRequest), cfg)
	assert.ErrorIs(t, err, ErrFrameTooLarge)

	res, err := FrameWithConfig([]byte(sampleRequest), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, len(sampleRequest), res.ConsumedLength)
}

func TestParserWithConfigEncodings(t *testing.T) {
	cfg := Config{Encodings: map[string]string{"x": "X-Custom"}}
	p := NewParser(WithParserConfig(cfg))

	raw := "INVITE sip:bob@biloxi.com SIP/2.0\r\n" +
		"x: hello\r\n" +
		"Call-ID: abc\r\n" +
		"\r\n"
	msg, err := p.ParseSIP([]byte(raw))
	require.NoError(t, err)

	h := msg.GetHeader("X-Custom")
	require.NotNil(t, h)
	assert.Equal(t, "hello", h.Value())
}

func TestParseUriRelaxedWithConfig(t *testing.T) {
	cfg := Config{DefaultScheme: "sips"}
	u, err := ParseUriRelaxedWithConfig("bob@biloxi.com", cfg)
	require.NoError(t, err)
	assert.Equal(t, "sips", u.Scheme)
}
