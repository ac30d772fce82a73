package sip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUri(t *testing.T) {
	t.Run("basic", func(t *testing.T) {
		uri, err := ParseUri("sip:alice@localhost:5060")
		require.NoError(t, err)
		assert.Equal(t, "alice", uri.User)
		assert.Equal(t, "localhost", uri.Host)
		assert.Equal(t, 5060, uri.Port)
	})

	t.Run("case insensitive scheme", func(t *testing.T) {
		for _, s := range []string{"sip:alice@atlanta.com", "SIP:alice@atlanta.com", "sIp:alice@atlanta.com"} {
			uri, err := ParseUri(s)
			require.NoError(t, err)
			assert.False(t, uri.IsEncrypted())
		}
		for _, s := range []string{"sips:alice@atlanta.com", "SIPS:alice@atlanta.com"} {
			uri, err := ParseUri(s)
			require.NoError(t, err)
			assert.True(t, uri.IsEncrypted())
		}
	})

	t.Run("missing scheme rejected", func(t *testing.T) {
		_, err := ParseUri("alice@localhost:5060")
		require.Error(t, err)
	})

	t.Run("relaxed parse retries with default scheme", func(t *testing.T) {
		uri, err := ParseUriRelaxed("alice@localhost:5060")
		require.NoError(t, err)
		assert.Equal(t, "sip", uri.Scheme)
	})

	t.Run("header and uri params parsed separately", func(t *testing.T) {
		uri, err := ParseUri("sip:bob:secret@atlanta.com:9999;rport;transport=tcp?to=sip:bob%40biloxi.com")
		require.NoError(t, err)
		assert.Equal(t, "bob", uri.User)
		assert.Equal(t, "secret", uri.Password)
		assert.Equal(t, 9999, uri.Port)

		transport, _ := uri.UriParams.Get("transport")
		assert.Equal(t, "tcp", transport)
		assert.True(t, uri.UriParams.Has("rport"))

		to, ok := uri.Headers.Get("to")
		require.True(t, ok)
		assert.Equal(t, "sip:bob@biloxi.com", to)
	})

	t.Run("wildcard", func(t *testing.T) {
		uri, err := ParseUri("*")
		require.NoError(t, err)
		assert.True(t, uri.Wildcard)
		assert.Equal(t, "*", uri.String())
	})

	t.Run("ipv6 literal", func(t *testing.T) {
		uri, err := ParseUri("sip:[fe80::dc45:996b:6de9:9746]:5060")
		require.NoError(t, err)
		assert.Equal(t, "[fe80::dc45:996b:6de9:9746]", uri.Host)
		assert.Equal(t, 5060, uri.Port)
	})

	t.Run("ipv6 triple colon normalized", func(t *testing.T) {
		uri, err := ParseUri("sip:[fe80:::996b:6de9:9746]:5060")
		require.NoError(t, err)
		assert.Equal(t, "[fe80::996b:6de9:9746]", uri.Host)
	})

	t.Run("unbracketed ipv6 rejected", func(t *testing.T) {
		_, err := ParseUri("sip:fe80::dc45:996b:6de9:9746:5060")
		require.Error(t, err)
	})

	t.Run("comma in host rejected", func(t *testing.T) {
		_, err := ParseUri(`sip:alice@a,b`)
		require.Error(t, err)
	})

	t.Run("quote in host rejected", func(t *testing.T) {
		_, err := ParseUri(`sip:alice@h"ost`)
		require.Error(t, err)
	})

	t.Run("comma in bracketed ipv6 host rejected", func(t *testing.T) {
		_, err := ParseUri(`sip:alice@[fe80::1,2]:5060`)
		require.Error(t, err)
	})
}

func TestUriStringRoundTrip(t *testing.T) {
	t.Run("adds explicit transport when needed", func(t *testing.T) {
		uri, err := ParseUri("sip:alice@atlanta.com;transport=tcp")
		require.NoError(t, err)
		assert.Contains(t, uri.String(), ";transport=tcp")
	})

	t.Run("no redundant transport for sips", func(t *testing.T) {
		uri, err := ParseUri("sips:alice@atlanta.com")
		require.NoError(t, err)
		assert.NotContains(t, uri.String(), "transport=")
	})

	t.Run("to_parameterless keeps only transport", func(t *testing.T) {
		uri, err := ParseUri("sip:alice@atlanta.com;transport=tcp;maddr=10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, "sip:alice@atlanta.com;transport=tcp", uri.ToParameterlessString())
	})
}

func TestUriEquals(t *testing.T) {
	a, err := ParseUri("sip:alice@atlanta.com:5060")
	require.NoError(t, err)
	b, err := ParseUri("sip:alice@atlanta.com")
	require.NoError(t, err)
	assert.True(t, a.Equals(b), "default port should be elided for equality")

	c, err := ParseUri("sip:alice@atlanta.com:5070")
	require.NoError(t, err)
	assert.False(t, a.Equals(c))
}

func TestUriMangleNAT(t *testing.T) {
	uri, err := ParseUri("sip:alice@192.168.1.5:5060")
	require.NoError(t, err)

	received, err := ParseEndpoint("udp:203.0.113.9:5060")
	require.NoError(t, err)

	mangled, ok := uri.MangleNAT(received)
	require.True(t, ok)
	assert.Equal(t, "203.0.113.9", mangled.Host)

	publicURI, err := ParseUri("sip:alice@203.0.113.9:5060")
	require.NoError(t, err)
	_, ok = publicURI.MangleNAT(received)
	assert.False(t, ok, "public hosts are never mangled")
}
