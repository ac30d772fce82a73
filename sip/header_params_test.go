package sip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshalHeaderParams(t *testing.T) {
	t.Run("simple flags and values", func(t *testing.T) {
		var p HeaderParams
		n, err := UnmarshalHeaderParams("rport;received=192.0.2.1;branch=z9hG4bK776a", ';', 0, &p)
		require.NoError(t, err)
		assert.Equal(t, 43, n)
		assert.True(t, p.Has("rport"))
		v, ok := p.Get("received")
		require.True(t, ok)
		assert.Equal(t, "192.0.2.1", v)
	})

	t.Run("quoted value with embedded separator", func(t *testing.T) {
		var p HeaderParams
		_, err := UnmarshalHeaderParams(`tag="a;b"`, ';', 0, &p)
		require.NoError(t, err)
		v, ok := p.Get("tag")
		require.True(t, ok)
		assert.Equal(t, "a;b", v)
	})

	t.Run("first duplicate wins", func(t *testing.T) {
		var p HeaderParams
		_, err := UnmarshalHeaderParams("a=1;a=2", ';', 0, &p)
		require.NoError(t, err)
		v, _ := p.Get("a")
		assert.Equal(t, "1", v)
	})

	t.Run("stops at ending byte", func(t *testing.T) {
		var p HeaderParams
		n, err := UnmarshalHeaderParams("a=1;b=2?notparam", ';', '?', &p)
		require.NoError(t, err)
		assert.Equal(t, 7, n)
		assert.False(t, p.Has("notparam"))
	})
}

func TestHeaderParamsAdd(t *testing.T) {
	p := NewParams()
	p.Add("transport", "udp")
	p.Add("lr", "")
	p.Add("transport", "tcp")

	assert.Equal(t, 2, p.Length())
	v, _ := p.Get("transport")
	assert.Equal(t, "tcp", v, "Add overwrites in place, preserving position")
	assert.Equal(t, []string{"transport", "lr"}, p.Keys())
}

func TestHeaderParamsEquals(t *testing.T) {
	a := NewParams()
	a.Add("Transport", "UDP")
	a.Add("lr", "")

	b := NewParams()
	b.Add("lr", "")
	b.Add("transport", "udp")

	assert.True(t, a.Equals(b), "case-insensitive, order-independent")

	c := NewParams()
	c.Add("transport", "tcp")
	assert.False(t, a.Equals(c))
}

func TestSplitQuoted(t *testing.T) {
	parts := SplitQuoted(`a,"b,c",d`, ',')
	assert.Equal(t, []string{"a", `"b,c"`, "d"}, parts)
}
