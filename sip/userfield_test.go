package sip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserField(t *testing.T) {
	t.Run("display name and angle brackets", func(t *testing.T) {
		uf, err := ParseUserField(`"Bob" <sip:bob@biloxi.com>;tag=a6c85cf`)
		require.NoError(t, err)
		assert.Equal(t, "Bob", uf.DisplayName)
		assert.Equal(t, "bob", uf.Address.User)
		tag, ok := uf.Tag()
		require.True(t, ok)
		assert.Equal(t, "a6c85cf", tag)
	})

	t.Run("bare uri with no angle brackets and no params", func(t *testing.T) {
		uf, err := ParseUserField("sip:bob@biloxi.com")
		require.NoError(t, err)
		assert.Equal(t, "", uf.DisplayName)
		assert.Equal(t, "biloxi.com", uf.Address.Host)
		assert.Equal(t, 0, uf.Params.Length())
	})

	t.Run("bare uri semicolon tail is header params not uri params", func(t *testing.T) {
		uf, err := ParseUserField("sip:bob@biloxi.com;tag=99")
		require.NoError(t, err)
		assert.False(t, uf.Address.UriParams.Has("tag"), "tag belongs to the header, not the URI")
		tag, ok := uf.Tag()
		require.True(t, ok)
		assert.Equal(t, "99", tag)
	})

	t.Run("angle bracket uri keeps its own uri params separate from header params", func(t *testing.T) {
		uf, err := ParseUserField("<sip:bob@biloxi.com;transport=tcp>;tag=99")
		require.NoError(t, err)
		transport, ok := uf.Address.UriParams.Get("transport")
		require.True(t, ok)
		assert.Equal(t, "tcp", transport)
		tag, ok := uf.Tag()
		require.True(t, ok)
		assert.Equal(t, "99", tag)
	})

	t.Run("wildcard", func(t *testing.T) {
		uf, err := ParseUserField("*")
		require.NoError(t, err)
		assert.True(t, uf.Address.Wildcard)
	})

	t.Run("unterminated angle bracket rejected", func(t *testing.T) {
		_, err := ParseUserField("<sip:bob@biloxi.com")
		require.Error(t, err)
	})

	t.Run("quoted display name with semicolon inside is not split", func(t *testing.T) {
		uf, err := ParseUserField(`"Smith; Bob" <sip:bob@biloxi.com>`)
		require.NoError(t, err)
		assert.Equal(t, "Smith; Bob", uf.DisplayName)
	})
}

func TestUserFieldClone(t *testing.T) {
	uf, err := ParseUserField(`"Bob" <sip:bob@biloxi.com>;tag=a6c85cf`)
	require.NoError(t, err)

	clone := uf.Clone()
	clone.Params.Add("tag", "different")
	clone.Address.User = "alice"

	tag, _ := uf.Tag()
	assert.Equal(t, "a6c85cf", tag, "mutating the clone must not affect the original")
	assert.Equal(t, "bob", uf.Address.User)
}
